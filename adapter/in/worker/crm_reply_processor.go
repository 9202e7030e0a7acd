package worker

import (
	"context"
	"fmt"

	"crm_server/core/port/out"
	"crm_server/pkg/logger"
)

// =============================================================================
// Reply Processor
// =============================================================================

// ReplyProcessor delivers queued automatic replies through the WhatsApp
// Cloud API.
type ReplyProcessor struct {
	sender out.MessageSender
	log    *logger.Logger
}

// NewReplyProcessor creates a new ReplyProcessor.
func NewReplyProcessor(sender out.MessageSender, log *logger.Logger) *ReplyProcessor {
	if log == nil {
		log = logger.Default()
	}
	return &ReplyProcessor{
		sender: sender,
		log:    log,
	}
}

// ProcessSend handles a reply.send job.
func (p *ReplyProcessor) ProcessSend(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[ReplySendPayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse reply.send payload: %w", err)
	}
	if payload.WhatsappNumber == "" || payload.Body == "" {
		return fmt.Errorf("reply.send payload missing recipient or body")
	}

	providerID, err := p.sender.SendText(ctx, payload.WhatsappNumber, payload.Body)
	if err != nil {
		return err
	}

	p.log.WithFields(map[string]any{
		"to":          payload.WhatsappNumber,
		"provider_id": providerID,
		"in_reply_to": payload.InReplyTo,
	}).Info("reply sent")

	return nil
}
