package out

import (
	"context"
)

// MessageProducer defines the outbound port for the message queue producer.
type MessageProducer interface {
	// Message pipeline jobs
	PublishMessageProcess(ctx context.Context, job *MessageProcessJob) error
	PublishClientAnalyze(ctx context.Context, job *ClientAnalyzeJob) error
	PublishReplySend(ctx context.Context, job *ReplySendJob) error
}

// Job types for the message queue

// MessageProcessJob carries one inbound WhatsApp message through the
// classification pipeline.
type MessageProcessJob struct {
	MessageID      string `json:"message_id"`
	WhatsappNumber string `json:"whatsapp_number"`
	ContactName    string `json:"contact_name,omitempty"`
	MessageType    string `json:"message_type"`
	Body           string `json:"body,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// ClientAnalyzeJob triggers a full scoring pass for one client.
type ClientAnalyzeJob struct {
	ClientID string `json:"client_id"`
	Reason   string `json:"reason,omitempty"` // new_interaction, scheduled, manual
}

// ReplySendJob sends an automatic reply back to a client.
type ReplySendJob struct {
	WhatsappNumber string `json:"whatsapp_number"`
	Body           string `json:"body"`
	InReplyTo      string `json:"in_reply_to,omitempty"`
}
