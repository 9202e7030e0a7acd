package worker

import (
	"context"

	"github.com/goccy/go-json"

	"crm_server/pkg/logger"
)

type Handler struct {
	messageProcessor  *MessageProcessor
	analysisProcessor *AnalysisProcessor
	replyProcessor    *ReplyProcessor
	log               *logger.Logger
}

func NewHandler(
	messageProcessor *MessageProcessor,
	analysisProcessor *AnalysisProcessor,
	replyProcessor *ReplyProcessor,
	log *logger.Logger,
) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		messageProcessor:  messageProcessor,
		analysisProcessor: analysisProcessor,
		replyProcessor:    replyProcessor,
		log:               log,
	}
}

func (h *Handler) Process(ctx context.Context, msg *Message) error {
	h.log.Debug("processing job: %s", msg.Type)

	switch msg.Type {
	// Message pipeline jobs
	case JobMessageProcess:
		return h.messageProcessor.ProcessMessage(ctx, msg)
	case JobReplySend:
		return h.replyProcessor.ProcessSend(ctx, msg)

	// Scoring jobs
	case JobClientAnalyze:
		return h.analysisProcessor.ProcessAnalyze(ctx, msg)

	default:
		h.log.Warn("unknown job type: %s", msg.Type)
		return nil
	}
}

func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
