package worker

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"crm_server/adapter/out/messaging"
	"crm_server/pkg/logger"
)

// =============================================================================
// Stream Handler
// =============================================================================

// streamJobTypes maps Redis stream names to pool job types.
var streamJobTypes = map[string]JobType{
	messaging.StreamMessageProcess: JobMessageProcess,
	messaging.StreamClientAnalyze:  JobClientAnalyze,
	messaging.StreamReplySend:      JobReplySend,
}

// StreamHandler bridges the stream consumer and the worker pool. Stream
// payloads become pool messages; once a job is accepted by the pool the
// stream entry is acknowledged and retries are the pool's responsibility.
type StreamHandler struct {
	pool *Pool
	log  *logger.Logger
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(pool *Pool, log *logger.Logger) *StreamHandler {
	if log == nil {
		log = logger.Default()
	}
	return &StreamHandler{
		pool: pool,
		log:  log,
	}
}

// Handle implements messaging.JobHandler.
func (h *StreamHandler) Handle(ctx context.Context, stream string, data []byte) error {
	jobType, ok := streamJobTypes[stream]
	if !ok {
		h.log.Warn("message from unknown stream: %s", stream)
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", stream, err)
	}

	var submitted bool
	if jobType == JobReplySend {
		// Replies jump the queue so customers are not kept waiting.
		submitted = h.pool.SubmitPriority(NewPriorityMessage(jobType, payload, PriorityHigh))
	} else {
		submitted = h.pool.Submit(NewMessage(jobType, payload))
	}

	if !submitted {
		return fmt.Errorf("worker pool rejected %s job", jobType)
	}
	return nil
}

// Ensure StreamHandler implements messaging.JobHandler
var _ messaging.JobHandler = (*StreamHandler)(nil)
