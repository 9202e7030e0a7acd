// Package messaging provides message queue adapters.
package messaging

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"crm_server/core/port/out"

	"github.com/redis/go-redis/v9"
)

// Stream names
const (
	StreamMessageProcess = "message:process"
	StreamClientAnalyze  = "client:analyze"
	StreamReplySend      = "reply:send"
)

// RedisProducer implements out.MessageProducer using Redis Streams.
type RedisProducer struct {
	client *redis.Client
}

// NewRedisProducer creates a new RedisProducer.
func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client}
}

// PublishMessageProcess publishes an inbound message classification job.
func (p *RedisProducer) PublishMessageProcess(ctx context.Context, job *out.MessageProcessJob) error {
	return p.publish(ctx, StreamMessageProcess, job)
}

// PublishClientAnalyze publishes a client scoring job.
func (p *RedisProducer) PublishClientAnalyze(ctx context.Context, job *out.ClientAnalyzeJob) error {
	return p.publish(ctx, StreamClientAnalyze, job)
}

// PublishReplySend publishes an outbound reply job.
func (p *RedisProducer) PublishReplySend(ctx context.Context, job *out.ReplySendJob) error {
	return p.publish(ctx, StreamReplySend, job)
}

// publish publishes a job to a stream using go-redis.
func (p *RedisProducer) publish(ctx context.Context, stream string, job interface{}) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}

	return nil
}

// Ensure RedisProducer implements out.MessageProducer
var _ out.MessageProducer = (*RedisProducer)(nil)
