package http

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"crm_server/core/domain"
	"crm_server/core/port/out"
	"crm_server/pkg/logger"
)

const IdempotencyTTL = 5 * time.Minute

// WebhookMetrics tracks webhook ingestion counters.
type WebhookMetrics struct {
	Received   int64
	Queued     int64
	Duplicates int64
	Errors     int64
}

// WebhookHandler receives WhatsApp Business webhook deliveries. Inbound
// messages are deduplicated through Redis and queued for the worker, the
// webhook itself always answers fast so Meta does not retry.
type WebhookHandler struct {
	producer    out.MessageProducer
	redis       *redis.Client
	verifyToken string
	metrics     WebhookMetrics
	log         *logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(producer out.MessageProducer, redisClient *redis.Client, verifyToken string, log *logger.Logger) *WebhookHandler {
	if log == nil {
		log = logger.Default()
	}
	return &WebhookHandler{
		producer:    producer,
		redis:       redisClient,
		verifyToken: verifyToken,
		log:         log,
	}
}

// Register registers webhook routes. The GET route is Meta's subscription
// handshake, the POST route receives message deliveries.
func (h *WebhookHandler) Register(app *fiber.App) {
	app.Get("/webhook/whatsapp", h.Verify)
	app.Post("/webhook/whatsapp", h.Receive)
	app.Get("/api/v1/webhook/whatsapp", h.Verify)
	app.Post("/api/v1/webhook/whatsapp", h.Receive)
}

// GetMetrics returns current webhook metrics.
func (h *WebhookHandler) GetMetrics() WebhookMetrics {
	return WebhookMetrics{
		Received:   atomic.LoadInt64(&h.metrics.Received),
		Queued:     atomic.LoadInt64(&h.metrics.Queued),
		Duplicates: atomic.LoadInt64(&h.metrics.Duplicates),
		Errors:     atomic.LoadInt64(&h.metrics.Errors),
	}
}

// Verify answers the webhook subscription handshake by echoing the
// challenge when the verify token matches.
func (h *WebhookHandler) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		h.log.Warn("webhook verification rejected: mode=%s", mode)
		return fiber.NewError(fiber.StatusForbidden, "Verification failed")
	}

	return c.SendString(challenge)
}

// Receive ingests a webhook delivery. Each message is deduplicated and
// queued; the response is always 200 so the provider does not retry
// deliveries that failed on our side.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var payload domain.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		atomic.AddInt64(&h.metrics.Errors, 1)
		return fiber.NewError(fiber.StatusBadRequest, "Invalid webhook payload")
	}

	messages := payload.FlattenMessages()
	atomic.AddInt64(&h.metrics.Received, int64(len(messages)))

	for _, msg := range messages {
		if h.isDuplicate(c.Context(), msg.ID) {
			continue
		}

		job := &out.MessageProcessJob{
			MessageID:      msg.ID,
			WhatsappNumber: msg.From,
			ContactName:    payload.ContactName(msg.From),
			MessageType:    string(msg.Type),
			Body:           msg.Body(),
			Timestamp:      msg.Timestamp,
		}

		if err := h.producer.PublishMessageProcess(c.Context(), job); err != nil {
			atomic.AddInt64(&h.metrics.Errors, 1)
			h.log.WithError(err).WithField("message_id", msg.ID).
				Error("failed to queue inbound message")
			continue
		}
		atomic.AddInt64(&h.metrics.Queued, 1)
	}

	return c.JSON(fiber.Map{"status": "received"})
}

func (h *WebhookHandler) idempotencyKey(messageID string) string {
	return fmt.Sprintf("webhook:idempotent:msg:%s", messageID)
}

// isDuplicate reports whether the message was already seen. Without Redis
// every delivery is treated as new.
func (h *WebhookHandler) isDuplicate(ctx context.Context, messageID string) bool {
	if h.redis == nil || messageID == "" {
		return false
	}
	ok, err := h.redis.SetNX(ctx, h.idempotencyKey(messageID), "1", IdempotencyTTL).Result()
	if err != nil || !ok {
		atomic.AddInt64(&h.metrics.Duplicates, 1)
		return true
	}
	return false
}
