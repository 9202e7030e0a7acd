package out

import (
	"context"
)

// MessageSender defines the outbound port for sending WhatsApp messages.
type MessageSender interface {
	// SendText sends a plain text message and returns the provider message id.
	SendText(ctx context.Context, to, body string) (string, error)

	// MarkAsRead marks an inbound message as read.
	MarkAsRead(ctx context.Context, messageID string) error
}
