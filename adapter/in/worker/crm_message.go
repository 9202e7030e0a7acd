package worker

import (
	"time"

	"github.com/google/uuid"
)

// Priority levels for job scheduling.
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// JobType represents the type of a job.
type JobType = string

// Job types
const (
	// Message pipeline jobs
	JobMessageProcess JobType = "message.process"
	JobReplySend              = "reply.send"

	// Scoring jobs
	JobClientAnalyze = "client.analyze"
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Priority  Priority       `json:"priority"`
	CreatedAt time.Time      `json:"created_at"`
	Retries   int            `json:"retries"`
}

func NewMessage(jobType string, payload map[string]any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payload,
		Priority:  PriorityNormal,
		CreatedAt: time.Now(),
		Retries:   0,
	}
}

// NewPriorityMessage creates a message with specific priority.
func NewPriorityMessage(jobType string, payload map[string]any, priority Priority) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payload,
		Priority:  priority,
		CreatedAt: time.Now(),
		Retries:   0,
	}
}

// IsPriority checks if message should go to priority queue.
func (m *Message) IsPriority() bool {
	return m.Priority >= PriorityHigh
}

// MessageProcessPayload carries one inbound WhatsApp message through the
// classification pipeline.
type MessageProcessPayload struct {
	MessageID      string `json:"message_id"`
	WhatsappNumber string `json:"whatsapp_number"`
	ContactName    string `json:"contact_name,omitempty"`
	MessageType    string `json:"message_type"`
	Body           string `json:"body,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// ClientAnalyzePayload triggers a full scoring pass for one client.
type ClientAnalyzePayload struct {
	ClientID string `json:"client_id"`
	Reason   string `json:"reason,omitempty"`
}

// ReplySendPayload carries an outbound automatic reply.
type ReplySendPayload struct {
	WhatsappNumber string `json:"whatsapp_number"`
	Body           string `json:"body"`
	InReplyTo      string `json:"in_reply_to,omitempty"`
}
