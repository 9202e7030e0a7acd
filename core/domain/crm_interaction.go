package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"crm_server/pkg/apperr"
)

// =============================================================================
// Interaction Types
// =============================================================================

// InteractionType represents the business category of a customer message.
type InteractionType string

const (
	InteractionPurchase      InteractionType = "PURCHASE"
	InteractionFeedback      InteractionType = "FEEDBACK"
	InteractionQuestion      InteractionType = "QUESTION"
	InteractionComplaint     InteractionType = "COMPLAINT"
	InteractionProfileUpdate InteractionType = "PROFILE_UPDATE"
	InteractionGeneral       InteractionType = "GENERAL"
)

// SentimentType represents the coarse polarity of a message.
type SentimentType string

const (
	SentimentPositive SentimentType = "POSITIVE"
	SentimentNeutral  SentimentType = "NEUTRAL"
	SentimentNegative SentimentType = "NEGATIVE"
)

const maxInteractionContentLen = 1000

// =============================================================================
// Interaction Entity
// =============================================================================

// Interaction is a single classified customer message, owned by a Client.
// Content is validated at construction; only Sentiment and Metadata may be
// amended afterwards.
type Interaction struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"client_id"`
	Type      InteractionType `json:"type"`
	Content   string          `json:"content"`
	Value     *float64        `json:"value,omitempty"`
	Category  string          `json:"category,omitempty"`
	Sentiment SentimentType   `json:"sentiment"`
	Metadata  map[string]any  `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

// InteractionParams holds optional construction parameters.
type InteractionParams struct {
	ID        string
	ClientID  string
	Type      InteractionType
	Content   string
	Value     *float64
	Category  string
	Sentiment SentimentType
	Metadata  map[string]any
	CreatedAt time.Time
}

// NewInteraction validates and builds an Interaction. Content must be
// non-empty after trimming and at most 1000 characters.
func NewInteraction(p InteractionParams) (*Interaction, error) {
	content, err := validateInteractionContent(p.Content)
	if err != nil {
		return nil, err
	}

	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	sentiment := p.Sentiment
	if sentiment == "" {
		sentiment = SentimentNeutral
	}
	metadata := p.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &Interaction{
		ID:        id,
		ClientID:  p.ClientID,
		Type:      p.Type,
		Content:   content,
		Value:     p.Value,
		Category:  p.Category,
		Sentiment: sentiment,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}, nil
}

func validateInteractionContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", apperr.InvalidInput("content", "interaction content cannot be empty")
	}
	if len([]rune(content)) > maxInteractionContentLen {
		return "", apperr.InvalidInput("content", "interaction content cannot exceed 1000 characters")
	}
	return trimmed, nil
}

// =============================================================================
// Typed Constructors
// =============================================================================

// NewPurchase builds a purchase interaction with POSITIVE sentiment.
func NewPurchase(clientID, content string, value float64, category string) (*Interaction, error) {
	return NewInteraction(InteractionParams{
		ClientID:  clientID,
		Type:      InteractionPurchase,
		Content:   content,
		Value:     &value,
		Category:  category,
		Sentiment: SentimentPositive,
	})
}

// NewFeedback builds a feedback interaction with the given sentiment.
func NewFeedback(clientID, content string, sentiment SentimentType) (*Interaction, error) {
	return NewInteraction(InteractionParams{
		ClientID:  clientID,
		Type:      InteractionFeedback,
		Content:   content,
		Sentiment: sentiment,
	})
}

// NewComplaint builds a complaint interaction with NEGATIVE sentiment.
func NewComplaint(clientID, content string) (*Interaction, error) {
	return NewInteraction(InteractionParams{
		ClientID:  clientID,
		Type:      InteractionComplaint,
		Content:   content,
		Sentiment: SentimentNegative,
	})
}

// NewQuestion builds a question interaction with NEUTRAL sentiment.
func NewQuestion(clientID, content string) (*Interaction, error) {
	return NewInteraction(InteractionParams{
		ClientID:  clientID,
		Type:      InteractionQuestion,
		Content:   content,
		Sentiment: SentimentNeutral,
	})
}

// =============================================================================
// Amendments & Helpers
// =============================================================================

// UpdateSentiment amends the sentiment after the fact.
func (i *Interaction) UpdateSentiment(sentiment SentimentType) {
	i.Sentiment = sentiment
}

// AddMetadata attaches an open key-value pair.
func (i *Interaction) AddMetadata(key string, value any) {
	if i.Metadata == nil {
		i.Metadata = make(map[string]any)
	}
	i.Metadata[key] = value
}

func (i *Interaction) IsPurchase() bool {
	return i.Type == InteractionPurchase
}

func (i *Interaction) IsComplaint() bool {
	return i.Type == InteractionComplaint
}

func (i *Interaction) IsPositive() bool {
	return i.Sentiment == SentimentPositive
}

func (i *Interaction) IsNegative() bool {
	return i.Sentiment == SentimentNegative
}

// HasValue reports whether the interaction carries a positive monetary value.
func (i *Interaction) HasValue() bool {
	return i.Value != nil && *i.Value > 0
}

// ValueOrZero returns the monetary value, or 0 when absent.
func (i *Interaction) ValueOrZero() float64 {
	if i.Value == nil {
		return 0
	}
	return *i.Value
}
