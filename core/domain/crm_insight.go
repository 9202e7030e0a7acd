package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm_server/pkg/apperr"
)

// =============================================================================
// Insight Types
// =============================================================================

// InsightType represents what kind of derived knowledge an insight carries.
type InsightType string

const (
	InsightSegmentation       InsightType = "SEGMENTATION"
	InsightChurnPrediction    InsightType = "CHURN_PREDICTION"
	InsightRecommendation     InsightType = "RECOMMENDATION"
	InsightTrendAnalysis      InsightType = "TREND_ANALYSIS"
	InsightBehaviorPattern    InsightType = "BEHAVIOR_PATTERN"
	InsightSatisfactionScore  InsightType = "SATISFACTION_SCORE"
	InsightEngagementAnalysis InsightType = "ENGAGEMENT_ANALYSIS"
)

// InsightPriority represents how urgently an insight should be acted on.
type InsightPriority string

const (
	InsightPriorityLow      InsightPriority = "LOW"
	InsightPriorityMedium   InsightPriority = "MEDIUM"
	InsightPriorityHigh     InsightPriority = "HIGH"
	InsightPriorityCritical InsightPriority = "CRITICAL"
)

const (
	maxInsightTitleLen       = 100
	maxInsightDescriptionLen = 500

	churnInsightTTL          = 30 * 24 * time.Hour
	recommendationInsightTTL = 7 * 24 * time.Hour
)

// =============================================================================
// Insight Entity
// =============================================================================

// Insight is a derived, confidence-scored prediction or recommendation about
// one client (ClientID set) or the whole base (ClientID empty). Title,
// description and confidence are validated at construction.
type Insight struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id,omitempty"`
	Type        InsightType     `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Data        map[string]any  `json:"data"`
	Confidence  float64         `json:"confidence"`
	Priority    InsightPriority `json:"priority"`
	Actionable  bool            `json:"actionable"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InsightParams holds construction parameters.
type InsightParams struct {
	ID          string
	ClientID    string
	Type        InsightType
	Title       string
	Description string
	Data        map[string]any
	Confidence  float64
	Priority    InsightPriority
	Actionable  bool
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}

// NewInsight validates and builds an Insight.
func NewInsight(p InsightParams) (*Insight, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, apperr.InvalidInput("title", "insight title cannot be empty")
	}
	if len([]rune(p.Title)) > maxInsightTitleLen {
		return nil, apperr.InvalidInput("title", "insight title cannot exceed 100 characters")
	}
	description := strings.TrimSpace(p.Description)
	if description == "" {
		return nil, apperr.InvalidInput("description", "insight description cannot be empty")
	}
	if len([]rune(p.Description)) > maxInsightDescriptionLen {
		return nil, apperr.InvalidInput("description", "insight description cannot exceed 500 characters")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return nil, apperr.InvalidInput("confidence", "confidence must be between 0 and 1")
	}

	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	data := p.Data
	if data == nil {
		data = make(map[string]any)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &Insight{
		ID:          id,
		ClientID:    p.ClientID,
		Type:        p.Type,
		Title:       title,
		Description: description,
		Data:        data,
		Confidence:  p.Confidence,
		Priority:    p.Priority,
		Actionable:  p.Actionable,
		ExpiresAt:   p.ExpiresAt,
		CreatedAt:   createdAt,
	}, nil
}

// =============================================================================
// Factories
// =============================================================================

// NewChurnPrediction derives a churn insight from a churn probability. The
// priority follows the probability bands (>0.7 CRITICAL, >0.5 HIGH, >0.3
// MEDIUM, else LOW), confidence equals the probability and the insight
// expires in 30 days.
func NewChurnPrediction(clientID string, churnProbability float64, factors []string) (*Insight, error) {
	var priority InsightPriority
	switch {
	case churnProbability > 0.7:
		priority = InsightPriorityCritical
	case churnProbability > 0.5:
		priority = InsightPriorityHigh
	case churnProbability > 0.3:
		priority = InsightPriorityMedium
	default:
		priority = InsightPriorityLow
	}

	pct := int(math.Round(churnProbability * 100))
	expiresAt := time.Now().Add(churnInsightTTL)

	return NewInsight(InsightParams{
		ClientID:    clientID,
		Type:        InsightChurnPrediction,
		Title:       fmt.Sprintf("Risco de Churn: %d%%", pct),
		Description: fmt.Sprintf("Cliente com %d%% de probabilidade de churn. Fatores: %s", pct, strings.Join(factors, ", ")),
		Data: map[string]any{
			"churnProbability": churnProbability,
			"factors":          factors,
		},
		Confidence: churnProbability,
		Priority:   priority,
		Actionable: true,
		ExpiresAt:  &expiresAt,
	})
}

// NewRecommendation derives a product recommendation insight. Fixed MEDIUM
// priority, expires in 7 days.
func NewRecommendation(clientID string, products []string, confidence float64) (*Insight, error) {
	expiresAt := time.Now().Add(recommendationInsightTTL)

	return NewInsight(InsightParams{
		ClientID:    clientID,
		Type:        InsightRecommendation,
		Title:       "Recomendações Personalizadas",
		Description: fmt.Sprintf("Produtos recomendados baseados no perfil: %s", strings.Join(products, ", ")),
		Data: map[string]any{
			"products":   products,
			"confidence": confidence,
		},
		Confidence: confidence,
		Priority:   InsightPriorityMedium,
		Actionable: true,
		ExpiresAt:  &expiresAt,
	})
}

// NewSegmentation records the segment a client was placed in. Fixed 0.9
// confidence, LOW priority, not actionable, never expires.
func NewSegmentation(clientID string, segment ClientSegment, characteristics map[string]any) (*Insight, error) {
	return NewInsight(InsightParams{
		ClientID:    clientID,
		Type:        InsightSegmentation,
		Title:       fmt.Sprintf("Segmento: %s", segment),
		Description: fmt.Sprintf("Cliente classificado no segmento %s", segment),
		Data: map[string]any{
			"segment":         string(segment),
			"characteristics": characteristics,
		},
		Confidence: 0.9,
		Priority:   InsightPriorityLow,
		Actionable: false,
	})
}

// =============================================================================
// Amendments & Helpers
// =============================================================================

// UpdatePriority replaces the priority.
func (i *Insight) UpdatePriority(priority InsightPriority) {
	i.Priority = priority
}

// UpdateConfidence replaces the confidence, re-validating the range.
func (i *Insight) UpdateConfidence(confidence float64) error {
	if confidence < 0 || confidence > 1 {
		return apperr.InvalidInput("confidence", "confidence must be between 0 and 1")
	}
	i.Confidence = confidence
	return nil
}

// AddData attaches an open key-value pair.
func (i *Insight) AddData(key string, value any) {
	if i.Data == nil {
		i.Data = make(map[string]any)
	}
	i.Data[key] = value
}

// IsExpired reports whether the insight has passed its expiry. Insights
// without an expiry never expire.
func (i *Insight) IsExpired() bool {
	if i.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*i.ExpiresAt)
}

func (i *Insight) IsCritical() bool {
	return i.Priority == InsightPriorityCritical
}

// IsHighConfidence reports whether confidence is at least 0.8.
func (i *Insight) IsHighConfidence() bool {
	return i.Confidence >= 0.8
}

func (i *Insight) IsClientSpecific() bool {
	return i.ClientID != ""
}

func (i *Insight) IsGlobal() bool {
	return i.ClientID == ""
}

// ConfidencePercentage returns the confidence as a rounded percentage.
func (i *Insight) ConfidencePercentage() int {
	return int(math.Round(i.Confidence * 100))
}
