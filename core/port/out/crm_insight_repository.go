package out

import (
	"context"

	"crm_server/core/domain"
)

// InsightRepository defines the outbound port for insight persistence.
type InsightRepository interface {
	Save(ctx context.Context, insight *domain.Insight) error
	SaveMany(ctx context.Context, insights []*domain.Insight) error
	FindByID(ctx context.Context, id string) (*domain.Insight, error)

	// Query operations. Expired insights are excluded.
	FindByClient(ctx context.Context, clientID string, limit int) ([]*domain.Insight, error)
	FindByType(ctx context.Context, insightType domain.InsightType, limit int) ([]*domain.Insight, error)
	FindActionable(ctx context.Context, limit int) ([]*domain.Insight, error)
	FindCritical(ctx context.Context, limit int) ([]*domain.Insight, error)

	DeleteByClient(ctx context.Context, clientID string, insightType domain.InsightType) error
}
