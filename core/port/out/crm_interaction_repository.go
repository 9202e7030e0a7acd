package out

import (
	"context"
	"time"

	"crm_server/core/domain"
)

// InteractionRepository defines the outbound port for interaction persistence.
type InteractionRepository interface {
	Save(ctx context.Context, interaction *domain.Interaction) error
	FindByID(ctx context.Context, id string) (*domain.Interaction, error)

	// Query operations
	FindByClient(ctx context.Context, clientID string, limit int) ([]*domain.Interaction, error)
	FindByClientAndType(ctx context.Context, clientID string, interactionType domain.InteractionType, limit int) ([]*domain.Interaction, error)

	// Aggregates used by the scoring engine
	CountByClient(ctx context.Context, clientID string) (int64, error)
	TotalPurchaseValue(ctx context.Context, clientID string) (float64, error)
	LastInteractionAt(ctx context.Context, clientID string) (*time.Time, error)
}
