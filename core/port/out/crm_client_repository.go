package out

import (
	"context"

	"crm_server/core/domain"
)

// ClientRepository defines the outbound port for client persistence.
type ClientRepository interface {
	// CRUD operations
	Save(ctx context.Context, client *domain.Client) error
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	FindByWhatsappNumber(ctx context.Context, number string) (*domain.Client, error)
	Delete(ctx context.Context, id string) error

	// Query operations
	FindAll(ctx context.Context, query *ClientListQuery) ([]*domain.Client, int64, error)

	// Aggregates
	CountBySegment(ctx context.Context) (map[domain.ClientSegment]int64, error)
	CountByChurnRisk(ctx context.Context) (map[domain.ChurnRisk]int64, error)
	AverageEngagement(ctx context.Context) (float64, error)
}

// ClientListQuery represents client list query parameters.
type ClientListQuery struct {
	Segment   string
	ChurnRisk string
	Search    string
	Limit     int
	Offset    int
}
