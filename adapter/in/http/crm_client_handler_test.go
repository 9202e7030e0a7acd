package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"crm_server/core/domain"
	"crm_server/core/port/out"
)

// =============================================================================
// Stubs
// =============================================================================

type stubClientRepo struct {
	client       *domain.Client
	lastQuery    *out.ClientListQuery
	segmentCalls int
}

func (s *stubClientRepo) Save(ctx context.Context, client *domain.Client) error { return nil }

func (s *stubClientRepo) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	return s.client, nil
}

func (s *stubClientRepo) FindByWhatsappNumber(ctx context.Context, number string) (*domain.Client, error) {
	return s.client, nil
}

func (s *stubClientRepo) Delete(ctx context.Context, id string) error { return nil }

func (s *stubClientRepo) FindAll(ctx context.Context, query *out.ClientListQuery) ([]*domain.Client, int64, error) {
	s.lastQuery = query
	return nil, 0, nil
}

func (s *stubClientRepo) CountBySegment(ctx context.Context) (map[domain.ClientSegment]int64, error) {
	s.segmentCalls++
	return map[domain.ClientSegment]int64{domain.SegmentVIP: 2}, nil
}

func (s *stubClientRepo) CountByChurnRisk(ctx context.Context) (map[domain.ChurnRisk]int64, error) {
	return map[domain.ChurnRisk]int64{domain.ChurnLow: 2}, nil
}

func (s *stubClientRepo) AverageEngagement(ctx context.Context) (float64, error) { return 55, nil }

type stubInteractionRepo struct {
	lastType   domain.InteractionType
	typedCalls int
}

func (s *stubInteractionRepo) Save(ctx context.Context, interaction *domain.Interaction) error {
	return nil
}

func (s *stubInteractionRepo) FindByID(ctx context.Context, id string) (*domain.Interaction, error) {
	return nil, nil
}

func (s *stubInteractionRepo) FindByClient(ctx context.Context, clientID string, limit int) ([]*domain.Interaction, error) {
	return nil, nil
}

func (s *stubInteractionRepo) FindByClientAndType(ctx context.Context, clientID string, interactionType domain.InteractionType, limit int) ([]*domain.Interaction, error) {
	s.lastType = interactionType
	s.typedCalls++
	return nil, nil
}

func (s *stubInteractionRepo) CountByClient(ctx context.Context, clientID string) (int64, error) {
	return 0, nil
}

func (s *stubInteractionRepo) TotalPurchaseValue(ctx context.Context, clientID string) (float64, error) {
	return 0, nil
}

func (s *stubInteractionRepo) LastInteractionAt(ctx context.Context, clientID string) (*time.Time, error) {
	return nil, nil
}

type fakeCache struct {
	store map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok := f.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = data
	return nil
}

func newTestApp(clients *stubClientRepo, interactions *stubInteractionRepo, analyticsCache AnalyticsCache) *fiber.App {
	app := fiber.New()
	handler := NewClientHandler(clients, interactions, nil, nil, analyticsCache)
	handler.Register(app)
	return app
}

// =============================================================================
// Tests
// =============================================================================

func TestListClientsFilterPassthrough(t *testing.T) {
	repo := &stubClientRepo{}
	app := newTestApp(repo, &stubInteractionRepo{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/clients?segment=VIP&churn_risk=LOW", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if repo.lastQuery == nil {
		t.Fatal("expected FindAll to be called")
	}
	if repo.lastQuery.Segment != "VIP" {
		t.Errorf("expected segment filter VIP, got %q", repo.lastQuery.Segment)
	}
	if repo.lastQuery.ChurnRisk != "LOW" {
		t.Errorf("expected churn risk filter LOW, got %q", repo.lastQuery.ChurnRisk)
	}
}

func TestListInteractionsTypeFilter(t *testing.T) {
	client := &domain.Client{ID: "c1", WhatsappNumber: "5511999998888"}
	interactions := &stubInteractionRepo{}
	app := newTestApp(&stubClientRepo{client: client}, interactions, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/clients/c1/interactions?type=PURCHASE", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if interactions.typedCalls != 1 {
		t.Fatalf("expected one typed lookup, got %d", interactions.typedCalls)
	}
	if interactions.lastType != domain.InteractionPurchase {
		t.Errorf("expected PURCHASE filter, got %q", interactions.lastType)
	}
}

func TestListInteractionsUnknownType(t *testing.T) {
	client := &domain.Client{ID: "c1", WhatsappNumber: "5511999998888"}
	app := newTestApp(&stubClientRepo{client: client}, &stubInteractionRepo{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/clients/c1/interactions?type=BOGUS", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAnalyticsSummaryCached(t *testing.T) {
	repo := &stubClientRepo{}
	app := newTestApp(repo, &stubInteractionRepo{}, newFakeCache())

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/analytics/summary", nil))
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	if repo.segmentCalls != 1 {
		t.Errorf("expected the second request to hit the cache, aggregation ran %d times", repo.segmentCalls)
	}
}
