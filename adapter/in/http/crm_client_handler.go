package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"crm_server/core/domain"
	"crm_server/core/port/out"
	"crm_server/pkg/response"
)

// AnalyticsCache caches aggregated summaries between dashboard polls.
type AnalyticsCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const (
	summaryCacheTTL     = time.Minute
	segmentSummaryKey   = "cache:clients:segments"
	analyticsSummaryKey = "cache:analytics:summary"
)

// ClientHandler handles client requests.
type ClientHandler struct {
	clients      out.ClientRepository
	interactions out.InteractionRepository
	insights     out.InsightRepository
	producer     out.MessageProducer
	cache        AnalyticsCache
}

// NewClientHandler creates a new client handler. The cache is optional; a nil
// cache disables summary caching.
func NewClientHandler(
	clients out.ClientRepository,
	interactions out.InteractionRepository,
	insights out.InsightRepository,
	producer out.MessageProducer,
	analyticsCache AnalyticsCache,
) *ClientHandler {
	return &ClientHandler{
		clients:      clients,
		interactions: interactions,
		insights:     insights,
		producer:     producer,
		cache:        analyticsCache,
	}
}

// Register registers client routes.
func (h *ClientHandler) Register(router fiber.Router) {
	clients := router.Group("/clients")

	clients.Get("/", h.ListClients)
	clients.Get("/segments/summary", h.SegmentSummary)
	clients.Get("/by-number/:number", h.GetClientByNumber)
	clients.Get("/:id", h.GetClient)
	clients.Get("/:id/interactions", h.ListInteractions)
	clients.Get("/:id/insights", h.ListInsights)
	clients.Post("/:id/analyze", h.RequestAnalysis)
	clients.Delete("/:id", h.DeleteClient)

	router.Get("/analytics/summary", h.AnalyticsSummary)
}

// ListClients returns a paginated client list, optionally filtered by
// segment, churn risk and free text search.
func (h *ClientHandler) ListClients(c *fiber.Ctx) error {
	pagination := response.GetPagination(c, 50, 200)

	query := &out.ClientListQuery{
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	}
	if segment := c.Query("segment"); segment != "" {
		query.Segment = segment
	}
	if risk := c.Query("churn_risk"); risk != "" {
		query.ChurnRisk = risk
	}
	query.Search = c.Query("search")

	clients, total, err := h.clients.FindAll(c.Context(), query)
	if err != nil {
		return err
	}

	return response.OKWithMeta(c, clients, &response.Meta{
		Total:    int(total),
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
		HasMore:  int64(pagination.Offset+len(clients)) < total,
	})
}

// GetClient returns a single client.
func (h *ClientHandler) GetClient(c *fiber.Ctx) error {
	client, err := h.clients.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if client == nil {
		return response.NotFound(c, "Client not found")
	}
	return response.OK(c, client)
}

// GetClientByNumber returns a single client looked up by WhatsApp number.
// The number is canonicalized before lookup, so "+55 11 9..." works too.
func (h *ClientHandler) GetClientByNumber(c *fiber.Ctx) error {
	number, err := domain.CanonicalWhatsappNumber(c.Params("number"))
	if err != nil {
		return err
	}

	client, err := h.clients.FindByWhatsappNumber(c.Context(), number)
	if err != nil {
		return err
	}
	if client == nil {
		return response.NotFound(c, "Client not found")
	}
	return response.OK(c, client)
}

// ListInteractions returns the newest interactions of a client, optionally
// filtered by interaction type.
func (h *ClientHandler) ListInteractions(c *fiber.Ctx) error {
	client, err := h.clients.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if client == nil {
		return response.NotFound(c, "Client not found")
	}

	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}

	var interactions []*domain.Interaction
	if t := c.Query("type"); t != "" {
		interactionType := domain.InteractionType(t)
		switch interactionType {
		case domain.InteractionPurchase, domain.InteractionFeedback, domain.InteractionQuestion,
			domain.InteractionComplaint, domain.InteractionProfileUpdate, domain.InteractionGeneral:
		default:
			return response.BadRequest(c, "Unknown interaction type")
		}
		interactions, err = h.interactions.FindByClientAndType(c.Context(), client.ID, interactionType, limit)
	} else {
		interactions, err = h.interactions.FindByClient(c.Context(), client.ID, limit)
	}
	if err != nil {
		return err
	}

	return response.OK(c, fiber.Map{
		"interactions": interactions,
		"total":        len(interactions),
	})
}

// ListInsights returns the active insights of a client.
func (h *ClientHandler) ListInsights(c *fiber.Ctx) error {
	client, err := h.clients.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if client == nil {
		return response.NotFound(c, "Client not found")
	}

	limit := c.QueryInt("limit", 20)
	insights, err := h.insights.FindByClient(c.Context(), client.ID, limit)
	if err != nil {
		return err
	}

	return response.OK(c, fiber.Map{
		"insights": insights,
		"total":    len(insights),
	})
}

// RequestAnalysis queues an on-demand scoring pass for a client.
func (h *ClientHandler) RequestAnalysis(c *fiber.Ctx) error {
	client, err := h.clients.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if client == nil {
		return response.NotFound(c, "Client not found")
	}

	if err := h.producer.PublishClientAnalyze(c.Context(), &out.ClientAnalyzeJob{
		ClientID: client.ID,
		Reason:   "manual_request",
	}); err != nil {
		return err
	}

	return response.Accepted(c, fiber.Map{
		"client_id": client.ID,
		"status":    "queued",
	})
}

// DeleteClient removes a client.
func (h *ClientHandler) DeleteClient(c *fiber.Ctx) error {
	client, err := h.clients.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if client == nil {
		return response.NotFound(c, "Client not found")
	}

	if err := h.clients.Delete(c.Context(), client.ID); err != nil {
		return err
	}
	return response.NoContent(c)
}

// SegmentSummary returns client counts per segment.
func (h *ClientHandler) SegmentSummary(c *fiber.Ctx) error {
	if h.cache != nil {
		var cached fiber.Map
		if ok, err := h.cache.GetJSON(c.Context(), segmentSummaryKey, &cached); err == nil && ok {
			return response.OK(c, cached)
		}
	}

	counts, err := h.clients.CountBySegment(c.Context())
	if err != nil {
		return err
	}

	summary := make(map[string]int64, len(counts))
	for segment, count := range counts {
		summary[string(segment)] = count
	}

	payload := fiber.Map{"segments": summary}
	if h.cache != nil {
		_ = h.cache.SetJSON(c.Context(), segmentSummaryKey, payload, summaryCacheTTL)
	}
	return response.OK(c, payload)
}

// AnalyticsSummary returns the global client base overview: counts per
// segment and churn tier plus the average engagement score. Results are
// cached briefly since three aggregations back this endpoint.
func (h *ClientHandler) AnalyticsSummary(c *fiber.Ctx) error {
	if h.cache != nil {
		var cached fiber.Map
		if ok, err := h.cache.GetJSON(c.Context(), analyticsSummaryKey, &cached); err == nil && ok {
			return response.OK(c, cached)
		}
	}

	segments, err := h.clients.CountBySegment(c.Context())
	if err != nil {
		return err
	}
	risks, err := h.clients.CountByChurnRisk(c.Context())
	if err != nil {
		return err
	}
	avgEngagement, err := h.clients.AverageEngagement(c.Context())
	if err != nil {
		return err
	}

	var total int64
	segmentCounts := make(map[string]int64, len(segments))
	for segment, count := range segments {
		segmentCounts[string(segment)] = count
		total += count
	}
	riskCounts := make(map[string]int64, len(risks))
	for risk, count := range risks {
		riskCounts[string(risk)] = count
	}

	payload := fiber.Map{
		"total_clients":      total,
		"segments":           segmentCounts,
		"churn_risk":         riskCounts,
		"average_engagement": avgEngagement,
	}
	if h.cache != nil {
		_ = h.cache.SetJSON(c.Context(), analyticsSummaryKey, payload, summaryCacheTTL)
	}
	return response.OK(c, payload)
}
