package http

import (
	"github.com/gofiber/fiber/v2"

	"crm_server/core/domain"
	"crm_server/core/port/out"
	"crm_server/pkg/response"
)

// InsightHandler handles insight requests.
type InsightHandler struct {
	insights out.InsightRepository
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(insights out.InsightRepository) *InsightHandler {
	return &InsightHandler{insights: insights}
}

// Register registers insight routes.
func (h *InsightHandler) Register(router fiber.Router) {
	insights := router.Group("/insights")

	insights.Get("/actionable", h.ListActionable)
	insights.Get("/critical", h.ListCritical)
	insights.Get("/type/:type", h.ListByType)
	insights.Get("/:id", h.GetInsight)
}

// ListActionable returns insights the sales team should act on.
func (h *InsightHandler) ListActionable(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	insights, err := h.insights.FindActionable(c.Context(), limit)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"insights": insights,
		"total":    len(insights),
	})
}

// ListCritical returns critical priority insights.
func (h *InsightHandler) ListCritical(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	insights, err := h.insights.FindCritical(c.Context(), limit)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"insights": insights,
		"total":    len(insights),
	})
}

// ListByType returns insights of one type.
func (h *InsightHandler) ListByType(c *fiber.Ctx) error {
	insightType := domain.InsightType(c.Params("type"))
	switch insightType {
	case domain.InsightChurnPrediction, domain.InsightRecommendation, domain.InsightSegmentation,
		domain.InsightTrendAnalysis, domain.InsightBehaviorPattern,
		domain.InsightSatisfactionScore, domain.InsightEngagementAnalysis:
	default:
		return response.BadRequest(c, "Unknown insight type")
	}

	limit := c.QueryInt("limit", 50)
	insights, err := h.insights.FindByType(c.Context(), insightType, limit)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"insights": insights,
		"total":    len(insights),
	})
}

// GetInsight returns a single insight.
func (h *InsightHandler) GetInsight(c *fiber.Ctx) error {
	insight, err := h.insights.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if insight == nil {
		return response.NotFound(c, "Insight not found")
	}
	return response.OK(c, insight)
}
