package scoring

import (
	"context"
	"time"

	"crm_server/core/domain"
	"crm_server/core/port/out"
	"crm_server/pkg/apperr"
	"crm_server/pkg/logger"
)

// analysisHistoryLimit bounds how many interactions feed one scoring pass.
const analysisHistoryLimit = 200

// daysWithoutHistory is the recency used for clients with no interactions.
const daysWithoutHistory = 365

// =============================================================================
// Analysis Service
// =============================================================================

// AnalysisService runs the full scoring pass for a client: loads the history,
// computes scores, updates the client record and refreshes the derived
// insights.
type AnalysisService struct {
	clients      out.ClientRepository
	interactions out.InteractionRepository
	insights     out.InsightRepository
	engine       *Engine
	log          *logger.Logger
}

// NewAnalysisService creates the analysis orchestrator.
func NewAnalysisService(
	clients out.ClientRepository,
	interactions out.InteractionRepository,
	insights out.InsightRepository,
	engine *Engine,
	log *logger.Logger,
) *AnalysisService {
	if engine == nil {
		engine = NewEngine()
	}
	if log == nil {
		log = logger.Default()
	}
	return &AnalysisService{
		clients:      clients,
		interactions: interactions,
		insights:     insights,
		engine:       engine,
		log:          log,
	}
}

// AnalysisResult is the outcome of one scoring pass.
type AnalysisResult struct {
	Client            *domain.Client       `json:"client"`
	EngagementScore   int                  `json:"engagement_score"`
	Segment           domain.ClientSegment `json:"segment"`
	ChurnRisk         domain.ChurnRisk     `json:"churn_risk"`
	ChurnProbability  float64              `json:"churn_probability"`
	ChurnFactors      []string             `json:"churn_factors,omitempty"`
	SentimentScore    float64              `json:"sentiment_score"`
	PurchaseFrequency float64              `json:"purchase_frequency"`
	Recommendations   []string             `json:"recommendations"`
	BehaviorPatterns  map[string]any       `json:"behavior_patterns"`
	Insights          []*domain.Insight    `json:"insights"`
}

// AnalyzeClient runs the scoring pass for one client.
func (s *AnalysisService) AnalyzeClient(ctx context.Context, clientID string) (*AnalysisResult, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperr.NotFound("client")
	}

	data, err := s.loadAnalysisData(ctx, client)
	if err != nil {
		return nil, err
	}

	engagement := s.engine.CalculateEngagementScore(data)
	segment := s.engine.DetermineSegment(data)
	assessment := s.engine.AssessChurn(data)

	client.UpdateSegment(segment)
	client.UpdateChurnRisk(assessment.Risk)
	if err := client.UpdateEngagementScore(engagement); err != nil {
		return nil, err
	}
	if err := s.clients.Save(ctx, client); err != nil {
		return nil, err
	}

	recommendations := s.engine.GenerateRecommendations(data)
	patterns := s.engine.IdentifyBehaviorPatterns(data.Interactions)

	insights, err := s.buildInsights(client, data, assessment, recommendations, engagement)
	if err != nil {
		return nil, err
	}
	if err := s.replaceInsights(ctx, client.ID, insights); err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]any{
		"client_id":  client.ID,
		"segment":    string(segment),
		"churn_risk": string(assessment.Risk),
		"engagement": engagement,
	}).Info("client analysis completed")

	return &AnalysisResult{
		Client:            client,
		EngagementScore:   engagement,
		Segment:           segment,
		ChurnRisk:         assessment.Risk,
		ChurnProbability:  assessment.Probability(),
		ChurnFactors:      assessment.Factors,
		SentimentScore:    data.SentimentScore,
		PurchaseFrequency: data.PurchaseFrequency,
		Recommendations:   recommendations,
		BehaviorPatterns:  patterns,
		Insights:          insights,
	}, nil
}

// loadAnalysisData assembles the scoring input from the repositories.
func (s *AnalysisService) loadAnalysisData(ctx context.Context, client *domain.Client) (*ClientAnalysisData, error) {
	history, err := s.interactions.FindByClient(ctx, client.ID, analysisHistoryLimit)
	if err != nil {
		return nil, err
	}

	count, err := s.interactions.CountByClient(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	totalValue, err := s.interactions.TotalPurchaseValue(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	lastAt, err := s.interactions.LastInteractionAt(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	days := daysWithoutHistory
	if lastAt != nil {
		days = int(time.Since(*lastAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
	}

	averageValue := 0.0
	if count > 0 {
		averageValue = totalValue / float64(count)
	}

	return &ClientAnalysisData{
		Client:                   client,
		Interactions:             history,
		TotalValue:               totalValue,
		InteractionCount:         int(count),
		DaysSinceLastInteraction: days,
		AverageValue:             averageValue,
		PurchaseFrequency:        s.engine.CalculatePurchaseFrequency(history),
		SentimentScore:           s.engine.CalculateSentimentScore(history),
	}, nil
}

// recommendationConfidence is the fixed confidence of recommendation
// insights built from rule output.
const recommendationConfidence = 0.7

func (s *AnalysisService) buildInsights(
	client *domain.Client,
	data *ClientAnalysisData,
	assessment *ChurnAssessment,
	recommendations []string,
	engagement int,
) ([]*domain.Insight, error) {
	var insights []*domain.Insight

	segmentation, err := domain.NewSegmentation(client.ID, client.Segment, map[string]any{
		"totalValue":       data.TotalValue,
		"interactionCount": data.InteractionCount,
		"engagementScore":  engagement,
	})
	if err != nil {
		return nil, err
	}
	insights = append(insights, segmentation)

	churn, err := domain.NewChurnPrediction(client.ID, assessment.Probability(), assessment.Factors)
	if err != nil {
		return nil, err
	}
	insights = append(insights, churn)

	if len(recommendations) > 0 {
		recommendation, err := domain.NewRecommendation(client.ID, recommendations, recommendationConfidence)
		if err != nil {
			return nil, err
		}
		insights = append(insights, recommendation)
	}

	return insights, nil
}

// replaceInsights drops the stale per-type insights before saving the fresh
// batch, so each client carries at most one insight per derived type.
func (s *AnalysisService) replaceInsights(ctx context.Context, clientID string, insights []*domain.Insight) error {
	for _, insight := range insights {
		if err := s.insights.DeleteByClient(ctx, clientID, insight.Type); err != nil {
			return err
		}
	}
	return s.insights.SaveMany(ctx, insights)
}
