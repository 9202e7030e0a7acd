// Package scoring computes engagement, segmentation and churn metrics for
// clients from their interaction history.
package scoring

import (
	"math"
	"time"

	"crm_server/core/domain"
)

// =============================================================================
// Analysis Input
// =============================================================================

// ClientAnalysisData is the full input of one scoring pass.
type ClientAnalysisData struct {
	Client                   *domain.Client
	Interactions             []*domain.Interaction
	TotalValue               float64
	InteractionCount         int
	DaysSinceLastInteraction int
	AverageValue             float64
	PurchaseFrequency        float64
	SentimentScore           float64
}

// ChurnAssessment is the churn result with the raw score and the factors that
// contributed to it.
type ChurnAssessment struct {
	Risk    domain.ChurnRisk
	Score   int
	Factors []string
}

// Probability maps the raw score to a 0..1 probability.
func (a *ChurnAssessment) Probability() float64 {
	p := float64(a.Score) / 100
	if p > 1 {
		p = 1
	}
	return p
}

// =============================================================================
// Scoring Engine
// =============================================================================

// Engine computes client scores. The clock is injected so that time-relative
// metrics are deterministic in tests.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a scoring engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates a scoring engine with a fixed clock.
func NewEngineWithClock(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Engagement score weights, summing to 1.0.
const (
	weightFrequency = 0.3
	weightRecency   = 0.25
	weightValue     = 0.25
	weightSentiment = 0.2
)

// CalculateEngagementScore computes the weighted 0..100 engagement score from
// interaction frequency, recency, purchase value and sentiment.
func (e *Engine) CalculateEngagementScore(data *ClientAnalysisData) int {
	frequencyScore := math.Min(float64(data.InteractionCount)*5, 100)
	recencyScore := math.Max(0, 100-float64(data.DaysSinceLastInteraction)*2)
	valueScore := math.Min(data.TotalValue/1000*10, 100)
	sentimentScore := (data.SentimentScore + 1) * 50

	finalScore := frequencyScore*weightFrequency +
		recencyScore*weightRecency +
		valueScore*weightValue +
		sentimentScore*weightSentiment

	return int(math.Round(math.Min(finalScore, 100)))
}

// DetermineSegment places the client in a segment. VIP and FREQUENT are
// checked first, then inactivity; everything else is OCCASIONAL.
func (e *Engine) DetermineSegment(data *ClientAnalysisData) domain.ClientSegment {
	if data.TotalValue > 5000 && data.InteractionCount > 20 && data.DaysSinceLastInteraction < 7 {
		return domain.SegmentVIP
	}

	if data.PurchaseFrequency > 0.5 && data.InteractionCount > 10 && data.DaysSinceLastInteraction < 30 {
		return domain.SegmentFrequent
	}

	if data.DaysSinceLastInteraction > 90 || data.InteractionCount < 3 {
		return domain.SegmentInactive
	}

	return domain.SegmentOccasional
}

// CalculateChurnRisk computes the banded churn risk.
func (e *Engine) CalculateChurnRisk(data *ClientAnalysisData) domain.ChurnRisk {
	return e.AssessChurn(data).Risk
}

// AssessChurn accumulates churn risk points per factor and bands the total.
func (e *Engine) AssessChurn(data *ClientAnalysisData) *ChurnAssessment {
	score := 0
	var factors []string

	switch {
	case data.DaysSinceLastInteraction > 60:
		score += 30
		factors = append(factors, "longa inatividade")
	case data.DaysSinceLastInteraction > 30:
		score += 15
		factors = append(factors, "inatividade moderada")
	case data.DaysSinceLastInteraction > 14:
		score += 5
		factors = append(factors, "inatividade recente")
	}

	switch {
	case data.InteractionCount < 5:
		score += 20
		factors = append(factors, "poucas interações")
	case data.InteractionCount < 10:
		score += 10
		factors = append(factors, "interações abaixo da média")
	}

	switch {
	case data.SentimentScore < -0.3:
		score += 25
		factors = append(factors, "sentimento muito negativo")
	case data.SentimentScore < 0:
		score += 10
		factors = append(factors, "sentimento negativo")
	}

	switch {
	case data.PurchaseFrequency < 0.1:
		score += 20
		factors = append(factors, "baixa frequência de compras")
	case data.PurchaseFrequency < 0.3:
		score += 10
		factors = append(factors, "frequência de compras em queda")
	}

	var risk domain.ChurnRisk
	switch {
	case score >= 70:
		risk = domain.ChurnCritical
	case score >= 50:
		risk = domain.ChurnHigh
	case score >= 25:
		risk = domain.ChurnMedium
	default:
		risk = domain.ChurnLow
	}

	return &ChurnAssessment{Risk: risk, Score: score, Factors: factors}
}

// CalculateSentimentScore averages interaction sentiment into -1..1, rounded
// to two decimals. An empty history scores 0.
func (e *Engine) CalculateSentimentScore(interactions []*domain.Interaction) float64 {
	if len(interactions) == 0 {
		return 0
	}

	sum := 0
	for _, interaction := range interactions {
		switch interaction.Sentiment {
		case domain.SentimentPositive:
			sum++
		case domain.SentimentNegative:
			sum--
		}
	}

	average := float64(sum) / float64(len(interactions))
	return math.Round(average*100) / 100
}

// CalculatePurchaseFrequency computes purchases per month since the earliest
// purchase. Clients without purchases score 0.
func (e *Engine) CalculatePurchaseFrequency(interactions []*domain.Interaction) float64 {
	var purchases []*domain.Interaction
	for _, interaction := range interactions {
		if interaction.IsPurchase() {
			purchases = append(purchases, interaction)
		}
	}
	if len(purchases) == 0 {
		return 0
	}

	earliest := purchases[0]
	for _, purchase := range purchases[1:] {
		if purchase.CreatedAt.Before(earliest.CreatedAt) {
			earliest = purchase
		}
	}

	monthsSinceFirst := math.Max(1, e.now().Sub(earliest.CreatedAt).Hours()/24/30)
	return float64(len(purchases)) / monthsSinceFirst
}

// =============================================================================
// Behavior Patterns
// =============================================================================

// IdentifyBehaviorPatterns derives the behavioral profile of a client:
// preferred contact hour, preferred categories, purchase value statistics and
// communication mix. Ties break on first occurrence in the history.
func (e *Engine) IdentifyBehaviorPatterns(interactions []*domain.Interaction) map[string]any {
	patterns := make(map[string]any)

	// Preferred hour: mode of the interaction hours.
	hourCounts := make(map[int]int)
	var hourOrder []int
	for _, interaction := range interactions {
		hour := interaction.CreatedAt.Hour()
		if _, seen := hourCounts[hour]; !seen {
			hourOrder = append(hourOrder, hour)
		}
		hourCounts[hour]++
	}
	if len(hourOrder) > 0 {
		best := hourOrder[0]
		for _, hour := range hourOrder[1:] {
			if hourCounts[hour] > hourCounts[best] {
				best = hour
			}
		}
		patterns["preferredContactHour"] = best
	}

	// Top three categories.
	categoryCounts := make(map[string]int)
	var categoryOrder []string
	for _, interaction := range interactions {
		if interaction.Category == "" {
			continue
		}
		if _, seen := categoryCounts[interaction.Category]; !seen {
			categoryOrder = append(categoryOrder, interaction.Category)
		}
		categoryCounts[interaction.Category]++
	}
	if len(categoryOrder) > 0 {
		top := topCategories(categoryOrder, categoryCounts, 3)
		patterns["preferredCategories"] = top
	}

	// Purchase value statistics over purchases with a positive value.
	var values []float64
	for _, interaction := range interactions {
		if interaction.IsPurchase() && interaction.HasValue() {
			values = append(values, interaction.ValueOrZero())
		}
	}
	if len(values) > 0 {
		sum, maxValue, minValue := values[0], values[0], values[0]
		for _, v := range values[1:] {
			sum += v
			if v > maxValue {
				maxValue = v
			}
			if v < minValue {
				minValue = v
			}
		}
		patterns["purchasePattern"] = map[string]any{
			"averageValue":   int(math.Round(sum / float64(len(values)))),
			"maxValue":       maxValue,
			"minValue":       minValue,
			"totalPurchases": len(values),
		}
	}

	// Communication mix, always present.
	questions, complaints, feedback := 0, 0, 0
	for _, interaction := range interactions {
		switch interaction.Type {
		case domain.InteractionQuestion:
			questions++
		case domain.InteractionComplaint:
			complaints++
		case domain.InteractionFeedback:
			feedback++
		}
	}
	patterns["communicationPattern"] = map[string]any{
		"totalInteractions": len(interactions),
		"questionsAsked":    questions,
		"complaintsRaised":  complaints,
		"feedbackGiven":     feedback,
	}

	return patterns
}

// topCategories picks the n most frequent categories, keeping first-seen
// order on ties.
func topCategories(order []string, counts map[string]int, n int) []string {
	remaining := append([]string(nil), order...)
	var top []string
	for len(top) < n && len(remaining) > 0 {
		bestIdx := 0
		for i, category := range remaining[1:] {
			if counts[category] > counts[remaining[bestIdx]] {
				bestIdx = i + 1
			}
		}
		top = append(top, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return top
}

// =============================================================================
// Recommendations
// =============================================================================

// GenerateRecommendations builds the action list for a client. Segment
// recommendations come from the stored segment, behavioral ones from the
// analysis data; duplicates collapse keeping first occurrence.
func (e *Engine) GenerateRecommendations(data *ClientAnalysisData) []string {
	var recommendations []string

	switch data.Client.Segment {
	case domain.SegmentVIP:
		recommendations = append(recommendations,
			"Produtos premium exclusivos",
			"Atendimento personalizado VIP",
			"Ofertas antecipadas de lançamentos",
		)
	case domain.SegmentFrequent:
		recommendations = append(recommendations,
			"Programa de fidelidade",
			"Descontos por volume",
			"Produtos complementares",
		)
	case domain.SegmentInactive:
		recommendations = append(recommendations,
			"Campanha de reativação",
			"Ofertas especiais de retorno",
			"Pesquisa de satisfação",
		)
	}

	if data.DaysSinceLastInteraction > 30 {
		recommendations = append(recommendations, "Contato proativo para reengajamento")
	}

	if data.SentimentScore < 0 {
		recommendations = append(recommendations,
			"Ação de melhoria da experiência",
			"Follow-up de satisfação",
		)
	}

	if data.TotalValue > 3000 {
		recommendations = append(recommendations, "Upgrade para categoria premium")
	}

	return dedupe(recommendations)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
