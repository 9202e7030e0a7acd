package scoring

import (
	"testing"
	"time"

	"crm_server/core/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestCalculateEngagementScore tests the weighted score and its clamp.
func TestCalculateEngagementScore(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name string
		data *ClientAnalysisData
		want int
	}{
		{
			name: "all factors maxed clamps at 100",
			data: &ClientAnalysisData{
				InteractionCount:         100,
				DaysSinceLastInteraction: 0,
				TotalValue:               50000,
				SentimentScore:           1,
			},
			want: 100,
		},
		{
			name: "fully idle client scores from sentiment only",
			data: &ClientAnalysisData{
				InteractionCount:         0,
				DaysSinceLastInteraction: 120,
				TotalValue:               0,
				SentimentScore:           0,
			},
			// sentiment normalizes to 50, weighted by 0.2
			want: 10,
		},
		{
			name: "mixed profile",
			data: &ClientAnalysisData{
				InteractionCount:         10, // frequency 50
				DaysSinceLastInteraction: 10, // recency 80
				TotalValue:               2000, // value 20
				SentimentScore:           0,  // sentiment 50
			},
			// 50*0.3 + 80*0.25 + 20*0.25 + 50*0.2 = 50
			want: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.CalculateEngagementScore(tt.data)
			if got != tt.want {
				t.Errorf("CalculateEngagementScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestEngagementMonotonicity checks that more interactions never lower the
// score when everything else is equal.
func TestEngagementMonotonicity(t *testing.T) {
	engine := NewEngine()

	prev := -1
	for count := 0; count <= 30; count += 5 {
		data := &ClientAnalysisData{
			InteractionCount:         count,
			DaysSinceLastInteraction: 15,
			TotalValue:               1000,
			SentimentScore:           0.2,
		}
		got := engine.CalculateEngagementScore(data)
		if got < prev {
			t.Fatalf("score dropped from %d to %d at count %d", prev, got, count)
		}
		prev = got
	}
}

// TestDetermineSegment tests segment thresholds and precedence.
func TestDetermineSegment(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name string
		data *ClientAnalysisData
		want domain.ClientSegment
	}{
		{
			name: "vip needs value, volume and recency",
			data: &ClientAnalysisData{
				TotalValue:               6000,
				InteractionCount:         25,
				DaysSinceLastInteraction: 3,
			},
			want: domain.SegmentVIP,
		},
		{
			name: "frequent by purchase rhythm",
			data: &ClientAnalysisData{
				TotalValue:               1000,
				InteractionCount:         15,
				DaysSinceLastInteraction: 10,
				PurchaseFrequency:        0.8,
			},
			want: domain.SegmentFrequent,
		},
		{
			name: "inactive by long silence",
			data: &ClientAnalysisData{
				TotalValue:               1000,
				InteractionCount:         50,
				DaysSinceLastInteraction: 120,
			},
			want: domain.SegmentInactive,
		},
		{
			name: "inactive by tiny history",
			data: &ClientAnalysisData{
				InteractionCount:         2,
				DaysSinceLastInteraction: 1,
			},
			want: domain.SegmentInactive,
		},
		{
			name: "vip check runs before inactive",
			data: &ClientAnalysisData{
				TotalValue:               6000,
				InteractionCount:         25,
				DaysSinceLastInteraction: 3,
				PurchaseFrequency:        0,
			},
			want: domain.SegmentVIP,
		},
		{
			name: "default occasional",
			data: &ClientAnalysisData{
				TotalValue:               500,
				InteractionCount:         5,
				DaysSinceLastInteraction: 20,
				PurchaseFrequency:        0.2,
			},
			want: domain.SegmentOccasional,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.DetermineSegment(tt.data)
			if got != tt.want {
				t.Errorf("DetermineSegment() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestAssessChurn tests factor accumulation and banding.
func TestAssessChurn(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name      string
		data      *ClientAnalysisData
		wantRisk  domain.ChurnRisk
		wantScore int
	}{
		{
			name: "worst case accumulates 95 points",
			data: &ClientAnalysisData{
				DaysSinceLastInteraction: 90,
				InteractionCount:         2,
				SentimentScore:           -0.8,
				PurchaseFrequency:        0,
			},
			wantRisk:  domain.ChurnCritical,
			wantScore: 95,
		},
		{
			name: "healthy client stays low",
			data: &ClientAnalysisData{
				DaysSinceLastInteraction: 2,
				InteractionCount:         30,
				SentimentScore:           0.5,
				PurchaseFrequency:        1.2,
			},
			wantRisk:  domain.ChurnLow,
			wantScore: 0,
		},
		{
			name: "medium band at 25",
			data: &ClientAnalysisData{
				DaysSinceLastInteraction: 20, // +5
				InteractionCount:         4,  // +20
				SentimentScore:           0.1,
				PurchaseFrequency:        0.5,
			},
			wantRisk:  domain.ChurnMedium,
			wantScore: 25,
		},
		{
			name: "high band at 50",
			data: &ClientAnalysisData{
				DaysSinceLastInteraction: 40, // +15
				InteractionCount:         4,  // +20
				SentimentScore:           0.1,
				PurchaseFrequency:        0.05, // +20... total 55
			},
			wantRisk:  domain.ChurnHigh,
			wantScore: 55,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.AssessChurn(tt.data)
			if got.Risk != tt.wantRisk {
				t.Errorf("risk = %s, want %s", got.Risk, tt.wantRisk)
			}
			if got.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", got.Score, tt.wantScore)
			}
		})
	}
}

// TestCalculateSentimentScore tests averaging and rounding.
func TestCalculateSentimentScore(t *testing.T) {
	engine := NewEngine()

	mk := func(sentiments ...domain.SentimentType) []*domain.Interaction {
		var out []*domain.Interaction
		for _, s := range sentiments {
			out = append(out, &domain.Interaction{Sentiment: s})
		}
		return out
	}

	tests := []struct {
		name         string
		interactions []*domain.Interaction
		want         float64
	}{
		{"empty history", nil, 0},
		{"all positive", mk(domain.SentimentPositive, domain.SentimentPositive), 1},
		{"all negative", mk(domain.SentimentNegative), -1},
		{"mixed rounds to two decimals", mk(domain.SentimentPositive, domain.SentimentPositive, domain.SentimentNegative), 0.33},
		{"neutral cancels nothing", mk(domain.SentimentPositive, domain.SentimentNeutral), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.CalculateSentimentScore(tt.interactions)
			if got != tt.want {
				t.Errorf("CalculateSentimentScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCalculatePurchaseFrequency tests monthly purchase rate with a fixed
// clock.
func TestCalculatePurchaseFrequency(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngineWithClock(fixedClock(now))

	t.Run("no purchases", func(t *testing.T) {
		interactions := []*domain.Interaction{
			{Type: domain.InteractionQuestion, CreatedAt: now.AddDate(0, -2, 0)},
		}
		if got := engine.CalculatePurchaseFrequency(interactions); got != 0 {
			t.Errorf("frequency = %v, want 0", got)
		}
	})

	t.Run("three purchases over three months", func(t *testing.T) {
		interactions := []*domain.Interaction{
			{Type: domain.InteractionPurchase, CreatedAt: now.AddDate(0, 0, -90)},
			{Type: domain.InteractionPurchase, CreatedAt: now.AddDate(0, 0, -45)},
			{Type: domain.InteractionPurchase, CreatedAt: now.AddDate(0, 0, -5)},
		}
		got := engine.CalculatePurchaseFrequency(interactions)
		// 90 days / 30 = 3 months, 3 purchases
		if got != 1.0 {
			t.Errorf("frequency = %v, want 1.0", got)
		}
	})

	t.Run("recent first purchase clamps period to one month", func(t *testing.T) {
		interactions := []*domain.Interaction{
			{Type: domain.InteractionPurchase, CreatedAt: now.AddDate(0, 0, -3)},
			{Type: domain.InteractionPurchase, CreatedAt: now.AddDate(0, 0, -1)},
		}
		got := engine.CalculatePurchaseFrequency(interactions)
		if got != 2.0 {
			t.Errorf("frequency = %v, want 2.0", got)
		}
	})
}

// TestIdentifyBehaviorPatterns tests the behavioral profile.
func TestIdentifyBehaviorPatterns(t *testing.T) {
	engine := NewEngine()

	at := func(hour int) time.Time {
		return time.Date(2025, 5, 10, hour, 0, 0, 0, time.UTC)
	}
	value := func(v float64) *float64 { return &v }

	t.Run("full profile", func(t *testing.T) {
		interactions := []*domain.Interaction{
			{Type: domain.InteractionPurchase, Category: "geral", Value: value(100), CreatedAt: at(9)},
			{Type: domain.InteractionPurchase, Category: "geral", Value: value(300), CreatedAt: at(9)},
			{Type: domain.InteractionQuestion, Category: "preço", CreatedAt: at(14)},
			{Type: domain.InteractionComplaint, Category: "entrega", CreatedAt: at(9)},
			{Type: domain.InteractionFeedback, CreatedAt: at(20)},
		}

		patterns := engine.IdentifyBehaviorPatterns(interactions)

		if patterns["preferredContactHour"] != 9 {
			t.Errorf("preferredContactHour = %v, want 9", patterns["preferredContactHour"])
		}

		categories, ok := patterns["preferredCategories"].([]string)
		if !ok || len(categories) != 3 {
			t.Fatalf("preferredCategories = %v, want 3 entries", patterns["preferredCategories"])
		}
		if categories[0] != "geral" {
			t.Errorf("top category = %q, want geral", categories[0])
		}

		purchase, ok := patterns["purchasePattern"].(map[string]any)
		if !ok {
			t.Fatal("purchasePattern missing")
		}
		if purchase["averageValue"] != 200 {
			t.Errorf("averageValue = %v, want 200", purchase["averageValue"])
		}
		if purchase["maxValue"] != 300.0 {
			t.Errorf("maxValue = %v, want 300", purchase["maxValue"])
		}
		if purchase["totalPurchases"] != 2 {
			t.Errorf("totalPurchases = %v, want 2", purchase["totalPurchases"])
		}

		comm, ok := patterns["communicationPattern"].(map[string]any)
		if !ok {
			t.Fatal("communicationPattern missing")
		}
		if comm["totalInteractions"] != 5 || comm["questionsAsked"] != 1 || comm["complaintsRaised"] != 1 || comm["feedbackGiven"] != 1 {
			t.Errorf("communicationPattern = %v", comm)
		}
	})

	t.Run("hour ties break on first seen", func(t *testing.T) {
		interactions := []*domain.Interaction{
			{Type: domain.InteractionGeneral, CreatedAt: at(15)},
			{Type: domain.InteractionGeneral, CreatedAt: at(8)},
		}
		patterns := engine.IdentifyBehaviorPatterns(interactions)
		if patterns["preferredContactHour"] != 15 {
			t.Errorf("preferredContactHour = %v, want 15", patterns["preferredContactHour"])
		}
	})

	t.Run("empty history still reports communication", func(t *testing.T) {
		patterns := engine.IdentifyBehaviorPatterns(nil)
		if _, ok := patterns["preferredContactHour"]; ok {
			t.Error("preferredContactHour should be absent")
		}
		if _, ok := patterns["purchasePattern"]; ok {
			t.Error("purchasePattern should be absent")
		}
		comm, ok := patterns["communicationPattern"].(map[string]any)
		if !ok || comm["totalInteractions"] != 0 {
			t.Errorf("communicationPattern = %v", patterns["communicationPattern"])
		}
	})
}

// TestGenerateRecommendations tests segment lists, behavioral additions and
// deduplication.
func TestGenerateRecommendations(t *testing.T) {
	engine := NewEngine()

	client := func(segment domain.ClientSegment) *domain.Client {
		return &domain.Client{Segment: segment}
	}

	t.Run("vip list", func(t *testing.T) {
		got := engine.GenerateRecommendations(&ClientAnalysisData{
			Client: client(domain.SegmentVIP),
		})
		want := []string{
			"Produtos premium exclusivos",
			"Atendimento personalizado VIP",
			"Ofertas antecipadas de lançamentos",
		}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("recommendation[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("occasional gets only behavioral items", func(t *testing.T) {
		got := engine.GenerateRecommendations(&ClientAnalysisData{
			Client:                   client(domain.SegmentOccasional),
			DaysSinceLastInteraction: 45,
		})
		if len(got) != 1 || got[0] != "Contato proativo para reengajamento" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("negative sentiment and high value stack up", func(t *testing.T) {
		got := engine.GenerateRecommendations(&ClientAnalysisData{
			Client:         client(domain.SegmentFrequent),
			SentimentScore: -0.2,
			TotalValue:     4000,
		})
		if len(got) != 6 {
			t.Fatalf("got %d recommendations: %v", len(got), got)
		}
		if got[len(got)-1] != "Upgrade para categoria premium" {
			t.Errorf("last = %q", got[len(got)-1])
		}
	})
}
