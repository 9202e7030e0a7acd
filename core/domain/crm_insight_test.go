package domain

import (
	"strings"
	"testing"
	"time"
)

// TestNewInsight tests validation of title, description and confidence.
func TestNewInsight(t *testing.T) {
	valid := InsightParams{
		ClientID:    "c1",
		Type:        InsightTrendAnalysis,
		Title:       "Tendência de compras",
		Description: "Compras crescendo mês a mês",
		Confidence:  0.8,
		Priority:    InsightPriorityMedium,
	}

	tests := []struct {
		name    string
		mutate  func(p *InsightParams)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *InsightParams) {}},
		{name: "empty title", mutate: func(p *InsightParams) { p.Title = "  " }, wantErr: true},
		{name: "title over 100 chars", mutate: func(p *InsightParams) { p.Title = strings.Repeat("t", 101) }, wantErr: true},
		{name: "empty description", mutate: func(p *InsightParams) { p.Description = "" }, wantErr: true},
		{name: "description over 500 chars", mutate: func(p *InsightParams) { p.Description = strings.Repeat("d", 501) }, wantErr: true},
		{name: "confidence below zero", mutate: func(p *InsightParams) { p.Confidence = -0.1 }, wantErr: true},
		{name: "confidence above one", mutate: func(p *InsightParams) { p.Confidence = 1.1 }, wantErr: true},
		{name: "confidence at bounds", mutate: func(p *InsightParams) { p.Confidence = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			insight, err := NewInsight(params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewInsight() error = %v", err)
			}
			if insight.ID == "" {
				t.Error("id should be generated")
			}
			if insight.Data == nil {
				t.Error("data should be initialized")
			}
		})
	}
}

// TestNewChurnPrediction tests the priority bands and payload.
func TestNewChurnPrediction(t *testing.T) {
	tests := []struct {
		name         string
		probability  float64
		wantPriority InsightPriority
	}{
		{"critical above 0.7", 0.95, InsightPriorityCritical},
		{"high above 0.5", 0.6, InsightPriorityHigh},
		{"medium above 0.3", 0.4, InsightPriorityMedium},
		{"low otherwise", 0.2, InsightPriorityLow},
		{"boundary 0.7 is high", 0.7, InsightPriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insight, err := NewChurnPrediction("c1", tt.probability, []string{"longa inatividade"})
			if err != nil {
				t.Fatalf("NewChurnPrediction() error = %v", err)
			}
			if insight.Priority != tt.wantPriority {
				t.Errorf("priority = %s, want %s", insight.Priority, tt.wantPriority)
			}
			if insight.Confidence != tt.probability {
				t.Errorf("confidence = %v, want %v", insight.Confidence, tt.probability)
			}
			if !insight.Actionable {
				t.Error("churn prediction should be actionable")
			}
			if insight.ExpiresAt == nil {
				t.Fatal("churn prediction should expire")
			}
		})
	}

	t.Run("title and description carry the percentage", func(t *testing.T) {
		insight, err := NewChurnPrediction("c1", 0.95, []string{"longa inatividade", "poucas interações"})
		if err != nil {
			t.Fatalf("NewChurnPrediction() error = %v", err)
		}
		if insight.Title != "Risco de Churn: 95%" {
			t.Errorf("title = %q", insight.Title)
		}
		if !strings.Contains(insight.Description, "95% de probabilidade") {
			t.Errorf("description = %q", insight.Description)
		}
		if !strings.Contains(insight.Description, "longa inatividade, poucas interações") {
			t.Errorf("description = %q", insight.Description)
		}
	})
}

// TestNewRecommendation tests the fixed shape of recommendation insights.
func TestNewRecommendation(t *testing.T) {
	insight, err := NewRecommendation("c1", []string{"Programa de fidelidade", "Descontos por volume"}, 0.7)
	if err != nil {
		t.Fatalf("NewRecommendation() error = %v", err)
	}

	if insight.Type != InsightRecommendation {
		t.Errorf("type = %s", insight.Type)
	}
	if insight.Priority != InsightPriorityMedium {
		t.Errorf("priority = %s, want MEDIUM", insight.Priority)
	}
	if !insight.Actionable {
		t.Error("recommendation should be actionable")
	}
	if insight.ExpiresAt == nil {
		t.Fatal("recommendation should expire")
	}
	week := time.Now().Add(8 * 24 * time.Hour)
	if insight.ExpiresAt.After(week) {
		t.Error("recommendation should expire within a week")
	}
	if !strings.Contains(insight.Description, "Programa de fidelidade") {
		t.Errorf("description = %q", insight.Description)
	}
}

// TestNewSegmentation tests the fixed shape of segmentation insights.
func TestNewSegmentation(t *testing.T) {
	insight, err := NewSegmentation("c1", SegmentVIP, map[string]any{"totalValue": 6000.0})
	if err != nil {
		t.Fatalf("NewSegmentation() error = %v", err)
	}

	if insight.Title != "Segmento: VIP" {
		t.Errorf("title = %q", insight.Title)
	}
	if insight.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", insight.Confidence)
	}
	if insight.Priority != InsightPriorityLow {
		t.Errorf("priority = %s, want LOW", insight.Priority)
	}
	if insight.Actionable {
		t.Error("segmentation should not be actionable")
	}
	if insight.ExpiresAt != nil {
		t.Error("segmentation should never expire")
	}
	if insight.IsExpired() {
		t.Error("insight without expiry should never be expired")
	}
}

// TestInsightHelpers tests expiry and confidence helpers.
func TestInsightHelpers(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	insight, err := NewInsight(InsightParams{
		ClientID:    "c1",
		Type:        InsightBehaviorPattern,
		Title:       "Padrão",
		Description: "Descrição",
		Confidence:  0.85,
		Priority:    InsightPriorityCritical,
		ExpiresAt:   &past,
	})
	if err != nil {
		t.Fatalf("NewInsight() error = %v", err)
	}

	if !insight.IsExpired() {
		t.Error("insight past expiry should be expired")
	}
	if !insight.IsCritical() {
		t.Error("IsCritical() = false")
	}
	if !insight.IsHighConfidence() {
		t.Error("IsHighConfidence() = false at 0.85")
	}
	if insight.ConfidencePercentage() != 85 {
		t.Errorf("ConfidencePercentage() = %d, want 85", insight.ConfidencePercentage())
	}
	if !insight.IsClientSpecific() || insight.IsGlobal() {
		t.Error("insight with client id should be client specific")
	}

	if err := insight.UpdateConfidence(1.5); err == nil {
		t.Error("UpdateConfidence(1.5) should fail")
	}
	if err := insight.UpdateConfidence(0.5); err != nil {
		t.Errorf("UpdateConfidence(0.5) error = %v", err)
	}
	if insight.IsHighConfidence() {
		t.Error("IsHighConfidence() = true at 0.5")
	}
}
