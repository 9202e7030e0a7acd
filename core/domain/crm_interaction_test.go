package domain

import (
	"strings"
	"testing"
)

// TestNewInteraction tests content validation and defaults.
func TestNewInteraction(t *testing.T) {
	tests := []struct {
		name    string
		params  InteractionParams
		wantErr bool
	}{
		{
			name:   "valid content",
			params: InteractionParams{ClientID: "c1", Type: InteractionGeneral, Content: "bom dia"},
		},
		{
			name:    "empty content",
			params:  InteractionParams{ClientID: "c1", Type: InteractionGeneral, Content: ""},
			wantErr: true,
		},
		{
			name:    "whitespace only",
			params:  InteractionParams{ClientID: "c1", Type: InteractionGeneral, Content: "   "},
			wantErr: true,
		},
		{
			name:    "content over limit",
			params:  InteractionParams{ClientID: "c1", Type: InteractionGeneral, Content: strings.Repeat("a", 1001)},
			wantErr: true,
		},
		{
			name:   "content at limit",
			params: InteractionParams{ClientID: "c1", Type: InteractionGeneral, Content: strings.Repeat("a", 1000)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interaction, err := NewInteraction(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewInteraction() error = %v", err)
			}
			if interaction.ID == "" {
				t.Error("id should be generated")
			}
			if interaction.Sentiment != SentimentNeutral {
				t.Errorf("sentiment = %s, want NEUTRAL default", interaction.Sentiment)
			}
			if interaction.Metadata == nil {
				t.Error("metadata should be initialized")
			}
		})
	}
}

// TestTypedConstructors tests the per-type constructors and their sentiment.
func TestTypedConstructors(t *testing.T) {
	purchase, err := NewPurchase("c1", "comprei um notebook", 3500, "eletrônicos")
	if err != nil {
		t.Fatalf("NewPurchase() error = %v", err)
	}
	if !purchase.IsPurchase() || !purchase.IsPositive() {
		t.Errorf("purchase type/sentiment = %s/%s", purchase.Type, purchase.Sentiment)
	}
	if !purchase.HasValue() || purchase.ValueOrZero() != 3500 {
		t.Errorf("value = %v", purchase.Value)
	}
	if purchase.Category != "eletrônicos" {
		t.Errorf("category = %q", purchase.Category)
	}

	complaint, err := NewComplaint("c1", "produto quebrado")
	if err != nil {
		t.Fatalf("NewComplaint() error = %v", err)
	}
	if !complaint.IsComplaint() || !complaint.IsNegative() {
		t.Errorf("complaint type/sentiment = %s/%s", complaint.Type, complaint.Sentiment)
	}

	feedback, err := NewFeedback("c1", "adorei", SentimentPositive)
	if err != nil {
		t.Fatalf("NewFeedback() error = %v", err)
	}
	if feedback.Type != InteractionFeedback || !feedback.IsPositive() {
		t.Errorf("feedback type/sentiment = %s/%s", feedback.Type, feedback.Sentiment)
	}

	question, err := NewQuestion("c1", "qual o horário?")
	if err != nil {
		t.Fatalf("NewQuestion() error = %v", err)
	}
	if question.Type != InteractionQuestion || question.Sentiment != SentimentNeutral {
		t.Errorf("question type/sentiment = %s/%s", question.Type, question.Sentiment)
	}
}

// TestInteractionValueHelpers tests HasValue and ValueOrZero edge cases.
func TestInteractionValueHelpers(t *testing.T) {
	zero := 0.0
	interaction, err := NewInteraction(InteractionParams{
		ClientID: "c1",
		Type:     InteractionPurchase,
		Content:  "comprei algo",
		Value:    &zero,
	})
	if err != nil {
		t.Fatalf("NewInteraction() error = %v", err)
	}
	if interaction.HasValue() {
		t.Error("zero value should not count as having value")
	}
	if interaction.ValueOrZero() != 0 {
		t.Errorf("ValueOrZero() = %v, want 0", interaction.ValueOrZero())
	}

	interaction.Value = nil
	if interaction.HasValue() {
		t.Error("nil value should not count as having value")
	}
}

// TestInteractionAmendments tests sentiment and metadata amendments.
func TestInteractionAmendments(t *testing.T) {
	interaction, err := NewInteraction(InteractionParams{
		ClientID: "c1",
		Type:     InteractionGeneral,
		Content:  "mensagem",
	})
	if err != nil {
		t.Fatalf("NewInteraction() error = %v", err)
	}

	interaction.UpdateSentiment(SentimentNegative)
	if !interaction.IsNegative() {
		t.Error("sentiment should be NEGATIVE after update")
	}

	interaction.AddMetadata("source", "webhook")
	if interaction.Metadata["source"] != "webhook" {
		t.Errorf("metadata = %v", interaction.Metadata)
	}
}
