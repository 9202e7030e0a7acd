package classification

import (
	"strings"
	"testing"

	"crm_server/core/domain"
)

// TestDetectInteractionType tests the catalog priority order.
func TestDetectInteractionType(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name string
		text string
		want domain.InteractionType
	}{
		{
			name: "purchase keyword",
			text: "comprei um notebook ontem",
			want: domain.InteractionPurchase,
		},
		{
			name: "purchase wins over question",
			text: "comprei um celular, quanto custa a garantia?",
			want: domain.InteractionPurchase,
		},
		{
			name: "complaint wins over feedback",
			text: "produto com defeito, péssimo",
			want: domain.InteractionComplaint,
		},
		{
			name: "negative feedback without complaint keywords",
			text: "péssimo, muito decepcionado",
			want: domain.InteractionFeedback,
		},
		{
			name: "profile update",
			text: "me chamo Pedro e moro em Recife",
			want: domain.InteractionProfileUpdate,
		},
		{
			name: "question by punctuation",
			text: "vocês abrem no domingo?",
			want: domain.InteractionQuestion,
		},
		{
			name: "no catalog fires",
			text: "bom dia",
			want: domain.InteractionGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.DetectInteractionType(tt.text)
			if got != tt.want {
				t.Errorf("DetectInteractionType(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

// TestAnalyzeSentiment tests lexicon counting with strict majority.
func TestAnalyzeSentiment(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name string
		text string
		want domain.SentimentType
	}{
		{
			name: "two positive hits",
			text: "adorei, atendimento excelente",
			want: domain.SentimentPositive,
		},
		{
			name: "two negative hits",
			text: "produto péssimo, estou decepcionado",
			want: domain.SentimentNegative,
		},
		{
			name: "no lexicon hits",
			text: "recebi o pedido hoje",
			want: domain.SentimentNeutral,
		},
		{
			name: "tie stays neutral",
			text: "o produto é bom mas veio quebrado",
			want: domain.SentimentNeutral,
		},
		{
			name: "case insensitive",
			text: "EXCELENTE servico",
			want: domain.SentimentPositive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.AnalyzeSentiment(tt.text)
			if got != tt.want {
				t.Errorf("AnalyzeSentiment(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

// TestExtractValue tests the monetary pattern families.
func TestExtractValue(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name    string
		text    string
		want    float64
		wantNil bool
	}{
		{
			name: "currency symbol with comma decimals",
			text: "comprei por R$ 50,00 no mercado",
			want: 50.0,
		},
		{
			name: "currency symbol with dot decimals",
			text: "paguei R$ 1250.90",
			want: 1250.90,
		},
		{
			name: "amount followed by reais",
			text: "gastei 200 reais hoje",
			want: 200,
		},
		{
			name: "amount with decimals and reais",
			text: "foram 50,50 reais",
			want: 50.50,
		},
		{
			name: "first amount wins",
			text: "R$ 30,00 e depois R$ 45,00",
			want: 30.0,
		},
		{
			name:    "no amount",
			text:    "comprei um presente",
			wantNil: true,
		},
		{
			name:    "bare reais without digits does not fall through",
			text:    "custou alguns reais",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.ExtractValue(tt.text)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("ExtractValue(%q) = %v, want nil", tt.text, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ExtractValue(%q) = nil, want %v", tt.text, tt.want)
			}
			if *got != tt.want {
				t.Errorf("ExtractValue(%q) = %v, want %v", tt.text, *got, tt.want)
			}
		})
	}
}

// TestExtractCategory tests that only rules of the detected type contribute
// a category.
func TestExtractCategory(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name            string
		text            string
		interactionType domain.InteractionType
		want            string
	}{
		{
			name:            "purchase general category",
			text:            "comprei um presente",
			interactionType: domain.InteractionPurchase,
			want:            "geral",
		},
		{
			name:            "purchase type ignores complaint rules",
			text:            "comprei um produto com defeito",
			interactionType: domain.InteractionPurchase,
			want:            "geral",
		},
		{
			name:            "complaint type on the same text",
			text:            "comprei um produto com defeito",
			interactionType: domain.InteractionComplaint,
			want:            "produto",
		},
		{
			name:            "clothing category without purchase verb",
			text:            "a calça chegou hoje",
			interactionType: domain.InteractionPurchase,
			want:            "vestuário",
		},
		{
			name:            "complaint delivery category",
			text:            "minha entrega está com atraso",
			interactionType: domain.InteractionComplaint,
			want:            "entrega",
		},
		{
			name:            "question price category needs price keyword first",
			text:            "qual o preço",
			interactionType: domain.InteractionQuestion,
			want:            "informação",
		},
		{
			name:            "general has no catalog",
			text:            "bom dia",
			interactionType: domain.InteractionGeneral,
			want:            "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.ExtractCategory(tt.text, tt.interactionType)
			if got != tt.want {
				t.Errorf("ExtractCategory(%q, %s) = %q, want %q", tt.text, tt.interactionType, got, tt.want)
			}
		})
	}
}

// TestExtractEntities tests profile entity extraction.
func TestExtractEntities(t *testing.T) {
	classifier := NewClassifier(nil)

	t.Run("name and city", func(t *testing.T) {
		entities := classifier.ExtractEntities("me chamo Pedro e moro em Recife")
		if entities["name"] != "Pedro" {
			t.Errorf("name = %v, want Pedro", entities["name"])
		}
		if entities["city"] != "Recife" {
			t.Errorf("city = %v, want Recife", entities["city"])
		}
	})

	t.Run("age as integer", func(t *testing.T) {
		entities := classifier.ExtractEntities("tenho 25 anos")
		if entities["age"] != 25 {
			t.Errorf("age = %v, want 25", entities["age"])
		}
	})

	t.Run("profession", func(t *testing.T) {
		entities := classifier.ExtractEntities("trabalho como vendedor")
		if entities["profession"] != "vendedor" {
			t.Errorf("profession = %v, want vendedor", entities["profession"])
		}
	})

	t.Run("nothing extracted", func(t *testing.T) {
		entities := classifier.ExtractEntities("tudo certo")
		if entities != nil {
			t.Errorf("entities = %v, want nil", entities)
		}
	})
}

// TestShouldRespond tests the auto-reply policy.
func TestShouldRespond(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name            string
		interactionType domain.InteractionType
		sentiment       domain.SentimentType
		want            bool
	}{
		{"purchase", domain.InteractionPurchase, domain.SentimentNeutral, true},
		{"complaint", domain.InteractionComplaint, domain.SentimentNegative, true},
		{"question", domain.InteractionQuestion, domain.SentimentNeutral, true},
		{"profile update", domain.InteractionProfileUpdate, domain.SentimentNeutral, true},
		{"negative feedback", domain.InteractionFeedback, domain.SentimentNegative, true},
		{"positive feedback", domain.InteractionFeedback, domain.SentimentPositive, false},
		{"neutral feedback", domain.InteractionFeedback, domain.SentimentNeutral, false},
		{"general", domain.InteractionGeneral, domain.SentimentNeutral, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.ShouldRespond(tt.interactionType, tt.sentiment)
			if got != tt.want {
				t.Errorf("ShouldRespond(%s, %s) = %v, want %v", tt.interactionType, tt.sentiment, got, tt.want)
			}
		})
	}
}

// TestGenerateResponse tests the reply templates.
func TestGenerateResponse(t *testing.T) {
	classifier := NewClassifier(nil)

	value := 50.0
	tests := []struct {
		name            string
		interactionType domain.InteractionType
		sentiment       domain.SentimentType
		value           *float64
		wantContains    string
	}{
		{"purchase with value", domain.InteractionPurchase, domain.SentimentNeutral, &value, "Valor: R$ 50.00"},
		{"purchase without value", domain.InteractionPurchase, domain.SentimentNeutral, nil, "Compra registrada"},
		{"complaint", domain.InteractionComplaint, domain.SentimentNegative, nil, "Lamentamos o inconveniente"},
		{"positive feedback", domain.InteractionFeedback, domain.SentimentPositive, nil, "Que bom saber"},
		{"negative feedback", domain.InteractionFeedback, domain.SentimentNegative, nil, "Vamos trabalhar para melhorar"},
		{"neutral feedback", domain.InteractionFeedback, domain.SentimentNeutral, nil, "Obrigado pelo seu feedback"},
		{"question", domain.InteractionQuestion, domain.SentimentNeutral, nil, "Recebemos sua pergunta"},
		{"profile update", domain.InteractionProfileUpdate, domain.SentimentNeutral, nil, "Informações atualizadas"},
		{"general fallback", domain.InteractionGeneral, domain.SentimentNeutral, nil, "Recebemos sua mensagem"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.GenerateResponse(tt.interactionType, tt.sentiment, tt.value)
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("GenerateResponse(%s) = %q, want substring %q", tt.interactionType, got, tt.wantContains)
			}
		})
	}
}

// TestProcessMessage tests the end-to-end pipeline.
func TestProcessMessage(t *testing.T) {
	classifier := NewClassifier(nil)

	t.Run("purchase with value produces reply", func(t *testing.T) {
		msg := &domain.InboundMessage{
			ID:   "wamid.1",
			From: "5511999990000",
			Type: domain.MessageText,
			Text: &domain.TextContent{Body: "comprei um celular por R$ 50,00"},
		}

		result := classifier.ProcessMessage(msg)
		if result.InteractionType != domain.InteractionPurchase {
			t.Errorf("type = %s, want PURCHASE", result.InteractionType)
		}
		if result.Extracted.Value == nil || *result.Extracted.Value != 50.0 {
			t.Errorf("value = %v, want 50.0", result.Extracted.Value)
		}
		if result.Extracted.Category != "geral" {
			t.Errorf("category = %q, want geral", result.Extracted.Category)
		}
		if !result.ShouldRespond {
			t.Error("ShouldRespond = false, want true")
		}
		if !strings.Contains(result.SuggestedReply, "R$ 50.00") {
			t.Errorf("reply = %q, want value in reply", result.SuggestedReply)
		}
	})

	t.Run("non-text message degrades to general", func(t *testing.T) {
		msg := &domain.InboundMessage{
			ID:   "wamid.2",
			From: "5511999990000",
			Type: domain.MessageImage,
		}

		result := classifier.ProcessMessage(msg)
		if result.InteractionType != domain.InteractionGeneral {
			t.Errorf("type = %s, want GENERAL", result.InteractionType)
		}
		if result.Sentiment != domain.SentimentNeutral {
			t.Errorf("sentiment = %s, want NEUTRAL", result.Sentiment)
		}
		if result.ShouldRespond {
			t.Error("ShouldRespond = true, want false")
		}
		if result.SuggestedReply != "" {
			t.Errorf("reply = %q, want empty", result.SuggestedReply)
		}
	})

	t.Run("batch preserves order", func(t *testing.T) {
		msgs := []*domain.InboundMessage{
			{ID: "a", Type: domain.MessageText, Text: &domain.TextContent{Body: "comprei algo"}},
			{ID: "b", Type: domain.MessageText, Text: &domain.TextContent{Body: "qual o horário?"}},
		}

		results := classifier.ProcessMessages(msgs)
		if len(results) != 2 {
			t.Fatalf("len(results) = %d, want 2", len(results))
		}
		if results[0].InteractionType != domain.InteractionPurchase {
			t.Errorf("first type = %s, want PURCHASE", results[0].InteractionType)
		}
		if results[1].InteractionType != domain.InteractionQuestion {
			t.Errorf("second type = %s, want QUESTION", results[1].InteractionType)
		}
	})
}
