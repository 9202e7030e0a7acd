// Package classification turns raw WhatsApp text into typed, enriched
// interactions using rule catalogs of Portuguese patterns.
package classification

import (
	"fmt"
	"strconv"
	"strings"

	"crm_server/core/domain"
	"crm_server/pkg/logger"
)

// =============================================================================
// Classifier
// =============================================================================

// Classifier classifies inbound messages into interaction types, scores
// sentiment and extracts structured data. It is stateless and safe for
// concurrent use.
type Classifier struct {
	log *logger.Logger
}

// NewClassifier creates a new message classifier.
func NewClassifier(log *logger.Logger) *Classifier {
	if log == nil {
		log = logger.Default()
	}
	return &Classifier{log: log}
}

// ExtractedData is the structured payload pulled out of a message.
type ExtractedData struct {
	Value    *float64       `json:"value,omitempty"`
	Category string         `json:"category,omitempty"`
	Intent   string         `json:"intent,omitempty"`
	Entities map[string]any `json:"entities,omitempty"`
}

// ProcessedMessage is the full classification result for one message.
type ProcessedMessage struct {
	MessageID       string                 `json:"message_id"`
	From            string                 `json:"from"`
	InteractionType domain.InteractionType `json:"interaction_type"`
	Sentiment       domain.SentimentType   `json:"sentiment"`
	Extracted       ExtractedData          `json:"extracted_data"`
	ShouldRespond   bool                   `json:"should_respond"`
	SuggestedReply  string                 `json:"suggested_reply,omitempty"`
}

// =============================================================================
// Pipeline
// =============================================================================

// ProcessMessage runs the full pipeline for one inbound message. Non-text
// messages degrade to GENERAL with neutral sentiment and no reply.
func (c *Classifier) ProcessMessage(msg *domain.InboundMessage) *ProcessedMessage {
	if !msg.IsText() {
		return &ProcessedMessage{
			MessageID:       msg.ID,
			From:            msg.From,
			InteractionType: domain.InteractionGeneral,
			Sentiment:       domain.SentimentNeutral,
			Extracted:       ExtractedData{},
			ShouldRespond:   false,
		}
	}

	text := msg.Body()
	interactionType := c.DetectInteractionType(text)
	sentiment := c.AnalyzeSentiment(text)
	extracted := c.ExtractData(text, interactionType)
	shouldRespond := c.ShouldRespond(interactionType, sentiment)

	var reply string
	if shouldRespond {
		reply = c.GenerateResponse(interactionType, sentiment, extracted.Value)
	}

	c.log.WithFields(map[string]any{
		"message_id": msg.ID,
		"type":       string(interactionType),
		"sentiment":  string(sentiment),
	}).Debug("message classified")

	return &ProcessedMessage{
		MessageID:       msg.ID,
		From:            msg.From,
		InteractionType: interactionType,
		Sentiment:       sentiment,
		Extracted:       extracted,
		ShouldRespond:   shouldRespond,
		SuggestedReply:  reply,
	}
}

// ProcessMessages classifies a batch of messages in input order.
func (c *Classifier) ProcessMessages(msgs []*domain.InboundMessage) []*ProcessedMessage {
	results := make([]*ProcessedMessage, 0, len(msgs))
	for _, msg := range msgs {
		results = append(results, c.ProcessMessage(msg))
	}
	return results
}

// =============================================================================
// Detection
// =============================================================================

// DetectInteractionType finds the interaction type of a text. Catalogs are
// consulted in fixed priority order; the first catalog with any firing rule
// decides the type.
func (c *Classifier) DetectInteractionType(text string) domain.InteractionType {
	checks := []struct {
		patterns []messagePattern
		result   domain.InteractionType
	}{
		{purchasePatterns, domain.InteractionPurchase},
		{complaintPatterns, domain.InteractionComplaint},
		{feedbackPatterns, domain.InteractionFeedback},
		{profilePatterns, domain.InteractionProfileUpdate},
		{questionPatterns, domain.InteractionQuestion},
	}

	for _, check := range checks {
		for _, p := range check.patterns {
			if p.re.MatchString(text) {
				return check.result
			}
		}
	}
	return domain.InteractionGeneral
}

// AnalyzeSentiment counts positive and negative lexicon hits. The strictly
// greater side wins; ties are neutral.
func (c *Classifier) AnalyzeSentiment(text string) domain.SentimentType {
	lower := strings.ToLower(text)

	positiveScore := 0
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positiveScore++
		}
	}

	negativeScore := 0
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negativeScore++
		}
	}

	switch {
	case positiveScore > negativeScore:
		return domain.SentimentPositive
	case negativeScore > positiveScore:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// =============================================================================
// Extraction
// =============================================================================

// ExtractData pulls monetary value, category and entities from a text.
func (c *Classifier) ExtractData(text string, interactionType domain.InteractionType) ExtractedData {
	data := ExtractedData{
		Value:    c.ExtractValue(text),
		Category: c.ExtractCategory(text, interactionType),
	}
	if entities := c.ExtractEntities(text); len(entities) > 0 {
		data.Entities = entities
	}
	return data
}

// ExtractValue finds the first parseable monetary amount. Only the first
// pattern family with any match is consulted.
func (c *Classifier) ExtractValue(text string) *float64 {
	for _, pattern := range valuePatterns {
		matches := pattern.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		for _, match := range matches {
			numberMatch := valueNumberRe.FindStringSubmatch(match)
			if numberMatch == nil {
				continue
			}
			raw := strings.ReplaceAll(numberMatch[1], ",", ".")
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			return &value
		}
		return nil
	}
	return nil
}

// ExtractCategory scans the catalogs in extraction order, consulting only
// rules of the detected interaction type, and returns the category of the
// first firing rule.
func (c *Classifier) ExtractCategory(text string, interactionType domain.InteractionType) string {
	for _, catalog := range categoryScanOrder {
		if catalog.interactionType != interactionType {
			continue
		}
		for _, p := range catalog.patterns {
			if p.re.MatchString(text) {
				return p.category
			}
		}
	}
	return ""
}

// ExtractEntities pulls profile entities (name, city, age, profession).
func (c *Classifier) ExtractEntities(text string) map[string]any {
	entities := make(map[string]any)

	if m := entityNameRe.FindStringSubmatch(text); m != nil {
		entities["name"] = m[1]
	}
	if m := entityCityRe.FindStringSubmatch(text); m != nil {
		entities["city"] = m[1]
	}
	if m := entityAgeRe.FindStringSubmatch(text); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil {
			entities["age"] = age
		}
	}
	if m := entityProfessionRe.FindStringSubmatch(text); m != nil {
		entities["profession"] = m[1]
	}

	if len(entities) == 0 {
		return nil
	}
	return entities
}

// =============================================================================
// Response Policy
// =============================================================================

// ShouldRespond decides whether an automatic reply is warranted.
func (c *Classifier) ShouldRespond(interactionType domain.InteractionType, sentiment domain.SentimentType) bool {
	switch interactionType {
	case domain.InteractionComplaint, domain.InteractionQuestion,
		domain.InteractionPurchase, domain.InteractionProfileUpdate:
		return true
	case domain.InteractionFeedback:
		return sentiment == domain.SentimentNegative
	}
	return false
}

// GenerateResponse builds the canned reply for a classified message.
func (c *Classifier) GenerateResponse(interactionType domain.InteractionType, sentiment domain.SentimentType, value *float64) string {
	switch interactionType {
	case domain.InteractionPurchase:
		if value != nil {
			return fmt.Sprintf("✅ Compra registrada! Valor: R$ %.2f. Obrigado pela informação!", *value)
		}
		return "✅ Compra registrada! Obrigado por compartilhar essa informação conosco."

	case domain.InteractionComplaint:
		return "😔 Lamentamos o inconveniente. Nossa equipe irá analisar sua reclamação e entrar em contato em breve."

	case domain.InteractionFeedback:
		switch sentiment {
		case domain.SentimentPositive:
			return "😊 Que bom saber que você gostou! Seu feedback é muito importante para nós."
		case domain.SentimentNegative:
			return "😔 Agradecemos seu feedback. Vamos trabalhar para melhorar sua experiência."
		default:
			return "📝 Obrigado pelo seu feedback! Sua opinião é muito valiosa para nós."
		}

	case domain.InteractionQuestion:
		return "❓ Recebemos sua pergunta! Nossa equipe irá responder em breve com as informações solicitadas."

	case domain.InteractionProfileUpdate:
		return "📝 Informações atualizadas com sucesso! Obrigado por manter seu perfil atualizado."
	}

	return "👋 Olá! Recebemos sua mensagem e nossa equipe irá analisá-la em breve."
}
