package worker

import (
	"context"
	"fmt"

	"crm_server/core/domain"
	"crm_server/core/port/out"
	"crm_server/core/service/classification"
	"crm_server/pkg/logger"
)

// =============================================================================
// Message Processor
// =============================================================================

// MessageProcessor runs the classification pipeline for inbound WhatsApp
// messages: classify, find or create the client, persist the interaction,
// then queue the scoring pass and the automatic reply.
type MessageProcessor struct {
	clients      out.ClientRepository
	interactions out.InteractionRepository
	producer     out.MessageProducer
	sender       out.MessageSender
	classifier   *classification.Classifier
	log          *logger.Logger
}

// NewMessageProcessor creates a new MessageProcessor.
func NewMessageProcessor(
	clients out.ClientRepository,
	interactions out.InteractionRepository,
	producer out.MessageProducer,
	sender out.MessageSender,
	classifier *classification.Classifier,
	log *logger.Logger,
) *MessageProcessor {
	if classifier == nil {
		classifier = classification.NewClassifier(log)
	}
	if log == nil {
		log = logger.Default()
	}
	return &MessageProcessor{
		clients:      clients,
		interactions: interactions,
		producer:     producer,
		sender:       sender,
		classifier:   classifier,
		log:          log,
	}
}

// ProcessMessage handles a message.process job.
func (p *MessageProcessor) ProcessMessage(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[MessageProcessPayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse message.process payload: %w", err)
	}

	inbound := &domain.InboundMessage{
		ID:        payload.MessageID,
		From:      payload.WhatsappNumber,
		Timestamp: payload.Timestamp,
		Type:      domain.MessageType(payload.MessageType),
	}
	if payload.Body != "" {
		inbound.Text = &domain.TextContent{Body: payload.Body}
	}

	result := p.classifier.ProcessMessage(inbound)

	client, err := p.findOrCreateClient(ctx, payload.WhatsappNumber, payload.ContactName)
	if err != nil {
		return err
	}

	if len(result.Extracted.Entities) > 0 {
		p.applyProfileEntities(ctx, client, result.Extracted.Entities)
	}

	interaction, err := p.buildInteraction(client.ID, payload, result)
	if err != nil {
		return err
	}
	if err := p.interactions.Save(ctx, interaction); err != nil {
		return err
	}

	// Best effort, a failed read receipt must not fail the pipeline.
	if p.sender != nil && payload.MessageID != "" {
		if err := p.sender.MarkAsRead(ctx, payload.MessageID); err != nil {
			p.log.WithError(err).WithField("message_id", payload.MessageID).
				Warn("failed to mark message as read")
		}
	}

	if err := p.producer.PublishClientAnalyze(ctx, &out.ClientAnalyzeJob{
		ClientID: client.ID,
		Reason:   "new_interaction",
	}); err != nil {
		return fmt.Errorf("failed to queue client analysis: %w", err)
	}

	if result.ShouldRespond && result.SuggestedReply != "" {
		if err := p.producer.PublishReplySend(ctx, &out.ReplySendJob{
			WhatsappNumber: payload.WhatsappNumber,
			Body:           result.SuggestedReply,
			InReplyTo:      payload.MessageID,
		}); err != nil {
			return fmt.Errorf("failed to queue reply: %w", err)
		}
	}

	p.log.WithFields(map[string]any{
		"message_id": payload.MessageID,
		"client_id":  client.ID,
		"type":       string(result.InteractionType),
		"sentiment":  string(result.Sentiment),
		"respond":    result.ShouldRespond,
	}).Info("message processed")

	return nil
}

// findOrCreateClient resolves the client by whatsapp number, registering a
// new one on first contact.
func (p *MessageProcessor) findOrCreateClient(ctx context.Context, whatsappNumber, contactName string) (*domain.Client, error) {
	client, err := p.clients.FindByWhatsappNumber(ctx, whatsappNumber)
	if err != nil {
		return nil, err
	}
	if client != nil {
		// Backfill the profile name from the webhook contact info.
		if client.Name == "" && contactName != "" {
			client.UpdateProfile(domain.ProfileUpdate{Name: &contactName})
			if err := p.clients.Save(ctx, client); err != nil {
				return nil, err
			}
		}
		return client, nil
	}

	client, err = domain.NewClient(domain.ClientParams{
		WhatsappNumber: whatsappNumber,
		Name:           contactName,
	})
	if err != nil {
		return nil, err
	}
	if err := p.clients.Save(ctx, client); err != nil {
		return nil, err
	}

	p.log.WithField("client_id", client.ID).Info("new client registered")
	return client, nil
}

// applyProfileEntities merges extracted profile entities into the client.
// Extraction errors never block the pipeline.
func (p *MessageProcessor) applyProfileEntities(ctx context.Context, client *domain.Client, entities map[string]any) {
	var update domain.ProfileUpdate
	changed := false

	if name, ok := entities["name"].(string); ok && name != "" {
		update.Name = &name
		changed = true
	}
	if city, ok := entities["city"].(string); ok && city != "" {
		update.City = &city
		changed = true
	}
	if profession, ok := entities["profession"].(string); ok && profession != "" {
		update.Profession = &profession
		changed = true
	}
	if age, ok := toInt(entities["age"]); ok && age > 0 {
		update.Age = &age
		changed = true
	}

	if !changed {
		return
	}

	client.UpdateProfile(update)
	if err := p.clients.Save(ctx, client); err != nil {
		p.log.WithError(err).WithField("client_id", client.ID).
			Warn("failed to save extracted profile data")
	}
}

func (p *MessageProcessor) buildInteraction(clientID string, payload *MessageProcessPayload, result *classification.ProcessedMessage) (*domain.Interaction, error) {
	content := payload.Body
	if content == "" {
		// Media messages carry no text, keep a placeholder for history.
		content = "[" + payload.MessageType + "]"
	}

	metadata := map[string]any{
		"message_id":   payload.MessageID,
		"message_type": payload.MessageType,
	}
	if result.Extracted.Intent != "" {
		metadata["intent"] = result.Extracted.Intent
	}

	return domain.NewInteraction(domain.InteractionParams{
		ClientID:  clientID,
		Type:      result.InteractionType,
		Content:   content,
		Value:     result.Extracted.Value,
		Category:  result.Extracted.Category,
		Sentiment: result.Sentiment,
		Metadata:  metadata,
	})
}

// toInt normalizes JSON numbers, which decode as float64 after a payload
// round trip.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
