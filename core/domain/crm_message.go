package domain

// =============================================================================
// Inbound Message (WhatsApp Cloud API shapes)
// =============================================================================

// MessageType is the media type of an inbound WhatsApp message. Only text
// messages are classified; everything else degrades to GENERAL/no-response.
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageAudio    MessageType = "audio"
	MessageVideo    MessageType = "video"
	MessageDocument MessageType = "document"
	MessageLocation MessageType = "location"
)

// TextContent is the body of a text message.
type TextContent struct {
	Body string `json:"body"`
}

// InboundMessage is one message as delivered by the WhatsApp webhook.
type InboundMessage struct {
	ID        string       `json:"id"`
	From      string       `json:"from"`
	Timestamp string       `json:"timestamp"`
	Type      MessageType  `json:"type"`
	Text      *TextContent `json:"text,omitempty"`
}

// IsText reports whether the message is a text message with a non-empty body.
func (m *InboundMessage) IsText() bool {
	return m.Type == MessageText && m.Text != nil && m.Text.Body != ""
}

// Body returns the text body, or "" for non-text messages.
func (m *InboundMessage) Body() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}

// =============================================================================
// Webhook Payload
// =============================================================================

// WebhookPayload is the envelope POSTed by the WhatsApp Business webhook.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry groups the changes for one business account.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange is one field change inside an entry.
type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue carries the messages and contact info of a change.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         WebhookMetadata  `json:"metadata"`
	Contacts         []WebhookContact `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
	Statuses         []WebhookStatus  `json:"statuses,omitempty"`
}

// WebhookMetadata identifies the receiving phone number.
type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// WebhookContact is the sender profile attached to a change.
type WebhookContact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

// WebhookStatus is a delivery status update for an outbound message.
type WebhookStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// FlattenMessages extracts all inbound messages from a webhook payload.
// Payloads for objects other than whatsapp_business_account yield nothing.
func (p *WebhookPayload) FlattenMessages() []InboundMessage {
	if p.Object != "whatsapp_business_account" {
		return nil
	}

	var messages []InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			messages = append(messages, change.Value.Messages...)
		}
	}
	return messages
}

// ContactName looks up the profile name for a wa_id across the payload.
func (p *WebhookPayload) ContactName(waID string) string {
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			for _, contact := range change.Value.Contacts {
				if contact.WaID == waID {
					return contact.Profile.Name
				}
			}
		}
	}
	return ""
}
