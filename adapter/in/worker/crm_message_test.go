package worker

import (
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(JobMessageProcess, map[string]any{"message_id": "wamid.1"})

	if msg.ID == "" {
		t.Error("expected generated ID")
	}
	if msg.Type != JobMessageProcess {
		t.Errorf("expected type %q, got %q", JobMessageProcess, msg.Type)
	}
	if msg.Priority != PriorityNormal {
		t.Errorf("expected normal priority, got %d", msg.Priority)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestMessageIsPriority(t *testing.T) {
	tests := []struct {
		name     string
		priority Priority
		want     bool
	}{
		{"low", PriorityLow, false},
		{"normal", PriorityNormal, false},
		{"high", PriorityHigh, true},
		{"critical", PriorityCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewPriorityMessage(JobReplySend, nil, tt.priority)
			if got := msg.IsPriority(); got != tt.want {
				t.Errorf("IsPriority() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePayload(t *testing.T) {
	msg := NewMessage(JobMessageProcess, map[string]any{
		"message_id":      "wamid.42",
		"whatsapp_number": "+5511999998888",
		"contact_name":    "Maria",
		"message_type":    "text",
		"body":            "quanto custa o plano anual?",
		"timestamp":       "2026-08-30T12:00:00Z",
	})

	payload, err := ParsePayload[MessageProcessPayload](msg)
	if err != nil {
		t.Fatalf("ParsePayload() error = %v", err)
	}

	if payload.MessageID != "wamid.42" {
		t.Errorf("expected message_id wamid.42, got %q", payload.MessageID)
	}
	if payload.WhatsappNumber != "+5511999998888" {
		t.Errorf("unexpected whatsapp_number %q", payload.WhatsappNumber)
	}
	if payload.Body != "quanto custa o plano anual?" {
		t.Errorf("unexpected body %q", payload.Body)
	}
}

func TestParsePayloadMissingFields(t *testing.T) {
	msg := NewMessage(JobClientAnalyze, map[string]any{})

	payload, err := ParsePayload[ClientAnalyzePayload](msg)
	if err != nil {
		t.Fatalf("ParsePayload() error = %v", err)
	}
	if payload.ClientID != "" {
		t.Errorf("expected empty client_id, got %q", payload.ClientID)
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   int
		wantOK bool
	}{
		{"int", 34, 34, true},
		{"float64 from json", float64(34), 34, true},
		{"string", "34", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toInt(tt.value)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("toInt(%v) = (%d, %v), want (%d, %v)", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
