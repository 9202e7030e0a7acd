package domain

import (
	"testing"

	"crm_server/pkg/apperr"
)

// TestNewClient tests construction, defaults and number canonicalization.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name       string
		params     ClientParams
		wantNumber string
		wantErr    bool
	}{
		{
			name:       "plain digits",
			params:     ClientParams{WhatsappNumber: "5511999990000"},
			wantNumber: "5511999990000",
		},
		{
			name:       "formatted number is canonicalized",
			params:     ClientParams{WhatsappNumber: "+55 (11) 99999-0000"},
			wantNumber: "5511999990000",
		},
		{
			name:    "too short",
			params:  ClientParams{WhatsappNumber: "12345"},
			wantErr: true,
		},
		{
			name:    "too long",
			params:  ClientParams{WhatsappNumber: "1234567890123456"},
			wantErr: true,
		},
		{
			name:    "engagement score above range",
			params:  ClientParams{WhatsappNumber: "5511999990000", EngagementScore: 150},
			wantErr: true,
		},
		{
			name:       "engagement score at upper bound",
			params:     ClientParams{WhatsappNumber: "5511999990000", EngagementScore: 100},
			wantNumber: "5511999990000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !apperr.IsValidation(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if client.WhatsappNumber != tt.wantNumber {
				t.Errorf("number = %q, want %q", client.WhatsappNumber, tt.wantNumber)
			}
		})
	}
}

// TestNewClientDefaults tests segment, risk and id defaults.
func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(ClientParams{WhatsappNumber: "5511999990000"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.ID == "" {
		t.Error("id should be generated")
	}
	if client.Segment != SegmentOccasional {
		t.Errorf("segment = %s, want OCCASIONAL", client.Segment)
	}
	if client.ChurnRisk != ChurnLow {
		t.Errorf("churn risk = %s, want LOW", client.ChurnRisk)
	}
	if client.CreatedAt.IsZero() || client.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

// TestUpdateProfile tests partial profile updates.
func TestUpdateProfile(t *testing.T) {
	client, err := NewClient(ClientParams{
		WhatsappNumber: "5511999990000",
		Name:           "Maria",
		City:           "Recife",
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	name := "Maria Silva"
	age := 31
	client.UpdateProfile(ProfileUpdate{Name: &name, Age: &age})

	if client.Name != "Maria Silva" {
		t.Errorf("name = %q, want Maria Silva", client.Name)
	}
	if client.Age != 31 {
		t.Errorf("age = %d, want 31", client.Age)
	}
	if client.City != "Recife" {
		t.Errorf("city = %q, should stay untouched", client.City)
	}
}

// TestUpdateEngagementScore tests the score range guard.
func TestUpdateEngagementScore(t *testing.T) {
	client, err := NewClient(ClientParams{WhatsappNumber: "5511999990000"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if err := client.UpdateEngagementScore(100); err != nil {
		t.Errorf("UpdateEngagementScore(100) error = %v", err)
	}
	if client.EngagementScore != 100 {
		t.Errorf("score = %d, want 100", client.EngagementScore)
	}

	if err := client.UpdateEngagementScore(150); err == nil {
		t.Error("UpdateEngagementScore(150) should fail")
	}
	if client.EngagementScore != 100 {
		t.Errorf("score = %d, should stay 100 after failed update", client.EngagementScore)
	}

	if err := client.UpdateEngagementScore(-1); err == nil {
		t.Error("UpdateEngagementScore(-1) should fail")
	}
}

// TestClientHelpers tests the predicate helpers.
func TestClientHelpers(t *testing.T) {
	client, err := NewClient(ClientParams{WhatsappNumber: "5511999990000"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.IsVIP() {
		t.Error("fresh client should not be VIP")
	}
	client.UpdateSegment(SegmentVIP)
	if !client.IsVIP() {
		t.Error("IsVIP() = false after UpdateSegment(VIP)")
	}

	if client.IsHighRisk() {
		t.Error("fresh client should not be high risk")
	}
	client.UpdateChurnRisk(ChurnCritical)
	if !client.IsHighRisk() {
		t.Error("IsHighRisk() = false for CRITICAL")
	}

	if client.HasCompleteProfile() {
		t.Error("profile should be incomplete")
	}
	name, email, city, profession := "Ana", "ana@example.com", "Natal", "arquiteta"
	age := 28
	client.UpdateProfile(ProfileUpdate{
		Name: &name, Email: &email, Age: &age, City: &city, Profession: &profession,
	})
	if !client.HasCompleteProfile() {
		t.Error("profile should be complete")
	}
}
