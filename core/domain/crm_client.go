package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"crm_server/pkg/apperr"
)

// =============================================================================
// Client Types
// =============================================================================

// ClientSegment represents the behavioral tier of a client.
type ClientSegment string

const (
	SegmentVIP        ClientSegment = "VIP"
	SegmentFrequent   ClientSegment = "FREQUENT"
	SegmentOccasional ClientSegment = "OCCASIONAL"
	SegmentInactive   ClientSegment = "INACTIVE"
)

// ChurnRisk represents the tiered likelihood of attrition.
type ChurnRisk string

const (
	ChurnLow      ChurnRisk = "LOW"
	ChurnMedium   ChurnRisk = "MEDIUM"
	ChurnHigh     ChurnRisk = "HIGH"
	ChurnCritical ChurnRisk = "CRITICAL"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// =============================================================================
// Client Entity
// =============================================================================

// Client is a WhatsApp customer. The whatsapp number is canonicalized to
// digits at construction; engagement score is kept in [0,100]. UpdatedAt is
// refreshed on every mutating operation.
type Client struct {
	ID              string        `json:"id"`
	WhatsappNumber  string        `json:"whatsapp_number"`
	Name            string        `json:"name,omitempty"`
	Email           string        `json:"email,omitempty"`
	Age             int           `json:"age,omitempty"`
	City            string        `json:"city,omitempty"`
	Profession      string        `json:"profession,omitempty"`
	Income          float64       `json:"income,omitempty"`
	Segment         ClientSegment `json:"segment"`
	EngagementScore int           `json:"engagement_score"`
	ChurnRisk       ChurnRisk     `json:"churn_risk"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ClientParams holds optional construction parameters.
type ClientParams struct {
	ID              string
	WhatsappNumber  string
	Name            string
	Email           string
	Age             int
	City            string
	Profession      string
	Income          float64
	Segment         ClientSegment
	EngagementScore int
	ChurnRisk       ChurnRisk
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewClient validates and builds a Client.
func NewClient(p ClientParams) (*Client, error) {
	number, err := canonicalizeWhatsappNumber(p.WhatsappNumber)
	if err != nil {
		return nil, err
	}
	if p.EngagementScore < 0 || p.EngagementScore > 100 {
		return nil, apperr.InvalidInput("engagement_score", "engagement score must be between 0 and 100")
	}

	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	segment := p.Segment
	if segment == "" {
		segment = SegmentOccasional
	}
	risk := p.ChurnRisk
	if risk == "" {
		risk = ChurnLow
	}
	now := time.Now()
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return &Client{
		ID:              id,
		WhatsappNumber:  number,
		Name:            p.Name,
		Email:           p.Email,
		Age:             p.Age,
		City:            p.City,
		Profession:      p.Profession,
		Income:          p.Income,
		Segment:         segment,
		EngagementScore: p.EngagementScore,
		ChurnRisk:       risk,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// CanonicalWhatsappNumber normalizes a raw number to its stored form.
func CanonicalWhatsappNumber(number string) (string, error) {
	return canonicalizeWhatsappNumber(number)
}

// canonicalizeWhatsappNumber strips non-digits and enforces 10-15 digits.
func canonicalizeWhatsappNumber(number string) (string, error) {
	clean := nonDigitRe.ReplaceAllString(number, "")
	if len(clean) < 10 || len(clean) > 15 {
		return "", apperr.InvalidInput("whatsapp_number", "invalid WhatsApp number format")
	}
	return clean, nil
}

// =============================================================================
// Mutations
// =============================================================================

// ProfileUpdate carries the optional profile fields of an update. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Name       *string
	Email      *string
	Age        *int
	City       *string
	Profession *string
	Income     *float64
}

// UpdateProfile applies the non-nil fields and refreshes UpdatedAt.
func (c *Client) UpdateProfile(update ProfileUpdate) {
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Email != nil {
		c.Email = *update.Email
	}
	if update.Age != nil {
		c.Age = *update.Age
	}
	if update.City != nil {
		c.City = *update.City
	}
	if update.Profession != nil {
		c.Profession = *update.Profession
	}
	if update.Income != nil {
		c.Income = *update.Income
	}
	c.UpdatedAt = time.Now()
}

// UpdateSegment replaces the behavioral segment.
func (c *Client) UpdateSegment(segment ClientSegment) {
	c.Segment = segment
	c.UpdatedAt = time.Now()
}

// UpdateEngagementScore replaces the engagement score, failing when the
// value is outside [0,100].
func (c *Client) UpdateEngagementScore(score int) error {
	if score < 0 || score > 100 {
		return apperr.InvalidInput("engagement_score", "engagement score must be between 0 and 100")
	}
	c.EngagementScore = score
	c.UpdatedAt = time.Now()
	return nil
}

// UpdateChurnRisk replaces the churn risk tier.
func (c *Client) UpdateChurnRisk(risk ChurnRisk) {
	c.ChurnRisk = risk
	c.UpdatedAt = time.Now()
}

// =============================================================================
// Helpers
// =============================================================================

func (c *Client) IsVIP() bool {
	return c.Segment == SegmentVIP
}

// IsHighRisk reports whether the client sits in the HIGH or CRITICAL tier.
func (c *Client) IsHighRisk() bool {
	return c.ChurnRisk == ChurnHigh || c.ChurnRisk == ChurnCritical
}

// HasCompleteProfile reports whether all identifying profile fields are set.
func (c *Client) HasCompleteProfile() bool {
	return c.Name != "" && c.Email != "" && c.Age != 0 && c.City != "" && c.Profession != ""
}
