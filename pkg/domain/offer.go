package domain

import (
	"time"

	"github.com/google/uuid"
)

// Offer is a candidate product recommendation for a user.
type Offer struct {
	ID          string       `json:"id" validate:"required"`
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	Type        string       `json:"type,omitempty"`
	Provider    string       `json:"provider,omitempty"`
	Eligibility Requirements `json:"eligibility"`
}

// Requirements are the thresholds an offer imposes on a user.
// A nil pointer means the offer imposes no such requirement.
type Requirements struct {
	MinIncome            *float64 `json:"min_income,omitempty" validate:"omitempty,gte=0"`
	MinCreditScore       *int     `json:"min_credit_score,omitempty" validate:"omitempty,gte=300,lte=850"`
	MaxUtilization       *float64 `json:"max_utilization,omitempty" validate:"omitempty,gte=0,lte=1"`
	ExcludedAccountTypes []string `json:"excluded_account_types,omitempty"`
}

// Recommendation is an offer persisted for a user after passing the guardrail.
type Recommendation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	OfferID   string    `json:"offer_id"`
	Title     string    `json:"title"`
	PersonaID string    `json:"persona_id"`
	Rationale string    `json:"rationale"`
	Trace     []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
