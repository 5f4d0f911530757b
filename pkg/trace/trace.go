// Package trace assembles the audit record explaining a persona assignment
// and, for recommendation flows, the guardrail outcomes.
package trace

import (
	"encoding/json"
	"time"

	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/guardrail"
	"github.com/amirasaad/spendsense/pkg/persona"
	"github.com/google/uuid"
)

// SignalSummary reports one analyzer family as the resolver saw it.
type SignalSummary struct {
	Family         analysis.Family `json:"family"`
	Available      bool            `json:"available"`
	MeetsThreshold bool            `json:"meets_threshold"`
	Error          string          `json:"error,omitempty"`
}

// EligibilityOutcome is the guardrail verdict for one offer.
type EligibilityOutcome struct {
	OfferID       string   `json:"offer_id"`
	Eligible      bool     `json:"eligible"`
	Prohibited    bool     `json:"prohibited"`
	Reasons       []string `json:"reasons"`
	Disqualifiers []string `json:"disqualifiers"`
}

// DecisionTrace is the audit record for one persona assignment.
type DecisionTrace struct {
	UserID          uuid.UUID             `json:"user_id"`
	Timestamp       time.Time             `json:"timestamp"`
	Matched         []persona.Match       `json:"matched"`
	SelectedID      persona.ID            `json:"selected_persona_id"`
	SelectedName    string                `json:"selected_persona_name"`
	SelectionReason string                `json:"selection_reason"`
	Fallback        bool                  `json:"fallback"`
	PriorityOrder   []persona.ID          `json:"priority_order"`
	Failures        map[persona.ID]string `json:"predicate_failures,omitempty"`
	Signals         []SignalSummary       `json:"signals"`
	Eligibility     []EligibilityOutcome  `json:"eligibility,omitempty"`
}

// WithEligibility appends guardrail results in the given order.
func (t *DecisionTrace) WithEligibility(results ...*guardrail.EligibilityResult) *DecisionTrace {
	for _, r := range results {
		if r == nil {
			continue
		}
		t.Eligibility = append(t.Eligibility, EligibilityOutcome{
			OfferID:       r.OfferID,
			Eligible:      r.IsEligible,
			Prohibited:    r.Prohibited,
			Reasons:       append([]string{}, r.Reasons...),
			Disqualifiers: append([]string{}, r.Disqualifiers...),
		})
	}
	return t
}

// JSON encodes the trace for persistence.
func (t *DecisionTrace) JSON() ([]byte, error) {
	return json.Marshal(t)
}

// Option customizes a Builder.
type Option func(*Builder)

// WithClock overrides the time source stamped on each trace.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// Builder produces DecisionTraces. It holds no per-user state.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder using the UTC wall clock unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build records the resolver outcome together with the availability of each
// analyzer family. The output depends only on its inputs and the clock.
func (b *Builder) Build(signals *analysis.Signals, res *persona.Resolution) *DecisionTrace {
	t := &DecisionTrace{
		UserID:          res.UserID,
		Timestamp:       b.now(),
		Matched:         append([]persona.Match{}, res.Matches...),
		SelectedID:      res.Selected.ID,
		SelectedName:    res.Selected.Name,
		SelectionReason: res.SelectionReason,
		Fallback:        res.Fallback,
		PriorityOrder:   res.MatchedIDs(),
		Signals:         make([]SignalSummary, 0, len(analysis.Families)),
	}
	if len(res.Failures) > 0 {
		t.Failures = make(map[persona.ID]string, len(res.Failures))
		for id, err := range res.Failures {
			t.Failures[id] = err.Error()
		}
	}
	for _, f := range analysis.Families {
		s := SignalSummary{Family: f}
		if signals != nil {
			s.Available = signals.Available(f)
			s.MeetsThreshold = signals.MeetsThreshold(f)
			if err := signals.Err(f); err != nil {
				s.Error = err.Error()
			}
		}
		t.Signals = append(t.Signals, s)
	}
	return t
}
