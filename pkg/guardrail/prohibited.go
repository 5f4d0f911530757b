package guardrail

import (
	"strings"

	"github.com/amirasaad/spendsense/pkg/domain"
)

// DefaultProhibitedTerms are product descriptions never recommended.
var DefaultProhibitedTerms = []string{
	"payday",
	"title loan",
	"cash advance",
	"rent-to-own",
	"rent to own",
	"pawn",
	"predatory",
	"guaranteed approval",
	"no credit check",
	"debt settlement",
	"crypto leverage",
}

// ProhibitedList matches offers against a fixed set of lower-cased terms.
type ProhibitedList struct {
	terms []string
}

// NewProhibitedList combines DefaultProhibitedTerms with extra terms.
// Blank and duplicate terms are dropped.
func NewProhibitedList(extra ...string) *ProhibitedList {
	seen := make(map[string]struct{})
	l := &ProhibitedList{}
	for _, t := range append(append([]string(nil), DefaultProhibitedTerms...), extra...) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		l.terms = append(l.terms, t)
	}
	return l
}

// Terms returns the active terms.
func (l *ProhibitedList) Terms() []string {
	return append([]string(nil), l.terms...)
}

// Match returns the first term found in the offer's category, type, title or
// description, case-insensitively.
func (l *ProhibitedList) Match(o *domain.Offer) (string, bool) {
	fields := []string{o.Category, o.Type, o.Title, o.Description}
	for i := range fields {
		fields[i] = strings.ToLower(fields[i])
	}
	for _, term := range l.terms {
		for _, f := range fields {
			if strings.Contains(f, term) {
				return term, true
			}
		}
	}
	return "", false
}
