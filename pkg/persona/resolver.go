package persona

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/google/uuid"
)

// Match is a persona whose predicate held.
type Match struct {
	ID        ID     `json:"persona_id"`
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	Rationale string `json:"rationale"`
}

// Resolution is the outcome of resolving one user's signals.
type Resolution struct {
	UserID   uuid.UUID `json:"user_id"`
	Selected Match     `json:"selected"`
	// Matches holds every matching persona in selection order.
	Matches []Match `json:"matches"`
	// Failures holds personas skipped because their predicate could not run.
	Failures        map[ID]error `json:"-"`
	SelectionReason string       `json:"selection_reason"`
	Fallback        bool         `json:"fallback"`
}

// MatchedIDs returns the matching persona ids in selection order.
func (r *Resolution) MatchedIDs() []ID {
	ids := make([]ID, len(r.Matches))
	for i, m := range r.Matches {
		ids[i] = m.ID
	}
	return ids
}

// Resolver selects one persona per user from a Catalog.
type Resolver struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewResolver creates a Resolver over catalog.
func NewResolver(catalog *Catalog, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalog: catalog, logger: logger.With("component", "persona")}
}

// Resolve evaluates every persona against signals and selects the highest
// ranked match, or the catalog fallback when nothing matches. A persona whose
// predicate fails or panics counts as not matching.
func (r *Resolver) Resolve(signals *analysis.Signals) *Resolution {
	res := &Resolution{Matches: []Match{}}
	if signals != nil {
		res.UserID = signals.UserID
	}

	// evaluating
	for _, p := range r.catalog.Personas() {
		matched, err := r.evaluate(p, signals)
		if err != nil {
			if res.Failures == nil {
				res.Failures = make(map[ID]error)
			}
			res.Failures[p.ID()] = err
			r.logger.Warn("persona predicate failed", "user_id", res.UserID, "persona", p.ID(), "error", err)
			continue
		}
		if !matched {
			continue
		}
		res.Matches = append(res.Matches, Match{
			ID:        p.ID(),
			Name:      p.Name(),
			Priority:  p.Priority(),
			Rationale: r.rationale(p, signals),
		})
	}

	// resolved
	sort.SliceStable(res.Matches, func(i, j int) bool {
		return ranksBefore(res.Matches[i].Priority, res.Matches[i].ID, res.Matches[j].Priority, res.Matches[j].ID)
	})
	if len(res.Matches) == 0 {
		fb := r.catalog.Fallback()
		res.Selected = Match{ID: fb.ID(), Name: fb.Name(), Priority: fb.Priority(), Rationale: fb.Rationale(signals)}
		res.Fallback = true
		res.SelectionReason = fmt.Sprintf("no persona criteria met: assigned default persona %s", fb.ID())
	} else {
		res.Selected = res.Matches[0]
		res.SelectionReason = fmt.Sprintf("selected highest priority persona: priority=%d", res.Selected.Priority)
	}

	r.logger.Debug("persona resolved",
		"user_id", res.UserID,
		"persona", res.Selected.ID,
		"matches", len(res.Matches),
		"fallback", res.Fallback,
	)
	return res
}

// evaluate runs one predicate inside an error boundary.
func (r *Resolver) evaluate(p Persona, signals *analysis.Signals) (matched bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			matched = false
			err = &domain.PredicateError{PersonaID: string(p.ID()), Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	for _, f := range p.Requires() {
		if !signals.Available(f) {
			cause := fmt.Errorf("%s signals unavailable", f)
			if ferr := signals.Err(f); ferr != nil {
				cause = fmt.Errorf("%s signals unavailable: %w", f, ferr)
			}
			return false, &domain.PredicateError{PersonaID: string(p.ID()), Err: cause}
		}
	}
	matched, err = p.Matches(signals)
	if err != nil {
		return false, &domain.PredicateError{PersonaID: string(p.ID()), Err: err}
	}
	return matched, nil
}

func (r *Resolver) rationale(p Persona, signals *analysis.Signals) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("persona rationale failed", "persona", p.ID(), "panic", rec)
			text = p.Description()
		}
	}()
	return p.Rationale(signals)
}
