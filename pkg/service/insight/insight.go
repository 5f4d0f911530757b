// Package insight provides the user-facing operations over the analysis,
// persona and guardrail packages.
package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/guardrail"
	"github.com/amirasaad/spendsense/pkg/persona"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/amirasaad/spendsense/pkg/trace"
	"github.com/google/uuid"
)

// Assignment is the persona selected for a user with its supporting evidence.
type Assignment struct {
	UserID    uuid.UUID            `json:"user_id"`
	Persona   persona.Match        `json:"persona"`
	Matches   []persona.Match      `json:"matches"`
	Consent   bool                 `json:"consent_granted"`
	Signals   *analysis.Signals    `json:"signals"`
	Trace     *trace.DecisionTrace `json:"trace"`
	Rationale string               `json:"rationale"`
}

// Recommendations is the outcome of a recommendation request.
type Recommendations struct {
	UserID   uuid.UUID                      `json:"user_id"`
	Persona  persona.Match                  `json:"persona"`
	Offers   []guardrail.EligibleOffer      `json:"offers"`
	Rejected []*guardrail.EligibilityResult `json:"rejected"`
	Saved    []*domain.Recommendation       `json:"saved"`
	Trace    *trace.DecisionTrace           `json:"trace"`
}

// Service provides persona assignment, eligibility and recommendation operations.
type Service struct {
	store    repository.Store
	suite    *analysis.Suite
	resolver *persona.Resolver
	checker  *guardrail.Checker
	traces   *trace.Builder
	logger   *slog.Logger
}

// New creates a new Service.
func New(
	store repository.Store,
	suite *analysis.Suite,
	resolver *persona.Resolver,
	checker *guardrail.Checker,
	traces *trace.Builder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		suite:    suite,
		resolver: resolver,
		checker:  checker,
		traces:   traces,
		logger:   logger.With("component", "insight"),
	}
}

// user returns domain.ErrUserNotFound when userID is unknown.
func (s *Service) user(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}

// AnalyzeCredit runs the credit analyzer over the trailing windowDays.
func (s *Service) AnalyzeCredit(ctx context.Context, userID uuid.UUID, windowDays int) (*analysis.CreditResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.suite.Credit.Analyze(ctx, userID, windowDays)
}

// AnalyzeIncome runs the income analyzer over the trailing windowDays.
func (s *Service) AnalyzeIncome(ctx context.Context, userID uuid.UUID, windowDays int) (*analysis.IncomeResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.suite.Income.Analyze(ctx, userID, windowDays)
}

// AnalyzeSavings runs the savings analyzer over the trailing windowDays.
func (s *Service) AnalyzeSavings(ctx context.Context, userID uuid.UUID, windowDays int) (*analysis.SavingsResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.suite.Savings.Analyze(ctx, userID, windowDays)
}

// AnalyzeSubscriptions runs the subscription detector over the trailing windowDays.
func (s *Service) AnalyzeSubscriptions(ctx context.Context, userID uuid.UUID, windowDays int) (*analysis.SubscriptionResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.suite.Subscriptions.Analyze(ctx, userID, windowDays)
}

// Analyze runs one family by name and returns its result. The name is
// normalized with analysis.ParseFamily.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, family analysis.Family, windowDays int) (analysis.Result, error) {
	family, err := analysis.ParseFamily(string(family))
	if err != nil {
		return nil, err
	}
	switch family {
	case analysis.FamilyCredit:
		r, err := s.AnalyzeCredit(ctx, userID, windowDays)
		return nonNil(r, err)
	case analysis.FamilyIncome:
		r, err := s.AnalyzeIncome(ctx, userID, windowDays)
		return nonNil(r, err)
	case analysis.FamilySavings:
		r, err := s.AnalyzeSavings(ctx, userID, windowDays)
		return nonNil(r, err)
	case analysis.FamilySubscription:
		r, err := s.AnalyzeSubscriptions(ctx, userID, windowDays)
		return nonNil(r, err)
	}
	return nil, fmt.Errorf("%w: unknown analyzer family %q", domain.ErrValidation, family)
}

// nonNil keeps a typed nil result out of the analysis.Result interface.
func nonNil[R analysis.Result](r R, err error) (analysis.Result, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Signals collects both windows of every analyzer family.
func (s *Service) Signals(ctx context.Context, userID uuid.UUID) (*analysis.Signals, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.suite.Collect(ctx, userID), nil
}

// AssignPersonaToUser selects the user's persona and records the decision trace.
func (s *Service) AssignPersonaToUser(ctx context.Context, userID uuid.UUID) (*Assignment, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	signals := s.suite.Collect(ctx, userID)
	res := s.resolver.Resolve(signals)
	s.logger.Info("persona assigned",
		"user_id", userID,
		"persona", res.Selected.ID,
		"matches", len(res.Matches),
		"unavailable", signals.Unavailable,
	)
	return &Assignment{
		UserID:    userID,
		Persona:   res.Selected,
		Matches:   res.Matches,
		Consent:   u.ConsentGranted,
		Signals:   signals,
		Trace:     s.traces.Build(signals, res),
		Rationale: res.Selected.Rationale,
	}, nil
}

func validateOffer(offer *domain.Offer) error {
	if offer == nil || offer.ID == "" {
		return fmt.Errorf("%w: offer id is required", domain.ErrValidation)
	}
	return nil
}

// CheckOfferEligibility evaluates offer for the user.
func (s *Service) CheckOfferEligibility(ctx context.Context, userID uuid.UUID, offer *domain.Offer) (*guardrail.EligibilityResult, error) {
	if err := validateOffer(offer); err != nil {
		return nil, err
	}
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.checker.CheckOfferEligibility(ctx, userID, offer), nil
}

// FilterEligibleOffers returns the offers the user is eligible for.
func (s *Service) FilterEligibleOffers(ctx context.Context, userID uuid.UUID, offers []*domain.Offer) ([]guardrail.EligibleOffer, error) {
	for _, o := range offers {
		if err := validateOffer(o); err != nil {
			return nil, err
		}
	}
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.checker.FilterEligibleOffers(ctx, userID, offers), nil
}

// RequireEligibleOffer returns a *guardrail.IneligibleError unless the user
// is eligible for offer.
func (s *Service) RequireEligibleOffer(ctx context.Context, userID uuid.UUID, offer *domain.Offer) (*guardrail.EligibilityResult, error) {
	if err := validateOffer(offer); err != nil {
		return nil, err
	}
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.checker.RequireEligibleOffer(ctx, userID, offer)
}

// Recommend assigns the user's persona, runs every offer through the
// guardrail and persists the eligible ones in a single unit of work. The persisted trace carries the
// outcome of every offer considered.
func (s *Service) Recommend(ctx context.Context, userID uuid.UUID, offers []*domain.Offer) (*Recommendations, error) {
	for _, o := range offers {
		if err := validateOffer(o); err != nil {
			return nil, err
		}
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.ConsentGranted {
		return nil, fmt.Errorf("%w: %s", domain.ErrConsentRequired, userID)
	}

	signals := s.suite.Collect(ctx, userID)
	res := s.resolver.Resolve(signals)
	tr := s.traces.Build(signals, res)
	profile := s.checker.ProfileFromSignals(ctx, signals)

	out := &Recommendations{
		UserID:   userID,
		Persona:  res.Selected,
		Offers:   []guardrail.EligibleOffer{},
		Rejected: []*guardrail.EligibilityResult{},
		Saved:    []*domain.Recommendation{},
		Trace:    tr,
	}
	results := make([]*guardrail.EligibilityResult, len(offers))
	for i, o := range offers {
		results[i] = s.checker.Evaluate(profile, o)
		if results[i].IsEligible {
			out.Offers = append(out.Offers, guardrail.EligibleOffer{Offer: o, Eligibility: results[i]})
		} else {
			out.Rejected = append(out.Rejected, results[i])
		}
	}
	tr.WithEligibility(results...)

	raw, err := tr.JSON()
	if err != nil {
		return nil, fmt.Errorf("encode decision trace: %w", err)
	}
	err = s.store.Do(ctx, func(tx repository.Tx) error {
		saved := make([]*domain.Recommendation, 0, len(out.Offers))
		for _, e := range out.Offers {
			if _, err := s.checker.RequireForProfile(profile, e.Offer); err != nil {
				return err
			}
			rec := &domain.Recommendation{
				UserID:    userID,
				OfferID:   e.Offer.ID,
				Title:     e.Offer.Title,
				PersonaID: string(res.Selected.ID),
				Rationale: res.Selected.Rationale,
				Trace:     raw,
				CreatedAt: tr.Timestamp,
			}
			if err := tx.SaveRecommendation(ctx, rec); err != nil {
				return fmt.Errorf("save recommendation %s: %w", e.Offer.ID, err)
			}
			saved = append(saved, rec)
		}
		out.Saved = saved
		return nil
	})
	if err != nil {
		s.logger.Error("save recommendations failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info("recommendations issued",
		"user_id", userID,
		"persona", res.Selected.ID,
		"offered", len(offers),
		"eligible", len(out.Offers),
	)
	return out, nil
}

// ListRecommendations returns the recommendations persisted for the user.
func (s *Service) ListRecommendations(ctx context.Context, userID uuid.UUID) ([]*domain.Recommendation, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListRecommendations(ctx, userID)
}
