// Package guardrail decides whether an offer may be shown to a user.
//
// Checks run in a fixed order. The prohibited-product check is a hard block
// that stops evaluation; the remaining checks all run and every failure is
// reported.
package guardrail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
)

// CheckName identifies one eligibility check.
type CheckName string

const (
	CheckProhibited   CheckName = "prohibited_product"
	CheckMinIncome    CheckName = "min_income"
	CheckCreditScore  CheckName = "min_credit_score"
	CheckUtilization  CheckName = "max_utilization"
	CheckAccountTypes CheckName = "excluded_account_types"
)

const notRequiredMessage = "not required by offer"

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name    CheckName `json:"name"`
	Passed  bool      `json:"passed"`
	Skipped bool      `json:"skipped,omitempty"`
	Detail  string    `json:"detail"`
}

// EligibilityResult is the outcome of checking one offer for one user.
type EligibilityResult struct {
	OfferID       string        `json:"offer_id"`
	IsEligible    bool          `json:"is_eligible"`
	Prohibited    bool          `json:"prohibited"`
	Reasons       []string      `json:"reasons"`
	Disqualifiers []string      `json:"disqualifiers"`
	Checks        []CheckResult `json:"checks"`
}

func (r *EligibilityResult) record(c CheckResult) {
	r.Checks = append(r.Checks, c)
	switch {
	case c.Skipped:
	case c.Passed:
		r.Reasons = append(r.Reasons, c.Detail)
	default:
		r.Disqualifiers = append(r.Disqualifiers, c.Detail)
	}
}

// EligibleOffer pairs an offer with the result that admitted it.
type EligibleOffer struct {
	Offer       *domain.Offer      `json:"offer"`
	Eligibility *EligibilityResult `json:"eligibility"`
}

// IneligibleError is returned by RequireEligibleOffer.
type IneligibleError struct {
	OfferID string
	Result  *EligibilityResult
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("offer %s is not eligible: %s", e.OfferID, strings.Join(e.Result.Disqualifiers, "; "))
}

// Is reports ErrOfferIneligible always and ErrProhibitedProduct for hard blocks.
func (e *IneligibleError) Is(target error) bool {
	switch target {
	case domain.ErrOfferIneligible:
		return true
	case domain.ErrProhibitedProduct:
		return e.Result.Prohibited
	}
	return false
}

// CreditSource produces both credit windows for a user.
type CreditSource interface {
	AnalyzeForUser(ctx context.Context, userID uuid.UUID) (*analysis.Summary[*analysis.CreditResult], error)
}

// IncomeSource produces both income windows for a user.
type IncomeSource interface {
	AnalyzeForUser(ctx context.Context, userID uuid.UUID) (*analysis.Summary[*analysis.IncomeResult], error)
}

// Checker evaluates offers against a user's derived profile.
type Checker struct {
	accounts   repository.AccountReader
	credit     CreditSource
	income     IncomeSource
	prohibited *ProhibitedList
	logger     *slog.Logger
}

// NewChecker creates a Checker. cfg may be nil.
func NewChecker(
	accounts repository.AccountReader,
	credit CreditSource,
	income IncomeSource,
	cfg *config.Guardrail,
	logger *slog.Logger,
) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	var extra []string
	if cfg != nil {
		extra = cfg.ExtraProhibitedTerms
	}
	return &Checker{
		accounts:   accounts,
		credit:     credit,
		income:     income,
		prohibited: NewProhibitedList(extra...),
		logger:     logger.With("component", "guardrail"),
	}
}

// Prohibited returns the active prohibited-term list.
func (c *Checker) Prohibited() *ProhibitedList { return c.prohibited }

// Evaluate checks offer against an already derived profile.
func (c *Checker) Evaluate(p *Profile, offer *domain.Offer) *EligibilityResult {
	res := &EligibilityResult{
		OfferID:       offer.ID,
		Reasons:       []string{},
		Disqualifiers: []string{},
	}

	if term, hit := c.prohibited.Match(offer); hit {
		res.Prohibited = true
		res.record(CheckResult{
			Name:   CheckProhibited,
			Detail: fmt.Sprintf("offer matches prohibited product term %q", term),
		})
		c.logger.Info("prohibited offer blocked", "user_id", p.UserID, "offer_id", offer.ID, "term", term)
		return res
	}
	res.record(CheckResult{Name: CheckProhibited, Passed: true, Detail: "offer is not a prohibited product"})

	req := offer.Eligibility
	res.record(checkIncome(p, req.MinIncome))
	res.record(checkCreditScore(p, req.MinCreditScore))
	res.record(c.checkUtilization(p, req.MaxUtilization))
	res.record(checkAccountTypes(p, req.ExcludedAccountTypes))

	res.IsEligible = len(res.Disqualifiers) == 0
	c.logger.Debug("offer evaluated",
		"user_id", p.UserID,
		"offer_id", offer.ID,
		"eligible", res.IsEligible,
		"disqualifiers", len(res.Disqualifiers),
	)
	return res
}

func checkIncome(p *Profile, minIncome *float64) CheckResult {
	c := CheckResult{Name: CheckMinIncome}
	switch {
	case minIncome == nil:
		c.Passed, c.Skipped, c.Detail = true, true, notRequiredMessage
	case p.AnnualIncome == nil:
		c.Detail = fmt.Sprintf("unable to determine income (minimum $%.2f required)", *minIncome)
	case *p.AnnualIncome < *minIncome:
		c.Detail = fmt.Sprintf("estimated annual income $%.2f is below the $%.2f minimum", *p.AnnualIncome, *minIncome)
	default:
		c.Passed = true
		c.Detail = fmt.Sprintf("estimated annual income $%.2f meets the $%.2f minimum", *p.AnnualIncome, *minIncome)
	}
	return c
}

func checkCreditScore(p *Profile, minScore *int) CheckResult {
	c := CheckResult{Name: CheckCreditScore}
	switch {
	case minScore == nil:
		c.Passed, c.Skipped, c.Detail = true, true, notRequiredMessage
	case p.EstimatedCreditScore == nil:
		c.Detail = fmt.Sprintf("unable to determine credit score (minimum %d required)", *minScore)
	case *p.EstimatedCreditScore < *minScore:
		c.Detail = fmt.Sprintf("estimated credit score %d is below the %d minimum", *p.EstimatedCreditScore, *minScore)
	default:
		c.Passed = true
		c.Detail = fmt.Sprintf("estimated credit score %d meets the %d minimum", *p.EstimatedCreditScore, *minScore)
	}
	return c
}

func (c *Checker) checkUtilization(p *Profile, maxUtilization *float64) CheckResult {
	r := CheckResult{Name: CheckUtilization}
	switch {
	case maxUtilization == nil:
		r.Passed, r.Skipped, r.Detail = true, true, notRequiredMessage
	case p.MaxUtilization == nil:
		c.logger.Warn("utilization unverified, not disqualifying", "user_id", p.UserID, "error", p.creditErr)
		r.Passed = true
		r.Detail = "utilization could not be verified"
	case *p.MaxUtilization > *maxUtilization:
		r.Detail = fmt.Sprintf("card utilization %.0f%% exceeds the %.0f%% maximum", *p.MaxUtilization*100, *maxUtilization*100)
	default:
		r.Passed = true
		r.Detail = fmt.Sprintf("card utilization %.0f%% is within the %.0f%% maximum", *p.MaxUtilization*100, *maxUtilization*100)
	}
	return r
}

func checkAccountTypes(p *Profile, excluded []string) CheckResult {
	c := CheckResult{Name: CheckAccountTypes}
	if len(excluded) == 0 {
		c.Passed, c.Skipped, c.Detail = true, true, notRequiredMessage
		return c
	}
	if p.accountsErr != nil {
		c.Detail = "unable to verify existing accounts"
		return c
	}
	if held, rule, ok := p.heldExcludedType(excluded); ok {
		c.Detail = fmt.Sprintf("already holds a %s account (offer excludes %s)", held, rule)
		return c
	}
	c.Passed = true
	c.Detail = "holds none of the excluded account types"
	return c
}

// CheckOfferEligibility derives the user's profile and evaluates offer.
func (c *Checker) CheckOfferEligibility(ctx context.Context, userID uuid.UUID, offer *domain.Offer) *EligibilityResult {
	return c.Evaluate(c.Profile(ctx, userID), offer)
}

// FilterEligibleOffers returns the eligible offers in input order. The
// profile is derived once for the whole list.
func (c *Checker) FilterEligibleOffers(ctx context.Context, userID uuid.UUID, offers []*domain.Offer) []EligibleOffer {
	return c.FilterForProfile(c.Profile(ctx, userID), offers)
}

// FilterForProfile is FilterEligibleOffers over an already derived profile.
func (c *Checker) FilterForProfile(p *Profile, offers []*domain.Offer) []EligibleOffer {
	out := make([]EligibleOffer, 0, len(offers))
	for _, o := range offers {
		if res := c.Evaluate(p, o); res.IsEligible {
			out = append(out, EligibleOffer{Offer: o, Eligibility: res})
		}
	}
	return out
}

// RequireEligibleOffer returns an *IneligibleError unless offer passes every check.
func (c *Checker) RequireEligibleOffer(ctx context.Context, userID uuid.UUID, offer *domain.Offer) (*EligibilityResult, error) {
	return c.RequireForProfile(c.Profile(ctx, userID), offer)
}

// RequireForProfile is RequireEligibleOffer over an already derived profile.
func (c *Checker) RequireForProfile(p *Profile, offer *domain.Offer) (*EligibilityResult, error) {
	res := c.Evaluate(p, offer)
	if !res.IsEligible {
		return res, &IneligibleError{OfferID: offer.ID, Result: res}
	}
	return res, nil
}

// AsIneligible unwraps an *IneligibleError from err.
func AsIneligible(err error) (*IneligibleError, bool) {
	var ie *IneligibleError
	ok := errors.As(err, &ie)
	return ie, ok
}
