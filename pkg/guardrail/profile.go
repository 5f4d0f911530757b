package guardrail

import (
	"context"
	"strings"

	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/google/uuid"
)

// Profile is the financial picture an offer is checked against.
// A nil pointer field means the attribute could not be derived.
type Profile struct {
	UserID               uuid.UUID `json:"user_id"`
	AnnualIncome         *float64  `json:"annual_income"`
	EstimatedCreditScore *int      `json:"estimated_credit_score"`
	MaxUtilization       *float64  `json:"max_utilization"`
	// AccountTypes holds the lower-cased type and subtype of every held account.
	AccountTypes []string `json:"account_types"`

	incomeErr   error
	creditErr   error
	accountsErr error
}

// AnnualIncomeFrom returns 12 times the average monthly payroll income of the
// long-term window, falling back to the short-term window.
func AnnualIncomeFrom(s *analysis.Summary[*analysis.IncomeResult]) (float64, bool) {
	if s == nil {
		return 0, false
	}
	for _, r := range []*analysis.IncomeResult{s.LongTerm, s.ShortTerm} {
		if r != nil && r.HasPayroll && r.AvgMonthlyIncome > 0 {
			return r.AvgMonthlyIncome * 12, true
		}
	}
	return 0, false
}

// ProfileFromSignals derives a Profile from already collected signals. Only
// the account list is read from the store.
func (c *Checker) ProfileFromSignals(ctx context.Context, signals *analysis.Signals) *Profile {
	p := &Profile{UserID: signals.UserID}
	c.applyIncome(p, signals.Income, signals.Err(analysis.FamilyIncome))
	c.applyCredit(p, signals.Credit, signals.Err(analysis.FamilyCredit))
	c.applyAccounts(ctx, p)
	return p
}

// Profile derives the user's profile by running the income and credit analyzers.
func (c *Checker) Profile(ctx context.Context, userID uuid.UUID) *Profile {
	p := &Profile{UserID: userID}
	income, err := c.income.AnalyzeForUser(ctx, userID)
	c.applyIncome(p, income, err)
	credit, err := c.credit.AnalyzeForUser(ctx, userID)
	c.applyCredit(p, credit, err)
	c.applyAccounts(ctx, p)
	return p
}

func (c *Checker) applyIncome(p *Profile, s *analysis.Summary[*analysis.IncomeResult], err error) {
	if err != nil {
		p.incomeErr = err
		c.logger.Warn("income unavailable for eligibility", "user_id", p.UserID, "error", err)
		return
	}
	if income, ok := AnnualIncomeFrom(s); ok {
		p.AnnualIncome = &income
	}
}

func (c *Checker) applyCredit(p *Profile, s *analysis.Summary[*analysis.CreditResult], err error) {
	if err == nil && s == nil {
		err = domain.ErrAnalyzerComputation
	}
	if err != nil {
		p.creditErr = err
		c.logger.Warn("credit unavailable for eligibility", "user_id", p.UserID, "error", err)
		return
	}
	if score, ok := EstimateCreditScore(s.LongTerm); ok {
		p.EstimatedCreditScore = &score
	}
	if s.LongTerm != nil {
		u := s.LongTerm.MaxUtilization
		p.MaxUtilization = &u
	}
}

func (c *Checker) applyAccounts(ctx context.Context, p *Profile) {
	accounts, err := c.accounts.ListAccountsForUser(ctx, p.UserID)
	if err != nil {
		p.accountsErr = err
		c.logger.Warn("accounts unavailable for eligibility", "user_id", p.UserID, "error", err)
		return
	}
	p.AccountTypes = make([]string, 0, 2*len(accounts))
	for _, a := range accounts {
		if t := strings.ToLower(string(a.Type)); t != "" {
			p.AccountTypes = append(p.AccountTypes, t)
		}
		if st := strings.ToLower(strings.TrimSpace(a.Subtype)); st != "" {
			p.AccountTypes = append(p.AccountTypes, st)
		}
	}
}

// heldExcludedType returns the first held account type that fuzzily matches
// one of excluded.
func (p *Profile) heldExcludedType(excluded []string) (held, rule string, ok bool) {
	for _, ex := range excluded {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex == "" {
			continue
		}
		for _, t := range p.AccountTypes {
			if strings.Contains(t, ex) || strings.Contains(ex, t) {
				return t, ex, true
			}
		}
	}
	return "", "", false
}
