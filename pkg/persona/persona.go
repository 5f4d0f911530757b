// Package persona maps analyzer signals to a single behavioral persona.
package persona

import (
	"fmt"
	"strings"

	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/config"
)

// ID identifies a persona.
type ID string

const (
	HighUtilization        ID = "high_utilization"
	VariableIncomeBudgeter ID = "variable_income_budgeter"
	SubscriptionHeavy      ID = "subscription_heavy"
	SavingsBuilder         ID = "savings_builder"
	NewUser                ID = "new_user"
)

// Persona is one behavioral profile in the catalog.
type Persona interface {
	ID() ID
	Name() string
	Description() string
	// Priority orders matching personas; higher wins.
	Priority() int
	// Requires lists the analyzer families Matches reads.
	Requires() []analysis.Family
	Matches(s *analysis.Signals) (bool, error)
	// Rationale explains a match in plain language. Only called after Matches returned true.
	Rationale(s *analysis.Signals) string
}

type descriptor struct {
	id          ID
	name        string
	description string
	priority    int
	requires    []analysis.Family
}

func (d descriptor) ID() ID                      { return d.id }
func (d descriptor) Name() string                { return d.name }
func (d descriptor) Description() string         { return d.description }
func (d descriptor) Priority() int               { return d.priority }
func (d descriptor) Requires() []analysis.Family { return append([]analysis.Family(nil), d.requires...) }

type highUtilization struct{ descriptor }

func newHighUtilization() *highUtilization {
	return &highUtilization{descriptor{
		id:          HighUtilization,
		name:        "High Utilization",
		description: "Carrying high card balances, interest charges, minimum-only payments or overdue bills.",
		priority:    5,
		requires:    []analysis.Family{analysis.FamilyCredit},
	}}
}

func (p *highUtilization) Matches(s *analysis.Signals) (bool, error) {
	return s.Credit.MeetsThreshold, nil
}

func (p *highUtilization) Rationale(s *analysis.Signals) string {
	r := s.Credit.LongTerm
	if !r.MeetsThreshold {
		r = s.Credit.ShortTerm
	}
	var parts []string
	for _, c := range r.FlaggedCards() {
		line := fmt.Sprintf("%s is at %.0f%% utilization ($%.2f of $%.2f limit)", c.Name, c.Utilization*100, c.Balance, c.CreditLimit)
		var flags []string
		if c.HasInterestCharges {
			flags = append(flags, fmt.Sprintf("$%.2f in interest charges", c.InterestCharged))
		}
		if c.MinimumPaymentOnly {
			flags = append(flags, "minimum payments only")
		}
		if c.IsOverdue {
			flags = append(flags, "a payment is overdue")
		}
		if len(flags) > 0 {
			line += " with " + strings.Join(flags, " and ")
		}
		parts = append(parts, line)
	}
	if len(parts) == 0 {
		return "Your credit usage signals elevated card utilization."
	}
	return strings.Join(parts, "; ") + "."
}

type variableIncomeBudgeter struct{ descriptor }

func newVariableIncomeBudgeter() *variableIncomeBudgeter {
	return &variableIncomeBudgeter{descriptor{
		id:          VariableIncomeBudgeter,
		name:        "Variable Income Budgeter",
		description: "Irregular pay with a thin cash-flow buffer.",
		priority:    4,
		requires:    []analysis.Family{analysis.FamilyIncome},
	}}
}

func (p *variableIncomeBudgeter) Matches(s *analysis.Signals) (bool, error) {
	return s.Income.MeetsThreshold, nil
}

func (p *variableIncomeBudgeter) Rationale(s *analysis.Signals) string {
	r := s.Income.LongTerm
	if !r.MeetsThreshold {
		r = s.Income.ShortTerm
	}
	return fmt.Sprintf(
		"Your income arrives about every %.0f days (%s) and your checking balance covers %.1f months of expenses.",
		r.MedianPayGapDays, r.Frequency, float64(r.CashFlowBufferMonths),
	)
}

type subscriptionHeavy struct{ descriptor }

func newSubscriptionHeavy() *subscriptionHeavy {
	return &subscriptionHeavy{descriptor{
		id:          SubscriptionHeavy,
		name:        "Subscription Heavy",
		description: "Several recurring merchants taking a meaningful share of spending.",
		priority:    3,
		requires:    []analysis.Family{analysis.FamilySubscription},
	}}
}

func (p *subscriptionHeavy) Matches(s *analysis.Signals) (bool, error) {
	return s.Subscriptions.MeetsThreshold, nil
}

func (p *subscriptionHeavy) Rationale(s *analysis.Signals) string {
	r := s.Subscriptions.ShortTerm
	if !r.MeetsThreshold {
		r = s.Subscriptions.LongTerm
	}
	names := make([]string, 0, len(r.Subscriptions))
	for _, sub := range r.Subscriptions {
		names = append(names, sub.Merchant)
	}
	return fmt.Sprintf(
		"You have %d recurring subscriptions (%s) costing about $%.2f per month, %.0f%% of your spending.",
		r.MerchantCount, strings.Join(names, ", "), r.MonthlyRecurringSpend, r.SubscriptionShare*100,
	)
}

type savingsBuilder struct {
	descriptor
	maxUtilization float64
}

func newSavingsBuilder(maxUtilization float64) *savingsBuilder {
	return &savingsBuilder{
		descriptor: descriptor{
			id:          SavingsBuilder,
			name:        "Savings Builder",
			description: "Growing savings while keeping card balances low.",
			priority:    2,
			requires:    []analysis.Family{analysis.FamilySavings, analysis.FamilyCredit},
		},
		maxUtilization: maxUtilization,
	}
}

func (p *savingsBuilder) Matches(s *analysis.Signals) (bool, error) {
	if !s.Savings.MeetsThreshold {
		return false, nil
	}
	for _, r := range []*analysis.CreditResult{s.Credit.ShortTerm, s.Credit.LongTerm} {
		if r == nil {
			return false, fmt.Errorf("credit result missing")
		}
		if r.AnyInterestCharges {
			return false, nil
		}
		for _, c := range r.Cards {
			if c.Utilization >= p.maxUtilization {
				return false, nil
			}
		}
	}
	return true, nil
}

func (p *savingsBuilder) Rationale(s *analysis.Signals) string {
	r := s.Savings.LongTerm
	if !r.MeetsThreshold {
		r = s.Savings.ShortTerm
	}
	return fmt.Sprintf(
		"You are adding about $%.2f per month to savings (%.1f%% annualized growth) while keeping card utilization under %.0f%%.",
		r.MonthlyNetInflow, r.GrowthRate*100, p.maxUtilization*100,
	)
}

type newUser struct{ descriptor }

func newNewUser() *newUser {
	return &newUser{descriptor{
		id:          NewUser,
		name:        "New User",
		description: "Not enough behavioral signal yet; general financial education applies.",
		priority:    0,
	}}
}

// Matches is never consulted by the resolver; new_user is the fallback.
func (p *newUser) Matches(*analysis.Signals) (bool, error) { return false, nil }

func (p *newUser) Rationale(*analysis.Signals) string {
	return "We don't have enough activity yet to identify a specific pattern."
}

// defaultPersonas returns the closed set of personas for cfg.
func defaultPersonas(cfg *config.Analysis) []Persona {
	return []Persona{
		newHighUtilization(),
		newVariableIncomeBudgeter(),
		newSubscriptionHeavy(),
		newSavingsBuilder(cfg.SavingsBuilderMaxUtilization),
	}
}
