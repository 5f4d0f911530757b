package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SavingsResult is the savings analyzer output for one window.
type SavingsResult struct {
	Window              domain.Window `json:"window"`
	SavingsAccountCount int           `json:"savings_account_count"`
	SavingsBalance      float64       `json:"savings_balance"`
	NetInflow           float64       `json:"net_inflow"`
	MonthlyNetInflow    float64       `json:"monthly_net_inflow"`
	EstimatedStart      float64       `json:"estimated_start_balance"`
	GrowthRate          float64       `json:"growth_rate"`
	AvgMonthlyExpenses  float64       `json:"avg_monthly_expenses"`
	EmergencyFundMonths Months        `json:"emergency_fund_months"`
	MeetsGrowthTarget   bool          `json:"meets_growth_target"`
	MeetsInflowTarget   bool          `json:"meets_inflow_target"`
	MeetsThreshold      bool          `json:"meets_threshold"`
}

func (r *SavingsResult) Family() Family        { return FamilySavings }
func (r *SavingsResult) Bounds() domain.Window { return r.Window }
func (r *SavingsResult) ThresholdMet() bool    { return r.MeetsThreshold }

// CalculateGrowthRate estimates the savings growth over windowDays from the
// current balance and the window's net inflow, annualized for windows shorter
// than a year.
func CalculateGrowthRate(current, netInflow float64, windowDays int) float64 {
	start := current - netInflow
	if start <= 0 {
		if current > 0 {
			return 1.0
		}
		return 0
	}
	growth := (current - start) / start
	if windowDays > 0 && windowDays < 365 {
		growth *= 365.0 / float64(windowDays)
	}
	return growth
}

// CalculateEmergencyFund returns the months of expenses the balance covers, 0 without expenses.
func CalculateEmergencyFund(balance, monthlyExpense float64) Months {
	if monthlyExpense <= 0 {
		return 0
	}
	return Months(round2(balance / monthlyExpense))
}

// SavingsAnalyzer measures net inflow and growth across savings-like accounts.
type SavingsAnalyzer struct {
	base
}

// NewSavingsAnalyzer creates a SavingsAnalyzer reading from store.
func NewSavingsAnalyzer(
	store repository.Reader,
	cfg *config.Analysis,
	logger *slog.Logger,
	opts ...Option,
) *SavingsAnalyzer {
	return &SavingsAnalyzer{base: newBase(store, cfg, logger, opts)}
}

// Analyze computes the savings result for the trailing windowDays.
func (a *SavingsAnalyzer) Analyze(ctx context.Context, userID uuid.UUID, windowDays int) (*SavingsResult, error) {
	w, err := a.window(windowDays)
	if err != nil {
		return nil, err
	}
	accounts, err := a.store.ListSavingsAccountsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings accounts for user %s: %w", userID, err)
	}

	balance := decimal.Zero
	net := decimal.Zero
	for _, acct := range accounts {
		balance = balance.Add(acct.CurrentBalance)
		txs, err := a.store.ListTransactions(ctx, repository.ForAccount(acct.ID, w.Filter()))
		if err != nil {
			return nil, fmt.Errorf("list transactions for account %s: %w", acct.ID, err)
		}
		for _, t := range txs {
			net = net.Add(t.Amount)
		}
	}

	spending, err := a.userTransactions(ctx, userID, w)
	if err != nil {
		return nil, err
	}

	current := balance.InexactFloat64()
	netInflow := net.InexactFloat64()
	result := &SavingsResult{
		Window:              w,
		SavingsAccountCount: len(accounts),
		SavingsBalance:      current,
		NetInflow:           netInflow,
		EstimatedStart:      current - netInflow,
		GrowthRate:          round4(CalculateGrowthRate(current, netInflow, windowDays)),
		AvgMonthlyExpenses:  round2(averageMonthlyExpense(spending, w)),
	}
	if months := w.Months(); months > 0 {
		result.MonthlyNetInflow = round2(netInflow / months)
	}
	result.EmergencyFundMonths = CalculateEmergencyFund(current, result.AvgMonthlyExpenses)
	result.MeetsGrowthTarget = result.GrowthRate >= a.cfg.MinSavingsGrowthRate
	result.MeetsInflowTarget = result.MonthlyNetInflow >= a.cfg.MinMonthlySavingsInflow
	result.MeetsThreshold = result.MeetsGrowthTarget || result.MeetsInflowTarget

	a.logger.Debug("savings analysis complete",
		"user_id", userID,
		"window_days", windowDays,
		"growth_rate", result.GrowthRate,
		"monthly_net_inflow", result.MonthlyNetInflow,
		"meets_threshold", result.MeetsThreshold,
	)
	return result, nil
}

// AnalyzeForUser runs Analyze over the short and long windows.
func (a *SavingsAnalyzer) AnalyzeForUser(ctx context.Context, userID uuid.UUID) (*Summary[*SavingsResult], error) {
	return summarize(ctx, a.cfg, func(ctx context.Context, days int) (*SavingsResult, error) {
		return a.Analyze(ctx, userID, days)
	})
}
