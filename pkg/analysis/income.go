package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayFrequency is the inferred cadence of payroll deposits.
type PayFrequency string

const (
	FrequencyMonthly   PayFrequency = "monthly"
	FrequencyBiWeekly  PayFrequency = "bi-weekly"
	FrequencyWeekly    PayFrequency = "weekly"
	FrequencyIrregular PayFrequency = "irregular"
	FrequencyUnknown   PayFrequency = "unknown"
)

// payGapMaxCV is the gap variation above which pay is irregular regardless of the median.
const payGapMaxCV = 0.4

var (
	payrollKeywords = []string{
		"payroll", "salary", "direct deposit", "direct dep", "paycheck", "wages", "adp", "gusto",
	}
	payrollChannels = map[string]struct{}{"ach": {}, "direct_deposit": {}}
	incomeCategory  = []string{"INCOME", "WAGES", "PAYROLL"}
)

// IsPayroll reports whether t looks like a payroll deposit.
func IsPayroll(t *domain.Transaction) bool {
	if !t.IsInflow() {
		return false
	}
	if _, ok := payrollChannels[strings.ToLower(strings.TrimSpace(t.PaymentChannel))]; ok {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(t.CategoryPrimary), "INCOME") {
		return true
	}
	detailed := strings.ToUpper(t.CategoryDetailed)
	for _, c := range incomeCategory {
		if strings.Contains(detailed, c) {
			return true
		}
	}
	text := t.SearchText()
	for _, kw := range payrollKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// PaymentFrequency describes the spacing of payroll deposits.
type PaymentFrequency struct {
	Frequency              PayFrequency `json:"frequency"`
	MedianPayGapDays       float64      `json:"median_pay_gap_days"`
	MeanPayGapDays         float64      `json:"mean_pay_gap_days"`
	CoefficientOfVariation float64      `json:"coefficient_of_variation"`
	PaymentCount           int          `json:"payment_count"`
}

// CalculatePaymentFrequency classifies payroll dates. A frequency needs at
// least two payroll transactions on distinct days: deposits landing on the
// same day count as one payment, so a split paycheck on a single day yields
// FrequencyUnknown rather than a zero-day gap.
func CalculatePaymentFrequency(dates []time.Time) PaymentFrequency {
	days := uniqueDays(dates)
	pf := PaymentFrequency{Frequency: FrequencyUnknown, PaymentCount: len(days)}
	if len(days) < 2 {
		return pf
	}
	gaps := dayGaps(days)
	pf.MedianPayGapDays = median(gaps)
	pf.MeanPayGapDays = round2(mean(gaps))
	pf.CoefficientOfVariation = round2(coefficientOfVariation(gaps))

	switch {
	case coefficientOfVariation(gaps) > payGapMaxCV:
		pf.Frequency = FrequencyIrregular
	case between(pf.MedianPayGapDays, 25, 35):
		pf.Frequency = FrequencyMonthly
	case between(pf.MedianPayGapDays, 12, 16):
		pf.Frequency = FrequencyBiWeekly
	case between(pf.MedianPayGapDays, 5, 9):
		pf.Frequency = FrequencyWeekly
	default:
		pf.Frequency = FrequencyIrregular
	}
	return pf
}

func uniqueDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range sortedDays(dates) {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// CalculateCashFlowBuffer returns how many months balance covers at monthlyExpense.
func CalculateCashFlowBuffer(balance, monthlyExpense float64) Months {
	if balance <= 0 {
		return 0
	}
	if monthlyExpense <= 0 {
		return Unbounded
	}
	return Months(round2(balance / monthlyExpense))
}

// IncomeResult is the income analyzer output for one window.
type IncomeResult struct {
	PaymentFrequency

	Window               domain.Window `json:"window"`
	PayrollTotal         float64       `json:"payroll_total"`
	AvgMonthlyIncome     float64       `json:"avg_monthly_income"`
	DepositoryBalance    float64       `json:"depository_balance"`
	AvgMonthlyExpenses   float64       `json:"avg_monthly_expenses"`
	CashFlowBufferMonths Months        `json:"cash_flow_buffer_months"`
	HasPayroll           bool          `json:"has_payroll"`
	VariableIncomeSignal bool          `json:"variable_income_signal"`
	LowCashFlowBuffer    bool          `json:"low_cash_flow_buffer"`
	MeetsThreshold       bool          `json:"meets_threshold"`
}

func (r *IncomeResult) Family() Family        { return FamilyIncome }
func (r *IncomeResult) Bounds() domain.Window { return r.Window }
func (r *IncomeResult) ThresholdMet() bool    { return r.MeetsThreshold }

// IncomeAnalyzer detects payroll cadence and the cash-flow buffer.
type IncomeAnalyzer struct {
	base
}

// NewIncomeAnalyzer creates an IncomeAnalyzer reading from store.
func NewIncomeAnalyzer(
	store repository.Reader,
	cfg *config.Analysis,
	logger *slog.Logger,
	opts ...Option,
) *IncomeAnalyzer {
	return &IncomeAnalyzer{base: newBase(store, cfg, logger, opts)}
}

// Analyze computes the income result for the trailing windowDays.
func (a *IncomeAnalyzer) Analyze(ctx context.Context, userID uuid.UUID, windowDays int) (*IncomeResult, error) {
	w, err := a.window(windowDays)
	if err != nil {
		return nil, err
	}
	txs, err := a.userTransactions(ctx, userID, w)
	if err != nil {
		return nil, err
	}
	accounts, err := a.store.ListAccountsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts for user %s: %w", userID, err)
	}

	var payDates []time.Time
	payroll := decimal.Zero
	for _, t := range txs {
		if IsPayroll(t) {
			payDates = append(payDates, t.Date)
			payroll = payroll.Add(t.Amount)
		}
	}
	balance := decimal.Zero
	for _, acct := range accounts {
		if acct.IsDepository() {
			balance = balance.Add(acct.SpendableBalance())
		}
	}

	result := &IncomeResult{
		Window:             w,
		PaymentFrequency:   CalculatePaymentFrequency(payDates),
		PayrollTotal:       payroll.InexactFloat64(),
		DepositoryBalance:  balance.InexactFloat64(),
		AvgMonthlyExpenses: round2(averageMonthlyExpense(txs, w)),
		HasPayroll:         len(payDates) > 0,
	}
	if months := w.Months(); months > 0 {
		result.AvgMonthlyIncome = round2(result.PayrollTotal / months)
	}
	result.CashFlowBufferMonths = CalculateCashFlowBuffer(result.DepositoryBalance, result.AvgMonthlyExpenses)
	result.VariableIncomeSignal = result.MedianPayGapDays > a.cfg.MaxMedianPayGapDays
	result.LowCashFlowBuffer = float64(result.CashFlowBufferMonths) < a.cfg.MinCashFlowBufferMonths
	result.MeetsThreshold = result.VariableIncomeSignal && result.LowCashFlowBuffer

	a.logger.Debug("income analysis complete",
		"user_id", userID,
		"window_days", windowDays,
		"frequency", result.Frequency,
		"median_pay_gap_days", result.MedianPayGapDays,
		"meets_threshold", result.MeetsThreshold,
	)
	return result, nil
}

// AnalyzeForUser runs Analyze over the short and long windows.
func (a *IncomeAnalyzer) AnalyzeForUser(ctx context.Context, userID uuid.UUID) (*Summary[*IncomeResult], error) {
	return summarize(ctx, a.cfg, func(ctx context.Context, days int) (*IncomeResult, error) {
		return a.Analyze(ctx, userID, days)
	})
}
