package analysis

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cadence is the inferred billing period of a recurring merchant.
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceWeekly    Cadence = "weekly"
	CadenceIrregular Cadence = "irregular"
)

const (
	// cadenceMaxCV is the gap variation above which billing is irregular.
	cadenceMaxCV = 0.5
	// weeksPerMonth converts a weekly charge into a monthly estimate.
	weeksPerMonth = 4.33
)

// RecurringMerchant groups a merchant's charges inside the detection lookback.
type RecurringMerchant struct {
	Merchant     string                `json:"merchant"`
	Count        int                   `json:"count"`
	Transactions []*domain.Transaction `json:"-"`
}

// DetectRecurringMerchants groups spend transactions by trimmed merchant name
// and returns the merchants with at least minOccurrences charges, sorted by name.
// Transfers and loan payments are not spend, so a card payment or a standing
// savings transfer never counts as a subscription.
func DetectRecurringMerchants(txs []*domain.Transaction, minOccurrences int) []RecurringMerchant {
	groups := make(map[string][]*domain.Transaction)
	for _, t := range txs {
		if !isSpend(t) {
			continue
		}
		merchant := t.Merchant()
		if merchant == "" {
			continue
		}
		groups[merchant] = append(groups[merchant], t)
	}

	out := make([]RecurringMerchant, 0, len(groups))
	for merchant, charges := range groups {
		if len(charges) < minOccurrences {
			continue
		}
		sort.SliceStable(charges, func(i, j int) bool { return charges[i].Date.Before(charges[j].Date) })
		out = append(out, RecurringMerchant{Merchant: merchant, Count: len(charges), Transactions: charges})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Merchant < out[j].Merchant })
	return out
}

// CadenceResult describes the spacing of a merchant's charges.
type CadenceResult struct {
	Cadence                Cadence `json:"cadence"`
	AvgDaysBetween         float64 `json:"avg_days_between"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

// CalculateCadence classifies charge dates. Fewer than two dates is irregular.
func CalculateCadence(dates []time.Time) CadenceResult {
	gaps := dayGaps(dates)
	if len(gaps) == 0 {
		return CadenceResult{Cadence: CadenceIrregular}
	}
	avg := mean(gaps)
	cv := coefficientOfVariation(gaps)
	res := CadenceResult{AvgDaysBetween: round2(avg), CoefficientOfVariation: round2(cv)}
	switch {
	case cv > cadenceMaxCV:
		res.Cadence = CadenceIrregular
	case between(avg, 25, 35):
		res.Cadence = CadenceMonthly
	case between(avg, 5, 10):
		res.Cadence = CadenceWeekly
	default:
		res.Cadence = CadenceIrregular
	}
	return res
}

// CalculateMonthlyRecurringSpend estimates what a merchant costs per month.
// Monthly charges use the average amount, weekly charges the average times
// 4.33, and irregular charges the total spread over the observed day span.
func CalculateMonthlyRecurringSpend(cadence Cadence, charges []*domain.Transaction) float64 {
	if len(charges) == 0 {
		return 0
	}
	total := decimal.Zero
	first, last := charges[0].Date, charges[0].Date
	for _, t := range charges {
		total = total.Add(t.Amount.Abs())
		if t.Date.Before(first) {
			first = t.Date
		}
		if t.Date.After(last) {
			last = t.Date
		}
	}
	sum := total.InexactFloat64()
	avg := sum / float64(len(charges))

	switch cadence {
	case CadenceMonthly:
		return round2(avg)
	case CadenceWeekly:
		return round2(avg * weeksPerMonth)
	default:
		span := domain.DaysBetween(first, last)
		if span < 1 {
			return round2(sum)
		}
		return round2(sum / float64(span) * 30)
	}
}

// CalculateSubscriptionShare returns subscriptionSpend / totalSpend in [0, 1],
// or 0 when there is no spend.
func CalculateSubscriptionShare(subscriptionSpend, totalSpend float64) float64 {
	if totalSpend <= 0 || subscriptionSpend <= 0 {
		return 0
	}
	share := subscriptionSpend / totalSpend
	if share > 1 {
		return 1
	}
	return share
}

// Subscription is one recurring merchant seen inside the analysis window.
type Subscription struct {
	Merchant       string  `json:"merchant"`
	Count          int     `json:"count"`
	WindowCount    int     `json:"window_count"`
	Cadence        Cadence `json:"cadence"`
	AvgDaysBetween float64 `json:"avg_days_between"`
	MonthlySpend   float64 `json:"monthly_spend"`
	WindowSpend    float64 `json:"window_spend"`
}

// SubscriptionResult is the subscription detector output for one window.
type SubscriptionResult struct {
	Window                domain.Window  `json:"window"`
	LookbackDays          int            `json:"lookback_days"`
	Subscriptions         []Subscription `json:"subscriptions"`
	MerchantCount         int            `json:"merchant_count"`
	MonthlyRecurringSpend float64        `json:"monthly_recurring_spend"`
	SubscriptionSpend     float64        `json:"subscription_spend"`
	TotalSpend            float64        `json:"total_spend"`
	SubscriptionShare     float64        `json:"subscription_share"`
	MeetsThreshold        bool           `json:"meets_threshold"`
}

func (r *SubscriptionResult) Family() Family        { return FamilySubscription }
func (r *SubscriptionResult) Bounds() domain.Window { return r.Window }
func (r *SubscriptionResult) ThresholdMet() bool    { return r.MeetsThreshold }

// SubscriptionDetector finds recurring merchants and their share of spend.
type SubscriptionDetector struct {
	base
}

// NewSubscriptionDetector creates a SubscriptionDetector reading from store.
func NewSubscriptionDetector(
	store repository.Reader,
	cfg *config.Analysis,
	logger *slog.Logger,
	opts ...Option,
) *SubscriptionDetector {
	return &SubscriptionDetector{base: newBase(store, cfg, logger, opts)}
}

// Analyze computes the subscription result for the trailing windowDays.
// Recurrence is detected over the configured lookback; cadence and spend are
// measured on the charges inside the analysis window.
func (d *SubscriptionDetector) Analyze(ctx context.Context, userID uuid.UUID, windowDays int) (*SubscriptionResult, error) {
	w, err := d.window(windowDays)
	if err != nil {
		return nil, err
	}
	lookback := domain.NewWindow(d.now(), d.cfg.SubscriptionLookbackDays)
	recent, err := d.userTransactions(ctx, userID, lookback)
	if err != nil {
		return nil, err
	}
	inWindow := recent
	if !lookback.Start.Equal(w.Start) {
		if inWindow, err = d.userTransactions(ctx, userID, w); err != nil {
			return nil, err
		}
	}

	byMerchant := make(map[string][]*domain.Transaction)
	for _, t := range inWindow {
		if isSpend(t) && t.Merchant() != "" {
			byMerchant[t.Merchant()] = append(byMerchant[t.Merchant()], t)
		}
	}

	result := &SubscriptionResult{
		Window:        w,
		LookbackDays:  d.cfg.SubscriptionLookbackDays,
		Subscriptions: []Subscription{},
		TotalSpend:    totalSpend(inWindow).InexactFloat64(),
	}
	subscriptionSpend := decimal.Zero
	for _, rm := range DetectRecurringMerchants(recent, d.cfg.MinRecurringOccurrences) {
		charges := byMerchant[rm.Merchant]
		if len(charges) == 0 {
			continue
		}
		// A single in-window charge has no gap, so cadence falls back to the lookback history.
		sample := charges
		if len(sample) < 2 {
			sample = rm.Transactions
		}
		cadence := CalculateCadence(transactionDates(sample))
		windowSpend := totalSpend(charges)
		subscriptionSpend = subscriptionSpend.Add(windowSpend)

		sub := Subscription{
			Merchant:       rm.Merchant,
			Count:          rm.Count,
			WindowCount:    len(charges),
			Cadence:        cadence.Cadence,
			AvgDaysBetween: cadence.AvgDaysBetween,
			MonthlySpend:   CalculateMonthlyRecurringSpend(cadence.Cadence, sample),
			WindowSpend:    windowSpend.InexactFloat64(),
		}
		result.Subscriptions = append(result.Subscriptions, sub)
		result.MonthlyRecurringSpend += sub.MonthlySpend
	}

	result.MerchantCount = len(result.Subscriptions)
	result.MonthlyRecurringSpend = round2(result.MonthlyRecurringSpend)
	result.SubscriptionSpend = subscriptionSpend.InexactFloat64()
	result.SubscriptionShare = round4(CalculateSubscriptionShare(result.SubscriptionSpend, result.TotalSpend))
	result.MeetsThreshold = result.MerchantCount >= d.cfg.MinRecurringMerchants &&
		(result.MonthlyRecurringSpend >= d.cfg.MinMonthlyRecurringSpend ||
			result.SubscriptionShare >= d.cfg.MinSubscriptionShare)

	d.logger.Debug("subscription analysis complete",
		"user_id", userID,
		"window_days", windowDays,
		"merchants", result.MerchantCount,
		"monthly_recurring_spend", result.MonthlyRecurringSpend,
		"meets_threshold", result.MeetsThreshold,
	)
	return result, nil
}

// AnalyzeForUser runs Analyze over the short and long windows.
func (d *SubscriptionDetector) AnalyzeForUser(ctx context.Context, userID uuid.UUID) (*Summary[*SubscriptionResult], error) {
	return summarize(ctx, d.cfg, func(ctx context.Context, days int) (*SubscriptionResult, error) {
		return d.Analyze(ctx, userID, days)
	})
}

func transactionDates(txs []*domain.Transaction) []time.Time {
	dates := make([]time.Time, len(txs))
	for i, t := range txs {
		dates[i] = t.Date
	}
	return dates
}
