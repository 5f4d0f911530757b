// Package analysis extracts behavioral signals from a user's accounts and
// transactions over trailing windows.
//
// Every analyzer is read-only against its repository.Reader and returns a
// fresh result per call. Empty inputs produce zero-valued results with
// MeetsThreshold=false, never an error.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Family names a feature analyzer.
type Family string

const (
	FamilyCredit       Family = "credit"
	FamilyIncome       Family = "income"
	FamilySavings      Family = "savings"
	FamilySubscription Family = "subscription"
)

// Families lists every analyzer family in a stable order.
var Families = []Family{FamilyCredit, FamilyIncome, FamilySavings, FamilySubscription}

// ParseFamily accepts a family name, case-insensitively.
func ParseFamily(s string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FamilyCredit, FamilyIncome, FamilySavings, FamilySubscription:
		return f, nil
	case "subscriptions":
		return FamilySubscription, nil
	}
	return "", fmt.Errorf("%w: unknown analyzer family %q", domain.ErrValidation, s)
}

// Result is implemented by every per-window analyzer result.
type Result interface {
	Family() Family
	Bounds() domain.Window
	ThresholdMet() bool
}

// Summary pairs the short- and long-term results of one family.
// MeetsThreshold is true when either window met its threshold.
type Summary[R Result] struct {
	ShortTerm      R    `json:"short_term"`
	LongTerm       R    `json:"long_term"`
	MeetsThreshold bool `json:"meets_threshold"`
}

// Months is a duration in 30-day months. An unbounded value encodes as JSON null.
type Months float64

// Unbounded is the buffer reported when there is money but no spending.
var Unbounded = Months(math.Inf(1))

// IsUnbounded reports whether m is positive infinity.
func (m Months) IsUnbounded() bool { return math.IsInf(float64(m), 1) }

func (m Months) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(m), 0) || math.IsNaN(float64(m)) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(m), 'f', -1, 64)), nil
}

// Option customizes an analyzer.
type Option func(*base)

// WithClock overrides the time source used to anchor windows.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// base carries the dependencies shared by every analyzer.
type base struct {
	store  repository.Reader
	cfg    *config.Analysis
	now    func() time.Time
	logger *slog.Logger
}

func newBase(store repository.Reader, cfg *config.Analysis, logger *slog.Logger, opts []Option) base {
	if cfg == nil {
		cfg = config.DefaultAnalysis()
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := base{
		store:  store,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) window(days int) (domain.Window, error) {
	if days <= 0 {
		return domain.Window{}, fmt.Errorf("%w: window days must be positive, got %d", domain.ErrValidation, days)
	}
	return domain.NewWindow(b.now(), days), nil
}

func (b *base) today() time.Time {
	return domain.TruncateDay(b.now())
}

// summarize runs analyze over the configured short and long windows.
func summarize[R Result](
	ctx context.Context,
	cfg *config.Analysis,
	analyze func(context.Context, int) (R, error),
) (*Summary[R], error) {
	short, err := analyze(ctx, cfg.ShortWindowDays)
	if err != nil {
		return nil, err
	}
	long, err := analyze(ctx, cfg.LongWindowDays)
	if err != nil {
		return nil, err
	}
	return &Summary[R]{
		ShortTerm:      short,
		LongTerm:       long,
		MeetsThreshold: short.ThresholdMet() || long.ThresholdMet(),
	}, nil
}

// nonSpendCategories are primary categories that move money between the
// user's own accounts or service debt, and so are not expenses.
var nonSpendCategories = map[string]struct{}{
	"TRANSFER_IN":   {},
	"TRANSFER_OUT":  {},
	"LOAN_PAYMENTS": {},
}

// isSpend reports whether t is an outflow that counts as an expense.
func isSpend(t *domain.Transaction) bool {
	if !t.IsOutflow() {
		return false
	}
	_, skip := nonSpendCategories[strings.ToUpper(strings.TrimSpace(t.CategoryPrimary))]
	return !skip
}

// totalSpend sums the magnitude of every expense in txs.
func totalSpend(txs []*domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if isSpend(t) {
			total = total.Add(t.Amount.Abs())
		}
	}
	return total
}

// averageMonthlyExpense normalizes the window's spend to a 30-day month.
func averageMonthlyExpense(txs []*domain.Transaction, w domain.Window) float64 {
	months := w.Months()
	if months == 0 {
		return 0
	}
	return totalSpend(txs).InexactFloat64() / months
}

// userTransactions lists the user's settled transactions inside w.
func (b *base) userTransactions(ctx context.Context, userID uuid.UUID, w domain.Window) ([]*domain.Transaction, error) {
	txs, err := b.store.ListTransactions(ctx, repository.ForUser(userID, w.Filter()))
	if err != nil {
		return nil, fmt.Errorf("list transactions for user %s: %w", userID, err)
	}
	return txs, nil
}

func round4(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}
