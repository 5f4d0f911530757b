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

// UtilizationBand buckets a card's utilization.
type UtilizationBand string

const (
	BandExcellent UtilizationBand = "excellent"
	BandLow       UtilizationBand = "low"
	BandMedium    UtilizationBand = "medium"
	BandHigh      UtilizationBand = "high"
)

const (
	highUtilization   = 0.80
	mediumUtilization = 0.50
	lowUtilization    = 0.30

	// minimumPaymentTolerance is the relative distance from the minimum
	// payment still treated as paying only the minimum.
	minimumPaymentTolerance = 0.05
)

var interestKeywords = []string{"interest", "finance charge", "apr", "annual percentage"}

// BandFor maps a utilization ratio to its band.
func BandFor(utilization float64) UtilizationBand {
	switch {
	case utilization >= highUtilization:
		return BandHigh
	case utilization >= mediumUtilization:
		return BandMedium
	case utilization >= lowUtilization:
		return BandLow
	default:
		return BandExcellent
	}
}

// AtLeast reports whether b is the same as or worse than other.
func (b UtilizationBand) AtLeast(other UtilizationBand) bool {
	return b.rank() >= other.rank()
}

func (b UtilizationBand) rank() int {
	switch b {
	case BandHigh:
		return 3
	case BandMedium:
		return 2
	case BandLow:
		return 1
	default:
		return 0
	}
}

// CalculateUtilization returns |balance| / limit, or 0 when the limit is not positive.
func CalculateUtilization(balance, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	return balance.Abs().Div(limit).InexactFloat64()
}

// IsMinimumPaymentOnly reports whether the last payment was within 5% of the minimum.
func IsMinimumPaymentOnly(lastPayment, minimumPayment decimal.Decimal) bool {
	if !lastPayment.IsPositive() || !minimumPayment.IsPositive() {
		return false
	}
	tolerance := minimumPayment.Mul(decimal.NewFromFloat(minimumPaymentTolerance))
	return lastPayment.Sub(minimumPayment).Abs().LessThanOrEqual(tolerance)
}

// IsOverdue reports whether the liability is flagged overdue or its due date has passed.
func IsOverdue(l *domain.Liability, today time.Time) bool {
	if l == nil {
		return false
	}
	if l.IsOverdue {
		return true
	}
	return l.NextPaymentDueDate != nil && domain.TruncateDay(*l.NextPaymentDueDate).Before(domain.TruncateDay(today))
}

// IsInterestCharge reports whether t is an outflow describing interest.
func IsInterestCharge(t *domain.Transaction) bool {
	if !t.IsOutflow() {
		return false
	}
	text := t.SearchText()
	for _, kw := range interestKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// CardUtilization is the per-card credit picture.
type CardUtilization struct {
	AccountID          uuid.UUID       `json:"account_id"`
	Name               string          `json:"name"`
	Balance            float64         `json:"balance"`
	CreditLimit        float64         `json:"credit_limit"`
	Utilization        float64         `json:"utilization"`
	Band               UtilizationBand `json:"band"`
	IsHighUtilization  bool            `json:"is_high_utilization"`
	APR                *float64        `json:"apr,omitempty"`
	MinimumPaymentOnly bool            `json:"minimum_payment_only"`
	IsOverdue          bool            `json:"is_overdue"`
	HasInterestCharges bool            `json:"has_interest_charges"`
	InterestCharged    float64         `json:"interest_charged"`
}

// flagged reports whether this card alone satisfies the credit threshold.
func (c *CardUtilization) flagged() bool {
	return c.Band.AtLeast(BandMedium) || c.HasInterestCharges || c.MinimumPaymentOnly || c.IsOverdue
}

// CreditResult is the credit analyzer output for one window.
type CreditResult struct {
	Window                domain.Window     `json:"window"`
	Cards                 []CardUtilization `json:"cards"`
	CardCount             int               `json:"card_count"`
	MaxUtilization        float64           `json:"max_utilization"`
	MaxBand               UtilizationBand   `json:"max_band"`
	AnyHighUtilization    bool              `json:"any_high_utilization"`
	AnyInterestCharges    bool              `json:"any_interest_charges"`
	AnyMinimumPaymentOnly bool              `json:"any_minimum_payment_only"`
	AnyOverdue            bool              `json:"any_overdue"`
	TotalInterestCharged  float64           `json:"total_interest_charged"`
	MeetsThreshold        bool              `json:"meets_threshold"`
}

func (r *CreditResult) Family() Family        { return FamilyCredit }
func (r *CreditResult) Bounds() domain.Window { return r.Window }
func (r *CreditResult) ThresholdMet() bool    { return r.MeetsThreshold }

// FlaggedCards returns the cards that triggered the threshold.
func (r *CreditResult) FlaggedCards() []CardUtilization {
	var out []CardUtilization
	for i := range r.Cards {
		if r.Cards[i].flagged() {
			out = append(out, r.Cards[i])
		}
	}
	return out
}

// CreditAnalyzer computes utilization and repayment behavior per credit card.
type CreditAnalyzer struct {
	base
}

// NewCreditAnalyzer creates a CreditAnalyzer reading from store.
func NewCreditAnalyzer(
	store repository.Reader,
	cfg *config.Analysis,
	logger *slog.Logger,
	opts ...Option,
) *CreditAnalyzer {
	return &CreditAnalyzer{base: newBase(store, cfg, logger, opts)}
}

// Analyze computes the credit result for the trailing windowDays.
func (a *CreditAnalyzer) Analyze(ctx context.Context, userID uuid.UUID, windowDays int) (*CreditResult, error) {
	w, err := a.window(windowDays)
	if err != nil {
		return nil, err
	}
	accounts, err := a.store.ListCreditAccountsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credit accounts for user %s: %w", userID, err)
	}

	result := &CreditResult{Window: w, Cards: make([]CardUtilization, 0, len(accounts)), MaxBand: BandExcellent}
	for _, acct := range accounts {
		card, err := a.analyzeCard(ctx, acct, w)
		if err != nil {
			return nil, err
		}
		result.Cards = append(result.Cards, card)
		if card.Utilization > result.MaxUtilization {
			result.MaxUtilization = card.Utilization
		}
		result.AnyHighUtilization = result.AnyHighUtilization || card.IsHighUtilization
		result.AnyInterestCharges = result.AnyInterestCharges || card.HasInterestCharges
		result.AnyMinimumPaymentOnly = result.AnyMinimumPaymentOnly || card.MinimumPaymentOnly
		result.AnyOverdue = result.AnyOverdue || card.IsOverdue
		result.TotalInterestCharged += card.InterestCharged
		result.MeetsThreshold = result.MeetsThreshold || card.flagged()
	}
	result.CardCount = len(result.Cards)
	result.MaxBand = BandFor(result.MaxUtilization)
	result.TotalInterestCharged = round2(result.TotalInterestCharged)

	a.logger.Debug("credit analysis complete",
		"user_id", userID,
		"window_days", windowDays,
		"cards", result.CardCount,
		"max_utilization", result.MaxUtilization,
		"meets_threshold", result.MeetsThreshold,
	)
	return result, nil
}

// AnalyzeForUser runs Analyze over the short and long windows.
func (a *CreditAnalyzer) AnalyzeForUser(ctx context.Context, userID uuid.UUID) (*Summary[*CreditResult], error) {
	return summarize(ctx, a.cfg, func(ctx context.Context, days int) (*CreditResult, error) {
		return a.Analyze(ctx, userID, days)
	})
}

func (a *CreditAnalyzer) analyzeCard(ctx context.Context, acct *domain.Account, w domain.Window) (CardUtilization, error) {
	card := CardUtilization{
		AccountID: acct.ID,
		Name:      acct.DisplayName(),
		Balance:   acct.CurrentBalance.Abs().InexactFloat64(),
	}
	limit := decimal.Zero
	if acct.CreditLimit != nil {
		limit = *acct.CreditLimit
		card.CreditLimit = limit.InexactFloat64()
	}
	card.Utilization = CalculateUtilization(acct.CurrentBalance, limit)
	card.Band = BandFor(card.Utilization)
	card.IsHighUtilization = card.Band == BandHigh

	liability, err := a.store.GetLiability(ctx, acct.ID)
	if err != nil {
		return CardUtilization{}, fmt.Errorf("get liability for account %s: %w", acct.ID, err)
	}
	if liability != nil {
		if liability.APRPercentage != nil {
			apr := liability.APRPercentage.InexactFloat64()
			card.APR = &apr
		}
		if liability.LastPaymentAmount != nil && liability.MinimumPaymentAmount != nil {
			card.MinimumPaymentOnly = IsMinimumPaymentOnly(*liability.LastPaymentAmount, *liability.MinimumPaymentAmount)
		}
		card.IsOverdue = IsOverdue(liability, a.today())
	}

	txs, err := a.store.ListTransactions(ctx, repository.ForAccount(acct.ID, w.Filter()))
	if err != nil {
		return CardUtilization{}, fmt.Errorf("list transactions for account %s: %w", acct.ID, err)
	}
	interest := decimal.Zero
	for _, t := range txs {
		if IsInterestCharge(t) {
			card.HasInterestCharges = true
			interest = interest.Add(t.Amount.Abs())
		}
	}
	card.InterestCharged = interest.InexactFloat64()
	return card, nil
}
