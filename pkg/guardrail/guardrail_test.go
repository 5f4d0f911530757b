package guardrail_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/spendsense/infra/repository/memory"
	"github.com/amirasaad/spendsense/internal/fixtures/mocks"
	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/guardrail"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f64(v float64) *float64 { return &v }
func score(v int) *int       { return &v }

type creditStub struct {
	summary *analysis.Summary[*analysis.CreditResult]
	err     error
	calls   int
}

func (s *creditStub) AnalyzeForUser(context.Context, uuid.UUID) (*analysis.Summary[*analysis.CreditResult], error) {
	s.calls++
	return s.summary, s.err
}

type incomeStub struct {
	summary *analysis.Summary[*analysis.IncomeResult]
	err     error
	calls   int
}

func (s *incomeStub) AnalyzeForUser(context.Context, uuid.UUID) (*analysis.Summary[*analysis.IncomeResult], error) {
	s.calls++
	return s.summary, s.err
}

func creditSummary(r *analysis.CreditResult) *analysis.Summary[*analysis.CreditResult] {
	return &analysis.Summary[*analysis.CreditResult]{ShortTerm: r, LongTerm: r}
}

func incomeSummary(monthly float64) *analysis.Summary[*analysis.IncomeResult] {
	r := &analysis.IncomeResult{AvgMonthlyIncome: monthly, HasPayroll: monthly > 0}
	return &analysis.Summary[*analysis.IncomeResult]{ShortTerm: r, LongTerm: r}
}

// harness is a user holding a checking account and a credit card.
type harness struct {
	store   *memory.Store
	userID  uuid.UUID
	credit  *creditStub
	income  *incomeStub
	checker *guardrail.Checker
}

func newHarness(t *testing.T, cfg *config.Guardrail) *harness {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	user := &domain.User{Email: "eligible@example.com"}
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.CreateAccount(ctx, &domain.Account{UserID: user.ID, Type: domain.AccountTypeDepository, Subtype: "checking"}))
	require.NoError(t, store.CreateAccount(ctx, &domain.Account{UserID: user.ID, Type: domain.AccountTypeCredit, Subtype: "credit card"}))

	h := &harness{
		store:  store,
		userID: user.ID,
		credit: &creditStub{summary: creditSummary(&analysis.CreditResult{CardCount: 1, MaxUtilization: 0.2})},
		income: &incomeStub{summary: incomeSummary(5000)},
	}
	h.checker = guardrail.NewChecker(store, h.credit, h.income, cfg, discardLogger())
	return h
}

func TestCheckOfferEligibility_ProhibitedShortCircuits(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	offer := &domain.Offer{
		ID:          "quick-cash",
		Title:       "Quick Cash",
		Description: "A PAYDAY loan for emergencies",
		Eligibility: domain.Requirements{MinIncome: f64(1_000_000)},
	}

	res := h.checker.CheckOfferEligibility(context.Background(), h.userID, offer)
	assert.False(t, res.IsEligible)
	assert.True(t, res.Prohibited)
	require.Len(t, res.Checks, 1)
	assert.Equal(t, guardrail.CheckProhibited, res.Checks[0].Name)
	assert.Equal(t, []string{`offer matches prohibited product term "payday"`}, res.Disqualifiers)
	assert.Empty(t, res.Reasons)

	_, err := h.checker.RequireEligibleOffer(context.Background(), h.userID, offer)
	assert.ErrorIs(t, err, domain.ErrOfferIneligible)
	assert.ErrorIs(t, err, domain.ErrProhibitedProduct)
}

func TestCheckOfferEligibility_ExtraProhibitedTerms(t *testing.T) {
	t.Parallel()
	h := newHarness(t, &config.Guardrail{ExtraProhibitedTerms: []string{"  Lottery "}})

	res := h.checker.CheckOfferEligibility(context.Background(), h.userID, &domain.Offer{ID: "l", Title: "Win big", Category: "lottery"})
	assert.True(t, res.Prohibited)
	assert.Contains(t, h.checker.Prohibited().Terms(), "lottery")
}

func TestCheckOfferEligibility_AllChecksPass(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	offer := &domain.Offer{
		ID:    "rewards-card",
		Title: "Rewards Card",
		Eligibility: domain.Requirements{
			MinIncome:            f64(50_000),
			MinCreditScore:       score(700),
			MaxUtilization:       f64(0.3),
			ExcludedAccountTypes: []string{"brokerage"},
		},
	}

	res := h.checker.CheckOfferEligibility(context.Background(), h.userID, offer)
	assert.True(t, res.IsEligible)
	assert.Empty(t, res.Disqualifiers)
	assert.Equal(t, []string{
		"offer is not a prohibited product",
		"estimated annual income $60000.00 meets the $50000.00 minimum",
		"estimated credit score 750 meets the 700 minimum",
		"card utilization 20% is within the 30% maximum",
		"holds none of the excluded account types",
	}, res.Reasons)
	assert.Len(t, res.Checks, 5)
}

func TestCheckOfferEligibility_ReportsEveryFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.credit.summary = creditSummary(&analysis.CreditResult{CardCount: 1, MaxUtilization: 0.85, AnyInterestCharges: true})
	offer := &domain.Offer{
		ID:    "premium",
		Title: "Premium Card",
		Eligibility: domain.Requirements{
			MinIncome:            f64(100_000),
			MinCreditScore:       score(700),
			MaxUtilization:       f64(0.5),
			ExcludedAccountTypes: []string{"Secured Credit Card Account"},
		},
	}

	res := h.checker.CheckOfferEligibility(context.Background(), h.userID, offer)
	assert.False(t, res.IsEligible)
	assert.False(t, res.Prohibited)
	require.Len(t, res.Disqualifiers, 4)
	assert.Equal(t, "estimated annual income $60000.00 is below the $100000.00 minimum", res.Disqualifiers[0])
	assert.Equal(t, "estimated credit score 580 is below the 700 minimum", res.Disqualifiers[1])
	assert.Equal(t, "card utilization 85% exceeds the 50% maximum", res.Disqualifiers[2])
	assert.Contains(t, res.Disqualifiers[3], "offer excludes secured credit card account")

	_, err := h.checker.RequireEligibleOffer(context.Background(), h.userID, offer)
	ie, ok := guardrail.AsIneligible(err)
	require.True(t, ok)
	assert.Equal(t, "premium", ie.OfferID)
	assert.NotErrorIs(t, err, domain.ErrProhibitedProduct)
}

func TestCheckOfferEligibility_UtilizationIsSoftOnAnalyzerError(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.credit.summary = nil
	h.credit.err = &domain.AnalyzerError{Family: "credit", Err: errors.New("timeout")}

	res := h.checker.CheckOfferEligibility(context.Background(), h.userID, &domain.Offer{
		ID:          "low-util",
		Title:       "Balance Builder",
		Eligibility: domain.Requirements{MaxUtilization: f64(0.3)},
	})
	assert.True(t, res.IsEligible)
	assert.Contains(t, res.Reasons, "utilization could not be verified")

	res = h.checker.CheckOfferEligibility(context.Background(), h.userID, &domain.Offer{
		ID:          "score",
		Title:       "Score Card",
		Eligibility: domain.Requirements{MinCreditScore: score(600)},
	})
	assert.False(t, res.IsEligible)
	assert.Equal(t, []string{"unable to determine credit score (minimum 600 required)"}, res.Disqualifiers)
}

func TestCheckOfferEligibility_AccountListFailure(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	reader := new(mocks.Reader)
	reader.On("ListAccountsForUser", mock.Anything, userID).Return(nil, errors.New("connection refused"))
	checker := guardrail.NewChecker(reader, &creditStub{summary: creditSummary(&analysis.CreditResult{})}, &incomeStub{summary: incomeSummary(0)}, nil, discardLogger())

	res := checker.CheckOfferEligibility(context.Background(), userID, &domain.Offer{
		ID:          "savings",
		Title:       "High Yield Savings",
		Eligibility: domain.Requirements{ExcludedAccountTypes: []string{"savings"}},
	})
	assert.False(t, res.IsEligible)
	assert.Equal(t, []string{"unable to verify existing accounts"}, res.Disqualifiers)
	reader.AssertExpectations(t)
}

func TestFilterEligibleOffers(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	offers := []*domain.Offer{
		{ID: "a", Title: "Budgeting App"},
		{ID: "b", Title: "Title Loan Express"},
		{ID: "c", Title: "Checking Bonus", Eligibility: domain.Requirements{ExcludedAccountTypes: []string{"checking"}}},
		{ID: "d", Title: "Savings Account", Eligibility: domain.Requirements{MinIncome: f64(20_000)}},
	}

	eligible := h.checker.FilterEligibleOffers(context.Background(), h.userID, offers)
	require.Len(t, eligible, 2)
	assert.Equal(t, "a", eligible[0].Offer.ID)
	assert.Equal(t, "d", eligible[1].Offer.ID)
	assert.True(t, eligible[1].Eligibility.IsEligible)
	assert.Equal(t, 1, h.credit.calls)
	assert.Equal(t, 1, h.income.calls)
}

func TestAnnualIncomeFrom(t *testing.T) {
	t.Parallel()
	short := &analysis.IncomeResult{AvgMonthlyIncome: 3000, HasPayroll: true}
	long := &analysis.IncomeResult{}

	income, ok := guardrail.AnnualIncomeFrom(&analysis.Summary[*analysis.IncomeResult]{ShortTerm: short, LongTerm: long})
	require.True(t, ok)
	assert.InDelta(t, 36000, income, 1e-9)

	long = &analysis.IncomeResult{AvgMonthlyIncome: 2500, HasPayroll: true}
	income, ok = guardrail.AnnualIncomeFrom(&analysis.Summary[*analysis.IncomeResult]{ShortTerm: short, LongTerm: long})
	require.True(t, ok)
	assert.InDelta(t, 30000, income, 1e-9)

	_, ok = guardrail.AnnualIncomeFrom(&analysis.Summary[*analysis.IncomeResult]{ShortTerm: &analysis.IncomeResult{}, LongTerm: &analysis.IncomeResult{}})
	assert.False(t, ok)
	_, ok = guardrail.AnnualIncomeFrom(nil)
	assert.False(t, ok)
}

// A user with spending but no payroll deposits cannot be checked against an
// income minimum.
func TestCheckOfferEligibility_UndeterminableIncome(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, time.June, 30, 9, 0, 0, 0, time.UTC)
	store := memory.New()
	user := &domain.User{Email: "nopay@example.com"}
	require.NoError(t, store.CreateUser(ctx, user))
	checking := &domain.Account{UserID: user.ID, Type: domain.AccountTypeDepository, Subtype: "checking", CurrentBalance: decimal.NewFromInt(800)}
	require.NoError(t, store.CreateAccount(ctx, checking))
	limit := decimal.NewFromInt(5000)
	card := &domain.Account{UserID: user.ID, Type: domain.AccountTypeCredit, Subtype: "credit card", CurrentBalance: decimal.NewFromInt(500), CreditLimit: &limit}
	require.NoError(t, store.CreateAccount(ctx, card))
	grocer := "Corner Grocer"
	for _, ago := range []int{3, 17, 40, 95} {
		require.NoError(t, store.CreateTransactions(ctx, &domain.Transaction{
			AccountID:       checking.ID,
			Date:            domain.TruncateDay(now).AddDate(0, 0, -ago),
			Amount:          decimal.NewFromInt(-120),
			MerchantName:    &grocer,
			CategoryPrimary: "FOOD_AND_DRINK",
		}))
	}

	clock := analysis.WithClock(func() time.Time { return now })
	checker := guardrail.NewChecker(
		store,
		analysis.NewCreditAnalyzer(store, nil, discardLogger(), clock),
		analysis.NewIncomeAnalyzer(store, nil, discardLogger(), clock),
		nil,
		discardLogger(),
	)

	profile := checker.Profile(ctx, user.ID)
	assert.Nil(t, profile.AnnualIncome)
	require.NotNil(t, profile.EstimatedCreditScore)
	assert.Equal(t, 750, *profile.EstimatedCreditScore)
	assert.ElementsMatch(t, []string{"depository", "checking", "credit", "credit card"}, profile.AccountTypes)

	res := checker.Evaluate(profile, &domain.Offer{
		ID:          "personal-loan",
		Title:       "Personal Loan",
		Eligibility: domain.Requirements{MinIncome: f64(30_000), MinCreditScore: score(650)},
	})
	assert.False(t, res.IsEligible)
	assert.Equal(t, []string{"unable to determine income (minimum $30000.00 required)"}, res.Disqualifiers)
	assert.Contains(t, res.Reasons, "estimated credit score 750 meets the 650 minimum")
}
