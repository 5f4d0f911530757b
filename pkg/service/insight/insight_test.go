package insight_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/spendsense/infra/repository/memory"
	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/guardrail"
	"github.com/amirasaad/spendsense/pkg/persona"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/amirasaad/spendsense/pkg/service/insight"
	"github.com/amirasaad/spendsense/pkg/trace"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(store repository.Store) *insight.Service {
	logger := discardLogger()
	suite := analysis.NewSuite(store, nil, logger, analysis.WithClock(func() time.Time { return testNow }))
	return insight.New(
		store,
		suite,
		persona.NewResolver(persona.NewCatalog(nil), logger),
		guardrail.NewChecker(store, suite.Credit, suite.Income, nil, logger),
		trace.NewBuilder(trace.WithClock(func() time.Time { return testNow })),
		logger,
	)
}

// seedCardHolder creates a user with a card at 60% utilization.
func seedCardHolder(t *testing.T, store *memory.Store, consent bool) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	user := &domain.User{Name: "Dana", Email: "dana@example.com", ConsentGranted: consent}
	require.NoError(t, store.CreateUser(ctx, user))
	limit := decimal.NewFromInt(5000)
	require.NoError(t, store.CreateAccount(ctx, &domain.Account{
		UserID:         user.ID,
		Type:           domain.AccountTypeCredit,
		Subtype:        "credit card",
		Name:           "Visa",
		Mask:           "4523",
		CurrentBalance: decimal.NewFromInt(3000),
		CreditLimit:    &limit,
	}))
	require.NoError(t, store.CreateAccount(ctx, &domain.Account{
		UserID:         user.ID,
		Type:           domain.AccountTypeDepository,
		Subtype:        "checking",
		CurrentBalance: decimal.NewFromInt(1200),
	}))
	return user.ID
}

func sampleOffers() []*domain.Offer {
	minScore := 700
	return []*domain.Offer{
		{ID: "budget-app", Title: "Budgeting App", Category: "tools"},
		{ID: "fast-cash", Title: "Fast Cash", Category: "Payday Lending"},
		{ID: "premium-card", Title: "Premium Card", Eligibility: domain.Requirements{MinCreditScore: &minScore}},
	}
}

func TestAssignPersonaToUser_UnknownUser(t *testing.T) {
	t.Parallel()
	svc := newService(memory.New())

	_, err := svc.AssignPersonaToUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.Signals(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAssignPersonaToUser_HighUtilization(t *testing.T) {
	t.Parallel()
	store := memory.New()
	userID := seedCardHolder(t, store, false)
	svc := newService(store)

	a, err := svc.AssignPersonaToUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, persona.HighUtilization, a.Persona.ID)
	assert.Contains(t, a.Rationale, "Visa ending in 4523 is at 60% utilization ($3000.00 of $5000.00 limit)")
	assert.False(t, a.Consent)
	assert.Empty(t, a.Signals.Unavailable)

	require.NotNil(t, a.Trace)
	assert.Equal(t, testNow, a.Trace.Timestamp)
	assert.Equal(t, persona.HighUtilization, a.Trace.SelectedID)
	assert.Equal(t, "selected highest priority persona: priority=5", a.Trace.SelectionReason)
	assert.Equal(t, persona.HighUtilization, a.Trace.PriorityOrder[0])
}

func TestAssignPersonaToUser_NoActivity(t *testing.T) {
	t.Parallel()
	store := memory.New()
	user := &domain.User{Email: "new@example.com"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	a, err := newService(store).AssignPersonaToUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, persona.NewUser, a.Persona.ID)
	assert.True(t, a.Trace.Fallback)
	assert.Empty(t, a.Matches)
}

func TestAnalyze(t *testing.T) {
	t.Parallel()
	store := memory.New()
	userID := seedCardHolder(t, store, false)
	svc := newService(store)
	ctx := context.Background()

	res, err := svc.Analyze(ctx, userID, analysis.FamilyCredit, 30)
	require.NoError(t, err)
	credit, ok := res.(*analysis.CreditResult)
	require.True(t, ok)
	assert.InDelta(t, 0.6, credit.MaxUtilization, 1e-9)
	assert.Equal(t, analysis.BandMedium, credit.MaxBand)
	assert.Equal(t, 30, credit.Window.Days)

	_, err = svc.Analyze(ctx, userID, analysis.FamilyIncome, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	res, err = svc.Analyze(ctx, userID, analysis.Family("subscriptions"), 30)
	require.NoError(t, err)
	assert.Equal(t, analysis.FamilySubscription, res.Family())

	_, err = svc.Analyze(ctx, userID, analysis.Family("mood"), 30)
	assert.ErrorIs(t, err, domain.ErrValidation)

	res, err = svc.Analyze(ctx, uuid.New(), analysis.FamilySavings, 30)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Nil(t, res)
}

func TestEligibilityOperations(t *testing.T) {
	t.Parallel()
	store := memory.New()
	userID := seedCardHolder(t, store, false)
	svc := newService(store)
	ctx := context.Background()
	offers := sampleOffers()

	res, err := svc.CheckOfferEligibility(ctx, userID, offers[2])
	require.NoError(t, err)
	assert.False(t, res.IsEligible)
	assert.Equal(t, []string{"estimated credit score 650 is below the 700 minimum"}, res.Disqualifiers)

	eligible, err := svc.FilterEligibleOffers(ctx, userID, offers)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, "budget-app", eligible[0].Offer.ID)

	_, err = svc.RequireEligibleOffer(ctx, userID, offers[1])
	assert.ErrorIs(t, err, domain.ErrProhibitedProduct)
	assert.ErrorIs(t, err, domain.ErrOfferIneligible)

	_, err = svc.RequireEligibleOffer(ctx, userID, offers[0])
	assert.NoError(t, err)

	_, err = svc.CheckOfferEligibility(ctx, userID, &domain.Offer{Title: "no id"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecommend_RequiresConsent(t *testing.T) {
	t.Parallel()
	store := memory.New()
	userID := seedCardHolder(t, store, false)

	_, err := newService(store).Recommend(context.Background(), userID, sampleOffers())
	assert.ErrorIs(t, err, domain.ErrConsentRequired)

	recs, err := store.ListRecommendations(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecommend_PersistsOnlyEligibleOffers(t *testing.T) {
	t.Parallel()
	store := memory.New()
	userID := seedCardHolder(t, store, true)
	svc := newService(store)
	ctx := context.Background()

	out, err := svc.Recommend(ctx, userID, sampleOffers())
	require.NoError(t, err)
	assert.Equal(t, persona.HighUtilization, out.Persona.ID)
	require.Len(t, out.Offers, 1)
	assert.Equal(t, "budget-app", out.Offers[0].Offer.ID)
	require.Len(t, out.Rejected, 2)
	assert.True(t, out.Rejected[0].Prohibited)
	require.Len(t, out.Trace.Eligibility, 3)

	saved, err := svc.ListRecommendations(ctx, userID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "budget-app", saved[0].OfferID)
	assert.Equal(t, string(persona.HighUtilization), saved[0].PersonaID)
	assert.Equal(t, testNow, saved[0].CreatedAt)

	var tr trace.DecisionTrace
	require.NoError(t, json.Unmarshal(saved[0].Trace, &tr))
	assert.Equal(t, userID, tr.UserID)
	assert.Len(t, tr.Eligibility, 3)
	assert.Equal(t, "fast-cash", tr.Eligibility[1].OfferID)
	assert.False(t, tr.Eligibility[1].Eligible)
}

// flakyStore fails the failOn-th recommendation saved inside a unit of work.
type flakyStore struct {
	*memory.Store
	failOn int
}

func (s *flakyStore) Do(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.Do(ctx, func(tx repository.Tx) error {
		return fn(&flakyTx{Tx: tx, failOn: s.failOn})
	})
}

type flakyTx struct {
	repository.Tx
	failOn int
	saves  int
}

func (t *flakyTx) SaveRecommendation(ctx context.Context, rec *domain.Recommendation) error {
	t.saves++
	if t.saves == t.failOn {
		return errors.New("disk full")
	}
	return t.Tx.SaveRecommendation(ctx, rec)
}

func TestRecommend_SaveFailurePersistsNothing(t *testing.T) {
	t.Parallel()
	store := memory.New()
	userID := seedCardHolder(t, store, true)
	offers := append(sampleOffers(), &domain.Offer{ID: "debt-course", Title: "Debt Payoff Course", Category: "education"})

	_, err := newService(&flakyStore{Store: store, failOn: 2}).Recommend(context.Background(), userID, offers)
	require.Error(t, err)
	assert.EqualError(t, err, "save recommendation debt-course: disk full")

	recs, err := store.ListRecommendations(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
