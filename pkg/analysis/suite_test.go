package analysis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/spendsense/internal/fixtures/mocks"
	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSuite_Collect(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.card(-3000, 5000)
	checking := f.checking(1000)
	f.tx(checking, 4, -50, "Grocer", "FOOD_AND_DRINK")

	s := analysis.NewSuite(f.store, nil, discardLogger(), clock())
	signals := s.Collect(f.ctx, f.userID())

	assert.Equal(t, f.userID(), signals.UserID)
	assert.Empty(t, signals.Errors)
	assert.Empty(t, signals.Unavailable)
	for _, family := range analysis.Families {
		assert.True(t, signals.Available(family), family)
		assert.NoError(t, signals.Err(family))
	}
	assert.True(t, signals.MeetsThreshold(analysis.FamilyCredit))
	assert.False(t, signals.MeetsThreshold(analysis.FamilySubscription))
}

func TestSuite_Collect_IsolatesFailures(t *testing.T) {
	t.Parallel()
	reader := &mocks.Reader{}
	reader.On("ListCreditAccountsForUser", mock.Anything, mock.Anything).
		Return(nil, errors.New("credit store unavailable"))
	reader.On("ListSavingsAccountsForUser", mock.Anything, mock.Anything).
		Panic("savings exploded")
	reader.On("ListAccountsForUser", mock.Anything, mock.Anything).
		Return([]*domain.Account{}, nil)
	reader.On("ListTransactions", mock.Anything, mock.Anything).
		Return([]*domain.Transaction{}, nil)

	s := analysis.NewSuite(reader, nil, discardLogger(), clock())
	signals := s.Collect(context.Background(), uuid.New())

	assert.Equal(t, []analysis.Family{analysis.FamilyCredit, analysis.FamilySavings}, signals.Unavailable)
	assert.Nil(t, signals.Credit)
	assert.Nil(t, signals.Savings)
	require.NotNil(t, signals.Income)
	require.NotNil(t, signals.Subscriptions)

	creditErr := signals.Err(analysis.FamilyCredit)
	require.Error(t, creditErr)
	assert.ErrorIs(t, creditErr, domain.ErrAnalyzerComputation)
	var ae *domain.AnalyzerError
	require.ErrorAs(t, creditErr, &ae)
	assert.Equal(t, "credit", ae.Family)
	assert.Contains(t, creditErr.Error(), "credit store unavailable")

	assert.ErrorIs(t, signals.Err(analysis.FamilySavings), domain.ErrAnalyzerComputation)
	assert.Contains(t, signals.Err(analysis.FamilySavings).Error(), "savings exploded")
	assert.False(t, signals.MeetsThreshold(analysis.FamilyCredit))
}

func TestParseFamily(t *testing.T) {
	t.Parallel()

	f, err := analysis.ParseFamily(" Credit ")
	require.NoError(t, err)
	assert.Equal(t, analysis.FamilyCredit, f)

	f, err = analysis.ParseFamily("subscriptions")
	require.NoError(t, err)
	assert.Equal(t, analysis.FamilySubscription, f)

	_, err = analysis.ParseFamily("crypto")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
