package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
	user  *domain.User
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	s.Require().NoError(AutoMigrate(db))

	s.ctx = context.Background()
	s.store = New(db)
	s.user = &domain.User{Name: "Ada", Email: "ada@example.com", ConsentGranted: true}
	s.Require().NoError(s.store.CreateUser(s.ctx, s.user))
}

func (s *StoreTestSuite) account(typ domain.AccountType, subtype string, balance int64) *domain.Account {
	a := &domain.Account{
		UserID:         s.user.ID,
		Type:           typ,
		Subtype:        subtype,
		Name:           subtype,
		CurrentBalance: decimal.NewFromInt(balance),
	}
	s.Require().NoError(s.store.CreateAccount(s.ctx, a))
	return a
}

func (s *StoreTestSuite) TestGetUser() {
	got, err := s.store.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal("ada@example.com", got.Email)
	s.True(got.ConsentGranted)

	_, err = s.store.GetUser(s.ctx, uuid.New())
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreTestSuite) TestCreateUser_Duplicate() {
	err := s.store.CreateUser(s.ctx, &domain.User{ID: s.user.ID, Email: "other@example.com"})
	s.ErrorIs(err, domain.ErrAlreadyExists)
}

func (s *StoreTestSuite) TestListAccountsByKind() {
	s.account(domain.AccountTypeDepository, "checking", 1200)
	s.account(domain.AccountTypeDepository, "Savings", 5000)
	s.account(domain.AccountTypeDepository, "hsa", 800)
	limit := decimal.NewFromInt(5000)
	card := &domain.Account{
		UserID:         s.user.ID,
		Type:           domain.AccountTypeCredit,
		Subtype:        "credit card",
		CurrentBalance: decimal.NewFromInt(3000),
		CreditLimit:    &limit,
		Mask:           "4523",
	}
	s.Require().NoError(s.store.CreateAccount(s.ctx, card))

	all, err := s.store.ListAccountsForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(all, 4)

	savings, err := s.store.ListSavingsAccountsForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(savings, 2)

	credit, err := s.store.ListCreditAccountsForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(credit, 1)
	s.Require().NotNil(credit[0].CreditLimit)
	s.True(credit[0].CreditLimit.Equal(limit))
	s.Nil(credit[0].AvailableBalance)
	s.Equal("USD", credit[0].Currency)

	none, err := s.store.ListAccountsForUser(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *StoreTestSuite) TestListTransactions_FilterAndOrder() {
	acct := s.account(domain.AccountTypeDepository, "checking", 1000)
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }
	merchant := "Grocer"
	s.Require().NoError(s.store.CreateTransactions(s.ctx,
		&domain.Transaction{AccountID: acct.ID, UserID: s.user.ID, Date: day(10), Amount: decimal.NewFromInt(-30), MerchantName: &merchant},
		&domain.Transaction{AccountID: acct.ID, UserID: s.user.ID, Date: day(1), Amount: decimal.NewFromInt(-10)},
		&domain.Transaction{AccountID: acct.ID, UserID: s.user.ID, Date: day(20), Amount: decimal.NewFromInt(-5)},
		&domain.Transaction{AccountID: acct.ID, UserID: s.user.ID, Date: day(15), Amount: decimal.NewFromInt(-7), Pending: true},
	))

	start, end := day(1), day(15)
	got, err := s.store.ListTransactions(s.ctx, repository.ForUser(s.user.ID, domain.TransactionFilter{Start: &start, End: &end}))
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(day(1), got[0].Date)
	s.Equal(day(10), got[1].Date)
	s.Equal("Grocer", got[1].Merchant())
	s.True(got[1].Amount.Equal(decimal.NewFromInt(-30)))

	withPending, err := s.store.ListTransactions(s.ctx,
		repository.ForAccount(acct.ID, domain.TransactionFilter{Start: &start, End: &end, IncludePending: true}))
	s.Require().NoError(err)
	s.Len(withPending, 3)

	_, err = s.store.ListTransactions(s.ctx, repository.TransactionQuery{})
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *StoreTestSuite) TestGetLiability() {
	card := s.account(domain.AccountTypeCredit, "credit card", 500)

	got, err := s.store.GetLiability(s.ctx, card.ID)
	s.Require().NoError(err)
	s.Nil(got)

	apr := decimal.NewFromFloat(24.99)
	due := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.CreateLiability(s.ctx, &domain.Liability{
		AccountID:          card.ID,
		APRPercentage:      &apr,
		IsOverdue:          true,
		NextPaymentDueDate: &due,
	}))

	got, err = s.store.GetLiability(s.ctx, card.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.True(got.IsOverdue)
	s.Require().NotNil(got.APRPercentage)
	s.InDelta(24.99, got.APRPercentage.InexactFloat64(), 0.0001)
	s.Nil(got.MinimumPaymentAmount)
}

func (s *StoreTestSuite) TestRecommendations() {
	rec := &domain.Recommendation{
		UserID:    s.user.ID,
		OfferID:   "hysa-1",
		Title:     "High-yield savings",
		PersonaID: "savings_builder",
		Rationale: "growing savings",
		Trace:     []byte(`{"selected_persona_id":"savings_builder"}`),
	}
	s.Require().NoError(s.store.SaveRecommendation(s.ctx, rec))
	s.NotEqual(uuid.Nil, rec.ID)

	got, err := s.store.ListRecommendations(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("hysa-1", got[0].OfferID)
	s.JSONEq(string(rec.Trace), string(got[0].Trace))
}

func (s *StoreTestSuite) TestDo_RollsBackOnError() {
	boom := errors.New("boom")
	err := s.store.Do(s.ctx, func(tx repository.Tx) error {
		s.Require().NoError(tx.SaveRecommendation(s.ctx, &domain.Recommendation{UserID: s.user.ID, OfferID: "a"}))
		s.Require().NoError(tx.SaveRecommendation(s.ctx, &domain.Recommendation{UserID: s.user.ID, OfferID: "b"}))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.ListRecommendations(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Empty(got)

	s.Require().NoError(s.store.Do(s.ctx, func(tx repository.Tx) error {
		return tx.SaveRecommendation(s.ctx, &domain.Recommendation{UserID: s.user.ID, OfferID: "a"})
	}))
	got, err = s.store.ListRecommendations(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(got, 1)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return New(db), mock
}

func TestStore_GetUser_NotFoundMapsToDomain(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetUser(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetLiability_AbsentIsNil(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "liabilities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := store.GetLiability(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListTransactions_PropagatesDriverError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "transactions"`).
		WillReturnError(errors.New("connection reset"))

	_, err := store.ListTransactions(context.Background(), repository.ForUser(uuid.New(), domain.TransactionFilter{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveRecommendation_DuplicateMapsToDomain(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "recommendations"`).
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	err := store.SaveRecommendation(context.Background(), &domain.Recommendation{UserID: uuid.New(), OfferID: "x"})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}
