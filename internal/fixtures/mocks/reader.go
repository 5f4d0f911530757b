// Package mocks holds testify mocks of the storage contracts.
package mocks

import (
	"context"

	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Reader is a mock implementation of repository.Reader.
type Reader struct {
	mock.Mock
}

var _ repository.Reader = (*Reader)(nil)

func (m *Reader) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *Reader) ListAccountsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	return m.accounts(m.Called(ctx, userID))
}

func (m *Reader) ListSavingsAccountsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	return m.accounts(m.Called(ctx, userID))
}

func (m *Reader) ListCreditAccountsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	return m.accounts(m.Called(ctx, userID))
}

func (m *Reader) accounts(args mock.Arguments) ([]*domain.Account, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Account), args.Error(1)
}

func (m *Reader) ListTransactions(ctx context.Context, q repository.TransactionQuery) ([]*domain.Transaction, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *Reader) GetLiability(ctx context.Context, accountID uuid.UUID) (*domain.Liability, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Liability), args.Error(1)
}

// Store is a mock implementation of repository.Store.
type Store struct {
	Reader
}

var _ repository.Store = (*Store)(nil)

func (m *Store) SaveRecommendation(ctx context.Context, rec *domain.Recommendation) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *Store) ListRecommendations(ctx context.Context, userID uuid.UUID) ([]*domain.Recommendation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Recommendation), args.Error(1)
}

// Do returns the configured error, or runs fn against the mock when it is nil.
func (m *Store) Do(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *Store) CreateUser(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *Store) CreateTransactions(ctx context.Context, txs ...*domain.Transaction) error {
	return m.Called(ctx, txs).Error(0)
}

func (m *Store) CreateLiability(ctx context.Context, l *domain.Liability) error {
	return m.Called(ctx, l).Error(0)
}
