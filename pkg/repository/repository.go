// Package repository declares the storage contracts consumed by the analysis core.
// Every read contract is side-effect free; implementations live under infra/repository.
package repository

import (
	"context"
	"fmt"

	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/google/uuid"
)

// UserReader looks up users.
type UserReader interface {
	// GetUser returns domain.ErrNotFound when the user does not exist.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// AccountReader lists a user's linked accounts.
type AccountReader interface {
	ListAccountsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error)
	// ListSavingsAccountsForUser returns accounts whose subtype is in domain.SavingsSubtypes.
	ListSavingsAccountsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error)
	ListCreditAccountsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error)
}

// TransactionQuery selects transactions by owner or by account.
// Exactly one of UserID or AccountID must be set.
type TransactionQuery struct {
	UserID    *uuid.UUID
	AccountID *uuid.UUID
	Filter    domain.TransactionFilter
}

// ForUser builds a query over every transaction the user owns.
func ForUser(userID uuid.UUID, filter domain.TransactionFilter) TransactionQuery {
	return TransactionQuery{UserID: &userID, Filter: filter}
}

// ForAccount builds a query over a single account's transactions.
func ForAccount(accountID uuid.UUID, filter domain.TransactionFilter) TransactionQuery {
	return TransactionQuery{AccountID: &accountID, Filter: filter}
}

// Validate checks that the query targets exactly one owner.
func (q TransactionQuery) Validate() error {
	if (q.UserID == nil) == (q.AccountID == nil) {
		return fmt.Errorf("%w: transaction query needs exactly one of user or account", domain.ErrValidation)
	}
	return nil
}

// TransactionReader lists transactions ordered by date ascending.
type TransactionReader interface {
	ListTransactions(ctx context.Context, q TransactionQuery) ([]*domain.Transaction, error)
}

// LiabilityReader fetches card liability details.
type LiabilityReader interface {
	// GetLiability returns nil, nil when the account has no liability record.
	GetLiability(ctx context.Context, accountID uuid.UUID) (*domain.Liability, error)
}

// Reader is the full read surface needed by the analyzers and the guardrail.
type Reader interface {
	UserReader
	AccountReader
	TransactionReader
	LiabilityReader
}

// RecommendationWriter persists recommendations that passed the guardrail.
type RecommendationWriter interface {
	SaveRecommendation(ctx context.Context, rec *domain.Recommendation) error
	ListRecommendations(ctx context.Context, userID uuid.UUID) ([]*domain.Recommendation, error)
}

// Tx is the store view handed to a UnitOfWork callback.
type Tx interface {
	Reader
	RecommendationWriter
	Seeder
}

// UnitOfWork runs fn inside a transaction boundary. Writes made through tx
// commit when fn returns nil and are discarded otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
}

// Store combines every contract a backend provides.
type Store interface {
	Reader
	RecommendationWriter
	UnitOfWork
}

// Seeder loads linked-account data into a backend.
type Seeder interface {
	CreateUser(ctx context.Context, u *domain.User) error
	CreateAccount(ctx context.Context, a *domain.Account) error
	CreateTransactions(ctx context.Context, txs ...*domain.Transaction) error
	CreateLiability(ctx context.Context, l *domain.Liability) error
}
