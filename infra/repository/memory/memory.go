// Package memory provides an in-process implementation of repository.Store
// for tests and local runs without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
)

// Store keeps users, accounts, transactions, liabilities and recommendations in maps.
type Store struct {
	mu              sync.RWMutex
	users           map[uuid.UUID]domain.User
	accounts        map[uuid.UUID]domain.Account
	transactions    []domain.Transaction
	liabilities     map[uuid.UUID]domain.Liability
	recommendations []domain.Recommendation
	now             func() time.Time
}

var (
	_ repository.Store  = (*Store)(nil)
	_ repository.Seeder = (*Store)(nil)
)

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:       make(map[uuid.UUID]domain.User),
		accounts:    make(map[uuid.UUID]domain.Account),
		liabilities: make(map[uuid.UUID]domain.Liability),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetUser implements repository.UserReader.
func (s *Store) GetUser(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// ListAccountsForUser implements repository.AccountReader.
func (s *Store) ListAccountsForUser(_ context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	return s.listAccounts(userID, func(*domain.Account) bool { return true }), nil
}

// ListSavingsAccountsForUser implements repository.AccountReader.
func (s *Store) ListSavingsAccountsForUser(_ context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	return s.listAccounts(userID, (*domain.Account).IsSavings), nil
}

// ListCreditAccountsForUser implements repository.AccountReader.
func (s *Store) ListCreditAccountsForUser(_ context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	return s.listAccounts(userID, (*domain.Account).IsCredit), nil
}

func (s *Store) listAccounts(userID uuid.UUID, keep func(*domain.Account) bool) []*domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Account, 0)
	for _, a := range s.accounts {
		if a.UserID != userID {
			continue
		}
		acct := a
		if keep(&acct) {
			out = append(out, &acct)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// ListTransactions implements repository.TransactionReader.
func (s *Store) ListTransactions(_ context.Context, q repository.TransactionQuery) ([]*domain.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Transaction, 0)
	for _, t := range s.transactions {
		if q.UserID != nil && t.UserID != *q.UserID {
			continue
		}
		if q.AccountID != nil && t.AccountID != *q.AccountID {
			continue
		}
		tx := t
		if q.Filter.Matches(&tx) {
			out = append(out, &tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// GetLiability implements repository.LiabilityReader.
func (s *Store) GetLiability(_ context.Context, accountID uuid.UUID) (*domain.Liability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.liabilities[accountID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// SaveRecommendation implements repository.RecommendationWriter.
func (s *Store) SaveRecommendation(_ context.Context, rec *domain.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	for _, r := range s.recommendations {
		if r.ID == rec.ID {
			return fmt.Errorf("recommendation %s: %w", rec.ID, domain.ErrAlreadyExists)
		}
	}
	s.recommendations = append(s.recommendations, *rec)
	return nil
}

// ListRecommendations implements repository.RecommendationWriter.
func (s *Store) ListRecommendations(_ context.Context, userID uuid.UUID) ([]*domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Recommendation, 0)
	for _, r := range s.recommendations {
		if r.UserID == userID {
			rec := r
			out = append(out, &rec)
		}
	}
	return out, nil
}

// CreateUser implements repository.Seeder.
func (s *Store) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, domain.ErrAlreadyExists)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = *u
	return nil
}

// CreateAccount implements repository.Seeder.
func (s *Store) CreateAccount(_ context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, ok := s.accounts[a.ID]; ok {
		return fmt.Errorf("account %s: %w", a.ID, domain.ErrAlreadyExists)
	}
	if a.Currency == "" {
		a.Currency = "USD"
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	a.Subtype = strings.TrimSpace(a.Subtype)
	s.accounts[a.ID] = *a
	return nil
}

// CreateTransactions implements repository.Seeder. A transaction without a
// user inherits the owner of its account.
func (s *Store) CreateTransactions(_ context.Context, txs ...*domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if t.UserID == uuid.Nil {
			acct, ok := s.accounts[t.AccountID]
			if !ok {
				return fmt.Errorf("transaction %s references unknown account %s: %w", t.ID, t.AccountID, domain.ErrValidation)
			}
			t.UserID = acct.UserID
		}
		t.Date = domain.TruncateDay(t.Date)
		s.transactions = append(s.transactions, *t)
	}
	return nil
}

// CreateLiability implements repository.Seeder.
func (s *Store) CreateLiability(_ context.Context, l *domain.Liability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if _, ok := s.liabilities[l.AccountID]; ok {
		return fmt.Errorf("liability for account %s: %w", l.AccountID, domain.ErrAlreadyExists)
	}
	s.liabilities[l.AccountID] = *l
	return nil
}
