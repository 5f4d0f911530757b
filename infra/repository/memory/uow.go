package memory

import (
	"context"
	"maps"

	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
)

var _ repository.UnitOfWork = (*Store)(nil)

// Do runs fn against a staged copy of the store. The staged state replaces
// the live one only when fn succeeds. The store stays locked while fn runs,
// so fn must go through tx.
func (s *Store) Do(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.clone()
	if err := fn(staged); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.users = staged.users
	s.accounts = staged.accounts
	s.transactions = staged.transactions
	s.liabilities = staged.liabilities
	s.recommendations = staged.recommendations
	return nil
}

// clone copies the state; callers hold s.mu.
func (s *Store) clone() *Store {
	return &Store{
		users:           maps.Clone(s.users),
		accounts:        maps.Clone(s.accounts),
		transactions:    append([]domain.Transaction(nil), s.transactions...),
		liabilities:     maps.Clone(s.liabilities),
		recommendations: append([]domain.Recommendation(nil), s.recommendations...),
		now:             s.now,
	}
}
