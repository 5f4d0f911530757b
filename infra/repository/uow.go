package repository

import (
	"context"

	"github.com/amirasaad/spendsense/pkg/repository"
	"gorm.io/gorm"
)

var _ repository.UnitOfWork = (*Store)(nil)

// Do runs fn in a database transaction. The Store passed to fn shares the
// transaction session, so every write it makes commits or rolls back together.
func (s *Store) Do(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
