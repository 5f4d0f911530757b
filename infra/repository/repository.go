package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the gorm-backed implementation of repository.Store.
type Store struct {
	db *gorm.DB
}

var (
	_ repository.Store  = (*Store)(nil)
	_ repository.Seeder = (*Store)(nil)
)

// New creates a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates every table used by the Store.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// GetUser implements repository.UserReader.
func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u User
	if err := WrapError(func() error {
		return s.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	}); err != nil {
		return nil, err
	}
	return mapUserModelToDomain(&u), nil
}

// ListAccountsForUser implements repository.AccountReader.
func (s *Store) ListAccountsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	return s.listAccounts(ctx, s.db.WithContext(ctx).Where("user_id = ?", userID))
}

// ListSavingsAccountsForUser implements repository.AccountReader.
func (s *Store) ListSavingsAccountsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	return s.listAccounts(ctx, s.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(TRIM(subtype)) IN ?", userID, domain.SavingsSubtypes))
}

// ListCreditAccountsForUser implements repository.AccountReader.
func (s *Store) ListCreditAccountsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	return s.listAccounts(ctx, s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, string(domain.AccountTypeCredit)))
}

func (s *Store) listAccounts(_ context.Context, q *gorm.DB) ([]*domain.Account, error) {
	var rows []Account
	if err := WrapError(func() error {
		return q.Order("created_at, id").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*domain.Account, 0, len(rows))
	for i := range rows {
		out = append(out, mapAccountModelToDomain(&rows[i]))
	}
	return out, nil
}

// ListTransactions implements repository.TransactionReader.
// Date bounds are inclusive calendar days.
func (s *Store) ListTransactions(ctx context.Context, q repository.TransactionQuery) ([]*domain.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx)
	if q.UserID != nil {
		tx = tx.Where("user_id = ?", *q.UserID)
	} else {
		tx = tx.Where("account_id = ?", *q.AccountID)
	}
	if q.Filter.Start != nil {
		tx = tx.Where("date >= ?", domain.TruncateDay(*q.Filter.Start))
	}
	if q.Filter.End != nil {
		tx = tx.Where("date < ?", domain.TruncateDay(*q.Filter.End).AddDate(0, 0, 1))
	}
	if !q.Filter.IncludePending {
		tx = tx.Where("pending = ?", false)
	}

	var rows []Transaction
	if err := WrapError(func() error {
		return tx.Order("date, id").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, mapTransactionModelToDomain(&rows[i]))
	}
	return out, nil
}

// GetLiability implements repository.LiabilityReader.
func (s *Store) GetLiability(ctx context.Context, accountID uuid.UUID) (*domain.Liability, error) {
	var l Liability
	err := WrapError(func() error {
		return s.db.WithContext(ctx).First(&l, "account_id = ?", accountID).Error
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mapLiabilityModelToDomain(&l), nil
}

// SaveRecommendation implements repository.RecommendationWriter.
func (s *Store) SaveRecommendation(ctx context.Context, rec *domain.Recommendation) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return WrapError(func() error {
		return s.db.WithContext(ctx).Create(mapRecommendationDomainToModel(rec)).Error
	})
}

// ListRecommendations implements repository.RecommendationWriter.
func (s *Store) ListRecommendations(ctx context.Context, userID uuid.UUID) ([]*domain.Recommendation, error) {
	var rows []Recommendation
	if err := WrapError(func() error {
		return s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at, id").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*domain.Recommendation, 0, len(rows))
	for i := range rows {
		out = append(out, mapRecommendationModelToDomain(&rows[i]))
	}
	return out, nil
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return WrapError(func() error {
		return s.db.WithContext(ctx).Create(mapUserDomainToModel(u)).Error
	})
}

// CreateAccount inserts an account.
func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Currency == "" {
		a.Currency = "USD"
	}
	a.Subtype = strings.TrimSpace(a.Subtype)
	return WrapError(func() error {
		return s.db.WithContext(ctx).Create(mapAccountDomainToModel(a)).Error
	})
}

// CreateTransactions inserts transactions in a single batch.
func (s *Store) CreateTransactions(ctx context.Context, txs ...*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]*Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		rows = append(rows, mapTransactionDomainToModel(t))
	}
	return WrapError(func() error {
		return s.db.WithContext(ctx).Create(&rows).Error
	})
}

// CreateLiability inserts a liability.
func (s *Store) CreateLiability(ctx context.Context, l *domain.Liability) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return WrapError(func() error {
		return s.db.WithContext(ctx).Create(mapLiabilityDomainToModel(l)).Error
	})
}
