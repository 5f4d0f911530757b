package repository

import (
	"time"

	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a user record in the database.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	Name           string    `gorm:"size:255"`
	Email          string    `gorm:"uniqueIndex;not null;size:255"`
	ConsentGranted bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Account represents a linked account record in the database.
type Account struct {
	ID               uuid.UUID           `gorm:"type:uuid;primary_key"`
	UserID           uuid.UUID           `gorm:"type:uuid;index;not null"`
	Type             string              `gorm:"type:varchar(32);not null"`
	Subtype          string              `gorm:"type:varchar(64)"`
	Name             string              `gorm:"size:255"`
	Mask             string              `gorm:"type:varchar(8)"`
	AvailableBalance decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	CurrentBalance   decimal.Decimal     `gorm:"type:decimal(20,8);not null"`
	CreditLimit      decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	Currency         string              `gorm:"type:varchar(3);not null;default:'USD'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction represents a posted or pending transaction record.
type Transaction struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	AccountID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	UserID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	Date             time.Time       `gorm:"index;not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	MerchantName     *string         `gorm:"size:255"`
	PaymentChannel   string          `gorm:"type:varchar(32)"`
	CategoryPrimary  string          `gorm:"type:varchar(64)"`
	CategoryDetailed string          `gorm:"type:varchar(128)"`
	Pending          bool            `gorm:"not null;default:false"`
	CreatedAt        time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

// Liability represents card servicing details for a credit account.
type Liability struct {
	ID                   uuid.UUID           `gorm:"type:uuid;primary_key"`
	AccountID            uuid.UUID           `gorm:"type:uuid;uniqueIndex;not null"`
	APRPercentage        decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	MinimumPaymentAmount decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	LastPaymentAmount    decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	LastStatementBalance decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	IsOverdue            bool                `gorm:"not null;default:false"`
	NextPaymentDueDate   *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName specifies the table name for the Liability model.
func (Liability) TableName() string {
	return "liabilities"
}

// Recommendation represents an offer shown to a user after passing the guardrail.
type Recommendation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	OfferID   string    `gorm:"type:varchar(128);not null"`
	Title     string    `gorm:"size:255;not null"`
	PersonaID string    `gorm:"type:varchar(64);not null"`
	Rationale string    `gorm:"type:text"`
	Trace     []byte
	CreatedAt time.Time
}

// TableName specifies the table name for the Recommendation model.
func (Recommendation) TableName() string {
	return "recommendations"
}

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{&User{}, &Account{}, &Transaction{}, &Liability{}, &Recommendation{}}
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func pointer(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func mapUserModelToDomain(u *User) *domain.User {
	return &domain.User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ConsentGranted: u.ConsentGranted,
		CreatedAt:      u.CreatedAt,
	}
}

func mapUserDomainToModel(u *domain.User) *User {
	return &User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ConsentGranted: u.ConsentGranted,
		CreatedAt:      u.CreatedAt,
	}
}

func mapAccountModelToDomain(a *Account) *domain.Account {
	return &domain.Account{
		ID:               a.ID,
		UserID:           a.UserID,
		Type:             domain.AccountType(a.Type),
		Subtype:          a.Subtype,
		Name:             a.Name,
		Mask:             a.Mask,
		AvailableBalance: pointer(a.AvailableBalance),
		CurrentBalance:   a.CurrentBalance,
		CreditLimit:      pointer(a.CreditLimit),
		Currency:         a.Currency,
		CreatedAt:        a.CreatedAt,
	}
}

func mapAccountDomainToModel(a *domain.Account) *Account {
	return &Account{
		ID:               a.ID,
		UserID:           a.UserID,
		Type:             string(a.Type),
		Subtype:          a.Subtype,
		Name:             a.Name,
		Mask:             a.Mask,
		AvailableBalance: nullable(a.AvailableBalance),
		CurrentBalance:   a.CurrentBalance,
		CreditLimit:      nullable(a.CreditLimit),
		Currency:         a.Currency,
		CreatedAt:        a.CreatedAt,
	}
}

func mapTransactionModelToDomain(t *Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:               t.ID,
		AccountID:        t.AccountID,
		UserID:           t.UserID,
		Date:             domain.TruncateDay(t.Date),
		Amount:           t.Amount,
		MerchantName:     t.MerchantName,
		PaymentChannel:   t.PaymentChannel,
		CategoryPrimary:  t.CategoryPrimary,
		CategoryDetailed: t.CategoryDetailed,
		Pending:          t.Pending,
	}
}

func mapTransactionDomainToModel(t *domain.Transaction) *Transaction {
	return &Transaction{
		ID:               t.ID,
		AccountID:        t.AccountID,
		UserID:           t.UserID,
		Date:             domain.TruncateDay(t.Date),
		Amount:           t.Amount,
		MerchantName:     t.MerchantName,
		PaymentChannel:   t.PaymentChannel,
		CategoryPrimary:  t.CategoryPrimary,
		CategoryDetailed: t.CategoryDetailed,
		Pending:          t.Pending,
	}
}

func mapLiabilityModelToDomain(l *Liability) *domain.Liability {
	return &domain.Liability{
		ID:                   l.ID,
		AccountID:            l.AccountID,
		APRPercentage:        pointer(l.APRPercentage),
		MinimumPaymentAmount: pointer(l.MinimumPaymentAmount),
		LastPaymentAmount:    pointer(l.LastPaymentAmount),
		LastStatementBalance: pointer(l.LastStatementBalance),
		IsOverdue:            l.IsOverdue,
		NextPaymentDueDate:   l.NextPaymentDueDate,
	}
}

func mapLiabilityDomainToModel(l *domain.Liability) *Liability {
	return &Liability{
		ID:                   l.ID,
		AccountID:            l.AccountID,
		APRPercentage:        nullable(l.APRPercentage),
		MinimumPaymentAmount: nullable(l.MinimumPaymentAmount),
		LastPaymentAmount:    nullable(l.LastPaymentAmount),
		LastStatementBalance: nullable(l.LastStatementBalance),
		IsOverdue:            l.IsOverdue,
		NextPaymentDueDate:   l.NextPaymentDueDate,
	}
}

func mapRecommendationModelToDomain(r *Recommendation) *domain.Recommendation {
	return &domain.Recommendation{
		ID:        r.ID,
		UserID:    r.UserID,
		OfferID:   r.OfferID,
		Title:     r.Title,
		PersonaID: r.PersonaID,
		Rationale: r.Rationale,
		Trace:     r.Trace,
		CreatedAt: r.CreatedAt,
	}
}

func mapRecommendationDomainToModel(r *domain.Recommendation) *Recommendation {
	return &Recommendation{
		ID:        r.ID,
		UserID:    r.UserID,
		OfferID:   r.OfferID,
		Title:     r.Title,
		PersonaID: r.PersonaID,
		Rationale: r.Rationale,
		Trace:     r.Trace,
		CreatedAt: r.CreatedAt,
	}
}
