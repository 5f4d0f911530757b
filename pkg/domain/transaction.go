package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an immutable posted or pending movement of money on an account.
// Positive amounts are inflows, negative amounts are outflows.
type Transaction struct {
	ID               uuid.UUID       `json:"id"`
	AccountID        uuid.UUID       `json:"account_id"`
	UserID           uuid.UUID       `json:"user_id"`
	Date             time.Time       `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	MerchantName     *string         `json:"merchant_name,omitempty"`
	PaymentChannel   string          `json:"payment_channel"`
	CategoryPrimary  string          `json:"category_primary"`
	CategoryDetailed string          `json:"category_detailed"`
	Pending          bool            `json:"pending"`
}

// Merchant returns the trimmed merchant name, or "" when absent.
func (t *Transaction) Merchant() string {
	if t.MerchantName == nil {
		return ""
	}
	return strings.TrimSpace(*t.MerchantName)
}

// IsInflow reports whether the transaction credits the account.
func (t *Transaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// IsOutflow reports whether the transaction debits the account.
func (t *Transaction) IsOutflow() bool {
	return t.Amount.IsNegative()
}

// SearchText returns the lower-cased merchant and category text used by keyword heuristics.
func (t *Transaction) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		t.Merchant(),
		t.CategoryPrimary,
		t.CategoryDetailed,
	}, " "))
}

// TransactionFilter narrows a transaction listing. Bounds are inclusive calendar days.
type TransactionFilter struct {
	Start          *time.Time
	End            *time.Time
	IncludePending bool
}

// Matches reports whether t passes the filter.
func (f TransactionFilter) Matches(t *Transaction) bool {
	if t.Pending && !f.IncludePending {
		return false
	}
	day := TruncateDay(t.Date)
	if f.Start != nil && day.Before(TruncateDay(*f.Start)) {
		return false
	}
	if f.End != nil && day.After(TruncateDay(*f.End)) {
		return false
	}
	return true
}
