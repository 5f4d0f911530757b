package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Liability holds card servicing details for a single credit account.
type Liability struct {
	ID                   uuid.UUID        `json:"id"`
	AccountID            uuid.UUID        `json:"account_id"`
	APRPercentage        *decimal.Decimal `json:"apr_percentage,omitempty"`
	MinimumPaymentAmount *decimal.Decimal `json:"minimum_payment_amount,omitempty"`
	LastPaymentAmount    *decimal.Decimal `json:"last_payment_amount,omitempty"`
	LastStatementBalance *decimal.Decimal `json:"last_statement_balance,omitempty"`
	IsOverdue            bool             `json:"is_overdue"`
	NextPaymentDueDate   *time.Time       `json:"next_payment_due_date,omitempty"`
}
