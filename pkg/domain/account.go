package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is the top-level classification of a linked account.
type AccountType string

const (
	AccountTypeDepository AccountType = "depository"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeOther      AccountType = "other"
)

// SavingsSubtypes lists the depository subtypes treated as savings-like.
var SavingsSubtypes = []string{"savings", "money market", "hsa", "cash management"}

// Account is a linked financial account owned by a user.
//
// Credit balances represent the amount owed. Only the magnitude is used in
// utilization math, so both signs are accepted.
type Account struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	Type             AccountType      `json:"type"`
	Subtype          string           `json:"subtype"`
	Name             string           `json:"name,omitempty"`
	Mask             string           `json:"mask,omitempty"`
	AvailableBalance *decimal.Decimal `json:"available_balance,omitempty"`
	CurrentBalance   decimal.Decimal  `json:"current_balance"`
	CreditLimit      *decimal.Decimal `json:"credit_limit,omitempty"`
	Currency         string           `json:"currency"`
	CreatedAt        time.Time        `json:"created_at"`
}

// IsCredit reports whether the account is a credit account.
func (a *Account) IsCredit() bool {
	return a.Type == AccountTypeCredit
}

// IsDepository reports whether the account is a depository account.
func (a *Account) IsDepository() bool {
	return a.Type == AccountTypeDepository
}

// IsSavings reports whether the account subtype is savings-like.
func (a *Account) IsSavings() bool {
	return IsSavingsSubtype(a.Subtype)
}

// SpendableBalance returns the available balance when known, otherwise the current balance.
func (a *Account) SpendableBalance() decimal.Decimal {
	if a.AvailableBalance != nil {
		return *a.AvailableBalance
	}
	return a.CurrentBalance
}

// DisplayName returns a short label such as "Visa ending in 4523".
func (a *Account) DisplayName() string {
	name := a.Name
	if name == "" {
		name = strings.TrimSpace(string(a.Type) + " " + a.Subtype)
	}
	if a.Mask != "" {
		return name + " ending in " + a.Mask
	}
	return name
}

// IsSavingsSubtype reports whether subtype is one of SavingsSubtypes.
func IsSavingsSubtype(subtype string) bool {
	s := strings.ToLower(strings.TrimSpace(subtype))
	for _, st := range SavingsSubtypes {
		if s == st {
			return true
		}
	}
	return false
}
