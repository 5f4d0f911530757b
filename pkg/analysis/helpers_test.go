package analysis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/spendsense/infra/repository/memory"
	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clock() analysis.Option {
	return analysis.WithClock(func() time.Time { return testNow })
}

func daysAgo(n int) time.Time {
	return domain.TruncateDay(testNow).AddDate(0, 0, -n)
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// fixture seeds a memory store for one user.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	user  *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, ctx: context.Background(), store: memory.New(), user: &domain.User{Email: "user@example.com"}}
	require.NoError(t, f.store.CreateUser(f.ctx, f.user))
	return f
}

func (f *fixture) account(a domain.Account) *domain.Account {
	f.t.Helper()
	a.UserID = f.user.ID
	require.NoError(f.t, f.store.CreateAccount(f.ctx, &a))
	return &a
}

func (f *fixture) checking(balance float64) *domain.Account {
	return f.account(domain.Account{Type: domain.AccountTypeDepository, Subtype: "checking", CurrentBalance: dec(balance)})
}

func (f *fixture) card(balance, limit float64) *domain.Account {
	return f.account(domain.Account{
		Type:           domain.AccountTypeCredit,
		Subtype:        "credit card",
		Name:           "Visa",
		Mask:           "4523",
		CurrentBalance: dec(balance),
		CreditLimit:    decPtr(limit),
	})
}

func (f *fixture) tx(acct *domain.Account, ago int, amount float64, merchant, category string) *domain.Transaction {
	f.t.Helper()
	t := &domain.Transaction{
		AccountID:       acct.ID,
		Date:            daysAgo(ago),
		Amount:          dec(amount),
		CategoryPrimary: category,
	}
	if merchant != "" {
		t.MerchantName = &merchant
	}
	require.NoError(f.t, f.store.CreateTransactions(f.ctx, t))
	return t
}

func (f *fixture) userID() uuid.UUID { return f.user.ID }
