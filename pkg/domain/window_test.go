package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewWindow_SpansRequestedDays(t *testing.T) {
	now := time.Date(2024, time.March, 1, 17, 45, 0, 0, time.UTC)
	for _, days := range []int{1, 30, 90, 180, 365} {
		w := NewWindow(now, days)
		assert.Equal(t, days, DaysBetween(w.Start, w.End), "days=%d", days)
		assert.Equal(t, "2024-03-01", w.End.Format(DateLayout))
	}
}

func TestWindow_Contains(t *testing.T) {
	w := NewWindow(time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC), 30)
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End.Add(23*time.Hour)))
	assert.False(t, w.Contains(w.Start.AddDate(0, 0, -1)))
	assert.False(t, w.Contains(w.End.AddDate(0, 0, 1)))
}

func TestTransactionFilter_ExcludesPendingByDefault(t *testing.T) {
	day := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	tx := &Transaction{Date: day, Amount: decimal.NewFromInt(-5), Pending: true}

	assert.False(t, TransactionFilter{}.Matches(tx))
	assert.True(t, TransactionFilter{IncludePending: true}.Matches(tx))
}

func TestIsSavingsSubtype(t *testing.T) {
	assert.True(t, IsSavingsSubtype("Money Market"))
	assert.True(t, IsSavingsSubtype(" hsa "))
	assert.False(t, IsSavingsSubtype("checking"))
}

func TestAccount_DisplayName(t *testing.T) {
	a := &Account{Type: AccountTypeCredit, Subtype: "credit card", Mask: "4523"}
	assert.Equal(t, "credit credit card ending in 4523", a.DisplayName())

	a.Name = "Visa"
	assert.Equal(t, "Visa ending in 4523", a.DisplayName())
}
