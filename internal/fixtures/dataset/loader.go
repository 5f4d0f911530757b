// Package dataset seeds a store with the embedded demo users and offers.
// Transaction dates are stored as offsets from the load date so the demo
// always falls inside the analysis windows.
package dataset

import (
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:embed *.csv
var files embed.FS

// Demo user ids, one per persona.
var (
	HighUtilizationUser = uuid.MustParse("11111111-1111-4111-8111-000000000001")
	VariableIncomeUser  = uuid.MustParse("11111111-1111-4111-8111-000000000002")
	SubscriptionUser    = uuid.MustParse("11111111-1111-4111-8111-000000000003")
	SavingsBuilderUser  = uuid.MustParse("11111111-1111-4111-8111-000000000004")
	NewUser             = uuid.MustParse("11111111-1111-4111-8111-000000000005")
)

// Summary counts the records a Load call wrote.
type Summary struct {
	Users        int
	Accounts     int
	Transactions int
	Liabilities  int
}

// Load writes the demo dataset into seeder, anchoring transaction offsets on today.
func Load(ctx context.Context, seeder repository.Seeder, today time.Time) (*Summary, error) {
	today = domain.TruncateDay(today)
	sum := &Summary{}

	users, err := readCSV("users.csv", 4)
	if err != nil {
		return nil, err
	}
	for _, rec := range users {
		u := &domain.User{Name: rec[1], Email: rec[2], ConsentGranted: parseBool(rec[3])}
		if u.ID, err = uuid.Parse(rec[0]); err != nil {
			return nil, fmt.Errorf("users.csv: %w", err)
		}
		if err := seeder.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", u.Email, err)
		}
		sum.Users++
	}

	accounts, err := readCSV("accounts.csv", 10)
	if err != nil {
		return nil, err
	}
	for _, rec := range accounts {
		a, err := parseAccount(rec, today)
		if err != nil {
			return nil, fmt.Errorf("accounts.csv: %w", err)
		}
		if err := seeder.CreateAccount(ctx, a); err != nil {
			return nil, fmt.Errorf("create account %s: %w", a.ID, err)
		}
		sum.Accounts++
	}

	txRecords, err := readCSV("transactions.csv", 8)
	if err != nil {
		return nil, err
	}
	owners := make(map[uuid.UUID]uuid.UUID, len(accounts))
	for _, rec := range accounts {
		owners[uuid.MustParse(rec[0])] = uuid.MustParse(rec[1])
	}
	txs := make([]*domain.Transaction, 0, len(txRecords))
	for i, rec := range txRecords {
		t, err := parseTransaction(rec, today)
		if err != nil {
			return nil, fmt.Errorf("transactions.csv row %d: %w", i+2, err)
		}
		t.UserID = owners[t.AccountID]
		txs = append(txs, t)
	}
	if err := seeder.CreateTransactions(ctx, txs...); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}
	sum.Transactions = len(txs)

	liabilities, err := readCSV("liabilities.csv", 7)
	if err != nil {
		return nil, err
	}
	for _, rec := range liabilities {
		l, err := parseLiability(rec, today)
		if err != nil {
			return nil, fmt.Errorf("liabilities.csv: %w", err)
		}
		if err := seeder.CreateLiability(ctx, l); err != nil {
			return nil, fmt.Errorf("create liability for %s: %w", l.AccountID, err)
		}
		sum.Liabilities++
	}
	return sum, nil
}

// Offers returns the demo offer catalog in file order.
func Offers() ([]*domain.Offer, error) {
	records, err := readCSV("offers.csv", 10)
	if err != nil {
		return nil, err
	}
	offers := make([]*domain.Offer, 0, len(records))
	for _, rec := range records {
		o := &domain.Offer{
			ID:          rec[0],
			Title:       rec[1],
			Description: rec[2],
			Category:    rec[3],
			Type:        rec[4],
			Provider:    rec[5],
		}
		if o.Eligibility.MinIncome, err = optionalFloat(rec[6]); err != nil {
			return nil, fmt.Errorf("offer %s min_income: %w", o.ID, err)
		}
		if rec[7] != "" {
			score, err := strconv.Atoi(rec[7])
			if err != nil {
				return nil, fmt.Errorf("offer %s min_credit_score: %w", o.ID, err)
			}
			o.Eligibility.MinCreditScore = &score
		}
		if o.Eligibility.MaxUtilization, err = optionalFloat(rec[8]); err != nil {
			return nil, fmt.Errorf("offer %s max_utilization: %w", o.ID, err)
		}
		if rec[9] != "" {
			o.Eligibility.ExcludedAccountTypes = strings.Split(rec[9], ";")
		}
		offers = append(offers, o)
	}
	return offers, nil
}

// readCSV returns the data rows of name after checking the header width.
func readCSV(name string, columns int) ([][]string, error) {
	f, err := files.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close() //nolint:errcheck
	return parseCSV(f, name, columns)
}

func parseCSV(r io.Reader, name string, columns int) ([][]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header", name)
	}
	if len(records[0]) < columns {
		return nil, fmt.Errorf(
			"invalid CSV format in %s: expected at least %d columns, got %d",
			name, columns, len(records[0]),
		)
	}
	rows := make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < columns {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", name, i+2, columns, len(rec))
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func parseAccount(rec []string, today time.Time) (*domain.Account, error) {
	a := &domain.Account{
		Type:      domain.AccountType(rec[2]),
		Subtype:   rec[3],
		Name:      rec[4],
		Mask:      rec[5],
		Currency:  rec[9],
		CreatedAt: today.AddDate(-1, 0, 0),
	}
	var err error
	if a.ID, err = uuid.Parse(rec[0]); err != nil {
		return nil, err
	}
	if a.UserID, err = uuid.Parse(rec[1]); err != nil {
		return nil, err
	}
	if a.AvailableBalance, err = optionalDecimal(rec[6]); err != nil {
		return nil, fmt.Errorf("available_balance: %w", err)
	}
	if a.CurrentBalance, err = decimal.NewFromString(rec[7]); err != nil {
		return nil, fmt.Errorf("current_balance: %w", err)
	}
	if a.CreditLimit, err = optionalDecimal(rec[8]); err != nil {
		return nil, fmt.Errorf("credit_limit: %w", err)
	}
	return a, nil
}

func parseTransaction(rec []string, today time.Time) (*domain.Transaction, error) {
	accountID, err := uuid.Parse(rec[0])
	if err != nil {
		return nil, err
	}
	ago, err := strconv.Atoi(rec[1])
	if err != nil {
		return nil, fmt.Errorf("days_ago: %w", err)
	}
	if ago < 0 {
		return nil, errors.New("days_ago must not be negative")
	}
	amount, err := decimal.NewFromString(rec[2])
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	t := &domain.Transaction{
		AccountID:        accountID,
		Date:             today.AddDate(0, 0, -ago),
		Amount:           amount,
		PaymentChannel:   rec[4],
		CategoryPrimary:  rec[5],
		CategoryDetailed: rec[6],
		Pending:          parseBool(rec[7]),
	}
	if m := strings.TrimSpace(rec[3]); m != "" {
		t.MerchantName = &m
	}
	return t, nil
}

func parseLiability(rec []string, today time.Time) (*domain.Liability, error) {
	accountID, err := uuid.Parse(rec[0])
	if err != nil {
		return nil, err
	}
	l := &domain.Liability{AccountID: accountID, IsOverdue: parseBool(rec[5])}
	fields := []struct {
		dst **decimal.Decimal
		raw string
	}{
		{&l.APRPercentage, rec[1]},
		{&l.MinimumPaymentAmount, rec[2]},
		{&l.LastPaymentAmount, rec[3]},
		{&l.LastStatementBalance, rec[4]},
	}
	for _, f := range fields {
		if *f.dst, err = optionalDecimal(f.raw); err != nil {
			return nil, err
		}
	}
	if rec[6] != "" {
		in, err := strconv.Atoi(rec[6])
		if err != nil {
			return nil, fmt.Errorf("next_payment_due_in_days: %w", err)
		}
		due := today.AddDate(0, 0, in)
		l.NextPaymentDueDate = &due
	}
	return l, nil
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalFloat(s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
