package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Signals is every analyzer family's summary for one user. A family that
// failed has a nil summary and an entry in Errors.
type Signals struct {
	UserID        uuid.UUID                     `json:"user_id"`
	Credit        *Summary[*CreditResult]       `json:"credit,omitempty"`
	Income        *Summary[*IncomeResult]       `json:"income,omitempty"`
	Savings       *Summary[*SavingsResult]      `json:"savings,omitempty"`
	Subscriptions *Summary[*SubscriptionResult] `json:"subscriptions,omitempty"`
	Errors        map[Family]error              `json:"-"`
	Unavailable   []Family                      `json:"unavailable,omitempty"`
}

// Available reports whether family f produced a summary.
func (s *Signals) Available(f Family) bool {
	if s == nil {
		return false
	}
	switch f {
	case FamilyCredit:
		return s.Credit != nil
	case FamilyIncome:
		return s.Income != nil
	case FamilySavings:
		return s.Savings != nil
	case FamilySubscription:
		return s.Subscriptions != nil
	}
	return false
}

// MeetsThreshold reports the summary flag of family f, false when unavailable.
func (s *Signals) MeetsThreshold(f Family) bool {
	if !s.Available(f) {
		return false
	}
	switch f {
	case FamilyCredit:
		return s.Credit.MeetsThreshold
	case FamilyIncome:
		return s.Income.MeetsThreshold
	case FamilySavings:
		return s.Savings.MeetsThreshold
	case FamilySubscription:
		return s.Subscriptions.MeetsThreshold
	}
	return false
}

// Err returns the error recorded for family f, if any.
func (s *Signals) Err(f Family) error {
	if s == nil || s.Errors == nil {
		return nil
	}
	return s.Errors[f]
}

// Suite bundles the four analyzers.
type Suite struct {
	Credit        *CreditAnalyzer
	Income        *IncomeAnalyzer
	Savings       *SavingsAnalyzer
	Subscriptions *SubscriptionDetector
	logger        *slog.Logger
}

// NewSuite builds every analyzer over the same store, config and options.
func NewSuite(store repository.Reader, cfg *config.Analysis, logger *slog.Logger, opts ...Option) *Suite {
	if logger == nil {
		logger = slog.Default()
	}
	return &Suite{
		Credit:        NewCreditAnalyzer(store, cfg, logger, opts...),
		Income:        NewIncomeAnalyzer(store, cfg, logger, opts...),
		Savings:       NewSavingsAnalyzer(store, cfg, logger, opts...),
		Subscriptions: NewSubscriptionDetector(store, cfg, logger, opts...),
		logger:        logger.With("component", "analysis"),
	}
}

// Collect runs every family concurrently and waits for all of them.
// A failing family never fails the call; its error is recorded as a
// domain.AnalyzerError and the family is listed as unavailable.
func (s *Suite) Collect(ctx context.Context, userID uuid.UUID) *Signals {
	signals := &Signals{UserID: userID}
	errs := make([]error, len(Families))

	var g errgroup.Group
	run := func(i int, fn func() error) {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
				errs[i] = err
			}()
			return fn()
		})
	}

	run(0, func() (err error) {
		signals.Credit, err = s.Credit.AnalyzeForUser(ctx, userID)
		return err
	})
	run(1, func() (err error) {
		signals.Income, err = s.Income.AnalyzeForUser(ctx, userID)
		return err
	})
	run(2, func() (err error) {
		signals.Savings, err = s.Savings.AnalyzeForUser(ctx, userID)
		return err
	})
	run(3, func() (err error) {
		signals.Subscriptions, err = s.Subscriptions.AnalyzeForUser(ctx, userID)
		return err
	})
	// Every family's error lands in errs, so Wait's first error adds nothing.
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		family := Families[i]
		if signals.Errors == nil {
			signals.Errors = make(map[Family]error)
		}
		signals.Errors[family] = &domain.AnalyzerError{Family: string(family), Err: err}
		signals.Unavailable = append(signals.Unavailable, family)
		s.clear(signals, family)
		s.logger.Warn("analyzer failed", "user_id", userID, "family", family, "error", err)
	}
	return signals
}

func (s *Suite) clear(signals *Signals, f Family) {
	switch f {
	case FamilyCredit:
		signals.Credit = nil
	case FamilyIncome:
		signals.Income = nil
	case FamilySavings:
		signals.Savings = nil
	case FamilySubscription:
		signals.Subscriptions = nil
	}
}
