package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shiftmatch/backend/internal/domain/enums"
	"github.com/shiftmatch/backend/internal/domain/model"
	"github.com/shiftmatch/backend/internal/domain/rules"
	pgrepo "github.com/shiftmatch/backend/internal/repo/postgres"
)

const defaultDailyFreeSwipes = 10

var (
	ErrValidation         = errors.New("validation error")
	ErrInsufficientCredit = errors.New("insufficient credit")
)

type Store interface {
	EnsureAccount(ctx context.Context, tx pgx.Tx, userID int64, freeAllotment int, dateKey, monthKey string) error
	DebitFree(ctx context.Context, tx pgx.Tx, userID int64) (int, error)
	DebitBoost(ctx context.Context, tx pgx.Tx, userID int64) (int, error)
	ResetDailyFreeSwipes(ctx context.Context, dateKey string, allotment int) (int64, error)
	GrantMonthlyBoost(ctx context.Context, monthKey string) (int64, error)
	GetBalance(ctx context.Context, userID int64) (pgrepo.CreditBalanceRecord, error)
}

type Config struct {
	DailyFreeSwipes int
}

type DebitResult struct {
	CreditUsed enums.CreditType
	Remaining  int
}

// Service owns the credit ledger: the only writer of credit_accounts.
type Service struct {
	store Store
	cfg   Config
}

func NewService(store Store, cfg Config) *Service {
	if cfg.DailyFreeSwipes <= 0 {
		cfg.DailyFreeSwipes = defaultDailyFreeSwipes
	}

	return &Service{store: store, cfg: cfg}
}

func (s *Service) DailyFreeSwipes() int {
	return s.cfg.DailyFreeSwipes
}

// EnsureAccount lazily creates the account inside the caller's transaction,
// stamped for the reference instant so scheduled jobs skip it this period.
func (s *Service) EnsureAccount(ctx context.Context, tx pgx.Tx, userID int64, at time.Time) error {
	if userID <= 0 {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("credit store is nil")
	}

	return s.store.EnsureAccount(ctx, tx, userID, s.cfg.DailyFreeSwipes, rules.DateKey(at), rules.MonthKey(at))
}

// Debit consumes one credit inside the caller's transaction. When the
// caller does not pin a credit type, free swipes are consumed first with a
// boost-credit fallback.
func (s *Service) Debit(ctx context.Context, tx pgx.Tx, userID int64, creditType enums.CreditType) (DebitResult, error) {
	if userID <= 0 {
		return DebitResult{}, ErrValidation
	}
	if s.store == nil {
		return DebitResult{}, fmt.Errorf("credit store is nil")
	}

	switch creditType {
	case enums.CreditFree:
		remaining, err := s.store.DebitFree(ctx, tx, userID)
		if err != nil {
			return DebitResult{}, mapDebitErr(err)
		}
		return DebitResult{CreditUsed: enums.CreditFree, Remaining: remaining}, nil
	case enums.CreditBoost:
		remaining, err := s.store.DebitBoost(ctx, tx, userID)
		if err != nil {
			return DebitResult{}, mapDebitErr(err)
		}
		return DebitResult{CreditUsed: enums.CreditBoost, Remaining: remaining}, nil
	case enums.CreditNone, "":
		remaining, err := s.store.DebitFree(ctx, tx, userID)
		if err == nil {
			return DebitResult{CreditUsed: enums.CreditFree, Remaining: remaining}, nil
		}
		if !errors.Is(err, pgrepo.ErrInsufficientCredit) {
			return DebitResult{}, fmt.Errorf("debit free swipe: %w", err)
		}
		remaining, err = s.store.DebitBoost(ctx, tx, userID)
		if err != nil {
			return DebitResult{}, mapDebitErr(err)
		}
		return DebitResult{CreditUsed: enums.CreditBoost, Remaining: remaining}, nil
	default:
		return DebitResult{}, ErrValidation
	}
}

// ResetDailyFreeSwipes applies the daily allotment to every account not yet
// stamped for asOf. Idempotent: a replay for the same date touches nothing.
func (s *Service) ResetDailyFreeSwipes(ctx context.Context, asOf time.Time) (int64, error) {
	if s.store == nil {
		return 0, fmt.Errorf("credit store is nil")
	}
	if asOf.IsZero() {
		return 0, ErrValidation
	}

	touched, err := s.store.ResetDailyFreeSwipes(ctx, rules.DateKey(asOf), s.cfg.DailyFreeSwipes)
	if err != nil {
		return 0, fmt.Errorf("reset daily free swipes: %w", err)
	}

	return touched, nil
}

// GrantMonthlyBoostCredit adds one boost credit to every account not yet
// stamped for asOf's month. Idempotent per month.
func (s *Service) GrantMonthlyBoostCredit(ctx context.Context, asOf time.Time) (int64, error) {
	if s.store == nil {
		return 0, fmt.Errorf("credit store is nil")
	}
	if asOf.IsZero() {
		return 0, ErrValidation
	}

	touched, err := s.store.GrantMonthlyBoost(ctx, rules.MonthKey(asOf))
	if err != nil {
		return 0, fmt.Errorf("grant monthly boost credit: %w", err)
	}

	return touched, nil
}

func (s *Service) GetBalance(ctx context.Context, userID int64) (model.CreditAccount, error) {
	if userID <= 0 {
		return model.CreditAccount{}, ErrValidation
	}
	if s.store == nil {
		return model.CreditAccount{}, fmt.Errorf("credit store is nil")
	}

	rec, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return model.CreditAccount{}, fmt.Errorf("get credit balance: %w", err)
	}

	return model.CreditAccount{
		UserID:           rec.UserID,
		FreeSwipeBalance: rec.FreeSwipeBalance,
		BoostBalance:     rec.BoostBalance,
	}, nil
}

func mapDebitErr(err error) error {
	if errors.Is(err, pgrepo.ErrInsufficientCredit) {
		return ErrInsufficientCredit
	}
	return err
}
