package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientCredit = errors.New("insufficient credit")

type CreditRepo struct {
	pool *pgxpool.Pool
}

type CreditBalanceRecord struct {
	UserID           int64
	FreeSwipeBalance int
	BoostBalance     int
}

func NewCreditRepo(pool *pgxpool.Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

// EnsureAccount lazily creates the credit account with the current daily
// allotment. The reset/grant stamps are set so the scheduled jobs do not
// re-apply the current period to a freshly created row.
func (r *CreditRepo) EnsureAccount(ctx context.Context, tx pgx.Tx, userID int64, freeAllotment int, dateKey, monthKey string) error {
	if userID <= 0 || freeAllotment < 0 {
		return fmt.Errorf("invalid account payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if strings.TrimSpace(dateKey) == "" || strings.TrimSpace(monthKey) == "" {
		return fmt.Errorf("date and month keys are required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO credit_accounts (
	user_id,
	free_swipe_balance,
	boost_balance,
	last_daily_reset,
	last_monthly_grant,
	updated_at
) VALUES ($1, $2, 0, $3::date, $4, NOW())
ON CONFLICT (user_id) DO NOTHING
`, userID, freeAllotment, dateKey, monthKey); err != nil {
		return fmt.Errorf("ensure credit account: %w", err)
	}

	return nil
}

// DebitFree consumes one free swipe. The balance guard in the WHERE clause
// makes concurrent debits on the same row linearized: exactly one wins when
// a single unit remains.
func (r *CreditRepo) DebitFree(ctx context.Context, tx pgx.Tx, userID int64) (int, error) {
	return r.debit(ctx, tx, userID, "free_swipe_balance")
}

// DebitBoost consumes one boost credit under the same guard.
func (r *CreditRepo) DebitBoost(ctx context.Context, tx pgx.Tx, userID int64) (int, error) {
	return r.debit(ctx, tx, userID, "boost_balance")
}

func (r *CreditRepo) debit(ctx context.Context, tx pgx.Tx, userID int64, column string) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}

	var remaining int
	err := tx.QueryRow(ctx, fmt.Sprintf(`
UPDATE credit_accounts
SET
	%[1]s = %[1]s - 1,
	updated_at = NOW()
WHERE user_id = $1 AND %[1]s >= 1
RETURNING %[1]s
`, column), userID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientCredit
		}
		return 0, fmt.Errorf("debit %s: %w", column, err)
	}

	return remaining, nil
}

// ResetDailyFreeSwipes sets every stale account to the daily allotment.
// The stamp guard makes a replay for the same date a no-op.
func (r *CreditRepo) ResetDailyFreeSwipes(ctx context.Context, dateKey string, allotment int) (int64, error) {
	if strings.TrimSpace(dateKey) == "" || allotment < 0 {
		return 0, fmt.Errorf("invalid daily reset payload")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE credit_accounts
SET
	free_swipe_balance = $2,
	last_daily_reset = $1::date,
	updated_at = NOW()
WHERE last_daily_reset IS NULL OR last_daily_reset < $1::date
`, dateKey, allotment)
	if err != nil {
		return 0, fmt.Errorf("reset daily free swipes: %w", err)
	}

	return result.RowsAffected(), nil
}

// GrantMonthlyBoost increments the boost balance once per month per account.
// Month keys are YYYY-MM, so lexicographic comparison orders them correctly.
func (r *CreditRepo) GrantMonthlyBoost(ctx context.Context, monthKey string) (int64, error) {
	if strings.TrimSpace(monthKey) == "" {
		return 0, fmt.Errorf("invalid monthly grant payload")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE credit_accounts
SET
	boost_balance = boost_balance + 1,
	last_monthly_grant = $1,
	updated_at = NOW()
WHERE last_monthly_grant IS NULL OR last_monthly_grant < $1
`, monthKey)
	if err != nil {
		return 0, fmt.Errorf("grant monthly boost: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *CreditRepo) GetBalance(ctx context.Context, userID int64) (CreditBalanceRecord, error) {
	if userID <= 0 {
		return CreditBalanceRecord{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return CreditBalanceRecord{UserID: userID}, nil
	}

	rec := CreditBalanceRecord{UserID: userID}
	err := r.pool.QueryRow(ctx, `
SELECT free_swipe_balance, boost_balance
FROM credit_accounts
WHERE user_id = $1
LIMIT 1
`, userID).Scan(&rec.FreeSwipeBalance, &rec.BoostBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CreditBalanceRecord{UserID: userID}, nil
		}
		return CreditBalanceRecord{}, fmt.Errorf("get credit balance: %w", err)
	}

	return rec, nil
}
