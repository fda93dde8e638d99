package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateSwipe = errors.New("swipe already recorded for target")

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

type SwipeRecord struct {
	ID             int64
	ActorUserID    int64
	TargetEntityID int64
	Direction      string
	CreditUsed     string
	CreatedAt      time.Time
}

// Create inserts the swipe record. The unique (actor, target) constraint is
// the linearization point for repeat swipes: the conflict path reports
// ErrDuplicateSwipe without touching the row.
func (r *SwipeRepo) Create(ctx context.Context, tx pgx.Tx, actorUserID, targetEntityID int64, direction, creditUsed string, now time.Time) (SwipeRecord, error) {
	if actorUserID <= 0 || targetEntityID <= 0 || strings.TrimSpace(direction) == "" {
		return SwipeRecord{}, fmt.Errorf("invalid swipe payload")
	}
	if tx == nil {
		return SwipeRecord{}, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rec SwipeRecord
	err := tx.QueryRow(ctx, `
INSERT INTO swipes (
	actor_user_id,
	target_entity_id,
	direction,
	credit_used,
	created_at
) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (actor_user_id, target_entity_id) DO NOTHING
RETURNING id, actor_user_id, target_entity_id, direction, credit_used, created_at
`, actorUserID, targetEntityID, strings.ToUpper(strings.TrimSpace(direction)), strings.ToUpper(strings.TrimSpace(creditUsed)), now.UTC()).Scan(
		&rec.ID,
		&rec.ActorUserID,
		&rec.TargetEntityID,
		&rec.Direction,
		&rec.CreditUsed,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SwipeRecord{}, ErrDuplicateSwipe
		}
		return SwipeRecord{}, fmt.Errorf("create swipe: %w", err)
	}

	return rec, nil
}

// SetCreditUsed stamps the credit type consumed for an already-inserted
// record, inside the same transaction as the debit.
func (r *SwipeRepo) SetCreditUsed(ctx context.Context, tx pgx.Tx, swipeID int64, creditUsed string) error {
	if swipeID <= 0 || strings.TrimSpace(creditUsed) == "" {
		return fmt.Errorf("invalid credit stamp payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
UPDATE swipes
SET credit_used = $2
WHERE id = $1
`, swipeID, strings.ToUpper(strings.TrimSpace(creditUsed))); err != nil {
		return fmt.Errorf("stamp swipe credit: %w", err)
	}

	return nil
}

// HasReciprocalLike reports whether target has an existing LIKE swipe
// pointing back at actor.
func (r *SwipeRepo) HasReciprocalLike(ctx context.Context, tx pgx.Tx, actorUserID, targetEntityID int64) (bool, error) {
	if actorUserID <= 0 || targetEntityID <= 0 {
		return false, fmt.Errorf("invalid reciprocal lookup payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var one int
	err := tx.QueryRow(ctx, `
SELECT 1
FROM swipes
WHERE actor_user_id = $1 AND target_entity_id = $2 AND direction = 'LIKE'
LIMIT 1
`, targetEntityID, actorUserID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reciprocal like: %w", err)
	}

	return true, nil
}

// ListTargetIDs returns every target the user has already swiped, for
// filtering the candidate cache recomputation.
func (r *SwipeRepo) ListTargetIDs(ctx context.Context, actorUserID int64) ([]int64, error) {
	if actorUserID <= 0 {
		return nil, fmt.Errorf("invalid actor user id")
	}
	if r.pool == nil {
		return []int64{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT target_entity_id
FROM swipes
WHERE actor_user_id = $1
`, actorUserID)
	if err != nil {
		return nil, fmt.Errorf("list swiped targets: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, 64)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan swiped target: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate swiped targets: %w", rows.Err())
	}

	return ids, nil
}
