package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrApplicationNotFound = errors.New("application not found")

type ApplicationRepo struct {
	pool *pgxpool.Pool
}

type ApplicationRecord struct {
	ID             int64
	OwnerUserID    int64
	TargetEntityID int64
	CreatedAt      time.Time
}

func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

func (r *ApplicationRepo) GetApplication(ctx context.Context, applicationID int64) (ApplicationRecord, error) {
	if applicationID <= 0 {
		return ApplicationRecord{}, fmt.Errorf("invalid application id")
	}
	if r.pool == nil {
		return ApplicationRecord{}, ErrApplicationNotFound
	}

	var rec ApplicationRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, owner_user_id, target_entity_id, created_at
FROM applications
WHERE id = $1
LIMIT 1
`, applicationID).Scan(&rec.ID, &rec.OwnerUserID, &rec.TargetEntityID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ApplicationRecord{}, ErrApplicationNotFound
		}
		return ApplicationRecord{}, fmt.Errorf("get application: %w", err)
	}

	return rec, nil
}
