package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepo reads registered push delivery endpoints. A user with no
// rows simply receives no notifications.
type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

type EndpointRecord struct {
	UserID int64
	ChatID int64
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

func (r *SubscriptionRepo) Endpoints(ctx context.Context, userID int64) ([]EndpointRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return []EndpointRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT user_id, chat_id
FROM push_subscriptions
WHERE user_id = $1
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list push endpoints: %w", err)
	}
	defer rows.Close()

	endpoints := make([]EndpointRecord, 0, 2)
	for rows.Next() {
		var rec EndpointRecord
		if err := rows.Scan(&rec.UserID, &rec.ChatID); err != nil {
			return nil, fmt.Errorf("scan push endpoint: %w", err)
		}
		endpoints = append(endpoints, rec)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate push endpoints: %w", rows.Err())
	}

	return endpoints, nil
}
