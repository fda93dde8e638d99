package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CandidateRepo is the default implementation of the authoritative
// candidate pool. Rows are curated upstream; this repo only reads them in
// eligibility order (most recently eligible first).
type CandidateRepo struct {
	pool  *pgxpool.Pool
	limit int
}

func NewCandidateRepo(pool *pgxpool.Pool, limit int) *CandidateRepo {
	if limit <= 0 {
		limit = 200
	}
	return &CandidateRepo{pool: pool, limit: limit}
}

func (r *CandidateRepo) FetchCandidatePool(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return []int64{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT candidate_id
FROM candidate_pool
WHERE audience_user_id = $1
ORDER BY eligible_at DESC, candidate_id DESC
LIMIT $2
`, userID, r.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate pool: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, r.limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidate pool: %w", rows.Err())
	}

	return ids, nil
}
