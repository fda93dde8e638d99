package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepo is the default conversation-store collaborator. It mints
// one conversation id per match; creating twice for the same match returns
// the existing id.
type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) CreateConversation(ctx context.Context, matchID, userAID, userBID int64) (string, error) {
	if matchID <= 0 || userAID <= 0 || userBID <= 0 {
		return "", fmt.Errorf("invalid conversation payload")
	}
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	// DO UPDATE on the no-op column so RETURNING yields the surviving row
	// when the conversation already exists.
	var conversationID string
	err := r.pool.QueryRow(ctx, `
INSERT INTO conversations (
	match_id,
	conversation_id,
	user_a_id,
	user_b_id,
	created_at
) VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (match_id) DO UPDATE SET match_id = EXCLUDED.match_id
RETURNING conversation_id
`, matchID, uuid.NewString(), userAID, userBID).Scan(&conversationID)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	return conversationID, nil
}
