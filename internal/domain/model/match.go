package model

import "time"

const (
	MatchStatusActive = "active"
	MatchStatusEnded  = "ended"
)

type Match struct {
	ID             int64     `json:"id"`
	UserAID        int64     `json:"user_a_id"`
	UserBID        int64     `json:"user_b_id"`
	Status         string    `json:"status"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Other returns the counterpart of userID in the pair.
func (m Match) Other(userID int64) int64 {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}
