package dto

type SwipeRequest struct {
	TargetID  int64  `json:"target_id"`
	Direction string `json:"direction"`
}

type SwipeResponse struct {
	OK             bool   `json:"ok"`
	MatchCreated   bool   `json:"match_created"`
	MatchID        int64  `json:"match_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	CreditUsed     string `json:"credit_used"`
	Remaining      int    `json:"remaining"`
}
