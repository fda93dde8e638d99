package model

type CreditAccount struct {
	UserID           int64 `json:"user_id"`
	FreeSwipeBalance int   `json:"free_swipe_balance"`
	BoostBalance     int   `json:"boost_balance"`
}
