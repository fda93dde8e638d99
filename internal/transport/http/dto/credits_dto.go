package dto

type CreditBalanceResponse struct {
	FreeSwipes   int `json:"free_swipes"`
	BoostCredits int `json:"boost_credits"`
}
