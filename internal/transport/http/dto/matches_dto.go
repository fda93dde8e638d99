package dto

import "time"

type MatchItemResponse struct {
	ID        int64     `json:"id"`
	PartnerID int64     `json:"partner_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}
