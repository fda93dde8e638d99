package dto

type CandidatesResponse struct {
	Items []int64 `json:"items"`
}
