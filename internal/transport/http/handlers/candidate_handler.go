package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/shiftmatch/backend/internal/services/auth"
	candidatessvc "github.com/shiftmatch/backend/internal/services/candidates"
	"github.com/shiftmatch/backend/internal/transport/http/dto"
	httperrors "github.com/shiftmatch/backend/internal/transport/http/errors"
)

type CandidateHandler struct {
	service *candidatessvc.Service
}

func NewCandidateHandler(service *candidatessvc.Service) *CandidateHandler {
	return &CandidateHandler{service: service}
}

func (h *CandidateHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CANDIDATE_SERVICE_UNAVAILABLE", "candidate service is unavailable")
		return
	}

	deck, err := h.service.GetCandidates(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, candidatessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid candidates request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load candidates")
		}
		return
	}

	if deck == nil {
		deck = []int64{}
	}

	httperrors.Write(w, http.StatusOK, dto.CandidatesResponse{Items: deck})
}
