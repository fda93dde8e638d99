package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/shiftmatch/backend/internal/services/auth"
	creditssvc "github.com/shiftmatch/backend/internal/services/credits"
	"github.com/shiftmatch/backend/internal/transport/http/dto"
	httperrors "github.com/shiftmatch/backend/internal/transport/http/errors"
)

type CreditsHandler struct {
	service *creditssvc.Service
}

func NewCreditsHandler(service *creditssvc.Service) *CreditsHandler {
	return &CreditsHandler{service: service}
}

func (h *CreditsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CREDITS_SERVICE_UNAVAILABLE", "credits service is unavailable")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, creditssvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid credits request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load credit balance")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CreditBalanceResponse{
		FreeSwipes:   balance.FreeSwipeBalance,
		BoostCredits: balance.BoostBalance,
	})
}
