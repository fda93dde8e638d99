package handlers

import (
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/shiftmatch/backend/internal/services/auth"
	swipesvc "github.com/shiftmatch/backend/internal/services/swipes"
	"github.com/shiftmatch/backend/internal/transport/http/dto"
	httperrors "github.com/shiftmatch/backend/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
}

func NewSwipeHandler(service *swipesvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.TargetID <= 0 || strings.TrimSpace(req.Direction) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and direction are required")
		return
	}

	result, err := h.service.Swipe(r.Context(), identity.UserID, req.TargetID, req.Direction)
	if err != nil {
		writeSwipeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toSwipeResponse(result))
}

// SkipApplication dismisses the target behind one of the caller's own
// applications without spending a credit.
func (h *SwipeHandler) SkipApplication(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	applicationID, ok := idFromURL(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid application id")
		return
	}

	result, err := h.service.SkipApplication(r.Context(), identity.UserID, applicationID)
	if err != nil {
		writeSwipeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toSwipeResponse(result))
}

func writeSwipeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, swipesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
	case errors.Is(err, swipesvc.ErrInvalidTarget):
		writeNotFound(w, "TARGET_NOT_FOUND", "swipe target not found")
	case errors.Is(err, swipesvc.ErrDuplicateSwipe):
		writeConflict(w, "DUPLICATE_SWIPE", "target already swiped")
	case errors.Is(err, swipesvc.ErrInsufficientCredit):
		httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
			Code:    "INSUFFICIENT_CREDIT",
			Message: "no swipe credits remaining",
		})
	case errors.Is(err, swipesvc.ErrUnauthorized):
		writeForbidden(w, "FORBIDDEN", "application belongs to another user")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process swipe")
	}
}

func toSwipeResponse(result swipesvc.SwipeResult) dto.SwipeResponse {
	return dto.SwipeResponse{
		OK:             true,
		MatchCreated:   result.MatchCreated,
		MatchID:        result.MatchID,
		ConversationID: result.ConversationID,
		CreditUsed:     string(result.CreditUsed),
		Remaining:      result.Remaining,
	}
}
