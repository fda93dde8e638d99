package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	pgrepo "github.com/shiftmatch/backend/internal/repo/postgres"
	authsvc "github.com/shiftmatch/backend/internal/services/auth"
	swipesvc "github.com/shiftmatch/backend/internal/services/swipes"
)

type applicationStoreStub struct {
	apps map[int64]pgrepo.ApplicationRecord
}

func (s *applicationStoreStub) GetApplication(_ context.Context, id int64) (pgrepo.ApplicationRecord, error) {
	app, ok := s.apps[id]
	if !ok {
		return pgrepo.ApplicationRecord{}, pgrepo.ErrApplicationNotFound
	}
	return app, nil
}

func newSwipeHandler() *SwipeHandler {
	svc := swipesvc.NewService(swipesvc.Dependencies{
		Applications: &applicationStoreStub{apps: map[int64]pgrepo.ApplicationRecord{
			10: {ID: 10, OwnerUserID: 999, TargetEntityID: 202},
		}},
	})
	return NewSwipeHandler(svc)
}

func TestSwipeHandlerRequiresAuth(t *testing.T) {
	h := newSwipeHandler()

	req := httptest.NewRequest(http.MethodPost, "/swipes", bytes.NewReader([]byte(`{"target_id":2,"direction":"LIKE"}`)))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSwipeHandlerRejectsBadBody(t *testing.T) {
	h := newSwipeHandler()

	resp := performSwipeRequest(t, h, []byte(`{"target_id":0,"direction":""}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusBadRequest)
	}

	resp = performSwipeRequest(t, h, []byte(`not json`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for garbage body: got %d want %d", resp.Code, http.StatusBadRequest)
	}

	resp = performSwipeRequest(t, h, []byte(`{"target_id":2,"direction":"LIKE","extra":true}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for unknown field: got %d want %d", resp.Code, http.StatusBadRequest)
	}
}

func TestSwipeHandlerRejectsSelfSwipe(t *testing.T) {
	h := newSwipeHandler()

	resp := performSwipeRequest(t, h, []byte(`{"target_id":101,"direction":"LIKE"}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusBadRequest)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected error code: %q", payload.Code)
	}
}

func TestSkipApplicationHandlerForeignApplication(t *testing.T) {
	h := newSwipeHandler()

	req := httptest.NewRequest(http.MethodPost, "/applications/10/skip", nil)
	req = withIdentity(req, 101)
	req = withURLParam(req, "id", "10")
	rec := httptest.NewRecorder()
	h.SkipApplication(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusForbidden)
	}
}

func TestSkipApplicationHandlerMissingApplication(t *testing.T) {
	h := newSwipeHandler()

	req := httptest.NewRequest(http.MethodPost, "/applications/404/skip", nil)
	req = withIdentity(req, 101)
	req = withURLParam(req, "id", "404")
	rec := httptest.NewRecorder()
	h.SkipApplication(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotFound)
	}
}

func performSwipeRequest(t *testing.T, h *SwipeHandler, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/swipes", bytes.NewReader(body))
	req = withIdentity(req, 101)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func withIdentity(req *http.Request, userID int64) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: userID,
		Role:   "worker",
	}))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
