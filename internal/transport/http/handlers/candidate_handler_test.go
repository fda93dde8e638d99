package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	candidatessvc "github.com/shiftmatch/backend/internal/services/candidates"
	"github.com/shiftmatch/backend/internal/transport/http/dto"
)

type candidatePoolStub struct {
	ids []int64
}

func (s *candidatePoolStub) FetchCandidatePool(context.Context, int64) ([]int64, error) {
	return append([]int64(nil), s.ids...), nil
}

type swipeListStub struct {
	swiped []int64
}

func (s *swipeListStub) ListTargetIDs(context.Context, int64) ([]int64, error) {
	return append([]int64(nil), s.swiped...), nil
}

func TestCandidateHandlerReturnsDeck(t *testing.T) {
	svc := candidatessvc.NewService(
		&candidatePoolStub{ids: []int64{9, 5, 3}},
		&swipeListStub{swiped: []int64{5}},
		nil,
		nil,
	)
	h := NewCandidateHandler(svc)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/candidates", nil), 101)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var payload dto.CandidatesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := []int64{9, 3}
	if len(payload.Items) != len(want) {
		t.Fatalf("unexpected deck: %v", payload.Items)
	}
	for i, id := range want {
		if payload.Items[i] != id {
			t.Fatalf("order mismatch at %d: got %d want %d", i, payload.Items[i], id)
		}
	}
}

func TestCandidateHandlerRequiresAuth(t *testing.T) {
	h := NewCandidateHandler(candidatessvc.NewService(&candidatePoolStub{}, &swipeListStub{}, nil, nil))

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/candidates", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}
