package matches

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shiftmatch/backend/internal/domain/model"
	pgrepo "github.com/shiftmatch/backend/internal/repo/postgres"
)

type matchStoreStub struct {
	records  map[int64]pgrepo.MatchRecord
	statuses map[int64]string
	listErr  error
}

func (s *matchStoreStub) GetByID(_ context.Context, matchID int64) (pgrepo.MatchRecord, error) {
	rec, ok := s.records[matchID]
	if !ok {
		return pgrepo.MatchRecord{}, pgrepo.ErrMatchNotFound
	}
	return rec, nil
}

func (s *matchStoreStub) ListActiveForUser(_ context.Context, userID int64, _ int) ([]pgrepo.MatchRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var items []pgrepo.MatchRecord
	for _, rec := range s.records {
		if rec.Status != model.MatchStatusActive {
			continue
		}
		if rec.UserAID == userID || rec.UserBID == userID {
			items = append(items, rec)
		}
	}
	return items, nil
}

func (s *matchStoreStub) SetStatus(_ context.Context, matchID int64, status string) error {
	if _, ok := s.records[matchID]; !ok {
		return pgrepo.ErrMatchNotFound
	}
	if s.statuses == nil {
		s.statuses = make(map[int64]string)
	}
	s.statuses[matchID] = status
	return nil
}

func newStore() *matchStoreStub {
	return &matchStoreStub{records: map[int64]pgrepo.MatchRecord{
		1: {ID: 1, UserAID: 101, UserBID: 202, Status: model.MatchStatusActive, CreatedAt: time.Now()},
		2: {ID: 2, UserAID: 101, UserBID: 303, Status: model.MatchStatusEnded, CreatedAt: time.Now()},
	}}
}

func TestListActiveFiltersEnded(t *testing.T) {
	svc := NewService(newStore(), nil)

	items, err := svc.ListActive(context.Background(), 101, 50)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("expected only the active match, got %+v", items)
	}
}

func TestEndByParticipant(t *testing.T) {
	store := newStore()
	svc := NewService(store, nil)

	if err := svc.End(context.Background(), 202, 1); err != nil {
		t.Fatalf("end match: %v", err)
	}
	if store.statuses[1] != model.MatchStatusEnded {
		t.Fatalf("expected match 1 ended, got %q", store.statuses[1])
	}
}

func TestEndByOutsiderRejected(t *testing.T) {
	store := newStore()
	svc := NewService(store, nil)

	if err := svc.End(context.Background(), 999, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(store.statuses) != 0 {
		t.Fatalf("no status change expected, got %v", store.statuses)
	}
}

func TestEndAlreadyEndedIsNoOp(t *testing.T) {
	store := newStore()
	svc := NewService(store, nil)

	if err := svc.End(context.Background(), 101, 2); err != nil {
		t.Fatalf("ending an ended match must be a no-op, got %v", err)
	}
	if len(store.statuses) != 0 {
		t.Fatalf("no status write expected, got %v", store.statuses)
	}
}

func TestEndMissingMatch(t *testing.T) {
	svc := NewService(newStore(), nil)

	if err := svc.End(context.Background(), 101, 404); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}
