package candidates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/shiftmatch/backend/internal/repo/redis"
)

type poolStub struct {
	ids   []int64
	calls int
	err   error
}

func (s *poolStub) FetchCandidatePool(context.Context, int64) ([]int64, error) {
	s.calls++
	return append([]int64(nil), s.ids...), s.err
}

type swipeStoreStub struct {
	swiped []int64
	err    error
}

func (s *swipeStoreStub) ListTargetIDs(context.Context, int64) ([]int64, error) {
	return append([]int64(nil), s.swiped...), s.err
}

func newCacheRepo(t *testing.T) *redrepo.CandidateCacheRepo {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redrepo.NewCandidateCacheRepo(client, time.Minute)
}

func TestGetCandidatesExcludesSwipedAndKeepsOrder(t *testing.T) {
	pool := &poolStub{ids: []int64{9, 5, 3, 7, 1}}
	swipes := &swipeStoreStub{swiped: []int64{5, 1}}
	svc := NewService(pool, swipes, newCacheRepo(t), nil)

	deck, err := svc.GetCandidates(context.Background(), 101)
	if err != nil {
		t.Fatalf("get candidates: %v", err)
	}

	want := []int64{9, 3, 7}
	if len(deck) != len(want) {
		t.Fatalf("unexpected deck size: got %d want %d", len(deck), len(want))
	}
	for i, id := range want {
		if deck[i] != id {
			t.Fatalf("order mismatch at %d: got %d want %d", i, deck[i], id)
		}
	}
}

func TestGetCandidatesServesFromCacheOnSecondRead(t *testing.T) {
	pool := &poolStub{ids: []int64{4, 2}}
	svc := NewService(pool, &swipeStoreStub{}, newCacheRepo(t), nil)
	ctx := context.Background()

	if _, err := svc.GetCandidates(ctx, 101); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := svc.GetCandidates(ctx, 101); err != nil {
		t.Fatalf("second read: %v", err)
	}

	if pool.calls != 1 {
		t.Fatalf("expected a single pool fetch, got %d", pool.calls)
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	pool := &poolStub{ids: []int64{4, 2}}
	swipes := &swipeStoreStub{}
	svc := NewService(pool, swipes, newCacheRepo(t), nil)
	ctx := context.Background()

	if _, err := svc.GetCandidates(ctx, 101); err != nil {
		t.Fatalf("warm read: %v", err)
	}

	// User swipes 2; the deck is invalidated and must exclude it afterwards.
	swipes.swiped = []int64{2}
	if err := svc.Invalidate(ctx, 101); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	deck, err := svc.GetCandidates(ctx, 101)
	if err != nil {
		t.Fatalf("read after invalidate: %v", err)
	}
	for _, id := range deck {
		if id == 2 {
			t.Fatalf("deck still contains swiped target 2: %v", deck)
		}
	}
	if pool.calls != 2 {
		t.Fatalf("expected recompute after invalidate, got %d pool fetches", pool.calls)
	}
}

func TestGetCandidatesSelfNeverIncluded(t *testing.T) {
	pool := &poolStub{ids: []int64{101, 4}}
	svc := NewService(pool, &swipeStoreStub{}, newCacheRepo(t), nil)

	deck, err := svc.GetCandidates(context.Background(), 101)
	if err != nil {
		t.Fatalf("get candidates: %v", err)
	}
	for _, id := range deck {
		if id == 101 {
			t.Fatalf("deck contains the viewer: %v", deck)
		}
	}
}

func TestGetCandidatesWorksWithoutCache(t *testing.T) {
	pool := &poolStub{ids: []int64{4, 2}}
	svc := NewService(pool, &swipeStoreStub{}, nil, nil)

	deck, err := svc.GetCandidates(context.Background(), 101)
	if err != nil {
		t.Fatalf("get candidates without cache: %v", err)
	}
	if len(deck) != 2 {
		t.Fatalf("unexpected deck: %v", deck)
	}
}

func TestGetCandidatesPoolErrorSurfaces(t *testing.T) {
	pool := &poolStub{err: errors.New("pool unavailable")}
	svc := NewService(pool, &swipeStoreStub{}, nil, nil)

	if _, err := svc.GetCandidates(context.Background(), 101); err == nil {
		t.Fatal("expected pool error to surface")
	}
}

func TestInvalidateForTargetDropsAffectedDecks(t *testing.T) {
	pool := &poolStub{ids: []int64{7, 8}}
	svc := NewService(pool, &swipeStoreStub{}, newCacheRepo(t), nil)
	ctx := context.Background()

	if _, err := svc.GetCandidates(ctx, 101); err != nil {
		t.Fatalf("warm read: %v", err)
	}

	if err := svc.InvalidateForTarget(ctx, 8); err != nil {
		t.Fatalf("invalidate for target: %v", err)
	}

	if _, err := svc.GetCandidates(ctx, 101); err != nil {
		t.Fatalf("read after target invalidate: %v", err)
	}
	if pool.calls != 2 {
		t.Fatalf("expected recompute after target invalidate, got %d pool fetches", pool.calls)
	}
}
