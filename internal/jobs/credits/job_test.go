package credits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
)

type ledgerStub struct {
	resetCalls int
	grantCalls int
	resetAsOf  time.Time
	err        error
}

func (s *ledgerStub) ResetDailyFreeSwipes(_ context.Context, asOf time.Time) (int64, error) {
	s.resetCalls++
	s.resetAsOf = asOf
	return 3, s.err
}

func (s *ledgerStub) GrantMonthlyBoostCredit(context.Context, time.Time) (int64, error) {
	s.grantCalls++
	return 2, s.err
}

func newLocker(t *testing.T) (*redislock.Client, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redislock.New(client), client
}

func TestRunDailyResetWithoutLocker(t *testing.T) {
	ledger := &ledgerStub{}
	job := New(ledger, nil, nil)
	job.now = func() time.Time { return time.Date(2025, 6, 10, 0, 5, 0, 0, time.UTC) }

	if err := job.RunDailyReset(context.Background()); err != nil {
		t.Fatalf("daily reset: %v", err)
	}
	if ledger.resetCalls != 1 {
		t.Fatalf("expected one reset pass, got %d", ledger.resetCalls)
	}
	if !ledger.resetAsOf.Equal(time.Date(2025, 6, 10, 0, 5, 0, 0, time.UTC)) {
		t.Fatalf("unexpected asOf instant: %v", ledger.resetAsOf)
	}
}

func TestRunMonthlyGrant(t *testing.T) {
	ledger := &ledgerStub{}
	locker, _ := newLocker(t)
	job := New(ledger, locker, nil)

	if err := job.RunMonthlyGrant(context.Background()); err != nil {
		t.Fatalf("monthly grant: %v", err)
	}
	if ledger.grantCalls != 1 {
		t.Fatalf("expected one grant pass, got %d", ledger.grantCalls)
	}
}

func TestLockContentionIsCleanNoOp(t *testing.T) {
	ledger := &ledgerStub{}
	locker, _ := newLocker(t)

	held, err := locker.Obtain(context.Background(), dailyResetLockKey, time.Minute, nil)
	if err != nil {
		t.Fatalf("pre-obtain lock: %v", err)
	}
	defer func() { _ = held.Release(context.Background()) }()

	job := New(ledger, locker, nil)
	if err := job.RunDailyReset(context.Background()); err != nil {
		t.Fatalf("contended run must be a no-op, got %v", err)
	}
	if ledger.resetCalls != 0 {
		t.Fatalf("contended run must not touch the ledger, got %d calls", ledger.resetCalls)
	}
}

func TestLockReleasedAfterRun(t *testing.T) {
	ledger := &ledgerStub{}
	locker, _ := newLocker(t)
	job := New(ledger, locker, nil)

	if err := job.RunDailyReset(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := job.RunDailyReset(context.Background()); err != nil {
		t.Fatalf("second run after release: %v", err)
	}
	if ledger.resetCalls != 2 {
		t.Fatalf("expected both runs to execute, got %d", ledger.resetCalls)
	}
}

func TestLedgerErrorSurfaces(t *testing.T) {
	ledger := &ledgerStub{err: errors.New("db down")}
	job := New(ledger, nil, nil)

	if err := job.RunDailyReset(context.Background()); err == nil {
		t.Fatal("expected ledger error to surface")
	}
}
