package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"go.uber.org/zap"
)

const (
	dailyResetLockKey   = "credits:daily_reset"
	monthlyGrantLockKey = "credits:monthly_grant"
	lockTTL             = 2 * time.Minute
)

type creditLedger interface {
	ResetDailyFreeSwipes(ctx context.Context, asOf time.Time) (int64, error)
	GrantMonthlyBoostCredit(ctx context.Context, asOf time.Time) (int64, error)
}

// Job drives the scheduled replenishment passes. Each pass is a single
// set-based statement guarded by a redis lock, so concurrent scheduler
// instances and manual re-triggers collapse into one effective run.
type Job struct {
	ledger creditLedger
	locker *redislock.Client
	now    func() time.Time
	logger *zap.Logger
}

func New(ledger creditLedger, locker *redislock.Client, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		ledger: ledger,
		locker: locker,
		now:    time.Now,
		logger: logger,
	}
}

// RunDailyReset tops every stale account back up to the daily free-swipe
// allotment. Lock contention means another instance already holds the run
// for this tick, which is a clean no-op here.
func (j *Job) RunDailyReset(ctx context.Context) error {
	return j.runLocked(ctx, dailyResetLockKey, "daily free swipe reset", func(asOf time.Time) (int64, error) {
		return j.ledger.ResetDailyFreeSwipes(ctx, asOf)
	})
}

// RunMonthlyGrant adds one boost credit to every account not yet granted
// this month.
func (j *Job) RunMonthlyGrant(ctx context.Context) error {
	return j.runLocked(ctx, monthlyGrantLockKey, "monthly boost grant", func(asOf time.Time) (int64, error) {
		return j.ledger.GrantMonthlyBoostCredit(ctx, asOf)
	})
}

func (j *Job) runLocked(ctx context.Context, lockKey, name string, pass func(time.Time) (int64, error)) error {
	if j.ledger == nil {
		return fmt.Errorf("credit ledger is not configured")
	}

	if j.locker != nil {
		lock, err := j.locker.Obtain(ctx, lockKey, lockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			j.logger.Info("replenishment pass already running elsewhere", zap.String("job", name))
			return nil
		}
		if err != nil {
			return fmt.Errorf("obtain %s lock: %w", name, err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				j.logger.Warn("release job lock failed", zap.String("job", name), zap.Error(err))
			}
		}()
	}

	started := j.now().UTC()
	touched, err := pass(started)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	j.logger.Info("replenishment pass completed",
		zap.String("job", name),
		zap.Int64("accounts_touched", touched),
		zap.Duration("took", j.now().UTC().Sub(started)),
	)

	return nil
}
