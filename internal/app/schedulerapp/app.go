package schedulerapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shiftmatch/backend/internal/config"
	"github.com/shiftmatch/backend/internal/domain/rules"
	creditsjob "github.com/shiftmatch/backend/internal/jobs/credits"
	pgrepo "github.com/shiftmatch/backend/internal/repo/postgres"
	redrepo "github.com/shiftmatch/backend/internal/repo/redis"
	creditssvc "github.com/shiftmatch/backend/internal/services/credits"
)

// App is the scheduler deployment: it sleeps until the next configured
// tick, runs the replenishment pass, and repeats. Multiple instances are
// safe; the job's redis lock collapses concurrent runs.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	redis    *goredis.Client
	job      *creditsjob.Job
	now      func() time.Time
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for scheduler: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	creditsService := creditssvc.NewService(pgrepo.NewCreditRepo(pool), creditssvc.Config{
		DailyFreeSwipes: cfg.Credits.DailyFreeSwipes,
	})
	job := creditsjob.New(creditsService, redislock.New(redisClient), logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		postgres: pool,
		redis:    redisClient,
		job:      job,
		now:      time.Now,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("scheduler started",
		zap.Int("daily_reset_hour", a.cfg.Scheduler.DailyResetHour),
		zap.Int("daily_reset_minute", a.cfg.Scheduler.DailyResetMinute),
		zap.Int("monthly_grant_hour", a.cfg.Scheduler.MonthlyGrantHour),
		zap.Int("monthly_grant_minute", a.cfg.Scheduler.MonthlyGrantMinute),
	)

	errCh := make(chan error, 2)
	go func() {
		errCh <- a.runLoop(ctx, "daily reset", a.nextDailyRun, a.job.RunDailyReset)
	}()
	go func() {
		errCh <- a.runLoop(ctx, "monthly grant", a.nextMonthlyRun, a.job.RunMonthlyGrant)
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("scheduler stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

func (a *App) runLoop(ctx context.Context, name string, next func(time.Time) time.Time, run func(context.Context) error) error {
	for {
		runAt := next(a.now())
		a.logger.Info("next scheduled run", zap.String("job", name), zap.Time("at", runAt))

		timer := time.NewTimer(time.Until(runAt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if err := run(ctx); err != nil {
			// The pass is idempotent; log and keep the loop alive so a
			// transient failure does not kill the scheduler.
			a.logger.Error("scheduled run failed", zap.String("job", name), zap.Error(err))
		}
	}
}

func (a *App) nextDailyRun(now time.Time) time.Time {
	return rules.NextDailyRunAt(now, a.cfg.Scheduler.DailyResetHour, a.cfg.Scheduler.DailyResetMinute)
}

func (a *App) nextMonthlyRun(now time.Time) time.Time {
	return rules.NextMonthlyRunAt(now, a.cfg.Scheduler.MonthlyGrantHour, a.cfg.Scheduler.MonthlyGrantMinute)
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
