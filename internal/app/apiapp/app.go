package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bsm/redislock"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shiftmatch/backend/internal/config"
	"github.com/shiftmatch/backend/internal/infra/telegram"
	creditsjob "github.com/shiftmatch/backend/internal/jobs/credits"
	pgrepo "github.com/shiftmatch/backend/internal/repo/postgres"
	redrepo "github.com/shiftmatch/backend/internal/repo/redis"
	authsvc "github.com/shiftmatch/backend/internal/services/auth"
	candidatessvc "github.com/shiftmatch/backend/internal/services/candidates"
	creditssvc "github.com/shiftmatch/backend/internal/services/credits"
	matchessvc "github.com/shiftmatch/backend/internal/services/matches"
	notifysvc "github.com/shiftmatch/backend/internal/services/notify"
	swipesvc "github.com/shiftmatch/backend/internal/services/swipes"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	cacheRepo := redrepo.NewCandidateCacheRepo(redisClient, cfg.Cache.CandidateTTL)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	creditRepo := pgrepo.NewCreditRepo(pool)
	candidateRepo := pgrepo.NewCandidateRepo(pool, 0)
	applicationRepo := pgrepo.NewApplicationRepo(pool)
	subscriptionRepo := pgrepo.NewSubscriptionRepo(pool)
	conversationRepo := pgrepo.NewConversationRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, 0)

	creditsService := creditssvc.NewService(creditRepo, creditssvc.Config{
		DailyFreeSwipes: cfg.Credits.DailyFreeSwipes,
	})
	candidatesService := candidatessvc.NewService(candidateRepo, swipeRepo, cacheRepo, log)
	matchesService := matchessvc.NewService(matchRepo, log)

	var sender notifysvc.Sender
	if cfg.Bot.Token != "" {
		if bot, err := telegram.NewBot(cfg.Bot.Token); err != nil {
			log.Warn("telegram bot init failed, notifications disabled", zap.Error(err))
		} else {
			sender = bot
		}
	}
	notifyService := notifysvc.NewService(subscriptionRepo, sender, log)

	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Pool:          pool,
		SwipeStore:    swipeRepo,
		MatchStore:    matchRepo,
		Ledger:        creditsService,
		Cache:         candidatesService,
		Applications:  applicationRepo,
		Conversations: conversationRepo,
		Notifier:      notifyService,
		Logger:        log,
	})

	creditsJob := creditsjob.New(creditsService, redislock.New(redisClient), log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		JWTManager:       jwtManager,
		SwipeService:     swipeService,
		CandidateService: candidatesService,
		CreditsService:   creditsService,
		MatchService:     matchesService,
		CreditsJob:       creditsJob,
		Logger:           log,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
