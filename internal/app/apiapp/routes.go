package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	creditsjob "github.com/shiftmatch/backend/internal/jobs/credits"
	authsvc "github.com/shiftmatch/backend/internal/services/auth"
	candidatessvc "github.com/shiftmatch/backend/internal/services/candidates"
	creditssvc "github.com/shiftmatch/backend/internal/services/credits"
	matchessvc "github.com/shiftmatch/backend/internal/services/matches"
	swipesvc "github.com/shiftmatch/backend/internal/services/swipes"
	"github.com/shiftmatch/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	JWTManager       *authsvc.JWTManager
	SwipeService     *swipesvc.Service
	CandidateService *candidatessvc.Service
	CreditsService   *creditssvc.Service
	MatchService     *matchessvc.Service
	CreditsJob       *creditsjob.Job
	Logger           *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	candidateHandler := handlers.NewCandidateHandler(deps.CandidateService)
	creditsHandler := handlers.NewCreditsHandler(deps.CreditsService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	jobsHandler := handlers.NewJobsHandler(deps.CreditsJob)
	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.With(authMW).Post("/swipes", swipeHandler.Handle)
	r.With(authMW).Post("/applications/{id}/skip", swipeHandler.SkipApplication)
	r.With(authMW).Get("/candidates", candidateHandler.Handle)
	r.With(authMW).Get("/credits", creditsHandler.Handle)
	r.With(authMW).Get("/matches", matchesHandler.Handle)
	r.With(authMW).Post("/matches/{id}/end", matchesHandler.End)

	// Manual job triggers: reachable on the private listener only, no user
	// auth. The passes themselves are idempotent and lock-guarded.
	r.Route("/internal/jobs", func(r chi.Router) {
		r.Post("/daily-reset", jobsHandler.DailyReset)
		r.Post("/monthly-grant", jobsHandler.MonthlyGrant)
	})
}
