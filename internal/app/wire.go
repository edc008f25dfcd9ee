package app

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/bloomgrove/platform/internal/auth"
	"github.com/bloomgrove/platform/internal/domain"
	"github.com/bloomgrove/platform/internal/gamification"
	"github.com/bloomgrove/platform/internal/handler"
	"github.com/bloomgrove/platform/internal/repository"
	"github.com/bloomgrove/platform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	JWTMgr *auth.JWTManager
	Logger *slog.Logger
	// CORSOrigin is the allowed browser origin. Empty means "*".
	CORSOrigin string
	// ShuffleSeed seeds the recommendation shuffle. Zero means seed from the clock.
	ShuffleSeed int64
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	seed := deps.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// Repositories
	challengeRepo := repository.NewChallengeRepository()
	completionRepo := repository.NewCompletionRepository()
	progressRepo := repository.NewProgressRepository()
	badgeRepo := repository.NewBadgeRepository()
	userRepo := repository.NewUserRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Engines
	badgeEngine := gamification.NewBadgeEngine(completionRepo, progressRepo, badgeRepo, domain.DefaultBadgeRules())
	engine := gamification.NewEngine(challengeRepo, completionRepo, progressRepo, outboxRepo, badgeEngine)

	// Services
	authSvc := service.NewAuthService(pool, userRepo, outboxRepo, jwtMgr)
	challengeSvc := service.NewChallengeService(pool, engine, challengeRepo, completionRepo, progressRepo, rng, logger)
	badgeSvc := service.NewBadgeService(pool, badgeRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	challengeHandler := handler.NewChallengeHandler(challengeSvc)
	badgeHandler := handler.NewBadgeHandler(badgeSvc)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.CORSOrigin))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Auth routes (no auth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Public badge catalog (no auth)
	r.Get("/badges/catalog", badgeHandler.Catalog)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(jwtMgr))

		r.Route("/challenges", func(r chi.Router) {
			r.Get("/today", challengeHandler.Today)
			r.Get("/today/count", challengeHandler.TodayCount)
			r.Get("/by-category/{category}", challengeHandler.ByCategory)
			r.Post("/{id}/complete", challengeHandler.Complete)
			r.Get("/history", challengeHandler.History)
			r.Get("/ranking", challengeHandler.Ranking)
			r.Get("/stats", challengeHandler.Stats)
		})

		r.Get("/progress", challengeHandler.Progress)
		r.Get("/activity/recent", challengeHandler.RecentActivity)

		r.Get("/badges", badgeHandler.Mine)
		r.Get("/badges/new", badgeHandler.New)
		r.Post("/badges/read", badgeHandler.MarkRead)
	})

	return r
}
