package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/askbox-backend/api/controllers"
	"github.com/angelmondragon/askbox-backend/api/middleware"
	"github.com/angelmondragon/askbox-backend/internal/auth"
	"github.com/angelmondragon/askbox-backend/internal/profiles"
	"github.com/angelmondragon/askbox-backend/internal/questions"
	"github.com/angelmondragon/askbox-backend/internal/users"
	"github.com/angelmondragon/askbox-backend/pkg/auth/session"
	"github.com/angelmondragon/askbox-backend/pkg/config"
	"github.com/angelmondragon/askbox-backend/pkg/db"
	"github.com/angelmondragon/askbox-backend/pkg/enums"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
	"github.com/angelmondragon/askbox-backend/pkg/metrics"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// cacheStore is the shared session/rate-limit backend: Redis or the in-process cache.
type cacheStore interface {
	db.Pinger
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	store cacheStore,
	gatherer prometheus.Gatherer,
	accountMetrics *metrics.AccountMetrics,
	sessionManager sessionManager,
	authService auth.Service,
	registerService auth.RegisterService,
	adminRegisterService auth.AdminRegisterService,
	userRepo *users.Repository,
	profileService profiles.Service,
	questionService questions.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentifierLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterIdentifierLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]db.Pinger{
			"db":    dbP,
			"cache": store,
		}))
	})

	if cfg.Metrics.Enabled && gatherer != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, store, accountMetrics, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, store, accountMetrics, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, userRepo, cfg.JWT, logg))
	})

	if !cfg.App.IsProd() {
		r.Route("/api/admin/v1/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, store, accountMetrics, logg)).Post("/register", controllers.AdminAuthRegister(adminRegisterService, authService, logg))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Browsing the board is anonymous.
		r.Get("/questions", controllers.QuestionList(questionService, logg))
		r.Get("/questions/{questionId}", controllers.QuestionDetail(questionService, logg))
		r.Get("/search", controllers.Search(questionService, logg))
		r.Get("/users/{userId}/profile", controllers.ProfileGet(profileService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

			r.Put("/users/{userId}/profile", controllers.ProfileUpdate(profileService, logg))
			r.Post("/questions", controllers.QuestionCreate(questionService, logg))
			r.Post("/questions/{questionId}/answers", controllers.AnswerCreate(questionService, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.SystemRoleAdmin))
				r.Put("/users/{userId}/status", controllers.AdminSetAccountStatus(userRepo, logg))
			})
		})
	})

	return r
}
