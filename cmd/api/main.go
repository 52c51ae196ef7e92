package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/askbox-backend/api/routes"
	"github.com/angelmondragon/askbox-backend/internal/auth"
	"github.com/angelmondragon/askbox-backend/internal/profiles"
	"github.com/angelmondragon/askbox-backend/internal/questions"
	"github.com/angelmondragon/askbox-backend/internal/users"
	"github.com/angelmondragon/askbox-backend/pkg/auth/session"
	"github.com/angelmondragon/askbox-backend/pkg/cache"
	"github.com/angelmondragon/askbox-backend/pkg/config"
	"github.com/angelmondragon/askbox-backend/pkg/db"
	"github.com/angelmondragon/askbox-backend/pkg/instance"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
	"github.com/angelmondragon/askbox-backend/pkg/metrics"
	"github.com/angelmondragon/askbox-backend/pkg/migrate"
	"github.com/angelmondragon/askbox-backend/pkg/redis"
	"github.com/angelmondragon/askbox-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

// sharedStore backs sessions and auth rate limits.
type sharedStore interface {
	session.Store
	io.Closer
	Ping(context.Context) error
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	accountMetrics := metrics.NewAccountMetrics(registry)

	sessionManager, err := session.NewManager(store, cfg.JWT)
	if err != nil {
		return err
	}

	userRepo := users.NewRepository(dbClient.DB())
	hasher := security.NewArgon2Hasher(cfg.Password)

	registerParams := auth.RegisterServiceParams{
		TxRunner: dbClient,
		Lookup:   userRepo,
		UserRepoFactory: func(tx *gorm.DB) auth.UserWriter {
			return users.NewRepository(tx)
		},
		ProfileProvisionerFactory: func(tx *gorm.DB) auth.ProfileProvisioner {
			return profiles.NewProvisioner(tx, cfg.Accounts.DefaultAvatar)
		},
		Hasher:  hasher,
		Policy:  auth.PolicyFromConfig(cfg.Accounts),
		Metrics: accountMetrics,
		Logger:  logg,
	}
	registerService, err := auth.NewRegisterService(registerParams)
	if err != nil {
		return err
	}
	adminRegisterService, err := auth.NewAdminRegisterService(registerParams)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Verifier:       hasher,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Metrics:        accountMetrics,
	})
	if err != nil {
		return err
	}

	profileService, err := profiles.NewService(userRepo, profiles.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}
	questionService, err := questions.NewService(questions.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"driver":   dbClient.Dialect(),
		"instance": instance.ID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, store, registry, accountMetrics, sessionManager,
			authService, registerService, adminRegisterService,
			userRepo, profileService, questionService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore connects to Redis when configured and falls back to the
// in-process cache, which only suits a single instance.
func openStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (sharedStore, error) {
	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	logg.Warn(ctx, "redis not configured, using in-memory session store")
	return cache.NewMemoryStore(cfg.JWT.RefreshTokenTTL(), 10*time.Minute), nil
}
