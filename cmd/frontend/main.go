package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/moviehub/frontend-session/internal/api"
	"github.com/moviehub/frontend-session/internal/api/handler"
	"github.com/moviehub/frontend-session/internal/api/metrics"
	"github.com/moviehub/frontend-session/internal/api/middleware"
	"github.com/moviehub/frontend-session/internal/core/ports"
	"github.com/moviehub/frontend-session/internal/core/service"
	"github.com/moviehub/frontend-session/internal/core/session"
	"github.com/moviehub/frontend-session/internal/infrastructure/authapi"
	"github.com/moviehub/frontend-session/internal/infrastructure/config"
	"github.com/moviehub/frontend-session/internal/infrastructure/db/memory"
	mongodb "github.com/moviehub/frontend-session/internal/infrastructure/db/mongo"
	redisdb "github.com/moviehub/frontend-session/internal/infrastructure/db/redis"
	"github.com/moviehub/frontend-session/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load(".env.local")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "moviehub-frontend",
	})

	checks := make(map[string]handler.Check)
	var cleanups []func(context.Context)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i](closeCtx)
		}
	}()

	// --- Session storage ---
	var storage ports.StorageFactory
	switch cfg.SessionBackend {
	case config.BackendRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func(context.Context) { _ = rdb.Close() })
		checks["redis"] = handler.RedisCheck(rdb)
		storage = redisdb.Factory(rdb, cfg.Session.StorageTTL)
	default:
		factory := memory.NewFactory(cfg.Session.StorageTTL)
		go factory.Run(ctx, cfg.Session.SweepInterval)
		storage = factory.For
	}

	// --- User directory for the local authentication service ---
	var users ports.UserRepository
	switch cfg.UserDirectory {
	case config.BackendMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func(ctx context.Context) { _ = client.Disconnect(ctx) })
		checks["mongodb"] = handler.MongoCheck(db)

		repo := mongodb.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure user indexes: %w", err)
		}
		users = repo
	default:
		users = memory.NewUserRepository()
	}

	if cfg.SeedDemoUsers {
		n, err := service.SeedDemoUsers(ctx, users, bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		log.Info().Int("added", n).Msg("demo users seeded")
	}

	auth, validator := authService(cfg, users, log)

	// --- Sessions ---
	storeOpts := []session.Option{
		session.WithRestoreTimeout(cfg.Session.RestoreTimeout),
		session.WithMetrics(metrics.Session{}),
	}
	if validator != nil {
		storeOpts = append(storeOpts, session.WithTokenValidator(validator))
	}
	registry := session.NewRegistry(storage, auth, session.RegistryConfig{
		IdleTTL:      cfg.Session.IdleTTL,
		StoreOptions: storeOpts,
		OnSizeChange: func(live int) { metrics.SessionsLive.Set(float64(live)) },
		Log:          log,
	})
	go registry.Run(ctx, cfg.Session.SweepInterval)

	e := api.NewRouter(api.Deps{
		Stores: registry,
		Cookie: middleware.CookieConfig{
			Name:   cfg.Session.CookieName,
			MaxAge: cfg.Session.StorageTTL,
			Secure: cfg.Session.CookieSecure,
		},
		GuardWait: cfg.Session.GuardWait,
		Checks:    checks,
		Log:       log,
	})

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("session_backend", cfg.SessionBackend).
			Str("user_directory", cfg.UserDirectory).
			Msg("frontend session service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// authService builds the authentication collaborator: the backend, backed
// by the local directory when fallback is enabled. With the backend disabled
// every token is ours, so restored sessions are checked against the
// directory through the returned validator.
func authService(cfg *config.Config, users ports.UserRepository, log zerolog.Logger) (ports.AuthService, ports.TokenValidator) {
	local := service.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL)
	if !cfg.AuthAPI.Enabled {
		return local, local
	}

	remote := authapi.NewClient(cfg.AuthAPI.URL, cfg.AuthAPI.Timeout)
	if !cfg.AuthAPI.Fallback {
		return remote, nil
	}
	fallback := service.NewFallbackAuthService(remote, local, log).OnFallback(func(op string) {
		metrics.AuthFallbacksTotal.WithLabelValues(op).Inc()
	})
	return fallback, nil
}
