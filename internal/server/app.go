// Package server wires configuration, storage, services and the HTTP API
// into a runnable application, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/config"
	"github.com/dmitrijs2005/accountd/internal/server/httpapi"
	"github.com/dmitrijs2005/accountd/internal/server/metrics"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountd/internal/server/revocation"
	"github.com/dmitrijs2005/accountd/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	redis       *redis.Client
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	userService *services.UserService
	authService *services.AuthService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, cfg.Debug)

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		repomanager: repomanager.NewPostgresRepositoryManager(),
	}

	var store revocation.Store
	if cfg.RedisAddr != "" {
		client, err := revocation.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = client
		store = revocation.NewRedisStore(client)
	} else {
		logger.Warn(ctx, "REDIS_ADDR not set, revoked tokens are kept in process memory")
		store = revocation.NewMemoryStore()
	}

	app.registry, app.metrics = metrics.NewRegistry()

	hasher := auth.NewHasher(auth.Argon2Params{
		Memory:      cfg.Argon2Memory,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
		SaltLength:  auth.DefaultArgon2Params().SaltLength,
		KeyLength:   auth.DefaultArgon2Params().KeyLength,
	}, cfg.HashConcurrency)

	app.userService = services.NewUserService(db, app.repomanager, hasher, app.metrics, logger)
	app.authService = services.NewAuthService(db, app.repomanager, services.AuthOptions{
		Users:                  app.userService,
		Hasher:                 hasher,
		Tokens:                 auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.TokenValidityDuration),
		Revocations:            store,
		VerifyAccountOnResolve: cfg.VerifyAccountOnResolve,
		Metrics:                app.metrics,
		Logger:                 logger,
	})

	return app, nil
}

// Users exposes account management to the admin CLI.
func (app *App) Users() *services.UserService {
	return app.userService
}

func (app *App) Logger() logging.Logger {
	return app.logger
}

// Migrate applies pending schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Close releases the database and Redis connections.
func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	errs = append(errs, app.db.Close())
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if !app.config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := httpapi.NewServer(httpapi.Options{
		Address:  app.config.EndpointAddrHTTP,
		Auth:     app.authService,
		Users:    app.userService,
		Cookie:   auth.CookieOptionsFor(app.config),
		DB:       app.db,
		Metrics:  app.metrics,
		Gatherer: app.registry,
		Logger:   app.logger,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run migrates the schema and serves HTTP until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.Close()
}
