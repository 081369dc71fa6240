package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/customers"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/email"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	apphttp "github.com/canerkaradagAI/high5-backoffice-sub000/internal/http"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/http/router"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/notification"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/scheduler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/tasks"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/config"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/db"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Redis backs the parameter cache and the cart-share queue. Both are
	// optional; without REDIS_URL parameters hit the database directly and
	// cart sharing is disabled.
	cache, closeCache := initCache(cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	shareEnqueuer, closeScheduler := initShareScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(pool, cfg, log, val)
	directoryModule := directory.NewModule(pool, log, val)
	paramsModule := params.NewModule(pool, cache, cfg, log, val)
	customersModule := customers.NewModule(pool, directoryModule.Repository(), paramsModule.Service(), eventBus, log, val)
	tasksModule := tasks.NewModule(pool, eventBus, log, val)
	cartsModule := carts.NewModule(pool, shareEnqueuer, eventBus, log, val)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, directoryModule.Repository(), log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			directoryModule,
			paramsModule,
			customersModule,
			tasksModule,
			cartsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initCache(cfg config.CacheConfig, log *logger.Logger) (*redis.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; parameter cache disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to parse redis url for parameter cache", "error", err)
		return nil, nil
	}

	client := redis.NewClient(opts)
	return client, func() {
		_ = client.Close()
	}
}

func initShareScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.CartShareEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; cart sharing disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize cart share scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
