package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/external"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/email"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/notification"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/scheduler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/config"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/db"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	notificationModule := notification.New(sender, repository.New(pool), log)
	notificationModule.RegisterHandlers(eventBus)

	// Periodically enqueue a sweep that reminds managers about idle tasks.
	reminderInterval := getDurationEnv("POOL_REMINDER_INTERVAL", 15*time.Minute)
	reminderThreshold := getPositiveIntEnv("POOL_REMINDER_OLDER_THAN_MINUTES", 30)
	go runPoolReminderLoop(ctx, cfg, log, reminderInterval, reminderThreshold)

	worker, err := scheduler.NewWorker(cfg, pool, external.NewSimulatedClient(), eventBus, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
}

// runPoolReminderLoop enqueues a pool reminder sweep on a fixed interval.
// The sweep itself runs inside the asynq worker so retries and dedup stay
// in one place.
func runPoolReminderLoop(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger, interval time.Duration, olderThanMinutes int) {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize pool reminder client", "error", err)
		return
	}
	defer func() { _ = client.Close() }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payload := scheduler.PoolReminderPayload{OlderThanMinutes: olderThanMinutes}
			if err := client.EnqueuePoolReminder(ctx, payload); err != nil {
				log.Error("failed to enqueue pool reminder", "error", err)
			}
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
