package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/external"
	cartrepo "github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	taskrepo "github.com/canerkaradagAI/high5-backoffice-sub000/internal/tasks/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/config"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes the background queue: cart shares to the external
// application and pool-task reminders.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	carts    cartrepo.Repository
	tasks    taskrepo.Repository
	external external.Client
	bus      events.Bus
	log      *logger.Logger
}

// NewWorker creates the asynq server and wires the task handlers.
func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, client external.Client, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		carts:    cartrepo.New(pool),
		tasks:    taskrepo.New(pool),
		external: client,
		bus:      bus,
		log:      log,
	}

	mux.HandleFunc(TaskCartShare, w.handleCartShare)
	mux.HandleFunc(TaskPoolReminder, w.handlePoolReminder)

	return w, nil
}

// Run serves the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleCartShare(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCartSharePayload(task)
	if err != nil {
		return err
	}

	cartID, err := uuid.Parse(payload.CartID)
	if err != nil {
		return err
	}

	cart, err := w.carts.GetByID(ctx, cartID)
	if err != nil {
		return err
	}

	shareErr := w.external.ShareCart(ctx, external.CartPayload{
		CartID:     cart.ID,
		CustomerID: cart.CustomerID,
		TotalCents: cart.TotalCents,
		ItemCount:  len(cart.Items),
	})
	succeeded := shareErr == nil

	if err := w.carts.RecordShareOutcome(ctx, cartID, succeeded); err != nil {
		w.log.Error("failed to record cart share outcome", "cart_id", cartID, "error", err)
	}

	if w.bus != nil {
		detail := ""
		if shareErr != nil {
			detail = shareErr.Error()
		}
		w.bus.Publish(ctx, events.CartShareCompleted{
			BaseEvent:  events.NewBaseEvent(),
			CartID:     cart.ID,
			CustomerID: cart.CustomerID,
			Succeeded:  succeeded,
			Detail:     detail,
		})
	}

	// Returning the error lets asynq retry transient external failures.
	return shareErr
}

func (w *Worker) handlePoolReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePoolReminderPayload(task)
	if err != nil {
		return err
	}

	olderThan := payload.OlderThanMinutes
	if olderThan < 1 {
		olderThan = 30
	}
	cutoff := time.Now().Add(-time.Duration(olderThan) * time.Minute)

	pending, err := w.tasks.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(pending))
	for _, t := range pending {
		ids = append(ids, t.ID)
	}

	w.log.Info("pool tasks waiting beyond threshold",
		"count", len(pending),
		"older_than_minutes", olderThan)

	if w.bus != nil {
		return w.bus.PublishSync(ctx, events.TaskPoolReminderDue{
			BaseEvent:    events.NewBaseEvent(),
			PendingCount: len(pending),
			OldestTaskID: pending[0].ID,
			TaskIDs:      ids,
		})
	}
	return nil
}
