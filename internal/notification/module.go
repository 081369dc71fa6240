// Package notification subscribes to domain events and turns them into
// emails. Domain modules publish events without knowing about mail
// providers or templates; this module inverts that dependency.
package notification

import (
	"context"
	"fmt"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/roles"
	directoryrepo "github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/email"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// UserDirectory resolves recipients for notifications.
type UserDirectory interface {
	GetConsultant(ctx context.Context, id uuid.UUID) (directoryrepo.Consultant, error)
	ListActiveByRole(ctx context.Context, role string) ([]directoryrepo.Consultant, error)
}

// Module fans domain events out to email recipients.
type Module struct {
	sender    email.Sender
	directory UserDirectory
	log       *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, directory UserDirectory, log *logger.Logger) *Module {
	return &Module{sender: sender, directory: directory, log: log}
}

// RegisterHandlers subscribes the module to the events it emails about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.CustomerAssigned{}.EventName(), events.HandlerFunc(m.handleCustomerAssigned))
	bus.Subscribe(events.TaskCompleted{}.EventName(), events.HandlerFunc(m.handleTaskCompleted))
	bus.Subscribe(events.TaskPoolReminderDue{}.EventName(), events.HandlerFunc(m.handlePoolReminder))
}

func (m *Module) handleCustomerAssigned(ctx context.Context, event events.Event) error {
	assigned, ok := event.(events.CustomerAssigned)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	consultant, err := m.directory.GetConsultant(ctx, assigned.ConsultantID)
	if err != nil {
		return err
	}
	if consultant.Email == "" {
		return nil
	}

	if err := m.sender.SendCustomerAssigned(ctx, consultant.Email, consultant.FullName, assigned.CustomerName); err != nil {
		m.log.Error("failed to send assignment email",
			"consultant_id", assigned.ConsultantID, "error", err)
		return err
	}
	return nil
}

func (m *Module) handleTaskCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(events.TaskCompleted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	// The assignee completing their own creation needs no email.
	if completed.CreatedByID == completed.UserID {
		return nil
	}

	creator, err := m.directory.GetConsultant(ctx, completed.CreatedByID)
	if err != nil {
		return err
	}
	if creator.Email == "" {
		return nil
	}

	if err := m.sender.SendTaskCompleted(ctx, creator.Email, completed.Title); err != nil {
		m.log.Error("failed to send task completion email",
			"task_id", completed.TaskID, "error", err)
		return err
	}
	return nil
}

func (m *Module) handlePoolReminder(ctx context.Context, event events.Event) error {
	reminder, ok := event.(events.TaskPoolReminderDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	managers, err := m.directory.ListActiveByRole(ctx, string(roles.RoleStoreManager))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, manager := range managers {
		if manager.Email == "" {
			continue
		}
		g.Go(func() error {
			if err := m.sender.SendPoolReminder(gctx, manager.Email, reminder.PendingCount); err != nil {
				m.log.Error("failed to send pool reminder email",
					"manager_id", manager.ID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
