// Package email delivers backoffice notification mail over SMTP. When
// no SMTP host is configured a no-op sender keeps the callers working.
package email

import (
	"context"

	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/config"
)

// Sender delivers the backoffice notification emails.
type Sender interface {
	// SendCustomerAssigned notifies a consultant that a customer landed
	// on their list.
	SendCustomerAssigned(ctx context.Context, toEmail, consultantName, customerName string) error
	// SendTaskCompleted notifies the task creator that their task is done.
	SendTaskCompleted(ctx context.Context, toEmail, taskTitle string) error
	// SendPoolReminder notifies a manager about stale pool tasks.
	SendPoolReminder(ctx context.Context, toEmail string, pendingCount int) error
}

// NewSender picks the SMTP sender when configured, the no-op otherwise.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}

// NoopSender swallows every email. Used in development and tests.
type NoopSender struct{}

// Compile-time check that NoopSender implements Sender.
var _ Sender = NoopSender{}

func (NoopSender) SendCustomerAssigned(context.Context, string, string, string) error { return nil }

func (NoopSender) SendTaskCompleted(context.Context, string, string) error { return nil }

func (NoopSender) SendPoolReminder(context.Context, string, int) error { return nil }
