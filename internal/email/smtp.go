package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const (
	subjectCustomerAssigned = "Yeni müşteri ataması"
	subjectTaskCompleted    = "Göreviniz tamamlandı"
	subjectPoolReminderFmt  = "Havuzda bekleyen %d görev var"
)

// SMTPSender delivers notification mail over a direct SMTP connection
// via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
}

// NewSMTPSender creates a sender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// Compile-time check that SMTPSender implements Sender.
var _ Sender = (*SMTPSender)(nil)

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendCustomerAssigned notifies a consultant about a new assignment.
func (s *SMTPSender) SendCustomerAssigned(ctx context.Context, toEmail, consultantName, customerName string) error {
	content, err := renderTemplate("customer_assigned", customerAssignedData{
		ConsultantName: consultantName,
		CustomerName:   customerName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectCustomerAssigned, content)
}

// SendTaskCompleted notifies the creator that their task is done.
func (s *SMTPSender) SendTaskCompleted(ctx context.Context, toEmail, taskTitle string) error {
	content, err := renderTemplate("task_completed", taskCompletedData{
		TaskTitle: taskTitle,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectTaskCompleted, content)
}

// SendPoolReminder notifies a manager about stale pool tasks.
func (s *SMTPSender) SendPoolReminder(ctx context.Context, toEmail string, pendingCount int) error {
	content, err := renderTemplate("pool_reminder", poolReminderData{
		PendingCount: pendingCount,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectPoolReminderFmt, pendingCount), content)
}
