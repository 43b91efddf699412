package service

import (
	"context"
	"fmt"

	"github.com/go-mail/mail/v2"
	"github.com/kevinaaaquil/shelf/backend/models"
)

// Notifier tells users about changes to their account.
type Notifier interface {
	SuspensionChanged(ctx context.Context, user *models.User, blocked bool) error
}

// NopNotifier is used when SMTP is not configured.
type NopNotifier struct{}

func (NopNotifier) SuspensionChanged(context.Context, *models.User, bool) error { return nil }

type SMTPNotifier struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPNotifier(host string, port int, user, password, from string) *SMTPNotifier {
	d := mail.NewDialer(host, port, user, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	if from == "" {
		from = user
	}
	return &SMTPNotifier{dialer: d, from: from}
}

func (n *SMTPNotifier) SuspensionChanged(ctx context.Context, user *models.User, blocked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := n.suspensionMessage(user, blocked)
	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send suspension notice to %s: %w", user.Email, err)
	}
	return nil
}

func (n *SMTPNotifier) suspensionMessage(user *models.User, blocked bool) *mail.Message {
	subject := "Your library account has been reactivated"
	body := fmt.Sprintf("Hi %s,\n\nYour account is active again. You can sign in and continue reading.\n", user.Name)
	if blocked {
		subject = "Your library account has been suspended"
		body = fmt.Sprintf("Hi %s,\n\nAn administrator has suspended your account. "+
			"You will be signed out on your next request. Reply to this message if you believe this is a mistake.\n", user.Name)
	}
	m := mail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}
