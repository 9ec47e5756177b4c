package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"propertytools_backend/internals/configs"
)

// Mailer delivers one HTML message to one address.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	Dialer *gomail.Dialer
	From   string
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	if err := m.Dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer only logs; used when SMTP is not configured.
type LogMailer struct {
	Log *zap.Logger
}

func (m LogMailer) Send(_ context.Context, to, subject, html string) error {
	m.Log.Info("[MAIL] smtp not configured, message logged",
		zap.String("to", to), zap.String("subject", subject), zap.Int("bytes", len(html)))
	return nil
}

// NewMailerFromEnv builds an SMTP mailer from SMTP_* env, falling back to LogMailer.
func NewMailerFromEnv(log *zap.Logger) Mailer {
	host := strings.TrimSpace(configs.GetEnv("SMTP_HOST"))
	if host == "" {
		return LogMailer{Log: log}
	}
	port := configs.GetEnvInt("SMTP_PORT", 587)
	user := configs.GetEnv("SMTP_USER")
	from := configs.GetEnv("SMTP_FROM", user)
	d := gomail.NewDialer(host, port, user, configs.GetEnv("SMTP_PASS"))
	return &SMTPMailer{Dialer: d, From: from}
}
