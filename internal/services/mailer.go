package services

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/example/tindahan/internal/config"
)

// Mailer sends transactional email over SMTP. When SMTP is not configured it
// degrades to logging the message, which keeps local development working
// without a mail server.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

// NewMailer constructs a Mailer from SMTP configuration.
func NewMailer(cfg *config.Config, logger zerolog.Logger) *Mailer {
	m := &Mailer{from: cfg.SMTPFrom, logger: logger}
	if cfg.SMTPHost != "" {
		m.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	}
	return m
}

// SendOTP delivers a one-time login code to the given address.
func (m *Mailer) SendOTP(to, code string) error {
	subject := "Your login code"
	body := fmt.Sprintf("Your one-time login code is %s. It expires in a few minutes.\n\nIf you did not request this code, you can ignore this email.", code)

	if m.dialer == nil {
		m.logger.Warn().Str("to", to).Str("code", code).Msg("smtp not configured, otp not emailed")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error().Err(err).Str("to", to).Msg("failed to send otp email")
		return err
	}

	m.logger.Info().Str("to", to).Msg("otp email sent")
	return nil
}
