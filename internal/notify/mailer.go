package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

var ErrNotConfigured = errors.New("email service not configured")

// Mailer delivers a plain-text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SMTPConfig holds SMTP configuration.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends email via SMTP with PLAIN auth.
type SMTPMailer struct {
	cfg    SMTPConfig
	send   sendFunc
	logger zerolog.Logger
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg SMTPConfig, logger zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		send:   smtp.SendMail,
		logger: logger.With().Str("component", "email").Logger(),
	}
}

// Send delivers the message or gives up when ctx is done. The SMTP exchange
// itself keeps running in the background until the server answers.
func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if m.cfg.Host == "" || m.cfg.Port == 0 {
		return ErrNotConfigured
	}
	if recipient == "" {
		return fmt.Errorf("send email: empty recipient")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	msg := buildMessage(m.cfg.FromEmail, recipient, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, auth, m.cfg.FromEmail, []string{recipient}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			m.logger.Error().Err(err).Str("to", recipient).Msg("failed to send email")
			return fmt.Errorf("send email: %w", err)
		}
		m.logger.Info().Str("to", recipient).Str("subject", subject).Msg("email sent")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email: %w", ctx.Err())
	}
}

// headerLine folds CR and LF out of a header value.
var headerLine = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerLine.Replace(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerLine.Replace(to))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerLine.Replace(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
