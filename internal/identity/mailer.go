package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/hongminglow/foodie-be/internal/config"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// NewMailer picks SMTP when a host is configured and falls back to logging.
func NewMailer(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

// LogMailer writes reset links to the log, for local runs.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	slog.Info("password reset requested", "to", to, "link", link)
	return nil
}

// SMTPMailer sends reset links through an SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func (m *SMTPMailer) SendPasswordReset(_ context.Context, to, link string) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", from)
	fmt.Fprintf(&body, "To: %s\r\n", to)
	body.WriteString("Subject: Reset your password\r\n")
	body.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	body.WriteString("Follow this link to choose a new password:\r\n\r\n")
	body.WriteString(link + "\r\n")

	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(body.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
