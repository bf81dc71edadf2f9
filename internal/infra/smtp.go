package infra

import (
	"fmt"
	"net/smtp"

	"chicpos/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends mail with optional file attachments through the configured relay.
// Every send goes through a circuit breaker so a dead relay fails fast.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	breaker  *CircuitBreaker
	send     func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg *config.Config, breaker *CircuitBreaker) *Mailer {
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultBreakerConfig(), nil)
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  breaker,
		send:     func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
	}
}

// Configured reports whether a relay host was set.
func (m *Mailer) Configured() bool { return m.host != "" }

// Send mails body to to; attachmentPath may be empty.
func (m *Mailer) Send(to, subject, body, attachmentPath string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return m.breaker.Execute(func() error { return m.send(e, m.addr, auth) })
}
