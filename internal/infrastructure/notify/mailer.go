package notify

import (
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"
)

// Mailer delivers a single outbound email.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// SMTPConfig captures the settings for the outbound mail account.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends mail through a plain-auth SMTP relay using mailyak.
type SMTPMailer struct {
	addr     string
	auth     smtp.Auth
	from     string
	fromName string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:     smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (m *SMTPMailer) Send(to []string, subject, body string) error {
	mail := mailyak.New(m.addr, m.auth)
	mail.From(m.from)
	mail.FromName(m.fromName)
	mail.To(to...)
	mail.Subject(subject)
	mail.Plain().Set(body)

	if err := mail.Send(); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
