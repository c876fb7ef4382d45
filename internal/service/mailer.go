package service

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/haatos/simple-qa/internal/settings"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// NewMailer returns an SMTP mailer when a host is configured and a mailer
// that only logs otherwise.
func NewMailer(s settings.SMTPSettings) Mailer {
	if s.Enabled() {
		return NewSMTPMailer(s)
	}
	return &LogMailer{}
}

type SMTPMailer struct {
	smtp     settings.SMTPSettings
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(s settings.SMTPSettings) *SMTPMailer {
	return &SMTPMailer{smtp: s, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.smtp.Username != "" {
		auth = smtp.PlainAuth("", m.smtp.Username, m.smtp.Password, m.smtp.Host)
	}
	if err := m.sendMail(
		m.smtp.Addr(),
		auth,
		m.smtp.From,
		[]string{email.To},
		buildMessage(m.smtp.From, email),
	); err != nil {
		return fmt.Errorf("err sending email to %s: %w", email.To, err)
	}
	return nil
}

func buildMessage(from string, email Email) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", email.To)
	fmt.Fprintf(&sb, "Subject: %s\r\n", sanitizeHeader(email.Subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(email.Body)
	return []byte(sb.String())
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

type LogMailer struct{}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	log.Printf("email to %s: %s\n", email.To, email.Subject)
	return nil
}
