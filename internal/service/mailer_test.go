package service

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/haatos/simple-qa/internal/settings"
	"github.com/stretchr/testify/assert"
)

func TestSMTPMailer_Send(t *testing.T) {
	smtpSettings := settings.SMTPSettings{
		Host:     "smtp.example.com",
		Port:     2525,
		Username: "qa",
		Password: "secret",
		From:     "qa@example.com",
	}

	t.Run("success - message is sent to the recipient", func(t *testing.T) {
		// arrange
		m := NewSMTPMailer(smtpSettings)
		var gotAddr, gotFrom string
		var gotTo []string
		var gotMsg []byte
		m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		}

		// act
		err := m.Send(context.Background(), Email{
			To:      "dev@example.com",
			Subject: "Test run #1 Passed ✓\r\nBcc: evil@example.com",
			Body:    "all good",
		})

		// assert
		assert.NoError(t, err)
		assert.Equal(t, "smtp.example.com:2525", gotAddr)
		assert.Equal(t, "qa@example.com", gotFrom)
		assert.Equal(t, []string{"dev@example.com"}, gotTo)
		msg := string(gotMsg)
		assert.Contains(t, msg, "Subject: Test run #1 Passed ✓  Bcc: evil@example.com\r\n")
		assert.True(t, strings.HasSuffix(msg, "\r\n\r\nall good"))
	})
	t.Run("failure - smtp error is returned", func(t *testing.T) {
		m := NewSMTPMailer(smtpSettings)
		m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		}

		err := m.Send(context.Background(), Email{To: "dev@example.com"})

		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestNewMailer(t *testing.T) {
	t.Run("success - log mailer without smtp host", func(t *testing.T) {
		m := NewMailer(settings.SMTPSettings{})
		_, ok := m.(*LogMailer)
		assert.True(t, ok)
		assert.NoError(t, m.Send(context.Background(), Email{To: "dev@example.com"}))
	})
	t.Run("success - smtp mailer with host", func(t *testing.T) {
		_, ok := NewMailer(settings.SMTPSettings{Host: "smtp.example.com"}).(*SMTPMailer)
		assert.True(t, ok)
	})
}
