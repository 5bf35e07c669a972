package mail

import (
	"context"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/config"
	"github.com/spec-kit/workflow-service/internal/domain"
)

func testAlert() SLAAlert {
	return SLAAlert{
		TicketTitle: "Printer on fire",
		TicketRef:   ObfuscateID("tk-1"),
		TeamID:      "team-1",
		Level:       2,
		DueDate:     time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
		Link:        "https://desk.example.com/tickets/" + ObfuscateID("tk-1"),
	}
}

func TestSendSLAAlertRendersAndSends(t *testing.T) {
	mailer, err := NewSMTPMailer(config.MailConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "alerts@example.com",
	}, zap.NewNop())
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	mailer.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	user := domain.User{ID: "user-1", Name: "Dana", Email: "dana@example.com"}
	require.NoError(t, mailer.SendSLAAlert(context.Background(), user, testAlert()))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "alerts@example.com", gotFrom)
	assert.Equal(t, []string{"dana@example.com"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: SLA breached: Printer on fire")
	assert.Contains(t, body, "Hello Dana")
	assert.Contains(t, body, "escalation level 2")
	assert.Contains(t, body, "https://desk.example.com/tickets/")
}

func TestSendSLAAlertEscapesHTMLInTitle(t *testing.T) {
	mailer, err := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 25, From: "alerts@example.com"}, zap.NewNop())
	require.NoError(t, err)

	var gotMsg []byte
	mailer.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	alert := testAlert()
	alert.TicketTitle = `<script>alert("x")</script>`
	user := domain.User{ID: "user-1", Name: "Dana", Email: "dana@example.com"}
	require.NoError(t, mailer.SendSLAAlert(context.Background(), user, alert))

	assert.Contains(t, string(gotMsg), "&lt;script&gt;")
}

func TestSendSLAAlertDisabledWithoutHost(t *testing.T) {
	mailer, err := NewSMTPMailer(config.MailConfig{}, zap.NewNop())
	require.NoError(t, err)

	called := false
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	user := domain.User{ID: "user-1", Email: "dana@example.com"}
	require.NoError(t, mailer.SendSLAAlert(context.Background(), user, testAlert()))
	assert.False(t, called)
}

func TestSendSLAAlertRequiresRecipientEmail(t *testing.T) {
	mailer, err := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 25}, zap.NewNop())
	require.NoError(t, err)

	err = mailer.SendSLAAlert(context.Background(), domain.User{ID: "user-1"}, testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email")
}

func TestObfuscateIDIsURLSafe(t *testing.T) {
	ref := ObfuscateID("tk-1")
	assert.NotEqual(t, "tk-1", ref)
	assert.NotContains(t, ref, "/")
	assert.NotContains(t, ref, "+")
	assert.NotContains(t, ref, "=")
}
