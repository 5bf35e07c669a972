package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/config"
	"github.com/spec-kit/workflow-service/internal/domain"
)

// SLAAlert is the variable bag for the SLA violation email template.
type SLAAlert struct {
	TicketTitle string
	TicketRef   string
	TeamID      string
	Level       int
	DueDate     time.Time
	Link        string
}

const slaAlertSubject = "SLA breached: %s"

const slaAlertTemplate = `<html><body>
<p>Hello {{.Name}},</p>
<p>The ticket <strong>{{.Alert.TicketTitle}}</strong> has breached its SLA.
It is now at escalation level {{.Alert.Level}}.</p>
<p>SLA due date: {{.Alert.DueDate.Format "2006-01-02 15:04 MST"}}</p>
<p><a href="{{.Alert.Link}}">Open the ticket</a></p>
</body></html>`

// SMTPMailer sends templated alert emails over SMTP. An empty host
// disables the channel; sends then succeed without doing anything.
type SMTPMailer struct {
	cfg    config.MailConfig
	tmpl   *template.Template
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer parses the alert template and returns the mailer.
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) (*SMTPMailer, error) {
	tmpl, err := template.New("sla_alert").Parse(slaAlertTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse sla alert template: %w", err)
	}
	return &SMTPMailer{
		cfg:    cfg,
		tmpl:   tmpl,
		logger: logger,
		send:   smtp.SendMail,
	}, nil
}

// SendSLAAlert renders and delivers the violation email.
func (m *SMTPMailer) SendSLAAlert(ctx context.Context, to domain.User, alert SLAAlert) error {
	if m.cfg.Host == "" {
		m.logger.Debug("smtp not configured; skipping email", zap.String("user_id", to.ID))
		return nil
	}
	if to.Email == "" {
		return fmt.Errorf("user %s has no email address", to.ID)
	}

	var body bytes.Buffer
	data := struct {
		Name  string
		Alert SLAAlert
	}{Name: to.Name, Alert: alert}
	if err := m.tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render sla alert: %w", err)
	}

	subject := fmt.Sprintf(slaAlertSubject, alert.TicketTitle)
	msg := buildMessage(m.cfg.From, to.Email, subject, body.Bytes())

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	done := make(chan error, 1)
	go func() { done <- m.send(addr, auth, m.cfg.From, []string{to.Email}, msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, subject string, body []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes()
}

// ObfuscateID encodes an internal id for use in external links.
func ObfuscateID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}
