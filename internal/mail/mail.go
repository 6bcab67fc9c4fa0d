// Package mail delivers outgoing email. Messages arrive as template keys with
// parameters and are rendered here, at the edge, into English text.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"

	"hearth/internal/config"
	"hearth/internal/models"
	"hearth/internal/observability"
)

// Envelope is a message addressed to one recipient.
type Envelope struct {
	To      string
	Subject models.Message
	Body    models.Message
}

// Mailer sends an envelope.
type Mailer interface {
	Send(ctx context.Context, env Envelope) error
}

var templates = map[models.MessageKey]*template.Template{
	models.MessageEmailSubjectForgotPassword: template.Must(template.New("subject").Option("missingkey=error").Parse(
		"Password reset for {{.username}}")),
	models.MessageEmailContentForgotPassword: template.Must(template.New("body").Option("missingkey=error").Parse(
		"Hi {{.username}},\n\n" +
			"Someone (hopefully you) asked to reset the password for this account. " +
			"Use this key to choose a new password:\n\n{{.key}}\n\n" +
			"If you did not ask for this, you can ignore this message.\n")),
}

// Render expands msg into text.
func Render(msg models.Message) (string, error) {
	tmpl, ok := templates[msg.Key]
	if !ok {
		return "", fmt.Errorf("no mail template for %q", msg.Key)
	}
	params := msg.Params
	if params == nil {
		params = map[string]string{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render %s: %w", msg.Key, err)
	}
	return buf.String(), nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	send sendFunc
}

// NewSMTPMailer builds a mailer from cfg. It returns nil when SMTP is not
// configured, matching Settings.EmailEnabled.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	if !cfg.Settings().EmailEnabled {
		return nil
	}
	return &SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		send:     smtp.SendMail,
	}
}

// Send renders env and hands it to the relay.
func (m *SMTPMailer) Send(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, err := Render(env.Subject)
	if err != nil {
		return err
	}
	body, err := Render(env.Body)
	if err != nil {
		return err
	}
	if strings.ContainsAny(env.To, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("refusing header with line break")
	}

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	msg := []byte("To: " + env.To + "\r\n" +
		"From: " + m.From + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" + body)

	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	addr := m.Host + ":" + strconv.Itoa(m.Port)
	if err := send(addr, auth, m.From, []string{env.To}, msg); err != nil {
		observability.MailDeliveries.WithLabelValues("error").Inc()
		return fmt.Errorf("send mail: %w", err)
	}
	observability.MailDeliveries.WithLabelValues("sent").Inc()
	return nil
}
