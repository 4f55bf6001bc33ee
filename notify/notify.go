// Package notify delivers transactional email and SMS. Delivery is always
// best effort: callers use Send, which logs failures instead of returning them.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/go-logr/logr"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Send delivers msg and swallows any error after logging it.
func Send(ctx context.Context, n Notifier, log logr.Logger, msg Message) {
	if n == nil || msg.To == "" {
		return
	}
	if err := n.Notify(ctx, msg); err != nil {
		log.Error(err, "failed to send notification", "to", msg.To, "subject", msg.Subject)
		return
	}
	log.V(1).Info("notification sent", "to", msg.To, "subject", msg.Subject)
}

// SMTPMailer sends plain text mail through an SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		sendMail: smtp.SendMail,
	}
}

func (m *SMTPMailer) Notify(_ context.Context, msg Message) error {
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	return m.sendMail(m.Host+":"+m.Port, auth, m.From, []string{msg.To}, m.render(msg))
}

func (m *SMTPMailer) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// LogMailer writes mail to the log. Used when no SMTP relay is configured.
type LogMailer struct {
	Log logr.Logger
}

func (m LogMailer) Notify(_ context.Context, msg Message) error {
	m.Log.Info("email (not sent, smtp not configured)", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
