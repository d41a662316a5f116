package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConf is read from SMTP_* env vars.
type SMTPConf struct {
	Host     string // SMTP_HOST, e.g. smtp.gmail.com
	Port     string // SMTP_PORT, e.g. 587
	Username string // SMTP_USERNAME
	Password string // SMTP_PASSWORD, app password or smtp password
	From     string // SMTP_FROM (为空时回退 Username)
	AppName  string // APP_NAME, e.g. Library
}

// Mail sends each notification as a plain-text email to the staff list.
type Mail struct {
	Conf SMTPConf
	To   []string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMail(conf SMTPConf, to []string) *Mail {
	return &Mail{Conf: conf, To: to, send: smtp.SendMail}
}

func (m *Mail) fromAddr() string {
	if m.Conf.From != "" {
		return m.Conf.From
	}
	return m.Conf.Username
}

func (m *Mail) Send(_ context.Context, text string) error {
	if len(m.To) == 0 {
		return nil
	}
	subject := fmt.Sprintf("%s notification", m.Conf.AppName)
	if first, _, _ := strings.Cut(text, "\n"); first != "" {
		subject = fmt.Sprintf("%s: %s", m.Conf.AppName, strings.TrimSuffix(first, ":"))
	}
	msg := buildPlainMIME(m.Conf.AppName, m.fromAddr(), m.To, subject, text)

	auth := smtp.PlainAuth("", m.Conf.Username, m.Conf.Password, m.Conf.Host)
	addr := m.Conf.Host + ":" + m.Conf.Port
	if err := m.send(addr, auth, m.fromAddr(), m.To, []byte(msg)); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

func buildPlainMIME(fromName, fromAddr string, to []string, subject, body string) string {
	headers := []string{
		fmt.Sprintf("From: %s <%s>", fromName, fromAddr),
		fmt.Sprintf("To: %s", strings.Join(to, ", ")),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + strings.ReplaceAll(body, "\n", "\r\n")
}
