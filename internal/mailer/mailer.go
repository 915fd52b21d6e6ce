// Package mailer предоставляет клиент для отправки писем через SMTP.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const sendTimeout = 10 * time.Second

// Client инкапсулирует отправку почты через SMTP-сервер.
type Client struct {
	addr     string
	from     string
	username string
	password string
}

// NewClient создаёт SMTP-клиент. Пустой адрес означает, что отправка почты не настроена.
func NewClient(addr, from, username, password string) *Client {
	if addr == "" {
		return nil
	}
	return &Client{
		addr:     addr,
		from:     from,
		username: username,
		password: password,
	}
}

// Send отправляет письмо указанному получателю.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if c == nil || c.addr == "" {
		return fmt.Errorf("mailer not configured")
	}

	msg := strings.Join([]string{
		"From: " + c.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if c.username != "" {
		host, _, err := net.SplitHostPort(c.addr)
		if err != nil {
			return fmt.Errorf("parse smtp addr: %w", err)
		}
		auth = smtp.PlainAuth("", c.username, c.password, host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(c.addr, auth, c.from, []string{to}, []byte(msg))
	}()

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("send mail: timeout")
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	}
}
