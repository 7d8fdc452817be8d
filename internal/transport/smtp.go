// internal/transport/smtp.go
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig carries the server settings for the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

// SMTPTransport delivers notifications as email through a plain SMTP server.
// Useful for local runs against MailHog and for deployments without AWS
// credentials.
type SMTPTransport struct {
	config SMTPConfig

	// dialContext is swapped out in tests.
	dialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	dialer := &net.Dialer{}
	return &SMTPTransport{config: cfg, dialContext: dialer.DialContext}
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, msg Message) (Result, error) {
	raw := t.buildMessage(msg)
	addr := fmt.Sprintf("%s:%d", t.config.Host, t.config.Port)

	if err := t.deliver(ctx, addr, msg.From, []string{msg.To}, []byte(raw)); err != nil {
		return Result{}, err
	}

	return Result{
		Accepted:  true,
		MessageID: t.generateMessageID(msg.To),
	}, nil
}

// deliver speaks the SMTP session over a connection whose deadline comes
// from ctx, so a stalled server cannot outlive the caller's timeout.
func (t *SMTPTransport) deliver(ctx context.Context, addr, from string, to []string, msg []byte) error {
	conn, err := t.dialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set connection deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, t.config.Host)
	if err != nil {
		return fmt.Errorf("SMTP handshake failed: %w", err)
	}
	defer client.Close()

	if t.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: t.config.Host,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if t.config.Username != "" && t.config.Password != "" {
		auth := smtp.PlainAuth("", t.config.Username, t.config.Password, t.config.Host)
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func (t *SMTPTransport) buildMessage(msg Message) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("From: %s\r\n", formatAddress(msg.FromName, msg.From)))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", formatAddress(msg.ToName, msg.To)))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	builder.WriteString("MIME-Version: 1.0\r\n")

	body := msg.HTMLBody
	if body != "" {
		builder.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	} else {
		body = msg.TextBody
		builder.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	}

	builder.WriteString("\r\n")
	builder.WriteString(body)

	return builder.String()
}

func (t *SMTPTransport) generateMessageID(to string) string {
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), sanitizeLocalPart(to), t.config.Host)
}

func sanitizeLocalPart(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) == 0 {
		return "user"
	}
	local := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, parts[0])
	if len(local) > 10 {
		local = local[:10]
	}
	if local == "" {
		return "user"
	}
	return local
}
