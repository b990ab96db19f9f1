package clients

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"tickets/internal/observability"
)

// MailClient sends transactional mail over plain SMTP. Sends are triggered
// from event handlers, so delivery failures are returned and retried by the
// router rather than handled here.
type MailClient struct {
	addr    string // host:port
	auth    smtp.Auth
	from    string
	replyTo string
}

func NewMailClient(host string, port int, username, password, from, replyTo string) MailClient {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return MailClient{
		addr:    fmt.Sprintf("%s:%d", host, port),
		auth:    auth,
		from:    from,
		replyTo: replyTo,
	}
}

func (c MailClient) Send(ctx context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", c.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	if c.replyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", c.replyTo)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	err := smtp.SendMail(c.addr, c.auth, c.from, []string{to}, []byte(msg.String()))
	if err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}

	observability.FromContext(ctx).
		WithField("to", to).
		WithField("subject", subject).
		Info("Mail sent")
	return nil
}
