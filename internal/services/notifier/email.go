package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

// EmailConfig holds SMTP settings for the email channel.
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
}

// EmailChannel delivers notifications over SMTP. Single attempt per
// message; a failure falls through to the next channel.
type EmailChannel struct {
	cfg EmailConfig

	// sendMail is overridable for tests
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailChannel creates the email channel. Missing host, sender or
// recipients yield an unavailable channel.
func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg, sendMail: smtp.SendMail}
}

func (c *EmailChannel) Name() string { return ChannelEmail }

func (c *EmailChannel) Available() bool {
	return c.cfg.Host != "" && c.cfg.From != "" && len(c.cfg.To) > 0
}

// Send delivers the message as a plain-text email. The SMTP exchange
// runs under the caller's context: on expiry Send returns so the
// dispatcher can fall through instead of wedging the cycle on a hung
// connection.
func (c *EmailChannel) Send(ctx context.Context, msg Message) error {
	if !c.Available() {
		return errors.New("email channel is not configured")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "email send aborted")
	}

	subject := msg.Subject
	if subject == "" {
		subject = fmt.Sprintf("dcabot %s notification", msg.Kind)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(c.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	port := c.cfg.Port
	if port == "" {
		port = "587"
	}
	addr := fmt.Sprintf("%s:%s", c.cfg.Host, port)

	done := make(chan error, 1)
	go func() {
		done <- c.sendMail(addr, auth, c.cfg.From, c.cfg.To, []byte(b.String()))
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "smtp send failed")
		}
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "smtp send timed out")
	}
}
