package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"dndbuilder/internal/logger"
)

// Message is a single HTML email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	cfg    Config
	server string
	auth   smtp.Auth
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a sender for the configured relay. PLAIN auth is
// used when a username is set.
func NewSMTPSender(cfg Config) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		cfg:    cfg,
		server: cfg.Host + ":" + cfg.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// Send writes a multipart/alternative message with a plain-text fallback.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.send(s.server, s.auth, s.cfg.From, m.To, buildMessage(s.cfg, m))
}

func buildMessage(cfg Config, m Message) []byte {
	from := cfg.From
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
	}
	boundary := "boundary-dndbuilder"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", sanitizeHeader(m.Subject))
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "Please view this email in an HTML-capable email client.\r\n\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\n", m.HTML)
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

// logSender logs messages instead of delivering them.
type logSender struct{}

func (logSender) Send(ctx context.Context, m Message) error {
	logger.FromContext(ctx).Info("smtp not configured, email not delivered",
		zap.Strings("to", m.To), zap.String("subject", m.Subject))
	return nil
}
