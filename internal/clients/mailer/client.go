// Package mailer composes MIME messages and delivers them over SMTP
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

// DefaultTimeout bounds dialing the SMTP server
const DefaultTimeout = 30 * time.Second

// Client implements Mailer using STARTTLS submission
type Client struct {
	config  common.SMTPConfig
	timeout time.Duration
	logger  *common.Logger
	now     func() time.Time
}

// NewClient creates a new SMTP mailer
func NewClient(config common.SMTPConfig, logger *common.Logger) *Client {
	if config.Port == 0 {
		config.Port = 587
	}
	return &Client{
		config:  config,
		timeout: DefaultTimeout,
		logger:  logger,
		now:     time.Now,
	}
}

// IsConfigured reports whether a host and sender are set
func (c *Client) IsConfigured() bool {
	return c.config.IsConfigured()
}

// Send composes msg and delivers it to msg.To
func (c *Client) Send(ctx context.Context, msg *models.EmailMessage) error {
	if !c.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	raw, err := c.Compose(msg)
	if err != nil {
		return err
	}

	if err := c.deliver(ctx, msg.To, raw); err != nil {
		c.logger.Error().Err(err).Str("to", msg.To).Msg("Failed to send email")
		return err
	}

	c.logger.Info().Str("to", msg.To).Int("attachments", len(msg.Attachments)).Msg("Email sent")
	return nil
}

// Compose renders msg as a multipart/mixed message: an alternative text/HTML body
// followed by one part per attachment.
func (c *Client) Compose(msg *models.EmailMessage) ([]byte, error) {
	var h mail.Header
	h.SetDate(c.now())
	h.SetAddressList("From", []*mail.Address{{Name: c.config.FromName, Address: c.config.From}})
	h.SetAddressList("To", []*mail.Address{{Name: msg.ToName, Address: msg.To}})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create body: %w", err)
	}
	if msg.TextBody != "" {
		if err := writeInline(tw, "text/plain", msg.TextBody); err != nil {
			return nil, err
		}
	}
	if msg.HTMLBody != "" {
		if err := writeInline(tw, "text/html", msg.HTMLBody); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close body: %w", err)
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		var ah mail.AttachmentHeader
		ah.SetContentType(contentType, nil)
		ah.SetFilename(att.Filename)

		w, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment %s: %w", att.Filename, err)
		}
		if _, err := w.Write(att.Content); err != nil {
			return nil, fmt.Errorf("failed to write attachment %s: %w", att.Filename, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to close attachment %s: %w", att.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInline(tw *mail.InlineWriter, contentType, body string) error {
	var ih mail.InlineHeader
	ih.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(ih)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return w.Close()
}

// deliver sends raw over a STARTTLS-upgraded connection
func (c *Client) deliver(ctx context.Context, to string, raw []byte) error {
	addr := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: c.config.Host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if c.config.Username != "" {
		auth := smtp.PlainAuth("", c.config.Username, c.config.Password, c.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(c.config.From); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set mail recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// Ensure Client implements Mailer
var _ interfaces.Mailer = (*Client)(nil)
