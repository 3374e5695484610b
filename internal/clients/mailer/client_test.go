package mailer

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

func testMessage() *models.EmailMessage {
	return &models.EmailMessage{
		To:       "investor@example.com",
		ToName:   "Asha",
		Subject:  "Your daily portfolio report",
		TextBody: "plain body",
		HTMLBody: "<h1>Report</h1>",
		Attachments: []models.Attachment{
			{Filename: "report.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3 test")},
		},
	}
}

func TestCompose_MultipartWithAttachment(t *testing.T) {
	c := NewClient(common.SMTPConfig{Host: "smtp.example.com", From: "reports@example.com", FromName: "ClearStock Report Engine"}, common.NewSilentLogger())
	c.now = func() time.Time { return time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC) }

	raw, err := c.Compose(testMessage())
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Your daily portfolio report", subject)

	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "reports@example.com", from[0].Address)

	var inline []string
	var attachments []string
	var attached []byte
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(p.Body)
		require.NoError(t, err)

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			inline = append(inline, string(body))
		case *mail.AttachmentHeader:
			name, _ := h.Filename()
			attachments = append(attachments, name)
			attached = body
		}
	}

	assert.Equal(t, []string{"plain body", "<h1>Report</h1>"}, inline)
	assert.Equal(t, []string{"report.pdf"}, attachments)
	assert.Equal(t, "%PDF-1.3 test", string(attached))
}

func TestSend_NotConfigured(t *testing.T) {
	c := NewClient(common.SMTPConfig{}, common.NewSilentLogger())
	assert.False(t, c.IsConfigured())
	assert.Error(t, c.Send(context.Background(), testMessage()))
}

// fakeSMTP accepts one plain session and records the DATA payload
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	data := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { io.WriteString(conn, s+"\r\n") }

		reply("220 localhost ESMTP")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 localhost")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				reply("250 OK")
			case cmd == "DATA":
				reply("354 go ahead")
				var body strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					body.WriteString(l)
				}
				data <- body.String()
				reply("250 queued")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 unsupported")
			}
		}
	}()
	return ln.Addr().String(), data
}

func TestSend_DeliversOverSMTP(t *testing.T) {
	addr, data := fakeSMTP(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c := NewClient(common.SMTPConfig{Host: host, Port: port, From: "reports@example.com"}, common.NewSilentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Send(ctx, testMessage()))

	select {
	case payload := <-data:
		assert.Contains(t, payload, "Subject: Your daily portfolio report")
		assert.Contains(t, payload, "multipart/mixed")
	case <-ctx.Done():
		t.Fatal("no message delivered")
	}
}
