package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/yungbote/zahnovia-backend/internal/platform/gcp"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type gmailMailer struct {
	log  *logger.Logger
	svc  *gmail.Service
	from string
}

func NewGmail(ctx context.Context, log *logger.Logger, cfg Config, creds gcp.Credentials) (Mailer, error) {
	if !creds.HasRefreshToken() {
		return nil, fmt.Errorf("gmail backend requires GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN")
	}
	svc, err := gmail.NewService(ctx, gcp.ClientOptions(ctx, creds, gmail.GmailSendScope)...)
	if err != nil {
		return nil, fmt.Errorf("gmail client: %w", err)
	}
	from := cfg.From
	if cfg.FromName != "" {
		from = (&mail.Address{Name: cfg.FromName, Address: cfg.From}).String()
	}
	return &gmailMailer{log: log.With("mailer", "gmail"), svc: svc, from: from}, nil
}

func (m *gmailMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	raw, err := BuildMIME(m.from, msg, time.Now())
	if err != nil {
		return err
	}
	_, err = m.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	m.log.Info("Mail sent", "subject", msg.Subject, "recipients", len(msg.To))
	return nil
}

// BuildMIME renders an RFC 5322 message. Text and HTML become a
// multipart/alternative body; attachments wrap it in multipart/mixed.
func BuildMIME(from string, msg Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, "From", from)
	writeHeader(&buf, "To", strings.Join(msg.To, ", "))
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&buf, "Date", now.Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")

	if len(msg.Attachments) == 0 {
		if err := writeBody(&buf, msg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mixed := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	buf.WriteString("\r\n")

	var body bytes.Buffer
	if err := writeBody(&body, msg); err != nil {
		return nil, err
	}
	bodyHeader, bodyContent := splitHeader(body.Bytes())
	part, err := mixed.CreatePart(bodyHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(bodyContent); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		ct := a.MIMEType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", ct)
		h.Set("Content-Transfer-Encoding", "base64")
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
		p, err := mixed.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := p.Write(wrapBase64(a.Content)); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBody writes the content headers, a blank line and the body.
func writeBody(buf *bytes.Buffer, msg Message) error {
	hasText := strings.TrimSpace(msg.Text) != ""
	hasHTML := strings.TrimSpace(msg.HTML) != ""

	if hasText != hasHTML {
		ct, content := "text/plain; charset=utf-8", msg.Text
		if hasHTML {
			ct, content = "text/html; charset=utf-8", msg.HTML
		}
		writeHeader(buf, "Content-Type", ct)
		writeHeader(buf, "Content-Transfer-Encoding", "base64")
		buf.WriteString("\r\n")
		buf.Write(wrapBase64([]byte(content)))
		return nil
	}

	alt := multipart.NewWriter(buf)
	writeHeader(buf, "Content-Type", "multipart/alternative; boundary="+alt.Boundary())
	buf.WriteString("\r\n")
	for _, p := range []struct{ ct, content string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", p.ct)
		h.Set("Content-Transfer-Encoding", "base64")
		w, err := alt.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := w.Write(wrapBase64([]byte(p.content))); err != nil {
			return err
		}
	}
	return alt.Close()
}

func splitHeader(b []byte) (textproto.MIMEHeader, []byte) {
	idx := bytes.Index(b, []byte("\r\n\r\n"))
	h := textproto.MIMEHeader{}
	if idx < 0 {
		return h, b
	}
	for _, line := range strings.Split(string(b[:idx]), "\r\n") {
		k, v, ok := strings.Cut(line, ":")
		if ok {
			h.Set(strings.TrimSpace(k), strings.TrimSpace(v))
		}
	}
	return h, b[idx+4:]
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func wrapBase64(data []byte) []byte {
	enc := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	for len(enc) > 76 {
		out.WriteString(enc[:76])
		out.WriteString("\r\n")
		enc = enc[76:]
	}
	out.WriteString(enc)
	out.WriteString("\r\n")
	return out.Bytes()
}
