package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/platform/sendgrid"
)

func decodePart(t *testing.T, p *multipart.Part) string {
	t.Helper()
	raw, err := io.ReadAll(p)
	if err != nil {
		t.Fatalf("read part: %v", err)
	}
	out, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(raw), "\r\n", ""))
	if err != nil {
		t.Fatalf("decode part: %v", err)
	}
	return string(out)
}

func TestBuildMIMEPlainText(t *testing.T) {
	raw, err := BuildMIME("noreply@example.com", Message{
		Subject: "Bestätigung",
		To:      []string{"a@example.com"},
		Text:    "Hallo Welt",
	}, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("BuildMIME: %v", err)
	}
	m, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	subject, err := new(mime.WordDecoder).DecodeHeader(m.Header.Get("Subject"))
	if err != nil || subject != "Bestätigung" {
		t.Fatalf("subject: %q err=%v", subject, err)
	}
	if !strings.HasPrefix(m.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("content type: %s", m.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(m.Body)
	dec, _ := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(body), "\r\n", ""))
	if string(dec) != "Hallo Welt" {
		t.Fatalf("body: %q", dec)
	}
}

func TestBuildMIMEWithAttachment(t *testing.T) {
	pdf := bytes.Repeat([]byte("%PDF-1.4 "), 40)
	raw, err := BuildMIME("noreply@example.com", Message{
		Subject:     "Erklärung",
		To:          []string{"a@example.com", "b@example.com"},
		Text:        "Text",
		HTML:        "<p>Text</p>",
		Attachments: []Attachment{{Filename: "DECL-2026-0001.pdf", MIMEType: "application/pdf", Content: pdf}},
	}, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("BuildMIME: %v", err)
	}
	m, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if m.Header.Get("To") != "a@example.com, b@example.com" {
		t.Fatalf("to: %s", m.Header.Get("To"))
	}
	mt, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	if err != nil || mt != "multipart/mixed" {
		t.Fatalf("media type: %s err=%v", mt, err)
	}

	mr := multipart.NewReader(m.Body, params["boundary"])
	body, err := mr.NextPart()
	if err != nil {
		t.Fatalf("body part: %v", err)
	}
	bt, bparams, _ := mime.ParseMediaType(body.Header.Get("Content-Type"))
	if bt != "multipart/alternative" {
		t.Fatalf("body type: %s", bt)
	}
	alt := multipart.NewReader(body, bparams["boundary"])
	plain, err := alt.NextPart()
	if err != nil {
		t.Fatalf("plain part: %v", err)
	}
	if got := decodePart(t, plain); got != "Text" {
		t.Fatalf("plain: %q", got)
	}
	html, err := alt.NextPart()
	if err != nil {
		t.Fatalf("html part: %v", err)
	}
	if got := decodePart(t, html); got != "<p>Text</p>" {
		t.Fatalf("html: %q", got)
	}

	att, err := mr.NextPart()
	if err != nil {
		t.Fatalf("attachment part: %v", err)
	}
	if att.FileName() != "DECL-2026-0001.pdf" {
		t.Fatalf("filename: %q", att.FileName())
	}
	if got := decodePart(t, att); got != string(pdf) {
		t.Fatalf("attachment content mismatch")
	}
}

func TestLogMailerValidates(t *testing.T) {
	m := NewLog(logger.Nop())
	if err := m.Send(context.Background(), Message{Subject: "x", Text: "y"}); err == nil {
		t.Fatalf("expected error without recipients")
	}
	if err := m.Send(context.Background(), Message{Subject: "x", Text: "y", To: []string{"a@example.com"}}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

type fakeSendGrid struct {
	got sendgrid.SendEmailRequest
}

func (f *fakeSendGrid) Send(_ context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	f.got = req
	return &sendgrid.SendEmailResult{StatusCode: 202}, nil
}

func TestSendGridMailerMapsMessage(t *testing.T) {
	fake := &fakeSendGrid{}
	m := NewSendGrid(logger.Nop(), fake, Config{From: "noreply@example.com", FromName: "Zahnovia"})
	err := m.Send(context.Background(), Message{
		Subject:     "s",
		To:          []string{"a@example.com"},
		Text:        "t",
		Attachments: []Attachment{{Filename: "a.pdf", Content: []byte("x")}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if fake.got.From.Email != "noreply@example.com" || fake.got.From.Name != "Zahnovia" {
		t.Fatalf("from: %+v", fake.got.From)
	}
	if len(fake.got.To) != 1 || len(fake.got.Attachments) != 1 {
		t.Fatalf("request: %+v", fake.got)
	}
}
