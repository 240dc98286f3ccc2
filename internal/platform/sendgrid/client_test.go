package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

func TestSendPostsMailRequest(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("auth header: %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Send(context.Background(), SendEmailRequest{
		From:        EmailAddress{Email: "noreply@example.com"},
		To:          []EmailAddress{{Email: "lab@example.com"}},
		Subject:     "Hallo",
		Text:        "Text",
		Attachments: []Attachment{{Filename: "a.pdf", MIMEType: "application/pdf", Content: []byte("%PDF-1.4")}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.MessageID != "msg-1" || res.StatusCode != http.StatusAccepted {
		t.Fatalf("result: %+v", res)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Disposition != "attachment" {
		t.Fatalf("attachments: %+v", got.Attachments)
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "key", BaseURL: srv.URL, MaxRetries: 3})
	_, err := c.Send(context.Background(), SendEmailRequest{
		From:    EmailAddress{Email: "noreply@example.com"},
		To:      []EmailAddress{{Email: "lab@example.com"}},
		Subject: "Hallo",
		Text:    "Text",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected one call, got %d", n)
	}
}

func TestBuildRequestValidation(t *testing.T) {
	if _, err := buildRequest(SendEmailRequest{}); err == nil {
		t.Fatalf("expected error for empty request")
	}
	if _, err := buildRequest(SendEmailRequest{
		From:    EmailAddress{Email: "a@example.com"},
		To:      []EmailAddress{{Email: "b@example.com"}},
		Subject: "s",
	}); err == nil {
		t.Fatalf("expected error without content")
	}
}
