package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEmailSenderPostsToBrevo(t *testing.T) {
	var got brevoPayload
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"1"}`))
	}))
	defer srv.Close()

	s := NewEmailSender("key-123", "ops@tourbook.test", "Tourbook")
	s.Endpoint = srv.URL

	ev := NewEvent(BookingConfirmed, time.Now())
	ev.BookingNumber = "BK-0000ABCD"
	ev.CustomerEmail = "ana@example.com"
	if err := s.Send(context.Background(), ev); err != nil {
		t.Fatalf("send: %v", err)
	}
	if apiKey != "key-123" {
		t.Fatalf("api key header missing")
	}
	if len(got.To) != 1 || got.To[0]["email"] != "ana@example.com" || got.To[0]["name"] != "ana" {
		t.Fatalf("unexpected recipient %+v", got.To)
	}
	if !strings.Contains(got.Subject, "BK-0000ABCD") || !strings.Contains(got.Subject, "confirmed") {
		t.Fatalf("unexpected subject %q", got.Subject)
	}
}

func TestEmailSenderReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized"}`))
	}))
	defer srv.Close()

	s := NewEmailSender("bad", "ops@tourbook.test", "Tourbook")
	s.Endpoint = srv.URL

	ev := NewEvent(PaymentCompleted, time.Now())
	ev.CustomerEmail = "ana@example.com"
	if err := s.Send(context.Background(), ev); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestEmailSenderDisabledWithoutKey(t *testing.T) {
	if NewEmailSender("", "a@b.c", "x") != nil {
		t.Fatalf("sender without key should be nil")
	}
}
