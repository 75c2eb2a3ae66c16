package idempotency

import (
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "idem.db"), time.Hour)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBeginCompleteReplay(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rec, started, err := s.Begin("u1:POST:/bookings:abc", "fp1", now)
	if err != nil || !started || !rec.InFlight() {
		t.Fatalf("first begin: %+v started=%t err=%v", rec, started, err)
	}
	rec, started, err = s.Begin("u1:POST:/bookings:abc", "fp1", now)
	if err != nil || started || !rec.InFlight() {
		t.Fatalf("concurrent begin: %+v started=%t err=%v", rec, started, err)
	}

	done := Record{Fingerprint: "fp1", Status: http.StatusCreated, Body: []byte(`{"id":1}`), CreatedAt: now}
	if err := s.Complete("u1:POST:/bookings:abc", done); err != nil {
		t.Fatalf("complete: %v", err)
	}
	rec, started, err = s.Begin("u1:POST:/bookings:abc", "fp1", now.Add(time.Minute))
	if err != nil || started || rec.Status != http.StatusCreated || string(rec.Body) != `{"id":1}` {
		t.Fatalf("replay: %+v started=%t err=%v", rec, started, err)
	}

	if _, _, err := s.Begin("u1:POST:/bookings:abc", "other", now); !errors.Is(err, ErrFingerprintMismatch) {
		t.Fatalf("expected fingerprint mismatch, got %v", err)
	}
}

func TestExpiredRecordsAreReplacedAndPurged(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, _, err := s.Begin("k1", "fp", now); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Begin("k2", "fp", now.Add(50*time.Minute)); err != nil {
		t.Fatal(err)
	}
	_, started, err := s.Begin("k1", "different", now.Add(2*time.Hour))
	if err != nil || !started {
		t.Fatalf("expired key should restart: started=%t err=%v", started, err)
	}

	n, err := s.Purge(now.Add(4 * time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("purge removed %d (err %v)", n, err)
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	if _, _, err := s.Begin("k", "fp", now); err != nil {
		t.Fatal(err)
	}
	if err := s.Release("k"); err != nil {
		t.Fatal(err)
	}
	if _, started, err := s.Begin("k", "fp", now); err != nil || !started {
		t.Fatalf("begin after release: started=%t err=%v", started, err)
	}
}
