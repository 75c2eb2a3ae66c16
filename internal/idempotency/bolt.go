package idempotency

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "idempotency"

// ErrFingerprintMismatch means the key was reused with a different request.
var ErrFingerprintMismatch = errors.New("idempotency key reused with a different request")

// Record is the stored outcome of one keyed request. A record with Status 0 is still in flight.
type Record struct {
	Fingerprint string      `json:"fingerprint"`
	Status      int         `json:"status"`
	Header      http.Header `json:"header,omitempty"`
	Body        []byte      `json:"body,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (r Record) InFlight() bool { return r.Status == 0 }

// BoltStore keeps idempotency records in a single bolt bucket.
type BoltStore struct {
	db  *bolt.DB
	ttl time.Duration
}

// Open opens (or creates) the bolt file and ensures the bucket exists.
func Open(path string, ttl time.Duration) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BoltStore{db: db, ttl: ttl}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) expired(r Record, now time.Time) bool {
	return now.Sub(r.CreatedAt) > s.ttl
}

// Begin claims key for a new request. When a live record already exists it is returned with
// started=false and nothing is written.
func (s *BoltStore) Begin(key, fingerprint string, now time.Time) (rec Record, started bool, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if v := b.Get([]byte(key)); v != nil {
			var existing Record
			if err := json.Unmarshal(v, &existing); err != nil {
				return err
			}
			if !s.expired(existing, now) {
				if existing.Fingerprint != fingerprint {
					return ErrFingerprintMismatch
				}
				rec = existing
				return nil
			}
		}
		rec = Record{Fingerprint: fingerprint, CreatedAt: now}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		started = true
		return b.Put([]byte(key), data)
	})
	return rec, started, err
}

// Complete stores the final response for key.
func (s *BoltStore) Complete(key string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), data)
	})
}

// Release forgets key so the client may retry, used when the request did not succeed.
func (s *BoltStore) Release(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
}

// Purge deletes expired records and reports how many were removed.
func (s *BoltStore) Purge(now time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil || s.expired(r, now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}
