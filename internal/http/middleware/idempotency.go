package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tourbook/internal/idempotency"
	"tourbook/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxKeyLen         = 128
	maxBodyBytes      = 1 << 20
)

// IdempotencyStore persists keyed responses.
type IdempotencyStore interface {
	Begin(key, fingerprint string, now time.Time) (idempotency.Record, bool, error)
	Complete(key string, rec idempotency.Record) error
	Release(key string) error
}

type responseCapture struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored 2xx response when a caller repeats a request with the same
// Idempotency-Key. Keys are scoped per caller, method and path; requests without a key pass through.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if raw == "" || store == nil {
			c.Next()
			return
		}
		if len(raw) > maxKeyLen {
			abortJSON(c, http.StatusBadRequest, "validation_error", "Idempotency-Key is too long")
			return
		}
		rc, _ := Caller(c)
		key := fmt.Sprintf("%d:%s:%s:%s", rc.UserID, c.Request.Method, c.Request.URL.Path, raw)

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortJSON(c, http.StatusRequestEntityTooLarge, "validation_error", "request body too large")
			return
		}
		if err != nil {
			abortJSON(c, http.StatusBadRequest, "validation_error", "unreadable request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		fingerprint := uuid.NewSHA1(uuid.NameSpaceURL, body).String()

		rec, started, err := store.Begin(key, fingerprint, time.Now().UTC())
		switch {
		case errors.Is(err, idempotency.ErrFingerprintMismatch):
			abortJSON(c, http.StatusConflict, "conflict", err.Error())
			return
		case err != nil:
			utils.LogEvent(GetRequestID(c), "idempotency", "begin", err.Error())
			abortJSON(c, http.StatusInternalServerError, "internal_error", "internal error")
			return
		case !started && rec.InFlight():
			abortJSON(c, http.StatusConflict, "conflict", "a request with this Idempotency-Key is still in progress")
			return
		case !started:
			for k, vals := range rec.Header {
				for _, v := range vals {
					c.Writer.Header().Add(k, v)
				}
			}
			c.Writer.Header().Set(replayedHeader, "true")
			c.Data(rec.Status, rec.Header.Get("Content-Type"), rec.Body)
			c.Abort()
			return
		}

		capture := &responseCapture{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = capture
		defer func() {
			// A panicking handler must not leave the key in flight; recovery runs further up.
			if p := recover(); p != nil {
				if err := store.Release(key); err != nil {
					utils.LogEvent(GetRequestID(c), "idempotency", "release", err.Error())
				}
				panic(p)
			}
		}()
		c.Next()

		status := capture.Status()
		if status < 200 || status >= 300 {
			if err := store.Release(key); err != nil {
				utils.LogEvent(GetRequestID(c), "idempotency", "release", err.Error())
			}
			return
		}
		done := idempotency.Record{
			Fingerprint: fingerprint,
			Status:      status,
			Header:      http.Header{"Content-Type": []string{capture.Header().Get("Content-Type")}},
			Body:        capture.body.Bytes(),
			CreatedAt:   rec.CreatedAt,
		}
		if err := store.Complete(key, done); err != nil {
			utils.LogEvent(GetRequestID(c), "idempotency", "complete", err.Error())
		}
	}
}
