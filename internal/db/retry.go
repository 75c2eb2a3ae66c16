package db

import (
	"context"
	"errors"
	"time"

	"tourbook/internal/domain"

	"github.com/go-sql-driver/mysql"
)

// ErrVersionConflict is returned by a compare-and-swap update that matched no row.
var ErrVersionConflict = errors.New("row version changed concurrently")

const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// RetryPolicy retries transient contention failures with exponential backoff.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 25 * time.Millisecond}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or attempts run out.
// Exhausted contention surfaces as domain.ConflictError.
func (p RetryPolicy) Do(ctx context.Context, resource string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.Backoff

	var err error
	for i := 0; i < attempts; i++ {
		err = fn(ctx)
		if err == nil || !isRetryable(ctx, err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return domain.ConflictError{Resource: resource, Msg: "concurrent update, please retry", Err: err}
}

// WithRetry is a shorthand for DefaultRetryPolicy().Do.
func WithRetry(ctx context.Context, resource string, fn func(ctx context.Context) error) error {
	return DefaultRetryPolicy().Do(ctx, resource, fn)
}

func isRetryable(ctx context.Context, err error) bool {
	if IsRetryable(err) {
		return true
	}
	// a per-transaction deadline expired while the caller is still waiting
	return errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
}

// IsRetryable reports deadlocks, lock wait timeouts and version conflicts.
func IsRetryable(err error) bool {
	if err == nil || domain.IsBusiness(err) {
		return false
	}
	if errors.Is(err, ErrVersionConflict) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
	}
	return false
}

func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
