package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"tourbook/internal/domain"

	"github.com/go-sql-driver/mysql"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: time.Millisecond}
}

func TestRetryRecoversFromDeadlock(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "spot", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryExhaustedBecomesConflict(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "booking", func(ctx context.Context) error {
		calls++
		return ErrVersionConflict
	})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("conflict should wrap the last cause")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryNeverRetriesBusinessErrors(t *testing.T) {
	calls := 0
	want := domain.CapacityExceededError{SpotID: 1, Requested: 3, Remaining: 2}
	err := fastPolicy().Do(context.Background(), "spot", func(ctx context.Context) error {
		calls++
		return want
	})
	if !domain.IsCapacityExceeded(err) || calls != 1 {
		t.Fatalf("expected single attempt with capacity error, got calls=%d err=%v", calls, err)
	}
}

func TestRetryLockWaitTimeout(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "spot", func(ctx context.Context) error {
		calls++
		return &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	})
	if !domain.IsConflict(err) || calls != 3 {
		t.Fatalf("expected conflict after 3 attempts, got calls=%d err=%v", calls, err)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	if !IsDuplicateKey(&mysql.MySQLError{Number: 1062}) {
		t.Fatalf("1062 should be a duplicate key")
	}
	if IsDuplicateKey(errors.New("boom")) || IsRetryable(errors.New("boom")) {
		t.Fatalf("plain errors are neither duplicate nor retryable")
	}
}
