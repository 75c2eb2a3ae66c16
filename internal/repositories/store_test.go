package repositories

import (
	"context"
	"testing"
	"time"

	intdb "tourbook/internal/db"
	"tourbook/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestStoreInTxRetriesDeadlock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, intdb.TxOptions{}, intdb.RetryPolicy{Attempts: 3, Backoff: time.Millisecond})

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(spotCols).
		AddRow(5, 2, 1, "", time.Now().Add(time.Hour), nil, 12, 0, nil, "ACTIVE", 0, time.Now(), time.Now()))
	mock.ExpectCommit()

	attempts := 0
	err = store.InTx(context.Background(), "spot", func(ctx context.Context, r Repos) error {
		attempts++
		_, err := r.Spots.GetForUpdate(ctx, 5)
		return err
	})
	if err != nil {
		t.Fatalf("in tx: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreInTxDoesNotRetryBusinessErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, intdb.TxOptions{}, intdb.RetryPolicy{Attempts: 3, Backoff: time.Millisecond})

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = store.InTx(context.Background(), "spot", func(ctx context.Context, r Repos) error {
		return domain.CapacityExceededError{SpotID: 5, Requested: 3, Remaining: 2}
	})
	if !domain.IsCapacityExceeded(err) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
