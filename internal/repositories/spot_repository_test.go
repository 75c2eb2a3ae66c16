package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var spotCols = []string{"id", "tour_id", "operator_id", "name", "departure_date", "return_date", "max_seats",
	"booked_seats", "price_override", "status", "version", "created_at", "updated_at"}

func TestSpotGetForUpdateLocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	dep := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectQuery(`FROM spots WHERE id=\? FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(spotCols).
			AddRow(5, 2, 1, "June run", dep, nil, 12, 10, int64(450), "ACTIVE", 7, now, now))

	s, err := SpotRepository{DB: db}.GetForUpdate(context.Background(), 5)
	if err != nil {
		t.Fatalf("get for update: %v", err)
	}
	if s.MaxSeats != 12 || s.BookedSeats != 10 || s.Version != 7 || s.Status != domain.SpotActive {
		t.Fatalf("unexpected spot %+v", s)
	}
	if s.PriceOverride == nil || *s.PriceOverride != 450 || s.ReturnDate != nil {
		t.Fatalf("nullable columns scanned incorrectly: %+v", s)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSpotGetMissingIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM spots WHERE id=\?`).WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows(spotCols))

	_, err = SpotRepository{DB: db}.Get(context.Background(), 9)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSpotUpdateComparesVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := &models.Spot{ID: 5, MaxSeats: 12, BookedSeats: 12, Status: domain.SpotFull, Version: 7,
		DepartureDate: time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)}

	mock.ExpectExec(`(?s)UPDATE spots.*version=version\+1\s+WHERE id=\? AND version=\?`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 12, 12, nil, "FULL", int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := (SpotRepository{DB: db}).Update(context.Background(), s); err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Version != 8 {
		t.Fatalf("expected version bump to 8, got %d", s.Version)
	}

	mock.ExpectExec(`UPDATE spots`).WillReturnResult(sqlmock.NewResult(0, 0))
	err = SpotRepository{DB: db}.Update(context.Background(), s)
	if !errors.Is(err, intdb.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if s.Version != 8 {
		t.Fatalf("version must not move on conflict, got %d", s.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSpotListFinishedSelectsSpotsNeedingClosure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`COALESCE\(return_date, departure_date\) <= \?\s+AND \(status IN \(\?, \?\) OR EXISTS \(`).
		WithArgs(now, "ACTIVE", "FULL", "CONFIRMED", "PENDING", 50).
		WillReturnRows(sqlmock.NewRows(spotCols).
			AddRow(5, 2, 1, "", now.Add(-24*time.Hour), nil, 12, 4, nil, "ACTIVE", 3, now, now))

	spots, err := SpotRepository{DB: db}.ListFinished(context.Background(), now, 50)
	if err != nil {
		t.Fatalf("list finished: %v", err)
	}
	if len(spots) != 1 || spots[0].ID != 5 {
		t.Fatalf("unexpected spots %+v", spots)
	}
}
