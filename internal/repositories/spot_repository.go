package repositories

import (
	"context"
	"database/sql"
	"time"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
)

type SpotRepository struct {
	DB intdb.DBTX
}

func (r SpotRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const spotColumns = `id, tour_id, operator_id, name, departure_date, return_date, max_seats,
	booked_seats, price_override, status, version, created_at, updated_at`

func scanSpot(rs rowScanner) (models.Spot, error) {
	var (
		s        models.Spot
		ret      sql.NullTime
		override sql.NullInt64
		status   string
	)
	if err := rs.Scan(
		&s.ID,
		&s.TourID,
		&s.OperatorID,
		&s.Name,
		&s.DepartureDate,
		&ret,
		&s.MaxSeats,
		&s.BookedSeats,
		&override,
		&status,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return models.Spot{}, err
	}
	if ret.Valid {
		t := ret.Time
		s.ReturnDate = &t
	}
	s.PriceOverride = intdb.Int64Ptr(override)
	s.Status = domain.SpotStatus(status)
	return s, nil
}

func (r SpotRepository) Create(ctx context.Context, s *models.Spot) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO spots (tour_id, operator_id, name, departure_date, return_date, max_seats,
			booked_seats, price_override, status, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		s.TourID, s.OperatorID, s.Name, s.DepartureDate, s.ReturnDate, s.MaxSeats,
		s.BookedSeats, intdb.NullInt64(s.PriceOverride), string(s.Status),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	s.Version = 0
	return nil
}

func (r SpotRepository) Get(ctx context.Context, id int64) (models.Spot, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+spotColumns+` FROM spots WHERE id=? LIMIT 1`, id)
	s, err := scanSpot(row)
	return s, notFound("spot", err)
}

func (r SpotRepository) GetForUpdate(ctx context.Context, id int64) (models.Spot, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+spotColumns+` FROM spots WHERE id=? FOR UPDATE`, id)
	s, err := scanSpot(row)
	return s, notFound("spot", err)
}

// ListByTour returns a tour's spots ordered by departure. With upcomingFrom set only
// ACTIVE spots departing after it are returned.
func (r SpotRepository) ListByTour(ctx context.Context, tourID int64, upcomingFrom *time.Time) ([]models.Spot, error) {
	query := `SELECT ` + spotColumns + ` FROM spots WHERE tour_id=?`
	args := []any{tourID}
	if upcomingFrom != nil {
		query += ` AND status=? AND departure_date > ?`
		args = append(args, string(domain.SpotActive), *upcomingFrom)
	}
	query += ` ORDER BY departure_date ASC, id ASC`
	return r.list(ctx, query, args...)
}

func (r SpotRepository) list(ctx context.Context, query string, args ...any) ([]models.Spot, error) {
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Spot{}
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r SpotRepository) Update(ctx context.Context, s *models.Spot) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE spots
		SET name=?, departure_date=?, return_date=?, max_seats=?, booked_seats=?, price_override=?,
			status=?, version=version+1
		WHERE id=? AND version=?`,
		s.Name, s.DepartureDate, s.ReturnDate, s.MaxSeats, s.BookedSeats, intdb.NullInt64(s.PriceOverride),
		string(s.Status), s.ID, s.Version,
	)
	if err := casResult(res, err); err != nil {
		return err
	}
	s.Version++
	return nil
}

func (r SpotRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM spots WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "spot"}
	}
	return nil
}

// ListFinished returns spots whose trip has ended by now and that still need closing: open spots,
// and spots already completed by a late release that keep confirmed or unpaid pending bookings.
func (r SpotRepository) ListFinished(ctx context.Context, now time.Time, limit int) ([]models.Spot, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `
		SELECT `+spotColumns+`
		FROM spots
		WHERE COALESCE(return_date, departure_date) <= ?
			AND (status IN (?, ?) OR EXISTS (
				SELECT 1 FROM bookings b
				WHERE b.spot_id = spots.id
					AND (b.status = ? OR (b.status = ? AND b.paid_amount = 0))))
		ORDER BY departure_date ASC
		LIMIT ?`,
		now, string(domain.SpotActive), string(domain.SpotFull),
		string(domain.BookingConfirmed), string(domain.BookingPending), limit,
	)
}
