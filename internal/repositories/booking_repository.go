package repositories

import (
	"context"
	"strings"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
)

type BookingRepository struct {
	DB intdb.DBTX
}

func (r BookingRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingColumns = `id, booking_number, spot_id, tour_id, operator_id, customer_id, seats,
	total_amount, paid_amount, refunded_amount, currency, status, COALESCE(special_requests,''),
	cancel_reason, version, created_at, updated_at`

func scanBooking(rs rowScanner) (models.Booking, error) {
	var (
		b      models.Booking
		status string
	)
	if err := rs.Scan(
		&b.ID,
		&b.BookingNumber,
		&b.SpotID,
		&b.TourID,
		&b.OperatorID,
		&b.CustomerID,
		&b.Seats,
		&b.TotalAmount,
		&b.PaidAmount,
		&b.RefundedAmount,
		&b.Currency,
		&status,
		&b.SpecialRequests,
		&b.CancelReason,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return models.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	return b, nil
}

func (r BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO bookings (booking_number, spot_id, tour_id, operator_id, customer_id, seats,
			total_amount, paid_amount, refunded_amount, currency, status, special_requests, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		b.BookingNumber, b.SpotID, b.TourID, b.OperatorID, b.CustomerID, b.Seats,
		b.TotalAmount, b.PaidAmount, b.RefundedAmount, b.Currency, string(b.Status),
		intdb.NullIfEmpty(b.SpecialRequests),
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "booking", Msg: "booking number already taken", Err: err}
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	b.Version = 0
	return nil
}

func (r BookingRepository) Get(ctx context.Context, id int64) (models.Booking, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1`, id)
	b, err := scanBooking(row)
	return b, notFound("booking", err)
}

func (r BookingRepository) GetForUpdate(ctx context.Context, id int64) (models.Booking, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? FOR UPDATE`, id)
	b, err := scanBooking(row)
	return b, notFound("booking", err)
}

func bookingWhere(f models.BookingFilter) (string, []any) {
	conds := []string{"1=1"}
	args := []any{}
	if f.OperatorID > 0 {
		conds = append(conds, "operator_id=?")
		args = append(args, f.OperatorID)
	}
	if f.CustomerID > 0 {
		conds = append(conds, "customer_id=?")
		args = append(args, f.CustomerID)
	}
	if f.TourID > 0 {
		conds = append(conds, "tour_id=?")
		args = append(args, f.TourID)
	}
	if f.SpotID > 0 {
		conds = append(conds, "spot_id=?")
		args = append(args, f.SpotID)
	}
	if f.Status != "" {
		conds = append(conds, "status=?")
		args = append(args, string(f.Status))
	}
	return strings.Join(conds, " AND "), args
}

func (r BookingRepository) List(ctx context.Context, f models.BookingFilter, page domain.Pagination) ([]models.Booking, int, error) {
	where, args := bookingWhere(f)

	var total int
	if err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := limitOffset(page)
	rows, err := r.db().QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE `+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r BookingRepository) Update(ctx context.Context, b *models.Booking) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings
		SET paid_amount=?, refunded_amount=?, status=?, special_requests=?, cancel_reason=?,
			version=version+1
		WHERE id=? AND version=?`,
		b.PaidAmount, b.RefundedAmount, string(b.Status), intdb.NullIfEmpty(b.SpecialRequests),
		b.CancelReason, b.ID, b.Version,
	)
	if err := casResult(res, err); err != nil {
		return err
	}
	b.Version++
	return nil
}

// ListBySpot returns the spot's bookings, optionally only those still holding seats.
func (r BookingRepository) ListBySpot(ctx context.Context, spotID int64, activeOnly bool) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE spot_id=?`
	args := []any{spotID}
	if activeOnly {
		query += ` AND status IN (?, ?)`
		args = append(args, string(domain.BookingPending), string(domain.BookingConfirmed))
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
