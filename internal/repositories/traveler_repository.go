package repositories

import (
	"context"
	"database/sql"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
)

type TravelerRepository struct {
	DB intdb.DBTX
}

func (r TravelerRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const travelerColumns = `id, booking_id, full_name, passport_number, nationality, date_of_birth,
	email, phone, COALESCE(medical_notes,''), created_at`

func scanTraveler(rs rowScanner) (models.Traveler, error) {
	var (
		t   models.Traveler
		dob sql.NullTime
	)
	if err := rs.Scan(
		&t.ID,
		&t.BookingID,
		&t.FullName,
		&t.PassportNumber,
		&t.Nationality,
		&dob,
		&t.Email,
		&t.Phone,
		&t.MedicalNotes,
		&t.CreatedAt,
	); err != nil {
		return models.Traveler{}, err
	}
	if dob.Valid {
		d := dob.Time
		t.DateOfBirth = &d
	}
	return t, nil
}

func (r TravelerRepository) Create(ctx context.Context, t *models.Traveler) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO travelers (booking_id, full_name, passport_number, nationality, date_of_birth,
			email, phone, medical_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.BookingID, t.FullName, t.PassportNumber, t.Nationality, t.DateOfBirth,
		t.Email, t.Phone, intdb.NullIfEmpty(t.MedicalNotes),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func (r TravelerRepository) Get(ctx context.Context, id int64) (models.Traveler, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+travelerColumns+` FROM travelers WHERE id=? LIMIT 1`, id)
	t, err := scanTraveler(row)
	return t, notFound("traveler", err)
}

func (r TravelerRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Traveler, error) {
	rows, err := r.db().QueryContext(ctx,
		`SELECT `+travelerColumns+` FROM travelers WHERE booking_id=? ORDER BY id ASC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Traveler{}
	for rows.Next() {
		t, err := scanTraveler(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r TravelerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM travelers WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "traveler"}
	}
	return nil
}
