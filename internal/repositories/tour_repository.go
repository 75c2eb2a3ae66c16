package repositories

import (
	"context"
	"database/sql"
	"strings"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
)

type TourRepository struct {
	DB intdb.DBTX
}

func (r TourRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const tourColumns = `id, operator_id, category_id, title, COALESCE(description,''), price, currency,
	status, published, cover_image_url, created_at, updated_at`

func scanTour(rs rowScanner) (models.Tour, error) {
	var (
		t        models.Tour
		category sql.NullInt64
		status   string
	)
	if err := rs.Scan(
		&t.ID,
		&t.OperatorID,
		&category,
		&t.Title,
		&t.Description,
		&t.Price,
		&t.Currency,
		&status,
		&t.Published,
		&t.CoverImageURL,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return models.Tour{}, err
	}
	t.CategoryID = intdb.Int64Ptr(category)
	t.Status = domain.TourStatus(status)
	return t, nil
}

func (r TourRepository) Create(ctx context.Context, t *models.Tour) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO tours (operator_id, category_id, title, description, price, currency, status,
			published, cover_image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OperatorID, intdb.NullInt64(t.CategoryID), t.Title, intdb.NullIfEmpty(t.Description), t.Price,
		t.Currency, string(t.Status), t.Published, t.CoverImageURL,
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

func (r TourRepository) Get(ctx context.Context, id int64) (models.Tour, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+tourColumns+` FROM tours WHERE id=? LIMIT 1`, id)
	t, err := scanTour(row)
	return t, notFound("tour", err)
}

func (r TourRepository) List(ctx context.Context, f models.TourFilter, page domain.Pagination) ([]models.Tour, int, error) {
	conds := []string{"1=1"}
	args := []any{}
	if f.OperatorID > 0 {
		conds = append(conds, "operator_id=?")
		args = append(args, f.OperatorID)
	}
	if f.CategoryID > 0 {
		conds = append(conds, "category_id=?")
		args = append(args, f.CategoryID)
	}
	if f.Status != "" {
		conds = append(conds, "status=?")
		args = append(args, string(f.Status))
	}
	if f.PublishedOnly {
		conds = append(conds, "published=1", "status=?")
		args = append(args, string(domain.TourActive))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "(title LIKE ? OR description LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like)
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM tours WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := limitOffset(page)
	rows, err := r.db().QueryContext(ctx,
		`SELECT `+tourColumns+` FROM tours WHERE `+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r TourRepository) Update(ctx context.Context, t models.Tour) error {
	_, err := r.db().ExecContext(ctx, `
		UPDATE tours
		SET category_id=?, title=?, description=?, price=?, currency=?, status=?, published=?,
			cover_image_url=?
		WHERE id=?`,
		intdb.NullInt64(t.CategoryID), t.Title, intdb.NullIfEmpty(t.Description), t.Price, t.Currency,
		string(t.Status), t.Published, t.CoverImageURL, t.ID,
	)
	return err
}

func (r TourRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM tours WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "tour"}
	}
	return nil
}

func (r TourRepository) CountSpots(ctx context.Context, tourID int64) (int, error) {
	var n int
	err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM spots WHERE tour_id=?`, tourID).Scan(&n)
	return n, err
}
