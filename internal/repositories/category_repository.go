package repositories

import (
	"context"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
)

type CategoryRepository struct {
	DB intdb.DBTX
}

func (r CategoryRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	res, err := r.db().ExecContext(ctx,
		`INSERT INTO categories (operator_id, name, description) VALUES (?, ?, ?)`,
		c.OperatorID, c.Name, intdb.NullIfEmpty(c.Description),
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ValidationError{Field: "name", Msg: "category already exists"}
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r CategoryRepository) Get(ctx context.Context, id int64) (models.Category, error) {
	var c models.Category
	err := r.db().QueryRowContext(ctx,
		`SELECT id, operator_id, name, COALESCE(description,'') FROM categories WHERE id=? LIMIT 1`, id,
	).Scan(&c.ID, &c.OperatorID, &c.Name, &c.Description)
	return c, notFound("category", err)
}

// List returns one operator's categories, or all of them when operatorID is 0.
func (r CategoryRepository) List(ctx context.Context, operatorID int64) ([]models.Category, error) {
	query := `SELECT id, operator_id, name, COALESCE(description,'') FROM categories`
	args := []any{}
	if operatorID > 0 {
		query += ` WHERE operator_id=?`
		args = append(args, operatorID)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.OperatorID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r CategoryRepository) Update(ctx context.Context, c models.Category) error {
	_, err := r.db().ExecContext(ctx,
		`UPDATE categories SET name=?, description=? WHERE id=?`,
		c.Name, intdb.NullIfEmpty(c.Description), c.ID,
	)
	if intdb.IsDuplicateKey(err) {
		return domain.ValidationError{Field: "name", Msg: "category already exists"}
	}
	return err
}

func (r CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "category"}
	}
	return nil
}

func (r CategoryRepository) CountTours(ctx context.Context, categoryID int64) (int, error) {
	var n int
	err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM tours WHERE category_id=?`, categoryID).Scan(&n)
	return n, err
}
