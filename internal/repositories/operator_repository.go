package repositories

import (
	"context"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	"tourbook/internal/domain/models"
)

type OperatorRepository struct {
	DB intdb.DBTX
}

func (r OperatorRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r OperatorRepository) Create(ctx context.Context, o *models.Operator) error {
	res, err := r.db().ExecContext(ctx,
		`INSERT INTO operators (name, email, phone) VALUES (?, ?, ?)`,
		o.Name, o.Email, o.Phone,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

func (r OperatorRepository) Get(ctx context.Context, id int64) (models.Operator, error) {
	var o models.Operator
	err := r.db().QueryRowContext(ctx,
		`SELECT id, name, email, phone, created_at, updated_at FROM operators WHERE id=? LIMIT 1`, id,
	).Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	return o, notFound("operator", err)
}

func (r OperatorRepository) Update(ctx context.Context, o models.Operator) error {
	_, err := r.db().ExecContext(ctx,
		`UPDATE operators SET name=?, email=?, phone=? WHERE id=?`,
		o.Name, o.Email, o.Phone, o.ID,
	)
	return err
}
