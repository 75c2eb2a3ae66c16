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

type UserRepository struct {
	DB intdb.DBTX
}

func (r UserRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const userColumns = `id, name, email, password_hash, role, operator_id, customer_id, created_at`

func scanUser(rs rowScanner) (models.User, error) {
	var (
		u        models.User
		role     string
		op, cust sql.NullInt64
	)
	if err := rs.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &op, &cust, &u.CreatedAt); err != nil {
		return models.User{}, err
	}
	u.Role = domain.Role(role)
	u.OperatorID = intdb.Int64Ptr(op)
	u.CustomerID = intdb.Int64Ptr(cust)
	return u, nil
}

func (r UserRepository) Create(ctx context.Context, u *models.User) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, operator_id, customer_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, strings.ToLower(u.Email), u.PasswordHash, string(u.Role),
		intdb.NullInt64(u.OperatorID), intdb.NullInt64(u.CustomerID),
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ValidationError{Field: "email", Msg: "already registered"}
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r UserRepository) Get(ctx context.Context, id int64) (models.User, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id)
	u, err := scanUser(row)
	return u, notFound("user", err)
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db().QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=? LIMIT 1`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	return u, notFound("user", err)
}
