package repositories

import (
	"context"
	"strings"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
)

type CustomerRepository struct {
	DB intdb.DBTX
}

func (r CustomerRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	res, err := r.db().ExecContext(ctx,
		`INSERT INTO customers (name, email, phone) VALUES (?, ?, ?)`,
		c.Name, c.Email, c.Phone,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r CustomerRepository) Get(ctx context.Context, id int64) (models.Customer, error) {
	var c models.Customer
	err := r.db().QueryRowContext(ctx,
		`SELECT id, name, email, phone, created_at, updated_at FROM customers WHERE id=? LIMIT 1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	return c, notFound("customer", err)
}

func (r CustomerRepository) Update(ctx context.Context, c models.Customer) error {
	_, err := r.db().ExecContext(ctx,
		`UPDATE customers SET name=?, email=?, phone=? WHERE id=?`,
		c.Name, c.Email, c.Phone, c.ID,
	)
	return err
}

const customerSummarySelect = `
	SELECT c.id, c.name, c.email, c.phone, c.created_at, c.updated_at,
	       COUNT(b.id), COALESCE(SUM(b.paid_amount),0)
	FROM customers c
	JOIN bookings b ON b.customer_id = c.id`

func scanCustomerSummary(rs rowScanner) (models.CustomerSummary, error) {
	var s models.CustomerSummary
	err := rs.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.CreatedAt, &s.UpdatedAt, &s.Bookings, &s.TotalSpent)
	return s, err
}

// ListForOperator returns customers who booked with the operator, with their totals there.
func (r CustomerRepository) ListForOperator(ctx context.Context, operatorID int64, search string, page domain.Pagination) ([]models.CustomerSummary, int, error) {
	where := "b.operator_id=?"
	args := []any{operatorID}
	if s := strings.TrimSpace(search); s != "" {
		where += " AND (c.name LIKE ? OR c.email LIKE ?)"
		like := "%" + s + "%"
		args = append(args, like, like)
	}

	var total int
	if err := r.db().QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT c.id) FROM customers c JOIN bookings b ON b.customer_id = c.id WHERE `+where,
		args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := limitOffset(page)
	rows, err := r.db().QueryContext(ctx,
		customerSummarySelect+` WHERE `+where+` GROUP BY c.id, c.name, c.email, c.phone, c.created_at, c.updated_at
		ORDER BY c.name ASC, c.id ASC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.CustomerSummary{}
	for rows.Next() {
		s, err := scanCustomerSummary(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r CustomerRepository) GetForOperator(ctx context.Context, operatorID, customerID int64) (models.CustomerSummary, error) {
	row := r.db().QueryRowContext(ctx,
		customerSummarySelect+` WHERE b.operator_id=? AND c.id=?
		GROUP BY c.id, c.name, c.email, c.phone, c.created_at, c.updated_at`,
		operatorID, customerID,
	)
	s, err := scanCustomerSummary(row)
	return s, notFound("customer", err)
}
