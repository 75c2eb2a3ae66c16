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

type PaymentRepository struct {
	DB intdb.DBTX
}

func (r PaymentRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const paymentColumns = `id, booking_id, operator_id, customer_id, amount, refunded_amount, currency,
	method, gateway_txn_id, status, failure_reason, refund_reason, completed_at, refunded_at, version,
	created_at, updated_at`

func scanPayment(rs rowScanner) (models.Payment, error) {
	var (
		p                     models.Payment
		method, status        string
		completedAt, refunded sql.NullTime
	)
	if err := rs.Scan(
		&p.ID,
		&p.BookingID,
		&p.OperatorID,
		&p.CustomerID,
		&p.Amount,
		&p.RefundedAmount,
		&p.Currency,
		&method,
		&p.GatewayTxnID,
		&status,
		&p.FailureReason,
		&p.RefundReason,
		&completedAt,
		&refunded,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return models.Payment{}, err
	}
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	if refunded.Valid {
		t := refunded.Time
		p.RefundedAt = &t
	}
	return p, nil
}

func (r PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO payments (booking_id, operator_id, customer_id, amount, refunded_amount, currency,
			method, gateway_txn_id, status, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		p.BookingID, p.OperatorID, p.CustomerID, p.Amount, p.RefundedAmount, p.Currency,
		string(p.Method), p.GatewayTxnID, string(p.Status),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	p.Version = 0
	return nil
}

func (r PaymentRepository) Get(ctx context.Context, id int64) (models.Payment, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=? LIMIT 1`, id)
	p, err := scanPayment(row)
	return p, notFound("payment", err)
}

func (r PaymentRepository) GetForUpdate(ctx context.Context, id int64) (models.Payment, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=? FOR UPDATE`, id)
	p, err := scanPayment(row)
	return p, notFound("payment", err)
}

func (r PaymentRepository) List(ctx context.Context, f models.PaymentFilter, page domain.Pagination) ([]models.Payment, int, error) {
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
	if f.BookingID > 0 {
		conds = append(conds, "booking_id=?")
		args = append(args, f.BookingID)
	}
	if f.Status != "" {
		conds = append(conds, "status=?")
		args = append(args, string(f.Status))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM payments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := limitOffset(page)
	out, err := r.list(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE `+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	return out, total, err
}

func (r PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=? ORDER BY id ASC`, bookingID)
}

func (r PaymentRepository) list(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r PaymentRepository) Update(ctx context.Context, p *models.Payment) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE payments
		SET refunded_amount=?, gateway_txn_id=?, status=?, failure_reason=?, refund_reason=?,
			completed_at=?, refunded_at=?, version=version+1
		WHERE id=? AND version=?`,
		p.RefundedAmount, p.GatewayTxnID, string(p.Status), p.FailureReason, p.RefundReason,
		p.CompletedAt, p.RefundedAt, p.ID, p.Version,
	)
	if err := casResult(res, err); err != nil {
		return err
	}
	p.Version++
	return nil
}
