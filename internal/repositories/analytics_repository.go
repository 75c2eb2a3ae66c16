package repositories

import (
	"context"
	"time"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
)

// AnalyticsRepository runs the read-only aggregate queries behind the operator dashboard.
type AnalyticsRepository struct {
	DB intdb.DBTX
}

func (r AnalyticsRepository) db() intdb.DBTX {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r AnalyticsRepository) BookingsByStatus(ctx context.Context, operatorID int64) (map[string]int, error) {
	rows, err := r.db().QueryContext(ctx,
		`SELECT status, COUNT(*) FROM bookings WHERE operator_id=? GROUP BY status`, operatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// PaymentTotals returns money taken and money given back across the operator's payments.
func (r AnalyticsRepository) PaymentTotals(ctx context.Context, operatorID int64) (gross, refunded int64, err error) {
	err = r.db().QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount),0), COALESCE(SUM(refunded_amount),0)
		FROM payments
		WHERE operator_id=? AND status IN (?, ?)`,
		operatorID, string(domain.PaymentCompleted), string(domain.PaymentRefunded),
	).Scan(&gross, &refunded)
	return gross, refunded, err
}

// SeatTotals sums sold seats and capacity over spots that are not cancelled.
func (r AnalyticsRepository) SeatTotals(ctx context.Context, operatorID int64) (sold, capacity int, err error) {
	err = r.db().QueryRowContext(ctx, `
		SELECT COALESCE(SUM(booked_seats),0), COALESCE(SUM(max_seats),0)
		FROM spots
		WHERE operator_id=? AND status<>?`,
		operatorID, string(domain.SpotCancelled),
	).Scan(&sold, &capacity)
	return sold, capacity, err
}

func (r AnalyticsRepository) Counts(ctx context.Context, operatorID int64, now time.Time) (activeTours, upcomingSpots, customers int, err error) {
	err = r.db().QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tours WHERE operator_id=? AND status=?),
			(SELECT COUNT(*) FROM spots WHERE operator_id=? AND status IN (?, ?) AND departure_date > ?),
			(SELECT COUNT(DISTINCT customer_id) FROM bookings WHERE operator_id=?)`,
		operatorID, string(domain.TourActive),
		operatorID, string(domain.SpotActive), string(domain.SpotFull), now,
		operatorID,
	).Scan(&activeTours, &upcomingSpots, &customers)
	return activeTours, upcomingSpots, customers, err
}

// RevenueByMonth buckets completed payments by completion month and refunds by refund month.
func (r AnalyticsRepository) RevenueByMonth(ctx context.Context, operatorID int64, since time.Time) ([]models.RevenuePoint, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT m, SUM(paid), SUM(refunded)
		FROM (
			SELECT DATE_FORMAT(completed_at, '%Y-%m') AS m, amount AS paid, 0 AS refunded
			FROM payments
			WHERE operator_id=? AND completed_at IS NOT NULL AND completed_at >= ?
			UNION ALL
			SELECT DATE_FORMAT(COALESCE(refunded_at, updated_at), '%Y-%m'), 0, refunded_amount
			FROM payments
			WHERE operator_id=? AND refunded_amount > 0 AND COALESCE(refunded_at, updated_at) >= ?
		) x
		GROUP BY m
		ORDER BY m ASC`,
		operatorID, since, operatorID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.RevenuePoint{}
	for rows.Next() {
		var p models.RevenuePoint
		if err := rows.Scan(&p.Month, &p.Paid, &p.Refunded); err != nil {
			return nil, err
		}
		p.Net = p.Paid - p.Refunded
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r AnalyticsRepository) TourPerformance(ctx context.Context, operatorID int64, limit int) ([]models.TourPerformance, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db().QueryContext(ctx, `
		SELECT t.id, t.title, COALESCE(b.cnt,0), COALESCE(b.seats,0), COALESCE(s.cap,0), COALESCE(b.net,0)
		FROM tours t
		LEFT JOIN (
			SELECT tour_id, COUNT(*) AS cnt,
			       SUM(CASE WHEN status IN (?, ?, ?) THEN seats ELSE 0 END) AS seats,
			       SUM(paid_amount) AS net
			FROM bookings
			GROUP BY tour_id
		) b ON b.tour_id = t.id
		LEFT JOIN (
			SELECT tour_id, SUM(max_seats) AS cap FROM spots WHERE status<>? GROUP BY tour_id
		) s ON s.tour_id = t.id
		WHERE t.operator_id=?
		ORDER BY COALESCE(b.net,0) DESC, t.id ASC
		LIMIT ?`,
		string(domain.BookingPending), string(domain.BookingConfirmed), string(domain.BookingCompleted),
		string(domain.SpotCancelled), operatorID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TourPerformance{}
	for rows.Next() {
		var p models.TourPerformance
		if err := rows.Scan(&p.TourID, &p.Title, &p.Bookings, &p.SeatsSold, &p.Capacity, &p.NetRevenue); err != nil {
			return nil, err
		}
		if p.Capacity > 0 {
			p.Occupancy = float64(p.SeatsSold) * 100 / float64(p.Capacity)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
