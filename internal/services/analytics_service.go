package services

import (
	"context"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/utils"

	"golang.org/x/sync/errgroup"
)

// AnalyticsReader is the aggregate query surface behind the operator dashboard.
type AnalyticsReader interface {
	BookingsByStatus(ctx context.Context, operatorID int64) (map[string]int, error)
	PaymentTotals(ctx context.Context, operatorID int64) (gross, refunded int64, err error)
	SeatTotals(ctx context.Context, operatorID int64) (sold, capacity int, err error)
	Counts(ctx context.Context, operatorID int64, now time.Time) (activeTours, upcomingSpots, customers int, err error)
	RevenueByMonth(ctx context.Context, operatorID int64, since time.Time) ([]models.RevenuePoint, error)
	TourPerformance(ctx context.Context, operatorID int64, limit int) ([]models.TourPerformance, error)
}

type AnalyticsService struct {
	Deps
	Reader AnalyticsReader
}

const maxRevenueMonths = 36

// Dashboard runs the independent aggregates concurrently.
func (s AnalyticsService) Dashboard(ctx context.Context, rc domain.RequestContext) (models.DashboardSummary, error) {
	if err := requireOperator(rc); err != nil {
		return models.DashboardSummary{}, err
	}
	ctx, span := startSpan(ctx, "AnalyticsService.Dashboard")
	var out models.DashboardSummary
	now := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.Reader.BookingsByStatus(gctx, rc.OperatorID)
		out.BookingsByStatus = m
		return err
	})
	g.Go(func() error {
		var err error
		out.GrossPaid, out.Refunded, err = s.Reader.PaymentTotals(gctx, rc.OperatorID)
		return err
	})
	g.Go(func() error {
		var err error
		out.SeatsSold, out.SeatCapacity, err = s.Reader.SeatTotals(gctx, rc.OperatorID)
		return err
	})
	g.Go(func() error {
		var err error
		out.ActiveTours, out.UpcomingSpots, out.Customers, err = s.Reader.Counts(gctx, rc.OperatorID, now)
		return err
	})
	err := g.Wait()
	endSpan(span, err)
	if err != nil {
		return models.DashboardSummary{}, wrapErr("analytics summary", err)
	}
	if out.BookingsByStatus == nil {
		out.BookingsByStatus = map[string]int{}
	}
	out.NetRevenue = out.GrossPaid - out.Refunded
	if out.SeatCapacity > 0 {
		out.OccupancyPct = float64(out.SeatsSold) * 100 / float64(out.SeatCapacity)
	}
	return out, nil
}

// Revenue returns one point per month for the last months (current month included),
// filling months without payments with zeros.
func (s AnalyticsService) Revenue(ctx context.Context, rc domain.RequestContext, months int) ([]models.RevenuePoint, error) {
	if err := requireOperator(rc); err != nil {
		return nil, err
	}
	if months <= 0 {
		months = 12
	}
	if months > maxRevenueMonths {
		return nil, domain.ValidationError{Field: "months", Msg: "must be at most 36"}
	}
	since := utils.MonthsBack(s.now(), months)
	points, err := s.Reader.RevenueByMonth(ctx, rc.OperatorID, since)
	if err != nil {
		return nil, wrapErr("analytics revenue", err)
	}
	byMonth := make(map[string]models.RevenuePoint, len(points))
	for _, p := range points {
		byMonth[p.Month] = p
	}
	out := make([]models.RevenuePoint, 0, months)
	for i := 0; i < months; i++ {
		k := since.AddDate(0, i, 0).Format("2006-01")
		p, ok := byMonth[k]
		if !ok {
			p = models.RevenuePoint{Month: k}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s AnalyticsService) Tours(ctx context.Context, rc domain.RequestContext, limit int) ([]models.TourPerformance, error) {
	if err := requireOperator(rc); err != nil {
		return nil, err
	}
	list, err := s.Reader.TourPerformance(ctx, rc.OperatorID, limit)
	return list, wrapErr("analytics tours", err)
}
