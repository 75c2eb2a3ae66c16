package services

import (
	"context"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/notify"
	"tourbook/internal/repositories"
)

const (
	sweepBatch         = 100
	departedUnpaidNote = "departed unpaid"
)

// SweepService closes out departures whose trip is over.
type SweepService struct {
	Deps
}

type SweepResult struct {
	Spots     int `json:"spots"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Skipped   int `json:"skipped"`
}

// CompleteDeparted completes finished spots: CONFIRMED bookings become COMPLETED and PENDING
// bookings with nothing paid are cancelled with their seats released. Each booking runs in its
// own transaction so one failure does not block the rest of the batch.
func (s SweepService) CompleteDeparted(ctx context.Context) (res SweepResult, err error) {
	ctx, span := startSpan(ctx, "SweepService.CompleteDeparted")
	defer func() { endSpan(span, err) }()

	now := s.now()
	spots, err := s.Store.Repos().Spots.ListFinished(ctx, now, sweepBatch)
	if err != nil {
		return res, wrapErr("sweep", err)
	}
	for _, sp := range spots {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		bookings, err := s.Store.Repos().Bookings.ListBySpot(ctx, sp.ID, true)
		if err != nil {
			return res, wrapErr("sweep", err)
		}
		for _, b := range bookings {
			ev, err := s.closeBooking(ctx, b.ID)
			switch {
			case err != nil:
				res.Skipped++
				s.log("sweep", "booking_failed", "booking_id=%d err=%v", b.ID, err)
			case ev == nil:
				res.Skipped++
			case ev.Type == notify.BookingCompleted:
				res.Completed++
				s.publish(*ev)
			default:
				res.Cancelled++
				s.publish(*ev)
			}
		}
		if err := s.closeSpot(ctx, sp.ID); err != nil {
			s.log("sweep", "spot_failed", "spot_id=%d err=%v", sp.ID, err)
			continue
		}
		res.Spots++
	}
	if len(spots) > 0 {
		s.log("sweep", "done", "spots=%d completed=%d cancelled=%d skipped=%d",
			res.Spots, res.Completed, res.Cancelled, res.Skipped)
	}
	return res, nil
}

// closeBooking returns the event to publish, or nil when the booking was left as is.
func (s SweepService) closeBooking(ctx context.Context, bookingID int64) (*notify.Event, error) {
	now := s.now()
	var (
		out   models.Booking
		event notify.EventType
	)
	err := s.Store.InTx(ctx, "booking", func(ctx context.Context, r repositories.Repos) error {
		event = ""
		b, err := r.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		switch {
		case b.Status == domain.BookingConfirmed:
			if err := b.Complete(); err != nil {
				return err
			}
			event = notify.BookingCompleted
		case b.Status == domain.BookingPending && b.PaidAmount == 0:
			if err := b.Cancel(departedUnpaidNote); err != nil {
				return err
			}
			if err := failPendingPayments(ctx, r, b.ID, departedUnpaidNote, now); err != nil {
				return err
			}
			if err := releaseSeats(ctx, r, b, now); err != nil {
				return err
			}
			event = notify.BookingCancelled
		default:
			// Partly paid bookings need an operator decision.
			return nil
		}
		b.UpdatedAt = now
		if err := r.Bookings.Update(ctx, &b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil || event == "" {
		return nil, err
	}
	ev := s.bookingEvent(ctx, event, out)
	if event == notify.BookingCancelled {
		ev.Reason = departedUnpaidNote
	}
	return &ev, nil
}

func (s SweepService) closeSpot(ctx context.Context, spotID int64) error {
	return s.Store.InTx(ctx, "spot", func(ctx context.Context, r repositories.Repos) error {
		sp, err := r.Spots.GetForUpdate(ctx, spotID)
		if err != nil {
			return err
		}
		if sp.Status.Terminal() {
			return nil
		}
		if err := sp.Transition(domain.SpotCompleted); err != nil {
			return err
		}
		sp.UpdatedAt = s.now()
		return r.Spots.Update(ctx, &sp)
	})
}
