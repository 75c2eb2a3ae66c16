package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/notify"
	"tourbook/internal/repositories"
	"tourbook/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type BookingService struct {
	Deps
}

type TravelerInput struct {
	FullName       string
	PassportNumber string
	Nationality    string
	DateOfBirth    string
	Email          string
	Phone          string
	MedicalNotes   string
}

type CreateBookingInput struct {
	SpotID int64
	Seats  int
	// CustomerID is only honoured for operator-entered bookings.
	CustomerID      int64
	SpecialRequests string
	Travelers       []TravelerInput
}

func (in TravelerInput) toModel(bookingID int64) (models.Traveler, error) {
	name := utils.NormalizeSpace(in.FullName)
	if name == "" {
		return models.Traveler{}, domain.ValidationError{Field: "fullName", Msg: "is required"}
	}
	t := models.Traveler{
		BookingID:      bookingID,
		FullName:       name,
		PassportNumber: strings.ToUpper(strings.TrimSpace(in.PassportNumber)),
		Nationality:    strings.TrimSpace(in.Nationality),
		Email:          utils.NormalizeEmail(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		MedicalNotes:   strings.TrimSpace(in.MedicalNotes),
	}
	if dob := strings.TrimSpace(in.DateOfBirth); dob != "" {
		d, err := utils.ParseDate(dob)
		if err != nil {
			return models.Traveler{}, domain.ValidationError{Field: "dateOfBirth", Msg: "must be YYYY-MM-DD", Err: err}
		}
		t.DateOfBirth = &d
	}
	return t, nil
}

// Create reserves seats on a spot and records a PENDING booking in one transaction.
func (s BookingService) Create(ctx context.Context, rc domain.RequestContext, in CreateBookingInput) (booking models.Booking, err error) {
	ctx, span := startSpan(ctx, "BookingService.Create")
	span.SetAttributes(attribute.Int64("spot.id", in.SpotID), attribute.Int("booking.seats", in.Seats))
	defer func() { endSpan(span, err) }()

	if err := rc.Verify(); err != nil {
		return models.Booking{}, err
	}
	if in.SpotID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "spotId", Msg: "is required"}
	}
	if in.Seats <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	if len(in.Travelers) > in.Seats {
		return models.Booking{}, domain.ValidationError{Field: "travelers", Msg: fmt.Sprintf("at most %d travelers for %d seats", in.Seats, in.Seats)}
	}

	travelers := make([]models.Traveler, 0, len(in.Travelers))
	for _, ti := range in.Travelers {
		t, err := ti.toModel(0)
		if err != nil {
			return models.Booking{}, err
		}
		travelers = append(travelers, t)
	}

	customerID := rc.CustomerID
	if rc.IsOperator() {
		if in.CustomerID <= 0 {
			return models.Booking{}, domain.ValidationError{Field: "customerId", Msg: "is required"}
		}
		customerID = in.CustomerID
	}

	err = s.Store.InTx(ctx, "spot", func(ctx context.Context, r repositories.Repos) error {
		now := s.now()

		spot, err := r.Spots.GetForUpdate(ctx, in.SpotID)
		if err != nil {
			return err
		}
		if rc.IsOperator() && spot.OperatorID != rc.OperatorID {
			return domain.NotFoundError{Resource: "spot"}
		}
		tour, err := r.Tours.Get(ctx, spot.TourID)
		if err != nil {
			return err
		}
		if rc.IsCustomer() && !tour.Bookable() {
			return domain.NotFoundError{Resource: "spot"}
		}
		if tour.Status != domain.TourActive {
			return domain.InvalidTransitionError{Entity: "tour", From: string(tour.Status), Msg: "tour is not open for booking"}
		}
		if rc.IsOperator() {
			if _, err := r.Customers.Get(ctx, customerID); err != nil {
				return err
			}
		}

		if err := spot.Reserve(in.Seats, now); err != nil {
			return err
		}
		if err := r.Spots.Update(ctx, &spot); err != nil {
			return err
		}

		total, err := utils.MulAmount(spot.EffectivePrice(tour.Price), in.Seats)
		if err != nil {
			return domain.ValidationError{Field: "seats", Msg: "total amount out of range", Err: err}
		}
		booking = models.Booking{
			BookingNumber:   models.NewBookingNumber(),
			SpotID:          spot.ID,
			TourID:          tour.ID,
			OperatorID:      spot.OperatorID,
			CustomerID:      customerID,
			Seats:           in.Seats,
			TotalAmount:     total,
			Currency:        tour.Currency,
			Status:          domain.BookingPending,
			SpecialRequests: strings.TrimSpace(in.SpecialRequests),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := r.Bookings.Create(ctx, &booking); err != nil {
			return err
		}

		for _, t := range travelers {
			t.BookingID = booking.ID
			t.CreatedAt = now
			if err := r.Travelers.Create(ctx, &t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log("booking", "create", "spot_id=%d seats=%d rejected: %v", in.SpotID, in.Seats, err)
		return models.Booking{}, wrapErr("create booking", err)
	}

	span.SetAttributes(attribute.String("booking.number", booking.BookingNumber))
	s.log("booking", "create", "booking=%s spot_id=%d seats=%d total=%d", booking.BookingNumber, booking.SpotID, booking.Seats, booking.TotalAmount)
	s.publish(s.bookingEvent(ctx, notify.BookingCreated, booking))
	return booking, nil
}

func (s BookingService) Get(ctx context.Context, rc domain.RequestContext, id int64) (models.Booking, error) {
	if err := rc.Verify(); err != nil {
		return models.Booking{}, err
	}
	b, err := s.Store.Repos().Bookings.Get(ctx, id)
	if err != nil {
		return models.Booking{}, wrapErr("get booking", err)
	}
	if !bookingVisible(rc, b) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

// List always narrows the filter to the caller's own rows.
func (s BookingService) List(ctx context.Context, rc domain.RequestContext, f models.BookingFilter, page domain.Pagination) ([]models.Booking, domain.Pagination, error) {
	if err := rc.Verify(); err != nil {
		return nil, page, err
	}
	if rc.IsOperator() {
		f.OperatorID = rc.OperatorID
	} else {
		f.OperatorID = 0
		f.CustomerID = rc.CustomerID
	}
	page = page.Normalize()
	list, total, err := s.Store.Repos().Bookings.List(ctx, f, page)
	if err != nil {
		return nil, page, wrapErr("list bookings", err)
	}
	page.Total = total
	return list, page, nil
}

// Cancel drops an unpaid booking and gives its seats back. Pending payments are failed with it.
func (s BookingService) Cancel(ctx context.Context, rc domain.RequestContext, id int64, reason string) (booking models.Booking, err error) {
	ctx, span := startSpan(ctx, "BookingService.Cancel")
	span.SetAttributes(attribute.Int64("booking.id", id))
	defer func() { endSpan(span, err) }()

	if err := rc.Verify(); err != nil {
		return models.Booking{}, err
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "cancelled by " + strings.ToLower(string(rc.Role))
	}

	err = s.Store.InTx(ctx, "booking", func(ctx context.Context, r repositories.Repos) error {
		now := s.now()
		b, err := r.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !bookingVisible(rc, b) {
			return domain.NotFoundError{Resource: "booking"}
		}
		if rc.IsCustomer() && b.Status != domain.BookingPending {
			return domain.InvalidTransitionError{Entity: "booking", From: string(b.Status), To: string(domain.BookingCancelled), Msg: "only pending bookings can be cancelled online"}
		}
		if err := b.Cancel(reason); err != nil {
			return err
		}
		b.UpdatedAt = now
		if err := r.Bookings.Update(ctx, &b); err != nil {
			return err
		}
		if err := releaseSeats(ctx, r, b, now); err != nil {
			return err
		}
		if err := failPendingPayments(ctx, r, b.ID, "booking cancelled", now); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return models.Booking{}, wrapErr("cancel booking", err)
	}

	s.log("booking", "cancel", "booking=%s seats_released=%d", booking.BookingNumber, booking.Seats)
	ev := s.bookingEvent(ctx, notify.BookingCancelled, booking)
	ev.Reason = booking.CancelReason
	s.publish(ev)
	return booking, nil
}

// Complete marks a confirmed booking as travelled.
func (s BookingService) Complete(ctx context.Context, rc domain.RequestContext, id int64) (booking models.Booking, err error) {
	if err := requireOperator(rc); err != nil {
		return models.Booking{}, err
	}
	err = s.Store.InTx(ctx, "booking", func(ctx context.Context, r repositories.Repos) error {
		b, err := r.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !bookingVisible(rc, b) {
			return domain.NotFoundError{Resource: "booking"}
		}
		if err := b.Complete(); err != nil {
			return err
		}
		b.UpdatedAt = s.now()
		if err := r.Bookings.Update(ctx, &b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return models.Booking{}, wrapErr("complete booking", err)
	}
	s.log("booking", "complete", "booking=%s", booking.BookingNumber)
	s.publish(s.bookingEvent(ctx, notify.BookingCompleted, booking))
	return booking, nil
}

// AddTravelers attaches named participants; a booking never lists more travelers than seats.
func (s BookingService) AddTravelers(ctx context.Context, rc domain.RequestContext, bookingID int64, inputs []TravelerInput) ([]models.Traveler, error) {
	if err := rc.Verify(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, domain.ValidationError{Field: "travelers", Msg: "at least one traveler is required"}
	}

	var created []models.Traveler
	err := s.Store.InTx(ctx, "booking", func(ctx context.Context, r repositories.Repos) error {
		created = created[:0]
		b, err := r.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bookingVisible(rc, b) {
			return domain.NotFoundError{Resource: "booking"}
		}
		if b.Status.Terminal() {
			return domain.InvalidTransitionError{Entity: "booking", From: string(b.Status), Msg: "travelers cannot change on a closed booking"}
		}
		existing, err := r.Travelers.ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		if len(existing)+len(inputs) > b.Seats {
			return domain.ValidationError{Field: "travelers", Msg: fmt.Sprintf("booking has %d seats and %d travelers already", b.Seats, len(existing))}
		}
		now := s.now()
		for _, in := range inputs {
			t, err := in.toModel(b.ID)
			if err != nil {
				return err
			}
			t.CreatedAt = now
			if err := r.Travelers.Create(ctx, &t); err != nil {
				return err
			}
			created = append(created, t)
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("add travelers", err)
	}
	s.log("booking", "add_travelers", "booking_id=%d count=%d", bookingID, len(created))
	return created, nil
}

func (s BookingService) ListTravelers(ctx context.Context, rc domain.RequestContext, bookingID int64) ([]models.Traveler, error) {
	if _, err := s.Get(ctx, rc, bookingID); err != nil {
		return nil, err
	}
	list, err := s.Store.Repos().Travelers.ListByBooking(ctx, bookingID)
	return list, wrapErr("list travelers", err)
}

func (s BookingService) DeleteTraveler(ctx context.Context, rc domain.RequestContext, travelerID int64) error {
	if err := requireOperator(rc); err != nil {
		return err
	}
	repos := s.Store.Repos()
	t, err := repos.Travelers.Get(ctx, travelerID)
	if err != nil {
		return wrapErr("delete traveler", err)
	}
	if _, err := s.Get(ctx, rc, t.BookingID); err != nil {
		if domain.IsNotFound(err) {
			return domain.NotFoundError{Resource: "traveler"}
		}
		return err
	}
	if err := repos.Travelers.Delete(ctx, travelerID); err != nil {
		return wrapErr("delete traveler", err)
	}
	s.log("booking", "delete_traveler", "traveler_id=%d booking_id=%d", travelerID, t.BookingID)
	return nil
}

// releaseSeats locks the booking's spot and returns exactly its seats.
func releaseSeats(ctx context.Context, r repositories.Repos, b models.Booking, now time.Time) error {
	spot, err := r.Spots.GetForUpdate(ctx, b.SpotID)
	if err != nil {
		return err
	}
	if err := spot.Release(b.Seats, now); err != nil {
		return err
	}
	trace.SpanFromContext(ctx).AddEvent("seats.released", trace.WithAttributes(
		attribute.Int64("spot.id", spot.ID), attribute.Int("seats", b.Seats)))
	return r.Spots.Update(ctx, &spot)
}

func failPendingPayments(ctx context.Context, r repositories.Repos, bookingID int64, reason string, now time.Time) error {
	payments, err := r.Payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	for _, p := range payments {
		if p.Status != domain.PaymentPending {
			continue
		}
		if err := p.Fail(reason, now); err != nil {
			return err
		}
		p.UpdatedAt = now
		if err := r.Payments.Update(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}
