package services

import (
	"context"
	"fmt"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/notify"
	"tourbook/internal/repositories"
	"tourbook/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// PaymentService moves money against bookings. Every transition locks payment, then booking,
// then spot, and writes all three in one transaction.
type PaymentService struct {
	Deps
}

type CreatePaymentInput struct {
	Amount       int64
	Currency     string
	Method       string
	GatewayTxnID string
}

func paymentVisible(rc domain.RequestContext, p models.Payment) bool {
	switch {
	case rc.IsOperator():
		return p.OperatorID == rc.OperatorID
	case rc.IsCustomer():
		return p.CustomerID == rc.CustomerID
	}
	return false
}

func (d Deps) paymentEvent(ctx context.Context, t notify.EventType, b models.Booking, p models.Payment, amount int64) notify.Event {
	ev := d.bookingEvent(ctx, t, b)
	ev.PaymentID = p.ID
	ev.Amount = amount
	ev.Status = string(p.Status)
	return ev
}

// Create records a PENDING payment. Amount may not exceed what is still owed once other
// pending payments are counted.
func (s PaymentService) Create(ctx context.Context, rc domain.RequestContext, bookingID int64, in CreatePaymentInput) (payment models.Payment, err error) {
	ctx, span := startSpan(ctx, "PaymentService.Create")
	span.SetAttributes(attribute.Int64("booking.id", bookingID), attribute.Int64("payment.amount", in.Amount))
	defer func() { endSpan(span, err) }()

	if err := rc.Verify(); err != nil {
		return models.Payment{}, err
	}
	if in.Amount <= 0 {
		return models.Payment{}, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}
	method, ok := domain.ParsePaymentMethod(in.Method)
	if !ok {
		return models.Payment{}, domain.ValidationError{Field: "method", Msg: "must be one of CARD, BANK_TRANSFER, CASH, EWALLET"}
	}

	err = s.Store.InTx(ctx, "booking", func(ctx context.Context, r repositories.Repos) error {
		now := s.now()
		b, err := r.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bookingVisible(rc, b) {
			return domain.NotFoundError{Resource: "booking"}
		}
		if b.Status != domain.BookingPending {
			return domain.InvalidTransitionError{Entity: "booking", From: string(b.Status), Msg: "payments are only taken on pending bookings"}
		}
		currency := b.Currency
		if strings.TrimSpace(in.Currency) != "" {
			c, ok := utils.NormalizeCurrency(in.Currency)
			if !ok {
				return domain.ValidationError{Field: "currency", Msg: "must be a 3-letter ISO 4217 code"}
			}
			if c != b.Currency {
				return domain.ValidationError{Field: "currency", Msg: "must match booking currency " + b.Currency}
			}
		}

		existing, err := r.Payments.ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		var pending int64
		for _, p := range existing {
			if p.Status == domain.PaymentPending {
				pending += p.Amount
			}
		}
		if open := b.Outstanding() - pending; in.Amount > open {
			return domain.ValidationError{Field: "amount", Msg: fmt.Sprintf("exceeds open balance of %d", max(open, 0))}
		}

		payment = models.Payment{
			BookingID:    b.ID,
			OperatorID:   b.OperatorID,
			CustomerID:   b.CustomerID,
			Amount:       in.Amount,
			Currency:     currency,
			Method:       method,
			GatewayTxnID: strings.TrimSpace(in.GatewayTxnID),
			Status:       domain.PaymentPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return r.Payments.Create(ctx, &payment)
	})
	if err != nil {
		return models.Payment{}, wrapErr("create payment", err)
	}
	s.log("payment", "create", "payment_id=%d booking_id=%d amount=%d method=%s", payment.ID, bookingID, payment.Amount, payment.Method)
	return payment, nil
}

// Complete settles a pending payment and confirms the booking once it is paid in full.
func (s PaymentService) Complete(ctx context.Context, rc domain.RequestContext, paymentID int64, gatewayTxnID string) (payment models.Payment, booking models.Booking, err error) {
	ctx, span := startSpan(ctx, "PaymentService.Complete")
	span.SetAttributes(attribute.Int64("payment.id", paymentID))
	defer func() { endSpan(span, err) }()

	if err := requireOperator(rc); err != nil {
		return models.Payment{}, models.Booking{}, err
	}

	var confirmed bool
	err = s.Store.InTx(ctx, "payment", func(ctx context.Context, r repositories.Repos) error {
		now := s.now()
		p, err := r.Payments.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if !paymentVisible(rc, p) {
			return domain.NotFoundError{Resource: "payment"}
		}
		b, err := r.Bookings.GetForUpdate(ctx, p.BookingID)
		if err != nil {
			return err
		}
		if err := p.Complete(gatewayTxnID, now); err != nil {
			return err
		}
		confirmed, err = b.ApplyPayment(p.Amount)
		if err != nil {
			return err
		}
		p.UpdatedAt, b.UpdatedAt = now, now
		if err := r.Payments.Update(ctx, &p); err != nil {
			return err
		}
		if err := r.Bookings.Update(ctx, &b); err != nil {
			return err
		}
		payment, booking = p, b
		return nil
	})
	if err != nil {
		return models.Payment{}, models.Booking{}, wrapErr("complete payment", err)
	}

	s.log("payment", "complete", "payment_id=%d booking=%s paid=%d/%d status=%s",
		payment.ID, booking.BookingNumber, booking.PaidAmount, booking.TotalAmount, booking.Status)
	events := []notify.Event{s.paymentEvent(ctx, notify.PaymentCompleted, booking, payment, payment.Amount)}
	if confirmed {
		events = append(events, s.bookingEvent(ctx, notify.BookingConfirmed, booking))
	}
	s.publish(events...)
	return payment, booking, nil
}

// Fail marks a pending payment as failed. A pending booking left with nothing paid and nothing
// else pending is cancelled and its seats released.
func (s PaymentService) Fail(ctx context.Context, rc domain.RequestContext, paymentID int64, reason string) (payment models.Payment, booking models.Booking, err error) {
	ctx, span := startSpan(ctx, "PaymentService.Fail")
	span.SetAttributes(attribute.Int64("payment.id", paymentID))
	defer func() { endSpan(span, err) }()

	if err := requireOperator(rc); err != nil {
		return models.Payment{}, models.Booking{}, err
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "payment declined"
	}

	var cancelled bool
	err = s.Store.InTx(ctx, "payment", func(ctx context.Context, r repositories.Repos) error {
		now := s.now()
		cancelled = false
		p, err := r.Payments.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if !paymentVisible(rc, p) {
			return domain.NotFoundError{Resource: "payment"}
		}
		b, err := r.Bookings.GetForUpdate(ctx, p.BookingID)
		if err != nil {
			return err
		}
		if err := p.Fail(reason, now); err != nil {
			return err
		}
		p.UpdatedAt = now
		if err := r.Payments.Update(ctx, &p); err != nil {
			return err
		}

		if b.Status == domain.BookingPending && b.PaidAmount == 0 {
			others, err := r.Payments.ListByBooking(ctx, b.ID)
			if err != nil {
				return err
			}
			live := false
			for _, o := range others {
				if o.ID == p.ID {
					continue
				}
				if o.Status == domain.PaymentPending || o.Status == domain.PaymentCompleted {
					live = true
					break
				}
			}
			if !live {
				if err := b.Cancel("payment failed: " + reason); err != nil {
					return err
				}
				b.UpdatedAt = now
				if err := r.Bookings.Update(ctx, &b); err != nil {
					return err
				}
				if err := releaseSeats(ctx, r, b, now); err != nil {
					return err
				}
				cancelled = true
			}
		}
		payment, booking = p, b
		return nil
	})
	if err != nil {
		return models.Payment{}, models.Booking{}, wrapErr("fail payment", err)
	}

	s.log("payment", "fail", "payment_id=%d booking=%s booking_cancelled=%t", payment.ID, booking.BookingNumber, cancelled)
	ev := s.paymentEvent(ctx, notify.PaymentFailed, booking, payment, payment.Amount)
	ev.Reason = payment.FailureReason
	events := []notify.Event{ev}
	if cancelled {
		cev := s.bookingEvent(ctx, notify.BookingCancelled, booking)
		cev.Reason = booking.CancelReason
		events = append(events, cev)
	}
	s.publish(events...)
	return payment, booking, nil
}

// Refund returns amount (0 means everything still refundable) of a completed payment. When a
// confirmed booking's paid amount drops to zero the booking becomes REFUNDED and its seats
// are released exactly once.
func (s PaymentService) Refund(ctx context.Context, rc domain.RequestContext, paymentID, amount int64, reason string) (payment models.Payment, booking models.Booking, err error) {
	ctx, span := startSpan(ctx, "PaymentService.Refund")
	span.SetAttributes(attribute.Int64("payment.id", paymentID), attribute.Int64("refund.amount", amount))
	defer func() { endSpan(span, err) }()

	if err := requireOperator(rc); err != nil {
		return models.Payment{}, models.Booking{}, err
	}

	var applied int64
	var released bool
	err = s.Store.InTx(ctx, "payment", func(ctx context.Context, r repositories.Repos) error {
		now := s.now()
		p, err := r.Payments.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if !paymentVisible(rc, p) {
			return domain.NotFoundError{Resource: "payment"}
		}
		b, err := r.Bookings.GetForUpdate(ctx, p.BookingID)
		if err != nil {
			return err
		}
		applied, err = p.Refund(amount, reason, now)
		if err != nil {
			return err
		}
		released, err = b.ApplyRefund(applied)
		if err != nil {
			return err
		}
		p.UpdatedAt, b.UpdatedAt = now, now
		if err := r.Payments.Update(ctx, &p); err != nil {
			return err
		}
		if err := r.Bookings.Update(ctx, &b); err != nil {
			return err
		}
		if released {
			if err := releaseSeats(ctx, r, b, now); err != nil {
				return err
			}
		}
		payment, booking = p, b
		return nil
	})
	if err != nil {
		return models.Payment{}, models.Booking{}, wrapErr("refund payment", err)
	}

	s.log("payment", "refund", "payment_id=%d booking=%s amount=%d booking_status=%s seats_released=%t",
		payment.ID, booking.BookingNumber, applied, booking.Status, released)
	events := []notify.Event{s.paymentEvent(ctx, notify.PaymentRefunded, booking, payment, applied)}
	if released {
		events = append(events, s.bookingEvent(ctx, notify.BookingRefunded, booking))
	}
	s.publish(events...)
	return payment, booking, nil
}

func (s PaymentService) Get(ctx context.Context, rc domain.RequestContext, id int64) (models.Payment, error) {
	if err := rc.Verify(); err != nil {
		return models.Payment{}, err
	}
	p, err := s.Store.Repos().Payments.Get(ctx, id)
	if err != nil {
		return models.Payment{}, wrapErr("get payment", err)
	}
	if !paymentVisible(rc, p) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment"}
	}
	return p, nil
}

func (s PaymentService) List(ctx context.Context, rc domain.RequestContext, f models.PaymentFilter, page domain.Pagination) ([]models.Payment, domain.Pagination, error) {
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
	list, total, err := s.Store.Repos().Payments.List(ctx, f, page)
	if err != nil {
		return nil, page, wrapErr("list payments", err)
	}
	page.Total = total
	return list, page, nil
}
