package models

import (
	"fmt"
	"strings"
	"time"

	"tourbook/internal/domain"

	"github.com/google/uuid"
)

// Booking is a customer's reservation of seats on one spot.
type Booking struct {
	ID              int64                `json:"id"`
	BookingNumber   string               `json:"bookingNumber"`
	SpotID          int64                `json:"spotId"`
	TourID          int64                `json:"tourId"`
	OperatorID      int64                `json:"operatorId"`
	CustomerID      int64                `json:"customerId"`
	Seats           int                  `json:"seats"`
	TotalAmount     int64                `json:"totalAmount"`
	PaidAmount      int64                `json:"paidAmount"`
	RefundedAmount  int64                `json:"refundedAmount"`
	Currency        string               `json:"currency"`
	Status          domain.BookingStatus `json:"status"`
	SpecialRequests string               `json:"specialRequests,omitempty"`
	CancelReason    string               `json:"cancelReason,omitempty"`
	Version         int64                `json:"-"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// BookingFilter narrows booking listings; zero values mean "any".
type BookingFilter struct {
	OperatorID int64
	CustomerID int64
	TourID     int64
	SpotID     int64
	Status     domain.BookingStatus
}

// NewBookingNumber returns a short human-facing reference like BK-1A2B3C4D.
func NewBookingNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BK-" + strings.ToUpper(id[:8])
}

func (b Booking) Outstanding() int64 {
	return b.TotalAmount - b.PaidAmount
}

func (b Booking) PaidInFull() bool {
	return b.TotalAmount > 0 && b.PaidAmount == b.TotalAmount
}

func (b *Booking) transition(to domain.BookingStatus, msg string) error {
	if !b.Status.CanTransition(to) {
		return domain.InvalidTransitionError{Entity: "booking", From: string(b.Status), To: string(to), Msg: msg}
	}
	b.Status = to
	return nil
}

func (b Booking) ensureOpen() error {
	if b.Status.Terminal() {
		return domain.InvalidTransitionError{Entity: "booking", From: string(b.Status), Msg: "no further payment or seat changes allowed"}
	}
	return nil
}

// ApplyPayment books a completed payment against the balance. A booking is confirmed only once
// it is paid in full; it reports whether this payment confirmed it.
func (b *Booking) ApplyPayment(amount int64) (bool, error) {
	if err := b.ensureOpen(); err != nil {
		return false, err
	}
	if amount <= 0 {
		return false, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}
	if b.Status != domain.BookingPending {
		return false, domain.InvalidTransitionError{Entity: "booking", From: string(b.Status), Msg: "already paid in full"}
	}
	if b.PaidAmount+amount > b.TotalAmount {
		return false, domain.ValidationError{Field: "amount", Msg: fmt.Sprintf("exceeds outstanding balance of %d", b.Outstanding())}
	}
	b.PaidAmount += amount
	if b.PaidInFull() {
		return true, b.transition(domain.BookingConfirmed, "")
	}
	return false, nil
}

// ApplyRefund returns money to the customer. A confirmed booking whose paid amount drops back to
// zero becomes REFUNDED; the caller must then release its seats, which is what the result reports.
func (b *Booking) ApplyRefund(amount int64) (bool, error) {
	if err := b.ensureOpen(); err != nil {
		return false, err
	}
	if amount <= 0 {
		return false, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}
	if amount > b.PaidAmount {
		return false, domain.ValidationError{Field: "amount", Msg: fmt.Sprintf("exceeds paid amount of %d", b.PaidAmount)}
	}
	b.PaidAmount -= amount
	b.RefundedAmount += amount
	if b.Status == domain.BookingConfirmed && b.PaidAmount == 0 {
		return true, b.transition(domain.BookingRefunded, "")
	}
	return false, nil
}

// Cancel drops the reservation. Money already taken must be refunded first.
func (b *Booking) Cancel(reason string) error {
	if b.PaidAmount > 0 {
		return domain.InvalidTransitionError{
			Entity: "booking", From: string(b.Status), To: string(domain.BookingCancelled),
			Msg: "refund completed payments first",
		}
	}
	if err := b.transition(domain.BookingCancelled, ""); err != nil {
		return err
	}
	b.CancelReason = strings.TrimSpace(reason)
	return nil
}

func (b *Booking) Complete() error {
	return b.transition(domain.BookingCompleted, "only confirmed bookings can complete")
}
