package notify

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	BookingCreated   EventType = "booking.created"
	BookingConfirmed EventType = "booking.confirmed"
	BookingCancelled EventType = "booking.cancelled"
	BookingRefunded  EventType = "booking.refunded"
	BookingCompleted EventType = "booking.completed"
	PaymentCompleted EventType = "payment.completed"
	PaymentFailed    EventType = "payment.failed"
	PaymentRefunded  EventType = "payment.refunded"
)

// Event is a committed lifecycle change handed to notification sinks.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	OccurredAt    time.Time `json:"occurredAt"`
	RequestID     string    `json:"requestId,omitempty"`
	OperatorID    int64     `json:"operatorId"`
	CustomerID    int64     `json:"customerId"`
	CustomerName  string    `json:"customerName,omitempty"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
	BookingID     int64     `json:"bookingId"`
	BookingNumber string    `json:"bookingNumber"`
	PaymentID     int64     `json:"paymentId,omitempty"`
	Seats         int       `json:"seats,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
}

// NewEvent stamps an id and time on an event.
func NewEvent(t EventType, now time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: now}
}
