package models

import (
	"fmt"
	"time"

	"tourbook/internal/domain"
)

// Spot is one scheduled departure of a tour with its own seat capacity.
type Spot struct {
	ID            int64             `json:"id"`
	TourID        int64             `json:"tourId"`
	OperatorID    int64             `json:"operatorId"`
	Name          string            `json:"name"`
	DepartureDate time.Time         `json:"departureDate"`
	ReturnDate    *time.Time        `json:"returnDate,omitempty"`
	MaxSeats      int               `json:"maxSeats"`
	BookedSeats   int               `json:"bookedSeats"`
	PriceOverride *int64            `json:"priceOverride,omitempty"`
	Status        domain.SpotStatus `json:"status"`
	Version       int64             `json:"-"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (s Spot) RemainingSeats() int {
	if s.BookedSeats >= s.MaxSeats {
		return 0
	}
	return s.MaxSeats - s.BookedSeats
}

// Departed reports whether the departure moment is behind now.
func (s Spot) Departed(now time.Time) bool {
	return !now.Before(s.DepartureDate)
}

// Finished reports whether the trip is over: return date passed, or departure when no return date.
func (s Spot) Finished(now time.Time) bool {
	if s.ReturnDate != nil {
		return !now.Before(*s.ReturnDate)
	}
	return s.Departed(now)
}

// EffectivePrice is the per-seat price charged for this departure.
func (s Spot) EffectivePrice(tourPrice int64) int64 {
	if s.PriceOverride != nil {
		return *s.PriceOverride
	}
	return tourPrice
}

// Reserve takes seats from the spot. The spot is left untouched on error.
func (s *Spot) Reserve(seats int, now time.Time) error {
	if seats <= 0 {
		return domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	switch s.Status {
	case domain.SpotCancelled, domain.SpotCompleted:
		return domain.InvalidTransitionError{Entity: "spot", From: string(s.Status), Msg: "not bookable"}
	}
	if s.Departed(now) {
		return domain.InvalidTransitionError{Entity: "spot", From: string(s.Status), Msg: "already departed"}
	}
	if s.BookedSeats+seats > s.MaxSeats {
		return domain.CapacityExceededError{SpotID: s.ID, Requested: seats, Remaining: s.RemainingSeats()}
	}
	s.BookedSeats += seats
	if s.BookedSeats == s.MaxSeats {
		s.Status = domain.SpotFull
	}
	return nil
}

// Release gives back exactly the seats a booking held.
func (s *Spot) Release(seats int, now time.Time) error {
	if seats <= 0 {
		return domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	if seats > s.BookedSeats {
		return domain.InternalError{Msg: fmt.Sprintf("spot %d: releasing %d seats but only %d booked", s.ID, seats, s.BookedSeats)}
	}
	s.BookedSeats -= seats
	if s.Status == domain.SpotFull && s.BookedSeats < s.MaxSeats {
		if s.Departed(now) {
			s.Status = domain.SpotCompleted
		} else {
			s.Status = domain.SpotActive
		}
	}
	return nil
}

// Resize changes capacity without ever dropping below what is already sold.
func (s *Spot) Resize(maxSeats int) error {
	if maxSeats <= 0 {
		return domain.ValidationError{Field: "maxSeats", Msg: "must be at least 1"}
	}
	if maxSeats < s.BookedSeats {
		return domain.ValidationError{Field: "maxSeats", Msg: fmt.Sprintf("cannot be lower than %d booked seats", s.BookedSeats)}
	}
	s.MaxSeats = maxSeats
	switch {
	case s.Status == domain.SpotActive && s.BookedSeats == s.MaxSeats:
		s.Status = domain.SpotFull
	case s.Status == domain.SpotFull && s.BookedSeats < s.MaxSeats:
		s.Status = domain.SpotActive
	}
	return nil
}

func (s *Spot) Transition(to domain.SpotStatus) error {
	if !s.Status.CanTransition(to) {
		return domain.InvalidTransitionError{Entity: "spot", From: string(s.Status), To: string(to)}
	}
	s.Status = to
	return nil
}
