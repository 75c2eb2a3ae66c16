package domain

import "strings"

type TourStatus string

const (
	TourDraft     TourStatus = "DRAFT"
	TourActive    TourStatus = "ACTIVE"
	TourPaused    TourStatus = "PAUSED"
	TourCompleted TourStatus = "COMPLETED"
	TourCancelled TourStatus = "CANCELLED"
)

type SpotStatus string

const (
	SpotActive    SpotStatus = "ACTIVE"
	SpotFull      SpotStatus = "FULL"
	SpotCancelled SpotStatus = "CANCELLED"
	SpotCompleted SpotStatus = "COMPLETED"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingRefunded  BookingStatus = "REFUNDED"
	BookingCompleted BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	MethodCard         PaymentMethod = "CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCash         PaymentMethod = "CASH"
	MethodEWallet      PaymentMethod = "EWALLET"
)

var tourTransitions = map[TourStatus][]TourStatus{
	TourDraft:     {TourActive, TourCancelled},
	TourActive:    {TourPaused, TourCompleted, TourCancelled},
	TourPaused:    {TourActive, TourCompleted, TourCancelled},
	TourCompleted: {},
	TourCancelled: {},
}

var spotTransitions = map[SpotStatus][]SpotStatus{
	SpotActive:    {SpotFull, SpotCancelled, SpotCompleted},
	SpotFull:      {SpotActive, SpotCancelled, SpotCompleted},
	SpotCancelled: {},
	SpotCompleted: {},
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled, BookingRefunded, BookingCompleted},
	BookingCancelled: {},
	BookingRefunded:  {},
	BookingCompleted: {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
	PaymentFailed:    {},
	PaymentRefunded:  {},
}

func allowed[S ~string](table map[S][]S, from, to S) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s TourStatus) Valid() bool {
	_, ok := tourTransitions[s]
	return ok
}

func (s TourStatus) CanTransition(to TourStatus) bool { return allowed(tourTransitions, s, to) }

func (s TourStatus) Terminal() bool { return s.Valid() && len(tourTransitions[s]) == 0 }

func (s SpotStatus) Valid() bool {
	_, ok := spotTransitions[s]
	return ok
}

func (s SpotStatus) CanTransition(to SpotStatus) bool { return allowed(spotTransitions, s, to) }

func (s SpotStatus) Terminal() bool { return s.Valid() && len(spotTransitions[s]) == 0 }

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	return allowed(bookingTransitions, s, to)
}

func (s BookingStatus) Terminal() bool { return s.Valid() && len(bookingTransitions[s]) == 0 }

// Active bookings hold seats on their spot.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	return allowed(paymentTransitions, s, to)
}

func (s PaymentStatus) Terminal() bool { return s.Valid() && len(paymentTransitions[s]) == 0 }

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodBankTransfer, MethodCash, MethodEWallet:
		return true
	}
	return false
}

func normalizeEnum(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func ParseTourStatus(s string) (TourStatus, bool) {
	st := TourStatus(normalizeEnum(s))
	return st, st.Valid()
}

func ParseSpotStatus(s string) (SpotStatus, bool) {
	st := SpotStatus(normalizeEnum(s))
	return st, st.Valid()
}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(normalizeEnum(s))
	return st, st.Valid()
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	st := PaymentStatus(normalizeEnum(s))
	return st, st.Valid()
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(normalizeEnum(s))
	return m, m.Valid()
}
