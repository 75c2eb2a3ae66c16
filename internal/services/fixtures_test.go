package services

import (
	"context"
	"testing"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
)

var testNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memStore
	events   *recorder
	deps     Deps
	operator domain.RequestContext
	customer domain.RequestContext
	tour     models.Tour
	spot     models.Spot
}

// newFixture seeds one operator with a published ACTIVE tour priced 249 USD and a spot
// with the given capacity departing in thirty days, plus one customer.
func newFixture(t *testing.T, maxSeats int) *fixture {
	t.Helper()
	store := newMemStore()
	ctx := context.Background()
	r := store.Repos()

	op := models.Operator{Name: "Lava Trails", Email: "ops@lava.test"}
	if err := r.Operators.Create(ctx, &op); err != nil {
		t.Fatalf("seed operator: %v", err)
	}
	cust := models.Customer{Name: "Ana Lopez", Email: "ana@example.com"}
	if err := r.Customers.Create(ctx, &cust); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	tour := models.Tour{OperatorID: op.ID, Title: "Bromo Sunrise", Price: 249, Currency: "USD", Status: domain.TourActive, Published: true}
	if err := r.Tours.Create(ctx, &tour); err != nil {
		t.Fatalf("seed tour: %v", err)
	}
	spot := models.Spot{TourID: tour.ID, OperatorID: op.ID, Name: "April batch", DepartureDate: testNow.AddDate(0, 0, 30), MaxSeats: maxSeats, Status: domain.SpotActive}
	if err := r.Spots.Create(ctx, &spot); err != nil {
		t.Fatalf("seed spot: %v", err)
	}

	events := &recorder{}
	return &fixture{
		store:    store,
		events:   events,
		deps:     Deps{Store: store, Notifier: events, Now: func() time.Time { return testNow }, RequestID: "test"},
		operator: domain.RequestContext{UserID: 100, Role: domain.RoleOperator, OperatorID: op.ID},
		customer: domain.RequestContext{UserID: 200, Role: domain.RoleCustomer, CustomerID: cust.ID},
		tour:     tour,
		spot:     spot,
	}
}

func (f *fixture) bookings() BookingService { return BookingService{f.deps} }
func (f *fixture) payments() PaymentService { return PaymentService{f.deps} }

func (f *fixture) spotNow(t *testing.T) models.Spot {
	t.Helper()
	s, err := f.store.Repos().Spots.Get(context.Background(), f.spot.ID)
	if err != nil {
		t.Fatalf("load spot: %v", err)
	}
	return s
}

// book reserves seats for the fixture customer.
func (f *fixture) book(t *testing.T, seats int) models.Booking {
	t.Helper()
	b, err := f.bookings().Create(context.Background(), f.customer, CreateBookingInput{SpotID: f.spot.ID, Seats: seats})
	if err != nil {
		t.Fatalf("book %d seats: %v", seats, err)
	}
	return b
}

// pay records and completes a payment.
func (f *fixture) pay(t *testing.T, bookingID, amount int64) (models.Payment, models.Booking) {
	t.Helper()
	ctx := context.Background()
	p, err := f.payments().Create(ctx, f.customer, bookingID, CreatePaymentInput{Amount: amount, Method: "card"})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	p, b, err := f.payments().Complete(ctx, f.operator, p.ID, "txn-1")
	if err != nil {
		t.Fatalf("complete payment: %v", err)
	}
	return p, b
}

func (f *fixture) assertInvariants(t *testing.T) {
	t.Helper()
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	held := map[int64]int{}
	for _, b := range f.store.bookings {
		if b.PaidAmount < 0 || b.PaidAmount > b.TotalAmount {
			t.Fatalf("booking %d paid %d of %d", b.ID, b.PaidAmount, b.TotalAmount)
		}
		if b.Status.Active() || b.Status == domain.BookingCompleted {
			held[b.SpotID] += b.Seats
		}
	}
	for _, s := range f.store.spots {
		if s.BookedSeats < 0 || s.BookedSeats > s.MaxSeats {
			t.Fatalf("spot %d booked %d of %d", s.ID, s.BookedSeats, s.MaxSeats)
		}
		if held[s.ID] != s.BookedSeats {
			t.Fatalf("spot %d booked %d but active bookings hold %d", s.ID, s.BookedSeats, held[s.ID])
		}
	}
}
