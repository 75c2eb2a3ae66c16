package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/notify"
)

func TestCreateBookingFillsSpot(t *testing.T) {
	f := newFixture(t, 12)
	f.book(t, 10)

	b := f.book(t, 2)
	if b.Status != domain.BookingPending || b.TotalAmount != 498 || b.Currency != "USD" {
		t.Fatalf("unexpected booking %+v", b)
	}
	spot := f.spotNow(t)
	if spot.BookedSeats != 12 || spot.Status != domain.SpotFull {
		t.Fatalf("spot after fill = %d/%d %s", spot.BookedSeats, spot.MaxSeats, spot.Status)
	}

	_, err := f.bookings().Create(context.Background(), f.customer, CreateBookingInput{SpotID: f.spot.ID, Seats: 1})
	var capErr domain.CapacityExceededError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityExceededError, got %v", err)
	}
	if capErr.Remaining != 0 {
		t.Fatalf("remaining = %d", capErr.Remaining)
	}
	if got := f.spotNow(t).BookedSeats; got != 12 {
		t.Fatalf("booked seats changed to %d", got)
	}
	f.assertInvariants(t)
}

func TestCreateBookingRejectsOverCapacityAndKeepsSeats(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, 3)

	_, err := f.bookings().Create(context.Background(), f.customer, CreateBookingInput{SpotID: f.spot.ID, Seats: 3})
	if !domain.IsCapacityExceeded(err) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if got := f.spotNow(t).BookedSeats; got != 3 {
		t.Fatalf("booked seats = %d, want 3", got)
	}
	if len(f.store.bookings) != 1 {
		t.Fatalf("rejected booking was stored")
	}
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateBookingInput
	}{
		{"zero seats", CreateBookingInput{SpotID: f.spot.ID}},
		{"missing spot", CreateBookingInput{Seats: 1}},
		{"too many travelers", CreateBookingInput{SpotID: f.spot.ID, Seats: 1, Travelers: []TravelerInput{{FullName: "A"}, {FullName: "B"}}}},
		{"traveler without name", CreateBookingInput{SpotID: f.spot.ID, Seats: 1, Travelers: []TravelerInput{{FullName: " "}}}},
		{"bad birth date", CreateBookingInput{SpotID: f.spot.ID, Seats: 1, Travelers: []TravelerInput{{FullName: "A", DateOfBirth: "31/12/1990"}}}},
	}
	for _, tc := range cases {
		if _, err := f.bookings().Create(ctx, f.customer, tc.in); !domain.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if got := f.spotNow(t).BookedSeats; got != 0 {
		t.Fatalf("validation failures reserved %d seats", got)
	}
}

func TestCreateBookingWithTravelers(t *testing.T) {
	f := newFixture(t, 5)
	b, err := f.bookings().Create(context.Background(), f.customer, CreateBookingInput{
		SpotID: f.spot.ID, Seats: 2,
		Travelers: []TravelerInput{{FullName: "Ana  Lopez", PassportNumber: "x123", DateOfBirth: "1990-04-02"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := f.bookings().ListTravelers(context.Background(), f.customer, b.ID)
	if err != nil {
		t.Fatalf("list travelers: %v", err)
	}
	if len(list) != 1 || list[0].FullName != "Ana Lopez" || list[0].PassportNumber != "X123" || list[0].DateOfBirth == nil {
		t.Fatalf("unexpected travelers %+v", list)
	}

	_, err = f.bookings().AddTravelers(context.Background(), f.customer, b.ID, []TravelerInput{{FullName: "B"}, {FullName: "C"}})
	if !domain.IsValidation(err) {
		t.Fatalf("expected traveler limit error, got %v", err)
	}
	if _, err := f.bookings().AddTravelers(context.Background(), f.customer, b.ID, []TravelerInput{{FullName: "B"}}); err != nil {
		t.Fatalf("add traveler: %v", err)
	}
}

func TestCreateBookingHidesUnpublishedTourFromCustomers(t *testing.T) {
	f := newFixture(t, 5)
	tour := f.tour
	tour.Published = false
	if err := f.store.Repos().Tours.Update(context.Background(), tour); err != nil {
		t.Fatal(err)
	}

	_, err := f.bookings().Create(context.Background(), f.customer, CreateBookingInput{SpotID: f.spot.ID, Seats: 1})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found for customer, got %v", err)
	}
	b, err := f.bookings().Create(context.Background(), f.operator, CreateBookingInput{SpotID: f.spot.ID, Seats: 1, CustomerID: f.customer.CustomerID})
	if err != nil {
		t.Fatalf("operator booking: %v", err)
	}
	if b.CustomerID != f.customer.CustomerID {
		t.Fatalf("operator booking assigned to %d", b.CustomerID)
	}
}

func TestBookingScopeReportsNotFound(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1)
	ctx := context.Background()

	otherCustomer := domain.RequestContext{UserID: 9, Role: domain.RoleCustomer, CustomerID: 999}
	if _, err := f.bookings().Get(ctx, otherCustomer, b.ID); !domain.IsNotFound(err) {
		t.Fatalf("foreign customer: expected not found, got %v", err)
	}
	otherOperator := domain.RequestContext{UserID: 10, Role: domain.RoleOperator, OperatorID: 999}
	if _, err := f.bookings().Cancel(ctx, otherOperator, b.ID, ""); !domain.IsNotFound(err) {
		t.Fatalf("foreign operator: expected not found, got %v", err)
	}
	if _, err := f.bookings().Get(ctx, domain.RequestContext{}, b.ID); !domain.IsUnauthorized(err) {
		t.Fatalf("anonymous: expected unauthorized, got %v", err)
	}

	list, page, err := f.bookings().List(ctx, otherCustomer, models.BookingFilter{CustomerID: f.customer.CustomerID}, domain.Pagination{})
	if err != nil || len(list) != 0 || page.Total != 0 {
		t.Fatalf("foreign list leaked %d rows (err %v)", len(list), err)
	}
}

func TestCancelBookingReleasesSeatsAndFailsPendingPayments(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.book(t, 3)
	p, err := f.payments().Create(ctx, f.customer, b.ID, CreatePaymentInput{Amount: 100, Method: "CASH"})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	got, err := f.bookings().Cancel(ctx, f.customer, b.ID, "change of plans")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != domain.BookingCancelled || got.CancelReason != "change of plans" {
		t.Fatalf("unexpected booking %+v", got)
	}
	if s := f.spotNow(t); s.BookedSeats != 0 || s.Status != domain.SpotActive {
		t.Fatalf("spot after cancel = %d %s", s.BookedSeats, s.Status)
	}
	pNow, _ := f.store.Repos().Payments.Get(ctx, p.ID)
	if pNow.Status != domain.PaymentFailed {
		t.Fatalf("pending payment status = %s", pNow.Status)
	}

	if _, err := f.bookings().Cancel(ctx, f.operator, b.ID, ""); !domain.IsInvalidTransition(err) {
		t.Fatalf("second cancel: expected invalid transition, got %v", err)
	}
	if s := f.spotNow(t); s.BookedSeats != 0 {
		t.Fatalf("second cancel released seats again: %d", s.BookedSeats)
	}
	f.assertInvariants(t)
}

func TestCancelPaidBookingIsRefused(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 2)
	f.pay(t, b.ID, 100)

	_, err := f.bookings().Cancel(context.Background(), f.operator, b.ID, "")
	if !domain.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if got := f.spotNow(t).BookedSeats; got != 2 {
		t.Fatalf("seats released on refused cancel: %d", got)
	}
}

func TestCustomerCannotCancelConfirmedBooking(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1)
	f.pay(t, b.ID, 249)

	if _, err := f.bookings().Cancel(context.Background(), f.customer, b.ID, ""); !domain.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCompleteBookingRequiresConfirmed(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.book(t, 1)

	if _, err := f.bookings().Complete(ctx, f.operator, b.ID); !domain.IsInvalidTransition(err) {
		t.Fatalf("pending complete: expected invalid transition, got %v", err)
	}
	f.pay(t, b.ID, 249)
	got, err := f.bookings().Complete(ctx, f.operator, b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != domain.BookingCompleted {
		t.Fatalf("status = %s", got.Status)
	}
	if _, err := f.bookings().Complete(ctx, f.customer, b.ID); !domain.IsForbidden(err) {
		t.Fatalf("customer complete: expected forbidden, got %v", err)
	}
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	const callers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
		other     []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.bookings().Create(ctx, f.customer, CreateBookingInput{SpotID: f.spot.ID, Seats: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case domain.IsCapacityExceeded(err):
				rejected++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if succeeded != 10 || rejected != callers-10 {
		t.Fatalf("succeeded=%d rejected=%d", succeeded, rejected)
	}
	if s := f.spotNow(t); s.BookedSeats != 10 || s.Status != domain.SpotFull {
		t.Fatalf("spot = %d %s", s.BookedSeats, s.Status)
	}
	f.assertInvariants(t)
}

func TestVersionConflictIsRetried(t *testing.T) {
	f := newFixture(t, 5)
	f.store.spotConflicts = 1

	b := f.book(t, 2)
	if b.ID == 0 {
		t.Fatalf("booking not stored")
	}
	if f.store.txCount != 2 {
		t.Fatalf("expected one retry, got %d attempts", f.store.txCount)
	}
	if got := f.spotNow(t).BookedSeats; got != 2 {
		t.Fatalf("booked seats = %d", got)
	}
}

func TestPersistentConflictSurfacesAsConflict(t *testing.T) {
	f := newFixture(t, 5)
	f.store.spotConflicts = 10

	_, err := f.bookings().Create(context.Background(), f.customer, CreateBookingInput{SpotID: f.spot.ID, Seats: 1})
	var conflict domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Resource != "spot" || !errors.Is(err, intdb.ErrVersionConflict) {
		t.Fatalf("unexpected conflict %+v", conflict)
	}
	if got := f.spotNow(t).BookedSeats; got != 0 {
		t.Fatalf("failed attempts leaked %d seats", got)
	}
	if len(f.store.bookings) != 0 {
		t.Fatalf("failed attempts stored bookings")
	}
}

func TestCreateBookingPublishesEvent(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1)

	if len(f.events.events) != 1 {
		t.Fatalf("events = %v", f.events.types())
	}
	ev := f.events.events[0]
	if ev.Type != notify.BookingCreated || ev.BookingNumber != b.BookingNumber || ev.CustomerEmail != "ana@example.com" {
		t.Fatalf("unexpected event %+v", ev)
	}
}
