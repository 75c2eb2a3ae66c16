package services

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/notify"
	"tourbook/internal/repositories"
)

// memStore is an in-memory UnitOfWork. InTx holds one global lock for the whole unit and
// restores the previous state when fn fails, which gives the same isolation a row lock does.
type memStore struct {
	mu    sync.Mutex
	retry intdb.RetryPolicy
	seq   int64

	tours      map[int64]models.Tour
	spots      map[int64]models.Spot
	bookings   map[int64]models.Booking
	payments   map[int64]models.Payment
	travelers  map[int64]models.Traveler
	customers  map[int64]models.Customer
	operators  map[int64]models.Operator
	users      map[int64]models.User
	categories map[int64]models.Category

	// spotConflicts makes the next n spot updates fail with a version conflict.
	spotConflicts int
	txCount       int
}

func newMemStore() *memStore {
	return &memStore{
		retry:      intdb.RetryPolicy{Attempts: 3, Backoff: time.Millisecond},
		tours:      map[int64]models.Tour{},
		spots:      map[int64]models.Spot{},
		bookings:   map[int64]models.Booking{},
		payments:   map[int64]models.Payment{},
		travelers:  map[int64]models.Traveler{},
		customers:  map[int64]models.Customer{},
		operators:  map[int64]models.Operator{},
		users:      map[int64]models.User{},
		categories: map[int64]models.Category{},
	}
}

type memSnapshot struct {
	seq        int64
	tours      map[int64]models.Tour
	spots      map[int64]models.Spot
	bookings   map[int64]models.Booking
	payments   map[int64]models.Payment
	travelers  map[int64]models.Traveler
	customers  map[int64]models.Customer
	operators  map[int64]models.Operator
	users      map[int64]models.User
	categories map[int64]models.Category
}

func (m *memStore) snapshot() memSnapshot {
	return memSnapshot{
		seq: m.seq, tours: maps.Clone(m.tours), spots: maps.Clone(m.spots),
		bookings: maps.Clone(m.bookings), payments: maps.Clone(m.payments),
		travelers: maps.Clone(m.travelers), customers: maps.Clone(m.customers),
		operators: maps.Clone(m.operators), users: maps.Clone(m.users),
		categories: maps.Clone(m.categories),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.seq, m.tours, m.spots, m.bookings, m.payments = s.seq, s.tours, s.spots, s.bookings, s.payments
	m.travelers, m.customers, m.operators, m.users, m.categories = s.travelers, s.customers, s.operators, s.users, s.categories
}

func (m *memStore) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *memStore) Repos() repositories.Repos { return m.bind(false) }

func (m *memStore) InTx(ctx context.Context, resource string, fn func(ctx context.Context, r repositories.Repos) error) error {
	return m.retry.Do(ctx, resource, func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.txCount++
		snap := m.snapshot()
		if err := fn(ctx, m.bind(true)); err != nil {
			m.restore(snap)
			return err
		}
		return nil
	})
}

func (m *memStore) bind(inTx bool) repositories.Repos {
	b := memRepo{m: m, inTx: inTx}
	return repositories.Repos{
		Tours: memTours{b}, Spots: memSpots{b}, Bookings: memBookings{b}, Payments: memPayments{b},
		Travelers: memTravelers{b}, Customers: memCustomers{b}, Operators: memOperators{b},
		Users: memUsers{b}, Categories: memCategories{b},
	}
}

type memRepo struct {
	m    *memStore
	inTx bool
}

func (r memRepo) do(fn func(m *memStore) error) error {
	if !r.inTx {
		r.m.mu.Lock()
		defer r.m.mu.Unlock()
	}
	return fn(r.m)
}

func sortedValues[T any](src map[int64]T, keep func(T) bool) []T {
	keys := slices.Sorted(maps.Keys(src))
	out := []T{}
	for _, k := range keys {
		if v := src[k]; keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func pageOf[T any](all []T, page domain.Pagination) ([]T, int) {
	p := page.Normalize()
	lo := min(p.Offset(), len(all))
	hi := min(lo+p.PageSize, len(all))
	return all[lo:hi], len(all)
}

func get[T any](src map[int64]T, id int64, resource string) (T, error) {
	v, ok := src[id]
	if !ok {
		var zero T
		return zero, domain.NotFoundError{Resource: resource}
	}
	return v, nil
}

type memTours struct{ memRepo }

func (r memTours) Create(_ context.Context, t *models.Tour) error {
	return r.do(func(m *memStore) error {
		t.ID = m.nextID()
		m.tours[t.ID] = *t
		return nil
	})
}

func (r memTours) Get(_ context.Context, id int64) (out models.Tour, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.tours, id, "tour"); return err })
	return out, err
}

func (r memTours) List(_ context.Context, f models.TourFilter, page domain.Pagination) (out []models.Tour, total int, err error) {
	err = r.do(func(m *memStore) error {
		all := sortedValues(m.tours, func(t models.Tour) bool {
			return (f.OperatorID == 0 || t.OperatorID == f.OperatorID) &&
				(f.CategoryID == 0 || (t.CategoryID != nil && *t.CategoryID == f.CategoryID)) &&
				(f.Status == "" || t.Status == f.Status) &&
				(!f.PublishedOnly || t.Bookable()) &&
				(f.Search == "" || strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)))
		})
		out, total = pageOf(all, page)
		return nil
	})
	return out, total, err
}

func (r memTours) Update(_ context.Context, t models.Tour) error {
	return r.do(func(m *memStore) error {
		if _, ok := m.tours[t.ID]; !ok {
			return domain.NotFoundError{Resource: "tour"}
		}
		m.tours[t.ID] = t
		return nil
	})
}

func (r memTours) Delete(_ context.Context, id int64) error {
	return r.do(func(m *memStore) error { delete(m.tours, id); return nil })
}

func (r memTours) CountSpots(_ context.Context, tourID int64) (n int, err error) {
	err = r.do(func(m *memStore) error {
		n = len(sortedValues(m.spots, func(s models.Spot) bool { return s.TourID == tourID }))
		return nil
	})
	return n, err
}

type memSpots struct{ memRepo }

func (r memSpots) Create(_ context.Context, s *models.Spot) error {
	return r.do(func(m *memStore) error {
		s.ID = m.nextID()
		s.Version = 1
		m.spots[s.ID] = *s
		return nil
	})
}

func (r memSpots) Get(_ context.Context, id int64) (out models.Spot, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.spots, id, "spot"); return err })
	return out, err
}

func (r memSpots) GetForUpdate(ctx context.Context, id int64) (models.Spot, error) {
	return r.Get(ctx, id)
}

func (r memSpots) ListByTour(_ context.Context, tourID int64, upcomingFrom *time.Time) (out []models.Spot, err error) {
	err = r.do(func(m *memStore) error {
		out = sortedValues(m.spots, func(s models.Spot) bool {
			if s.TourID != tourID {
				return false
			}
			if upcomingFrom != nil {
				return (s.Status == domain.SpotActive || s.Status == domain.SpotFull) && s.DepartureDate.After(*upcomingFrom)
			}
			return true
		})
		return nil
	})
	return out, err
}

func (r memSpots) Update(_ context.Context, s *models.Spot) error {
	return r.do(func(m *memStore) error {
		cur, ok := m.spots[s.ID]
		if !ok || cur.Version != s.Version {
			return intdb.ErrVersionConflict
		}
		if m.spotConflicts > 0 {
			m.spotConflicts--
			return intdb.ErrVersionConflict
		}
		s.Version++
		m.spots[s.ID] = *s
		return nil
	})
}

func (r memSpots) Delete(_ context.Context, id int64) error {
	return r.do(func(m *memStore) error { delete(m.spots, id); return nil })
}

func (r memSpots) ListFinished(_ context.Context, now time.Time, limit int) (out []models.Spot, err error) {
	err = r.do(func(m *memStore) error {
		open := map[int64]bool{}
		for _, b := range m.bookings {
			if b.Status == domain.BookingConfirmed || (b.Status == domain.BookingPending && b.PaidAmount == 0) {
				open[b.SpotID] = true
			}
		}
		out = sortedValues(m.spots, func(s models.Spot) bool {
			return s.Finished(now) && (s.Status == domain.SpotActive || s.Status == domain.SpotFull || open[s.ID])
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

type memBookings struct{ memRepo }

func (r memBookings) Create(_ context.Context, b *models.Booking) error {
	return r.do(func(m *memStore) error {
		b.ID = m.nextID()
		b.Version = 1
		m.bookings[b.ID] = *b
		return nil
	})
}

func (r memBookings) Get(_ context.Context, id int64) (out models.Booking, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.bookings, id, "booking"); return err })
	return out, err
}

func (r memBookings) GetForUpdate(ctx context.Context, id int64) (models.Booking, error) {
	return r.Get(ctx, id)
}

func bookingMatches(f models.BookingFilter, b models.Booking) bool {
	return (f.OperatorID == 0 || b.OperatorID == f.OperatorID) &&
		(f.CustomerID == 0 || b.CustomerID == f.CustomerID) &&
		(f.TourID == 0 || b.TourID == f.TourID) &&
		(f.SpotID == 0 || b.SpotID == f.SpotID) &&
		(f.Status == "" || b.Status == f.Status)
}

func (r memBookings) List(_ context.Context, f models.BookingFilter, page domain.Pagination) (out []models.Booking, total int, err error) {
	err = r.do(func(m *memStore) error {
		out, total = pageOf(sortedValues(m.bookings, func(b models.Booking) bool { return bookingMatches(f, b) }), page)
		return nil
	})
	return out, total, err
}

func (r memBookings) Update(_ context.Context, b *models.Booking) error {
	return r.do(func(m *memStore) error {
		cur, ok := m.bookings[b.ID]
		if !ok || cur.Version != b.Version {
			return intdb.ErrVersionConflict
		}
		b.Version++
		m.bookings[b.ID] = *b
		return nil
	})
}

func (r memBookings) ListBySpot(_ context.Context, spotID int64, activeOnly bool) (out []models.Booking, err error) {
	err = r.do(func(m *memStore) error {
		out = sortedValues(m.bookings, func(b models.Booking) bool {
			return b.SpotID == spotID && (!activeOnly || b.Status.Active())
		})
		return nil
	})
	return out, err
}

type memPayments struct{ memRepo }

func (r memPayments) Create(_ context.Context, p *models.Payment) error {
	return r.do(func(m *memStore) error {
		p.ID = m.nextID()
		p.Version = 1
		m.payments[p.ID] = *p
		return nil
	})
}

func (r memPayments) Get(_ context.Context, id int64) (out models.Payment, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.payments, id, "payment"); return err })
	return out, err
}

func (r memPayments) GetForUpdate(ctx context.Context, id int64) (models.Payment, error) {
	return r.Get(ctx, id)
}

func (r memPayments) List(_ context.Context, f models.PaymentFilter, page domain.Pagination) (out []models.Payment, total int, err error) {
	err = r.do(func(m *memStore) error {
		all := sortedValues(m.payments, func(p models.Payment) bool {
			return (f.OperatorID == 0 || p.OperatorID == f.OperatorID) &&
				(f.CustomerID == 0 || p.CustomerID == f.CustomerID) &&
				(f.BookingID == 0 || p.BookingID == f.BookingID) &&
				(f.Status == "" || p.Status == f.Status)
		})
		out, total = pageOf(all, page)
		return nil
	})
	return out, total, err
}

func (r memPayments) Update(_ context.Context, p *models.Payment) error {
	return r.do(func(m *memStore) error {
		cur, ok := m.payments[p.ID]
		if !ok || cur.Version != p.Version {
			return intdb.ErrVersionConflict
		}
		p.Version++
		m.payments[p.ID] = *p
		return nil
	})
}

func (r memPayments) ListByBooking(_ context.Context, bookingID int64) (out []models.Payment, err error) {
	err = r.do(func(m *memStore) error {
		out = sortedValues(m.payments, func(p models.Payment) bool { return p.BookingID == bookingID })
		return nil
	})
	return out, err
}

type memTravelers struct{ memRepo }

func (r memTravelers) Create(_ context.Context, t *models.Traveler) error {
	return r.do(func(m *memStore) error {
		t.ID = m.nextID()
		m.travelers[t.ID] = *t
		return nil
	})
}

func (r memTravelers) Get(_ context.Context, id int64) (out models.Traveler, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.travelers, id, "traveler"); return err })
	return out, err
}

func (r memTravelers) ListByBooking(_ context.Context, bookingID int64) (out []models.Traveler, err error) {
	err = r.do(func(m *memStore) error {
		out = sortedValues(m.travelers, func(t models.Traveler) bool { return t.BookingID == bookingID })
		return nil
	})
	return out, err
}

func (r memTravelers) Delete(_ context.Context, id int64) error {
	return r.do(func(m *memStore) error { delete(m.travelers, id); return nil })
}

type memCustomers struct{ memRepo }

func (r memCustomers) Create(_ context.Context, c *models.Customer) error {
	return r.do(func(m *memStore) error {
		c.ID = m.nextID()
		m.customers[c.ID] = *c
		return nil
	})
}

func (r memCustomers) Get(_ context.Context, id int64) (out models.Customer, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.customers, id, "customer"); return err })
	return out, err
}

func (r memCustomers) Update(_ context.Context, c models.Customer) error {
	return r.do(func(m *memStore) error { m.customers[c.ID] = c; return nil })
}

func (m *memStore) summaries(operatorID int64) map[int64]models.CustomerSummary {
	out := map[int64]models.CustomerSummary{}
	for _, b := range m.bookings {
		if b.OperatorID != operatorID {
			continue
		}
		s, ok := out[b.CustomerID]
		if !ok {
			s.Customer = m.customers[b.CustomerID]
		}
		s.Bookings++
		s.TotalSpent += b.PaidAmount
		out[b.CustomerID] = s
	}
	return out
}

func (r memCustomers) ListForOperator(_ context.Context, operatorID int64, search string, page domain.Pagination) (out []models.CustomerSummary, total int, err error) {
	err = r.do(func(m *memStore) error {
		all := sortedValues(m.summaries(operatorID), func(s models.CustomerSummary) bool {
			return search == "" || strings.Contains(strings.ToLower(s.Name+" "+s.Email), strings.ToLower(search))
		})
		out, total = pageOf(all, page)
		return nil
	})
	return out, total, err
}

func (r memCustomers) GetForOperator(_ context.Context, operatorID, customerID int64) (out models.CustomerSummary, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.summaries(operatorID), customerID, "customer"); return err })
	return out, err
}

type memOperators struct{ memRepo }

func (r memOperators) Create(_ context.Context, o *models.Operator) error {
	return r.do(func(m *memStore) error {
		o.ID = m.nextID()
		m.operators[o.ID] = *o
		return nil
	})
}

func (r memOperators) Get(_ context.Context, id int64) (out models.Operator, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.operators, id, "operator"); return err })
	return out, err
}

func (r memOperators) Update(_ context.Context, o models.Operator) error {
	return r.do(func(m *memStore) error { m.operators[o.ID] = o; return nil })
}

type memUsers struct{ memRepo }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	return r.do(func(m *memStore) error {
		for _, existing := range m.users {
			if existing.Email == u.Email {
				return domain.ValidationError{Field: "email", Msg: "already registered"}
			}
		}
		u.ID = m.nextID()
		m.users[u.ID] = *u
		return nil
	})
}

func (r memUsers) Get(_ context.Context, id int64) (out models.User, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.users, id, "user"); return err })
	return out, err
}

func (r memUsers) GetByEmail(_ context.Context, email string) (out models.User, err error) {
	err = r.do(func(m *memStore) error {
		for _, u := range m.users {
			if u.Email == email {
				out = u
				return nil
			}
		}
		return domain.NotFoundError{Resource: "user"}
	})
	return out, err
}

type memCategories struct{ memRepo }

func (r memCategories) Create(_ context.Context, c *models.Category) error {
	return r.do(func(m *memStore) error {
		c.ID = m.nextID()
		m.categories[c.ID] = *c
		return nil
	})
}

func (r memCategories) Get(_ context.Context, id int64) (out models.Category, err error) {
	err = r.do(func(m *memStore) error { out, err = get(m.categories, id, "category"); return err })
	return out, err
}

func (r memCategories) List(_ context.Context, operatorID int64) (out []models.Category, err error) {
	err = r.do(func(m *memStore) error {
		out = sortedValues(m.categories, func(c models.Category) bool { return operatorID == 0 || c.OperatorID == operatorID })
		return nil
	})
	return out, err
}

func (r memCategories) Update(_ context.Context, c models.Category) error {
	return r.do(func(m *memStore) error { m.categories[c.ID] = c; return nil })
}

func (r memCategories) Delete(_ context.Context, id int64) error {
	return r.do(func(m *memStore) error { delete(m.categories, id); return nil })
}

func (r memCategories) CountTours(_ context.Context, categoryID int64) (n int, err error) {
	err = r.do(func(m *memStore) error {
		n = len(sortedValues(m.tours, func(t models.Tour) bool { return t.CategoryID != nil && *t.CategoryID == categoryID }))
		return nil
	})
	return n, err
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
