package repositories

import (
	"context"
	"database/sql"
	"time"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
)

type TourRepo interface {
	Create(ctx context.Context, t *models.Tour) error
	Get(ctx context.Context, id int64) (models.Tour, error)
	List(ctx context.Context, f models.TourFilter, page domain.Pagination) ([]models.Tour, int, error)
	Update(ctx context.Context, t models.Tour) error
	Delete(ctx context.Context, id int64) error
	CountSpots(ctx context.Context, tourID int64) (int, error)
}

type SpotRepo interface {
	Create(ctx context.Context, s *models.Spot) error
	Get(ctx context.Context, id int64) (models.Spot, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (models.Spot, error)
	ListByTour(ctx context.Context, tourID int64, upcomingFrom *time.Time) ([]models.Spot, error)
	// Update writes with a version compare-and-swap and bumps s.Version.
	Update(ctx context.Context, s *models.Spot) error
	Delete(ctx context.Context, id int64) error
	ListFinished(ctx context.Context, now time.Time, limit int) ([]models.Spot, error)
}

type BookingRepo interface {
	Create(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, id int64) (models.Booking, error)
	GetForUpdate(ctx context.Context, id int64) (models.Booking, error)
	List(ctx context.Context, f models.BookingFilter, page domain.Pagination) ([]models.Booking, int, error)
	Update(ctx context.Context, b *models.Booking) error
	ListBySpot(ctx context.Context, spotID int64, activeOnly bool) ([]models.Booking, error)
}

type PaymentRepo interface {
	Create(ctx context.Context, p *models.Payment) error
	Get(ctx context.Context, id int64) (models.Payment, error)
	GetForUpdate(ctx context.Context, id int64) (models.Payment, error)
	List(ctx context.Context, f models.PaymentFilter, page domain.Pagination) ([]models.Payment, int, error)
	Update(ctx context.Context, p *models.Payment) error
	ListByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error)
}

type TravelerRepo interface {
	Create(ctx context.Context, t *models.Traveler) error
	Get(ctx context.Context, id int64) (models.Traveler, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]models.Traveler, error)
	Delete(ctx context.Context, id int64) error
}

type CustomerRepo interface {
	Create(ctx context.Context, c *models.Customer) error
	Get(ctx context.Context, id int64) (models.Customer, error)
	Update(ctx context.Context, c models.Customer) error
	ListForOperator(ctx context.Context, operatorID int64, search string, page domain.Pagination) ([]models.CustomerSummary, int, error)
	GetForOperator(ctx context.Context, operatorID, customerID int64) (models.CustomerSummary, error)
}

type OperatorRepo interface {
	Create(ctx context.Context, o *models.Operator) error
	Get(ctx context.Context, id int64) (models.Operator, error)
	Update(ctx context.Context, o models.Operator) error
}

type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id int64) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type CategoryRepo interface {
	Create(ctx context.Context, c *models.Category) error
	Get(ctx context.Context, id int64) (models.Category, error)
	List(ctx context.Context, operatorID int64) ([]models.Category, error)
	Update(ctx context.Context, c models.Category) error
	Delete(ctx context.Context, id int64) error
	CountTours(ctx context.Context, categoryID int64) (int, error)
}

// Repos is the set of repositories bound to one connection or transaction.
// Fields a caller does not need may be nil.
type Repos struct {
	Tours      TourRepo
	Spots      SpotRepo
	Bookings   BookingRepo
	Payments   PaymentRepo
	Travelers  TravelerRepo
	Customers  CustomerRepo
	Operators  OperatorRepo
	Users      UserRepo
	Categories CategoryRepo
}

// UnitOfWork hands out repositories and runs atomic units of work.
type UnitOfWork interface {
	Repos() Repos
	// InTx runs fn in one transaction, retrying transient contention. resource names
	// what is contended when retries run out.
	InTx(ctx context.Context, resource string, fn func(ctx context.Context, r Repos) error) error
}

// Store is the MySQL UnitOfWork.
type Store struct {
	DB    *sql.DB
	Tx    intdb.TxOptions
	Retry intdb.RetryPolicy
}

func NewStore(conn *sql.DB, tx intdb.TxOptions, retry intdb.RetryPolicy) *Store {
	return &Store{DB: conn, Tx: tx, Retry: retry}
}

func (s *Store) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s *Store) Repos() Repos {
	return bind(s.db())
}

func (s *Store) InTx(ctx context.Context, resource string, fn func(ctx context.Context, r Repos) error) error {
	return s.Retry.Do(ctx, resource, func(ctx context.Context) error {
		return intdb.RunInTx(ctx, s.db(), s.Tx, func(tx *sql.Tx) error {
			return fn(ctx, bind(tx))
		})
	})
}

func bind(q intdb.DBTX) Repos {
	return Repos{
		Tours:      TourRepository{DB: q},
		Spots:      SpotRepository{DB: q},
		Bookings:   BookingRepository{DB: q},
		Payments:   PaymentRepository{DB: q},
		Travelers:  TravelerRepository{DB: q},
		Customers:  CustomerRepository{DB: q},
		Operators:  OperatorRepository{DB: q},
		Users:      UserRepository{DB: q},
		Categories: CategoryRepository{DB: q},
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(resource string, err error) error {
	if err == sql.ErrNoRows {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return err
}

// casResult turns a compare-and-swap update result into ErrVersionConflict when no row matched.
func casResult(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return intdb.ErrVersionConflict
	}
	return nil
}

func limitOffset(page domain.Pagination) (int, int) {
	p := page.Normalize()
	return p.PageSize, p.Offset()
}
