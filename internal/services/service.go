package services

import (
	"context"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/notify"
	"tourbook/internal/repositories"
	"tourbook/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("tourbook/services")

// Notifier receives lifecycle events after their transaction committed.
type Notifier interface {
	Notify(ev notify.Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(notify.Event) {}

// Deps is shared by every service. Handlers copy it per request with RequestID set.
type Deps struct {
	Store     repositories.UnitOfWork
	Notifier  Notifier
	Now       func() time.Time
	RequestID string
}

func (d Deps) WithRequest(requestID string) Deps {
	d.RequestID = requestID
	return d
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

func (d Deps) notifier() Notifier {
	if d.Notifier != nil {
		return d.Notifier
	}
	return nopNotifier{}
}

func (d Deps) log(module, action, format string, args ...any) {
	utils.LogEventf(d.RequestID, module, action, format, args...)
}

// bookingEvent builds an event for b and attaches the customer's contact details when known.
func (d Deps) bookingEvent(ctx context.Context, t notify.EventType, b models.Booking) notify.Event {
	ev := notify.NewEvent(t, d.now())
	ev.RequestID = d.RequestID
	ev.OperatorID = b.OperatorID
	ev.CustomerID = b.CustomerID
	ev.BookingID = b.ID
	ev.BookingNumber = b.BookingNumber
	ev.Seats = b.Seats
	ev.Currency = b.Currency
	ev.Status = string(b.Status)
	if repo := d.Store.Repos().Customers; repo != nil {
		if c, err := repo.Get(ctx, b.CustomerID); err == nil {
			ev.CustomerName = c.Name
			ev.CustomerEmail = c.Email
		}
	}
	return ev
}

func (d Deps) publish(events ...notify.Event) {
	n := d.notifier()
	for _, ev := range events {
		n.Notify(ev)
	}
}

// wrapErr keeps rule violations and conflicts as they are and hides infrastructure failures.
func wrapErr(op string, err error) error {
	if err == nil || domain.IsBusiness(err) || domain.IsConflict(err) || domain.IsInternal(err) {
		return err
	}
	return domain.InternalError{Msg: op + " failed", Err: err}
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// bookingVisible reports whether the caller may see b. Invisible rows are reported as not found.
func bookingVisible(rc domain.RequestContext, b models.Booking) bool {
	switch {
	case rc.IsOperator():
		return b.OperatorID == rc.OperatorID
	case rc.IsCustomer():
		return b.CustomerID == rc.CustomerID
	}
	return false
}

func requireOperator(rc domain.RequestContext) error {
	if err := rc.Verify(); err != nil {
		return err
	}
	if !rc.IsOperator() {
		return domain.ForbiddenError{Msg: "operator access required"}
	}
	return nil
}

func requireCustomer(rc domain.RequestContext) error {
	if err := rc.Verify(); err != nil {
		return err
	}
	if !rc.IsCustomer() {
		return domain.ForbiddenError{Msg: "customer access required"}
	}
	return nil
}
