package notify

import (
	"context"
	"fmt"

	"tourbook/internal/utils"
)

// LogSink writes every event to the application log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Send(_ context.Context, ev Event) error {
	utils.LogEvent(ev.RequestID, "event", string(ev.Type),
		fmt.Sprintf("booking=%s payment_id=%d status=%s amount=%d", ev.BookingNumber, ev.PaymentID, ev.Status, ev.Amount))
	return nil
}
