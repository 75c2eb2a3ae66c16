package models

import (
	"strings"
	"testing"

	"tourbook/internal/domain"
)

func pendingBooking() Booking {
	return Booking{ID: 1, Seats: 4, TotalAmount: 996, Status: domain.BookingPending}
}

func TestBookingPartialPaymentStaysPending(t *testing.T) {
	b := pendingBooking()
	confirmed, err := b.ApplyPayment(550)
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if confirmed || b.PaidAmount != 550 || b.Status != domain.BookingPending {
		t.Fatalf("expected PENDING with 550 paid, got %s %d", b.Status, b.PaidAmount)
	}

	confirmed, err = b.ApplyPayment(446)
	if err != nil {
		t.Fatalf("apply remainder: %v", err)
	}
	if !confirmed || b.Status != domain.BookingConfirmed || b.PaidAmount != 996 {
		t.Fatalf("expected CONFIRMED fully paid, got %s %d", b.Status, b.PaidAmount)
	}
}

func TestBookingRejectsOverpayment(t *testing.T) {
	b := pendingBooking()
	b.PaidAmount = 900
	if _, err := b.ApplyPayment(97); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if b.PaidAmount != 900 {
		t.Fatalf("paid amount changed to %d", b.PaidAmount)
	}
}

func TestBookingTerminalStatesRejectMoney(t *testing.T) {
	for _, st := range []domain.BookingStatus{domain.BookingCancelled, domain.BookingRefunded, domain.BookingCompleted} {
		b := pendingBooking()
		b.Status = st
		if _, err := b.ApplyPayment(10); !domain.IsInvalidTransition(err) {
			t.Fatalf("%s payment: expected invalid transition, got %v", st, err)
		}
		if _, err := b.ApplyRefund(10); !domain.IsInvalidTransition(err) {
			t.Fatalf("%s refund: expected invalid transition, got %v", st, err)
		}
	}
}

func TestBookingRefundOfConfirmedBooking(t *testing.T) {
	b := pendingBooking()
	b.Status = domain.BookingConfirmed
	b.PaidAmount = 996

	release, err := b.ApplyRefund(400)
	if err != nil || release {
		t.Fatalf("partial refund should keep booking confirmed, got release=%v err=%v", release, err)
	}
	if b.Status != domain.BookingConfirmed || b.PaidAmount != 596 || b.RefundedAmount != 400 {
		t.Fatalf("unexpected state %s paid=%d refunded=%d", b.Status, b.PaidAmount, b.RefundedAmount)
	}

	release, err = b.ApplyRefund(596)
	if err != nil || !release {
		t.Fatalf("final refund should release seats, got release=%v err=%v", release, err)
	}
	if b.Status != domain.BookingRefunded || b.PaidAmount != 0 || b.RefundedAmount != 996 {
		t.Fatalf("unexpected state %s paid=%d refunded=%d", b.Status, b.PaidAmount, b.RefundedAmount)
	}
}

func TestBookingRefundOfPendingBookingKeepsSeats(t *testing.T) {
	b := pendingBooking()
	b.PaidAmount = 550
	release, err := b.ApplyRefund(550)
	if err != nil || release {
		t.Fatalf("pending refund: release=%v err=%v", release, err)
	}
	if b.Status != domain.BookingPending || b.PaidAmount != 0 {
		t.Fatalf("unexpected state %s paid=%d", b.Status, b.PaidAmount)
	}
}

func TestBookingCancelRequiresRefundFirst(t *testing.T) {
	b := pendingBooking()
	b.PaidAmount = 100
	err := b.Cancel("changed plans")
	if !domain.IsInvalidTransition(err) || !strings.Contains(err.Error(), "refund") {
		t.Fatalf("expected refund-first error, got %v", err)
	}

	b.PaidAmount = 0
	if err := b.Cancel("  changed plans "); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if b.Status != domain.BookingCancelled || b.CancelReason != "changed plans" {
		t.Fatalf("unexpected state %s %q", b.Status, b.CancelReason)
	}
	if err := b.Cancel(""); !domain.IsInvalidTransition(err) {
		t.Fatalf("second cancel should fail, got %v", err)
	}
}

func TestBookingCompleteOnlyFromConfirmed(t *testing.T) {
	b := pendingBooking()
	if err := b.Complete(); !domain.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	b.Status = domain.BookingConfirmed
	if err := b.Complete(); err != nil || b.Status != domain.BookingCompleted {
		t.Fatalf("complete: %v %s", err, b.Status)
	}
}

func TestNewBookingNumberFormat(t *testing.T) {
	n := NewBookingNumber()
	if !strings.HasPrefix(n, "BK-") || len(n) != 11 || strings.ToUpper(n) != n {
		t.Fatalf("unexpected booking number %q", n)
	}
}
