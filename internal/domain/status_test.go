package domain

import "testing"

func TestBookingTransitionTable(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingRefunded, false},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingRefunded, true},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingRefunded, BookingCancelled, false},
		{BookingCompleted, BookingRefunded, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.ok)
		}
	}
	for _, st := range []BookingStatus{BookingCancelled, BookingRefunded, BookingCompleted} {
		if !st.Terminal() {
			t.Fatalf("%s should be terminal", st)
		}
	}
}

func TestPaymentTransitionTable(t *testing.T) {
	if !PaymentPending.CanTransition(PaymentFailed) || !PaymentCompleted.CanTransition(PaymentRefunded) {
		t.Fatalf("expected allowed transitions to be allowed")
	}
	if PaymentPending.CanTransition(PaymentRefunded) || PaymentFailed.CanTransition(PaymentCompleted) {
		t.Fatalf("expected forbidden transitions to be rejected")
	}
}

func TestParseIsCaseInsensitive(t *testing.T) {
	if st, ok := ParseBookingStatus(" completed "); !ok || st != BookingCompleted {
		t.Fatalf("got %q %v", st, ok)
	}
	if _, ok := ParseBookingStatus("Lunas"); ok {
		t.Fatalf("unknown status accepted")
	}
	if m, ok := ParsePaymentMethod("bank_transfer"); !ok || m != MethodBankTransfer {
		t.Fatalf("got %q %v", m, ok)
	}
}

func TestRequestContextVerify(t *testing.T) {
	if err := (RequestContext{}).Verify(); !IsUnauthorized(err) {
		t.Fatalf("empty claim should be unauthorized, got %v", err)
	}
	if err := (RequestContext{UserID: 1, Role: RoleOperator}).Verify(); !IsUnauthorized(err) {
		t.Fatalf("operator without tenant should be unauthorized, got %v", err)
	}
	if err := (RequestContext{UserID: 1, Role: RoleCustomer, CustomerID: 9}).Verify(); err != nil {
		t.Fatalf("valid claim rejected: %v", err)
	}
}
