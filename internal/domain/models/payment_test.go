package models

import (
	"testing"

	"tourbook/internal/domain"
)

func TestPaymentLifecycle(t *testing.T) {
	p := Payment{ID: 3, Amount: 500, Status: domain.PaymentPending}
	if _, err := p.Refund(0, "", testNow); !domain.IsInvalidTransition(err) {
		t.Fatalf("refund of pending payment: expected invalid transition, got %v", err)
	}
	if err := p.Complete(" txn-1 ", testNow); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if p.GatewayTxnID != "txn-1" || p.CompletedAt == nil {
		t.Fatalf("completion details missing: %+v", p)
	}
	if err := p.Fail("late decline", testNow); !domain.IsInvalidTransition(err) {
		t.Fatalf("fail after complete: expected invalid transition, got %v", err)
	}
}

func TestPaymentPartialThenFullRefund(t *testing.T) {
	p := Payment{ID: 3, Amount: 500, Status: domain.PaymentCompleted}

	applied, err := p.Refund(200, "goodwill", testNow)
	if err != nil || applied != 200 {
		t.Fatalf("partial refund: applied=%d err=%v", applied, err)
	}
	if p.Status != domain.PaymentCompleted || p.Refundable() != 300 {
		t.Fatalf("unexpected state %s refundable=%d", p.Status, p.Refundable())
	}

	if _, err := p.Refund(301, "", testNow); !domain.IsValidation(err) {
		t.Fatalf("over-refund: expected validation, got %v", err)
	}

	applied, err = p.Refund(0, "", testNow)
	if err != nil || applied != 300 {
		t.Fatalf("remaining refund: applied=%d err=%v", applied, err)
	}
	if p.Status != domain.PaymentRefunded || p.RefundedAt == nil || p.RefundReason != "goodwill" {
		t.Fatalf("unexpected final state %+v", p)
	}

	if _, err := p.Refund(0, "", testNow); !domain.IsAlreadyRefunded(err) {
		t.Fatalf("second refund: expected AlreadyRefunded, got %v", err)
	}
}

func TestPaymentFail(t *testing.T) {
	p := Payment{ID: 4, Amount: 100, Status: domain.PaymentPending}
	if err := p.Fail(" card declined ", testNow); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if p.Status != domain.PaymentFailed || p.FailureReason != "card declined" {
		t.Fatalf("unexpected state %+v", p)
	}
	if err := p.Complete("", testNow); !domain.IsInvalidTransition(err) {
		t.Fatalf("complete after fail: expected invalid transition, got %v", err)
	}
}
