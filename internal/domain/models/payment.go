package models

import (
	"fmt"
	"strings"
	"time"

	"tourbook/internal/domain"
)

// Payment is one monetary transaction against a booking.
type Payment struct {
	ID             int64                `json:"id"`
	BookingID      int64                `json:"bookingId"`
	OperatorID     int64                `json:"operatorId"`
	CustomerID     int64                `json:"customerId"`
	Amount         int64                `json:"amount"`
	RefundedAmount int64                `json:"refundedAmount"`
	Currency       string               `json:"currency"`
	Method         domain.PaymentMethod `json:"method"`
	GatewayTxnID   string               `json:"gatewayTxnId,omitempty"`
	Status         domain.PaymentStatus `json:"status"`
	FailureReason  string               `json:"failureReason,omitempty"`
	RefundReason   string               `json:"refundReason,omitempty"`
	CompletedAt    *time.Time           `json:"completedAt,omitempty"`
	RefundedAt     *time.Time           `json:"refundedAt,omitempty"`
	Version        int64                `json:"-"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

type PaymentFilter struct {
	OperatorID int64
	CustomerID int64
	BookingID  int64
	Status     domain.PaymentStatus
}

func (p Payment) Refundable() int64 {
	return p.Amount - p.RefundedAmount
}

func (p *Payment) transition(to domain.PaymentStatus) error {
	if !p.Status.CanTransition(to) {
		return domain.InvalidTransitionError{Entity: "payment", From: string(p.Status), To: string(to)}
	}
	p.Status = to
	return nil
}

func (p *Payment) Complete(gatewayTxnID string, now time.Time) error {
	if err := p.transition(domain.PaymentCompleted); err != nil {
		return err
	}
	if txn := strings.TrimSpace(gatewayTxnID); txn != "" {
		p.GatewayTxnID = txn
	}
	p.CompletedAt = &now
	return nil
}

func (p *Payment) Fail(reason string, now time.Time) error {
	if err := p.transition(domain.PaymentFailed); err != nil {
		return err
	}
	p.FailureReason = strings.TrimSpace(reason)
	return nil
}

// Refund returns amount (0 = everything still refundable) and reports the amount applied.
// The payment turns REFUNDED once nothing is left to refund.
func (p *Payment) Refund(amount int64, reason string, now time.Time) (int64, error) {
	if p.Status == domain.PaymentRefunded {
		return 0, domain.AlreadyRefundedError{PaymentID: p.ID}
	}
	if p.Status != domain.PaymentCompleted {
		return 0, domain.InvalidTransitionError{Entity: "payment", From: string(p.Status), To: string(domain.PaymentRefunded)}
	}
	if amount < 0 {
		return 0, domain.ValidationError{Field: "amount", Msg: "must not be negative"}
	}
	if amount == 0 {
		amount = p.Refundable()
	}
	if amount > p.Refundable() {
		return 0, domain.ValidationError{Field: "amount", Msg: fmt.Sprintf("exceeds refundable amount of %d", p.Refundable())}
	}
	p.RefundedAmount += amount
	if r := strings.TrimSpace(reason); r != "" {
		p.RefundReason = r
	}
	if p.Refundable() == 0 {
		if err := p.transition(domain.PaymentRefunded); err != nil {
			return 0, err
		}
		p.RefundedAt = &now
	}
	return amount, nil
}
