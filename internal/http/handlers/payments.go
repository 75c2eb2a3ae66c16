package handlers

import (
	"net/http"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/services"

	"github.com/gin-gonic/gin"
)

type paymentRequest struct {
	Amount       int64  `json:"amount" binding:"required,gt=0"`
	Currency     string `json:"currency" binding:"omitempty,currency"`
	Method       string `json:"method" binding:"required,payment_method"`
	GatewayTxnID string `json:"gatewayTxnId" binding:"max=120"`
}

type completePaymentRequest struct {
	GatewayTxnID string `json:"gatewayTxnId" binding:"max=120"`
}

type refundRequest struct {
	Amount int64  `json:"amount" binding:"gte=0"`
	Reason string `json:"reason" binding:"max=500"`
}

// PaymentResult pairs a settled payment with the booking it moved.
type PaymentResult struct {
	Payment models.Payment `json:"payment"`
	Booking models.Booking `json:"booking"`
}

func (h *Handler) payments(c *gin.Context) services.PaymentService {
	return services.PaymentService{Deps: h.deps(c)}
}

// CreatePayment records a PENDING payment against a booking.
func (h *Handler) CreatePayment(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	bookingID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.payments(c).Create(c.Request.Context(), rc, bookingID, services.CreatePaymentInput{
		Amount:       req.Amount,
		Currency:     req.Currency,
		Method:       req.Method,
		GatewayTxnID: req.GatewayTxnID,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPayments(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	var f models.PaymentFilter
	if f.BookingID, ok = queryID(c, "booking_id"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		st, valid := domain.ParsePaymentStatus(raw)
		if !valid {
			respondError(c, http.StatusBadRequest, "validation_error", "invalid status", []FieldError{{Field: "status", Rule: "oneof"}})
			return
		}
		f.Status = st
	}
	items, page, err := h.payments(c).List(c.Request.Context(), rc, f, pageParams(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, page)
}

func (h *Handler) GetPayment(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.payments(c).Get(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CompletePayment(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req completePaymentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	p, b, err := h.payments(c).Complete(c.Request.Context(), rc, id, req.GatewayTxnID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, PaymentResult{Payment: p, Booking: b})
}

func (h *Handler) FailPayment(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	p, b, err := h.payments(c).Fail(c.Request.Context(), rc, id, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, PaymentResult{Payment: p, Booking: b})
}

// RefundPayment returns money on a completed payment; amount 0 refunds the remaining balance.
func (h *Handler) RefundPayment(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req refundRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	p, b, err := h.payments(c).Refund(c.Request.Context(), rc, id, req.Amount, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, PaymentResult{Payment: p, Booking: b})
}
