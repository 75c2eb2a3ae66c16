package handlers

import (
	"net/http"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/services"

	"github.com/gin-gonic/gin"
)

type travelerRequest struct {
	FullName       string `json:"fullName" binding:"required,max=150"`
	PassportNumber string `json:"passportNumber" binding:"max=40"`
	Nationality    string `json:"nationality" binding:"max=60"`
	DateOfBirth    string `json:"dateOfBirth"`
	Email          string `json:"email" binding:"omitempty,email"`
	Phone          string `json:"phone" binding:"max=40"`
	MedicalNotes   string `json:"medicalNotes" binding:"max=2000"`
}

type bookingRequest struct {
	SpotID          int64             `json:"spotId" binding:"required,gt=0"`
	Seats           int               `json:"seats" binding:"required,gt=0"`
	CustomerID      int64             `json:"customerId" binding:"omitempty,gt=0"`
	SpecialRequests string            `json:"specialRequests" binding:"max=2000"`
	Travelers       []travelerRequest `json:"travelers" binding:"omitempty,dive"`
}

type travelersRequest struct {
	Travelers []travelerRequest `json:"travelers" binding:"required,min=1,dive"`
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

func travelerInputs(in []travelerRequest) []services.TravelerInput {
	out := make([]services.TravelerInput, 0, len(in))
	for _, t := range in {
		out = append(out, services.TravelerInput{
			FullName:       t.FullName,
			PassportNumber: t.PassportNumber,
			Nationality:    t.Nationality,
			DateOfBirth:    t.DateOfBirth,
			Email:          t.Email,
			Phone:          t.Phone,
			MedicalNotes:   t.MedicalNotes,
		})
	}
	return out
}

func (h *Handler) bookings(c *gin.Context) services.BookingService {
	return services.BookingService{Deps: h.deps(c)}
}

// CreateBooking reserves seats. Customers book for themselves; operators name the customer.
func (h *Handler) CreateBooking(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	var req bookingRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.bookings(c).Create(c.Request.Context(), rc, services.CreateBookingInput{
		SpotID:          req.SpotID,
		Seats:           req.Seats,
		CustomerID:      req.CustomerID,
		SpecialRequests: req.SpecialRequests,
		Travelers:       travelerInputs(req.Travelers),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListBookings(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	var f models.BookingFilter
	if f.SpotID, ok = queryID(c, "spot_id"); !ok {
		return
	}
	if f.TourID, ok = queryID(c, "tour_id"); !ok {
		return
	}
	if f.CustomerID, ok = queryID(c, "customer_id"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		st, valid := domain.ParseBookingStatus(raw)
		if !valid {
			respondError(c, http.StatusBadRequest, "validation_error", "invalid status", []FieldError{{Field: "status", Rule: "oneof"}})
			return
		}
		f.Status = st
	}
	items, page, err := h.bookings(c).List(c.Request.Context(), rc, f, pageParams(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, page)
}

func (h *Handler) GetBooking(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings(c).Get(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CancelBooking(c *gin.Context) {
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
	b, err := h.bookings(c).Cancel(c.Request.Context(), rc, id, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CompleteBooking(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings(c).Complete(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) AddTravelers(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req travelersRequest
	if !bindJSON(c, &req) {
		return
	}
	items, err := h.bookings(c).AddTravelers(c.Request.Context(), rc, id, travelerInputs(req.Travelers))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ListResponse[models.Traveler]{Items: items, Pagination: pageOfAll(len(items))})
}

func (h *Handler) ListTravelers(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	items, err := h.bookings(c).ListTravelers(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, pageOfAll(len(items)))
}

func (h *Handler) DeleteTraveler(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.bookings(c).DeleteTraveler(c.Request.Context(), rc, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
