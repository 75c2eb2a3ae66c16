package handlers

import (
	"net/http"

	"tourbook/internal/services"

	"github.com/gin-gonic/gin"
)

type spotRequest struct {
	Name          string `json:"name" binding:"max=120"`
	DepartureDate string `json:"departureDate" binding:"required"`
	ReturnDate    string `json:"returnDate"`
	MaxSeats      int    `json:"maxSeats" binding:"required,gt=0,lte=10000"`
	PriceOverride *int64 `json:"priceOverride" binding:"omitempty,gte=0"`
}

type spotPatchRequest struct {
	Name               *string `json:"name" binding:"omitempty,max=120"`
	DepartureDate      *string `json:"departureDate"`
	ReturnDate         *string `json:"returnDate"`
	MaxSeats           *int    `json:"maxSeats" binding:"omitempty,gt=0,lte=10000"`
	PriceOverride      *int64  `json:"priceOverride" binding:"omitempty,gte=0"`
	ClearPriceOverride bool    `json:"clearPriceOverride"`
}

func (h *Handler) spots(c *gin.Context) services.SpotService {
	return services.SpotService{Deps: h.deps(c)}
}

func (h *Handler) ListSpots(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	tourID, ok := idParam(c, "id")
	if !ok {
		return
	}
	items, err := h.spots(c).ListByTour(c.Request.Context(), rc, tourID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, pageOfAll(len(items)))
}

func (h *Handler) CreateSpot(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	tourID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req spotRequest
	if !bindJSON(c, &req) {
		return
	}
	spot, err := h.spots(c).Create(c.Request.Context(), rc, tourID, services.SpotInput{
		Name:          req.Name,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		MaxSeats:      req.MaxSeats,
		PriceOverride: req.PriceOverride,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, spot)
}

func (h *Handler) GetSpot(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	spot, err := h.spots(c).Get(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}

func (h *Handler) UpdateSpot(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req spotPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	spot, err := h.spots(c).Update(c.Request.Context(), rc, id, services.SpotUpdate{
		Name:               req.Name,
		DepartureDate:      req.DepartureDate,
		ReturnDate:         req.ReturnDate,
		MaxSeats:           req.MaxSeats,
		PriceOverride:      req.PriceOverride,
		ClearPriceOverride: req.ClearPriceOverride,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}

func (h *Handler) CancelSpot(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	spot, err := h.spots(c).Cancel(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}

func (h *Handler) DeleteSpot(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.spots(c).Delete(c.Request.Context(), rc, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
