package handlers

import (
	"net/http"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/services"

	"github.com/gin-gonic/gin"
)

type tourRequest struct {
	CategoryID    *int64 `json:"categoryId" binding:"omitempty,gt=0"`
	Title         string `json:"title" binding:"required,max=200"`
	Description   string `json:"description" binding:"max=10000"`
	Price         int64  `json:"price" binding:"gte=0"`
	Currency      string `json:"currency" binding:"required,currency"`
	CoverImageURL string `json:"coverImageUrl" binding:"omitempty,url,max=500"`
}

type tourPatchRequest struct {
	CategoryID    *int64  `json:"categoryId" binding:"omitempty,gt=0"`
	Title         *string `json:"title" binding:"omitempty,max=200"`
	Description   *string `json:"description" binding:"omitempty,max=10000"`
	Price         *int64  `json:"price" binding:"omitempty,gte=0"`
	Currency      *string `json:"currency" binding:"omitempty,currency"`
	CoverImageURL *string `json:"coverImageUrl" binding:"omitempty,max=500"`
}

type publishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) tours(c *gin.Context) services.TourService {
	return services.TourService{Deps: h.deps(c)}
}

// tourFilter reads category_id, status and q from the query string.
func tourFilter(c *gin.Context) (models.TourFilter, bool) {
	var f models.TourFilter
	var ok bool
	if f.CategoryID, ok = queryID(c, "category_id"); !ok {
		return f, false
	}
	if raw := c.Query("status"); raw != "" {
		st, valid := domain.ParseTourStatus(raw)
		if !valid {
			respondError(c, http.StatusBadRequest, "validation_error", "invalid status", []FieldError{{Field: "status", Rule: "oneof"}})
			return f, false
		}
		f.Status = st
	}
	f.Search = strings.TrimSpace(c.Query("q"))
	return f, true
}

func (h *Handler) PublicListTours(c *gin.Context) {
	f, ok := tourFilter(c)
	if !ok {
		return
	}
	items, page, err := h.tours(c).PublicList(c.Request.Context(), f, pageParams(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, page)
}

func (h *Handler) PublicGetTour(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.tours(c).PublicGet(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) ListTours(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	f, ok := tourFilter(c)
	if !ok {
		return
	}
	items, page, err := h.tours(c).List(c.Request.Context(), rc, f, pageParams(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, page)
}

func (h *Handler) GetTour(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	tour, err := h.tours(c).Get(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

func (h *Handler) CreateTour(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	var req tourRequest
	if !bindJSON(c, &req) {
		return
	}
	tour, err := h.tours(c).Create(c.Request.Context(), rc, services.TourInput{
		CategoryID:    req.CategoryID,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		Currency:      req.Currency,
		CoverImageURL: req.CoverImageURL,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tour)
}

func (h *Handler) UpdateTour(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req tourPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	tour, err := h.tours(c).Update(c.Request.Context(), rc, id, models.TourUpdate{
		CategoryID:    req.CategoryID,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		Currency:      req.Currency,
		CoverImageURL: req.CoverImageURL,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

func (h *Handler) PublishTour(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req publishRequest
	if !bindJSON(c, &req) {
		return
	}
	tour, err := h.tours(c).SetPublished(c.Request.Context(), rc, id, *req.Published)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

func (h *Handler) SetTourStatus(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	st, valid := domain.ParseTourStatus(req.Status)
	if !valid {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid status", []FieldError{{Field: "status", Rule: "oneof"}})
		return
	}
	tour, err := h.tours(c).SetStatus(c.Request.Context(), rc, id, st)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

func (h *Handler) DeleteTour(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.tours(c).Delete(c.Request.Context(), rc, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
