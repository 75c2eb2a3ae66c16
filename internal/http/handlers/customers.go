package handlers

import (
	"net/http"
	"strings"

	"tourbook/internal/services"

	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=120"`
	Email *string `json:"email" binding:"omitempty,email,max=190"`
	Phone *string `json:"phone" binding:"omitempty,max=40"`
}

func (r profileRequest) input() services.ProfileInput {
	return services.ProfileInput{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

func (h *Handler) customers(c *gin.Context) services.CustomerService {
	return services.CustomerService{Deps: h.deps(c)}
}

func (h *Handler) ListCustomers(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	items, page, err := h.customers(c).List(c.Request.Context(), rc, strings.TrimSpace(c.Query("q")), pageParams(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, page)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	cust, err := h.customers(c).Get(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *Handler) CustomerProfile(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	cust, err := h.customers(c).Profile(c.Request.Context(), rc)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *Handler) UpdateCustomerProfile(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	cust, err := h.customers(c).UpdateProfile(c.Request.Context(), rc, req.input())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *Handler) OperatorProfile(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	op, err := h.customers(c).OperatorProfile(c.Request.Context(), rc)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, op)
}

func (h *Handler) UpdateOperatorProfile(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	op, err := h.customers(c).UpdateOperatorProfile(c.Request.Context(), rc, req.input())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, op)
}
