package handlers

import (
	"net/http"

	"tourbook/internal/services"

	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

type categoryPatchRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

func (h *Handler) categories(c *gin.Context) services.CategoryService {
	return services.CategoryService{Deps: h.deps(c)}
}

func (h *Handler) PublicListCategories(c *gin.Context) {
	items, err := h.categories(c).PublicList(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, pageOfAll(len(items)))
}

func (h *Handler) ListCategories(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	items, err := h.categories(c).List(c.Request.Context(), rc)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, pageOfAll(len(items)))
}

func (h *Handler) CreateCategory(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.categories(c).Create(c.Request.Context(), rc, req.Name, req.Description)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req categoryPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.categories(c).Update(c.Request.Context(), rc, id, req.Name, req.Description)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.categories(c).Delete(c.Request.Context(), rc, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
