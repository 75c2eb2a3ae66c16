package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/http/middleware"
	"tourbook/internal/media"
	"tourbook/internal/services"

	"github.com/gin-gonic/gin"
)

// Handler holds the collaborators every endpoint needs. Services are built per request so
// their logs carry the request id.
type Handler struct {
	Deps      services.Deps
	Auth      services.AuthService
	Analytics services.AnalyticsReader
	Signer    *media.CloudinarySigner
	Ping      func(ctx context.Context) error
}

func (h *Handler) deps(c *gin.Context) services.Deps {
	return h.Deps.WithRequest(middleware.GetRequestID(c))
}

func (h *Handler) now() time.Time {
	if h.Deps.Now != nil {
		return h.Deps.Now()
	}
	return time.Now().UTC()
}

// ListResponse wraps paged collections.
type ListResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination domain.Pagination `json:"pagination"`
}

func respondList[T any](c *gin.Context, items []T, page domain.Pagination) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListResponse[T]{Items: items, Pagination: page})
}

// caller returns the authenticated caller or answers 401.
func caller(c *gin.Context) (domain.RequestContext, bool) {
	rc, ok := middleware.Caller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "missing caller identity", nil)
		return domain.RequestContext{}, false
	}
	return rc, true
}

// idParam parses a positive int64 path parameter or answers 400.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid "+name, []FieldError{{Field: name, Rule: "id"}})
		return 0, false
	}
	return id, true
}

// queryID reads an optional positive id from the query string; missing means 0.
func queryID(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid "+name, []FieldError{{Field: name, Rule: "id"}})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	return n
}

func pageParams(c *gin.Context) domain.Pagination {
	return domain.Pagination{Page: queryInt(c, "page"), PageSize: queryInt(c, "page_size")}.Normalize()
}

// bindJSON binds and validates a required body.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "request body is required", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body and leaves dst untouched.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func sendPDF(c *gin.Context, pdf []byte, filename string) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// pageOfAll describes an unpaged collection as a single page.
func pageOfAll(n int) domain.Pagination {
	return domain.Pagination{Page: 1, PageSize: n, Total: n}
}
