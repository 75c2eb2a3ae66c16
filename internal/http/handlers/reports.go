package handlers

import (
	"errors"
	"net/http"

	"tourbook/internal/media"
	"tourbook/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) analytics(c *gin.Context) services.AnalyticsService {
	return services.AnalyticsService{Deps: h.deps(c), Reader: h.Analytics}
}

func (h *Handler) docs(c *gin.Context) services.DocsService {
	return services.DocsService{Deps: h.deps(c)}
}

func (h *Handler) AnalyticsSummary(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	sum, err := h.analytics(c).Dashboard(c.Request.Context(), rc)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) AnalyticsRevenue(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	points, err := h.analytics(c).Revenue(c.Request.Context(), rc, queryInt(c, "months"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, points, pageOfAll(len(points)))
}

func (h *Handler) AnalyticsTours(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	items, err := h.analytics(c).Tours(c.Request.Context(), rc, queryInt(c, "limit"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondList(c, items, pageOfAll(len(items)))
}

func (h *Handler) BookingInvoice(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	pdf, name, err := h.docs(c).Invoice(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, pdf, name)
}

func (h *Handler) SpotManifest(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	pdf, name, err := h.docs(c).Manifest(c.Request.Context(), rc, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, pdf, name)
}

// UploadSignature hands the browser signed params for a direct Cloudinary upload.
func (h *Handler) UploadSignature(c *gin.Context) {
	rc, ok := caller(c)
	if !ok {
		return
	}
	sig, err := h.Signer.Sign(rc.OperatorID, h.now())
	if errors.Is(err, media.ErrDisabled) {
		respondError(c, http.StatusServiceUnavailable, "uploads_disabled", "image uploads are not configured", nil)
		return
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sig)
}
