package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/http/middleware"
	"tourbook/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the payload of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id"`
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. Unknown errors are logged and
// reported as a bare internal error.
func RespondDomainError(c *gin.Context, err error) {
	var (
		capacity   domain.CapacityExceededError
		transition domain.InvalidTransitionError
		refunded   domain.AlreadyRefundedError
		validation domain.ValidationError
	)
	switch {
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.As(err, &validation):
		var details any
		if validation.Field != "" {
			details = []FieldError{{Field: validation.Field, Rule: "invalid"}}
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case errors.As(err, &capacity):
		respondError(c, http.StatusConflict, "capacity_exceeded", capacity.Error(), gin.H{
			"spot_id":   capacity.SpotID,
			"requested": capacity.Requested,
			"remaining": capacity.Remaining,
		})
	case errors.As(err, &transition):
		respondError(c, http.StatusConflict, "invalid_state_transition", transition.Error(), gin.H{
			"entity": transition.Entity,
			"from":   transition.From,
			"to":     transition.To,
		})
	case errors.As(err, &refunded):
		respondError(c, http.StatusConflict, "already_refunded", refunded.Error(), gin.H{"payment_id": refunded.PaymentID})
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		utils.LogEvent(middleware.GetRequestID(c), "http", "internal_error", errText(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

// respondBindError turns gin binding failures into a validation payload with per-field details.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		names := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			name := jsonPath(fe)
			fields = append(fields, FieldError{Field: name, Rule: fe.Tag(), Param: fe.Param()})
			names = append(names, name)
		}
		respondError(c, http.StatusBadRequest, "validation_error", "invalid fields: "+strings.Join(names, ", "), fields)
		return
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid type for "+typeErr.Field, []FieldError{{Field: typeErr.Field, Rule: "type", Param: typeErr.Type.String()}})
		return
	}
	respondError(c, http.StatusBadRequest, "validation_error", "malformed request body", nil)
}

// jsonPath drops the top-level struct name so "bookingRequest.travelers[0].fullName"
// becomes "travelers[0].fullName".
func jsonPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func errText(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
