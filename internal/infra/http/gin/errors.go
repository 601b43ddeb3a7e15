package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"vendorhub/internal/app/middleware"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
	domainpricing "vendorhub/internal/domain/pricing"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps the error taxonomy onto HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domainbooking.ErrValidation),
		errors.Is(err, catalog.ErrInvalidReference),
		errors.Is(err, domainpricing.ErrInvalidConfig):
		return http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domainbooking.ErrSignatureMismatch):
		return http.StatusUnauthorized, "SIGNATURE_MISMATCH"
	case errors.Is(err, domainbooking.ErrNotOwned):
		return http.StatusForbidden, "NOT_OWNED"
	case errors.Is(err, middleware.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainbooking.ErrScheduleNotFound),
		errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrUnknownCategory):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domainbooking.ErrNothingToRefund):
		return http.StatusConflict, "NOTHING_TO_REFUND"
	case errors.Is(err, domainbooking.ErrStateConflict):
		return http.StatusConflict, "STATE_CONFLICT"
	case errors.Is(err, domainbooking.ErrGatewayRejected):
		return http.StatusPaymentRequired, "GATEWAY_REJECTED"
	case errors.Is(err, domainbooking.ErrGatewayTransient):
		return http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	if logger != nil {
		fields := []any{"status", status, "code", code, "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id")}
		if p, ok := currentPrincipal(c); ok {
			fields = append(fields, "actor_id", p.ID, "role", p.Role)
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Warn("request rejected", fields...)
		}
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, errorBody{Error: msg, Code: code})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "VALIDATION"})
}
