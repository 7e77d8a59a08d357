// Package handler holds the HTTP plumbing shared by the storefront, admin
// and webhook handlers: JSON encoding, request validation and the mapping
// from domain errors to responses.
package handler

import (
	"net/http"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/middleware"
	"github.com/dukerupert/academy/internal/telemetry"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse logs err with the request logger and writes it to the client.
// Validation errors become a 422 property list; everything else becomes
// {"error":{"code","message"}} with internal details hidden. 5xx errors are
// reported to Sentry.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := middleware.StatusForCode(code)
	logger := middleware.GetLogger(r.Context())

	attrs := []any{
		"error", err.Error(),
		"code", code,
		"op", domain.ErrorOp(err),
		"status", status,
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
		telemetry.CaptureError(r.Context(), err, map[string]any{
			"op":         domain.ErrorOp(err),
			"request_id": middleware.GetRequestID(r.Context()),
		})
	} else {
		logger.Info("request rejected", attrs...)
	}

	if ve, ok := asValidationError(err); ok {
		JSON(w, status, ve.Properties())
		return
	}
	JSON(w, status, errorBody{Error: errorDetail{Code: code, Message: domain.ErrorMessage(err)}})
}

// NotFoundHandler answers unmatched routes.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.NotFound("", "route", r.URL.Path))
}
