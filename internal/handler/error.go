// Package handler holds the HTTP response helpers shared by the storefront
// and webhook handlers.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/savoir/internal/billing"
	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/middleware"
	"github.com/dukerupert/savoir/internal/telemetry"
)

const internalErrorMessage = "An internal error occurred. Please try again later."

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse logs err and writes it to the client. Payment gateway errors
// become 502 with the gateway's message. Internal errors hide their details.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	var gatewayErr *billing.StripeError
	if errors.As(err, &gatewayErr) {
		code = "gateway"
		message = gatewayErr.Message
		status = http.StatusBadGateway
	} else if status >= http.StatusInternalServerError {
		message = internalErrorMessage
	}

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
		telemetry.CaptureError(r.Context(), err, map[string]any{"status": status})
	} else {
		logger.Info("request rejected", attrs...)
	}

	if acceptsJSON(r) {
		WriteJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
		return
	}
	http.Error(w, message, status)
}

// NotFoundResponse writes a generic 404.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

// BadRequestResponse writes a 400 with message.
func BadRequestResponse(w http.ResponseWriter, r *http.Request, message string) {
	ErrorResponse(w, r, domain.Invalid("", message))
}

// InternalErrorResponse writes a 500 and logs err.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = errors.New("unspecified internal error")
	}
	ErrorResponse(w, r, domain.WrapError(err, domain.EINTERNAL, "", internalErrorMessage))
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// acceptsJSON reports whether the client prefers JSON. Browsers asking for
// HTML get plain text.
func acceptsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return accept == "" || accept == "*/*"
}
