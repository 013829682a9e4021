package domain

import (
	"errors"
	"fmt"
)

// Application error codes.
// These map to HTTP status codes and determine user-facing messages.
const (
	ECONFLICT     = "conflict"         // 409
	EINTERNAL     = "internal"         // 500 - details hidden from users
	EINVALID      = "invalid"          // 400
	ENOTFOUND     = "not_found"        // 404
	EUNAUTHORIZED = "unauthorized"     // 401 - no authenticated user
	EFORBIDDEN    = "forbidden"        // 403 - authenticated but not entitled
	EPAYMENT      = "payment_required" // 402 - checkout not paid
	ERATELIMIT    = "rate_limited"     // 429
	ETOOLARGE     = "too_large"        // 413
	EUNAVAILABLE  = "unavailable"      // 503 - dependency down
)

// Error represents an application error with a code and message.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, ENOTFOUND).
	Code string

	// Message is a human-readable error message safe to show to users.
	Message string

	// Op is the operation where the error occurred (e.g., "purchase.materialize").
	// Logged, never shown to users.
	Op string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain error carrying the same code and message.
// This lets errors.Is match sentinels even after they were re-wrapped with an Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for non-domain errors and "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from an error.
// Internal errors collapse to a generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}

	return "An internal error occurred. Please try again later."
}

// ErrorOp extracts the operation from an error (for logging).
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Errorf creates a new domain error with formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with a domain error code and operation.
// Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsCode returns true if err has the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// NotFound creates a not found error for a resource.
// Example: domain.NotFound("validation.lesson", "lesson", "42")
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

// Invalid creates a validation error for a single issue.
func Invalid(op, message string) error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// =============================================================================
// Commerce & learning errors
// =============================================================================

var (
	// ErrNotAuthenticated is returned when an operation needs a current user.
	ErrNotAuthenticated = &Error{Code: EUNAUTHORIZED, Message: "Authentication required"}

	// ErrEmptyCart is returned when checkout or materialization sees no lines.
	ErrEmptyCart = &Error{Code: EINVALID, Message: "Cart is empty"}

	// ErrInvalidCartItem is returned when a resolved line has neither a lesson
	// nor a cursus attached. It indicates an internal inconsistency.
	ErrInvalidCartItem = &Error{Code: EINTERNAL, Message: "Invalid cart item"}

	// ErrNotPurchased is returned when validating a lesson the user does not own.
	ErrNotPurchased = &Error{Code: EFORBIDDEN, Message: "Lesson has not been purchased"}

	// ErrPaymentNotConfirmed is returned when the gateway reports an unpaid session.
	ErrPaymentNotConfirmed = &Error{Code: EPAYMENT, Message: "Payment has not been confirmed"}
)

// WithOp returns a copy of a sentinel error tagged with the operation.
func WithOp(sentinel *Error, op string) error {
	e := *sentinel
	e.Op = op
	return &e
}

// PersistenceError marks a failed storage operation. Callers see an internal
// error while the cause is kept for logging.
func PersistenceError(op string, err error) error {
	return WrapError(err, EINTERNAL, op, "failed to persist changes")
}

// IsPersistenceError reports whether err came from PersistenceError.
func IsPersistenceError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == EINTERNAL && e.Message == "failed to persist changes"
}
