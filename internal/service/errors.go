package service

import (
	"errors"

	"github.com/dukerupert/savoir/internal/domain"
)

// Catalog lookups
var (
	ErrLessonNotFound = domain.Errorf(domain.ENOTFOUND, "", "Lesson not found")
	ErrCursusNotFound = domain.Errorf(domain.ENOTFOUND, "", "Cursus not found")
	ErrThemeNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Theme not found")
	ErrUserNotFound   = domain.Errorf(domain.ENOTFOUND, "", "User not found")
)

// Checkout
var (
	ErrMissingCheckoutSession = domain.Errorf(domain.EINVALID, "", "Checkout session ID is required")
	ErrCheckoutSessionUnknown = domain.Errorf(domain.ENOTFOUND, "", "Checkout session not found")

	// ErrCheckoutSessionForeign is returned when a paid session was opened or
	// consumed by a different user.
	ErrCheckoutSessionForeign = &domain.Error{Code: domain.EFORBIDDEN, Message: "Checkout session belongs to another user"}

	// ErrCheckoutMismatch is returned when the cart no longer adds up to what
	// the gateway collected.
	ErrCheckoutMismatch = &domain.Error{Code: domain.ECONFLICT, Message: "Cart does not match the paid checkout"}
)

var errCheckoutConsumed = errors.New("checkout session already consumed")
