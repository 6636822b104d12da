package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error kinds for the service layer. Handlers map these to HTTP
// statuses; everything else is treated as an internal error.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid state")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrConflict           = errors.New("conflict")
)

func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrForbidden}, args...)...)
}

func InvalidState(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidState}, args...)...)
}

func InsufficientTokens(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInsufficientTokens}, args...)...)
}

func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConflict}, args...)...)
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientTokens):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show the caller. Not-found and
// forbidden collapse to generic denials so the API never leaks whether
// another user's order exists.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrForbidden):
		return "access denied"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInsufficientTokens), errors.Is(err, ErrConflict):
		return err.Error()
	default:
		return "internal server error"
	}
}
