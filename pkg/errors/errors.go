package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so callers can branch on semantics
// rather than on message text.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindBadRequest        Kind = "bad_request"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindInvalidSlot       Kind = "invalid_slot"
	KindEmptyCart         Kind = "empty_cart"
	KindPaymentRequired   Kind = "payment_required"
	KindStaleState        Kind = "stale_state"
	KindUnavailable       Kind = "unavailable"
)

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by kind, so errors.Is(err, ErrStale) style
// comparisons work across wrapping.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of err, or the empty string for non-application errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Error constructors
func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message, Err: err}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func InvalidTransition(message string) *AppError {
	return &AppError{Kind: KindInvalidTransition, Message: message}
}

func InvalidSlot(message string) *AppError {
	return &AppError{Kind: KindInvalidSlot, Message: message}
}

func EmptyCart() *AppError {
	return &AppError{Kind: KindEmptyCart, Message: "order must contain at least one line item"}
}

func PaymentRequired(message string) *AppError {
	return &AppError{Kind: KindPaymentRequired, Message: message}
}

func StaleState(resource string) *AppError {
	return &AppError{Kind: KindStaleState, Message: fmt.Sprintf("%s was modified concurrently, re-read and retry", resource)}
}

func Unavailable(err error) *AppError {
	return &AppError{Kind: KindUnavailable, Message: "storage unavailable", Err: err}
}
