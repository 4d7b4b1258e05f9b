package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced to API clients.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindStateConflict ErrorKind = "state_conflict"
	KindRateLimit     ErrorKind = "rate_limit"
	KindAuth          ErrorKind = "auth"
	KindDelivery      ErrorKind = "delivery"
	KindInternal      ErrorKind = "internal"
)

// HTTPStatus maps a kind to the status code handlers respond with.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindStateConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a failure with a client-facing message. Err carries the
// underlying cause for logs and is never shown to clients.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error

	// Optional hints rendered next to the message.
	RemainingAttempts *int
	RemainingSeconds  *int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithRemainingAttempts attaches the number of verification attempts left.
func (e *AppError) WithRemainingAttempts(n int) *AppError {
	e.RemainingAttempts = &n
	return e
}

// WithRemainingSeconds attaches the cooldown left before a retry is accepted.
func (e *AppError) WithRemainingSeconds(n int) *AppError {
	e.RemainingSeconds = &n
	return e
}

func NewValidationError(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func NewStateConflictError(msg string) *AppError {
	return &AppError{Kind: KindStateConflict, Message: msg}
}

func NewRateLimitError(msg string) *AppError {
	return &AppError{Kind: KindRateLimit, Message: msg}
}

func NewAuthError(msg string) *AppError {
	return &AppError{Kind: KindAuth, Message: msg}
}

func NewDeliveryError(msg string, err error) *AppError {
	return &AppError{Kind: KindDelivery, Message: msg, Err: err}
}

func NewInternalError(msg string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// AsAppError unwraps err into an *AppError. Anything else becomes an internal
// error with a generic message.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("Internal server error", err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Store-level sentinels.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrPackageNotFound   = errors.New("package not found")
	ErrDuplicateSlug     = errors.New("package slug already exists")
	ErrAdminOTPNotFound  = errors.New("admin otp not found")
	ErrInquiryNotFound   = errors.New("inquiry not found")
	ErrContactNotFound   = errors.New("contact message not found")
	ErrAlreadyInWishlist = errors.New("package already in wishlist")
	ErrNotInWishlist     = errors.New("package not in wishlist")
)
