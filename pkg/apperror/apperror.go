package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTransport      = errors.New("transport error")
	ErrPartialFailure = errors.New("partial failure")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

// Cause returns the wrapped lower-level error, if any.
func (e *AppError) Cause() error {
	return e.Err
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

// NewInvalidInput is the validation error. details is shown to the caller.
func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, details, details, err)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, details, details, err)
}

func NewTransport(details string, err error) *AppError {
	return NewAppError(ErrTransport, "Request to the backend failed", details, err)
}

// PartialFailure records a multi-step operation where some steps succeeded
// before others failed. Failed holds the identifiers of the failed steps.
type PartialFailure struct {
	*AppError
	Failed []string
}

func (e *PartialFailure) Unwrap() error {
	return e.AppError
}

func NewPartialFailure(operation string, failed []string, causes []error) *PartialFailure {
	details := fmt.Sprintf("%s failed for %d item(s): %s", operation, len(failed), strings.Join(failed, ", "))
	return &PartialFailure{
		AppError: NewAppError(ErrPartialFailure, fmt.Sprintf("%s partially failed", operation), details, errors.Join(causes...)),
		Failed:   failed,
	}
}

func ToHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// UserMessage returns the text safe to show to an end user.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternal.Error()
}

func (e *AppError) ToJSON() gin.H {
	return gin.H{
		"error": e.Message,
		"code":  e.BaseError.Error(),
	}
}
