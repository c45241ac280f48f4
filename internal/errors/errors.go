package errors

import (
	"errors"
	"fmt"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeAuthFailure          ErrCode = "AUTHENTICATION_FAILURE"
	ErrCodeRemoteAPIFailure     ErrCode = "REMOTE_API_FAILURE"
	ErrCodeRateLimited          ErrCode = "RATE_LIMITED"
	ErrCodeSerializationFailure ErrCode = "SERIALIZATION_FAILURE"
	ErrCodeConfig               ErrCode = "CONFIG_ERROR"
	ErrCodeLocked               ErrCode = "LOCKED"
	ErrCodeNotFound             ErrCode = "NOT_FOUND"
	ErrCodeBadRequest           ErrCode = "BAD_REQUEST"
	ErrCodeInternal             ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error.
// Category names the snapshot category that failed, if any.
type AppError struct {
	Code      ErrCode
	Category  string
	Message   string
	Err       error
	Retryable bool
}

func (e *AppError) Error() string {
	prefix := string(e.Code)
	if e.Category != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Code, e.Category)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAuthFailure creates an error for a rejected or under-scoped credential
func NewAuthFailure(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeAuthFailure,
		Message: message,
		Err:     err,
	}
}

// NewRemoteAPIFailure creates an error for transport failures and malformed responses
func NewRemoteAPIFailure(message string, err error, retryable bool) *AppError {
	return &AppError{
		Code:      ErrCodeRemoteAPIFailure,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// NewRateLimitedError creates a new rate limited error
func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Code:      ErrCodeRateLimited,
		Message:   message,
		Retryable: true,
	}
}

// NewSerializationFailure creates an error for responses that cannot be mapped to records
func NewSerializationFailure(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeSerializationFailure,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfig,
		Message: message,
	}
}

// NewLockedError creates an error for an output directory held by another run
func NewLockedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeLocked,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// WithCategory attaches a category to err. Errors that are not an AppError
// become remote API failures. When the AppError is wrapped, the wrapping error
// becomes the cause so its context is kept.
func WithCategory(err error, category string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		tagged := *appErr
		tagged.Category = category
		if err != error(appErr) {
			tagged.Err = err
		}
		return &tagged
	}
	return &AppError{
		Code:     ErrCodeRemoteAPIFailure,
		Category: category,
		Message:  "fetch failed",
		Err:      err,
	}
}

// CodeOf returns the code of the first AppError in err's chain
func CodeOf(err error) ErrCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// CategoryOf returns the category of the first AppError in err's chain
func CategoryOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}
	return ""
}

// IsAuthFailure checks if the error is an authentication failure
func IsAuthFailure(err error) bool {
	return CodeOf(err) == ErrCodeAuthFailure
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	return CodeOf(err) == ErrCodeRateLimited
}

// IsRetryable reports whether a retry may succeed
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
