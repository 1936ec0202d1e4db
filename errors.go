package novelreview

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyInput is returned when a manuscript contains no text.
var ErrEmptyInput = errors.New("empty input")

// ErrorCategory tells callers how a provider failure should be handled.
type ErrorCategory string

const (
	// ErrorTransient failures may succeed on retry: rate limits, overload,
	// timeouts and dropped connections.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent failures will not succeed on retry: bad credentials,
	// missing permissions, unknown models.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput failures need a different request: malformed input,
	// oversized manuscripts, refused content.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is implemented by errors that carry handling metadata.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int
	RetryAfter() time.Duration
}

// Error is a provider failure with its category. Code is the HTTP status
// (0 if none) and RetryDelay the server's Retry-After hint (0 if none).
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int
	RetryDelay time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
}

func (e *Error) Unwrap() error             { return e.Cause }
func (e *Error) Category() ErrorCategory   { return e.Cat }
func (e *Error) Retryable() bool           { return e.Cat == ErrorTransient }
func (e *Error) StatusCode() int           { return e.Code }
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewTransientError returns a retryable error.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewTransientErrorWithRetry returns a retryable error with the server's
// suggested delay.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	err := NewTransientError(msg, statusCode, cause)
	err.RetryDelay = retryAfter
	return err
}

// NewPermanentError returns an error that must not be retried.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError returns an error caused by the request itself.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// categorized finds the first CategorizedError in err's chain.
func categorized(err error) (CategorizedError, bool) {
	var ce CategorizedError
	ok := errors.As(err, &ce)
	return ce, ok
}

// IsTransient reports whether err, or an error it wraps, is transient.
func IsTransient(err error) bool { return categoryOf(err) == ErrorTransient }

// IsPermanent reports whether err, or an error it wraps, is permanent.
func IsPermanent(err error) bool { return categoryOf(err) == ErrorPermanent }

// IsUserInput reports whether err, or an error it wraps, is a user input error.
func IsUserInput(err error) bool { return categoryOf(err) == ErrorUserInput }

func categoryOf(err error) ErrorCategory {
	if ce, ok := categorized(err); ok {
		return ce.Category()
	}
	return ""
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	if ce, ok := categorized(err); ok {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry hint carried by err, or 0.
func RetryAfterOf(err error) time.Duration {
	if ce, ok := categorized(err); ok {
		return ce.RetryAfter()
	}
	return 0
}
