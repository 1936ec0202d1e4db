// Package provider holds helpers shared by the chat provider adapters.
package provider

import (
	"net/http"
	"strconv"
	"time"

	"github.com/spetersoncode/novelreview"
)

// CategorizeStatusCode maps an HTTP status to an error category.
func CategorizeStatusCode(code int) novelreview.ErrorCategory {
	switch {
	case code == 429:
		return novelreview.ErrorTransient
	case code >= 500 && code < 600:
		return novelreview.ErrorTransient
	case code == 401 || code == 403:
		return novelreview.ErrorPermanent
	case code == 400 || code == 404 || code == 413 || code == 422:
		return novelreview.ErrorUserInput
	default:
		return novelreview.ErrorPermanent
	}
}

// WrapStatus categorizes an SDK error that carried an HTTP status.
func WrapStatus(err error, code int, retryAfter time.Duration) error {
	msg := err.Error()
	if retryAfter > 0 {
		return novelreview.NewTransientErrorWithRetry(msg, code, retryAfter, err)
	}

	switch CategorizeStatusCode(code) {
	case novelreview.ErrorTransient:
		return novelreview.NewTransientError(msg, code, err)
	case novelreview.ErrorUserInput:
		return novelreview.NewUserInputError(msg, code, err)
	default:
		return novelreview.NewPermanentError(msg, code, err)
	}
}

// ParseRetryAfter reads the Retry-After header as seconds or an HTTP date.
// It returns 0 when the header is absent or unparseable.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return 0
}
