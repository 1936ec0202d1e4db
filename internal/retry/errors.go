package retry

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/spetersoncode/novelreview"
)

// statusCoder is implemented by SDK errors that expose an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// googleStatus matches "googleapi: Error 503:" style messages.
var googleStatus = regexp.MustCompile(`googleapi: Error (\d{3})`)

var transientPatterns = []string{
	"connection reset",
	"connection refused",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"server error",
	"bad gateway",
}

// IsTransient reports whether err is worth retrying. Errors categorized by
// the providers decide for themselves; anything else is judged by status
// code, network error kind, and finally message text.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce novelreview.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == novelreview.ErrorTransient
	}

	var sc statusCoder
	if errors.As(err, &sc) && isTransientStatusCode(sc.StatusCode()) {
		return true
	}

	if m := googleStatus.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		if isTransientStatusCode(code) {
			return true
		}
	}

	return isTransientNetworkError(err)
}

func isTransientStatusCode(code int) bool {
	return code == 429 || (code >= 500 && code < 600)
}

func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
