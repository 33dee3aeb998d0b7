// Package upstream defines the contract between the core services and the
// video platform: the Client interface, the error taxonomy used by the retry
// wrapper, and the bounded worker pool every upstream call runs in.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Reasons reported by the platform alongside HTTP 403 and 404.
const (
	ReasonRateLimit        = "rateLimitExceeded"
	ReasonUserRateLimit    = "userRateLimitExceeded"
	ReasonQuotaExceeded    = "quotaExceeded"
	ReasonPlaylistNotFound = "playlistNotFound"
)

// Error is a classified upstream failure.
//
// Status is the HTTP status reported by the platform, or 0 when the request
// never produced a response (dial failure, reset connection).
type Error struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("upstream %s: status %d (%s): %v", e.Op, e.Status, e.Reason, e.Err)
	default:
		return fmt.Sprintf("upstream %s: status %d: %v", e.Op, e.Status, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is rate-limit or server-side and may
// succeed if repeated. Quota exhaustion is not retryable: it lasts until the
// daily reset.
func (e *Error) Retryable() bool {
	switch {
	case e.Status == 0:
		return e.Err != nil && !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	case e.Status == http.StatusTooManyRequests:
		return true
	case e.Status >= 500:
		return true
	case e.Status == http.StatusForbidden:
		return e.Reason == ReasonRateLimit || e.Reason == ReasonUserRateLimit
	}
	return false
}

// Definitive reports whether the platform rejected the request itself, as
// opposed to failing to serve it. A definitive failure for a name lookup is
// recorded as "not found".
func (e *Error) Definitive() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusNotFound
}

// IsRetryable reports whether err wraps a retryable *Error.
func IsRetryable(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Retryable()
}

// IsDefinitive reports whether err wraps a definitive *Error.
func IsDefinitive(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Definitive()
}

// OpOf returns the operation name carried by err, or "unknown".
func OpOf(err error) string {
	var ue *Error
	if errors.As(err, &ue) && ue.Op != "" {
		return ue.Op
	}
	return "unknown"
}

// Outcome returns a metric label for the result of an upstream call.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsRetryable(err):
		return "retryable"
	default:
		return "permanent"
	}
}
