package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/yt-vantage/internal/http/middleware"
	"github.com/tbourn/yt-vantage/internal/repo"
	"github.com/tbourn/yt-vantage/internal/services"
)

// Error codes. Generic ones mirror HTTP semantics; the rest name a domain
// failure the client may want to treat differently (e.g. offer a retry).
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeTimeout          = "timeout"
	ErrCodeInternal         = "internal_error"

	ErrCodeChannelNotFound  = "channel_not_found"
	ErrCodeStateNotFound    = "state_not_found"
	ErrCodeFetchFailed      = "fetch_failed"
	ErrCodeResolutionFailed = "resolution_failed"
	ErrCodeStore            = "store_error"
)

// failErr maps a service error to a status and code. Messages of 5xx
// responses are generic; the cause only goes to the log.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrTooManyNames):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrStateNotFound):
		fail(c, http.StatusNotFound, ErrCodeStateNotFound, "no channels recorded for this message")
	case errors.Is(err, services.ErrFetchFailed):
		logCause(c, err)
		fail(c, http.StatusBadGateway, ErrCodeFetchFailed, "could not load videos right now, try again later")
	case errors.Is(err, services.ErrResolutionFailed):
		logCause(c, err)
		fail(c, http.StatusServiceUnavailable, ErrCodeResolutionFailed, "channel lookup is unavailable, try again later")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		fail(c, http.StatusGatewayTimeout, ErrCodeTimeout, "request timed out")
	case repo.IsStoreError(err):
		logCause(c, err)
		fail(c, http.StatusInternalServerError, ErrCodeStore, "storage unavailable")
	default:
		logCause(c, err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

func logCause(c *gin.Context, err error) {
	middleware.LoggerFrom(c).Warn().Err(err).Msg("request failed")
}
