// Package services defines the business logic for channel resolution, video
// fetching, message state and favorites. This file centralizes service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/yt-vantage/internal/domain"
)

var (
	// ErrInvalidInput is returned when a required argument is blank or
	// outside its allowed set.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTooManyNames is returned when a batch names more channels than the
	// service accepts at once.
	ErrTooManyNames = errors.New("too many channel names")

	// ErrStateNotFound indicates that no channels were recorded for a message.
	ErrStateNotFound = errors.New("message state not found")

	// ErrFetchFailed is matched by every *FetchFailure.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrResolutionFailed is matched by every *ResolutionFailure.
	ErrResolutionFailed = errors.New("resolution failed")
)

// FetchFailure reports that a channel's videos could not be retrieved. It is
// distinct from an empty result: nothing was cached and the next request for
// the same channel and mode goes upstream again.
type FetchFailure struct {
	ChannelID string
	Mode      domain.Mode
	Err       error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s for %s: %v", e.Mode, e.ChannelID, e.Err)
}

// Unwrap exposes both ErrFetchFailed and the underlying cause.
func (e *FetchFailure) Unwrap() []error { return []error{ErrFetchFailed, e.Err} }

// ResolutionFailure reports that a name could not be resolved because the
// upstream lookup failed, not because the name matched nothing. No negative
// cache entry is written for it.
type ResolutionFailure struct {
	Name string
	Err  error
}

func (e *ResolutionFailure) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Name, e.Err)
}

// Unwrap exposes both ErrResolutionFailed and the underlying cause.
func (e *ResolutionFailure) Unwrap() []error { return []error{ErrResolutionFailed, e.Err} }
