// Package workflow runs the fridge-to-recipe interaction for a session.
//
// A session moves through capture, detection, ingredient selection, recipe
// search and recipe saving. Each user action is an Event executed in order by
// a single goroutine owned by the session, so detection and ranking calls for
// one session never overlap. Failures of external services become Notices on
// the Outcome rather than errors; Dispatch returns an error only when the
// request itself is invalid or the session cannot accept it.
package workflow

import (
	"errors"
	"net/http"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionClosed     = errors.New("session is closed")
	ErrInvalidTransition = errors.New("action not allowed in the current state")
	ErrUnknownEvent      = errors.New("unknown event kind")
	ErrCameraInactive    = errors.New("camera is not active")
	ErrEmptySelection    = errors.New("select at least one ingredient before searching")
	ErrNoRecommendations = errors.New("no recipes are being displayed")
	ErrRecipeNotFound    = errors.New("recipe is not in the current results")
	ErrUsernameRequired  = errors.New("username is required")
)

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrCameraInactive),
		errors.Is(err, ErrNoRecommendations):
		return http.StatusConflict
	case errors.Is(err, ErrUnknownEvent),
		errors.Is(err, ErrEmptySelection),
		errors.Is(err, ErrUsernameRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
