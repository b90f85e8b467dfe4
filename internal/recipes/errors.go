package recipes

import (
	"errors"
	"net/http"
)

var (
	ErrRankingUnavailable = errors.New("recipe ranking unavailable")
	ErrImageUnavailable   = errors.New("recipe image lookup unavailable")
	ErrInvalidRecipe      = errors.New("invalid recipe record")
)

// MapHTTPStatus maps recipe service errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrRankingUnavailable),
		errors.Is(err, ErrImageUnavailable),
		errors.Is(err, ErrInvalidRecipe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
