package capture

import (
	"errors"
	"net/http"
)

var (
	ErrCaptureFailed     = errors.New("capture could not be stored")
	ErrSampleUnavailable = errors.New("sample image is not available")
	ErrInvalidSource     = errors.New("invalid capture source")
	ErrEmptyImage        = errors.New("image payload is empty")
	ErrUnsupportedImage  = errors.New("image must be a JPEG or PNG")
	ErrImageTooLarge     = errors.New("image exceeds maximum upload size")
)

// MapHTTPStatus maps capture errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidSource), errors.Is(err, ErrEmptyImage):
		return http.StatusBadRequest
	case errors.Is(err, ErrSampleUnavailable):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
