package recipes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ImageFinder resolves a recipe id to an image URL.
type ImageFinder interface {
	ImageURL(ctx context.Context, id int64) (string, error)
}

// ImageClient is the HTTP implementation of ImageFinder.
type ImageClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewImageClient(baseURL string, timeout time.Duration, logger *slog.Logger) *ImageClient {
	return &ImageClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("system", "images"),
	}
}

// ImageURL returns the image URL for id, or "" when the service has none.
func (c *ImageClient) ImageURL(ctx context.Context, id int64) (string, error) {
	endpoint := c.baseURL + "/images/" + url.PathEscape(strconv.FormatInt(id, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("%w: service returned %d", ErrImageUnavailable, res.StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrImageUnavailable, err)
	}
	return body.URL, nil
}
