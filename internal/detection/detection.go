// Package detection calls the external ingredient detection service.
//
// The service receives the raw image as a multipart upload and replies with
// the detected labels and a base64 JPEG of the same image with bounding boxes
// drawn. The adapter writes that annotated image to the caller's storage key,
// replacing any earlier annotation for the same capture.
package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/JaimeStill/larder/pkg/storage"
)

// ErrUnavailable means detection did not run to completion. It is distinct
// from a successful run that found nothing.
var ErrUnavailable = errors.New("detection unavailable")

// MapHTTPStatus maps detection errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnavailable) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

const maxResponseSize = 64 << 20

// Result is the outcome of one detection run.
type Result struct {
	Labels        []string `json:"labels"`
	AnnotatedPath string   `json:"annotated_path"`
}

// Detector runs detection for a stored raw image.
type Detector interface {
	Detect(ctx context.Context, rawKey, annotatedKey string) (Result, error)
}

type response struct {
	Labels         []string `json:"labels"`
	AnnotatedImage string   `json:"annotated_image"`
}

// Client is the HTTP implementation of Detector.
type Client struct {
	endpoint string
	client   *http.Client
	store    storage.System
	logger   *slog.Logger
}

// New creates a Client posting to baseURL + "/detect".
func New(baseURL string, timeout time.Duration, store storage.System, logger *slog.Logger) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/detect",
		client:   &http.Client{Timeout: timeout},
		store:    store,
		logger:   logger.With("system", "detection"),
	}
}

// Detect uploads the image at rawKey and stores the annotated result at
// annotatedKey. Labels keep the service's order, repeats included.
func (c *Client) Detect(ctx context.Context, rawKey, annotatedKey string) (Result, error) {
	start := time.Now()

	body, contentType, err := c.encode(ctx, rawKey)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.send(ctx, body, contentType)
	if err != nil {
		c.logger.Warn("detection failed", "key", rawKey, "error", err)
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	img, err := base64.StdEncoding.DecodeString(resp.AnnotatedImage)
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode annotated image: %v", ErrUnavailable, err)
	}

	annotatedPath, err := c.store.Put(ctx, annotatedKey, bytes.NewReader(img))
	if err != nil {
		return Result{}, fmt.Errorf("%w: write annotated image: %v", ErrUnavailable, err)
	}

	labels := resp.Labels
	if labels == nil {
		labels = []string{}
	}

	c.logger.Info(
		"detection complete",
		"key", rawKey,
		"labels", len(labels),
		"duration", time.Since(start),
	)

	return Result{Labels: labels, AnnotatedPath: annotatedPath}, nil
}

func (c *Client) encode(ctx context.Context, rawKey string) (*bytes.Buffer, string, error) {
	src, err := c.store.Open(ctx, rawKey)
	if err != nil {
		return nil, "", fmt.Errorf("open raw image: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("image", path.Base(rawKey))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("read raw image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) send(ctx context.Context, body io.Reader, contentType string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("service returned %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out response
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.AnnotatedImage == "" {
		return nil, errors.New("response is missing the annotated image")
	}

	return &out, nil
}
