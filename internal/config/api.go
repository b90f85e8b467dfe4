package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/larder/pkg/formatting"
	"github.com/JaimeStill/larder/pkg/middleware"
	"github.com/JaimeStill/larder/pkg/pagination"
)

const (
	EnvAPIBasePath      = "LARDER_API_BASE_PATH"
	EnvAPIMaxUploadSize = "LARDER_API_MAX_UPLOAD_SIZE"

	defaultMaxUploadSize = 10 << 20
)

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "LARDER_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "LARDER_PAGINATION_MAX_PAGE_SIZE",
}

var corsEnv = &middleware.CORSEnv{
	Enabled:          "LARDER_CORS_ENABLED",
	Origins:          "LARDER_CORS_ORIGINS",
	AllowedMethods:   "LARDER_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "LARDER_CORS_ALLOWED_HEADERS",
	AllowCredentials: "LARDER_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "LARDER_CORS_MAX_AGE",
}

// APIConfig holds API routing, upload, CORS and pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes returns the capture upload limit in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil || size <= 0 {
		return defaultMaxUploadSize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	return nil
}
