package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// ServiceConfig locates an external HTTP service.
type ServiceConfig struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout"`
}

// ServiceEnv maps service fields to environment variable names.
type ServiceEnv struct {
	URL     string
	Timeout string
}

var (
	detectionDefaults = ServiceConfig{URL: "http://localhost:8001", Timeout: "60s"}
	rankingDefaults   = ServiceConfig{URL: "http://localhost:8002", Timeout: "30s"}
	imagesDefaults    = ServiceConfig{URL: "http://localhost:8003", Timeout: "10s"}
)

var (
	detectionEnv = &ServiceEnv{URL: "LARDER_DETECTION_URL", Timeout: "LARDER_DETECTION_TIMEOUT"}
	rankingEnv   = &ServiceEnv{URL: "LARDER_RANKING_URL", Timeout: "LARDER_RANKING_TIMEOUT"}
	imagesEnv    = &ServiceEnv{URL: "LARDER_IMAGES_URL", Timeout: "LARDER_IMAGES_TIMEOUT"}
)

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ServiceConfig) TimeoutDuration() time.Duration {
	return duration(c.Timeout)
}

// Finalize fills unset fields from defaults, applies environment variable
// overrides, and validates.
func (c *ServiceConfig) Finalize(defaults ServiceConfig, env *ServiceEnv) error {
	c.loadDefaults(defaults)
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServiceConfig) Merge(overlay *ServiceConfig) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *ServiceConfig) loadDefaults(defaults ServiceConfig) {
	if c.URL == "" {
		c.URL = defaults.URL
	}
	if c.Timeout == "" {
		c.Timeout = defaults.Timeout
	}
}

func (c *ServiceConfig) loadEnv(env *ServiceEnv) {
	if env.URL != "" {
		if v := os.Getenv(env.URL); v != "" {
			c.URL = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *ServiceConfig) validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url: %q", c.URL)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}
	return nil
}
