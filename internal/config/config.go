// Package config loads the service configuration from TOML files and
// LARDER_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/larder/internal/workflow"
	"github.com/JaimeStill/larder/pkg/database"
	"github.com/JaimeStill/larder/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvLarderEnv             = "LARDER_ENV"
	EnvLarderShutdownTimeout = "LARDER_SHUTDOWN_TIMEOUT"
	EnvLarderVersion         = "LARDER_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "LARDER_DB_HOST",
	Port:            "LARDER_DB_PORT",
	Name:            "LARDER_DB_NAME",
	User:            "LARDER_DB_USER",
	Password:        "LARDER_DB_PASSWORD",
	SSLMode:         "LARDER_DB_SSL_MODE",
	MaxOpenConns:    "LARDER_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "LARDER_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "LARDER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "LARDER_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Root:     "LARDER_STORAGE_ROOT",
	FileMode: "LARDER_STORAGE_FILE_MODE",
}

var workflowEnv = &workflow.Env{
	TopN:         "LARDER_WORKFLOW_TOP_N",
	QueueDepth:   "LARDER_WORKFLOW_QUEUE_DEPTH",
	ImageWorkers: "LARDER_WORKFLOW_IMAGE_WORKERS",
	CaptureDir:   "LARDER_WORKFLOW_CAPTURE_DIR",
	OutputDir:    "LARDER_WORKFLOW_OUTPUT_DIR",
	SampleImage:  "LARDER_WORKFLOW_SAMPLE_IMAGE",
}

// Config is the root configuration for the Larder service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Detection       ServiceConfig   `toml:"detection"`
	Ranking         ServiceConfig   `toml:"ranking"`
	Images          ServiceConfig   `toml:"images"`
	Workflow        workflow.Config `toml:"workflow"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the LARDER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvLarderEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Detection.Merge(&overlay.Detection)
	c.Ranking.Merge(&overlay.Ranking)
	c.Images.Merge(&overlay.Images)
	c.Workflow.Merge(&overlay.Workflow)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(serverEnv); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Detection.Finalize(detectionDefaults, detectionEnv); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if err := c.Ranking.Finalize(rankingDefaults, rankingEnv); err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	if err := c.Images.Finalize(imagesDefaults, imagesEnv); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	if err := c.Workflow.Finalize(workflowEnv); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Server.coverExternalCalls(c.ExternalCallBudget()); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// ExternalCallBudget is the longest a single request can wait on external
// services. A capture waits on detection. A search waits on ranking and then
// on image lookups, which run ImageWorkers at a time over at most TopN recipes.
func (c *Config) ExternalCallBudget() time.Duration {
	capture := c.Detection.TimeoutDuration()

	rounds := (c.Workflow.TopN + c.Workflow.ImageWorkers - 1) / c.Workflow.ImageWorkers
	search := c.Ranking.TimeoutDuration() + time.Duration(rounds)*c.Images.TimeoutDuration()

	return max(capture, search)
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvLarderShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvLarderVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvLarderEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
