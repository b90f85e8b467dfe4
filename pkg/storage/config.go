package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds local file storage parameters.
type Config struct {
	Root     string `toml:"root"`
	FileMode string `toml:"file_mode"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Root     string
	FileMode string
}

// Perm returns FileMode parsed as an octal permission set.
func (c *Config) Perm() os.FileMode {
	mode, err := strconv.ParseUint(c.FileMode, 8, 32)
	if err != nil {
		return 0o644
	}
	return os.FileMode(mode)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
	if overlay.FileMode != "" {
		c.FileMode = overlay.FileMode
	}
}

func (c *Config) loadDefaults() {
	if c.Root == "" {
		c.Root = "data"
	}
	if c.FileMode == "" {
		c.FileMode = "0644"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Root != "" {
		if v := os.Getenv(env.Root); v != "" {
			c.Root = v
		}
	}
	if env.FileMode != "" {
		if v := os.Getenv(env.FileMode); v != "" {
			c.FileMode = v
		}
	}
}

func (c *Config) validate() error {
	if filepath.Clean(c.Root) == string(filepath.Separator) {
		return fmt.Errorf("root must not be the filesystem root")
	}
	if _, err := strconv.ParseUint(c.FileMode, 8, 32); err != nil {
		return fmt.Errorf("invalid file_mode: %w", err)
	}
	return nil
}
