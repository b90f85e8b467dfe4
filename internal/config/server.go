package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// ServerEnv maps listener fields to environment variable names.
type ServerEnv struct {
	Host            string
	Port            string
	ReadTimeout     string
	WriteTimeout    string
	ShutdownTimeout string
}

var serverEnv = &ServerEnv{
	Host:            "LARDER_SERVER_HOST",
	Port:            "LARDER_SERVER_PORT",
	ReadTimeout:     "LARDER_SERVER_READ_TIMEOUT",
	WriteTimeout:    "LARDER_SERVER_WRITE_TIMEOUT",
	ShutdownTimeout: "LARDER_SERVER_SHUTDOWN_TIMEOUT",
}

// ServerConfig holds the HTTP listener settings.
//
// ReadTimeout covers receiving a capture upload. WriteTimeout covers the
// whole handler, including the detection, ranking and image calls a capture
// or search waits on, so it has to outlast them.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration     { return duration(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration    { return duration(c.WriteTimeout) }
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration { return duration(c.ShutdownTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize(env *ServerEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for dst, src := range map[*string]string{
		&c.ReadTimeout:     overlay.ReadTimeout,
		&c.WriteTimeout:    overlay.WriteTimeout,
		&c.ShutdownTimeout: overlay.ShutdownTimeout,
	} {
		if src != "" {
			*dst = src
		}
	}
}

// coverExternalCalls rejects a write deadline that a request waiting budget
// on external services could reach.
func (c *ServerConfig) coverExternalCalls(budget time.Duration) error {
	if w := c.WriteTimeoutDuration(); w <= budget {
		return fmt.Errorf("write_timeout %s must exceed %s, the longest a request waits on external services", w, budget)
	}
	return nil
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "1m"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "15m"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
}

func (c *ServerConfig) loadEnv(env *ServerEnv) {
	for name, dst := range map[string]*string{
		env.Host:            &c.Host,
		env.ReadTimeout:     &c.ReadTimeout,
		env.WriteTimeout:    &c.WriteTimeout,
		env.ShutdownTimeout: &c.ShutdownTimeout,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if env.Port != "" {
		if port, err := strconv.Atoi(os.Getenv(env.Port)); err == nil {
			c.Port = port
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for field, v := range map[string]string{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", field, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive: got %s", field, v)
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
