package workflow

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
)

// MaxRecipes caps the recommendation set size. TopN may lower it but never
// raise it.
const MaxRecipes = 10

// Config holds session workflow settings. Directory and sample fields are
// storage keys relative to the storage root.
type Config struct {
	TopN         int    `toml:"top_n"`
	QueueDepth   int    `toml:"queue_depth"`
	ImageWorkers int    `toml:"image_workers"`
	CaptureDir   string `toml:"capture_dir"`
	OutputDir    string `toml:"output_dir"`
	SampleImage  string `toml:"sample_image"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	TopN         string
	QueueDepth   string
	ImageWorkers string
	CaptureDir   string
	OutputDir    string
	SampleImage  string
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
	if overlay.TopN > 0 {
		c.TopN = overlay.TopN
	}
	if overlay.QueueDepth > 0 {
		c.QueueDepth = overlay.QueueDepth
	}
	if overlay.ImageWorkers > 0 {
		c.ImageWorkers = overlay.ImageWorkers
	}
	if overlay.CaptureDir != "" {
		c.CaptureDir = overlay.CaptureDir
	}
	if overlay.OutputDir != "" {
		c.OutputDir = overlay.OutputDir
	}
	if overlay.SampleImage != "" {
		c.SampleImage = overlay.SampleImage
	}
}

func (c *Config) loadDefaults() {
	if c.TopN <= 0 {
		c.TopN = MaxRecipes
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = 8
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = 4
	}
	if c.CaptureDir == "" {
		c.CaptureDir = "fridge_images"
	}
	if c.OutputDir == "" {
		c.OutputDir = "fridge_images/output"
	}
	if c.SampleImage == "" {
		c.SampleImage = "fridge_images/sample.jpg"
	}
}

func (c *Config) loadEnv(env *Env) {
	for name, dst := range map[string]*int{
		env.TopN:         &c.TopN,
		env.QueueDepth:   &c.QueueDepth,
		env.ImageWorkers: &c.ImageWorkers,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	for name, dst := range map[string]*string{
		env.CaptureDir:  &c.CaptureDir,
		env.OutputDir:   &c.OutputDir,
		env.SampleImage: &c.SampleImage,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	if c.TopN <= 0 || c.TopN > MaxRecipes {
		return fmt.Errorf("top_n must be between 1 and %d: got %d", MaxRecipes, c.TopN)
	}
	if c.QueueDepth <= 0 {
		return fmt.Errorf("queue_depth must be positive: got %d", c.QueueDepth)
	}
	if c.ImageWorkers <= 0 {
		return fmt.Errorf("image_workers must be positive: got %d", c.ImageWorkers)
	}
	for field, key := range map[string]string{
		"capture_dir":  c.CaptureDir,
		"output_dir":   c.OutputDir,
		"sample_image": c.SampleImage,
	} {
		if !fs.ValidPath(key) {
			return fmt.Errorf("%s must be a relative storage key: %q", field, key)
		}
	}
	return nil
}
