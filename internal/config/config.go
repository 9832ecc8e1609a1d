// Package config loads scrollshot configuration and capture manifests from
// YAML files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/scrollshot"
	img "github.com/gogpu/scrollshot/internal/image"
	"github.com/gogpu/scrollshot/persist"
)

// Config is the top-level scrollshot configuration.
type Config struct {
	Stitch      StitchConfig      `yaml:"stitch"`
	Persist     PersistConfig     `yaml:"persist"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// StitchConfig controls composition.
type StitchConfig struct {
	BatchSize         int           `yaml:"batch_size"`
	DirectMaxSegments int           `yaml:"direct_max_segments"`
	DirectMaxHeight   int           `yaml:"direct_max_height"`
	ScrollbarWidth    *int          `yaml:"scrollbar_width"` // 0 disables trimming
	CompositeTimeout  time.Duration `yaml:"composite_timeout"`
	Interpolation     string        `yaml:"interpolation"` // nearest | approx-bilinear | bilinear | catmullrom
	Strategy          string        `yaml:"strategy"`      // auto | direct | batched
}

// PersistConfig controls where results go.
type PersistConfig struct {
	Mode           string        `yaml:"mode"`      // image | dual
	Clipboard      string        `yaml:"clipboard"` // system | memory | none
	TempDir        string        `yaml:"temp_dir"`
	Prefix         string        `yaml:"prefix"`
	TTL            time.Duration `yaml:"ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// DiagnosticsConfig selects the diagnostics recorder.
type DiagnosticsConfig struct {
	SQLitePath    string `yaml:"sqlite_path"` // empty keeps records in memory
	MemoryRecords int    `yaml:"memory_records"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Stitch.BatchSize <= 0 {
		c.Stitch.BatchSize = 5
	}
	if c.Stitch.DirectMaxSegments <= 0 {
		c.Stitch.DirectMaxSegments = 10
	}
	if c.Stitch.DirectMaxHeight <= 0 {
		c.Stitch.DirectMaxHeight = 8000
	}
	if c.Stitch.ScrollbarWidth == nil {
		w := 20
		c.Stitch.ScrollbarWidth = &w
	}
	if c.Stitch.CompositeTimeout <= 0 {
		c.Stitch.CompositeTimeout = 30 * time.Second
	}
	if c.Stitch.Interpolation == "" {
		c.Stitch.Interpolation = "catmullrom"
	}
	if c.Stitch.Strategy == "" {
		c.Stitch.Strategy = "auto"
	}
	if c.Persist.Mode == "" {
		c.Persist.Mode = "image"
	}
	if c.Persist.Clipboard == "" {
		c.Persist.Clipboard = "system"
	}
	if c.Persist.Prefix == "" {
		c.Persist.Prefix = persist.DefaultPrefix
	}
	if c.Persist.TTL <= 0 {
		c.Persist.TTL = persist.DefaultTTL
	}
	if c.Persist.SweepInterval <= 0 {
		c.Persist.SweepInterval = time.Hour
	}
	if c.Persist.CommandTimeout <= 0 {
		c.Persist.CommandTimeout = 10 * time.Second
	}
	if c.Diagnostics.MemoryRecords <= 0 {
		c.Diagnostics.MemoryRecords = 64
	}
}

// Validate checks that enumerated values are known.
func (c *Config) Validate() error {
	if _, ok := img.ParseInterpolation(c.Stitch.Interpolation); !ok {
		return fmt.Errorf("stitch.interpolation: unknown filter %q", c.Stitch.Interpolation)
	}
	if _, ok := scrollshot.ParseStrategy(c.Stitch.Strategy); !ok {
		return fmt.Errorf("stitch.strategy: unknown strategy %q", c.Stitch.Strategy)
	}
	if *c.Stitch.ScrollbarWidth < 0 {
		return fmt.Errorf("stitch.scrollbar_width must be >= 0")
	}
	if _, err := persist.ParseMode(c.Persist.Mode); err != nil {
		return fmt.Errorf("persist.mode: %w", err)
	}
	switch c.Persist.Clipboard {
	case "system", "memory", "none":
	default:
		return fmt.Errorf("persist.clipboard: unknown backend %q", c.Persist.Clipboard)
	}
	if strings.ContainsAny(c.Persist.Prefix, `/\`) {
		return fmt.Errorf("persist.prefix must not contain path separators")
	}
	return nil
}
