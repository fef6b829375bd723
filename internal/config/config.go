// Package config loads canmon's YAML configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings for the canmon binary.
type Config struct {
	// Listen is the HTTP listen address for the web view.
	Listen string `yaml:"listen"`

	// RetentionMS is how long a byte change stays highlighted/tracked,
	// in milliseconds.
	RetentionMS int `yaml:"retention_ms"`

	// Demo enables the built-in frame generator instead of a real
	// transport feed.
	Demo bool `yaml:"demo"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:      ":8080",
		RetentionMS: 10_000,
		Demo:        false,
	}
}

// Load reads a YAML config file, applying defaults for absent fields.
// Unknown fields are rejected so typos surface immediately.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the engine or server cannot honor.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.RetentionMS <= 0 {
		return fmt.Errorf("retention_ms must be positive, got %d", c.RetentionMS)
	}
	return nil
}

// Retention returns the configured window as a duration.
func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionMS) * time.Millisecond
}
