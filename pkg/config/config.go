// Package config provides configuration loading and management.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/user/av1still/pkg/imageconv"
	"github.com/user/av1still/pkg/ports"
	"github.com/user/av1still/pkg/still"
)

// Preset names accepted by ApplyPreset.
const (
	PresetLossless = "lossless"
	PresetBest     = "best"
	PresetFast     = "fast"
)

// Config represents the full configuration for av1still.
type Config struct {
	// Encoding
	Threads int `yaml:"threads"`
	Speed   int `yaml:"speed"`
	Quality int `yaml:"quality"`

	// Thumb shrinks the input to fit "width:height" before encoding.
	Thumb string `yaml:"thumb"`

	// Batch
	Jobs int `yaml:"jobs"`

	// Output
	LogLevel string `yaml:"log_level"`
	Verify   bool   `yaml:"verify"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Threads:  still.DefaultOptions.Threads,
		Speed:    still.DefaultOptions.Speed,
		Quality:  still.DefaultOptions.Quality,
		Jobs:     runtime.NumCPU(),
		LogLevel: ports.LevelInfo.String(),
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	return Parse(data)
}

// Parse decodes YAML on top of Defaults. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Defaults(), fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyPreset adjusts c for a named preset.
func (c *Config) ApplyPreset(name string) error {
	switch name {
	case PresetLossless:
		c.Quality = still.MinQuality
	case PresetBest:
		c.Speed = still.MinSpeed
	case PresetFast:
		c.Speed = still.MaxSpeed
	default:
		return fmt.Errorf("unknown preset %q", name)
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.Threads < 0 || c.Threads > still.MaxThreads {
		return fmt.Errorf("threads must be between 0 and %d, got %d", still.MaxThreads, c.Threads)
	}
	if c.Speed < still.MinSpeed || c.Speed > still.MaxSpeed {
		return fmt.Errorf("speed must be between %d and %d, got %d", still.MinSpeed, still.MaxSpeed, c.Speed)
	}
	if c.Quality < still.MinQuality || c.Quality > still.MaxQuality {
		return fmt.Errorf("quality must be between %d and %d, got %d", still.MinQuality, still.MaxQuality, c.Quality)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.Thumb != "" {
		if _, _, err := imageconv.ParseThumb(c.Thumb); err != nil {
			return err
		}
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ToOptions converts Config to still.Options.
func (c Config) ToOptions() still.Options {
	return still.Options{
		Threads: c.Threads,
		Speed:   c.Speed,
		Quality: c.Quality,
	}
}
