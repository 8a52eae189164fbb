// Package config provides configuration loading and management for planeinfo.
// It handles loading configuration from YAML or TOML files and provides
// default values.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"bioplanes/internal/logger"
)

// Config represents the application configuration
type Config struct {
	// Reader parameters
	Reader struct {
		// SeparateChannels splits composite planes into one plane per channel
		SeparateChannels bool `yaml:"separateChannels" toml:"separate_channels"`

		// MergeChannels combines the channels of each (Z, T) position into a
		// composite plane
		MergeChannels bool `yaml:"mergeChannels" toml:"merge_channels"`

		// SwapAxes relabels the non-spatial axes, either as a pair ("ZT") or
		// as a complete order ("XYCTZ"). Empty leaves the order alone.
		SwapAxes string `yaml:"swapAxes" toml:"swap_axes"`
	} `yaml:"reader" toml:"reader"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose" toml:"verbose"`

		// ListPlanes prints the coordinates of every plane
		ListPlanes bool `yaml:"listPlanes" toml:"list_planes"`

		// Statistics prints the mean and standard deviation of every plane
		Statistics bool `yaml:"statistics" toml:"statistics"`

		// PreviewDir, when set, receives a PNG of every plane
		PreviewDir string `yaml:"previewDir" toml:"preview_dir"`
	} `yaml:"output" toml:"output"`

	// Log parameters
	Log logger.Config `yaml:"log" toml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Reader.SeparateChannels = false
	cfg.Reader.MergeChannels = false

	cfg.Output.Verbose = false
	cfg.Output.ListPlanes = true
	cfg.Output.Statistics = false

	cfg.Log.Level = "info"
	cfg.Log.MaxSize = 10
	cfg.Log.MaxAge = 7

	return cfg
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from a YAML file, or a TOML file when the
// name ends in .toml. If the file doesn't exist, it returns the default
// configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if isTOML(configPath) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration, as TOML when the name ends in .toml
// and as YAML otherwise
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
