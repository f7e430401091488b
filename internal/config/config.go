// Package config loads the switch controller's static configuration: the
// roster of configured switches and their platform wiring, plus a handful
// of daemon-level knobs (log level, metrics listen address).
//
// Grounded on the teacher pack's go-mehrhof internal/config and
// internal/storage packages, which load YAML-backed settings via
// gopkg.in/yaml.v3 with a NewDefault-style constructor filled in before
// unmarshal, so user files only need to override what they care about.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SwitchConfig describes one configured switch device, as it would appear
// in a machine's switch roster.
type SwitchConfig struct {
	Name           string `yaml:"name"`
	Label          string `yaml:"label,omitempty"`
	Platform       string `yaml:"platform"`
	HardwareNumber string `yaml:"number"`
	Invert         bool   `yaml:"invert,omitempty"`
	RecycleMS      int    `yaml:"recycle_ms,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	LogLevel    string         `yaml:"log_level,omitempty"`
	MetricsAddr string         `yaml:"metrics_addr,omitempty"`
	Switches    []SwitchConfig `yaml:"switches,omitempty"`
}

// NewDefault returns a Config with sensible defaults, to be overridden by
// whatever a loaded file specifies.
func NewDefault() *Config {
	return &Config{
		LogLevel:    "info",
		MetricsAddr: ":9090",
	}
}

// Load reads and parses the YAML document at path. A missing file is not
// an error — it returns the defaults unchanged, matching the teacher's
// LoadConfig fallback behavior.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
