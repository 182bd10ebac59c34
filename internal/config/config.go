// Package config loads the optional JSON configuration shared by every
// ns1tool subcommand.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/ns1kit/internal/ns1"
	"github.com/banshee-data/ns1kit/internal/units"
)

// Defaults for fields left out of the config file.
const (
	DefaultDBPath = "ns1kit.db"
	DefaultListen = "localhost:8080"
)

// Config is the root configuration. Every field is optional; the Get*
// methods supply defaults for unset fields.
type Config struct {
	// Decoder limits
	MaxNetworks *int  `json:"max_networks,omitempty"`
	MaxSamples  *int  `json:"max_samples,omitempty"`
	MaxIELength *int  `json:"max_ie_length,omitempty"`
	RetainIE    *bool `json:"retain_ie,omitempty"`

	// Rendering
	Timezone *string `json:"timezone,omitempty"` // IANA name, default UTC

	// ChartAssetsHost serves the echarts scripts for offline chart HTML.
	ChartAssetsHost *string `json:"chart_assets_host,omitempty"`

	// Storage and server
	DBPath *string `json:"db_path,omitempty"`
	Listen *string `json:"listen,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// LoadConfig loads a Config from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	for _, lim := range []struct {
		name string
		v    *int
	}{
		{"max_networks", c.MaxNetworks},
		{"max_samples", c.MaxSamples},
		{"max_ie_length", c.MaxIELength},
	} {
		if lim.v != nil && *lim.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", lim.name, *lim.v)
		}
	}

	if c.Timezone != nil && *c.Timezone != "" {
		if _, err := units.LoadTimezone(*c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", *c.Timezone, err)
		}
	}

	if c.DBPath != nil && *c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Listen != nil && *c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	return nil
}

// GetLimits returns the decoder limits with defaults for unset fields.
func (c *Config) GetLimits() ns1.Limits {
	l := ns1.DefaultLimits
	if c.MaxNetworks != nil {
		l.MaxNetworks = *c.MaxNetworks
	}
	if c.MaxSamples != nil {
		l.MaxSamples = *c.MaxSamples
	}
	if c.MaxIELength != nil {
		l.MaxIELength = *c.MaxIELength
	}
	return l
}

// GetRetainIE returns the retain_ie value or the default.
func (c *Config) GetRetainIE() bool {
	if c.RetainIE == nil {
		return false // default
	}
	return *c.RetainIE
}

// GetTimezone returns the timezone value or the default.
func (c *Config) GetTimezone() string {
	if c.Timezone == nil {
		return "UTC" // default
	}
	return *c.Timezone
}

// GetChartAssetsHost returns the chart_assets_host value, or "" for the
// go-echarts default CDN.
func (c *Config) GetChartAssetsHost() string {
	if c.ChartAssetsHost == nil {
		return ""
	}
	return *c.ChartAssetsHost
}

// GetDBPath returns the db_path value or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return DefaultDBPath
	}
	return *c.DBPath
}

// GetListen returns the listen value or the default.
func (c *Config) GetListen() string {
	if c.Listen == nil {
		return DefaultListen
	}
	return *c.Listen
}

// DecoderOptions converts the decoder settings to ns1 options.
func (c *Config) DecoderOptions() []ns1.Option {
	return []ns1.Option{
		ns1.WithLimits(c.GetLimits()),
		ns1.WithRetainIE(c.GetRetainIE()),
	}
}
