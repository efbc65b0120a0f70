package service

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/formfill/fill"
)

// Config is the top-level formfill configuration.
type Config struct {
	DBPath  string        `yaml:"db_path"`
	Listen  string        `yaml:"listen"`
	Browser BrowserConfig `yaml:"browser"`
	// Weights overrides the scoring constants; absent = tuned defaults.
	Weights *fill.Weights `yaml:"weights"`
}

// BrowserConfig controls the Chrome connection.
type BrowserConfig struct {
	Remote          string        `yaml:"remote"`
	Headful         bool          `yaml:"headful"`
	Stealth         *bool         `yaml:"stealth"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout"`
}

// StealthEnabled resolves the stealth toggle (default on).
func (b BrowserConfig) StealthEnabled() bool {
	return b.Stealth == nil || *b.Stealth
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("service: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("service: parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "formfill.db"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8743"
	}
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
}
