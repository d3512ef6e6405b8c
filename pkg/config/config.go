// Package config loads the gracefulpage CLI configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/gracefulpage/pkg/browser"
	"github.com/entrhq/gracefulpage/pkg/gracefulpage"
	"github.com/entrhq/gracefulpage/pkg/logging"
)

// Config represents the configuration for a gracefulpage run
type Config struct {
	// Automation engine: playwright or chromedp
	Engine browser.Engine `yaml:"engine" json:"engine"`

	// Browser to launch (playwright only)
	Browser string `yaml:"browser" json:"browser"`

	Headless bool `yaml:"headless" json:"headless"`

	// Install downloads the Playwright driver and browsers before launch
	Install bool `yaml:"install" json:"install"`

	// Pause between recovery attempts
	RetryInterval time.Duration `yaml:"retry_interval" json:"retry_interval"`

	Navigation NavigationConfig `yaml:"navigation" json:"navigation"`
	Viewport   ViewportConfig   `yaml:"viewport" json:"viewport"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
}

// NavigationConfig holds the defaults applied to every Goto
type NavigationConfig struct {
	WaitUntil gracefulpage.WaitUntil `yaml:"wait_until" json:"wait_until"`
	Timeout   time.Duration          `yaml:"timeout" json:"timeout"`
}

// ViewportConfig defines the browser window size
type ViewportConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Directory for log files (default: ~/.gracefulpage/logs)
	Directory string `yaml:"directory" json:"directory"`

	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// MetricsConfig defines the Prometheus endpoint
type MetricsConfig struct {
	// Address to serve /metrics on, e.g. ":9090" (empty disables)
	Address string `yaml:"address" json:"address"`
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Engine:        browser.EnginePlaywright,
		Browser:       browser.BrowserChromium,
		Headless:      true,
		RetryInterval: gracefulpage.DefaultRetryInterval,
		Navigation: NavigationConfig{
			WaitUntil: gracefulpage.WaitUntilDOMContentLoaded,
			Timeout:   browser.DefaultTimeout,
		},
		Viewport: ViewportConfig{
			Width:  browser.DefaultViewportWidth,
			Height: browser.DefaultViewportHeight,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// Load reads path over DefaultConfig. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Engine {
	case browser.EnginePlaywright, browser.EngineChromedp:
	default:
		return fmt.Errorf("invalid engine: %s (must be 'playwright' or 'chromedp')", c.Engine)
	}

	switch c.Browser {
	case browser.BrowserChromium:
	case browser.BrowserFirefox, browser.BrowserWebKit:
		if c.Engine == browser.EngineChromedp {
			return fmt.Errorf("invalid browser: %s (chromedp only drives 'chromium')", c.Browser)
		}
	default:
		return fmt.Errorf("invalid browser: %s (must be 'chromium', 'firefox', or 'webkit')", c.Browser)
	}

	if c.RetryInterval < 0 {
		return fmt.Errorf("retry_interval cannot be negative")
	}

	if c.Navigation.WaitUntil == "" {
		c.Navigation.WaitUntil = gracefulpage.WaitUntilDOMContentLoaded
	}
	if !c.Navigation.WaitUntil.Valid() {
		return fmt.Errorf("invalid wait_until: %s (must be 'load', 'domcontentloaded', 'networkidle', or 'commit')", c.Navigation.WaitUntil)
	}

	if c.Navigation.Timeout < 0 {
		return fmt.Errorf("navigation timeout cannot be negative")
	}

	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport dimensions must be positive")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	if _, err := logging.ParseVerbosity(c.Logging.Verbosity); err != nil {
		return err
	}

	return nil
}

// LaunchOptions converts the browser settings for pkg/browser.
func (c *Config) LaunchOptions() browser.LaunchOptions {
	return browser.LaunchOptions{
		Browser:  c.Browser,
		Headless: c.Headless,
		Install:  c.Install,
		Viewport: &browser.Viewport{Width: c.Viewport.Width, Height: c.Viewport.Height},
		Timeout:  c.Navigation.Timeout,
	}
}

// GotoOptions returns the navigation defaults as gracefulpage options.
func (c *Config) GotoOptions() gracefulpage.GotoOptions {
	return gracefulpage.GotoOptions{
		WaitUntil: c.Navigation.WaitUntil,
		Timeout:   c.Navigation.Timeout,
	}
}
