package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/rymscraper/pkg/browser"
	"github.com/entrhq/rymscraper/pkg/logging"
)

// Environment variables read by ApplyEnv
const (
	EnvWebdriverName  = "WEBDRIVER_NAME"
	EnvDriverExecPath = "DRIVER_EXEC_PATH"
)

// Config is the complete rymscraper configuration.
type Config struct {
	// WebdriverName selects the browser: edge, chrome, safari, anything else is firefox
	WebdriverName string `yaml:"webdriver_name" json:"webdriver_name"`

	// DriverExecPath optionally points at the browser executable
	DriverExecPath string `yaml:"driver_exec_path" json:"driver_exec_path"`

	Headless bool `yaml:"headless" json:"headless"`

	// InstallBrowsers downloads the Playwright driver and browsers on startup
	InstallBrowsers bool `yaml:"install_browsers" json:"install_browsers"`

	// Page preparation
	ExpandDelay time.Duration `yaml:"expand_delay" json:"expand_delay"`

	// Retry policy. MaxRestarts of zero restarts forever.
	MaxRestarts    int           `yaml:"max_restarts" json:"max_restarts"`
	RestartBackoff time.Duration `yaml:"restart_backoff" json:"restart_backoff"`

	// Politeness
	RequestsPerSecond float64  `yaml:"requests_per_second" json:"requests_per_second"`
	AllowedHosts      []string `yaml:"allowed_hosts" json:"allowed_hosts"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Headless:        true,
		InstallBrowsers: true,
		ExpandDelay:     browser.DefaultExpandDelay,
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// DefaultPath returns ~/.rymscraper/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".rymscraper", "config.yaml"), nil
}

// LoadFile reads a YAML configuration file over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load reads path if given. Otherwise the default path is read when it
// exists and the defaults are returned when it does not.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}

	defaultPath, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFile(defaultPath)
}

// ApplyEnv overrides the driver selection from the environment.
// lookup is normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if name, ok := lookup(EnvWebdriverName); ok {
		c.WebdriverName = name
	}
	if path, ok := lookup(EnvDriverExecPath); ok && path != "" {
		c.DriverExecPath = path
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxRestarts < 0 {
		return fmt.Errorf("max_restarts cannot be negative")
	}
	if c.ExpandDelay < 0 {
		return fmt.Errorf("expand_delay cannot be negative")
	}
	if c.RestartBackoff < 0 {
		return fmt.Errorf("restart_backoff cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second cannot be negative")
	}
	switch c.Logging.Verbosity {
	case "", "quiet", "normal", "verbose", "debug":
	default:
		return fmt.Errorf("invalid verbosity: %s (must be 'quiet', 'normal' or 'debug')", c.Logging.Verbosity)
	}
	return nil
}

// BrowserOptions converts the configuration into session options.
func (c *Config) BrowserOptions() browser.Options {
	opts := browser.DefaultOptions()
	opts.Engine = browser.ParseEngine(c.WebdriverName)
	opts.Headless = c.Headless
	opts.ExecutablePath = c.DriverExecPath
	opts.ExpandDelay = c.ExpandDelay
	opts.MaxRestarts = c.MaxRestarts
	opts.RestartBackoff = c.RestartBackoff
	opts.RequestsPerSecond = c.RequestsPerSecond
	opts.AllowedHosts = append([]string(nil), c.AllowedHosts...)
	return opts
}

// LogLevel returns the configured logging level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Verbosity)
}
