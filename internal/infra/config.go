package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting for the client. Secrets may be
// supplied in the file but environment variables always win.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode      string `yaml:"mode"` // "virtual" or "real"
		AccountID string `yaml:"account_id"`
	} `yaml:"trading"`

	Stream struct {
		URL                 string `yaml:"url"`
		ReconnectDelayMS    int    `yaml:"reconnect_delay_ms"`
		HeartbeatIntervalMS int    `yaml:"heartbeat_interval_ms"`
		HandshakeTimeoutMS  int    `yaml:"handshake_timeout_ms"`
		InboxSize           int    `yaml:"inbox_size"`
	} `yaml:"stream"`

	Services struct {
		BaseURL          string `yaml:"base_url"`
		Token            string `yaml:"token"`
		RequestTimeoutMS int    `yaml:"request_timeout_ms"`
		RateLimitPerSec  int    `yaml:"rate_limit_per_sec"`
		RateBurst        int    `yaml:"rate_burst"`
	} `yaml:"services"`

	Alerts struct {
		// MoveThresholdMicros is the fractional price move that triggers a
		// holdings alert. 10,000 micros = 1%.
		MoveThresholdMicros int64 `yaml:"move_threshold_micros"`
	} `yaml:"alerts"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "json" or "text"
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides, fills defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Trading.Mode == "" {
		c.Trading.Mode = "virtual"
	}
	if c.Stream.ReconnectDelayMS == 0 {
		// Flat retry interval; the feed tolerates aggressive reconnects.
		c.Stream.ReconnectDelayMS = 5000
	}
	if c.Stream.HeartbeatIntervalMS == 0 {
		c.Stream.HeartbeatIntervalMS = 4000
	}
	if c.Stream.HandshakeTimeoutMS == 0 {
		c.Stream.HandshakeTimeoutMS = 10000
	}
	if c.Stream.InboxSize == 0 {
		c.Stream.InboxSize = 1024
	}
	if c.Services.RequestTimeoutMS == 0 {
		c.Services.RequestTimeoutMS = 10000
	}
	if c.Services.RateLimitPerSec == 0 {
		c.Services.RateLimitPerSec = 10
	}
	if c.Services.RateBurst == 0 {
		c.Services.RateBurst = 5
	}
	if c.Alerts.MoveThresholdMicros == 0 {
		c.Alerts.MoveThresholdMicros = 10_000 // 1%
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Stream.URL, "ws://") && !strings.HasPrefix(c.Stream.URL, "wss://") {
		return fmt.Errorf("invalid stream URL: %q", c.Stream.URL)
	}
	if !strings.HasPrefix(c.Services.BaseURL, "http://") && !strings.HasPrefix(c.Services.BaseURL, "https://") {
		return fmt.Errorf("invalid services base URL: %q", c.Services.BaseURL)
	}
	if mode := c.Trading.Mode; mode != "virtual" && mode != "real" {
		return fmt.Errorf("trading mode must be 'virtual' or 'real', got %q", mode)
	}
	if c.Stream.ReconnectDelayMS < 0 || c.Services.RequestTimeoutMS < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// ReconnectDelay returns the flat reconnect interval as a Duration.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Stream.ReconnectDelayMS) * time.Millisecond
}

// HeartbeatInterval returns the websocket ping interval.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Stream.HeartbeatIntervalMS) * time.Millisecond
}

// HandshakeTimeout returns the websocket dial timeout.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Stream.HandshakeTimeoutMS) * time.Millisecond
}

// RequestTimeout returns the per-call REST timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Services.RequestTimeoutMS) * time.Millisecond
}

// overrideWithEnv lets environment variables take precedence over file
// values so tokens never need to live on disk.
func overrideWithEnv(cfg *Config) {
	if cfg.Services.Token != "" {
		fmt.Println("WARNING: API token found in config file; prefer STOCKR_API_TOKEN")
	}

	if token := os.Getenv("STOCKR_API_TOKEN"); token != "" {
		cfg.Services.Token = token
	}
	if acct := os.Getenv("STOCKR_ACCOUNT_ID"); acct != "" {
		cfg.Trading.AccountID = acct
	}
}
