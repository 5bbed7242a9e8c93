package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables consulted after the config file is decoded.
const (
	EnvAPIURL      = "FREIGHTMSG_API_URL"
	EnvRole        = "FREIGHTMSG_ROLE"
	EnvMetricsAddr = "FREIGHTMSG_METRICS_ADDR"
	EnvSession     = "FREIGHTMSG_SESSION"
	EnvLogLevel    = "FREIGHTMSG_LOG_LEVEL"
)

// Config represents the global ~/.freightmsg/config.toml.
type Config struct {
	DefaultSession string  `toml:"default_session"`
	API            API     `toml:"api"`
	Inbox          Inbox   `toml:"inbox"`
	Metrics        Metrics `toml:"metrics"`
	Log            Log     `toml:"log"`
}

// API configures the marketplace REST client.
type API struct {
	BaseURL        string    `toml:"base_url"`
	TimeoutSeconds int       `toml:"timeout_seconds"`
	RatePerSecond  float64   `toml:"rate_per_second"`
	Burst          int       `toml:"burst"`
	Endpoints      Endpoints `toml:"endpoints"`
}

// Endpoints overrides individual backend paths. Empty fields keep the defaults.
type Endpoints struct {
	ShipperConversations string `toml:"shipper_conversations"`
	CarrierConversations string `toml:"carrier_conversations"`
	DriverConversations  string `toml:"driver_conversations"`
	ShipmentThread       string `toml:"shipment_thread"`
	UserThread           string `toml:"user_thread"`
	Send                 string `toml:"send"`
	Delete               string `toml:"delete"`
	Shipment             string `toml:"shipment"`
}

// Inbox configures the messaging view controller.
type Inbox struct {
	// Role is used when the session file carries no role.
	Role            string `toml:"role"`
	RefreshSchedule string `toml:"refresh_schedule"`
	ToastSeconds    int    `toml:"toast_seconds"`
}

// Metrics configures the Prometheus endpoint. Empty Addr disables it.
type Metrics struct {
	Addr string `toml:"addr"`
}

// Log configures the daemon logger.
type Log struct {
	// Level is a zap level name: debug, info, warn or error.
	Level string `toml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		API: API{
			BaseURL:        "http://127.0.0.1:5000",
			TimeoutSeconds: 15,
			RatePerSecond:  5,
			Burst:          10,
		},
		Inbox: Inbox{
			RefreshSchedule: "@every 30s",
			ToastSeconds:    4,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads config from the given path. Returns nil config and error if file missing.
// Values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load that falls back to defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// LoadEnvFiles loads the given .env files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadEnvFiles(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overrides file values with FREIGHTMSG_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRole)); v != "" {
		c.Inbox.Role = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMetricsAddr)); v != "" {
		c.Metrics.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Timeout returns the per-request backend timeout.
func (a API) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ToastTTL returns how long a toast stays visible.
func (i Inbox) ToastTTL() time.Duration {
	if i.ToastSeconds <= 0 {
		return 4 * time.Second
	}
	return time.Duration(i.ToastSeconds) * time.Second
}
