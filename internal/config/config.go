package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds file- and environment-driven configuration. Environment
// variables override values from the optional YAML file.
type Config struct {
	Backend struct {
		BaseURL  string `yaml:"base_url"`  // default: http://localhost:3000
		APIToken string `yaml:"api_token"` // required
		UserID   string `yaml:"user_id"`
	} `yaml:"backend"`
	MySQL struct {
		DSN string `yaml:"dsn"` // e.g., user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
	} `yaml:"mysql"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Sync struct {
		Interval time.Duration `yaml:"interval"` // default: 30s
	} `yaml:"sync"`
	Ticker struct {
		Interval time.Duration `yaml:"interval"` // default: 1s
	} `yaml:"ticker"`
	HTTP struct {
		Addr string `yaml:"addr"` // empty disables the HTTP server
	} `yaml:"http"`
}

// ErrMissingToken is returned by Validate when no API token is configured.
// Load still returns the populated Config alongside it.
var ErrMissingToken = errors.New("SYSGD_API_TOKEN is required")

func defaultConfig() Config {
	var cfg Config
	cfg.Backend.BaseURL = "http://localhost:3000"
	cfg.Sync.Interval = 30 * time.Second
	cfg.Ticker.Interval = time.Second
	return cfg
}

// Load reads the YAML file at path (skipped when empty; falls back to
// SYSGD_CONFIG) and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv("SYSGD_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("SYSGD_API_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("SYSGD_API_TOKEN"); v != "" {
		cfg.Backend.APIToken = v
	}
	if v := os.Getenv("SYSGD_USER_ID"); v != "" {
		cfg.Backend.UserID = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQL.DSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := durationEnv("SYNC_INTERVAL", &cfg.Sync.Interval); err != nil {
		return cfg, err
	}
	if err := durationEnv("TICK_INTERVAL", &cfg.Ticker.Interval); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate checks required fields and mutually exclusive options. The token
// is checked last so callers that tolerate ErrMissingToken still get every
// other check.
func (c Config) Validate() error {
	if c.Sync.Interval <= 0 {
		return errors.New("SYNC_INTERVAL must be positive")
	}
	if c.Ticker.Interval <= 0 {
		return errors.New("TICK_INTERVAL must be positive")
	}
	if c.MySQL.DSN != "" && c.SQLite.Path != "" {
		return errors.New("MYSQL_DSN and SQLITE_PATH are mutually exclusive")
	}
	if c.Backend.APIToken == "" {
		return ErrMissingToken
	}
	return nil
}

func durationEnv(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s must be a duration (e.g. 30s): %w", key, err)
	}
	*dst = d
	return nil
}
