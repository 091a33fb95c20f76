// Package config loads client configuration from an optional YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultDuration  = 60 * time.Minute
	defaultDBPath    = "pwsafe.db"
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// Vault holds the settings the vault client itself needs.
type Vault struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	RunAsUsername string `yaml:"run_as_username"`
	RunAsPassword string `yaml:"run_as_password"`

	UseOAuth          bool   `yaml:"use_oauth"`
	OAuthClientID     string `yaml:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret"`

	// Timeout bounds every HTTP call.
	Timeout time.Duration `yaml:"timeout"`
	// DefaultDuration is the checkout span sent with password requests.
	DefaultDuration time.Duration `yaml:"default_duration"`
	// AutoRefresh replaces an expired session transparently.
	AutoRefresh bool `yaml:"auto_refresh"`
	// DirectoryCache revalidates system and account listings with ETags
	// instead of refetching them.
	DirectoryCache bool `yaml:"directory_cache"`
}

// DefaultVault returns the settings a zero config file and empty
// environment produce.
func DefaultVault() Vault {
	return Vault{
		Timeout:         defaultTimeout,
		DefaultDuration: defaultDuration,
		AutoRefresh:     true,
	}
}

// Validate fails on the first missing or malformed setting, naming it.
func (v Vault) Validate() error {
	if strings.TrimSpace(v.BaseURL) == "" {
		return model.InvalidArgumentf("base URL is required (PWSAFE_BASE_URL)")
	}
	if v.UseOAuth {
		if v.OAuthClientID == "" {
			return model.InvalidArgumentf("OAuth client id is required when OAuth is enabled (PWSAFE_OAUTH_CLIENT_ID)")
		}
		if v.OAuthClientSecret == "" {
			return model.InvalidArgumentf("OAuth client secret is required when OAuth is enabled (PWSAFE_OAUTH_CLIENT_SECRET)")
		}
	} else {
		if v.RunAsUsername == "" {
			return model.InvalidArgumentf("run-as username is required for API key authentication (PWSAFE_RUN_AS_USERNAME)")
		}
		if v.APIKey == "" {
			return model.InvalidArgumentf("API key is required for API key authentication (PWSAFE_API_KEY)")
		}
	}
	if v.Timeout < 0 {
		return model.InvalidArgumentf("timeout must not be negative (PWSAFE_TIMEOUT)")
	}
	if v.DefaultDuration < 0 {
		return model.InvalidArgumentf("default duration must not be negative (PWSAFE_DEFAULT_DURATION)")
	}
	return nil
}

// Config holds the full command-line configuration.
type Config struct {
	Vault `yaml:",inline"`

	DBPath    string `yaml:"db_path"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// SecretKey encrypts stored credentials. It is only read from the
	// environment.
	SecretKey string `yaml:"-"`
}

// Load reads PWSAFE_CONFIG_FILE when set, then applies PWSAFE_* environment
// variables over it. Credentials are not validated here; callers validate
// after merging stored credentials.
// Defaults: PWSAFE_TIMEOUT (30s), PWSAFE_DEFAULT_DURATION (60m),
// PWSAFE_AUTO_REFRESH (true), PWSAFE_DIRECTORY_CACHE (false),
// PWSAFE_DB_PATH (pwsafe.db), PWSAFE_LOG_LEVEL (info), PWSAFE_LOG_FORMAT (text).
func Load() (*Config, error) {
	cfg := &Config{
		Vault:     DefaultVault(),
		DBPath:    defaultDBPath,
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}

	if path, ok := os.LookupEnv("PWSAFE_CONFIG_FILE"); ok && path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("PWSAFE_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"PWSAFE_BASE_URL", &cfg.BaseURL},
		{"PWSAFE_API_KEY", &cfg.APIKey},
		{"PWSAFE_RUN_AS_USERNAME", &cfg.RunAsUsername},
		{"PWSAFE_RUN_AS_PASSWORD", &cfg.RunAsPassword},
		{"PWSAFE_OAUTH_CLIENT_ID", &cfg.OAuthClientID},
		{"PWSAFE_OAUTH_CLIENT_SECRET", &cfg.OAuthClientSecret},
		{"PWSAFE_DB_PATH", &cfg.DBPath},
		{"PWSAFE_SECRET_KEY", &cfg.SecretKey},
		{"PWSAFE_LOG_LEVEL", &cfg.LogLevel},
		{"PWSAFE_LOG_FORMAT", &cfg.LogFormat},
	}
	for _, s := range strs {
		if v, ok := os.LookupEnv(s.key); ok {
			*s.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"PWSAFE_USE_OAUTH", &cfg.UseOAuth},
		{"PWSAFE_AUTO_REFRESH", &cfg.AutoRefresh},
		{"PWSAFE_DIRECTORY_CACHE", &cfg.DirectoryCache},
	}
	for _, b := range bools {
		v, ok := os.LookupEnv(b.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s has invalid boolean %q: %w", b.key, v, err)
		}
		*b.dst = parsed
	}

	if v, ok := os.LookupEnv("PWSAFE_TIMEOUT"); ok && v != "" {
		d, err := parseDuration(v, time.Second)
		if err != nil {
			return fmt.Errorf("PWSAFE_TIMEOUT has invalid duration %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v, ok := os.LookupEnv("PWSAFE_DEFAULT_DURATION"); ok && v != "" {
		d, err := parseDuration(v, time.Minute)
		if err != nil {
			return fmt.Errorf("PWSAFE_DEFAULT_DURATION has invalid duration %q: %w", v, err)
		}
		cfg.DefaultDuration = d
	}

	return nil
}

// parseDuration accepts a Go duration string or a bare integer in unit.
func parseDuration(v string, unit time.Duration) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, errors.New("must not be negative")
		}
		return time.Duration(n) * unit, nil
	}
	return time.ParseDuration(v)
}
