package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/TheMichaelB/sealshare/internal/models"
)

// Config holds all application configuration.
type Config struct {
	// Snippet store API
	API APIConfig `json:"api" mapstructure:"api"`

	// Share defaults
	Share ShareConfig `json:"share" mapstructure:"share"`

	// Local share history
	History HistoryConfig `json:"history" mapstructure:"history"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`

	// Metrics export
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Development options
	Dev DevConfig `json:"dev,omitempty" mapstructure:"dev"`
}

// APIConfig for server communication.
type APIConfig struct {
	BaseURL    string        `json:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout" validate:"gt=0"`
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`
	UserAgent  string        `json:"user_agent" mapstructure:"user_agent"`
	Token      string        `json:"token,omitempty" mapstructure:"token"` // Optional bearer token
}

// ShareConfig holds the defaults applied to new shares.
type ShareConfig struct {
	// Base of the links handed to users. Empty means API.BaseURL.
	LinkBaseURL        string `json:"link_base_url" mapstructure:"link_base_url" validate:"omitempty,url"`
	DefaultExpiry      string `json:"default_expiry" mapstructure:"default_expiry" validate:"oneof=1h 1d 7d 30d never"`
	DefaultVisibility  string `json:"default_visibility" mapstructure:"default_visibility" validate:"oneof=public unlisted private"`
	DefaultLanguage    string `json:"default_language" mapstructure:"default_language"`
	NormalizePasswords bool   `json:"normalize_passwords" mapstructure:"normalize_passwords"` // NFKC before key derivation
	MaxContentSize     int64  `json:"max_content_size" mapstructure:"max_content_size" validate:"gt=0"`
}

// HistoryConfig for the local share list.
type HistoryConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Backend    string `json:"backend" mapstructure:"backend" validate:"oneof=json sqlite"`
	Dir        string `json:"dir" mapstructure:"dir" validate:"required"`
	MaxEntries int    `json:"max_entries" mapstructure:"max_entries" validate:"gte=0"` // 0 = unlimited
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" mapstructure:"format" validate:"oneof=text json"`
	File   string `json:"file" mapstructure:"file"` // Log file path (empty = stderr)
	Color  bool   `json:"color" mapstructure:"color"`
}

// MetricsConfig for the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `json:"textfile" mapstructure:"textfile"` // Empty disables export
}

// DevConfig for development/debugging.
type DevConfig struct {
	InsecureSkipVerify bool `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".sealshare"
	if homeDir, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(homeDir, ".sealshare")
	}

	return &Config{
		API: APIConfig{
			BaseURL:    "https://sealshare.dev",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			UserAgent:  "sealshare-cli/1.0",
		},
		Share: ShareConfig{
			DefaultExpiry:     "7d",
			DefaultVisibility: "unlisted",
			DefaultLanguage:   "plaintext",
			MaxContentSize:    512 * 1024, // 512KB
		},
		History: HistoryConfig{
			Enabled:    true,
			Backend:    "json",
			Dir:        filepath.Join(dataDir, "history"),
			MaxEntries: 200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Color:  true,
		},
	}
}

// LinkBase returns the base URL used when building share links.
func (c *Config) LinkBase() string {
	if c.Share.LinkBaseURL != "" {
		return c.Share.LinkBaseURL
	}
	return c.API.BaseURL
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their config key rather than the Go name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", models.ErrInvalidConfig)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", models.ErrInvalidConfig)
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				return fmt.Errorf("%w: %s %q must satisfy %s=%s", models.ErrInvalidConfig, field, fmt.Sprint(fe.Value()), fe.Tag(), fe.Param())
			}
			return fmt.Errorf("%w: %s %q must satisfy %s", models.ErrInvalidConfig, field, fmt.Sprint(fe.Value()), fe.Tag())
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	var dirs []string

	if c.History.Enabled {
		dirs = append(dirs, c.History.Dir)
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	if c.Metrics.Textfile != "" {
		dirs = append(dirs, filepath.Dir(c.Metrics.Textfile))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
