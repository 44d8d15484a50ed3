package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "SEALSHARE",
	}
}

// Load reads configuration from file and environment.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	// Start with defaults
	setDefaults(v, DefaultConfig())

	// Environment overrides, e.g. SEALSHARE_API_BASE_URL
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load from file if exists
	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		// Try default locations
		for _, path := range l.defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				l.configPath = path
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("load config file %s: %w", path, err)
				}
				break
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.History.Dir = expandHome(cfg.History.Dir)
	cfg.Metrics.Textfile = expandHome(cfg.Metrics.Textfile)

	// Validate final config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigPath returns the file that was loaded, if any.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

// defaultPaths returns default config file locations.
func (l *Loader) defaultPaths() []string {
	paths := []string{
		"sealshare.json",
		"sealshare.yaml",
		".sealshare.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "sealshare", "config.json"),
			filepath.Join(homeDir, ".config", "sealshare", "config.yaml"),
			filepath.Join(homeDir, ".sealshare", "config.json"),
		)
	}

	return paths
}

// setDefaults registers every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.token", cfg.API.Token)

	v.SetDefault("share.link_base_url", cfg.Share.LinkBaseURL)
	v.SetDefault("share.default_expiry", cfg.Share.DefaultExpiry)
	v.SetDefault("share.default_visibility", cfg.Share.DefaultVisibility)
	v.SetDefault("share.default_language", cfg.Share.DefaultLanguage)
	v.SetDefault("share.normalize_passwords", cfg.Share.NormalizePasswords)
	v.SetDefault("share.max_content_size", cfg.Share.MaxContentSize)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.backend", cfg.History.Backend)
	v.SetDefault("history.dir", cfg.History.Dir)
	v.SetDefault("history.max_entries", cfg.History.MaxEntries)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.color", cfg.Log.Color)

	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)

	v.SetDefault("dev.insecure_skip_verify", cfg.Dev.InsecureSkipVerify)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// SaveExample writes an example config file.
func SaveExample(path string) error {
	cfg := DefaultConfig()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
