package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// RemoteConfig holds the connection settings for the remote row store.
type RemoteConfig struct {
	// URL is the base URL of the remote store's REST endpoint.
	URL string `mapstructure:"url" yaml:"url"`

	// UserID is the already-authenticated principal identifier the
	// client acts as. Authentication itself happens outside this
	// program; we only receive its result.
	UserID string `mapstructure:"user_id" yaml:"user_id"`

	// APIKeyName is the credential key under which the store API key
	// is kept in the system keyring. The TASKBOARD_API_KEY environment
	// variable takes precedence when set.
	APIKeyName string `mapstructure:"api_key_name" yaml:"api_key_name"`

	// TimeoutSec bounds each gateway request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// Offline switches the client to the local SQLite-backed store
	// instead of the remote REST endpoint.
	Offline bool `mapstructure:"offline" yaml:"offline"`

	// DBPath is the SQLite database file used in offline mode.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskboard", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, _ := os.UserHomeDir()
	return &AppConfig{
		Offline: false,
		DBPath:  filepath.Join(home, ".local", "share", "taskboard", "tasks.db"),
		Remote: RemoteConfig{
			APIKeyName: "remote-api-key",
			TimeoutSec: 15,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	defaults := defaultAppConfig()
	v.SetDefault("offline", defaults.Offline)
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("remote.api_key_name", defaults.Remote.APIKeyName)
	v.SetDefault("remote.timeout_sec", defaults.Remote.TimeoutSec)
	v.SetDefault("display.theme", defaults.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Remote.TimeoutSec <= 0 {
		cfg.Remote.TimeoutSec = defaults.Remote.TimeoutSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("offline", cfg.Offline)
	v.Set("db_path", cfg.DBPath)
	v.Set("remote", cfg.Remote)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
