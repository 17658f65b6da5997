// Package config handles configuration loading and management for danbi.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/danbi-ai/danbi/internal/classify"
	"github.com/danbi-ai/danbi/internal/executor"
	"github.com/danbi-ai/danbi/internal/orchestrator"
	"github.com/danbi-ai/danbi/internal/retry"
	"github.com/danbi-ai/danbi/internal/state"
)

// Config holds all configuration for danbi.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Store     StoreConfig     `mapstructure:"store"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Cache     CacheConfig     `mapstructure:"cache"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings for the intent classifier.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// UseBedrock routes model calls through AWS Bedrock instead of the
	// Anthropic API directly.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// EngineConfig holds workflow engine settings.
type EngineConfig struct {
	// MaxRetries is the per-session retry budget.
	MaxRetries int `mapstructure:"max_retries"`
	// MaxConcurrency bounds concurrent tasks within one execution tier.
	MaxConcurrency int `mapstructure:"max_concurrency"`
	// TaskTimeout bounds one worker invocation.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// SessionTimeout bounds a whole session end to end.
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
}

// StoreConfig holds session checkpoint store settings.
type StoreConfig struct {
	// Path is the SQLite database location. Empty selects the XDG default.
	Path string `mapstructure:"path"`
	// Retention is how long finished session checkpoints are kept.
	Retention time.Duration `mapstructure:"retention"`
}

// TemplatesConfig holds task-template override settings.
type TemplatesConfig struct {
	// Path points at a YAML file of per-intent task templates. Empty keeps
	// the built-in templates.
	Path string `mapstructure:"path"`
	// Watch reloads the template file when it changes on disk.
	Watch bool `mapstructure:"watch"`
}

// CacheConfig holds classifier cache settings.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxSize int           `mapstructure:"max_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// TUIConfig holds progress display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, AWS_REGION)
// 2. Project config (.danbi.yaml in current directory or parent)
// 3. User config (~/.config/danbi/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Project config takes precedence over the user config.
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references left in the file.
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("engine.max_retries", cfg.Engine.MaxRetries)
	v.Set("engine.max_concurrency", cfg.Engine.MaxConcurrency)
	v.Set("engine.task_timeout", cfg.Engine.TaskTimeout.String())
	v.Set("engine.session_timeout", cfg.Engine.SessionTimeout.String())
	v.Set("store.path", cfg.Store.Path)
	v.Set("store.retention", cfg.Store.Retention.String())
	v.Set("templates.path", cfg.Templates.Path)
	v.Set("templates.watch", cfg.Templates.Watch)
	v.Set("cache.enabled", cfg.Cache.Enabled)
	v.Set("cache.max_size", cfg.Cache.MaxSize)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// StorePath returns the configured checkpoint database path, falling back to
// the XDG default.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return os.ExpandEnv(c.Store.Path)
	}
	return state.DefaultDBPath()
}

// CacheSettings converts the cache section into the classifier's config.
func (c *Config) CacheSettings() classify.CacheConfig {
	return classify.CacheConfig{
		MaxSize: c.Cache.MaxSize,
		TTL:     c.Cache.TTL,
	}
}

func setDefaults(v *viper.Viper) {
	cache := classify.DefaultCacheConfig()

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("engine.max_retries", retry.DefaultMaxRetries)
	v.SetDefault("engine.max_concurrency", executor.DefaultMaxConcurrency)
	v.SetDefault("engine.task_timeout", executor.DefaultTaskTimeout.String())
	v.SetDefault("engine.session_timeout", orchestrator.DefaultSessionTimeout.String())

	v.SetDefault("store.path", "")
	v.SetDefault("store.retention", "720h")

	v.SetDefault("templates.path", "")
	v.SetDefault("templates.watch", false)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", cache.MaxSize)
	v.SetDefault("cache.ttl", cache.TTL.String())

	v.SetDefault("tui.refresh_rate", "100ms")
}

// getUserConfigDir returns the XDG config directory for danbi.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "danbi")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "danbi")
	}
	return filepath.Join(home, ".config", "danbi")
}

// findProjectConfig searches for .danbi.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".danbi.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	cache := classify.DefaultCacheConfig()
	return &Config{
		Engine: EngineConfig{
			MaxRetries:     retry.DefaultMaxRetries,
			MaxConcurrency: executor.DefaultMaxConcurrency,
			TaskTimeout:    executor.DefaultTaskTimeout,
			SessionTimeout: orchestrator.DefaultSessionTimeout,
		},
		Store: StoreConfig{
			Retention: 720 * time.Hour,
		},
		Cache: CacheConfig{
			Enabled: true,
			MaxSize: cache.MaxSize,
			TTL:     cache.TTL,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}
