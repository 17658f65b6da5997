package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danbi-ai/danbi/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify danbi configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/danbi/config.yaml
Project-specific overrides can be placed in .danbi.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", orDefault(cfg.Anthropic.Model))
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", orDefault(cfg.Anthropic.AWSRegion))
	fmt.Printf("anthropic.aws_profile: %s\n", orDefault(cfg.Anthropic.AWSProfile))
	fmt.Printf("engine.max_retries: %d\n", cfg.Engine.MaxRetries)
	fmt.Printf("engine.max_concurrency: %d\n", cfg.Engine.MaxConcurrency)
	fmt.Printf("engine.task_timeout: %s\n", cfg.Engine.TaskTimeout)
	fmt.Printf("engine.session_timeout: %s\n", cfg.Engine.SessionTimeout)
	fmt.Printf("store.path: %s\n", cfg.StorePath())
	fmt.Printf("store.retention: %s\n", cfg.Store.Retention)
	fmt.Printf("templates.path: %s\n", orDefault(cfg.Templates.Path))
	fmt.Printf("templates.watch: %t\n", cfg.Templates.Watch)
	fmt.Printf("cache.enabled: %t\n", cfg.Cache.Enabled)
	fmt.Printf("cache.max_size: %d\n", cfg.Cache.MaxSize)
	fmt.Printf("cache.ttl: %s\n", cfg.Cache.TTL)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "engine.max_retries":
		return strconv.Itoa(cfg.Engine.MaxRetries), nil
	case "engine.max_concurrency":
		return strconv.Itoa(cfg.Engine.MaxConcurrency), nil
	case "engine.task_timeout":
		return cfg.Engine.TaskTimeout.String(), nil
	case "engine.session_timeout":
		return cfg.Engine.SessionTimeout.String(), nil
	case "store.path":
		return cfg.StorePath(), nil
	case "store.retention":
		return cfg.Store.Retention.String(), nil
	case "templates.path":
		return cfg.Templates.Path, nil
	case "templates.watch":
		return strconv.FormatBool(cfg.Templates.Watch), nil
	case "cache.enabled":
		return strconv.FormatBool(cfg.Cache.Enabled), nil
	case "cache.max_size":
		return strconv.Itoa(cfg.Cache.MaxSize), nil
	case "cache.ttl":
		return cfg.Cache.TTL.String(), nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "engine.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid value for max_retries: %s", value)
		}
		cfg.Engine.MaxRetries = n
	case "engine.max_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value for max_concurrency: %s", value)
		}
		cfg.Engine.MaxConcurrency = n
	case "engine.task_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for task_timeout: %w", err)
		}
		cfg.Engine.TaskTimeout = d
	case "engine.session_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for session_timeout: %w", err)
		}
		cfg.Engine.SessionTimeout = d
	case "store.path":
		cfg.Store.Path = value
	case "store.retention":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for retention: %w", err)
		}
		cfg.Store.Retention = d
	case "templates.path":
		cfg.Templates.Path = value
	case "templates.watch":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for templates.watch: %w", err)
		}
		cfg.Templates.Watch = b
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for cache.enabled: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.max_size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value for cache.max_size: %s", value)
		}
		cfg.Cache.MaxSize = n
	case "cache.ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for cache.ttl: %w", err)
		}
		cfg.Cache.TTL = d
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
