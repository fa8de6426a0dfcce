// Package config provides configuration management for tradestat.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tradestat/internal/analytics"
	apperrors "tradestat/internal/errors"
	"tradestat/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Analytics   AnalyticsConfig           `mapstructure:"analytics"`
	Instruments analytics.InstrumentTable `mapstructure:"instruments"`
	Store       StoreConfig               `mapstructure:"store"`
	Logging     LoggingConfig             `mapstructure:"logging"`
	Notify      NotifyConfig              `mapstructure:"notify"`
	UI          UIConfig                  `mapstructure:"ui"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// AnalyticsConfig holds the statistics computation settings.
type AnalyticsConfig struct {
	TriggerThreshold float64 `mapstructure:"trigger_threshold"`
	StartGateEnabled bool    `mapstructure:"start_gate_enabled"`
	StartGate        float64 `mapstructure:"start_gate"`
	MinStreakLength  int     `mapstructure:"min_streak_length"`
	StabilityTarget  float64 `mapstructure:"stability_target"`
	BarHours         float64 `mapstructure:"bar_hours"`
}

// StoreConfig holds run history settings.
type StoreConfig struct {
	Path     string `mapstructure:"path"`
	KeepRuns int    `mapstructure:"keep_runs"` // 0 keeps every run
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// NotifyConfig holds publication notification settings.
type NotifyConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// UIConfig holds output settings.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/tradestat"
	}
	return filepath.Join(home, ".config", "tradestat")
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing config
// file is replaced by the commented template and loading continues.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := loadDotEnv(configDir); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{Dir: configDir}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("analytics.trigger_threshold", 0.0)
	v.SetDefault("analytics.start_gate_enabled", false)
	v.SetDefault("analytics.start_gate", 0.0)
	v.SetDefault("analytics.min_streak_length", analytics.DefaultMinStreakLength)
	v.SetDefault("analytics.stability_target", 0.0)
	v.SetDefault("analytics.bar_hours", analytics.DefaultBarHours)

	v.SetDefault("store.path", filepath.Join(configDir, "tradestat.db"))
	v.SetDefault("store.keep_runs", 50)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "tradestat.log"))
	v.SetDefault("logging.max_size_mb", 20)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("notify.webhook.enabled", false)
	v.SetDefault("notify.webhook.url", "")
	v.SetDefault("notify.webhook.timeout_seconds", 10)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		// Write the template for next time and run on defaults.
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

// loadDotEnv loads KEY=value pairs from a .env file next to the config, if present.
// Variables already set in the environment win.
func loadDotEnv(configDir string) error {
	path := filepath.Join(configDir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TRADESTAT_TRIGGER_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apperrors.NewValidationError("TRADESTAT_TRIGGER_THRESHOLD", v, "must be a number")
		}
		cfg.Analytics.TriggerThreshold = f
	}

	// Setting a gate value implies enabling it.
	if v := os.Getenv("TRADESTAT_START_GATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apperrors.NewValidationError("TRADESTAT_START_GATE", v, "must be a number")
		}
		cfg.Analytics.StartGate = f
		cfg.Analytics.StartGateEnabled = true
	}

	if v := os.Getenv("TRADESTAT_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}

	if v := os.Getenv("TRADESTAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	a := c.Analytics
	if a.TriggerThreshold < 0 {
		return apperrors.NewValidationError("analytics.trigger_threshold", a.TriggerThreshold, "must be non-negative")
	}
	if a.MinStreakLength < 1 {
		return apperrors.NewValidationError("analytics.min_streak_length", a.MinStreakLength, "must be at least 1")
	}
	if a.BarHours <= 0 {
		return apperrors.NewValidationError("analytics.bar_hours", a.BarHours, "must be positive")
	}

	for pair, inst := range c.Instruments {
		if inst.Multiplier <= 0 {
			return apperrors.NewValidationError("instruments."+pair+".multiplier", inst.Multiplier, "must be positive")
		}
	}

	if c.Store.KeepRuns < 0 {
		return apperrors.NewValidationError("store.keep_runs", c.Store.KeepRuns, "must be non-negative")
	}

	if w := c.Notify.Webhook; w.Enabled {
		if w.URL == "" {
			return apperrors.NewValidationError("notify.webhook.url", w.URL, "required when the webhook is enabled")
		}
		if w.TimeoutSeconds <= 0 {
			return apperrors.NewValidationError("notify.webhook.timeout_seconds", w.TimeoutSeconds, "must be positive")
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.NewValidationError("logging.level", c.Logging.Level, "must be one of debug, info, warn, error")
	}

	return nil
}

// AnalyticsOptions converts the analytics and instrument sections into computation options.
func (c *Config) AnalyticsOptions() analytics.Options {
	opts := analytics.Options{
		Instruments: analytics.DefaultInstruments().Merge(c.Instruments),
		BarHours:    c.Analytics.BarHours,
		Drawdown: analytics.DrawdownOptions{
			TriggerThreshold: c.Analytics.TriggerThreshold,
			BarHours:         c.Analytics.BarHours,
		},
		MinStreakLength: c.Analytics.MinStreakLength,
		StabilityTarget: c.Analytics.StabilityTarget,
	}
	if c.Analytics.StartGateEnabled {
		gate := c.Analytics.StartGate
		opts.Drawdown.StartGate = &gate
	}
	return opts
}

// LogConfig converts the logging section for the logger.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAgeDays,
	}
}
