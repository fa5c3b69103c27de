package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Parser ParserConfig `mapstructure:"parser"`
	Output OutputConfig `mapstructure:"output"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ParserConfig holds parsing policy knobs.
type ParserConfig struct {
	// SilentExtensions skips top-level x-* extension keys without a warning.
	SilentExtensions bool `mapstructure:"silent_extensions"`

	// RestartWarnings warns on unrecognized restart policy values.
	RestartWarnings bool `mapstructure:"restart_warnings"`

	// MaxDiagnostics bounds diagnostic retention per parse.
	MaxDiagnostics int `mapstructure:"max_diagnostics"`
}

// OutputConfig holds output configuration.
type OutputConfig struct {
	// JSON emits the parsed model as JSON on success.
	JSON bool `mapstructure:"json"`

	// Quiet suppresses warning and hint diagnostics.
	Quiet bool `mapstructure:"quiet"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("parser.silent_extensions", false)
	v.SetDefault("parser.restart_warnings", false)
	v.SetDefault("parser.max_diagnostics", 1000)
	v.SetDefault("output.json", false)
	v.SetDefault("output.quiet", false)

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("FIZZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
