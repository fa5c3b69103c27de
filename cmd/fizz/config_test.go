package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

// clearEnv removes FIZZ_ environment overrides for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, entry := range os.Environ() {
		if strings.HasPrefix(entry, "FIZZ_") {
			key, _, _ := strings.Cut(entry, "=")
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Parser.SilentExtensions)
	assert.False(t, cfg.Parser.RestartWarnings)
	assert.Equal(t, 1000, cfg.Parser.MaxDiagnostics)
	assert.False(t, cfg.Output.JSON)
	assert.False(t, cfg.Output.Quiet)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
log:
  level: "debug"
  format: "json"

parser:
  silent_extensions: true
  restart_warnings: true
  max_diagnostics: 50

output:
  json: true
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Parser.SilentExtensions)
	assert.True(t, cfg.Parser.RestartWarnings)
	assert.Equal(t, 50, cfg.Parser.MaxDiagnostics)
	assert.True(t, cfg.Output.JSON)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("log: [broken"), 0644))

	_, err := LoadConfig(tmpFile)
	require.Error(t, err)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIZZ_LOG_LEVEL", "error")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger_Levels(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "debug", Format: "text"}}
	logger := SetupLogger(cfg)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(nil, slog.LevelDebug))

	cfg = &Config{Log: LogConfig{Level: "error", Format: "json"}}
	logger = SetupLogger(cfg)
	assert.False(t, logger.Enabled(nil, slog.LevelWarn))
}
