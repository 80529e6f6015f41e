package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spellforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
seed: 42
log_level: debug
tick: 100ms
duration: 30s
headless: true
composer:
  max_modifiers: 1
caster:
  class: warlock
  relics: [cursed_scroll, golden_mask]
arena:
  dummies: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 100*time.Millisecond, cfg.Tick)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 1, cfg.Composer.MaxModifiers)
	assert.Equal(t, 2, cfg.Composer.MaxAttempts, "unset fields keep their defaults")
	assert.Equal(t, "warlock", cfg.Caster.Class)
	assert.Equal(t, time.Second, cfg.Caster.RegenPeriod)
	assert.Equal(t, []string{"cursed_scroll", "golden_mask"}, cfg.Caster.Relics)
	assert.Equal(t, 8, cfg.Arena.Dummies)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
tick: 0s
log_level: loud
arena:
  width: -1
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick must be positive")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "arena must have a positive size")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "tick: [1, 2"))
	assert.ErrorContains(t, err, "parsing config")
}

func TestPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	assert.Equal(t, DefaultPath, Path())

	t.Setenv(EnvPath, "/etc/spellforge.yaml")
	assert.Equal(t, "/etc/spellforge.yaml", Path())
}
