// Package config loads the runtime configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides DefaultPath.
const EnvPath = "SPELLFORGE_CONFIG"

// DefaultPath is read when EnvPath is unset.
const DefaultPath = "config/spellforge.yaml"

// Spellforge holds all configuration for a run.
type Spellforge struct {
	// Seed for random number generation. 0 picks a random seed.
	Seed     int64  `yaml:"seed"`
	LogLevel string `yaml:"log_level"`

	// Simulation
	Tick     time.Duration `yaml:"tick"`
	Duration time.Duration `yaml:"duration"` // 0 runs until interrupted
	Headless bool          `yaml:"headless"`

	// Telemetry exports traces over OTLP when enabled.
	Telemetry bool `yaml:"telemetry"`

	Composer ComposerConfig `yaml:"composer"`
	Caster   CasterConfig   `yaml:"caster"`
	Arena    ArenaConfig    `yaml:"arena"`
}

// ComposerConfig tunes random spell generation.
type ComposerConfig struct {
	DefaultBase  string `yaml:"default_base"`
	MaxAttempts  int    `yaml:"max_attempts"`
	MaxModifiers int    `yaml:"max_modifiers"`
}

// CasterConfig configures the player's caster.
type CasterConfig struct {
	Class       string        `yaml:"class"`
	Name        string        `yaml:"name"`
	RegenPeriod time.Duration `yaml:"regen_period"`
	// Relics lists relic ids from relics.json to equip at start.
	Relics      []string      `yaml:"relics"`
}

// ArenaConfig sizes the arena and its training dummies.
type ArenaConfig struct {
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	HitRadius float64 `yaml:"hit_radius"`
	Dummies   int     `yaml:"dummies"`
	// WaveEvery advances the wave counter on this period.
	WaveEvery time.Duration `yaml:"wave_every"`
}

// Default returns the configuration with sensible defaults.
func Default() Spellforge {
	return Spellforge{
		LogLevel:  "info",
		Tick:      50 * time.Millisecond,
		Telemetry: false,
		Composer: ComposerConfig{
			DefaultBase:  "arcane_bolt",
			MaxAttempts:  2,
			MaxModifiers: 2,
		},
		Caster: CasterConfig{
			Class:       "mage",
			Name:        "Hero",
			RegenPeriod: time.Second,
		},
		Arena: ArenaConfig{
			Width:     80,
			Height:    20,
			HitRadius: 0.75,
			Dummies:   5,
			WaveEvery: 20 * time.Second,
		},
	}
}

// Path returns the config path from EnvPath, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load loads config from a YAML file over the defaults.
// If the file doesn't exist, returns defaults.
func Load(path string) (Spellforge, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values a run cannot start without.
func (c Spellforge) Validate() error {
	var errs []error
	if c.Tick <= 0 {
		errs = append(errs, errors.New("tick must be positive"))
	}
	if c.Duration < 0 {
		errs = append(errs, errors.New("duration must not be negative"))
	}
	if c.Composer.MaxAttempts < 0 || c.Composer.MaxModifiers < 0 {
		errs = append(errs, errors.New("composer limits must not be negative"))
	}
	if c.Caster.RegenPeriod <= 0 {
		errs = append(errs, errors.New("caster regen_period must be positive"))
	}
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		errs = append(errs, errors.New("arena must have a positive size"))
	}
	if c.Arena.Dummies < 0 {
		errs = append(errs, errors.New("arena dummies must not be negative"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Spellforge) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
