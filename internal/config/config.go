// Package config provides configuration management for bimsight.
//
// Config file locations (priority order):
//  1. $BIMSIGHT_CONFIG
//  2. ./bimsight.yaml
//  3. $XDG_CONFIG_HOME/bimsight/config.yaml
//  4. ~/.config/bimsight/config.yaml
//  5. /etc/bimsight/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"bimsight/internal/engine"
	"bimsight/internal/logging"
)

// Defaults for the outer surfaces
const (
	DefaultDatabasePath  = "./bimsight.db"
	DefaultAddr          = ":3000"
	DefaultDebounce      = 500 * time.Millisecond
	DefaultFeedInterval  = time.Second
	DefaultFeedSession   = "feed"
	DefaultReadTimeout   = 15 * time.Second
	DefaultWriteTimeout  = 15 * time.Second
	DefaultIdleTimeout   = 60 * time.Second
	DefaultLogLevel      = "info"
	currentConfigVersion = 1
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, errors.Wrap(err, "read config")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, errors.Wrap(err, "parse config")
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, errors.Wrapf(err, "invalid config %s", path)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version: currentConfigVersion,
		Engine:  EngineConfig{Params: engine.DefaultParams()},
		Model: ModelConfig{
			Debounce: Duration(DefaultDebounce),
		},
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Server: ServerConfig{
			Addr:         DefaultAddr,
			ReadTimeout:  Duration(DefaultReadTimeout),
			WriteTimeout: Duration(DefaultWriteTimeout),
			IdleTimeout:  Duration(DefaultIdleTimeout),
		},
		Feed: FeedConfig{
			Interval: Duration(DefaultFeedInterval),
			Session:  DefaultFeedSession,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// applyDefaults fills in missing values with defaults.
// A zero weight pair is treated as unset; a single zero weight is kept and validated.
func (c *Config) applyDefaults() {
	def := engine.DefaultParams()

	if c.Version == 0 {
		c.Version = currentConfigVersion
	}
	if c.Engine.Tolerance == 0 {
		c.Engine.Tolerance = def.Tolerance
	}
	if c.Engine.MaxDeviation == 0 {
		c.Engine.MaxDeviation = def.MaxDeviation
	}
	if c.Engine.PositionWeight == 0 && c.Engine.DetectionWeight == 0 {
		c.Engine.PositionWeight = def.PositionWeight
		c.Engine.DetectionWeight = def.DetectionWeight
	}
	if c.Engine.WindowSize == 0 {
		c.Engine.WindowSize = def.WindowSize
	}
	if c.Model.Debounce == 0 {
		c.Model.Debounce = Duration(DefaultDebounce)
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if c.Feed.Interval == 0 {
		c.Feed.Interval = Duration(DefaultFeedInterval)
	}
	if c.Feed.Session == "" {
		c.Feed.Session = DefaultFeedSession
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks the config for values the engine or server cannot run with
func (c *Config) Validate() error {
	if err := c.Engine.Params.Validate(); err != nil {
		return errors.Wrap(err, "engine")
	}
	for i, rule := range c.Engine.Keywords {
		if rule.Category == "" {
			return errors.Errorf("engine.keywords[%d]: category is required", i)
		}
		if len(rule.Keywords) == 0 {
			return errors.Errorf("engine.keywords[%d]: at least one keyword is required", i)
		}
	}
	if c.Model.Debounce < 0 {
		return errors.New("model.debounce must not be negative")
	}
	if c.Feed.Interval <= 0 {
		return errors.New("feed.interval must be positive")
	}
	if c.Feed.MinConfidence < 0 || c.Feed.MinConfidence > 1 {
		return errors.Errorf("feed.min_confidence must be in [0,1], got %v", c.Feed.MinConfidence)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log")
	}
	return nil
}

// KeywordTable returns the configured keyword table, or the default when none is set
func (c *Config) KeywordTable() engine.KeywordTable {
	if len(c.Engine.Keywords) == 0 {
		return engine.DefaultKeywords()
	}
	return c.Engine.Keywords
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	model := c.Model.Path
	if model == "" {
		model = "(simulated)"
	}
	summary := fmt.Sprintf("Model: %s (watch=%v), DB: %s, Addr: %s\n",
		model, c.Model.Watch, c.Database.Path, c.Server.Addr)
	summary += fmt.Sprintf("Tolerance: %.0fpx, Max deviation: %.0fpx, Weights: %.2f/%.2f, Window: %d",
		c.Engine.Tolerance, c.Engine.MaxDeviation,
		c.Engine.PositionWeight, c.Engine.DetectionWeight, c.Engine.WindowSize)
	if c.Feed.Path != "" {
		summary += fmt.Sprintf("\nFeed: %s every %s (loop=%v, session=%s)",
			c.Feed.Path, c.Feed.Interval.Duration(), c.Feed.Loop, c.Feed.Session)
	}
	return summary
}
