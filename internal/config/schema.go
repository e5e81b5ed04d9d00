package config

import (
	"time"

	"bimsight/internal/engine"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Engine   EngineConfig   `yaml:"engine"`
	Model    ModelConfig    `yaml:"model"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Feed     FeedConfig     `yaml:"feed"`
	Log      LogConfig      `yaml:"log"`
}

// EngineConfig holds the scoring policy and an optional keyword table override
type EngineConfig struct {
	engine.Params `yaml:",inline"`
	Keywords      engine.KeywordTable `yaml:"keywords,omitempty"`
}

// ModelConfig points at the reference model document
type ModelConfig struct {
	Path     string   `yaml:"path"` // empty = built-in simulated model
	Watch    bool     `yaml:"watch"`
	Debounce Duration `yaml:"debounce"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
}

// FeedConfig configures the optional detection replay feed
type FeedConfig struct {
	Path          string   `yaml:"path,omitempty"` // empty = feed disabled
	Interval      Duration `yaml:"interval"`
	Loop          bool     `yaml:"loop"`
	MinConfidence float64  `yaml:"min_confidence"`
	Session       string   `yaml:"session"`
	Capture       bool     `yaml:"capture"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
