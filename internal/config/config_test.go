package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"bimsight/internal/domain"
	"bimsight/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.Engine.Params, test.ShouldResemble, engine.DefaultParams())
	test.That(t, cfg.Database.Path, test.ShouldEqual, DefaultDatabasePath)
	test.That(t, cfg.Server.Addr, test.ShouldEqual, DefaultAddr)
	test.That(t, cfg.Model.Debounce.Duration(), test.ShouldEqual, DefaultDebounce)
	test.That(t, cfg.KeywordTable(), test.ShouldResemble, engine.DefaultKeywords())
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
engine:
  tolerance_px: 25
  position_weight: 0.6
  detection_weight: 0.4
  keywords:
    - category: beam
      keywords: [girder, joist]
model:
  path: ./model.yaml
  watch: true
  debounce: 2s
server:
  addr: ":8080"
feed:
  path: ./frames.json
  interval: 250ms
  loop: true
  min_confidence: 0.5
log:
  level: debug
`)

	cfg, got, err := LoadFromPath(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, path)

	test.That(t, cfg.Engine.Tolerance, test.ShouldEqual, 25.0)
	test.That(t, cfg.Engine.MaxDeviation, test.ShouldEqual, engine.DefaultMaxDeviation)
	test.That(t, cfg.Engine.PositionWeight, test.ShouldEqual, 0.6)
	test.That(t, cfg.Engine.WindowSize, test.ShouldEqual, engine.DefaultWindowSize)
	test.That(t, cfg.KeywordTable()[0].Category, test.ShouldEqual, domain.CategoryBeam)
	test.That(t, cfg.KeywordTable()[0].Keywords, test.ShouldResemble, []string{"girder", "joist"})

	test.That(t, cfg.Model.Path, test.ShouldEqual, "./model.yaml")
	test.That(t, cfg.Model.Watch, test.ShouldBeTrue)
	test.That(t, cfg.Model.Debounce.Duration(), test.ShouldEqual, 2*time.Second)
	test.That(t, cfg.Server.Addr, test.ShouldEqual, ":8080")
	test.That(t, cfg.Server.ReadTimeout.Duration(), test.ShouldEqual, DefaultReadTimeout)
	test.That(t, cfg.Feed.Interval.Duration(), test.ShouldEqual, 250*time.Millisecond)
	test.That(t, cfg.Feed.Session, test.ShouldEqual, DefaultFeedSession)
	test.That(t, cfg.Feed.MinConfidence, test.ShouldEqual, 0.5)
	test.That(t, cfg.Log.Level, test.ShouldEqual, "debug")
	test.That(t, cfg.Database.Path, test.ShouldEqual, DefaultDatabasePath)
}

func TestLoadFromPathInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"weights do not sum to one", "engine:\n  position_weight: 0.9\n  detection_weight: 0.3\n"},
		{"negative tolerance", "engine:\n  tolerance_px: -5\n"},
		{"negative window", "engine:\n  smoothing_window_size: -1\n"},
		{"keyword rule without keywords", "engine:\n  keywords:\n    - category: wall\n"},
		{"bad duration", "model:\n  debounce: soon\n"},
		{"bad log level", "log:\n  level: shouty\n"},
		{"confidence above one", "feed:\n  min_confidence: 1.5\n"},
		{"not yaml", "engine: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadFromPath(writeConfig(t, tt.body))
			test.That(t, err, test.ShouldNotBeNil)
		})
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	_, path, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, path, test.ShouldEndWith, "nope.yaml")
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Model.Path = "/srv/models/site.json"
	cfg.Engine.Tolerance = 40
	cfg.Feed.Loop = true

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if loaded.Model.Path != cfg.Model.Path {
		t.Errorf("Model.Path = %s, want %s", loaded.Model.Path, cfg.Model.Path)
	}
	if loaded.Engine.Tolerance != 40 {
		t.Errorf("Engine.Tolerance = %v, want 40", loaded.Engine.Tolerance)
	}
	if !loaded.Feed.Loop {
		t.Error("Feed.Loop should survive a round trip")
	}
	if loaded.Server.IdleTimeout != cfg.Server.IdleTimeout {
		t.Errorf("Server.IdleTimeout = %s, want %s",
			loaded.Server.IdleTimeout.Duration(), cfg.Server.IdleTimeout.Duration())
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := DefaultConfig().Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(oldWd)

	if FindConfigPath() == "" {
		t.Error("FindConfigPath() should find config in working directory")
	}

	// a missing explicit path falls through to the working directory
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	if FindConfigPath() == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}

	explicit := writeConfig(t, "version: 1\n")
	t.Setenv(EnvConfigPath, explicit)
	if got := FindConfigPath(); got != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", got, explicit)
	}
}

func TestSearchPathsOrder(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/explicit.yaml")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/site")

	test.That(t, SearchPaths(), test.ShouldResemble, []string{
		"/tmp/explicit.yaml",
		ConfigFileName,
		"/xdg/bimsight/config.yaml",
		"/home/site/.config/bimsight/config.yaml",
		"/etc/bimsight/config.yaml",
	})
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}

func TestSummary(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Summary(), test.ShouldContainSubstring, "(simulated)")

	cfg.Feed.Path = "frames.json"
	test.That(t, cfg.Summary(), test.ShouldContainSubstring, "Feed: frames.json")
}
