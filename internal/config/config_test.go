package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"kdvd/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("KDVD_DISC_ROOT", "")
	prevDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevDir) })

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "kdvd", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, ".local", "share", "kdvd") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Manifest.MaxStreams != 4 {
		t.Fatalf("expected reference stream cap of 4, got %d", cfg.Manifest.MaxStreams)
	}
	if cfg.Manifest.TierDefaultsOnly {
		t.Fatal("expected manifest attributes to be honoured by default")
	}
	if cfg.Catalog.AvailabilityWorkers != 4 {
		t.Fatalf("unexpected availability workers: %d", cfg.Catalog.AvailabilityWorkers)
	}
	if cfg.Paths.DiscRoot != "" {
		t.Fatalf("expected empty disc root, got %q", cfg.Paths.DiscRoot)
	}
}

func TestLoadReadsTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kdvd.toml")
	content := `
[paths]
state_dir = "` + filepath.ToSlash(filepath.Join(dir, "state")) + `"
disc_root = "` + filepath.ToSlash(filepath.Join(dir, "disc")) + `"

[manifest]
max_streams = 0
tier_defaults_only = true

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Manifest.MaxStreams != 0 || !cfg.Manifest.TierDefaultsOnly {
		t.Fatalf("manifest section not applied: %+v", cfg.Manifest)
	}
	if cfg.Paths.DiscRoot != filepath.Join(dir, "disc") {
		t.Fatalf("unexpected disc root %q", cfg.Paths.DiscRoot)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
}

func TestDiscRootFallsBackToEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	t.Setenv("KDVD_DISC_ROOT", root)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DiscRoot != root {
		t.Fatalf("expected disc root from env, got %q", cfg.Paths.DiscRoot)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative cap", func(c *config.Config) { c.Manifest.MaxStreams = -1 }, "manifest.max_streams"},
		{"zero workers", func(c *config.Config) { c.Catalog.AvailabilityWorkers = 0 }, "catalog.availability_workers"},
		{"bad bind", func(c *config.Config) { c.Daemon.APIBind = "localhost" }, "daemon.api_bind"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSampleConfigDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not decode: %v", err)
	}
	if cfg.Daemon.OpticalDrive != "/dev/sr0" {
		t.Fatalf("unexpected optical drive in sample: %q", cfg.Daemon.OpticalDrive)
	}
}

func TestAPITokenFallsBackToEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KDVD_API_TOKEN", " secret ")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Daemon.APIToken != "secret" {
		t.Fatalf("expected token from env, got %q", cfg.Daemon.APIToken)
	}
}
