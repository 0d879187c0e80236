package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transit.Station != defaultStation || cfg.Transit.MaxResults != defaultMaxResults {
		t.Fatalf("Transit = %+v, want default station and max results", cfg.Transit)
	}
	if cfg.Transit.Every != defaultTransitEvery || cfg.Weather.Every != defaultWeatherEvery {
		t.Fatalf("cadences = %v/%v, want %v/%v", cfg.Transit.Every, cfg.Weather.Every, defaultTransitEvery, defaultWeatherEvery)
	}
	if cfg.Display.Refresh != defaultRefresh {
		t.Fatalf("Refresh = %v, want %v", cfg.Display.Refresh, defaultRefresh)
	}
	if cfg.Weather.MaxPoints != defaultMaxPoints {
		t.Fatalf("MaxPoints = %d, want %d", cfg.Weather.MaxPoints, defaultMaxPoints)
	}
	if !strings.HasPrefix(cfg.LogPath, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", cfg.LogPath, home)
	}
	if cfg.Transit.TokenEnv != defaultTransitEnv || cfg.Weather.KeyEnv != defaultWeatherEnv {
		t.Fatalf("env names = %q/%q", cfg.Transit.TokenEnv, cfg.Weather.KeyEnv)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
title = "  Horsham Trains  "
log_level = "debug"
listen = "127.0.0.1:8089"

[transit]
station = " hrh "
max_results = 6
every = "90s"
min_interval = "20s"
token_file = "~/secrets/rail_token.txt"

[weather]
location_id = "2646557"
units = "Imperial"
max_points = 3
every = "20m"

[display]
refresh = "2s"
theme = "Mono"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Title != "Horsham Trains" || cfg.LogLevel != "debug" || cfg.Listen != "127.0.0.1:8089" {
		t.Fatalf("top level = %q/%q/%q", cfg.Title, cfg.LogLevel, cfg.Listen)
	}
	if cfg.Transit.Station != "HRH" || cfg.Transit.MaxResults != 6 {
		t.Fatalf("Transit = %+v, want HRH/6", cfg.Transit)
	}
	if cfg.Transit.Every != 90*time.Second || cfg.Transit.MinInterval != 20*time.Second {
		t.Fatalf("Transit cadence = %v/%v", cfg.Transit.Every, cfg.Transit.MinInterval)
	}
	if cfg.Transit.Timeout != defaultTransitTimeout {
		t.Fatalf("Transit.Timeout = %v, want default", cfg.Transit.Timeout)
	}
	if want := filepath.Join(home, "secrets/rail_token.txt"); cfg.Transit.TokenFile != want {
		t.Fatalf("TokenFile = %q, want %q", cfg.Transit.TokenFile, want)
	}
	if cfg.Weather.Units != "imperial" || cfg.Weather.MaxPoints != 3 || cfg.Weather.Every != 20*time.Minute {
		t.Fatalf("Weather = %+v", cfg.Weather)
	}
	if cfg.Display.Refresh != 2*time.Second || cfg.Display.Theme != "Mono" {
		t.Fatalf("Display = %+v", cfg.Display)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
title = "   "
[transit]
station = ""
max_results = 0
every = " "
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Title != defaultTitle || cfg.Transit.Station != defaultStation || cfg.Transit.MaxResults != defaultMaxResults {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
	if cfg.Transit.Every != defaultTransitEvery {
		t.Fatalf("Every = %v, want %v", cfg.Transit.Every, defaultTransitEvery)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := writeConfig(t, `title = [`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unparseable", "[weather]\nevery = \"soon\"\n", "weather.every"},
		{"negative", "[display]\nrefresh = \"-1s\"\n", "must be positive"},
		{"spacing above cadence", "[transit]\nevery = \"10s\"\nmin_interval = \"1m\"\n", "exceeds transit.every"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("ExpandPath returned nil error, want error")
	}
}
