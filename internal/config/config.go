package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything the board needs at startup.
type Config struct {
	Title      string
	LogPath    string
	LogLevel   string
	DotEnvPath string
	Listen     string

	Transit TransitConfig
	Weather WeatherConfig
	Display DisplayConfig
}

// TransitConfig configures the departures provider and its cadence.
type TransitConfig struct {
	BaseURL     string
	Station     string
	MaxResults  int
	Every       time.Duration
	MinInterval time.Duration
	Timeout     time.Duration
	TokenFile   string
	TokenEnv    string
}

// WeatherConfig configures the forecast provider and its cadence.
type WeatherConfig struct {
	BaseURL     string
	LocationID  string
	Units       string
	MaxPoints   int
	Every       time.Duration
	MinInterval time.Duration
	Timeout     time.Duration
	KeyFile     string
	KeyEnv      string
}

// DisplayConfig configures the refresh tick and look.
type DisplayConfig struct {
	Refresh time.Duration
	Theme   string
}

const (
	defaultConfigPath = "~/.config/stationboard/config.toml"
	defaultLogPath    = "~/.local/state/stationboard/stationboard.log"
	defaultDotEnv     = "~/.config/stationboard/.env"
	defaultTitle      = "Departures"
	defaultLogLevel   = "info"

	defaultTransitURL     = "https://huxley2.azurewebsites.net"
	defaultStation        = "VIC"
	defaultMaxResults     = 8
	defaultTransitEvery   = 2 * time.Minute
	defaultTransitSpacing = 30 * time.Second
	defaultTransitTimeout = 10 * time.Second
	defaultTransitEnv     = "STATIONBOARD_TRANSIT_TOKEN"

	defaultWeatherURL     = "https://api.openweathermap.org"
	defaultLocationID     = "2646557"
	defaultUnits          = "metric"
	defaultMaxPoints      = 4
	defaultWeatherEvery   = 30 * time.Minute
	defaultWeatherSpacing = 5 * time.Minute
	defaultWeatherTimeout = 10 * time.Second
	defaultWeatherEnv     = "STATIONBOARD_WEATHER_KEY"

	defaultRefresh = 5 * time.Second
	defaultTheme   = "Departure"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Title:      defaultTitle,
		LogPath:    mustExpand(defaultLogPath),
		LogLevel:   defaultLogLevel,
		DotEnvPath: mustExpand(defaultDotEnv),
		Transit: TransitConfig{
			BaseURL:     defaultTransitURL,
			Station:     defaultStation,
			MaxResults:  defaultMaxResults,
			Every:       defaultTransitEvery,
			MinInterval: defaultTransitSpacing,
			Timeout:     defaultTransitTimeout,
			TokenEnv:    defaultTransitEnv,
		},
		Weather: WeatherConfig{
			BaseURL:     defaultWeatherURL,
			LocationID:  defaultLocationID,
			Units:       defaultUnits,
			MaxPoints:   defaultMaxPoints,
			Every:       defaultWeatherEvery,
			MinInterval: defaultWeatherSpacing,
			Timeout:     defaultWeatherTimeout,
			KeyEnv:      defaultWeatherEnv,
		},
		Display: DisplayConfig{
			Refresh: defaultRefresh,
			Theme:   defaultTheme,
		},
	}
}

type rawConfig struct {
	Title    string `toml:"title"`
	LogPath  string `toml:"log_path"`
	LogLevel string `toml:"log_level"`
	DotEnv   string `toml:"dotenv"`
	Listen   string `toml:"listen"`

	Transit struct {
		BaseURL     string `toml:"base_url"`
		Station     string `toml:"station"`
		MaxResults  int    `toml:"max_results"`
		Every       string `toml:"every"`
		MinInterval string `toml:"min_interval"`
		Timeout     string `toml:"timeout"`
		TokenFile   string `toml:"token_file"`
		TokenEnv    string `toml:"token_env"`
	} `toml:"transit"`

	Weather struct {
		BaseURL     string `toml:"base_url"`
		LocationID  string `toml:"location_id"`
		Units       string `toml:"units"`
		MaxPoints   int    `toml:"max_points"`
		Every       string `toml:"every"`
		MinInterval string `toml:"min_interval"`
		Timeout     string `toml:"timeout"`
		KeyFile     string `toml:"key_file"`
		KeyEnv      string `toml:"key_env"`
	} `toml:"weather"`

	Display struct {
		Refresh string `toml:"refresh"`
		Theme   string `toml:"theme"`
	} `toml:"display"`
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := raw.apply(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (raw rawConfig) apply(cfg *Config) error {
	setString(&cfg.Title, raw.Title)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.Listen, raw.Listen)
	setPath(&cfg.LogPath, raw.LogPath)
	setPath(&cfg.DotEnvPath, raw.DotEnv)

	t := &cfg.Transit
	setString(&t.BaseURL, raw.Transit.BaseURL)
	setString(&t.Station, strings.ToUpper(raw.Transit.Station))
	setPositive(&t.MaxResults, raw.Transit.MaxResults)
	setPath(&t.TokenFile, raw.Transit.TokenFile)
	setString(&t.TokenEnv, raw.Transit.TokenEnv)

	w := &cfg.Weather
	setString(&w.BaseURL, raw.Weather.BaseURL)
	setString(&w.LocationID, raw.Weather.LocationID)
	setString(&w.Units, strings.ToLower(raw.Weather.Units))
	setPositive(&w.MaxPoints, raw.Weather.MaxPoints)
	setPath(&w.KeyFile, raw.Weather.KeyFile)
	setString(&w.KeyEnv, raw.Weather.KeyEnv)

	setString(&cfg.Display.Theme, raw.Display.Theme)

	durations := []struct {
		key   string
		value string
		dest  *time.Duration
	}{
		{"transit.every", raw.Transit.Every, &t.Every},
		{"transit.min_interval", raw.Transit.MinInterval, &t.MinInterval},
		{"transit.timeout", raw.Transit.Timeout, &t.Timeout},
		{"weather.every", raw.Weather.Every, &w.Every},
		{"weather.min_interval", raw.Weather.MinInterval, &w.MinInterval},
		{"weather.timeout", raw.Weather.Timeout, &w.Timeout},
		{"display.refresh", raw.Display.Refresh, &cfg.Display.Refresh},
	}
	for _, d := range durations {
		if err := setDuration(d.dest, d.key, d.value); err != nil {
			return err
		}
	}

	if t.MinInterval > t.Every {
		return fmt.Errorf("config transit.min_interval %s exceeds transit.every %s", t.MinInterval, t.Every)
	}
	if w.MinInterval > w.Every {
		return fmt.Errorf("config weather.min_interval %s exceeds weather.every %s", w.MinInterval, w.Every)
	}
	return nil
}

func setString(dest *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dest = trimmed
	}
}

func setPath(dest *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dest = mustExpand(trimmed)
	}
}

func setPositive(dest *int, value int) {
	if value > 0 {
		*dest = value
	}
}

func setDuration(dest *time.Duration, key, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return fmt.Errorf("config %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("config %s: must be positive, got %s", key, d)
	}
	*dest = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes path absolute, the way paths in
// the config file are resolved.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
