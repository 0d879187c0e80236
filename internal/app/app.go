package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/five82/stationboard/internal/config"
	"github.com/five82/stationboard/internal/display"
	"github.com/five82/stationboard/internal/forecast"
	"github.com/five82/stationboard/internal/logging"
	"github.com/five82/stationboard/internal/prefs"
	"github.com/five82/stationboard/internal/secrets"
	"github.com/five82/stationboard/internal/state"
	"github.com/five82/stationboard/internal/statusapi"
	"github.com/five82/stationboard/internal/transit"
	"github.com/five82/stationboard/internal/ui"
	"github.com/five82/stationboard/internal/upstream"
)

const userAgent = "stationboard/1"

// Options configure the board application.
type Options struct {
	ConfigPath string // empty uses ~/.config/stationboard/config.toml
	Plain      bool   // write text pages to Output instead of running the TUI
	Listen     string // overrides the config listen address
	LogPath    string // overrides the config log path
	PrefsPath  string // empty uses ~/.config/stationboard/prefs.toml

	// Output receives plain pages. Nil uses stdout.
	Output io.Writer
}

// Run boots the board until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.LogPath != "" {
		if cfg.LogPath, err = config.ExpandPath(opts.LogPath); err != nil {
			return fmt.Errorf("log path: %w", err)
		}
	}

	logFile, err := logging.OpenFile(cfg.LogPath)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	logger := logging.New(logFile, cfg.LogLevel)

	if err := secrets.LoadDotEnv(cfg.DotEnvPath); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	creds, err := secrets.LoadAll(
		secrets.Source{Name: "transit token", File: cfg.Transit.TokenFile, EnvVar: cfg.Transit.TokenEnv},
		secrets.Source{Name: "weather key", File: cfg.Weather.KeyFile, EnvVar: cfg.Weather.KeyEnv},
	)
	if err != nil {
		return err
	}

	departures, weather, err := buildProviders(cfg, creds, logger)
	if err != nil {
		return err
	}

	store := state.New(cfg.Weather.MaxPoints)
	poller, err := NewPoller(PollerOptions{
		Store:        store,
		Transit:      departures,
		Weather:      weather,
		TransitEvery: cfg.Transit.Every,
		WeatherEvery: cfg.Weather.Every,
		FetchTimeout: fetchTimeout(cfg),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	var listener net.Listener
	if cfg.Listen != "" {
		if listener, err = statusapi.Listen(cfg.Listen); err != nil {
			return fmt.Errorf("status server: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("stationboard starting",
		"station", departures.Station(),
		"location", cfg.Weather.LocationID,
		"transit_every", cfg.Transit.Every,
		"weather_every", cfg.Weather.Every,
		"refresh", cfg.Display.Refresh,
	)
	poller.Start(ctx)

	serverErr := make(chan error, 1)
	if listener != nil {
		go func() {
			err := statusapi.Serve(ctx, listener, statusapi.NewRouter(store, cfg.LogPath, logger), logger)
			if err != nil {
				cancel()
			}
			serverErr <- err
		}()
	} else {
		serverErr <- nil
	}

	runErr := runDisplay(ctx, cfg, opts, store, logger, departures.Station(), weather.Units())

	cancel()
	poller.Wait()
	if err := <-serverErr; err != nil && runErr == nil {
		runErr = fmt.Errorf("status server: %w", err)
	}
	logger.Info("stationboard stopped")
	return runErr
}

func buildProviders(cfg config.Config, creds secrets.Credentials, logger *slog.Logger) (*transit.Client, *forecast.Client, error) {
	transitAPI, err := upstream.New(upstream.Options{
		Name:        "transit",
		BaseURL:     cfg.Transit.BaseURL,
		Timeout:     cfg.Transit.Timeout,
		MinInterval: cfg.Transit.MinInterval,
		UserAgent:   userAgent,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init transit client: %w", err)
	}
	departures, err := transit.NewClient(transitAPI, creds.Transit, cfg.Transit.Station, cfg.Transit.MaxResults)
	if err != nil {
		return nil, nil, fmt.Errorf("init transit client: %w", err)
	}

	weatherAPI, err := upstream.New(upstream.Options{
		Name:        "weather",
		BaseURL:     cfg.Weather.BaseURL,
		Timeout:     cfg.Weather.Timeout,
		MinInterval: cfg.Weather.MinInterval,
		UserAgent:   userAgent,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init weather client: %w", err)
	}
	weather, err := forecast.NewClient(weatherAPI, creds.Weather, cfg.Weather.LocationID, cfg.Weather.Units, cfg.Weather.MaxPoints)
	if err != nil {
		return nil, nil, fmt.Errorf("init weather client: %w", err)
	}
	return departures, weather, nil
}

func runDisplay(ctx context.Context, cfg config.Config, opts Options, store *state.Store, logger *slog.Logger, station, units string) error {
	if opts.Plain {
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		display.NewScheduler(store, display.NewTextRenderer(out, cfg.Title, units), cfg.Display.Refresh).Run(ctx)
		return nil
	}

	theme := cfg.Display.Theme
	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("ignoring preferences", "error", err)
	}
	if userPrefs.Theme != "" {
		theme = userPrefs.Theme
	}

	err = ui.Run(ctx, ui.Options{
		Title:      cfg.Title,
		Station:    station,
		Units:      units,
		Theme:      theme,
		StaleAfter: 3 * cfg.Transit.Every,
		OnThemeChange: func(name string) {
			if err := prefs.Save(opts.PrefsPath, prefs.Prefs{Theme: name}); err != nil {
				logger.Warn("save preferences failed", "error", err)
			}
		},
	}, store, cfg.Display.Refresh)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run display: %w", err)
	}
	return nil
}

// fetchTimeout leaves room for one rate-limiter wait on top of the slower
// provider's request timeout.
func fetchTimeout(cfg config.Config) time.Duration {
	return max(cfg.Transit.Timeout+cfg.Transit.MinInterval, cfg.Weather.Timeout+cfg.Weather.MinInterval)
}
