package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/five82/stationboard/internal/board"
	"github.com/five82/stationboard/internal/forecast"
	"github.com/five82/stationboard/internal/logging"
	"github.com/five82/stationboard/internal/state"
	"github.com/five82/stationboard/internal/transit"
)

const (
	defaultTransitInterval = 2 * time.Minute
	defaultWeatherInterval = 30 * time.Minute
	defaultFetchTimeout    = 30 * time.Second
	maxBackoff             = 30 * time.Minute
)

// PollerOptions configure a Poller.
type PollerOptions struct {
	Store   *state.Store
	Transit transit.DepartureFetcher
	Weather forecast.Fetcher

	TransitEvery time.Duration
	WeatherEvery time.Duration
	// FetchTimeout bounds a single provider call, including one still
	// running when the poller is stopped.
	FetchTimeout time.Duration

	Logger *slog.Logger
}

// Poller refreshes the store from both providers, each on its own cadence.
type Poller struct {
	store        *state.Store
	transit      transit.DepartureFetcher
	weather      forecast.Fetcher
	transitEvery time.Duration
	weatherEvery time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger

	wg sync.WaitGroup
}

type cadence struct {
	kind    board.Kind
	every   time.Duration
	refresh func(context.Context) error
}

// NewPoller validates opts and fills in defaults.
func NewPoller(opts PollerOptions) (*Poller, error) {
	if opts.Store == nil {
		return nil, errors.New("poller requires a store")
	}
	if opts.Transit == nil || opts.Weather == nil {
		return nil, errors.New("poller requires both providers")
	}
	p := &Poller{
		store:        opts.Store,
		transit:      opts.Transit,
		weather:      opts.Weather,
		transitEvery: opts.TransitEvery,
		weatherEvery: opts.WeatherEvery,
		fetchTimeout: opts.FetchTimeout,
		logger:       opts.Logger,
	}
	if p.transitEvery <= 0 {
		p.transitEvery = defaultTransitInterval
	}
	if p.weatherEvery <= 0 {
		p.weatherEvery = defaultWeatherInterval
	}
	if p.fetchTimeout <= 0 {
		p.fetchTimeout = defaultFetchTimeout
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	return p, nil
}

// Start launches one goroutine per provider and returns immediately. Both
// fetch once straight away. Cancelling ctx stops them before their next
// sleep ends; a fetch already running is left to finish.
func (p *Poller) Start(ctx context.Context) {
	for _, c := range []cadence{
		{kind: board.KindTransit, every: p.transitEvery, refresh: p.refreshTransit},
		{kind: board.KindWeather, every: p.weatherEvery, refresh: p.refreshWeather},
	} {
		p.wg.Add(1)
		go p.run(ctx, c)
	}
}

// Wait blocks until every cadence started by Start has returned.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, c cadence) {
	defer p.wg.Done()

	logger := p.logger.With("provider", c.kind.String())
	failures := 0
	for {
		if ctx.Err() != nil {
			return
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.fetchTimeout)
		err := p.fetch(fetchCtx, c, logger)
		cancel()

		if err != nil {
			failures++
		} else if failures > 0 {
			logger.Info("poll recovered", "after_failures", failures)
			failures = 0
		}

		wait := calculateBackoff(failures, c.every)
		if err != nil {
			logger.Warn("poll failed", "failures", failures, "retry_in", wait, "error", err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// fetch runs one refresh. A panicking provider becomes a ProviderFailure so
// one bad payload cannot take the display down; a store consistency panic
// is a programming error and is re-raised.
func (p *Poller) fetch(ctx context.Context, c cadence, logger *slog.Logger) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(*state.StoreConsistencyError); ok {
			panic(r)
		}
		logger.Error("provider panicked", "panic", r, "stack", string(debug.Stack()))
		err = board.Fail(c.kind, fmt.Errorf("panic: %v", r))
	}()
	return c.refresh(ctx)
}

func (p *Poller) refreshTransit(ctx context.Context) error {
	entries, err := p.transit.FetchDepartures(ctx)
	if err != nil {
		return board.Fail(board.KindTransit, err)
	}
	p.store.Replace(board.KindTransit, entries)
	p.logger.Debug("departures updated", "services", len(entries))
	return nil
}

func (p *Poller) refreshWeather(ctx context.Context) error {
	points, err := p.weather.FetchForecast(ctx)
	if err != nil {
		return board.Fail(board.KindWeather, err)
	}
	p.store.Replace(board.KindWeather, points)
	p.logger.Debug("forecast updated", "points", len(points))
	return nil
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff. The result is never shorter than base.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
