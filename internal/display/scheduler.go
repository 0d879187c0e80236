// Package display drives the presentation side of the board: a fixed-period
// tick that copies the current snapshot out of the store and hands it to a
// renderer. Nothing here fetches data or waits on the network.
package display

import (
	"context"
	"time"

	"github.com/five82/stationboard/internal/state"
)

const defaultRefresh = 5 * time.Second

// Source is satisfied by *state.Store.
type Source interface {
	Snapshot() state.Snapshot
}

// Renderer draws a view. It must cope with an all-empty view and with being
// called repeatedly with the same one.
type Renderer interface {
	Render(view View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(View)

// Render calls f(view).
func (f RendererFunc) Render(view View) { f(view) }

// View is what a renderer receives on each tick.
type View struct {
	state.Snapshot
	// Now is the tick time, used for the clock and freshness labels.
	Now time.Time
}

// Scheduler renders the store's snapshot on a fixed period.
type Scheduler struct {
	source   Source
	renderer Renderer
	every    time.Duration
}

// NewScheduler returns a Scheduler ticking every period (5s when zero).
func NewScheduler(source Source, renderer Renderer, every time.Duration) *Scheduler {
	if every <= 0 {
		every = defaultRefresh
	}
	return &Scheduler{source: source, renderer: renderer, every: every}
}

// Run renders once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	s.tick(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *Scheduler) tick(now time.Time) {
	s.renderer.Render(View{Snapshot: s.source.Snapshot(), Now: now})
}
