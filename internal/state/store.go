package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/stationboard/internal/board"
)

// DefaultMaxForecast is the number of forecast points kept when the store is
// built without an explicit limit.
const DefaultMaxForecast = 4

// Snapshot represents the latest data available to the renderers.
type Snapshot struct {
	Services        []board.ServiceEntry  `json:"services"`
	HasServices     bool                  `json:"hasServices"`
	Forecast        []board.ForecastPoint `json:"forecast"`
	HasForecast     bool                  `json:"hasForecast"`
	LastUpdated     time.Time             `json:"lastUpdated"`
	ForecastUpdated time.Time             `json:"forecastUpdated"`
	Generation      uint64                `json:"generation"`
}

// Empty reports whether neither provider has delivered data yet.
func (s Snapshot) Empty() bool {
	return !s.HasServices && !s.HasForecast
}

// StoreConsistencyError describes a Replace call whose data does not match the
// provider kind. It is raised as a panic; callers never handle it.
type StoreConsistencyError struct {
	Kind board.Kind
	Data any
}

func (e *StoreConsistencyError) Error() string {
	return fmt.Sprintf("state: cannot store %T in %s slot", e.Data, e.Kind)
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use and keeps DefaultMaxForecast points.
type Store struct {
	mu          sync.RWMutex
	snapshot    Snapshot
	maxForecast int
	now         func() time.Time
}

// New returns a store that truncates forecasts to maxForecast points.
func New(maxForecast int) *Store {
	return &Store{maxForecast: maxForecast}
}

// Replace overwrites the slot for kind with data, which must be
// []board.ServiceEntry for transit and []board.ForecastPoint for weather.
func (s *Store) Replace(kind board.Kind, data any) {
	switch kind {
	case board.KindTransit:
		entries, ok := data.([]board.ServiceEntry)
		if !ok {
			panic(&StoreConsistencyError{Kind: kind, Data: data})
		}
		s.ReplaceServices(entries)
	case board.KindWeather:
		points, ok := data.([]board.ForecastPoint)
		if !ok {
			panic(&StoreConsistencyError{Kind: kind, Data: data})
		}
		s.ReplaceForecast(points)
	default:
		panic(&StoreConsistencyError{Kind: kind, Data: data})
	}
}

// ReplaceServices swaps in a complete departures list and advances
// LastUpdated. LastUpdated strictly increases across calls.
func (s *Store) ReplaceServices(entries []board.ServiceEntry) {
	dup := cloneServices(entries)
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Services = dup
	s.snapshot.HasServices = true
	if !now.After(s.snapshot.LastUpdated) {
		now = s.snapshot.LastUpdated.Add(time.Nanosecond)
	}
	s.snapshot.LastUpdated = now
	s.snapshot.Generation++
}

// ReplaceForecast swaps in a forecast, ordered earliest-first and truncated
// to the store's limit.
func (s *Store) ReplaceForecast(points []board.ForecastPoint) {
	dup := cloneForecast(points)
	slices.SortStableFunc(dup, func(a, b board.ForecastPoint) int {
		return a.Time.Compare(b.Time)
	})
	if limit := s.limit(); len(dup) > limit {
		dup = dup[:limit:limit]
	}
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Forecast = dup
	s.snapshot.HasForecast = true
	s.snapshot.ForecastUpdated = now
	s.snapshot.Generation++
}

// Snapshot returns a copy of the current snapshot. The slices are never nil.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Services = cloneServices(s.snapshot.Services)
	snap.Forecast = cloneForecast(s.snapshot.Forecast)
	return snap
}

func (s *Store) limit() int {
	if s.maxForecast <= 0 {
		return DefaultMaxForecast
	}
	return s.maxForecast
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func cloneServices(items []board.ServiceEntry) []board.ServiceEntry {
	dup := make([]board.ServiceEntry, len(items))
	copy(dup, items)
	return dup
}

func cloneForecast(items []board.ForecastPoint) []board.ForecastPoint {
	dup := make([]board.ForecastPoint, len(items))
	copy(dup, items)
	return dup
}
