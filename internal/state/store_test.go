package state

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/five82/stationboard/internal/board"
)

func services(n int, tag string) []board.ServiceEntry {
	out := make([]board.ServiceEntry, n)
	for i := range out {
		out[i] = board.ServiceEntry{
			Key:         tag + "-" + strconv.Itoa(i),
			Scheduled:   tag,
			Destination: tag,
			Estimated:   tag,
			Platform:    tag,
		}
	}
	return out
}

func TestStore_ZeroValueSnapshotIsEmpty(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if !snap.Empty() {
		t.Fatalf("Empty() = false, want true for %#v", snap)
	}
	if snap.Services == nil || snap.Forecast == nil {
		t.Fatalf("Snapshot slices should be non-nil, got services=%v forecast=%v", snap.Services, snap.Forecast)
	}
	if !snap.LastUpdated.IsZero() {
		t.Fatalf("LastUpdated = %v, want zero", snap.LastUpdated)
	}
}

func TestStore_ReplaceServicesAndSnapshotClone(t *testing.T) {
	var s Store

	in := services(2, "a")
	before := time.Now()
	s.ReplaceServices(in)

	snap := s.Snapshot()
	if !snap.HasServices || len(snap.Services) != 2 || snap.Services[0].Key != "a-0" {
		t.Fatalf("snapshot services = %#v, want 2 entries", snap.Services)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.HasForecast {
		t.Fatal("HasForecast = true, want false")
	}

	// Neither the caller's slice nor the returned view may alias the store.
	in[0].Destination = "mutated"
	snap.Services[1].Destination = "mutated"
	again := s.Snapshot()
	if again.Services[0].Destination != "a" || again.Services[1].Destination != "a" {
		t.Fatalf("store aliased caller memory: %#v", again.Services)
	}
}

func TestStore_NextReplaceFullyReplaces(t *testing.T) {
	var s Store
	s.ReplaceServices(services(3, "first"))
	s.ReplaceServices(services(2, "second"))

	snap := s.Snapshot()
	if len(snap.Services) != 2 {
		t.Fatalf("len(Services) = %d, want 2", len(snap.Services))
	}
	for _, e := range snap.Services {
		if e.Destination != "second" {
			t.Fatalf("entry %#v survived from the previous fetch", e)
		}
	}
}

func TestStore_LastUpdatedStrictlyIncreases(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := &Store{now: func() time.Time { return fixed }}

	s.ReplaceServices(services(1, "a"))
	first := s.Snapshot().LastUpdated
	s.ReplaceServices(services(1, "b"))
	second := s.Snapshot().LastUpdated
	s.ReplaceForecast(nil)
	third := s.Snapshot().LastUpdated

	if !second.After(first) {
		t.Fatalf("LastUpdated %v not after %v with a frozen clock", second, first)
	}
	if !third.Equal(second) {
		t.Fatalf("weather replace moved LastUpdated from %v to %v", second, third)
	}
}

func TestStore_ForecastTruncatedEarliestFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	points := []board.ForecastPoint{
		{Time: base.Add(12 * time.Hour), Temperature: 5},
		{Time: base, Temperature: 1},
		{Time: base.Add(3 * time.Hour), Temperature: 2},
		{Time: base.Add(9 * time.Hour), Temperature: 4},
		{Time: base.Add(6 * time.Hour), Temperature: 3},
	}

	tests := []struct {
		name  string
		store *Store
		want  []float64
	}{
		{"limit four", New(4), []float64{1, 2, 3, 4}},
		{"limit three", New(3), []float64{1, 2, 3}},
		{"zero value uses default", &Store{}, []float64{1, 2, 3, 4}},
		{"limit above input", New(10), []float64{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.store.ReplaceForecast(points)
			snap := tt.store.Snapshot()
			if !snap.HasForecast {
				t.Fatal("HasForecast = false, want true")
			}
			if len(snap.Forecast) != len(tt.want) {
				t.Fatalf("len(Forecast) = %d, want %d", len(snap.Forecast), len(tt.want))
			}
			for i, p := range snap.Forecast {
				if p.Temperature != tt.want[i] {
					t.Fatalf("Forecast[%d].Temperature = %v, want %v", i, p.Temperature, tt.want[i])
				}
			}
		})
	}
	if points[0].Temperature != 5 {
		t.Fatal("ReplaceForecast reordered the caller's slice")
	}
}

func TestStore_ReplaceDispatchesAndPanicsOnMismatch(t *testing.T) {
	var s Store
	s.Replace(board.KindTransit, services(1, "x"))
	s.Replace(board.KindWeather, []board.ForecastPoint{{Description: "rain"}})

	snap := s.Snapshot()
	if !snap.HasServices || !snap.HasForecast || snap.Generation != 2 {
		t.Fatalf("snapshot = %#v, want both slots filled at generation 2", snap)
	}

	defer func() {
		r := recover()
		if _, ok := r.(*StoreConsistencyError); !ok {
			t.Fatalf("recover() = %#v, want *StoreConsistencyError", r)
		}
		if after := s.Snapshot(); after.Generation != 2 {
			t.Fatalf("Generation = %d after rejected replace, want 2", after.Generation)
		}
	}()
	s.Replace(board.KindWeather, services(1, "wrong"))
}

// consistent reports whether every field of every entry carries the same tag
// and the entry count matches that tag.
func consistent(snap Snapshot) bool {
	if !snap.HasServices {
		return len(snap.Services) == 0
	}
	tag := snap.Services[0].Scheduled
	n, err := strconv.Atoi(tag)
	if err != nil || len(snap.Services) != n%5+1 {
		return false
	}
	for _, e := range snap.Services {
		if e.Scheduled != tag || e.Destination != tag || e.Estimated != tag || e.Platform != tag {
			return false
		}
	}
	return true
}

func TestStore_ConcurrentReadsNeverSeeMixedGenerations(t *testing.T) {
	var s Store
	const writes = 500

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for g := 1; g <= writes; g++ {
			s.ReplaceServices(services(g%5+1, strconv.Itoa(g)))
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				if snap := s.Snapshot(); !consistent(snap) {
					t.Errorf("torn snapshot: %#v", snap.Services)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := s.Snapshot().Generation; got != writes {
		t.Fatalf("Generation = %d, want %d", got, writes)
	}
}

func TestStore_ReadWaitsForWriterHoldingLock(t *testing.T) {
	var s Store
	s.ReplaceServices(services(1, "0"))

	// Hold the write lock as a writer part-way through its commit would.
	s.mu.Lock()
	wrote := make(chan struct{})
	go func() {
		s.ReplaceServices(services(2, "1"))
		close(wrote)
	}()
	read := make(chan Snapshot, 1)
	go func() { read <- s.Snapshot() }()

	select {
	case snap := <-read:
		t.Fatalf("read completed while the write lock was held: %#v", snap)
	case <-wrote:
		t.Fatal("write completed while the write lock was held")
	case <-time.After(50 * time.Millisecond):
	}
	s.mu.Unlock()

	<-wrote
	snap := <-read
	if !consistent(snap) {
		t.Fatalf("read = %#v, want one whole generation", snap)
	}
	if snap.Generation == 2 && snap.Services[0].Scheduled != "1" {
		t.Fatalf("generation 2 read = %#v, want the second write", snap)
	}
	if got := s.Snapshot().Generation; got != 2 {
		t.Fatalf("Generation = %d, want 2", got)
	}
}
