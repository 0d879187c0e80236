package display

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/five82/stationboard/internal/board"
)

// Freshness describes how old the departures are, e.g. "10:04:05 (3m ago)".
func Freshness(updated, now time.Time) string {
	if updated.IsZero() {
		return "waiting for first update"
	}
	label := updated.Format("15:04:05")
	since := now.Sub(updated)
	switch {
	case since < time.Minute:
		label += " (now)"
	case since < time.Hour:
		label += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		label += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	default:
		label = updated.Format("Jan 2 15:04")
	}
	return label
}

// Stale reports whether data updated at updated is older than limit.
func Stale(updated, now time.Time, limit time.Duration) bool {
	return !updated.IsZero() && limit > 0 && now.Sub(updated) > limit
}

// Temperature renders a temperature rounded to whole degrees.
func Temperature(value float64, units string) string {
	rounded := math.Round(value)
	if rounded == 0 {
		rounded = 0 // avoid "-0"
	}
	suffix := "°C"
	switch strings.ToLower(units) {
	case "imperial":
		suffix = "°F"
	case "standard":
		suffix = "K"
	}
	return fmt.Sprintf("%.0f%s", rounded, suffix)
}

// ForecastTime labels a forecast point relative to now: "15:00" today,
// "Tue 03:00" otherwise.
func ForecastTime(t, now time.Time) string {
	local := t.In(now.Location())
	y1, m1, d1 := local.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return local.Format("15:04")
	}
	return local.Format("Mon 15:04")
}

// Platform returns the platform or a dash when none is announced.
func Platform(entry board.ServiceEntry) string {
	if strings.TrimSpace(entry.Platform) == "" {
		return "-"
	}
	return entry.Platform
}

// Truncate shortens s to max runes, ending with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
