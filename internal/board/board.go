// Package board defines the values shared between the data providers, the
// snapshot store, and the renderers.
package board

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies which upstream a piece of board data came from.
type Kind int

const (
	KindTransit Kind = iota
	KindWeather
)

func (k Kind) String() string {
	switch k {
	case KindTransit:
		return "transit"
	case KindWeather:
		return "weather"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ServiceEntry is one departure on the board. Key is only unique within a
// single fetch.
type ServiceEntry struct {
	Key         string `json:"key"`
	Scheduled   string `json:"scheduled"`
	Destination string `json:"destination"`
	Estimated   string `json:"estimated"`
	Platform    string `json:"platform"`
}

// OnTime reports whether the estimate carries no delay annotation.
func (s ServiceEntry) OnTime() bool {
	return s.Estimated == "" || s.Estimated == "On time" || s.Estimated == s.Scheduled
}

// Cancelled reports whether the service will not run.
func (s ServiceEntry) Cancelled() bool {
	return s.Estimated == "Cancelled"
}

// ForecastPoint is one weather sample. Temperature is in provider units.
type ForecastPoint struct {
	Time        time.Time `json:"time"`
	Description string    `json:"description"`
	Temperature float64   `json:"temperature"`
}

// ErrEmptyResult is returned by providers when the upstream answered with no
// data at all.
var ErrEmptyResult = errors.New("empty result set")

// ProviderFailure wraps any error from a provider fetch. It is recoverable:
// the poller logs it and keeps the previous data.
type ProviderFailure struct {
	Provider Kind
	Err      error
}

func (e *ProviderFailure) Error() string {
	if e.Err == nil {
		return e.Provider.String() + " fetch failed"
	}
	return e.Provider.String() + " fetch failed: " + e.Err.Error()
}

func (e *ProviderFailure) Unwrap() error {
	return e.Err
}

// Fail wraps err as a ProviderFailure for kind. A nil err stays nil.
func Fail(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderFailure{Provider: kind, Err: err}
}

// IsProviderFailure reports whether err is, or wraps, a ProviderFailure.
func IsProviderFailure(err error) bool {
	var pf *ProviderFailure
	return errors.As(err, &pf)
}
