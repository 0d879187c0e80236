// Package forecast fetches the short-range weather forecast shown under the
// departures.
package forecast

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/stationboard/internal/board"
	"github.com/five82/stationboard/internal/upstream"
)

// Fetcher is implemented by *Client and by test fakes.
type Fetcher interface {
	FetchForecast(ctx context.Context) ([]board.ForecastPoint, error)
}

var _ Fetcher = (*Client)(nil)

const defaultUnits = "metric"

// Response mirrors the OpenWeatherMap 5 day / 3 hour payload.
type Response struct {
	List []Sample `json:"list"`
	City City     `json:"city"`
}

// Sample is one 3-hourly entry.
type Sample struct {
	DT      int64       `json:"dt"`
	Main    MainReading `json:"main"`
	Weather []Condition `json:"weather"`
}

// MainReading holds the temperature block.
type MainReading struct {
	Temp float64 `json:"temp"`
}

// Condition is a weather description.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

// City identifies the forecast location.
type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Point converts the sample into a board.ForecastPoint.
func (s Sample) Point() board.ForecastPoint {
	var desc string
	if len(s.Weather) > 0 {
		desc = strings.TrimSpace(s.Weather[0].Description)
		if desc == "" {
			desc = strings.TrimSpace(s.Weather[0].Main)
		}
	}
	return board.ForecastPoint{
		Time:        time.Unix(s.DT, 0),
		Description: desc,
		Temperature: s.Main.Temp,
	}
}

// Client fetches the forecast for one location ID.
type Client struct {
	api       *upstream.Client
	key       string
	location  string
	units     string
	maxPoints int
}

// NewClient builds a Client. maxPoints limits how many samples are requested;
// zero asks for the provider default.
func NewClient(api *upstream.Client, key, locationID, units string, maxPoints int) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("forecast: upstream client is nil")
	}
	location := strings.TrimSpace(locationID)
	if _, err := strconv.ParseUint(location, 10, 64); err != nil {
		return nil, fmt.Errorf("forecast: location id %q must be numeric", locationID)
	}
	units = strings.ToLower(strings.TrimSpace(units))
	switch units {
	case "":
		units = defaultUnits
	case "metric", "imperial", "standard":
	default:
		return nil, fmt.Errorf("forecast: unknown units %q", units)
	}
	return &Client{api: api, key: key, location: location, units: units, maxPoints: maxPoints}, nil
}

// Units returns the unit system temperatures are reported in.
func (c *Client) Units() string {
	return c.units
}

// FetchForecast returns the forecast earliest-first.
func (c *Client) FetchForecast(ctx context.Context) ([]board.ForecastPoint, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("id", c.location)
	values.Set("units", c.units)
	values.Set("appid", c.key)
	if c.maxPoints > 0 {
		values.Set("cnt", strconv.Itoa(c.maxPoints))
	}
	rel := &url.URL{Path: "/data/2.5/forecast", RawQuery: values.Encode()}

	var payload Response
	if err := c.api.GetJSON(ctx, rel, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, fmt.Errorf("forecast for %s: %w", c.location, board.ErrEmptyResult)
	}
	points := make([]board.ForecastPoint, 0, len(payload.List))
	for _, s := range payload.List {
		if s.DT <= 0 {
			return nil, fmt.Errorf("forecast for %s: sample without timestamp", c.location)
		}
		points = append(points, s.Point())
	}
	return points, nil
}
