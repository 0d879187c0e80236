package transit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/five82/stationboard/internal/board"
	"github.com/five82/stationboard/internal/upstream"
)

// DepartureFetcher is implemented by *Client and by test fakes.
type DepartureFetcher interface {
	FetchDepartures(ctx context.Context) ([]board.ServiceEntry, error)
}

var _ DepartureFetcher = (*Client)(nil)

const (
	defaultMaxResults = 8
	maxAllowedResults = 150
)

// Client fetches the departure board for one station.
type Client struct {
	api        *upstream.Client
	token      string
	station    string
	maxResults int
}

// NewClient builds a Client for station (a three-letter CRS code).
func NewClient(api *upstream.Client, token, station string, maxResults int) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("transit: upstream client is nil")
	}
	code := strings.ToUpper(strings.TrimSpace(station))
	if len(code) != 3 {
		return nil, fmt.Errorf("transit: station code %q must be three letters", station)
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxAllowedResults {
		maxResults = maxAllowedResults
	}
	return &Client{api: api, token: token, station: code, maxResults: maxResults}, nil
}

// Station returns the CRS code the client was built for.
func (c *Client) Station() string {
	return c.station
}

// FetchDepartures returns up to maxResults departures in board order. An
// empty board is an error.
func (c *Client) FetchDepartures(ctx context.Context) ([]board.ServiceEntry, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("accessToken", c.token)
	rel := &url.URL{
		Path:     "/departures/" + c.station + "/" + strconv.Itoa(c.maxResults),
		RawQuery: values.Encode(),
	}

	var payload BoardResponse
	if err := c.api.GetJSON(ctx, rel, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.TrainServices) == 0 {
		return nil, fmt.Errorf("departures for %s: %w", c.station, board.ErrEmptyResult)
	}

	services := payload.TrainServices
	if len(services) > c.maxResults {
		services = services[:c.maxResults]
	}
	entries := make([]board.ServiceEntry, 0, len(services))
	for _, svc := range services {
		entries = append(entries, svc.Entry())
	}
	return entries, nil
}
