package transit

import (
	"strings"

	"github.com/five82/stationboard/internal/board"
)

// BoardResponse mirrors the Huxley departures payload.
type BoardResponse struct {
	LocationName  string         `json:"locationName"`
	CRS           string         `json:"crs"`
	TrainServices []TrainService `json:"trainServices"`
	NRCCMessages  []NRCCMessage  `json:"nrccMessages"`
}

// TrainService is one departure as the API reports it.
type TrainService struct {
	ServiceID   string            `json:"serviceID"`
	STD         string            `json:"std"`
	ETD         string            `json:"etd"`
	Platform    string            `json:"platform"`
	Operator    string            `json:"operator"`
	IsCancelled bool              `json:"isCancelled"`
	Destination []ServiceLocation `json:"destination"`
}

// ServiceLocation names a calling point.
type ServiceLocation struct {
	LocationName string `json:"locationName"`
	CRS          string `json:"crs"`
	Via          string `json:"via"`
}

// NRCCMessage is a disruption notice attached to the board.
type NRCCMessage struct {
	Value string `json:"value"`
}

// Entry converts the service into a board row.
func (s TrainService) Entry() board.ServiceEntry {
	estimated := strings.TrimSpace(s.ETD)
	if s.IsCancelled {
		estimated = "Cancelled"
	}
	return board.ServiceEntry{
		Key:         s.ServiceID,
		Scheduled:   strings.TrimSpace(s.STD),
		Destination: s.destinationName(),
		Estimated:   estimated,
		Platform:    strings.TrimSpace(s.Platform),
	}
}

func (s TrainService) destinationName() string {
	names := make([]string, 0, len(s.Destination))
	for _, loc := range s.Destination {
		name := strings.TrimSpace(loc.LocationName)
		if name == "" {
			continue
		}
		if via := strings.TrimSpace(loc.Via); via != "" {
			name += " " + via
		}
		names = append(names, name)
	}
	return strings.Join(names, " & ")
}
