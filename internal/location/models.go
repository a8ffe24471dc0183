package location

import (
	"fmt"

	"github.com/i474232898/date-planner/internal/common"
)

// Source records which strategy produced a snapshot.
type Source string

const (
	SourceGPS     Source = "gps"
	SourceIP      Source = "ip"
	SourceUnknown Source = "unknown"
)

// Snapshot is a best-effort description of where the user is.
type Snapshot struct {
	City      string   `json:"city,omitempty"`
	Region    string   `json:"region,omitempty"`
	Country   string   `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Source    Source   `json:"source"`
}

// Unknown is the snapshot returned when every strategy failed.
func Unknown() Snapshot {
	return Snapshot{Source: SourceUnknown}
}

// Position is a raw coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (s Snapshot) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Usable reports whether the snapshot can drive a weather lookup.
func (s Snapshot) Usable() bool {
	return s.HasCoordinates() || s.City != ""
}

// Label renders the snapshot for prompts and logs.
func (s Snapshot) Label() string {
	if label := common.JoinNonEmpty(", ", s.City, s.Region, s.Country); label != "" {
		return label
	}
	if s.HasCoordinates() {
		return fmt.Sprintf("%.2f°, %.2f°", *s.Latitude, *s.Longitude)
	}
	return "Unknown location"
}

// FromPosition builds a gps snapshot carrying only coordinates.
func FromPosition(p Position) Snapshot {
	lat, lon := p.Latitude, p.Longitude
	return Snapshot{Latitude: &lat, Longitude: &lon, Source: SourceGPS}
}
