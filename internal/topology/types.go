package topology

import "time"

// Track status values. Only these two are assigned at runtime; loaded
// topologies may carry other values (e.g. "maintenance") which keep the
// track out of the adjacency list until changed.
const (
	StatusOperational = "operational"
	StatusDisabled    = "disabled"
)

// Track priority levels as they appear in topology files.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TrackTypeSingleLine is the track type penalised by the reliability
// criterion and favoured by goods trains.
const TrackTypeSingleLine = "single_line"

// Coordinates is a station's geographic position, used by the heuristic
// pathfinding algorithms.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Station is an immutable node of the network topology.
type Station struct {
	Code            string       `json:"-"`
	Name            string       `json:"name"`
	Type            string       `json:"type"` // junction, terminal, station
	Platforms       int          `json:"platforms"`
	CapacityPerHour int          `json:"capacity_per_hour"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
}

// Track is a directed edge between two stations. Status is the only field
// mutated at runtime; DisableTrack saves OriginalStatus so EnableTrack can
// restore the exact pre-disable value.
type Track struct {
	ID                    string     `json:"-"`
	From                  string     `json:"from"`
	To                    string     `json:"to"`
	DistanceKm            float64    `json:"distance_km"`
	TravelTimeMinutes     int        `json:"travel_time_minutes"`
	TrackType             string     `json:"track_type"`
	CapacityTrainsPerHour int        `json:"capacity_trains_per_hour"`
	Priority              string     `json:"priority"`
	MaxSpeedKmh           float64    `json:"max_speed_kmh"`
	Status                string     `json:"status"`
	DisableReason         string     `json:"disable_reason,omitempty"`
	DisabledAt            *time.Time `json:"disabled_at,omitempty"`
	OriginalStatus        string     `json:"original_status,omitempty"`
}

// Operational reports whether the track is usable by pathfinding.
func (t *Track) Operational() bool {
	return t.Status == StatusOperational
}

// Neighbor is one outgoing adjacency entry: the reachable station plus the
// track that reaches it.
type Neighbor struct {
	To      string
	TrackID string
	Track   *Track
}
