package pathfind

import (
	"github.com/railvision/dispatch/internal/topology"
)

// RouteSegment is a reference to one track edge plus the scalar attributes
// it had when the route was built. Immutable.
type RouteSegment struct {
	TrackID           string  `json:"track_id"`
	From              string  `json:"from"`
	To                string  `json:"to"`
	DistanceKm        float64 `json:"distance_km"`
	TravelTimeMinutes int     `json:"travel_time_minutes"`
	TrackType         string  `json:"track_type"`
	Capacity          int     `json:"capacity_trains_per_hour"`
	Priority          string  `json:"priority"`
	Status            string  `json:"status"`
}

// Route is an ordered chain of segments with derived aggregates. Routes are
// immutable once built and may be shared freely between network clones.
type Route struct {
	Segments        []RouteSegment `json:"segments"`
	TotalDistanceKm float64        `json:"total_distance_km"`
	TotalTimeMins   int            `json:"total_time_minutes"`
	TotalCost       float64        `json:"total_cost"`
	RouteType       string         `json:"route_type"`
	Stations        []string       `json:"stations"`
}

// Summary is the compact route description carried inside solution
// candidates and snapshots.
type Summary struct {
	Stations      string   `json:"-"`
	StationList   []string `json:"stations"`
	TotalTime     int      `json:"total_time"`
	TotalDistance float64  `json:"total_distance"`
	RouteType     string   `json:"route_type"`
	SegmentCount  int      `json:"segment_count"`
}

// Summarize returns the compact description of a route.
func (r *Route) Summarize() Summary {
	return Summary{
		StationList:   r.Stations,
		TotalTime:     r.TotalTimeMins,
		TotalDistance: r.TotalDistanceKm,
		RouteType:     r.RouteType,
		SegmentCount:  len(r.Segments),
	}
}

// SameStations reports whether two routes visit an identical station list.
func (r *Route) SameStations(other *Route) bool {
	if len(r.Stations) != len(other.Stations) {
		return false
	}
	for i := range r.Stations {
		if r.Stations[i] != other.Stations[i] {
			return false
		}
	}
	return true
}

// UsesTrack reports whether any segment of the route traverses the track.
func (r *Route) UsesTrack(trackID string) bool {
	for _, seg := range r.Segments {
		if seg.TrackID == trackID {
			return true
		}
	}
	return false
}

func segmentFromTrack(t *topology.Track, from, to string) RouteSegment {
	return RouteSegment{
		TrackID:           t.ID,
		From:              from,
		To:                to,
		DistanceKm:        t.DistanceKm,
		TravelTimeMinutes: t.TravelTimeMinutes,
		TrackType:         t.TrackType,
		Capacity:          t.CapacityTrainsPerHour,
		Priority:          t.Priority,
		Status:            t.Status,
	}
}

func buildRoute(segments []RouteSegment, routeType string, cost float64) *Route {
	var distance float64
	var minutes int
	stations := make([]string, 0, len(segments)+1)
	stations = append(stations, segments[0].From)
	for _, seg := range segments {
		distance += seg.DistanceKm
		minutes += seg.TravelTimeMinutes
		stations = append(stations, seg.To)
	}
	return &Route{
		Segments:        segments,
		TotalDistanceKm: distance,
		TotalTimeMins:   minutes,
		TotalCost:       cost,
		RouteType:       routeType,
		Stations:        stations,
	}
}
