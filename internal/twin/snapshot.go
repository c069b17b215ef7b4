package twin

import (
	"time"

	"github.com/google/uuid"

	"github.com/railvision/dispatch/internal/pathfind"
)

// RouteInfo summarises a train's assigned routes inside a snapshot.
type RouteInfo struct {
	Primary           *pathfind.Summary  `json:"primary,omitempty"`
	Current           *pathfind.Summary  `json:"current,omitempty"`
	Alternatives      []pathfind.Summary `json:"alternatives,omitempty"`
	AlternativeCount  int                `json:"alternative_count"`
	RoutesInitialised bool               `json:"routes_initialised"`
}

// TrainStatus is one train's serialised state.
type TrainStatus struct {
	TrainID              string    `json:"train_id"`
	TrainName            string    `json:"train_name"`
	TrainType            string    `json:"train_type"`
	Priority             int       `json:"priority"`
	Status               string    `json:"status"`
	SectionStart         string    `json:"section_start"`
	SectionEnd           string    `json:"section_end"`
	ScheduledDeparture   string    `json:"scheduled_departure"`
	ScheduledArrival     string    `json:"scheduled_arrival"`
	CurrentDelayMins     int       `json:"current_delay_mins"`
	InitialReportedDelay int       `json:"initial_reported_delay"`
	TotalDelayMins       int       `json:"total_delay_mins"`
	CurrentLocation      string    `json:"current_location"`
	DayOfWeek            string    `json:"day_of_week"`
	TimeOfDay            string    `json:"time_of_day"`
	Weather              string    `json:"weather"`
	TrackCondition       string    `json:"track_condition"`
	RouteInfo            RouteInfo `json:"route_info"`
}

// NetworkStatus aggregates topology health.
type NetworkStatus struct {
	OperationalTracks int    `json:"operational_tracks"`
	FailedTracks      int    `json:"failed_tracks"`
	NetworkHealth     string `json:"network_health"` // healthy | degraded
}

// StateSnapshot is a consistent copy of the twin, taken under the read
// lock. It observes no intermediate state.
type StateSnapshot struct {
	SnapshotID    uuid.UUID                 `json:"snapshot_id"`
	Trains        map[string]TrainStatus    `json:"trains"`
	Platforms     map[string]map[int]string `json:"platforms"`
	Tracks        map[string]string         `json:"tracks"`
	NetworkStatus NetworkStatus             `json:"network_status"`
	Timestamp     time.Time                 `json:"timestamp"`
}

// Snapshot serialises the current network state.
func (n *Network) Snapshot() StateSnapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()

	snap := StateSnapshot{
		SnapshotID: uuid.New(),
		Trains:     make(map[string]TrainStatus, len(n.trains)),
		Platforms:  make(map[string]map[int]string, len(n.platforms)),
		Tracks:     make(map[string]string, len(n.trackOccupancy)),
		Timestamp:  n.now(),
	}

	for id, t := range n.trains {
		snap.Trains[id] = trainStatus(t)
	}
	for station, slots := range n.platforms {
		cp := make(map[int]string, len(slots))
		for i, occupant := range slots {
			cp[i] = occupant
		}
		snap.Platforms[station] = cp
	}
	for id, occupant := range n.trackOccupancy {
		snap.Tracks[id] = occupant
	}

	operational := n.graph.OperationalTrackCount()
	failed := n.graph.TrackCount() - operational
	health := "healthy"
	if failed > 0 {
		health = "degraded"
	}
	snap.NetworkStatus = NetworkStatus{
		OperationalTracks: operational,
		FailedTracks:      failed,
		NetworkHealth:     health,
	}
	return snap
}

func trainStatus(t *Train) TrainStatus {
	info := RouteInfo{RoutesInitialised: t.PrimaryRoute != nil}
	if t.PrimaryRoute != nil {
		s := t.PrimaryRoute.Summarize()
		info.Primary = &s
	}
	if t.CurrentRoute != nil {
		s := t.CurrentRoute.Summarize()
		info.Current = &s
	}
	for _, alt := range t.AlternativeRoutes {
		info.Alternatives = append(info.Alternatives, alt.Summarize())
	}
	info.AlternativeCount = len(t.AlternativeRoutes)

	return TrainStatus{
		TrainID:              t.ID,
		TrainName:            t.Name(),
		TrainType:            t.Type,
		Priority:             t.Priority,
		Status:               t.Status,
		SectionStart:         t.SectionStart,
		SectionEnd:           t.SectionEnd,
		ScheduledDeparture:   t.ScheduledDeparture,
		ScheduledArrival:     t.ScheduledArrival,
		CurrentDelayMins:     t.ActualDelayMins,
		InitialReportedDelay: t.InitialReportedDelayMins,
		TotalDelayMins:       t.TotalDelayMins(),
		CurrentLocation:      t.CurrentLocation,
		DayOfWeek:            t.DayOfWeek,
		TimeOfDay:            t.TimeOfDay,
		Weather:              t.Weather,
		TrackCondition:       t.TrackCondition,
		RouteInfo:            info,
	}
}

// TrackStatusView is the per-track entry of the network-status view.
type TrackStatusView struct {
	From              string  `json:"from"`
	To                string  `json:"to"`
	Status            string  `json:"status"`
	DistanceKm        float64 `json:"distance_km"`
	TravelTimeMinutes int     `json:"travel_time_minutes"`
	TrackType         string  `json:"track_type"`
	Priority          string  `json:"priority"`
	DisableReason     string  `json:"disable_reason,omitempty"`
}

// StationView is the per-station entry of the network-status view.
type StationView struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	Platforms       int    `json:"platforms"`
	CapacityPerHour int    `json:"capacity_per_hour"`
}

// TopologyView is the detailed topology/status report.
type TopologyView struct {
	Stations      map[string]StationView     `json:"stations"`
	Tracks        map[string]TrackStatusView `json:"tracks"`
	NetworkHealth string                     `json:"network_health"`
}

// TopologyStatus reports per-track status including disable reasons.
func (n *Network) TopologyStatus() TopologyView {
	n.mu.RLock()
	defer n.mu.RUnlock()

	view := TopologyView{
		Stations: make(map[string]StationView),
		Tracks:   make(map[string]TrackStatusView),
	}
	for _, code := range n.graph.Stations() {
		s, _ := n.graph.Station(code)
		view.Stations[code] = StationView{
			Name:            s.Name,
			Type:            s.Type,
			Platforms:       s.Platforms,
			CapacityPerHour: s.CapacityPerHour,
		}
	}
	failed := 0
	for _, id := range n.graph.Tracks() {
		t, _ := n.graph.Track(id)
		if !t.Operational() {
			failed++
		}
		view.Tracks[id] = TrackStatusView{
			From:              t.From,
			To:                t.To,
			Status:            t.Status,
			DistanceKm:        t.DistanceKm,
			TravelTimeMinutes: t.TravelTimeMinutes,
			TrackType:         t.TrackType,
			Priority:          t.Priority,
			DisableReason:     t.DisableReason,
		}
	}
	view.NetworkHealth = "healthy"
	if failed > 0 {
		view.NetworkHealth = "degraded"
	}
	return view
}
