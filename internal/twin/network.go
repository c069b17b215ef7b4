package twin

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/railvision/dispatch/internal/pathfind"
	"github.com/railvision/dispatch/internal/topology"
)

// Sentinel errors surfaced by event and action application. State is left
// unchanged when any of these is returned.
var (
	ErrUnknownTrain  = errors.New("unknown train")
	ErrUnknownTrack  = errors.New("unknown track")
	ErrInvalidAction = errors.New("invalid action")
	ErrNoSuchRoute   = errors.New("no such route")
)

// Event types accepted by ApplyEvent. Unknown types are treated as delay.
const (
	EventDelay        = "delay"
	EventTrackFailure = "track_failure"
	EventTrackRepair  = "track_repair"
)

// Action types accepted by ApplyAction.
const (
	ActionHalt        = "Halt"
	ActionReroute     = "Reroute"
	ActionCancel      = "Cancel"
	ActionSpeedAdjust = "SpeedAdjust"
)

// Event is a reported disruption applied to the twin.
type Event struct {
	EventType      string `json:"event_type"`
	TrainID        string `json:"train_id,omitempty"`
	TrackID        string `json:"track_id,omitempty"`
	DelayMinutes   int    `json:"delay_minutes,omitempty"`
	Description    string `json:"description,omitempty"`
	Weather        string `json:"weather,omitempty"`
	TrackCondition string `json:"track_condition,omitempty"`
}

// Action is a remediation applied to one train.
type Action struct {
	ActionType   string  `json:"action_type"`
	TrainID      string  `json:"train_id"`
	DurationMins int     `json:"duration_mins,omitempty"`
	RouteIndex   *int    `json:"route_index,omitempty"`
	SpeedFactor  float64 `json:"speed_factor,omitempty"`
	Description  string  `json:"description,omitempty"`
}

const maxAlternativeRoutes = 2

// Network is the digital twin: one topology graph, a pathfinder bound to
// it, the train fleet, and platform/track occupancy. All mutations are
// serialised behind the write lock; snapshots take the read lock.
type Network struct {
	mu sync.RWMutex

	graph      *topology.Graph
	pathfinder *pathfind.Pathfinder
	trains     map[string]*Train

	// station → platform index → occupying train id (empty when free)
	platforms map[string]map[int]string
	// track id → occupying train id (empty when free)
	trackOccupancy map[string]string

	initialSchedule []ScheduleRecord
	now             func() time.Time
}

// NewNetwork builds the twin from a topology graph and schedule records and
// initialises routes for every train.
func NewNetwork(graph *topology.Graph, schedule []ScheduleRecord) *Network {
	n := &Network{
		graph:           graph,
		pathfinder:      pathfind.New(graph),
		initialSchedule: schedule,
		now:             time.Now,
	}
	n.build(schedule)
	return n
}

func (n *Network) build(schedule []ScheduleRecord) {
	n.trains = make(map[string]*Train, len(schedule))
	for _, rec := range schedule {
		n.trains[rec.TrainID] = NewTrain(rec)
	}

	n.platforms = make(map[string]map[int]string)
	for _, code := range n.graph.Stations() {
		station, _ := n.graph.Station(code)
		count := station.Platforms
		if count <= 0 {
			count = 1
		}
		slots := make(map[int]string, count)
		for i := 1; i <= count; i++ {
			slots[i] = ""
		}
		n.platforms[code] = slots
	}

	n.trackOccupancy = make(map[string]string)
	for _, id := range n.graph.Tracks() {
		n.trackOccupancy[id] = ""
	}

	n.initialiseTrainRoutes()
}

// initialiseTrainRoutes assigns each train a primary route (best under the
// time criterion) and up to two distinct alternatives. Trains with no
// available path keep empty route slots and are treated as unroutable.
func (n *Network) initialiseTrainRoutes() {
	for _, id := range n.trainIDs() {
		t := n.trains[id]
		primary := n.pathfinder.FindBestRoute(t.SectionStart, t.SectionEnd, t.Type, pathfind.CriterionTime)
		if primary == nil {
			t.SetRoutes(nil, nil)
			log.Printf("No route available for train %s (%s -> %s)", t.ID, t.SectionStart, t.SectionEnd)
			continue
		}
		alternatives := n.pathfinder.FindAlternativeRoutes(t.SectionStart, t.SectionEnd, t.Type, maxAlternativeRoutes+1)
		kept := make([]*pathfind.Route, 0, maxAlternativeRoutes)
		for _, alt := range alternatives {
			if alt.SameStations(primary) {
				continue
			}
			kept = append(kept, alt)
			if len(kept) == maxAlternativeRoutes {
				break
			}
		}
		t.SetRoutes(primary, kept)
	}
}

func (n *Network) trainIDs() []string {
	ids := make([]string, 0, len(n.trains))
	for id := range n.trains {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetClock overrides the clock used for snapshot timestamps.
func (n *Network) SetClock(now func() time.Time) {
	if now != nil {
		n.now = now
		n.graph.SetClock(now)
	}
}

// SetPathfindingStrategy switches the search algorithm used for all
// subsequent route computations.
func (n *Network) SetPathfindingStrategy(s pathfind.Strategy) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pathfinder.SetStrategy(s)
}

// Train returns the live train object. Callers outside the twin package
// must treat it as read-only; mutations go through ApplyEvent/ApplyAction.
func (n *Network) Train(id string) (*Train, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	t, ok := n.trains[id]
	return t, ok
}

// TrainCount returns the number of trains in the twin.
func (n *Network) TrainCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.trains)
}

// Graph exposes the topology for read-only inspection.
func (n *Network) Graph() *topology.Graph { return n.graph }

// ApplyEvent dispatches a reported disruption. Unknown identifiers return
// an error with state unchanged; unknown event types fall back to delay.
func (n *Network) ApplyEvent(ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch ev.EventType {
	case EventTrackFailure:
		return n.applyTrackFailure(ev)
	case EventTrackRepair:
		return n.applyTrackRepair(ev)
	default:
		return n.applyDelayEvent(ev)
	}
}

func (n *Network) applyDelayEvent(ev Event) error {
	t, ok := n.trains[ev.TrainID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrain, ev.TrainID)
	}
	reason := ev.Description
	if reason == "" {
		reason = "Reported disruption"
	}
	t.ApplyDelay(ev.DelayMinutes, reason)
	if ev.Weather != "" {
		t.Weather = ev.Weather
	}
	if ev.TrackCondition != "" {
		t.TrackCondition = ev.TrackCondition
	}
	log.Printf("Event applied: train %s delayed by %d min (total %d): %s",
		t.ID, ev.DelayMinutes, t.ActualDelayMins, reason)
	return nil
}

func (n *Network) applyTrackFailure(ev Event) error {
	if _, ok := n.graph.Track(ev.TrackID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrack, ev.TrackID)
	}

	// Identify trains riding the track before it disappears from the
	// adjacency list.
	var affected []string
	for _, id := range n.trainIDs() {
		t := n.trains[id]
		if t.CurrentRoute != nil && t.CurrentRoute.UsesTrack(ev.TrackID) {
			affected = append(affected, id)
		}
	}

	reason := ev.Description
	if reason == "" {
		reason = "failure"
	}
	n.graph.DisableTrack(ev.TrackID, reason)

	for _, id := range affected {
		t := n.trains[id]
		alternatives := n.pathfinder.FindAlternativeRoutes(t.SectionStart, t.SectionEnd, t.Type, 3)
		t.AlternativeRoutes = alternatives
	}
	log.Printf("Track failure applied: %s, %d trains affected", ev.TrackID, len(affected))
	return nil
}

func (n *Network) applyTrackRepair(ev Event) error {
	if _, ok := n.graph.Track(ev.TrackID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrack, ev.TrackID)
	}
	n.graph.EnableTrack(ev.TrackID)
	n.initialiseTrainRoutes()
	log.Printf("Track repair applied: %s, routes reinitialised", ev.TrackID)
	return nil
}

// RerouteInfo describes one train's outcome from a recalculation pass.
type RerouteInfo struct {
	TrainID  string            `json:"train_id"`
	Rerouted bool              `json:"rerouted"`
	NewRoute *pathfind.Summary `json:"new_route,omitempty"`
}

// RecalcResult summarises RecalculateRoutes.
type RecalcResult struct {
	TotalAffected        int           `json:"total_affected"`
	SuccessfullyRerouted int           `json:"successfully_rerouted"`
	ReroutingInfo        []RerouteInfo `json:"rerouting_info"`
}

// RecalculateRoutes reassigns primary routes for the listed trains under
// the current graph status.
func (n *Network) RecalculateRoutes(trainIDs []string) RecalcResult {
	n.mu.Lock()
	defer n.mu.Unlock()

	result := RecalcResult{TotalAffected: len(trainIDs)}
	for _, id := range trainIDs {
		t, ok := n.trains[id]
		if !ok {
			result.ReroutingInfo = append(result.ReroutingInfo, RerouteInfo{TrainID: id})
			continue
		}
		info := RerouteInfo{TrainID: id}
		if route := n.pathfinder.FindBestRoute(t.SectionStart, t.SectionEnd, t.Type, pathfind.CriterionTime); route != nil {
			alternatives := n.pathfinder.FindAlternativeRoutes(t.SectionStart, t.SectionEnd, t.Type, maxAlternativeRoutes+1)
			kept := make([]*pathfind.Route, 0, maxAlternativeRoutes)
			for _, alt := range alternatives {
				if alt.SameStations(route) {
					continue
				}
				kept = append(kept, alt)
				if len(kept) == maxAlternativeRoutes {
					break
				}
			}
			t.SetRoutes(route, kept)
			summary := route.Summarize()
			info.Rerouted = true
			info.NewRoute = &summary
			result.SuccessfullyRerouted++
		}
		result.ReroutingInfo = append(result.ReroutingInfo, info)
	}
	return result
}

// ApplyAction routes a remediation to the target train's mutation methods.
// Invalid parameters are rejected with state unchanged.
func (n *Network) ApplyAction(a Action) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	t, ok := n.trains[a.TrainID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrain, a.TrainID)
	}

	switch a.ActionType {
	case ActionHalt:
		if a.DurationMins < 0 {
			return fmt.Errorf("%w: negative halt duration %d", ErrInvalidAction, a.DurationMins)
		}
		t.ApplyHalt(a.DurationMins, a.Description)
	case ActionReroute:
		if a.RouteIndex == nil {
			return fmt.Errorf("%w: reroute requires route_index", ErrInvalidAction)
		}
		if err := t.SwitchToAlternativeRoute(*a.RouteIndex); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
	case ActionCancel:
		t.ApplyCancellation(a.Description)
	case ActionSpeedAdjust:
		if err := t.ApplySpeedAdjustment(a.SpeedFactor, a.Description); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
	default:
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, a.ActionType)
	}
	log.Printf("Action applied: %s on train %s", a.ActionType, a.TrainID)
	return nil
}

// TrainETA is one entry of the projection set consumed by the conflict
// detector.
type TrainETA struct {
	TrainID        string    `json:"train_id"`
	TrainName      string    `json:"train_name"`
	TrainType      string    `json:"train_type"`
	Priority       int       `json:"priority"`
	Destination    string    `json:"destination"`
	ETA            time.Time `json:"eta"`
	ScheduledTime  time.Time `json:"scheduled_time"`
	TotalDelayMins int       `json:"total_delay_mins"`
	Weather        string    `json:"weather"`
	TrackCondition string    `json:"track_condition"`
	TimeOfDay      string    `json:"time_of_day"`
}

// TrainETAs returns one record per non-cancelled train with a parseable
// schedule. Unroutable or unparsable trains are skipped.
func (n *Network) TrainETAs() []TrainETA {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var etas []TrainETA
	for _, id := range n.trainIDs() {
		t := n.trains[id]
		if t.IsCancelled() {
			continue
		}
		eta, err := t.ETAAtDestination()
		if err != nil {
			continue
		}
		etas = append(etas, TrainETA{
			TrainID:        t.ID,
			TrainName:      t.Name(),
			TrainType:      t.Type,
			Priority:       t.Priority,
			Destination:    eta.Destination,
			ETA:            eta.ETA,
			ScheduledTime:  eta.ScheduledTime,
			TotalDelayMins: eta.TotalDelayMins,
			Weather:        t.Weather,
			TrackCondition: t.TrackCondition,
			TimeOfDay:      t.TimeOfDay,
		})
	}
	return etas
}

// Clone deep-copies the network for simulation. Trains and the graph are
// copied; immutable routes and stations are shared.
func (n *Network) Clone() *Network {
	n.mu.RLock()
	defer n.mu.RUnlock()

	graph := n.graph.Clone()
	clone := &Network{
		graph:           graph,
		pathfinder:      pathfind.New(graph),
		trains:          make(map[string]*Train, len(n.trains)),
		platforms:       make(map[string]map[int]string, len(n.platforms)),
		trackOccupancy:  make(map[string]string, len(n.trackOccupancy)),
		initialSchedule: n.initialSchedule,
		now:             n.now,
	}
	clone.pathfinder.SetStrategy(n.pathfinder.Strategy())
	for id, t := range n.trains {
		clone.trains[id] = t.Clone()
	}
	for station, slots := range n.platforms {
		cp := make(map[int]string, len(slots))
		for i, occupant := range slots {
			cp[i] = occupant
		}
		clone.platforms[station] = cp
	}
	for id, occupant := range n.trackOccupancy {
		clone.trackOccupancy[id] = occupant
	}
	return clone
}

// Reset rebuilds the twin from the stored initial schedule.
func (n *Network) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, id := range n.graph.Tracks() {
		track, _ := n.graph.Track(id)
		if track.Status == topology.StatusDisabled {
			n.graph.EnableTrack(id)
		}
	}
	n.build(n.initialSchedule)
	log.Printf("Network reset to initial schedule (%d trains)", len(n.trains))
}

// ExportSchedule emits the current train records as schedule output
// reflecting status, delays, assigned routes, and conditions.
func (n *Network) ExportSchedule() []ScheduleRecord {
	n.mu.RLock()
	defer n.mu.RUnlock()

	records := make([]ScheduleRecord, 0, len(n.trains))
	for _, id := range n.trainIDs() {
		t := n.trains[id]
		rec := ScheduleRecord{
			TrainID:                  t.ID,
			TrainType:                t.Type,
			SectionStart:             t.SectionStart,
			SectionEnd:               t.SectionEnd,
			ScheduledDeparture:       t.ScheduledDeparture,
			ScheduledArrival:         t.ScheduledArrival,
			DayOfWeek:                t.DayOfWeek,
			TimeOfDay:                t.TimeOfDay,
			Weather:                  t.Weather,
			TrackCondition:           t.TrackCondition,
			InitialReportedDelayMins: t.InitialReportedDelayMins,
			ActualDelayMins:          t.ActualDelayMins,
			Status:                   t.Status,
			Priority:                 t.Priority,
		}
		if t.CurrentRoute != nil {
			rec.RouteSummary = t.CurrentRoute.Stations
		}
		records = append(records, rec)
	}
	return records
}
