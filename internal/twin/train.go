// Package twin holds the digital-twin state: trains, their routes, and the
// network that composes them with the topology graph and pathfinder.
package twin

import (
	"fmt"
	"strings"
	"time"

	"github.com/railvision/dispatch/internal/pathfind"
)

// Train types understood by the engine.
const (
	TrainTypeExpress   = "Express"
	TrainTypePassenger = "Passenger"
	TrainTypeLocal     = "Local"
	TrainTypeGoods     = "Goods"
)

// ScheduleTimeLayout is the timestamp format of schedule files.
const ScheduleTimeLayout = "2006-01-02 15:04:05"

// Environmental delay adjustments folded into ETAs.
const (
	weatherDelayMins = 5  // Rain or Fog
	trackDelayMins   = 10 // Maintenance
)

// Train is one train's schedule, operational state, and route slots. Trains
// are owned by their network and mutated only through ApplyEvent /
// ApplyAction; route values are immutable and shared across clones.
type Train struct {
	ID   string
	Type string

	SectionStart string
	SectionEnd   string

	ScheduledDeparture string
	ScheduledArrival   string
	DayOfWeek          string
	TimeOfDay          string

	Weather        string
	TrackCondition string

	Status                   string
	InitialReportedDelayMins int
	ActualDelayMins          int
	CurrentLocation          string

	Priority int

	PrimaryRoute      *pathfind.Route
	AlternativeRoutes []*pathfind.Route
	CurrentRoute      *pathfind.Route
}

// NewTrain builds a train from a schedule record, deriving its priority.
func NewTrain(rec ScheduleRecord) *Train {
	t := &Train{
		ID:                       rec.TrainID,
		Type:                     stringOr(rec.TrainType, TrainTypeExpress),
		SectionStart:             rec.SectionStart,
		SectionEnd:               rec.SectionEnd,
		ScheduledDeparture:       rec.ScheduledDeparture,
		ScheduledArrival:         rec.ScheduledArrival,
		DayOfWeek:                stringOr(rec.DayOfWeek, "Monday"),
		TimeOfDay:                stringOr(rec.TimeOfDay, "Morning_Peak"),
		Weather:                  stringOr(rec.Weather, "Clear"),
		TrackCondition:           stringOr(rec.TrackCondition, "Normal"),
		Status:                   "On-Time",
		InitialReportedDelayMins: rec.InitialReportedDelayMins,
		ActualDelayMins:          rec.ActualDelayMins,
		CurrentLocation:          rec.SectionStart,
	}
	t.Priority = derivePriority(t.Type, t.TimeOfDay)
	return t
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// derivePriority maps train type to a 1..5 priority, bumped one level at
// peak hours and clamped at 1.
func derivePriority(trainType, timeOfDay string) int {
	base := 3
	switch trainType {
	case TrainTypeExpress:
		base = 1
	case TrainTypePassenger:
		base = 3
	case TrainTypeLocal:
		base = 4
	case TrainTypeGoods:
		base = 5
	}
	if isPeak(timeOfDay) {
		base--
	}
	if base < 1 {
		base = 1
	}
	return base
}

func isPeak(timeOfDay string) bool {
	return timeOfDay == "Morning_Peak" || timeOfDay == "Evening_Peak"
}

// IsPeak reports whether the train operates in a peak-hour slot.
func (t *Train) IsPeak() bool { return isPeak(t.TimeOfDay) }

// IsCancelled reports whether the train has been cancelled; cancelled
// trains are excluded from conflict detection.
func (t *Train) IsCancelled() bool {
	return strings.HasPrefix(t.Status, "Cancelled")
}

// Name is the display name used in recommendation prose.
func (t *Train) Name() string {
	return fmt.Sprintf("%s %s", t.Type, t.ID)
}

// ETA is a train's projected arrival at its destination.
type ETA struct {
	Destination    string    `json:"destination"`
	ScheduledTime  time.Time `json:"scheduled_time"`
	ETA            time.Time `json:"eta"`
	TotalDelayMins int       `json:"total_delay_mins"`
	ReportedDelay  int       `json:"reported_delay"`
	WeatherDelay   int       `json:"weather_delay"`
	TrackDelay     int       `json:"track_delay"`
}

// TotalDelayMins is the accumulated delay including environmental
// adjustments, reported even when the schedule timestamps do not parse.
func (t *Train) TotalDelayMins() int {
	return t.ActualDelayMins + t.weatherDelay() + t.trackDelay()
}

func (t *Train) weatherDelay() int {
	if t.Weather == "Rain" || t.Weather == "Fog" {
		return weatherDelayMins
	}
	return 0
}

func (t *Train) trackDelay() int {
	if t.TrackCondition == "Maintenance" {
		return trackDelayMins
	}
	return 0
}

// ETAAtDestination projects the arrival time from the scheduled arrival
// plus accumulated and environmental delays. Returns an error when the
// scheduled arrival cannot be parsed; the delay total is still available
// via TotalDelayMins.
func (t *Train) ETAAtDestination() (ETA, error) {
	scheduled, err := time.Parse(ScheduleTimeLayout, t.ScheduledArrival)
	if err != nil {
		return ETA{}, fmt.Errorf("train %s: parse scheduled arrival: %w", t.ID, err)
	}
	weather := t.weatherDelay()
	track := t.trackDelay()
	total := t.ActualDelayMins + weather + track
	return ETA{
		Destination:    t.SectionEnd,
		ScheduledTime:  scheduled,
		ETA:            scheduled.Add(time.Duration(total) * time.Minute),
		TotalDelayMins: total,
		ReportedDelay:  t.ActualDelayMins,
		WeatherDelay:   weather,
		TrackDelay:     track,
	}, nil
}

// SetRoutes stores the primary and alternative routes and makes the
// primary current.
func (t *Train) SetRoutes(primary *pathfind.Route, alternatives []*pathfind.Route) {
	t.PrimaryRoute = primary
	t.AlternativeRoutes = alternatives
	t.CurrentRoute = primary
}

// ApplyDelay adds to the accumulated delay and marks the train delayed.
func (t *Train) ApplyDelay(mins int, reason string) {
	t.ActualDelayMins += mins
	if reason != "" && reason != "Unknown" {
		t.Status = fmt.Sprintf("Delayed (%s)", reason)
	} else {
		t.Status = "Delayed"
	}
}

// ApplyHalt delays the train with a halt-tagged status.
func (t *Train) ApplyHalt(mins int, reason string) {
	t.ActualDelayMins += mins
	if reason != "" && reason != "Unknown" {
		t.Status = fmt.Sprintf("Halted (%s)", reason)
	} else {
		t.Status = "Halted"
	}
}

// ApplyCancellation cancels the train. Cancelled trains keep their state
// but drop out of conflict detection.
func (t *Train) ApplyCancellation(reason string) {
	if reason != "" {
		t.Status = fmt.Sprintf("Cancelled (%s)", reason)
	} else {
		t.Status = "Cancelled"
	}
}

// ApplySpeedAdjustment converts a speed factor into a delay change:
// slowing down (factor > 1) adds minutes, speeding up subtracts them,
// never driving the accumulated delay negative.
func (t *Train) ApplySpeedAdjustment(factor float64, _ string) error {
	if factor <= 0 {
		return fmt.Errorf("train %s: invalid speed factor %v", t.ID, factor)
	}
	if factor > 1 {
		t.ActualDelayMins += int((factor - 1) * 60)
		t.Status = "Speed Reduced"
	} else if factor < 1 {
		t.ActualDelayMins -= int((1 - factor) * 60)
		if t.ActualDelayMins < 0 {
			t.ActualDelayMins = 0
		}
		t.Status = "Speed Increased"
	}
	return nil
}

// SwitchToAlternativeRoute makes alternative i current, charging the time
// difference against the primary route as extra delay.
func (t *Train) SwitchToAlternativeRoute(i int) error {
	if i < 0 || i >= len(t.AlternativeRoutes) {
		return fmt.Errorf("%w: train %s alternative index %d", ErrNoSuchRoute, t.ID, i)
	}
	alt := t.AlternativeRoutes[i]
	if t.PrimaryRoute != nil {
		extra := alt.TotalTimeMins - t.PrimaryRoute.TotalTimeMins
		if extra > 0 {
			t.ActualDelayMins += extra
		}
	}
	t.CurrentRoute = alt
	t.Status = fmt.Sprintf("Rerouted via %s", alt.RouteType)
	return nil
}

// Clone copies the train. Route values are immutable and shared.
func (t *Train) Clone() *Train {
	cp := *t
	if t.AlternativeRoutes != nil {
		cp.AlternativeRoutes = make([]*pathfind.Route, len(t.AlternativeRoutes))
		copy(cp.AlternativeRoutes, t.AlternativeRoutes)
	}
	return &cp
}
