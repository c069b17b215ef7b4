// Package optimize implements conflict detection, candidate solution
// generation, and multi-strategy scoring over a network twin.
package optimize

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/railvision/dispatch/internal/twin"
)

// ConflictTypeSectionCapacity is the only conflict type the detector
// currently emits: two arrivals at one destination inside the required
// safety buffer.
const ConflictTypeSectionCapacity = "SectionCapacityConflict"

// Severity labels ordered from least to most urgent.
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// Buffer rule constants (minutes).
const (
	baseBuffer             = 10
	expressPairBuffer      = 8
	goodsBuffer            = 20
	weatherBufferBonus     = 5
	maintenanceBufferBonus = 10
)

// EnvironmentalFactors flags the operating conditions behind a conflict.
type EnvironmentalFactors struct {
	WeatherImpact    bool `json:"weather_impact"`
	TrackMaintenance bool `json:"track_maintenance"`
}

// Conflict is one detected section-capacity violation between two
// consecutive arrivals.
type Conflict struct {
	ConflictID            string               `json:"conflict_id"`
	Type                  string               `json:"type"`
	Location              string               `json:"location"`
	AffectedTrains        []string             `json:"affected_trains"`
	TrainDetails          []twin.TrainETA      `json:"train_details"`
	TimeGapMinutes        float64              `json:"time_gap_minutes"`
	RequiredBufferMinutes int                  `json:"required_buffer_minutes"`
	Severity              string               `json:"severity"`
	EnvironmentalFactors  EnvironmentalFactors `json:"environmental_factors"`
	Details               string               `json:"details"`
}

// Detector projects arrivals and flags pairs closer than the dynamic
// safety buffer. Horizon and conflict cap are configuration.
type Detector struct {
	// HorizonMins is the advisory projection window; ETAs beyond
	// now + horizon are skipped. Zero disables the filter.
	HorizonMins int
	// MaxConflicts caps the emitted conflicts per call. Zero means
	// unlimited.
	MaxConflicts int
}

// DefaultHorizonMins is the projection window used when none is configured.
const DefaultHorizonMins = 60

// NewDetector returns a detector with the default 60-minute horizon.
func NewDetector() Detector {
	return Detector{HorizonMins: DefaultHorizonMins}
}

// Detect scans the twin's ETA projections for section-capacity conflicts.
// Fewer than two projectable trains can never conflict.
func (d Detector) Detect(n *twin.Network, now time.Time) []Conflict {
	etas := n.TrainETAs()
	if d.HorizonMins > 0 {
		cutoff := now.Add(time.Duration(d.HorizonMins) * time.Minute)
		filtered := etas[:0]
		for _, eta := range etas {
			if !eta.ETA.After(cutoff) {
				filtered = append(filtered, eta)
			}
		}
		etas = filtered
	}
	if len(etas) < 2 {
		return nil
	}

	byDestination := make(map[string][]twin.TrainETA)
	for _, eta := range etas {
		byDestination[eta.Destination] = append(byDestination[eta.Destination], eta)
	}

	destinations := make([]string, 0, len(byDestination))
	for dest := range byDestination {
		destinations = append(destinations, dest)
	}
	sort.Strings(destinations)

	var conflicts []Conflict
	for _, dest := range destinations {
		arriving := byDestination[dest]
		if len(arriving) < 2 {
			continue
		}
		sort.Slice(arriving, func(i, j int) bool {
			if !arriving[i].ETA.Equal(arriving[j].ETA) {
				return arriving[i].ETA.Before(arriving[j].ETA)
			}
			return arriving[i].TrainID < arriving[j].TrainID
		})

		for i := 0; i < len(arriving)-1; i++ {
			first, second := arriving[i], arriving[i+1]
			buffer := requiredBuffer(first, second)
			gap := second.ETA.Sub(first.ETA).Minutes()
			if gap >= float64(buffer) {
				continue
			}
			conflict := Conflict{
				ConflictID:            fmt.Sprintf("C_%s_%s", dest, now.Format("150405")),
				Type:                  ConflictTypeSectionCapacity,
				Location:              dest,
				AffectedTrains:        []string{first.TrainID, second.TrainID},
				TrainDetails:          []twin.TrainETA{first, second},
				TimeGapMinutes:        math.Round(gap*10) / 10,
				RequiredBufferMinutes: buffer,
				Severity:              severity(first, second, gap, buffer),
				EnvironmentalFactors: EnvironmentalFactors{
					WeatherImpact:    first.Weather != "Clear" || second.Weather != "Clear",
					TrackMaintenance: first.TrackCondition == "Maintenance" || second.TrackCondition == "Maintenance",
				},
				Details: fmt.Sprintf("Trains %s and %s will arrive at %s within %.1f minutes (need %d min buffer).",
					first.TrainName, second.TrainName, dest, gap, buffer),
			}
			conflicts = append(conflicts, conflict)
			log.Printf("Conflict detected: %s", conflict.Details)
			if d.MaxConflicts > 0 && len(conflicts) >= d.MaxConflicts {
				return conflicts
			}
		}
	}
	return conflicts
}

// requiredBuffer computes the dynamic minimum gap between two consecutive
// arrivals. Rules apply in order: express pair, goods presence, then
// weather and maintenance additions.
func requiredBuffer(a, b twin.TrainETA) int {
	buffer := baseBuffer
	if a.TrainType == twin.TrainTypeExpress && b.TrainType == twin.TrainTypeExpress {
		buffer = expressPairBuffer
	}
	if a.TrainType == twin.TrainTypeGoods || b.TrainType == twin.TrainTypeGoods {
		buffer = goodsBuffer
	}
	if badWeather(a.Weather) || badWeather(b.Weather) {
		buffer += weatherBufferBonus
	}
	if a.TrackCondition == "Maintenance" || b.TrackCondition == "Maintenance" {
		buffer += maintenanceBufferBonus
	}
	return buffer
}

func badWeather(w string) bool {
	return w == "Rain" || w == "Fog"
}

func peakSlot(timeOfDay string) bool {
	return timeOfDay == "Morning_Peak" || timeOfDay == "Evening_Peak"
}

// severity scores the conflict on gap tightness, train priority, and
// operating conditions, then maps the total to a label.
func severity(a, b twin.TrainETA, gap float64, buffer int) string {
	score := 1
	switch {
	case gap < float64(buffer)*0.3:
		score = 3
	case gap < float64(buffer)*0.6:
		score = 2
	}
	if a.Priority <= 2 || b.Priority <= 2 {
		score++
	}
	if a.Weather != "Clear" || b.Weather != "Clear" {
		score++
	}
	if a.TrackCondition == "Maintenance" || b.TrackCondition == "Maintenance" {
		score++
	}
	if peakSlot(a.TimeOfDay) || peakSlot(b.TimeOfDay) {
		score++
	}

	switch {
	case score >= 5:
		return SeverityCritical
	case score >= 3:
		return SeverityHigh
	case score >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
