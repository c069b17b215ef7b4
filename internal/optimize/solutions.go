package optimize

import (
	"fmt"
	"log"

	"github.com/railvision/dispatch/internal/pathfind"
	"github.com/railvision/dispatch/internal/twin"
)

// EnvironmentalAdjustment carries the condition surcharges attached to a
// candidate solution and folded into its score.
type EnvironmentalAdjustment struct {
	WeatherFactor int `json:"weather_factor"`
	TrackFactor   int `json:"track_factor"`
	TimeFactor    int `json:"time_factor"`
}

// Solution is one candidate remediation for a conflict.
type Solution struct {
	SolutionID              string                  `json:"solution_id"`
	ActionType              string                  `json:"action_type"`
	TrainID                 string                  `json:"train_id"`
	DurationMins            int                     `json:"duration_mins"`
	Description             string                  `json:"description"`
	RouteIndex              *int                    `json:"route_index,omitempty"`
	AlternativeRoute        *pathfind.Summary       `json:"alternative_route,omitempty"`
	EnvironmentalAdjustment EnvironmentalAdjustment `json:"environmental_adjustment"`
}

// Action converts a candidate into the envelope ApplyAction accepts.
func (s Solution) Action() twin.Action {
	return twin.Action{
		ActionType:   s.ActionType,
		TrainID:      s.TrainID,
		DurationMins: s.DurationMins,
		RouteIndex:   s.RouteIndex,
		Description:  s.Description,
	}
}

// GenerateSolutions produces candidate actions for every train involved in
// the conflict, gated on train type and priority.
func GenerateSolutions(conflict Conflict, n *twin.Network) []Solution {
	var solutions []Solution
	buffer := conflict.RequiredBufferMinutes

	for _, trainID := range conflict.AffectedTrains {
		t, ok := n.Train(trainID)
		if !ok {
			continue
		}

		for _, duration := range haltDurations(t, buffer) {
			solutions = append(solutions, Solution{
				SolutionID:              fmt.Sprintf("HALT_%s_%d", trainID, duration),
				ActionType:              twin.ActionHalt,
				TrainID:                 trainID,
				DurationMins:            duration,
				Description:             fmt.Sprintf("Halt %s for %d minutes", t.Name(), duration),
				EnvironmentalAdjustment: environmentalAdjustment(t),
			})
		}

		// Express trains running at top priority can trade speed for
		// separation instead of stopping.
		if t.Type == twin.TrainTypeExpress && t.Priority <= 2 {
			solutions = append(solutions, Solution{
				SolutionID:              fmt.Sprintf("SPEED_ADJUST_%s", trainID),
				ActionType:              twin.ActionSpeedAdjust,
				TrainID:                 trainID,
				DurationMins:            buffer / 2,
				Description:             fmt.Sprintf("Reduce speed of %s to create %d min buffer", t.Name(), buffer/2),
				EnvironmentalAdjustment: environmentalAdjustment(t),
			})
		}

		if (t.Type == twin.TrainTypeGoods || t.Type == twin.TrainTypeLocal || t.Priority >= 4) && len(t.AlternativeRoutes) > 0 {
			for i, alt := range t.AlternativeRoutes {
				currentTime := 0
				if t.CurrentRoute != nil {
					currentTime = t.CurrentRoute.TotalTimeMins
				}
				additional := alt.TotalTimeMins - currentTime
				if additional < 0 {
					additional = 0
				}
				index := i
				summary := alt.Summarize()
				solutions = append(solutions, Solution{
					SolutionID:              fmt.Sprintf("REROUTE_%s_%d", trainID, i),
					ActionType:              twin.ActionReroute,
					TrainID:                 trainID,
					DurationMins:            additional,
					RouteIndex:              &index,
					AlternativeRoute:        &summary,
					Description:             fmt.Sprintf("Reroute %s via %s route (+%d min)", t.Name(), alt.RouteType, additional),
					EnvironmentalAdjustment: environmentalAdjustment(t),
				})
			}
		}
	}

	// Cancellation is a last resort reserved for the lowest-priority
	// freight.
	for _, trainID := range conflict.AffectedTrains {
		t, ok := n.Train(trainID)
		if !ok {
			continue
		}
		if t.Priority == 5 && t.Type == twin.TrainTypeGoods {
			solutions = append(solutions, Solution{
				SolutionID:              fmt.Sprintf("CANCEL_%s", trainID),
				ActionType:              twin.ActionCancel,
				TrainID:                 trainID,
				DurationMins:            0,
				Description:             fmt.Sprintf("Temporarily cancel %s (reschedule later)", t.Name()),
				EnvironmentalAdjustment: environmentalAdjustment(t),
			})
		}
	}

	log.Printf("Generated %d candidate solutions for conflict %s", len(solutions), conflict.ConflictID)
	return solutions
}

// haltDurations proposes halt lengths for a train given the required
// buffer, stretched under bad weather or track maintenance.
func haltDurations(t *twin.Train, buffer int) []int {
	var durations []int
	switch t.Type {
	case twin.TrainTypeExpress:
		durations = []int{5, 10, buffer}
	case twin.TrainTypePassenger:
		durations = []int{10, 15, buffer + 5}
	case twin.TrainTypeGoods:
		durations = []int{15, 20, 30, buffer + 10}
	default:
		durations = []int{10, 15, 20}
	}

	adjust := 0
	if badWeather(t.Weather) {
		adjust += 5
	}
	if t.TrackCondition == "Maintenance" {
		adjust += 10
	}
	if adjust != 0 {
		for i := range durations {
			durations[i] += adjust
		}
	}
	return durations
}

func environmentalAdjustment(t *twin.Train) EnvironmentalAdjustment {
	adj := EnvironmentalAdjustment{}
	if badWeather(t.Weather) {
		adj.WeatherFactor = 5
	}
	if t.TrackCondition == "Maintenance" {
		adj.TrackFactor = 10
	}
	if t.IsPeak() {
		adj.TimeFactor = -2
	}
	return adj
}
