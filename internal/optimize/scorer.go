package optimize

import (
	"math"
	"sort"

	"github.com/railvision/dispatch/internal/twin"
)

// DefaultPriorityWeights maps derived train priority (1 highest) to its
// score multiplier.
var DefaultPriorityWeights = map[int]float64{
	1: 100,
	2: 80,
	3: 50,
	4: 20,
	5: 5,
}

// DefaultActionPenalties are the configurable base penalties exposed via
// system info. The scorer's per-action base costs refine these.
var DefaultActionPenalties = map[string]float64{
	twin.ActionHalt:    1,
	twin.ActionReroute: 20,
	twin.ActionCancel:  100,
}

// Base action costs before profile multipliers.
const (
	haltBaseCost        = 1
	speedAdjustBaseCost = 0.5
	rerouteBaseCost     = 5
	cancelBaseCost      = 50
)

// Duration penalty scaling.
const (
	durationPenaltyPerMin = 0.5
	peakDurationMult      = 1.5
)

// Scorer evaluates candidate solutions; lower scores are better.
type Scorer struct {
	PriorityWeights map[int]float64
	ActionPenalties map[string]float64
}

// NewScorer returns a scorer with the default weight tables.
func NewScorer() *Scorer {
	return &Scorer{
		PriorityWeights: DefaultPriorityWeights,
		ActionPenalties: DefaultActionPenalties,
	}
}

// Score computes a solution's cost under a strategy profile:
//
//	((base action cost × action multiplier) + duration penalty
//	  + weather + track + reroute add-on + time factor)
//	× priority multiplier × peak multiplier
//
// rounded to two decimals.
func (s *Scorer) Score(sol Solution, t *twin.Train, w Weights) float64 {
	actionCost := s.baseActionCost(sol.ActionType) * actionMultiplier(sol.ActionType, w)

	duration := durationPenalty(sol.DurationMins, t)

	env := sol.EnvironmentalAdjustment
	rerouteAddon := 0.0
	if sol.ActionType == twin.ActionReroute {
		rerouteAddon = reroutePenalty(sol, t)
	}

	base := actionCost + duration + float64(env.WeatherFactor) + float64(env.TrackFactor) + rerouteAddon + float64(env.TimeFactor)

	total := base * s.priorityMultiplier(t, w)
	if t.IsPeak() {
		total *= w.PeakHour
	}
	return math.Round(total*100) / 100
}

func (s *Scorer) baseActionCost(actionType string) float64 {
	switch actionType {
	case twin.ActionHalt:
		return haltBaseCost
	case twin.ActionSpeedAdjust:
		return speedAdjustBaseCost
	case twin.ActionReroute:
		return rerouteBaseCost
	case twin.ActionCancel:
		return cancelBaseCost
	default:
		if p, ok := s.ActionPenalties[actionType]; ok {
			return p
		}
		return 1
	}
}

func actionMultiplier(actionType string, w Weights) float64 {
	switch actionType {
	case twin.ActionHalt:
		return w.HaltPenalty
	case twin.ActionReroute:
		return w.ReroutePenalty
	case twin.ActionCancel:
		return w.CancelPenalty
	default:
		// SpeedAdjust carries no profile multiplier.
		return 1
	}
}

// priorityMultiplier combines the priority weight table with the profile's
// train-type multiplier. Local trains carry no profile multiplier.
func (s *Scorer) priorityMultiplier(t *twin.Train, w Weights) float64 {
	base, ok := s.PriorityWeights[t.Priority]
	if !ok {
		base = 50
	}
	mult := 1.0
	switch t.Type {
	case twin.TrainTypeExpress:
		mult = w.ExpressPriority
	case twin.TrainTypePassenger:
		mult = w.PassengerPriority
	case twin.TrainTypeGoods:
		mult = w.GoodsPriority
	}
	return base * mult
}

// durationPenalty charges per minute of disruption, scaled by train type
// and amplified at peak hours.
func durationPenalty(durationMins int, t *twin.Train) float64 {
	scale := 1.0
	switch t.Type {
	case twin.TrainTypeExpress:
		scale = 2.0
	case twin.TrainTypePassenger:
		scale = 1.0
	case twin.TrainTypeLocal:
		scale = 0.6
	case twin.TrainTypeGoods:
		scale = 0.4
	}
	penalty := float64(durationMins) * durationPenaltyPerMin * scale
	if t.IsPeak() {
		penalty *= peakDurationMult
	}
	return penalty
}

// reroutePenalty charges for the characteristics of the chosen alternative
// route: extra distance, extra stops, and route grade, adjusted by train
// type tolerance.
func reroutePenalty(sol Solution, t *twin.Train) float64 {
	if sol.AlternativeRoute == nil {
		return 10
	}
	alt := sol.AlternativeRoute

	penalty := 0.0
	if t.CurrentRoute != nil {
		if extra := alt.TotalDistance - t.CurrentRoute.TotalDistanceKm; extra > 0 {
			penalty += extra * 0.5
		}
	}
	if stations := len(alt.StationList); stations > 3 {
		penalty += float64(stations-3) * 2
	}
	switch alt.RouteType {
	case "emergency":
		penalty += 15
	case "alternative":
		penalty += 5
	}

	switch t.Type {
	case twin.TrainTypeExpress:
		penalty *= 1.5
	case twin.TrainTypeGoods:
		penalty *= 0.7
	}
	return penalty
}

// Confidence grades a recommendation by the margin between the two best
// scores. A single candidate earns Medium.
func Confidence(scores []float64) string {
	if len(scores) <= 1 {
		return "Medium"
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	gap := sorted[1] - sorted[0]
	switch {
	case gap > 50:
		return "High"
	case gap > 20:
		return "Medium"
	default:
		return "Low"
	}
}
