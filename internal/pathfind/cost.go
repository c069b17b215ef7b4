package pathfind

import (
	"math"

	"github.com/railvision/dispatch/internal/topology"
)

// Criterion selects the per-edge cost function.
type Criterion string

const (
	CriterionTime        Criterion = "time"
	CriterionDistance    Criterion = "distance"
	CriterionReliability Criterion = "reliability"
)

// Train types that adjust edge costs. Duplicated here as plain strings so
// pathfind does not depend on the twin package.
const (
	trainTypeExpress = "Express"
	trainTypeGoods   = "Goods"
)

// Reliability penalties and train-type adjustments.
const (
	singleLinePenalty   = 1.5
	lowPriorityPenalty  = 1.3
	expressSlowPenalty  = 1.2
	goodsSingleDiscount = 0.9
	expressSpeedFloor   = 100 // km/h below which express trains are penalised
)

// edgeCost computes the cost of traversing one track under a criterion,
// with multiplicative train-type adjustments.
func edgeCost(t *topology.Track, criterion Criterion, trainType string) float64 {
	var cost float64
	switch criterion {
	case CriterionDistance:
		cost = t.DistanceKm
	case CriterionReliability:
		cost = float64(t.TravelTimeMinutes)
		if t.TrackType == topology.TrackTypeSingleLine {
			cost *= singleLinePenalty
		}
		if t.Priority == topology.PriorityLow {
			cost *= lowPriorityPenalty
		}
	default: // time
		cost = float64(t.TravelTimeMinutes)
	}

	switch trainType {
	case trainTypeExpress:
		if t.MaxSpeedKmh < expressSpeedFloor {
			cost *= expressSlowPenalty
		}
	case trainTypeGoods:
		if t.TrackType == topology.TrackTypeSingleLine {
			cost *= goodsSingleDiscount
		}
	}
	return cost
}

// heuristic estimates remaining cost between two stations for Greedy and
// A* as scaled Euclidean distance over coordinates. Stations without
// coordinates are unrankable and get +Inf.
func (p *Pathfinder) heuristic(from, to string) float64 {
	a, okA := p.graph.Station(from)
	b, okB := p.graph.Station(to)
	if !okA || !okB || a.Coordinates == nil || b.Coordinates == nil {
		return math.Inf(1)
	}
	dLat := a.Coordinates.Lat - b.Coordinates.Lat
	dLon := a.Coordinates.Lon - b.Coordinates.Lon
	return math.Sqrt(dLat*dLat+dLon*dLon) * 100
}

// Route-ranking penalties, independent of the per-edge criterion.
const (
	complexRoutePenalty   = 10 // routes with more than two segments
	singleLineSegPenalty  = 5  // per single-line segment
	complexRouteThreshold = 2
)

// routeCost ranks a candidate route for alternative selection: total travel
// time plus complexity and single-line penalties.
func routeCost(segments []RouteSegment) float64 {
	var cost float64
	singles := 0
	for _, seg := range segments {
		cost += float64(seg.TravelTimeMinutes)
		if seg.TrackType == topology.TrackTypeSingleLine {
			singles++
		}
	}
	if len(segments) > complexRouteThreshold {
		cost += complexRoutePenalty
	}
	cost += float64(singles) * singleLineSegPenalty
	return cost
}
