package optimize

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/railvision/dispatch/internal/twin"
)

// Result statuses.
const (
	StatusConflictFound = "ConflictFound"
	StatusNoConflict    = "NoConflict"
	StatusNoSolution    = "NoSolution"
)

// Recommendation is the selected best action with its rationale.
type Recommendation struct {
	RecommendationID   string   `json:"recommendation_id"`
	Action             Solution `json:"action"`
	Score              float64  `json:"score"`
	Confidence         string   `json:"confidence"`
	RecommendationText string   `json:"recommendation_text"`
	Reasoning          string   `json:"reasoning"`
}

// BenefitsDrawbacks is the human-readable trade-off summary for a
// recommendation under one strategy.
type BenefitsDrawbacks struct {
	Benefits  []string `json:"benefits"`
	Drawbacks []string `json:"drawbacks"`
}

// StrategyResult is the outcome of one strategy evaluation.
type StrategyResult struct {
	Status              string            `json:"status"`
	Strategy            string            `json:"strategy"`
	StrategyName        string            `json:"strategy_name"`
	StrategyDescription string            `json:"strategy_description"`
	ConflictInfo        *Conflict         `json:"conflict_info,omitempty"`
	Recommendation      *Recommendation   `json:"recommendation"`
	TotalConflicts      int               `json:"total_conflicts"`
	BenefitsDrawbacks   BenefitsDrawbacks `json:"benefits_drawbacks"`
	Message             string            `json:"message,omitempty"`
}

// Engine orchestrates detection, generation, and scoring. The engine only
// ever resolves the first detected conflict per invocation; later
// conflicts surface in the count.
type Engine struct {
	Detector   Detector
	Scorer     *Scorer
	Strategies []Strategy
}

// NewEngine returns an engine with the default detector, scorer, and the
// three built-in strategies.
func NewEngine() *Engine {
	return &Engine{
		Detector:   NewDetector(),
		Scorer:     NewScorer(),
		Strategies: BuiltinStrategies(),
	}
}

// RunStrategy evaluates one strategy against a deep copy of the network,
// so preview mutations never touch the live twin.
func (e *Engine) RunStrategy(n *twin.Network, strategy Strategy, now time.Time) StrategyResult {
	return e.runOnCopy(n.Clone(), strategy, now)
}

// RunAllStrategies evaluates every configured strategy, each on its own
// deep copy. The per-strategy evaluations are independent and run in
// parallel.
func (e *Engine) RunAllStrategies(n *twin.Network, now time.Time) []StrategyResult {
	results := make([]StrategyResult, len(e.Strategies))
	var wg sync.WaitGroup
	for i, strategy := range e.Strategies {
		sim := n.Clone()
		wg.Add(1)
		go func(i int, strategy Strategy, sim *twin.Network) {
			defer wg.Done()
			results[i] = e.runOnCopy(sim, strategy, now)
		}(i, strategy, sim)
	}
	wg.Wait()
	return results
}

// runOnCopy executes the detect → generate → score pipeline on a network
// the engine owns. The winning action is applied to the copy as a preview.
func (e *Engine) runOnCopy(sim *twin.Network, strategy Strategy, now time.Time) StrategyResult {
	result := StrategyResult{
		Status:              StatusNoConflict,
		Strategy:            strategy.Key,
		StrategyName:        strategy.Name,
		StrategyDescription: strategy.Description,
	}

	conflicts := e.Detector.Detect(sim, now)
	if len(conflicts) == 0 {
		result.Message = "No conflicts detected. All trains are running smoothly."
		return result
	}

	primary := conflicts[0]
	result.ConflictInfo = &primary
	result.TotalConflicts = len(conflicts)

	solutions := GenerateSolutions(primary, sim)
	if len(solutions) == 0 {
		result.Status = StatusNoSolution
		result.Message = "Conflict detected but no viable solutions found."
		return result
	}

	best, bestScore, scores := e.selectBest(solutions, sim, strategy.Weights)
	if best == nil {
		result.Status = StatusNoSolution
		result.Message = "Conflict detected but no viable solutions found."
		return result
	}

	bestTrain, _ := sim.Train(best.TrainID)
	rec := &Recommendation{
		RecommendationID:   fmt.Sprintf("R_%s", now.Format("150405")),
		Action:             *best,
		Score:              bestScore,
		Confidence:         Confidence(scores),
		RecommendationText: recommendationText(*best, bestTrain.Name()),
		Reasoning:          reasoning(*best, bestTrain.Priority, bestScore),
	}
	result.Status = StatusConflictFound
	result.Recommendation = rec
	result.BenefitsDrawbacks = benefitsDrawbacks(strategy, *best)

	// Preview: apply the winner to the copy so downstream consumers can
	// inspect the post-action state without touching the live twin.
	if err := sim.ApplyAction(best.Action()); err != nil {
		log.Printf("Strategy %s: preview apply failed: %v", strategy.Key, err)
	}
	return result
}

// selectBest scores every candidate and returns the argmin.
func (e *Engine) selectBest(solutions []Solution, sim *twin.Network, w Weights) (*Solution, float64, []float64) {
	var best *Solution
	bestScore := 0.0
	var scores []float64
	for i := range solutions {
		t, ok := sim.Train(solutions[i].TrainID)
		if !ok {
			continue
		}
		score := e.Scorer.Score(solutions[i], t, w)
		scores = append(scores, score)
		if best == nil || score < bestScore {
			best = &solutions[i]
			bestScore = score
		}
	}
	return best, bestScore, scores
}

func recommendationText(action Solution, trainName string) string {
	switch action.ActionType {
	case twin.ActionHalt:
		return fmt.Sprintf("Halt %s for %d minutes to resolve the section conflict.", trainName, action.DurationMins)
	case twin.ActionReroute:
		return fmt.Sprintf("Reroute %s to an alternative route.", trainName)
	case twin.ActionSpeedAdjust:
		return fmt.Sprintf("Reduce the speed of %s to restore the arrival buffer.", trainName)
	case twin.ActionCancel:
		return fmt.Sprintf("Temporarily cancel %s and reschedule it later.", trainName)
	default:
		return fmt.Sprintf("Apply %s action to %s.", action.ActionType, trainName)
	}
}

func reasoning(action Solution, priority int, score float64) string {
	priorityDesc := map[int]string{1: "highest", 2: "high", 3: "medium", 4: "low", 5: "lowest"}
	desc, ok := priorityDesc[priority]
	if !ok {
		desc = "unknown"
	}
	return fmt.Sprintf(
		"This solution was selected because it has the lowest impact score (%.2f). "+
			"The affected train has %s priority (level %d), making this action optimal for minimising overall network disruption.",
		score, desc, priority)
}

// benefitsDrawbacks derives the trade-off prose from the strategy profile
// and the chosen action.
func benefitsDrawbacks(strategy Strategy, action Solution) BenefitsDrawbacks {
	var bd BenefitsDrawbacks

	switch strategy.Key {
	case StrategyPunctuality:
		bd.Benefits = append(bd.Benefits,
			"Passenger services keep their schedules",
			"Connections at downstream junctions are protected")
		bd.Drawbacks = append(bd.Drawbacks,
			"Freight traffic absorbs most of the disruption")
	case StrategyThroughput:
		bd.Benefits = append(bd.Benefits,
			"Overall network flow is maximised",
			"Section capacity is recovered quickly")
		bd.Drawbacks = append(bd.Drawbacks,
			"Individual passenger services may see longer delays")
	}

	switch action.ActionType {
	case twin.ActionHalt:
		if action.DurationMins > 30 {
			bd.Drawbacks = append(bd.Drawbacks,
				fmt.Sprintf("A %d-minute halt is a significant service interruption", action.DurationMins))
		} else {
			bd.Benefits = append(bd.Benefits,
				fmt.Sprintf("A short %d-minute halt resolves the conflict with minimal knock-on effects", action.DurationMins))
		}
	case twin.ActionReroute:
		bd.Benefits = append(bd.Benefits, "The train keeps moving instead of waiting")
		bd.Drawbacks = append(bd.Drawbacks,
			fmt.Sprintf("The alternative route adds %d minutes of travel time", action.DurationMins))
	case twin.ActionSpeedAdjust:
		bd.Benefits = append(bd.Benefits, "Buffer is restored without stopping the train")
	case twin.ActionCancel:
		bd.Drawbacks = append(bd.Drawbacks,
			"Passengers and consignments must be rebooked",
			"Cancellations carry a reputation cost")
	}
	return bd
}
