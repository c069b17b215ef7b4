package optimize

// Weights is a strategy's multiplier profile. Train-type multipliers scale
// the priority weight; action multipliers scale the base action cost;
// PeakHour scales the whole score for peak-slot trains.
type Weights struct {
	ExpressPriority   float64 `json:"express_priority"`
	PassengerPriority float64 `json:"passenger_priority"`
	GoodsPriority     float64 `json:"goods_priority"`
	HaltPenalty       float64 `json:"halt_penalty"`
	ReroutePenalty    float64 `json:"reroute_penalty"`
	CancelPenalty     float64 `json:"cancel_penalty"`
	PeakHour          float64 `json:"peak_hour"`
}

// Strategy is a named weight profile controlling the scorer's trade-off
// between passenger punctuality and freight throughput.
type Strategy struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weights     Weights `json:"weights"`
}

// Built-in strategy keys.
const (
	StrategyBalanced    = "balanced"
	StrategyPunctuality = "punctuality"
	StrategyThroughput  = "throughput"
)

// BuiltinStrategies returns the three built-in weight profiles.
func BuiltinStrategies() []Strategy {
	return []Strategy{
		{
			Key:         StrategyBalanced,
			Name:        "Balanced Operations",
			Description: "Equal weighting of passenger service and network throughput.",
			Weights: Weights{
				ExpressPriority:   1.0,
				PassengerPriority: 1.0,
				GoodsPriority:     1.0,
				HaltPenalty:       1.0,
				ReroutePenalty:    1.0,
				CancelPenalty:     1.0,
				PeakHour:          1.0,
			},
		},
		{
			Key:         StrategyPunctuality,
			Name:        "Punctuality First",
			Description: "Protects passenger schedules; freight absorbs the disruption.",
			Weights: Weights{
				ExpressPriority:   0.6,
				PassengerPriority: 0.7,
				GoodsPriority:     1.5,
				HaltPenalty:       1.3,
				ReroutePenalty:    0.8,
				CancelPenalty:     0.9,
				PeakHour:          0.5,
			},
		},
		{
			Key:         StrategyThroughput,
			Name:        "Throughput First",
			Description: "Maximises trains moved; individual services may wait.",
			Weights: Weights{
				ExpressPriority:   1.3,
				PassengerPriority: 1.2,
				GoodsPriority:     0.5,
				HaltPenalty:       0.8,
				ReroutePenalty:    1.1,
				CancelPenalty:     1.0,
				PeakHour:          1.2,
			},
		},
	}
}

// StrategyByKey returns the built-in strategy with the given key.
func StrategyByKey(key string) (Strategy, bool) {
	for _, s := range BuiltinStrategies() {
		if s.Key == key {
			return s, true
		}
	}
	return Strategy{}, false
}
