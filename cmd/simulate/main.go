// Command simulate runs the decision core offline: it loads a topology and
// schedule, applies a batch of disruption events, evaluates the dispatch
// strategies, and prints the results as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/railvision/dispatch/internal/optimize"
	"github.com/railvision/dispatch/internal/topology"
	"github.com/railvision/dispatch/internal/twin"
)

func main() {
	var (
		topologyFile = flag.String("topology", "data/network_topology.json", "network topology JSON file")
		scheduleFile = flag.String("schedule", "data/train_schedules.json", "train schedule JSON file")
		eventsFile   = flag.String("events", "", "optional JSON file with a list of events to apply first")
		strategyKey  = flag.String("strategy", "all", "strategy to evaluate: balanced, punctuality, throughput, or all")
		outFile      = flag.String("out", "", "optional path to persist the post-run schedule")
		horizon      = flag.Int("horizon", optimize.DefaultHorizonMins, "conflict projection horizon in minutes")
		demo         = flag.Bool("demo", true, "fall back to the built-in demo network when files are missing")
	)
	flag.Parse()

	if err := run(*topologyFile, *scheduleFile, *eventsFile, *strategyKey, *outFile, *horizon, *demo); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
}

func run(topologyFile, scheduleFile, eventsFile, strategyKey, outFile string, horizon int, demo bool) error {
	graph, err := topology.Load(topologyFile)
	if err != nil {
		if !demo {
			return fmt.Errorf("load topology: %w", err)
		}
		log.Printf("Topology %s unavailable (%v), using built-in demo network", topologyFile, err)
		graph = topology.Minimal()
	}

	schedule, err := twin.LoadSchedule(scheduleFile)
	if err != nil {
		if !demo {
			return fmt.Errorf("load schedule: %w", err)
		}
		log.Printf("Schedule %s unavailable (%v), using built-in demo fleet", scheduleFile, err)
		schedule = twin.DemoSchedule()
	}

	network := twin.NewNetwork(graph, schedule)

	if eventsFile != "" {
		events, err := loadEvents(eventsFile)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := network.ApplyEvent(ev); err != nil {
				return fmt.Errorf("apply event %s: %w", ev.EventType, err)
			}
		}
		log.Printf("Applied %d events", len(events))
	}

	engine := optimize.NewEngine()
	engine.Detector.HorizonMins = horizon

	now := time.Now()
	var results []optimize.StrategyResult
	if strategyKey == "all" {
		results = engine.RunAllStrategies(network, now)
	} else {
		strategy, ok := optimize.StrategyByKey(strategyKey)
		if !ok {
			return fmt.Errorf("unknown strategy %q", strategyKey)
		}
		results = []optimize.StrategyResult{engine.RunStrategy(network, strategy, now)}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]interface{}{
		"results": results,
		"state":   network.Snapshot(),
	}); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	if outFile != "" {
		if err := twin.WriteSchedule(outFile, network.ExportSchedule()); err != nil {
			return err
		}
		log.Printf("Schedule persisted to %s", outFile)
	}
	return nil
}

func loadEvents(path string) ([]twin.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var events []twin.Event
	if err := json.NewDecoder(f).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode events file: %w", err)
	}
	return events, nil
}
