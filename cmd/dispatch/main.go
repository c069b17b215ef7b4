package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/railvision/dispatch/internal/config"
	"github.com/railvision/dispatch/internal/journal"
	"github.com/railvision/dispatch/internal/optimize"
	"github.com/railvision/dispatch/internal/pathfind"
	"github.com/railvision/dispatch/internal/server"
	"github.com/railvision/dispatch/internal/topology"
	"github.com/railvision/dispatch/internal/twin"
)

func main() {
	// Load .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := config.Load()

	graph, err := topology.Load(cfg.TopologyFile)
	if err != nil {
		if !cfg.DemoMode {
			log.Fatalf("Failed to load topology %s: %v", cfg.TopologyFile, err)
		}
		log.Printf("Topology %s unavailable (%v), using built-in demo network", cfg.TopologyFile, err)
		graph = topology.Minimal()
	}

	schedule, err := twin.LoadSchedule(cfg.ScheduleFile)
	if err != nil {
		if !cfg.DemoMode {
			log.Fatalf("Failed to load schedule %s: %v", cfg.ScheduleFile, err)
		}
		log.Printf("Schedule %s unavailable (%v), using built-in demo fleet", cfg.ScheduleFile, err)
		schedule = twin.DemoSchedule()
	}

	network := twin.NewNetwork(graph, schedule)
	if cfg.PathfindingStrategy != "" {
		if err := network.SetPathfindingStrategy(pathfind.Strategy(cfg.PathfindingStrategy)); err != nil {
			log.Fatalf("Invalid pathfinding strategy %q: %v", cfg.PathfindingStrategy, err)
		}
	}
	log.Printf("Network twin ready: %d stations, %d tracks, %d trains",
		graph.StationCount(), graph.TrackCount(), network.TrainCount())

	engine := optimize.NewEngine()
	engine.Detector.HorizonMins = cfg.ProjectionHorizonMins
	engine.Detector.MaxConflicts = cfg.MaxConflictsPerCall

	dsn := cfg.SQLiteDatabase
	if cfg.JournalDriver == "postgres" {
		dsn = cfg.DatabaseURL
	}
	jnl, err := journal.Open(cfg.JournalDriver, dsn)
	if err != nil {
		log.Fatalf("Failed to open decision journal (%s): %v", cfg.JournalDriver, err)
	}
	defer jnl.Close()
	if cfg.JournalDriver != "none" {
		log.Printf("Decision journal enabled: %s", cfg.JournalDriver)
	}

	srv := server.New(network, engine, jnl)

	addr := ":" + cfg.Port
	log.Printf("Dispatch API listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Router(cfg.AllowedOrigins)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
