package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the dispatch service
type Config struct {
	// Input data
	TopologyFile string
	ScheduleFile string
	DemoMode     bool

	// HTTP server
	Port           string
	AllowedOrigins string

	// Decision journal
	JournalDriver  string
	SQLiteDatabase string
	DatabaseURL    string

	// Optimizer tuning
	ProjectionHorizonMins int
	MaxConflictsPerCall   int
	PathfindingStrategy   string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		TopologyFile: getEnv("TOPOLOGY_FILE", "data/network_topology.json"),
		ScheduleFile: getEnv("SCHEDULE_FILE", "data/train_schedules.json"),
		DemoMode:     getEnvBool("DEMO_MODE", true),

		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),

		JournalDriver:  getEnv("JOURNAL_DRIVER", "none"),
		SQLiteDatabase: getEnv("SQLITE_DATABASE", "data/dispatch.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		ProjectionHorizonMins: getEnvInt("PROJECTION_HORIZON_MINS", 60),
		MaxConflictsPerCall:   getEnvInt("MAX_CONFLICTS_PER_CALL", 0),
		PathfindingStrategy:   getEnv("PATHFINDING_STRATEGY", "dijkstra"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
