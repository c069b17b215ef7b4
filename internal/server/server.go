// Package server exposes the decision core over HTTP for dashboards and
// control-room tooling.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/railvision/dispatch/internal/journal"
	"github.com/railvision/dispatch/internal/optimize"
	"github.com/railvision/dispatch/internal/twin"
)

// Server wires the network twin, the optimization engine, and the decision
// journal behind a chi router. All live-state mutation goes through the
// twin's own locking; the server adds a mutex only for reset.
type Server struct {
	mu      sync.Mutex
	network *twin.Network
	engine  *optimize.Engine
	journal journal.Journal
	now     func() time.Time
}

// New creates a server around the given twin and engine. A nil journal
// disables audit logging.
func New(network *twin.Network, engine *optimize.Engine, jnl journal.Journal) *Server {
	if jnl == nil {
		jnl = journal.Nop{}
	}
	return &Server{
		network: network,
		engine:  engine,
		journal: jnl,
		now:     time.Now,
	}
}

// SetClock overrides the time source. Used in tests.
func (s *Server) SetClock(now func() time.Time) {
	s.now = now
	s.network.SetClock(now)
}

// Router builds the HTTP routing table.
func (s *Server) Router(allowedOrigins string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(allowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", s.handleHealth)

	r.Get("/api/state", s.handleState)
	r.Get("/api/trains", s.handleTrains)
	r.Get("/api/trains/{trainID}", s.handleTrainByID)
	r.Get("/api/network-status", s.handleNetworkStatus)
	r.Get("/api/system-info", s.handleSystemInfo)
	r.Get("/api/recommendations", s.handleRecommendations)
	r.Get("/api/schedule/export", s.handleScheduleExport)
	r.Get("/api/journal", s.handleJournal)

	r.Post("/api/report-event", s.handleReportEvent)
	r.Post("/api/track-failure", s.handleTrackFailure)
	r.Post("/api/track-repair", s.handleTrackRepair)
	r.Post("/api/recalculate-routes", s.handleRecalculateRoutes)
	r.Post("/api/accept-recommendation", s.handleAcceptRecommendation)
	r.Post("/api/reset", s.handleReset)

	return r
}

func splitOrigins(allowed string) []string {
	if allowed == "" || allowed == "*" {
		return []string{"*"}
	}
	parts := strings.Split(allowed, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = map[string]interface{}{"internal": err.Error()}
	}
	respondJSON(w, status, resp)
}
