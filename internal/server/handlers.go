package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/railvision/dispatch/internal/journal"
	"github.com/railvision/dispatch/internal/optimize"
	"github.com/railvision/dispatch/internal/twin"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"trains":    s.network.TrainCount(),
		"timestamp": s.now().UTC(),
	})
}

// handleState handles GET /api/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.network.Snapshot())
}

// handleTrains handles GET /api/trains
func (s *Server) handleTrains(w http.ResponseWriter, r *http.Request) {
	snap := s.network.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trains": snap.Trains,
		"count":  len(snap.Trains),
	})
}

// handleTrainByID handles GET /api/trains/{trainID}
func (s *Server) handleTrainByID(w http.ResponseWriter, r *http.Request) {
	trainID := chi.URLParam(r, "trainID")
	snap := s.network.Snapshot()
	status, ok := snap.Trains[trainID]
	if !ok {
		respondError(w, http.StatusNotFound, "Train not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// handleNetworkStatus handles GET /api/network-status
func (s *Server) handleNetworkStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.network.TopologyStatus())
}

// handleSystemInfo handles GET /api/system-info
func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategies":         optimize.BuiltinStrategies(),
		"priority_weights":   optimize.DefaultPriorityWeights,
		"action_penalties":   optimize.DefaultActionPenalties,
		"projection_horizon": s.engine.Detector.HorizonMins,
		"max_conflicts":      s.engine.Detector.MaxConflicts,
		"trains":             s.network.TrainCount(),
	})
}

// handleRecommendations handles GET /api/recommendations: every strategy
// is evaluated against the current state without mutating it.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	results := s.engine.RunAllStrategies(s.network, now)
	for _, res := range results {
		if res.Recommendation != nil {
			s.record(r, journal.KindRecommendation, res.Recommendation)
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"timestamp": now.UTC(),
	})
}

// handleReportEvent handles POST /api/report-event: the event is applied
// to the live twin, then every strategy produces its recommendation.
func (s *Server) handleReportEvent(w http.ResponseWriter, r *http.Request) {
	var ev twin.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid event payload", err)
		return
	}

	if err := s.network.ApplyEvent(ev); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, twin.ErrUnknownTrain) || errors.Is(err, twin.ErrUnknownTrack) {
			status = http.StatusNotFound
		}
		respondError(w, status, "Failed to apply event", err)
		return
	}
	s.record(r, journal.KindEvent, ev)

	now := s.now()
	results := s.engine.RunAllStrategies(s.network, now)
	for _, res := range results {
		if res.Recommendation != nil {
			s.record(r, journal.KindRecommendation, res.Recommendation)
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"event":     ev,
		"results":   results,
		"state":     s.network.Snapshot(),
		"timestamp": now.UTC(),
	})
}

type trackRequest struct {
	TrackID string `json:"track_id"`
	Reason  string `json:"reason,omitempty"`
}

// handleTrackFailure handles POST /api/track-failure
func (s *Server) handleTrackFailure(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}
	ev := twin.Event{EventType: twin.EventTrackFailure, TrackID: req.TrackID, Description: req.Reason}
	if err := s.network.ApplyEvent(ev); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, twin.ErrUnknownTrack) {
			status = http.StatusNotFound
		}
		respondError(w, status, "Failed to apply track failure", err)
		return
	}
	s.record(r, journal.KindEvent, ev)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"track_id": req.TrackID,
		"topology": s.network.TopologyStatus(),
	})
}

// handleTrackRepair handles POST /api/track-repair
func (s *Server) handleTrackRepair(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}
	ev := twin.Event{EventType: twin.EventTrackRepair, TrackID: req.TrackID}
	if err := s.network.ApplyEvent(ev); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, twin.ErrUnknownTrack) {
			status = http.StatusNotFound
		}
		respondError(w, status, "Failed to apply track repair", err)
		return
	}
	s.record(r, journal.KindEvent, ev)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"track_id": req.TrackID,
		"topology": s.network.TopologyStatus(),
	})
}

type recalcRequest struct {
	TrainIDs []string `json:"train_ids"`
}

// handleRecalculateRoutes handles POST /api/recalculate-routes: the listed
// trains get fresh primary and alternative routes under the current track
// status.
func (s *Server) handleRecalculateRoutes(w http.ResponseWriter, r *http.Request) {
	var req recalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}
	if len(req.TrainIDs) == 0 {
		respondError(w, http.StatusBadRequest, "train_ids is required", nil)
		return
	}
	respondJSON(w, http.StatusOK, s.network.RecalculateRoutes(req.TrainIDs))
}

// handleAcceptRecommendation handles POST /api/accept-recommendation: the
// chosen action is applied to the live twin.
func (s *Server) handleAcceptRecommendation(w http.ResponseWriter, r *http.Request) {
	var action twin.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid action payload", err)
		return
	}

	if err := s.network.ApplyAction(action); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, twin.ErrUnknownTrain):
			status = http.StatusNotFound
		case errors.Is(err, twin.ErrInvalidAction):
			status = http.StatusBadRequest
		}
		respondError(w, status, "Failed to apply action", err)
		return
	}
	s.record(r, journal.KindAction, action)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"applied": action,
		"state":   s.network.Snapshot(),
	})
}

// handleReset handles POST /api/reset: the twin is rebuilt from the
// initial schedule and all disabled tracks are restored.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.network.Reset()
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "reset",
		"state":  s.network.Snapshot(),
	})
}

// handleScheduleExport handles GET /api/schedule/export
func (s *Server) handleScheduleExport(w http.ResponseWriter, r *http.Request) {
	records := s.network.ExportSchedule()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedule":    records,
		"count":       len(records),
		"exported_at": s.now().UTC(),
	})
}

// handleJournal handles GET /api/journal
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := s.journal.Recent(r.Context(), 50)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read journal", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// record writes a journal entry. Journal failures must not break request
// handling, so they are only logged.
func (s *Server) record(r *http.Request, kind string, payload any) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.journal.Record(ctx, kind, payload); err != nil {
		log.Printf("Failed to record %s journal entry: %v", kind, err)
	}
}
