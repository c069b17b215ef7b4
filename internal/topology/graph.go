package topology

import (
	"log"
	"sort"
	"time"
)

// Graph owns the stations and directed track edges of the network and keeps
// an adjacency list of operational edges for O(1) neighbour access. The
// adjacency list is rebuilt on every track status change.
//
// Graph itself is not goroutine-safe; the owning Network serialises all
// mutations (see twin.Network).
type Graph struct {
	stations  map[string]*Station
	tracks    map[string]*Track
	adjacency map[string][]Neighbor

	// Optional routing hints from the topology file. Carried through
	// snapshots but never required.
	routeAlternatives map[string][]string

	now func() time.Time
}

// New builds a graph from already-validated stations and tracks. Reverse
// travel exists only where an explicit reverse track is defined.
func New(stations map[string]*Station, tracks map[string]*Track) *Graph {
	g := &Graph{
		stations:          stations,
		tracks:            tracks,
		routeAlternatives: make(map[string][]string),
		now:               time.Now,
	}
	g.rebuildAdjacency()
	return g
}

// rebuildAdjacency recomputes the station → outgoing-edges map. Only
// operational tracks are visible; a disabled edge disappears from
// neighbour iteration until re-enabled.
func (g *Graph) rebuildAdjacency() {
	adj := make(map[string][]Neighbor, len(g.stations))
	for code := range g.stations {
		adj[code] = nil
	}

	ids := make([]string, 0, len(g.tracks))
	for id := range g.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic neighbour order

	for _, id := range ids {
		t := g.tracks[id]
		if !t.Operational() {
			continue
		}
		if _, ok := g.stations[t.From]; !ok {
			continue
		}
		adj[t.From] = append(adj[t.From], Neighbor{To: t.To, TrackID: id, Track: t})
	}
	g.adjacency = adj
}

// Station returns the station with the given code.
func (g *Graph) Station(code string) (*Station, bool) {
	s, ok := g.stations[code]
	return s, ok
}

// HasStation reports whether the station code exists in the topology.
func (g *Graph) HasStation(code string) bool {
	_, ok := g.stations[code]
	return ok
}

// Track returns the track with the given id.
func (g *Graph) Track(id string) (*Track, bool) {
	t, ok := g.tracks[id]
	return t, ok
}

// Stations returns all station codes in sorted order.
func (g *Graph) Stations() []string {
	codes := make([]string, 0, len(g.stations))
	for code := range g.stations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Tracks returns all track ids in sorted order.
func (g *Graph) Tracks() []string {
	ids := make([]string, 0, len(g.tracks))
	for id := range g.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TrackCount returns the number of tracks in the topology.
func (g *Graph) TrackCount() int { return len(g.tracks) }

// StationCount returns the number of stations in the topology.
func (g *Graph) StationCount() int { return len(g.stations) }

// Neighbors returns the operational outgoing edges of a station.
func (g *Graph) Neighbors(code string) []Neighbor {
	return g.adjacency[code]
}

// OperationalTrackCount counts tracks currently usable by pathfinding.
func (g *Graph) OperationalTrackCount() int {
	n := 0
	for _, t := range g.tracks {
		if t.Operational() {
			n++
		}
	}
	return n
}

// DisableTrack takes a track out of service, saving its prior status for
// later restoration. Returns false for an unknown track id.
func (g *Graph) DisableTrack(id, reason string) bool {
	t, ok := g.tracks[id]
	if !ok {
		return false
	}
	if t.OriginalStatus == "" {
		t.OriginalStatus = t.Status
	}
	t.Status = StatusDisabled
	t.DisableReason = reason
	at := g.now()
	t.DisabledAt = &at
	g.rebuildAdjacency()
	log.Printf("Track disabled: %s (%s)", id, reason)
	return true
}

// EnableTrack restores a track to its pre-disable status and clears the
// disable metadata. Returns false for an unknown track id.
func (g *Graph) EnableTrack(id string) bool {
	t, ok := g.tracks[id]
	if !ok {
		return false
	}
	if t.OriginalStatus != "" {
		t.Status = t.OriginalStatus
	} else {
		t.Status = StatusOperational
	}
	t.OriginalStatus = ""
	t.DisableReason = ""
	t.DisabledAt = nil
	g.rebuildAdjacency()
	log.Printf("Track enabled: %s", id)
	return true
}

// Clone returns a deep copy of the graph. Stations are immutable after
// load and shared by reference; tracks are copied because status mutates.
func (g *Graph) Clone() *Graph {
	tracks := make(map[string]*Track, len(g.tracks))
	for id, t := range g.tracks {
		cp := *t
		if t.DisabledAt != nil {
			at := *t.DisabledAt
			cp.DisabledAt = &at
		}
		tracks[id] = &cp
	}
	clone := &Graph{
		stations:          g.stations,
		tracks:            tracks,
		routeAlternatives: g.routeAlternatives,
		now:               g.now,
	}
	clone.rebuildAdjacency()
	return clone
}

// SetClock overrides the clock used for disable timestamps. Tests use this
// for deterministic snapshots.
func (g *Graph) SetClock(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}
