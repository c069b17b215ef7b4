package topology

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
)

// Document is the wire form of a topology file.
type Document struct {
	Stations          map[string]Station  `json:"stations"`
	Tracks            map[string]Track    `json:"tracks"`
	RouteAlternatives map[string][]string `json:"route_alternatives,omitempty"`
}

// Attribute defaults applied when a topology file omits optional track
// fields. These match the values downstream cost functions assume.
const (
	defaultTravelTimeMinutes = 30
	defaultDistanceKm        = 20
	defaultCapacityPerHour   = 4
	defaultMaxSpeedKmh       = 80
)

// Load reads a topology file from disk and builds the graph. A load failure
// is fatal at network construction; callers wanting the demo fallback use
// Minimal explicitly.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open topology file: %w", err)
	}
	defer f.Close()

	g, err := FromReader(f)
	if err != nil {
		return nil, fmt.Errorf("load topology %s: %w", path, err)
	}
	log.Printf("Topology loaded: %d stations, %d tracks", g.StationCount(), g.TrackCount())
	return g, nil
}

// FromReader parses a topology document and builds the graph.
func FromReader(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument builds a graph from an in-memory topology document,
// validating track endpoints and filling attribute defaults.
func FromDocument(doc Document) (*Graph, error) {
	if len(doc.Stations) == 0 {
		return nil, fmt.Errorf("topology has no stations")
	}

	stations := make(map[string]*Station, len(doc.Stations))
	for code, s := range doc.Stations {
		st := s
		st.Code = code
		stations[code] = &st
	}

	tracks := make(map[string]*Track, len(doc.Tracks))
	for id, t := range doc.Tracks {
		tr := t
		tr.ID = id
		if tr.From == "" || tr.To == "" {
			return nil, fmt.Errorf("track %s: missing endpoint", id)
		}
		if _, ok := stations[tr.From]; !ok {
			return nil, fmt.Errorf("track %s: unknown station %q", id, tr.From)
		}
		if _, ok := stations[tr.To]; !ok {
			return nil, fmt.Errorf("track %s: unknown station %q", id, tr.To)
		}
		applyTrackDefaults(&tr)
		tracks[id] = &tr
	}

	g := New(stations, tracks)
	if doc.RouteAlternatives != nil {
		g.routeAlternatives = doc.RouteAlternatives
	}
	return g, nil
}

func applyTrackDefaults(t *Track) {
	if t.Status == "" {
		t.Status = StatusOperational
	}
	if t.TravelTimeMinutes == 0 {
		t.TravelTimeMinutes = defaultTravelTimeMinutes
	}
	if t.DistanceKm == 0 {
		t.DistanceKm = defaultDistanceKm
	}
	if t.TrackType == "" {
		t.TrackType = TrackTypeSingleLine
	}
	if t.CapacityTrainsPerHour == 0 {
		t.CapacityTrainsPerHour = defaultCapacityPerHour
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.MaxSpeedKmh == 0 {
		t.MaxSpeedKmh = defaultMaxSpeedKmh
	}
}

// Document serialises the graph back to its wire form, preserving current
// track status. Reloading the result yields an equal adjacency list.
func (g *Graph) Document() Document {
	doc := Document{
		Stations:          make(map[string]Station, len(g.stations)),
		Tracks:            make(map[string]Track, len(g.tracks)),
		RouteAlternatives: g.routeAlternatives,
	}
	for code, s := range g.stations {
		doc.Stations[code] = *s
	}
	for id, t := range g.tracks {
		doc.Tracks[id] = *t
	}
	return doc
}

// Minimal returns the 3-station, 2-track demo fallback topology. It is
// substituted only when demo mode is explicitly requested.
func Minimal() *Graph {
	doc := Document{
		Stations: map[string]Station{
			"NDLS": {Name: "New Delhi", Type: "terminal", Platforms: 16},
			"ANVR": {Name: "Anand Vihar", Type: "junction", Platforms: 8},
			"GZB":  {Name: "Ghaziabad", Type: "junction", Platforms: 10},
		},
		Tracks: map[string]Track{
			"NDLS_ANVR": {From: "NDLS", To: "ANVR", TravelTimeMinutes: 25, Status: StatusOperational},
			"ANVR_GZB":  {From: "ANVR", To: "GZB", TravelTimeMinutes: 30, Status: StatusOperational},
		},
	}
	g, err := FromDocument(doc)
	if err != nil {
		// The fallback document is static and always valid.
		panic(fmt.Sprintf("minimal topology: %v", err))
	}
	return g
}
