package topology

import (
	"strings"
	"testing"
	"time"
)

func testDocument() Document {
	return Document{
		Stations: map[string]Station{
			"A": {Name: "Alpha", Type: "terminal", Platforms: 4},
			"B": {Name: "Beta", Type: "junction", Platforms: 2},
			"C": {Name: "Gamma", Type: "station", Platforms: 2},
		},
		Tracks: map[string]Track{
			"A_B": {From: "A", To: "B", TravelTimeMinutes: 20, DistanceKm: 15, TrackType: "double_line", Status: StatusOperational},
			"B_C": {From: "B", To: "C", TravelTimeMinutes: 30, DistanceKm: 25, Status: StatusOperational},
			"A_C": {From: "A", To: "C", TravelTimeMinutes: 60, DistanceKm: 50, Status: StatusOperational},
		},
	}
}

func testGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := FromDocument(testDocument())
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	return g
}

func TestFromDocumentRejectsUnknownEndpoint(t *testing.T) {
	doc := testDocument()
	doc.Tracks["B_X"] = Track{From: "B", To: "X"}
	if _, err := FromDocument(doc); err == nil {
		t.Fatal("expected error for track with unknown station")
	} else if !strings.Contains(err.Error(), "unknown station") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFromDocumentRejectsEmptyTopology(t *testing.T) {
	if _, err := FromDocument(Document{}); err == nil {
		t.Fatal("expected error for topology without stations")
	}
}

func TestTrackDefaults(t *testing.T) {
	doc := Document{
		Stations: map[string]Station{
			"A": {Name: "Alpha"},
			"B": {Name: "Beta"},
		},
		Tracks: map[string]Track{
			"A_B": {From: "A", To: "B"},
		},
	}
	g, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	track, ok := g.Track("A_B")
	if !ok {
		t.Fatal("track A_B missing")
	}
	if track.Status != StatusOperational {
		t.Errorf("Status = %q, want %q", track.Status, StatusOperational)
	}
	if track.TravelTimeMinutes != 30 {
		t.Errorf("TravelTimeMinutes = %d, want 30", track.TravelTimeMinutes)
	}
	if track.DistanceKm != 20 {
		t.Errorf("DistanceKm = %v, want 20", track.DistanceKm)
	}
	if track.TrackType != TrackTypeSingleLine {
		t.Errorf("TrackType = %q, want %q", track.TrackType, TrackTypeSingleLine)
	}
	if track.CapacityTrainsPerHour != 4 {
		t.Errorf("CapacityTrainsPerHour = %d, want 4", track.CapacityTrainsPerHour)
	}
	if track.Priority != PriorityMedium {
		t.Errorf("Priority = %q, want %q", track.Priority, PriorityMedium)
	}
	if track.MaxSpeedKmh != 80 {
		t.Errorf("MaxSpeedKmh = %v, want 80", track.MaxSpeedKmh)
	}
}

func TestDisableTrackRemovesFromAdjacency(t *testing.T) {
	g := testGraph(t)

	if got := len(g.Neighbors("A")); got != 2 {
		t.Fatalf("A has %d neighbours before disable, want 2", got)
	}
	if !g.DisableTrack("A_B", "signal failure") {
		t.Fatal("DisableTrack returned false for known track")
	}

	for _, nb := range g.Neighbors("A") {
		if nb.TrackID == "A_B" {
			t.Error("disabled track still present in adjacency")
		}
	}
	if got := g.OperationalTrackCount(); got != 2 {
		t.Errorf("OperationalTrackCount = %d, want 2", got)
	}
}

func TestEnableTrackRestoresOriginalStatus(t *testing.T) {
	g := testGraph(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.SetClock(func() time.Time { return fixed })

	g.DisableTrack("A_B", "signal failure")
	track, _ := g.Track("A_B")
	if track.Status != StatusDisabled {
		t.Fatalf("Status = %q after disable, want %q", track.Status, StatusDisabled)
	}
	if track.OriginalStatus != StatusOperational {
		t.Errorf("OriginalStatus = %q, want %q", track.OriginalStatus, StatusOperational)
	}
	if track.DisableReason != "signal failure" {
		t.Errorf("DisableReason = %q", track.DisableReason)
	}
	if track.DisabledAt == nil || !track.DisabledAt.Equal(fixed) {
		t.Errorf("DisabledAt = %v, want %v", track.DisabledAt, fixed)
	}

	// A second disable must not overwrite the saved original status.
	g.DisableTrack("A_B", "second reason")
	if track.OriginalStatus != StatusOperational {
		t.Errorf("OriginalStatus after double disable = %q", track.OriginalStatus)
	}

	if !g.EnableTrack("A_B") {
		t.Fatal("EnableTrack returned false for known track")
	}
	if track.Status != StatusOperational {
		t.Errorf("Status = %q after enable, want %q", track.Status, StatusOperational)
	}
	if track.OriginalStatus != "" || track.DisableReason != "" || track.DisabledAt != nil {
		t.Error("disable metadata not cleared on enable")
	}

	found := false
	for _, nb := range g.Neighbors("A") {
		if nb.TrackID == "A_B" {
			found = true
		}
	}
	if !found {
		t.Error("re-enabled track missing from adjacency")
	}
}

func TestDisableUnknownTrack(t *testing.T) {
	g := testGraph(t)
	if g.DisableTrack("NOPE", "x") {
		t.Error("DisableTrack returned true for unknown track")
	}
	if g.EnableTrack("NOPE") {
		t.Error("EnableTrack returned true for unknown track")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	g := testGraph(t)
	g.DisableTrack("B_C", "maintenance window")

	reloaded, err := FromDocument(g.Document())
	if err != nil {
		t.Fatalf("FromDocument(round trip): %v", err)
	}
	if got, want := reloaded.StationCount(), g.StationCount(); got != want {
		t.Errorf("StationCount = %d, want %d", got, want)
	}
	if got, want := reloaded.TrackCount(), g.TrackCount(); got != want {
		t.Errorf("TrackCount = %d, want %d", got, want)
	}
	track, _ := reloaded.Track("B_C")
	if track.Status != StatusDisabled {
		t.Errorf("reloaded B_C status = %q, want %q", track.Status, StatusDisabled)
	}
	// Adjacency must match: the disabled edge stays invisible after reload.
	for _, code := range reloaded.Stations() {
		got := reloaded.Neighbors(code)
		want := g.Neighbors(code)
		if len(got) != len(want) {
			t.Errorf("station %s: %d neighbours, want %d", code, len(got), len(want))
			continue
		}
		for i := range got {
			if got[i].TrackID != want[i].TrackID {
				t.Errorf("station %s neighbour %d: %s, want %s", code, i, got[i].TrackID, want[i].TrackID)
			}
		}
	}
}

func TestCloneIsolation(t *testing.T) {
	g := testGraph(t)
	clone := g.Clone()

	clone.DisableTrack("A_B", "clone only")

	original, _ := g.Track("A_B")
	if original.Status != StatusOperational {
		t.Error("disabling a track in the clone mutated the original")
	}
	cloned, _ := clone.Track("A_B")
	if cloned.Status != StatusDisabled {
		t.Error("clone track not disabled")
	}
}

func TestMinimalTopology(t *testing.T) {
	g := Minimal()
	if g.StationCount() != 3 || g.TrackCount() != 2 {
		t.Fatalf("Minimal() = %d stations, %d tracks", g.StationCount(), g.TrackCount())
	}
	if got := len(g.Neighbors("NDLS")); got != 1 {
		t.Errorf("NDLS has %d neighbours, want 1", got)
	}
}
