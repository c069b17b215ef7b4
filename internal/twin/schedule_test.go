package twin

import (
	"strings"
	"testing"

	"github.com/railvision/dispatch/internal/topology"
)

func TestScheduleFromReaderEnhancedForm(t *testing.T) {
	payload := `[
		{
			"Train_ID": "E1",
			"Train_Type": "Express",
			"Route": [
				{"Station_ID": "A", "Arrival_Time": "", "Departure_Time": "2026-01-05 09:00:00"},
				{"Station_ID": "B", "Arrival_Time": "2026-01-05 09:20:00", "Departure_Time": "2026-01-05 09:22:00"},
				{"Station_ID": "D", "Arrival_Time": "2026-01-05 09:45:00", "Departure_Time": ""}
			]
		}
	]`
	records, err := ScheduleFromReader(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("ScheduleFromReader: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	rec := records[0]
	if rec.SectionStart != "A" || rec.SectionEnd != "D" {
		t.Errorf("endpoints = %s -> %s, want A -> D", rec.SectionStart, rec.SectionEnd)
	}
	if rec.ScheduledDeparture != "2026-01-05 09:00:00" {
		t.Errorf("ScheduledDeparture = %q", rec.ScheduledDeparture)
	}
	if rec.ScheduledArrival != "2026-01-05 09:45:00" {
		t.Errorf("ScheduledArrival = %q", rec.ScheduledArrival)
	}
}

func TestScheduleFromReaderRejectsIncompleteRecords(t *testing.T) {
	if _, err := ScheduleFromReader(strings.NewReader(`[{"Train_Type": "Express"}]`)); err == nil {
		t.Error("expected error for record without Train_ID")
	}
	if _, err := ScheduleFromReader(strings.NewReader(`[{"Train_ID": "E1"}]`)); err == nil {
		t.Error("expected error for record without endpoints")
	}
}

func TestDemoScheduleIsValid(t *testing.T) {
	for _, rec := range DemoSchedule() {
		cp := rec
		if err := cp.normalize(); err != nil {
			t.Errorf("demo record %s: %v", rec.TrainID, err)
		}
	}
	// The demo fleet must route over the minimal topology.
	n := NewNetwork(topology.Minimal(), DemoSchedule())
	for _, id := range []string{"12301", "12951", "G401"} {
		train, ok := n.Train(id)
		if !ok {
			t.Fatalf("demo train %s missing", id)
		}
		if train.PrimaryRoute == nil {
			t.Errorf("demo train %s has no route", id)
		}
	}
}
