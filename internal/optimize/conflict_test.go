package optimize

import (
	"strings"
	"testing"
	"time"

	"github.com/railvision/dispatch/internal/topology"
	"github.com/railvision/dispatch/internal/twin"
)

// testNow sits 30 minutes before the fixture arrivals so the default
// horizon covers them.
var testNow = time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)

func buildNetwork(t *testing.T, records []twin.ScheduleRecord) *twin.Network {
	t.Helper()
	doc := topology.Document{
		Stations: map[string]topology.Station{
			"A": {Name: "Alpha", Platforms: 4},
			"B": {Name: "Beta", Platforms: 2},
			"C": {Name: "Gamma", Platforms: 2},
			"D": {Name: "Delta", Platforms: 6},
		},
		Tracks: map[string]topology.Track{
			"A_B": {From: "A", To: "B", TravelTimeMinutes: 20, DistanceKm: 15, TrackType: "double_line", MaxSpeedKmh: 120},
			"B_D": {From: "B", To: "D", TravelTimeMinutes: 20, DistanceKm: 15, TrackType: "double_line", MaxSpeedKmh: 120},
			"A_C": {From: "A", To: "C", TravelTimeMinutes: 25, DistanceKm: 30},
			"C_D": {From: "C", To: "D", TravelTimeMinutes: 25, DistanceKm: 30},
			"A_D": {From: "A", To: "D", TravelTimeMinutes: 60, DistanceKm: 20},
		},
	}
	g, err := topology.FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	return twin.NewNetwork(g, records)
}

func record(id, trainType, arrival, timeOfDay string) twin.ScheduleRecord {
	return twin.ScheduleRecord{
		TrainID:            id,
		TrainType:          trainType,
		SectionStart:       "A",
		SectionEnd:         "D",
		ScheduledDeparture: "2026-01-05 09:00:00",
		ScheduledArrival:   arrival,
		TimeOfDay:          timeOfDay,
	}
}

func TestRequiredBuffer(t *testing.T) {
	eta := func(trainType, weather, track string) twin.TrainETA {
		return twin.TrainETA{TrainType: trainType, Weather: weather, TrackCondition: track}
	}
	tests := []struct {
		name string
		a, b twin.TrainETA
		want int
	}{
		{"default pair", eta(twin.TrainTypePassenger, "Clear", "Normal"), eta(twin.TrainTypeLocal, "Clear", "Normal"), 10},
		{"express pair", eta(twin.TrainTypeExpress, "Clear", "Normal"), eta(twin.TrainTypeExpress, "Clear", "Normal"), 8},
		{"express and passenger", eta(twin.TrainTypeExpress, "Clear", "Normal"), eta(twin.TrainTypePassenger, "Clear", "Normal"), 10},
		{"goods present", eta(twin.TrainTypeExpress, "Clear", "Normal"), eta(twin.TrainTypeGoods, "Clear", "Normal"), 20},
		{"rain adds five", eta(twin.TrainTypePassenger, "Rain", "Normal"), eta(twin.TrainTypeLocal, "Clear", "Normal"), 15},
		{"fog adds five", eta(twin.TrainTypePassenger, "Clear", "Normal"), eta(twin.TrainTypeLocal, "Fog", "Normal"), 15},
		{"maintenance adds ten", eta(twin.TrainTypePassenger, "Clear", "Maintenance"), eta(twin.TrainTypeLocal, "Clear", "Normal"), 20},
		{"goods in rain with maintenance", eta(twin.TrainTypeGoods, "Rain", "Maintenance"), eta(twin.TrainTypeExpress, "Clear", "Normal"), 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := requiredBuffer(tt.a, tt.b); got != tt.want {
				t.Errorf("requiredBuffer = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDetectSectionCapacityConflict(t *testing.T) {
	n := buildNetwork(t, []twin.ScheduleRecord{
		record("E1", twin.TrainTypeExpress, "2026-01-05 10:00:00", "Afternoon"),
		record("G1", twin.TrainTypeGoods, "2026-01-05 10:05:00", "Afternoon"),
	})
	d := NewDetector()

	conflicts := d.Detect(n, testNow)
	if len(conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(conflicts))
	}
	c := conflicts[0]
	if c.Type != ConflictTypeSectionCapacity {
		t.Errorf("Type = %q", c.Type)
	}
	if c.Location != "D" {
		t.Errorf("Location = %q, want D", c.Location)
	}
	if !strings.HasPrefix(c.ConflictID, "C_D_") {
		t.Errorf("ConflictID = %q", c.ConflictID)
	}
	if len(c.AffectedTrains) != 2 || c.AffectedTrains[0] != "E1" || c.AffectedTrains[1] != "G1" {
		t.Errorf("AffectedTrains = %v, earlier arrival must come first", c.AffectedTrains)
	}
	if c.TimeGapMinutes != 5 {
		t.Errorf("TimeGapMinutes = %v, want 5", c.TimeGapMinutes)
	}
	if c.RequiredBufferMinutes != 20 {
		t.Errorf("RequiredBufferMinutes = %d, want 20 (goods present)", c.RequiredBufferMinutes)
	}
	if c.Details == "" {
		t.Error("Details empty")
	}
}

func TestDetectNoConflictWhenGapSufficient(t *testing.T) {
	n := buildNetwork(t, []twin.ScheduleRecord{
		record("E1", twin.TrainTypeExpress, "2026-01-05 10:00:00", "Afternoon"),
		record("G1", twin.TrainTypeGoods, "2026-01-05 10:30:00", "Afternoon"),
	})
	if conflicts := NewDetector().Detect(n, testNow); len(conflicts) != 0 {
		t.Errorf("got %d conflicts for a 30-minute gap, want 0", len(conflicts))
	}
}

func TestDetectSingleTrainNeverConflicts(t *testing.T) {
	n := buildNetwork(t, []twin.ScheduleRecord{
		record("E1", twin.TrainTypeExpress, "2026-01-05 10:00:00", "Afternoon"),
	})
	if conflicts := NewDetector().Detect(n, testNow); len(conflicts) != 0 {
		t.Errorf("got %d conflicts for a single train", len(conflicts))
	}
}

func TestDetectHorizonFilter(t *testing.T) {
	// Arrivals two hours out: beyond the default horizon.
	n := buildNetwork(t, []twin.ScheduleRecord{
		record("E1", twin.TrainTypeExpress, "2026-01-05 11:30:00", "Afternoon"),
		record("E2", twin.TrainTypeExpress, "2026-01-05 11:32:00", "Afternoon"),
	})

	if conflicts := NewDetector().Detect(n, testNow); len(conflicts) != 0 {
		t.Errorf("conflicts beyond the horizon were reported: %d", len(conflicts))
	}

	unbounded := Detector{HorizonMins: 0}
	if conflicts := unbounded.Detect(n, testNow); len(conflicts) != 1 {
		t.Errorf("horizon 0 should disable the filter, got %d conflicts", len(conflicts))
	}
}

func TestDetectMaxConflictsCap(t *testing.T) {
	n := buildNetwork(t, []twin.ScheduleRecord{
		record("E1", twin.TrainTypeExpress, "2026-01-05 10:00:00", "Afternoon"),
		record("E2", twin.TrainTypeExpress, "2026-01-05 10:02:00", "Afternoon"),
		record("E3", twin.TrainTypeExpress, "2026-01-05 10:04:00", "Afternoon"),
	})

	all := NewDetector().Detect(n, testNow)
	if len(all) != 2 {
		t.Fatalf("got %d conflicts from three tight arrivals, want 2 adjacent pairs", len(all))
	}

	capped := Detector{HorizonMins: DefaultHorizonMins, MaxConflicts: 1}
	if got := capped.Detect(n, testNow); len(got) != 1 {
		t.Errorf("MaxConflicts=1 returned %d conflicts", len(got))
	}
}

func TestSeverityGrading(t *testing.T) {
	base := func(trainType string, priority int) twin.TrainETA {
		return twin.TrainETA{
			TrainType:      trainType,
			Priority:       priority,
			Weather:        "Clear",
			TrackCondition: "Normal",
			TimeOfDay:      "Afternoon",
		}
	}

	// Identical ETAs between top-priority expresses at peak: gap 0 < 0.3
	// buffer (+3), priority (+1), peak (+1) = 5 -> Critical.
	a := base(twin.TrainTypeExpress, 1)
	a.TimeOfDay = "Morning_Peak"
	b := base(twin.TrainTypeExpress, 1)
	if got := severity(a, b, 0, 8); got != SeverityCritical {
		t.Errorf("identical express ETAs at peak: severity = %q, want Critical", got)
	}

	// Wide gap between low-priority trains off-peak stays Low.
	if got := severity(base(twin.TrainTypeLocal, 4), base(twin.TrainTypeGoods, 5), 9, 10); got != SeverityLow {
		t.Errorf("loose low-priority pair: severity = %q, want Low", got)
	}

	// Tight gap alone reaches High (gap < 0.3 buffer scores 3).
	if got := severity(base(twin.TrainTypeLocal, 4), base(twin.TrainTypeGoods, 5), 2, 10); got != SeverityHigh {
		t.Errorf("tight low-priority pair: severity = %q, want High", got)
	}

	// Mid gap scores 2 -> Medium.
	if got := severity(base(twin.TrainTypeLocal, 4), base(twin.TrainTypeGoods, 5), 5, 10); got != SeverityMedium {
		t.Errorf("mid-gap pair: severity = %q, want Medium", got)
	}
}

func TestDetectSeparateDestinations(t *testing.T) {
	records := []twin.ScheduleRecord{
		record("E1", twin.TrainTypeExpress, "2026-01-05 10:00:00", "Afternoon"),
		record("E2", twin.TrainTypeExpress, "2026-01-05 10:02:00", "Afternoon"),
	}
	records[1].SectionEnd = "B" // different destination, same tight timing
	n := buildNetwork(t, records)

	if conflicts := NewDetector().Detect(n, testNow); len(conflicts) != 0 {
		t.Errorf("trains bound for different destinations conflicted: %d", len(conflicts))
	}
}
