package optimize

import (
	"strings"
	"testing"

	"github.com/railvision/dispatch/internal/twin"
)

func TestHaltDurations(t *testing.T) {
	train := func(trainType, weather, track string) *twin.Train {
		tr := twin.NewTrain(twin.ScheduleRecord{
			TrainID:      "T1",
			TrainType:    trainType,
			SectionStart: "A",
			SectionEnd:   "D",
			TimeOfDay:    "Afternoon",
		})
		tr.Weather = weather
		tr.TrackCondition = track
		return tr
	}

	tests := []struct {
		name  string
		train *twin.Train
		want  []int
	}{
		{"express", train(twin.TrainTypeExpress, "Clear", "Normal"), []int{5, 10, 20}},
		{"passenger", train(twin.TrainTypePassenger, "Clear", "Normal"), []int{10, 15, 25}},
		{"goods", train(twin.TrainTypeGoods, "Clear", "Normal"), []int{15, 20, 30, 30}},
		{"local default", train(twin.TrainTypeLocal, "Clear", "Normal"), []int{10, 15, 20}},
		{"express in rain", train(twin.TrainTypeExpress, "Rain", "Normal"), []int{10, 15, 25}},
		{"express under maintenance", train(twin.TrainTypeExpress, "Clear", "Maintenance"), []int{15, 20, 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := haltDurations(tt.train, 20)
			if len(got) != len(tt.want) {
				t.Fatalf("haltDurations = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("haltDurations = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestGenerateSolutionsGating(t *testing.T) {
	n := buildNetwork(t, []twin.ScheduleRecord{
		record("E1", twin.TrainTypeExpress, "2026-01-05 10:00:00", "Afternoon"),
		record("G1", twin.TrainTypeGoods, "2026-01-05 10:05:00", "Afternoon"),
	})
	conflicts := NewDetector().Detect(n, testNow)
	if len(conflicts) != 1 {
		t.Fatalf("fixture produced %d conflicts, want 1", len(conflicts))
	}

	solutions := GenerateSolutions(conflicts[0], n)
	if len(solutions) == 0 {
		t.Fatal("no solutions generated")
	}

	var speedAdjustTrains, cancelTrains, rerouteTrains []string
	haltCounts := map[string]int{}
	for _, sol := range solutions {
		switch sol.ActionType {
		case twin.ActionHalt:
			haltCounts[sol.TrainID]++
		case twin.ActionSpeedAdjust:
			speedAdjustTrains = append(speedAdjustTrains, sol.TrainID)
		case twin.ActionCancel:
			cancelTrains = append(cancelTrains, sol.TrainID)
		case twin.ActionReroute:
			rerouteTrains = append(rerouteTrains, sol.TrainID)
			if sol.RouteIndex == nil {
				t.Error("reroute solution without route index")
			}
			if sol.AlternativeRoute == nil {
				t.Error("reroute solution without route summary")
			}
			if sol.DurationMins < 0 {
				t.Errorf("reroute additional time negative: %d", sol.DurationMins)
			}
		}
	}

	// Every affected train gets halt options.
	if haltCounts["E1"] != 3 {
		t.Errorf("E1 halt options = %d, want 3", haltCounts["E1"])
	}
	if haltCounts["G1"] != 4 {
		t.Errorf("G1 halt options = %d, want 4", haltCounts["G1"])
	}

	// Speed adjustment is reserved for top-priority expresses.
	if len(speedAdjustTrains) != 1 || speedAdjustTrains[0] != "E1" {
		t.Errorf("speed adjust trains = %v, want [E1]", speedAdjustTrains)
	}

	// Cancellation is reserved for priority-5 goods.
	if len(cancelTrains) != 1 || cancelTrains[0] != "G1" {
		t.Errorf("cancel trains = %v, want [G1]", cancelTrains)
	}

	// Reroutes only for the goods train; the express holds no reroute
	// eligibility despite the conflict.
	if len(rerouteTrains) == 0 {
		t.Error("no reroute solutions for the goods train")
	}
	for _, id := range rerouteTrains {
		if id != "G1" {
			t.Errorf("reroute offered to %s, only goods/local/low-priority qualify here", id)
		}
	}

	for _, sol := range solutions {
		if sol.SolutionID == "" || sol.Description == "" {
			t.Errorf("solution %+v missing id or description", sol)
		}
	}
}

func TestGenerateSolutionsEnvironmentalAdjustment(t *testing.T) {
	records := []twin.ScheduleRecord{
		record("E1", twin.TrainTypeExpress, "2026-01-05 10:00:00", "Morning_Peak"),
		record("E2", twin.TrainTypeExpress, "2026-01-05 10:02:00", "Morning_Peak"),
	}
	records[0].Weather = "Fog"
	records[0].TrackCondition = "Maintenance"
	n := buildNetwork(t, records)

	conflicts := NewDetector().Detect(n, testNow)
	if len(conflicts) != 1 {
		t.Fatalf("fixture produced %d conflicts, want 1", len(conflicts))
	}
	solutions := GenerateSolutions(conflicts[0], n)

	for _, sol := range solutions {
		if sol.TrainID != "E1" {
			continue
		}
		adj := sol.EnvironmentalAdjustment
		if adj.WeatherFactor != 5 {
			t.Errorf("WeatherFactor = %d, want 5", adj.WeatherFactor)
		}
		if adj.TrackFactor != 10 {
			t.Errorf("TrackFactor = %d, want 10", adj.TrackFactor)
		}
		if adj.TimeFactor != -2 {
			t.Errorf("TimeFactor = %d, want -2", adj.TimeFactor)
		}
	}
}

func TestSolutionActionConversion(t *testing.T) {
	idx := 1
	sol := Solution{
		SolutionID:   "REROUTE_G1_1",
		ActionType:   twin.ActionReroute,
		TrainID:      "G1",
		DurationMins: 12,
		RouteIndex:   &idx,
		Description:  "Reroute Goods G1",
	}
	action := sol.Action()
	if action.ActionType != twin.ActionReroute || action.TrainID != "G1" {
		t.Errorf("Action = %+v", action)
	}
	if action.RouteIndex == nil || *action.RouteIndex != 1 {
		t.Error("route index lost in conversion")
	}
	if !strings.HasPrefix(sol.SolutionID, "REROUTE_") {
		t.Errorf("SolutionID = %q", sol.SolutionID)
	}
}
