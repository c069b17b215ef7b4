package twin

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
)

// ScheduleStop is one entry of an enhanced schedule record's Route array.
type ScheduleStop struct {
	StationID     string `json:"Station_ID"`
	ArrivalTime   string `json:"Arrival_Time"`
	DepartureTime string `json:"Departure_Time"`
}

// ScheduleRecord is one train record from a schedule file. The legacy flat
// form carries explicit endpoints and times; the enhanced form carries a
// Route array from which endpoints and times are derived.
type ScheduleRecord struct {
	TrainID                  string         `json:"Train_ID"`
	TrainType                string         `json:"Train_Type,omitempty"`
	SectionStart             string         `json:"Section_Start,omitempty"`
	SectionEnd               string         `json:"Section_End,omitempty"`
	ScheduledDeparture       string         `json:"Scheduled_Departure_Time,omitempty"`
	ScheduledArrival         string         `json:"Scheduled_Arrival_Time,omitempty"`
	DayOfWeek                string         `json:"Day_of_Week,omitempty"`
	TimeOfDay                string         `json:"Time_of_Day,omitempty"`
	Weather                  string         `json:"Weather,omitempty"`
	TrackCondition           string         `json:"Track_Condition,omitempty"`
	InitialReportedDelayMins int            `json:"Initial_Reported_Delay_Mins,omitempty"`
	ActualDelayMins          int            `json:"Actual_Delay_Mins,omitempty"`
	Route                    []ScheduleStop `json:"Route,omitempty"`

	// Output-only fields for the persisted schedule (ExportSchedule).
	Status       string   `json:"Status,omitempty"`
	Priority     int      `json:"Priority,omitempty"`
	RouteSummary []string `json:"Assigned_Route,omitempty"`
}

// normalize resolves the enhanced form: endpoints and schedule times come
// from the first and last route stops when the flat fields are absent.
func (r *ScheduleRecord) normalize() error {
	if r.TrainID == "" {
		return fmt.Errorf("schedule record missing Train_ID")
	}
	if len(r.Route) > 0 {
		first, last := r.Route[0], r.Route[len(r.Route)-1]
		if r.SectionStart == "" {
			r.SectionStart = first.StationID
		}
		if r.SectionEnd == "" {
			r.SectionEnd = last.StationID
		}
		if r.ScheduledDeparture == "" {
			r.ScheduledDeparture = first.DepartureTime
		}
		if r.ScheduledArrival == "" {
			r.ScheduledArrival = last.ArrivalTime
		}
	}
	if r.SectionStart == "" || r.SectionEnd == "" {
		return fmt.Errorf("train %s: schedule record missing endpoints", r.TrainID)
	}
	return nil
}

// LoadSchedule reads and validates an ordered schedule file.
func LoadSchedule(path string) ([]ScheduleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule file: %w", err)
	}
	defer f.Close()

	records, err := ScheduleFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("load schedule %s: %w", path, err)
	}
	log.Printf("Schedule loaded: %d trains", len(records))
	return records, nil
}

// ScheduleFromReader parses a schedule list and normalizes each record.
func ScheduleFromReader(r io.Reader) ([]ScheduleRecord, error) {
	var records []ScheduleRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	for i := range records {
		if err := records[i].normalize(); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// DemoSchedule returns a small built-in fleet matching the minimal
// topology fallback. The goods arrival is deliberately tight behind the
// second express so a fresh install has a conflict to inspect.
func DemoSchedule() []ScheduleRecord {
	return []ScheduleRecord{
		{
			TrainID:            "12301",
			TrainType:          TrainTypeExpress,
			SectionStart:       "NDLS",
			SectionEnd:         "GZB",
			ScheduledDeparture: "2026-01-05 09:00:00",
			ScheduledArrival:   "2026-01-05 09:55:00",
			DayOfWeek:          "Monday",
			TimeOfDay:          "Morning_Peak",
			Weather:            "Clear",
			TrackCondition:     "Normal",
		},
		{
			TrainID:            "12951",
			TrainType:          TrainTypeExpress,
			SectionStart:       "NDLS",
			SectionEnd:         "GZB",
			ScheduledDeparture: "2026-01-05 09:10:00",
			ScheduledArrival:   "2026-01-05 10:05:00",
			DayOfWeek:          "Monday",
			TimeOfDay:          "Morning_Peak",
			Weather:            "Clear",
			TrackCondition:     "Normal",
		},
		{
			TrainID:            "G401",
			TrainType:          TrainTypeGoods,
			SectionStart:       "NDLS",
			SectionEnd:         "GZB",
			ScheduledDeparture: "2026-01-05 09:20:00",
			ScheduledArrival:   "2026-01-05 10:10:00",
			DayOfWeek:          "Monday",
			TimeOfDay:          "Morning_Peak",
			Weather:            "Clear",
			TrackCondition:     "Normal",
		},
	}
}

// WriteSchedule persists schedule records as a JSON list, suitable for
// feeding a downstream simulator or reloading.
func WriteSchedule(path string, records []ScheduleRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create schedule file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	return nil
}
