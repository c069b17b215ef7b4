package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestSQLiteJournalRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("NewSQLiteJournal: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	if err := j.Record(ctx, KindEvent, map[string]string{"event_type": "delay", "train_id": "E1"}); err != nil {
		t.Fatalf("Record event: %v", err)
	}
	if err := j.Record(ctx, KindAction, map[string]string{"action_type": "Halt", "train_id": "G1"}); err != nil {
		t.Fatalf("Record action: %v", err)
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	kinds := map[string]bool{}
	for _, e := range entries {
		kinds[e.Kind] = true
		var payload map[string]string
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			t.Errorf("entry %s payload: %v", e.ID, err)
		}
		if payload["train_id"] == "" {
			t.Errorf("entry %s payload missing train_id: %s", e.ID, e.Payload)
		}
	}
	if !kinds[KindEvent] || !kinds[KindAction] {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestSQLiteJournalRecentLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("NewSQLiteJournal: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := j.Record(ctx, KindRecommendation, map[string]int{"n": i}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := j.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestOpenDriverSelection(t *testing.T) {
	j, err := Open("none", "")
	if err != nil {
		t.Fatalf("Open(none): %v", err)
	}
	if _, ok := j.(Nop); !ok {
		t.Errorf("Open(none) = %T, want Nop", j)
	}

	if _, err := Open("oracle", ""); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestNopJournal(t *testing.T) {
	var j Journal = Nop{}
	if err := j.Record(context.Background(), KindEvent, struct{}{}); err != nil {
		t.Errorf("Nop.Record: %v", err)
	}
	entries, err := j.Recent(context.Background(), 10)
	if err != nil || entries != nil {
		t.Errorf("Nop.Recent = %v, %v", entries, err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("Nop.Close: %v", err)
	}
}
