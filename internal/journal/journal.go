// Package journal provides an append-only audit log for events, applied
// actions, and issued recommendations. The decision core never reads the
// journal back; it exists for operator review and offline analysis.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry kinds.
const (
	KindEvent          = "event"
	KindAction         = "action"
	KindRecommendation = "recommendation"
)

// Entry is one recorded occurrence.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Journal is an append-only audit log.
type Journal interface {
	Record(ctx context.Context, kind string, payload any) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Open selects a backend by driver name: "sqlite", "postgres", or "none".
func Open(driver, dsn string) (Journal, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteJournal(dsn)
	case "postgres":
		return NewPostgresJournal(dsn)
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown journal driver %q", driver)
	}
}

// Nop discards everything. Used when journaling is disabled.
type Nop struct{}

func (Nop) Record(context.Context, string, any) error    { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
func (Nop) Close() error                                 { return nil }

func marshalPayload(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal journal payload: %w", err)
	}
	return data, nil
}
