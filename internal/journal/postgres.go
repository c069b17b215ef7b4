package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresJournal stores entries in a shared Postgres instance.
type PostgresJournal struct {
	pool *pgxpool.Pool
}

// NewPostgresJournal connects to databaseURL and ensures the schema exists.
func NewPostgresJournal(databaseURL string) (*PostgresJournal, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := &PostgresJournal{pool: pool}
	if err := j.ensureSchema(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	return j, nil
}

func (j *PostgresJournal) ensureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS journal_entries (
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_journal_entries_created_at
			ON journal_entries(created_at DESC);
	`
	if _, err := j.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record appends one entry.
func (j *PostgresJournal) Record(ctx context.Context, kind string, payload any) error {
	data, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO journal_entries (id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := j.pool.Exec(ctx, query, uuid.New(), kind, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (j *PostgresJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, kind, payload, created_at
		FROM journal_entries
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := j.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Kind, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Payload = payload
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the connection pool.
func (j *PostgresJournal) Close() error {
	j.pool.Close()
	return nil
}
