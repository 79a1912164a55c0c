package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookwatch/internal/books"
)

// MonitoredSnapshot is the cached book list of one monitored entity.
type MonitoredSnapshot struct {
	EntityID      string
	Rows          []books.Row
	LastCheckedAt string
	SyncedAt      time.Time
}

// ReplaceMonitoredBooks swaps the cached rows for an entity in one transaction.
func (s *Store) ReplaceMonitoredBooks(ctx context.Context, entityID string, rows []books.Row, lastCheckedAt string) error {
	if entityID == "" {
		return errors.New("entity id required")
	}
	now := formatTime(time.Now())
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO monitored_entities (entity_id, last_checked_at, synced_at) VALUES (?, ?, ?)
             ON CONFLICT(entity_id) DO UPDATE SET last_checked_at = excluded.last_checked_at, synced_at = excluded.synced_at`,
			entityID, nullableString(lastCheckedAt), now,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM monitored_books WHERE entity_id = ?`, entityID); err != nil {
			return err
		}
		for pos, row := range rows {
			payload, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("encode row %d: %w", pos, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO monitored_books (entity_id, position, provider, provider_book_id, title, row_json)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				entityID, pos, nullableString(row.Provider), nullableString(row.ProviderBookID),
				nullableString(row.Title), string(payload),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace monitored books: %w", err)
	}
	return nil
}

// MonitoredBooks returns the cached rows for an entity in their synced order.
// A never-synced entity yields an empty snapshot.
func (s *Store) MonitoredBooks(ctx context.Context, entityID string) (MonitoredSnapshot, error) {
	ctx = ensureContext(ctx)
	snap := MonitoredSnapshot{EntityID: entityID}

	var lastChecked, synced sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT last_checked_at, synced_at FROM monitored_entities WHERE entity_id = ?`, entityID,
	).Scan(&lastChecked, &synced)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("load monitored entity: %w", err)
	}
	snap.LastCheckedAt = lastChecked.String
	snap.SyncedAt = parseTime(synced)

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_json FROM monitored_books WHERE entity_id = ? ORDER BY position`, entityID)
	if err != nil {
		return snap, fmt.Errorf("list monitored books: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return snap, fmt.Errorf("scan monitored book: %w", err)
		}
		var row books.Row
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return snap, fmt.Errorf("decode monitored book: %w", err)
		}
		snap.Rows = append(snap.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate monitored books: %w", err)
	}
	return snap, nil
}

// Records converts the cached rows into book records.
func (m MonitoredSnapshot) Records() []books.Record {
	out := make([]books.Record, 0, len(m.Rows))
	for _, row := range m.Rows {
		out = append(out, row.Record())
	}
	return out
}
