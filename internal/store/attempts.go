package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bookwatch/internal/books"
)

// RecordAttempt appends an attempt to the ledger.
func (s *Store) RecordAttempt(ctx context.Context, attempt books.Attempt) error {
	ctx = ensureContext(ctx)
	if attempt.RecordedAt.IsZero() {
		attempt.RecordedAt = time.Now()
	}
	var extra any
	if len(attempt.Extra) > 0 {
		payload, err := json.Marshal(attempt.Extra)
		if err != nil {
			return fmt.Errorf("encode attempt extra: %w", err)
		}
		extra = string(payload)
	}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO attempts (entity_id, provider, book_id, content_type, status, extra_json, recorded_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			nullableString(attempt.EntityID), attempt.Provider, attempt.BookID,
			string(attempt.ContentType), string(attempt.Status), extra, formatTime(attempt.RecordedAt),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Attempts returns the newest attempts for an entity first. An empty entityID
// lists attempts recorded without an entity. limit <= 0 returns everything.
func (s *Store) Attempts(ctx context.Context, entityID string, limit int) ([]books.Attempt, error) {
	ctx = ensureContext(ctx)
	query := `SELECT entity_id, provider, book_id, content_type, status, extra_json, recorded_at
              FROM attempts WHERE COALESCE(entity_id, '') = ? ORDER BY recorded_at DESC, id DESC`
	args := []any{entityID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []books.Attempt
	for rows.Next() {
		var (
			entity, extra, recorded sql.NullString
			attempt                 books.Attempt
			contentType, status     string
		)
		if err := rows.Scan(&entity, &attempt.Provider, &attempt.BookID, &contentType, &status, &extra, &recorded); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempt.EntityID = entity.String
		attempt.ContentType = books.ContentType(contentType)
		attempt.Status = books.AttemptStatus(status)
		attempt.RecordedAt = parseTime(recorded)
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &attempt.Extra); err != nil {
				return nil, fmt.Errorf("decode attempt extra: %w", err)
			}
		}
		out = append(out, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}
