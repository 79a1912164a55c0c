package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bookwatch/internal/books"
)

// ReplaceMatchedFiles replaces the whole scan result for an entity. Scans are
// never merged incrementally.
func (s *Store) ReplaceMatchedFiles(ctx context.Context, entityID string, files []books.MatchedFile) error {
	scannedAt := formatTime(time.Now())
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM matched_files WHERE entity_id = ?`, entityID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO matched_files (entity_id, provider, provider_book_id, file_type, path, size, confidence, scanned_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, file := range files {
			if _, err := stmt.ExecContext(ctx,
				entityID, nullableString(file.Provider), nullableString(file.ProviderBookID),
				nullableString(file.FileType), nullableString(file.Path), file.Size, file.Confidence, scannedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace matched files: %w", err)
	}
	return nil
}

// MatchedFiles returns the latest scan result for an entity.
func (s *Store) MatchedFiles(ctx context.Context, entityID string) ([]books.MatchedFile, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, provider_book_id, file_type, path, size, confidence
         FROM matched_files WHERE entity_id = ? ORDER BY id`, entityID)
	if err != nil {
		return nil, fmt.Errorf("list matched files: %w", err)
	}
	defer rows.Close()

	var out []books.MatchedFile
	for rows.Next() {
		var provider, bookID, fileType, path sql.NullString
		var file books.MatchedFile
		if err := rows.Scan(&provider, &bookID, &fileType, &path, &file.Size, &file.Confidence); err != nil {
			return nil, fmt.Errorf("scan matched file: %w", err)
		}
		file.Provider = provider.String
		file.ProviderBookID = bookID.String
		file.FileType = fileType.String
		file.Path = path.String
		out = append(out, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matched files: %w", err)
	}
	return out, nil
}
