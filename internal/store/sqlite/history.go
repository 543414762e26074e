package sqlite

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

func (s *Store) RecordImport(ctx context.Context, rec core.ImportRecord) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO import_history (
			id, file_name, status, phase, error_kind, row_count,
			added_sharks, added_beaches, added_catches, duration_ms,
			ip_address, user_agent, archive_key, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, string(rec.Status), string(rec.Phase), string(rec.ErrorKind), rec.Rows,
		rec.AddedSharks, rec.AddedBeaches, rec.AddedCatches, rec.DurationMs,
		rec.IPAddress, rec.UserAgent, rec.ArchiveKey, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// ListImports returns the most recent imports first.
func (s *Store) ListImports(ctx context.Context, limit int) ([]core.ImportRecord, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, file_name, status, phase, error_kind, row_count,
		       added_sharks, added_beaches, added_catches, duration_ms,
		       ip_address, user_agent, archive_key, created_at
		FROM import_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []core.ImportRecord
	for rows.Next() {
		var (
			rec                     core.ImportRecord
			status, phase, kind, at string
		)
		if err := rows.Scan(
			&rec.ID, &rec.FileName, &status, &phase, &kind, &rec.Rows,
			&rec.AddedSharks, &rec.AddedBeaches, &rec.AddedCatches, &rec.DurationMs,
			&rec.IPAddress, &rec.UserAgent, &rec.ArchiveKey, &at,
		); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		rec.Status = core.ImportStatus(status)
		rec.Phase = core.ImportPhase(phase)
		rec.ErrorKind = core.ErrorKind(kind)
		if rec.CreatedAt, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return out, nil
}
