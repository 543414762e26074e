package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

func (s *Store) RecordImport(ctx context.Context, rec core.ImportRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO import_history (
			id, file_name, status, phase, error_kind, row_count,
			added_sharks, added_beaches, added_catches, duration_ms,
			ip_address, user_agent, archive_key, created_at
		) VALUES ($1::text::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.FileName, string(rec.Status), string(rec.Phase), string(rec.ErrorKind), rec.Rows,
		rec.AddedSharks, rec.AddedBeaches, rec.AddedCatches, rec.DurationMs,
		rec.IPAddress, rec.UserAgent, rec.ArchiveKey, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// ListImports returns the most recent imports first.
func (s *Store) ListImports(ctx context.Context, limit int) ([]core.ImportRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, file_name, status, phase, error_kind, row_count,
		       added_sharks, added_beaches, added_catches, duration_ms,
		       ip_address, user_agent, archive_key, created_at
		FROM import_history
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.ImportRecord, error) {
		var (
			rec                 core.ImportRecord
			status, phase, kind string
		)
		err := row.Scan(
			&rec.ID, &rec.FileName, &status, &phase, &kind, &rec.Rows,
			&rec.AddedSharks, &rec.AddedBeaches, &rec.AddedCatches, &rec.DurationMs,
			&rec.IPAddress, &rec.UserAgent, &rec.ArchiveKey, &rec.CreatedAt,
		)
		rec.Status = core.ImportStatus(status)
		rec.Phase = core.ImportPhase(phase)
		rec.ErrorKind = core.ErrorKind(kind)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return recs, nil
}
