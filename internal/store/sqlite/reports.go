package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

// catchFilterClause builds the WHERE clause shared by the page and count
// queries.
func catchFilterClause(f core.CatchFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.BeachID > 0 {
		conds = append(conds, "c.beach_id = ?")
		args = append(args, f.BeachID)
	}
	if f.Species != "" {
		conds = append(conds, "s.species = ?")
		args = append(args, f.Species)
	}
	if f.DateFrom != "" {
		conds = append(conds, "c.date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		conds = append(conds, "c.date <= ?")
		args = append(args, f.DateTo)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const catchFrom = `
	FROM catches c
	LEFT JOIN sharks s ON s.shark_id = c.shark_id
	LEFT JOIN beaches b ON b.beach_id = c.beach_id`

func (s *Store) ListCatches(ctx context.Context, filter core.CatchFilter, limit, offset int) ([]core.CatchRow, int64, error) {
	where, args := catchFilterClause(filter)

	var total int64
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*)"+catchFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count catches: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT c.catch_id, c.source_id, c.date, c.fate,
		       COALESCE(c.shark_id, 0), COALESCE(s.name, ''), COALESCE(s.species, ''), COALESCE(s.risk, 'Unknown'),
		       COALESCE(c.beach_id, 0), COALESCE(b.beach, ''), COALESCE(b.area, '')`+
		catchFrom+where+`
		ORDER BY c.date DESC, c.catch_id DESC
		LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list catches: %w", err)
	}
	defer rows.Close()

	out := make([]core.CatchRow, 0, limit)
	for rows.Next() {
		var r core.CatchRow
		var risk string
		if err := rows.Scan(
			&r.CatchID, &r.SourceID, &r.Date, &r.Fate,
			&r.SharkID, &r.Name, &r.Species, &risk,
			&r.BeachID, &r.Beach, &r.Area,
		); err != nil {
			return nil, 0, fmt.Errorf("scan catch: %w", err)
		}
		r.Risk = core.RiskCategory(risk)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list catches: %w", err)
	}
	return out, total, nil
}

func (s *Store) CatchStats(ctx context.Context) (core.CatchStats, error) {
	var (
		st     core.CatchStats
		latest sql.NullString
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM catches),
			(SELECT COUNT(*) FROM beaches),
			(SELECT COUNT(*) FROM sharks),
			(SELECT MAX(date) FROM catches),
			(SELECT COUNT(*) FROM sharks WHERE risk = 'High')`,
	).Scan(&st.TotalCatches, &st.TotalBeaches, &st.TotalSharks, &latest, &st.HighRiskSharks)
	if err != nil {
		return core.CatchStats{}, fmt.Errorf("catch stats: %w", err)
	}
	st.LatestCatch = latest.String
	return st, nil
}

func (s *Store) BeachCatchCounts(ctx context.Context) ([]core.BeachCount, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT b.beach_id, b.beach, b.area, COUNT(c.catch_id) AS n
		FROM beaches b
		LEFT JOIN catches c ON c.beach_id = b.beach_id
		GROUP BY b.beach_id, b.beach, b.area
		ORDER BY n DESC, b.beach`)
	if err != nil {
		return nil, fmt.Errorf("beach counts: %w", err)
	}
	defer rows.Close()

	var out []core.BeachCount
	for rows.Next() {
		var bc core.BeachCount
		if err := rows.Scan(&bc.BeachID, &bc.Beach, &bc.Area, &bc.Catches); err != nil {
			return nil, fmt.Errorf("scan beach count: %w", err)
		}
		out = append(out, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("beach counts: %w", err)
	}
	return out, nil
}

// SpeciesCatchCounts groups catches by the species of their shark. A
// species shared by several sharks reports the highest-ranked risk.
func (s *Store) SpeciesCatchCounts(ctx context.Context) ([]core.SpeciesCount, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT s.species,
		       CASE MAX(CASE s.risk WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 1 ELSE 0 END)
		            WHEN 3 THEN 'High' WHEN 2 THEN 'Medium' WHEN 1 THEN 'Low' ELSE 'Unknown' END,
		       COUNT(*) AS n
		FROM catches c
		JOIN sharks s ON s.shark_id = c.shark_id
		GROUP BY s.species
		ORDER BY n DESC, s.species`)
	if err != nil {
		return nil, fmt.Errorf("species counts: %w", err)
	}
	defer rows.Close()

	var out []core.SpeciesCount
	for rows.Next() {
		var sc core.SpeciesCount
		var risk string
		if err := rows.Scan(&sc.Species, &risk, &sc.Catches); err != nil {
			return nil, fmt.Errorf("scan species count: %w", err)
		}
		sc.Risk = core.RiskCategory(risk)
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("species counts: %w", err)
	}
	return out, nil
}
