package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

// catchFilterClause builds the WHERE clause shared by the page and count
// queries, numbering parameters from $1.
func catchFilterClause(f core.CatchFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if f.BeachID > 0 {
		add("c.beach_id = ?", f.BeachID)
	}
	if f.Species != "" {
		add("s.species = ?", f.Species)
	}
	if f.DateFrom != "" {
		add("c.date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		add("c.date <= ?", f.DateTo)
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
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*)"+catchFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count catches: %w", err)
	}

	n := len(args)
	rows, err := s.db.Query(ctx, `
		SELECT c.catch_id, c.source_id, c.date, c.fate,
		       COALESCE(c.shark_id, 0), COALESCE(s.name, ''), COALESCE(s.species, ''), COALESCE(s.risk, 'Unknown'),
		       COALESCE(c.beach_id, 0), COALESCE(b.beach, ''), COALESCE(b.area, '')`+
		catchFrom+where+`
		ORDER BY c.date DESC, c.catch_id DESC
		LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list catches: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.CatchRow, error) {
		var r core.CatchRow
		var risk string
		err := row.Scan(
			&r.CatchID, &r.SourceID, &r.Date, &r.Fate,
			&r.SharkID, &r.Name, &r.Species, &risk,
			&r.BeachID, &r.Beach, &r.Area,
		)
		r.Risk = core.RiskCategory(risk)
		return r, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list catches: %w", err)
	}
	return out, total, nil
}

func (s *Store) CatchStats(ctx context.Context) (core.CatchStats, error) {
	var (
		st     core.CatchStats
		latest pgtype.Text
	)
	err := s.db.QueryRow(ctx, `
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
	rows, err := s.db.Query(ctx, `
		SELECT b.beach_id, b.beach, b.area, COUNT(c.catch_id) AS n
		FROM beaches b
		LEFT JOIN catches c ON c.beach_id = b.beach_id
		GROUP BY b.beach_id, b.beach, b.area
		ORDER BY n DESC, b.beach`)
	if err != nil {
		return nil, fmt.Errorf("beach counts: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.BeachCount, error) {
		var bc core.BeachCount
		err := row.Scan(&bc.BeachID, &bc.Beach, &bc.Area, &bc.Catches)
		return bc, err
	})
	if err != nil {
		return nil, fmt.Errorf("beach counts: %w", err)
	}
	return out, nil
}

// SpeciesCatchCounts groups catches by the species of their shark. A
// species shared by several sharks reports the highest-ranked risk.
func (s *Store) SpeciesCatchCounts(ctx context.Context) ([]core.SpeciesCount, error) {
	rows, err := s.db.Query(ctx, `
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

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.SpeciesCount, error) {
		var sc core.SpeciesCount
		var risk string
		err := row.Scan(&sc.Species, &risk, &sc.Catches)
		sc.Risk = core.RiskCategory(risk)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("species counts: %w", err)
	}
	return out, nil
}
