package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

// insertChunked runs one multi-row INSERT per chunk of n rows and returns
// the total number of rows created.
func (c *conn) insertChunked(ctx context.Context, n, cols int, prefix, suffix string, args func(i int) []any) (int64, error) {
	if n == 0 {
		return 0, nil
	}

	var total int64
	err := c.batch(ctx, func(q queryer) error {
		for start := 0; start < n; start += c.batchSize {
			end := min(start+c.batchSize, n)

			vals := make([]any, 0, (end-start)*cols)
			for i := start; i < end; i++ {
				vals = append(vals, args(i)...)
			}

			res, err := q.ExecContext(ctx, prefix+placeholders(end-start, cols)+suffix, vals...)
			if err != nil {
				return err
			}
			total += rowsAffected(res)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (c *conn) InsertSharks(ctx context.Context, sharks []core.NewShark) (int64, error) {
	n, err := c.insertChunked(ctx, len(sharks), 3,
		"INSERT INTO sharks (name, species, risk) VALUES ",
		" ON CONFLICT (name) DO NOTHING",
		func(i int) []any {
			s := sharks[i]
			return []any{s.Name, s.Species, string(s.Risk)}
		})
	if err != nil {
		return 0, fmt.Errorf("insert sharks: %w", err)
	}
	return n, nil
}

func (c *conn) InsertBeaches(ctx context.Context, beaches []core.NewBeach) (int64, error) {
	n, err := c.insertChunked(ctx, len(beaches), 2,
		"INSERT INTO beaches (beach, area) VALUES ",
		" ON CONFLICT (beach) DO NOTHING",
		func(i int) []any {
			return []any{beaches[i].Name, beaches[i].Area}
		})
	if err != nil {
		return 0, fmt.Errorf("insert beaches: %w", err)
	}
	return n, nil
}

func (c *conn) InsertCatches(ctx context.Context, catches []core.NewCatch) (int64, error) {
	n, err := c.insertChunked(ctx, len(catches), 5,
		"INSERT INTO catches (source_id, shark_id, beach_id, date, fate) VALUES ",
		"",
		func(i int) []any {
			ct := catches[i]
			return []any{ct.SourceID, ct.SharkID, ct.BeachID, ct.Date, ct.Fate}
		})
	if err != nil {
		return 0, fmt.Errorf("insert catches: %w", err)
	}
	return n, nil
}

// SharksByNameAndSpecies passes both sets as JSON arrays so the statement
// has a fixed number of parameters regardless of batch size.
func (c *conn) SharksByNameAndSpecies(ctx context.Context, names, species []string) ([]core.Shark, error) {
	if len(names) == 0 || len(species) == 0 {
		return nil, nil
	}

	nameSet, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("encode names: %w", err)
	}
	speciesSet, err := json.Marshal(species)
	if err != nil {
		return nil, fmt.Errorf("encode species: %w", err)
	}

	rows, err := c.q.QueryContext(ctx, `
		SELECT shark_id, name, species, risk
		FROM sharks
		WHERE name IN (SELECT value FROM json_each(?))
		  AND species IN (SELECT value FROM json_each(?))
		ORDER BY shark_id`,
		string(nameSet), string(speciesSet))
	if err != nil {
		return nil, fmt.Errorf("select sharks: %w", err)
	}
	defer rows.Close()

	var out []core.Shark
	for rows.Next() {
		var s core.Shark
		var risk string
		if err := rows.Scan(&s.ID, &s.Name, &s.Species, &risk); err != nil {
			return nil, fmt.Errorf("scan shark: %w", err)
		}
		s.Risk = core.RiskCategory(risk)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select sharks: %w", err)
	}
	return out, nil
}

func (c *conn) Beaches(ctx context.Context) ([]core.Beach, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT beach_id, beach, area FROM beaches ORDER BY beach`)
	if err != nil {
		return nil, fmt.Errorf("select beaches: %w", err)
	}
	defer rows.Close()

	var out []core.Beach
	for rows.Next() {
		var b core.Beach
		if err := rows.Scan(&b.ID, &b.Name, &b.Area); err != nil {
			return nil, fmt.Errorf("scan beach: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select beaches: %w", err)
	}
	return out, nil
}
