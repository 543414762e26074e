package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

func (c *conn) InsertSharks(ctx context.Context, sharks []core.NewShark) (int64, error) {
	var total int64
	err := c.batch(ctx, func(db DBTX) error {
		return chunks(len(sharks), c.batchSize, func(start, end int) error {
			names := make([]string, 0, end-start)
			species := make([]string, 0, end-start)
			risks := make([]string, 0, end-start)
			for _, s := range sharks[start:end] {
				names = append(names, s.Name)
				species = append(species, s.Species)
				risks = append(risks, string(s.Risk))
			}

			tag, err := db.Exec(ctx, `
				INSERT INTO sharks (name, species, risk)
				SELECT * FROM unnest($1::text[], $2::text[], $3::text[])
				ON CONFLICT (name) DO NOTHING`,
				names, species, risks)
			if err != nil {
				return err
			}
			total += tag.RowsAffected()
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("insert sharks: %w", err)
	}
	return total, nil
}

func (c *conn) InsertBeaches(ctx context.Context, beaches []core.NewBeach) (int64, error) {
	var total int64
	err := c.batch(ctx, func(db DBTX) error {
		return chunks(len(beaches), c.batchSize, func(start, end int) error {
			names := make([]string, 0, end-start)
			areas := make([]string, 0, end-start)
			for _, b := range beaches[start:end] {
				names = append(names, b.Name)
				areas = append(areas, b.Area)
			}

			tag, err := db.Exec(ctx, `
				INSERT INTO beaches (beach, area)
				SELECT * FROM unnest($1::text[], $2::text[])
				ON CONFLICT (beach) DO NOTHING`,
				names, areas)
			if err != nil {
				return err
			}
			total += tag.RowsAffected()
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("insert beaches: %w", err)
	}
	return total, nil
}

func (c *conn) InsertCatches(ctx context.Context, catches []core.NewCatch) (int64, error) {
	var total int64
	err := c.batch(ctx, func(db DBTX) error {
		return chunks(len(catches), c.batchSize, func(start, end int) error {
			n := end - start
			sourceIDs := make([]int64, 0, n)
			sharkIDs := make([]pgtype.Int8, 0, n)
			beachIDs := make([]pgtype.Int8, 0, n)
			dates := make([]string, 0, n)
			fates := make([]string, 0, n)
			for _, ct := range catches[start:end] {
				sourceIDs = append(sourceIDs, ct.SourceID)
				sharkIDs = append(sharkIDs, ct.SharkID)
				beachIDs = append(beachIDs, ct.BeachID)
				dates = append(dates, ct.Date)
				fates = append(fates, ct.Fate)
			}

			tag, err := db.Exec(ctx, `
				INSERT INTO catches (source_id, shark_id, beach_id, date, fate)
				SELECT * FROM unnest($1::bigint[], $2::bigint[], $3::bigint[], $4::text[], $5::text[])`,
				sourceIDs, sharkIDs, beachIDs, dates, fates)
			if err != nil {
				return err
			}
			total += tag.RowsAffected()
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("insert catches: %w", err)
	}
	return total, nil
}

func (c *conn) SharksByNameAndSpecies(ctx context.Context, names, species []string) ([]core.Shark, error) {
	if len(names) == 0 || len(species) == 0 {
		return nil, nil
	}

	rows, err := c.db.Query(ctx, `
		SELECT shark_id, name, species, risk
		FROM sharks
		WHERE name = ANY($1) AND species = ANY($2)
		ORDER BY shark_id`,
		names, species)
	if err != nil {
		return nil, fmt.Errorf("select sharks: %w", err)
	}

	sharks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Shark, error) {
		var s core.Shark
		var risk string
		err := row.Scan(&s.ID, &s.Name, &s.Species, &risk)
		s.Risk = core.RiskCategory(risk)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("select sharks: %w", err)
	}
	return sharks, nil
}

func (c *conn) Beaches(ctx context.Context) ([]core.Beach, error) {
	rows, err := c.db.Query(ctx, `SELECT beach_id, beach, area FROM beaches ORDER BY beach`)
	if err != nil {
		return nil, fmt.Errorf("select beaches: %w", err)
	}

	beaches, err := pgx.CollectRows(rows, scanBeach)
	if err != nil {
		return nil, fmt.Errorf("select beaches: %w", err)
	}
	return beaches, nil
}

func scanBeach(row pgx.CollectableRow) (core.Beach, error) {
	var b core.Beach
	err := row.Scan(&b.ID, &b.Name, &b.Area)
	return b, err
}
