package core_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sharkguard/internal/core"
	"github.com/JonMunkholm/sharkguard/internal/store/sqlite"
)

const catchHeader = "_id,date,areaName,gearBeach,Fate,Common Name,Species name\n"

func newSQLiteService(t *testing.T, cfg core.ServiceConfig) (*core.Service, *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, sqlite.MemoryDSN, sqlite.WithBatchSize(2))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	return core.NewService(store, cfg), store
}

func TestPipeline_SQLite(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		name := "direct"
		if atomic {
			name = "atomic"
		}
		t.Run(name, func(t *testing.T) {
			svc, _ := newSQLiteService(t, core.ServiceConfig{Atomic: atomic, StatsTTL: -1})
			ctx := context.Background()

			input := catchHeader +
				"1,2024-01-02,Bayside,North Beach,Released,Bull,Carcharhinus leucas\n" +
				"2,2024-01-03,Bayside,North Beach,Tagged,Bull,Carcharhinus leucas\n" +
				"3,2024-01-04,Harbour,Quiet Cove,Dead,Mystery,Unknownus sharkus\n"

			res, err := svc.Import(ctx, "catches.csv", strings.NewReader(input))
			require.NoError(t, err)
			assert.Equal(t, int64(2), res.AddedSharks)
			assert.Equal(t, int64(2), res.AddedBeaches)
			assert.Equal(t, int64(3), res.AddedCatches)

			// Identical file: only catches are new.
			res, err = svc.Import(ctx, "catches.csv", strings.NewReader(input))
			require.NoError(t, err)
			assert.Zero(t, res.AddedSharks)
			assert.Zero(t, res.AddedBeaches)
			assert.Equal(t, int64(3), res.AddedCatches)

			page, err := svc.ListCatches(ctx, core.CatchQuery{PageSize: 100})
			require.NoError(t, err)
			assert.Equal(t, int64(6), page.Total)

			risks := map[string]core.RiskCategory{}
			for _, c := range page.Catches {
				risks[c.Species] = c.Risk
				assert.NotZero(t, c.SharkID)
				assert.NotZero(t, c.BeachID)
			}
			assert.Equal(t, core.RiskHigh, risks["Carcharhinus leucas"])
			assert.Equal(t, core.RiskUnknown, risks["Unknownus sharkus"])

			stats, err := svc.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, "2024-01-04", stats.LatestCatch)
			assert.Equal(t, int64(1), stats.HighRiskSharks)

			history, err := svc.ImportHistory(ctx, 10)
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, core.ImportSucceeded, history[0].Status)
		})
	}
}

func TestPipeline_SQLite_ValidationWritesNothing(t *testing.T) {
	svc, _ := newSQLiteService(t, core.ServiceConfig{StatsTTL: -1})
	ctx := context.Background()

	input := catchHeader +
		"1,2024-01-02,Bayside,North Beach,Released,Bull,Carcharhinus leucas\n" +
		"x1,2024-01-03,Bayside,North Beach,Tagged,Bull,Carcharhinus leucas\n"

	_, err := svc.Import(ctx, "bad.csv", strings.NewReader(input))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.CatchStats{}, stats)

	history, err := svc.ImportHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.ImportFailed, history[0].Status)
	assert.Equal(t, core.PhaseValidated, history[0].Phase)
}

func TestPipeline_SQLite_NameCollision(t *testing.T) {
	svc, _ := newSQLiteService(t, core.ServiceConfig{StatsTTL: -1})
	ctx := context.Background()

	_, err := svc.Import(ctx, "a.csv", strings.NewReader(catchHeader+
		"1,2024-01-02,Bayside,North Beach,Released,Bull,Carcharhinus leucas\n"))
	require.NoError(t, err)

	// Same common name under another species imports without error, but
	// the row's shark cannot be resolved.
	res, err := svc.Import(ctx, "b.csv", strings.NewReader(catchHeader+
		"2,2024-01-03,Bayside,North Beach,Released,Bull,Galeocerdo cuvier\n"))
	require.NoError(t, err)
	assert.Zero(t, res.AddedSharks)
	assert.Equal(t, int64(1), res.AddedCatches)

	page, err := svc.ListCatches(ctx, core.CatchQuery{})
	require.NoError(t, err)
	require.Len(t, page.Catches, 2)
	assert.Zero(t, page.Catches[0].SharkID)
}

func TestPipeline_SQLite_PagePastEnd(t *testing.T) {
	svc, _ := newSQLiteService(t, core.ServiceConfig{StatsTTL: -1})
	ctx := context.Background()

	_, err := svc.Import(ctx, "a.csv", strings.NewReader(catchHeader+
		"1,2024-01-02,Bayside,North Beach,Released,Bull,Carcharhinus leucas\n"))
	require.NoError(t, err)

	for _, q := range []core.CatchQuery{
		{Page: 2},
		{Page: math.MaxInt},
		{Page: math.MaxInt, PageSize: math.MaxInt},
	} {
		page, err := svc.ListCatches(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, page.Catches, "page %d", q.Page)
		assert.Equal(t, int64(1), page.Total)
		assert.LessOrEqual(t, page.Page, core.MaxPage)
	}
}
