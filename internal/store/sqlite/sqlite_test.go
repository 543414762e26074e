package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, MemoryDSN, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(ctx))
	return s
}

func id(n int64) pgtype.Int8 { return pgtype.Int8{Int64: n, Valid: true} }

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestOpen_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sharkguard.db")

	s, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
	_, err = s.InsertBeaches(ctx, []core.NewBeach{{Name: "North Beach", Area: "Bayside"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Data survives reopening.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))
	beaches, err := s.Beaches(ctx)
	require.NoError(t, err)
	assert.Len(t, beaches, 1)
}

func TestInsertSharks_SkipsExistingNames(t *testing.T) {
	s := newTestStore(t, WithBatchSize(2))
	ctx := context.Background()

	n, err := s.InsertSharks(ctx, []core.NewShark{
		{Name: "Bull", Species: "Carcharhinus leucas", Risk: core.RiskHigh},
		{Name: "Bull", Species: "Carcharhinus leucas", Risk: core.RiskHigh},
		{Name: "Tiger", Species: "Galeocerdo cuvier", Risk: core.RiskHigh},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Same common name, different species: the name wins.
	n, err = s.InsertSharks(ctx, []core.NewShark{
		{Name: "Bull", Species: "Something else", Risk: core.RiskLow},
		{Name: "Mako", Species: "Isurus spp.", Risk: core.RiskLow},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sharks, err := s.SharksByNameAndSpecies(ctx, []string{"Bull"}, []string{"Carcharhinus leucas", "Something else"})
	require.NoError(t, err)
	require.Len(t, sharks, 1)
	assert.Equal(t, "Carcharhinus leucas", sharks[0].Species)
	assert.Equal(t, core.RiskHigh, sharks[0].Risk)
}

func TestInsertSharks_Empty(t *testing.T) {
	s := newTestStore(t)
	n, err := s.InsertSharks(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSharksByNameAndSpecies_Conjunctive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertSharks(ctx, []core.NewShark{
		{Name: "Bull", Species: "Carcharhinus leucas", Risk: core.RiskHigh},
		{Name: "Tiger", Species: "Galeocerdo cuvier", Risk: core.RiskHigh},
		{Name: "Mako", Species: "Isurus spp.", Risk: core.RiskLow},
	})
	require.NoError(t, err)

	// Names and species recombined across rows still match both sets.
	sharks, err := s.SharksByNameAndSpecies(ctx,
		[]string{"Bull", "Tiger"},
		[]string{"Galeocerdo cuvier", "Carcharhinus leucas"},
	)
	require.NoError(t, err)
	require.Len(t, sharks, 2)
	assert.Equal(t, "Bull", sharks[0].Name)
	assert.Equal(t, "Tiger", sharks[1].Name)

	sharks, err = s.SharksByNameAndSpecies(ctx, []string{"Mako"}, []string{"Carcharhinus leucas"})
	require.NoError(t, err)
	assert.Empty(t, sharks)

	sharks, err = s.SharksByNameAndSpecies(ctx, nil, []string{"Isurus spp."})
	require.NoError(t, err)
	assert.Empty(t, sharks)
}

func TestInsertBeaches_ConflictOnBeachOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.InsertBeaches(ctx, []core.NewBeach{
		{Name: "North Beach", Area: "Bayside"},
		{Name: "North Beach", Area: "Harbour"},
		{Name: "South Beach", Area: "Bayside"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	beaches, err := s.Beaches(ctx)
	require.NoError(t, err)
	require.Len(t, beaches, 2)
	assert.Equal(t, "North Beach", beaches[0].Name)
	assert.Equal(t, "Bayside", beaches[0].Area)
}

func TestInsertCatches_AllowsDuplicatesAndNulls(t *testing.T) {
	s := newTestStore(t, WithBatchSize(1))
	ctx := context.Background()

	_, err := s.InsertSharks(ctx, []core.NewShark{{Name: "Bull", Species: "Carcharhinus leucas", Risk: core.RiskHigh}})
	require.NoError(t, err)
	_, err = s.InsertBeaches(ctx, []core.NewBeach{{Name: "North Beach", Area: "Bayside"}})
	require.NoError(t, err)

	catch := core.NewCatch{SourceID: 7, SharkID: id(1), BeachID: id(1), Date: "2024-01-02", Fate: "Released"}
	n, err := s.InsertCatches(ctx, []core.NewCatch{catch, catch, {SourceID: 8, Date: "2024-01-03", Fate: "Dead"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rows, total, err := s.ListCatches(ctx, core.CatchFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)

	unresolved := rows[0]
	assert.Equal(t, int64(8), unresolved.SourceID)
	assert.Zero(t, unresolved.SharkID)
	assert.Equal(t, core.RiskUnknown, unresolved.Risk)
}

func TestInsertCatches_BatchSizeCapped(t *testing.T) {
	s := newTestStore(t, WithBatchSize(100000))
	assert.Equal(t, MaxBatchSize, s.batchSize)
	ctx := context.Background()

	catches := make([]core.NewCatch, MaxBatchSize+1)
	for i := range catches {
		catches[i] = core.NewCatch{SourceID: int64(i), Date: "2024-01-02", Fate: "Released"}
	}
	n, err := s.InsertCatches(ctx, catches)
	require.NoError(t, err)
	assert.Equal(t, int64(len(catches)), n)
}

func TestInsertCatches_UnknownForeignKeyFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.InsertCatches(ctx, []core.NewCatch{
		{SourceID: 1, SharkID: id(99), BeachID: id(99), Date: "2024-01-02", Fate: "Released"},
	})
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestInTx_RollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx core.ImportStore) error {
		if _, err := tx.InsertBeaches(ctx, []core.NewBeach{{Name: "North Beach", Area: "Bayside"}}); err != nil {
			return err
		}
		_, err := tx.InsertCatches(ctx, []core.NewCatch{{SourceID: 1, SharkID: id(42), Date: "x", Fate: "y"}})
		return err
	})
	require.Error(t, err)

	beaches, err := s.Beaches(ctx)
	require.NoError(t, err)
	assert.Empty(t, beaches)
}

func seedReports(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.InsertSharks(ctx, []core.NewShark{
		{Name: "Bull", Species: "Carcharhinus leucas", Risk: core.RiskHigh},
		{Name: "Mako", Species: "Isurus spp.", Risk: core.RiskLow},
	})
	require.NoError(t, err)
	_, err = s.InsertBeaches(ctx, []core.NewBeach{
		{Name: "North Beach", Area: "Bayside"},
		{Name: "South Beach", Area: "Bayside"},
		{Name: "Quiet Cove", Area: "Harbour"},
	})
	require.NoError(t, err)
	_, err = s.InsertCatches(ctx, []core.NewCatch{
		{SourceID: 1, SharkID: id(1), BeachID: id(1), Date: "2024-01-01", Fate: "Released"},
		{SourceID: 2, SharkID: id(1), BeachID: id(1), Date: "2024-02-01", Fate: "Dead"},
		{SourceID: 3, SharkID: id(2), BeachID: id(2), Date: "2024-03-01", Fate: "Tagged"},
	})
	require.NoError(t, err)
}

func TestListCatches_FiltersAndPages(t *testing.T) {
	s := newTestStore(t)
	seedReports(t, s)
	ctx := context.Background()

	tests := []struct {
		name      string
		filter    core.CatchFilter
		limit     int
		offset    int
		wantTotal int64
		wantIDs   []int64
	}{
		{name: "newest first", limit: 10, wantTotal: 3, wantIDs: []int64{3, 2, 1}},
		{name: "second page", limit: 2, offset: 2, wantTotal: 3, wantIDs: []int64{1}},
		{name: "by beach", filter: core.CatchFilter{BeachID: 1}, limit: 10, wantTotal: 2, wantIDs: []int64{2, 1}},
		{name: "by species", filter: core.CatchFilter{Species: "Isurus spp."}, limit: 10, wantTotal: 1, wantIDs: []int64{3}},
		{name: "date range", filter: core.CatchFilter{DateFrom: "2024-01-15", DateTo: "2024-02-28"}, limit: 10, wantTotal: 1, wantIDs: []int64{2}},
		{name: "no match", filter: core.CatchFilter{BeachID: 3}, limit: 10, wantTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := s.ListCatches(ctx, tt.filter, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)

			var got []int64
			for _, r := range rows {
				got = append(got, r.SourceID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestReportAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.CatchStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.CatchStats{}, stats)

	seedReports(t, s)

	stats, err = s.CatchStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.CatchStats{
		TotalCatches:   3,
		TotalBeaches:   3,
		TotalSharks:    2,
		LatestCatch:    "2024-03-01",
		HighRiskSharks: 1,
	}, stats)

	beaches, err := s.BeachCatchCounts(ctx)
	require.NoError(t, err)
	require.Len(t, beaches, 3)
	assert.Equal(t, "North Beach", beaches[0].Beach)
	assert.Equal(t, int64(2), beaches[0].Catches)
	assert.Equal(t, "Quiet Cove", beaches[2].Beach)
	assert.Zero(t, beaches[2].Catches)

	species, err := s.SpeciesCatchCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.SpeciesCount{
		{Species: "Carcharhinus leucas", Risk: core.RiskHigh, Catches: 2},
		{Species: "Isurus spp.", Risk: core.RiskLow, Catches: 1},
	}, species)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ann := core.NewUser{
		User:         core.User{Email: "ann@example.com", FirstName: "Ann", Surname: "Lee", AccessLevel: 1},
		PasswordHash: "hash",
	}
	require.NoError(t, s.CreateUser(ctx, ann))
	require.Error(t, s.CreateUser(ctx, ann), "duplicate email must fail")

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.User{ann.User}, users)

	updated, err := s.UpdateUser(ctx, core.UserUpdate{Email: "ann@example.com", FirstName: "Annie", Surname: "Lee", AccessLevel: 3})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.FirstName)
	assert.Equal(t, 3, updated.AccessLevel)

	_, err = s.UpdateUser(ctx, core.UserUpdate{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	require.NoError(t, s.DeleteUser(ctx, "ann@example.com"))
	assert.ErrorIs(t, s.DeleteUser(ctx, "ann@example.com"), core.ErrUserNotFound)
}

func TestBeachWarnings(t *testing.T) {
	s := newTestStore(t)
	seedReports(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, core.NewUser{
		User:         core.User{Email: "ann@example.com", FirstName: "Ann", Surname: "Lee", AccessLevel: 1},
		PasswordHash: "hash",
	}))

	warnings, err := s.BeachWarnings(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.NoError(t, s.ReplaceBeachWarnings(ctx, "ann@example.com", []int64{2, 1}))
	warnings, err = s.BeachWarnings(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.Equal(t, "North Beach", warnings[0].Name)

	// An unknown beach rolls the whole replacement back.
	require.Error(t, s.ReplaceBeachWarnings(ctx, "ann@example.com", []int64{3, 99}))
	warnings, err = s.BeachWarnings(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Len(t, warnings, 2)

	_, err = s.BeachWarnings(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
	assert.ErrorIs(t, s.ReplaceBeachWarnings(ctx, "nobody@example.com", nil), core.ErrUserNotFound)

	require.NoError(t, s.DeleteUser(ctx, "ann@example.com"))
	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beach_warnings`).Scan(&n))
	assert.Zero(t, n, "warnings cascade with the user")
}

func TestImportHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, status := range []core.ImportStatus{core.ImportSucceeded, core.ImportFailed, core.ImportSucceeded} {
		rec := core.ImportRecord{
			ID:        string(rune('a' + i)),
			FileName:  "catches.csv",
			Status:    status,
			Phase:     core.PhaseDone,
			Rows:      10,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if status == core.ImportFailed {
			rec.Phase = core.PhaseValidated
			rec.ErrorKind = core.KindValidation
		}
		require.NoError(t, s.RecordImport(ctx, rec))
	}

	recs, err := s.ListImports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "c", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
	assert.Equal(t, core.KindValidation, recs[1].ErrorKind)
	assert.True(t, recs[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	seedReports(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, core.NewUser{
		User:         core.User{Email: "ann@example.com", FirstName: "Ann", Surname: "Lee", AccessLevel: 1},
		PasswordHash: "hash",
	}))

	require.NoError(t, s.Reset(ctx, core.ResetCatches))
	stats, err := s.CatchStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCatches)
	assert.Equal(t, int64(2), stats.TotalSharks)

	require.NoError(t, s.Reset(ctx, core.ResetAll))
	stats, err = s.CatchStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.CatchStats{}, stats)

	// Identity counters restart.
	_, err = s.InsertBeaches(ctx, []core.NewBeach{{Name: "North Beach", Area: "Bayside"}})
	require.NoError(t, err)
	beaches, err := s.Beaches(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), beaches[0].ID)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1, "users are never reset")

	assert.Error(t, s.Reset(ctx, core.ResetScope("users")))
}
