package core

// import.go runs the catch CSV ingestion pipeline.
//
// An import moves through these stages in order:
//
//	received -> normalized -> validated -> sharks_upserted ->
//	beaches_upserted -> identifiers_resolved -> catches_inserted -> done
//
// Decoding, normalization and validation never touch the store, so a
// validation failure writes nothing. The write stages run against the store
// directly, or inside one transaction when ServiceConfig.Atomic is set.
// Without a transaction a storage failure can leave earlier stages applied.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sharkguard/internal/logging"
)

// importRun tracks one import while it moves through the stages.
type importRun struct {
	id         string
	fileName   string
	start      time.Time
	stageStart time.Time
	phase      ImportPhase
	log        *slog.Logger
	result     ImportResult
}

// Import reads a catch CSV from r and loads it into the store.
//
// On success the result holds the number of sharks, beaches and catches
// created. On failure the error is an *ImportError whose Kind tells a
// rejected file (KindValidation) apart from a store failure (KindStorage).
// ErrTooManyImports or a context error is returned as-is if no import slot
// could be taken.
func (s *Service) Import(ctx context.Context, fileName string, r io.Reader) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ImportTimeout)
	defer cancel()

	now := s.now()
	run := &importRun{
		id:         uuid.NewString(),
		fileName:   fileName,
		start:      now,
		stageStart: now,
		phase:      PhaseReceived,
	}
	run.log = logging.WithFields(ctx, "import_id", run.id, "file", fileName)
	run.result.ImportID = run.id
	run.result.FileName = fileName

	s.metrics.ImportStarted()
	run.log.Info("import started", "atomic", s.cfg.Atomic)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, s.fail(ctx, run, validationError(PhaseNormalized, fmt.Errorf("read upload: %w", err), nil))
	}

	if err := s.runImport(ctx, run, data); err != nil {
		return nil, s.fail(ctx, run, err)
	}

	s.succeed(ctx, run, data)
	result := run.result
	return &result, nil
}

func (s *Service) runImport(ctx context.Context, run *importRun, data []byte) *ImportError {
	rows, err := DecodeCSV(bytes.NewReader(data))
	if err != nil {
		return validationError(PhaseNormalized, err, nil)
	}
	run.result.Rows = len(rows)

	records := Normalize(rows)
	s.advance(run, PhaseNormalized)

	if problems := ValidateHeaders(rows); len(problems) > 0 {
		return validationError(PhaseValidated, nil, problems)
	}
	if problems := ValidateRecords(records); len(problems) > 0 {
		return validationError(PhaseValidated, nil, problems)
	}
	s.advance(run, PhaseValidated)

	if !s.cfg.Atomic {
		return s.writeRecords(ctx, run, s.store, records)
	}

	var stageErr *ImportError
	err = s.store.InTx(ctx, func(st ImportStore) error {
		if ie := s.writeRecords(ctx, run, st, records); ie != nil {
			stageErr = ie
			return ie
		}
		return nil
	})
	if err == nil {
		return nil
	}

	// Everything was rolled back.
	run.result.AddedSharks, run.result.AddedBeaches, run.result.AddedCatches = 0, 0, 0
	if stageErr != nil {
		return stageErr
	}
	return storageError(PhaseCatchesInserted, fmt.Errorf("commit: %w", err))
}

// writeRecords runs the upsert, resolve and insert stages against st.
func (s *Service) writeRecords(ctx context.Context, run *importRun, st ImportStore, records []CatchRecord) *ImportError {
	added, err := st.InsertSharks(ctx, sharkRows(records))
	if err != nil {
		return storageError(PhaseSharksUpserted, fmt.Errorf("insert sharks: %w", err))
	}
	run.result.AddedSharks = added
	s.advance(run, PhaseSharksUpserted)

	added, err = st.InsertBeaches(ctx, beachRows(records))
	if err != nil {
		return storageError(PhaseBeachesUpserted, fmt.Errorf("insert beaches: %w", err))
	}
	run.result.AddedBeaches = added
	s.advance(run, PhaseBeachesUpserted)

	names, species := distinctNamesAndSpecies(records)
	sharks, err := st.SharksByNameAndSpecies(ctx, names, species)
	if err != nil {
		return storageError(PhaseIdentifiersResolved, fmt.Errorf("select sharks: %w", err))
	}
	beaches, err := st.Beaches(ctx)
	if err != nil {
		return storageError(PhaseIdentifiersResolved, fmt.Errorf("select beaches: %w", err))
	}
	catches, unresolved := resolveCatches(records, sharkIndex(sharks), beachIndex(beaches))
	if unresolved > 0 {
		run.log.Warn("catches with unresolved shark or beach", "count", unresolved)
	}
	s.advance(run, PhaseIdentifiersResolved)

	added, err = st.InsertCatches(ctx, catches)
	if err != nil {
		return storageError(PhaseCatchesInserted, fmt.Errorf("insert catches: %w", err))
	}
	run.result.AddedCatches = added
	s.advance(run, PhaseCatchesInserted)

	return nil
}

// advance records completion of the current stage and moves to phase.
func (s *Service) advance(run *importRun, phase ImportPhase) {
	now := s.now()
	d := now.Sub(run.stageStart)
	s.metrics.StageCompleted(phase, d)
	run.log.Debug("import stage complete", "phase", phase, "duration", d)
	run.phase = phase
	run.stageStart = now
}

func (s *Service) succeed(ctx context.Context, run *importRun, data []byte) {
	s.advance(run, PhaseDone)
	run.result.Duration = s.now().Sub(run.start)

	if s.archiver != nil {
		key := ArchiveKey(run.id, run.fileName, run.start)
		if err := s.archiver.Archive(ctx, key, data); err != nil {
			run.log.Warn("archive upload failed", "key", key, "error", err)
		} else {
			run.result.ArchiveKey = key
		}
	}

	if run.result.AddedSharks+run.result.AddedBeaches+run.result.AddedCatches > 0 {
		s.flushStats()
	}

	s.metrics.RowsAdded(run.result.AddedSharks, run.result.AddedBeaches, run.result.AddedCatches)
	s.metrics.ImportFinished(ImportSucceeded, "", run.result.Duration)
	s.recordHistory(ctx, run, ImportSucceeded, nil)

	run.log.Info("import completed",
		"rows", run.result.Rows,
		"added_sharks", run.result.AddedSharks,
		"added_beaches", run.result.AddedBeaches,
		"added_catches", run.result.AddedCatches,
		"duration", run.result.Duration,
	)
}

func (s *Service) fail(ctx context.Context, run *importRun, ie *ImportError) error {
	d := s.now().Sub(run.start)
	run.phase = PhaseFailed

	switch ie.Kind {
	case KindValidation:
		run.log.Warn("import rejected", "phase", ie.Phase, "problems", len(ie.Problems), "error", ie)
	default:
		run.log.Error("import failed", "phase", ie.Phase, "error", ie.Err)
	}

	// Partial writes are possible in non-atomic mode.
	if ie.Kind == KindStorage && !s.cfg.Atomic {
		s.flushStats()
	}

	s.metrics.ImportFinished(ImportFailed, ie.Kind, d)
	s.recordHistory(ctx, run, ImportFailed, ie)
	return ie
}

// recordHistory stores the outcome. Failures are logged and never change
// the import result.
func (s *Service) recordHistory(ctx context.Context, run *importRun, status ImportStatus, ie *ImportError) {
	rec := ImportRecord{
		ID:           run.id,
		FileName:     run.fileName,
		Status:       status,
		Phase:        run.phase,
		Rows:         run.result.Rows,
		AddedSharks:  run.result.AddedSharks,
		AddedBeaches: run.result.AddedBeaches,
		AddedCatches: run.result.AddedCatches,
		DurationMs:   s.now().Sub(run.start).Milliseconds(),
		IPAddress:    GetIPAddressFromContext(ctx),
		UserAgent:    GetUserAgentFromContext(ctx),
		ArchiveKey:   run.result.ArchiveKey,
		CreatedAt:    run.start.UTC(),
	}
	if ie != nil {
		rec.Phase = ie.Phase
		rec.ErrorKind = ie.Kind
	}

	// The import context may already be past its deadline.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.RecordImport(hctx, rec); err != nil {
		run.log.Warn("record import history failed", "error", err)
	}
}

// ImportHistory lists the most recent imports, newest first.
func (s *Service) ImportHistory(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	recs, err := s.store.ListImports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return recs, nil
}

// ArchiveKey builds the object key for an archived upload:
// imports/YYYY/MM/DD/<import id>-<file name>.
func ArchiveKey(importID, fileName string, at time.Time) string {
	name := sanitizeFileName(fileName)
	if name == "" {
		name = "upload.csv"
	}
	return path.Join("imports", at.UTC().Format("2006/01/02"), importID+"-"+name)
}

// sanitizeFileName keeps the base name and replaces anything outside a
// conservative character set.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func sharkRows(records []CatchRecord) []NewShark {
	out := make([]NewShark, len(records))
	for i, rec := range records {
		out[i] = NewShark{Name: rec.Name.String, Species: rec.Species.String, Risk: rec.Risk}
	}
	return out
}

func beachRows(records []CatchRecord) []NewBeach {
	out := make([]NewBeach, len(records))
	for i, rec := range records {
		out[i] = NewBeach{Name: rec.Beach.String, Area: rec.Area.String}
	}
	return out
}

// distinctNamesAndSpecies returns the batch's distinct common names and
// distinct species, each in first-seen order.
func distinctNamesAndSpecies(records []CatchRecord) (names, species []string) {
	seenName := make(map[string]bool)
	seenSpecies := make(map[string]bool)
	for _, rec := range records {
		if !seenName[rec.Name.String] {
			seenName[rec.Name.String] = true
			names = append(names, rec.Name.String)
		}
		if !seenSpecies[rec.Species.String] {
			seenSpecies[rec.Species.String] = true
			species = append(species, rec.Species.String)
		}
	}
	return names, species
}

func sharkKey(name, species string) string { return name + "_" + species }
func beachKey(beach, area string) string   { return beach + "_" + area }

func sharkIndex(sharks []Shark) map[string]int64 {
	idx := make(map[string]int64, len(sharks))
	for _, sh := range sharks {
		idx[sharkKey(sh.Name, sh.Species)] = sh.ID
	}
	return idx
}

func beachIndex(beaches []Beach) map[string]int64 {
	idx := make(map[string]int64, len(beaches))
	for _, b := range beaches {
		idx[beachKey(b.Name, b.Area)] = b.ID
	}
	return idx
}

// resolveCatches builds catch rows from the lookup maps. A key missing from
// a map leaves that foreign key NULL; unresolved counts such rows.
func resolveCatches(records []CatchRecord, sharks, beaches map[string]int64) (catches []NewCatch, unresolved int) {
	catches = make([]NewCatch, len(records))
	for i, rec := range records {
		c := NewCatch{
			SourceID: rec.ID.Int64,
			Date:     rec.Date.String,
			Fate:     rec.Fate.String,
		}
		if id, ok := sharks[sharkKey(rec.Name.String, rec.Species.String)]; ok {
			c.SharkID = pgtype.Int8{Int64: id, Valid: true}
		}
		if id, ok := beaches[beachKey(rec.Beach.String, rec.Area.String)]; ok {
			c.BeachID = pgtype.Int8{Int64: id, Valid: true}
		}
		if !c.SharkID.Valid || !c.BeachID.Valid {
			unresolved++
		}
		catches[i] = c
	}
	return catches, unresolved
}

// IsImportError reports whether err came from a pipeline stage, as opposed
// to limiter saturation or cancellation before the import started.
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}
