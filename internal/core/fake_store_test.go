package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var errInjected = errors.New("injected store failure")

// fakeStore is an in-memory Store. Setting failAt makes the matching call
// return errInjected.
type fakeStore struct {
	mu sync.Mutex

	sharks  []Shark
	beaches []Beach
	catches []NewCatch
	history []ImportRecord
	users   map[string]NewUser

	failAt     ImportPhase
	failCommit bool
	calls      map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]NewUser), calls: make(map[string]int)}
}

func (f *fakeStore) call(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeStore) InsertSharks(_ context.Context, sharks []NewShark) (int64, error) {
	f.call("InsertSharks")
	if f.failAt == PhaseSharksUpserted {
		return 0, errInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, s := range sharks {
		if f.sharkByName(s.Name) {
			continue
		}
		f.sharks = append(f.sharks, Shark{ID: int64(len(f.sharks) + 1), Name: s.Name, Species: s.Species, Risk: s.Risk})
		n++
	}
	return n, nil
}

func (f *fakeStore) sharkByName(name string) bool {
	for _, s := range f.sharks {
		if s.Name == name {
			return true
		}
	}
	return false
}

func (f *fakeStore) InsertBeaches(_ context.Context, beaches []NewBeach) (int64, error) {
	f.call("InsertBeaches")
	if f.failAt == PhaseBeachesUpserted {
		return 0, errInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
outer:
	for _, b := range beaches {
		for _, have := range f.beaches {
			if have.Name == b.Name {
				continue outer
			}
		}
		f.beaches = append(f.beaches, Beach{ID: int64(len(f.beaches) + 1), Name: b.Name, Area: b.Area})
		n++
	}
	return n, nil
}

func (f *fakeStore) SharksByNameAndSpecies(_ context.Context, names, species []string) ([]Shark, error) {
	f.call("SharksByNameAndSpecies")
	if f.failAt == PhaseIdentifiersResolved {
		return nil, errInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	in := func(set []string, v string) bool {
		for _, s := range set {
			if s == v {
				return true
			}
		}
		return false
	}
	var out []Shark
	for _, s := range f.sharks {
		if in(names, s.Name) && in(species, s.Species) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) Beaches(context.Context) ([]Beach, error) {
	f.call("Beaches")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Beach(nil), f.beaches...), nil
}

func (f *fakeStore) InsertCatches(_ context.Context, catches []NewCatch) (int64, error) {
	f.call("InsertCatches")
	if f.failAt == PhaseCatchesInserted {
		return 0, errInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catches = append(f.catches, catches...)
	return int64(len(catches)), nil
}

// InTx snapshots the reference and catch tables and restores them if fn
// fails.
func (f *fakeStore) InTx(_ context.Context, fn func(ImportStore) error) error {
	f.mu.Lock()
	sharks := append([]Shark(nil), f.sharks...)
	beaches := append([]Beach(nil), f.beaches...)
	catches := append([]NewCatch(nil), f.catches...)
	f.mu.Unlock()

	err := fn(f)
	if err == nil && f.failCommit {
		err = errInjected
	}
	if err != nil {
		f.mu.Lock()
		f.sharks, f.beaches, f.catches = sharks, beaches, catches
		f.mu.Unlock()
	}
	return err
}

func (f *fakeStore) ListCatches(_ context.Context, _ CatchFilter, limit, offset int) ([]CatchRow, int64, error) {
	f.call("ListCatches")
	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []CatchRow
	for i, c := range f.catches {
		rows = append(rows, CatchRow{CatchID: int64(i + 1), SourceID: c.SourceID, Date: c.Date, Fate: c.Fate})
	}
	total := int64(len(rows))
	if offset >= len(rows) {
		return nil, total, nil
	}
	return rows[offset:min(offset+limit, len(rows))], total, nil
}

func (f *fakeStore) CatchStats(context.Context) (CatchStats, error) {
	f.call("CatchStats")
	if f.failAt == PhaseFailed {
		return CatchStats{}, errInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return CatchStats{
		TotalCatches: int64(len(f.catches)),
		TotalBeaches: int64(len(f.beaches)),
		TotalSharks:  int64(len(f.sharks)),
	}, nil
}

func (f *fakeStore) BeachCatchCounts(context.Context) ([]BeachCount, error) {
	f.call("BeachCatchCounts")
	return nil, nil
}

func (f *fakeStore) SpeciesCatchCounts(context.Context) ([]SpeciesCount, error) {
	f.call("SpeciesCatchCounts")
	return nil, nil
}

func (f *fakeStore) ListUsers(context.Context) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []User
	for _, u := range f.users {
		out = append(out, u.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u NewUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Email]; ok {
		return errors.New("duplicate email")
	}
	f.users[u.Email] = u
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u UserUpdate) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	have, ok := f.users[u.Email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	have.User = User(u)
	f.users[u.Email] = have
	return have.User, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; !ok {
		return ErrUserNotFound
	}
	delete(f.users, email)
	return nil
}

func (f *fakeStore) BeachWarnings(context.Context, string) ([]Beach, error) { return nil, nil }

func (f *fakeStore) ReplaceBeachWarnings(_ context.Context, email string, ids []int64) error {
	f.call("ReplaceBeachWarnings")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; !ok {
		return ErrUserNotFound
	}
	return nil
}

func (f *fakeStore) RecordImport(_ context.Context, rec ImportRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, rec)
	return nil
}

func (f *fakeStore) ListImports(_ context.Context, limit int) ([]ImportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]ImportRecord(nil), f.history...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }

func (f *fakeStore) Reset(_ context.Context, scope ResetScope) error {
	f.call("Reset")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catches = nil
	if scope == ResetAll {
		f.sharks, f.beaches, f.history = nil, nil, nil
	}
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

// recordingMetrics captures telemetry calls.
type recordingMetrics struct {
	mu       sync.Mutex
	started  int
	finished []ImportStatus
	kinds    []ErrorKind
	stages   []ImportPhase
	added    [3]int64
	hits     int
	misses   int
}

func (m *recordingMetrics) ImportStarted() {
	m.mu.Lock()
	m.started++
	m.mu.Unlock()
}

func (m *recordingMetrics) ImportFinished(status ImportStatus, kind ErrorKind, _ time.Duration) {
	m.mu.Lock()
	m.finished = append(m.finished, status)
	m.kinds = append(m.kinds, kind)
	m.mu.Unlock()
}

func (m *recordingMetrics) StageCompleted(phase ImportPhase, _ time.Duration) {
	m.mu.Lock()
	m.stages = append(m.stages, phase)
	m.mu.Unlock()
}

func (m *recordingMetrics) RowsAdded(sharks, beaches, catches int64) {
	m.mu.Lock()
	m.added[0] += sharks
	m.added[1] += beaches
	m.added[2] += catches
	m.mu.Unlock()
}

func (m *recordingMetrics) ReportCacheLookup(hit bool) {
	m.mu.Lock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
	m.mu.Unlock()
}

// memArchiver keeps archived files in a map.
type memArchiver struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (a *memArchiver) Archive(_ context.Context, key string, data []byte) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.files == nil {
		a.files = make(map[string][]byte)
	}
	a.files[key] = append([]byte(nil), data...)
	return nil
}
