package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Default settings applied by NewService for zero-valued config fields.
const (
	DefaultPageSize      = 10
	DefaultStatsTTL      = 30 * time.Second
	DefaultImportTimeout = 5 * time.Minute
)

// ServiceConfig holds the tunables of a Service.
type ServiceConfig struct {
	// Atomic runs the write stages of an import inside one transaction.
	Atomic bool

	// ImportTimeout bounds a single import, including waiting on the store.
	ImportTimeout time.Duration

	// MaxConcurrent and MaxWait configure the import limiter.
	MaxConcurrent int
	MaxWait       time.Duration

	// PageSize is the default number of catches per report page.
	PageSize int

	// StatsTTL is how long aggregate report results are cached. Zero uses
	// DefaultStatsTTL, a negative value disables caching.
	StatsTTL time.Duration
}

// MetricsRecorder receives import telemetry. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	ImportStarted()
	ImportFinished(status ImportStatus, kind ErrorKind, d time.Duration)
	StageCompleted(phase ImportPhase, d time.Duration)
	RowsAdded(sharks, beaches, catches int64)
	ReportCacheLookup(hit bool)
}

// Archiver keeps a copy of every successfully imported file.
type Archiver interface {
	Archive(ctx context.Context, key string, data []byte) error
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics sets the recorder for import telemetry.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithArchiver enables archiving of imported files.
func WithArchiver(a Archiver) Option {
	return func(s *Service) {
		s.archiver = a
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service provides the SharkGuard business logic: CSV ingestion, reports,
// user administration and maintenance.
type Service struct {
	store    Store
	cfg      ServiceConfig
	limiter  *ImportLimiter
	metrics  MetricsRecorder
	archiver Archiver
	stats    *cache.Cache
	now      func() time.Time

	// statsMu orders cache stores against flushes; statsGen counts flushes.
	statsMu  sync.Mutex
	statsGen uint64
}

// NewService creates a Service backed by store.
func NewService(store Store, cfg ServiceConfig, opts ...Option) *Service {
	if cfg.ImportTimeout <= 0 {
		cfg.ImportTimeout = DefaultImportTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.StatsTTL == 0 {
		cfg.StatsTTL = DefaultStatsTTL
	}

	s := &Service{
		store:   store,
		cfg:     cfg,
		limiter: NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		metrics: nopMetrics{},
		now:     time.Now,
	}
	if cfg.StatsTTL > 0 {
		// No janitor: expired entries are ignored on read and the key set is tiny.
		s.stats = cache.New(cfg.StatsTTL, 0)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportLimiterStatus returns the current import slot usage.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Migrate creates the schema if it does not exist.
func (s *Service) Migrate(ctx context.Context) error {
	if err := s.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Reset empties the tables selected by scope. User accounts are never reset.
func (s *Service) Reset(ctx context.Context, scope ResetScope) error {
	if !scope.Valid() {
		return fmt.Errorf("unknown reset scope %q", scope)
	}
	if err := s.store.Reset(ctx, scope); err != nil {
		return fmt.Errorf("reset %s: %w", scope, err)
	}
	s.flushStats()
	return nil
}

type nopMetrics struct{}

func (nopMetrics) ImportStarted()                                        {}
func (nopMetrics) ImportFinished(ImportStatus, ErrorKind, time.Duration) {}
func (nopMetrics) StageCompleted(ImportPhase, time.Duration)             {}
func (nopMetrics) RowsAdded(int64, int64, int64)                         {}
func (nopMetrics) ReportCacheLookup(bool)                                {}
