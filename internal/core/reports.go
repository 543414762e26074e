package core

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Cache keys for aggregate report results.
const (
	statsKeyTotals  = "stats"
	statsKeyBeaches = "beaches"
	statsKeySpecies = "species"
)

// Paging bounds. MaxPage keeps (page-1)*MaxPageSize within an int32 so the
// offset never wraps.
const (
	MaxPageSize = 500
	MaxPage     = math.MaxInt32 / MaxPageSize
)

// CatchQuery selects one page of the catch report.
type CatchQuery struct {
	CatchFilter
	Page     int // 1-based; values below 1 mean the first page
	PageSize int // zero uses the service default
}

// CatchPage is one page of the catch report.
type CatchPage struct {
	Catches    []CatchRow `json:"catches"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
}

// ListCatches returns catches joined with their shark and beach, newest
// date first, filtered by q.
func (s *Service) ListCatches(ctx context.Context, q CatchQuery) (*CatchPage, error) {
	page := min(max(q.Page, 1), MaxPage)
	size := q.PageSize
	if size <= 0 {
		size = s.cfg.PageSize
	}
	size = min(size, MaxPageSize)

	filter := q.CatchFilter
	filter.Species = strings.TrimSpace(filter.Species)
	filter.DateFrom = strings.TrimSpace(filter.DateFrom)
	filter.DateTo = strings.TrimSpace(filter.DateTo)

	rows, total, err := s.store.ListCatches(ctx, filter, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("list catches: %w", err)
	}
	if rows == nil {
		rows = []CatchRow{}
	}

	return &CatchPage{
		Catches:    rows,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// Stats returns the headline report numbers.
func (s *Service) Stats(ctx context.Context) (CatchStats, error) {
	return cached(s, statsKeyTotals, func() (CatchStats, error) {
		st, err := s.store.CatchStats(ctx)
		if err != nil {
			return CatchStats{}, fmt.Errorf("catch stats: %w", err)
		}
		return st, nil
	})
}

// BeachStats returns every beach with its catch count, busiest first.
func (s *Service) BeachStats(ctx context.Context) ([]BeachCount, error) {
	return cached(s, statsKeyBeaches, func() ([]BeachCount, error) {
		counts, err := s.store.BeachCatchCounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("beach stats: %w", err)
		}
		return counts, nil
	})
}

// SpeciesDistribution returns catch counts per species, most caught first.
func (s *Service) SpeciesDistribution(ctx context.Context) ([]SpeciesCount, error) {
	return cached(s, statsKeySpecies, func() ([]SpeciesCount, error) {
		counts, err := s.store.SpeciesCatchCounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("species stats: %w", err)
		}
		return counts, nil
	})
}

// Beaches lists every beach, for subscription pickers and report filters.
func (s *Service) Beaches(ctx context.Context) ([]Beach, error) {
	beaches, err := s.store.Beaches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list beaches: %w", err)
	}
	return beaches, nil
}

// cached returns the value stored under key or loads and stores it.
// Errors are never cached, and neither is a value loaded across a flush.
func cached[T any](s *Service, key string, load func() (T, error)) (T, error) {
	var gen uint64
	if s.stats != nil {
		s.statsMu.Lock()
		gen = s.statsGen
		s.statsMu.Unlock()

		if v, ok := s.stats.Get(key); ok {
			if t, ok := v.(T); ok {
				s.metrics.ReportCacheLookup(true)
				return t, nil
			}
		}
		s.metrics.ReportCacheLookup(false)
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if s.stats != nil {
		s.statsMu.Lock()
		if s.statsGen == gen {
			s.stats.SetDefault(key, v)
		}
		s.statsMu.Unlock()
	}
	return v, nil
}

// flushStats drops cached aggregates after the underlying tables change.
func (s *Service) flushStats() {
	if s.stats != nil {
		s.statsMu.Lock()
		s.statsGen++
		s.stats.Flush()
		s.statsMu.Unlock()
	}
}
