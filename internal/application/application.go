// Package application wires configuration into a running SharkGuard service.
// Both the HTTP server and sharkctl start from New.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/sharkguard/internal/archive"
	"github.com/JonMunkholm/sharkguard/internal/config"
	"github.com/JonMunkholm/sharkguard/internal/core"
	"github.com/JonMunkholm/sharkguard/internal/observability/metrics"
	"github.com/JonMunkholm/sharkguard/internal/store"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config   *config.Config
	Store    core.Store
	Service  *core.Service
	Registry *prometheus.Registry
	Metrics  *metrics.ImportMetrics
}

// Option customizes New.
type Option func(*options)

type options struct {
	atomic *bool
}

// WithAtomic overrides IMPORT_ATOMIC.
func WithAtomic(atomic bool) Option {
	return func(o *options) {
		o.atomic = &atomic
	}
}

// New opens the store (migrating it when configured), the archive backend
// and the metrics registry, and builds the service on top of them.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	archiver, err := archive.Open(ctx, cfg.Archive)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}

	registry, m, err := metrics.NewDefaultRegistry()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	svcCfg := ServiceConfig(cfg)
	if o.atomic != nil {
		svcCfg.Atomic = *o.atomic
	}

	svc := core.NewService(st, svcCfg,
		core.WithMetrics(m),
		core.WithArchiver(archiver),
	)

	slog.Info("service ready",
		"driver", cfg.Database.Driver,
		"atomic_imports", svcCfg.Atomic,
		"archive", cfg.Archive.Backend,
	)

	return &App{
		Config:   cfg,
		Store:    st,
		Service:  svc,
		Registry: registry,
		Metrics:  m,
	}, nil
}

// ServiceConfig maps the import and report settings onto core.ServiceConfig.
func ServiceConfig(cfg *config.Config) core.ServiceConfig {
	return core.ServiceConfig{
		Atomic:        cfg.Import.Atomic,
		ImportTimeout: cfg.Import.Timeout,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		PageSize:      cfg.Reports.PageSize,
		StatsTTL:      cfg.Reports.StatsTTL,
	}
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
