package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Aman-CERP/titlesearch/internal/async"
	"github.com/Aman-CERP/titlesearch/internal/config"
	"github.com/Aman-CERP/titlesearch/internal/index"
	"github.com/Aman-CERP/titlesearch/internal/mcp"
	"github.com/Aman-CERP/titlesearch/internal/search"
	"github.com/Aman-CERP/titlesearch/internal/server"
	"github.com/Aman-CERP/titlesearch/internal/store"
	"github.com/Aman-CERP/titlesearch/internal/telemetry"
	"github.com/Aman-CERP/titlesearch/pkg/version"
)

// app holds the components shared by serve, search and mcp: the catalog,
// one registry per collection, the rebuild scheduler and the search service.
type app struct {
	db         *sql.DB
	registries []*store.Registry
	progress   *async.Progress
	scheduler  *index.Scheduler
	service    *search.Service
	startedAt  time.Time
}

func catalogConfig(cfg *config.Config) store.CatalogConfig {
	return store.CatalogConfig{
		Driver:        cfg.Database.Driver,
		Path:          cfg.Database.Path,
		MaxOpenConns:  cfg.Database.MaxOpenConns,
		BusyTimeoutMS: cfg.Database.BusyTimeoutMS,
	}
}

// newApp opens the catalog and wires every collection. Nothing is indexed
// until the scheduler runs.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := store.OpenCatalog(ctx, catalogConfig(cfg))
	if err != nil {
		return nil, err
	}

	a := &app{
		db:        db,
		progress:  async.NewProgress(),
		startedAt: time.Now(),
	}

	retrievers := store.NewCatalogRetrievers(db)
	searchers := make(map[store.Collection]search.Searcher, len(retrievers))
	tasks := make([]*index.RebuildTask, 0, len(retrievers))
	for _, c := range store.AllCollections() {
		retriever, ok := retrievers[c]
		if !ok {
			continue
		}
		reg, err := store.NewRegistry(c)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to create %s registry: %w", c, err)
		}
		a.registries = append(a.registries, reg)
		searchers[c] = reg
		tasks = append(tasks, index.NewRebuildTask(c, retriever, reg, cfg.Indexer.BatchSize))
	}

	a.scheduler = index.NewScheduler(tasks,
		index.WithInterval(cfg.Indexer.IntervalDuration()),
		index.WithInitialDelay(cfg.Indexer.InitialDelayDuration()),
		index.WithProgress(a.progress),
		index.WithLogger(logger))
	a.service = search.NewService(searchers,
		search.WithCacheSize(cfg.Search.CacheSize),
		search.WithMetrics(telemetry.NewQueryMetrics(telemetry.DefaultConfig())),
		search.WithLogger(logger))

	return a, nil
}

// status reports the state served on GET /status.
func (a *app) status() server.Status {
	st := server.Status{
		Version:     version.Version,
		StartedAt:   a.startedAt,
		Indexer:     a.progress.Snapshot(),
		Collections: make([]server.CollectionStatus, 0, len(a.registries)),
		Cache:       a.service.CacheStats(),
		Queries:     a.service.QueryStats(),
	}
	for _, reg := range a.registries {
		st.Collections = append(st.Collections, server.CollectionStatus{
			Name:      reg.Collection().String(),
			Languages: reg.Stats(),
		})
	}
	return st
}

func (a *app) statsProviders() []mcp.StatsProvider {
	out := make([]mcp.StatsProvider, 0, len(a.registries))
	for _, reg := range a.registries {
		out = append(out, reg)
	}
	return out
}

// Close stops the scheduler and releases every index and the catalog.
func (a *app) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	var result *multierror.Error
	for _, reg := range a.registries {
		if err := reg.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close catalog: %w", err))
		}
	}
	return result.ErrorOrNil()
}
