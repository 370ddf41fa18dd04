// Package memoryhoardfx provides an fx module for an in-memory cache manager.
// Useful for testing.
package memoryhoardfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hoardkv/hoard"
	"github.com/hoardkv/hoard/internal/stats"
	"github.com/hoardkv/hoard/internal/stats/logger"
	"github.com/hoardkv/hoard/internal/store/memstore"
)

// Module provides an in-memory cache manager for testing.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memoryhoard",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newManager,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("hoard.stats"))
}

func newMemStore() (*memstore.Store, error) {
	return memstore.New()
}

// Params holds dependencies for creating the manager.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

// Result holds the provided manager. The *memstore.Store provided by the
// module is also available for injection into test setup.
type Result struct {
	fx.Out

	Manager *hoard.Manager
}

func newManager(p Params) (Result, error) {
	manager, err := hoard.New(
		hoard.WithStore(p.Store),
		hoard.WithStats(p.Collector),
		hoard.WithLogger(p.Logger.Named("hoard")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return manager.Close()
		},
	})

	return Result{Manager: manager}, nil
}
