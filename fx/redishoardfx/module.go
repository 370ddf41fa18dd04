// Package redishoardfx provides an fx module for a Redis-backed cache manager.
package redishoardfx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hoardkv/hoard"
	"github.com/hoardkv/hoard/internal/stats"
	statsprom "github.com/hoardkv/hoard/internal/stats/prometheus"
	"github.com/hoardkv/hoard/internal/store/redisstore"
	"github.com/hoardkv/hoard/internal/store/statstore"
)

// Config holds configuration for the Redis-backed cache manager.
type Config struct {
	// URL is the Redis connection URL (redis:// or rediss://).
	URL string

	// Prefix namespaces entry keys. Default is "hoard".
	Prefix string

	// DefaultTTL applies to puts without an explicit TTL.
	// Default is hoard.DefaultTTL.
	DefaultTTL time.Duration
}

// Module provides a Redis-backed cache manager with Prometheus metrics.
// Requires a *zap.Logger and a Config to be provided.
var Module = fx.Module("redishoard",
	fx.Provide(
		newStatsCollector,
		newRedisClient,
		newManager,
	),
)

func newStatsCollector() stats.Collector {
	return statsprom.New(nil)
}

func newRedisClient(cfg Config, lc fx.Lifecycle) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// Params holds dependencies for creating the manager.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Client    redis.UniversalClient
	Lifecycle fx.Lifecycle
}

// Result holds the provided manager.
type Result struct {
	fx.Out

	Manager *hoard.Manager
}

func newManager(p Params) (Result, error) {
	storeOpts := []redisstore.Option{}
	if p.Config.Prefix != "" {
		storeOpts = append(storeOpts, redisstore.WithPrefix(p.Config.Prefix))
	}
	st, err := redisstore.New(p.Client, storeOpts...)
	if err != nil {
		return Result{}, err
	}

	managerOpts := []hoard.Option{
		hoard.WithStore(statstore.New(st, p.Collector)),
		hoard.WithStats(p.Collector),
		hoard.WithLogger(p.Logger.Named("hoard")),
	}
	if p.Config.DefaultTTL > 0 {
		managerOpts = append(managerOpts, hoard.WithDefaultTTL(p.Config.DefaultTTL))
	}

	manager, err := hoard.New(managerOpts...)
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
