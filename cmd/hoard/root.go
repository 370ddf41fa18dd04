package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hoardkv/hoard"
	"github.com/hoardkv/hoard/internal/store"
	"github.com/hoardkv/hoard/internal/store/boltstore"
	"github.com/hoardkv/hoard/internal/store/dynamostore"
	"github.com/hoardkv/hoard/internal/store/redisstore"
)

var (
	// Global flags.
	boltPath    string
	redisURL    string
	dynamoTable string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "hoard",
	Short: "Durable cache entries with TTL, dedup, and usage accounting",
	Long: `Hoard reads and writes entries in a durable, TTL-capable cache.

Identical values are deduplicated by fingerprint: re-putting an unchanged
value refreshes the entry instead of rewriting it.

By default entries live in a local bolt file. Point --redis-url at a Redis
instance or --dynamo-table at a DynamoDB table for shared backends.

Examples:
  # Cache a value for 10 minutes
  hoard put user:42 '{"plan":"pro"}' --ttl 10m

  # Read it back, but only if written in the last minute
  hoard get user:42 --within 1m

  # Drop it
  hoard del user:42`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&boltPath, "db", "./hoard.db", "path to the local bolt database file")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis connection URL (overrides --db)")
	rootCmd.PersistentFlags().StringVar(&dynamoTable, "dynamo-table", "", "DynamoDB table name (overrides --db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// openManager builds a manager for the backend selected by the global flags.
func openManager(ctx context.Context) (*hoard.Manager, error) {
	logger := zap.NewNop()
	if verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
	}

	var (
		st  store.Adapter
		err error
	)
	switch {
	case redisURL != "":
		opts, perr := redis.ParseURL(redisURL)
		if perr != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", perr)
		}
		st, err = redisstore.New(redis.NewClient(opts))
	case dynamoTable != "":
		st, err = dynamostore.New(ctx, dynamostore.WithTable(dynamoTable))
	default:
		st, err = boltstore.Open(boltPath)
	}
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return hoard.New(
		hoard.WithStore(st),
		hoard.WithLogger(logger.Named("hoard")),
	)
}
