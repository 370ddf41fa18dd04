package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoardkv/hoard"
)

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Read a cache entry",
	Long: `Read the cached value for a key.

With --within, the read only hits if the entry was written or refreshed
more recently than the given window.

Examples:
  hoard get user:42
  hoard get user:42 --within 30s`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var within time.Duration

func init() {
	getCmd.Flags().DurationVar(&within, "within", 0, "only accept entries updated within this window")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	manager, err := openManager(ctx)
	if err != nil {
		return err
	}
	defer manager.Close()

	var hit *hoard.Hit
	if within > 0 {
		hit, err = manager.GetWithin(ctx, args[0], within)
	} else {
		hit, err = manager.Get(ctx, args[0])
	}
	if err != nil {
		if errors.Is(err, hoard.ErrNotFound) {
			return fmt.Errorf("key %q not found", args[0])
		}
		return fmt.Errorf("get failed: %w", err)
	}

	out, err := json.Marshal(map[string]any{
		"value":              hit.Value,
		"expiryEpochSeconds": hit.ExpiryEpochSeconds,
	})
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
