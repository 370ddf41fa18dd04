package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put [key] [value]",
	Short: "Write a cache entry",
	Long: `Cache a value under a key.

The value is parsed as JSON when possible, otherwise stored as a plain
string. Re-putting an identical value refreshes the existing entry rather
than rewriting it.

Examples:
  hoard put user:42 '{"plan":"pro"}' --ttl 10m
  hoard put greeting "hello world"`,
	Args: cobra.ExactArgs(2),
	RunE: runPut,
}

var ttl time.Duration

func init() {
	putCmd.Flags().DurationVar(&ttl, "ttl", 0, "time to live (0 uses the default of 900s)")
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	manager, err := openManager(ctx)
	if err != nil {
		return err
	}
	defer manager.Close()

	// Structured input is stored structured; anything else is a string.
	var value any
	if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
		value = args[1]
	}

	receipt, err := manager.Put(ctx, args[0], value, ttl)
	if err != nil {
		return fmt.Errorf("put failed: %w", err)
	}

	out, err := json.Marshal(map[string]any{
		"keyFingerprint":     receipt.KeyFingerprint,
		"expiryEpochSeconds": receipt.ExpiryEpochSeconds,
	})
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
