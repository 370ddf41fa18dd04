package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var delCmd = &cobra.Command{
	Use:   "del [key]",
	Short: "Delete a cache entry",
	Long: `Delete the entry for a key.

Deleting a key that does not exist still succeeds; only a backing store
fault reports failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runDel,
}

func init() {
	rootCmd.AddCommand(delCmd)
}

func runDel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	manager, err := openManager(ctx)
	if err != nil {
		return err
	}
	defer manager.Close()

	if !manager.Delete(ctx, args[0]) {
		return fmt.Errorf("delete failed for key %q", args[0])
	}
	fmt.Println("deleted")
	return nil
}
