// Package main provides the hoard CLI tool for reading and writing cache
// entries in a backing store.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
