// Package main provides perfctl, a command line view of the performance
// dashboard aggregates for a local workbook.
package main

import (
	"os"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
