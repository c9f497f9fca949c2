// Package main provides the tagpivot CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/tagpivot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
