// Package main provides the leapmacro CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapmacro/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
