// Package main is the entry point for the d2ldates CLI tool.
package main

import (
	"os"

	"d2ldates/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
