// Package main provides the entry point for the songbook CLI.
package main

import (
	"os"

	"github.com/songbook-app/songbook/cmd/songbook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
