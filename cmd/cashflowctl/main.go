// Package main is the entry point for the cashflowctl CLI.
package main

import (
	"os"

	"cashflow/cmd/cashflowctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
