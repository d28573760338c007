package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	cli "github.com/tabops/tabpilot/cmd/tabpilot"
)

func main() {
	// Load .env if present so provider API keys can live next to the
	// binary during development.
	_ = godotenv.Load()

	if err := cli.SetupRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
