// Package main is the entry point for the pgship CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env next to the caller may hold PGSHIP_URL / PGSHIP_TOKEN.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "pgship",
		Short:   "Run SQL against a pgship endpoint",
		Long:    "pgship composes parameterized SQL and executes it over an HTTP request/response endpoint.",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
	}

	rootCmd.AddCommand(newExecCommand())
	return rootCmd.Execute()
}
