package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skiff-cli",
	Short: "Skiff CLI tool",
	Long: `Skiff CLI is a command-line interface for the Skiff messaging framework.

Available commands:
  topics        Discover, inspect, and validate declared topics
  params        Inspect declared parameters and parameter files
  new-module    Scaffold a new application module

Use "skiff-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
