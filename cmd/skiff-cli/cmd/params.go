package cmd

import (
	"github.com/spf13/cobra"
)

// paramsCmd represents the params command
var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Inspect declared parameters and parameter files",
	Long: `The params command shows the parameters the application's modules declare,
with their default values. Pass a parameter file to see the effective values
the application would run with after applying that file.

Available subcommands:
  list  List all declared parameters and their values
  get   Get a single parameter by name

Examples:
  # List the declared parameters and their defaults
  skiff-cli params list

  # List the effective values after applying a parameter file
  skiff-cli params list --file params.json

  # Inspect one parameter
  skiff-cli params get relay.timeout_ms

Use "skiff-cli params [command] --help" for more information about a specific command.`,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}
