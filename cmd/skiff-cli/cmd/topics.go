package cmd

import (
	"github.com/spf13/cobra"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Manage and explore declared topics",
	Long: `The topics command provides tools for discovering, inspecting, and validating
topics declared in the topic directory. Topics carry the pub-sub traffic
between modules and nodes; declaring one documents its owner, payload type,
and purpose.

Available subcommands:
  list      List all declared topics with optional filtering
  get       Get detailed information about a specific topic
  validate  Validate a topic name and its declaration

Examples:
  # List all topics
  skiff-cli topics list

  # List topics declared by one component
  skiff-cli topics list --owner=diagnostics

  # List topics under a name prefix
  skiff-cli topics list --prefix=/sensors

  # Get detailed information about a topic
  skiff-cli topics get /diagnostics/stats

  # Validate a topic name
  skiff-cli topics validate /diagnostics/stats

Use "skiff-cli topics [command] --help" for more information about a specific command.`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
