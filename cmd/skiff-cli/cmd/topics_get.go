package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skiffworks/skiff/cmd/skiff-cli/internal/bootstrap"
	"github.com/skiffworks/skiff/cmd/skiff-cli/internal/topics"
	"github.com/skiffworks/skiff/internal/topicmgr"
)

var getOutputFormat string

// topicsGetCmd represents the topics get command
var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a specific topic",
	Long: `Get detailed information about a topic declared in the topic directory.
This command displays the full declaration: name, owner, payload type,
description, example, registration time, and metadata.

The command runs the application's registration phase so every module's
declarations are visible, then looks up the requested topic by name. If the
topic is not declared, an appropriate error message is displayed.

Examples:
  # Basic usage
  skiff-cli topics get /diagnostics/stats                # Show details for the stats topic
  skiff-cli topics get /diagnostics/stats --format json  # Show topic details in JSON format

  # Error handling
  skiff-cli topics get /nonexistent/topic                # Shows "topic not declared" error

Output formats:
  table - Human-readable detailed format (default)
  json  - Machine-readable JSON format with all metadata`,
	Args: cobra.ExactArgs(1),
	Run:  topicsGetHandler,
}

func topicsGetHandler(cmd *cobra.Command, args []string) {
	topicName := args[0]

	// Initialize the topic directory
	if _, err := bootstrap.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize topics: %v\n", err)
		os.Exit(1)
	}

	manager := topicmgr.Default()

	// Look up the directory entry by name
	entry, found := manager.GetEntry(topicName)
	if !found {
		fmt.Fprintf(os.Stderr, "Error: Topic '%s' is not declared\n", topicName)
		fmt.Fprintf(os.Stderr, "\nUse 'skiff-cli topics list' to see all declared topics.\n")
		os.Exit(1)
	}

	// Display topic details based on format
	if err := topics.DisplayTopicDetails(entry, getOutputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to display topic details: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)

	// Add flags for output formatting
	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
