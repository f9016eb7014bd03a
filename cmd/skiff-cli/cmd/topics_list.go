package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skiffworks/skiff/cmd/skiff-cli/internal/bootstrap"
	"github.com/skiffworks/skiff/cmd/skiff-cli/internal/topics"
	"github.com/skiffworks/skiff/internal/topicmgr"
)

var (
	listOutputFormat string
	listOwnerFilter  string
	listPrefixFilter string
)

// topicsListCmd represents the topics list command
var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all declared topics",
	Long: `List all topics declared in the topic directory.
This command helps developers discover what topics are available on the bus.

The command runs the application's registration phase so every module's
declarations are visible, then prints them in either table or JSON format
with optional filtering.

Examples:
  # Basic usage
  skiff-cli topics list                          # List all topics in table format
  skiff-cli topics list --format json            # List all topics in JSON format

  # Filtering options
  skiff-cli topics list --owner diagnostics      # Show only topics owned by diagnostics
  skiff-cli topics list --prefix /sensors        # Show only topics under /sensors

  # Combined filtering
  skiff-cli topics list --owner relay --format json

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format with metadata`,
	Run: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) {
	// Initialize the topic directory
	if _, err := bootstrap.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize topics: %v\n", err)
		os.Exit(1)
	}

	manager := topicmgr.Default()
	var topicList []topicmgr.Topic

	// Apply filtering based on flags
	switch {
	case listOwnerFilter != "" && listPrefixFilter != "":
		for _, topic := range manager.ListByOwner(listOwnerFilter) {
			if strings.HasPrefix(topic.Name(), listPrefixFilter) {
				topicList = append(topicList, topic)
			}
		}
		if listOutputFormat == "table" {
			fmt.Printf("Topics owned by '%s' under '%s':\n\n", listOwnerFilter, listPrefixFilter)
		}
	case listOwnerFilter != "":
		topicList = manager.ListByOwner(listOwnerFilter)
		if listOutputFormat == "table" {
			fmt.Printf("Topics owned by '%s':\n\n", listOwnerFilter)
		}
	case listPrefixFilter != "":
		topicList = manager.ListTopicsByPrefix(listPrefixFilter)
		if listOutputFormat == "table" {
			fmt.Printf("Topics under '%s':\n\n", listPrefixFilter)
		}
	default:
		topicList = manager.List()
	}

	// Handle empty results
	if len(topicList) == 0 {
		message := "No topics found"
		filters := []string{}

		if listOwnerFilter != "" {
			filters = append(filters, fmt.Sprintf("owner '%s'", listOwnerFilter))
		}
		if listPrefixFilter != "" {
			filters = append(filters, fmt.Sprintf("prefix '%s'", listPrefixFilter))
		}

		if len(filters) > 0 {
			message += " matching: " + strings.Join(filters, ", ")
		}

		fmt.Println(message)
		return
	}

	sort.Slice(topicList, func(i, j int) bool {
		return topicList[i].Name() < topicList[j].Name()
	})

	// Display topics based on format
	switch listOutputFormat {
	case "json":
		if err := topics.DisplayTopicsJSON(topicList); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
	case "table":
		topics.DisplayTopicsTable(topicList)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unsupported output format '%s'. Use 'table' or 'json'\n", listOutputFormat)
		os.Exit(1)
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	// Add flags for output formatting and filtering
	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listOwnerFilter, "owner", "o", "", "Filter topics by owning component")
	topicsListCmd.Flags().StringVarP(&listPrefixFilter, "prefix", "p", "", "Filter topics by name prefix")
}
