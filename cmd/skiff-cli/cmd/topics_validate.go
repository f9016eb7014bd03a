package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skiffworks/skiff/cmd/skiff-cli/internal/bootstrap"
	"github.com/skiffworks/skiff/internal/topicmgr"
)

// topicsValidateCmd represents the topics validate command
var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-name>",
	Short: "Validate a topic name and its declaration",
	Long: `Validate a topic name and, if the topic is declared, its full declaration.
This command checks both the name format and the declaration completeness.

The validation process includes:
- Topic name format validation (absolute, slash-separated lowercase segments)
- Declaration completeness (non-empty description)
- Owner identifier format

Examples:
  # Basic validation
  skiff-cli topics validate /diagnostics/stats   # Validate the stats topic
  skiff-cli topics validate /sensors/imu_raw     # Validate a sensor topic

  # Error cases
  skiff-cli topics validate relative/name        # Shows name format error
  skiff-cli topics validate /nonexistent/topic   # Shows "not declared" error

Output:
  ✅ Success - Shows topic is valid with details
  ❌ Error   - Shows specific validation failure with explanation`,
	Args: cobra.ExactArgs(1),
	Run:  topicsValidateHandler,
}

func topicsValidateHandler(cmd *cobra.Command, args []string) {
	topicName := args[0]

	// Initialize the topic directory
	if _, err := bootstrap.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize topics: %v\n", err)
		os.Exit(1)
	}

	manager := topicmgr.Default()

	// First validate the topic name format
	if err := manager.ValidateTopicName(topicName); err != nil {
		fmt.Printf("❌ Topic name validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nTopic names are absolute slash-separated paths of lowercase segments.\n")
		fmt.Fprintf(os.Stderr, "Examples: /chatter, /diagnostics/stats, /sensors/imu_raw\n")
		os.Exit(1)
	}

	// Look up the topic to validate its declaration
	topic, found := manager.Get(topicName)
	if !found {
		fmt.Printf("❌ Topic '%s' has a valid name but is not declared\n", topicName)
		fmt.Fprintf(os.Stderr, "\nUse 'skiff-cli topics list' to see all declared topics.\n")
		os.Exit(1)
	}

	// Re-validate the stored declaration
	if err := manager.ValidateConfiguration(topicmgr.TopicConfig{
		Name:        topic.Name(),
		Owner:       topic.Owner(),
		Description: topic.Description(),
		TypeName:    topic.TypeName(),
		Example:     topic.Example(),
		Metadata:    topic.Metadata(),
	}); err != nil {
		fmt.Printf("❌ Topic validation failed: %v\n", err)
		os.Exit(1)
	}

	// Success case - display topic details
	fmt.Printf("✅ Topic '%s' is valid\n", topic.Name())
	if topic.Owner() != "" {
		fmt.Printf("   Owner: %s\n", topic.Owner())
	} else {
		fmt.Printf("   Owner: (unowned)\n")
	}
	if topic.TypeName() != "" {
		fmt.Printf("   Type: %s\n", topic.TypeName())
	} else {
		fmt.Printf("   Type: raw\n")
	}
	fmt.Printf("   Description: %s\n", topic.Description())
	if topic.Example() != "" {
		fmt.Printf("   Example: %s\n", topic.Example())
	}
}

func init() {
	topicsCmd.AddCommand(topicsValidateCmd)
}
