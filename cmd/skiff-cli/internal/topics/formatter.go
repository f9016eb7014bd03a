package topics

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/skiffworks/skiff/internal/topicmgr"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name         string                 `json:"name"`
	Owner        string                 `json:"owner,omitempty"`
	TypeName     string                 `json:"type_name,omitempty"`
	Description  string                 `json:"description"`
	Example      string                 `json:"example,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	RegisteredAt *time.Time             `json:"registered_at,omitempty"`
	UsageCount   int64                  `json:"usage_count,omitempty"`
}

func newTopicDisplay(topic topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        topic.Name(),
		Owner:       topic.Owner(),
		TypeName:    topic.TypeName(),
		Description: topic.Description(),
		Example:     topic.Example(),
		Metadata:    topic.Metadata(),
	}
}

// DisplayTopicsTable displays topics in a formatted table
func DisplayTopicsTable(topics []topicmgr.Topic) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tOWNER\tTYPE\tDESCRIPTION")
	fmt.Fprintln(w, "----\t-----\t----\t-----------")

	if len(topics) == 0 {
		fmt.Fprintln(w, "No topics found")
		return
	}

	for _, topic := range topics {
		owner := topic.Owner()
		if owner == "" {
			owner = "-"
		}
		typeName := topic.TypeName()
		if typeName == "" {
			typeName = "raw"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			topic.Name(),
			owner,
			typeName,
			truncateString(topic.Description(), 48))
	}
}

// DisplayTopicsJSON displays topics in JSON format
func DisplayTopicsJSON(topics []topicmgr.Topic) error {
	topicDisplays := make([]TopicDisplay, len(topics))
	for i, topic := range topics {
		topicDisplays[i] = newTopicDisplay(topic)
	}

	output := struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{
		Topics: topicDisplays,
		Count:  len(topicDisplays),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// DisplayTopicDetails displays detailed information for one directory entry
func DisplayTopicDetails(entry *topicmgr.RegistryEntry, format string) error {
	topic := entry.Topic

	if format == "json" {
		display := newTopicDisplay(topic)
		registeredAt := entry.RegisteredAt
		display.RegisteredAt = &registeredAt
		display.UsageCount = entry.UsageCount

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(display)
	}

	// Table format for detailed view
	fmt.Printf("Name:          %s\n", topic.Name())
	if topic.Owner() != "" {
		fmt.Printf("Owner:         %s\n", topic.Owner())
	}
	if topic.TypeName() != "" {
		fmt.Printf("Type:          %s\n", topic.TypeName())
	}
	fmt.Printf("Description:   %s\n", topic.Description())
	if topic.Example() != "" {
		fmt.Printf("Example:       %s\n", topic.Example())
	}
	fmt.Printf("Registered at: %s\n", entry.RegisteredAt.Format(time.RFC3339))
	fmt.Printf("Usage count:   %d\n", entry.UsageCount)

	// Show metadata if available
	metadata := topic.Metadata()
	if len(metadata) > 0 {
		fmt.Printf("Metadata:\n")
		for k, v := range metadata {
			fmt.Printf("  %s: %v\n", k, v)
		}
	}

	return nil
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
