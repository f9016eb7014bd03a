package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/skiffworks/skiff/internal/topicmgr"

	// Imported for their init-time topic declarations.
	_ "github.com/skiffworks/skiff/internal/modules/diagnostics/events"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "list" {
		listTopics()
		return
	}

	if len(os.Args) > 2 && os.Args[1] == "get" {
		getTopic(os.Args[2])
		return
	}

	printUsage()
}

func printUsage() {
	fmt.Println("Topic Directory CLI")
	fmt.Println("Usage:")
	fmt.Println("  topics list          - List all declared topics")
	fmt.Println("  topics get <name>    - Get details about a specific topic")
}

func listTopics() {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tOWNER\tDESCRIPTION")
	fmt.Fprintln(w, "----\t-----\t-----------")

	for _, topic := range topicmgr.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			topic.Name(),
			topic.Owner(),
			topic.Description())
	}
	w.Flush()
}

func getTopic(name string) {
	topic, exists := topicmgr.Get(name)
	if !exists {
		fmt.Printf("Topic not declared: %s\n", name)
		return
	}

	fmt.Printf("Name:        %s\n", topic.Name())
	fmt.Printf("Owner:       %s\n", topic.Owner())
	fmt.Printf("Type:        %s\n", topic.TypeName())
	fmt.Printf("Description: %s\n", topic.Description())
	if topic.Example() != "" {
		fmt.Printf("Example:     %s\n", topic.Example())
	}
}
