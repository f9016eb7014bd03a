// Package topicmgr provides the topic directory: a central place where
// components declare the topics they use, with documentation, ownership, and
// payload typing metadata.
//
// The directory is deliberately separate from message delivery. The bus
// routes by plain topic names and never consults the directory; declaring a
// topic here is what makes it discoverable (CLI listings, the introspection
// API) and what catches conflicting typed declarations at startup instead of
// at receive time.
//
// Topics are usually declared as package-level variables in a component's
// topics subpackage:
//
//	var TopicStats = topicmgr.Define(topicmgr.TopicConfig{
//		Name:        "/diagnostics/stats",
//		Owner:       "diagnostics",
//		Description: "Periodic bus health snapshot",
//		TypeName:    "BusStats",
//		Example:     `{"topics":3,"subscribers":5,"published":120}`,
//	})
//
// and registered with the manager during module registration:
//
//	manager := topicmgr.Default()
//	if err := manager.Register(TopicStats); err != nil {
//		log.Fatal(err)
//	}
//
// Declared topics can be discovered and listed:
//
//	allTopics := manager.List()
//	diagTopics := manager.ListByOwner("diagnostics")
//
// Names follow the absolute hierarchical grammar /seg(/seg)* with lowercase
// segments. The bus itself only insists on names being non-empty and
// absolute; the stricter grammar applies to what gets declared here.
package topicmgr
