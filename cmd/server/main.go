package main

import (
	"context"
	"log"

	"github.com/skiffworks/skiff/internal/app"
)

func main() {
	// Assemble the application: bus, parameter store, modules, and the
	// introspection server.
	a, err := app.New()
	if err != nil {
		log.Fatalf("Failed to assemble application: %v", err)
	}

	// Run until a shutdown signal arrives.
	if err := a.Run(context.Background()); err != nil {
		log.Fatalf("Application exited with error: %v", err)
	}
}
