package server

import (
	"context"
	"net/http"
)

// Start runs the HTTP server until Shutdown is called. It returns nil after a
// graceful shutdown and the listener's error otherwise.
func (s *Server) Start() error {
	if err := s.E.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests
// to finish, up to the context's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.E.Shutdown(ctx)
}
