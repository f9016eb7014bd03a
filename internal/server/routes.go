package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skiffworks/skiff/internal/middleware"
)

// registerRoutes sets up all the introspection routes.
func (s *Server) registerRoutes() {
	s.E.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Every API handler gets a request-scoped logger.
	v1 := s.E.Group("/v1", middleware.Logger)
	v1.GET("/topics", s.listTopics)
	v1.GET("/topics/*", s.getTopic)
	v1.GET("/params", s.listParams)
	v1.GET("/params/:name", s.getParam)
	v1.GET("/stats", s.getStats)
	v1.GET("/tap", s.tapTopic, middleware.TapLimiter())
}
