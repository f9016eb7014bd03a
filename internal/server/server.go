package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/registry"
	"github.com/skiffworks/skiff/internal/topicmgr"
)

// Server is the HTTP introspection surface of a running process: the topic
// directory, live bus statistics, parameters, and a websocket tap. It
// observes the bus; it never transports messages between processes.
type Server struct {
	E      *echo.Echo
	addr   string
	bus    *pubsub.Bus
	params *param.Store
	topics *topicmgr.Manager
}

// New creates a server wired to the core services in the registry.
func New(reg *registry.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		E:      e,
		addr:   reg.Config().HTTPAddr,
		bus:    registry.MustGet(reg, registry.BusKey),
		params: registry.MustGet(reg, registry.ParamsKey),
		topics: registry.MustGet(reg, registry.TopicsKey),
	}
	s.registerRoutes()
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}
