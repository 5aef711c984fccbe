package server

import (
	"context"

	"github.com/kbukum/audioscribe/component"
	"github.com/kbukum/audioscribe/observability"
)

const componentName = "http-server"

var (
	_ component.Component   = (*ServerComponent)(nil)
	_ component.Describable = (*ServerComponent)(nil)
)

// ServerComponent wraps Server to implement component.Component.
type ServerComponent struct {
	server  *Server
	running bool
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

// Name returns the component name used for registration.
func (sc *ServerComponent) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *ServerComponent) Start(ctx context.Context) error {
	if err := sc.server.Start(ctx); err != nil {
		return err
	}
	sc.running = true
	return nil
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *ServerComponent) Stop(ctx context.Context) error {
	sc.running = false
	return sc.server.Stop(ctx)
}

// Health reports whether the server is listening.
func (sc *ServerComponent) Health(_ context.Context) observability.Health {
	if sc.running {
		return observability.Health{Name: componentName, Status: observability.HealthStatusUp}
	}
	return observability.Health{Name: componentName, Status: observability.HealthStatusDown, Message: "not listening"}
}

// Describe returns the startup summary entry.
func (sc *ServerComponent) Describe() component.Description {
	return component.Description{Name: "HTTP Server", Type: "server", Details: sc.server.Addr()}
}
