package component

import (
	"context"

	"github.com/kbukum/audioscribe/observability"
)

// Component represents a lifecycle-managed service part.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) observability.Health
}

// Description holds summary information for the startup log.
type Description struct {
	// Name is the human-readable display name. If empty, Name() is used.
	Name string
	// Type categorizes the component: "server", "sse", "telemetry".
	Type string
	// Details is a one-liner such as "127.0.0.1:8080".
	Details string
}

// Describable is optionally implemented by components to report what they
// are in the startup summary.
type Describable interface {
	Describe() Description
}

// Hooks builds a Component from start and stop functions. A nil function
// is a no-op; Health reports up while started.
func Hooks(name string, start, stop func(ctx context.Context) error) Component {
	return &hooks{name: name, start: start, stop: stop}
}

type hooks struct {
	name        string
	start, stop func(ctx context.Context) error
	running     bool
}

func (h *hooks) Name() string { return h.name }

func (h *hooks) Start(ctx context.Context) error {
	if h.start != nil {
		if err := h.start(ctx); err != nil {
			return err
		}
	}
	h.running = true
	return nil
}

func (h *hooks) Stop(ctx context.Context) error {
	h.running = false
	if h.stop != nil {
		return h.stop(ctx)
	}
	return nil
}

func (h *hooks) Health(context.Context) observability.Health {
	if h.running {
		return observability.Health{Name: h.name, Status: observability.HealthStatusUp}
	}
	return observability.Health{Name: h.name, Status: observability.HealthStatusDown, Message: "not running"}
}
