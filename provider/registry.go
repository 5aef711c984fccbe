package provider

import (
	"maps"
	"slices"
	"sync"

	"github.com/kbukum/audioscribe/errors"
)

// Registry maps backend names to factories. Open builds a backend once per
// name and hands the same instance to every later caller.
type Registry[T Provider] struct {
	mu        sync.Mutex
	factories map[string]Factory[T]
	opened    map[string]T
}

// NewRegistry creates an empty Registry.
func NewRegistry[T Provider]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
		opened:    make(map[string]T),
	}
}

// RegisterFactory binds name to factory, replacing an earlier binding.
func (r *Registry[T]) RegisterFactory(name string, factory Factory[T]) {
	r.mu.Lock()
	r.factories[name] = factory
	delete(r.opened, name)
	r.mu.Unlock()
}

// Create builds a fresh backend. An unknown name is NOT_FOUND.
func (r *Registry[T]) Create(name string, cfg map[string]any) (T, error) {
	r.mu.Lock()
	factory, ok := r.factories[name]
	r.mu.Unlock()
	if !ok {
		var zero T
		return zero, errors.NotFound("provider", name)
	}
	return factory(cfg)
}

// Open returns the backend built for name, building it with cfg on first use.
func (r *Registry[T]) Open(name string, cfg map[string]any) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.opened[name]; ok {
		return inst, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		var zero T
		return zero, errors.NotFound("provider", name)
	}
	inst, err := factory(cfg)
	if err != nil {
		return inst, err
	}
	r.opened[name] = inst
	return inst, nil
}

// Names lists the registered backends in order.
func (r *Registry[T]) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.factories))
}
