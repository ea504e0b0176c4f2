package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/graph"
)

// ActionFactory builds a node action from the node's settings block.
type ActionFactory func(ctx context.Context, settings *container.Container) (graph.Action, error)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the action factories of a single application instance.
type Registry struct {
	factories map[string]ActionFactory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{factories: make(map[string]ActionFactory)}
}

// RegisterAction registers the factory for an action name. Registering the
// same name twice is a programming error and panics.
func (r *Registry) RegisterAction(name string, factory ActionFactory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("action with name '%s' already registered", name))
	}
	slog.Debug("Registering action.", "name", name)
	r.factories[name] = factory
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (ActionFactory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewAction builds an action by name.
func (r *Registry) NewAction(ctx context.Context, name string, settings *container.Container) (graph.Action, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	if settings == nil {
		settings = container.New()
	}
	a, err := f(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", name, err)
	}
	return a, nil
}
