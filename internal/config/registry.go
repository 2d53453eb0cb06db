package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/noiseguard/noiseguard/pkg/denoise"
)

// ErrEngineNotRegistered is returned by CreateEngine when no factory has been
// registered under the requested engine name.
var ErrEngineNotRegistered = errors.New("config: engine not registered")

// Registry maps engine names to their constructor functions. It is safe for
// concurrent use. Embedders can register additional backends before the
// application is built.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]func(EngineEntry) (denoise.Engine, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[string]func(EngineEntry) (denoise.Engine, error)),
	}
}

// RegisterEngine registers an engine factory under name. Subsequent calls
// with the same name overwrite the previous registration.
func (r *Registry) RegisterEngine(name string, factory func(EngineEntry) (denoise.Engine, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = factory
}

// CreateEngine instantiates the engine selected by entry.Name. Returns
// [ErrEngineNotRegistered] if the name is unknown.
func (r *Registry) CreateEngine(entry EngineEntry) (denoise.Engine, error) {
	r.mu.RLock()
	factory, ok := r.engines[entry.Name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEngineNotRegistered, entry.Name)
	}
	return factory(entry)
}

// EngineNames returns the currently registered engine names.
func (r *Registry) EngineNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	return names
}
