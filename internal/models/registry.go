// Package models routes a request's model choice to a configured inference
// provider.
package models

import (
	"fmt"
	"sort"
	"sync"

	"github.com/user/sheetpilot/pkg/llm"
)

// Registry maps model names to providers. Requests that name no model get
// the default provider.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]llm.Provider
	defaultName string
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]llm.Provider),
	}
}

// Register adds a provider under the given model name. The first registered
// model becomes the default until SetDefault overrides it.
func (r *Registry) Register(name string, provider llm.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.providers) == 0 {
		r.defaultName = name
	}
	r.providers[name] = provider
}

// SetDefault selects the model used when a request names none.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("unknown model: %s", name)
	}
	r.defaultName = name
	return nil
}

// Resolve returns the provider for the named model, and the name actually
// used (the default when name is empty). Unknown names are an error.
func (r *Registry) Resolve(name string) (llm.Provider, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
	}
	provider, ok := r.providers[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown model: %s", name)
	}
	return provider, name, nil
}

// Names returns all registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the current default model name.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}
