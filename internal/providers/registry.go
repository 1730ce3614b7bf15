package providers

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupportedProvider is returned when a catalog entry names a
// provider no adapter is registered for.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Registry maps provider names to adapters. The map is built once at
// startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry with the given adapters.
func NewRegistry(adapters ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(adapters))}
	for _, a := range adapters {
		r.providers[a.Name()] = a
	}
	return r
}

// DefaultRegistry creates a registry with all built-in adapters
// pointing at their public API endpoints.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewOpenAIProvider(""),
		NewAnthropicProvider(""),
		NewGeminiProvider(""),
	)
}

// Resolve returns the adapter for the named provider. A miss means the
// catalog references a provider this build does not support; no
// dispatch is attempted.
func (r *Registry) Resolve(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
	return p, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
