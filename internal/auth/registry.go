package auth

import "fmt"

// Registry holds the configured strategies in registration order and
// allows lookup by method name. Explicitly constructed per instance;
// there is no process-wide registry.
type Registry struct {
	strategies map[string]Strategy
	order      []Strategy
}

// NewRegistry registers the given strategies by method name.
// Method names must be unique.
func NewRegistry(list ...Strategy) *Registry {
	m := make(map[string]Strategy, len(list))
	for _, s := range list {
		m[s.Method()] = s
	}
	return &Registry{strategies: m, order: list}
}

// Get returns the strategy by method name or an error if not registered.
func (r *Registry) Get(method string) (Strategy, error) {
	s, ok := r.strategies[method]
	if !ok {
		return nil, fmt.Errorf("unknown authentication method: %s", method)
	}
	return s, nil
}

// All returns the strategies in registration order.
func (r *Registry) All() []Strategy {
	return r.order
}

// Descriptions returns the public descriptors in registration order.
func (r *Registry) Descriptions() []Description {
	out := make([]Description, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, s.Description())
	}
	return out
}
