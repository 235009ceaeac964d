package vcs

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps kinds to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Kind]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Kind]Adapter)}
	for _, a := range adapters {
		r.MustRegister(a)
	}
	return r
}

// Register adds a. Registering the same kind twice is an error.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return fmt.Errorf("adapter must not be nil")
	}
	k := a.Kind()
	if k == "" || k == KindUnknown {
		return fmt.Errorf("adapter kind %q is reserved", k)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[k]; exists {
		return fmt.Errorf("adapter for %s already registered", k)
	}
	r.adapters[k] = a
	return nil
}

func (r *Registry) MustRegister(a Adapter) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(k Kind) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[k]
	return a, ok
}

// List returns the registered adapters sorted by marker precedence.
func (r *Registry) List() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := firstPrecedence(out[i]), firstPrecedence(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i].Kind() < out[j].Kind()
	})
	return out
}

// Markers returns the markers of every registered adapter followed by
// UnsupportedMarkers.
func (r *Registry) Markers() []Marker {
	var out []Marker
	for _, a := range r.List() {
		out = append(out, a.Markers()...)
	}
	return append(out, UnsupportedMarkers...)
}

// WithExtraArgs returns a copy of the registry where every Configurable
// adapter listed in extra appends the given arguments. Kinds without an
// adapter are reported as an error.
func (r *Registry) WithExtraArgs(extra map[Kind][]string) (*Registry, error) {
	out := NewRegistry()
	for _, a := range r.List() {
		args := extra[a.Kind()]
		if len(args) > 0 {
			c, ok := a.(Configurable)
			if !ok {
				return nil, fmt.Errorf("adapter %s does not accept extra arguments", a.Kind())
			}
			a = c.WithExtraArgs(args)
		}
		out.MustRegister(a)
	}
	for k := range extra {
		if _, ok := r.Lookup(k); !ok {
			return nil, fmt.Errorf("no adapter registered for %s", k)
		}
	}
	return out, nil
}

func firstPrecedence(a Adapter) int {
	best := PrecedenceUnsupported
	for _, m := range a.Markers() {
		if m.Precedence < best {
			best = m.Precedence
		}
	}
	return best
}

var defaultRegistry = NewRegistry()

// Register adds a to the default registry. Adapters call it from init.
func Register(a Adapter) {
	defaultRegistry.MustRegister(a)
}

// Default returns the registry populated by Register.
func Default() *Registry {
	return defaultRegistry
}
