package kestrel

import (
	"fmt"
	"sync"
)

// Registry stores module descriptors by unique name during the bootstrap
// phase, then freezes into an immutable ExecutionPlan for the lifetime of
// the engine run. Registration after Freeze is rejected — the two-phase
// protocol (register, then plan) is what lets the planner assume a
// complete, stable module set.
type Registry struct {
	mu       sync.Mutex
	order    []string // registration order, for stable topological tie-breaking
	modules  map[string]*Descriptor
	frozen   bool
	plan     *ExecutionPlan
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Descriptor)}
}

// Register adds a module descriptor. Fails with ErrRegistryFrozen once the
// bootstrap phase has closed, ErrMalformedModule if required fields are
// missing, or ErrDuplicateModule if the name was already registered.
func (r *Registry) Register(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %q after bootstrap", ErrRegistryFrozen, d.Name)
	}
	if err := d.validate(); err != nil {
		return err
	}
	if _, exists := r.modules[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, d.Name)
	}

	r.modules[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.modules[name]
	return d, ok
}

// Freeze closes the bootstrap phase: it resolves every declared dependency,
// performs a deterministic topological sort, detects cycles, and caches the
// resulting ExecutionPlan. Calling Freeze twice returns the already-computed
// plan without re-validating.
func (r *Registry) Freeze() (*ExecutionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return r.plan, nil
	}

	plan, err := buildExecutionPlan(r.modules, r.order)
	if err != nil {
		return nil, err
	}

	r.plan = plan
	r.frozen = true
	return plan, nil
}

// Frozen reports whether the bootstrap phase has closed.
func (r *Registry) Frozen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frozen
}

// Plan returns the frozen execution plan, or ErrRegistryNotFrozen if Freeze
// has not yet been called.
func (r *Registry) Plan() (*ExecutionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.frozen {
		return nil, ErrRegistryNotFrozen
	}
	return r.plan, nil
}

// Names returns every registered module name in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
