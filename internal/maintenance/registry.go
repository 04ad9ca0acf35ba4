package maintenance

import (
	"sort"
	"strings"

	"github.com/DEVBOX10/microsoft-scalar/pkg/errclass"
)

// Factory creates a fresh step instance.
type Factory func() Step

// Registry maps step names to factories. Names are matched case-insensitively
// and a step may also be looked up by its Area.
type Registry struct {
	order     []string
	factories map[string]Factory
	areas     map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		areas:     make(map[string]string),
	}
}

// DefaultRegistry holds the built-in steps in their default order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("commit-graph", func() Step { return NewCommitGraphStep(true) })
	r.Register("loose-objects", func() Step { return NewLooseObjectsStep() })
	r.Register("incremental-repack", func() Step { return NewPackfileMaintenanceStep() })
	return r
}

// Register adds or replaces a step.
func (r *Registry) Register(name string, f Factory) {
	key := strings.ToLower(name)
	if _, ok := r.factories[key]; !ok {
		r.order = append(r.order, key)
	}
	r.factories[key] = f
	r.areas[strings.ToLower(f().Area())] = key
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Lookup instantiates the named steps in the given order. An empty list
// selects every registered step.
func (r *Registry) Lookup(names []string) ([]Step, error) {
	if len(names) == 0 {
		names = r.order
	}
	steps := make([]Step, 0, len(names))
	var unknown []string
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if alias, ok := r.areas[key]; ok {
			key = alias
		}
		f, ok := r.factories[key]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		steps = append(steps, f())
	}
	if len(unknown) > 0 {
		known := r.Names()
		sort.Strings(known)
		return nil, errclass.ErrStepUnknown.WithMessagef("unknown step(s) %s (known: %s)",
			strings.Join(unknown, ", "), strings.Join(known, ", "))
	}
	return steps, nil
}
