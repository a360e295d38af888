package validation

import (
	"fmt"
	"sort"

	"github.com/aristath/rebalancer/internal/domain"
)

// Constructor builds a validator from its configuration parameters.
type Constructor func(params map[string]float64) (domain.TradeValidator, error)

// Registry maps validator names to constructors. It is populated explicitly
// at startup; there is no runtime discovery of validator implementations.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry creates a registry pre-seeded with the built-in validators.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}

	r.MustRegister("max_position", func(params map[string]float64) (domain.TradeValidator, error) {
		max, ok := params["max_position"]
		if !ok {
			return nil, fmt.Errorf("max_position validator requires a max_position parameter")
		}
		return NewMaxPositionValidator(max), nil
	})
	r.MustRegister("minimum_value", func(params map[string]float64) (domain.TradeValidator, error) {
		return NewMinimumValueValidator(params["minimum_value"]), nil
	})

	return r
}

// Register binds a name to a constructor. Rebinding an existing name fails.
func (r *Registry) Register(name string, c Constructor) error {
	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("validator %q already registered", name)
	}
	r.constructors[name] = c
	return nil
}

// MustRegister is Register for startup wiring, panicking on conflict.
func (r *Registry) MustRegister(name string, c Constructor) {
	if err := r.Register(name, c); err != nil {
		panic(err)
	}
}

// Build constructs a validator by name.
func (r *Registry) Build(name string, params map[string]float64) (domain.TradeValidator, error) {
	c, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("no validator registered under %q", name)
	}
	return c(params)
}

// Names lists the registered validator names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
