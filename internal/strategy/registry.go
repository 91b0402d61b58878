package strategy

import (
	"fmt"
	"sort"

	"tradebench/internal/types"
)

// Params carries the tunable parameters of a registered strategy
type Params struct {
	ShortPeriod int `json:"short_period"`
	LongPeriod  int `json:"long_period"`
}

// Constructor builds a signal source for one series
type Constructor func(series *types.Series, params Params) (SignalSource, error)

// Registry maps strategy names to constructors
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry creates a registry holding the built-in strategies
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.Register("sma_cross", func(series *types.Series, p Params) (SignalSource, error) {
		return NewSMACrossover(series, p.ShortPeriod, p.LongPeriod)
	})
	r.Register("ema_cross", func(series *types.Series, p Params) (SignalSource, error) {
		return NewEMACrossover(series, p.ShortPeriod, p.LongPeriod)
	})
	return r
}

// Register adds or replaces a strategy
func (r *Registry) Register(name string, constructor Constructor) {
	r.constructors[name] = constructor
}

// Create builds the named strategy
func (r *Registry) Create(name string, series *types.Series, params Params) (SignalSource, error) {
	constructor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s (available: %v)", name, r.Names())
	}
	return constructor(series, params)
}

// Names returns the registered strategy names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
