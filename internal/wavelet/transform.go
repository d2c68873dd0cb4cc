package wavelet

import (
	"fmt"
	"sort"
)

// Decomposition holds one bar's multiresolution split of the price window.
// Details[0] is the finest scale. All arrays have the window's length.
type Decomposition struct {
	Approx  []float64
	Details [][]float64
}

// Clone deep-copies the decomposition. The momentum path needs the detail
// coefficients as they were before shrinkage mutates them.
func (d Decomposition) Clone() Decomposition {
	out := Decomposition{
		Approx:  append([]float64(nil), d.Approx...),
		Details: make([][]float64, len(d.Details)),
	}
	for i, lvl := range d.Details {
		out.Details[i] = append([]float64(nil), lvl...)
	}
	return out
}

// Transform is the multiresolution decomposition consumed by the engine.
// Implementations are pure functions over arrays and keep no per-bar state.
type Transform interface {
	Name() string
	Forward(prices []float64, levels int) (Decomposition, error)
	Inverse(d Decomposition) []float64
}

var registry = map[string]func() Transform{}

// Register adds a transform constructor under a name. Called from init
// functions; the set is fixed before any configuration is resolved.
func Register(name string, ctor func() Transform) {
	registry[name] = ctor
}

// Resolve maps a validated wavelet name to its implementation. The config
// layer guarantees the name is one of the registered set, so an unknown
// name here is a programming error, reported as such.
func Resolve(name string) (Transform, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown wavelet %q (have %v)", name, Names())
	}
	return ctor(), nil
}

// Names lists registered wavelets, sorted for stable error messages.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
