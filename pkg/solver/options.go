package solver

import "github.com/chazu/jig/pkg/graph"

const (
	DefaultMaxIters  = 80
	DefaultTolerance = 1e-3
)

// Options bounds one solve call.
type Options struct {
	MaxIters  int     `json:"max_iters" yaml:"max_iters"`
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
}

// DefaultOptions returns 80 rounds at 1e-3 scene units.
func DefaultOptions() Options {
	return Options{MaxIters: DefaultMaxIters, Tolerance: DefaultTolerance}
}

// WithHints overlays the non-zero settings a document carries.
func (o Options) WithHints(h graph.SolverHints) Options {
	if h.MaxIters > 0 {
		o.MaxIters = h.MaxIters
	}
	if h.Tolerance > 0 {
		o.Tolerance = h.Tolerance
	}
	return o
}

// rounds is the iteration budget; at least one round always runs.
func (o Options) rounds() int {
	return max(1, o.MaxIters)
}
