package solver

import (
	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
)

// Residual reports how far one constraint is from exact satisfaction
// after solving.
type Residual struct {
	ConstraintID string               `json:"constraint_id"`
	Type         graph.ConstraintKind `json:"type"`
	Residual     float64              `json:"residual"`
	Hard         bool                 `json:"hard"`
	Satisfied    bool                 `json:"satisfied"`
	Detail       string               `json:"detail,omitempty"`
}

// Result is the outcome of one solve call. Poses is freshly allocated and
// owned by the caller.
type Result struct {
	Poses      map[string]geom.Pose `json:"poses"`
	Residuals  []Residual           `json:"residuals"`
	Converged  bool                 `json:"converged"`
	Iterations int                  `json:"iterations"`
}

// UnsatisfiedHard returns the hard constraints left outside tolerance.
// Callers use it to decide whether to fall back to seed poses.
func (r *Result) UnsatisfiedHard() []Residual {
	var out []Residual
	for _, res := range r.Residuals {
		if res.Hard && !res.Satisfied {
			out = append(out, res)
		}
	}
	return out
}

// MaxResidual returns the largest residual over all constraints.
func (r *Result) MaxResidual() float64 {
	m := 0.0
	for _, res := range r.Residuals {
		m = max(m, res.Residual)
	}
	return m
}
