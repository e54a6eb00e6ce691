package kernel

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Outline is a set of closed polylines suitable for drawing. Each loop is
// implicitly closed from its last point back to its first.
type Outline struct {
	Loops    [][]v2.Vec `json:"loops"`
	PartName string     `json:"part"` // which graph part this came from
}

// VertexCount returns the number of points over all loops.
func (o *Outline) VertexCount() int {
	n := 0
	for _, l := range o.Loops {
		n += len(l)
	}
	return n
}

// LoopCount returns the number of loops.
func (o *Outline) LoopCount() int {
	return len(o.Loops)
}

// IsEmpty returns true if the outline has no points.
func (o *Outline) IsEmpty() bool {
	return o.VertexCount() == 0
}

// Bounds returns the axis-aligned bounds of every point. An empty outline
// has zero bounds.
func (o *Outline) Bounds() (min, max v2.Vec) {
	if o.IsEmpty() {
		return v2.Vec{}, v2.Vec{}
	}
	min = v2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	max = v2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, l := range o.Loops {
		for _, p := range l {
			min = v2.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y)}
			max = v2.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y)}
		}
	}
	return min, max
}
