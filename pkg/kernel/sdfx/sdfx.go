// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Each shape carries its 2D
// signed distance function for containment and bounds, plus the polyline
// loops used for drawing.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/jig/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultCircleSegments controls how finely circles and arcs are drawn.
const defaultCircleSegments = 48

// sdfxShape wraps an sdf.SDF2 and its outline to implement kernel.Shape.
type sdfxShape struct {
	s     sdf.SDF2
	loops [][]v2.Vec
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxShape) BoundingBox() (min, max v2.Vec) {
	bb := s.s.BoundingBox()
	return bb.Min, bb.Max
}

// Contains reports whether p is inside or on the boundary.
func (s *sdfxShape) Contains(p v2.Vec) bool {
	return s.s.Evaluate(p) <= 1e-9
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying shape from a kernel.Shape.
func unwrap(s kernel.Shape) *sdfxShape {
	return s.(*sdfxShape)
}

// wrap creates a kernel.Shape from an sdf.SDF2 and its loops.
func wrap(s sdf.SDF2, loops ...[]v2.Vec) kernel.Shape {
	return &sdfxShape{s: s, loops: loops}
}

// Box creates a w×h rectangle centred on the origin.
func (k *SdfxKernel) Box(w, h float64) kernel.Shape {
	s := sdf.Box2D(v2.Vec{X: w, Y: h}, 0)
	w2, h2 := w/2, h/2
	return wrap(s, []v2.Vec{{X: -w2, Y: -h2}, {X: w2, Y: -h2}, {X: w2, Y: h2}, {X: -w2, Y: h2}})
}

// Circle creates a circle of radius r centred on the origin.
func (k *SdfxKernel) Circle(r float64) kernel.Shape {
	s, err := sdf.Circle2D(r)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Circle2D: %v", err))
	}
	return wrap(s, arcPoints(r, 0, 360, defaultCircleSegments, false))
}

// Polygon creates a closed polygon through pts.
func (k *SdfxKernel) Polygon(pts []v2.Vec) kernel.Shape {
	s, err := sdf.Polygon2D(pts)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Polygon2D: %v", err))
	}
	return wrap(s, append([]v2.Vec(nil), pts...))
}

// Arc creates a band of the given thickness along a circular arc. The
// band's inner radius is clamped at zero and sweeps beyond a full turn are
// drawn as one turn.
func (k *SdfxKernel) Arc(r, startDeg, endDeg, thickness float64) kernel.Shape {
	outer := r + thickness/2
	inner := math.Max(0, r-thickness/2)
	if sweep := endDeg - startDeg; math.Abs(sweep) > 360 {
		endDeg = startDeg + math.Copysign(360, sweep)
	}
	n := max(2, int(math.Ceil(defaultCircleSegments*math.Abs(endDeg-startDeg)/360)))

	band := arcPoints(outer, startDeg, endDeg, n, true)
	if inner > 0 {
		in := arcPoints(inner, startDeg, endDeg, n, true)
		for i := len(in) - 1; i >= 0; i-- {
			band = append(band, in[i])
		}
	} else {
		band = append(band, v2.Vec{})
	}
	return k.Polygon(band)
}

// arcPoints samples n segments of a circle of radius r from a0 to a1
// degrees. inclusive adds the end point; a full circle leaves it off since
// it repeats the first.
func arcPoints(r, a0, a1 float64, n int, inclusive bool) []v2.Vec {
	count := n
	if inclusive {
		count = n + 1
	}
	pts := make([]v2.Vec, 0, count)
	for i := 0; i < count; i++ {
		a := sdf.DtoR(a0 + (a1-a0)*float64(i)/float64(n))
		sin, cos := math.Sincos(a)
		pts = append(pts, v2.Vec{X: r * cos, Y: r * sin})
	}
	return pts
}

// Union returns the union of two shapes. The outline keeps both shapes'
// loops.
func (k *SdfxKernel) Union(a, b kernel.Shape) kernel.Shape {
	sa, sb := unwrap(a), unwrap(b)
	return wrap(sdf.Union2D(sa.s, sb.s), append(copyLoops(sa.loops), copyLoops(sb.loops)...)...)
}

// Difference returns a - b. The subtracted shape's loops are kept as holes.
func (k *SdfxKernel) Difference(a, b kernel.Shape) kernel.Shape {
	sa, sb := unwrap(a), unwrap(b)
	return wrap(sdf.Difference2D(sa.s, sb.s), append(copyLoops(sa.loops), copyLoops(sb.loops)...)...)
}

// Translate moves a shape by (x, y).
func (k *SdfxKernel) Translate(s kernel.Shape, x, y float64) kernel.Shape {
	return transform(unwrap(s), sdf.Translate2d(v2.Vec{X: x, Y: y}))
}

// Rotate turns a shape counter-clockwise by deg degrees about the origin.
func (k *SdfxKernel) Rotate(s kernel.Shape, deg float64) kernel.Shape {
	return transform(unwrap(s), sdf.Rotate2d(sdf.DtoR(deg)))
}

// Scale scales a shape uniformly about the origin.
func (k *SdfxKernel) Scale(s kernel.Shape, f float64) kernel.Shape {
	return transform(unwrap(s), sdf.Scale2d(v2.Vec{X: f, Y: f}))
}

func transform(s *sdfxShape, m sdf.M33) kernel.Shape {
	loops := make([][]v2.Vec, len(s.loops))
	for i, l := range s.loops {
		loops[i] = make([]v2.Vec, len(l))
		for j, p := range l {
			loops[i][j] = m.MulPosition(p)
		}
	}
	return wrap(sdf.Transform2D(s.s, m), loops...)
}

// ToOutline returns the shape's drawing loops.
func (k *SdfxKernel) ToOutline(s kernel.Shape) (*kernel.Outline, error) {
	o := &kernel.Outline{Loops: copyLoops(unwrap(s).loops)}
	if o.IsEmpty() {
		return nil, errors.New("sdfx: shape has no outline")
	}
	return o, nil
}

func copyLoops(loops [][]v2.Vec) [][]v2.Vec {
	out := make([][]v2.Vec, len(loops))
	for i, l := range loops {
		out[i] = append([]v2.Vec(nil), l...)
	}
	return out
}
