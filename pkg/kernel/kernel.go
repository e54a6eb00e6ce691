// Package kernel defines the abstract 2D shape kernel. Implementations
// (sdfx) provide part outlines, boolean operations and point containment
// behind this interface, so the shape library and the renderer never
// depend on a particular backend.
package kernel

import v2 "github.com/deadsy/sdfx/vec/v2"

// Shape is an opaque handle to a kernel shape in its own frame.
// Implementations wrap their internal representation.
type Shape interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max v2.Vec)
	// Contains reports whether p lies inside or on the shape.
	Contains(p v2.Vec) bool
}

// Kernel is the abstract 2D shape kernel interface.
type Kernel interface {
	// Primitives, centred on the origin unless noted.
	Box(w, h float64) Shape
	Circle(r float64) Shape
	Polygon(pts []v2.Vec) Shape
	// Arc is a band of the given thickness centred on a circular arc of
	// radius r around the origin, from startDeg to endDeg.
	Arc(r, startDeg, endDeg, thickness float64) Shape

	// Boolean operations
	Union(a, b Shape) Shape
	Difference(a, b Shape) Shape

	// Transforms
	Translate(s Shape, x, y float64) Shape
	Rotate(s Shape, deg float64) Shape // counter-clockwise, degrees
	Scale(s Shape, f float64) Shape

	// Outline output
	ToOutline(s Shape) (*Outline, error)
}
