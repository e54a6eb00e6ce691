package sdfx

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

func near(a, b v2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func TestBox(t *testing.T) {
	k := New()
	box := k.Box(4, 2)
	o, err := k.ToOutline(box)
	if err != nil {
		t.Fatalf("ToOutline failed: %v", err)
	}
	if o.IsEmpty() {
		t.Fatal("outline is empty")
	}
	if o.LoopCount() != 1 || o.VertexCount() != 4 {
		t.Fatalf("box outline: %d loops, %d vertices; want 1 loop of 4", o.LoopCount(), o.VertexCount())
	}
	if !box.Contains(v2.Vec{X: 1.9, Y: 0.9}) {
		t.Error("box should contain (1.9, 0.9)")
	}
	if box.Contains(v2.Vec{X: 2.1, Y: 0}) {
		t.Error("box should not contain (2.1, 0)")
	}
}

func TestCircle(t *testing.T) {
	k := New()
	c := k.Circle(2)
	o, err := k.ToOutline(c)
	if err != nil {
		t.Fatalf("ToOutline failed: %v", err)
	}
	if o.VertexCount() != defaultCircleSegments {
		t.Fatalf("circle vertices = %d, want %d", o.VertexCount(), defaultCircleSegments)
	}
	for _, p := range o.Loops[0] {
		if math.Abs(p.Length()-2) > 1e-9 {
			t.Fatalf("circle point %v not on radius 2", p)
		}
	}
	min, max := c.BoundingBox()
	if !near(min, v2.Vec{X: -2, Y: -2}, 1e-9) || !near(max, v2.Vec{X: 2, Y: 2}, 1e-9) {
		t.Errorf("circle bounds = %v %v, want (-2,-2) (2,2)", min, max)
	}
}

func TestPolygon(t *testing.T) {
	k := New()
	tri := k.Polygon([]v2.Vec{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}})
	if !tri.Contains(v2.Vec{X: 3, Y: 0.5}) {
		t.Error("triangle should contain (3, 0.5)")
	}
	if tri.Contains(v2.Vec{X: 1, Y: 1.5}) {
		t.Error("triangle should not contain (1, 1.5)")
	}
	min, max := tri.BoundingBox()
	if !near(min, v2.Vec{}, 1e-9) || !near(max, v2.Vec{X: 4, Y: 2}, 1e-9) {
		t.Errorf("triangle bounds = %v %v", min, max)
	}
}

func TestArc(t *testing.T) {
	k := New()
	band := k.Arc(3, 0, 180, 0.5)
	if !band.Contains(v2.Vec{X: 0, Y: 3}) {
		t.Error("arc band should contain its midline at (0, 3)")
	}
	if band.Contains(v2.Vec{X: 0, Y: -3}) {
		t.Error("upper arc band should not contain (0, -3)")
	}
	if band.Contains(v2.Vec{}) {
		t.Error("arc band should not contain its centre")
	}
	o, err := k.ToOutline(band)
	if err != nil {
		t.Fatalf("ToOutline failed: %v", err)
	}
	if o.LoopCount() != 1 {
		t.Fatalf("arc band loops = %d, want 1", o.LoopCount())
	}
}

func TestArc_SweepCappedAtOneTurn(t *testing.T) {
	k := New()
	for _, end := range []float64{1e11, -1e11, 720} {
		o, err := k.ToOutline(k.Arc(3, 0, end, 0.5))
		if err != nil {
			t.Fatalf("end %g: ToOutline failed: %v", end, err)
		}
		if got, limit := o.VertexCount(), 2*(defaultCircleSegments+1); got > limit {
			t.Errorf("end %g: %d vertices, want at most %d", end, got, limit)
		}
	}
}

func TestDifference(t *testing.T) {
	k := New()
	plate := k.Box(4, 4)
	hole := k.Circle(1)
	diff := k.Difference(plate, hole)
	if diff.Contains(v2.Vec{}) {
		t.Error("difference should not contain the hole centre")
	}
	if !diff.Contains(v2.Vec{X: 1.5, Y: 1.5}) {
		t.Error("difference should keep the plate corner")
	}
	o, err := k.ToOutline(diff)
	if err != nil {
		t.Fatalf("ToOutline failed: %v", err)
	}
	if o.LoopCount() != 2 {
		t.Fatalf("difference loops = %d, want plate plus hole", o.LoopCount())
	}
}

func TestUnion(t *testing.T) {
	k := New()
	a := k.Box(2, 2)
	b := k.Translate(k.Box(2, 2), 3, 0)
	u := k.Union(a, b)
	if !u.Contains(v2.Vec{}) || !u.Contains(v2.Vec{X: 3}) {
		t.Error("union should contain both box centres")
	}
	if u.Contains(v2.Vec{X: 1.5}) {
		t.Error("union should not contain the gap between the boxes")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	box := k.Translate(k.Box(10, 10), 100, 200)
	min, max := box.BoundingBox()

	const tol = 1e-9
	if !near(min, v2.Vec{X: 95, Y: 195}, tol) {
		t.Errorf("min = %v, expected (95,195)", min)
	}
	if !near(max, v2.Vec{X: 105, Y: 205}, tol) {
		t.Errorf("max = %v, expected (105,205)", max)
	}
	o, _ := k.ToOutline(box)
	omin, omax := o.Bounds()
	if !near(omin, min, tol) || !near(omax, max, tol) {
		t.Errorf("outline bounds %v %v differ from shape bounds %v %v", omin, omax, min, max)
	}
}

func TestRotate(t *testing.T) {
	k := New()
	// A long box along X rotated 90 degrees should extend along Y instead.
	rotated := k.Rotate(k.Box(100, 10), 90)
	o, err := k.ToOutline(rotated)
	if err != nil {
		t.Fatalf("ToOutline failed: %v", err)
	}
	min, max := o.Bounds()

	const tol = 1e-6
	if xExtent := max.X - min.X; math.Abs(xExtent-10) > tol {
		t.Errorf("rotated X extent = %f, expected 10", xExtent)
	}
	if yExtent := max.Y - min.Y; math.Abs(yExtent-100) > tol {
		t.Errorf("rotated Y extent = %f, expected 100", yExtent)
	}
	if !rotated.Contains(v2.Vec{Y: 45}) {
		t.Error("rotated box should contain (0, 45)")
	}
}

func TestScale(t *testing.T) {
	k := New()
	big := k.Scale(k.Box(1, 2), 3)
	min, max := big.BoundingBox()
	if !near(min, v2.Vec{X: -1.5, Y: -3}, 1e-9) || !near(max, v2.Vec{X: 1.5, Y: 3}, 1e-9) {
		t.Errorf("scaled bounds = %v %v", min, max)
	}
}
