// Package geom holds the pose and anchor primitives shared by the solver,
// the track model and the renderer. Points and offsets are sdfx v2.Vec
// values; angles are degrees.
package geom

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Epsilon is the length below which a direction is treated as degenerate.
const Epsilon = 1e-9

// Pose is a part's world placement: position, rotation in degrees,
// uniform scale and draw depth.
type Pose struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Theta float64 `json:"theta" yaml:"theta"`
	Scale float64 `json:"scale" yaml:"scale"`
	Z     float64 `json:"z" yaml:"z"`
}

// Identity returns the pose at the origin with unit scale.
func Identity() Pose {
	return Pose{Scale: 1}
}

// Position returns the pose origin as a vector.
func (p Pose) Position() v2.Vec {
	return v2.Vec{X: p.X, Y: p.Y}
}

// SetPosition moves the pose origin to v.
func (p *Pose) SetPosition(v v2.Vec) {
	p.X = v.X
	p.Y = v.Y
}

// Shift translates the pose origin by d.
func (p *Pose) Shift(d v2.Vec) {
	p.X += d.X
	p.Y += d.Y
}

func (p Pose) String() string {
	return fmt.Sprintf("(%g, %g) θ=%g s=%g z=%g", p.X, p.Y, p.Theta, p.Scale, p.Z)
}

// Changed reports whether two poses differ by more than eps in position,
// rotation (compared modulo 360) or scale. Depth is ignored.
func Changed(before, after Pose, eps float64) bool {
	return math.Abs(before.X-after.X) > eps ||
		math.Abs(before.Y-after.Y) > eps ||
		math.Abs(NormalizeAngle(before.Theta-after.Theta)) > eps ||
		math.Abs(before.Scale-after.Scale) > eps
}

// ---------------------------------------------------------------------------
// World transform
// ---------------------------------------------------------------------------

// Rotate turns v counter-clockwise by thetaDeg degrees.
func Rotate(v v2.Vec, thetaDeg float64) v2.Vec {
	return sdf.Rotate2d(sdf.DtoR(thetaDeg)).MulPosition(v)
}

// AnchorWorld maps a local anchor offset to world space:
// position + R(theta) * (scale * local).
func AnchorWorld(p Pose, local v2.Vec) v2.Vec {
	return p.Position().Add(Rotate(local.MulScalar(p.Scale), p.Theta))
}

// SetCenterFromAnchorTarget assigns the pose position so that the local
// anchor lands exactly on target. Rotation and scale are held fixed.
func SetCenterFromAnchorTarget(p *Pose, local, target v2.Vec) {
	p.SetPosition(target.Sub(Rotate(local.MulScalar(p.Scale), p.Theta)))
}

// ---------------------------------------------------------------------------
// Angle and direction helpers
// ---------------------------------------------------------------------------

// NormalizeAngle wraps a into (-180, 180].
func NormalizeAngle(a float64) float64 {
	v := math.Mod(a, 360)
	if v < 0 {
		v += 360
	}
	if v > 180 {
		v -= 360
	}
	return v
}

// Heading returns the angle of v in degrees, measured counter-clockwise
// from +x.
func Heading(v v2.Vec) float64 {
	return sdf.RtoD(math.Atan2(v.Y, v.X))
}

// Unit returns v scaled to length one, or (1, 0) when v is degenerate.
func Unit(v v2.Vec) v2.Vec {
	l := v.Length()
	if l <= Epsilon {
		return v2.Vec{X: 1, Y: 0}
	}
	return v.MulScalar(1 / l)
}

// Dist returns the distance between a and b.
func Dist(a, b v2.Vec) float64 {
	return b.Sub(a).Length()
}

// Perp returns v rotated by +90 degrees.
func Perp(v v2.Vec) v2.Vec {
	return v2.Vec{X: -v.Y, Y: v.X}
}
