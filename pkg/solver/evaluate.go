package solver

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/track"
)

// apply enforces one constraint by moving the poses it may touch and
// returns the correction it made, which the main loop compares against
// the tolerance.
func (s *scene) apply(args graph.ConstraintArgs) (float64, error) {
	switch a := args.(type) {
	case graph.Attach:
		return s.applyAttach(a)
	case graph.OnTrackPose:
		return s.applyOnTrackPose(a)
	case graph.Midpoint:
		return s.applyMidpoint(a)
	case graph.Distance:
		return s.applyDistance(a)
	}
	return 0, fmt.Errorf("unsupported constraint args %T", args)
}

// measure computes a constraint's residual without moving anything. It
// uses the same math as apply.
func (s *scene) measure(args graph.ConstraintArgs) (float64, string, error) {
	switch a := args.(type) {
	case graph.Attach:
		pa, pb, err := s.attachPoints(a)
		if err != nil {
			return 0, "", err
		}
		detail := fmt.Sprintf("%s.%s -> %s.%s", a.PartA, a.AnchorA, a.PartB, a.AnchorB)
		if a.Rigid {
			detail += " (rigid)"
		}
		return geom.Dist(pa, pb), detail, nil

	case graph.OnTrackPose:
		p, err := s.world(a.PartID, a.Anchor)
		if err != nil {
			return 0, "", err
		}
		target, _, err := s.trackTarget(a)
		if err != nil {
			return 0, "", err
		}
		return geom.Dist(p, target), fmt.Sprintf("%s.%s on %s at s=%g", a.PartID, a.Anchor, a.TrackID, a.S), nil

	case graph.Midpoint:
		p, err := s.world(a.PartID, a.Anchor)
		if err != nil {
			return 0, "", err
		}
		target, err := s.midpointTarget(a)
		if err != nil {
			return 0, "", err
		}
		return geom.Dist(p, target), fmt.Sprintf("%s.%s at midpoint", a.PartID, a.Anchor), nil

	case graph.Distance:
		pa, err := s.world(a.PartA, a.AnchorA)
		if err != nil {
			return 0, "", err
		}
		pb, err := s.world(a.PartB, a.AnchorB)
		if err != nil {
			return 0, "", err
		}
		d := geom.Dist(pa, pb)
		return math.Abs(d - a.Distance), fmt.Sprintf("|%s.%s - %s.%s| = %.4g, want %g", a.PartA, a.AnchorA, a.PartB, a.AnchorB, d, a.Distance), nil
	}
	return 0, "", fmt.Errorf("unsupported constraint args %T", args)
}

// ---------------------------------------------------------------------------
// attach
// ---------------------------------------------------------------------------

func (s *scene) attachPoints(a graph.Attach) (v2.Vec, v2.Vec, error) {
	pa, err := s.world(a.PartA, a.AnchorA)
	if err != nil {
		return v2.Vec{}, v2.Vec{}, err
	}
	pb, err := s.world(a.PartB, a.AnchorB)
	if err != nil {
		return v2.Vec{}, v2.Vec{}, err
	}
	return pa, pb, nil
}

// applyAttach closes the gap between the two anchors and returns the gap
// as it was before the move.
func (s *scene) applyAttach(a graph.Attach) (float64, error) {
	pa, pb, err := s.attachPoints(a)
	if err != nil {
		return 0, err
	}
	delta := pb.Sub(pa)
	switch a.Mode {
	case graph.ModeBToA:
		s.shift(a.PartB, delta.MulScalar(-1))
	case graph.ModeBoth:
		s.shift(a.PartA, delta.MulScalar(0.5))
		s.shift(a.PartB, delta.MulScalar(-0.5))
	default:
		s.shift(a.PartA, delta)
	}
	return delta.Length(), nil
}

// ---------------------------------------------------------------------------
// on_track_pose
// ---------------------------------------------------------------------------

// trackTarget returns the point the anchor must reach and the track
// tangent there.
func (s *scene) trackTarget(o graph.OnTrackPose) (v2.Vec, v2.Vec, error) {
	d, err := s.track(o.TrackID)
	if err != nil {
		return v2.Vec{}, v2.Vec{}, err
	}
	p, tangent, err := track.PointTangent(d, o.S)
	if err != nil {
		return v2.Vec{}, v2.Vec{}, err
	}
	n := track.Normal(d, p, tangent, o.ContactSide)
	return p.Add(n.MulScalar(o.Clearance)), tangent, nil
}

// targetTheta picks the rotation for an on_track_pose. Every mode adds
// the angle offset; keep and fixed-without-angle start from the current
// rotation.
func targetTheta(o graph.OnTrackPose, current float64, tangent v2.Vec) float64 {
	switch o.AngleMode {
	case graph.AngleKeep:
		return current + o.AngleOffset
	case graph.AngleFixed:
		if o.Angle != nil {
			return *o.Angle + o.AngleOffset
		}
		return current + o.AngleOffset
	case graph.AngleNormal:
		return geom.Heading(tangent) + 90 + o.AngleOffset
	default:
		return geom.Heading(tangent) + o.AngleOffset
	}
}

// applyOnTrackPose rotates the part, then places its anchor on the target
// point. It returns the distance left afterwards, which is zero unless the
// track moves with the part itself.
func (s *scene) applyOnTrackPose(o graph.OnTrackPose) (float64, error) {
	pose, err := s.pose(o.PartID)
	if err != nil {
		return 0, err
	}
	local, err := s.local(o.PartID, o.Anchor)
	if err != nil {
		return 0, err
	}
	target, tangent, err := s.trackTarget(o)
	if err != nil {
		return 0, err
	}
	pose.Theta = targetTheta(o, pose.Theta, tangent)
	geom.SetCenterFromAnchorTarget(&pose, local, target)
	s.poses[o.PartID] = pose
	return geom.Dist(geom.AnchorWorld(pose, local), target), nil
}

// ---------------------------------------------------------------------------
// midpoint
// ---------------------------------------------------------------------------

func (s *scene) resolvePoint(p graph.PointRef) (v2.Vec, error) {
	if p.IsAnchor() {
		return s.world(p.PartID, p.Anchor)
	}
	return p.XY, nil
}

func (s *scene) midpointTarget(m graph.Midpoint) (v2.Vec, error) {
	p1, err := s.resolvePoint(m.Points[0])
	if err != nil {
		return v2.Vec{}, err
	}
	p2, err := s.resolvePoint(m.Points[1])
	if err != nil {
		return v2.Vec{}, err
	}
	return p1.Add(p2).MulScalar(0.5), nil
}

// applyMidpoint places the anchor exactly at the midpoint and returns how
// far the part moved.
func (s *scene) applyMidpoint(m graph.Midpoint) (float64, error) {
	pose, err := s.pose(m.PartID)
	if err != nil {
		return 0, err
	}
	local, err := s.local(m.PartID, m.Anchor)
	if err != nil {
		return 0, err
	}
	target, err := s.midpointTarget(m)
	if err != nil {
		return 0, err
	}
	before := pose.Position()
	geom.SetCenterFromAnchorTarget(&pose, local, target)
	s.poses[m.PartID] = pose
	return geom.Dist(before, pose.Position()), nil
}

// ---------------------------------------------------------------------------
// distance
// ---------------------------------------------------------------------------

// applyDistance moves the anchors along the line joining them until they
// sit the target distance apart, and returns the error it corrected.
func (s *scene) applyDistance(d graph.Distance) (float64, error) {
	pa, err := s.world(d.PartA, d.AnchorA)
	if err != nil {
		return 0, err
	}
	pb, err := s.world(d.PartB, d.AnchorB)
	if err != nil {
		return 0, err
	}
	v := pb.Sub(pa)
	u := geom.Unit(v)
	e := d.Distance - v.Length()
	switch d.Mode {
	case graph.ModeAToB:
		s.shift(d.PartB, u.MulScalar(e))
	case graph.ModeBToA:
		s.shift(d.PartA, u.MulScalar(-e))
	default:
		s.shift(d.PartA, u.MulScalar(-e/2))
		s.shift(d.PartB, u.MulScalar(e/2))
	}
	return math.Abs(e), nil
}
