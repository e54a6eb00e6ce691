package motion

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/solver"
)

// HasOverrides reports whether g carries any constraint_arg motion, in
// which case every frame needs its own solve.
func HasOverrides(g *graph.Graph) bool {
	for _, m := range g.Motions {
		if m.Kind() == graph.MotionConstraintArg {
			return true
		}
	}
	return false
}

// Override returns a copy of g with every constraint_arg motion's value at
// time t written into the constraint it drives. g is not modified.
func Override(g *graph.Graph, t float64) (*graph.Graph, error) {
	out := g.Clone()
	for _, m := range g.Motions {
		a, ok := m.Args.(graph.ConstraintArgMotion)
		if !ok {
			continue
		}
		c := out.Constraint(a.ConstraintID)
		if c == nil {
			return nil, graph.UnknownID(fmt.Sprintf("motion %q", m.ID), "constraint", a.ConstraintID, g.ConstraintIDs())
		}
		args, err := SetArg(c.Args, a.Arg, Sample(m.Timeline, a.Key(), t))
		if err != nil {
			return nil, fmt.Errorf("motion %q: %w", m.ID, err)
		}
		c.Args = args
	}
	return out, nil
}

// SetArg returns args with the named drivable argument set to v.
// Clearance and distance are clamped at zero.
func SetArg(args graph.ConstraintArgs, name string, v float64) (graph.ConstraintArgs, error) {
	switch a := args.(type) {
	case graph.OnTrackPose:
		switch name {
		case "s":
			a.S = v
			return a, nil
		case "clearance":
			a.Clearance = math.Max(0, v)
			return a, nil
		case "angle":
			a.Angle = &v
			return a, nil
		case "angle_offset":
			a.AngleOffset = v
			return a, nil
		}
	case graph.Distance:
		if name == "distance" {
			a.Distance = math.Max(0, v)
			return a, nil
		}
	}
	return nil, &graph.ArgError{
		Key:    name,
		Reason: fmt.Sprintf("%s constraints cannot be driven (drivable: %v)", args.Kind(), graph.DrivableArgs(args.Kind())),
	}
}

// Placement is one on_track_pose a part motion resolves to at a given
// time.
type Placement struct {
	MotionID string
	Pose     graph.OnTrackPose
}

// Resolve samples every on_track and on_track_schedule motion at time t,
// in declaration order. A schedule with no segments resolves to nothing.
func Resolve(g *graph.Graph, t float64) []Placement {
	var out []Placement
	for _, m := range g.Motions {
		switch a := m.Args.(type) {
		case graph.OnTrackMotion:
			s := Sample(m.Timeline, a.Key(), t)
			out = append(out, Placement{MotionID: m.ID, Pose: a.Pose.OnTrackPose(a.PartID, a.TrackID, s)})
		case graph.ScheduleMotion:
			seg, s, ok := PickSegment(a.Segments, Sample(m.Timeline, a.Key(), t))
			if !ok {
				continue
			}
			pose := a.Pose.Merge(seg.Pose)
			out = append(out, Placement{MotionID: m.ID, Pose: pose.OnTrackPose(a.PartID, seg.TrackID, s)})
		}
	}
	return out
}

// PickSegment chooses the schedule segment covering u and maps u onto the
// segment's s range. Segments are ordered by (U0, U1, declaration order);
// u before the first segment or after the last clamps to it. ok is false
// only when there are no segments.
func PickSegment(segments []graph.ScheduleSegment, u float64) (graph.ScheduleSegment, float64, bool) {
	if len(segments) == 0 {
		return graph.ScheduleSegment{}, 0, false
	}
	order := make([]int, len(segments))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := segments[order[i]], segments[order[j]]
		if a.U0 != b.U0 {
			return a.U0 < b.U0
		}
		return a.U1 < b.U1
	})

	first, last := segments[order[0]], segments[order[len(order)-1]]
	chosen := first
	switch {
	case u <= first.U0:
	case u >= last.U1:
		chosen = last
	default:
		for _, i := range order {
			if segments[i].U0 <= u && u <= segments[i].U1 {
				chosen = segments[i]
				break
			}
		}
	}

	alpha := 1.0
	if span := chosen.U1 - chosen.U0; math.Abs(span) > 1e-9 {
		alpha = math.Max(0, math.Min(1, (u-chosen.U0)/span))
	}
	return chosen, chosen.S0 + (chosen.S1-chosen.S0)*alpha, true
}

// Apply returns a copy of poses with every part motion placed at time t.
// Motions run in declaration order, so a later motion on the same part
// wins. g's tracks must already be baked.
func Apply(g *graph.Graph, geoms geom.Geometries, poses map[string]geom.Pose, t float64) (map[string]geom.Pose, error) {
	out := make(map[string]geom.Pose, len(poses))
	for id, p := range poses {
		out[id] = p
	}
	for _, pl := range Resolve(g, t) {
		if _, err := solver.Place(g, geoms, out, pl.Pose); err != nil {
			return nil, fmt.Errorf("motion %q: %w", pl.MotionID, err)
		}
	}
	return out, nil
}
