// Package track evaluates world-space tracks and turns part-anchored
// tracks into world-space ones, either continuously while solving
// (dynamic tracks) or once before the main solve (baking).
package track

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
)

// PointTangent returns the point at parameter s along a world-space track
// and the unit tangent there. Segments and arcs clamp s to [0,1]; lines
// extrapolate. Part-anchored data must be resolved first.
func PointTangent(d graph.TrackData, s float64) (v2.Vec, v2.Vec, error) {
	switch t := d.(type) {
	case graph.SegmentTrack:
		s = sdf.Clamp(s, 0, 1)
		return lerp(t.P1, t.P2, s), geom.Unit(t.P2.Sub(t.P1)), nil
	case graph.LineTrack:
		return t.Origin.Add(t.Dir.MulScalar(s)), geom.Unit(t.Dir), nil
	case graph.ArcTrack:
		a := sdf.DtoR(t.StartDeg + (t.EndDeg-t.StartDeg)*sdf.Clamp(s, 0, 1))
		sin, cos := math.Sincos(a)
		p := t.Center.Add(v2.Vec{X: cos, Y: sin}.MulScalar(t.R))
		return p, v2.Vec{X: -sin, Y: cos}, nil
	case graph.AnchorTrack, graph.LocalArcTrack:
		return v2.Vec{}, v2.Vec{}, fmt.Errorf("track data %T is part-anchored and must be resolved before evaluation", d)
	}
	return v2.Vec{}, v2.Vec{}, fmt.Errorf("unsupported track data %T", d)
}

// Normal returns the offset direction at point p: radial from the centre
// for arcs (falling back to +y at the centre), the tangent turned +90°
// otherwise. Inner contact flips it.
func Normal(d graph.TrackData, p, tangent v2.Vec, side graph.ContactSide) v2.Vec {
	var n v2.Vec
	if arc, ok := d.(graph.ArcTrack); ok {
		r := p.Sub(arc.Center)
		if r.Length() <= geom.Epsilon {
			n = v2.Vec{X: 0, Y: 1}
		} else {
			n = r.MulScalar(1 / r.Length())
		}
	} else {
		n = geom.Perp(tangent)
	}
	if side == graph.SideInner {
		n = n.MulScalar(-1)
	}
	return n
}

// Resolve returns the world-space form of a track under the given poses.
// World tracks are returned as is; world-frame anchor tracks follow their
// part's current pose. Local tracks are an error: bake them first.
func Resolve(tr graph.Track, poses map[string]geom.Pose, geoms geom.Geometries) (graph.TrackData, error) {
	switch d := tr.Data.(type) {
	case graph.SegmentTrack, graph.LineTrack, graph.ArcTrack:
		return d, nil
	case graph.AnchorTrack:
		if d.Frame == graph.FrameLocal {
			return nil, fmt.Errorf("track %q is in the local frame of part %q and must be baked before solving", tr.ID, d.PartID)
		}
		return anchorSpan(tr.ID, d, poses, geoms)
	case graph.LocalArcTrack:
		return nil, fmt.Errorf("track %q is in the local frame of part %q and must be baked before solving", tr.ID, d.PartID)
	}
	return nil, fmt.Errorf("track %q: unsupported track data %T", tr.ID, tr.Data)
}

// Bake returns a copy of g whose local tracks are replaced by their world
// forms under poses. Non-local tracks are copied unchanged, so dynamic
// anchor tracks keep following their part.
func Bake(g *graph.Graph, poses map[string]geom.Pose, geoms geom.Geometries) (*graph.Graph, error) {
	out := g.Clone()
	for i, tr := range out.Tracks {
		if !tr.IsLocal() {
			continue
		}
		var (
			baked graph.TrackData
			err   error
		)
		switch d := tr.Data.(type) {
		case graph.AnchorTrack:
			baked, err = anchorSpan(tr.ID, d, poses, geoms)
		case graph.LocalArcTrack:
			baked, err = bakeArc(tr.ID, d, poses, geoms)
		}
		if err != nil {
			return nil, err
		}
		out.Tracks[i].Data = baked
	}
	return out, nil
}

// anchorSpan builds the world segment or line running from anchor A to
// anchor B of the track's part.
func anchorSpan(id string, d graph.AnchorTrack, poses map[string]geom.Pose, geoms geom.Geometries) (graph.TrackData, error) {
	pose, err := poseOf(id, d.PartID, poses)
	if err != nil {
		return nil, err
	}
	a, err := geoms.World(d.PartID, d.AnchorA, pose)
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", id, err)
	}
	b, err := geoms.World(d.PartID, d.AnchorB, pose)
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", id, err)
	}
	if d.Form == graph.TrackLine {
		return graph.LineTrack{Origin: a, Dir: b.Sub(a)}, nil
	}
	return graph.SegmentTrack{P1: a, P2: b}, nil
}

func bakeArc(id string, d graph.LocalArcTrack, poses map[string]geom.Pose, geoms geom.Geometries) (graph.TrackData, error) {
	pose, err := poseOf(id, d.PartID, poses)
	if err != nil {
		return nil, err
	}
	local := d.CenterLocal
	if d.CenterAnchor != "" {
		pg, ok := geoms[d.PartID]
		if !ok {
			return nil, fmt.Errorf("track %q: no geometry for part %q", id, d.PartID)
		}
		if local, err = pg.Anchor(d.CenterAnchor); err != nil {
			return nil, fmt.Errorf("track %q: %w", id, err)
		}
	}
	return graph.ArcTrack{
		Center:   geom.AnchorWorld(pose, local),
		R:        math.Abs(pose.Scale) * d.RadiusLocal,
		StartDeg: pose.Theta + d.StartDegLocal,
		EndDeg:   pose.Theta + d.EndDegLocal,
	}, nil
}

func poseOf(trackID, partID string, poses map[string]geom.Pose) (geom.Pose, error) {
	pose, ok := poses[partID]
	if !ok {
		return geom.Pose{}, graph.UnknownID("track "+trackID, "part", partID, slices.Collect(maps.Keys(poses)))
	}
	return pose, nil
}

func lerp(a, b v2.Vec, s float64) v2.Vec {
	return a.Add(b.Sub(a).MulScalar(s))
}
