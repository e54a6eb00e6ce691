// Package tessellate walks a solved frame and produces world-space
// outlines using a shape kernel: one outline per part, placed at its pose,
// plus a sampled polyline per track. The tessellator is read-only and never
// mutates the graph or the poses.
package tessellate

import (
	"fmt"
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/kernel"
	"github.com/chazu/jig/pkg/shape"
	"github.com/chazu/jig/pkg/track"
)

// defaultTrackSamples is the number of segments an arc track is drawn with.
const defaultTrackSamples = 64

// Options controls a tessellation pass.
type Options struct {
	// Placement moves the whole frame after every part pose; a zero scale
	// means no placement.
	Placement geom.Pose
	// TrackSamples is the number of segments per arc track.
	TrackSamples int
}

// Path is a sampled world-space track.
type Path struct {
	TrackID string
	Points  []v2.Vec
}

// Frame is one tessellated frame, with parts in draw order.
type Frame struct {
	Parts  []*kernel.Outline
	Tracks []Path
}

// transformStack accumulates placements during the walk. The innermost
// (last pushed) pose is applied first.
type transformStack struct {
	poses []geom.Pose
}

func newTransformStack() *transformStack {
	return &transformStack{}
}

func (ts *transformStack) push(p geom.Pose) {
	ts.poses = append(ts.poses, p)
}

func (ts *transformStack) pop() {
	if len(ts.poses) > 0 {
		ts.poses = ts.poses[:len(ts.poses)-1]
	}
}

// place applies every pose on the stack to a shape: scale, then rotation,
// then translation, innermost first.
func (ts *transformStack) place(k kernel.Kernel, s kernel.Shape) kernel.Shape {
	for i := len(ts.poses) - 1; i >= 0; i-- {
		p := ts.poses[i]
		if p.Scale != 1 {
			s = k.Scale(s, p.Scale)
		}
		if p.Theta != 0 {
			s = k.Rotate(s, p.Theta)
		}
		if p.X != 0 || p.Y != 0 {
			s = k.Translate(s, p.X, p.Y)
		}
	}
	return s
}

// placePoint maps a point through every pose on the stack.
func (ts *transformStack) placePoint(v v2.Vec) v2.Vec {
	for i := len(ts.poses) - 1; i >= 0; i-- {
		v = geom.AnchorWorld(ts.poses[i], v)
	}
	return v
}

// Tessellate places every part of g at its pose and samples every track.
// Parts are ordered by pose depth, then declaration order. g's local
// tracks must already be baked.
func Tessellate(g *graph.Graph, drawn map[string]*shape.Drawn, poses map[string]geom.Pose, k kernel.Kernel, opts Options) (*Frame, error) {
	if g == nil {
		return &Frame{}, nil
	}
	ts := newTransformStack()
	if opts.Placement.Scale != 0 {
		ts.push(opts.Placement)
	}

	frame := &Frame{}
	for _, id := range drawOrder(g, poses) {
		d, ok := drawn[id]
		if !ok {
			return nil, fmt.Errorf("tessellate: no shape for part %q", id)
		}
		ts.push(poses[id])
		outline, err := k.ToOutline(ts.place(k, d.Shape))
		ts.pop()
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToOutline failed for part %q: %w", id, err)
		}
		outline.PartName = id
		frame.Parts = append(frame.Parts, outline)
	}

	geoms := make(geom.Geometries, len(drawn))
	for id, d := range drawn {
		geoms[id] = d.Geometry
	}
	samples := opts.TrackSamples
	if samples <= 0 {
		samples = defaultTrackSamples
	}
	for _, tr := range g.Tracks {
		d, err := track.Resolve(tr, poses, geoms)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		pts, err := samplePath(d, g.Space, samples)
		if err != nil {
			return nil, fmt.Errorf("tessellate: track %q: %w", tr.ID, err)
		}
		for i := range pts {
			pts[i] = ts.placePoint(pts[i])
		}
		frame.Tracks = append(frame.Tracks, Path{TrackID: tr.ID, Points: pts})
	}
	return frame, nil
}

// drawOrder returns part ids with posed parts sorted by depth. Parts
// without a pose are skipped.
func drawOrder(g *graph.Graph, poses map[string]geom.Pose) []string {
	var ids []string
	for _, p := range g.Parts {
		if _, ok := poses[p.ID]; ok {
			ids = append(ids, p.ID)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool { return poses[ids[i]].Z < poses[ids[j]].Z })
	return ids
}

// samplePath turns a world track into a polyline. Lines are drawn far
// enough either side of their origin to cross the whole scene space.
func samplePath(d graph.TrackData, space graph.Space, samples int) ([]v2.Vec, error) {
	var ss []float64
	switch t := d.(type) {
	case graph.SegmentTrack:
		ss = []float64{0, 1}
	case graph.LineTrack:
		reach := math.Hypot(space.XRange[1]-space.XRange[0], space.YRange[1]-space.YRange[0])
		if l := t.Dir.Length(); l > geom.Epsilon {
			reach /= l
		}
		ss = []float64{-reach, reach}
	case graph.ArcTrack:
		for i := 0; i <= samples; i++ {
			ss = append(ss, float64(i)/float64(samples))
		}
	}
	pts := make([]v2.Vec, 0, len(ss))
	for _, s := range ss {
		p, _, err := track.PointTangent(d, s)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}
