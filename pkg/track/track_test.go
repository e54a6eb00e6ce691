package track

import (
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got v2.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
}

func TestPointTangent_Segment(t *testing.T) {
	seg := graph.SegmentTrack{P1: v2.Vec{}, P2: v2.Vec{X: 10}}

	tests := []struct {
		s    float64
		want v2.Vec
	}{
		{0, v2.Vec{}},
		{1, v2.Vec{X: 10}},
		{0.25, v2.Vec{X: 2.5}},
		{-1, v2.Vec{}},
		{3, v2.Vec{X: 10}},
	}
	for _, tt := range tests {
		p, tan, err := PointTangent(seg, tt.s)
		require.NoError(t, err)
		assertVec(t, tt.want, p)
		assertVec(t, v2.Vec{X: 1}, tan)
	}
}

func TestPointTangent_LineExtrapolates(t *testing.T) {
	line := graph.LineTrack{Origin: v2.Vec{X: 1, Y: 1}, Dir: v2.Vec{X: 0, Y: 2}}
	p, tan, err := PointTangent(line, -1.5)
	require.NoError(t, err)
	assertVec(t, v2.Vec{X: 1, Y: -2}, p)
	assertVec(t, v2.Vec{X: 0, Y: 1}, tan)
}

func TestPointTangent_Arc(t *testing.T) {
	arc := graph.ArcTrack{Center: v2.Vec{}, R: 2, StartDeg: 0, EndDeg: 90}

	p, tan, err := PointTangent(arc, 0)
	require.NoError(t, err)
	assertVec(t, v2.Vec{X: 2}, p)
	assertVec(t, v2.Vec{X: 0, Y: 1}, tan)

	p, tan, err = PointTangent(arc, 1)
	require.NoError(t, err)
	assertVec(t, v2.Vec{X: 0, Y: 2}, p)
	assertVec(t, v2.Vec{X: -1, Y: 0}, tan)

	clamped, _, err := PointTangent(arc, 7)
	require.NoError(t, err)
	assertVec(t, p, clamped)
}

func TestPointTangent_Degenerate(t *testing.T) {
	_, tan, err := PointTangent(graph.SegmentTrack{P1: v2.Vec{X: 3}, P2: v2.Vec{X: 3}}, 0.5)
	require.NoError(t, err)
	assertVec(t, v2.Vec{X: 1}, tan)
}

func TestPointTangent_Unresolved(t *testing.T) {
	_, _, err := PointTangent(graph.AnchorTrack{PartID: "ramp"}, 0)
	assert.ErrorContains(t, err, "must be resolved")
}

func TestNormal(t *testing.T) {
	arc := graph.ArcTrack{Center: v2.Vec{X: 1, Y: 1}, R: 1}
	n := Normal(arc, v2.Vec{X: 2, Y: 1}, v2.Vec{X: 0, Y: 1}, graph.SideOuter)
	assertVec(t, v2.Vec{X: 1}, n)

	n = Normal(arc, v2.Vec{X: 2, Y: 1}, v2.Vec{X: 0, Y: 1}, graph.SideInner)
	assertVec(t, v2.Vec{X: -1}, n)

	n = Normal(arc, v2.Vec{X: 1, Y: 1}, v2.Vec{X: 1}, graph.SideOuter)
	assertVec(t, v2.Vec{Y: 1}, n)

	seg := graph.SegmentTrack{P2: v2.Vec{X: 1}}
	n = Normal(seg, v2.Vec{}, v2.Vec{X: 1}, graph.SideOuter)
	assertVec(t, v2.Vec{Y: 1}, n)
}

// rampGeometry is a 4x2 ramp whose start/end anchors span its slope.
func rampGeometry() geom.Geometries {
	anchors := geom.DefaultAnchors(4, 2)
	anchors["start"] = v2.Vec{X: -2, Y: -1}
	anchors["end"] = v2.Vec{X: 2, Y: 1}
	return geom.Geometries{"ramp": geom.NewPartGeometry("ramp", anchors)}
}

func TestResolve(t *testing.T) {
	geoms := rampGeometry()
	poses := map[string]geom.Pose{"ramp": {X: 10, Y: 0, Theta: 90, Scale: 1}}

	world := graph.Track{ID: "w", Data: graph.SegmentTrack{P2: v2.Vec{X: 1}}}
	d, err := Resolve(world, poses, geoms)
	require.NoError(t, err)
	assert.Equal(t, world.Data, d)

	dyn := graph.Track{ID: "dyn", Data: graph.AnchorTrack{
		Form: graph.TrackSegment, Frame: graph.FrameWorld, PartID: "ramp", AnchorA: "start", AnchorB: "end",
	}}
	d, err = Resolve(dyn, poses, geoms)
	require.NoError(t, err)
	seg, ok := d.(graph.SegmentTrack)
	require.True(t, ok)
	assertVec(t, v2.Vec{X: 11, Y: -2}, seg.P1)
	assertVec(t, v2.Vec{X: 9, Y: 2}, seg.P2)

	local := graph.Track{ID: "loc", Data: graph.AnchorTrack{Form: graph.TrackLine, Frame: graph.FrameLocal, PartID: "ramp"}}
	_, err = Resolve(local, poses, geoms)
	assert.ErrorContains(t, err, "must be baked")
}

func TestResolve_UnknownPartAndAnchor(t *testing.T) {
	geoms := rampGeometry()
	dyn := graph.Track{ID: "dyn", Data: graph.AnchorTrack{
		Form: graph.TrackLine, Frame: graph.FrameWorld, PartID: "ramp", AnchorA: "start", AnchorB: "tip",
	}}

	_, err := Resolve(dyn, map[string]geom.Pose{"wheel": geom.Identity(), "axle": geom.Identity()}, geoms)
	var ref *graph.ReferenceError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "ramp", ref.ID)
	assert.Equal(t, []string{"axle", "wheel"}, ref.Available)

	_, err = Resolve(dyn, map[string]geom.Pose{"ramp": geom.Identity()}, geoms)
	var ua *geom.UnknownAnchorError
	require.ErrorAs(t, err, &ua)
	assert.Equal(t, "tip", ua.Anchor)
}

func TestBake(t *testing.T) {
	g := graph.New()
	g.AddPart(graph.Part{ID: "ramp", Type: "incline", Seed: geom.Identity()})
	g.AddTrack(graph.Track{ID: "slope", Data: graph.AnchorTrack{
		Form: graph.TrackLine, Frame: graph.FrameLocal, PartID: "ramp", AnchorA: "start", AnchorB: "end",
	}})
	g.AddTrack(graph.Track{ID: "bowl", Data: graph.LocalArcTrack{
		PartID: "ramp", CenterAnchor: "top_center", RadiusLocal: 1.5, StartDegLocal: 180, EndDegLocal: 360,
	}})
	g.AddTrack(graph.Track{ID: "rim", Data: graph.LocalArcTrack{
		PartID: "ramp", CenterLocal: v2.Vec{X: 1}, RadiusLocal: 1, StartDegLocal: 0, EndDegLocal: 90,
	}})
	g.AddTrack(graph.Track{ID: "floor", Data: graph.SegmentTrack{P2: v2.Vec{X: 5}}})

	poses := map[string]geom.Pose{"ramp": {X: 1, Y: 2, Theta: 90, Scale: 2}}
	baked, err := Bake(g, poses, rampGeometry())
	require.NoError(t, err)
	assert.False(t, baked.HasLocalTracks())
	assert.True(t, g.HasLocalTracks(), "original graph must be untouched")

	line := baked.Track("slope").Data.(graph.LineTrack)
	// start (-2,-1)*2 rotated 90 -> (2,-4); end (2,1)*2 rotated 90 -> (-2,4)
	assertVec(t, v2.Vec{X: 3, Y: -2}, line.Origin)
	assertVec(t, v2.Vec{X: -4, Y: 8}, line.Dir)

	bowl := baked.Track("bowl").Data.(graph.ArcTrack)
	// top_center (0,1)*2 rotated 90 -> (-2,0)
	assertVec(t, v2.Vec{X: -1, Y: 2}, bowl.Center)
	assert.InDelta(t, 3.0, bowl.R, eps)
	assert.InDelta(t, 270.0, bowl.StartDeg, eps)
	assert.InDelta(t, 450.0, bowl.EndDeg, eps)

	rim := baked.Track("rim").Data.(graph.ArcTrack)
	assertVec(t, v2.Vec{X: 1, Y: 4}, rim.Center)

	assert.Equal(t, g.Track("floor").Data, baked.Track("floor").Data)
}

func TestBake_MissingPose(t *testing.T) {
	g := graph.New()
	g.AddTrack(graph.Track{ID: "bowl", Data: graph.LocalArcTrack{PartID: "dish", RadiusLocal: 1}})
	_, err := Bake(g, map[string]geom.Pose{}, geom.Geometries{})
	assert.ErrorContains(t, err, `unknown part id "dish"`)
}
