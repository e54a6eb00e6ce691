package graph

import (
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/jig/pkg/geom"
)

func TestNewGraph(t *testing.T) {
	g := New()
	if g.Version != Version {
		t.Errorf("version = %q, want %q", g.Version, Version)
	}
	if g.Space.XRange != [2]float64{-10, 10} || g.Space.YRange != [2]float64{-6, 6} {
		t.Errorf("default space = %v x %v", g.Space.XRange, g.Space.YRange)
	}
	if g.Space.AngleUnit != "deg" || g.Space.Origin != "center" {
		t.Errorf("angle unit / origin = %q / %q", g.Space.AngleUnit, g.Space.Origin)
	}
	if g.NodeCount() != 0 {
		t.Errorf("empty graph should have 0 nodes, got %d", g.NodeCount())
	}
}

func TestLookup(t *testing.T) {
	g := buildIncline()

	if p := g.Part("block"); p == nil || p.Type != "block" {
		t.Fatalf("Part(block) = %+v", p)
	}
	if g.Part("nope") != nil {
		t.Error("Part(nope) should be nil")
	}
	if tr := g.Track("slope"); tr == nil || tr.Kind() != TrackSegment {
		t.Fatalf("Track(slope) = %+v", tr)
	}
	if c := g.Constraint("rest"); c == nil || c.Kind() != ConstraintOnTrackPose {
		t.Fatalf("Constraint(rest) = %+v", c)
	}
	if got := g.NodeCount(); got != 5 {
		t.Errorf("NodeCount = %d, want 5", got)
	}
}

func TestTrackFrame(t *testing.T) {
	g := buildIncline()
	slope := g.Track("slope")
	if !slope.IsLocal() {
		t.Error("anchored local segment should be local")
	}
	if slope.PartRef() != "ramp" {
		t.Errorf("PartRef = %q, want ramp", slope.PartRef())
	}
	if !g.HasLocalTracks() {
		t.Error("HasLocalTracks should be true")
	}

	world := Track{ID: "floor", Data: SegmentTrack{P1: v2.Vec{}, P2: v2.Vec{X: 10}}}
	if world.IsLocal() || world.PartRef() != "" {
		t.Error("world segment should not be local or part-bound")
	}
	dynamic := Track{ID: "dyn", Data: AnchorTrack{Form: TrackLine, Frame: FrameWorld, PartID: "ramp"}}
	if dynamic.IsLocal() {
		t.Error("world anchor track is resolved while solving, not baked")
	}
	if dynamic.Kind() != TrackLine {
		t.Errorf("dynamic track kind = %s, want line", dynamic.Kind())
	}
}

func TestSeedPosesAreCopies(t *testing.T) {
	g := buildIncline()
	poses := g.SeedPoses()
	p := poses["block"]
	p.X = 99
	poses["block"] = p
	if g.Part("block").Seed.X == 99 {
		t.Error("mutating SeedPoses result must not touch the graph")
	}
}

func TestWithoutAndClone(t *testing.T) {
	g := buildIncline()
	g.AddConstraint(Constraint{ID: "gap", Hard: false, Args: Distance{
		PartA: "ramp", AnchorA: "start", PartB: "block", AnchorB: "center", Distance: 2, Mode: ModeBoth,
	}})

	pre := g.Without(ConstraintOnTrackPose)
	if len(pre.Constraints) != 1 || pre.Constraints[0].ID != "gap" {
		t.Fatalf("Without(on_track_pose) constraints = %+v", pre.Constraints)
	}
	if len(g.Constraints) != 2 {
		t.Fatalf("original graph lost constraints: %d", len(g.Constraints))
	}

	c := g.Clone()
	c.Parts[0].Seed = geom.Pose{X: 42, Scale: 1}
	if g.Parts[0].Seed.X == 42 {
		t.Error("Clone shares the parts slice")
	}
}

func TestArgsParts(t *testing.T) {
	m := Midpoint{
		PartID: "c",
		Points: [2]PointRef{{PartID: "a", Anchor: "center"}, {XY: v2.Vec{X: 1}}},
	}
	got := m.Parts()
	if len(got) != 2 || got[0] != "c" || got[1] != "a" {
		t.Errorf("Midpoint.Parts = %v, want [c a]", got)
	}
	a := Attach{PartA: "x", PartB: "x"}
	if got := a.Parts(); len(got) != 1 {
		t.Errorf("Attach.Parts should dedupe, got %v", got)
	}
}

func TestPoseArgsMerge(t *testing.T) {
	anchor := "top_center"
	inner := SideInner
	clear := 0.5
	base := PoseArgs{Anchor: &anchor, Clearance: &clear}
	over := PoseArgs{ContactSide: &inner}

	merged := base.Merge(over)
	o := merged.OnTrackPose("p", "t", 0.25)
	if o.Anchor != "top_center" || o.ContactSide != SideInner || o.Clearance != 0.5 || o.S != 0.25 {
		t.Errorf("merged pose = %+v", o)
	}
	if o.AngleMode != AngleTangent {
		t.Errorf("default angle mode = %s, want tangent", o.AngleMode)
	}

	def := PoseArgs{}.OnTrackPose("p", "t", 1)
	if def.Anchor != DefaultTrackAnchor {
		t.Errorf("default anchor = %q, want %q", def.Anchor, DefaultTrackAnchor)
	}
}

func TestKindStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{ConstraintAttach.String(), "attach"},
		{ConstraintOnTrackPose.String(), "on_track_pose"},
		{TrackArc.String(), "arc"},
		{MotionOnTrackSchedule.String(), "on_track_schedule"},
		{ModeBToA.String(), "b_to_a"},
		{AngleKeep.String(), "keep"},
		{SideInner.String(), "inner"},
		{FrameLocal.String(), "local"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}

	if _, err := ParseMode("sideways"); err == nil {
		t.Error("ParseMode(sideways) should fail")
	}
	if m, err := ParseAngleMode(" Normal "); err != nil || m != AngleNormal {
		t.Errorf("ParseAngleMode(Normal) = %v, %v", m, err)
	}
}
