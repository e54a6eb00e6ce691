package engine

import (
	"strings"
	"testing"

	"github.com/chazu/jig/pkg/graph"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(defpart "a" :block)`,
			expect: `(defpart "a" "__kw_block")`,
		},
		{
			name:   "multiple keywords",
			input:  `(solver :max-iters 40 :tolerance 0.001)`,
			expect: `(solver "__kw_max-iters" 40 "__kw_tolerance" 0.001)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(on-track-pose "c" :part-id ref)`,
			expect: `(on_track_pose "c" "__kw_part-id" ref)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec2 -1 -2.5)`,
			expect: `(vec2 -1 -2.5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:anchor-a`,
			expect: `"__kw_anchor-a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustEvaluate(t *testing.T, source string) *graph.Graph {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

func num(t *testing.T, v any) float64 {
	t.Helper()
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	t.Fatalf("expected a number, got %T (%v)", v, v)
	return 0
}

// ---------------------------------------------------------------------------
// Parts
// ---------------------------------------------------------------------------

func TestDefpart(t *testing.T) {
	g := mustEvaluate(t, `
(defpart "ramp" :incline :width 6 :height 3
         :at (vec2 1 -2) :theta 15 :scale 0.5 :z 2 :fill "#336699")
`)
	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}
	ramp := g.Part("ramp")
	if ramp == nil {
		t.Fatal("expected part named 'ramp'")
	}
	if ramp.Type != "incline" {
		t.Errorf("type = %q, want incline", ramp.Type)
	}
	if w := num(t, ramp.Params["width"]); w != 6 {
		t.Errorf("width = %g, want 6", w)
	}
	if h := num(t, ramp.Params["height"]); h != 3 {
		t.Errorf("height = %g, want 3", h)
	}
	for _, k := range []string{"at", "theta", "fill"} {
		if _, ok := ramp.Params[k]; ok {
			t.Errorf("%s should not be a shape parameter", k)
		}
	}
	s := ramp.Seed
	if s.X != 1 || s.Y != -2 || s.Theta != 15 || s.Scale != 0.5 || s.Z != 2 {
		t.Errorf("seed = %+v", s)
	}
	if ramp.Style["fill"] != "#336699" {
		t.Errorf("style = %v", ramp.Style)
	}
}

func TestDefpartTypeAsString(t *testing.T) {
	g := mustEvaluate(t, `(defpart "w" "wheel" :radius 0.75)`)
	w := g.Part("w")
	if w == nil || w.Type != "wheel" {
		t.Fatalf("part = %+v", w)
	}
	if w.Seed.Scale != 1 {
		t.Errorf("seed scale should default to 1, got %g", w.Seed.Scale)
	}
}

func TestVariableReference(t *testing.T) {
	g := mustEvaluate(t, `
(def w 2.5)
(def a (defpart "a" :block :width w :at (vec2 (* w 2) 0)))
(defpart "b" :block)
(attach "join" :part-a a :part-b (part "b"))
`)
	a := g.Part("a")
	if got := num(t, a.Params["width"]); got != 2.5 {
		t.Errorf("width = %g, want 2.5 (from variable)", got)
	}
	if a.Seed.X != 5 {
		t.Errorf("seed x = %g, want 5", a.Seed.X)
	}
	at, ok := g.Constraint("join").Args.(graph.Attach)
	if !ok {
		t.Fatalf("expected Attach, got %T", g.Constraint("join").Args)
	}
	if at.PartA != "a" || at.PartB != "b" {
		t.Errorf("attach parts = %s, %s", at.PartA, at.PartB)
	}
}

func TestPartLookupError(t *testing.T) {
	_, evalErrs, err := NewEngine().Evaluate(`(part "nonexistent")`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval error for missing part")
	}
	if !strings.Contains(evalErrs[0].Message, "nonexistent") {
		t.Errorf("error should mention the part name, got %q", evalErrs[0].Message)
	}
}

func TestVec2(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr bool
	}{
		{"two numbers", `(defpart "a" :block :at (vec2 1 2))`, false},
		{"floats", `(defpart "a" :block :at (vec2 1.5 -0.25))`, false},
		{"too few", `(vec2 1)`, true},
		{"too many", `(vec2 1 2 3)`, true},
		{"not a number", `(vec2 "x" 2)`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if got := len(evalErrs) > 0; got != tt.wantErr {
				t.Errorf("errors = %v, wantErr %v", evalErrs, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Scene settings
// ---------------------------------------------------------------------------

func TestSpaceAndSolver(t *testing.T) {
	g := mustEvaluate(t, `
(space :x-range [-8 8] :y-range (list -5 5) :unit "m")
(solver :max-iters 40 :tolerance 0.001)
`)
	if g.Space.XRange != [2]float64{-8, 8} || g.Space.YRange != [2]float64{-5, 5} {
		t.Errorf("space ranges = %v %v", g.Space.XRange, g.Space.YRange)
	}
	if g.Space.Unit != "m" {
		t.Errorf("unit = %q", g.Space.Unit)
	}
	if g.Solver.MaxIters != 40 || g.Solver.Tolerance != 0.001 {
		t.Errorf("solver hints = %+v", g.Solver)
	}
}

func TestSpaceBadRange(t *testing.T) {
	_, evalErrs, err := NewEngine().Evaluate(`(space :x-range [8 -8])`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error for an inverted range")
	}
}

// ---------------------------------------------------------------------------
// Tracks and constraints
// ---------------------------------------------------------------------------

func TestTracks(t *testing.T) {
	g := mustEvaluate(t, `
(defpart "ramp" :incline)
(defpart "bowl" :arc-track :radius 3)
(segment "slope" :part "ramp" :anchor-a :start :anchor-b :end)
(line "rail" :x0 0 :y0 1 :dx 2 :dy 0)
(arc "rim" :cx 0 :cy 0 :r 4 :start-deg 0 :end-deg 90)
(arc "groove" :part "bowl" :center-anchor :center :radius-local 3
     :start-deg-local 180 :end-deg-local 360)
`)
	if !g.Track("slope").IsLocal() {
		t.Error("slope should be local to the ramp")
	}
	at, ok := g.Track("slope").Data.(graph.AnchorTrack)
	if !ok || at.AnchorA != "start" || at.AnchorB != "end" {
		t.Errorf("slope data = %+v", g.Track("slope").Data)
	}
	if line, ok := g.Track("rail").Data.(graph.LineTrack); !ok || line.Dir.X != 2 {
		t.Errorf("rail data = %+v", g.Track("rail").Data)
	}
	if arc, ok := g.Track("rim").Data.(graph.ArcTrack); !ok || arc.R != 4 || arc.EndDeg != 90 {
		t.Errorf("rim data = %+v", g.Track("rim").Data)
	}
	la, ok := g.Track("groove").Data.(graph.LocalArcTrack)
	if !ok {
		t.Fatalf("groove data = %T", g.Track("groove").Data)
	}
	if la.PartID != "bowl" || la.CenterAnchor != "center" || la.RadiusLocal != 3 {
		t.Errorf("groove = %+v", la)
	}
}

func TestConstraints(t *testing.T) {
	g := mustEvaluate(t, `
(defpart "a" :block)
(defpart "b" :block :at (vec2 4 0))
(defpart "m" :ball)
(defpart "ramp" :incline)
(segment "slope" :part "ramp" :anchor-a :start :anchor-b :end)

(attach "weld" :part-a "a" :anchor-a :right-center :part-b "b"
        :anchor-b :left-center :mode :both :rigid true)
(distance "gap" :part-a "a" :part-b "b" :distance 3 :hard false)
(midpoint "mid" :part "m" :part-1 "a" :part-2 "b")
(on-track-pose "rest" :part "b" :track "slope" :s 0.25 :clearance 0.1
               :contact-side :inner :angle-mode :normal)
`)
	weld := g.Constraint("weld")
	at := weld.Args.(graph.Attach)
	if at.AnchorA != "right_center" || at.AnchorB != "left_center" {
		t.Errorf("kebab-case anchors should become snake_case, got %q %q", at.AnchorA, at.AnchorB)
	}
	if at.Mode != graph.ModeBoth || !at.Rigid {
		t.Errorf("weld = %+v", at)
	}
	if !weld.Hard {
		t.Error("constraints are hard by default")
	}

	gap := g.Constraint("gap")
	if gap.Hard {
		t.Error(":hard false should make the constraint soft")
	}
	if d := gap.Args.(graph.Distance); d.Distance != 3 {
		t.Errorf("distance = %g", d.Distance)
	}

	mid := g.Constraint("mid").Args.(graph.Midpoint)
	if mid.PartID != "m" || mid.Points[0].PartID != "a" || mid.Points[1].PartID != "b" {
		t.Errorf("midpoint = %+v", mid)
	}

	rest := g.Constraint("rest").Args.(graph.OnTrackPose)
	if rest.PartID != "b" || rest.TrackID != "slope" || rest.S != 0.25 {
		t.Errorf("on_track_pose = %+v", rest)
	}
	if rest.ContactSide != graph.SideInner || rest.AngleMode != graph.AngleNormal || rest.Clearance != 0.1 {
		t.Errorf("on_track_pose options = %+v", rest)
	}
}

func TestConstraintHardMustBeBool(t *testing.T) {
	_, evalErrs, err := NewEngine().Evaluate(`
(defpart "a" :block)
(defpart "b" :block)
(attach "c" :part-a "a" :part-b "b" :hard 1)
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error for a numeric hard flag")
	}
}

// ---------------------------------------------------------------------------
// Motions
// ---------------------------------------------------------------------------

func TestAnimateConstraintArg(t *testing.T) {
	g := mustEvaluate(t, `
(defpart "ramp" :incline)
(defpart "block" :block)
(segment "slope" :part "ramp" :anchor-a :start :anchor-b :end)
(on-track-pose "rest" :part "block" :track "slope" :s 0.2)
(animate "slide" :constraint-arg :constraint "rest" :arg :s
         :timeline [(keyframe 0 0.2) (keyframe 2 0.8)])
`)
	if len(g.Motions) != 1 {
		t.Fatalf("expected 1 motion, got %d", len(g.Motions))
	}
	mo := g.Motions[0]
	args, ok := mo.Args.(graph.ConstraintArgMotion)
	if !ok {
		t.Fatalf("expected ConstraintArgMotion, got %T", mo.Args)
	}
	if args.ConstraintID != "rest" || args.Arg != "s" || args.ParamKey != "value" {
		t.Errorf("args = %+v", args)
	}
	if len(mo.Timeline) != 2 {
		t.Fatalf("timeline = %+v", mo.Timeline)
	}
	if mo.Timeline[1].T != 2 || mo.Timeline[1].Values["value"] != 0.8 {
		t.Errorf("second keyframe = %+v", mo.Timeline[1])
	}
}

func TestAnimateSchedule(t *testing.T) {
	g := mustEvaluate(t, `
(defpart "crate" :block :width 0.5 :height 0.5)
(segment "floor" :x1 -6 :y1 0 :x2 2 :y2 0)
(segment "shelf" :x1 2 :y1 1 :x2 6 :y2 1)
(animate "haul" :on-track-schedule :part "crate"
         :segments [(leg "floor" :u0 0 :u1 1) (leg "shelf" :u0 1 :u1 2 :s0 0 :s1 1)]
         :timeline [(keyframe 0 :u 0) (keyframe 4 :u 2)])
`)
	sm, ok := g.Motions[0].Args.(graph.ScheduleMotion)
	if !ok {
		t.Fatalf("expected ScheduleMotion, got %T", g.Motions[0].Args)
	}
	if sm.PartID != "crate" || sm.ParamKey != "u" {
		t.Errorf("schedule = %+v", sm)
	}
	if len(sm.Segments) != 2 {
		t.Fatalf("segments = %+v", sm.Segments)
	}
	if sm.Segments[1].TrackID != "shelf" || sm.Segments[1].U0 != 1 || sm.Segments[1].U1 != 2 {
		t.Errorf("second leg = %+v", sm.Segments[1])
	}
	if g.Motions[0].Timeline[1].Values["u"] != 2 {
		t.Errorf("timeline = %+v", g.Motions[0].Timeline)
	}
}

func TestAnimateTimelineNeedsKeyframes(t *testing.T) {
	_, evalErrs, err := NewEngine().Evaluate(`
(defpart "b" :ball)
(segment "s" :x1 0 :y1 0 :x2 1 :y2 0)
(animate "roll" :on-track :part "b" :track "s" :timeline [1 2])
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error for a timeline without keyframes")
	}
}

// ---------------------------------------------------------------------------
// Full example
// ---------------------------------------------------------------------------

func TestHingeExample(t *testing.T) {
	g, err := NewEngine().LoadFile("../../examples/hinge.jig")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(g.Parts) != 3 || len(g.Tracks) != 1 || len(g.Constraints) != 2 || len(g.Motions) != 1 {
		t.Errorf("counts: parts=%d tracks=%d constraints=%d motions=%d",
			len(g.Parts), len(g.Tracks), len(g.Constraints), len(g.Motions))
	}
	if g.Solver.MaxIters != 60 {
		t.Errorf("max iters = %d", g.Solver.MaxIters)
	}
	latched := g.Constraint("latched").Args.(graph.OnTrackPose)
	if latched.Anchor != "left_center" || latched.AngleMode != graph.AngleFixed {
		t.Errorf("latched = %+v", latched)
	}
	if latched.Angle == nil || *latched.Angle != 0 {
		t.Errorf("latched angle = %v", latched.Angle)
	}
}
