package shape

import (
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/kernel/sdfx"
)

func draw(t *testing.T, typ string, params map[string]any) *Drawn {
	t.Helper()
	d, err := NewLibrary(sdfx.New()).Draw(graph.Part{ID: "p", Type: typ, Params: params})
	require.NoError(t, err)
	return d
}

func anchor(t *testing.T, d *Drawn, name string) v2.Vec {
	t.Helper()
	v, err := d.Geometry.Anchor(name)
	require.NoError(t, err)
	return v
}

func assertVec(t *testing.T, want, got v2.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
}

func TestDraw_Block(t *testing.T) {
	d := draw(t, "Block", map[string]any{"width": "3", "height": 2, "label": "m"})
	assert.Equal(t, "block", d.Type)
	assertVec(t, v2.Vec{Y: -1}, anchor(t, d, "bottom_center"))
	assertVec(t, v2.Vec{X: 1.5, Y: 1}, anchor(t, d, "top_right"))
	assertVec(t, v2.Vec{}, anchor(t, d, "center"))
}

func TestDraw_Defaults(t *testing.T) {
	assertVec(t, v2.Vec{X: 0.5, Y: 0.5}, anchor(t, draw(t, "box", nil), "top_right"))
	assertVec(t, v2.Vec{X: -1, Y: -0.5}, anchor(t, draw(t, "cart", nil), "bottom_left"))
	assertVec(t, v2.Vec{X: 1}, anchor(t, draw(t, "rod", nil), "end"))
}

func TestDraw_Rod(t *testing.T) {
	d := draw(t, "spring", map[string]any{"length": 4, "thickness": 0.5})
	assertVec(t, v2.Vec{X: -2}, anchor(t, d, "start"))
	assertVec(t, v2.Vec{X: 2}, anchor(t, d, "end"))
	assertVec(t, v2.Vec{Y: 0.25}, anchor(t, d, "top_center"))
}

func TestDraw_Disc(t *testing.T) {
	d := draw(t, "wheel", map[string]any{"radius": 1.5})
	assertVec(t, v2.Vec{Y: 1.5}, anchor(t, d, "rim_top"))
	assertVec(t, v2.Vec{Y: -1.5}, anchor(t, d, "bottom_center"))
	assert.True(t, d.Shape.Contains(v2.Vec{X: 1}))
	assert.False(t, d.Shape.Contains(v2.Vec{X: 1.2, Y: 1.2}))
}

func TestDraw_Incline(t *testing.T) {
	d := draw(t, "incline", map[string]any{"width": 6, "height": 2})
	assertVec(t, v2.Vec{X: -3, Y: -1}, anchor(t, d, "start"))
	assertVec(t, v2.Vec{X: 3, Y: 1}, anchor(t, d, "end"))
	assertVec(t, v2.Vec{}, anchor(t, d, "slope_mid"))
	assert.True(t, d.Shape.Contains(v2.Vec{X: 2, Y: -0.5}))
	assert.False(t, d.Shape.Contains(v2.Vec{X: -2, Y: 0.5}))
}

func TestDraw_ArcTrack(t *testing.T) {
	d := draw(t, "arc_track", map[string]any{"radius": 2, "start_deg": 180, "end_deg": 360})
	assertVec(t, v2.Vec{}, anchor(t, d, "center"))
	assertVec(t, v2.Vec{X: -2}, anchor(t, d, "start"))
	assertVec(t, v2.Vec{X: 2}, anchor(t, d, "end"))
	assertVec(t, v2.Vec{Y: -2}, anchor(t, d, "mid"))
}

func TestDraw_ExplicitAnchors(t *testing.T) {
	d := draw(t, "block", map[string]any{
		"anchors": map[string]any{"Hook": []any{0.1, "0.5"}, "center": []float64{0, 0.2}},
	})
	assertVec(t, v2.Vec{X: 0.1, Y: 0.5}, anchor(t, d, "hook"))
	assertVec(t, v2.Vec{Y: 0.2}, anchor(t, d, "center"))
}

func TestDraw_Errors(t *testing.T) {
	lib := NewLibrary(sdfx.New())

	tests := []struct {
		name   string
		part   graph.Part
		substr string
	}{
		{"unknown type", graph.Part{ID: "x", Type: "rocket"}, `unsupported part type "rocket"`},
		{"non-positive size", graph.Part{ID: "x", Type: "block", Params: map[string]any{"width": 0}}, "params.width: must be > 0"},
		{"bad radius", graph.Part{ID: "x", Type: "ball", Params: map[string]any{"radius": -1}}, "params.radius"},
		{"bad anchor", graph.Part{ID: "x", Type: "block", Params: map[string]any{"anchors": map[string]any{"a": []any{1}}}}, "want [x, y]"},
		{"flat arc", graph.Part{ID: "x", Type: "arc_track", Params: map[string]any{"start_deg": 10, "end_deg": 10}}, "end_deg"},
		{"bad param type", graph.Part{ID: "x", Type: "rod", Params: map[string]any{"length": "long"}}, "params"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lib.Draw(tt.part)
			require.Error(t, err)
			assert.Contains(t, err.Error(), `part "x"`)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestDrawAll(t *testing.T) {
	g := graph.New()
	g.AddPart(graph.Part{ID: "a", Type: "block"})
	g.AddPart(graph.Part{ID: "b", Type: "ball"})
	drawn, geoms, err := DrawAll(NewLibrary(sdfx.New()), g)
	require.NoError(t, err)
	assert.Len(t, drawn, 2)
	assert.True(t, geoms["b"].Has("rim_top"))

	g.AddPart(graph.Part{ID: "c", Type: "rocket"})
	g.AddPart(graph.Part{ID: "d", Type: "laser"})
	_, _, err = DrawAll(NewLibrary(sdfx.New()), g)
	assert.Len(t, graph.Errors(err), 2)
}

func TestTypes(t *testing.T) {
	types := Types()
	assert.Contains(t, types, "incline")
	assert.IsIncreasing(t, types)
}
