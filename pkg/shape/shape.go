// Package shape draws graph parts through a kernel.Kernel and derives each
// part's named-anchor table from the drawn shape's bounding box plus the
// anchors its type defines.
package shape

import (
	"fmt"
	"sort"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/mitchellh/mapstructure"

	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/kernel"
)

// Drawn is one part's local-frame shape and anchor table.
type Drawn struct {
	Type     string
	Shape    kernel.Shape
	Geometry geom.PartGeometry
}

// Drawer turns a part into its shape and anchors.
type Drawer interface {
	Draw(p graph.Part) (*Drawn, error)
}

// Compile-time interface check.
var _ Drawer = (*Library)(nil)

// Library is the built-in part library.
type Library struct {
	k kernel.Kernel
}

// NewLibrary returns a library drawing through k.
func NewLibrary(k kernel.Kernel) *Library {
	return &Library{k: k}
}

// builder draws one part type from its params and returns the shape and
// its type-specific anchors. Bounding-box anchors are added by Draw.
type builder func(k kernel.Kernel, params map[string]any) (kernel.Shape, map[string]v2.Vec, error)

var builders = map[string]builder{
	"block":     drawBlock(1, 1),
	"box":       drawBlock(1, 1),
	"cart":      drawBlock(2, 1),
	"weight":    drawBlock(0.6, 0.6),
	"ground":    drawBlock(12, 0.2),
	"wall":      drawBlock(0.2, 4),
	"rod":       drawRod,
	"beam":      drawRod,
	"spring":    drawRod,
	"wheel":     drawDisc,
	"ball":      drawDisc,
	"pulley":    drawDisc,
	"incline":   drawIncline,
	"wedge":     drawIncline,
	"arc_track": drawArcTrack,
}

// Types returns the supported part types in sorted order.
func Types() []string {
	types := make([]string, 0, len(builders))
	for t := range builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Draw builds the part's shape and anchor table. An "anchors" param of
// {name: [x, y]} adds or replaces anchors after the built-in ones.
func (l *Library) Draw(p graph.Part) (*Drawn, error) {
	typ := strings.ToLower(strings.TrimSpace(p.Type))
	build, ok := builders[typ]
	if !ok {
		return nil, fmt.Errorf("part %q: %w", p.ID, &graph.TypeError{Field: "part type", Value: p.Type, Allowed: Types()})
	}
	s, typed, err := build(l.k, p.Params)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", p.ID, err)
	}

	min, max := s.BoundingBox()
	anchors := geom.AnchorsFromBox(min, max)
	for name, v := range typed {
		anchors[name] = v
	}
	extra, err := explicitAnchors(p.Params)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", p.ID, err)
	}
	for name, v := range extra {
		anchors[name] = v
	}
	return &Drawn{Type: typ, Shape: s, Geometry: geom.NewPartGeometry(p.ID, anchors)}, nil
}

// DrawAll draws every part of g with d. Errors for individual parts are
// collected rather than stopping at the first.
func DrawAll(d Drawer, g *graph.Graph) (map[string]*Drawn, geom.Geometries, error) {
	drawn := make(map[string]*Drawn, len(g.Parts))
	geoms := make(geom.Geometries, len(g.Parts))
	var errs []error
	for _, p := range g.Parts {
		dr, err := d.Draw(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		drawn[p.ID] = dr
		geoms[p.ID] = dr.Geometry
	}
	if len(errs) == 1 {
		return nil, nil, errs[0]
	}
	if len(errs) > 1 {
		return nil, nil, &graph.AggregateError{Errors: errs}
	}
	return drawn, geoms, nil
}

// ---------------------------------------------------------------------------
// Params
// ---------------------------------------------------------------------------

// decodeParams overlays raw params on the defaults already in out. Keys a
// type does not use are ignored; params also carry labels and styling.
func decodeParams(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return &graph.ArgError{Path: "params", Reason: err.Error()}
	}
	return nil
}

func positive(name string, v float64) error {
	if v <= 0 {
		return &graph.ArgError{Path: "params", Key: name, Reason: fmt.Sprintf("must be > 0, got %g", v)}
	}
	return nil
}

func explicitAnchors(raw map[string]any) (map[string]v2.Vec, error) {
	var p struct {
		Anchors map[string][]float64 `mapstructure:"anchors"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	out := make(map[string]v2.Vec, len(p.Anchors))
	for name, xy := range p.Anchors {
		if len(xy) != 2 {
			return nil, &graph.ArgError{Path: "params.anchors", Key: name, Reason: fmt.Sprintf("want [x, y], got %d values", len(xy))}
		}
		out[name] = v2.Vec{X: xy[0], Y: xy[1]}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Part types
// ---------------------------------------------------------------------------

type boxParams struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

func drawBlock(w, h float64) builder {
	return func(k kernel.Kernel, params map[string]any) (kernel.Shape, map[string]v2.Vec, error) {
		p := boxParams{Width: w, Height: h}
		if err := decodeParams(params, &p); err != nil {
			return nil, nil, err
		}
		if err := positive("width", p.Width); err != nil {
			return nil, nil, err
		}
		if err := positive("height", p.Height); err != nil {
			return nil, nil, err
		}
		return k.Box(p.Width, p.Height), nil, nil
	}
}

type rodParams struct {
	Length    float64 `mapstructure:"length"`
	Thickness float64 `mapstructure:"thickness"`
}

func drawRod(k kernel.Kernel, params map[string]any) (kernel.Shape, map[string]v2.Vec, error) {
	p := rodParams{Length: 2, Thickness: 0.1}
	if err := decodeParams(params, &p); err != nil {
		return nil, nil, err
	}
	if err := positive("length", p.Length); err != nil {
		return nil, nil, err
	}
	if err := positive("thickness", p.Thickness); err != nil {
		return nil, nil, err
	}
	return k.Box(p.Length, p.Thickness), map[string]v2.Vec{
		"start": {X: -p.Length / 2},
		"end":   {X: p.Length / 2},
	}, nil
}

type discParams struct {
	Radius float64 `mapstructure:"radius"`
}

func drawDisc(k kernel.Kernel, params map[string]any) (kernel.Shape, map[string]v2.Vec, error) {
	p := discParams{Radius: 0.5}
	if err := decodeParams(params, &p); err != nil {
		return nil, nil, err
	}
	if err := positive("radius", p.Radius); err != nil {
		return nil, nil, err
	}
	return k.Circle(p.Radius), map[string]v2.Vec{
		"rim_top":    {Y: p.Radius},
		"rim_bottom": {Y: -p.Radius},
	}, nil
}

func drawIncline(k kernel.Kernel, params map[string]any) (kernel.Shape, map[string]v2.Vec, error) {
	p := boxParams{Width: 4, Height: 2}
	if err := decodeParams(params, &p); err != nil {
		return nil, nil, err
	}
	if err := positive("width", p.Width); err != nil {
		return nil, nil, err
	}
	if err := positive("height", p.Height); err != nil {
		return nil, nil, err
	}
	w2, h2 := p.Width/2, p.Height/2
	start := v2.Vec{X: -w2, Y: -h2}
	end := v2.Vec{X: w2, Y: h2}
	s := k.Polygon([]v2.Vec{start, {X: w2, Y: -h2}, end})
	return s, map[string]v2.Vec{
		"start":     start,
		"end":       end,
		"slope_mid": start.Add(end).MulScalar(0.5),
	}, nil
}

type arcParams struct {
	Radius    float64 `mapstructure:"radius"`
	StartDeg  float64 `mapstructure:"start_deg"`
	EndDeg    float64 `mapstructure:"end_deg"`
	Thickness float64 `mapstructure:"thickness"`
}

// drawArcTrack draws a curved groove. Its centre anchor is the arc centre,
// not the bounding-box centre.
func drawArcTrack(k kernel.Kernel, params map[string]any) (kernel.Shape, map[string]v2.Vec, error) {
	p := arcParams{Radius: 2, StartDeg: 180, EndDeg: 360, Thickness: 0.1}
	if err := decodeParams(params, &p); err != nil {
		return nil, nil, err
	}
	if err := positive("radius", p.Radius); err != nil {
		return nil, nil, err
	}
	if err := positive("thickness", p.Thickness); err != nil {
		return nil, nil, err
	}
	if p.StartDeg == p.EndDeg {
		return nil, nil, &graph.ArgError{Path: "params", Key: "end_deg", Reason: "must differ from start_deg"}
	}
	on := func(deg float64) v2.Vec {
		return geom.Rotate(v2.Vec{X: p.Radius}, deg)
	}
	return k.Arc(p.Radius, p.StartDeg, p.EndDeg, p.Thickness), map[string]v2.Vec{
		geom.CenterAnchor: {},
		"start":           on(p.StartDeg),
		"end":             on(p.EndDeg),
		"mid":             on((p.StartDeg + p.EndDeg) / 2),
	}, nil
}
