// Package render draws tessellated frames to PNG images with gogpu/gg.
// The scene's space ranges are fitted to the image, y pointing up.
package render

import (
	"fmt"
	"io"
	"log/slog"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/gogpu/gg"

	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/tessellate"
)

// palette assigns distinct colors to parts without a fill style.
var palette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// ColorFor returns the palette color for the i-th part.
func ColorFor(i int) string {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// PartColors maps every part id to its fill: the part's "fill" style when
// set, otherwise the palette color for its declaration index.
func PartColors(g *graph.Graph) map[string]string {
	colors := make(map[string]string, len(g.Parts))
	for i, p := range g.Parts {
		if fill, ok := p.Style["fill"].(string); ok && fill != "" {
			colors[p.ID] = fill
			continue
		}
		colors[p.ID] = ColorFor(i)
	}
	return colors
}

// SetLogger routes gg's internal diagnostics to l. A nil logger silences
// them.
func SetLogger(l *slog.Logger) {
	gg.SetLogger(l)
}

// Options controls image size and styling.
type Options struct {
	Width       int     `json:"width" yaml:"width"`
	Height      int     `json:"height" yaml:"height"`
	Margin      float64 `json:"margin" yaml:"margin"` // pixels kept clear on every side
	Background  string  `json:"background" yaml:"background"`
	Outline     string  `json:"outline" yaml:"outline"`
	TrackColor  string  `json:"track_color" yaml:"track_color"`
	StrokeWidth float64 `json:"stroke_width" yaml:"stroke_width"`
}

// DefaultOptions returns an 800x600 light-background preview.
func DefaultOptions() Options {
	return Options{
		Width:       800,
		Height:      600,
		Margin:      16,
		Background:  "#FAFAFA",
		Outline:     "#333333",
		TrackColor:  "#9E9E9E",
		StrokeWidth: 1.5,
	}
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("render: image size must be positive, got %dx%d", o.Width, o.Height)
	}
	if 2*o.Margin >= float64(o.Width) || 2*o.Margin >= float64(o.Height) {
		return fmt.Errorf("render: margin %g leaves no room in a %dx%d image", o.Margin, o.Width, o.Height)
	}
	return nil
}

// Viewport maps scene coordinates to pixels. The space is scaled
// uniformly to fit inside the margins and centred.
type Viewport struct {
	scale  float64
	origin v2.Vec // pixel position of scene (xmin, ymin)
	height float64
}

// NewViewport fits space into a w x h image.
func NewViewport(space graph.Space, w, h int, margin float64) Viewport {
	dx := space.XRange[1] - space.XRange[0]
	dy := space.YRange[1] - space.YRange[0]
	aw, ah := float64(w)-2*margin, float64(h)-2*margin
	s := min(aw/dx, ah/dy)
	return Viewport{
		scale: s,
		origin: v2.Vec{
			X: margin + (aw-dx*s)/2 - space.XRange[0]*s,
			Y: margin + (ah-dy*s)/2 - space.YRange[0]*s,
		},
		height: float64(h),
	}
}

// ToPixel converts a scene point to image coordinates.
func (v Viewport) ToPixel(p v2.Vec) (x, y float64) {
	return v.origin.X + p.X*v.scale, v.height - (v.origin.Y + p.Y*v.scale)
}

// Renderer draws frames with fixed options.
type Renderer struct {
	opts Options
}

// New returns a renderer. Zero-valued options are invalid; start from
// DefaultOptions.
func New(opts Options) (*Renderer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Renderer{opts: opts}, nil
}

// Draw paints f into a new context. The caller closes it.
func (r *Renderer) Draw(g *graph.Graph, f *tessellate.Frame) (*gg.Context, error) {
	o := r.opts
	dc := gg.NewContext(o.Width, o.Height)
	dc.ClearWithColor(gg.Hex(o.Background))
	vp := NewViewport(g.Space, o.Width, o.Height, o.Margin)

	dc.SetLineWidth(o.StrokeWidth)
	dc.SetHexColor(o.TrackColor)
	for _, tr := range f.Tracks {
		if len(tr.Points) < 2 {
			continue
		}
		polyline(dc, vp, tr.Points, false)
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("render: track %q: %w", tr.TrackID, err)
		}
	}

	colors := PartColors(g)
	dc.SetFillRule(gg.FillRuleEvenOdd)
	for _, out := range f.Parts {
		if out.IsEmpty() {
			continue
		}
		for _, loop := range out.Loops {
			polyline(dc, vp, loop, true)
		}
		dc.SetHexColor(colors[out.PartName])
		if err := dc.FillPreserve(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("render: part %q: %w", out.PartName, err)
		}
		dc.SetHexColor(o.Outline)
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("render: part %q: %w", out.PartName, err)
		}
	}
	return dc, nil
}

// WritePNG draws f and encodes it as PNG to w.
func (r *Renderer) WritePNG(w io.Writer, g *graph.Graph, f *tessellate.Frame) error {
	dc, err := r.Draw(g, f)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

// SavePNG draws f and writes it to path.
func (r *Renderer) SavePNG(path string, g *graph.Graph, f *tessellate.Frame) error {
	dc, err := r.Draw(g, f)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.SavePNG(path)
}

func polyline(dc *gg.Context, vp Viewport, pts []v2.Vec, closed bool) {
	for i, p := range pts {
		x, y := vp.ToPixel(p)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	if closed {
		dc.ClosePath()
	}
}
