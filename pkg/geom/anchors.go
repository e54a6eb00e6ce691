package geom

import (
	"fmt"
	"sort"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// CenterAnchor is the fallback anchor every part geometry carries.
const CenterAnchor = "center"

// PartGeometry is a part's named-anchor table in its local, unrotated,
// unscaled frame. Anchor names are stored lower-cased.
type PartGeometry struct {
	PartID  string
	Anchors map[string]v2.Vec
}

// NewPartGeometry builds a geometry from an anchor table. Names are trimmed
// and lower-cased; "center" is added at the origin when missing.
func NewPartGeometry(partID string, anchors map[string]v2.Vec) PartGeometry {
	table := make(map[string]v2.Vec, len(anchors)+1)
	for name, offset := range anchors {
		table[AnchorKey(name)] = offset
	}
	if _, ok := table[CenterAnchor]; !ok {
		table[CenterAnchor] = v2.Vec{}
	}
	return PartGeometry{PartID: partID, Anchors: table}
}

// AnchorKey normalizes an anchor name. The empty name means "center".
func AnchorKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return CenterAnchor
	}
	return key
}

// Anchor returns the local offset of the named anchor.
func (g PartGeometry) Anchor(name string) (v2.Vec, error) {
	key := AnchorKey(name)
	if v, ok := g.Anchors[key]; ok {
		return v, nil
	}
	return v2.Vec{}, &UnknownAnchorError{PartID: g.PartID, Anchor: key, Available: g.Names()}
}

// Has reports whether the named anchor exists.
func (g PartGeometry) Has(name string) bool {
	_, ok := g.Anchors[AnchorKey(name)]
	return ok
}

// Names returns the anchor names in sorted order.
func (g PartGeometry) Names() []string {
	names := make([]string, 0, len(g.Anchors))
	for name := range g.Anchors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownAnchorError is returned when an anchor name is not in a part's table.
type UnknownAnchorError struct {
	PartID    string
	Anchor    string
	Available []string
}

func (e *UnknownAnchorError) Error() string {
	return fmt.Sprintf("unknown anchor %q for part %q (available: %s)",
		e.Anchor, e.PartID, strings.Join(e.Available, ", "))
}

// Geometries maps part id to its anchor table.
type Geometries map[string]PartGeometry

// World resolves a part's anchor to a world point under pose p.
func (gs Geometries) World(partID, anchor string, p Pose) (v2.Vec, error) {
	g, ok := gs[partID]
	if !ok {
		return v2.Vec{}, fmt.Errorf("no geometry for part %q", partID)
	}
	local, err := g.Anchor(anchor)
	if err != nil {
		return v2.Vec{}, err
	}
	return AnchorWorld(p, local), nil
}

// DefaultAnchors returns the bounding-box anchor table for a w×h part
// centred on its origin.
func DefaultAnchors(w, h float64) map[string]v2.Vec {
	return AnchorsFromBox(v2.Vec{X: -w / 2, Y: -h / 2}, v2.Vec{X: w / 2, Y: h / 2})
}

// AnchorsFromBox returns the nine bounding-box anchors of the box spanning
// min to max. "center" is the box centre.
func AnchorsFromBox(min, max v2.Vec) map[string]v2.Vec {
	cx, cy := (min.X+max.X)/2, (min.Y+max.Y)/2
	return map[string]v2.Vec{
		"center":        {X: cx, Y: cy},
		"bottom_center": {X: cx, Y: min.Y},
		"top_center":    {X: cx, Y: max.Y},
		"left_center":   {X: min.X, Y: cy},
		"right_center":  {X: max.X, Y: cy},
		"bottom_left":   {X: min.X, Y: min.Y},
		"bottom_right":  {X: max.X, Y: min.Y},
		"top_left":      {X: min.X, Y: max.Y},
		"top_right":     {X: max.X, Y: max.Y},
	}
}
