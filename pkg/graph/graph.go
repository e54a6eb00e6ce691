package graph

import (
	"github.com/chazu/jig/pkg/geom"
)

// Version is the document version this package writes and expects.
const Version = "0.1"

// DefaultTrackAnchor is the anchor on_track_pose pins when none is named.
const DefaultTrackAnchor = "bottom_center"

// Space describes the scene coordinate frame the graph is authored in.
type Space struct {
	XRange    [2]float64
	YRange    [2]float64
	Unit      string
	AngleUnit string
	Origin    string
}

// DefaultSpace returns the standard 20×12 scene frame centred on the origin.
func DefaultSpace() Space {
	return Space{
		XRange:    [2]float64{-10, 10},
		YRange:    [2]float64{-6, 6},
		Unit:      "scene_unit",
		AngleUnit: "deg",
		Origin:    "center",
	}
}

// Part is a named shape instance with its seed pose.
type Part struct {
	ID     string
	Type   string
	Params map[string]any
	Style  map[string]any
	Seed   geom.Pose
}

// Track is a named curve parts can be pinned to.
type Track struct {
	ID   string
	Data TrackData
}

// Kind returns the track's world shape.
func (t Track) Kind() TrackKind { return t.Data.Kind() }

// IsLocal reports whether the track must be baked before solving.
func (t Track) IsLocal() bool {
	switch d := t.Data.(type) {
	case AnchorTrack:
		return d.Frame == FrameLocal
	case LocalArcTrack:
		return true
	}
	return false
}

// PartRef returns the id of the part the track is defined on, if any.
func (t Track) PartRef() string {
	switch d := t.Data.(type) {
	case AnchorTrack:
		return d.PartID
	case LocalArcTrack:
		return d.PartID
	}
	return ""
}

// Constraint is one relationship between parts. Hard constraints decide
// whether a solve converged; soft ones are reported only.
type Constraint struct {
	ID   string
	Hard bool
	Args ConstraintArgs
}

// Kind returns the constraint type.
func (c Constraint) Kind() ConstraintKind { return c.Args.Kind() }

// Motion is a keyframed timeline plus the arguments saying what it drives.
type Motion struct {
	ID       string
	Args     MotionArgs
	Timeline []Keyframe
}

// Kind returns the motion type.
func (m Motion) Kind() MotionKind { return m.Args.Kind() }

// SolverHints carries per-document solver settings. Zero values mean unset.
type SolverHints struct {
	MaxIters  int
	Tolerance float64
}

// Graph is a decoded composite graph. Slices keep declaration order, which
// is also the order constraints are applied in.
type Graph struct {
	Version     string
	Space       Space
	Parts       []Part
	Tracks      []Track
	Constraints []Constraint
	Motions     []Motion
	Solver      SolverHints
}

// New creates an empty graph with the default space.
func New() *Graph {
	return &Graph{
		Version: Version,
		Space:   DefaultSpace(),
	}
}

// AddPart appends a part. It does not check for duplicates.
func (g *Graph) AddPart(p Part) {
	g.Parts = append(g.Parts, p)
}

// AddTrack appends a track. It does not check for duplicates.
func (g *Graph) AddTrack(t Track) {
	g.Tracks = append(g.Tracks, t)
}

// AddConstraint appends a constraint. It does not check for duplicates.
func (g *Graph) AddConstraint(c Constraint) {
	g.Constraints = append(g.Constraints, c)
}

// AddMotion appends a motion. It does not check for duplicates.
func (g *Graph) AddMotion(m Motion) {
	g.Motions = append(g.Motions, m)
}

// Part returns the part with the given id, or nil.
func (g *Graph) Part(id string) *Part {
	for i := range g.Parts {
		if g.Parts[i].ID == id {
			return &g.Parts[i]
		}
	}
	return nil
}

// Track returns the track with the given id, or nil.
func (g *Graph) Track(id string) *Track {
	for i := range g.Tracks {
		if g.Tracks[i].ID == id {
			return &g.Tracks[i]
		}
	}
	return nil
}

// Constraint returns the constraint with the given id, or nil.
func (g *Graph) Constraint(id string) *Constraint {
	for i := range g.Constraints {
		if g.Constraints[i].ID == id {
			return &g.Constraints[i]
		}
	}
	return nil
}

// PartIDs returns part ids in declaration order.
func (g *Graph) PartIDs() []string {
	ids := make([]string, len(g.Parts))
	for i, p := range g.Parts {
		ids[i] = p.ID
	}
	return ids
}

// ConstraintIDs returns constraint ids in declaration order.
func (g *Graph) ConstraintIDs() []string {
	ids := make([]string, len(g.Constraints))
	for i, c := range g.Constraints {
		ids[i] = c.ID
	}
	return ids
}

// TrackIDs returns track ids in declaration order.
func (g *Graph) TrackIDs() []string {
	ids := make([]string, len(g.Tracks))
	for i, t := range g.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// SeedPoses returns a fresh copy of every part's seed pose.
func (g *Graph) SeedPoses() map[string]geom.Pose {
	poses := make(map[string]geom.Pose, len(g.Parts))
	for _, p := range g.Parts {
		poses[p.ID] = p.Seed
	}
	return poses
}

// HasLocalTracks reports whether any track needs baking.
func (g *Graph) HasLocalTracks() bool {
	for _, t := range g.Tracks {
		if t.IsLocal() {
			return true
		}
	}
	return false
}

// NodeCount returns the total number of parts, tracks, constraints and motions.
func (g *Graph) NodeCount() int {
	return len(g.Parts) + len(g.Tracks) + len(g.Constraints) + len(g.Motions)
}

// Clone returns a copy whose slices can be modified without touching g.
// Part params and motion timelines are shared; they are read-only.
func (g *Graph) Clone() *Graph {
	c := *g
	c.Parts = append([]Part(nil), g.Parts...)
	c.Tracks = append([]Track(nil), g.Tracks...)
	c.Constraints = append([]Constraint(nil), g.Constraints...)
	c.Motions = append([]Motion(nil), g.Motions...)
	return &c
}

// Without returns a copy of g with every constraint of the given kind removed.
func (g *Graph) Without(kind ConstraintKind) *Graph {
	c := g.Clone()
	c.Constraints = c.Constraints[:0]
	for _, con := range g.Constraints {
		if con.Kind() != kind {
			c.Constraints = append(c.Constraints, con)
		}
	}
	return c
}
