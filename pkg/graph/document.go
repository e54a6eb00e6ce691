package graph

import (
	"fmt"
	"strings"
)

// Document is the raw, author-facing form of a graph as it appears in
// JSON or YAML. Argument bags stay untyped until Decode.
type Document struct {
	Version        string          `json:"version,omitempty" yaml:"version,omitempty"`
	Space          *SpaceDoc       `json:"space,omitempty" yaml:"space,omitempty"`
	Parts          []PartDoc       `json:"parts" yaml:"parts"`
	Tracks         []TrackDoc      `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Constraints    []ConstraintDoc `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Motions        []MotionDoc     `json:"motions,omitempty" yaml:"motions,omitempty"`
	SolverMaxIters int             `json:"solver_max_iters,omitempty" yaml:"solver_max_iters,omitempty"`
	SolverTol      float64         `json:"solver_tolerance,omitempty" yaml:"solver_tolerance,omitempty"`
}

// SpaceDoc is the scene frame section of a document.
type SpaceDoc struct {
	XRange    []float64 `json:"x_range,omitempty" yaml:"x_range,omitempty"`
	YRange    []float64 `json:"y_range,omitempty" yaml:"y_range,omitempty"`
	Unit      string    `json:"unit,omitempty" yaml:"unit,omitempty"`
	AngleUnit string    `json:"angle_unit,omitempty" yaml:"angle_unit,omitempty"`
	Origin    string    `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// PartDoc is one part entry.
type PartDoc struct {
	ID       string         `json:"id" yaml:"id"`
	Type     string         `json:"type" yaml:"type"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	Style    map[string]any `json:"style,omitempty" yaml:"style,omitempty"`
	SeedPose map[string]any `json:"seed_pose,omitempty" yaml:"seed_pose,omitempty"`
}

// TrackDoc is one track entry.
type TrackDoc struct {
	ID   string         `json:"id" yaml:"id"`
	Type string         `json:"type" yaml:"type"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// ConstraintDoc is one constraint entry. A missing hard flag means true.
type ConstraintDoc struct {
	ID   string         `json:"id" yaml:"id"`
	Type string         `json:"type" yaml:"type"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
	Hard *bool          `json:"hard,omitempty" yaml:"hard,omitempty"`
}

// MotionDoc is one motion entry.
type MotionDoc struct {
	ID       string           `json:"id" yaml:"id"`
	Type     string           `json:"type" yaml:"type"`
	Args     map[string]any   `json:"args,omitempty" yaml:"args,omitempty"`
	Timeline []map[string]any `json:"timeline,omitempty" yaml:"timeline,omitempty"`
}

// Decode turns a raw document into a typed graph and checks every
// cross-reference. All problems found are reported together in an
// AggregateError; a partially decoded graph is never returned.
func Decode(doc *Document) (*Graph, error) {
	g := New()
	var errs []error

	if doc.Version != "" {
		g.Version = doc.Version
	}
	space, err := decodeSpace(doc.Space)
	if err != nil {
		errs = append(errs, err...)
	}
	g.Space = space
	g.Solver = SolverHints{MaxIters: doc.SolverMaxIters, Tolerance: doc.SolverTol}
	if doc.SolverMaxIters < 0 {
		errs = append(errs, &ArgError{Key: "solver_max_iters", Reason: "must be >= 0"})
	}
	if doc.SolverTol < 0 {
		errs = append(errs, &ArgError{Key: "solver_tolerance", Reason: "must be >= 0"})
	}

	for i, pd := range doc.Parts {
		path := fmt.Sprintf("parts[%d]", i)
		p, err := DecodePart(pd.ID, pd.Type, pd.Params, pd.Style, pd.SeedPose)
		if err != nil {
			errs = append(errs, stamp(err, path)...)
		}
		g.AddPart(p)
	}
	for i, td := range doc.Tracks {
		path := fmt.Sprintf("tracks[%d]", i)
		if td.ID == "" {
			errs = append(errs, &ArgError{Path: path, Key: "id", Reason: "required"})
		}
		t, err := DecodeTrack(td.ID, td.Type, td.Data)
		if err != nil {
			errs = append(errs, stamp(err, path)...)
		}
		g.AddTrack(t)
	}
	for i, cd := range doc.Constraints {
		path := fmt.Sprintf("constraints[%d]", i)
		if cd.ID == "" {
			errs = append(errs, &ArgError{Path: path, Key: "id", Reason: "required"})
		}
		hard := cd.Hard == nil || *cd.Hard
		c, err := DecodeConstraint(cd.ID, cd.Type, cd.Args, hard)
		if err != nil {
			errs = append(errs, stamp(err, path)...)
		}
		g.AddConstraint(c)
	}
	for i, md := range doc.Motions {
		path := fmt.Sprintf("motions[%d]", i)
		if md.ID == "" {
			errs = append(errs, &ArgError{Path: path, Key: "id", Reason: "required"})
		}
		m, err := DecodeMotion(md.ID, md.Type, md.Args, md.Timeline)
		if err != nil {
			errs = append(errs, stamp(err, path)...)
		}
		g.AddMotion(m)
	}

	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	if err := Check(g); err != nil {
		return nil, err
	}
	return g, nil
}

// DecodePart builds a part from its raw fields.
func DecodePart(id, typ string, params, style, seed map[string]any) (Part, error) {
	var errs []error
	if id == "" {
		errs = append(errs, &ArgError{Key: "id", Reason: "required"})
	}
	if strings.TrimSpace(typ) == "" {
		errs = append(errs, &ArgError{Key: "type", Reason: "required"})
	}
	pose, err := DecodeSeedPose(seed)
	if err != nil {
		for _, e := range Errors(err) {
			errs = append(errs, atPath(e, "seed_pose"))
		}
	}
	p := Part{
		ID:     id,
		Type:   strings.ToLower(strings.TrimSpace(typ)),
		Params: params,
		Style:  style,
		Seed:   pose,
	}
	return p, aggregate(errs)
}

func decodeSpace(sd *SpaceDoc) (Space, []error) {
	s := DefaultSpace()
	if sd == nil {
		return s, nil
	}
	var errs []error
	rng := func(name string, in []float64, out *[2]float64) {
		if in == nil {
			return
		}
		if len(in) != 2 {
			errs = append(errs, &ArgError{Path: "space", Key: name, Reason: "must have exactly two values"})
			return
		}
		if in[0] >= in[1] {
			errs = append(errs, &ArgError{Path: "space", Key: name, Reason: fmt.Sprintf("min must be < max, got [%g, %g]", in[0], in[1])})
			return
		}
		*out = [2]float64{in[0], in[1]}
	}
	rng("x_range", sd.XRange, &s.XRange)
	rng("y_range", sd.YRange, &s.YRange)
	if sd.Unit != "" {
		s.Unit = sd.Unit
	}
	if sd.AngleUnit != "" && sd.AngleUnit != "deg" {
		errs = append(errs, &TypeError{Path: "space", Field: "angle_unit", Value: sd.AngleUnit, Allowed: []string{"deg"}})
	}
	if sd.Origin != "" && sd.Origin != "center" {
		errs = append(errs, &TypeError{Path: "space", Field: "origin", Value: sd.Origin, Allowed: []string{"center"}})
	}
	return s, errs
}

// Encode converts a typed graph back into its document form. Decode of the
// result yields an equivalent graph.
func Encode(g *Graph) *Document {
	doc := &Document{
		Version: g.Version,
		Space: &SpaceDoc{
			XRange:    g.Space.XRange[:],
			YRange:    g.Space.YRange[:],
			Unit:      g.Space.Unit,
			AngleUnit: g.Space.AngleUnit,
			Origin:    g.Space.Origin,
		},
		SolverMaxIters: g.Solver.MaxIters,
		SolverTol:      g.Solver.Tolerance,
	}
	for _, p := range g.Parts {
		doc.Parts = append(doc.Parts, PartDoc{
			ID:     p.ID,
			Type:   p.Type,
			Params: p.Params,
			Style:  p.Style,
			SeedPose: map[string]any{
				"x": p.Seed.X, "y": p.Seed.Y, "theta": p.Seed.Theta,
				"scale": p.Seed.Scale, "z": p.Seed.Z,
			},
		})
	}
	for _, t := range g.Tracks {
		doc.Tracks = append(doc.Tracks, TrackDoc{ID: t.ID, Type: t.Kind().String(), Data: encodeTrack(t.Data)})
	}
	for _, c := range g.Constraints {
		hard := c.Hard
		doc.Constraints = append(doc.Constraints, ConstraintDoc{
			ID:   c.ID,
			Type: c.Kind().String(),
			Args: EncodeArgs(c.Args),
			Hard: &hard,
		})
	}
	for _, m := range g.Motions {
		md := MotionDoc{ID: m.ID, Type: m.Kind().String(), Args: encodeMotion(m.Args)}
		for _, kf := range m.Timeline {
			raw := map[string]any{"t": kf.T}
			for k, v := range kf.Values {
				raw[k] = v
			}
			md.Timeline = append(md.Timeline, raw)
		}
		doc.Motions = append(doc.Motions, md)
	}
	return doc
}

func encodeTrack(d TrackData) map[string]any {
	switch t := d.(type) {
	case SegmentTrack:
		return map[string]any{"space": "world", "x1": t.P1.X, "y1": t.P1.Y, "x2": t.P2.X, "y2": t.P2.Y}
	case LineTrack:
		return map[string]any{"space": "world", "x0": t.Origin.X, "y0": t.Origin.Y, "dx": t.Dir.X, "dy": t.Dir.Y}
	case ArcTrack:
		return map[string]any{"space": "world", "cx": t.Center.X, "cy": t.Center.Y, "r": t.R, "start_deg": t.StartDeg, "end_deg": t.EndDeg}
	case AnchorTrack:
		return map[string]any{"space": t.Frame.String(), "part_id": t.PartID, "anchor_a": t.AnchorA, "anchor_b": t.AnchorB}
	case LocalArcTrack:
		out := map[string]any{
			"space":           "local",
			"part_id":         t.PartID,
			"radius_local":    t.RadiusLocal,
			"start_deg_local": t.StartDegLocal,
			"end_deg_local":   t.EndDegLocal,
		}
		if t.CenterAnchor != "" {
			out["center_anchor"] = t.CenterAnchor
		} else {
			out["cx_local"], out["cy_local"] = t.CenterLocal.X, t.CenterLocal.Y
		}
		return out
	}
	return nil
}

// EncodeArgs returns the canonical argument bag for a constraint.
func EncodeArgs(a ConstraintArgs) map[string]any {
	switch c := a.(type) {
	case Attach:
		return map[string]any{
			"part_a": c.PartA, "anchor_a": c.AnchorA,
			"part_b": c.PartB, "anchor_b": c.AnchorB,
			"mode": c.Mode.String(), "rigid": c.Rigid,
		}
	case OnTrackPose:
		out := map[string]any{
			"part_id": c.PartID, "track_id": c.TrackID, "anchor": c.Anchor, "s": c.S,
			"angle_mode": c.AngleMode.String(), "angle_offset": c.AngleOffset,
			"contact_side": c.ContactSide.String(), "clearance": c.Clearance,
		}
		if c.Angle != nil {
			out["angle"] = *c.Angle
		}
		return out
	case Midpoint:
		out := map[string]any{"part_id": c.PartID, "anchor": c.Anchor}
		for i, p := range c.Points {
			n := i + 1
			if p.IsAnchor() {
				out[fmt.Sprintf("part_%d", n)] = p.PartID
				out[fmt.Sprintf("anchor_%d", n)] = p.Anchor
			} else {
				out[fmt.Sprintf("point_%d", n)] = []float64{p.XY.X, p.XY.Y}
			}
		}
		return out
	case Distance:
		return map[string]any{
			"part_a": c.PartA, "anchor_a": c.AnchorA,
			"part_b": c.PartB, "anchor_b": c.AnchorB,
			"distance": c.Distance, "mode": c.Mode.String(),
		}
	}
	return nil
}

func encodePose(p PoseArgs, out map[string]any) {
	if p.Anchor != nil {
		out["anchor"] = *p.Anchor
	}
	if p.AngleMode != nil {
		out["angle_mode"] = p.AngleMode.String()
	}
	if p.Angle != nil {
		out["angle"] = *p.Angle
	}
	if p.AngleOffset != nil {
		out["angle_offset"] = *p.AngleOffset
	}
	if p.ContactSide != nil {
		out["contact_side"] = p.ContactSide.String()
	}
	if p.Clearance != nil {
		out["clearance"] = *p.Clearance
	}
}

func encodeMotion(a MotionArgs) map[string]any {
	switch m := a.(type) {
	case ConstraintArgMotion:
		return map[string]any{"constraint_id": m.ConstraintID, "arg": m.Arg, "param_key": m.ParamKey}
	case OnTrackMotion:
		out := map[string]any{"part_id": m.PartID, "track_id": m.TrackID, "param_key": m.ParamKey}
		encodePose(m.Pose, out)
		return out
	case ScheduleMotion:
		out := map[string]any{"part_id": m.PartID, "param_key": m.ParamKey}
		encodePose(m.Pose, out)
		segs := make([]any, 0, len(m.Segments))
		for _, s := range m.Segments {
			seg := map[string]any{"track_id": s.TrackID, "u0": s.U0, "u1": s.U1, "s0": s.S0, "s1": s.S1}
			encodePose(s.Pose, seg)
			segs = append(segs, seg)
		}
		out["segments"] = segs
		return out
	}
	return nil
}

// stamp flattens err and gives each member the document path prefix.
func stamp(err error, path string) []error {
	var out []error
	for _, e := range Errors(err) {
		out = append(out, prefix(e, path))
	}
	return out
}

// prefix joins path in front of any path the error already carries.
func prefix(err error, path string) error {
	switch e := err.(type) {
	case *TypeError:
		e.Path = joinPath(path, e.Path)
	case *ArgError:
		e.Path = joinPath(path, e.Path)
	case *ReferenceError:
		e.Path = joinPath(path, e.Path)
	default:
		return fmt.Errorf("%s: %w", path, err)
	}
	return err
}

func joinPath(outer, inner string) string {
	switch {
	case inner == "":
		return outer
	case strings.HasPrefix(inner, "["):
		return outer + inner
	}
	return outer + "." + inner
}
