package graph

import (
	"fmt"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/jig/pkg/geom"
)

// ---------------------------------------------------------------------------
// Constraints
// ---------------------------------------------------------------------------

var attachKeys = []argKey{
	key("part_a", "part_a", "from_part_id", "source_part_id", "part_id"),
	key("part_b", "part_b", "to_part_id", "target_part_id"),
	key("anchor_a", "anchor_a", "from_anchor", "anchor"),
	key("anchor_b", "anchor_b", "to_anchor"),
	key("mode"),
	key("rigid"),
}

type attachDoc struct {
	PartA   string `mapstructure:"part_a"`
	PartB   string `mapstructure:"part_b"`
	AnchorA string `mapstructure:"anchor_a"`
	AnchorB string `mapstructure:"anchor_b"`
	Mode    string `mapstructure:"mode"`
	Rigid   bool   `mapstructure:"rigid"`
}

// poseKeys are the on_track_pose settings shared with track motions.
var poseKeys = []argKey{
	key("anchor"),
	key("angle_mode", "angle_mode", "theta_mode", "orient"),
	key("angle"),
	key("angle_offset"),
	key("contact_side"),
	key("clearance"),
}

var onTrackPoseKeys = append([]argKey{
	key("part_id"),
	key("track_id"),
	key("s", "t", "s"),
}, poseKeys...)

type poseDoc struct {
	Anchor      *string  `mapstructure:"anchor"`
	AngleMode   *string  `mapstructure:"angle_mode"`
	Angle       *float64 `mapstructure:"angle"`
	AngleOffset *float64 `mapstructure:"angle_offset"`
	ContactSide *string  `mapstructure:"contact_side"`
	Clearance   *float64 `mapstructure:"clearance"`
}

type onTrackPoseDoc struct {
	PartID  string  `mapstructure:"part_id"`
	TrackID string  `mapstructure:"track_id"`
	S       float64 `mapstructure:"s"`
	poseDoc `mapstructure:",squash"`
}

var midpointKeys = []argKey{
	key("part_id"),
	key("anchor"),
	key("point_1"), key("part_1"), key("anchor_1"), key("x1"), key("y1"),
	key("point_2"), key("part_2"), key("anchor_2"), key("x2"), key("y2"),
}

type midpointDoc struct {
	PartID  string    `mapstructure:"part_id"`
	Anchor  string    `mapstructure:"anchor"`
	Point1  []float64 `mapstructure:"point_1"`
	Part1   string    `mapstructure:"part_1"`
	Anchor1 string    `mapstructure:"anchor_1"`
	X1      *float64  `mapstructure:"x1"`
	Y1      *float64  `mapstructure:"y1"`
	Point2  []float64 `mapstructure:"point_2"`
	Part2   string    `mapstructure:"part_2"`
	Anchor2 string    `mapstructure:"anchor_2"`
	X2      *float64  `mapstructure:"x2"`
	Y2      *float64  `mapstructure:"y2"`
}

var distanceKeys = []argKey{
	key("part_a"),
	key("part_b"),
	key("anchor_a"),
	key("anchor_b"),
	key("distance", "d", "distance"),
	key("mode"),
}

type distanceDoc struct {
	PartA    string  `mapstructure:"part_a"`
	PartB    string  `mapstructure:"part_b"`
	AnchorA  string  `mapstructure:"anchor_a"`
	AnchorB  string  `mapstructure:"anchor_b"`
	Distance float64 `mapstructure:"distance"`
	Mode     string  `mapstructure:"mode"`
}

// DecodeConstraint builds a typed constraint from its type string and raw
// argument bag. Every problem found is returned, joined in an
// AggregateError when there is more than one.
func DecodeConstraint(id, typ string, args map[string]any, hard bool) (Constraint, error) {
	c := Constraint{ID: id, Hard: hard}
	kind, err := ParseConstraintKind(typ)
	if err != nil {
		return c, err
	}
	switch kind {
	case ConstraintAttach:
		c.Args, err = decodeAttach(args)
	case ConstraintOnTrackPose:
		c.Args, err = decodeOnTrackPose(args)
	case ConstraintMidpoint:
		c.Args, err = decodeMidpoint(args)
	case ConstraintDistance:
		c.Args, err = decodeDistance(args)
	}
	if err != nil {
		return c, aggregate(stamp(err, "args"))
	}
	return c, nil
}

func decodeAttach(raw map[string]any) (ConstraintArgs, error) {
	m, errs := normalizeArgs(raw, attachKeys)
	errs = append(errs, required(m, "part_a", "part_b")...)
	var d attachDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	a := Attach{
		PartA:   d.PartA,
		PartB:   d.PartB,
		AnchorA: orDefault(d.AnchorA, geom.CenterAnchor),
		AnchorB: orDefault(d.AnchorB, geom.CenterAnchor),
		Mode:    ModeAToB,
		Rigid:   d.Rigid,
	}
	if d.Mode != "" {
		mode, err := ParseMode(d.Mode)
		if err != nil {
			errs = append(errs, err)
		}
		a.Mode = mode
	}
	return a, aggregate(errs)
}

func decodeOnTrackPose(raw map[string]any) (ConstraintArgs, error) {
	m, errs := normalizeArgs(raw, onTrackPoseKeys)
	errs = append(errs, required(m, "part_id", "track_id")...)
	var d onTrackPoseDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	pose, perrs := d.poseDoc.decode()
	errs = append(errs, perrs...)
	return pose.OnTrackPose(d.PartID, d.TrackID, d.S), aggregate(errs)
}

func (d poseDoc) decode() (PoseArgs, []error) {
	var errs []error
	p := PoseArgs{
		Anchor:      d.Anchor,
		Angle:       d.Angle,
		AngleOffset: d.AngleOffset,
		Clearance:   d.Clearance,
	}
	if d.AngleMode != nil {
		mode, err := ParseAngleMode(*d.AngleMode)
		if err != nil {
			errs = append(errs, err)
		}
		p.AngleMode = &mode
	}
	if d.ContactSide != nil {
		side, err := ParseContactSide(*d.ContactSide)
		if err != nil {
			errs = append(errs, err)
		}
		p.ContactSide = &side
	}
	if d.Clearance != nil && *d.Clearance < 0 {
		errs = append(errs, &ArgError{Key: "clearance", Reason: fmt.Sprintf("must be >= 0, got %g", *d.Clearance)})
	}
	return p, errs
}

func decodeMidpoint(raw map[string]any) (ConstraintArgs, error) {
	m, errs := normalizeArgs(raw, midpointKeys)
	errs = append(errs, required(m, "part_id")...)
	var d midpointDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	p1, err := pointRef(1, d.Point1, d.Part1, d.Anchor1, d.X1, d.Y1)
	if err != nil {
		errs = append(errs, err)
	}
	p2, err := pointRef(2, d.Point2, d.Part2, d.Anchor2, d.X2, d.Y2)
	if err != nil {
		errs = append(errs, err)
	}
	mp := Midpoint{
		PartID: d.PartID,
		Anchor: orDefault(d.Anchor, geom.CenterAnchor),
		Points: [2]PointRef{p1, p2},
	}
	return mp, aggregate(errs)
}

// pointRef resolves midpoint input i: a literal point, else a part anchor,
// else explicit x/y coordinates.
func pointRef(i int, literal []float64, partID, anchor string, x, y *float64) (PointRef, error) {
	switch {
	case len(literal) >= 2:
		return PointRef{XY: v2.Vec{X: literal[0], Y: literal[1]}}, nil
	case len(literal) > 0:
		return PointRef{}, &ArgError{Key: fmt.Sprintf("point_%d", i), Reason: "needs two coordinates"}
	case partID != "":
		return PointRef{PartID: partID, Anchor: orDefault(anchor, geom.CenterAnchor)}, nil
	case x != nil && y != nil:
		return PointRef{XY: v2.Vec{X: *x, Y: *y}}, nil
	}
	return PointRef{}, &ArgError{
		Key:    fmt.Sprintf("point_%d", i),
		Reason: fmt.Sprintf("cannot resolve point_%d (give point_%d, part_%d or x%d/y%d)", i, i, i, i, i),
	}
}

func decodeDistance(raw map[string]any) (ConstraintArgs, error) {
	m, errs := normalizeArgs(raw, distanceKeys)
	errs = append(errs, required(m, "part_a", "part_b", "distance")...)
	var d distanceDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	if d.Distance < 0 {
		errs = append(errs, &ArgError{Key: "distance", Reason: fmt.Sprintf("must be >= 0, got %g", d.Distance)})
	}
	dist := NewDistance(d.PartA, orDefault(d.AnchorA, geom.CenterAnchor),
		d.PartB, orDefault(d.AnchorB, geom.CenterAnchor), d.Distance)
	if d.Mode != "" {
		mode, err := ParseMode(d.Mode)
		if err != nil {
			errs = append(errs, err)
		}
		dist.Mode = mode
	}
	return dist, aggregate(errs)
}

// ---------------------------------------------------------------------------
// Tracks
// ---------------------------------------------------------------------------

// legacyLocalPointKeys were replaced by anchor references on local tracks.
var legacyLocalPointKeys = []string{"p1_local", "p2_local", "x1_local", "y1_local", "x2_local", "y2_local"}

// worldArcKeys may not appear on a local arc.
var worldArcKeys = []string{"center", "center_local", "cx", "cy", "radius", "r", "start_deg", "end_deg", "start_angle", "end_angle"}

var segmentKeys = []argKey{
	key("space"),
	key("x1"), key("y1"), key("x2"), key("y2"),
	key("part_id"),
	key("anchor_a", "anchor_a", "a1"),
	key("anchor_b", "anchor_b", "a2"),
}

var lineKeys = append([]argKey{
	key("x0"), key("y0"), key("dx"), key("dy"),
}, segmentKeys...)

type lineDoc struct {
	Space   string   `mapstructure:"space"`
	X1      *float64 `mapstructure:"x1"`
	Y1      *float64 `mapstructure:"y1"`
	X2      *float64 `mapstructure:"x2"`
	Y2      *float64 `mapstructure:"y2"`
	X0      *float64 `mapstructure:"x0"`
	Y0      *float64 `mapstructure:"y0"`
	DX      *float64 `mapstructure:"dx"`
	DY      *float64 `mapstructure:"dy"`
	PartID  string   `mapstructure:"part_id"`
	AnchorA string   `mapstructure:"anchor_a"`
	AnchorB string   `mapstructure:"anchor_b"`
}

var worldArcDocKeys = []argKey{
	key("space"),
	key("cx"), key("cy"),
	key("r", "r", "radius"),
	key("start_deg"), key("end_deg"),
}

type arcDoc struct {
	Space    string   `mapstructure:"space"`
	CX       float64  `mapstructure:"cx"`
	CY       float64  `mapstructure:"cy"`
	R        *float64 `mapstructure:"r"`
	StartDeg *float64 `mapstructure:"start_deg"`
	EndDeg   *float64 `mapstructure:"end_deg"`
}

var localArcKeys = []argKey{
	key("space"),
	key("part_id"),
	key("center_anchor"),
	key("cx_local"), key("cy_local"),
	key("radius_local", "radius_local", "r_local"),
	key("start_deg_local"), key("end_deg_local"),
	key("start_angle_local"), key("end_angle_local"),
}

type localArcDoc struct {
	Space           string   `mapstructure:"space"`
	PartID          string   `mapstructure:"part_id"`
	CenterAnchor    string   `mapstructure:"center_anchor"`
	CXLocal         *float64 `mapstructure:"cx_local"`
	CYLocal         *float64 `mapstructure:"cy_local"`
	RadiusLocal     *float64 `mapstructure:"radius_local"`
	StartDegLocal   *float64 `mapstructure:"start_deg_local"`
	EndDegLocal     *float64 `mapstructure:"end_deg_local"`
	StartAngleLocal *float64 `mapstructure:"start_angle_local"`
	EndAngleLocal   *float64 `mapstructure:"end_angle_local"`
}

// DecodeTrack builds a typed track from its type string and raw data bag.
//
// The frame comes from data.space when given. Otherwise a track that names
// a part_id and carries no world coordinates is local, and anything else is
// world. A world segment or line with a part_id follows that part's anchors
// during solving.
func DecodeTrack(id, typ string, data map[string]any) (Track, error) {
	t := Track{ID: id}
	kind, err := ParseTrackKind(typ)
	if err != nil {
		return t, err
	}
	frame, err := trackFrame(kind, data)
	if err != nil {
		return t, atPath(err, "data")
	}
	switch {
	case kind == TrackArc && frame == FrameLocal:
		t.Data, err = decodeLocalArc(data)
	case kind == TrackArc:
		t.Data, err = decodeWorldArc(data)
	default:
		t.Data, err = decodeLineLike(kind, frame, data)
	}
	if err != nil {
		return t, aggregate(stamp(err, "data"))
	}
	return t, nil
}

func trackFrame(kind TrackKind, data map[string]any) (Frame, error) {
	if s, ok := data["space"].(string); ok && s != "" {
		return ParseFrame(s)
	}
	if !has(data, "part_id") {
		return FrameWorld, nil
	}
	if kind == TrackArc && !has(data, "cx", "cy", "r", "radius") {
		return FrameLocal, nil
	}
	if kind != TrackArc && !has(data, "x1", "y1", "x2", "y2", "x0", "y0", "dx", "dy") {
		return FrameLocal, nil
	}
	return FrameWorld, nil
}

func decodeLineLike(kind TrackKind, frame Frame, raw map[string]any) (TrackData, error) {
	var errs []error
	if frame == FrameLocal {
		for _, k := range legacyLocalPointKeys {
			if has(raw, k) {
				errs = append(errs, &ArgError{Key: k, Reason: "local line/segment tracks take anchor_a/anchor_b, not local points"})
			}
		}
		if len(errs) > 0 {
			return nil, aggregate(errs)
		}
	}

	keys := segmentKeys
	if kind == TrackLine {
		keys = lineKeys
	}
	m, errs := normalizeArgs(raw, keys)
	var d lineDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}

	if d.PartID != "" {
		at := AnchorTrack{
			Form:    kind,
			Frame:   frame,
			PartID:  d.PartID,
			AnchorA: d.AnchorA,
			AnchorB: d.AnchorB,
		}
		if frame == FrameLocal {
			errs = append(errs, required(m, "anchor_a", "anchor_b")...)
		} else {
			at.AnchorA = orDefault(at.AnchorA, "start")
			at.AnchorB = orDefault(at.AnchorB, "end")
		}
		return at, aggregate(errs)
	}
	if frame == FrameLocal {
		errs = append(errs, &ArgError{Key: "part_id", Reason: "required for local tracks"})
		return nil, aggregate(errs)
	}

	if kind == TrackSegment {
		seg := SegmentTrack{
			P1: v2.Vec{X: val(d.X1, 0), Y: val(d.Y1, 0)},
			P2: v2.Vec{X: val(d.X2, 1), Y: val(d.Y2, 0)},
		}
		return seg, aggregate(errs)
	}

	if d.X1 != nil && d.Y1 != nil && d.X2 != nil && d.Y2 != nil {
		p1 := v2.Vec{X: *d.X1, Y: *d.Y1}
		p2 := v2.Vec{X: *d.X2, Y: *d.Y2}
		return LineTrack{Origin: p1, Dir: p2.Sub(p1)}, aggregate(errs)
	}
	line := LineTrack{
		Origin: v2.Vec{X: val(d.X0, 0), Y: val(d.Y0, 0)},
		Dir:    v2.Vec{X: val(d.DX, 1), Y: val(d.DY, 0)},
	}
	return line, aggregate(errs)
}

func decodeWorldArc(raw map[string]any) (TrackData, error) {
	m, errs := normalizeArgs(raw, worldArcDocKeys)
	var d arcDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	arc := ArcTrack{
		Center:   v2.Vec{X: d.CX, Y: d.CY},
		R:        val(d.R, 1),
		StartDeg: val(d.StartDeg, 0),
		EndDeg:   val(d.EndDeg, 180),
	}
	return arc, aggregate(errs)
}

func decodeLocalArc(raw map[string]any) (TrackData, error) {
	var errs []error
	for _, k := range worldArcKeys {
		if has(raw, k) {
			errs = append(errs, &ArgError{Key: k, Reason: "local arc tracks take center_anchor or cx_local/cy_local, radius_local and local angles"})
		}
	}
	if len(errs) > 0 {
		return nil, aggregate(errs)
	}

	m, errs := normalizeArgs(raw, localArcKeys)
	errs = append(errs, required(m, "part_id")...)
	var d localArcDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}

	arc := LocalArcTrack{PartID: d.PartID, CenterAnchor: d.CenterAnchor}
	if d.CenterAnchor == "" {
		if d.CXLocal == nil || d.CYLocal == nil {
			errs = append(errs, &ArgError{Key: "center_anchor", Reason: "local arc needs center_anchor or cx_local+cy_local"})
		} else {
			arc.CenterLocal = v2.Vec{X: *d.CXLocal, Y: *d.CYLocal}
		}
	}
	if d.RadiusLocal == nil {
		errs = append(errs, &ArgError{Key: "radius_local", Reason: "local arc needs radius_local or r_local"})
	} else {
		arc.RadiusLocal = *d.RadiusLocal
	}
	switch {
	case d.StartDegLocal != nil && d.EndDegLocal != nil:
		arc.StartDegLocal, arc.EndDegLocal = *d.StartDegLocal, *d.EndDegLocal
	case d.StartAngleLocal != nil && d.EndAngleLocal != nil:
		arc.StartDegLocal, arc.EndDegLocal = *d.StartAngleLocal, *d.EndAngleLocal
	default:
		errs = append(errs, &ArgError{Key: "start_deg_local", Reason: "local arc needs start/end local angles"})
	}
	return arc, aggregate(errs)
}

// ---------------------------------------------------------------------------
// Motions
// ---------------------------------------------------------------------------

var constraintArgMotionKeys = []argKey{
	key("constraint_id"),
	key("arg"),
	key("param_key"),
}

type constraintArgMotionDoc struct {
	ConstraintID string `mapstructure:"constraint_id"`
	Arg          string `mapstructure:"arg"`
	ParamKey     string `mapstructure:"param_key"`
}

var onTrackMotionKeys = append([]argKey{
	key("part_id"),
	key("track_id"),
	key("param_key"),
}, poseKeys...)

type onTrackMotionDoc struct {
	PartID   string `mapstructure:"part_id"`
	TrackID  string `mapstructure:"track_id"`
	ParamKey string `mapstructure:"param_key"`
	poseDoc  `mapstructure:",squash"`
}

var scheduleMotionKeys = append([]argKey{
	key("part_id"),
	key("param_key"),
	key("segments"),
}, poseKeys...)

type scheduleMotionDoc struct {
	PartID   string           `mapstructure:"part_id"`
	ParamKey string           `mapstructure:"param_key"`
	Segments []map[string]any `mapstructure:"segments"`
	poseDoc  `mapstructure:",squash"`
}

var scheduleSegmentKeys = append([]argKey{
	key("track_id"),
	key("u0", "u0", "from_u"),
	key("u1", "u1", "to_u"),
	key("s0", "s0", "from_s"),
	key("s1", "s1", "to_s"),
}, poseKeys...)

type scheduleSegmentDoc struct {
	TrackID string   `mapstructure:"track_id"`
	U0      float64  `mapstructure:"u0"`
	U1      *float64 `mapstructure:"u1"`
	S0      float64  `mapstructure:"s0"`
	S1      *float64 `mapstructure:"s1"`
	poseDoc `mapstructure:",squash"`
}

// Constraint arguments a constraint_arg motion may drive, per kind.
var drivableArgs = map[ConstraintKind][]string{
	ConstraintOnTrackPose: {"s", "clearance", "angle", "angle_offset"},
	ConstraintDistance:    {"distance"},
}

// DrivableArgs lists the argument names a motion may drive on a kind.
func DrivableArgs(kind ConstraintKind) []string {
	return drivableArgs[kind]
}

// DecodeMotion builds a typed motion from its type string, raw argument
// bag and raw keyframes.
func DecodeMotion(id, typ string, args map[string]any, timeline []map[string]any) (Motion, error) {
	mo := Motion{ID: id}
	kind, err := ParseMotionKind(typ)
	if err != nil {
		return mo, err
	}
	var argErrs []error
	switch kind {
	case MotionConstraintArg:
		mo.Args, argErrs = decodeConstraintArgMotion(args)
	case MotionOnTrack:
		mo.Args, argErrs = decodeOnTrackMotion(args)
	case MotionOnTrackSchedule:
		mo.Args, argErrs = decodeScheduleMotion(args)
	}
	var errs []error
	for _, err := range argErrs {
		errs = append(errs, prefix(err, "args"))
	}
	for i, raw := range timeline {
		kf, err := decodeKeyframe(raw)
		if err != nil {
			errs = append(errs, atPath(err, fmt.Sprintf("timeline[%d]", i)))
			continue
		}
		mo.Timeline = append(mo.Timeline, kf)
	}
	return mo, aggregate(errs)
}

func decodeConstraintArgMotion(raw map[string]any) (MotionArgs, []error) {
	m, errs := normalizeArgs(raw, constraintArgMotionKeys)
	errs = append(errs, required(m, "constraint_id", "arg")...)
	var d constraintArgMotionDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	return ConstraintArgMotion{
		ConstraintID: d.ConstraintID,
		Arg:          strings.ToLower(strings.TrimSpace(d.Arg)),
		ParamKey:     orDefault(d.ParamKey, "value"),
	}, errs
}

func decodeOnTrackMotion(raw map[string]any) (MotionArgs, []error) {
	m, errs := normalizeArgs(raw, onTrackMotionKeys)
	errs = append(errs, required(m, "part_id", "track_id")...)
	var d onTrackMotionDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	pose, perrs := d.poseDoc.decode()
	errs = append(errs, perrs...)
	return OnTrackMotion{
		PartID:   d.PartID,
		TrackID:  d.TrackID,
		ParamKey: orDefault(d.ParamKey, "s"),
		Pose:     pose,
	}, errs
}

func decodeScheduleMotion(raw map[string]any) (MotionArgs, []error) {
	m, errs := normalizeArgs(raw, scheduleMotionKeys)
	errs = append(errs, required(m, "part_id", "segments")...)
	var d scheduleMotionDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	pose, perrs := d.poseDoc.decode()
	errs = append(errs, perrs...)

	sm := ScheduleMotion{
		PartID:   d.PartID,
		ParamKey: orDefault(d.ParamKey, "u"),
		Pose:     pose,
	}
	for i, rawSeg := range d.Segments {
		seg, segErrs := decodeScheduleSegment(rawSeg)
		for _, err := range segErrs {
			errs = append(errs, atPath(err, fmt.Sprintf("segments[%d]", i)))
		}
		sm.Segments = append(sm.Segments, seg)
	}
	if len(d.Segments) == 0 && has(m, "segments") {
		errs = append(errs, &ArgError{Key: "segments", Reason: "must not be empty"})
	}
	return sm, errs
}

func decodeScheduleSegment(raw map[string]any) (ScheduleSegment, []error) {
	m, errs := normalizeArgs(raw, scheduleSegmentKeys)
	errs = append(errs, required(m, "track_id")...)
	var d scheduleSegmentDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	pose, perrs := d.poseDoc.decode()
	errs = append(errs, perrs...)

	seg := ScheduleSegment{
		TrackID: d.TrackID,
		U0:      d.U0,
		U1:      val(d.U1, d.U0),
		S0:      d.S0,
		S1:      val(d.S1, 1),
		Pose:    pose,
	}
	if seg.U1 < seg.U0 {
		seg.U0, seg.U1 = seg.U1, seg.U0
		seg.S0, seg.S1 = seg.S1, seg.S0
	}
	return seg, errs
}

func decodeKeyframe(raw map[string]any) (Keyframe, error) {
	values := make(map[string]float64, len(raw))
	if err := decodeArgs(raw, &values); err != nil {
		return Keyframe{}, err
	}
	kf := Keyframe{T: values["t"], Values: values}
	delete(kf.Values, "t")
	return kf, nil
}

// ---------------------------------------------------------------------------
// Parts
// ---------------------------------------------------------------------------

var seedKeys = []argKey{
	key("x"), key("y"),
	key("theta", "theta", "theta_deg"),
	key("scale"),
	key("z"),
}

type seedDoc struct {
	X     float64  `mapstructure:"x"`
	Y     float64  `mapstructure:"y"`
	Theta float64  `mapstructure:"theta"`
	Scale *float64 `mapstructure:"scale"`
	Z     float64  `mapstructure:"z"`
}

// DecodeSeedPose builds a seed pose from a raw map. Scale defaults to 1
// and must be positive.
func DecodeSeedPose(raw map[string]any) (geom.Pose, error) {
	m, errs := normalizeArgs(raw, seedKeys)
	var d seedDoc
	if err := decodeArgs(m, &d); err != nil {
		errs = append(errs, err)
	}
	p := geom.Pose{X: d.X, Y: d.Y, Theta: d.Theta, Scale: val(d.Scale, 1), Z: d.Z}
	if p.Scale <= 0 {
		errs = append(errs, &ArgError{Key: "scale", Reason: fmt.Sprintf("must be > 0, got %g", p.Scale)})
	}
	return p, aggregate(errs)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func val(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
