package graph

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// ---------------------------------------------------------------------------
// Tracks
// ---------------------------------------------------------------------------

// TrackData is the kind-specific payload of a track.
type TrackData interface {
	trackData() // marker method restricting implementations to this package
	Kind() TrackKind
}

// SegmentTrack is a finite world-space segment from P1 to P2.
type SegmentTrack struct {
	P1, P2 v2.Vec
}

func (SegmentTrack) trackData()      {}
func (SegmentTrack) Kind() TrackKind { return TrackSegment }

// LineTrack is an infinite world-space line through Origin. Parameter s
// maps to Origin + s·Dir, so Dir also sets the parameter speed.
type LineTrack struct {
	Origin, Dir v2.Vec
}

func (LineTrack) trackData()      {}
func (LineTrack) Kind() TrackKind { return TrackLine }

// ArcTrack is a world-space circular arc. Parameter s in [0,1] maps
// linearly from StartDeg to EndDeg.
type ArcTrack struct {
	Center   v2.Vec
	R        float64
	StartDeg float64
	EndDeg   float64
}

func (ArcTrack) trackData()      {}
func (ArcTrack) Kind() TrackKind { return TrackArc }

// AnchorTrack is a segment or line spanning two anchors of a part.
// In the world frame it follows the part while solving; in the local
// frame it is baked once from the settled pose before the main solve.
type AnchorTrack struct {
	Form    TrackKind // TrackSegment or TrackLine
	Frame   Frame
	PartID  string
	AnchorA string
	AnchorB string
}

func (AnchorTrack) trackData()        {}
func (t AnchorTrack) Kind() TrackKind { return t.Form }

// LocalArcTrack is an arc given in a part's local frame. Its centre is
// either a named anchor or an explicit local point.
type LocalArcTrack struct {
	PartID        string
	CenterAnchor  string
	CenterLocal   v2.Vec
	RadiusLocal   float64
	StartDegLocal float64
	EndDegLocal   float64
}

func (LocalArcTrack) trackData()      {}
func (LocalArcTrack) Kind() TrackKind { return TrackArc }

// ---------------------------------------------------------------------------
// Constraints
// ---------------------------------------------------------------------------

// ConstraintArgs is the kind-specific argument set of a constraint.
type ConstraintArgs interface {
	constraintArgs() // marker method restricting implementations to this package
	Kind() ConstraintKind
	// Parts lists every part id the arguments reference, deduplicated,
	// in argument order.
	Parts() []string
}

// Attach coincides anchor A of part A with anchor B of part B. Rigid
// attaches weld the parts into one group before the main solve.
type Attach struct {
	PartA   string
	AnchorA string
	PartB   string
	AnchorB string
	Mode    Mode
	Rigid   bool
}

func (Attach) constraintArgs()      {}
func (Attach) Kind() ConstraintKind { return ConstraintAttach }
func (a Attach) Parts() []string    { return uniq(a.PartA, a.PartB) }

// OnTrackPose pins a part's anchor to the point at parameter S along a
// track, optionally offset along the track normal and rotated to follow it.
type OnTrackPose struct {
	PartID      string
	TrackID     string
	Anchor      string
	S           float64
	AngleMode   AngleMode
	Angle       *float64 // used by AngleFixed; nil keeps the current angle
	AngleOffset float64
	ContactSide ContactSide
	Clearance   float64
}

func (OnTrackPose) constraintArgs()      {}
func (OnTrackPose) Kind() ConstraintKind { return ConstraintOnTrackPose }
func (o OnTrackPose) Parts() []string    { return uniq(o.PartID) }

// PointRef is a midpoint input: a part anchor when PartID is set, else the
// literal point XY.
type PointRef struct {
	PartID string
	Anchor string
	XY     v2.Vec
}

// IsAnchor reports whether the point follows a part anchor.
func (p PointRef) IsAnchor() bool { return p.PartID != "" }

// Midpoint places a part's anchor at the mean of two points.
type Midpoint struct {
	PartID string
	Anchor string
	Points [2]PointRef
}

func (Midpoint) constraintArgs()      {}
func (Midpoint) Kind() ConstraintKind { return ConstraintMidpoint }
func (m Midpoint) Parts() []string {
	return uniq(m.PartID, m.Points[0].PartID, m.Points[1].PartID)
}

// Distance holds two anchors Distance apart along the line joining them.
// Build it with NewDistance; the zero Mode is ModeAToB, which moves only
// part b.
type Distance struct {
	PartA    string
	AnchorA  string
	PartB    string
	AnchorB  string
	Distance float64
	Mode     Mode
}

// NewDistance returns a distance constraint that splits the correction
// between both parts.
func NewDistance(partA, anchorA, partB, anchorB string, distance float64) Distance {
	return Distance{
		PartA:    partA,
		AnchorA:  anchorA,
		PartB:    partB,
		AnchorB:  anchorB,
		Distance: distance,
		Mode:     ModeBoth,
	}
}

func (Distance) constraintArgs()      {}
func (Distance) Kind() ConstraintKind { return ConstraintDistance }
func (d Distance) Parts() []string    { return uniq(d.PartA, d.PartB) }

func uniq(ids ...string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ---------------------------------------------------------------------------
// Motions
// ---------------------------------------------------------------------------

// Keyframe is one timeline sample: time T and named values.
type Keyframe struct {
	T      float64
	Values map[string]float64
}

// MotionArgs is the kind-specific argument set of a motion.
type MotionArgs interface {
	motionArgs() // marker method restricting implementations to this package
	Kind() MotionKind
	// Key is the keyframe value name the timeline is sampled on.
	Key() string
}

// ConstraintArgMotion writes the timeline value into one argument of a
// constraint before each frame's solve.
type ConstraintArgMotion struct {
	ConstraintID string
	Arg          string
	ParamKey     string
}

func (ConstraintArgMotion) motionArgs()      {}
func (ConstraintArgMotion) Kind() MotionKind { return MotionConstraintArg }
func (m ConstraintArgMotion) Key() string    { return m.ParamKey }

// OnTrackMotion slides a part along one track, with s taken from the
// timeline.
type OnTrackMotion struct {
	PartID   string
	TrackID  string
	ParamKey string
	Pose     PoseArgs
}

func (OnTrackMotion) motionArgs()      {}
func (OnTrackMotion) Kind() MotionKind { return MotionOnTrack }
func (m OnTrackMotion) Key() string    { return m.ParamKey }

// ScheduleSegment maps the timeline range [U0,U1] onto [S0,S1] of a track.
type ScheduleSegment struct {
	TrackID string
	U0, U1  float64
	S0, S1  float64
	Pose    PoseArgs
}

// ScheduleMotion slides a part across several tracks in sequence.
type ScheduleMotion struct {
	PartID   string
	ParamKey string
	Pose     PoseArgs
	Segments []ScheduleSegment
}

func (ScheduleMotion) motionArgs()      {}
func (ScheduleMotion) Kind() MotionKind { return MotionOnTrackSchedule }
func (m ScheduleMotion) Key() string    { return m.ParamKey }

// PoseArgs holds optional on_track_pose settings carried by motions.
// Nil fields fall back to the on_track_pose defaults.
type PoseArgs struct {
	Anchor      *string
	AngleMode   *AngleMode
	Angle       *float64
	AngleOffset *float64
	ContactSide *ContactSide
	Clearance   *float64
}

// Merge returns p with every field set in over replacing p's value.
func (p PoseArgs) Merge(over PoseArgs) PoseArgs {
	if over.Anchor != nil {
		p.Anchor = over.Anchor
	}
	if over.AngleMode != nil {
		p.AngleMode = over.AngleMode
	}
	if over.Angle != nil {
		p.Angle = over.Angle
	}
	if over.AngleOffset != nil {
		p.AngleOffset = over.AngleOffset
	}
	if over.ContactSide != nil {
		p.ContactSide = over.ContactSide
	}
	if over.Clearance != nil {
		p.Clearance = over.Clearance
	}
	return p
}

// OnTrackPose expands the settings into a full constraint argument set.
func (p PoseArgs) OnTrackPose(partID, trackID string, s float64) OnTrackPose {
	out := OnTrackPose{
		PartID:  partID,
		TrackID: trackID,
		Anchor:  DefaultTrackAnchor,
		S:       s,
		Angle:   p.Angle,
	}
	if p.Anchor != nil {
		out.Anchor = *p.Anchor
	}
	if p.AngleMode != nil {
		out.AngleMode = *p.AngleMode
	}
	if p.AngleOffset != nil {
		out.AngleOffset = *p.AngleOffset
	}
	if p.ContactSide != nil {
		out.ContactSide = *p.ContactSide
	}
	if p.Clearance != nil {
		out.Clearance = *p.Clearance
	}
	return out
}
