package graph

import (
	"fmt"
	"strings"
)

// ConstraintKind enumerates the supported constraint types.
type ConstraintKind int

const (
	ConstraintAttach      ConstraintKind = iota // coincide two anchors
	ConstraintOnTrackPose                       // pin an anchor to a track
	ConstraintMidpoint                          // place an anchor halfway between two points
	ConstraintDistance                          // hold two anchors a fixed distance apart
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintAttach:
		return "attach"
	case ConstraintOnTrackPose:
		return "on_track_pose"
	case ConstraintMidpoint:
		return "midpoint"
	case ConstraintDistance:
		return "distance"
	default:
		return "unknown"
	}
}

func (k ConstraintKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

var constraintKinds = []ConstraintKind{
	ConstraintAttach, ConstraintOnTrackPose, ConstraintMidpoint, ConstraintDistance,
}

// ParseConstraintKind maps a type string to its kind.
func ParseConstraintKind(s string) (ConstraintKind, error) {
	return parseEnum("constraint type", s, constraintKinds)
}

// TrackKind enumerates the world-space track shapes.
type TrackKind int

const (
	TrackSegment TrackKind = iota // finite, s clamped to [0,1]
	TrackLine                     // infinite, s unclamped
	TrackArc                      // circular arc, s clamped to [0,1]
)

func (k TrackKind) String() string {
	switch k {
	case TrackSegment:
		return "segment"
	case TrackLine:
		return "line"
	case TrackArc:
		return "arc"
	default:
		return "unknown"
	}
}

func (k TrackKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

var trackKinds = []TrackKind{TrackSegment, TrackLine, TrackArc}

// ParseTrackKind maps a type string to its kind.
func ParseTrackKind(s string) (TrackKind, error) {
	return parseEnum("track type", s, trackKinds)
}

// MotionKind enumerates the supported motion types.
type MotionKind int

const (
	MotionConstraintArg   MotionKind = iota // drive a named constraint argument
	MotionOnTrack                           // slide a part along one track
	MotionOnTrackSchedule                   // slide a part across a sequence of tracks
)

func (k MotionKind) String() string {
	switch k {
	case MotionConstraintArg:
		return "constraint_arg"
	case MotionOnTrack:
		return "on_track"
	case MotionOnTrackSchedule:
		return "on_track_schedule"
	default:
		return "unknown"
	}
}

func (k MotionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

var motionKinds = []MotionKind{MotionConstraintArg, MotionOnTrack, MotionOnTrackSchedule}

// ParseMotionKind maps a type string to its kind.
func ParseMotionKind(s string) (MotionKind, error) {
	return parseEnum("motion type", s, motionKinds)
}

// Mode selects which side of a two-part constraint moves.
type Mode int

const (
	ModeAToB Mode = iota // move part a onto b
	ModeBToA             // move part b onto a
	ModeBoth             // split the correction
)

func (m Mode) String() string {
	switch m {
	case ModeAToB:
		return "a_to_b"
	case ModeBToA:
		return "b_to_a"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

var modes = []Mode{ModeAToB, ModeBToA, ModeBoth}

// ParseMode maps a mode string to its value.
func ParseMode(s string) (Mode, error) {
	return parseEnum("mode", s, modes)
}

// AngleMode selects how on_track_pose sets a part's rotation.
type AngleMode int

const (
	AngleTangent AngleMode = iota // follow the track heading
	AngleNormal                   // heading plus 90°
	AngleFixed                    // explicit angle argument
	AngleKeep                     // leave the current rotation
)

func (m AngleMode) String() string {
	switch m {
	case AngleTangent:
		return "tangent"
	case AngleNormal:
		return "normal"
	case AngleFixed:
		return "fixed"
	case AngleKeep:
		return "keep"
	default:
		return "unknown"
	}
}

var angleModes = []AngleMode{AngleTangent, AngleNormal, AngleFixed, AngleKeep}

// ParseAngleMode maps an angle mode string to its value.
func ParseAngleMode(s string) (AngleMode, error) {
	return parseEnum("angle_mode", s, angleModes)
}

// ContactSide selects which side of a track the clearance offset points to.
type ContactSide int

const (
	SideOuter ContactSide = iota
	SideInner
)

func (c ContactSide) String() string {
	switch c {
	case SideOuter:
		return "outer"
	case SideInner:
		return "inner"
	default:
		return "unknown"
	}
}

var contactSides = []ContactSide{SideOuter, SideInner}

// ParseContactSide maps a contact side string to its value.
func ParseContactSide(s string) (ContactSide, error) {
	return parseEnum("contact_side", s, contactSides)
}

// Frame says whether track data is given in world space or in a part's
// local frame.
type Frame int

const (
	FrameWorld Frame = iota
	FrameLocal
)

func (f Frame) String() string {
	switch f {
	case FrameWorld:
		return "world"
	case FrameLocal:
		return "local"
	default:
		return "unknown"
	}
}

var frames = []Frame{FrameWorld, FrameLocal}

// ParseFrame maps a space string to its frame.
func ParseFrame(s string) (Frame, error) {
	return parseEnum("space", s, frames)
}

// parseEnum matches s case-insensitively against the String() form of each
// candidate and returns a *TypeError listing the allowed values otherwise.
func parseEnum[T fmt.Stringer](field, s string, all []T) (T, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	allowed := make([]string, 0, len(all))
	for _, v := range all {
		if v.String() == want {
			return v, nil
		}
		allowed = append(allowed, v.String())
	}
	var zero T
	return zero, &TypeError{Field: field, Value: s, Allowed: allowed}
}
