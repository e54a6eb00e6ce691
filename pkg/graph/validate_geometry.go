package graph

import (
	"fmt"
	"math"

	"github.com/chazu/jig/pkg/geom"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation (errors and warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 checks on track shapes, seed poses and
// timelines.
func validateGeometry(g *Graph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateTrackShapes(g)...)
	errs = append(errs, validateSeedsInSpace(g)...)
	errs = append(errs, validateTimelines(g)...)
	return errs
}

// validateTrackShapes flags degenerate tracks. A zero-length segment or
// line has no tangent; on_track_pose falls back to +x but the author
// almost certainly made a mistake.
func validateTrackShapes(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, t := range g.Tracks {
		ref := "track " + t.ID
		switch d := t.Data.(type) {
		case SegmentTrack:
			if geom.Dist(d.P1, d.P2) <= geom.Epsilon {
				errs = append(errs, ValidationError{Ref: ref, Message: "segment has zero length", Severity: SeverityWarning})
			}
		case LineTrack:
			if d.Dir.Length() <= geom.Epsilon {
				errs = append(errs, ValidationError{Ref: ref, Message: "line direction has zero length", Severity: SeverityWarning})
			}
		case ArcTrack:
			if d.R <= 0 {
				errs = append(errs, ValidationError{
					Ref:      ref,
					Message:  fmt.Sprintf("arc radius is %.4f, must be positive", d.R),
					Severity: SeverityError,
				})
			}
			if math.Abs(d.EndDeg-d.StartDeg) <= geom.Epsilon {
				errs = append(errs, ValidationError{Ref: ref, Message: "arc start and end angles are equal", Severity: SeverityWarning})
			}
		case AnchorTrack:
			if geom.AnchorKey(d.AnchorA) == geom.AnchorKey(d.AnchorB) {
				errs = append(errs, ValidationError{
					Ref:      ref,
					Message:  fmt.Sprintf("anchor_a and anchor_b are both %q", geom.AnchorKey(d.AnchorA)),
					Severity: SeverityWarning,
				})
			}
		case LocalArcTrack:
			if d.RadiusLocal <= 0 {
				errs = append(errs, ValidationError{
					Ref:      ref,
					Message:  fmt.Sprintf("local arc radius is %.4f, must be positive", d.RadiusLocal),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateSeedsInSpace warns about parts seeded outside the scene frame.
func validateSeedsInSpace(g *Graph) []ValidationError {
	var errs []ValidationError
	xr, yr := g.Space.XRange, g.Space.YRange
	for _, p := range g.Parts {
		if p.Seed.X < xr[0] || p.Seed.X > xr[1] || p.Seed.Y < yr[0] || p.Seed.Y > yr[1] {
			errs = append(errs, ValidationError{
				Ref:      "part " + p.ID,
				Message:  fmt.Sprintf("seed pose (%.3f, %.3f) lies outside the scene space", p.Seed.X, p.Seed.Y),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateTimelines warns about motions whose keyframes never mention the
// value they are sampled on, which makes them evaluate to a constant 0.
func validateTimelines(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, m := range g.Motions {
		if m.Args == nil {
			continue
		}
		ref := "motion " + m.ID
		if len(m.Timeline) == 0 {
			errs = append(errs, ValidationError{Ref: ref, Message: "timeline is empty", Severity: SeverityWarning})
			continue
		}
		found := false
		for _, kf := range m.Timeline {
			if _, ok := kf.Values[m.Args.Key()]; ok {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, ValidationError{
				Ref:      ref,
				Message:  fmt.Sprintf("no keyframe sets %q", m.Args.Key()),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
