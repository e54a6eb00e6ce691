package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/chazu/jig/pkg/geom"
)

// ValidationSeverity indicates whether a validation finding blocks solving
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks solving
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Ref      string             // kind and id of the offending entry, e.g. "constraint c1"
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
	Cause    error              // typed error behind the finding, if any
}

func (e ValidationError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Ref, e.Message)
}

func (e ValidationError) Unwrap() error { return e.Cause }

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking finding was made.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Check runs the Tier 1 structural checks and returns them as one error.
// Decode calls it, so a decoded graph always passes. Graphs built in code
// (the DSL, tests) should call it before solving.
func Check(g *Graph) error {
	var errs []error
	for _, v := range Validate(g) {
		if v.Severity != SeverityError {
			continue
		}
		if v.Cause != nil {
			errs = append(errs, v.Cause)
		} else {
			errs = append(errs, errors.New(v.Error()))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}

// Validate runs all Tier 1 structural validation checks on the graph and
// returns the findings. An empty slice means the graph is valid. This
// function is read-only and never mutates the graph.
func Validate(g *Graph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateIDs(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateMotions(g)...)
	errs = append(errs, validateUnconstrained(g)...)
	return errs
}

// ValidateAll runs every tier: structural, geometric and, when geometries
// are supplied, anchor resolution.
func ValidateAll(g *Graph, geoms geom.Geometries) ValidationResult {
	var all []ValidationError
	all = append(all, Validate(g)...)
	all = append(all, validateGeometry(g)...)
	if geoms != nil {
		for _, err := range Errors(ValidateAnchors(g, geoms)) {
			all = append(all, ValidationError{
				Ref:      refOf(err),
				Message:  err.Error(),
				Severity: SeverityError,
				Cause:    err,
			})
		}
	}

	var result ValidationResult
	for _, v := range all {
		if v.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, v)
		} else {
			result.Errors = append(result.Errors, v)
		}
	}
	return result
}

// validateIDs checks that every entry has an id and that ids are unique
// within their kind.
func validateIDs(g *Graph) []ValidationError {
	var errs []ValidationError
	check := func(kind string, ids []string) {
		seen := make(map[string]bool, len(ids))
		for i, id := range ids {
			switch {
			case id == "":
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("%s at index %d has no id", kind, i),
					Severity: SeverityError,
					Cause:    &ArgError{Path: fmt.Sprintf("%ss[%d]", kind, i), Key: "id", Reason: "required"},
				})
			case seen[id]:
				errs = append(errs, ValidationError{
					Ref:      kind + " " + id,
					Message:  fmt.Sprintf("duplicate %s id %q", kind, id),
					Severity: SeverityError,
					Cause:    &ArgError{Path: fmt.Sprintf("%ss[%d]", kind, i), Key: "id", Reason: fmt.Sprintf("duplicate %s id %q", kind, id)},
				})
			}
			seen[id] = true
		}
	}

	check("part", g.PartIDs())
	check("track", g.TrackIDs())
	cids := make([]string, len(g.Constraints))
	for i, c := range g.Constraints {
		cids[i] = c.ID
	}
	check("constraint", cids)
	mids := make([]string, len(g.Motions))
	for i, m := range g.Motions {
		mids[i] = m.ID
	}
	check("motion", mids)
	return errs
}

// validateReferences checks that every part and track id named by a
// track, constraint or motion exists.
func validateReferences(g *Graph) []ValidationError {
	parts := g.PartIDs()
	tracks := g.TrackIDs()
	var errs []ValidationError

	ref := func(owner, path, kind, id string, available []string) {
		if id == "" || slices.Contains(available, id) {
			return
		}
		err := UnknownID(path, kind, id, available)
		errs = append(errs, ValidationError{
			Ref:      owner,
			Message:  err.Error(),
			Severity: SeverityError,
			Cause:    err,
		})
	}

	for i, t := range g.Tracks {
		if pid := t.PartRef(); pid != "" {
			ref("track "+t.ID, fmt.Sprintf("tracks[%d].data.part_id", i), "part", pid, parts)
		}
	}

	for i, c := range g.Constraints {
		if c.Args == nil {
			continue
		}
		owner := "constraint " + c.ID
		path := fmt.Sprintf("constraints[%d].args", i)
		for _, pid := range c.Args.Parts() {
			ref(owner, path, "part", pid, parts)
		}
		if o, ok := c.Args.(OnTrackPose); ok {
			ref(owner, path+".track_id", "track", o.TrackID, tracks)
		}
		if a, ok := c.Args.(Attach); ok && a.PartA == a.PartB && a.PartA != "" {
			errs = append(errs, ValidationError{
				Ref:      owner,
				Message:  fmt.Sprintf("attach joins part %q to itself", a.PartA),
				Severity: SeverityError,
				Cause:    &ArgError{Path: path, Key: "part_b", Reason: "must differ from part_a"},
			})
		}
	}

	for i, m := range g.Motions {
		owner := "motion " + m.ID
		path := fmt.Sprintf("motions[%d].args", i)
		switch a := m.Args.(type) {
		case OnTrackMotion:
			ref(owner, path+".part_id", "part", a.PartID, parts)
			ref(owner, path+".track_id", "track", a.TrackID, tracks)
		case ScheduleMotion:
			ref(owner, path+".part_id", "part", a.PartID, parts)
			for j, seg := range a.Segments {
				ref(owner, fmt.Sprintf("%s.segments[%d].track_id", path, j), "track", seg.TrackID, tracks)
			}
		}
	}
	return errs
}

// validateMotions checks that constraint_arg motions drive an existing
// constraint through an argument that kind accepts.
func validateMotions(g *Graph) []ValidationError {
	var errs []ValidationError
	for i, m := range g.Motions {
		a, ok := m.Args.(ConstraintArgMotion)
		if !ok {
			continue
		}
		owner := "motion " + m.ID
		path := fmt.Sprintf("motions[%d].args", i)
		c := g.Constraint(a.ConstraintID)
		if c == nil || c.Args == nil {
			err := UnknownID(path+".constraint_id", "constraint", a.ConstraintID, g.ConstraintIDs())
			errs = append(errs, ValidationError{Ref: owner, Message: err.Error(), Severity: SeverityError, Cause: err})
			continue
		}
		allowed := DrivableArgs(c.Kind())
		if !slices.Contains(allowed, a.Arg) {
			err := &ArgError{
				Path:   path,
				Key:    "arg",
				Reason: fmt.Sprintf("%s constraints cannot be driven through %q (drivable: %v)", c.Kind(), a.Arg, allowed),
			}
			errs = append(errs, ValidationError{Ref: owner, Message: err.Error(), Severity: SeverityError, Cause: err})
		}
	}
	return errs
}

// validateUnconstrained warns about parts no constraint, track or motion
// touches. They are drawn at their seed pose.
func validateUnconstrained(g *Graph) []ValidationError {
	used := make(map[string]bool)
	for _, c := range g.Constraints {
		if c.Args == nil {
			continue
		}
		for _, pid := range c.Args.Parts() {
			used[pid] = true
		}
	}
	for _, t := range g.Tracks {
		used[t.PartRef()] = true
	}
	for _, m := range g.Motions {
		switch a := m.Args.(type) {
		case OnTrackMotion:
			used[a.PartID] = true
		case ScheduleMotion:
			used[a.PartID] = true
		}
	}

	var errs []ValidationError
	if len(g.Parts) < 2 {
		return nil
	}
	for _, p := range g.Parts {
		if !used[p.ID] {
			errs = append(errs, ValidationError{
				Ref:      "part " + p.ID,
				Message:  "part is not referenced by any constraint, track or motion; it stays at its seed pose",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// ValidateAnchors checks every anchor name the graph uses against the
// drawn part geometries. Errors name the part and the anchors it offers.
func ValidateAnchors(g *Graph, geoms geom.Geometries) error {
	var errs []error
	check := func(path, partID, anchor string) {
		if partID == "" {
			return
		}
		pg, ok := geoms[partID]
		if !ok {
			errs = append(errs, UnknownID(path, "part", partID, slices.Collect(maps.Keys(geoms))))
			return
		}
		if !pg.Has(anchor) {
			errs = append(errs, &ReferenceError{
				Path:      fmt.Sprintf("%s (part %s)", path, partID),
				Kind:      "anchor",
				ID:        geom.AnchorKey(anchor),
				Available: pg.Names(),
			})
		}
	}

	for i, t := range g.Tracks {
		path := fmt.Sprintf("tracks[%d].data", i)
		switch d := t.Data.(type) {
		case AnchorTrack:
			check(path+".anchor_a", d.PartID, d.AnchorA)
			check(path+".anchor_b", d.PartID, d.AnchorB)
		case LocalArcTrack:
			if d.CenterAnchor != "" {
				check(path+".center_anchor", d.PartID, d.CenterAnchor)
			}
		}
	}

	for i, c := range g.Constraints {
		path := fmt.Sprintf("constraints[%d].args", i)
		switch a := c.Args.(type) {
		case Attach:
			check(path+".anchor_a", a.PartA, a.AnchorA)
			check(path+".anchor_b", a.PartB, a.AnchorB)
		case OnTrackPose:
			check(path+".anchor", a.PartID, a.Anchor)
		case Midpoint:
			check(path+".anchor", a.PartID, a.Anchor)
			for j, p := range a.Points {
				if p.IsAnchor() {
					check(fmt.Sprintf("%s.anchor_%d", path, j+1), p.PartID, p.Anchor)
				}
			}
		case Distance:
			check(path+".anchor_a", a.PartA, a.AnchorA)
			check(path+".anchor_b", a.PartB, a.AnchorB)
		}
	}

	for i, m := range g.Motions {
		path := fmt.Sprintf("motions[%d].args", i)
		switch a := m.Args.(type) {
		case OnTrackMotion:
			check(path+".anchor", a.PartID, a.Pose.OnTrackPose(a.PartID, a.TrackID, 0).Anchor)
		case ScheduleMotion:
			for j, seg := range a.Segments {
				pose := a.Pose.Merge(seg.Pose).OnTrackPose(a.PartID, seg.TrackID, 0)
				check(fmt.Sprintf("%s.segments[%d].anchor", path, j), a.PartID, pose.Anchor)
			}
		}
	}

	return aggregate(errs)
}

// refOf picks the document path out of a typed error for reporting.
func refOf(err error) string {
	var re *ReferenceError
	if errors.As(err, &re) {
		return re.Path
	}
	var ae *ArgError
	if errors.As(err, &ae) {
		return ae.Path
	}
	return ""
}
