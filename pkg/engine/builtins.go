package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/jig/pkg/graph"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms jig Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: on-track-pose -> on_track_pose
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters; a
		// minus operator or negative literal is left alone.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpRef names a scene entry so builtins can pass it to one another.
type sexpRef struct {
	kind string // "part", "track", "constraint" or "motion"
	id   string
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", r.kind, r.id)
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

// sexpVec2 wraps a 2D point literal.
type sexpVec2 struct {
	x, y float64
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.x, v.y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpEntry is a small keyed record such as a keyframe or a schedule leg.
type sexpEntry struct {
	kind   string
	fields map[string]any
}

func (e *sexpEntry) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %v)", e.kind, e.fields)
}
func (e *sexpEntry) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keyword names are returned in snake_case so they line up with document
// keys: :anchor-a and :anchor_a are the same argument.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		name = snake(name)
		if _, seen := result.kw[name]; !seen {
			result.order = append(result.order, name)
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Keyword at end with no value is a true flag.
			result.kw[name] = &zygo.SexpBool{Val: true}
			i++
		}
	}
	return result
}

func snake(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toName extracts an id or enum value: a plain string, a keyword (in
// snake_case) or an entry reference.
func toName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		if kw, ok := isKW(v); ok {
			return snake(kw), nil
		}
		return v.S, nil
	case *sexpRef:
		return v.id, nil
	}
	return "", fmt.Errorf("expected string, keyword or reference, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toFloats extracts a list of numbers, also accepting a vec2.
func toFloats(s zygo.Sexp) ([]float64, error) {
	if v, ok := s.(*sexpVec2); ok {
		return []float64{v.x, v.y}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		if out[i], err = toFloat64(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return out, nil
}

// toValue converts a Sexp into the plain Go value a document argument bag
// holds: numbers, strings, bools, lists and maps.
func toValue(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpStr, *sexpRef:
		return toName(s)
	case *sexpVec2:
		return []any{v.x, v.y}, nil
	case *sexpEntry:
		return v.fields, nil
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := sexpListToSlice(s)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			if out[i], err = toValue(item); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
		return out, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("unsupported value %T (%s)", s, s.SexpString(nil))
}

// aliases are DSL shorthands for the id-carrying document keys.
var aliases = map[string]string{
	"part":       "part_id",
	"track":      "track_id",
	"constraint": "constraint_id",
}

// toBag converts keyword arguments into a document argument bag, skipping
// the names in reserved.
func toBag(pa kwArgs, reserved ...string) (map[string]any, error) {
	bag := make(map[string]any, len(pa.kw))
	for _, name := range pa.order {
		if contains(reserved, name) {
			continue
		}
		v, err := toValue(pa.kw[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		key := name
		if full, ok := aliases[name]; ok {
			if _, given := pa.kw[full]; !given {
				key = full
			}
		}
		bag[key] = v
	}
	return bag, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// head takes the leading arguments a builtin requires (an id, then a type
// for some builtins) before keyword parsing, so a type may be written as a
// keyword: (defpart "ramp" :incline ...).
func head(fn string, args []zygo.Sexp, names ...string) ([]string, kwArgs, error) {
	if len(args) < len(names) {
		return nil, kwArgs{}, fmt.Errorf("%s requires %s", fn, strings.Join(names, " and "))
	}
	out := make([]string, len(names))
	for i, n := range names {
		v, err := toName(args[i])
		if err != nil {
			return nil, kwArgs{}, fmt.Errorf("%s: %s: %w", fn, n, err)
		}
		out[i] = v
	}
	return out, parseArgs(args[len(names):]), nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder collects DSL calls into a raw document. Reference and argument
// checking is left to graph.Decode, so the DSL and the YAML/JSON loaders
// report the same problems.
type builder struct {
	doc   *graph.Document
	parts map[string]bool
}

func newBuilder() *builder {
	return &builder{doc: &graph.Document{}, parts: make(map[string]bool)}
}

// registerBuiltins installs all jig DSL builtins into a zygomys
// environment. The builtins append to b's document during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec2 1 2)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{x: x, y: y}, nil
	})

	// -----------------------------------------------------------------------
	// (space :x-range [-8 8] :y-range [-5 5] :unit "m")
	// -----------------------------------------------------------------------
	env.AddFunction("space", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		sd := &graph.SpaceDoc{}
		for _, rng := range []struct {
			key string
			out *[]float64
		}{{"x_range", &sd.XRange}, {"y_range", &sd.YRange}} {
			v, ok := pa.kw[rng.key]
			if !ok {
				continue
			}
			fs, err := toFloats(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("space: %s: %w", rng.key, err)
			}
			*rng.out = fs
		}
		for _, s := range []struct {
			key string
			out *string
		}{{"unit", &sd.Unit}, {"angle_unit", &sd.AngleUnit}, {"origin", &sd.Origin}} {
			v, ok := pa.kw[s.key]
			if !ok {
				continue
			}
			str, err := toName(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("space: %s: %w", s.key, err)
			}
			*s.out = str
		}
		b.doc.Space = sd
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (solver :max-iters 80 :tolerance 1e-6)
	// -----------------------------------------------------------------------
	env.AddFunction("solver", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if v, ok := pa.kw["max_iters"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("solver: max-iters: %w", err)
			}
			b.doc.SolverMaxIters = int(f)
		}
		if v, ok := pa.kw["tolerance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("solver: tolerance: %w", err)
			}
			b.doc.SolverTol = f
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (defpart "ramp" :incline :width 6 :height 3 :at (vec2 1 0) :theta 10)
	//
	// Pose keywords (at, x, y, theta, scale, z) form the seed pose, fill and
	// stroke form the style, and every other keyword is a shape parameter.
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		h, pa, err := head("defpart", args, "an id", "a type")
		if err != nil {
			return zygo.SexpNull, err
		}
		id, typ := h[0], h[1]

		seed := make(map[string]any)
		if v, ok := pa.kw["at"]; ok {
			at, ok := v.(*sexpVec2)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("defpart %q: at: expected vec2, got %T", id, v)
			}
			seed["x"], seed["y"] = at.x, at.y
		}
		for _, k := range []string{"x", "y", "theta", "scale", "z"} {
			if v, ok := pa.kw[k]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("defpart %q: %s: %w", id, k, err)
				}
				seed[k] = f
			}
		}

		var style map[string]any
		for _, k := range []string{"fill", "stroke"} {
			if v, ok := pa.kw[k]; ok {
				s, err := toName(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("defpart %q: %s: %w", id, k, err)
				}
				if style == nil {
					style = make(map[string]any)
				}
				style[k] = s
			}
		}

		params, err := toBag(pa, "at", "x", "y", "theta", "scale", "z", "fill", "stroke")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart %q: %w", id, err)
		}
		b.doc.Parts = append(b.doc.Parts, graph.PartDoc{
			ID:       id,
			Type:     typ,
			Params:   params,
			Style:    style,
			SeedPose: seed,
		})
		b.parts[id] = true
		return &sexpRef{kind: "part", id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (part "ramp")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}
		id, err := toName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		if !b.parts[id] {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", id)
		}
		return &sexpRef{kind: "part", id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (segment "slope" :part ramp :anchor-a :start :anchor-b :end)
	// (line "rail" :x0 0 :y0 0 :dx 1 :dy 0)
	// (arc "groove" :part bowl :center-anchor :center :radius-local 3 ...)
	// -----------------------------------------------------------------------
	for _, kind := range []graph.TrackKind{graph.TrackSegment, graph.TrackLine, graph.TrackArc} {
		fn := kind.String()
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			h, pa, err := head(fn, args, "an id")
			if err != nil {
				return zygo.SexpNull, err
			}
			id := h[0]
			data, err := toBag(pa)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s %q: %w", fn, id, err)
			}
			b.doc.Tracks = append(b.doc.Tracks, graph.TrackDoc{ID: id, Type: fn, Data: data})
			return &sexpRef{kind: "track", id: id}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (attach "hinge" :part-a lid :anchor-a :left-center :part-b box
	//                 :anchor-b :right-center :rigid true :hard false)
	// (midpoint ...) (distance ...) (on-track-pose ...)
	// -----------------------------------------------------------------------
	for _, kind := range []graph.ConstraintKind{
		graph.ConstraintAttach,
		graph.ConstraintMidpoint,
		graph.ConstraintDistance,
		graph.ConstraintOnTrackPose,
	} {
		fn := kind.String()
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			h, pa, err := head(fn, args, "an id")
			if err != nil {
				return zygo.SexpNull, err
			}
			id := h[0]
			cd := graph.ConstraintDoc{ID: id, Type: fn}
			if v, ok := pa.kw["hard"]; ok {
				flag, ok := v.(*zygo.SexpBool)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("%s %q: hard: expected true or false, got %T", fn, id, v)
				}
				hard := flag.Val
				cd.Hard = &hard
			}
			if cd.Args, err = toBag(pa, "hard"); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s %q: %w", fn, id, err)
			}
			b.doc.Constraints = append(b.doc.Constraints, cd)
			return &sexpRef{kind: "constraint", id: id}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (keyframe 0 0.2)            -> {t: 0, value: 0.2}
	// (keyframe 0 :s 0.1 :u 2)    -> {t: 0, s: 0.1, u: 2}
	// -----------------------------------------------------------------------
	env.AddFunction("keyframe", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("keyframe requires a time as first argument")
		}
		t, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("keyframe: t: %w", err)
		}
		fields := map[string]any{"t": t}
		if len(pa.positional) > 1 {
			v, err := toFloat64(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("keyframe: value: %w", err)
			}
			fields["value"] = v
		}
		for _, k := range pa.order {
			v, err := toFloat64(pa.kw[k])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("keyframe: %s: %w", k, err)
			}
			fields[k] = v
		}
		return &sexpEntry{kind: "keyframe", fields: fields}, nil
	})

	// -----------------------------------------------------------------------
	// (leg "floor" :u0 0 :u1 1 :s0 0 :s1 1)
	// -----------------------------------------------------------------------
	env.AddFunction("leg", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		h, pa, err := head("leg", args, "a track id")
		if err != nil {
			return zygo.SexpNull, err
		}
		trackID := h[0]
		fields, err := toBag(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("leg %q: %w", trackID, err)
		}
		fields["track_id"] = trackID
		return &sexpEntry{kind: "leg", fields: fields}, nil
	})

	// -----------------------------------------------------------------------
	// (animate "slide" :constraint-arg :constraint rest :arg :s
	//          :timeline [(keyframe 0 0.2) (keyframe 2 0.8)])
	// -----------------------------------------------------------------------
	env.AddFunction("animate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		h, pa, err := head("animate", args, "an id", "a type")
		if err != nil {
			return zygo.SexpNull, err
		}
		id, typ := h[0], h[1]
		md := graph.MotionDoc{ID: id, Type: typ}
		if v, ok := pa.kw["timeline"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("animate %q: timeline: %w", id, err)
			}
			for i, item := range items {
				kf, ok := item.(*sexpEntry)
				if !ok || kf.kind != "keyframe" {
					return zygo.SexpNull, fmt.Errorf("animate %q: timeline[%d]: expected keyframe, got %s", id, i, item.SexpString(nil))
				}
				md.Timeline = append(md.Timeline, kf.fields)
			}
		}
		if md.Args, err = toBag(pa, "timeline"); err != nil {
			return zygo.SexpNull, fmt.Errorf("animate %q: %w", id, err)
		}
		b.doc.Motions = append(b.doc.Motions, md)
		return &sexpRef{kind: "motion", id: id}, nil
	})
}
