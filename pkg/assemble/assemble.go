// Package assemble runs the full pipeline from a decoded graph to
// per-frame poses: draw every part to get its anchors, check anchor
// references, bake local tracks from a pre-solve, solve, and fall back to
// seed poses when hard constraints cannot be met.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/chazu/jig/internal/logging"
	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/motion"
	"github.com/chazu/jig/pkg/shape"
	"github.com/chazu/jig/pkg/solver"
	"github.com/chazu/jig/pkg/track"
)

// MaxFrames bounds how many samples Frames will produce in one call.
const MaxFrames = 10000

// Assembler builds assemblies with one shape drawer and solver setting.
// It holds no per-build state and is safe for concurrent use.
type Assembler struct {
	drawer shape.Drawer
	opts   solver.Options
	log    *slog.Logger
}

// New returns an assembler. A nil logger discards output.
func New(d shape.Drawer, opts solver.Options, log *slog.Logger) *Assembler {
	return &Assembler{drawer: d, opts: opts, log: logging.OrNop(log)}
}

// Assembly is a built graph ready for sampling.
type Assembly struct {
	Source     *graph.Graph // graph as given
	Graph      *graph.Graph // graph with local tracks baked
	Drawn      map[string]*shape.Drawn
	Geometries geom.Geometries
	Options    solver.Options
	Result     *solver.Result
	Base       map[string]geom.Pose // solved poses, or seeds on fallback
	Fallback   bool                 // Base holds seed poses
	// SeedBaked is set when the pre-solve failed and local tracks were
	// baked from seed poses instead.
	SeedBaked bool

	log *slog.Logger
}

// Build assembles g. Reference and anchor problems are errors; failing to
// satisfy hard constraints is not, and is reported through Fallback.
func (a *Assembler) Build(ctx context.Context, g *graph.Graph) (*Assembly, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	drawn, geoms, err := shape.DrawAll(a.drawer, g)
	if err != nil {
		return nil, err
	}
	if err := graph.ValidateAnchors(g, geoms); err != nil {
		return nil, err
	}

	as := &Assembly{
		Source:     g,
		Graph:      g,
		Drawn:      drawn,
		Geometries: geoms,
		Options:    a.opts.WithHints(g.Solver),
		log:        a.log,
	}

	if g.HasLocalTracks() {
		if err := as.bake(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := solver.Solve(as.Graph, geoms, as.Options)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	as.Result = res
	as.Base = res.Poses
	if bad := res.UnsatisfiedHard(); len(bad) > 0 {
		a.log.Warn("hard constraints unsatisfied, using seed poses",
			"unsatisfied", residualIDs(bad), "iterations", res.Iterations)
		as.Base = g.SeedPoses()
		as.Fallback = true
	}
	a.log.Debug("assembled",
		"parts", len(g.Parts),
		"constraints", len(g.Constraints),
		"iterations", res.Iterations,
		"converged", res.Converged,
		"max_residual", res.MaxResidual())
	return as, nil
}

// Summary is the JSON report of a build.
type Summary struct {
	Converged   bool                 `json:"converged"`
	Iterations  int                  `json:"iterations"`
	MaxResidual float64              `json:"max_residual"`
	Fallback    bool                 `json:"fallback"`
	SeedBaked   bool                 `json:"seed_baked,omitempty"`
	Poses       map[string]geom.Pose `json:"poses"`
	Residuals   []solver.Residual    `json:"residuals"`
}

// Summary reports the base solve.
func (as *Assembly) Summary() Summary {
	return Summary{
		Converged:   as.Result.Converged,
		Iterations:  as.Result.Iterations,
		MaxResidual: as.Result.MaxResidual(),
		Fallback:    as.Fallback,
		SeedBaked:   as.SeedBaked,
		Poses:       as.Base,
		Residuals:   as.Result.Residuals,
	}
}

// bake settles the parts without on_track_pose constraints, then fixes
// every local track in world space from the settled poses.
func (as *Assembly) bake() error {
	pre, err := solver.Solve(as.Source.Without(graph.ConstraintOnTrackPose), as.Geometries, as.Options)
	if err != nil {
		return fmt.Errorf("pre-solve: %w", err)
	}
	poses := pre.Poses
	if bad := pre.UnsatisfiedHard(); len(bad) > 0 {
		as.log.Warn("pre-solve left hard constraints unsatisfied, baking tracks from seed poses",
			"unsatisfied", residualIDs(bad))
		poses = as.Source.SeedPoses()
		as.SeedBaked = true
	}
	baked, err := track.Bake(as.Source, poses, as.Geometries)
	if err != nil {
		return fmt.Errorf("bake: %w", err)
	}
	as.log.Debug("baked local tracks", "from_seeds", as.SeedBaked)
	as.Graph = baked
	return nil
}

// Frame is the pose set for one sample time.
type Frame struct {
	Time     float64              `json:"t"`
	Poses    map[string]geom.Pose `json:"poses"`
	Fallback bool                 `json:"fallback,omitempty"`
	// Result is the frame's own solve when constraint arguments are
	// animated; nil when the base solve was reused.
	Result *solver.Result `json:"result,omitempty"`
}

// Frame samples the assembly at time t. Animated constraint arguments
// trigger a fresh solve of a graph copy; part motions are then applied on
// top. The assembly itself is not modified.
func (as *Assembly) Frame(t float64) (*Frame, error) {
	g := as.Graph
	f := &Frame{Time: t, Poses: as.Base, Fallback: as.Fallback}

	if motion.HasOverrides(g) {
		og, err := motion.Override(g, t)
		if err != nil {
			return nil, err
		}
		res, err := solver.Solve(og, as.Geometries, as.Options)
		if err != nil {
			return nil, fmt.Errorf("frame t=%g: %w", t, err)
		}
		f.Result = res
		f.Poses = res.Poses
		f.Fallback = false
		if bad := res.UnsatisfiedHard(); len(bad) > 0 {
			as.log.Debug("frame fell back to seed poses", "t", t, "unsatisfied", residualIDs(bad))
			f.Poses = as.Source.SeedPoses()
			f.Fallback = true
		}
		g = og
	}

	poses, err := motion.Apply(g, as.Geometries, f.Poses, t)
	if err != nil {
		return nil, fmt.Errorf("frame t=%g: %w", t, err)
	}
	f.Poses = poses
	return f, nil
}

// Frames samples the assembly from start to end inclusive every step.
func (as *Assembly) Frames(ctx context.Context, start, end, step float64) ([]*Frame, error) {
	n, err := FrameCount(start, end, step, MaxFrames)
	if err != nil {
		return nil, err
	}
	frames := make([]*Frame, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := as.Frame(start + float64(i)*step)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// FrameCount returns how many frames start..end every step covers,
// inclusive of both ends. Counts above limit, or too large to represent,
// are rejected.
func FrameCount(start, end, step float64, limit int) (int, error) {
	if !(step > 0) {
		return 0, fmt.Errorf("frame step must be > 0, got %g", step)
	}
	if !(end >= start) {
		return 0, fmt.Errorf("frame range end %g is before start %g", end, start)
	}
	tooMany := fmt.Errorf("too many frames for %g..%g every %g, limit is %d", start, end, step, limit)
	span := (end - start) / step
	if math.IsInf(span, 0) || math.IsNaN(span) || span > float64(limit) {
		return 0, tooMany
	}
	n := int(span+1e-9) + 1
	if n > limit {
		return 0, tooMany
	}
	return n, nil
}

func residualIDs(rs []solver.Residual) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ConstraintID
	}
	return ids
}
