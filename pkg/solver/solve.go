// Package solver computes a pose for every part of a composite graph by
// iterative relaxation: each round applies every constraint once in
// declaration order, welded rigid groups move in lockstep, and the loop
// stops once a round's largest correction is within tolerance.
//
// A solve is pure. It copies the seed poses, never retains state between
// calls and needs no locking, so independent solves may run concurrently.
package solver

import (
	"fmt"

	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
)

// Solve computes poses for g. Local tracks must already be baked. A
// solve that runs out of rounds is not an error: the result reports
// Converged=false and UnsatisfiedHard lists what failed. Errors are
// reserved for references that cannot be resolved.
func Solve(g *graph.Graph, geoms geom.Geometries, opts Options) (*Result, error) {
	s := newScene(g, g.SeedPoses(), geoms)

	groups, active, err := s.weld(g.Constraints, opts)
	if err != nil {
		return nil, err
	}

	converged := false
	iters := 0
	for range opts.rounds() {
		iters++
		worst := 0.0
		for _, c := range active {
			var before map[string]geom.Pose
			if groups != nil {
				before = s.snapshot(c.Args.Parts())
			}
			r, err := s.apply(c.Args)
			if err != nil {
				return nil, fmt.Errorf("constraint %q: %w", c.ID, err)
			}
			if groups != nil {
				groups.stabilize(changedParts(c.Args.Parts(), before, s.poses), s.poses)
			}
			worst = max(worst, r)
		}
		if worst <= opts.Tolerance {
			converged = true
			break
		}
	}

	res := &Result{Poses: s.poses, Iterations: iters}
	for _, c := range g.Constraints {
		r, detail, err := s.measure(c.Args)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", c.ID, err)
		}
		res.Residuals = append(res.Residuals, Residual{
			ConstraintID: c.ID,
			Type:         c.Kind(),
			Residual:     r,
			Hard:         c.Hard,
			Satisfied:    r <= opts.Tolerance,
			Detail:       detail,
		})
	}
	res.Converged = converged || len(res.UnsatisfiedHard()) == 0
	return res, nil
}

// changedParts returns, in order, the parts whose pose moved.
func changedParts(ids []string, before, after map[string]geom.Pose) []string {
	var out []string
	for _, id := range ids {
		prev, ok := before[id]
		if ok && geom.Changed(prev, after[id], geom.Epsilon) {
			out = append(out, id)
		}
	}
	return out
}

// Place applies one on_track_pose to poses in place, outside any solve.
// Motions use it to slide a part along a track on top of solved poses.
// It returns the distance left between anchor and target.
func Place(g *graph.Graph, geoms geom.Geometries, poses map[string]geom.Pose, o graph.OnTrackPose) (float64, error) {
	s := newScene(g, poses, geoms)
	return s.applyOnTrackPose(o)
}
