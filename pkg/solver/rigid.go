package solver

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
)

// template is a member's pose relative to its group leader, captured once
// when the group is welded.
type template struct {
	leader      string
	local       v2.Vec  // offset in the leader's unrotated, unscaled frame
	thetaOffset float64 // member theta minus leader theta, normalized
	scaleRatio  float64 // member scale over leader scale
}

// rigidGroups holds every welded group of one solve call.
type rigidGroups struct {
	members   map[string][]string // leader -> sorted members, leader first
	templates map[string]template // part -> template
}

// weld relaxes the rigid attaches on their own, unions their parts into
// groups led by the smallest id, and records each member's template. It
// returns the groups and the constraints left for the main loop.
func (s *scene) weld(constraints []graph.Constraint, opts Options) (*rigidGroups, []graph.Constraint, error) {
	var (
		rigid  []graph.Attach
		active []graph.Constraint
	)
	for _, c := range constraints {
		a, ok := c.Args.(graph.Attach)
		if ok && a.Rigid && s.hasPart(a.PartA) && s.hasPart(a.PartB) {
			rigid = append(rigid, a)
			continue
		}
		active = append(active, c)
	}
	if len(rigid) == 0 {
		return nil, active, nil
	}

	for range opts.rounds() {
		worst := 0.0
		for _, a := range rigid {
			r, err := s.applyAttach(a)
			if err != nil {
				return nil, nil, err
			}
			worst = max(worst, r)
		}
		if worst <= opts.Tolerance {
			break
		}
	}

	uf := newUnionFind()
	for _, a := range rigid {
		uf.union(a.PartA, a.PartB)
	}

	groups := &rigidGroups{
		members:   make(map[string][]string),
		templates: make(map[string]template),
	}
	for _, members := range uf.sets() {
		leader := members[0]
		lp := s.poses[leader]
		scale := lp.Scale
		if math.Abs(scale) <= geom.Epsilon {
			scale = 1
		}
		groups.members[leader] = members
		for _, id := range members {
			p := s.poses[id]
			rel := geom.Rotate(p.Position().Sub(lp.Position()), -lp.Theta)
			groups.templates[id] = template{
				leader:      leader,
				local:       rel.MulScalar(1 / scale),
				thetaOffset: geom.NormalizeAngle(p.Theta - lp.Theta),
				scaleRatio:  p.Scale / scale,
			}
		}
	}
	return groups, active, nil
}

func (s *scene) hasPart(id string) bool {
	_, posed := s.poses[id]
	_, drawn := s.geoms[id]
	return posed && drawn
}

// stabilize re-stamps every group touched by the changed parts. The first
// changed member of a group drives it.
func (rg *rigidGroups) stabilize(changed []string, poses map[string]geom.Pose) {
	seen := make(map[string]bool)
	for _, id := range changed {
		t, ok := rg.templates[id]
		if !ok || seen[t.leader] {
			continue
		}
		rg.rebase(id, poses)
		seen[t.leader] = true
	}
}

// rebase derives the leader pose implied by the driver's current pose and
// template, then re-stamps every member from the leader.
func (rg *rigidGroups) rebase(driver string, poses map[string]geom.Pose) {
	dt := rg.templates[driver]
	lp, ok := poses[dt.leader]
	if !ok {
		return
	}
	dp := poses[driver]

	if math.Abs(dt.scaleRatio) > geom.Epsilon {
		lp.Scale = dp.Scale / dt.scaleRatio
	}
	lp.Theta = dp.Theta - dt.thetaOffset
	lp.SetPosition(dp.Position().Sub(geom.Rotate(dt.local.MulScalar(lp.Scale), lp.Theta)))
	poses[dt.leader] = lp

	for _, id := range rg.members[dt.leader] {
		mt := rg.templates[id]
		mp, ok := poses[id]
		if !ok {
			continue
		}
		mp.SetPosition(lp.Position().Add(geom.Rotate(mt.local.MulScalar(lp.Scale), lp.Theta)))
		mp.Theta = lp.Theta + mt.thetaOffset
		mp.Scale = lp.Scale * mt.scaleRatio
		poses[id] = mp
	}
}

// ---------------------------------------------------------------------------
// Union-find
// ---------------------------------------------------------------------------

type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
	}
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for x != root {
		next := u.parent[x]
		u.parent[x] = root
		x = next
	}
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// sets returns every set sorted, smallest id first.
func (u *unionFind) sets() [][]string {
	byRoot := make(map[string][]string)
	for _, x := range sortStrings(keys(u.parent)) {
		r := u.find(x)
		byRoot[r] = append(byRoot[r], x)
	}
	out := make([][]string, 0, len(byRoot))
	for _, members := range byRoot {
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortStrings(s []string) []string {
	sort.Strings(s)
	return s
}

func sortedIDs(m map[string]geom.Pose) []string {
	return sortStrings(keys(m))
}
