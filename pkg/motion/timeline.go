// Package motion turns keyframed timelines into per-frame inputs for the
// solver. constraint_arg motions override constraint arguments before a
// frame's solve; on_track and on_track_schedule motions slide parts along
// tracks on top of the solved poses.
package motion

import (
	"sort"

	"github.com/chazu/jig/pkg/graph"
)

// Sample evaluates a timeline at time t for one value key. Keyframes are
// taken in time order and interpolated linearly; times outside the
// timeline clamp to the first or last keyframe. An empty timeline is 0,
// as is a keyframe that does not set key. When several keyframes share a
// time, sampling exactly at that time yields the last of them, except at
// the earliest time, where the first one holds.
func Sample(timeline []graph.Keyframe, key string, t float64) float64 {
	if len(timeline) == 0 {
		return 0
	}
	kfs := append([]graph.Keyframe(nil), timeline...)
	sort.SliceStable(kfs, func(i, j int) bool { return kfs[i].T < kfs[j].T })
	if t <= kfs[0].T {
		return kfs[0].Values[key]
	}

	i := sort.Search(len(kfs), func(i int) bool { return kfs[i].T > t })
	if i == len(kfs) {
		return kfs[len(kfs)-1].Values[key]
	}
	k0, k1 := kfs[i-1], kfs[i]
	v0, v1 := k0.Values[key], k1.Values[key]
	span := k1.T - k0.T
	if span <= 1e-9 {
		return v1
	}
	return v0 + (v1-v0)*(t-k0.T)/span
}

// Span returns the earliest and latest keyframe time over every motion
// in g. ok is false when no motion has a keyframe.
func Span(g *graph.Graph) (start, end float64, ok bool) {
	for _, m := range g.Motions {
		for _, kf := range m.Timeline {
			if !ok {
				start, end, ok = kf.T, kf.T, true
				continue
			}
			start = min(start, kf.T)
			end = max(end, kf.T)
		}
	}
	return start, end, ok
}
