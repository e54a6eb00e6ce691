package solver

import (
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/jig/pkg/geom"
	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/track"
)

// scene is the mutable pose arena for one solve call plus the read-only
// data the evaluators look things up in.
type scene struct {
	poses  map[string]geom.Pose
	geoms  geom.Geometries
	tracks map[string]graph.Track
}

func newScene(g *graph.Graph, poses map[string]geom.Pose, geoms geom.Geometries) *scene {
	tracks := make(map[string]graph.Track, len(g.Tracks))
	for _, t := range g.Tracks {
		tracks[t.ID] = t
	}
	return &scene{poses: poses, geoms: geoms, tracks: tracks}
}

func (s *scene) pose(partID string) (geom.Pose, error) {
	p, ok := s.poses[partID]
	if !ok {
		return geom.Pose{}, &graph.ReferenceError{Kind: "part", ID: partID, Available: sortedIDs(s.poses)}
	}
	return p, nil
}

// local returns the local offset of a part's anchor.
func (s *scene) local(partID, anchor string) (v2.Vec, error) {
	pg, ok := s.geoms[partID]
	if !ok {
		return v2.Vec{}, &graph.ReferenceError{Kind: "part", ID: partID, Available: sortStrings(keys(s.geoms))}
	}
	return pg.Anchor(anchor)
}

// world returns a part's anchor in world space under its current pose.
func (s *scene) world(partID, anchor string) (v2.Vec, error) {
	p, err := s.pose(partID)
	if err != nil {
		return v2.Vec{}, err
	}
	local, err := s.local(partID, anchor)
	if err != nil {
		return v2.Vec{}, err
	}
	return geom.AnchorWorld(p, local), nil
}

// shift translates a part's pose.
func (s *scene) shift(partID string, d v2.Vec) {
	p := s.poses[partID]
	p.Shift(d)
	s.poses[partID] = p
}

// track resolves a track to its world form under the current poses, so
// part-anchored world tracks follow their part.
func (s *scene) track(id string) (graph.TrackData, error) {
	t, ok := s.tracks[id]
	if !ok {
		ids := make([]string, 0, len(s.tracks))
		for tid := range s.tracks {
			ids = append(ids, tid)
		}
		return nil, &graph.ReferenceError{Kind: "track", ID: id, Available: sortStrings(ids)}
	}
	return track.Resolve(t, s.poses, s.geoms)
}

// snapshot copies the poses of the given parts.
func (s *scene) snapshot(ids []string) map[string]geom.Pose {
	out := make(map[string]geom.Pose, len(ids))
	for _, id := range ids {
		if p, ok := s.poses[id]; ok {
			out[id] = p
		}
	}
	return out
}
