package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/jig/pkg/assemble"
	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/render"
	"github.com/chazu/jig/pkg/shape"
	"github.com/chazu/jig/pkg/tessellate"
)

// ---------------------------------------------------------------------------
// POST /v1/solve
// ---------------------------------------------------------------------------

// SolveResponse is the solved base pose set of a document.
type SolveResponse = assemble.Summary

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	g, err := graph.Parse(body, requestFormat(r))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid document", err)
		return
	}
	as, err := s.build(r.Context(), g)
	if err != nil {
		s.log.Warn("solve failed", "err", err)
		s.writeError(w, http.StatusUnprocessableEntity, "solve failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, as.Summary())
}

// ---------------------------------------------------------------------------
// POST /v1/validate
// ---------------------------------------------------------------------------

// Issue is one validation finding.
type Issue struct {
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

// ValidateResponse lists blocking errors and advisory warnings. A document
// that fails to load is reported here rather than as a request error.
type ValidateResponse struct {
	OK       bool    `json:"ok"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func issues(vs []graph.ValidationError) []Issue {
	out := make([]Issue, 0, len(vs))
	for _, v := range vs {
		out = append(out, Issue{Ref: v.Ref, Message: v.Message})
	}
	return out
}

func errorIssues(err error) []Issue {
	var out []Issue
	for _, e := range graph.Errors(err) {
		out = append(out, Issue{Message: e.Error()})
	}
	return out
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	resp := ValidateResponse{Errors: []Issue{}, Warnings: []Issue{}}

	g, err := graph.Parse(body, requestFormat(r))
	if err != nil {
		resp.Errors = errorIssues(err)
		s.writeJSON(w, http.StatusOK, resp)
		return
	}
	_, geoms, err := shape.DrawAll(s.library, g)
	if err != nil {
		resp.Errors = append(resp.Errors, errorIssues(err)...)
		geoms = nil
	}
	result := graph.ValidateAll(g, geoms)
	resp.Errors = append(resp.Errors, issues(result.Errors)...)
	resp.Warnings = issues(result.Warnings)
	resp.OK = len(resp.Errors) == 0
	s.writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// POST /v1/frames
// ---------------------------------------------------------------------------

// FramesRequest carries a JSON document and the sample times, either as an
// explicit list or as a from/to/step range.
type FramesRequest struct {
	Document json.RawMessage `json:"document"`
	Times    []float64       `json:"times,omitempty"`
	From     float64         `json:"from"`
	To       float64         `json:"to"`
	Step     float64         `json:"step"`
}

// FramesResponse holds one pose set per requested time.
type FramesResponse struct {
	Fallback bool              `json:"fallback"`
	Frames   []*assemble.Frame `json:"frames"`
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req FramesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Document) == 0 {
		s.writeError(w, http.StatusBadRequest, "document is required", nil)
		return
	}
	times, err := req.times(s.cfg.MaxFrames)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid frame range", err)
		return
	}
	g, err := graph.Parse(req.Document, graph.FormatJSON)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid document", err)
		return
	}
	as, err := s.build(r.Context(), g)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "solve failed", err)
		return
	}

	resp := FramesResponse{Fallback: as.Fallback, Frames: make([]*assemble.Frame, 0, len(times))}
	for _, t := range times {
		if err := r.Context().Err(); err != nil {
			return
		}
		f, err := as.Frame(t)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, "frame failed", err)
			return
		}
		if f.Fallback && f.Result != nil {
			s.metrics.Fallbacks.Inc()
		}
		resp.Frames = append(resp.Frames, f)
	}
	s.metrics.Frames.Add(float64(len(resp.Frames)))
	s.writeJSON(w, http.StatusOK, resp)
}

// times expands the request into sample times, capped at limit.
func (req FramesRequest) times(limit int) ([]float64, error) {
	if len(req.Times) > 0 {
		if len(req.Times) > limit {
			return nil, fmt.Errorf("%d frames requested, limit is %d", len(req.Times), limit)
		}
		return req.Times, nil
	}
	n, err := assemble.FrameCount(req.From, req.To, req.Step, limit)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = req.From + float64(i)*req.Step
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// POST /v1/evaluate
// ---------------------------------------------------------------------------

// EvaluateRequest carries scene program source and the time to draw.
type EvaluateRequest struct {
	Source string  `json:"source"`
	Time   float64 `json:"t"`
}

// Message is a positioned diagnostic for an editor.
type Message struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// PartOutline is one placed part, ready to draw.
type PartOutline struct {
	Part  string     `json:"part"`
	Color string     `json:"color"`
	Loops [][]v2.Vec `json:"loops"`
}

// TrackPath is one sampled track.
type TrackPath struct {
	Track  string   `json:"track"`
	Points []v2.Vec `json:"points"`
}

// EvaluateResponse is everything an editor preview needs for one frame.
// Errors leave Parts and Tracks empty.
type EvaluateResponse struct {
	Parts    []PartOutline `json:"parts"`
	Tracks   []TrackPath   `json:"tracks"`
	Errors   []Message     `json:"errors"`
	Warnings []Message     `json:"warnings"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req EvaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.evaluate(r, req))
}

// evaluate runs source through the engine, solves the scene and outlines
// the frame at req.Time. Every failure is reported in the response.
func (s *Server) evaluate(r *http.Request, req EvaluateRequest) EvaluateResponse {
	resp := EvaluateResponse{
		Parts:    []PartOutline{},
		Tracks:   []TrackPath{},
		Errors:   []Message{},
		Warnings: []Message{},
	}
	fail := func(msg string) EvaluateResponse {
		resp.Errors = append(resp.Errors, Message{Message: msg})
		return resp
	}

	s.evalMu.Lock()
	g, evalErrs, err := s.engine.Evaluate(req.Source)
	s.evalMu.Unlock()
	if err != nil {
		s.log.Warn("evaluate fatal error", "err", err)
		return fail(err.Error())
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			resp.Errors = append(resp.Errors, Message{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return resp
	}
	for _, v := range graph.Validate(g) {
		if v.Severity == graph.SeverityWarning {
			resp.Warnings = append(resp.Warnings, Message{Message: v.Error()})
		}
	}

	as, err := s.build(r.Context(), g)
	if err != nil {
		return fail(err.Error())
	}
	if as.Fallback {
		resp.Warnings = append(resp.Warnings, Message{Message: "hard constraints unsatisfied, showing seed poses"})
	}
	f, err := as.Frame(req.Time)
	if err != nil {
		return fail(err.Error())
	}
	frame, err := tessellate.Tessellate(as.Graph, as.Drawn, f.Poses, s.kernel, tessellate.Options{})
	if err != nil {
		s.log.Warn("tessellate error", "err", err)
		return fail("tessellation failed: " + err.Error())
	}

	colors := render.PartColors(g)
	for _, o := range frame.Parts {
		resp.Parts = append(resp.Parts, PartOutline{Part: o.PartName, Color: colors[o.PartName], Loops: o.Loops})
	}
	for _, p := range frame.Tracks {
		resp.Tracks = append(resp.Tracks, TrackPath{Track: p.TrackID, Points: p.Points})
	}
	return resp
}
