package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/jig/pkg/assemble"
)

func example(name string) string {
	return filepath.Join("..", "..", "examples", name)
}

// run executes the command tree with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestSolveCmd(t *testing.T) {
	out, _, err := run(t, "solve", example("incline.yaml"))
	require.NoError(t, err)

	var sum assemble.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.True(t, sum.Converged)
	assert.False(t, sum.Fallback)
	assert.InDelta(t, -1.4, sum.Poses["ramp"].Y, 1e-6)
}

func TestSolveCmd_Program(t *testing.T) {
	out, _, err := run(t, "solve", example("hinge.jig"))
	require.NoError(t, err)

	var sum assemble.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Len(t, sum.Poses, 3)
}

func TestSolveCmd_Strict(t *testing.T) {
	dir := t.TempDir()
	scene := filepath.Join(dir, "conflict.yaml")
	require.NoError(t, os.WriteFile(scene, []byte(`
parts:
  - {id: a, type: block, seed_pose: {x: 0, y: 0}}
  - {id: b, type: block, seed_pose: {x: 5, y: 0}}
  - {id: c, type: block, seed_pose: {x: -5, y: 0}}
constraints:
  - {id: to_b, type: attach, args: {part_a: a, part_b: b}}
  - {id: to_c, type: attach, args: {part_a: a, part_b: c}}
`), 0o644))

	_, _, err := run(t, "solve", "--max-iters", "5", scene)
	assert.NoError(t, err, "fallback alone is not a failure")

	_, _, err = run(t, "solve", "--strict", "--max-iters", "5", scene)
	assert.ErrorContains(t, err, "hard constraints unsatisfied")
}

func TestSolveCmd_Errors(t *testing.T) {
	_, _, err := run(t, "solve")
	assert.Error(t, err, "scene argument is required")

	_, _, err = run(t, "solve", example("missing.yaml"))
	assert.Error(t, err)

	_, _, err = run(t, "solve", "--log-level", "loud", example("incline.yaml"))
	assert.ErrorContains(t, err, "log.level")
}

func TestValidateCmd(t *testing.T) {
	out, _, err := run(t, "validate", example("lamp.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (5 parts")
}

func TestValidateCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	scene := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(scene, []byte(`
parts: [{id: a, type: block}, {id: b, type: block}]
constraints: [{id: c, type: attach, args: {part_a: a, anchor_a: nose, part_b: b}}]
`), 0o644))

	out, _, err := run(t, "validate", scene)
	assert.ErrorContains(t, err, "1 errors")
	assert.Contains(t, out, "nose")

	require.NoError(t, os.WriteFile(scene, []byte(`parts: [{id: a, type: block}, {id: a, type: block}]`), 0o644))
	out, _, err = run(t, "validate", scene)
	assert.Error(t, err)
	assert.Contains(t, out, "[error]")
}

func TestFramesCmd(t *testing.T) {
	out, _, err := run(t, "frames", "--step", "1", example("schedule.yaml"))
	require.NoError(t, err)

	var resp struct {
		Frames []assemble.Frame `json:"frames"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Frames, 5, "keyframes span 0 to 4")
	assert.Equal(t, 4.0, resp.Frames[4].Time)
}

func TestFramesCmd_Range(t *testing.T) {
	out, _, err := run(t, "frames", "--from", "1", "--to", "2", "--step", "0.5", example("incline.yaml"))
	require.NoError(t, err)

	var resp struct {
		Frames []assemble.Frame `json:"frames"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Frames, 3)
	assert.Equal(t, 1.0, resp.Frames[0].Time)

	_, _, err = run(t, "frames", "--step", "0", example("incline.yaml"))
	assert.ErrorContains(t, err, "step must be > 0")

	_, _, err = run(t, "frames", "--from", "0", "--to", "1e300", "--step", "1e-300", example("incline.yaml"))
	assert.ErrorContains(t, err, "too many frames")
}

func TestRenderCmd(t *testing.T) {
	out := filepath.Join(t.TempDir(), "lamp.png")
	_, _, err := run(t, "render", example("lamp.json"), "-o", out, "--width", "160", "--height", "120")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: debug\n"), 0o644))

	_, stderr, err := run(t, "--config", cfgPath, "solve", example("lamp.json"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "loaded settings")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("solver:\n  max_iters: 0\n"), 0o644))
	_, _, err = run(t, "--config", bad, "solve", example("lamp.json"))
	assert.ErrorContains(t, err, "max_iters")
}
