package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	g, evalErrs, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}

func TestEvaluateWhitespaceOnly(t *testing.T) {
	eng := NewEngine()

	g, evalErrs, err := eng.Evaluate("   \n\t  \n  ")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if g == nil || g.NodeCount() != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	// Plain arithmetic builds no scene entries.
	g, evalErrs, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	g, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if g != nil {
		t.Error("expected nil graph on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors for unbalanced parens")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	_, evalErrs, err := eng.Evaluate("(undefined_function_xyz 1 2)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors for undefined function")
	}
}

func TestEvaluateSceneErrorsAreEvalErrors(t *testing.T) {
	eng := NewEngine()

	source := `
(defpart "a" :block)
(attach "c" :part-a "a" :part-b "ghost")
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if g != nil {
		t.Error("expected nil graph when the scene is invalid")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error for the unknown part")
	}
	if !strings.Contains(evalErrs[0].Message, "ghost") {
		t.Errorf("error should name the missing part, got %q", evalErrs[0].Message)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 3, Message: "bad thing"}
	if got := e.Error(); got != "line 3: bad thing" {
		t.Errorf("Error() = %q", got)
	}
	e = EvalError{Message: "no line"}
	if got := e.Error(); got != "no line" {
		t.Errorf("Error() = %q", got)
	}

	var err error = EvalErrors{{Line: 1, Message: "a"}, {Message: "b"}}
	if got := err.Error(); got != "line 1: a; b" {
		t.Errorf("EvalErrors.Error() = %q", got)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	source := `(defpart "a" :block :at (vec2 1 2))`

	for i := 0; i < 5; i++ {
		g, evalErrs, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if g.NodeCount() != 1 {
			t.Errorf("iteration %d: expected 1 node, got %d", i, g.NodeCount())
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// The interpreter offers no reliable infinite loop under the sandbox,
	// so exercise the timeout plumbing directly with a channel that never
	// sends.
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult)

	_, _, err := waitWithTimeout(ch, 1, &mu, &gen, 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error message, got: %v", err)
	}
}

func TestEngineTimeoutDefault(t *testing.T) {
	if got := NewEngine().timeout(); got != EvalTimeout {
		t.Errorf("default timeout = %s, want %s", got, EvalTimeout)
	}
	eng := &Engine{Timeout: time.Second}
	if got := eng.timeout(); got != time.Second {
		t.Errorf("timeout = %s, want 1s", got)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2) // Current generation is 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	// Pass generation 1 (stale).
	_, _, err := waitWithTimeout(ch, 1, &mu, &gen, time.Second)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	eng := NewEngine()

	g, err := eng.LoadFile(filepath.Join("..", "..", "examples", "hinge.jig"))
	if err != nil {
		t.Fatalf("LoadFile(.jig): %v", err)
	}
	if g.Part("lid") == nil {
		t.Error("expected part lid from the .jig scene")
	}

	g, err = eng.LoadFile(filepath.Join("..", "..", "examples", "incline.yaml"))
	if err != nil {
		t.Fatalf("LoadFile(.yaml): %v", err)
	}
	if g.Part("ramp") == nil {
		t.Error("expected part ramp from the yaml scene")
	}
}

func TestLoadFileReportsEvalErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jig")
	if err := os.WriteFile(path, []byte(`(defpart "a" :block :at (vec2 1))`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewEngine().LoadFile(path)
	if err == nil {
		t.Fatal("expected an error")
	}
	var evalErrs EvalErrors
	if !errors.As(err, &evalErrs) {
		t.Fatalf("expected EvalErrors, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "broken.jig") {
		t.Errorf("error should name the file, got %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 7: bad keyword",
			wantLine: 7,
			wantMsg:  "bad keyword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }

func TestIsProgram(t *testing.T) {
	for path, want := range map[string]bool{
		"scene.jig":    true,
		"scene.LISP":   true,
		"scene.yaml":   false,
		"scene.json":   false,
		"dir.jig/file": false,
	} {
		if got := IsProgram(path); got != want {
			t.Errorf("IsProgram(%q) = %v, want %v", path, got, want)
		}
	}
}
