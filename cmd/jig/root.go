package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/jig/internal/logging"
	"github.com/chazu/jig/pkg/assemble"
	"github.com/chazu/jig/pkg/config"
	"github.com/chazu/jig/pkg/engine"
	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/kernel/sdfx"
	"github.com/chazu/jig/pkg/render"
	"github.com/chazu/jig/pkg/shape"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
	maxIters   int
	tolerance  float64
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "jig",
		Short:         "jig places 2D parts by solving constraints between them",
		Long:          `jig loads a scene of parts, tracks, constraints and motions from JSON, YAML or a .jig program, solves every part's pose and samples animation frames.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "settings file (default: jig.yaml, jig.yml or jig.json in the working directory)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.IntVar(&f.maxIters, "max-iters", 0, "solver iteration budget (overrides settings and scene)")
	pf.Float64Var(&f.tolerance, "tolerance", 0, "solver residual tolerance (overrides settings and scene)")

	root.AddCommand(
		newSolveCmd(f),
		newValidateCmd(f),
		newRenderCmd(f),
		newFramesCmd(f),
		newServeCmd(f),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env is everything a subcommand needs after flags are resolved.
type env struct {
	cfg *config.Config
	log *slog.Logger
	// Solver flags win over the scene's own solver hints.
	itersFlag bool
	tolFlag   bool
}

// setup loads settings, applies flag overrides and builds the logger.
func (f *rootFlags) setup(cmd *cobra.Command) (*env, error) {
	cfg := config.Default()
	path := f.configPath
	if path == "" {
		if p, ok := config.Discover("."); ok {
			path = p
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	e := &env{cfg: cfg}
	if f.maxIters != 0 {
		cfg.Solver.MaxIters = f.maxIters
		e.itersFlag = true
	}
	if f.tolerance != 0 {
		cfg.Solver.Tolerance = f.tolerance
		e.tolFlag = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	e.log = logging.NewWriter(cmd.ErrOrStderr(), level)
	render.SetLogger(e.log)
	if path != "" {
		e.log.Debug("loaded settings", "path", path)
	}
	return e, nil
}

// load reads a scene document or program.
func (e *env) load(path string) (*graph.Graph, error) {
	eng := engine.NewEngine()
	eng.Timeout = e.cfg.Engine.Timeout
	g, err := eng.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if e.itersFlag {
		g.Solver.MaxIters = 0
	}
	if e.tolFlag {
		g.Solver.Tolerance = 0
	}
	return g, nil
}

// assembler returns an assembler drawing with the sdfx kernel.
func (e *env) assembler() *assemble.Assembler {
	return assemble.New(shape.NewLibrary(sdfx.New()), e.cfg.Solver, e.log)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
