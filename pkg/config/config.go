// Package config loads jig's settings file. Values missing from the file
// keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/jig/internal/logging"
	"github.com/chazu/jig/pkg/engine"
	"github.com/chazu/jig/pkg/render"
	"github.com/chazu/jig/pkg/solver"
)

// FileNames are the settings files Discover looks for, in order.
var FileNames = []string{"jig.yaml", "jig.yml", "jig.json"}

// Config is the complete jig configuration.
type Config struct {
	Solver  solver.Options `yaml:"solver"`
	Log     LogConfig      `yaml:"log"`
	Preview render.Options `yaml:"preview"`
	Server  ServerConfig   `yaml:"server"`
	Engine  EngineConfig   `yaml:"engine"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ServerConfig contains HTTP service settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	// MaxFrames caps the samples one /v1/frames request may ask for.
	MaxFrames int `yaml:"max_frames"`
}

// EngineConfig contains DSL evaluation settings.
type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Solver:  solver.DefaultOptions(),
		Log:     LogConfig{Level: "info"},
		Preview: render.DefaultOptions(),
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 1 << 20,
			MaxFrames:    1000,
		},
		Engine: EngineConfig{Timeout: engine.EvalTimeout},
	}
}

// Load reads a YAML or JSON settings file over the defaults and validates
// the result. JSON is read with the YAML decoder, which accepts it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

// Discover returns the first settings file from FileNames found in dir.
func Discover(dir string) (string, bool) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Validate checks every section and reports all problems together.
func Validate(cfg *Config) error {
	var errs []error
	if cfg.Solver.MaxIters < 1 {
		errs = append(errs, fmt.Errorf("solver.max_iters must be >= 1, got %d", cfg.Solver.MaxIters))
	}
	if cfg.Solver.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("solver.tolerance must be > 0, got %g", cfg.Solver.Tolerance))
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if cfg.Preview.Width <= 0 || cfg.Preview.Height <= 0 {
		errs = append(errs, fmt.Errorf("preview size must be positive, got %dx%d", cfg.Preview.Width, cfg.Preview.Height))
	}
	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be > 0, got %d", cfg.Server.MaxBodyBytes))
	}
	if cfg.Server.MaxFrames < 1 {
		errs = append(errs, fmt.Errorf("server.max_frames must be >= 1, got %d", cfg.Server.MaxFrames))
	}
	if cfg.Engine.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("engine.timeout must be > 0, got %s", cfg.Engine.Timeout))
	}
	return errors.Join(errs...)
}
