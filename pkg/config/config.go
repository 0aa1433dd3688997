// Package config loads the optional fiber.yaml file that tunes the work
// loop, event props and diagnostics.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/fiber/pkg/core"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/idle"
)

// FileName is the configuration file looked up by LoadOptional.
const FileName = "fiber.yaml"

// CurrentVersion is the configuration format written by default.
const CurrentVersion = "v1.0.0"

// ErrUnsupportedVersion is returned when version is not a valid v1 semver.
var ErrUnsupportedVersion = errors.New("config: unsupported version")

// Config represents the optional fiber.yaml configuration.
type Config struct {
	Version   string          `yaml:"version,omitempty"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Events    EventsConfig    `yaml:"events"`
	Debug     DebugConfig     `yaml:"debug"`
}

// SchedulerConfig contains work loop settings.
type SchedulerConfig struct {
	YieldThreshold   time.Duration `yaml:"yieldThreshold,omitempty"`
	FrameInterval    time.Duration `yaml:"frameInterval,omitempty"`
	MaxUnitsPerSlice int           `yaml:"maxUnitsPerSlice,omitempty"`
}

// EventsConfig controls which props are treated as event handlers.
type EventsConfig struct {
	Prefix string `yaml:"prefix,omitempty"`
}

// DebugConfig contains diagnostics switches.
type DebugConfig struct {
	Verbose bool `yaml:"verbose,omitempty"`
	Trace   bool `yaml:"trace,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root string
	// ModulePath and AppName are filled in when dir holds a go.mod.
	ModulePath string
	AppName    string

	Version          string
	YieldThreshold   time.Duration
	FrameInterval    time.Duration
	MaxUnitsPerSlice int
	EventPrefix      string
	Verbose          bool
	Trace            bool
}

// Default returns the configuration used when no fiber.yaml exists.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Scheduler: SchedulerConfig{
			YieldThreshold: core.DefaultYieldThreshold,
			FrameInterval:  idle.DefaultFrameInterval,
		},
		Events: EventsConfig{Prefix: core.DefaultEventPrefix},
	}
}

// LoadOptional reads fiber.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, configError("config.LoadOptional", path, fmt.Errorf("failed to read %s: %w", FileName, err))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, configError("config.LoadOptional", path, fmt.Errorf("failed to parse %s: %w", FileName, err))
	}

	return &cfg, nil
}

// Resolve loads fiber.yaml (if present), fills defaults and validates the
// result.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	res, err := cfg.Resolve()
	if err != nil {
		return nil, configError("config.Resolve", filepath.Join(dir, FileName), err)
	}
	res.Root = dir

	if path, ok := modulePath(dir); ok {
		res.ModulePath = path
		res.AppName = appName(path, dir)
	}
	return res, nil
}

// Resolve fills defaults into c and validates it.
func (c *Config) Resolve() (*Resolved, error) {
	def := Default()

	version := strings.TrimSpace(c.Version)
	if version == "" {
		version = def.Version
	}
	if !semver.IsValid(version) || semver.Major(version) != "v1" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}

	s := c.Scheduler
	switch {
	case s.YieldThreshold < 0:
		return nil, fmt.Errorf("scheduler.yieldThreshold must not be negative (got %s)", s.YieldThreshold)
	case s.FrameInterval < 0:
		return nil, fmt.Errorf("scheduler.frameInterval must not be negative (got %s)", s.FrameInterval)
	case s.MaxUnitsPerSlice < 0:
		return nil, fmt.Errorf("scheduler.maxUnitsPerSlice must not be negative (got %d)", s.MaxUnitsPerSlice)
	}
	if s.YieldThreshold == 0 {
		s.YieldThreshold = def.Scheduler.YieldThreshold
	}
	if s.FrameInterval == 0 {
		s.FrameInterval = def.Scheduler.FrameInterval
	}

	prefix := strings.TrimSpace(c.Events.Prefix)
	if prefix == "" {
		prefix = def.Events.Prefix
	}
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}

	return &Resolved{
		Version:          version,
		YieldThreshold:   s.YieldThreshold,
		FrameInterval:    s.FrameInterval,
		MaxUnitsPerSlice: s.MaxUnitsPerSlice,
		EventPrefix:      prefix,
		Verbose:          c.Debug.Verbose,
		Trace:            c.Debug.Trace,
	}, nil
}

// RootOptions converts the resolved settings into root options. Callbacks
// are left for the caller to fill in.
func (r *Resolved) RootOptions() core.Options {
	return core.Options{
		YieldThreshold:   r.YieldThreshold,
		MaxUnitsPerSlice: r.MaxUnitsPerSlice,
		EventPrefix:      r.EventPrefix,
	}
}

// LoopOptions converts the resolved settings into idle loop options.
func (r *Resolved) LoopOptions() idle.LoopOptions {
	return idle.LoopOptions{FrameInterval: r.FrameInterval}
}

// Marshal renders the resolved settings back into fiber.yaml form.
func (r *Resolved) Marshal() ([]byte, error) {
	cfg := Config{
		Version: r.Version,
		Scheduler: SchedulerConfig{
			YieldThreshold:   r.YieldThreshold,
			FrameInterval:    r.FrameInterval,
			MaxUnitsPerSlice: r.MaxUnitsPerSlice,
		},
		Events: EventsConfig{Prefix: r.EventPrefix},
		Debug:  DebugConfig{Verbose: r.Verbose, Trace: r.Trace},
	}
	return yaml.Marshal(&cfg)
}

// FindProjectRoot walks up from the current directory to the nearest
// directory holding fiber.yaml or go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s or go.mod found", FileName)
		}
		dir = parent
	}
}

func modulePath(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", false
	}
	path := modfile.ModulePath(data)
	return path, path != ""
}

func appName(modulePath, dir string) string {
	base := filepath.Base(dir)
	modName, _, ok := module.SplitPathVersion(modulePath)
	if ok {
		parts := strings.Split(modName, "/")
		if len(parts) > 0 && parts[len(parts)-1] != "" {
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "fiber_app"
	}
	return base
}

func validatePrefix(prefix string) error {
	for _, r := range prefix {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return fmt.Errorf("events.prefix may only contain letters (got %q)", prefix)
		}
	}
	return nil
}

func configError(op, path string, err error) error {
	return &fibererrors.FiberError{
		Op:   op,
		Kind: fibererrors.KindConfig,
		Path: path,
		Err:  err,
	}
}
