// Package engine composes independently generated services into one workspace: it assigns
// service identities, resolves the entry point, merges environment contracts and emits the
// runtime configuration, regenerating an existing workspace instead of replacing it.
//
// An Engine is not safe for concurrent use; generation passes against the same workspace
// must be serialized by the caller.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/codex-k8s/meshgen/internal/config"
	"github.com/codex-k8s/meshgen/internal/env"
	"github.com/codex-k8s/meshgen/internal/generator"
	"github.com/codex-k8s/meshgen/internal/logging"
	"github.com/codex-k8s/meshgen/internal/names"
)

const (
	// DefaultPort is the server port of fresh workspaces.
	DefaultPort = 3042
	// DefaultLogLevel is the server log level of fresh workspaces.
	DefaultLogLevel = "info"
	// DefaultHostname is the server binding hostname.
	DefaultHostname = "0.0.0.0"
	// DefaultVersion is the schema version written into configuration files.
	DefaultVersion = "1.0.0"
)

// State is the lifecycle state of a generation pass.
type State int

// Lifecycle states in the order a pass moves through them.
const (
	StateEmpty State = iota
	StateServicesRegistered
	StateDirectoriesAssigned
	StateProbed
	StatePrepared
	StateWritten
	StatePostInstalled
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateServicesRegistered:
		return "SERVICES_REGISTERED"
	case StateDirectoriesAssigned:
		return "DIRECTORIES_ASSIGNED"
	case StateProbed:
		return "PROBED"
	case StatePrepared:
		return "PREPARED"
	case StateWritten:
		return "WRITTEN"
	case StatePostInstalled:
		return "POST_INSTALLED"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// NameSource synthesizes service names for registrations without one.
type NameSource interface {
	Next() string
}

// Options configures an Engine.
type Options struct {
	// TargetDirectory is the workspace root.
	TargetDirectory string
	// Name is the workspace name used in the README.
	Name string
	// Version is the schema version; empty means DefaultVersion.
	Version string
	// Port is the server port of fresh workspaces; zero means DefaultPort.
	Port int
	// LogLevel is the server log level; empty means DefaultLogLevel.
	LogLevel string
	// StaticTyping is propagated to every service before it is prepared.
	StaticTyping bool
	// AutoloadExclude overrides config.DefaultAutoloadExclude.
	AutoloadExclude []string
	// Env holds caller-supplied variables available to existing-configuration placeholders.
	Env env.Vars
	// AllowEnv filters Env; nil means config.DefaultAllow.
	AllowEnv config.AllowFunc
	// Names synthesizes service names; nil means a clock-seeded names.Generator.
	Names NameSource
	// Logger receives progress logs; nil discards them.
	Logger *slog.Logger
}

// PrepareResult summarizes a prepared generation pass.
type PrepareResult struct {
	// TargetDirectory is the workspace root.
	TargetDirectory string
	// EntryPoint is the resolved entry-point service.
	EntryPoint string
	// Env is the aggregated workspace environment.
	Env *env.Ordered
	// Regenerated is set when an existing configuration was found.
	Regenerated bool
	// ConfigFile is the configuration file name relative to the workspace root.
	ConfigFile string
}

// Engine is the composition engine. It exclusively owns its registered services.
type Engine struct {
	opts   Options
	logger *slog.Logger

	services   []serviceEntry
	entryPoint string
	state      State

	probed    bool
	recovered *config.Recovered

	files      generator.FileSet
	env        *env.Ordered
	configFile string
}

// New constructs an Engine for the workspace described by opts.
func New(opts Options) (*Engine, error) {
	if strings.TrimSpace(opts.TargetDirectory) == "" {
		return nil, fmt.Errorf("target directory is empty")
	}
	if opts.Port < 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", opts.Port)
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if strings.TrimSpace(opts.LogLevel) == "" {
		opts.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(opts.Version) == "" {
		opts.Version = DefaultVersion
	}
	if opts.Names == nil {
		opts.Names = names.NewRandom()
	}
	return &Engine{
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger),
	}, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// TargetDirectory returns the workspace root.
func (e *Engine) TargetDirectory() string {
	return e.opts.TargetDirectory
}

// EntryPoint returns the resolved entry-point name, empty when unresolved.
func (e *Engine) EntryPoint() string {
	return e.entryPoint
}

// SetStaticTyping sets the workspace-wide static typing toggle propagated to every service.
func (e *Engine) SetStaticTyping(enabled bool) {
	e.opts.StaticTyping = enabled
}

// StaticTyping returns the workspace-wide static typing toggle.
func (e *Engine) StaticTyping() bool {
	return e.opts.StaticTyping
}

// Env returns a copy of the aggregated environment; nil before Prepare.
func (e *Engine) Env() *env.Ordered {
	if e.env == nil {
		return nil
	}
	return e.env.Clone()
}

// Files returns the workspace-root files prepared by the engine itself.
func (e *Engine) Files() []generator.File {
	return e.files.Files()
}

// Recovered returns the state recovered from an existing configuration, nil in fresh mode
// or before the probe ran.
func (e *Engine) Recovered() *config.Recovered {
	return e.recovered
}

// Probe runs the existing-configuration probe. It reads the workspace at most once per
// generation pass and returns the memoized result afterwards.
func (e *Engine) Probe() (*config.Recovered, error) {
	if e.probed {
		return e.recovered, nil
	}
	rec, err := config.Probe(e.opts.TargetDirectory, config.ProbeOptions{
		Env:   e.opts.Env,
		Allow: e.opts.AllowEnv,
	})
	if err != nil {
		return nil, err
	}
	e.probed = true
	e.recovered = rec
	if rec != nil {
		e.logger.Info("found existing workspace config", "path", rec.Path, "entrypoint", rec.EntryPoint, "port", rec.Port)
	} else {
		e.logger.Debug("no existing workspace config", "dir", e.opts.TargetDirectory)
	}
	return rec, nil
}

// Prepare resolves directories, the entry point and the environment, prepares every
// service in registration order and renders the workspace files in memory.
func (e *Engine) Prepare(ctx context.Context) (PrepareResult, error) {
	if e.state > StateServicesRegistered {
		return PrepareResult{}, &StateError{Op: "prepare", State: e.state}
	}

	if err := e.assignDirectories(); err != nil {
		return PrepareResult{}, err
	}
	e.state = StateDirectoriesAssigned

	rec, err := e.Probe()
	if err != nil {
		return PrepareResult{}, err
	}
	e.state = StateProbed

	port := strconv.Itoa(e.opts.Port)
	if rec != nil {
		if rec.EntryPoint != "" {
			if e.entryPoint != "" && rec.EntryPoint != e.entryPoint {
				e.logger.Warn("keeping entry point of existing workspace", "existing", rec.EntryPoint, "requested", e.entryPoint)
			}
			e.entryPoint = rec.EntryPoint
		}
		if rec.Port != "" {
			port = rec.Port
		}
	}
	if e.entryPoint == "" {
		return PrepareResult{}, &NoEntryPointError{}
	}

	servicesEnv, err := e.prepareServices(ctx)
	if err != nil {
		return PrepareResult{}, err
	}

	var recoveredEnv *env.Ordered
	if rec != nil {
		recoveredEnv = rec.Env
	}
	e.env = aggregateEnv(e.defaultEnv(), recoveredEnv, servicesEnv, env.NewOrdered(config.EnvPort, port))

	if err := e.renderFiles(rec); err != nil {
		return PrepareResult{}, err
	}
	e.state = StatePrepared

	return PrepareResult{
		TargetDirectory: e.opts.TargetDirectory,
		EntryPoint:      e.entryPoint,
		Env:             e.env.Clone(),
		Regenerated:     rec != nil,
		ConfigFile:      e.configFile,
	}, nil
}

// WriteFiles writes the engine's files, then every service's files in registration order.
// Later services overwrite files earlier ones wrote at the same path.
func (e *Engine) WriteFiles(ctx context.Context) error {
	if e.state != StatePrepared {
		return &StateError{Op: "write files", State: e.state}
	}
	if err := os.MkdirAll(e.opts.TargetDirectory, 0o755); err != nil {
		return fmt.Errorf("create workspace directory %q: %w", e.opts.TargetDirectory, err)
	}
	if err := e.files.Write(ctx, e.opts.TargetDirectory); err != nil {
		return err
	}
	for _, svc := range e.services {
		e.logger.Debug("writing service files", "service", svc.name)
		if err := svc.gen.WriteFiles(ctx); err != nil {
			return fmt.Errorf("write files of service %q: %w", svc.name, err)
		}
	}
	e.state = StateWritten
	e.logger.Info("workspace written", "dir", e.opts.TargetDirectory, "services", len(e.services))
	return nil
}

// PostInstallActions runs every service's post-install hook in registration order.
// The first failure aborts the remaining hooks.
func (e *Engine) PostInstallActions(ctx context.Context) error {
	if e.state != StateWritten {
		return &StateError{Op: "run post-install actions", State: e.state}
	}
	for _, svc := range e.services {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.logger.Debug("running post-install actions", "service", svc.name)
		if err := svc.gen.PostInstallActions(ctx); err != nil {
			return fmt.Errorf("post-install actions of service %q: %w", svc.name, err)
		}
	}
	e.state = StatePostInstalled
	return nil
}

// Run performs a whole generation pass: Prepare, WriteFiles and PostInstallActions.
func (e *Engine) Run(ctx context.Context) (PrepareResult, error) {
	res, err := e.Prepare(ctx)
	if err != nil {
		return PrepareResult{}, err
	}
	if err := e.WriteFiles(ctx); err != nil {
		return PrepareResult{}, err
	}
	if err := e.PostInstallActions(ctx); err != nil {
		return PrepareResult{}, err
	}
	return res, nil
}

// Reset resets every registered service and returns the engine to StateEmpty with an
// empty registry, ready for a fresh pass.
func (e *Engine) Reset() {
	for _, svc := range e.services {
		svc.gen.Reset()
	}
	e.services = nil
	e.entryPoint = ""
	e.state = StateEmpty
	e.probed = false
	e.recovered = nil
	e.files.Reset()
	e.env = nil
	e.configFile = ""
}

// assignDirectories pushes default configuration into services lacking one and points each
// at <workspace>/services/<name>.
func (e *Engine) assignDirectories() error {
	for _, svc := range e.services {
		if svc.gen.Config() == nil {
			if err := svc.gen.SetConfig(nil); err != nil {
				return fmt.Errorf("configure service %q: %w", svc.name, err)
			}
		}
		svc.gen.SetTargetDirectory(config.ServiceDir(e.opts.TargetDirectory, svc.name))
	}
	return nil
}

// prepareServices propagates the static typing toggle and prepares every service in
// registration order, concatenating the environment they contribute.
func (e *Engine) prepareServices(ctx context.Context) (*env.Ordered, error) {
	out := &env.Ordered{}
	for _, svc := range e.services {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg := svc.gen.Config().Clone()
		if cfg == nil {
			cfg = &generator.ServiceConfig{}
		}
		cfg.StaticTyping = e.opts.StaticTyping
		if err := svc.gen.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("configure service %q: %w", svc.name, err)
		}

		e.logger.Debug("preparing service", "service", svc.name)
		res, err := svc.gen.Prepare(ctx)
		if err != nil {
			return nil, fmt.Errorf("prepare service %q: %w", svc.name, err)
		}
		out.Merge(res.Env)
	}
	return out, nil
}

func (e *Engine) defaultEnv() *env.Ordered {
	return env.NewOrdered(
		config.EnvHostname, DefaultHostname,
		config.EnvPort, strconv.Itoa(e.opts.Port),
		config.EnvLogLevel, e.opts.LogLevel,
	)
}
