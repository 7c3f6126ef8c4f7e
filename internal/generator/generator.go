// Package generator defines the capability set the composition engine consumes from every
// service generator, together with an embeddable Base that holds the common state.
package generator

import (
	"context"
	"maps"

	"github.com/codex-k8s/meshgen/internal/env"
)

// Generator is a single service generator composed into a workspace.
type Generator interface {
	// Reset drops every file prepared so far and restores the default configuration.
	Reset()
	// Config returns the current configuration, nil when none was set yet.
	Config() *ServiceConfig
	// SetConfig merges cfg into the current configuration. A nil cfg restores defaults.
	SetConfig(cfg *ServiceConfig) error
	// SetTargetDirectory sets the directory the generator writes into.
	SetTargetDirectory(dir string)
	// Prepare renders the in-memory files and returns the environment the service needs.
	Prepare(ctx context.Context) (PrepareResult, error)
	// WriteFiles writes the prepared files to the target directory.
	WriteFiles(ctx context.Context) error
	// PostInstallActions runs once all files of the workspace are on disk.
	PostInstallActions(ctx context.Context) error
}

// RuntimeAware is implemented by generators that want a read-only view of the workspace
// they are composed into, e.g. to discover sibling services.
type RuntimeAware interface {
	SetRuntime(rt Runtime)
}

// Runtime is the read-only view of a composition engine handed to RuntimeAware services.
// It does not expose registration or lifecycle operations.
type Runtime interface {
	// WorkspaceDir returns the workspace root directory.
	WorkspaceDir() string
	// ServiceNames returns the registered service names in registration order.
	ServiceNames() []string
	// ServiceConfig returns a copy of the named service's configuration.
	ServiceConfig(name string) (*ServiceConfig, bool)
	// EntryPoint returns the entry-point service name, empty when unresolved.
	EntryPoint() string
}

// PrepareResult is returned by Generator.Prepare.
type PrepareResult struct {
	// Env holds the environment variables the service contributes to the workspace.
	Env *env.Ordered
	// TargetDirectory echoes the directory the service will be written to.
	TargetDirectory string
}

// ServiceConfig is the configuration shared by every service kind.
type ServiceConfig struct {
	// ServiceName is the unique service identifier inside the workspace.
	ServiceName string
	// RuntimeContext is set when the service is generated inside a composed workspace.
	RuntimeContext bool
	// StaticTyping toggles typed sources for the service.
	StaticTyping bool
	// Env lists environment variables the service contributes.
	Env env.Vars
	// Dependencies lists package dependencies the service needs (name -> version).
	Dependencies map[string]string
	// Extra carries kind-specific settings.
	Extra map[string]any
}

// Clone returns a deep copy of c. Cloning nil returns nil.
func (c *ServiceConfig) Clone() *ServiceConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Env = maps.Clone(c.Env)
	out.Dependencies = maps.Clone(c.Dependencies)
	out.Extra = maps.Clone(c.Extra)
	return &out
}

// Merge applies other on top of c: non-empty strings and map entries override,
// boolean flags are always taken from other.
func (c *ServiceConfig) Merge(other *ServiceConfig) {
	if other == nil {
		return
	}
	if other.ServiceName != "" {
		c.ServiceName = other.ServiceName
	}
	c.RuntimeContext = other.RuntimeContext
	c.StaticTyping = other.StaticTyping
	c.Env = mergeMap(c.Env, other.Env)
	c.Dependencies = mergeMap(c.Dependencies, other.Dependencies)
	c.Extra = mergeMap(c.Extra, other.Extra)
}

func mergeMap[M ~map[string]V, V any](dst, src M) M {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(M, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
