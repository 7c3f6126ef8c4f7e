package engine

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/codex-k8s/meshgen/internal/generator"
)

// maxNameDraws bounds how often a synthesized name is re-drawn before a numeric suffix is used.
const maxNameDraws = 32

type serviceEntry struct {
	name string
	gen  generator.Generator
}

// AddService registers gen under name and returns the name it was registered under.
// An empty name is synthesized and re-drawn until unique; an explicit name that is already
// registered is rejected with DuplicateServiceError. The generator's prepared files are
// dropped and its configuration is marked as running inside this workspace.
func (e *Engine) AddService(gen generator.Generator, name string) (string, error) {
	if gen == nil {
		return "", fmt.Errorf("service generator is nil")
	}
	if e.state > StateServicesRegistered {
		return "", &StateError{Op: "add service", State: e.state}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = e.synthesizeName()
	} else {
		if err := validateServiceName(name); err != nil {
			return "", err
		}
		if _, ok := e.lookup(name); ok {
			return "", &DuplicateServiceError{Name: name}
		}
	}

	cfg := gen.Config().Clone()
	gen.Reset()
	if cfg == nil {
		cfg = gen.Config().Clone()
	}
	if cfg == nil {
		cfg = &generator.ServiceConfig{}
	}
	cfg.RuntimeContext = true
	cfg.ServiceName = name
	if err := gen.SetConfig(cfg); err != nil {
		return "", err
	}

	e.services = append(e.services, serviceEntry{name: name, gen: gen})
	e.state = StateServicesRegistered

	if aware, ok := gen.(generator.RuntimeAware); ok {
		aware.SetRuntime(runtimeView{e: e})
	}
	e.logger.Debug("service registered", "service", name, "position", len(e.services))
	return name, nil
}

// SetEntryPoint designates the registered service called name as the workspace entry point.
func (e *Engine) SetEntryPoint(name string) error {
	if _, ok := e.lookup(name); !ok {
		return &NoServiceNamedError{Name: name}
	}
	e.entryPoint = name
	return nil
}

// Service returns the generator registered under name.
func (e *Engine) Service(name string) (generator.Generator, bool) {
	svc, ok := e.lookup(name)
	if !ok {
		return nil, false
	}
	return svc.gen, true
}

// ServiceNames returns the registered names in registration order.
func (e *Engine) ServiceNames() []string {
	out := make([]string, 0, len(e.services))
	for _, svc := range e.services {
		out = append(out, svc.name)
	}
	return out
}

// SetServicesConfig merges override into the configuration of every registered service.
// Service names and the runtime context flag are never overridden.
func (e *Engine) SetServicesConfig(override *generator.ServiceConfig) error {
	for _, svc := range e.services {
		cfg := svc.gen.Config().Clone()
		if cfg == nil {
			cfg = &generator.ServiceConfig{}
		}
		cfg.Merge(override)
		cfg.ServiceName = svc.name
		cfg.RuntimeContext = true
		if err := svc.gen.SetConfig(cfg); err != nil {
			return fmt.Errorf("configure service %q: %w", svc.name, err)
		}
	}
	return nil
}

// Dependencies returns the union of every service's declared dependencies.
// Later services win on conflicting versions.
func (e *Engine) Dependencies() map[string]string {
	out := make(map[string]string)
	for _, svc := range e.services {
		if cfg := svc.gen.Config(); cfg != nil {
			maps.Copy(out, cfg.Dependencies)
		}
	}
	return out
}

func (e *Engine) lookup(name string) (serviceEntry, bool) {
	for _, svc := range e.services {
		if svc.name == name {
			return svc, true
		}
	}
	return serviceEntry{}, false
}

func (e *Engine) synthesizeName() string {
	var name string
	for i := 0; i < maxNameDraws; i++ {
		name = e.opts.Names.Next()
		if _, taken := e.lookup(name); !taken {
			return name
		}
	}
	for i := 2; ; i++ {
		candidate := name + "-" + strconv.Itoa(i)
		if _, taken := e.lookup(candidate); !taken {
			return candidate
		}
	}
}

func validateServiceName(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid service name %q", name)
	}
	return nil
}

// runtimeView is the read-only Runtime handed to RuntimeAware services.
type runtimeView struct {
	e *Engine
}

func (r runtimeView) WorkspaceDir() string {
	return r.e.opts.TargetDirectory
}

func (r runtimeView) ServiceNames() []string {
	return r.e.ServiceNames()
}

func (r runtimeView) ServiceConfig(name string) (*generator.ServiceConfig, bool) {
	svc, ok := r.e.lookup(name)
	if !ok {
		return nil, false
	}
	return svc.gen.Config().Clone(), true
}

func (r runtimeView) EntryPoint() string {
	return r.e.entryPoint
}
