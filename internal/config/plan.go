package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/meshgen/internal/env"
	"github.com/codex-k8s/meshgen/internal/hooks"
)

// Plan describes a workspace to compose. It mirrors meshgen.plan.yaml after template rendering.
type Plan struct {
	// Name is the workspace name used in generated documents.
	Name string `yaml:"name"`
	// EnvFiles lists .env files to load before rendering.
	EnvFiles []string `yaml:"envFiles,omitempty"`
	// EntryPoint names the service designated as the workspace entry point.
	EntryPoint string `yaml:"entrypoint,omitempty"`
	// Port is the default server port.
	Port int `yaml:"port,omitempty"`
	// LogLevel is the default server log level.
	LogLevel string `yaml:"logLevel,omitempty"`
	// StaticTyping toggles typed sources for every service.
	StaticTyping bool `yaml:"staticTyping,omitempty"`
	// Exclude overrides the autoload exclusions.
	Exclude []string `yaml:"exclude,omitempty"`
	// Services lists the services in registration order.
	Services []PlanService `yaml:"services"`
}

// PlanService describes a single service of a plan.
type PlanService struct {
	// Name is the service identifier; empty names are synthesized.
	Name string `yaml:"name,omitempty"`
	// Env lists the variables the service contributes, in the order they are written.
	Env *env.Ordered `yaml:"env,omitempty"`
	// Dependencies lists package dependencies (name -> version).
	Dependencies map[string]string `yaml:"dependencies,omitempty"`
	// PostInstall lists shell steps run inside the service directory after all files are written.
	PostInstall []hooks.Step `yaml:"postInstall,omitempty"`
}

// LoadOptions describes parameters that influence template rendering of plan files.
type LoadOptions struct {
	// WorkspaceDir is the target workspace directory.
	WorkspaceDir string
	// UserVars are inline variables for template rendering.
	UserVars env.Vars
	// VarFiles lists additional var-files to load.
	VarFiles []string
}

// rawHeader is a minimal struct used to extract top-level fields before templating.
type rawHeader struct {
	Name     string   `yaml:"name"`
	EnvFiles []string `yaml:"envFiles"`
}

// LoadPlan reads a plan file, loads its envFiles and user vars, renders it as a template
// and parses the result.
func LoadPlan(path string, opts LoadOptions) (*Plan, TemplateContext, error) {
	var zeroCtx TemplateContext

	if strings.TrimSpace(path) == "" {
		return nil, zeroCtx, fmt.Errorf("plan path is empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, zeroCtx, fmt.Errorf("resolve plan path: %w", err)
	}

	rawBytes, err := os.ReadFile(absPath)
	if err != nil {
		return nil, zeroCtx, fmt.Errorf("read plan %q: %w", absPath, err)
	}

	var header rawHeader
	if err := yaml.Unmarshal(rawBytes, &header); err != nil {
		return nil, zeroCtx, fmt.Errorf("parse top-level plan fields: %w", err)
	}

	baseDir := filepath.Dir(absPath)
	envFileVars, err := env.LoadEnvFiles(baseDir, header.EnvFiles)
	if err != nil {
		return nil, zeroCtx, err
	}

	varFileVars := make(env.Vars)
	for _, vf := range opts.VarFiles {
		if strings.TrimSpace(vf) == "" {
			continue
		}
		vp, err := env.LoadVarFile(vf)
		if err != nil {
			return nil, zeroCtx, fmt.Errorf("load var-file %q: %w", vf, err)
		}
		varFileVars = env.Merge(varFileVars, vp)
	}

	ctx := TemplateContext{
		Name:         header.Name,
		WorkspaceDir: opts.WorkspaceDir,
		Now:          time.Now().UTC(),
		UserVars:     opts.UserVars,
		EnvMap:       env.Merge(env.FromOS(), envFileVars, varFileVars, opts.UserVars),
	}

	rendered, err := RenderTemplate(filepath.Base(absPath), rawBytes, ctx)
	if err != nil {
		return nil, zeroCtx, err
	}

	var plan Plan
	if err := yaml.Unmarshal(rendered, &plan); err != nil {
		return nil, zeroCtx, fmt.Errorf("parse rendered plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, zeroCtx, err
	}
	return &plan, ctx, nil
}

// Validate checks the plan for duplicate or malformed service names.
func (p *Plan) Validate() error {
	seen := make(map[string]struct{}, len(p.Services))
	for i, svc := range p.Services {
		name := strings.TrimSpace(svc.Name)
		if name == "" {
			continue
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("service #%d: invalid name %q", i+1, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("service #%d: duplicate name %q", i+1, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
