// Package service implements the basic service kind composed by the meshgen CLI.
package service

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/codex-k8s/meshgen/internal/config"
	"github.com/codex-k8s/meshgen/internal/env"
	"github.com/codex-k8s/meshgen/internal/generator"
	"github.com/codex-k8s/meshgen/internal/hooks"
	"github.com/codex-k8s/meshgen/internal/logging"
)

const (
	// ManifestFileName is the per-service manifest written into the service directory.
	ManifestFileName = "meshgen.service.json"
	// ReadmeFileName is the per-service README.
	ReadmeFileName = "README.md"
	// TSConfigFileName is written when static typing is enabled.
	TSConfigFileName = "tsconfig.json"
)

//go:embed templates/README.md.tmpl
var readmeTemplate []byte

// Options configures a Service.
type Options struct {
	// Env lists the variables the service contributes to the workspace, in declaration order.
	Env *env.Ordered
	// Dependencies lists the packages the service needs (name -> version).
	Dependencies map[string]string
	// PostInstall holds shell steps run inside the service directory after writing.
	PostInstall []hooks.Step
	// Version is the schema version used in the manifest; empty means "1.0.0".
	Version string
	// Logger receives hook output; nil discards it.
	Logger *slog.Logger
}

// Manifest is the content of ManifestFileName.
type Manifest struct {
	Schema  string       `json:"$schema"`
	Service ManifestInfo `json:"service"`
}

// ManifestInfo identifies the service inside its manifest.
type ManifestInfo struct {
	ID         string `json:"id"`
	TypeScript bool   `json:"typescript"`
}

// Service is a generator producing a manifest, a README and optional post-install steps.
type Service struct {
	generator.Base

	version     string
	declared    *env.Ordered
	postInstall []hooks.Step
	executor    *hooks.Executor
	runtime     generator.Runtime
}

// New constructs a Service. Its default configuration carries opts.Env and opts.Dependencies.
func New(opts Options) *Service {
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "1.0.0"
	}
	defaults := func() *generator.ServiceConfig {
		return &generator.ServiceConfig{
			Env:          opts.Env.Vars(),
			Dependencies: maps.Clone(opts.Dependencies),
		}
	}
	s := &Service{
		Base:        generator.NewBase(defaults),
		version:     version,
		declared:    opts.Env.Clone(),
		postInstall: slices.Clone(opts.PostInstall),
		executor:    hooks.NewExecutor(logging.OrDiscard(opts.Logger)),
	}
	s.Reset()
	return s
}

// SetRuntime records the workspace view used to list sibling services.
func (s *Service) SetRuntime(rt generator.Runtime) {
	s.runtime = rt
}

// Prepare renders the manifest and README and returns the service's normalized environment.
func (s *Service) Prepare(ctx context.Context) (generator.PrepareResult, error) {
	if err := ctx.Err(); err != nil {
		return generator.PrepareResult{}, err
	}
	cfg := s.Config()
	if cfg == nil || strings.TrimSpace(cfg.ServiceName) == "" {
		return generator.PrepareResult{}, fmt.Errorf("service name is not set")
	}

	manifest, err := marshalJSON(Manifest{
		Schema:  fmt.Sprintf("%s/v%s/service", config.SchemaBase, strings.TrimPrefix(s.version, "v")),
		Service: ManifestInfo{ID: cfg.ServiceName, TypeScript: cfg.StaticTyping},
	})
	if err != nil {
		return generator.PrepareResult{}, fmt.Errorf("encode service manifest: %w", err)
	}
	s.AddFile(generator.File{Name: ManifestFileName, Contents: manifest})

	if cfg.StaticTyping {
		tsconfig, err := marshalJSON(map[string]any{
			"compilerOptions": map[string]any{
				"strict":       true,
				"target":       "es2022",
				"module":       "nodenext",
				"outDir":       "dist",
				"declaration":  true,
				"skipLibCheck": true,
			},
		})
		if err != nil {
			return generator.PrepareResult{}, fmt.Errorf("encode tsconfig: %w", err)
		}
		s.AddFile(generator.File{Name: TSConfigFileName, Contents: tsconfig})
	}

	readme, err := config.RenderTemplate(ReadmeFileName, readmeTemplate, config.TemplateContext{
		Name:         cfg.ServiceName,
		WorkspaceDir: s.workspaceDir(),
		Version:      s.version,
		Now:          time.Now().UTC(),
		EntryPoint:   s.entryPoint(),
		Services:     s.siblings(cfg.ServiceName),
		Dependencies: cfg.Dependencies,
		ConfigFile:   ManifestFileName,
	})
	if err != nil {
		return generator.PrepareResult{}, err
	}
	s.AddFile(generator.File{Name: ReadmeFileName, Contents: readme})

	return generator.PrepareResult{
		Env:             s.orderedEnv(cfg.Env),
		TargetDirectory: s.TargetDirectory(),
	}, nil
}

// PostInstallActions runs the configured steps inside the service directory with the
// service environment exported.
func (s *Service) PostInstallActions(ctx context.Context) error {
	if len(s.postInstall) == 0 {
		return nil
	}
	var vars env.Vars
	if cfg := s.Config(); cfg != nil {
		vars = cfg.Env.Normalized()
	}
	return s.executor.Run(ctx, s.TargetDirectory(), vars, s.postInstall)
}

// orderedEnv lays vars out in declaration order. Variables added through SetConfig follow
// in sorted order.
func (s *Service) orderedEnv(vars env.Vars) *env.Ordered {
	current := env.FromVars(vars)
	out := &env.Ordered{}
	for _, key := range s.declared.Keys() {
		if v, ok := current.Get(key); ok {
			out.Set(key, v)
		}
	}
	out.Merge(current)
	return out
}

func (s *Service) siblings(self string) []string {
	if s.runtime == nil {
		return nil
	}
	var out []string
	for _, name := range s.runtime.ServiceNames() {
		if name != self {
			out = append(out, name)
		}
	}
	return out
}

func (s *Service) entryPoint() string {
	if s.runtime == nil {
		return ""
	}
	return s.runtime.EntryPoint()
}

func (s *Service) workspaceDir() string {
	if s.runtime == nil {
		return ""
	}
	return s.runtime.WorkspaceDir()
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
