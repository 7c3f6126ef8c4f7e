package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/meshgen/internal/env"
	"github.com/codex-k8s/meshgen/internal/fsutil"
)

// Format is the on-disk format of a workspace configuration file.
type Format string

const (
	// FormatJSON is the default format.
	FormatJSON Format = "json"
	// FormatYAML covers .yaml and .yml files.
	FormatYAML Format = "yaml"
)

// DefaultFileName is the configuration file written in fresh workspaces.
const DefaultFileName = "meshgen.json"

// EnvFileName and SampleEnvFileName are the workspace-root environment files.
const (
	EnvFileName       = ".env"
	SampleEnvFileName = ".env.sample"
)

// FileNames lists the recognized configuration file names in lookup order.
var FileNames = []string{
	"meshgen.json",
	"meshgen.yaml",
	"meshgen.yml",
	"meshgen.runtime.json",
	"meshgen.runtime.yaml",
	"meshgen.runtime.yml",
}

// FormatOf derives the format from a file name extension.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseError reports a malformed existing configuration.
type ParseError struct {
	// Path is the file that failed to parse.
	Path string
	// Err is the underlying cause.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse workspace config %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// ProbeOptions controls how an existing configuration is resolved.
type ProbeOptions struct {
	// Env holds caller-supplied variables available to placeholders when admitted by Allow.
	Env env.Vars
	// Allow filters Env; nil means DefaultAllow.
	Allow AllowFunc
}

// Recovered is the state recovered from an existing workspace.
type Recovered struct {
	// Path is the configuration file that was found.
	Path string
	// Format is the format of that file.
	Format Format
	// Workspace is the parsed configuration with placeholders resolved.
	Workspace *Workspace
	// Raw is the parsed configuration with placeholders left as written.
	Raw *Workspace
	// EntryPoint is the designated entry-point service, empty when none.
	EntryPoint string
	// Env is the environment the workspace was running with.
	Env *env.Ordered
	// Port is the resolved server port.
	Port string
}

// FindConfigFile returns the name of the first recognized configuration file in dir,
// or an empty string when there is none.
func FindConfigFile(dir string) (string, error) {
	for _, name := range FileNames {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("stat %q: %w", name, err)
		}
		if !info.IsDir() {
			return name, nil
		}
	}
	return "", nil
}

// Probe looks for an existing configuration in dir. It returns nil without error when the
// workspace has none. Malformed files and unresolvable placeholders are ParseErrors.
func Probe(dir string, opts ProbeOptions) (*Recovered, error) {
	name, err := FindConfigFile(dir)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}
	path := filepath.Join(dir, name)

	dotenv, err := loadDotenv(dir)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace config %q: %w", path, err)
	}

	ph := newPlaceholderEnv(dotenv, opts.Env, opts.Allow)
	ws, unresolved, err := parseWorkspace(raw, ph)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	recoveredEnv := dotenv.Clone()
	recoveredEnv.MergeVars(env.Vars(ph.used))
	port := strings.TrimSpace(ws.Server.Port)
	if port != "" {
		recoveredEnv.Set(EnvPort, port)
	}

	return &Recovered{
		Path:       path,
		Format:     FormatOf(name),
		Workspace:  ws,
		Raw:        unresolved,
		EntryPoint: ws.EntryPointName(),
		Env:        recoveredEnv,
		Port:       port,
	}, nil
}

// Parse decodes a configuration document, resolving placeholders against vars only.
func Parse(raw []byte, vars env.Vars) (*Workspace, error) {
	ws, _, err := parseWorkspace(raw, newPlaceholderEnv(env.FromVars(vars), nil, nil))
	return ws, err
}

// parseWorkspace decodes raw twice: once as written and once with placeholders resolved.
func parseWorkspace(raw []byte, ph *placeholderEnv) (*Workspace, *Workspace, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil, fmt.Errorf("document is empty")
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("document root must be an object")
	}
	var unresolved Workspace
	if err := doc.Decode(&unresolved); err != nil {
		return nil, nil, err
	}
	if err := ph.resolveNode(&doc); err != nil {
		return nil, nil, err
	}
	var ws Workspace
	if err := doc.Decode(&ws); err != nil {
		return nil, nil, err
	}
	return &ws, &unresolved, nil
}

func loadDotenv(dir string) (*env.Ordered, error) {
	path := filepath.Join(dir, EnvFileName)
	ok, err := fsutil.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if !ok {
		return &env.Ordered{}, nil
	}
	vars, err := env.LoadOrderedFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return vars, nil
}
