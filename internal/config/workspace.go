// Package config contains the workspace runtime configuration model, the probe that recovers
// it from an existing workspace, its emitters and the loader for workspace plan files.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// SchemaBase is the prefix of the versioned configuration schema URL.
	SchemaBase = "https://schemas.meshgen.dev"
	// ServicesDir is the workspace-relative directory holding one subdirectory per service.
	ServicesDir = "services"

	// EnvHostname names the variable holding the server binding hostname.
	EnvHostname = "MESH_SERVER_HOSTNAME"
	// EnvPort names the variable holding the server port.
	EnvPort = "PORT"
	// EnvLogLevel names the variable holding the server log level.
	EnvLogLevel = "MESH_SERVER_LOGGER_LEVEL"
)

// DefaultAutoloadExclude lists directories under services/ that are never loaded as services.
var DefaultAutoloadExclude = []string{"docs"}

// Workspace is the runtime configuration file of a composed workspace.
type Workspace struct {
	// Schema is the versioned schema URL.
	Schema string `json:"$schema" yaml:"$schema"`
	// EntryPoint names the externally reachable service.
	EntryPoint string `json:"entrypoint" yaml:"entrypoint"`
	// AllowCycles permits dependency cycles between services.
	AllowCycles bool `json:"allowCycles" yaml:"allowCycles"`
	// HotReload restarts services when their files change.
	HotReload bool `json:"hotReload" yaml:"hotReload"`
	// Autoload describes service auto-discovery.
	Autoload Autoload `json:"autoload" yaml:"autoload"`
	// Services lists explicitly declared services, if any.
	Services []ServiceRef `json:"services,omitempty" yaml:"services,omitempty"`
	// Server holds the binding parameters, usually as {VAR} placeholders.
	Server Server `json:"server" yaml:"server"`
}

// Autoload describes which directory is scanned for services.
type Autoload struct {
	// Path is the workspace-relative directory scanned for services.
	Path string `json:"path" yaml:"path"`
	// Exclude lists subdirectory names that are not services.
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// ServiceRef is an explicitly declared service.
type ServiceRef struct {
	ID         string `json:"id" yaml:"id"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	EntryPoint bool   `json:"entrypoint,omitempty" yaml:"entrypoint,omitempty"`
}

// Server holds the server binding parameters.
type Server struct {
	Hostname string `json:"hostname" yaml:"hostname"`
	Port     string `json:"port" yaml:"port"`
	Logger   Logger `json:"logger" yaml:"logger"`
}

// Logger holds the server logger settings.
type Logger struct {
	Level string `json:"level" yaml:"level"`
}

// SchemaURL returns the schema URL for the given tool version.
func SchemaURL(version string) string {
	return fmt.Sprintf("%s/v%s/runtime", SchemaBase, strings.TrimPrefix(strings.TrimSpace(version), "v"))
}

// Placeholder returns the {NAME} reference to an environment variable.
func Placeholder(name string) string {
	return "{" + name + "}"
}

// NewWorkspace builds the runtime configuration for the given entry point.
// The server parameters are placeholders resolved when the runtime starts.
func NewWorkspace(version, entryPoint string, exclude []string) *Workspace {
	if exclude == nil {
		exclude = DefaultAutoloadExclude
	}
	return &Workspace{
		Schema:      SchemaURL(version),
		EntryPoint:  entryPoint,
		AllowCycles: false,
		HotReload:   true,
		Autoload: Autoload{
			Path:    ServicesDir,
			Exclude: append([]string(nil), exclude...),
		},
		Server: Server{
			Hostname: Placeholder(EnvHostname),
			Port:     Placeholder(EnvPort),
			Logger:   Logger{Level: Placeholder(EnvLogLevel)},
		},
	}
}

// ServiceDir returns the directory of the named service inside workspaceDir.
func ServiceDir(workspaceDir, name string) string {
	return filepath.Join(workspaceDir, ServicesDir, name)
}

// EntryPointName derives the designated entry point: a declared service flagged as entry point
// wins over the top-level entrypoint field.
func (w *Workspace) EntryPointName() string {
	if w == nil {
		return ""
	}
	for _, svc := range w.Services {
		if svc.EntryPoint && strings.TrimSpace(svc.ID) != "" {
			return strings.TrimSpace(svc.ID)
		}
	}
	return strings.TrimSpace(w.EntryPoint)
}
