package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/codex-k8s/meshgen/internal/config"
)

const (
	// PackageFileName is the workspace-root package manifest written on fresh generation.
	PackageFileName = "package.json"
	// RuntimePackage is the package that starts the composed workspace.
	RuntimePackage = "@meshgen/runtime"
	// NodeEngines is the Node.js range the workspace supports.
	NodeEngines = "^18.8.0 || >=20.6.0"
	// TypeScriptVersion is the compiler pinned when static typing is enabled.
	TypeScriptVersion = "^5.5.4"
)

// PackageManifest is the content of PackageFileName.
type PackageManifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Engines         map[string]string `json:"engines"`
}

// packageManifest builds the root manifest from the union of the service dependencies.
func (e *Engine) packageManifest() PackageManifest {
	name := config.Slug(e.opts.Name)
	if name == "" {
		name = config.Slug(filepath.Base(e.opts.TargetDirectory))
	}

	deps := map[string]string{RuntimePackage: "^" + strings.TrimPrefix(e.opts.Version, "v")}
	maps.Copy(deps, e.Dependencies())

	m := PackageManifest{
		Name:         name,
		Version:      "1.0.0",
		Private:      true,
		Scripts:      map[string]string{"start": "meshgen-runtime start", "test": "node --test"},
		Dependencies: deps,
		Engines:      map[string]string{"node": NodeEngines},
	}
	if e.opts.StaticTyping {
		m.Scripts["clean"] = "rm -fr ./dist"
		m.Scripts["build"] = "meshgen-runtime compile"
		m.DevDependencies = map[string]string{"typescript": TypeScriptVersion}
	}
	return m
}

func marshalPackageManifest(m PackageManifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode %s: %w", PackageFileName, err)
	}
	return buf.Bytes(), nil
}
