package engine

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"time"

	"github.com/codex-k8s/meshgen/internal/config"
	"github.com/codex-k8s/meshgen/internal/fsutil"
	"github.com/codex-k8s/meshgen/internal/generator"
)

// ReadmeFileName is the workspace README written on fresh generation only.
const ReadmeFileName = "README.md"

//go:embed templates/README.md.tmpl
var readmeTemplate []byte

// renderFiles renders the configuration file and both env files into the engine's file set.
// Fresh workspaces also get the package manifest and, unless one exists, the README.
func (e *Engine) renderFiles(rec *config.Recovered) error {
	e.files.Reset()

	format := config.FormatJSON
	e.configFile = config.DefaultFileName
	ws := config.NewWorkspace(e.opts.Version, e.entryPoint, e.opts.AutoloadExclude)
	if rec != nil {
		format = rec.Format
		e.configFile = filepath.Base(rec.Path)
		// Write back what the user wrote, placeholders included.
		if rec.Raw != nil {
			ws.Services = rec.Raw.Services
			if e.opts.AutoloadExclude == nil && rec.Raw.Autoload.Exclude != nil {
				ws.Autoload.Exclude = rec.Raw.Autoload.Exclude
			}
		}
	}

	cfgBytes, err := config.Marshal(ws, format)
	if err != nil {
		return err
	}
	e.files.Add(generator.File{Name: e.configFile, Contents: cfgBytes})

	envText, err := e.env.Marshal()
	if err != nil {
		return err
	}
	e.files.Add(generator.File{Name: config.EnvFileName, Contents: []byte(envText)})
	e.files.Add(generator.File{Name: config.SampleEnvFileName, Contents: []byte(envText)})

	if rec != nil {
		return nil
	}
	pkg, err := marshalPackageManifest(e.packageManifest())
	if err != nil {
		return err
	}
	e.files.Add(generator.File{Name: PackageFileName, Contents: pkg})

	exists, err := fsutil.Exists(filepath.Join(e.opts.TargetDirectory, ReadmeFileName))
	if err != nil {
		return fmt.Errorf("check workspace README: %w", err)
	}
	if exists {
		e.logger.Debug("keeping existing README")
		return nil
	}
	readme, err := config.RenderTemplate(ReadmeFileName, readmeTemplate, config.TemplateContext{
		Name:         e.opts.Name,
		WorkspaceDir: e.opts.TargetDirectory,
		Version:      e.opts.Version,
		Now:          time.Now().UTC(),
		EntryPoint:   e.entryPoint,
		Services:     e.ServiceNames(),
		Dependencies: e.Dependencies(),
		ConfigFile:   e.configFile,
	})
	if err != nil {
		return err
	}
	e.files.Add(generator.File{Name: ReadmeFileName, Contents: readme})
	return nil
}
