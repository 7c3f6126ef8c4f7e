package config

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/codex-k8s/meshgen/internal/env"
)

// TemplateContext represents the data exposed to Go-templates when rendering plan files
// and workspace documents such as the README.
type TemplateContext struct {
	// Name is the workspace name.
	Name string
	// WorkspaceDir is the workspace root on disk.
	WorkspaceDir string
	// Version is the meshgen version used for schema URLs.
	Version string
	// Now is the timestamp captured for template rendering.
	Now time.Time
	// UserVars contains inline user variables.
	UserVars env.Vars
	// EnvMap merges OS env, envFiles, var-files and user variables.
	EnvMap env.Vars
	// EntryPoint is the entry-point service name.
	EntryPoint string
	// Services lists the composed service names in registration order.
	Services []string
	// Dependencies aggregates the dependencies declared by services.
	Dependencies map[string]string
	// ConfigFile is the name of the workspace configuration file.
	ConfigFile string
}

// RenderTemplate renders arbitrary text content using the template context and helpers.
func RenderTemplate(name string, raw []byte, ctx TemplateContext) ([]byte, error) {
	funcs := buildFuncMap(ctx)

	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("execute template %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

// buildFuncMap constructs the common set of template functions.
func buildFuncMap(ctx TemplateContext) template.FuncMap {
	return template.FuncMap{
		"default":     funcDef,
		"toLower":     strings.ToLower,
		"toUpper":     strings.ToUpper,
		"slug":        Slug,
		"envOr":       funcEnvOr(ctx.EnvMap),
		"ternary":     funcTernary,
		"now":         func() time.Time { return ctx.Now },
		"join":        funcJoin,
		"trimPrefix":  funcTrimPrefix,
		"placeholder": Placeholder,
	}
}

// funcDef returns def when value is empty or whitespace, otherwise value.
func funcDef(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// Slug normalizes a value into a lower-case dash-separated slug.
func Slug(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, " ", "-")
	v = strings.ReplaceAll(v, "_", "-")
	return v
}

// funcEnvOr returns a function that looks up a key in envMap and falls back to def.
func funcEnvOr(envMap env.Vars) func(key, def string) string {
	return func(key, def string) string {
		if v, ok := envMap[key]; ok && v != "" {
			return v
		}
		return def
	}
}

// funcTernary returns a when cond is true, otherwise b.
func funcTernary(cond bool, a, b any) any {
	if cond {
		return a
	}
	return b
}

func funcJoin(values []string, sep string) string {
	return strings.Join(values, sep)
}

func funcTrimPrefix(value, prefix string) string {
	return strings.TrimPrefix(value, prefix)
}
