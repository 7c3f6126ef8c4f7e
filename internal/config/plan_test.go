package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/meshgen/internal/env"
)

func TestLoadPlanRendersTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plan.env", "DB_HOST=db.internal\n")
	writeFile(t, dir, "meshgen.plan.yaml", `
name: shop
envFiles: [plan.env]
entrypoint: api
port: 4000
services:
  - name: api
    env:
      LEVEL: '{{ default .UserVars.LEVEL "info" }}'
      DATABASE_URL: 'postgres://{{ envOr "DB_HOST" "localhost" }}/{{ .Name | slug }}'
    postInstall:
      - name: install
        run: echo ok
  - name: worker
`)

	plan, ctx, err := LoadPlan(filepath.Join(dir, "meshgen.plan.yaml"), LoadOptions{
		WorkspaceDir: "/ws",
		UserVars:     env.Vars{"LEVEL": "debug"},
	})
	require.NoError(t, err)

	assert.Equal(t, "shop", ctx.Name)
	assert.Equal(t, "/ws", ctx.WorkspaceDir)
	assert.Equal(t, "api", plan.EntryPoint)
	assert.Equal(t, 4000, plan.Port)
	require.Len(t, plan.Services, 2)
	svcEnv := plan.Services[0].Env
	assert.Equal(t, []string{"LEVEL", "DATABASE_URL"}, svcEnv.Keys())
	dbURL, _ := svcEnv.Get("DATABASE_URL")
	assert.Equal(t, "postgres://db.internal/shop", dbURL)
	level, _ := svcEnv.Get("LEVEL")
	assert.Equal(t, "debug", level)
	assert.Equal(t, 0, plan.Services[1].Env.Len())
	require.Len(t, plan.Services[0].PostInstall, 1)
	assert.Equal(t, "echo ok", plan.Services[0].PostInstall[0].Run)
}

func TestLoadPlanRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.yaml", "services:\n  - name: a\n  - name: a\n")

	_, _, err := LoadPlan(filepath.Join(dir, "p.yaml"), LoadOptions{})
	assert.ErrorContains(t, err, "duplicate name")
}

func TestPlanValidateRejectsPathNames(t *testing.T) {
	p := &Plan{Services: []PlanService{{Name: "../etc"}}}
	assert.Error(t, p.Validate())

	p = &Plan{Services: []PlanService{{Name: ""}, {Name: ""}}}
	assert.NoError(t, p.Validate())
}

func TestLoadPlanMissingFile(t *testing.T) {
	_, _, err := LoadPlan(filepath.Join(t.TempDir(), "nope.yaml"), LoadOptions{})
	assert.Error(t, err)

	_, _, err = LoadPlan(" ", LoadOptions{})
	assert.Error(t, err)
}

func TestRenderTemplateHelpers(t *testing.T) {
	out, err := RenderTemplate("t", []byte(`{{ slug "My App_x" }} {{ placeholder "PORT" }} {{ join .Services "," }}`), TemplateContext{
		Services: []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "my-app-x {PORT} a,b", string(out))
}
