package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/meshgen/internal/env"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const existingJSON = `{
  "$schema": "https://schemas.meshgen.dev/v1.0.0/runtime",
  "entrypoint": "api",
  "allowCycles": false,
  "hotReload": true,
  "autoload": {"path": "services", "exclude": ["docs"]},
  "server": {
    "hostname": "{MESH_SERVER_HOSTNAME}",
    "port": "{PORT}",
    "logger": {"level": "{MESH_SERVER_LOGGER_LEVEL}"}
  }
}`

func TestProbeNoConfig(t *testing.T) {
	rec, err := Probe(t.TempDir(), ProbeOptions{})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestProbeRecoversEntryPointAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meshgen.json", existingJSON)
	writeFile(t, dir, ".env", "MESH_SERVER_HOSTNAME=127.0.0.1\nPORT=4000\nMESH_SERVER_LOGGER_LEVEL=debug\nDATABASE_URL=sqlite://x\n")

	rec, err := Probe(dir, ProbeOptions{})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, filepath.Join(dir, "meshgen.json"), rec.Path)
	assert.Equal(t, FormatJSON, rec.Format)
	assert.Equal(t, "api", rec.EntryPoint)
	assert.Equal(t, "4000", rec.Port)
	assert.Equal(t, "127.0.0.1", rec.Workspace.Server.Hostname)
	assert.Equal(t, "debug", rec.Workspace.Server.Logger.Level)
	assert.Equal(t, []string{"MESH_SERVER_HOSTNAME", "PORT", "MESH_SERVER_LOGGER_LEVEL", "DATABASE_URL"}, rec.Env.Keys())
	v, _ := rec.Env.Get("DATABASE_URL")
	assert.Equal(t, "sqlite://x", v)
}

func TestProbeUsesAllowedCallerEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meshgen.json", existingJSON)

	rec, err := Probe(dir, ProbeOptions{Env: env.Vars{
		"MESH_SERVER_HOSTNAME":     "0.0.0.0",
		"PORT":                     "5000",
		"MESH_SERVER_LOGGER_LEVEL": "info",
		"HOME":                     "/root",
	}})
	require.NoError(t, err)
	assert.Equal(t, "5000", rec.Port)
	assert.False(t, rec.Env.Has("HOME"))
	assert.True(t, rec.Env.Has("MESH_SERVER_HOSTNAME"))
}

func TestProbeRejectsDisallowedCallerEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meshgen.json", existingJSON)

	_, err := Probe(dir, ProbeOptions{
		Env:   env.Vars{"MESH_SERVER_HOSTNAME": "h", "PORT": "1", "MESH_SERVER_LOGGER_LEVEL": "info"},
		Allow: AllowNames("PORT"),
	})
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "{MESH_SERVER_HOSTNAME}")
}

func TestProbeMalformedConfigIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meshgen.json", `{"entrypoint": [`)

	_, err := Probe(dir, ProbeOptions{})
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestProbeYAMLAndServiceEntryPoint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meshgen.runtime.yaml", `
entrypoint: api
autoload:
  path: services
services:
  - id: api
    path: services/api
  - id: web
    path: services/web
    entrypoint: true
server:
  hostname: 0.0.0.0
  port: 3042
  logger:
    level: info
`)

	rec, err := Probe(dir, ProbeOptions{})
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, rec.Format)
	assert.Equal(t, "web", rec.EntryPoint)
	assert.Equal(t, "3042", rec.Port)
	port, _ := rec.Env.Get("PORT")
	assert.Equal(t, "3042", port)
}

func TestRecoveredKeepsUnresolvedCopy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meshgen.json", `{
  "entrypoint": "api",
  "services": [{"id": "api", "path": "{SVC_ROOT}/api"}],
  "server": {"hostname": "{MESH_SERVER_HOSTNAME}", "port": "{PORT}", "logger": {"level": "info"}}
}`)
	writeFile(t, dir, ".env", "SVC_ROOT=/srv\nMESH_SERVER_HOSTNAME=0.0.0.0\nPORT=3042\n")

	rec, err := Probe(dir, ProbeOptions{})
	require.NoError(t, err)
	require.NotNil(t, rec.Raw)

	assert.Equal(t, "/srv/api", rec.Workspace.Services[0].Path)
	assert.Equal(t, "{SVC_ROOT}/api", rec.Raw.Services[0].Path)
	assert.Equal(t, "{PORT}", rec.Raw.Server.Port)
}

func TestFindConfigFileOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meshgen.yml", "entrypoint: a\n")
	writeFile(t, dir, "meshgen.runtime.json", "{}")

	name, err := FindConfigFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "meshgen.yml", name)
}

func TestParseRejectsNonObject(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"), nil)
	assert.Error(t, err)

	_, err = Parse([]byte(""), nil)
	assert.Error(t, err)
}
