package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/meshgen/internal/env"
)

func TestNewWorkspaceDefaults(t *testing.T) {
	ws := NewWorkspace("v1.2.3", "api", nil)

	assert.Equal(t, "https://schemas.meshgen.dev/v1.2.3/runtime", ws.Schema)
	assert.Equal(t, "api", ws.EntryPoint)
	assert.False(t, ws.AllowCycles)
	assert.True(t, ws.HotReload)
	assert.Equal(t, Autoload{Path: "services", Exclude: []string{"docs"}}, ws.Autoload)
	assert.Equal(t, "{MESH_SERVER_HOSTNAME}", ws.Server.Hostname)
	assert.Equal(t, "{PORT}", ws.Server.Port)
	assert.Equal(t, "{MESH_SERVER_LOGGER_LEVEL}", ws.Server.Logger.Level)
}

func TestMarshalJSONShape(t *testing.T) {
	out, err := Marshal(NewWorkspace("1.0.0", "api", nil), FormatJSON)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "api", doc["entrypoint"])
	assert.Equal(t, "https://schemas.meshgen.dev/v1.0.0/runtime", doc["$schema"])
	assert.NotContains(t, doc, "services")
	assert.Contains(t, string(out), "\n  \"entrypoint\": \"api\",\n")
}

func TestMarshalParseRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		out, err := Marshal(NewWorkspace("1.0.0", "api", []string{"docs", "tmp"}), format)
		require.NoError(t, err, "format %s", format)

		ws, err := Parse(out, env.Vars{
			"MESH_SERVER_HOSTNAME":     "0.0.0.0",
			"PORT":                     "3042",
			"MESH_SERVER_LOGGER_LEVEL": "info",
		})
		require.NoError(t, err, "format %s", format)
		assert.Equal(t, "api", ws.EntryPointName())
		assert.Equal(t, "3042", ws.Server.Port)
		assert.Equal(t, []string{"docs", "tmp"}, ws.Autoload.Exclude)
	}
}

func TestMarshalRejectsUnknownFormat(t *testing.T) {
	_, err := Marshal(NewWorkspace("1", "a", nil), Format("toml"))
	assert.Error(t, err)

	_, err = Marshal(nil, FormatJSON)
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatOf("meshgen.yml"))
	assert.Equal(t, FormatYAML, FormatOf("meshgen.YAML"))
	assert.Equal(t, FormatJSON, FormatOf("meshgen.json"))
}
