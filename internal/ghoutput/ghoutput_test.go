package ghoutput

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAppendsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("previous=1\n"), 0o600))

	err := Write(path, []Output{
		{Name: "entrypoint", Value: "web"},
		{Name: "", Value: "skipped"},
		{Name: "services", Value: "api\nweb\n"},
	})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous=1\n"+
		"entrypoint=web\n"+
		"services<<MESHGEN_OUTPUT_EOF\napi\nweb\nMESHGEN_OUTPUT_EOF\n", string(got))
}

func TestWriteWithoutPathIsNoop(t *testing.T) {
	assert.NoError(t, Write("", []Output{{Name: "a", Value: "b"}}))
}

func TestDelimiterAvoidsCollisions(t *testing.T) {
	assert.Equal(t, "MESHGEN_OUTPUT_EOF_1", delimiter("x\nMESHGEN_OUTPUT_EOF\n"))
}

func TestPathReadsEnv(t *testing.T) {
	t.Setenv(EnvOutputPath, " /tmp/out ")
	assert.Equal(t, "/tmp/out", Path())
}
