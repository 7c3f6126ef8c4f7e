package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOrderedSetNormalizesKeys(t *testing.T) {
	o := &Ordered{}
	o.Set(" port ", "1")
	o.Set("PORT", "2")
	o.Set("Host", "h")
	o.Set("   ", "ignored")

	assert.Equal(t, []string{"PORT", "HOST"}, o.Keys())
	v, ok := o.Get("port")
	require.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, 2, o.Len())
}

func TestOrderedMergeKeepsFirstPosition(t *testing.T) {
	o := NewOrdered("A", "1", "B", "2")
	o.Merge(NewOrdered("C", "3", "a", "9"))

	if diff := cmp.Diff([]string{"A", "B", "C"}, o.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Vars{"A": "9", "B": "2", "C": "3"}, o.Vars())
}

func TestOrderedMarshalFollowsInsertionOrder(t *testing.T) {
	o := NewOrdered(
		"Z_HOST", "0.0.0.0",
		"PORT", "3042",
		"A_LEVEL", "info",
		"ZIP", "007",
	)

	out, err := o.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "Z_HOST=\"0.0.0.0\"\nPORT=3042\nA_LEVEL=\"info\"\nZIP=\"007\"\n", out)
}

func TestOrderedMarshalRoundTripsSpecialCharacters(t *testing.T) {
	o := NewOrdered("MSG", "line one\nsays \"hi\"", "PLAIN", "x")

	out, err := o.Marshal()
	require.NoError(t, err)

	parsed, err := ParseOrdered([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, o.Vars(), parsed.Vars())
}

func TestLoadOrderedFilePreservesFileOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nZETA=1\nexport ALPHA=two\n\nMIDDLE=\"three\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	o, err := LoadOrderedFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZETA", "ALPHA", "MIDDLE"}, o.Keys())
	assert.Equal(t, Vars{"ZETA": "1", "ALPHA": "two", "MIDDLE": "three"}, o.Vars())
}

func TestFromVarsSortsKeys(t *testing.T) {
	o := FromVars(Vars{"b": "2", "a": "1"})
	assert.Equal(t, []string{"A", "B"}, o.Keys())
}

func TestNilOrderedIsEmpty(t *testing.T) {
	var o *Ordered
	assert.Equal(t, 0, o.Len())
	assert.False(t, o.Has("X"))
	out, err := o.Marshal()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOrderedUnmarshalYAMLKeepsDocumentOrder(t *testing.T) {
	var doc struct {
		Env  *Ordered `yaml:"env"`
		None *Ordered `yaml:"none"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("env:\n  zeta: 1\n  ALPHA: two\n  EMPTY:\nnone: ~\n"), &doc))

	if diff := cmp.Diff([]string{"ZETA", "ALPHA", "EMPTY"}, doc.Env.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Vars{"ZETA": "1", "ALPHA": "two", "EMPTY": ""}, doc.Env.Vars())
	assert.Equal(t, 0, doc.None.Len())

	var bad struct {
		Env *Ordered `yaml:"env"`
	}
	assert.Error(t, yaml.Unmarshal([]byte("env: [a, b]\n"), &bad))
	assert.Error(t, yaml.Unmarshal([]byte("env:\n  A: [1]\n"), &bad))
}
