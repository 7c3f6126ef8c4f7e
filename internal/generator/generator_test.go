package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/meshgen/internal/env"
)

func TestServiceConfigMerge(t *testing.T) {
	cfg := &ServiceConfig{
		ServiceName:  "api",
		StaticTyping: true,
		Env:          env.Vars{"A": "1"},
	}
	cfg.Merge(&ServiceConfig{
		RuntimeContext: true,
		Env:            env.Vars{"B": "2"},
		Dependencies:   map[string]string{"lib": "1.0.0"},
	})

	assert.Equal(t, "api", cfg.ServiceName)
	assert.True(t, cfg.RuntimeContext)
	assert.False(t, cfg.StaticTyping)
	assert.Equal(t, env.Vars{"A": "1", "B": "2"}, cfg.Env)
	assert.Equal(t, map[string]string{"lib": "1.0.0"}, cfg.Dependencies)
}

func TestServiceConfigCloneIsDeep(t *testing.T) {
	var nilCfg *ServiceConfig
	assert.Nil(t, nilCfg.Clone())

	cfg := &ServiceConfig{Env: env.Vars{"A": "1"}}
	clone := cfg.Clone()
	clone.Env["A"] = "2"
	assert.Equal(t, "1", cfg.Env["A"])
}

func TestBaseSetConfigNilRestoresDefaults(t *testing.T) {
	b := NewBase(func() *ServiceConfig { return &ServiceConfig{ServiceName: "default"} })
	assert.Nil(t, b.Config())

	require.NoError(t, b.SetConfig(&ServiceConfig{StaticTyping: true}))
	assert.Equal(t, "default", b.Config().ServiceName)
	assert.True(t, b.Config().StaticTyping)

	require.NoError(t, b.SetConfig(nil))
	assert.Equal(t, &ServiceConfig{ServiceName: "default"}, b.Config())
}

func TestFileSetAddReplacesSamePath(t *testing.T) {
	var s FileSet
	s.Add(File{Name: "a.txt", Contents: []byte("1")})
	s.Add(File{Path: "sub", Name: "b.txt", Contents: []byte("2")})
	s.Add(File{Name: "a.txt", Contents: []byte("3")})

	require.Equal(t, 2, s.Len())
	f, ok := s.Get("", "a.txt")
	require.True(t, ok)
	assert.Equal(t, "3", string(f.Contents))
	assert.Equal(t, "a.txt", s.Files()[0].Name)
}

func TestBaseWriteFilesAndReset(t *testing.T) {
	dir := t.TempDir()
	b := NewBase(nil)
	b.SetTargetDirectory(dir)
	b.AddFile(File{Path: "nested", Name: "x.txt", Contents: []byte("x")})

	require.NoError(t, b.WriteFiles(context.Background()))
	got, err := os.ReadFile(filepath.Join(dir, "nested", "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))

	b.Reset()
	assert.Empty(t, b.Files())
	assert.NotNil(t, b.Config())
}

func TestFileSetWriteRequiresRoot(t *testing.T) {
	var s FileSet
	s.Add(File{Name: "a"})
	assert.Error(t, s.Write(context.Background(), ""))
}
