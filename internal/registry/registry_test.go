package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolshed-sh/toolshed/internal/config"
	"github.com/toolshed-sh/toolshed/internal/handle"
	"github.com/toolshed-sh/toolshed/internal/linker"
	"github.com/toolshed-sh/toolshed/internal/package_manager"
	"github.com/toolshed-sh/toolshed/internal/receipt"
)

const goplsYaml = `
name: gopls
source: pkg:golang/golang.org/x/tools/gopls@0.16.2
licenses:
  - BSD-3-Clause
categories:
  - LSP
languages:
  - go
bin:
  gopls: gopls
`

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := config.NewTestConfig(t.TempDir())
	return New(package_manager.Deps{
		Paths:      cfg,
		Receipts:   receipt.NewFileStore(),
		Linker:     linker.NewSymlinker(cfg.BinDir()),
		Terminator: handle.NewTerminator(),
	})
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gopls.yml"), []byte(goplsYaml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a definition"), 0o644))

	r := newTestRegistry(t)
	require.NoError(t, r.LoadDefinitions(dir))

	assert.Equal(t, []string{"gopls"}, r.Names())

	pkg, ok := r.Get("gopls").Get()
	require.True(t, ok)
	spec := pkg.Spec()
	require.Equal(t, package_manager.KindRegistry, spec.Kind)
	assert.Equal(t, "pkg:golang/golang.org/x/tools/gopls@0.16.2", spec.Registry.Source)
	assert.Equal(t, []string{"LSP"}, spec.Registry.Categories)
	assert.Equal(t, map[string]string{"gopls": "gopls"}, spec.Registry.Bin)
}

func TestLoadDefinitionsMissingDir(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.LoadDefinitions(filepath.Join(t.TempDir(), "absent")))
	assert.Empty(t, r.Names())
}

func TestGetCachesPackages(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddDefinition(Definition{
		Name:         "foo",
		RegistrySpec: package_manager.RegistrySpec{Source: "pkg:generic/foo@1.0.0"},
	}))

	first, ok := r.Get("foo").Get()
	require.True(t, ok)
	second, ok := r.Get("foo").Get()
	require.True(t, ok)
	assert.Same(t, first, second)

	assert.False(t, r.Get("unknown").IsPresent())
}

func TestAddDefinitionRejectsMalformedSource(t *testing.T) {
	r := newTestRegistry(t)

	err := r.AddDefinition(Definition{
		Name:         "bad",
		RegistrySpec: package_manager.RegistrySpec{Source: "not-a-purl"},
	})
	assert.Error(t, err)

	err = r.AddDefinition(Definition{RegistrySpec: package_manager.RegistrySpec{Source: "pkg:generic/x@1"}})
	assert.Error(t, err)
}

func TestRegisterLegacyPackage(t *testing.T) {
	r := newTestRegistry(t)

	pkg := package_manager.New("custom", package_manager.NewLegacySpec(package_manager.LegacySpec{}), r.Deps())
	r.Register(pkg)

	got, ok := r.Get("custom").Get()
	require.True(t, ok)
	assert.Same(t, pkg, got)
}
