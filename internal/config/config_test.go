package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToolshedYaml = `
debug: true
ensure_installed:
  - name: gopls
    source: pkg:golang/golang.org/x/tools/gopls@0.16.2
  - name: ripgrep
    source: pkg:cargo/ripgrep@14.1.0
`

func TestPaths(t *testing.T) {
	c := NewTestConfig("/tmp/toolshed-test")

	assert.Equal(t, "/tmp/toolshed-test", c.RootPath())
	assert.Equal(t, filepath.Join("/tmp/toolshed-test", "packages", "gopls"), c.InstallDir("gopls"))
	assert.Equal(t, filepath.Join("/tmp/toolshed-test", "bin"), c.BinDir())
	assert.Equal(t, filepath.Join("/tmp/toolshed-test", "registry"), c.RegistryPath())
	assert.Equal(t, filepath.Join("/tmp/toolshed-test", "toolshed.db"), c.IndexPath())
}

func TestRegistryPathOverride(t *testing.T) {
	v := viper.New()
	v.Set("toolshed_path", "/tmp/root")
	v.Set("registry_path", "/srv/registry")
	c := &Config{viper: v}

	assert.Equal(t, "/srv/registry", c.RegistryPath())
}

func TestLogLevel(t *testing.T) {
	c := NewTestConfig(t.TempDir())
	assert.Equal(t, zerolog.InfoLevel, c.LogLevel())

	v := viper.New()
	v.Set("debug", true)
	debug := &Config{viper: v}
	assert.Equal(t, zerolog.DebugLevel, debug.LogLevel())
}

func TestEnsureInstalled(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yml")
	require.NoError(t, v.ReadConfig(strings.NewReader(testToolshedYaml)))
	c := &Config{viper: v}

	pkgs, err := c.EnsureInstalled()
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "gopls", pkgs[0].Name)
	assert.Equal(t, "pkg:cargo/ripgrep@14.1.0", pkgs[1].Source)
}
