package linker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkAndUnlink(t *testing.T) {
	root := t.TempDir()
	binDir := filepath.Join(root, "bin")
	installPath := filepath.Join(root, "packages", "foo")
	require.NoError(t, os.MkdirAll(filepath.Join(installPath, "dist"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(installPath, "dist", "foo"), []byte("#!/bin/sh\n"), 0o755))

	l := NewSymlinker(binDir)

	links, err := l.Link("foo", installPath, map[string]string{"foo": "dist/foo"})
	require.NoError(t, err)
	require.Contains(t, links, "foo")

	target, err := os.Readlink(filepath.Join(binDir, "foo"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(installPath, "dist", "foo"), target)

	require.NoError(t, l.Unlink("foo", links))
	_, err = os.Lstat(filepath.Join(binDir, "foo"))
	assert.True(t, os.IsNotExist(err))
}

func TestUnlinkToleratesMissingLinks(t *testing.T) {
	l := NewSymlinker(filepath.Join(t.TempDir(), "bin"))

	err := l.Unlink("foo", map[string]string{"gone": "/nowhere"})
	assert.NoError(t, err)
}

func TestLinkReplacesExistingLink(t *testing.T) {
	root := t.TempDir()
	binDir := filepath.Join(root, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.Symlink("/old/target", filepath.Join(binDir, "foo")))

	l := NewSymlinker(binDir)
	_, err := l.Link("foo", filepath.Join(root, "packages", "foo"), map[string]string{"foo": "foo"})
	require.NoError(t, err)

	target, err := os.Readlink(filepath.Join(binDir, "foo"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "packages", "foo", "foo"), target)
}
