package receipt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReceipt(t *testing.T) {
	store := NewFileStore()

	opt, err := store.Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, opt.IsPresent())

	// A missing install directory is also plain absence.
	opt, err = store.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.False(t, opt.IsPresent())
}

func TestWriteThenLoad(t *testing.T) {
	store := NewFileStore()
	dir := filepath.Join(t.TempDir(), "packages", "foo")

	rec := Receipt{
		Name:          "foo",
		PrimarySource: "pkg:generic/foo@1.2.0",
		Links:         map[string]string{"foo": "bin/foo"},
		InstalledAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Write(dir, rec))

	opt, err := store.Load(dir)
	require.NoError(t, err)
	loaded, ok := opt.Get()
	require.True(t, ok)
	assert.Equal(t, rec, loaded)
}

func TestLoadCorruptReceipt(t *testing.T) {
	store := NewFileStore()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename), []byte("{not json"), 0o644))

	_, err := store.Load(dir)
	assert.Error(t, err)
}
