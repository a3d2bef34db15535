package purl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := Parse("pkg:generic/foo@1.2.0")
	require.NoError(t, err)
	assert.Equal(t, Purl{Type: "generic", Name: "foo", Version: "1.2.0"}, p)

	p, err = Parse("pkg:npm/@scope/cli@2.0.0")
	require.NoError(t, err)
	assert.Equal(t, Purl{Type: "npm", Namespace: "@scope", Name: "cli", Version: "2.0.0"}, p)

	// Version is optional.
	p, err = Parse("pkg:github/owner/repo")
	require.NoError(t, err)
	assert.Equal(t, Purl{Type: "github", Namespace: "owner", Name: "repo"}, p)

	// Qualifiers and subpath are ignored.
	p, err = Parse("pkg:cargo/ripgrep@14.1.0?features=pcre2#sub/dir")
	require.NoError(t, err)
	assert.Equal(t, "cargo", p.Type)
	assert.Equal(t, "ripgrep", p.Name)
	assert.Equal(t, "14.1.0", p.Version)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse("generic/foo@1.2.0")
	assert.ErrorIs(t, err, ErrMissingScheme)

	_, err = Parse("pkg:generic")
	assert.ErrorIs(t, err, ErrMissingName)

	_, err = Parse("pkg:generic/")
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestString(t *testing.T) {
	for _, id := range []string{
		"pkg:generic/foo@1.2.0",
		"pkg:npm/@scope/cli@2.0.0",
		"pkg:github/owner/repo",
	} {
		p, err := Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, p.String())
	}
}
