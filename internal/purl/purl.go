// Package purl parses the purl-like source identifiers used by registry
// package definitions and install receipts, e.g. "pkg:generic/foo@1.2.0" or
// "pkg:npm/@scope/cli@2.0.0".
package purl

import (
	"errors"
	"fmt"
	"strings"
)

const scheme = "pkg:"

var (
	ErrMissingScheme = errors.New("identifier does not start with pkg:")
	ErrMissingType   = errors.New("identifier has no type component")
	ErrMissingName   = errors.New("identifier has no name component")
)

// Purl is a parsed package source identifier.
type Purl struct {
	Type      string
	Namespace string
	Name      string
	Version   string
}

// Parse splits an identifier of the form pkg:type/namespace/name@version.
// The namespace and version components are optional; everything else is
// required and malformed input is an error.
func Parse(id string) (Purl, error) {
	if !strings.HasPrefix(id, scheme) {
		return Purl{}, fmt.Errorf("%w: %q", ErrMissingScheme, id)
	}
	rest := strings.TrimPrefix(id, scheme)

	// Strip qualifiers and subpath; neither carries version information.
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}

	var version string
	if i := strings.LastIndexByte(rest, '@'); i > strings.LastIndexByte(rest, '/') {
		version = rest[i+1:]
		rest = rest[:i]
	}

	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		return Purl{}, fmt.Errorf("%w: %q", ErrMissingType, id)
	}
	name := parts[len(parts)-1]
	if len(parts) < 2 || name == "" {
		return Purl{}, fmt.Errorf("%w: %q", ErrMissingName, id)
	}

	return Purl{
		Type:      parts[0],
		Namespace: strings.Join(parts[1:len(parts)-1], "/"),
		Name:      name,
		Version:   version,
	}, nil
}

// String reassembles the canonical identifier form.
func (p Purl) String() string {
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString(p.Type)
	if p.Namespace != "" {
		b.WriteByte('/')
		b.WriteString(p.Namespace)
	}
	b.WriteByte('/')
	b.WriteString(p.Name)
	if p.Version != "" {
		b.WriteByte('@')
		b.WriteString(p.Version)
	}
	return b.String()
}
