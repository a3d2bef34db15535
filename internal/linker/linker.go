// Package linker manages the symlinks that expose installed package binaries
// under the shared bin prefix.
package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Linker creates and removes filesystem links for a package's executables.
type Linker interface {
	// Link creates one link per entry in bins (link name -> path relative to
	// the install dir) and returns the created links keyed by link name.
	Link(pkgName, installPath string, bins map[string]string) (map[string]string, error)
	// Unlink removes previously created links. Links that are already gone,
	// or that now point somewhere else, are skipped rather than failed.
	Unlink(pkgName string, links map[string]string) error
}

type symlinker struct {
	binDir string
}

// NewSymlinker returns a Linker that symlinks executables into binDir.
func NewSymlinker(binDir string) Linker {
	return &symlinker{binDir: binDir}
}

var _ Linker = (*symlinker)(nil)

func (l *symlinker) Link(pkgName, installPath string, bins map[string]string) (map[string]string, error) {
	if err := os.MkdirAll(l.binDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bin directory: %w", err)
	}

	created := make(map[string]string, len(bins))
	for name, rel := range bins {
		target := filepath.Join(installPath, rel)
		linkPath := filepath.Join(l.binDir, name)
		if err := os.Remove(linkPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return created, fmt.Errorf("failed to replace existing link %s: %w", linkPath, err)
		}
		if err := os.Symlink(target, linkPath); err != nil {
			return created, fmt.Errorf("failed to link %s: %w", name, err)
		}
		created[name] = target
	}
	return created, nil
}

func (l *symlinker) Unlink(pkgName string, links map[string]string) error {
	for name := range links {
		linkPath := filepath.Join(l.binDir, name)
		err := os.Remove(linkPath)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return fmt.Errorf("failed to remove link %s: %w", linkPath, err)
		}
		log.Debug().Str("package", pkgName).Str("link", name).Msg("removed bin link")
	}
	return nil
}
