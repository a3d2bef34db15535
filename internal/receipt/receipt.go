// Package receipt reads and writes the persisted proof-of-install record kept
// in each package's install directory.
package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/toolshed-sh/toolshed/internal/result"
)

// Filename is the well-known receipt file name under the install directory.
const Filename = "toolshed-receipt.json"

// Receipt records a completed install: the primary source identifier (used to
// recover the installed version) and the filesystem links that were created.
// It is never mutated in memory after load.
type Receipt struct {
	Name          string            `json:"name"`
	PrimarySource string            `json:"primary_source"`
	Links         map[string]string `json:"links,omitempty"`
	InstalledAt   time.Time         `json:"installed_at"`
}

// Store loads and persists receipts for install directories.
type Store interface {
	// Load returns the receipt under installPath, or an absent Optional if no
	// receipt file exists. Absence is not an error.
	Load(installPath string) (result.Optional[Receipt], error)
	Write(installPath string, rec Receipt) error
}

type fileStore struct{}

// NewFileStore returns a Store backed by a JSON file in each install
// directory.
func NewFileStore() Store {
	return fileStore{}
}

var _ Store = fileStore{}

func (fileStore) Load(installPath string) (result.Optional[Receipt], error) {
	raw, err := os.ReadFile(filepath.Join(installPath, Filename))
	if errors.Is(err, fs.ErrNotExist) {
		return result.None[Receipt](), nil
	} else if err != nil {
		return result.None[Receipt](), fmt.Errorf("failed to read receipt: %w", err)
	}

	var rec Receipt
	if err := json.Unmarshal(raw, &rec); err != nil {
		return result.None[Receipt](), fmt.Errorf("failed to parse receipt: %w", err)
	}
	return result.Some(rec), nil
}

func (fileStore) Write(installPath string, rec Receipt) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	if err := os.MkdirAll(installPath, 0o755); err != nil {
		return fmt.Errorf("failed to create install directory: %w", err)
	}
	return os.WriteFile(filepath.Join(installPath, Filename), raw, 0o644)
}
