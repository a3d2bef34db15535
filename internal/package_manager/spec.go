package package_manager

import (
	"context"

	"github.com/toolshed-sh/toolshed/internal/handle"
	"github.com/toolshed-sh/toolshed/internal/result"
)

// SpecKind tags the two spec variants. The kind is fixed at construction and
// orchestration branches on it explicitly.
type SpecKind string

const (
	// KindRegistry describes a package sourced from a registry definition: a
	// structured source identifier plus declarative metadata.
	KindRegistry SpecKind = "registry"
	// KindLegacy describes a package with an arbitrary install routine and
	// free-form metadata.
	KindLegacy SpecKind = "legacy"
)

// InstallFunc is the install routine carried by legacy specs.
type InstallFunc func(ctx context.Context, h *handle.Handle, opts InstallOptions) result.Result[result.Unit]

// RegistrySpec is the registry-sourced variant.
type RegistrySpec struct {
	// Source is the purl-like identifier the package is installed from,
	// e.g. "pkg:golang/golang.org/x/tools/gopls@0.16.2".
	Source     string   `yaml:"source"`
	Licenses   []string `yaml:"licenses,omitempty"`
	Categories []string `yaml:"categories,omitempty"`
	Languages  []string `yaml:"languages,omitempty"`
	// Bin maps link names to executable paths relative to the install dir.
	Bin map[string]string `yaml:"bin,omitempty"`
}

// LegacySpec is the legacy variant.
type LegacySpec struct {
	Install  InstallFunc
	Metadata map[string]any
}

// Spec is the capability-described configuration of a package, one of two
// variants.
type Spec struct {
	Kind     SpecKind
	Registry *RegistrySpec
	Legacy   *LegacySpec
}

func NewRegistrySpec(spec RegistrySpec) Spec {
	return Spec{Kind: KindRegistry, Registry: &spec}
}

func NewLegacySpec(spec LegacySpec) Spec {
	return Spec{Kind: KindLegacy, Legacy: &spec}
}
