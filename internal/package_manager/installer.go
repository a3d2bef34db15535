package package_manager

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/toolshed-sh/toolshed/internal/handle"
	"github.com/toolshed-sh/toolshed/internal/linker"
	"github.com/toolshed-sh/toolshed/internal/purl"
	"github.com/toolshed-sh/toolshed/internal/receipt"
	"github.com/toolshed-sh/toolshed/internal/result"
)

// Installer performs the actual install for registry specs. A controlled
// failure is returned as an Err result; a panic is treated as an abnormal
// completion by the orchestrator.
type Installer interface {
	Execute(ctx context.Context, h *handle.Handle, pkg *Package, opts InstallOptions) result.Result[result.Unit]
}

type stubInstaller struct {
	receipts receipt.Store
	linker   linker.Linker
}

// NewStubInstaller returns an Installer that materializes the install
// directory, bin links and receipt without fetching any artifacts. The
// download/build steps of a real installer plug in behind the Installer
// interface; everything the orchestrator observes is the same.
func NewStubInstaller(receipts receipt.Store, linker linker.Linker) Installer {
	return &stubInstaller{receipts: receipts, linker: linker}
}

var _ Installer = (*stubInstaller)(nil)

func (i *stubInstaller) Execute(ctx context.Context, h *handle.Handle, pkg *Package, opts InstallOptions) result.Result[result.Unit] {
	spec := pkg.Spec()
	if spec.Kind != KindRegistry {
		return result.Errf[result.Unit]("no installer available for %s specs", spec.Kind)
	}

	source, err := resolveSource(spec.Registry.Source, opts.Version)
	if err != nil {
		return result.Err[result.Unit](err)
	}
	fmt.Fprintf(h.Sink(), "installing %s from %s\n", pkg.Name(), source)

	if err := ctx.Err(); err != nil {
		return result.Err[result.Unit](err)
	}

	installPath := pkg.InstallPath()
	if err := os.MkdirAll(installPath, 0o755); err != nil {
		return result.Errf[result.Unit]("failed to create install directory: %w", err)
	}

	links, err := i.linker.Link(pkg.Name(), installPath, spec.Registry.Bin)
	if err != nil {
		return result.Err[result.Unit](err)
	}

	rec := receipt.Receipt{
		Name:          pkg.Name(),
		PrimarySource: source,
		Links:         links,
		InstalledAt:   time.Now().UTC(),
	}
	if err := i.receipts.Write(installPath, rec); err != nil {
		return result.Err[result.Unit](err)
	}

	fmt.Fprintf(h.Sink(), "installed %s\n", pkg.Name())
	return result.Ok(result.Unit{})
}

// resolveSource applies a version override to the spec's source identifier.
func resolveSource(source, version string) (string, error) {
	if version == "" {
		return source, nil
	}
	p, err := purl.Parse(source)
	if err != nil {
		return "", fmt.Errorf("unable to parse source %q: %w", source, err)
	}
	p.Version = version
	return p.String(), nil
}
