package package_manager

import (
	"context"
	"sync"

	"github.com/toolshed-sh/toolshed/internal/handle"
	"github.com/toolshed-sh/toolshed/internal/receipt"
	"github.com/toolshed-sh/toolshed/internal/result"
)

type mockInstaller struct {
	mu    sync.Mutex
	calls int

	// release, when non-nil, holds the install open until closed; a cancelled
	// handle context unblocks it as a controlled failure.
	release   chan struct{}
	res       result.Result[result.Unit]
	panicWith any
}

func newMockInstaller() *mockInstaller {
	return &mockInstaller{res: result.Ok(result.Unit{})}
}

var _ Installer = (*mockInstaller)(nil)

func (m *mockInstaller) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockInstaller) Execute(ctx context.Context, h *handle.Handle, pkg *Package, opts InstallOptions) result.Result[result.Unit] {
	m.mu.Lock()
	m.calls++
	release := m.release
	res := m.res
	panicWith := m.panicWith
	m.mu.Unlock()

	if panicWith != nil {
		panic(panicWith)
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return result.Err[result.Unit](ctx.Err())
		}
	}
	return res
}

type mockVersionChecker struct {
	installed result.Result[string]
	upgrade   result.Result[Upgrade]
}

var _ VersionChecker = (*mockVersionChecker)(nil)

func (m *mockVersionChecker) GetInstalledVersion(rec result.Optional[receipt.Receipt], installPath string) result.Result[string] {
	return m.installed
}

func (m *mockVersionChecker) GetNewVersion(rec result.Optional[receipt.Receipt], installPath string) result.Result[Upgrade] {
	return m.upgrade
}
