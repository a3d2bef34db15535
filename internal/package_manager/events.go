package package_manager

import "github.com/toolshed-sh/toolshed/internal/handle"

// Topics emitted on a package's own emitter.
const (
	EventHandle           = "handle"
	EventInstallSuccess   = "install:success"
	EventInstallFailed    = "install:failed"
	EventUninstallSuccess = "uninstall:success"
)

// Topics mirrored on the registry-wide bus, carrying the originating package.
// For a given install attempt the local event always fires before its mirror.
const (
	EventPackageHandle           = "package:handle"
	EventPackageInstallSuccess   = "package:install:success"
	EventPackageInstallFailed    = "package:install:failed"
	EventPackageUninstallSuccess = "package:uninstall:success"
)

// HandleEvent announces a freshly created install handle.
type HandleEvent struct {
	Package *Package
	Handle  *handle.Handle
}

// InstallSuccessEvent reports a controlled successful install.
type InstallSuccessEvent struct {
	Package *Package
	Handle  *handle.Handle
}

// InstallFailedEvent reports a failed install. Abnormal reports true when the
// installer itself crashed rather than cleanly reporting failure; observers
// interpret the subsequent handle termination differently in that case.
type InstallFailedEvent struct {
	Package  *Package
	Handle   *handle.Handle
	Err      error
	Abnormal bool
}

// UninstallSuccessEvent reports that a package's artifacts were removed.
type UninstallSuccessEvent struct {
	Package *Package
}
