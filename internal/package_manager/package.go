package package_manager

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/toolshed-sh/toolshed/internal/handle"
	"github.com/toolshed-sh/toolshed/internal/linker"
	"github.com/toolshed-sh/toolshed/internal/pubsub"
	"github.com/toolshed-sh/toolshed/internal/receipt"
	"github.com/toolshed-sh/toolshed/internal/result"
)

// Paths resolves the filesystem layout packages are installed into.
type Paths interface {
	InstallDir(pkgName string) string
	BinDir() string
}

// Deps are the collaborators a Package orchestrates. All of them are
// interfaces or process-scoped services passed by reference.
type Deps struct {
	Paths      Paths
	Receipts   receipt.Store
	Linker     linker.Linker
	Versions   VersionChecker // legacy specs only
	Terminator *handle.Terminator
	Bus        *pubsub.Emitter // registry-wide event bus
	Installer  Installer
}

// Package is the orchestrating entity for one logical package. It owns zero
// or one install handle at a time, dispatches the install task, and re-emits
// lifecycle events to the registry bus. Created once per logical package and
// cached by the registry for the process lifetime.
type Package struct {
	name    string
	spec    Spec
	deps    Deps
	emitter *pubsub.Emitter
	logger  zerolog.Logger

	mu     sync.Mutex
	handle *handle.Handle
	// onDone holds the completion callbacks of the current attempt, including
	// those of callers that collapsed onto it. Drained by runInstall.
	onDone []func(result.Result[result.Unit])
}

func New(name string, spec Spec, deps Deps) *Package {
	return &Package{
		name:    name,
		spec:    spec,
		deps:    deps,
		emitter: pubsub.NewEmitter(),
		logger:  log.With().Str("package", name).Logger(),
	}
}

func (p *Package) Name() string {
	return p.name
}

func (p *Package) Spec() Spec {
	return p.spec
}

// On subscribes to the package's own events; the emitter is exposed by
// delegation rather than embedding.
func (p *Package) On(topic string, h pubsub.Handler) func() {
	return p.emitter.On(topic, h)
}

// InstallPath is a deterministic function of the package name only.
func (p *Package) InstallPath() string {
	return p.deps.Paths.InstallDir(p.name)
}

// Receipt returns the persisted install receipt, or an absent Optional when
// none exists. An unreadable receipt is logged and treated as absent.
func (p *Package) Receipt() result.Optional[receipt.Receipt] {
	opt, err := p.deps.Receipts.Load(p.InstallPath())
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to load receipt")
		return result.None[receipt.Receipt]()
	}
	return opt
}

func (p *Package) IsInstalled() bool {
	return p.Receipt().IsPresent()
}

// Handle returns the current install handle, which may belong to a completed
// attempt. Absent until the first Install call.
func (p *Package) Handle() result.Optional[*handle.Handle] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == nil {
		return result.None[*handle.Handle]()
	}
	return result.Some(p.handle)
}

// InstallOptions parameterize one install attempt.
type InstallOptions struct {
	// Version overrides the version encoded in the spec's source identifier.
	Version string
	// OnDone, if set, is invoked exactly once when the attempt completes,
	// after all lifecycle events for the attempt have fired. It also fires
	// when the attempt is terminated. A call that collapses onto a running
	// attempt has its OnDone delivered with that attempt's result.
	OnDone func(res result.Result[result.Unit])
}

// Install returns the handle representing the possibly already running
// install attempt. Concurrent calls collapse onto one job: while a handle is
// open it is returned unchanged, no new task is dispatched, and the caller's
// OnDone joins the running attempt. The handle events for a fresh attempt
// fire after the handle is published, so a racing call may receive the
// handle before observing its handle event. The install itself proceeds
// asynchronously; outcomes are delivered via events and opts.OnDone, never
// synchronously from this call.
func (p *Package) Install(opts InstallOptions) *handle.Handle {
	p.mu.Lock()
	if p.handle != nil && !p.handle.IsClosed() {
		h := p.handle
		if opts.OnDone != nil {
			p.onDone = append(p.onDone, opts.OnDone)
		}
		p.mu.Unlock()
		return h
	}
	h := p.newHandle()
	p.onDone = nil
	if opts.OnDone != nil {
		p.onDone = append(p.onDone, opts.OnDone)
	}
	p.mu.Unlock()

	ev := HandleEvent{Package: p, Handle: h}
	p.emitter.Emit(EventHandle, ev)
	p.deps.Bus.Emit(EventPackageHandle, ev)

	go p.runInstall(h, opts)
	return h
}

// newHandle constructs a fresh handle and registers it with the terminator.
// Requesting a new handle while the current one is open is a caller bug in
// orchestration, not a runtime fault. Callers must hold p.mu.
func (p *Package) newHandle() *handle.Handle {
	if p.handle != nil && !p.handle.IsClosed() {
		panic(fmt.Sprintf("package %s: new handle requested while the current handle is still open", p.name))
	}
	h := handle.New(p.name)
	p.deps.Terminator.Register(h)
	p.handle = h
	return h
}

func (p *Package) runInstall(h *handle.Handle, opts InstallOptions) {
	res, abnormal := p.execute(h, opts)

	switch {
	case abnormal != nil:
		// The installer crashed outside the Result protocol. Events fire
		// before the handle is touched so observers can tell a crash apart
		// from a failure discovered via terminate.
		p.logger.Error().Err(abnormal).Msg("installer failed abnormally")
		ev := InstallFailedEvent{Package: p, Handle: h, Err: abnormal, Abnormal: true}
		p.emitter.Emit(EventInstallFailed, ev)
		p.deps.Bus.Emit(EventPackageInstallFailed, ev)
		if !h.IsClosed() {
			fmt.Fprintf(h.Sink(), "Installation failed abnormally: %s\n", abnormal)
			h.Terminate()
		}
		res = result.Err[result.Unit](abnormal)
	case res.IsOk():
		p.logger.Info().Msg("package installed")
		ev := InstallSuccessEvent{Package: p, Handle: h}
		p.emitter.Emit(EventInstallSuccess, ev)
		p.deps.Bus.Emit(EventPackageInstallSuccess, ev)
		h.Close()
	default:
		p.logger.Error().Err(res.Err()).Msg("installation failed")
		ev := InstallFailedEvent{Package: p, Handle: h, Err: res.Err()}
		p.emitter.Emit(EventInstallFailed, ev)
		p.deps.Bus.Emit(EventPackageInstallFailed, ev)
		h.Close()
	}

	// Collapsed callers registered their callbacks against this attempt; the
	// handle is no longer open, so no new registrations can race the drain.
	p.mu.Lock()
	callbacks := p.onDone
	p.onDone = nil
	p.mu.Unlock()
	for _, cb := range callbacks {
		cb(res)
	}
}

// execute runs the install routine for the spec kind, converting a panic into
// an abnormal error.
func (p *Package) execute(h *handle.Handle, opts InstallOptions) (res result.Result[result.Unit], abnormal error) {
	defer func() {
		if r := recover(); r != nil {
			abnormal = fmt.Errorf("installer panicked: %v", r)
		}
	}()

	if p.spec.Kind == KindLegacy {
		if p.spec.Legacy.Install == nil {
			return result.Errf[result.Unit]("package %s has no install routine", p.name), nil
		}
		return p.spec.Legacy.Install(h.Context(), h, opts), nil
	}
	return p.deps.Installer.Execute(h.Context(), h, p, opts), nil
}

// Uninstall removes the package's artifacts and reports whether anything was
// actually removed. Independent of the install-handle lifecycle; it assumes
// no install is concurrently in progress.
func (p *Package) Uninstall() (bool, error) {
	removed, err := p.Unlink()
	if err != nil || !removed {
		return removed, err
	}
	ev := UninstallSuccessEvent{Package: p}
	p.emitter.Emit(EventUninstallSuccess, ev)
	p.deps.Bus.Emit(EventPackageUninstallSuccess, ev)
	return true, nil
}

// Unlink undoes binary linking recorded in the receipt and removes the
// install directory. Idempotent: with nothing installed it reports false and
// touches nothing. Absence of a receipt just skips link removal.
func (p *Package) Unlink() (bool, error) {
	if rec, ok := p.Receipt().Get(); ok {
		if err := p.deps.Linker.Unlink(p.name, rec.Links); err != nil {
			return false, fmt.Errorf("failed to unlink %s: %w", p.name, err)
		}
	}

	dir := p.InstallPath()
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("failed to remove install directory of %s: %w", p.name, err)
	}
	return true, nil
}
