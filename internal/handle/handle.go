// Package handle tracks the observable state of a single install attempt.
package handle

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle state of an install handle.
type State string

const (
	// StateOpen means the install task is still running.
	StateOpen State = "open"
	// StateClosed means the task completed through the normal path.
	StateClosed State = "closed"
	// StateTerminated means the task was forcibly aborted.
	StateTerminated State = "terminated"
)

// Handle is the mutable record of one in-flight (or completed) install
// attempt. It is bound to exactly one package at creation and is never reused:
// once closed or terminated it stays that way, and the package constructs a
// fresh handle for any later attempt.
type Handle struct {
	id      string
	pkgName string

	mu    sync.Mutex
	state State
	done  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	sink *Sink
}

// New returns an open handle for the named package. The handle's context is
// cancelled when the handle is terminated.
func New(pkgName string) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		id:      uuid.NewString(),
		pkgName: pkgName,
		state:   StateOpen,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		sink:    newSink(),
	}
}

func (h *Handle) ID() string {
	return h.id
}

func (h *Handle) PackageName() string {
	return h.pkgName
}

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// IsClosed reports whether the handle has reached a terminal state.
func (h *Handle) IsClosed() bool {
	return h.State() != StateOpen
}

func (h *Handle) IsTerminated() bool {
	return h.State() == StateTerminated
}

// Context is cancelled when the handle is terminated; the install task must
// honor it as its cancellation signal.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Done is closed once the handle reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Sink is the diagnostic output stream shared by the task and consumers.
func (h *Handle) Sink() *Sink {
	return h.sink
}

// Close marks a normal completion. It reports whether the transition
// happened; a handle that is already terminal is left untouched.
func (h *Handle) Close() bool {
	return h.transition(StateClosed)
}

// Terminate forcibly aborts the attempt: it cancels the handle's context so
// the running task unwinds, and marks the handle terminated. Idempotent once
// the handle is terminal.
func (h *Handle) Terminate() bool {
	ok := h.transition(StateTerminated)
	if ok {
		h.cancel()
	}
	return ok
}

func (h *Handle) transition(to State) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateOpen {
		return false
	}
	h.state = to
	close(h.done)
	return true
}

// Sink is a concurrency-safe text buffer for install diagnostics.
type Sink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func newSink() *Sink {
	return &Sink{}
}

func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *Sink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
