package handle

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Terminator is the process-wide registry of open handles. Every handle is
// registered at creation so that shutdown can force-terminate whatever is
// still running. Constructed once at process start and passed by reference.
type Terminator struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

func NewTerminator() *Terminator {
	return &Terminator{
		handles: make(map[string]*Handle),
	}
}

// Register tracks the handle until it reaches a terminal state, after which
// it is pruned from the registry.
func (t *Terminator) Register(h *Handle) {
	t.mu.Lock()
	t.handles[h.ID()] = h
	t.mu.Unlock()

	go func() {
		<-h.Done()
		t.mu.Lock()
		delete(t.handles, h.ID())
		t.mu.Unlock()
	}()
}

// Open returns the number of currently tracked handles.
func (t *Terminator) Open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

// TerminateAll terminates every still-open handle. Handles that raced to a
// terminal state on their own are skipped.
func (t *Terminator) TerminateAll() {
	t.mu.Lock()
	open := make([]*Handle, 0, len(t.handles))
	for _, h := range t.handles {
		open = append(open, h)
	}
	t.mu.Unlock()

	for _, h := range open {
		if h.Terminate() {
			log.Warn().Str("package", h.PackageName()).Str("handle", h.ID()).Msg("terminated open install handle on shutdown")
		}
	}
}
