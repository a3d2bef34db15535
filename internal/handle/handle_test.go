package handle

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandleIsOpen(t *testing.T) {
	h := New("foo")

	assert.Equal(t, StateOpen, h.State())
	assert.False(t, h.IsClosed())
	assert.False(t, h.IsTerminated())
	assert.Equal(t, "foo", h.PackageName())
	assert.NotEmpty(t, h.ID())

	select {
	case <-h.Done():
		t.Fatal("Done must not be closed while the handle is open")
	default:
	}
}

func TestCloseIsTerminal(t *testing.T) {
	h := New("foo")

	require.True(t, h.Close())
	assert.Equal(t, StateClosed, h.State())
	assert.True(t, h.IsClosed())
	assert.False(t, h.IsTerminated())

	// No transition leaves a terminal state.
	assert.False(t, h.Close())
	assert.False(t, h.Terminate())
	assert.Equal(t, StateClosed, h.State())

	select {
	case <-h.Done():
	default:
		t.Fatal("Done must be closed once the handle is terminal")
	}
}

func TestTerminateCancelsContext(t *testing.T) {
	h := New("foo")

	require.True(t, h.Terminate())
	assert.True(t, h.IsTerminated())
	assert.True(t, h.IsClosed())
	assert.False(t, h.Terminate())

	select {
	case <-h.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context must be cancelled by Terminate")
	}
}

func TestCloseDoesNotCancelContext(t *testing.T) {
	h := New("foo")
	require.True(t, h.Close())

	select {
	case <-h.Context().Done():
		t.Fatal("Close must not cancel the handle context")
	default:
	}
}

func TestSink(t *testing.T) {
	h := New("foo")

	fmt.Fprintf(h.Sink(), "step %d\n", 1)
	fmt.Fprintf(h.Sink(), "step %d\n", 2)

	assert.Equal(t, "step 1\nstep 2\n", h.Sink().String())
}

func TestTerminatorTerminateAll(t *testing.T) {
	term := NewTerminator()

	open := New("foo")
	closed := New("bar")
	term.Register(open)
	term.Register(closed)

	require.True(t, closed.Close())

	term.TerminateAll()

	assert.True(t, open.IsTerminated())
	assert.Equal(t, StateClosed, closed.State())

	// Terminal handles are pruned from the registry.
	assert.Eventually(t, func() bool {
		return term.Open() == 0
	}, time.Second, 10*time.Millisecond)
}
