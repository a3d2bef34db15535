package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitDeliversInRegistrationOrder(t *testing.T) {
	e := NewEmitter()

	var order []string
	e.On("install:success", func(any) { order = append(order, "first") })
	e.On("install:success", func(any) { order = append(order, "second") })
	e.On("install:failed", func(any) { order = append(order, "unrelated") })

	e.Emit("install:success", nil)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEmitPassesPayload(t *testing.T) {
	e := NewEmitter()

	var got any
	e.On("handle", func(payload any) { got = payload })

	e.Emit("handle", 42)
	assert.Equal(t, 42, got)
}

func TestUnsubscribe(t *testing.T) {
	e := NewEmitter()

	count := 0
	off := e.On("handle", func(any) { count++ })

	e.Emit("handle", nil)
	off()
	e.Emit("handle", nil)
	// Second call is a no-op.
	off()
	e.Emit("handle", nil)

	assert.Equal(t, 1, count)
}

func TestOnce(t *testing.T) {
	e := NewEmitter()

	count := 0
	e.Once("install:failed", func(any) { count++ })

	e.Emit("install:failed", nil)
	e.Emit("install:failed", nil)

	assert.Equal(t, 1, count)
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	e := NewEmitter()

	delivered := false
	e.On("handle", func(any) { panic("bad handler") })
	e.On("handle", func(any) { delivered = true })

	assert.NotPanics(t, func() { e.Emit("handle", nil) })
	assert.True(t, delivered)
}
