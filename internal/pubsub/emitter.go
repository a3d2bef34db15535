package pubsub

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler consumes one emitted payload for a topic it subscribed to.
type Handler func(payload any)

// Emitter is a topic-based publish/subscribe channel. Each Package owns one,
// and the registry owns a process-wide one mirroring package events.
//
// Delivery is synchronous and in registration order: Emit invokes every
// handler before returning, so callers that emit a local event followed by a
// registry event get a fixed observable ordering between the two.
type Emitter struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string][]subscription
}

type subscription struct {
	id int
	fn Handler
}

func NewEmitter() *Emitter {
	return &Emitter{
		handlers: make(map[string][]subscription),
	}
}

// On subscribes the handler to the topic and returns a function that removes
// the subscription. Unsubscribing twice is a no-op.
func (e *Emitter) On(topic string, h Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.subscribe(topic, h)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.unsubscribe(topic, id)
	}
}

// Once subscribes the handler for a single delivery.
func (e *Emitter) Once(topic string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var once sync.Once
	var id int
	id = e.subscribe(topic, func(payload any) {
		once.Do(func() {
			e.mu.Lock()
			e.unsubscribe(topic, id)
			e.mu.Unlock()
			h(payload)
		})
	})
}

// subscribe and unsubscribe require e.mu to be held.
func (e *Emitter) subscribe(topic string, h Handler) int {
	id := e.nextID
	e.nextID++
	e.handlers[topic] = append(e.handlers[topic], subscription{id: id, fn: h})
	return id
}

func (e *Emitter) unsubscribe(topic string, id int) {
	subs := e.handlers[topic]
	for i, sub := range subs {
		if sub.id == id {
			e.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit delivers the payload to every handler subscribed to the topic, in
// registration order. A panicking handler is logged and skipped; it never
// propagates into the emitting call site.
func (e *Emitter) Emit(topic string, payload any) {
	e.mu.RLock()
	subs := make([]subscription, len(e.handlers[topic]))
	copy(subs, e.handlers[topic])
	e.mu.RUnlock()

	for _, sub := range subs {
		deliver(topic, sub.fn, payload)
	}
}

func deliver(topic string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("topic", topic).Interface("panic", r).Msg("event handler panicked while consuming event")
		}
	}()
	h(payload)
}
