package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during tick N become
// readable in tick N+1 after SwapBuffers(), so telemetry consumers never
// observe a half-evaluated tick.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer (readable next tick). A nil bus
// is a no-op so the engine can run without telemetry wired.
func Emit[T any](b *Bus, ev T) {
	if b == nil {
		return
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.back[t] = append(b.back[t], ev)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers rotates back→front and clears the new back buffer. Called once
// at tick start by the harness.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
func (b *Bus) DispatchAll() {
	for t, events := range b.front {
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				// Safe: Subscribe and Emit key on the same concrete type.
				reflect.ValueOf(h).Call([]reflect.Value{reflect.ValueOf(ev)})
			}
		}
	}
}
