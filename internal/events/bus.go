package events

import "sync"

// Bus is a minimal in-process broadcaster. The HTTP layer publishes a
// session-expired signal on it without knowing who listens; the session
// store subscribes at startup. Handlers run synchronously on the
// publishing goroutine.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func()
}

func NewBus() *Bus {
	return &Bus{handlers: map[int]func(){}}
}

// Subscribe registers a handler and returns a function that removes it.
func (b *Bus) Subscribe(handler func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish invokes every registered handler.
func (b *Bus) Publish() {
	b.mu.Lock()
	handlers := make([]func(), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}
