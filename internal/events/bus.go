package events

import "sync"

// ErrorKind classifies a device form error for presentation purposes.
// The panel highlights the offending input based on this value.
type ErrorKind string

const (
	// KindName indicates a missing name, a missing room selection, or a
	// combined omission that includes the name field.
	KindName ErrorKind = "name"

	// KindType indicates the device type alone was omitted.
	KindType ErrorKind = "type"
)

// DeviceError is published when a device form submission fails validation.
// Subscribers (toast surfaces, logs) receive a copy of the event.
type DeviceError struct {
	// RoomName is the display name of the room the form targeted, or the
	// aggregate room name when no specific room was resolved.
	RoomName string

	// Message is the human-readable validation message.
	Message string

	// Kind routes the error to the offending input.
	Kind ErrorKind
}

// Handler receives published device errors.
type Handler func(DeviceError)

// Bus is a minimal synchronous publish/subscribe channel for device
// errors. Publish calls each subscriber on the caller's goroutine;
// handlers must not block.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[int]Handler),
	}
}

// Subscribe registers a handler and returns a function that removes it.
// The cancel function is safe to call more than once.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(ev DeviceError) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
