package mirror

import "sync"

// Listener receives mirror events. Ownership of the event passes to the
// listener. Implementations must not block for long: they run on the
// goroutine that completed the exchange.
type Listener interface {
	HandleMirrorEvent(ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev Event)

// HandleMirrorEvent calls f(ev).
func (f ListenerFunc) HandleMirrorEvent(ev Event) { f(ev) }

// Sink is an optional listener slot. Emitting to an empty sink does nothing.
type Sink struct {
	mu       sync.RWMutex
	listener Listener
}

// Register installs l, replacing any previous listener.
func (s *Sink) Register(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Deregister removes the listener.
func (s *Sink) Deregister() {
	s.Register(nil)
}

// Registered reports whether a listener is installed.
func (s *Sink) Registered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener != nil
}

// Emit hands ev to the listener. It reports false when there is none.
func (s *Sink) Emit(ev Event) bool {
	s.mu.RLock()
	l := s.listener
	s.mu.RUnlock()

	if l == nil {
		return false
	}
	l.HandleMirrorEvent(ev)
	return true
}

// FanOut delivers each event to every listener in order.
type FanOut []Listener

// HandleMirrorEvent implements Listener.
func (f FanOut) HandleMirrorEvent(ev Event) {
	for _, l := range f {
		l.HandleMirrorEvent(ev)
	}
}
