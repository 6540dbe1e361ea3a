package gesture

import "sync"

// Slot is a single-value cell holding the latest accepted gesture event.
// The detection loop is its only writer; any number of request-serving
// goroutines read it concurrently.
//
// Publish replaces the whole event under the write lock, so a read never
// mixes the label of one publish with the timestamp of another. It is a
// latest-value cell, not a queue: a reader polling slower than the loop
// publishes will simply miss intermediate events.
type Slot struct {
	mu    sync.RWMutex
	event Event
}

// NewSlot creates a slot initialized to the sentinel event.
func NewSlot() *Slot {
	return &Slot{event: Event{Gesture: None}}
}

// Publish atomically replaces the slot contents.
func (s *Slot) Publish(e Event) {
	s.mu.Lock()
	s.event = e
	s.mu.Unlock()
}

// Load returns a consistent snapshot of the latest event.
func (s *Slot) Load() Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.event
}

// Reset restores the sentinel. Called when a new detection session starts.
func (s *Slot) Reset() {
	s.Publish(Event{Gesture: None})
}
