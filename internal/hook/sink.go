package hook

import (
	"errors"
	"fmt"
	"time"

	"wavectl/internal/gesture"
)

// Sink dispatches accepted gesture events to every subscribed hook. It
// satisfies the detection controller's sink interface, so hooks plug in
// next to the playback controller.
type Sink struct {
	manager *Manager
	runner  *Runner
}

// NewSink creates a Sink over the given manager.
func NewSink(manager *Manager, timeout time.Duration) *Sink {
	return &Sink{
		manager: manager,
		runner:  NewRunner(timeout),
	}
}

// Apply runs each subscribed hook for the event. All hooks run even when
// some fail; the failures come back joined.
func (s *Sink) Apply(e gesture.Event) error {
	var errs []error

	for _, h := range s.manager.List() {
		if !h.Wants(e.Gesture) {
			continue
		}

		result, err := s.runner.Run(h, e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !result.Success {
			errs = append(errs, fmt.Errorf("hook %s: %s", h.Manifest.Name, result.Error))
		}
	}

	return errors.Join(errs...)
}
