package gesture

import "time"

// DefaultCooldown is the minimum interval between accepted events.
const DefaultCooldown = 1 * time.Second

// Cooldown is the debounce gate between the classifier and the rest of the
// system. It has two states: armed, where the next non-None candidate is
// accepted, and refractory, where every candidate is dropped until the
// cooldown interval has elapsed since the last accepted event.
//
// Owned by the detection loop; not safe for concurrent use.
type Cooldown struct {
	duration  time.Duration
	lastFired time.Time
}

// NewCooldown creates a gate with the given interval. Non-positive
// durations fall back to DefaultCooldown.
func NewCooldown(duration time.Duration) *Cooldown {
	if duration <= 0 {
		duration = DefaultCooldown
	}
	return &Cooldown{duration: duration}
}

// Offer presents a candidate event to the gate. It returns true when the
// candidate is accepted and should be published.
//
// None candidates are never accepted and never touch the gate state.
// While refractory, candidates are dropped regardless of label, not queued;
// the label of the last accepted event does not matter either, so a PAUSE
// right after a PLAY is dropped until the interval elapses.
func (c *Cooldown) Offer(e Event) bool {
	if e.IsZero() {
		return false
	}
	if !c.lastFired.IsZero() && e.Timestamp.Sub(c.lastFired) < c.duration {
		return false
	}
	c.lastFired = e.Timestamp
	return true
}

// Reset re-arms the gate, forgetting the last accepted event.
func (c *Cooldown) Reset() {
	c.lastFired = time.Time{}
}
