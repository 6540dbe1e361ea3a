// Package gesture turns a stream of hand-pose samples into discrete,
// debounced playback-control events.
package gesture

import "time"

// Gesture identifies a recognized playback-control gesture.
type Gesture string

const (
	// None is the sentinel for "no gesture recognized".
	None Gesture = "NONE"
	// Play is an open palm, all five fingers extended.
	Play Gesture = "PLAY"
	// Pause is a closed fist, no fingers extended.
	Pause Gesture = "PAUSE"
	// SwipeLeft is a sustained leftward motion of the hand.
	SwipeLeft Gesture = "SWIPE_LEFT"
	// SwipeRight is a sustained rightward motion of the hand.
	SwipeRight Gesture = "SWIPE_RIGHT"
	// VolumeUp is index and middle fingers extended, the rest closed.
	VolumeUp Gesture = "VOLUME_UP"
	// VolumeDown is ring and pinky fingers extended, the rest closed.
	VolumeDown Gesture = "VOLUME_DOWN"
)

// Event is one recognized gesture and the capture time of the sample
// that produced it. The zero Event is the "no gesture yet" sentinel.
type Event struct {
	Gesture   Gesture   `json:"gesture"`
	Timestamp time.Time `json:"timestamp"`
}

// IsZero reports whether e is the sentinel event.
func (e Event) IsZero() bool {
	return e.Gesture == "" || e.Gesture == None
}
