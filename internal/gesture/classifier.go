package gesture

import (
	"time"

	"wavectl/internal/detector"
)

// Classifier maps one hand-pose sample to a gesture event candidate by
// combining the finger-state vector with the motion tracker's swipe result.
//
// Like the MotionTracker it owns, it is driven by a single detection loop
// and is not safe for concurrent use.
type Classifier struct {
	motion *MotionTracker
}

// NewClassifier creates a Classifier around the given motion tracker.
// A nil tracker gets the package defaults.
func NewClassifier(motion *MotionTracker) *Classifier {
	if motion == nil {
		motion = NewMotionTracker(0, 0, 0)
	}
	return &Classifier{motion: motion}
}

// Motion returns the classifier's motion tracker.
func (c *Classifier) Motion() *MotionTracker {
	return c.motion
}

// Classify produces a gesture event candidate for one sample captured at t.
// A nil hand means "no hand detected": the motion window is cleared and the
// result is None. Malformed samples are absorbed as None so the caller's
// loop stays alive.
//
// A swipe preempts static poses for the same sample: it is a compound,
// time-extended signal, and letting the pose rules win would fire two
// conflicting triggers from one motion.
func (c *Classifier) Classify(hand *detector.HandLandmarks, t time.Time) Event {
	if hand == nil {
		c.motion.Reset()
		return Event{Gesture: None, Timestamp: t}
	}

	fingers, err := ReadFingers(hand)
	if err != nil {
		return Event{Gesture: None, Timestamp: t}
	}

	c.motion.Observe(hand.Centroid().X, t)

	if swipe := c.motion.Swipe(); swipe != None {
		return Event{Gesture: swipe, Timestamp: t}
	}

	switch {
	case fingers.AllExtended():
		return Event{Gesture: Play, Timestamp: t}
	case fingers.NoneExtended():
		return Event{Gesture: Pause, Timestamp: t}
	case fingers.Index && fingers.Middle && !fingers.Thumb && !fingers.Ring && !fingers.Pinky:
		return Event{Gesture: VolumeUp, Timestamp: t}
	case fingers.Ring && fingers.Pinky && !fingers.Thumb && !fingers.Index && !fingers.Middle:
		return Event{Gesture: VolumeDown, Timestamp: t}
	}

	return Event{Gesture: None, Timestamp: t}
}
