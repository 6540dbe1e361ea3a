package gesture

import (
	"errors"

	"wavectl/internal/detector"
)

// ErrInvalidSample is returned when a hand-pose sample is missing or
// degenerate and no finger state can be derived from it.
var ErrInvalidSample = errors.New("invalid hand-pose sample")

// FingerState records which of the five fingers are extended.
type FingerState struct {
	Thumb  bool
	Index  bool
	Middle bool
	Ring   bool
	Pinky  bool
}

// Count returns the number of extended fingers.
func (f FingerState) Count() int {
	n := 0
	for _, up := range [5]bool{f.Thumb, f.Index, f.Middle, f.Ring, f.Pinky} {
		if up {
			n++
		}
	}
	return n
}

// AllExtended reports whether all five fingers are extended (open palm).
func (f FingerState) AllExtended() bool {
	return f.Count() == 5
}

// NoneExtended reports whether no finger is extended (fist).
func (f FingerState) NoneExtended() bool {
	return f.Count() == 0
}

// ReadFingers derives the extended/closed state of each finger from one
// hand-pose sample.
//
// The thumb extends sideways, so its tip is compared laterally against the
// IP joint, with the comparison direction flipped for a left hand. The four
// remaining fingers fold toward the palm, so each tip is compared against
// its PIP joint along the vertical axis (smaller Y is higher in image
// coordinates).
func ReadFingers(hand *detector.HandLandmarks) (FingerState, error) {
	if hand == nil {
		return FingerState{}, ErrInvalidSample
	}
	if degenerate(hand) {
		return FingerState{}, ErrInvalidSample
	}

	var f FingerState

	thumbTip := hand.Points[detector.ThumbTip]
	thumbIP := hand.Points[detector.ThumbIP]
	if hand.Handedness == detector.HandednessLeft {
		f.Thumb = thumbTip.X > thumbIP.X
	} else {
		f.Thumb = thumbTip.X < thumbIP.X
	}

	f.Index = hand.Points[detector.IndexTip].Y < hand.Points[detector.IndexPIP].Y
	f.Middle = hand.Points[detector.MiddleTip].Y < hand.Points[detector.MiddlePIP].Y
	f.Ring = hand.Points[detector.RingTip].Y < hand.Points[detector.RingPIP].Y
	f.Pinky = hand.Points[detector.PinkyTip].Y < hand.Points[detector.PinkyPIP].Y

	return f, nil
}

// degenerate reports whether every landmark collapsed onto the wrist, which
// happens when the upstream estimator emits an empty or truncated point set.
func degenerate(hand *detector.HandLandmarks) bool {
	wrist := hand.Points[detector.Wrist]
	for i := 1; i < detector.NumLandmarks; i++ {
		if hand.Points[i] != wrist {
			return false
		}
	}
	return true
}
