package gesture

import "time"

// Motion tracking defaults. Coordinates are in MediaPipe's normalized
// [0,1] image space, so thresholds are fractions of the frame width.
const (
	// DefaultSwipeThreshold is the minimum net horizontal displacement
	// for a swipe.
	DefaultSwipeThreshold = 0.15
	// DefaultMaxSwipeDuration is the longest span between the oldest and
	// newest retained samples that still counts as a swipe. Slower drifts
	// are ignored.
	DefaultMaxSwipeDuration = 600 * time.Millisecond
	// DefaultMaxWindowSamples caps the number of retained samples.
	DefaultMaxWindowSamples = 16
)

type motionSample struct {
	t time.Time
	x float64
}

// MotionTracker keeps a short sliding window of the hand centroid's
// horizontal position and detects swipes from net displacement across it.
//
// It is owned by the detection loop and is not safe for concurrent use.
type MotionTracker struct {
	threshold   float64
	maxDuration time.Duration
	maxSamples  int
	window      []motionSample
}

// NewMotionTracker creates a MotionTracker. Non-positive arguments fall
// back to the package defaults.
func NewMotionTracker(threshold float64, maxDuration time.Duration, maxSamples int) *MotionTracker {
	if threshold <= 0 {
		threshold = DefaultSwipeThreshold
	}
	if maxDuration <= 0 {
		maxDuration = DefaultMaxSwipeDuration
	}
	if maxSamples <= 0 {
		maxSamples = DefaultMaxWindowSamples
	}
	return &MotionTracker{
		threshold:   threshold,
		maxDuration: maxDuration,
		maxSamples:  maxSamples,
		window:      make([]motionSample, 0, maxSamples),
	}
}

// Observe appends the centroid's horizontal position at time t and evicts
// samples that fall outside the time bound or the sample cap.
func (m *MotionTracker) Observe(x float64, t time.Time) {
	m.window = append(m.window, motionSample{t: t, x: x})

	// Evict by age relative to the newest sample.
	cutoff := t.Add(-m.maxDuration)
	i := 0
	for i < len(m.window)-1 && m.window[i].t.Before(cutoff) {
		i++
	}
	if i > 0 {
		m.window = append(m.window[:0], m.window[i:]...)
	}

	// Evict by count.
	if len(m.window) > m.maxSamples {
		excess := len(m.window) - m.maxSamples
		m.window = append(m.window[:0], m.window[excess:]...)
	}
}

// Reset clears the window. Called when no hand is present in a sample: a
// swipe cannot span a tracking gap.
func (m *MotionTracker) Reset() {
	m.window = m.window[:0]
}

// Swipe returns SwipeLeft or SwipeRight if the net displacement between
// the oldest and newest retained samples exceeds the threshold within the
// maximum duration, and None otherwise. On a detected swipe the window is
// cleared so the same motion is never reported twice; fresh samples are
// required before the next swipe.
func (m *MotionTracker) Swipe() Gesture {
	if len(m.window) < 2 {
		return None
	}

	oldest := m.window[0]
	newest := m.window[len(m.window)-1]

	if newest.t.Sub(oldest.t) > m.maxDuration {
		return None
	}

	delta := newest.x - oldest.x
	if delta > m.threshold {
		m.Reset()
		return SwipeRight
	}
	if delta < -m.threshold {
		m.Reset()
		return SwipeLeft
	}
	return None
}
