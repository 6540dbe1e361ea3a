package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface. It
// returns a pre-configured sequence of per-frame results, allowing tests
// to script what the "camera" sees.
type MockDetector struct {
	frames [][]HandLandmarks
	index  int
	hold   bool
	err    error
}

// NewMockDetector creates a MockDetector that detects nothing.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands makes every Detect call return the given hands.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.frames = [][]HandLandmarks{hands}
	m.index = 0
	m.hold = true
}

// SetSequence makes successive Detect calls return successive entries.
// After the last entry, Detect keeps returning it.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.frames = frames
	m.index = 0
	m.hold = false
}

// SetError makes Detect return the given error.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the next scripted result.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.frames) == 0 {
		return nil, nil
	}
	hands := m.frames[m.index]
	if m.index < len(m.frames)-1 && !m.hold {
		m.index++
	}
	return hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// fingerJoints lists the CMC/MCP..tip landmark indices per finger, thumb first.
var fingerJoints = [5][4]int{
	{ThumbCMC, ThumbMCP, ThumbIP, ThumbTip},
	{IndexMCP, IndexPIP, IndexDIP, IndexTip},
	{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	{RingMCP, RingPIP, RingDIP, RingTip},
	{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
}

// baseX positions each finger's column across the palm of a right hand.
var baseX = [5]float64{0.60, 0.55, 0.50, 0.45, 0.40}

// handAt builds a right-hand fixture anchored at wristX, with the given
// extension flags per finger (thumb, index, middle, ring, pinky).
//
// Extended fingers point up: each joint sits above the previous one, so
// every tip ends above its PIP. An extended thumb angles outward so its
// tip lies left of (below, in X) its IP, matching the right-hand rule.
// Curled fingers place the tip back below the PIP.
func handAt(wristX float64, extended [5]bool) HandLandmarks {
	h := HandLandmarks{
		Handedness: HandednessRight,
		Score:      0.95,
	}
	h.Points[Wrist] = Point3D{X: wristX, Y: 0.8}

	for f, joints := range fingerJoints {
		x := wristX + (baseX[f] - 0.5)
		if extended[f] {
			for j, idx := range joints {
				h.Points[idx] = Point3D{X: x, Y: 0.72 - 0.12*float64(j)}
			}
			if f == 0 {
				// Thumb tip swings across toward the palm's left edge.
				h.Points[ThumbIP].X = x + 0.04
				h.Points[ThumbTip].X = x - 0.04
			}
		} else {
			for j, idx := range joints {
				h.Points[idx] = Point3D{X: x, Y: 0.72, Z: -0.02 * float64(j)}
			}
			h.Points[joints[3]].Y = 0.76 // tip tucked below its PIP
			if f == 0 {
				h.Points[ThumbTip].X = x + 0.05 // tip outside the IP
			}
		}
	}
	return h
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return handAt(0.5, [5]bool{true, true, true, true, true})
}

// FistLandmarks returns a hand with all fingers curled.
func FistLandmarks() HandLandmarks {
	return handAt(0.5, [5]bool{false, false, false, false, false})
}

// VictoryLandmarks returns a hand with index and middle fingers extended.
func VictoryLandmarks() HandLandmarks {
	return handAt(0.5, [5]bool{false, true, true, false, false})
}

// RingPinkyLandmarks returns a hand with ring and pinky fingers extended.
func RingPinkyLandmarks() HandLandmarks {
	return handAt(0.5, [5]bool{false, false, false, true, true})
}

// PointingLandmarks returns a hand with only the index finger extended,
// a pose that matches no static gesture rule.
func PointingLandmarks() HandLandmarks {
	return handAt(0.5, [5]bool{false, true, false, false, false})
}

// PointingAtX returns a pointing hand whose wrist sits at the given
// horizontal position, for scripting swipe motion across frames.
func PointingAtX(x float64) HandLandmarks {
	return handAt(x, [5]bool{false, true, false, false, false})
}
