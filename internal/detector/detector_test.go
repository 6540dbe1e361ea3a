package detector

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxHands != 1 {
		t.Errorf("MaxHands = %d, want 1", cfg.MaxHands)
	}
	if cfg.MinConfidence != 0.7 {
		t.Errorf("MinConfidence = %f, want 0.7", cfg.MinConfidence)
	}
	if cfg.MinTrackingConf != 0.7 {
		t.Errorf("MinTrackingConf = %f, want 0.7", cfg.MinTrackingConf)
	}
}

func TestCentroid_TracksWrist(t *testing.T) {
	left := PointingAtX(0.2)
	right := PointingAtX(0.8)

	shift := right.Centroid().X - left.Centroid().X
	if math.Abs(shift-0.6) > 1e-9 {
		t.Errorf("centroid shift = %f, want 0.6", shift)
	}
}

func TestCentroid_InsideFrame(t *testing.T) {
	fixtures := map[string]HandLandmarks{
		"open palm":  OpenPalmLandmarks(),
		"fist":       FistLandmarks(),
		"victory":    VictoryLandmarks(),
		"ring pinky": RingPinkyLandmarks(),
	}

	for name, hand := range fixtures {
		c := hand.Centroid()
		if c.X < 0 || c.X > 1 || c.Y < 0 || c.Y > 1 {
			t.Errorf("%s: centroid (%f, %f) outside normalized frame", name, c.X, c.Y)
		}
	}
}

func TestMockDetector_Sequence(t *testing.T) {
	m := NewMockDetector()
	m.SetSequence([][]HandLandmarks{
		{OpenPalmLandmarks()},
		nil,
		{FistLandmarks()},
	})

	hands, err := m.Detect(nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(hands) != 1 || hands[0].Points[MiddleTip].Y >= hands[0].Points[MiddlePIP].Y {
		t.Error("first frame should be an open palm")
	}

	hands, _ = m.Detect(nil)
	if len(hands) != 0 {
		t.Errorf("second frame should detect no hands, got %d", len(hands))
	}

	// Third frame and every call after it returns the last entry.
	for i := 0; i < 3; i++ {
		hands, _ = m.Detect(nil)
		if len(hands) != 1 {
			t.Fatalf("call %d: expected held last frame, got %d hands", i, len(hands))
		}
	}
}

func TestMockDetector_Error(t *testing.T) {
	m := NewMockDetector()
	want := errors.New("estimator crashed")
	m.SetError(want)

	if _, err := m.Detect(nil); !errors.Is(err, want) {
		t.Errorf("Detect() error = %v, want %v", err, want)
	}
}
