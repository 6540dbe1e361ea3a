package gesture

import (
	"errors"
	"testing"

	"wavectl/internal/detector"
)

func TestReadFingers_Poses(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want FingerState
	}{
		{
			name: "open palm",
			hand: detector.OpenPalmLandmarks(),
			want: FingerState{Thumb: true, Index: true, Middle: true, Ring: true, Pinky: true},
		},
		{
			name: "fist",
			hand: detector.FistLandmarks(),
			want: FingerState{},
		},
		{
			name: "victory",
			hand: detector.VictoryLandmarks(),
			want: FingerState{Index: true, Middle: true},
		},
		{
			name: "ring and pinky",
			hand: detector.RingPinkyLandmarks(),
			want: FingerState{Ring: true, Pinky: true},
		},
		{
			name: "pointing",
			hand: detector.PointingLandmarks(),
			want: FingerState{Index: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadFingers(&tt.hand)
			if err != nil {
				t.Fatalf("ReadFingers() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadFingers() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadFingers_LeftHandThumb(t *testing.T) {
	// Mirror an open right hand across the vertical axis: the thumb tip
	// now lies to the right of its IP joint, which still means extended
	// once the handedness flip is applied.
	hand := detector.OpenPalmLandmarks()
	hand.Handedness = detector.HandednessLeft
	for i := range hand.Points {
		hand.Points[i].X = 1 - hand.Points[i].X
	}

	got, err := ReadFingers(&hand)
	if err != nil {
		t.Fatalf("ReadFingers() error = %v", err)
	}
	if !got.Thumb {
		t.Error("mirrored left-hand thumb should read as extended")
	}
	if !got.AllExtended() {
		t.Errorf("mirrored open palm should read all extended, got %+v", got)
	}
}

func TestReadFingers_InvalidSample(t *testing.T) {
	if _, err := ReadFingers(nil); !errors.Is(err, ErrInvalidSample) {
		t.Errorf("nil hand: error = %v, want ErrInvalidSample", err)
	}

	// All landmarks collapsed to one point, as when the estimator emits
	// an empty point list.
	var collapsed detector.HandLandmarks
	if _, err := ReadFingers(&collapsed); !errors.Is(err, ErrInvalidSample) {
		t.Errorf("collapsed hand: error = %v, want ErrInvalidSample", err)
	}
}

func TestFingerState_Count(t *testing.T) {
	tests := []struct {
		name  string
		state FingerState
		want  int
	}{
		{"none", FingerState{}, 0},
		{"all", FingerState{true, true, true, true, true}, 5},
		{"two", FingerState{Index: true, Middle: true}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Count(); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}
