package tray

import (
	"testing"
	"time"

	"wavectl/internal/gesture"
)

func TestTray_ApplyUpdatesLastGesture(t *testing.T) {
	tr := New()

	if got := tr.LastGesture(); got != "" {
		t.Fatalf("LastGesture() = %q before any event, want empty", got)
	}

	if err := tr.Apply(gesture.Event{Gesture: gesture.Play, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := tr.LastGesture(); got != string(gesture.Play) {
		t.Errorf("LastGesture() = %q, want %q", got, gesture.Play)
	}

	if err := tr.Apply(gesture.Event{Gesture: gesture.SwipeLeft, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := tr.LastGesture(); got != string(gesture.SwipeLeft) {
		t.Errorf("LastGesture() = %q, want %q", got, gesture.SwipeLeft)
	}
}

func TestTray_IsEnabledTracksBoundState(t *testing.T) {
	tr := New()

	// Without a bound source the menu assumes recognition is on.
	if !tr.IsEnabled() {
		t.Error("IsEnabled() = false before BindEnabled, want true")
	}

	enabled := false
	tr.BindEnabled(func() bool { return enabled })

	if tr.IsEnabled() {
		t.Error("IsEnabled() = true, want the bound state false")
	}

	enabled = true
	if !tr.IsEnabled() {
		t.Error("IsEnabled() = false, want the bound state true")
	}
}

func TestTray_ToggleReportsFlippedState(t *testing.T) {
	tr := New()

	engineEnabled := true
	tr.BindEnabled(func() bool { return engineEnabled })
	tr.OnToggle(func(enabled bool) { engineEnabled = enabled })

	tr.handleToggle()
	if engineEnabled {
		t.Error("toggle from on should report off")
	}

	tr.handleToggle()
	if !engineEnabled {
		t.Error("toggle from off should report on")
	}
}
