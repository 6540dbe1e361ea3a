package app

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"wavectl/internal/capture"
	"wavectl/internal/detector"
	"wavectl/internal/gesture"
	"wavectl/internal/store"
)

// recordingSink collects applied events and can be told to fail.
type recordingSink struct {
	mu     sync.Mutex
	events []gesture.Event
	err    error
}

func (s *recordingSink) Apply(e gesture.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) applied() []gesture.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gesture.Event, len(s.events))
	copy(out, s.events)
	return out
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

// contrastFrames builds an alternating black/white frame pair so the
// activity gate sees change on every read.
func contrastFrames(t *testing.T) []*gocv.Mat {
	t.Helper()

	black := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	white := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(255, 255, 255, 0), 120, 160, gocv.MatTypeCV8UC3)

	t.Cleanup(func() {
		black.Close()
		white.Close()
	})

	return []*gocv.Mat{&black, &white}
}

func newTestApp(t *testing.T, camera capture.Camera, det detector.Detector, sink Sink, s *store.Store) *App {
	t.Helper()

	a := New(Config{
		Store:    s,
		Camera:   camera,
		Detector: det,
		Sink:     sink,
		Cooldown: 100 * time.Millisecond,
	})
	t.Cleanup(a.Stop)
	return a
}

func TestApp_StartAlreadyRunning(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	camera := capture.NewMockCamera(nil, false)
	a := newTestApp(t, camera, detector.NewMockDetector(), nil, nil)

	// With classification disabled the loop ticks without reading
	// frames, so an empty mock camera keeps the session alive.
	a.SetEnabled(false)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	before := a.Latest()

	if err := a.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	// The failed Start must not have touched the running session.
	if !a.IsRunning() {
		t.Error("session should still be running after rejected Start")
	}
	if got := a.Latest(); got != before {
		t.Errorf("Latest() changed across rejected Start: %v -> %v", before, got)
	}
	if camera.Releases() != 0 {
		t.Errorf("camera released %d times during rejected Start, want 0", camera.Releases())
	}
}

func TestApp_StopIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	camera := capture.NewMockCamera(nil, false)
	a := newTestApp(t, camera, detector.NewMockDetector(), nil, nil)
	a.SetEnabled(false)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	a.Stop()
	a.Stop()

	if a.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if got := camera.Releases(); got != 1 {
		t.Errorf("camera released %d times, want 1", got)
	}
}

func TestApp_StopWithoutStart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	camera := capture.NewMockCamera(nil, false)
	a := newTestApp(t, camera, detector.NewMockDetector(), nil, nil)

	a.Stop()

	if got := camera.Releases(); got != 0 {
		t.Errorf("camera released %d times by idle Stop, want 0", got)
	}
}

func TestApp_FatalReadErrorTearsDownSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	// An open mock camera with no frames fails every read.
	camera := capture.NewMockCamera(nil, false)
	a := newTestApp(t, camera, detector.NewMockDetector(), nil, nil)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !waitFor(t, 3*time.Second, func() bool { return !a.IsRunning() }) {
		t.Fatal("session did not terminate after fatal read error")
	}

	if got := camera.Releases(); got != 1 {
		t.Errorf("camera released %d times after fatal error, want 1", got)
	}

	// Stop after self-teardown must not release again.
	a.Stop()
	if got := camera.Releases(); got != 1 {
		t.Errorf("camera released %d times after redundant Stop, want 1", got)
	}
}

func TestApp_RestartAfterFatalError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	camera := capture.NewMockCamera(nil, false)
	a := newTestApp(t, camera, detector.NewMockDetector(), nil, nil)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !waitFor(t, 3*time.Second, func() bool { return !a.IsRunning() }) {
		t.Fatal("session did not terminate after fatal read error")
	}

	// A fresh session must be possible once the old one is torn down.
	a.SetEnabled(false)
	if err := a.Start(); err != nil {
		t.Fatalf("Start() after fatal error = %v", err)
	}
	if !a.IsRunning() {
		t.Error("IsRunning() = false after restart")
	}
}

func TestApp_PublishesGesture(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	camera := capture.NewMockCamera(contrastFrames(t), true)

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	sink := &recordingSink{}
	a := newTestApp(t, camera, det, sink, s)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !waitFor(t, 5*time.Second, func() bool {
		return a.Latest().Gesture == gesture.Play
	}) {
		t.Fatalf("Latest() = %v, want %v", a.Latest().Gesture, gesture.Play)
	}

	a.Stop()

	// The accepted event must have reached the history and the sink.
	events, err := s.Events().Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no events recorded in history")
	}
	if events[0].Gesture != string(gesture.Play) {
		t.Errorf("recorded gesture = %q, want %q", events[0].Gesture, gesture.Play)
	}

	if !waitFor(t, time.Second, func() bool { return len(sink.applied()) > 0 }) {
		t.Fatal("sink never received the accepted event")
	}
	if got := sink.applied()[0].Gesture; got != gesture.Play {
		t.Errorf("sink received %v, want %v", got, gesture.Play)
	}
}

func TestApp_SinkFailureDoesNotStopLoop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	camera := capture.NewMockCamera(contrastFrames(t), true)

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	sink := &recordingSink{err: errors.New("player unreachable")}
	a := newTestApp(t, camera, det, sink, nil)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !waitFor(t, 5*time.Second, func() bool { return len(sink.applied()) >= 2 }) {
		t.Fatal("loop did not keep publishing past a failing sink")
	}

	if !a.IsRunning() {
		t.Error("IsRunning() = false, sink failure must not stop the session")
	}
	if a.Latest().Gesture != gesture.Play {
		t.Errorf("Latest() = %v, want %v", a.Latest().Gesture, gesture.Play)
	}
}

func TestApp_DisabledSkipsDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	// No frames at all: if the loop ever read while disabled it would
	// hit a fatal error and tear the session down.
	camera := capture.NewMockCamera(nil, false)

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	a := newTestApp(t, camera, det, nil, nil)
	a.SetEnabled(false)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(500 * time.Millisecond)

	if !a.IsRunning() {
		t.Error("IsRunning() = false, disabled loop should idle without reading")
	}
	if got := a.Latest().Gesture; got != gesture.None {
		t.Errorf("Latest() = %v while disabled, want %v", got, gesture.None)
	}
}

func TestApp_EnabledSurvivesRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	a := newTestApp(t, capture.NewMockCamera(nil, false), detector.NewMockDetector(), nil, s)
	a.SetEnabled(false)

	if v, err := s.Settings().Get("recognition_enabled"); err != nil || v != "false" {
		t.Fatalf("persisted toggle = %q, %v; want \"false\", nil", v, err)
	}

	// A fresh controller over the same store picks the toggle back up.
	b := newTestApp(t, capture.NewMockCamera(nil, false), detector.NewMockDetector(), nil, s)
	if b.IsEnabled() {
		t.Error("IsEnabled() = true after restart, want persisted false")
	}

	b.SetEnabled(true)
	c := newTestApp(t, capture.NewMockCamera(nil, false), detector.NewMockDetector(), nil, s)
	if !c.IsEnabled() {
		t.Error("IsEnabled() = false after restart, want persisted true")
	}
}

func TestApp_LatestStartsAtSentinel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	a := newTestApp(t, capture.NewMockCamera(nil, false), detector.NewMockDetector(), nil, nil)

	e := a.Latest()
	if e.Gesture != gesture.None {
		t.Errorf("Latest().Gesture = %v before any session, want %v", e.Gesture, gesture.None)
	}
	if !e.Timestamp.IsZero() {
		t.Errorf("sentinel timestamp = %v, want zero", e.Timestamp)
	}
}
