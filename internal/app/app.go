// Package app owns the detection loop: it pulls frames from the camera,
// runs them through the gesture recognition engine, and publishes
// accepted events for concurrent readers.
package app

import (
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"wavectl/internal/capture"
	"wavectl/internal/detector"
	"wavectl/internal/gesture"
	"wavectl/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while nothing moves in front of the camera.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// IdleTimeoutMs is how long without frame activity before dropping
	// back to the idle frame rate.
	IdleTimeoutMs = 2000
	// StopGrace bounds how long Stop waits for the loop to acknowledge
	// termination.
	StopGrace = 2 * time.Second
)

// ErrAlreadyRunning is returned by Start while a detection session is
// in progress.
var ErrAlreadyRunning = errors.New("detection already running")

// settingEnabledKey is the settings row that keeps the recognition
// toggle across restarts.
const settingEnabledKey = "recognition_enabled"

// Sink receives accepted gesture events and turns them into playback
// actions. A failed action is reported and forgotten; it never rolls
// back the recognition engine's state.
type Sink interface {
	Apply(gesture.Event) error
}

// MultiSink fans one event out to several sinks. Every sink sees the
// event even when an earlier one fails.
type MultiSink []Sink

// Apply dispatches the event to each sink and joins the failures.
func (m MultiSink) Apply(e gesture.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Apply(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config holds configuration options for the application.
type Config struct {
	Store    *store.Store
	Camera   capture.Camera    // optional; built from CameraID when nil
	Detector detector.Detector // optional; MediaPipe with mock fallback when nil
	Sink     Sink              // optional playback sink

	CameraID          int
	Cooldown          time.Duration
	SwipeThreshold    float64
	MaxSwipeDuration  time.Duration
	MotionWindow      int
	ActivityThreshold float64
}

// App is the detection loop controller. Its lifecycle is Idle → Running
// → Idle; a single mutex serializes the transitions, so concurrent
// Start calls can never hold two camera handles. The loop goroutine
// itself releases the camera on every exit path, including a fatal
// camera error mid-loop, so a held device never outlives a session.
type App struct {
	config     Config
	camera     capture.Camera
	activity   *capture.ActivityGate
	detector   detector.Detector
	classifier *gesture.Classifier
	cooldown   *gesture.Cooldown
	slot       *gesture.Slot

	mu      sync.Mutex
	enabled bool
	stopCh  chan struct{} // non-nil while Running
	done    chan struct{} // closed by the loop on exit; replaced by Start
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	activityThreshold := config.ActivityThreshold
	if activityThreshold <= 0 {
		activityThreshold = 1.0 // 1% pixel change
	}

	camera := config.Camera
	if camera == nil {
		camera = capture.NewCamera(config.CameraID)
	}

	tracker := gesture.NewMotionTracker(config.SwipeThreshold, config.MaxSwipeDuration, config.MotionWindow)

	enabled := true
	if config.Store != nil {
		if v, err := config.Store.Settings().Get(settingEnabledKey); err == nil {
			enabled = v == "true"
		}
	}

	a := &App{
		config:     config,
		camera:     camera,
		activity:   capture.NewActivityGate(activityThreshold),
		classifier: gesture.NewClassifier(tracker),
		cooldown:   gesture.NewCooldown(config.Cooldown),
		slot:       gesture.NewSlot(),
		enabled:    enabled,
	}

	a.detector = config.Detector
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a
}

// SetEnabled enables or disables gesture classification. The loop keeps
// ticking while disabled without touching the camera. The state is
// persisted so the toggle survives a restart.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(settingEnabledKey, strconv.FormatBool(enabled)); err != nil {
			log.Printf("Failed to persist recognition state: %v", err)
		}
	}
}

// IsEnabled returns whether gesture classification is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// IsRunning reports whether a detection session is in progress.
func (a *App) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

// Latest returns the most recently published gesture event, or the
// sentinel when none has been accepted this session. Safe for any
// number of concurrent callers and never blocks on the loop.
func (a *App) Latest() gesture.Event {
	return a.slot.Load()
}

// Start acquires the camera and begins the detection loop. It fails
// with ErrAlreadyRunning when a session is in progress, leaving the
// running session untouched.
func (a *App) Start() error {
	a.mu.Lock()
	if a.stopCh != nil {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	prevDone := a.done
	a.mu.Unlock()

	// A previous session may still be draining after Stop timed out or
	// after a fatal camera error. Its exit path releases the camera, so
	// wait for it before acquiring the device again.
	if prevDone != nil {
		select {
		case <-prevDone:
		case <-time.After(StopGrace):
			return errors.New("previous detection session still terminating")
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return ErrAlreadyRunning
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	// A new session starts from a clean slate: sentinel in the slot,
	// gate armed, motion window empty.
	a.slot.Reset()
	a.cooldown.Reset()
	a.classifier.Motion().Reset()
	a.activity.Reset()

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runLoop(a.stopCh, a.done)

	log.Println("Detection loop started")
	return nil
}

// Stop signals the loop to terminate and waits for it to acknowledge,
// bounded by StopGrace. The loop releases the camera on its way out.
// Calling Stop while Idle is a no-op, so a double Stop never releases
// the camera twice.
func (a *App) Stop() {
	a.mu.Lock()

	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}

	close(a.stopCh)
	a.stopCh = nil
	done := a.done
	a.mu.Unlock()

	select {
	case <-done:
		log.Println("Detection loop stopped")
	case <-time.After(StopGrace):
		log.Println("Detection loop did not stop within grace period")
	}
}

// releaseResources closes the camera, activity gate, and detector.
// Safe to call more than once; the camera guards against double release
// and the MediaPipe detector restarts lazily for the next session.
func (a *App) releaseResources() {
	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.activity.Reset()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
}

// clearIfCurrent transitions to Idle if the given session is still the
// active one. The loop calls it on a fatal-error exit, where Stop never
// ran; after a normal Stop the field is already nil.
func (a *App) clearIfCurrent(stop chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh == stop {
		a.stopCh = nil
	}
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}
