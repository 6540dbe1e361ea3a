// Package tray provides the system tray menu for the gesture playback
// controller: a toggle for gesture recognition, the last accepted
// gesture, and a shortcut to the browser dashboard.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"wavectl/internal/gesture"
)

// Tray is the system tray menu. The recognition state it displays comes
// from the function bound with BindEnabled, so the menu never drifts
// from the engine's own view of the toggle.
type Tray struct {
	isEnabled   func() bool
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	lastGesture string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a Tray. Until BindEnabled is called the toggle shows
// recognition as enabled.
func New() *Tray {
	return &Tray{}
}

// BindEnabled sets the source of truth for the recognition state shown
// by the toggle item.
func (t *Tray) BindEnabled(fn func() bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isEnabled = fn
}

// OnToggle sets the callback invoked when recognition is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback invoked when the dashboard item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback invoked when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray loop. It blocks until systray.Quit() is
// called, so the caller runs everything else on other goroutines.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady sets up the menu structure once the tray is available.
func (t *Tray) onReady() {
	systray.SetTitle("WaveCtl")
	systray.SetTooltip("WaveCtl gesture playback control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabledLocked()), "Toggle gesture recognition")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.lastGesture), "Last accepted gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit WaveCtl")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Recognition on"
	}
	return "○ Recognition off"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}

// enabledLocked reads the bound recognition state. Caller holds t.mu.
func (t *Tray) enabledLocked() bool {
	if t.isEnabled == nil {
		return true
	}
	return t.isEnabled()
}

// handleToggle flips the recognition state and reports it.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	enabled := !t.enabledLocked()

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Apply updates the last-gesture display from an accepted event, letting
// the tray sit in the sink fan-out next to the playback controller.
func (t *Tray) Apply(e gesture.Event) error {
	t.SetLastGesture(string(e.Gesture))
	return nil
}

// SetLastGesture updates the last-gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastGesture = name
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(name))
	}
}

// LastGesture returns the gesture label currently shown by the menu,
// or empty when none has been accepted.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastGesture
}

// IsEnabled returns the recognition state shown by the menu.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabledLocked()
}
