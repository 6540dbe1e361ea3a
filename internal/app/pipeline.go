package app

import (
	"log"
	"time"

	"wavectl/internal/gesture"
	"wavectl/internal/store"
)

// runLoop is the main detection loop that processes frames from the camera.
// It manages the state transitions between idle and active modes based on
// frame activity.
//
// Loop logic:
// 1. Start in idle mode (IdleFPS=5)
// 2. On frame activity, switch to active mode (ActiveFPS=15)
// 3. Run hand detection on active frames
// 4. Classify the hand pose and candidate swipe motion
// 5. Pass candidates through the cooldown gate
// 6. Publish accepted events and dispatch playback actions
// 7. After 2s without activity, switch back to idle mode
//
// A camera read error terminates the session: the camera is released,
// the controller returns to Idle, and the last published event stays
// readable.
func (a *App) runLoop(stop, done chan struct{}) {
	defer func() {
		a.releaseResources()
		a.clearIfCurrent(stop)
		close(done)
	}()

	// Track whether we're in active mode
	activeMode := false

	// Track the last time frame activity was seen
	lastActivityTime := time.Now()

	// Frame interval based on current FPS
	frameInterval := time.Second / time.Duration(IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Skip processing if detection is disabled
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				// The device is gone or wedged; retrying would spin on
				// the same failure. Tear the session down.
				log.Printf("Fatal camera error, stopping detection: %v", err)
				return
			}

			// Step 1: Frame activity gate
			active, _ := a.activity.Observe(frame)

			if active {
				lastActivityTime = time.Now()

				// Switch to active mode if not already
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				// Check if we should switch back to idle mode
				if time.Since(lastActivityTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					a.classifier.Motion().Reset()
					log.Println("Switched to idle mode")
				}
			}

			// Skip further processing in idle mode
			if !activeMode {
				frame.Close()
				continue
			}

			// Step 2: Hand detection
			hands, err := a.detector.Detect(frame)
			frame.Close() // Done with the frame

			if err != nil {
				// A single bad sample is absorbed; the loop carries on.
				log.Printf("Error detecting hands: %v", err)
				continue
			}

			now := time.Now()

			if len(hands) == 0 {
				// Absent hand breaks any swipe in progress.
				a.classifier.Classify(nil, now)
				continue
			}

			// Step 3: Classification
			candidate := a.classifier.Classify(&hands[0], now)

			// Step 4: Cooldown gate
			if a.cooldown.Offer(candidate) {
				a.publish(candidate)
			}
		}
	}
}

// publish records an accepted event and hands it to the playback sink.
// The sink runs on its own goroutine so a slow or failing controller
// never stalls the detection loop.
func (a *App) publish(event gesture.Event) {
	log.Printf("Gesture accepted: %s", event.Gesture)

	a.slot.Publish(event)

	if a.config.Store != nil {
		record := &store.Event{
			Gesture:    string(event.Gesture),
			DetectedAt: event.Timestamp,
		}
		if err := a.config.Store.Events().Record(record); err != nil {
			log.Printf("Error recording gesture event: %v", err)
		}
	}

	if sink := a.config.Sink; sink != nil {
		go func() {
			if err := sink.Apply(event); err != nil {
				log.Printf("Playback action failed for %s: %v", event.Gesture, err)
			}
		}()
	}
}
