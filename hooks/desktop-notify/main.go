// Package main provides a desktop notification hook. It shows a system
// notification for each accepted gesture event.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Event is the input from the gesture engine.
type Event struct {
	Gesture   string    `json:"gesture"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the output back to the gesture engine.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// labels maps gesture names to readable notification text.
var labels = map[string]string{
	"PLAY":        "Play",
	"PAUSE":       "Pause",
	"SWIPE_LEFT":  "Previous track",
	"SWIPE_RIGHT": "Next track",
	"VOLUME_UP":   "Volume up",
	"VOLUME_DOWN": "Volume down",
}

func main() {
	var e Event
	if err := json.NewDecoder(os.Stdin).Decode(&e); err != nil {
		writeResult(Result{Error: fmt.Sprintf("failed to decode event: %v", err)})
		return
	}

	label, ok := labels[e.Gesture]
	if !ok {
		label = e.Gesture
	}

	if err := notify("WaveCtl", label); err != nil {
		writeResult(Result{Error: fmt.Sprintf("notification failed: %v", err)})
		return
	}

	writeResult(Result{Success: true})
}

func writeResult(r Result) {
	json.NewEncoder(os.Stdout).Encode(r)
}

// notify shows a desktop notification using the platform's native tool.
func notify(title, body string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, body, title)
		out, err := exec.Command("osascript", "-e", script).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%w: %s", err, out)
		}
		return nil
	default:
		out, err := exec.Command("notify-send", title, body).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%w: %s", err, out)
		}
		return nil
	}
}
