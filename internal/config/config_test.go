package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}

	if cfg.CameraID != 0 {
		t.Errorf("CameraID = %d, want 0", cfg.CameraID)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.Gesture.Cooldown != time.Second {
		t.Errorf("Cooldown = %v, want 1s", cfg.Gesture.Cooldown)
	}
	if cfg.Gesture.SwipeThreshold != 0.15 {
		t.Errorf("SwipeThreshold = %f, want 0.15", cfg.Gesture.SwipeThreshold)
	}
	if cfg.Spotify.RedirectURI != "http://localhost:8080/callback" {
		t.Errorf("RedirectURI = %q", cfg.Spotify.RedirectURI)
	}
	if cfg.HistoryRetention != 30*24*time.Hour {
		t.Errorf("HistoryRetention = %v, want 720h", cfg.HistoryRetention)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
camera_id: 2
http_addr: ":9000"
gesture:
  cooldown: 2s
  swipe_threshold: 0.25
spotify:
  client_id: abc123
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}

	if cfg.CameraID != 2 {
		t.Errorf("CameraID = %d, want 2", cfg.CameraID)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want :9000", cfg.HTTPAddr)
	}
	if cfg.Gesture.Cooldown != 2*time.Second {
		t.Errorf("Cooldown = %v, want 2s", cfg.Gesture.Cooldown)
	}
	if cfg.Gesture.SwipeThreshold != 0.25 {
		t.Errorf("SwipeThreshold = %f, want 0.25", cfg.Gesture.SwipeThreshold)
	}
	if cfg.Spotify.ClientID != "abc123" {
		t.Errorf("ClientID = %q, want abc123", cfg.Spotify.ClientID)
	}

	// Unset fields keep their defaults.
	if cfg.Gesture.MotionWindow != 16 {
		t.Errorf("MotionWindow = %d, want default 16", cfg.Gesture.MotionWindow)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WAVECTL_CAMERA_ID", "3")
	t.Setenv("WAVECTL_GESTURE_COOLDOWN", "1500ms")

	cfg, err := loadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}

	if cfg.CameraID != 3 {
		t.Errorf("CameraID = %d, want 3 from env", cfg.CameraID)
	}
	if cfg.Gesture.Cooldown != 1500*time.Millisecond {
		t.Errorf("Cooldown = %v, want 1.5s from env", cfg.Gesture.Cooldown)
	}
}
