// Package config loads application configuration from an optional YAML
// file and WAVECTL_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all tunables for the application. The gesture thresholds
// are policy constants, not spec'd truths, so they live here rather than
// in the recognition code.
type Config struct {
	CameraID  int    `mapstructure:"camera_id"`
	HTTPAddr  string `mapstructure:"http_addr"`
	DBPath    string `mapstructure:"db_path"`
	StaticDir string `mapstructure:"static_dir"`
	Tray      bool   `mapstructure:"tray"`
	// HistoryRetention is how long recorded gesture events are kept.
	// Events older than this are pruned at startup; zero keeps everything.
	HistoryRetention time.Duration `mapstructure:"history_retention"`

	Gesture GestureConfig `mapstructure:"gesture"`
	Spotify SpotifyConfig `mapstructure:"spotify"`
}

// GestureConfig tunes the recognition engine.
type GestureConfig struct {
	// Cooldown is the minimum interval between accepted gesture events.
	Cooldown time.Duration `mapstructure:"cooldown"`
	// SwipeThreshold is the minimum net horizontal centroid displacement
	// for a swipe, as a fraction of the frame width.
	SwipeThreshold float64 `mapstructure:"swipe_threshold"`
	// MaxSwipeDuration is the longest motion span that counts as a swipe.
	MaxSwipeDuration time.Duration `mapstructure:"max_swipe_duration"`
	// MotionWindow caps the number of samples retained for swipe detection.
	MotionWindow int `mapstructure:"motion_window"`
	// ActivityThreshold is the frame-change percentage that switches the
	// loop from idle to active frame rates.
	ActivityThreshold float64 `mapstructure:"activity_threshold"`
}

// SpotifyConfig holds the Spotify application credentials.
type SpotifyConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

// DataDir returns the application data directory (~/.wavectl), creating
// it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".wavectl")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// Load reads configuration from ~/.wavectl/config.yaml when present and
// from WAVECTL_* environment variables, which take precedence. Example:
// WAVECTL_GESTURE_COOLDOWN=1500ms.
func Load() (*Config, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return loadFrom(filepath.Join(dir, "config.yaml"))
}

func loadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WAVECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus env apply.
		if _, ok := err.(*os.PathError); !ok {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("camera_id", 0)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_path", "")
	v.SetDefault("static_dir", "")
	v.SetDefault("tray", true)
	v.SetDefault("history_retention", 30*24*time.Hour)

	v.SetDefault("gesture.cooldown", time.Second)
	v.SetDefault("gesture.swipe_threshold", 0.15)
	v.SetDefault("gesture.max_swipe_duration", 600*time.Millisecond)
	v.SetDefault("gesture.motion_window", 16)
	v.SetDefault("gesture.activity_threshold", 1.0)

	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.redirect_uri", "http://localhost:8080/callback")
}
