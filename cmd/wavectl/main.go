package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"wavectl/internal/app"
	"wavectl/internal/config"
	"wavectl/internal/hook"
	"wavectl/internal/server"
	"wavectl/internal/spotify"
	"wavectl/internal/store"
	"wavectl/internal/tray"
)

func main() {
	fmt.Println("WaveCtl - Gesture Playback Control")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dataDir, err := config.DataDir()
	if err != nil {
		log.Fatalf("Failed to prepare data directory: %v", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "wavectl.db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if cfg.HistoryRetention > 0 {
		n, err := st.Events().Prune(time.Now().Add(-cfg.HistoryRetention))
		if err != nil {
			log.Printf("Failed to prune event history: %v", err)
		} else if n > 0 {
			log.Printf("Pruned %d gesture event(s) older than %v", n, cfg.HistoryRetention)
		}
	}

	player := spotify.New(
		cfg.Spotify.ClientID,
		cfg.Spotify.ClientSecret,
		cfg.Spotify.RedirectURI,
		filepath.Join(dataDir, "spotify_token.json"),
	)
	if !player.Configured() {
		log.Println("Spotify credentials not configured; gestures will be recognized but not applied")
	}

	sinks := app.MultiSink{player}

	hooks := hook.NewManager(filepath.Join(dataDir, "hooks"))
	if err := hooks.Discover(); err != nil {
		log.Printf("Hook discovery failed: %v", err)
	} else if n := len(hooks.List()); n > 0 {
		log.Printf("Discovered %d gesture hook(s)", n)
		sinks = append(sinks, hook.NewSink(hooks, hook.DefaultTimeout))
	}

	var menu *tray.Tray
	if cfg.Tray {
		menu = tray.New()
		sinks = append(sinks, menu)
	}

	engine := app.New(app.Config{
		Store:             st,
		Sink:              sinks,
		CameraID:          cfg.CameraID,
		Cooldown:          cfg.Gesture.Cooldown,
		SwipeThreshold:    cfg.Gesture.SwipeThreshold,
		MaxSwipeDuration:  cfg.Gesture.MaxSwipeDuration,
		MotionWindow:      cfg.Gesture.MotionWindow,
		ActivityThreshold: cfg.Gesture.ActivityThreshold,
	})
	defer engine.Stop()

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Engine:    engine,
		Spotify:   player,
		Camera:    engine.Camera(),
		Hooks:     hooks,
	})
	defer srv.Close()

	fmt.Printf("Starting server on %s\n", cfg.HTTPAddr)

	if menu == nil {
		if err := srv.ListenAndServe(cfg.HTTPAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	// systray.Run must own the main goroutine, so the HTTP server moves
	// to a background one.
	go func() {
		if err := srv.ListenAndServe(cfg.HTTPAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	dashboardURL := "http://localhost" + cfg.HTTPAddr

	menu.BindEnabled(engine.IsEnabled)
	menu.OnToggle(engine.SetEnabled)
	menu.OnDashboard(func() {
		if err := openBrowser(dashboardURL); err != nil {
			log.Printf("Failed to open dashboard: %v", err)
		}
	})
	menu.OnQuit(func() {
		engine.Stop()
	})
	menu.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web", then ~/.wavectl/web, and
// returns the first existing directory or empty string.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".wavectl", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// openBrowser launches the system browser at url.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
