// Package server provides the HTTP surface for the gesture playback
// controller: detection lifecycle, the latest-gesture poll endpoint,
// event history, the camera preview stream, and the Spotify auth flow.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"wavectl/internal/app"
	"wavectl/internal/capture"
	"wavectl/internal/gesture"
	"wavectl/internal/hook"
	"wavectl/internal/spotify"
	"wavectl/internal/store"
)

// Engine is the detection controller surface the server drives. It is
// satisfied by *app.App.
type Engine interface {
	Start() error
	Stop()
	IsRunning() bool
	Latest() gesture.Event
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Engine    Engine
	Spotify   *spotify.Controller
	Camera    capture.Camera
	Hooks     *hook.Manager
}

// Server is the HTTP server for the gesture playback controller.
type Server struct {
	config    Config
	mux       *http.ServeMux
	start     time.Time
	authState string
	events    *EventsHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config:    config,
		mux:       http.NewServeMux(),
		start:     time.Now(),
		authState: uuid.NewString(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Engine != nil {
		s.mux.HandleFunc("/api/gesture", s.handleGesture)
		s.mux.HandleFunc("/api/camera/start", s.handleCameraStart)
		s.mux.HandleFunc("/api/camera/stop", s.handleCameraStop)

		s.events = NewEventsHandler(s.config.Engine)
		s.mux.Handle("/api/events", s.events)
	}

	if s.config.Store != nil {
		s.mux.HandleFunc("/api/history", s.handleHistory)
		s.mux.HandleFunc("/api/history/", s.handleHistoryItem)
	}

	if s.config.Hooks != nil {
		s.mux.HandleFunc("/api/hooks", s.handleHooks)
		s.mux.HandleFunc("/api/hooks/", s.handleHookItem)
	}

	if s.config.Camera != nil {
		streamHandler := NewStreamHandler(s.config.Camera)
		s.mux.Handle("/api/stream", streamHandler)
	}

	if s.config.Spotify != nil {
		s.mux.HandleFunc("/auth/spotify", s.handleAuthRedirect)
		s.mux.HandleFunc("/callback", s.handleAuthCallback)
		s.mux.HandleFunc("/api/auth/status", s.handleAuthStatus)
		s.mux.HandleFunc("/api/track", s.handleTrack)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close releases background resources held by the server, currently the
// events broadcast goroutine. Safe to call more than once.
func (s *Server) Close() {
	if s.events != nil {
		s.events.Close()
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Engine != nil {
		response["detecting"] = s.config.Engine.IsRunning()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGesture handles GET /api/gesture. It returns the most recently
// accepted gesture event; the sentinel NONE with a zero timestamp means
// no gesture has been accepted this session.
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, s.config.Engine.Latest())
}

// handleCameraStart handles POST /api/camera/start. Starting while a
// session is already running is a conflict, not a restart.
func (s *Server) handleCameraStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := s.config.Engine.Start(); err != nil {
		if errors.Is(err, app.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "Detection already running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// handleCameraStop handles POST /api/camera/stop. Stopping an idle
// engine is a no-op, so the endpoint always succeeds.
func (s *Server) handleCameraStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.config.Engine.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

type historyEntry struct {
	ID         string `json:"id"`
	Gesture    string `json:"gesture"`
	DetectedAt string `json:"detected_at"`
}

type historyResponse struct {
	Events []historyEntry `json:"events"`
}

// handleHistory handles GET /api/history and returns the most recent
// accepted gesture events, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	events, err := s.config.Store.Events().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response := historyResponse{Events: make([]historyEntry, 0, len(events))}
	for _, e := range events {
		response.Events = append(response.Events, historyEntry{
			ID:         e.ID,
			Gesture:    e.Gesture,
			DetectedAt: e.DetectedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// handleHistoryItem handles GET /api/history/{id}.
func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	e, err := s.config.Store.Events().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load event")
		return
	}

	writeJSON(w, http.StatusOK, historyEntry{
		ID:         e.ID,
		Gesture:    e.Gesture,
		DetectedAt: e.DetectedAt.Format(time.RFC3339),
	})
}

type hookEntry struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Gestures    []string `json:"gestures,omitempty"`
}

type hooksResponse struct {
	Hooks []hookEntry `json:"hooks"`
}

// handleHooks handles GET /api/hooks and lists the discovered gesture
// hooks.
func (s *Server) handleHooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	hooks := s.config.Hooks.List()
	response := hooksResponse{Hooks: make([]hookEntry, 0, len(hooks))}
	for _, h := range hooks {
		response.Hooks = append(response.Hooks, hookEntry{
			Name:        h.Manifest.Name,
			Version:     h.Manifest.Version,
			Description: h.Manifest.Description,
			Gestures:    h.Manifest.Gestures,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// handleHookItem handles GET /api/hooks/{name}.
func (s *Server) handleHookItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/hooks/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "Invalid hook name")
		return
	}

	h, err := s.config.Hooks.Get(name)
	if err != nil {
		if errors.Is(err, hook.ErrHookNotFound) {
			writeError(w, http.StatusNotFound, "Hook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load hook")
		return
	}

	writeJSON(w, http.StatusOK, hookEntry{
		Name:        h.Manifest.Name,
		Version:     h.Manifest.Version,
		Description: h.Manifest.Description,
		Gestures:    h.Manifest.Gestures,
	})
}

// handleAuthRedirect handles GET /auth/spotify and sends the browser to
// the Spotify consent page.
func (s *Server) handleAuthRedirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if !s.config.Spotify.Configured() {
		writeError(w, http.StatusServiceUnavailable, "Spotify credentials not configured")
		return
	}

	http.Redirect(w, r, s.config.Spotify.AuthURL(s.authState), http.StatusTemporaryRedirect)
}

// handleAuthCallback handles GET /callback, the OAuth redirect target.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		writeError(w, http.StatusBadRequest, "Authorization denied: "+errMsg)
		return
	}
	if r.URL.Query().Get("state") != s.authState {
		writeError(w, http.StatusBadRequest, "State mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.config.Spotify.HandleCallback(ctx, code); err != nil {
		writeError(w, http.StatusBadGateway, "Token exchange failed")
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// handleAuthStatus handles GET /api/auth/status.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"configured":    s.config.Spotify.Configured(),
		"authenticated": s.config.Spotify.IsAuthenticated(),
	})
}

// handleTrack handles GET /api/track and returns the currently playing
// track. An idle player is a normal answer, not an error.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	track, err := s.config.Spotify.CurrentTrack(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, spotify.ErrNoActiveDevice):
			writeJSON(w, http.StatusOK, map[string]bool{"is_playing": false})
		case errors.Is(err, spotify.ErrNotAuthenticated), errors.Is(err, spotify.ErrNotConfigured):
			writeError(w, http.StatusUnauthorized, "Not authenticated with Spotify")
		default:
			writeError(w, http.StatusBadGateway, "Failed to fetch playback state")
		}
		return
	}

	writeJSON(w, http.StatusOK, track)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
