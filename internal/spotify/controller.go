// Package spotify controls playback on the user's active Spotify device
// via the Web API, mapping recognized gestures to player actions.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"wavectl/internal/gesture"
)

const apiBaseURL = "https://api.spotify.com/v1"

// Scopes required for playback control.
var scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

// Endpoint is Spotify's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.spotify.com/authorize",
	TokenURL: "https://accounts.spotify.com/api/token",
}

var (
	// ErrNotAuthenticated is returned when no user token is available.
	ErrNotAuthenticated = errors.New("spotify: not authenticated")
	// ErrNotConfigured is returned when client credentials are missing.
	ErrNotConfigured = errors.New("spotify: client credentials not configured")
	// ErrNoActiveDevice is returned when the user has no active playback
	// device to act on.
	ErrNoActiveDevice = errors.New("spotify: no active device")
)

// volumeStep is the percentage change applied per volume gesture.
const volumeStep = 10

// Controller talks to the Spotify Web API on behalf of one user.
type Controller struct {
	auth      *oauth2.Config
	tokenPath string
	baseURL   string

	mu     sync.Mutex
	client *http.Client
}

// New creates a Controller with the given application credentials.
// A previously cached token at tokenPath is loaded so the user does not
// re-authorize on every start. Missing credentials are tolerated; every
// playback call then fails with ErrNotAuthenticated until configured.
func New(clientID, clientSecret, redirectURI, tokenPath string) *Controller {
	c := &Controller{
		tokenPath: tokenPath,
		baseURL:   apiBaseURL,
	}

	if clientID == "" || clientSecret == "" {
		return c
	}

	c.auth = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint:     Endpoint,
	}

	if tok, err := c.loadToken(); err == nil {
		c.client = c.auth.Client(context.Background(), tok)
	}

	return c
}

// Configured reports whether application credentials are present.
func (c *Controller) Configured() bool {
	return c.auth != nil
}

// IsAuthenticated reports whether a user token is available.
func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

// AuthURL returns the Spotify authorization page URL for the given state,
// or an empty string when credentials are not configured.
func (c *Controller) AuthURL(state string) string {
	if c.auth == nil {
		return ""
	}
	return c.auth.AuthCodeURL(state)
}

// HandleCallback exchanges the authorization code for a token and caches
// it on disk.
func (c *Controller) HandleCallback(ctx context.Context, code string) error {
	if c.auth == nil {
		return ErrNotConfigured
	}

	tok, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	if err := c.saveToken(tok); err != nil {
		return err
	}

	c.mu.Lock()
	c.client = c.auth.Client(context.Background(), tok)
	c.mu.Unlock()

	return nil
}

func (c *Controller) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *Controller) saveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("cache token: %w", err)
	}
	return nil
}

func (c *Controller) httpClient() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, ErrNotAuthenticated
	}
	return c.client, nil
}

// do issues one player API call. Spotify answers playback commands with
// 204 No Content; 404 means no active device.
func (c *Controller) do(ctx context.Context, method, path string, query url.Values) error {
	client, err := c.httpClient()
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNoActiveDevice
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("spotify: %s %s: %s: %s", method, path, resp.Status, body)
	}
	return nil
}

// Play resumes playback on the active device.
func (c *Controller) Play(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/me/player/play", nil)
}

// Pause pauses playback on the active device.
func (c *Controller) Pause(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/me/player/pause", nil)
}

// NextTrack skips to the next track.
func (c *Controller) NextTrack(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/me/player/next", nil)
}

// PreviousTrack skips to the previous track.
func (c *Controller) PreviousTrack(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/me/player/previous", nil)
}

// SetVolume sets the active device's volume, clamped to [0,100].
func (c *Controller) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	q := url.Values{"volume_percent": {strconv.Itoa(percent)}}
	return c.do(ctx, http.MethodPut, "/me/player/volume", q)
}

// VolumeUp raises the active device's volume by one step.
func (c *Controller) VolumeUp(ctx context.Context) error {
	return c.stepVolume(ctx, volumeStep)
}

// VolumeDown lowers the active device's volume by one step.
func (c *Controller) VolumeDown(ctx context.Context) error {
	return c.stepVolume(ctx, -volumeStep)
}

func (c *Controller) stepVolume(ctx context.Context, delta int) error {
	state, err := c.playbackState(ctx)
	if err != nil {
		return err
	}
	if state == nil || state.Device.ID == "" {
		return ErrNoActiveDevice
	}
	return c.SetVolume(ctx, state.Device.VolumePercent+delta)
}

// Track describes the currently playing track.
type Track struct {
	Name       string `json:"track_name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	IsPlaying  bool   `json:"is_playing"`
	ProgressMs int    `json:"progress_ms"`
	DurationMs int    `json:"duration_ms"`
}

// CurrentTrack returns the currently playing track, or ErrNoActiveDevice
// when nothing is playing.
func (c *Controller) CurrentTrack(ctx context.Context) (*Track, error) {
	state, err := c.playbackState(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil || state.Item.Name == "" {
		return nil, ErrNoActiveDevice
	}

	t := &Track{
		Name:       state.Item.Name,
		Album:      state.Item.Album.Name,
		IsPlaying:  state.IsPlaying,
		ProgressMs: state.ProgressMs,
		DurationMs: state.Item.DurationMs,
	}
	for i, a := range state.Item.Artists {
		if i > 0 {
			t.Artist += ", "
		}
		t.Artist += a.Name
	}
	return t, nil
}

type playbackState struct {
	IsPlaying  bool `json:"is_playing"`
	ProgressMs int  `json:"progress_ms"`
	Device     struct {
		ID            string `json:"id"`
		VolumePercent int    `json:"volume_percent"`
	} `json:"device"`
	Item struct {
		Name       string `json:"name"`
		DurationMs int    `json:"duration_ms"`
		Album      struct {
			Name string `json:"name"`
		} `json:"album"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
	} `json:"item"`
}

func (c *Controller) playbackState(ctx context.Context) (*playbackState, error) {
	client, err := c.httpClient()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/player", nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 204 means no playback session at all.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("spotify: GET /me/player: %s: %s", resp.Status, body)
	}

	var state playbackState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

// applyTimeout bounds a single gesture-triggered API call so the
// dispatcher never hangs on a slow network.
const applyTimeout = 5 * time.Second

// Apply executes the playback action for one gesture event. Errors are
// reported to the caller for logging only; the recognition engine's state
// is never rolled back on a failed action.
func (c *Controller) Apply(e gesture.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	switch e.Gesture {
	case gesture.Play:
		return c.Play(ctx)
	case gesture.Pause:
		return c.Pause(ctx)
	case gesture.SwipeRight:
		return c.NextTrack(ctx)
	case gesture.SwipeLeft:
		return c.PreviousTrack(ctx)
	case gesture.VolumeUp:
		return c.VolumeUp(ctx)
	case gesture.VolumeDown:
		return c.VolumeDown(ctx)
	}
	return fmt.Errorf("spotify: no action for gesture %q", e.Gesture)
}
