package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera is a test implementation of Camera. It plays back a scripted
// frame sequence and can be told to start failing, to exercise the
// detection loop's fatal-error path.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	failErr error
	mu      sync.Mutex
	running bool
	opens   int
	closes  int
}

// NewMockCamera creates a MockCamera playing back the given frames.
// With loop set, playback wraps around at the end.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	c.opens++
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.closes++
	}
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if c.failErr != nil {
		return nil, c.failErr
	}
	if len(c.frames) == 0 {
		return nil, ErrReadFailed
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrReadFailed
		}
		c.index = 0
	}

	frame := c.frames[c.index].Clone()
	c.index++

	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {}
func (c *MockCamera) FPS() int       { return DefaultFPS }
func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// FailWith makes every subsequent ReadFrame return err.
func (c *MockCamera) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErr = err
}

// Releases reports how many times an open camera was closed.
func (c *MockCamera) Releases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
