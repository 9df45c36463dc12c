package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/facemark/internal/detector"
)

// MockCamera plays back a fixed sequence of images. After the last image it
// either loops or reports ErrNoFrame.
type MockCamera struct {
	frames []gocv.Mat
	index  int
	loop   bool
	open   bool
	fps    int
	mu     sync.Mutex
}

// NewMockCamera creates a MockCamera from RGB images.
func NewMockCamera(loop bool, images ...image.Image) (*MockCamera, error) {
	c := &MockCamera{loop: loop, fps: DefaultFPS}
	for _, img := range images {
		frame, err := detector.FromImage(img)
		if err != nil {
			c.Release()
			return nil, err
		}
		c.frames = append(c.frames, frame)
	}
	return c, nil
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return ErrCameraNotOpen
	}
	if c.index >= len(c.frames) {
		if !c.loop || len(c.frames) == 0 {
			return ErrNoFrame
		}
		c.index = 0
	}

	c.frames[c.index].CopyTo(dst)
	c.index++
	return nil
}

func (c *MockCamera) SetFPS(fps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fps > 0 {
		c.fps = fps
	}
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Remaining returns how many frames are left before the sequence ends.
func (c *MockCamera) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames) - c.index
}

// Release frees the frames held by the camera.
func (c *MockCamera) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.frames {
		f.Close()
	}
	c.frames = nil
}
