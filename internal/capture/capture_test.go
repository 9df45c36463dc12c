package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/facemark/internal/facetest"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name   string
		device string
		want   interface{}
	}{
		{"default device", "", 0},
		{"device index", "2", 2},
		{"stream url", "rtsp://door/stream", "rtsp://door/stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.device).(*deviceCamera)

			if got := cam.source(); got != tt.want {
				t.Errorf("source() = %v, want %v", got, tt.want)
			}
			if cam.FPS() != DefaultFPS {
				t.Errorf("FPS() = %d, want %d", cam.FPS(), DefaultFPS)
			}
			if cam.IsOpen() {
				t.Error("camera should not be open initially")
			}
		})
	}
}

func TestCamera_ReadBeforeOpen(t *testing.T) {
	cam := NewCamera("0")

	dst := gocv.NewMat()
	defer dst.Close()

	if err := cam.Read(&dst); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen, got %v", err)
	}
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on unopened camera error = %v", err)
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera("0")

	cam.SetFPS(15)
	if cam.FPS() != 15 {
		t.Errorf("FPS() = %d, want 15", cam.FPS())
	}
	cam.SetFPS(0)
	cam.SetFPS(-1)
	if cam.FPS() != 15 {
		t.Errorf("non-positive FPS should be ignored, got %d", cam.FPS())
	}
}

func TestMockCamera_Playback(t *testing.T) {
	cam, err := NewMockCamera(false, facetest.Alice.Image(), facetest.Bob.Image())
	if err != nil {
		t.Fatalf("NewMockCamera() error = %v", err)
	}
	defer cam.Release()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := cam.Read(&dst); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen before Open, got %v", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	for i, wantBlue := range []bool{false, true} {
		if err := cam.Read(&dst); err != nil {
			t.Fatalf("Read() frame %d error = %v", i, err)
		}
		blue := dst.Mean().Val1 > 180
		if blue != wantBlue {
			t.Errorf("frame %d: blue = %v, want %v", i, blue, wantBlue)
		}
	}

	if cam.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", cam.Remaining())
	}
	if err := cam.Read(&dst); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame at end of sequence, got %v", err)
	}
}

func TestMockCamera_Loop(t *testing.T) {
	cam, err := NewMockCamera(true, facetest.Carol.Image())
	if err != nil {
		t.Fatalf("NewMockCamera() error = %v", err)
	}
	defer cam.Release()
	cam.Open()

	dst := gocv.NewMat()
	defer dst.Close()

	for i := 0; i < 3; i++ {
		if err := cam.Read(&dst); err != nil {
			t.Fatalf("Read() %d error = %v", i, err)
		}
	}
}

func TestNewMotionGate(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{"explicit", 2.5, 2.5},
		{"zero selects default", 0, 1.0},
		{"negative selects default", -3, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewMotionGate(tt.threshold)
			defer g.Close()

			if g.threshold != tt.want {
				t.Errorf("threshold = %f, want %f", g.threshold, tt.want)
			}
			if g.primed {
				t.Error("gate should not be primed initially")
			}
		})
	}
}

func TestMotionGate_Check(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	black := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()

	white := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()

	if moved, pct := g.Check(black); moved || pct != 0 {
		t.Errorf("first frame should only prime the gate, got %v %f", moved, pct)
	}
	if moved, pct := g.Check(black); moved {
		t.Errorf("identical frames should not open the gate, changed %f%%", pct)
	}
	if moved, pct := g.Check(white); !moved || pct < 90 {
		t.Errorf("full-frame change should open the gate, got %v %f", moved, pct)
	}

	g.Reset()
	if moved, _ := g.Check(black); moved {
		t.Error("first frame after Reset should only prime the gate")
	}
}

func TestMotionGate_PartialChange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(5.0)
	defer g.Close()

	base := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer base.Close()

	// A small bright square covers well under 5% of the frame.
	small := base.Clone()
	defer small.Close()
	gocv.Rectangle(&small, image.Rect(10, 10, 40, 40), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	g.Check(base)
	if moved, pct := g.Check(small); moved {
		t.Errorf("small change should stay under 5%%, got %f%%", pct)
	}
}

func TestMotionGate_EmptyFrame(t *testing.T) {
	g := NewMotionGate(1.0)
	defer g.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if moved, pct := g.Check(empty); moved || pct != 0 {
		t.Errorf("empty frame should be ignored, got %v %f", moved, pct)
	}
}
