package server

import (
	"fmt"
	"net/http"
	"time"
)

// streamInterval paces the MJPEG stream at roughly 15 FPS.
const streamInterval = 66 * time.Millisecond

// Snapshotter provides the latest camera frame as JPEG.
type Snapshotter interface {
	Snapshot() []byte
}

// StreamHandler serves the kiosk camera as MJPEG.
type StreamHandler struct {
	source Snapshotter
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(source Snapshotter) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP writes a new part whenever the snapshot changes, until the
// client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var last []byte
	for {
		frame := h.source.Snapshot()
		if len(frame) > 0 && !sameFrame(frame, last) {
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(frame))
			w.Write(frame)
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			last = frame
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// sameFrame reports whether a and b are the same published snapshot.
// Snapshots are replaced, never mutated, so comparing the backing array is enough.
func sameFrame(a, b []byte) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}
