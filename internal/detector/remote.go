package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"gocv.io/x/gocv"
)

const remoteTimeout = 30 * time.Second

// RemoteDetector computes face embeddings using an HTTP embedding server
// that exposes POST /embed/face.
type RemoteDetector struct {
	baseURL string
	client  *http.Client
}

// NewRemoteDetector creates a detector backed by the embedding server at baseURL.
func NewRemoteDetector(baseURL string) (*RemoteDetector, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("embedding server URL is required")
	}
	return &RemoteDetector{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: remoteTimeout},
	}, nil
}

// remoteFace represents a single detected face in the server response.
type remoteFace struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float64 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// remoteResponse represents the response from the face embedding endpoint.
type remoteResponse struct {
	FacesCount int          `json:"faces_count"`
	Faces      []remoteFace `json:"faces"`
	Model      string       `json:"model"`
}

// Detect encodes the frame as JPEG and posts it to the embedding server.
func (d *RemoteDetector) Detect(ctx context.Context, frame gocv.Mat) ([]Face, error) {
	if frame.Empty() {
		return nil, ErrEmptyImage
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	body, err := d.postImage(ctx, "/embed/face", buf.GetBytes())
	if err != nil {
		return nil, err
	}

	var resp remoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]Face, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		if len(f.Embedding) == 0 {
			continue
		}
		faces = append(faces, Face{
			Embedding: Normalize(f.Embedding),
			Score:     f.DetScore,
			Box:       bboxToRect(f.BBox),
		})
	}
	return faces, nil
}

// Close releases idle HTTP connections.
func (d *RemoteDetector) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

// postImage posts the image as a multipart form file and returns the response body.
func (d *RemoteDetector) postImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
