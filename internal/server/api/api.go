// Package api provides the HTTP handlers for registration, recognition and
// attendance export.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"log"
	"net/http"

	"github.com/ayusman/facemark/internal/detector"
	"github.com/ayusman/facemark/internal/face"
	"github.com/ayusman/facemark/internal/store"
)

// MaxUploadSize bounds uploaded images.
const MaxUploadSize = 32 << 20

// Service is the attendance service the handlers drive.
type Service interface {
	Register(ctx context.Context, name string, img image.Image) (string, error)
	Recognize(ctx context.Context, img image.Image) (face.Result, error)
	Export() (string, error)
	Records() ([]store.Record, error)
	Names() ([]string, error)
}

type messageResponse struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
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

// readImage returns the decoded "image" form file. A missing or undecodable
// upload yields a nil image, which the service reports as a missing image.
func readImage(r *http.Request) image.Image {
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize))
	if err != nil {
		return nil
	}

	img, err := detector.DecodeImage(data)
	if err != nil {
		log.Printf("Rejecting upload: %v", err)
		return nil
	}
	return img
}

// parseForm parses a multipart body; plain form bodies are accepted too.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(MaxUploadSize)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}
