package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/facemark/internal/app"
	"github.com/ayusman/facemark/internal/face"
	"github.com/ayusman/facemark/internal/facetest"
	"github.com/ayusman/facemark/internal/store"
)

// newTestService creates an App over a temporary store and the palette detector.
func newTestService(t *testing.T) *app.App {
	t.Helper()

	tmpDir := t.TempDir()
	s, err := store.New(store.Config{
		ImageDir:   filepath.Join(tmpDir, "registered_faces"),
		IndexPath:  filepath.Join(tmpDir, "face_encodings.json"),
		LedgerPath: filepath.Join(tmpDir, "attendance.xlsx"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	a, err := app.New(app.Config{Store: s, Detector: facetest.Palette()})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// multipartRequest builds a POST request with optional name and image fields.
func multipartRequest(t *testing.T, target, name string, img []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		mw.WriteField("name", name)
	}
	if img != nil {
		fw, err := mw.CreateFormFile("image", "face.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		fw.Write(img)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) recognizeResponse {
	t.Helper()

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	var resp recognizeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func register(t *testing.T, h *FacesHandler, p facetest.Person) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.Register(rec, multipartRequest(t, "/api/faces", p.Name, facetest.EncodeJPEG(t, p.Image())))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", p.Name, rec.Code, rec.Body.String())
	}
}

func TestFacesHandler_Register(t *testing.T) {
	svc := newTestService(t)
	h := NewFacesHandler(svc)

	rec := httptest.NewRecorder()
	h.Register(rec, multipartRequest(t, "/api/faces", "alice", facetest.EncodeJPEG(t, facetest.Alice.Image())))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}
	resp := decodeMessage(t, rec)
	if resp.Message != "Face registered successfully for alice!" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Name != "alice" {
		t.Errorf("expected name alice, got %q", resp.Name)
	}
}

func TestFacesHandler_RegisterRejected(t *testing.T) {
	svc := newTestService(t)
	h := NewFacesHandler(svc)

	tests := []struct {
		name    string
		field   string
		img     []byte
		message string
	}{
		{"empty name", "", facetest.EncodeJPEG(t, facetest.Alice.Image()), "Error: Please enter a valid name!"},
		{"missing image", "alice", nil, "Error: Please upload an image!"},
		{"undecodable image", "alice", []byte("not an image"), "Error: Please upload an image!"},
		{"no face", "alice", facetest.EncodeJPEG(t, facetest.SolidImage(facetest.Faceless)), "No face detected! Please try again with a clearer image."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Register(rec, multipartRequest(t, "/api/faces", tc.field, tc.img))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
			if resp := decodeMessage(t, rec); resp.Message != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, resp.Message)
			}
		})
	}

	names, _ := svc.Names()
	if len(names) != 0 {
		t.Errorf("expected nothing registered, got %v", names)
	}
}

func TestFacesHandler_List(t *testing.T) {
	svc := newTestService(t)
	h := NewFacesHandler(svc)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/faces", nil))

	var empty listFacesResponse
	json.NewDecoder(rec.Body).Decode(&empty)
	if rec.Code != http.StatusOK || empty.Faces == nil || len(empty.Faces) != 0 {
		t.Errorf("expected empty list, got %d %+v", rec.Code, empty)
	}

	register(t, h, facetest.Bob)
	register(t, h, facetest.Alice)

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/faces", nil))

	var listed listFacesResponse
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(listed.Faces) != 2 || listed.Faces[0] != "alice" || listed.Faces[1] != "bob" {
		t.Errorf("expected [alice bob], got %v", listed.Faces)
	}
}

func TestRecognizeHandler(t *testing.T) {
	svc := newTestService(t)
	faces := NewFacesHandler(svc)
	h := NewRecognizeHandler(svc)

	recognize := func(img image.Image) *httptest.ResponseRecorder {
		var data []byte
		if img != nil {
			data = facetest.EncodeJPEG(t, img)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, multipartRequest(t, "/api/recognize", "", data))
		return rec
	}

	rec := recognize(facetest.Alice.Image())
	if rec.Code != http.StatusNotFound {
		t.Errorf("before registration: expected %d, got %d", http.StatusNotFound, rec.Code)
	}
	if resp := decodeMessage(t, rec); resp.Message != "No registered faces found!" {
		t.Errorf("unexpected message %q", resp.Message)
	}

	register(t, faces, facetest.Alice)

	tests := []struct {
		name    string
		img     image.Image
		status  int
		message string
	}{
		{"match", facetest.Alice.Image(), http.StatusOK, "Attendance marked for alice!"},
		{"stranger", facetest.Stranger.Image(), http.StatusNotFound, "No matching face found!"},
		{"no face", facetest.SolidImage(facetest.Faceless), http.StatusBadRequest, "No face detected!"},
		{"missing image", nil, http.StatusBadRequest, "Error: Please upload an image!"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := recognize(tc.img)
			if rec.Code != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, rec.Code)
			}
			resp := decodeMessage(t, rec)
			if resp.Message != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, resp.Message)
			}
			if tc.status == http.StatusOK && (resp.Name != "alice" || resp.Date == "" || resp.Time == "") {
				t.Errorf("expected attendance details, got %+v", resp)
			}
		})
	}

	records, _ := svc.Records()
	if len(records) != 1 {
		t.Errorf("expected one attendance row, got %d", len(records))
	}
}

func TestAttendanceHandler(t *testing.T) {
	svc := newTestService(t)
	h := NewAttendanceHandler(svc)

	rec := httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodGet, "/api/attendance/export", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected %d before any attendance, got %d", http.StatusNotFound, rec.Code)
	}
	if resp := decodeMessage(t, rec); resp.Message != "No attendance records found!" {
		t.Errorf("unexpected message %q", resp.Message)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/attendance", nil))
	if rec.Body.String() != "{\"records\":[]}\n" {
		t.Errorf("expected empty records, got %s", rec.Body.String())
	}

	ctx := context.Background()
	svc.Register(ctx, "bob", facetest.Bob.Image())
	svc.Recognize(ctx, facetest.Bob.Image())

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/attendance", nil))
	var listed listAttendanceResponse
	json.NewDecoder(rec.Body).Decode(&listed)
	if len(listed.Records) != 1 || listed.Records[0].Name != "bob" {
		t.Errorf("expected one record for bob, got %+v", listed.Records)
	}

	rec = httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodGet, "/api/attendance/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("expected a zip archive body")
	}
}

type failingService struct {
	Service
}

func (failingService) Recognize(ctx context.Context, img image.Image) (face.Result, error) {
	return face.Result{}, errors.New("detector crashed")
}

func (failingService) Names() ([]string, error) {
	return nil, errors.New("index corrupt")
}

func TestHandlers_InternalErrors(t *testing.T) {
	svc := failingService{}

	rec := httptest.NewRecorder()
	NewRecognizeHandler(svc).ServeHTTP(rec, multipartRequest(t, "/api/recognize", "", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if resp := decodeMessage(t, rec); resp.Message != "Error: detector crashed" {
		t.Errorf("unexpected message %q", resp.Message)
	}

	rec = httptest.NewRecorder()
	NewFacesHandler(svc).List(rec, httptest.NewRequest(http.MethodGet, "/api/faces", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestRecognizeStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{face.ErrNoMatch, http.StatusNotFound},
		{face.ErrNoRegisteredFaces, http.StatusNotFound},
		{face.ErrNoFaceDetected, http.StatusBadRequest},
		{face.ErrMissingImage, http.StatusBadRequest},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := RecognizeStatus(tc.err); got != tc.want {
			t.Errorf("RecognizeStatus(%v) = %d; want %d", tc.err, got, tc.want)
		}
	}
}
