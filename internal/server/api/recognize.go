package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/facemark/internal/app"
	"github.com/ayusman/facemark/internal/face"
)

// RecognizeHandler marks attendance for an uploaded face.
type RecognizeHandler struct {
	service Service
}

// NewRecognizeHandler creates a new RecognizeHandler.
func NewRecognizeHandler(s Service) *RecognizeHandler {
	return &RecognizeHandler{service: s}
}

type recognizeResponse struct {
	Message  string  `json:"message"`
	Name     string  `json:"name,omitempty"`
	Date     string  `json:"date,omitempty"`
	Time     string  `json:"time,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

// ServeHTTP handles POST /api/recognize with a multipart image field.
func (h *RecognizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	res, err := h.service.Recognize(r.Context(), readImage(r))
	resp := recognizeResponse{Message: app.RecognizeMessage(res, err)}
	if err == nil {
		resp.Name = res.Match.Identity
		resp.Date = res.Record.Date
		resp.Time = res.Record.Time
		resp.Distance = res.Match.Distance
	}
	writeJSON(w, RecognizeStatus(err), resp)
}

// RecognizeStatus maps a recognition outcome to an HTTP status.
func RecognizeStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, face.ErrNoMatch), errors.Is(err, face.ErrNoRegisteredFaces):
		return http.StatusNotFound
	case errors.Is(err, face.ErrMissingImage), errors.Is(err, face.ErrNoFaceDetected):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
