package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/facemark/internal/app"
	"github.com/ayusman/facemark/internal/face"
)

// FacesHandler handles registration and listing of faces.
type FacesHandler struct {
	service Service
}

// NewFacesHandler creates a new FacesHandler.
func NewFacesHandler(s Service) *FacesHandler {
	return &FacesHandler{service: s}
}

type listFacesResponse struct {
	Faces []string `json:"faces"`
}

// List handles GET /api/faces.
func (h *FacesHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Names()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, listFacesResponse{Faces: names})
}

// Register handles POST /api/faces with multipart fields name and image.
func (h *FacesHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	name, err := h.service.Register(r.Context(), r.FormValue("name"), readImage(r))
	writeJSON(w, registerStatus(err), messageResponse{
		Message: app.RegisterMessage(name, err),
		Name:    name,
	})
}

func registerStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusCreated
	case errors.Is(err, face.ErrInvalidName),
		errors.Is(err, face.ErrMissingImage),
		errors.Is(err, face.ErrNoFaceDetected):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
