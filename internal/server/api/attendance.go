package api

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/ayusman/facemark/internal/app"
	"github.com/ayusman/facemark/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceHandler serves the attendance ledger.
type AttendanceHandler struct {
	service Service
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(s Service) *AttendanceHandler {
	return &AttendanceHandler{service: s}
}

type listAttendanceResponse struct {
	Records []store.Record `json:"records"`
}

// List handles GET /api/attendance.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Records()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, listAttendanceResponse{Records: records})
}

// Export handles GET /api/attendance/export and sends the ledger file.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.Export()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNoAttendance) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, messageResponse{Message: app.ExportMessage(err)})
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}
