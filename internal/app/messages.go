package app

import (
	"errors"
	"fmt"
	"log"

	"github.com/ayusman/facemark/internal/face"
	"github.com/ayusman/facemark/internal/store"
)

// RegisterMessage returns the text shown to the user after a registration.
func RegisterMessage(name string, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Face registered successfully for %s!", name)
	case errors.Is(err, face.ErrInvalidName):
		return "Error: Please enter a valid name!"
	case errors.Is(err, face.ErrMissingImage):
		return "Error: Please upload an image!"
	case errors.Is(err, face.ErrNoFaceDetected):
		return "No face detected! Please try again with a clearer image."
	default:
		return failure("register", err)
	}
}

// RecognizeMessage returns the text shown to the user after a recognition.
func RecognizeMessage(res face.Result, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Attendance marked for %s!", res.Match.Identity)
	case errors.Is(err, face.ErrMissingImage):
		return "Error: Please upload an image!"
	case errors.Is(err, face.ErrNoRegisteredFaces):
		return "No registered faces found!"
	case errors.Is(err, face.ErrNoFaceDetected):
		return "No face detected!"
	case errors.Is(err, face.ErrNoMatch):
		return "No matching face found!"
	default:
		return failure("recognize", err)
	}
}

// ExportMessage returns the text shown when the ledger cannot be exported.
func ExportMessage(err error) string {
	if errors.Is(err, store.ErrNoAttendance) {
		return "No attendance records found!"
	}
	return failure("export", err)
}

// failure logs the full error and returns a short message.
func failure(op string, err error) string {
	log.Printf("%s failed: %v", op, err)

	short := err
	for {
		next := errors.Unwrap(short)
		if next == nil {
			break
		}
		short = next
	}
	return "Error: " + short.Error()
}
