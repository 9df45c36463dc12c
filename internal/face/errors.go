package face

import "errors"

// Outcomes of registration and recognition that are reported to the user
// rather than treated as failures.
var (
	// ErrInvalidName is returned when the name is empty or cannot be used as a file name.
	ErrInvalidName = errors.New("invalid name")

	// ErrMissingImage is returned when no image was supplied.
	ErrMissingImage = errors.New("missing image")

	// ErrNoFaceDetected is returned when the image contains no face.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrNoRegisteredFaces is returned when recognition runs before any registration.
	ErrNoRegisteredFaces = errors.New("no registered faces")

	// ErrNoMatch is returned when no registered face is close enough.
	ErrNoMatch = errors.New("no matching face")
)
