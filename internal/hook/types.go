// Package hook runs external executables when attendance events happen.
//
// A hook lives in its own subdirectory of the hook directory and is described
// by a hook.json manifest. The executable receives the event as JSON on stdin
// and answers with a JSON Response on stdout.
package hook

// ManifestFile is the name of the manifest inside a hook directory.
const ManifestFile = "hook.json"

// EventAttendanceMarked is sent after an attendance row has been written.
const EventAttendanceMarked = "attendance.marked"

// Manifest describes a hook and the events it subscribes to.
type Manifest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Event is the payload written to a hook's stdin.
type Event struct {
	Event string `json:"event"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

// Response is what a hook writes to stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Subscribes reports whether the hook wants the named event.
func (h *Hook) Subscribes(event string) bool {
	for _, e := range h.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
