// Command notify is an attendance hook that shows a desktop notification
// whenever someone is marked present.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gen2brain/beeep"
)

// Event is the attendance event read from stdin.
type Event struct {
	Event string `json:"event"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

// Response is written to stdout for the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// notifyFunc shows a notification; replaced in tests.
var notifyFunc = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

func main() {
	json.NewEncoder(os.Stdout).Encode(run(os.Stdin))
}

func run(r io.Reader) Response {
	var ev Event
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode event: %v", err)}
	}
	if ev.Event != "attendance.marked" {
		return Response{Error: fmt.Sprintf("unsupported event: %s", ev.Event)}
	}

	title, message := format(ev)
	if err := notifyFunc(title, message); err != nil {
		return Response{Error: fmt.Sprintf("notify failed: %v", err)}
	}
	return Response{Success: true}
}

func format(ev Event) (string, string) {
	return "Attendance marked", fmt.Sprintf("%s checked in at %s on %s", ev.Name, ev.Time, ev.Date)
}
