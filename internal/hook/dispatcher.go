package hook

import (
	"context"
	"log"
	"sync"

	"github.com/ayusman/facemark/internal/store"
)

// Dispatcher fires attendance events at every subscribed hook.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
}

// NewDispatcher creates a Dispatcher over the hooks found by m.
func NewDispatcher(m *Manager, e *Executor) *Dispatcher {
	return &Dispatcher{manager: m, executor: e}
}

// AttendanceMarked runs all subscribed hooks concurrently and waits for them.
// Failures are logged and otherwise ignored.
func (d *Dispatcher) AttendanceMarked(ctx context.Context, rec store.Record) {
	hooks := d.manager.Subscribers(EventAttendanceMarked)
	if len(hooks) == 0 {
		return
	}

	event := Event{
		Event: EventAttendanceMarked,
		Name:  rec.Name,
		Date:  rec.Date,
		Time:  rec.Time,
	}

	var wg sync.WaitGroup
	for _, h := range hooks {
		wg.Add(1)
		go func(h *Hook) {
			defer wg.Done()
			if _, err := d.executor.Run(ctx, h, event); err != nil {
				log.Printf("Hook error: %v", err)
			}
		}(h)
	}
	wg.Wait()
}
