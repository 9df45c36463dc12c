// Package tray provides the system tray menu for kiosk mode.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/facemark/internal/store"
)

// Tray is the kiosk's system tray menu.
type Tray struct {
	onToggle func(enabled bool)
	onExport func()
	onQuit   func()
	enabled  bool
	marked   int
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
	menuCount  *systray.MenuItem
}

// New creates a new Tray with recognition enabled.
func New() *Tray {
	return &Tray{enabled: true}
}

// OnToggle sets the callback invoked when recognition is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnExport sets the callback invoked by the export menu item.
func (t *Tray) OnExport(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExport = fn
}

// OnQuit sets the callback invoked before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Facemark")
	systray.SetTooltip("Facemark attendance kiosk")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.enabled), "Pause or resume recognition")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(lastLabel(nil), "Last attendance marked")
	t.menuLast.Disable()
	t.menuCount = systray.AddMenuItem(countLabel(t.marked), "Attendance marked this session")
	t.menuCount.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuExport := systray.AddMenuItem("Export Attendance", "Write the attendance ledger path to the log")
	menuQuit := systray.AddMenuItem("Quit", "Quit Facemark")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuExport.ClickedCh:
				t.call(func() func() { return t.onExport })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Outside the lock: the callback may call back into the tray.
	if callback != nil {
		callback(enabled)
	}
}

// call runs the callback returned by get, if any, outside the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	fn := get()
	t.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

// Marked records an attendance in the menu.
func (t *Tray) Marked(rec store.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.marked++
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastLabel(&rec))
	}
	if t.menuCount != nil {
		t.menuCount.SetTitle(countLabel(t.marked))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Count returns how many attendances were marked since the tray started.
func (t *Tray) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.marked
}

func toggleLabel(enabled bool) string {
	if enabled {
		return "● Recognizing"
	}
	return "○ Paused"
}

func lastLabel(rec *store.Record) string {
	if rec == nil {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %s at %s", rec.Name, rec.Time)
}

func countLabel(n int) string {
	if n == 1 {
		return "1 attendance this session"
	}
	return fmt.Sprintf("%d attendances this session", n)
}
