// Package tray provides a system tray shell for the exoform engine.
package tray

import (
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/exoform/internal/app"
)

// RefreshInterval is how often the menu polls the engine snapshot.
const RefreshInterval = 500 * time.Millisecond

// Labels is the menu text derived from one snapshot.
type Labels struct {
	Toggle string
	State  string
	FPS    string
	Spell  string
}

// LabelsFor renders a snapshot into menu text.
func LabelsFor(snap app.Snapshot) Labels {
	l := Labels{
		Toggle: "Ignite Engine",
		State:  "State: " + string(snap.State),
		FPS:    "FPS: -",
		Spell:  "Spell: none",
	}

	switch snap.State {
	case app.StateActive:
		l.Toggle = "Stop Engine"
		hand := "no hand"
		if snap.HandDetected {
			hand = "hand detected"
		}
		l.FPS = fmt.Sprintf("FPS: %d (%s)", snap.FPS, hand)
	case app.StateLoading:
		l.Toggle = "Loading..."
	case app.StateError:
		l.Toggle = "Retry Engine"
		if snap.Error != "" {
			l.State = "Error: " + snap.Error
		}
	}

	if snap.Spell != nil {
		l.Spell = fmt.Sprintf("Spell: %s (%s, energy %s)", snap.Spell.Name, snap.Spell.Type, snap.Spell.EnergyLevel)
	}
	return l
}

// Engine is the part of the shell the tray drives.
type Engine interface {
	Start() error
	Stop() error
	Snapshot() app.Snapshot
}

// Tray represents the system tray application.
type Tray struct {
	engine   Engine
	onOpen   func()
	onQuit   func()
	mu       sync.RWMutex
	quitOnce sync.Once
	done     chan struct{}

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuState  *systray.MenuItem
	menuFPS    *systray.MenuItem
	menuSpell  *systray.MenuItem
}

// New creates a new Tray over engine.
func New(engine Engine) *Tray {
	return &Tray{
		engine: engine,
		done:   make(chan struct{}),
	}
}

// OnOpen sets the callback function to be called when the viewer menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray. It is safe to call more than once.
func (t *Tray) Quit() {
	t.quitOnce.Do(func() {
		close(t.done)
		systray.Quit()
	})
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Exoform")
	systray.SetTooltip("Exoform gesture engine")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem("Ignite Engine", "Start or stop the camera and particle engine")
	systray.AddSeparator()

	t.menuState = systray.AddMenuItem("State: IDLE", "Engine state")
	t.menuState.Disable()
	t.menuFPS = systray.AddMenuItem("FPS: -", "Frames rendered per second")
	t.menuFPS.Disable()
	t.menuSpell = systray.AddMenuItem("Spell: none", "Last revealed spell")
	t.menuSpell.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the viewer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Exoform")

	ticker := time.NewTicker(RefreshInterval)

	// Handle menu item clicks in a separate goroutine
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.refresh()
			case <-t.menuToggle.ClickedCh:
				go t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			case <-t.done:
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// refresh copies the engine snapshot into the menu.
func (t *Tray) refresh() {
	l := LabelsFor(t.engine.Snapshot())

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuToggle == nil {
		return
	}
	t.menuToggle.SetTitle(l.Toggle)
	t.menuState.SetTitle(l.State)
	t.menuFPS.SetTitle(l.FPS)
	t.menuSpell.SetTitle(l.Spell)
}

// handleToggle starts an idle or failed engine and stops an active one.
func (t *Tray) handleToggle() {
	switch t.engine.Snapshot().State {
	case app.StateActive:
		t.engine.Stop()
	case app.StateIdle, app.StateError:
		// Failures surface through the snapshot.
		t.engine.Start()
	}
	t.refresh()
}

// handleOpen handles the viewer menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	t.Quit()
}
