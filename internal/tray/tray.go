// Package tray provides an optional system tray menu for the installation:
// a sound toggle and quit, for setups where the keyboard is out of reach.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

const (
	soundOnTitle  = "● Sound on"
	soundOffTitle = "○ Sound off"
)

// Tray represents the system tray menu.
type Tray struct {
	onToggle func()
	onQuit   func()
	sound    bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuSound  *systray.MenuItem
	menuStatus *systray.MenuItem
	done       chan struct{}
}

// New creates a new Tray instance with sound off.
func New() *Tray {
	return &Tray{done: make(chan struct{})}
}

// OnToggle sets the callback run when the sound item is clicked. The
// displayed state changes only when SetSound confirms it.
func (t *Tray) OnToggle(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Start registers the tray without taking over the main thread, which
// belongs to the window loop.
func (t *Tray) Start() {
	systray.Register(t.onReady, t.onExit)
}

// Stop removes the tray icon.
func (t *Tray) Stop() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("resonance")
	systray.SetTooltip("resonance")

	t.mu.Lock()
	t.menuSound = systray.AddMenuItem(soundTitle(t.sound), "Toggle sound")
	systray.AddSeparator()
	t.menuStatus = systray.AddMenuItem("Proximity: 0.00", "Current proximity")
	t.menuStatus.Disable()
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit resonance")
	menuSound := t.menuSound
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-menuSound.ClickedCh:
				t.handleToggle()
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
func (t *Tray) onExit() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

func (t *Tray) handleToggle() {
	t.mu.RLock()
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetSound updates the sound item to match the engine.
func (t *Tray) SetSound(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sound = on
	if t.menuSound != nil {
		t.menuSound.SetTitle(soundTitle(on))
	}
}

// SetProximity shows the current proximity in the menu.
func (t *Tray) SetProximity(p float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(fmt.Sprintf("Proximity: %.2f", p))
	}
}

// Sound returns the displayed sound state.
func (t *Tray) Sound() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sound
}

func soundTitle(on bool) string {
	if on {
		return soundOnTitle
	}
	return soundOffTitle
}
