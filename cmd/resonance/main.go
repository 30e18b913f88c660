package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/ayusman/resonance/internal/app"
	"github.com/ayusman/resonance/internal/config"
	"github.com/ayusman/resonance/internal/tray"
)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	a := app.New(cfg, app.Devices{})

	if cfg.Tray {
		t := tray.New()
		t.OnToggle(a.ToggleSound)
		t.OnQuit(a.Quit)
		a.OnSound(t.SetSound)
		t.Start()
		defer t.Stop()

		done := make(chan struct{})
		defer close(done)
		go pollProximity(a.Game(), t, done)
	}

	log.Printf("resonance started (camera %d, %dx%d)", cfg.Capture.DeviceID, cfg.Window.Width, cfg.Window.Height)
	if err := a.Run(); err != nil {
		log.Fatalf("Window loop failed: %v", err)
	}
	log.Println("resonance stopped")
}

// pollProximity mirrors the current proximity into the tray menu.
func pollProximity(g *app.Game, t *tray.Tray, done <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.SetProximity(g.Proximity())
		}
	}
}
