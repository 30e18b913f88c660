package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/ayusman/resonance/internal/config"
)

// options are the command line settings. Only flags given explicitly
// override the config file.
type options struct {
	configPath string
	camera     int
	width      int
	height     int
	fullscreen bool
	debug      bool
	tray       bool
	sound      bool

	set map[string]bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("resonance", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.IntVar(&opts.camera, "camera", 0, "camera device index")
	fs.IntVar(&opts.width, "width", 0, "window width")
	fs.IntVar(&opts.height, "height", 0, "window height")
	fs.BoolVar(&opts.fullscreen, "fullscreen", false, "start fullscreen")
	fs.BoolVar(&opts.debug, "debug", false, "draw the proximity overlay")
	fs.BoolVar(&opts.tray, "tray", false, "show a system tray menu")
	fs.BoolVar(&opts.sound, "sound", false, "start with sound on")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// apply lays the explicit flags over cfg.
func (o options) apply(cfg *config.Config) {
	if o.set["camera"] {
		cfg.Capture.DeviceID = o.camera
	}
	if o.set["width"] {
		cfg.Window.Width = o.width
	}
	if o.set["height"] {
		cfg.Window.Height = o.height
	}
	if o.set["fullscreen"] {
		cfg.Window.Fullscreen = o.fullscreen
	}
	if o.set["debug"] {
		cfg.Window.Debug = o.debug
	}
	if o.set["tray"] {
		cfg.Tray = o.tray
	}
	if o.set["sound"] {
		cfg.Audio.Enabled = o.sound
	}
}
