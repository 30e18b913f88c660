// Package config loads the installation settings from an optional YAML file
// laid over the defaults of every package.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/resonance/internal/capture"
	"github.com/ayusman/resonance/internal/connection"
	"github.com/ayusman/resonance/internal/detector"
	"github.com/ayusman/resonance/internal/engine"
)

// FileName is the config file looked up when no path is given.
const FileName = "resonance.yaml"

// Window is the display surface.
type Window struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	// Debug draws the proximity and volume overlay.
	Debug bool `yaml:"debug"`
	// Video draws the dimmed webcam image behind the strands.
	Video bool `yaml:"video"`
}

// Source paces the capture and detection loop.
type Source struct {
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS int `yaml:"idle_fps"`
	// ActiveFPS is the frame rate while something moves.
	ActiveFPS int `yaml:"active_fps"`
	// IdleTimeout is how long without motion before falling back to IdleFPS.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// MaxAge is how long a detection stays valid. Older snapshots read as
	// empty, so a failing detector fades the scene out.
	MaxAge time.Duration `yaml:"max_age"`
}

// Audio is the output device.
type Audio struct {
	// Enabled starts the session with sound on.
	Enabled    bool          `yaml:"enabled"`
	SampleRate int           `yaml:"sample_rate"`
	BufferSize time.Duration `yaml:"buffer_size"`
}

// Config is the whole installation.
type Config struct {
	Window   Window          `yaml:"window"`
	Capture  capture.Config  `yaml:"capture"`
	Detector detector.Config `yaml:"detector"`
	Source   Source          `yaml:"source"`
	Audio    Audio           `yaml:"audio"`
	Tray     bool            `yaml:"tray"`

	engine.Config `yaml:",inline"`
}

// Default returns the stock installation settings.
func Default() Config {
	return Config{
		Window: Window{
			Title:  "resonance",
			Width:  1280,
			Height: 720,
			Video:  true,
		},
		Capture:  capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Source: Source{
			IdleFPS:     5,
			ActiveFPS:   30,
			IdleTimeout: 2 * time.Second,
			MaxAge:      time.Second,
		},
		Audio: Audio{
			SampleRate: 48000,
			BufferSize: 60 * time.Millisecond,
		},
		Config: engine.DefaultConfig(),
	}
}

// Load reads path over the defaults. With an empty path the working
// directory and ~/.resonance are searched, and no file at all is fine.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = find()
		if path == "" {
			return cfg, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	if err := decode(f, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func find() string {
	guess := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		guess = append(guess, filepath.Join(home, ".resonance", "config.yaml"))
	}
	for _, p := range guess {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate rejects settings the installation cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height)
	case c.Source.IdleFPS <= 0 || c.Source.ActiveFPS < c.Source.IdleFPS:
		return fmt.Errorf("source rates idle=%d active=%d", c.Source.IdleFPS, c.Source.ActiveFPS)
	case c.Audio.SampleRate <= 0:
		return fmt.Errorf("sample rate %d", c.Audio.SampleRate)
	case c.Proximity.Smoothing <= 0 || c.Proximity.Smoothing > 1:
		return fmt.Errorf("proximity smoothing %g outside (0,1]", c.Proximity.Smoothing)
	case c.Detector.MaxHands < 0:
		return fmt.Errorf("detector max hands %d", c.Detector.MaxHands)
	case c.Source.MaxAge < 0:
		return fmt.Errorf("source max age %s", c.Source.MaxAge)
	}

	known := make(map[string]bool)
	for _, cat := range connection.DefaultCategories() {
		known[cat.Name] = true
	}
	for name := range c.Connection.Overrides {
		if !known[name] {
			return fmt.Errorf("connection override for unknown category %q", name)
		}
	}
	return nil
}
