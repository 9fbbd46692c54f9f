package main

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultScale         = 2
	defaultCyclePeriod   = 60
	defaultHeadlessFrame = 120
	maxScale             = 8
)

// Config is the resolved command line.
type Config struct {
	Title       string
	Image       string
	Demo        bool
	Scale       int
	ClampZoom   bool
	Alignment   int
	ClearColor  ClearColor
	Cycle       bool
	CyclePeriod int
	Script      string
	Dither      bool
	ProbeGPU    bool
	Verbose     bool
	Frames      int
	Snapshot    string
	Fullscreen  bool
}

func DefaultConfig() Config {
	return Config{
		Title:       "PaletteView",
		Scale:       defaultScale,
		Alignment:   DefaultRowAlignment,
		ClearColor:  ClearColor{0, 0, 0, 1},
		CyclePeriod: defaultCyclePeriod,
		ProbeGPU:    true,
		Frames:      defaultHeadlessFrame,
	}
}

func (c Config) Validate() error {
	if c.Scale < 1 || c.Scale > maxScale {
		return fmt.Errorf("scale %d out of range 1-%d", c.Scale, maxScale)
	}
	if !isPowerOfTwo(c.Alignment) {
		return fmt.Errorf("row alignment %d is not a power of two", c.Alignment)
	}
	if c.CyclePeriod < 1 {
		return fmt.Errorf("cycle period %d must be positive", c.CyclePeriod)
	}
	if c.Frames < 0 {
		return fmt.Errorf("frame count %d is negative", c.Frames)
	}
	if c.Cycle && c.Script != "" {
		return fmt.Errorf("--cycle and --script are mutually exclusive")
	}
	if c.Image != "" && c.Demo {
		return fmt.Errorf("an image path and --demo are mutually exclusive")
	}
	return nil
}

// PresenterOptions derives the per-window presenter settings.
func (c Config) PresenterOptions() PresenterOptions {
	opts := DefaultPresenterOptions()
	opts.Alignment = c.Alignment
	opts.ClearColor = c.ClearColor
	opts.ClampZoom = c.ClampZoom
	return opts
}

// parseClearColor accepts "#rrggbb", "#rrggbbaa" or "r,g,b[,a]" with
// components in [0,1].
func parseClearColor(s string) (ClearColor, error) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 && len(hex) != 8 {
			return ClearColor{}, fmt.Errorf("clear colour %q: want #rrggbb or #rrggbbaa", s)
		}
		if len(hex) == 6 {
			hex += "ff"
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return ClearColor{}, fmt.Errorf("clear colour %q: %w", s, err)
		}
		c := unpackRGBA(uint32(v))
		return ClearColor{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
			A: float64(c.A) / 255,
		}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return ClearColor{}, fmt.Errorf("clear colour %q: want r,g,b[,a]", s)
	}
	v := [4]float64{0, 0, 0, 1}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return ClearColor{}, fmt.Errorf("clear colour %q: %w", s, err)
		}
		if f < 0 || f > 1 {
			return ClearColor{}, fmt.Errorf("clear colour %q: component %g outside [0,1]", s, f)
		}
		v[i] = f
	}
	return ClearColor{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}
