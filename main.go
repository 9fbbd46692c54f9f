// main.go - Entry point for PaletteView

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PaletteView

License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147mPaletteView\033[0m \033[38;2;255;140;147m- indexed bitmap viewer with live palettes\033[0m")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/PaletteView")
	fmt.Println("License: GPLv3 or later")
}

func appFlags() []cli.Flag {
	def := DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{Name: "title", EnvVars: []string{"PALETTEVIEW_TITLE"}, Value: def.Title, Usage: "window title prefix"},
		&cli.BoolFlag{Name: "demo", Usage: "show the built-in test card instead of an image"},
		&cli.IntFlag{Name: "scale", Aliases: []string{"s"}, EnvVars: []string{"PALETTEVIEW_SCALE"}, Value: def.Scale, Usage: "initial window size as a multiple of the bitmap"},
		&cli.BoolFlag{Name: "clamp-zoom", EnvVars: []string{"PALETTEVIEW_CLAMP_ZOOM"}, Usage: "never zoom below 1x; crop instead of collapsing"},
		&cli.IntFlag{Name: "row-alignment", EnvVars: []string{"PALETTEVIEW_ROW_ALIGNMENT"}, Value: def.Alignment, Usage: "texture upload row alignment in bytes (power of two)"},
		&cli.StringFlag{Name: "clear-color", EnvVars: []string{"PALETTEVIEW_CLEAR_COLOR"}, Value: "#000000", Usage: "letterbox colour, #rrggbb[aa] or r,g,b[,a]"},
		&cli.BoolFlag{Name: "cycle", EnvVars: []string{"PALETTEVIEW_CYCLE"}, Usage: "animate the built-in cycling palette"},
		&cli.IntFlag{Name: "cycle-period", EnvVars: []string{"PALETTEVIEW_CYCLE_PERIOD"}, Value: def.CyclePeriod, Usage: "frames per palette cycle"},
		&cli.StringFlag{Name: "script", EnvVars: []string{"PALETTEVIEW_SCRIPT"}, Usage: "Lua palette script defining palette(frame)"},
		&cli.BoolFlag{Name: "dither", EnvVars: []string{"PALETTEVIEW_DITHER"}, Usage: "Floyd-Steinberg dither when reducing to 256 colours"},
		&cli.BoolFlag{Name: "probe-gpu", EnvVars: []string{"PALETTEVIEW_PROBE_GPU"}, Value: def.ProbeGPU, Usage: "query the Vulkan adapter for its copy alignment"},
		&cli.BoolFlag{Name: "fullscreen", Aliases: []string{"f"}, Usage: "start fullscreen"},
		&cli.IntFlag{Name: "frames", EnvVars: []string{"PALETTEVIEW_FRAMES"}, Value: def.Frames, Usage: "frames to render in headless builds"},
		&cli.StringFlag{Name: "snapshot", Usage: "write the last headless frame as PNG to this path"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, EnvVars: []string{"PALETTEVIEW_VERBOSE"}, Usage: "increase verbosity"},
		&cli.BoolFlag{Name: "features", Usage: "print compiled features and exit"},
	}
}

func configFromContext(c *cli.Context) (Config, error) {
	cfg := DefaultConfig()
	cfg.Title = c.String("title")
	cfg.Image = c.Args().First()
	cfg.Demo = c.Bool("demo")
	cfg.Scale = c.Int("scale")
	cfg.ClampZoom = c.Bool("clamp-zoom")
	cfg.Alignment = c.Int("row-alignment")
	cfg.Cycle = c.Bool("cycle")
	cfg.CyclePeriod = c.Int("cycle-period")
	cfg.Script = c.String("script")
	cfg.Dither = c.Bool("dither")
	cfg.ProbeGPU = c.Bool("probe-gpu")
	cfg.Fullscreen = c.Bool("fullscreen")
	cfg.Frames = c.Int("frames")
	cfg.Snapshot = c.String("snapshot")
	cfg.Verbose = c.Bool("verbose")

	clear, err := parseClearColor(c.String("clear-color"))
	if err != nil {
		return cfg, err
	}
	cfg.ClearColor = clear
	if cfg.Image == "" {
		cfg.Demo = true
	}
	return cfg, cfg.Validate()
}

func loadSource(cfg Config) (*PixelSource, error) {
	opts := LoadOptions{Dither: cfg.Dither}
	if cfg.Demo {
		return DemoPixelSource(demoWidth, demoHeight, opts)
	}
	return LoadPixelSource(cfg.Image, opts)
}

// paletteProvider picks the per-tick palette source. The returned func
// releases it.
func paletteProvider(cfg Config, src *PixelSource) (PaletteProvider, func(), error) {
	switch {
	case cfg.Script != "":
		data, err := os.ReadFile(cfg.Script)
		if err != nil {
			return nil, nil, errors.Wrap(err, "read palette script")
		}
		lp, err := NewLuaPalette(cfg.Script, string(data), src.FullPalette())
		if err != nil {
			return nil, nil, err
		}
		return lp, lp.Close, nil
	case cfg.Cycle:
		return cyclingPalette{Period: uint64(cfg.CyclePeriod)}, func() {}, nil
	}
	return staticPalette{palette: src.FullPalette()}, func() {}, nil
}

// resolveAlignment raises the configured row alignment to what the adapter
// asks for.
func resolveAlignment(cfg *Config, logger *consoleLog) {
	if !cfg.ProbeGPU {
		return
	}
	info, err := probeGPU()
	if err != nil {
		logger.Debugf("gpu probe: %v", err)
		return
	}
	logger.Infof("gpu: %s (row pitch alignment %d)", info.Name, info.CopyRowAlignment)
	if isPowerOfTwo(info.CopyRowAlignment) && info.CopyRowAlignment > cfg.Alignment {
		cfg.Alignment = info.CopyRowAlignment
	}
}

func run(c *cli.Context) error {
	if c.Bool("features") {
		printFeatures(c.App.Writer)
		return nil
	}
	cfg, err := configFromContext(c)
	if err != nil {
		return cli.Exit(err, 2)
	}
	logger := newConsoleLog(os.Stderr, cfg.Verbose)

	src, err := loadSource(cfg)
	if err != nil {
		return cli.Exit(err, 1)
	}
	logger.Infof("%s: %dx%d, %d colours", src.Name, src.Bitmap.Width, src.Bitmap.Height, len(src.Palette))

	resolveAlignment(&cfg, logger)
	if err := runWindowSystem(cfg, src, logger); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func main() {
	boilerPlate()

	// -v is taken by --verbose.
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}

	app := cli.NewApp()
	app.Name = "paletteview"
	app.Usage = "Show an indexed bitmap at integer zoom with a live palette"
	app.Version = Version
	app.ArgsUsage = "[IMAGE]"
	app.Flags = appFlags()
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
