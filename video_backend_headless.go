//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "video:headless")
}

func probeGPU() (gpuInfo, error) {
	return gpuInfo{}, ErrNoAdapter
}

func runWindowSystem(cfg Config, src *PixelSource, logger *consoleLog) error {
	gpu := NewSoftwareGPU(0)
	ws := newHeadlessWindowSystem(gpu)

	w := src.Bitmap.Width * cfg.Scale
	h := src.Bitmap.Height * cfg.Scale
	app, err := NewApp(gpu, ws, src, AppOptions{Width: w, Height: h, Presenter: cfg.PresenterOptions()}, logger)
	if err != nil {
		return err
	}
	provider, release, err := paletteProvider(cfg, src)
	if err != nil {
		return err
	}
	defer release()
	app.SetPaletteProvider(provider)

	var sink SnapshotSink
	if cfg.Snapshot != "" {
		sink = fileSnapshotSink{path: cfg.Snapshot}
	}
	if err := runHeadless(app, ws, cfg.Frames, sink); err != nil {
		return err
	}
	logger.Infof("rendered %d frames headless", cfg.Frames)
	return nil
}
