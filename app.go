// app.go - Window management and event dispatch for PaletteView

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

/*
app.go - Application Context

The App owns every open window and the shared pixel source. Window-system
events and redraw ticks arrive one at a time on the same goroutine; nothing
here is safe for concurrent use.

Actions that create or destroy windows, or need the whole window table, are
not executed inside the event handler that asked for them. They go onto a
queue that Tick drains before the next round of redraws.

Key bindings:
  Escape  close the window          N      open another window
  F       toggle fullscreen         C      copy a PNG snapshot
  G       palette / index-gray      Space  pause palette animation
  F12     status overlay
*/

package main

import (
	"fmt"
	"time"
)

type WindowID uint32

type EventKind int

const (
	EventResize EventKind = iota
	EventCloseRequested
	EventRedrawRequested
	EventKeyInput
	EventFocus
	EventModifiersChanged
	EventMouseWheel
	EventMouseButton
)

type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyF
	KeyN
	KeyC
	KeyG
	KeySpace
	KeyF12
)

type WindowEvent struct {
	Window  WindowID
	Kind    EventKind
	Width   int // EventResize
	Height  int
	Key     Key // EventKeyInput
	Pressed bool
	Focused bool
}

// WindowSystem is the display side of the program: it opens windows with a
// presentable surface and reports their events back through App.HandleEvent.
type WindowSystem interface {
	OpenWindow(title string, width, height int) (WindowID, Surface, error)
	CloseWindow(id WindowID)
	SetFullscreen(id WindowID, on bool)
	IsFullscreen(id WindowID) bool
	SetOverlay(id WindowID, text string)
	RequestRedraw(id WindowID)
	Exit()
}

type actionKind int

const (
	actionCreateWindow actionKind = iota
	actionCloseWindow
	actionToggleFullscreen
	actionCopySnapshot
	actionTogglePipeline
	actionToggleOverlay
)

type appAction struct {
	kind   actionKind
	window WindowID
}

type actionQueue struct {
	pending []appAction
}

func (q *actionQueue) push(a appAction) {
	q.pending = append(q.pending, a)
}

// drain hands back everything queued so far. Actions pushed while the
// result is being processed wait for the next drain.
func (q *actionQueue) drain() []appAction {
	out := q.pending
	q.pending = nil
	return out
}

func (q *actionQueue) len() int {
	return len(q.pending)
}

type appWindow struct {
	id        WindowID
	title     string
	presenter *Presenter
	palette   *PaletteStore
	overlay   bool
}

type AppOptions struct {
	Width     int
	Height    int
	Presenter PresenterOptions
}

type App struct {
	gpu    GPUBackend
	ws     WindowSystem
	source *PixelSource
	opts   AppOptions
	log    *consoleLog

	windows     map[WindowID]*appWindow
	order       []WindowID
	windowCount int
	actions     actionQueue

	palettes PaletteProvider
	frame    uint64
	paused   bool
	snapshot SnapshotSink
	exited   bool

	now func() time.Time
}

func NewApp(gpu GPUBackend, ws WindowSystem, source *PixelSource, opts AppOptions, logger *consoleLog) (*App, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	return &App{
		gpu:      gpu,
		ws:       ws,
		source:   source,
		opts:     opts,
		log:      logger,
		windows:  make(map[WindowID]*appWindow),
		palettes: staticPalette{palette: source.FullPalette()},
		now:      time.Now,
	}, nil
}

func (a *App) SetPaletteProvider(p PaletteProvider) { a.palettes = p }
func (a *App) SetSnapshotSink(s SnapshotSink)       { a.snapshot = s }
func (a *App) WindowCount() int                     { return len(a.windows) }
func (a *App) Exited() bool                         { return a.exited }
func (a *App) Frame() uint64                        { return a.frame }
func (a *App) Paused() bool                         { return a.paused }

func (a *App) Presenter(id WindowID) (*Presenter, bool) {
	w, ok := a.windows[id]
	if !ok {
		return nil, false
	}
	return w.presenter, true
}

// Windows lists open windows in creation order.
func (a *App) Windows() []WindowID {
	return append([]WindowID(nil), a.order...)
}

// Start opens the first window.
func (a *App) Start() error {
	_, err := a.openWindow()
	return err
}

func (a *App) openWindow() (WindowID, error) {
	title := fmt.Sprintf("Window %d", a.windowCount+1)
	id, surface, err := a.ws.OpenWindow(title, a.opts.Width, a.opts.Height)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", title, err)
	}
	a.windowCount++

	store := NewPaletteStore()
	if pal, err := a.palettes.PaletteAt(a.frame); err == nil {
		store.Set(pal)
	}
	p, err := NewPresenter(a.gpu, surface, a.source.Bitmap, store, a.opts.Presenter)
	if err != nil {
		a.ws.CloseWindow(id)
		return 0, err
	}
	if err := p.Configure(a.opts.Width, a.opts.Height, a.now()); err != nil {
		a.ws.CloseWindow(id)
		return 0, fmt.Errorf("configure %s: %w", title, err)
	}
	p.OnFrameSummary(func(s FrameSummary) {
		a.log.Debugf("%s: %.2fms/frame (%.1f fps) at %dx%d", title,
			float64(s.AverageFrameTime.Microseconds())/1000, s.FPS, s.Width, s.Height)
	})

	a.windows[id] = &appWindow{id: id, title: title, presenter: p, palette: store}
	a.order = append(a.order, id)
	a.log.Infof("%s opened: %dx%d bitmap, zoom %d", title, a.source.Bitmap.Width, a.source.Bitmap.Height, p.Quad().Zoom)
	return id, nil
}

func (a *App) closeWindow(id WindowID) {
	w, ok := a.windows[id]
	if !ok {
		return
	}
	w.presenter.Close()
	a.ws.CloseWindow(id)
	delete(a.windows, id)
	for i, o := range a.order {
		if o == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	a.log.Debugf("%s closed", w.title)
	if len(a.windows) == 0 && !a.exited {
		a.exited = true
		a.ws.Exit()
	}
}

// HandleEvent reacts to one window-system event.
func (a *App) HandleEvent(ev WindowEvent) {
	w, ok := a.windows[ev.Window]
	if !ok {
		return
	}
	switch ev.Kind {
	case EventResize:
		if err := w.presenter.Resize(ev.Width, ev.Height); err != nil {
			a.log.Errorf("%s: %v", w.title, err)
			a.actions.push(appAction{kind: actionCloseWindow, window: w.id})
			return
		}
		a.ws.RequestRedraw(w.id)
	case EventCloseRequested:
		a.actions.push(appAction{kind: actionCloseWindow, window: w.id})
	case EventRedrawRequested:
		if err := w.presenter.Render(a.now()); err != nil {
			a.log.Errorf("%s: %v", w.title, err)
			a.actions.push(appAction{kind: actionCloseWindow, window: w.id})
		}
	case EventKeyInput:
		if ev.Pressed {
			a.handleKey(w, ev.Key)
		}
	}
}

func (a *App) handleKey(w *appWindow, key Key) {
	switch key {
	case KeyEscape:
		a.actions.push(appAction{kind: actionCloseWindow, window: w.id})
	case KeyF:
		a.actions.push(appAction{kind: actionToggleFullscreen, window: w.id})
	case KeyN:
		a.actions.push(appAction{kind: actionCreateWindow})
	case KeyC:
		a.actions.push(appAction{kind: actionCopySnapshot, window: w.id})
	case KeyG:
		a.actions.push(appAction{kind: actionTogglePipeline, window: w.id})
	case KeyF12:
		a.actions.push(appAction{kind: actionToggleOverlay, window: w.id})
	case KeySpace:
		a.paused = !a.paused
	}
}

// Tick runs queued actions, advances palette animation and asks every
// window for a redraw.
func (a *App) Tick() {
	for _, act := range a.actions.drain() {
		a.run(act)
	}
	if a.exited {
		return
	}

	if !a.paused {
		a.frame++
	}
	pal, err := a.palettes.PaletteAt(a.frame)
	if err != nil {
		a.log.Warnf("palette frame %d: %v", a.frame, err)
	}
	for _, id := range a.order {
		w := a.windows[id]
		if err == nil {
			w.palette.Set(pal)
		}
		if w.overlay {
			a.ws.SetOverlay(id, a.overlayText(w))
		}
		a.ws.RequestRedraw(id)
	}
}

func (a *App) run(act appAction) {
	if act.kind == actionCreateWindow {
		if _, err := a.openWindow(); err != nil {
			a.log.Warnf("%v", err)
		}
		return
	}
	w, ok := a.windows[act.window]
	if !ok {
		return
	}
	switch act.kind {
	case actionCloseWindow:
		a.closeWindow(w.id)
	case actionToggleFullscreen:
		a.ws.SetFullscreen(w.id, !a.ws.IsFullscreen(w.id))
	case actionCopySnapshot:
		a.copySnapshot(w)
	case actionTogglePipeline:
		next := IndexGrayPipelineConfig
		if w.presenter.PipelineName() == IndexGrayPipelineConfig.Name {
			next = IndexedPipelineConfig
		}
		if err := w.presenter.SetPipeline(next); err != nil {
			a.log.Errorf("%s: %v", w.title, err)
			return
		}
		a.log.Debugf("%s: %s pipeline", w.title, next.Name)
	case actionToggleOverlay:
		w.overlay = !w.overlay
		if !w.overlay {
			a.ws.SetOverlay(w.id, "")
		}
	}
}

func (a *App) copySnapshot(w *appWindow) {
	if a.snapshot == nil {
		a.log.Warnf("%s: no snapshot destination", w.title)
		return
	}
	data, err := encodePNG(snapshotImage(w.presenter.Bitmap(), w.palette.Palette()))
	if err == nil {
		err = a.snapshot.WriteSnapshot(data)
	}
	if err != nil {
		a.log.Warnf("%s: %v", w.title, err)
		return
	}
	a.log.Infof("%s: snapshot copied (%d bytes)", w.title, len(data))
}

func (a *App) overlayText(w *appWindow) string {
	p := w.presenter
	cfg := p.SurfaceConfig()
	s := p.LastSummary()
	paused := ""
	if a.paused {
		paused = "  paused"
	}
	return fmt.Sprintf("%s  %dx%d  zoom %d  %s\nframe %d  %.1f fps  skipped %d%s",
		w.title, cfg.Width, cfg.Height, p.Quad().Zoom, p.PipelineName(),
		a.frame, s.FPS, p.FramesSkipped(), paused)
}

// Close tears down every window.
func (a *App) Close() {
	for _, id := range a.Windows() {
		a.closeWindow(id)
	}
}
