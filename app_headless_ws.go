package main

import "github.com/pkg/errors"

type headlessWindow struct {
	title      string
	surface    *SoftwareSurface
	fullscreen bool
	overlay    string
}

// headlessWindowSystem opens software surfaces instead of real windows.
// Redraw requests are collected and delivered by pump.
type headlessWindowSystem struct {
	gpu     *SoftwareGPU
	next    WindowID
	windows map[WindowID]*headlessWindow
	redraws []WindowID
	exited  bool
}

func newHeadlessWindowSystem(gpu *SoftwareGPU) *headlessWindowSystem {
	return &headlessWindowSystem{
		gpu:     gpu,
		windows: make(map[WindowID]*headlessWindow),
	}
}

func (h *headlessWindowSystem) OpenWindow(title string, width, height int) (WindowID, Surface, error) {
	if h.exited {
		return 0, nil, errors.New("window system has exited")
	}
	h.next++
	w := &headlessWindow{title: title, surface: h.gpu.NewSurface()}
	h.windows[h.next] = w
	return h.next, w.surface, nil
}

func (h *headlessWindowSystem) CloseWindow(id WindowID) {
	if w, ok := h.windows[id]; ok {
		w.surface.Release()
		delete(h.windows, id)
	}
}

func (h *headlessWindowSystem) SetFullscreen(id WindowID, on bool) {
	if w, ok := h.windows[id]; ok {
		w.fullscreen = on
	}
}

func (h *headlessWindowSystem) IsFullscreen(id WindowID) bool {
	w, ok := h.windows[id]
	return ok && w.fullscreen
}

func (h *headlessWindowSystem) SetOverlay(id WindowID, text string) {
	if w, ok := h.windows[id]; ok {
		w.overlay = text
	}
}

func (h *headlessWindowSystem) RequestRedraw(id WindowID) {
	for _, r := range h.redraws {
		if r == id {
			return
		}
	}
	h.redraws = append(h.redraws, id)
}

func (h *headlessWindowSystem) Exit() {
	h.exited = true
}

func (h *headlessWindowSystem) surface(id WindowID) (*SoftwareSurface, bool) {
	w, ok := h.windows[id]
	if !ok {
		return nil, false
	}
	return w.surface, true
}

// pump delivers the pending redraw requests to app.
func (h *headlessWindowSystem) pump(app *App) {
	pending := h.redraws
	h.redraws = nil
	for _, id := range pending {
		app.HandleEvent(WindowEvent{Window: id, Kind: EventRedrawRequested})
	}
}

// runHeadless drives app for the given number of ticks and optionally
// writes the first window's last frame to snapshot.
func runHeadless(app *App, ws *headlessWindowSystem, frames int, snapshot SnapshotSink) error {
	if err := app.Start(); err != nil {
		return err
	}
	first := app.Windows()[0]
	for range frames {
		app.Tick()
		if ws.exited {
			break
		}
		ws.pump(app)
	}

	var result error
	if snapshot != nil {
		surf, ok := ws.surface(first)
		if !ok {
			result = errors.New("window closed before the snapshot was taken")
		} else if data, err := encodePNG(surf.Frame()); err != nil {
			result = err
		} else {
			result = snapshot.WriteSnapshot(data)
		}
	}
	app.Close()
	return result
}
