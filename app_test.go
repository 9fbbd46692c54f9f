package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySnapshotSink struct {
	shots [][]byte
}

func (m *memorySnapshotSink) WriteSnapshot(data []byte) error {
	m.shots = append(m.shots, data)
	return nil
}

type failingPalette struct{}

func (failingPalette) PaletteAt(uint64) (Palette, error) {
	return Palette{}, errors.New("script error")
}

func testPixelSource(t *testing.T) *PixelSource {
	t.Helper()
	bitmap, err := NewIndexedBitmap(2, 2, []byte{0, 1, 2, 3})
	require.NoError(t, err)
	return &PixelSource{Name: "test", Bitmap: bitmap, Palette: testColors}
}

func newTestApp(t *testing.T) (*App, *headlessWindowSystem, *SoftwareGPU) {
	t.Helper()
	gpu := NewSoftwareGPU(0)
	ws := newHeadlessWindowSystem(gpu)
	app, err := NewApp(gpu, ws, testPixelSource(t), AppOptions{
		Width:     4,
		Height:    4,
		Presenter: DefaultPresenterOptions(),
	}, newConsoleLog(io.Discard, true))
	require.NoError(t, err)
	require.NoError(t, app.Start())
	return app, ws, gpu
}

func keyPress(id WindowID, key Key) WindowEvent {
	return WindowEvent{Window: id, Kind: EventKeyInput, Key: key, Pressed: true}
}

func TestApp_NewWindowIsDeferred(t *testing.T) {
	app, ws, _ := newTestApp(t)
	first := app.Windows()[0]
	assert.Equal(t, "Window 1", ws.windows[first].title)

	app.HandleEvent(keyPress(first, KeyN))
	assert.Equal(t, 1, app.WindowCount(), "window opened inside the event handler")

	app.Tick()
	require.Equal(t, 2, app.WindowCount())
	second := app.Windows()[1]
	assert.Equal(t, "Window 2", ws.windows[second].title)
}

func TestApp_TitlesKeepCounting(t *testing.T) {
	app, ws, _ := newTestApp(t)
	first := app.Windows()[0]
	app.HandleEvent(keyPress(first, KeyN))
	app.Tick()
	second := app.Windows()[1]
	app.HandleEvent(keyPress(second, KeyEscape))
	app.HandleEvent(keyPress(first, KeyN))
	app.Tick()

	ids := app.Windows()
	require.Len(t, ids, 2)
	assert.Equal(t, "Window 3", ws.windows[ids[1]].title)
}

// refusingWindowSystem fails the next refuse window openings.
type refusingWindowSystem struct {
	*headlessWindowSystem
	refuse int
}

func (r *refusingWindowSystem) OpenWindow(title string, width, height int) (WindowID, Surface, error) {
	if r.refuse > 0 {
		r.refuse--
		return 0, nil, errors.New("window refused")
	}
	return r.headlessWindowSystem.OpenWindow(title, width, height)
}

func TestApp_FailedOpenKeepsTitleNumber(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	ws := &refusingWindowSystem{headlessWindowSystem: newHeadlessWindowSystem(gpu)}
	app, err := NewApp(gpu, ws, testPixelSource(t), AppOptions{
		Width:     4,
		Height:    4,
		Presenter: DefaultPresenterOptions(),
	}, newConsoleLog(io.Discard, true))
	require.NoError(t, err)
	require.NoError(t, app.Start())
	first := app.Windows()[0]

	ws.refuse = 2
	for range 2 {
		app.HandleEvent(keyPress(first, KeyN))
		app.Tick()
	}
	require.Equal(t, 1, app.WindowCount())

	app.HandleEvent(keyPress(first, KeyN))
	app.Tick()
	ids := app.Windows()
	require.Len(t, ids, 2)
	assert.Equal(t, "Window 2", ws.windows[ids[1]].title)
}

func TestApp_EscapeClosesAndLastWindowExits(t *testing.T) {
	app, ws, gpu := newTestApp(t)
	id := app.Windows()[0]

	app.HandleEvent(keyPress(id, KeyEscape))
	assert.Equal(t, 1, app.WindowCount())
	app.Tick()

	assert.Equal(t, 0, app.WindowCount())
	assert.True(t, app.Exited())
	assert.True(t, ws.exited)
	textures, buffers, pipelines := gpu.LiveResources()
	assert.Zero(t, textures+buffers+pipelines, "presenter resources not released")
}

func TestApp_CloseRequestKeepsOtherWindows(t *testing.T) {
	app, _, _ := newTestApp(t)
	first := app.Windows()[0]
	app.HandleEvent(keyPress(first, KeyN))
	app.Tick()

	app.HandleEvent(WindowEvent{Window: first, Kind: EventCloseRequested})
	app.Tick()
	assert.Equal(t, 1, app.WindowCount())
	assert.False(t, app.Exited())
	_, ok := app.Presenter(first)
	assert.False(t, ok)
}

func TestApp_FullscreenToggle(t *testing.T) {
	app, ws, _ := newTestApp(t)
	id := app.Windows()[0]

	app.HandleEvent(keyPress(id, KeyF))
	assert.False(t, ws.IsFullscreen(id), "toggled inside the event handler")
	app.Tick()
	assert.True(t, ws.IsFullscreen(id))
	app.HandleEvent(keyPress(id, KeyF))
	app.Tick()
	assert.False(t, ws.IsFullscreen(id))
}

func TestApp_KeyReleaseIgnored(t *testing.T) {
	app, _, _ := newTestApp(t)
	id := app.Windows()[0]
	app.HandleEvent(WindowEvent{Window: id, Kind: EventKeyInput, Key: KeyEscape})
	app.Tick()
	assert.Equal(t, 1, app.WindowCount())
}

func TestApp_ResizeReconfiguresAndRedraws(t *testing.T) {
	app, ws, _ := newTestApp(t)
	id := app.Windows()[0]

	app.HandleEvent(WindowEvent{Window: id, Kind: EventResize, Width: 10, Height: 6})
	p, _ := app.Presenter(id)
	assert.Equal(t, 10, p.SurfaceConfig().Width)
	assert.Equal(t, 3, p.Quad().Zoom)
	assert.Equal(t, []WindowID{id}, ws.redraws)
}

func TestApp_TickRendersEveryWindow(t *testing.T) {
	app, ws, _ := newTestApp(t)
	app.HandleEvent(keyPress(app.Windows()[0], KeyN))
	app.Tick()
	ws.pump(app)

	for _, id := range app.Windows() {
		surf, ok := ws.surface(id)
		require.True(t, ok)
		assert.Equal(t, uint64(1), surf.Presented())
		assert.Equal(t, color.RGBA{255, 0, 0, 255}, surf.Frame().RGBAAt(0, 0))
	}
}

func TestApp_CyclingPaletteAndPause(t *testing.T) {
	app, ws, _ := newTestApp(t)
	app.SetPaletteProvider(cyclingPalette{Period: 4})
	id := app.Windows()[0]
	p, _ := app.Presenter(id)

	app.Tick()
	assert.Equal(t, uint64(1), app.Frame())
	assert.Equal(t, CyclingPalette(0.25), p.Palette().Palette())

	app.HandleEvent(keyPress(id, KeySpace))
	assert.True(t, app.Paused())
	app.Tick()
	app.Tick()
	assert.Equal(t, uint64(1), app.Frame())

	app.HandleEvent(keyPress(id, KeySpace))
	app.Tick()
	assert.Equal(t, uint64(2), app.Frame())
	ws.pump(app)
	surf, _ := ws.surface(id)
	want := CyclingPalette(0.5)[0]
	assert.Equal(t, color.RGBA{want.R, want.G, want.B, want.A}, surf.Frame().RGBAAt(0, 0))
}

func TestApp_PaletteErrorKeepsPreviousPalette(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.SetPaletteProvider(failingPalette{})
	p, _ := app.Presenter(app.Windows()[0])
	before := p.Palette().Palette()
	app.Tick()
	assert.Equal(t, before, p.Palette().Palette())
}

func TestApp_SnapshotCopiesBitmapThroughPalette(t *testing.T) {
	app, _, _ := newTestApp(t)
	sink := &memorySnapshotSink{}
	app.SetSnapshotSink(sink)
	id := app.Windows()[0]

	app.HandleEvent(keyPress(id, KeyC))
	assert.Empty(t, sink.shots)
	app.Tick()
	require.Len(t, sink.shots, 1)

	img, err := png.Decode(bytes.NewReader(sink.shots[0]))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	r, g, b, a := img.At(1, 1).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a})
}

func TestApp_SnapshotWithoutSinkIsHarmless(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.HandleEvent(keyPress(app.Windows()[0], KeyC))
	app.Tick()
	assert.Equal(t, 1, app.WindowCount())
}

func TestApp_PipelineToggle(t *testing.T) {
	app, _, _ := newTestApp(t)
	id := app.Windows()[0]
	p, _ := app.Presenter(id)

	app.HandleEvent(keyPress(id, KeyG))
	app.Tick()
	assert.Equal(t, "index-gray", p.PipelineName())
	app.HandleEvent(keyPress(id, KeyG))
	app.Tick()
	assert.Equal(t, "indexed", p.PipelineName())
}

func TestApp_OverlayToggle(t *testing.T) {
	app, ws, _ := newTestApp(t)
	id := app.Windows()[0]

	app.HandleEvent(keyPress(id, KeyF12))
	app.Tick()
	assert.Contains(t, ws.windows[id].overlay, "Window 1")
	assert.Contains(t, ws.windows[id].overlay, "zoom 2")

	app.HandleEvent(keyPress(id, KeyF12))
	app.Tick()
	assert.Empty(t, ws.windows[id].overlay)
}

func TestApp_FatalRenderErrorClosesWindow(t *testing.T) {
	app, ws, gpu := newTestApp(t)
	gpu.LoseDevice()

	app.Tick()
	ws.pump(app)
	assert.Equal(t, 1, app.WindowCount(), "window closed inside the redraw handler")
	app.Tick()
	assert.Equal(t, 0, app.WindowCount())
	assert.True(t, app.Exited())
}

func TestApp_EventsForUnknownWindowsIgnored(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.HandleEvent(keyPress(99, KeyEscape))
	app.Tick()
	assert.Equal(t, 1, app.WindowCount())
}

func TestNewApp_RejectsInvalidSource(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	_, err := NewApp(gpu, newHeadlessWindowSystem(gpu), &PixelSource{Name: "empty"}, AppOptions{Width: 1, Height: 1}, newConsoleLog(io.Discard, false))
	assert.ErrorIs(t, err, ErrInvalidBitmap)
}

func TestActionQueue_DrainHandsBackInOrder(t *testing.T) {
	var q actionQueue
	q.push(appAction{kind: actionCreateWindow})
	q.push(appAction{kind: actionCloseWindow, window: 3})
	assert.Equal(t, 2, q.len())
	got := q.drain()
	assert.Equal(t, []appAction{{kind: actionCreateWindow}, {kind: actionCloseWindow, window: 3}}, got)
	assert.Zero(t, q.len())
}

func TestRunHeadless_WritesLastFrame(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	ws := newHeadlessWindowSystem(gpu)
	app, err := NewApp(gpu, ws, testPixelSource(t), AppOptions{Width: 6, Height: 4, Presenter: DefaultPresenterOptions()}, newConsoleLog(io.Discard, false))
	require.NoError(t, err)

	sink := &memorySnapshotSink{}
	require.NoError(t, runHeadless(app, ws, 3, sink))
	require.Len(t, sink.shots, 1)

	img, err := png.Decode(bytes.NewReader(sink.shots[0]))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
	assert.Equal(t, uint64(3), app.Frame())
	assert.Equal(t, 0, app.WindowCount())
	textures, buffers, pipelines := gpu.LiveResources()
	assert.Zero(t, textures+buffers+pipelines)
}
