//go:build !headless

// video_backend_ebiten.go - Ebiten window system and GPU backend for PaletteView

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
video_backend_ebiten.go - Ebiten Backend

Ebiten owns the process's single window and its game loop:

  Layout  records the outside size; a change becomes a Resize event
  Update  delivers pending resize, key and close events, then App.Tick
  Draw    exposes the screen as the surface image and delivers
          RedrawRequested, so the presenter renders straight into it

The GPU side keeps textures as CPU texels. At draw time the index texture
and the palette are packed into one atlas image (palette in the row below
the bitmap) which the Kage program samples in pixel units.
*/

package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

func init() {
	compiledFeatures = append(compiledFeatures, "video:ebiten")
}

const ebitenWindowID WindowID = 1

// =============================================================================
// GPU backend
// =============================================================================

type ebitenTexture struct {
	desc  TextureDescriptor
	data  []byte
	dirty bool
}

type atlasKey struct {
	index, palette TextureID
}

type ebitenAtlas struct {
	image  *ebiten.Image
	pixels []byte
	width  int
	row    int
}

type ebitenGPU struct {
	buffers   *hostBufferPool
	textures  map[TextureID]*ebitenTexture
	pipelines map[PipelineID]PipelineDescriptor
	shaders   map[ShaderKind]*ebiten.Shader
	atlases   map[atlasKey]*ebitenAtlas

	nextTexture  TextureID
	nextSampler  SamplerID
	nextPipeline PipelineID

	surface *ebitenSurface
}

func newEbitenGPU() *ebitenGPU {
	return &ebitenGPU{
		buffers:   newHostBufferPool(0),
		textures:  make(map[TextureID]*ebitenTexture),
		pipelines: make(map[PipelineID]PipelineDescriptor),
		shaders:   make(map[ShaderKind]*ebiten.Shader),
		atlases:   make(map[atlasKey]*ebitenAtlas),
	}
}

func (g *ebitenGPU) CreateTexture(desc TextureDescriptor) (TextureID, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, &VideoError{Operation: "texture creation", Details: fmt.Sprintf("%s: %dx%d", desc.Label, desc.Width, desc.Height)}
	}
	g.nextTexture++
	g.textures[g.nextTexture] = &ebitenTexture{
		desc: desc,
		data: make([]byte, desc.Width*desc.Height*desc.Format.BytesPerPixel()),
	}
	return g.nextTexture, nil
}

func (g *ebitenGPU) DestroyTexture(id TextureID) {
	delete(g.textures, id)
	for key, atlas := range g.atlases {
		if key.index == id || key.palette == id {
			atlas.image.Deallocate()
			delete(g.atlases, key)
		}
	}
}

// Samplers carry no state here: the Kage programs fetch texels directly.
func (g *ebitenGPU) CreateSampler(SamplerDescriptor) (SamplerID, error) {
	g.nextSampler++
	return g.nextSampler, nil
}

func (g *ebitenGPU) DestroySampler(SamplerID) {}

func (g *ebitenGPU) CreateBuffer(desc BufferDescriptor) (BufferID, []byte, error) {
	return g.buffers.create(desc)
}

func (g *ebitenGPU) Unmap(id BufferID)         { g.buffers.unmap(id) }
func (g *ebitenGPU) DestroyBuffer(id BufferID) { g.buffers.destroy(id) }

func (g *ebitenGPU) CreateRenderPipeline(desc PipelineDescriptor) (PipelineID, error) {
	if err := desc.Config.Validate(); err != nil {
		return 0, &VideoError{Operation: "pipeline creation", Details: desc.Label, Err: err}
	}
	kind := desc.Config.Shader
	if _, ok := g.shaders[kind]; !ok {
		shader, err := ebiten.NewShader(shaderSource(kind))
		if err != nil {
			return 0, &VideoError{Operation: "pipeline creation", Details: "compile " + desc.Config.Name, Err: err}
		}
		g.shaders[kind] = shader
	}
	g.nextPipeline++
	g.pipelines[g.nextPipeline] = desc
	return g.nextPipeline, nil
}

func (g *ebitenGPU) DestroyRenderPipeline(id PipelineID) {
	delete(g.pipelines, id)
}

func (g *ebitenGPU) Submit(cmds ...CommandBuffer) error {
	for _, cb := range cmds {
		for _, cmd := range cb.Commands {
			var err error
			switch c := cmd.(type) {
			case CopyBufferToTextureCommand:
				err = g.execCopy(c)
			case RenderPassCommand:
				err = g.execRenderPass(c)
			default:
				err = &VideoError{Operation: "submit", Details: fmt.Sprintf("unsupported command %T", cmd)}
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *ebitenGPU) execCopy(c CopyBufferToTextureCommand) error {
	buf, err := g.buffers.lookup(c.Source)
	if err != nil {
		return err
	}
	tex, ok := g.textures[c.Destination]
	if !ok {
		return &VideoError{Operation: "buffer copy", Details: fmt.Sprintf("unknown texture %d", c.Destination)}
	}
	if err := copyToTexels(tex.data, tex.desc, buf, c); err != nil {
		return err
	}
	tex.dirty = true
	return nil
}

func (g *ebitenGPU) texture(bg BindGroup, binding int) (TextureID, *ebitenTexture, error) {
	e, ok := bg.entry(binding)
	if !ok {
		return 0, nil, &VideoError{Operation: "render pass", Details: fmt.Sprintf("binding %d not set", binding)}
	}
	tex, ok := g.textures[e.Texture]
	if !ok {
		return 0, nil, &VideoError{Operation: "render pass", Details: fmt.Sprintf("binding %d references unknown texture %d", binding, e.Texture)}
	}
	return e.Texture, tex, nil
}

// atlas packs the index and palette textures into one image, refreshing it
// when either texture has been written since the last draw.
func (g *ebitenGPU) atlas(indexID TextureID, index *ebitenTexture, paletteID TextureID, palette *ebitenTexture) *ebitenAtlas {
	key := atlasKey{index: indexID, palette: paletteID}
	a, ok := g.atlases[key]
	if !ok {
		w := max(index.desc.Width, PaletteSize)
		h := index.desc.Height + 1
		a = &ebitenAtlas{
			image:  ebiten.NewImage(w, h),
			pixels: make([]byte, w*h*4),
			width:  w,
			row:    index.desc.Height,
		}
		g.atlases[key] = a
		index.dirty, palette.dirty = true, true
	}
	if !index.dirty && !palette.dirty {
		return a
	}

	iw := index.desc.Width
	for y := range index.desc.Height {
		for x := range iw {
			o := (y*a.width + x) * 4
			a.pixels[o] = index.data[y*iw+x]
			a.pixels[o+3] = 0xFF
		}
	}
	// Ebiten images hold premultiplied alpha.
	base := a.row * a.width * 4
	for i := range PaletteSize {
		r, gg, b, al := palette.data[i*4], palette.data[i*4+1], palette.data[i*4+2], palette.data[i*4+3]
		o := base + i*4
		a.pixels[o+0] = byte(uint16(r) * uint16(al) / 255)
		a.pixels[o+1] = byte(uint16(gg) * uint16(al) / 255)
		a.pixels[o+2] = byte(uint16(b) * uint16(al) / 255)
		a.pixels[o+3] = al
	}
	a.image.WritePixels(a.pixels)
	index.dirty, palette.dirty = false, false
	return a
}

func (g *ebitenGPU) execRenderPass(c RenderPassCommand) error {
	s := g.surface
	if s == nil || s.screen == nil || s.frame != c.Target.ID {
		return &VideoError{Operation: "render pass", Details: fmt.Sprintf("image %d is not acquired", c.Target.ID)}
	}
	screen := s.screen
	screen.Fill(color.NRGBA{unitToByte(c.Clear.R), unitToByte(c.Clear.G), unitToByte(c.Clear.B), unitToByte(c.Clear.A)})
	if len(c.Draws) == 0 {
		return nil
	}

	desc, ok := g.pipelines[c.Pipeline]
	if !ok {
		return &VideoError{Operation: "render pass", Details: fmt.Sprintf("unknown pipeline %d", c.Pipeline)}
	}
	indexID, index, err := g.texture(c.BindGroup, bindingIndexTexture)
	if err != nil {
		return err
	}
	paletteID, palette, err := g.texture(c.BindGroup, bindingPaletteTexture)
	if err != nil {
		return err
	}
	vb, err := g.buffers.lookup(c.VertexBuffer)
	if err != nil {
		return err
	}
	ib, err := g.buffers.lookup(c.IndexBuffer)
	if err != nil {
		return err
	}
	quad, err := decodeVertices(vb.data)
	if err != nil {
		return &VideoError{Operation: "render pass", Details: "vertex buffer", Err: err}
	}
	indices := decodeIndices(ib.data)

	a := g.atlas(indexID, index, paletteID, palette)
	sw, sh := float32(s.cfg.Width), float32(s.cfg.Height)
	tw, th := float32(index.desc.Width), float32(index.desc.Height)
	vertices := make([]ebiten.Vertex, len(quad))
	for i, v := range quad {
		vertices[i] = ebiten.Vertex{
			DstX:   (v.Position[0] + 1) / 2 * sw,
			DstY:   (1 - v.Position[1]) / 2 * sh,
			SrcX:   v.TexCoords[0] * tw,
			SrcY:   v.TexCoords[1] * th,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
	opts := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: map[string]any{"PaletteRow": float32(a.row)},
		Blend:    ebiten.BlendCopy,
	}
	opts.Images[0] = a.image
	for _, draw := range c.Draws {
		if draw.IndexCount > len(indices) {
			return &VideoError{Operation: "draw", Details: fmt.Sprintf("%d indices, buffer holds %d", draw.IndexCount, len(indices))}
		}
		screen.DrawTrianglesShader(vertices, indices[:draw.IndexCount], g.shaders[desc.Config.Shader], opts)
	}
	return nil
}

// =============================================================================
// Surface
// =============================================================================

type ebitenSurface struct {
	cfg        SurfaceConfig
	configured bool
	screen     *ebiten.Image
	frame      uint64
}

func (s *ebitenSurface) PreferredFormat() PixelFormat {
	return PixelFormatRGBA8
}

func (s *ebitenSurface) Configure(cfg SurfaceConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return &VideoError{Operation: "surface configure", Details: fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)}
	}
	s.cfg = cfg
	s.configured = true
	return nil
}

// GetCurrentImage only succeeds while Ebiten is inside Draw.
func (s *ebitenSurface) GetCurrentImage() (SurfaceImage, error) {
	if !s.configured {
		return SurfaceImage{}, ErrSurfaceOutdated
	}
	if s.screen == nil {
		return SurfaceImage{}, ErrSurfaceTimeout
	}
	b := s.screen.Bounds()
	if b.Dx() != s.cfg.Width || b.Dy() != s.cfg.Height {
		return SurfaceImage{}, ErrSurfaceOutdated
	}
	return SurfaceImage{ID: s.frame, Width: s.cfg.Width, Height: s.cfg.Height}, nil
}

// Present is implicit: Ebiten shows the screen when Draw returns.
func (s *ebitenSurface) Present(img SurfaceImage) error {
	if img.ID != s.frame {
		return ErrSurfaceOutdated
	}
	return nil
}

// =============================================================================
// Window system
// =============================================================================

type ebitenWindowSystem struct {
	app      *App
	gpu      *ebitenGPU
	surface  *ebitenSurface
	title    string
	open     bool
	exit     bool
	overlay  string
	width    int
	height   int
	resized  bool
	redraw   bool
	initialW int
	initialH int
}

func newEbitenWindowSystem(gpu *ebitenGPU, title string) *ebitenWindowSystem {
	return &ebitenWindowSystem{gpu: gpu, title: title}
}

func (w *ebitenWindowSystem) OpenWindow(title string, width, height int) (WindowID, Surface, error) {
	if w.open || w.exit {
		return 0, nil, fmt.Errorf("ebiten drives a single window")
	}
	w.open = true
	w.surface = &ebitenSurface{}
	w.gpu.surface = w.surface
	w.width, w.height = width, height
	w.initialW, w.initialH = width, height
	ebiten.SetWindowTitle(w.title + " - " + title)
	ebiten.SetWindowSize(width, height)
	return ebitenWindowID, w.surface, nil
}

func (w *ebitenWindowSystem) CloseWindow(id WindowID) {
	if id == ebitenWindowID {
		w.open = false
		w.gpu.surface = nil
	}
}

func (w *ebitenWindowSystem) SetFullscreen(_ WindowID, on bool) {
	ebiten.SetFullscreen(on)
	if !on {
		ebiten.SetWindowSize(w.initialW, w.initialH)
	}
}

func (w *ebitenWindowSystem) IsFullscreen(WindowID) bool {
	return ebiten.IsFullscreen()
}

func (w *ebitenWindowSystem) SetOverlay(_ WindowID, body string) {
	w.overlay = body
}

func (w *ebitenWindowSystem) RequestRedraw(WindowID) {
	w.redraw = true
}

func (w *ebitenWindowSystem) Exit() {
	w.exit = true
}

var watchedKeys = []ebiten.Key{
	ebiten.KeyEscape,
	ebiten.KeyF,
	ebiten.KeyN,
	ebiten.KeyC,
	ebiten.KeyG,
	ebiten.KeySpace,
	ebiten.KeyF12,
}

func translateKey(key ebiten.Key) (Key, bool) {
	switch key {
	case ebiten.KeyEscape:
		return KeyEscape, true
	case ebiten.KeyF:
		return KeyF, true
	case ebiten.KeyN:
		return KeyN, true
	case ebiten.KeyC:
		return KeyC, true
	case ebiten.KeyG:
		return KeyG, true
	case ebiten.KeySpace:
		return KeySpace, true
	case ebiten.KeyF12:
		return KeyF12, true
	default:
		return KeyUnknown, false
	}
}

func (w *ebitenWindowSystem) Update() error {
	if w.exit || !w.open {
		return ebiten.Termination
	}
	if w.resized {
		w.resized = false
		w.app.HandleEvent(WindowEvent{Window: ebitenWindowID, Kind: EventResize, Width: w.width, Height: w.height})
	}
	for _, k := range watchedKeys {
		if !inpututil.IsKeyJustPressed(k) {
			continue
		}
		if key, ok := translateKey(k); ok {
			w.app.HandleEvent(WindowEvent{Window: ebitenWindowID, Kind: EventKeyInput, Key: key, Pressed: true})
		}
	}
	if ebiten.IsWindowBeingClosed() {
		w.app.HandleEvent(WindowEvent{Window: ebitenWindowID, Kind: EventCloseRequested})
	}

	w.app.Tick()
	if w.exit || !w.open {
		return ebiten.Termination
	}
	return nil
}

func (w *ebitenWindowSystem) Draw(screen *ebiten.Image) {
	if !w.open {
		return
	}
	w.surface.frame++
	w.surface.screen = screen
	if w.redraw {
		w.redraw = false
		w.app.HandleEvent(WindowEvent{Window: ebitenWindowID, Kind: EventRedrawRequested})
	}
	w.surface.screen = nil
	if w.overlay != "" {
		drawOverlay(screen, w.overlay)
	}
}

func (w *ebitenWindowSystem) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != w.width || outsideHeight != w.height) {
		w.width, w.height = outsideWidth, outsideHeight
		w.resized = true
	}
	return max(w.width, 1), max(w.height, 1)
}

func drawOverlay(screen *ebiten.Image, body string) {
	face := basicfont.Face7x13
	lines := strings.Split(body, "\n")
	lineHeight := 13
	barHeight := len(lines)*lineHeight + 6
	b := screen.Bounds()
	if barHeight >= b.Dy() {
		return
	}
	y := b.Dy() - barHeight
	ebitenutil.DrawRect(screen, 0, float64(y), float64(b.Dx()), float64(barHeight), color.RGBA{0, 0, 0, 180})
	textColor := color.RGBA{0, 220, 90, 255}
	for i, line := range lines {
		text.Draw(screen, line, face, 6, y+lineHeight*(i+1), textColor)
	}

	legendColor := color.RGBA{160, 160, 160, 255}
	legend := "Esc Close  F Fullscreen  N New  C Copy  G Gray  F12 Status"
	legendW := text.BoundString(face, legend).Dx()
	legendX := max(b.Dx()-legendW-6, 6)
	text.Draw(screen, legend, face, legendX, y+lineHeight, legendColor)
}

func runWindowSystem(cfg Config, src *PixelSource, logger *consoleLog) error {
	gpu := newEbitenGPU()
	ws := newEbitenWindowSystem(gpu, cfg.Title)

	w := src.Bitmap.Width * cfg.Scale
	h := src.Bitmap.Height * cfg.Scale
	app, err := NewApp(gpu, ws, src, AppOptions{Width: w, Height: h, Presenter: cfg.PresenterOptions()}, logger)
	if err != nil {
		return err
	}
	ws.app = app

	provider, release, err := paletteProvider(cfg, src)
	if err != nil {
		return err
	}
	defer release()
	app.SetPaletteProvider(provider)
	app.SetSnapshotSink(&clipboardSnapshotSink{})

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	// Frames without a redraw keep showing the last presented image.
	ebiten.SetScreenClearedEveryFrame(false)
	if err := app.Start(); err != nil {
		return err
	}
	if cfg.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	defer app.Close()
	return ebiten.RunGame(ws)
}
