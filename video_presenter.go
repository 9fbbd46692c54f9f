// video_presenter.go - Indexed bitmap presentation state machine

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
video_presenter.go - Presentation State Machine

One Presenter drives one window surface:

  Uninitialized --Configure--> Configured --Render--> Rendering
        Rendering/Configured --Resize--> Resizing --> Configured
        any --Close / fatal error--> Closed

Per frame, in one submission:
  1. palette upload  (256x1 RGBA8 lookup texture)
  2. bitmap upload   (R8 index texture, rows padded to the alignment quantum)
  3. acquire the next surface image
  4. render pass: clear, bind pipeline + bind group + buffers, draw 6 indices
  5. submit, present

A lost or outdated surface skips the frame and the surface is reconfigured
before the next attempt. Out-of-memory, device loss and any other backend
failure close the presenter and release its GPU resources.
*/

package main

import (
	"errors"
	"fmt"
	"time"
)

type PresenterState int

const (
	StateUninitialized PresenterState = iota
	StateConfigured
	StateRendering
	StateResizing
	StateClosed
)

func (s PresenterState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateRendering:
		return "rendering"
	case StateResizing:
		return "resizing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrPresenterClosed        = errors.New("presenter closed")
	ErrPresenterNotConfigured = errors.New("presenter not configured")
)

type PresenterOptions struct {
	Alignment   int
	ClearColor  ClearColor
	ClampZoom   bool
	PresentMode PresentMode
	Pipeline    PipelineConfig
}

func DefaultPresenterOptions() PresenterOptions {
	return PresenterOptions{
		Alignment:   DefaultRowAlignment,
		ClearColor:  ClearColor{0, 0, 0, 1},
		PresentMode: PresentModeFifo,
		Pipeline:    IndexedPipelineConfig,
	}
}

type frameErrorClass int

const (
	frameErrorFatal frameErrorClass = iota
	frameErrorReconfigure
	frameErrorSkip
)

func classifyFrameError(err error) frameErrorClass {
	switch {
	case errors.Is(err, ErrSurfaceLost), errors.Is(err, ErrSurfaceOutdated):
		return frameErrorReconfigure
	case errors.Is(err, ErrSurfaceTimeout):
		return frameErrorSkip
	}
	return frameErrorFatal
}

type Presenter struct {
	gpu     GPUBackend
	surface Surface
	bitmap  *IndexedBitmap
	palette *PaletteStore
	opts    PresenterOptions

	state  PresenterState
	config SurfaceConfig
	quad   Quad

	uploader       *TextureUploader
	indexTexture   TextureID
	paletteTexture TextureID
	pipeline       *builtPipeline
	indexBuffer    BufferID
	vertexBuffers  bufferArena
	vertexBuffer   BufferHandle

	stats            *FrameStats
	onSummary        func(FrameSummary)
	needsReconfigure bool
	framesRendered   uint64
	framesSkipped    uint64
}

func NewPresenter(gpu GPUBackend, surface Surface, bitmap *IndexedBitmap, palette *PaletteStore, opts PresenterOptions) (*Presenter, error) {
	if err := bitmap.Validate(); err != nil {
		return nil, err
	}
	if palette == nil {
		palette = NewPaletteStore()
	}
	if opts.Pipeline.Name == "" {
		opts.Pipeline = IndexedPipelineConfig
	}
	uploader, err := NewTextureUploader(gpu, opts.Alignment)
	if err != nil {
		return nil, err
	}
	return &Presenter{
		gpu:      gpu,
		surface:  surface,
		bitmap:   bitmap,
		palette:  palette,
		opts:     opts,
		uploader: uploader,
	}, nil
}

// OnFrameSummary registers the receiver of the rolling frame time summary.
func (p *Presenter) OnFrameSummary(fn func(FrameSummary)) {
	p.onSummary = fn
}

func (p *Presenter) State() PresenterState        { return p.state }
func (p *Presenter) Quad() Quad                   { return p.quad }
func (p *Presenter) SurfaceConfig() SurfaceConfig { return p.config }
func (p *Presenter) Palette() *PaletteStore       { return p.palette }
func (p *Presenter) Bitmap() *IndexedBitmap       { return p.bitmap }
func (p *Presenter) FramesRendered() uint64       { return p.framesRendered }
func (p *Presenter) FramesSkipped() uint64        { return p.framesSkipped }
func (p *Presenter) PipelineName() string         { return p.opts.Pipeline.Name }

func (p *Presenter) LastSummary() FrameSummary {
	if p.stats == nil {
		return FrameSummary{}
	}
	return p.stats.Last()
}

// Configure creates the per-window GPU resources and applies the first
// surface configuration.
func (p *Presenter) Configure(width, height int, now time.Time) error {
	if p.state != StateUninitialized {
		return &VideoError{Operation: "configure", Details: "presenter is " + p.state.String()}
	}
	if width <= 0 || height <= 0 {
		return &VideoError{Operation: "configure", Details: fmt.Sprintf("window is %dx%d", width, height)}
	}
	if err := p.createResources(); err != nil {
		p.releaseResources()
		return err
	}
	cfg := SurfaceConfig{
		Format:      p.surface.PreferredFormat(),
		Width:       width,
		Height:      height,
		PresentMode: p.opts.PresentMode,
	}
	if err := p.surface.Configure(cfg); err != nil {
		p.releaseResources()
		return &VideoError{Operation: "configure", Details: "surface", Err: err}
	}
	p.config = cfg
	if err := p.regenerateQuad(); err != nil {
		p.releaseResources()
		return err
	}
	p.stats = NewFrameStats(now)
	p.state = StateConfigured
	return nil
}

func (p *Presenter) createResources() error {
	var err error
	p.indexTexture, err = p.gpu.CreateTexture(TextureDescriptor{
		Label:  "index texture",
		Width:  p.bitmap.Width,
		Height: p.bitmap.Height,
		Format: p.opts.Pipeline.BitmapFormat,
	})
	if err != nil {
		return &VideoError{Operation: "configure", Details: "index texture", Err: err}
	}
	p.paletteTexture, err = p.gpu.CreateTexture(TextureDescriptor{
		Label:  "palette texture",
		Width:  PaletteSize,
		Height: 1,
		Format: PixelFormatRGBA8,
	})
	if err != nil {
		return &VideoError{Operation: "configure", Details: "palette texture", Err: err}
	}
	p.pipeline, err = buildPipeline(p.gpu, p.opts.Pipeline, p.surface.PreferredFormat(), p.indexTexture, p.paletteTexture)
	if err != nil {
		return err
	}
	p.indexBuffer, err = createBufferInit(p.gpu, "index buffer", BufferUsageIndex, indexBytes(QuadIndices[:]))
	if err != nil {
		return &VideoError{Operation: "configure", Details: "index buffer", Err: err}
	}
	return nil
}

// regenerateQuad replaces the vertex buffer with one for the current
// surface size. The previous handle is invalidated, never rewritten.
func (p *Presenter) regenerateQuad() error {
	quad := ComputeQuad(p.bitmap.Width, p.bitmap.Height, p.config.Width, p.config.Height, p.opts.ClampZoom)
	id, err := createBufferInit(p.gpu, "vertex buffer", BufferUsageVertex, quad.Bytes())
	if err != nil {
		return &VideoError{Operation: "resize", Details: "vertex buffer", Err: err}
	}
	if old, ok := p.vertexBuffers.remove(p.vertexBuffer); ok {
		p.gpu.DestroyBuffer(old)
	}
	p.vertexBuffer = p.vertexBuffers.insert(id)
	p.quad = quad
	return nil
}

// Resize applies a new window size. Zero-sized windows are ignored and the
// previous configuration is kept.
func (p *Presenter) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	switch p.state {
	case StateConfigured, StateRendering:
	default:
		return nil
	}

	p.state = StateResizing
	cfg := p.config
	cfg.Width = width
	cfg.Height = height
	if err := p.surface.Configure(cfg); err != nil {
		return p.fail("resize", err)
	}
	p.config = cfg
	p.needsReconfigure = false
	if err := p.regenerateQuad(); err != nil {
		return p.fail("resize", err)
	}
	p.state = StateConfigured
	return nil
}

// SetPipeline swaps the presentation variant, keeping textures and buffers.
func (p *Presenter) SetPipeline(cfg PipelineConfig) error {
	if p.state == StateClosed {
		return ErrPresenterClosed
	}
	if p.state == StateUninitialized {
		p.opts.Pipeline = cfg
		return nil
	}
	built, err := buildPipeline(p.gpu, cfg, p.config.Format, p.indexTexture, p.paletteTexture)
	if err != nil {
		return err
	}
	p.pipeline.release(p.gpu)
	p.pipeline = built
	p.opts.Pipeline = cfg
	return nil
}

// Render presents one frame. Recoverable surface conditions skip the frame
// and return nil; fatal conditions close the presenter and are returned.
func (p *Presenter) Render(now time.Time) error {
	switch p.state {
	case StateClosed:
		return ErrPresenterClosed
	case StateUninitialized, StateResizing:
		return ErrPresenterNotConfigured
	}

	if p.needsReconfigure {
		if err := p.surface.Configure(p.config); err != nil {
			if classifyFrameError(err) != frameErrorFatal {
				p.framesSkipped++
				return nil
			}
			return p.fail("reconfigure", err)
		}
		p.needsReconfigure = false
	}

	p.state = StateRendering
	if summary, ok := p.stats.Record(now, p.config.Width, p.config.Height); ok && p.onSummary != nil {
		p.onSummary(summary)
	}

	enc := NewCommandEncoder("frame")
	var staging []BufferID
	defer func() {
		for _, id := range staging {
			p.gpu.DestroyBuffer(id)
		}
	}()

	id, err := p.palette.Upload(enc, p.uploader, p.paletteTexture)
	if err != nil {
		return p.fail("palette upload", err)
	}
	staging = append(staging, id)

	id, err = p.uploader.Upload(enc, "bitmap", p.indexTexture, p.bitmap.Pixels, p.bitmap.Width, p.bitmap.Height, p.opts.Pipeline.BitmapFormat)
	if err != nil {
		return p.fail("bitmap upload", err)
	}
	staging = append(staging, id)

	img, err := p.surface.GetCurrentImage()
	if err != nil {
		switch classifyFrameError(err) {
		case frameErrorReconfigure:
			p.needsReconfigure = true
			fallthrough
		case frameErrorSkip:
			p.framesSkipped++
			return nil
		}
		return p.fail("acquire", err)
	}

	vb, ok := p.vertexBuffers.get(p.vertexBuffer)
	if !ok {
		return p.fail("draw", errors.New("vertex buffer handle is stale"))
	}
	pass := enc.BeginRenderPass("present", img, p.opts.ClearColor)
	pass.SetPipeline(p.pipeline.pipeline)
	pass.SetBindGroup(p.pipeline.bindGroup)
	pass.SetVertexBuffer(vb)
	pass.SetIndexBuffer(p.indexBuffer, IndexFormatUint16)
	pass.DrawIndexed(len(QuadIndices), 1)
	pass.End()

	if err := p.gpu.Submit(enc.Finish()); err != nil {
		return p.fail("submit", err)
	}
	if err := p.surface.Present(img); err != nil {
		if classifyFrameError(err) != frameErrorFatal {
			p.needsReconfigure = true
			p.framesSkipped++
			return nil
		}
		return p.fail("present", err)
	}
	p.framesRendered++
	return nil
}

// fail closes the presenter after a fatal backend error.
func (p *Presenter) fail(op string, err error) error {
	p.Close()
	var ve *VideoError
	if errors.As(err, &ve) {
		return err
	}
	return &VideoError{Operation: op, Details: "backend rejected the request", Err: err}
}

// Close releases every GPU resource held for the window. Safe to call twice.
func (p *Presenter) Close() {
	if p.state == StateClosed {
		return
	}
	p.releaseResources()
	p.state = StateClosed
}

func (p *Presenter) releaseResources() {
	if id, ok := p.vertexBuffers.remove(p.vertexBuffer); ok {
		p.gpu.DestroyBuffer(id)
	}
	if p.indexBuffer != 0 {
		p.gpu.DestroyBuffer(p.indexBuffer)
		p.indexBuffer = 0
	}
	if p.pipeline != nil {
		p.pipeline.release(p.gpu)
		p.pipeline = nil
	}
	if p.paletteTexture != 0 {
		p.gpu.DestroyTexture(p.paletteTexture)
		p.paletteTexture = 0
	}
	if p.indexTexture != 0 {
		p.gpu.DestroyTexture(p.indexTexture)
		p.indexTexture = 0
	}
}
