// video_backend_software.go - CPU implementation of the GPU backend

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
video_backend_software.go - Software GPU Backend

Implements GPUBackend and Surface entirely in Go:
- Textures and buffers as byte slices
- Buffer-to-texture copies honouring BytesPerRow
- Render passes that clear the target and rasterise indexed triangles with
  barycentric interpolation of texture coordinates
- Nearest lookup of the index texture followed by the palette (or the raw
  index as grey)

Used by the headless build and by tests. Every executed command is appended
to a log so the order of uploads and draws can be checked, and failures can
be injected into buffer creation, submission and image acquisition.
*/

package main

import (
	"fmt"
	"image"
	"math"
	"sync"
)

type softwareTexture struct {
	desc TextureDescriptor
	data []byte
}

// SoftwareGPU is a GPUBackend that executes commands on the CPU.
type SoftwareGPU struct {
	mutex sync.Mutex

	buffers   *hostBufferPool
	textures  map[TextureID]*softwareTexture
	samplers  map[SamplerID]SamplerDescriptor
	pipelines map[PipelineID]PipelineDescriptor
	surfaces  map[uint32]*SoftwareSurface

	nextTexture  TextureID
	nextSampler  SamplerID
	nextPipeline PipelineID
	nextSurface  uint32

	log []string

	// Fault injection. A non-nil error is returned by the next call and
	// then cleared; deviceLost fails every call until reset.
	failCreateBuffer error
	failSubmit       error
	deviceLost       bool
}

// NewSoftwareGPU creates a backend. memoryLimit bounds the bytes held in
// buffers; 0 means unbounded.
func NewSoftwareGPU(memoryLimit int) *SoftwareGPU {
	return &SoftwareGPU{
		buffers:   newHostBufferPool(memoryLimit),
		textures:  make(map[TextureID]*softwareTexture),
		samplers:  make(map[SamplerID]SamplerDescriptor),
		pipelines: make(map[PipelineID]PipelineDescriptor),
		surfaces:  make(map[uint32]*SoftwareSurface),
	}
}

// CommandLog returns the commands executed so far.
func (g *SoftwareGPU) CommandLog() []string {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return append([]string(nil), g.log...)
}

func (g *SoftwareGPU) ResetCommandLog() {
	g.mutex.Lock()
	g.log = nil
	g.mutex.Unlock()
}

func (g *SoftwareGPU) FailNextBufferCreation(err error) {
	g.mutex.Lock()
	g.failCreateBuffer = err
	g.mutex.Unlock()
}

func (g *SoftwareGPU) FailNextSubmit(err error) {
	g.mutex.Lock()
	g.failSubmit = err
	g.mutex.Unlock()
}

// LoseDevice makes every later submission fail with ErrDeviceLost.
func (g *SoftwareGPU) LoseDevice() {
	g.mutex.Lock()
	g.deviceLost = true
	g.mutex.Unlock()
}

// LiveSamplers reports the samplers not yet destroyed.
func (g *SoftwareGPU) LiveSamplers() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.samplers)
}

// LiveResources reports the textures, buffers and pipelines not yet destroyed.
func (g *SoftwareGPU) LiveResources() (textures, buffers, pipelines int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.textures), g.buffers.count(), len(g.pipelines)
}

// TextureData returns a copy of a texture's texels.
func (g *SoftwareGPU) TextureData(id TextureID) ([]byte, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	tex, ok := g.textures[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), tex.data...), true
}

func (g *SoftwareGPU) CreateTexture(desc TextureDescriptor) (TextureID, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, &VideoError{Operation: "texture creation", Details: fmt.Sprintf("%s: %dx%d", desc.Label, desc.Width, desc.Height)}
	}
	g.nextTexture++
	g.textures[g.nextTexture] = &softwareTexture{
		desc: desc,
		data: make([]byte, desc.Width*desc.Height*desc.Format.BytesPerPixel()),
	}
	return g.nextTexture, nil
}

func (g *SoftwareGPU) DestroyTexture(id TextureID) {
	g.mutex.Lock()
	delete(g.textures, id)
	g.mutex.Unlock()
}

func (g *SoftwareGPU) CreateSampler(desc SamplerDescriptor) (SamplerID, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.nextSampler++
	g.samplers[g.nextSampler] = desc
	return g.nextSampler, nil
}

func (g *SoftwareGPU) DestroySampler(id SamplerID) {
	g.mutex.Lock()
	delete(g.samplers, id)
	g.mutex.Unlock()
}

func (g *SoftwareGPU) CreateBuffer(desc BufferDescriptor) (BufferID, []byte, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := g.failCreateBuffer; err != nil {
		g.failCreateBuffer = nil
		return 0, nil, &VideoError{Operation: "buffer creation", Details: desc.Label, Err: err}
	}
	return g.buffers.create(desc)
}

func (g *SoftwareGPU) Unmap(id BufferID) {
	g.mutex.Lock()
	g.buffers.unmap(id)
	g.mutex.Unlock()
}

func (g *SoftwareGPU) DestroyBuffer(id BufferID) {
	g.mutex.Lock()
	g.buffers.destroy(id)
	g.mutex.Unlock()
}

func (g *SoftwareGPU) CreateRenderPipeline(desc PipelineDescriptor) (PipelineID, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := desc.Config.Validate(); err != nil {
		return 0, &VideoError{Operation: "pipeline creation", Details: desc.Label, Err: err}
	}
	g.nextPipeline++
	g.pipelines[g.nextPipeline] = desc
	return g.nextPipeline, nil
}

func (g *SoftwareGPU) DestroyRenderPipeline(id PipelineID) {
	g.mutex.Lock()
	delete(g.pipelines, id)
	g.mutex.Unlock()
}

// Submit executes command buffers in order. Execution stops at the first
// failing command.
func (g *SoftwareGPU) Submit(cmds ...CommandBuffer) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.deviceLost {
		return &VideoError{Operation: "submit", Details: "device", Err: ErrDeviceLost}
	}
	if err := g.failSubmit; err != nil {
		g.failSubmit = nil
		return &VideoError{Operation: "submit", Details: "injected", Err: err}
	}
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
			g.log = append(g.log, cmd.commandName())
		}
	}
	return nil
}

func (g *SoftwareGPU) execCopy(c CopyBufferToTextureCommand) error {
	buf, err := g.buffers.lookup(c.Source)
	if err != nil {
		return err
	}
	tex, ok := g.textures[c.Destination]
	if !ok {
		return &VideoError{Operation: "buffer copy", Details: fmt.Sprintf("unknown texture %d", c.Destination)}
	}
	return copyToTexels(tex.data, tex.desc, buf, c)
}

func (g *SoftwareGPU) execRenderPass(c RenderPassCommand) error {
	surf, ok := g.surfaces[uint32(c.Target.ID>>32)]
	if !ok || surf.pending == nil || surf.pending.ID != c.Target.ID {
		return &VideoError{Operation: "render pass", Details: fmt.Sprintf("image %#x is not acquired", c.Target.ID)}
	}
	target := surf.back
	clear := [4]byte{unitToByte(c.Clear.R), unitToByte(c.Clear.G), unitToByte(c.Clear.B), unitToByte(c.Clear.A)}
	for i := 0; i < len(target); i += 4 {
		copy(target[i:i+4], clear[:])
	}
	if len(c.Draws) == 0 {
		return nil
	}

	desc, ok := g.pipelines[c.Pipeline]
	if !ok {
		return &VideoError{Operation: "render pass", Details: fmt.Sprintf("unknown pipeline %d", c.Pipeline)}
	}
	indexTex, err := g.boundTexture(c.BindGroup, bindingIndexTexture)
	if err != nil {
		return err
	}
	paletteTex, err := g.boundTexture(c.BindGroup, bindingPaletteTexture)
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
	vertices, err := decodeVertices(vb.data)
	if err != nil {
		return &VideoError{Operation: "render pass", Details: "vertex buffer", Err: err}
	}
	indices := decodeIndices(ib.data)

	r := &softwareRaster{
		target:  target,
		width:   surf.cfg.Width,
		height:  surf.cfg.Height,
		index:   indexTex,
		palette: paletteTex,
		shader:  desc.Config.Shader,
	}
	for _, draw := range c.Draws {
		if draw.IndexCount > len(indices) || draw.IndexCount%3 != 0 {
			return &VideoError{Operation: "draw", Details: fmt.Sprintf("%d indices, buffer holds %d", draw.IndexCount, len(indices))}
		}
		for t := 0; t < draw.IndexCount; t += 3 {
			a, b, cc := int(indices[t]), int(indices[t+1]), int(indices[t+2])
			if a >= len(vertices) || b >= len(vertices) || cc >= len(vertices) {
				return &VideoError{Operation: "draw", Details: fmt.Sprintf("index out of range for %d vertices", len(vertices))}
			}
			r.triangle(vertices[a], vertices[b], vertices[cc])
		}
	}
	return nil
}

func (g *SoftwareGPU) boundTexture(bg BindGroup, binding int) (*softwareTexture, error) {
	e, ok := bg.entry(binding)
	if !ok {
		return nil, &VideoError{Operation: "render pass", Details: fmt.Sprintf("binding %d not set", binding)}
	}
	tex, ok := g.textures[e.Texture]
	if !ok {
		return nil, &VideoError{Operation: "render pass", Details: fmt.Sprintf("binding %d references unknown texture %d", binding, e.Texture)}
	}
	return tex, nil
}

func unitToByte(v float64) byte {
	return byte(math.Round(max(0, min(1, v)) * 255))
}

// softwareRaster draws textured triangles into an RGBA target.
type softwareRaster struct {
	target        []byte
	width, height int
	index         *softwareTexture
	palette       *softwareTexture
	shader        ShaderKind
}

func (r *softwareRaster) toScreen(v Vertex) (float64, float64) {
	x := (float64(v.Position[0]) + 1) * 0.5 * float64(r.width)
	y := (1 - float64(v.Position[1])) * 0.5 * float64(r.height)
	return x, y
}

func (r *softwareRaster) triangle(v0, v1, v2 Vertex) {
	x0, y0 := r.toScreen(v0)
	x1, y1 := r.toScreen(v1)
	x2, y2 := r.toScreen(v2)

	area := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if area == 0 {
		return
	}

	minX := max(0, int(math.Floor(min(x0, x1, x2))))
	maxX := min(r.width-1, int(math.Ceil(max(x0, x1, x2))))
	minY := max(0, int(math.Floor(min(y0, y1, y2))))
	maxY := min(r.height-1, int(math.Ceil(max(y0, y1, y2))))

	for py := minY; py <= maxY; py++ {
		cy := float64(py) + 0.5
		for px := minX; px <= maxX; px++ {
			cx := float64(px) + 0.5
			w0 := ((x1-cx)*(y2-cy) - (x2-cx)*(y1-cy)) / area
			w1 := ((x2-cx)*(y0-cy) - (x0-cx)*(y2-cy)) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			u := w0*float64(v0.TexCoords[0]) + w1*float64(v1.TexCoords[0]) + w2*float64(v2.TexCoords[0])
			v := w0*float64(v0.TexCoords[1]) + w1*float64(v1.TexCoords[1]) + w2*float64(v2.TexCoords[1])
			r.shade(px, py, u, v)
		}
	}
}

func (r *softwareRaster) shade(px, py int, u, v float64) {
	tw, th := r.index.desc.Width, r.index.desc.Height
	tx := min(tw-1, max(0, int(math.Floor(u*float64(tw)))))
	ty := min(th-1, max(0, int(math.Floor(v*float64(th)))))
	idx := int(r.index.data[ty*tw+tx])

	o := (py*r.width + px) * 4
	if r.shader == ShaderIndexGray {
		r.target[o+0] = byte(idx)
		r.target[o+1] = byte(idx)
		r.target[o+2] = byte(idx)
		r.target[o+3] = 255
		return
	}
	copy(r.target[o:o+4], r.palette.data[idx*4:idx*4+4])
}

// SoftwareSurface is a presentable RGBA frame owned by a SoftwareGPU.
type SoftwareSurface struct {
	gpu        *SoftwareGPU
	id         uint32
	cfg        SurfaceConfig
	configured bool

	back    []byte
	front   []byte
	seq     uint32
	pending *SurfaceImage

	acquireErrors []error
	configureErrs []error
	presented     uint64
}

func (g *SoftwareGPU) NewSurface() *SoftwareSurface {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.nextSurface++
	s := &SoftwareSurface{gpu: g, id: g.nextSurface}
	g.surfaces[s.id] = s
	return s
}

// Release detaches the surface from its GPU.
func (s *SoftwareSurface) Release() {
	s.gpu.mutex.Lock()
	delete(s.gpu.surfaces, s.id)
	s.gpu.mutex.Unlock()
}

func (s *SoftwareSurface) PreferredFormat() PixelFormat {
	return PixelFormatRGBA8
}

func (s *SoftwareSurface) Configure(cfg SurfaceConfig) error {
	s.gpu.mutex.Lock()
	defer s.gpu.mutex.Unlock()
	if n := len(s.configureErrs); n > 0 {
		err := s.configureErrs[0]
		s.configureErrs = s.configureErrs[1:]
		return err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return &VideoError{Operation: "surface configure", Details: fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)}
	}
	s.cfg = cfg
	s.back = make([]byte, cfg.Width*cfg.Height*4)
	s.front = make([]byte, cfg.Width*cfg.Height*4)
	s.pending = nil
	s.configured = true
	return nil
}

// QueueAcquireError makes a later GetCurrentImage fail with err, in order.
func (s *SoftwareSurface) QueueAcquireError(err error) {
	s.gpu.mutex.Lock()
	s.acquireErrors = append(s.acquireErrors, err)
	s.gpu.mutex.Unlock()
}

func (s *SoftwareSurface) QueueConfigureError(err error) {
	s.gpu.mutex.Lock()
	s.configureErrs = append(s.configureErrs, err)
	s.gpu.mutex.Unlock()
}

func (s *SoftwareSurface) GetCurrentImage() (SurfaceImage, error) {
	s.gpu.mutex.Lock()
	defer s.gpu.mutex.Unlock()
	if n := len(s.acquireErrors); n > 0 {
		err := s.acquireErrors[0]
		s.acquireErrors = s.acquireErrors[1:]
		return SurfaceImage{}, err
	}
	if !s.configured {
		return SurfaceImage{}, ErrSurfaceOutdated
	}
	s.seq++
	img := SurfaceImage{
		ID:     uint64(s.id)<<32 | uint64(s.seq),
		Width:  s.cfg.Width,
		Height: s.cfg.Height,
	}
	s.pending = &img
	return img, nil
}

func (s *SoftwareSurface) Present(img SurfaceImage) error {
	s.gpu.mutex.Lock()
	defer s.gpu.mutex.Unlock()
	if s.pending == nil || s.pending.ID != img.ID {
		return &VideoError{Operation: "present", Details: fmt.Sprintf("image %#x is not acquired", img.ID)}
	}
	copy(s.front, s.back)
	s.pending = nil
	s.presented++
	s.gpu.log = append(s.gpu.log, "present")
	return nil
}

func (s *SoftwareSurface) Config() SurfaceConfig {
	s.gpu.mutex.Lock()
	defer s.gpu.mutex.Unlock()
	return s.cfg
}

func (s *SoftwareSurface) Presented() uint64 {
	s.gpu.mutex.Lock()
	defer s.gpu.mutex.Unlock()
	return s.presented
}

// Frame returns a copy of the last presented image.
func (s *SoftwareSurface) Frame() *image.RGBA {
	s.gpu.mutex.Lock()
	defer s.gpu.mutex.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, s.cfg.Width, s.cfg.Height))
	copy(img.Pix, s.front)
	return img
}
