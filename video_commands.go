// video_commands.go - Recorded GPU command buffers

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
Commands are recorded on the CPU into a CommandBuffer and executed by the
backend in order on Submit. One submission carries the palette copy, the
bitmap copy and the render pass of a frame, so resource writes are visible
to the draw that follows them.
*/

package main

import "fmt"

type IndexFormat int

const (
	IndexFormatUint16 IndexFormat = iota
)

// ClearColor components are in [0,1].
type ClearColor struct {
	R, G, B, A float64
}

type TexelCopyLayout struct {
	Offset       int
	BytesPerRow  int
	RowsPerImage int
}

type Extent struct {
	Width  int
	Height int
}

type GPUCommand interface {
	commandName() string
}

type CopyBufferToTextureCommand struct {
	Source      BufferID
	Layout      TexelCopyLayout
	Destination TextureID
	Origin      [3]int
	Size        Extent
}

func (c CopyBufferToTextureCommand) commandName() string {
	return fmt.Sprintf("copy buffer %d -> texture %d", c.Source, c.Destination)
}

type DrawIndexedCommand struct {
	IndexCount    int
	InstanceCount int
}

type RenderPassCommand struct {
	Label        string
	Target       SurfaceImage
	Clear        ClearColor
	Pipeline     PipelineID
	BindGroup    BindGroup
	VertexBuffer BufferID
	IndexBuffer  BufferID
	IndexFormat  IndexFormat
	Draws        []DrawIndexedCommand
}

func (c RenderPassCommand) commandName() string {
	return fmt.Sprintf("render pass %q", c.Label)
}

type CommandBuffer struct {
	Label    string
	Commands []GPUCommand
}

type CommandEncoder struct {
	label    string
	commands []GPUCommand
	pass     *RenderPass
}

func NewCommandEncoder(label string) *CommandEncoder {
	return &CommandEncoder{label: label}
}

func (e *CommandEncoder) CopyBufferToTexture(src BufferID, layout TexelCopyLayout, dst TextureID, size Extent) {
	e.commands = append(e.commands, CopyBufferToTextureCommand{
		Source:      src,
		Layout:      layout,
		Destination: dst,
		Size:        size,
	})
}

// BeginRenderPass opens a pass that clears target to clear. The pass is
// appended to the encoder when End is called.
func (e *CommandEncoder) BeginRenderPass(label string, target SurfaceImage, clear ClearColor) *RenderPass {
	e.pass = &RenderPass{
		enc: e,
		cmd: RenderPassCommand{Label: label, Target: target, Clear: clear},
	}
	return e.pass
}

func (e *CommandEncoder) Finish() CommandBuffer {
	if e.pass != nil {
		e.pass.End()
	}
	cb := CommandBuffer{Label: e.label, Commands: e.commands}
	e.commands = nil
	return cb
}

type RenderPass struct {
	enc   *CommandEncoder
	cmd   RenderPassCommand
	ended bool
}

func (p *RenderPass) SetPipeline(id PipelineID) {
	p.cmd.Pipeline = id
}

func (p *RenderPass) SetBindGroup(bg BindGroup) {
	p.cmd.BindGroup = bg
}

func (p *RenderPass) SetVertexBuffer(id BufferID) {
	p.cmd.VertexBuffer = id
}

func (p *RenderPass) SetIndexBuffer(id BufferID, format IndexFormat) {
	p.cmd.IndexBuffer = id
	p.cmd.IndexFormat = format
}

func (p *RenderPass) DrawIndexed(indexCount, instanceCount int) {
	p.cmd.Draws = append(p.cmd.Draws, DrawIndexedCommand{IndexCount: indexCount, InstanceCount: instanceCount})
}

func (p *RenderPass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.enc.commands = append(p.enc.commands, p.cmd)
	if p.enc.pass == p {
		p.enc.pass = nil
	}
}
