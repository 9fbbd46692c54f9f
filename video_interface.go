// video_interface.go - GPU backend contract for PaletteView

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
	"errors"
	"fmt"
)

// VideoError provides detailed error context for video operations
type VideoError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("video %s failed: %s", e.Operation, e.Details)
}

func (e *VideoError) Unwrap() error {
	return e.Err
}

// Conditions reported by GPU backends. Lost, outdated and timed-out surfaces
// are recoverable; everything else is fatal for the owning window.
var (
	ErrSurfaceLost     = errors.New("surface lost")
	ErrSurfaceOutdated = errors.New("surface outdated")
	ErrSurfaceTimeout  = errors.New("surface acquire timed out")
	ErrOutOfMemory     = errors.New("gpu out of memory")
	ErrDeviceLost      = errors.New("gpu device lost")
	ErrNoAdapter       = errors.New("no usable gpu adapter")
)

type PixelFormat int

const (
	PixelFormatR8    PixelFormat = iota // one palette index per texel
	PixelFormatRGBA8                    // 8-bit RGBA, palette and surface images
	PixelFormatBGRA8
)

func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatR8:
		return 1
	default:
		return 4
	}
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatR8:
		return "r8"
	case PixelFormatRGBA8:
		return "rgba8"
	case PixelFormatBGRA8:
		return "bgra8"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

type PresentMode int

const (
	PresentModeFifo PresentMode = iota
	PresentModeAutoVsync
	PresentModeImmediate
)

type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

type (
	TextureID  uint32
	BufferID   uint32
	SamplerID  uint32
	PipelineID uint32
)

type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format PixelFormat
}

type BufferUsage int

const (
	BufferUsageCopySrc BufferUsage = 1 << iota
	BufferUsageVertex
	BufferUsageIndex
)

type BufferDescriptor struct {
	Label            string
	Size             int
	Usage            BufferUsage
	MappedAtCreation bool
}

type SamplerDescriptor struct {
	Label     string
	MagFilter FilterMode
	MinFilter FilterMode
}

type PipelineDescriptor struct {
	Label        string
	Config       PipelineConfig
	TargetFormat PixelFormat
}

// SurfaceConfig mirrors the live window dimensions. Width and Height are
// always positive once applied.
type SurfaceConfig struct {
	Format      PixelFormat
	Width       int
	Height      int
	PresentMode PresentMode
}

// SurfaceImage identifies one presentable image handed out by a Surface.
type SurfaceImage struct {
	ID     uint64
	Width  int
	Height int
}

// gpuInfo describes the adapter found by probeGPU.
type gpuInfo struct {
	Name             string
	CopyRowAlignment int
}

// GPUBackend is the set of device primitives the presenter depends on.
// CreateBuffer returns the mapped range when MappedAtCreation is set; the
// caller must Unmap before the buffer is used by a copy.
type GPUBackend interface {
	CreateTexture(desc TextureDescriptor) (TextureID, error)
	DestroyTexture(id TextureID)
	CreateSampler(desc SamplerDescriptor) (SamplerID, error)
	DestroySampler(id SamplerID)
	CreateBuffer(desc BufferDescriptor) (BufferID, []byte, error)
	Unmap(id BufferID)
	DestroyBuffer(id BufferID)
	CreateRenderPipeline(desc PipelineDescriptor) (PipelineID, error)
	DestroyRenderPipeline(id PipelineID)
	Submit(cmds ...CommandBuffer) error
}

// Surface is the per-window presentation target.
type Surface interface {
	PreferredFormat() PixelFormat
	Configure(cfg SurfaceConfig) error
	GetCurrentImage() (SurfaceImage, error)
	Present(img SurfaceImage) error
}

// createBufferInit creates a buffer mapped at creation, fills it with
// contents and unmaps it.
func createBufferInit(gpu GPUBackend, label string, usage BufferUsage, contents []byte) (BufferID, error) {
	id, mapped, err := gpu.CreateBuffer(BufferDescriptor{
		Label:            label,
		Size:             len(contents),
		Usage:            usage,
		MappedAtCreation: true,
	})
	if err != nil {
		return 0, err
	}
	copy(mapped, contents)
	gpu.Unmap(id)
	return id, nil
}
