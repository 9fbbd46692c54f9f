// video_texture_upload.go - Stride-aligned texture uploads

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
Linear buffer-to-texture copies require every row to start on a multiple of
the row alignment quantum (256 bytes on WebGPU, DX12 and most Vulkan
drivers). Rows are padded up to that stride in a staging buffer that is
mapped at creation, filled, unmapped and then copied into the persistent
texture. The pad bytes at the end of each row are never read.
*/

package main

import (
	"errors"
	"fmt"
)

const DefaultRowAlignment = 256

var ErrInvalidBitmap = errors.New("invalid indexed bitmap")

// alignUp rounds n up to a multiple of align, which must be a power of two.
func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// PadRows copies height rows of rowBytes bytes from src into a new buffer
// whose rows are alignment bytes apart.
func PadRows(src []byte, rowBytes, height, alignment int) []byte {
	stride := alignUp(rowBytes, alignment)
	dst := make([]byte, stride*height)
	padRowsInto(dst, src, rowBytes, height, stride)
	return dst
}

func padRowsInto(dst, src []byte, rowBytes, height, stride int) {
	for y := range height {
		copy(dst[y*stride:y*stride+rowBytes], src[y*rowBytes:y*rowBytes+rowBytes])
	}
}

// TextureUploader records staging copies into textures.
type TextureUploader struct {
	gpu       GPUBackend
	alignment int
}

func NewTextureUploader(gpu GPUBackend, alignment int) (*TextureUploader, error) {
	if alignment == 0 {
		alignment = DefaultRowAlignment
	}
	if !isPowerOfTwo(alignment) {
		return nil, &VideoError{
			Operation: "uploader creation",
			Details:   fmt.Sprintf("row alignment %d is not a power of two", alignment),
		}
	}
	return &TextureUploader{gpu: gpu, alignment: alignment}, nil
}

func (u *TextureUploader) Alignment() int {
	return u.alignment
}

// Upload writes pixels into a fresh staging buffer and records the copy into
// dst on enc. The returned staging buffer must be destroyed by the caller
// once the command buffer has been submitted.
func (u *TextureUploader) Upload(enc *CommandEncoder, label string, dst TextureID, pixels []byte, width, height int, format PixelFormat) (BufferID, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%s upload %dx%d: %w", label, width, height, ErrInvalidBitmap)
	}
	rowBytes := width * format.BytesPerPixel()
	if len(pixels) < rowBytes*height {
		return 0, fmt.Errorf("%s upload: %d bytes for %dx%d %s: %w", label, len(pixels), width, height, format, ErrInvalidBitmap)
	}

	stride := alignUp(rowBytes, u.alignment)
	staging, mapped, err := u.gpu.CreateBuffer(BufferDescriptor{
		Label:            label + " staging",
		Size:             stride * height,
		Usage:            BufferUsageCopySrc,
		MappedAtCreation: true,
	})
	if err != nil {
		return 0, err
	}
	padRowsInto(mapped, pixels, rowBytes, height, stride)
	u.gpu.Unmap(staging)

	enc.CopyBufferToTexture(staging, TexelCopyLayout{
		BytesPerRow:  stride,
		RowsPerImage: height,
	}, dst, Extent{Width: width, Height: height})
	return staging, nil
}
