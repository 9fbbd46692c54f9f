package main

import (
	"fmt"
	"image"
)

// IndexedBitmap is one byte per pixel, each byte an index into the palette.
type IndexedBitmap struct {
	Width  int
	Height int
	Pixels []byte
}

func NewIndexedBitmap(width, height int, pixels []byte) (*IndexedBitmap, error) {
	b := &IndexedBitmap{Width: width, Height: height, Pixels: pixels}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *IndexedBitmap) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("bitmap is %dx%d: %w", b.Width, b.Height, ErrInvalidBitmap)
	}
	if len(b.Pixels) != b.Width*b.Height {
		return fmt.Errorf("bitmap %dx%d has %d pixels: %w", b.Width, b.Height, len(b.Pixels), ErrInvalidBitmap)
	}
	return nil
}

// PixelSource is a decoded asset: the bitmap and its (up to 256) colours.
type PixelSource struct {
	Name    string
	Bitmap  *IndexedBitmap
	Palette []RGBA
}

func (s *PixelSource) Validate() error {
	if s.Bitmap == nil {
		return fmt.Errorf("%s: no bitmap: %w", s.Name, ErrInvalidBitmap)
	}
	if err := s.Bitmap.Validate(); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	if len(s.Palette) > PaletteSize {
		return fmt.Errorf("%s: %d palette entries, at most %d allowed", s.Name, len(s.Palette), PaletteSize)
	}
	return nil
}

// FullPalette pads the source colours to 256 entries with (0,0,0,0).
func (s *PixelSource) FullPalette() Palette {
	return PadPalette(s.Palette)
}

// snapshotImage resolves a bitmap through a palette into an image.Paletted.
func snapshotImage(b *IndexedBitmap, p Palette) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, b.Width, b.Height), p.ColorPalette())
	copy(img.Pix, b.Pixels)
	return img
}
