// pixel_loader.go - Asset decoding into indexed bitmaps

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
pixel_loader.go - Pixel Source loader

Images are decoded through the standard image registry (PNG, GIF, JPEG and,
via x/image, BMP). Files packed with Pack-Ice are decrunched first. Paletted images keep their own palette. True-colour images
get a palette of their distinct colours in first-seen scan order; once an
image has more than 256 distinct colours it is reduced with a median-cut
quantizer, optionally Floyd-Steinberg dithered.
*/

package main

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

type LoadOptions struct {
	Dither bool
}

func LoadPixelSource(path string, opts LoadOptions) (*PixelSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read image")
	}
	if isICE(data) {
		if data, err = UnpackICE(data); err != nil {
			return nil, errors.Wrapf(err, "unpack %s", path)
		}
	}
	src, err := DecodePixelSource(bytes.NewReader(data), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	src.Name = filepath.Base(path)
	return src, nil
}

func DecodePixelSource(r io.Reader, opts LoadOptions) (*PixelSource, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	src, err := PixelSourceFromImage(img, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "convert %s image", format)
	}
	return src, nil
}

func PixelSourceFromImage(img image.Image, opts LoadOptions) (*PixelSource, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.Wrapf(ErrInvalidBitmap, "image is %dx%d", b.Dx(), b.Dy())
	}

	if pm, ok := img.(*image.Paletted); ok {
		return fromPaletted(pm)
	}
	if src, ok := distinctColors(img); ok {
		return src, nil
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, PaletteSize), img))
	if opts.Dither {
		draw.FloydSteinberg.Draw(pm, b, img, b.Min)
	} else {
		draw.Draw(pm, b, img, b.Min, draw.Src)
	}
	return fromPaletted(pm)
}

func fromPaletted(pm *image.Paletted) (*PixelSource, error) {
	b := pm.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, w*h)
	for y := range h {
		row := pm.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pixels[y*w:(y+1)*w], pm.Pix[row:row+w])
	}

	n := min(len(pm.Palette), PaletteSize)
	colors := make([]RGBA, n)
	for i := range n {
		colors[i] = rgbaFromColor(pm.Palette[i])
	}

	bitmap, err := NewIndexedBitmap(w, h, pixels)
	if err != nil {
		return nil, err
	}
	return &PixelSource{Bitmap: bitmap, Palette: colors}, nil
}

// distinctColors indexes img by its distinct colours in scan order. It gives
// up as soon as a 257th colour appears.
func distinctColors(img image.Image) (*PixelSource, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, 0, w*h)
	seen := make(map[RGBA]uint8, PaletteSize)
	colors := make([]RGBA, 0, PaletteSize)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := rgbaFromColor(img.At(x, y))
			idx, ok := seen[c]
			if !ok {
				if len(colors) == PaletteSize {
					return nil, false
				}
				idx = uint8(len(colors))
				seen[c] = idx
				colors = append(colors, c)
			}
			pixels = append(pixels, idx)
		}
	}
	return &PixelSource{
		Bitmap:  &IndexedBitmap{Width: w, Height: h, Pixels: pixels},
		Palette: colors,
	}, true
}
