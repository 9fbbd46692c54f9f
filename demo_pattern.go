package main

import (
	"image/color"

	"github.com/fogleman/gg"
)

const (
	demoWidth  = 320
	demoHeight = 240
)

var demoBars = []color.RGBA{
	{255, 255, 255, 255},
	{255, 255, 0, 255},
	{0, 255, 255, 255},
	{0, 255, 0, 255},
	{255, 0, 255, 255},
	{255, 0, 0, 255},
	{0, 0, 255, 255},
	{0, 0, 0, 255},
}

// DemoPixelSource draws a test card (colour bars, a grey ramp, a 16px grid
// and a centred circle) and indexes it. The antialiased edges usually push
// it past 256 colours, so it also exercises the quantizer.
func DemoPixelSource(width, height int, opts LoadOptions) (*PixelSource, error) {
	dc := gg.NewContext(width, height)
	dc.SetRGB255(16, 16, 24)
	dc.Clear()

	w, h := float64(width), float64(height)
	barW := w / float64(len(demoBars))
	for i, c := range demoBars {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*barW, 0, barW, h*0.6)
		dc.Fill()
	}

	steps := 32
	stepW := w / float64(steps)
	for i := range steps {
		v := i * 255 / (steps - 1)
		dc.SetRGB255(v, v, v)
		dc.DrawRectangle(float64(i)*stepW, h*0.6, stepW, h*0.15)
		dc.Fill()
	}

	dc.SetRGBA255(255, 255, 255, 64)
	dc.SetLineWidth(1)
	for x := 0.5; x < w; x += 16 {
		dc.DrawLine(x, 0, x, h)
	}
	for y := 0.5; y < h; y += 16 {
		dc.DrawLine(0, y, w, y)
	}
	dc.Stroke()

	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(3)
	dc.DrawCircle(w/2, h/2, min(w, h)*0.35)
	dc.Stroke()

	dc.SetRGB255(255, 200, 0)
	dc.DrawStringAnchored("PALETTEVIEW", w/2, h*0.87, 0.5, 0.5)

	src, err := PixelSourceFromImage(dc.Image(), opts)
	if err != nil {
		return nil, err
	}
	src.Name = "demo"
	return src, nil
}
