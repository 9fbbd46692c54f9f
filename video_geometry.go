// video_geometry.go - Integer-zoom quad geometry

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
video_geometry.go - Geometry / Scaling

The bitmap is shown at the largest whole-number zoom that fits the window,
centred, aspect preserved:

  zoom = floor(min(window_w / bitmap_w, window_h / bitmap_h))
  hx   = bitmap_w * zoom / window_w
  hy   = bitmap_h * zoom / window_h

The quad spans [-hx,hx] x [-hy,hy] in normalized device coordinates. Texture
V runs opposite to Y so bitmap row 0 is the visual top. Anything outside the
quad keeps the render pass clear colour (letterbox bars).

A window smaller than the bitmap gives zoom 0 and a point-sized quad unless
clampZoom is set, in which case zoom is held at 1 and the bitmap is cropped.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"math"
)

type Vertex struct {
	Position  [2]float32
	TexCoords [2]float32
}

const (
	vertexBytes = 4 * 4
	quadIndices = 6
)

// QuadIndices describes the two triangles of the quad.
var QuadIndices = [quadIndices]uint16{0, 1, 2, 2, 3, 0}

type Quad struct {
	Vertices     [4]Vertex
	Zoom         int
	ScaledWidth  int
	ScaledHeight int
}

// ZoomFactor returns the whole-number scale that fits a bitmap into a window.
func ZoomFactor(bitmapW, bitmapH, windowW, windowH int) int {
	if bitmapW <= 0 || bitmapH <= 0 || windowW <= 0 || windowH <= 0 {
		return 0
	}
	widthRatio := float32(windowW) / float32(bitmapW)
	heightRatio := float32(windowH) / float32(bitmapH)
	return int(math.Floor(float64(min(widthRatio, heightRatio))))
}

func ComputeQuad(bitmapW, bitmapH, windowW, windowH int, clampZoom bool) Quad {
	zoom := ZoomFactor(bitmapW, bitmapH, windowW, windowH)
	if clampZoom && zoom < 1 {
		zoom = 1
	}
	q := Quad{
		Zoom:         zoom,
		ScaledWidth:  bitmapW * zoom,
		ScaledHeight: bitmapH * zoom,
	}

	var hx, hy float32
	if windowW > 0 && windowH > 0 {
		hx = float32(q.ScaledWidth) / float32(windowW)
		hy = float32(q.ScaledHeight) / float32(windowH)
	}
	q.Vertices = [4]Vertex{
		{Position: [2]float32{-hx, -hy}, TexCoords: [2]float32{0, 1}},
		{Position: [2]float32{hx, -hy}, TexCoords: [2]float32{1, 1}},
		{Position: [2]float32{hx, hy}, TexCoords: [2]float32{1, 0}},
		{Position: [2]float32{-hx, hy}, TexCoords: [2]float32{0, 0}},
	}
	return q
}

func (q Quad) HalfExtents() (float32, float32) {
	return q.Vertices[2].Position[0], q.Vertices[2].Position[1]
}

// Bytes packs the vertices as little-endian float32 {x, y, u, v}.
func (q Quad) Bytes() []byte {
	out := make([]byte, 0, len(q.Vertices)*vertexBytes)
	for _, v := range q.Vertices {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v.Position[0]))
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v.Position[1]))
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v.TexCoords[0]))
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v.TexCoords[1]))
	}
	return out
}

func decodeVertices(b []byte) ([]Vertex, error) {
	if len(b)%vertexBytes != 0 {
		return nil, fmt.Errorf("vertex buffer of %d bytes is not a multiple of %d", len(b), vertexBytes)
	}
	out := make([]Vertex, len(b)/vertexBytes)
	for i := range out {
		f := func(n int) float32 {
			return math.Float32frombits(binary.LittleEndian.Uint32(b[i*vertexBytes+n*4:]))
		}
		out[i] = Vertex{
			Position:  [2]float32{f(0), f(1)},
			TexCoords: [2]float32{f(2), f(3)},
		}
	}
	return out, nil
}

func indexBytes(indices []uint16) []byte {
	out := make([]byte, 0, len(indices)*2)
	for _, i := range indices {
		out = binary.LittleEndian.AppendUint16(out, i)
	}
	return out
}

func decodeIndices(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return out
}
