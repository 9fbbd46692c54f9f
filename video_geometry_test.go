package main

import (
	"testing"
)

func TestZoomFactor(t *testing.T) {
	tests := []struct {
		name           string
		bw, bh, ww, wh int
		want           int
	}{
		{"exact double", 320, 240, 640, 480, 2},
		{"wide window", 320, 240, 800, 480, 2},
		{"tall window", 320, 240, 640, 1000, 2},
		{"just under triple", 320, 240, 959, 720, 2},
		{"triple", 320, 240, 960, 720, 3},
		{"same size", 320, 240, 320, 240, 1},
		{"smaller window", 320, 240, 200, 100, 0},
		{"zero window", 320, 240, 0, 480, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ZoomFactor(tc.bw, tc.bh, tc.ww, tc.wh); got != tc.want {
				t.Fatalf("ZoomFactor = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestComputeQuad_FillsMatchingWindow(t *testing.T) {
	q := ComputeQuad(320, 240, 640, 480, false)
	if q.Zoom != 2 || q.ScaledWidth != 640 || q.ScaledHeight != 480 {
		t.Fatalf("quad = %+v", q)
	}
	hx, hy := q.HalfExtents()
	if hx != 1 || hy != 1 {
		t.Fatalf("half extents = (%v, %v), want (1, 1)", hx, hy)
	}
}

func TestComputeQuad_LetterboxesWideWindow(t *testing.T) {
	q := ComputeQuad(320, 240, 800, 480, false)
	hx, hy := q.HalfExtents()
	if hx != float32(640)/float32(800) || hy != 1 {
		t.Fatalf("half extents = (%v, %v), want (0.8, 1)", hx, hy)
	}
}

func TestComputeQuad_VertexOrderAndFlippedV(t *testing.T) {
	q := ComputeQuad(10, 10, 20, 40, false)
	hx, hy := q.HalfExtents()
	want := [4]Vertex{
		{Position: [2]float32{-hx, -hy}, TexCoords: [2]float32{0, 1}},
		{Position: [2]float32{hx, -hy}, TexCoords: [2]float32{1, 1}},
		{Position: [2]float32{hx, hy}, TexCoords: [2]float32{1, 0}},
		{Position: [2]float32{-hx, hy}, TexCoords: [2]float32{0, 0}},
	}
	if q.Vertices != want {
		t.Fatalf("vertices = %+v\nwant %+v", q.Vertices, want)
	}
	if QuadIndices != [6]uint16{0, 1, 2, 2, 3, 0} {
		t.Fatalf("indices = %v", QuadIndices)
	}
}

func TestComputeQuad_SmallWindowCollapses(t *testing.T) {
	q := ComputeQuad(320, 240, 200, 100, false)
	if q.Zoom != 0 {
		t.Fatalf("zoom = %d, want 0", q.Zoom)
	}
	if hx, hy := q.HalfExtents(); hx != 0 || hy != 0 {
		t.Fatalf("half extents = (%v, %v), want zero", hx, hy)
	}
}

func TestComputeQuad_ClampZoomCrops(t *testing.T) {
	q := ComputeQuad(320, 240, 200, 100, true)
	if q.Zoom != 1 {
		t.Fatalf("zoom = %d, want 1", q.Zoom)
	}
	hx, hy := q.HalfExtents()
	if hx != 1.6 || hy != 2.4 {
		t.Fatalf("half extents = (%v, %v), want (1.6, 2.4)", hx, hy)
	}
}

func TestComputeQuad_Idempotent(t *testing.T) {
	a := ComputeQuad(256, 192, 1111, 777, false)
	b := ComputeQuad(256, 192, 1111, 777, false)
	if a != b {
		t.Fatal("same inputs produced different quads")
	}
}

// Across a sweep of window sizes the quad stays centred, inside clip space
// and never exceeds the window along either axis.
func TestComputeQuad_CentredAndInsideClipSpace(t *testing.T) {
	const bw, bh = 160, 144
	for ww := bw; ww <= 1400; ww += 37 {
		for wh := bh; wh <= 1100; wh += 41 {
			q := ComputeQuad(bw, bh, ww, wh, false)
			if q.Zoom < 1 {
				t.Fatalf("%dx%d: zoom %d", ww, wh, q.Zoom)
			}
			if q.ScaledWidth > ww || q.ScaledHeight > wh {
				t.Fatalf("%dx%d: scaled %dx%d overflows", ww, wh, q.ScaledWidth, q.ScaledHeight)
			}
			if q.ScaledWidth+bw <= ww && q.ScaledHeight+bh <= wh {
				t.Fatalf("%dx%d: zoom %d is not the largest that fits", ww, wh, q.Zoom)
			}
			for i := range 2 {
				v, opp := q.Vertices[i], q.Vertices[i+2]
				if v.Position[0] != -opp.Position[0] || v.Position[1] != -opp.Position[1] {
					t.Fatalf("%dx%d: quad not centred: %+v vs %+v", ww, wh, v, opp)
				}
			}
			hx, hy := q.HalfExtents()
			if hx <= 0 || hx > 1 || hy <= 0 || hy > 1 {
				t.Fatalf("%dx%d: half extents (%v, %v) outside (0,1]", ww, wh, hx, hy)
			}
		}
	}
}

func TestQuad_BytesDecodeBack(t *testing.T) {
	q := ComputeQuad(320, 240, 800, 480, false)
	b := q.Bytes()
	if len(b) != 4*vertexBytes {
		t.Fatalf("vertex payload is %d bytes", len(b))
	}
	got, err := decodeVertices(b)
	if err != nil {
		t.Fatalf("decodeVertices: %v", err)
	}
	for i := range got {
		if got[i] != q.Vertices[i] {
			t.Fatalf("vertex %d = %+v, want %+v", i, got[i], q.Vertices[i])
		}
	}
	if _, err := decodeVertices(b[:10]); err == nil {
		t.Fatal("truncated vertex buffer accepted")
	}
}
