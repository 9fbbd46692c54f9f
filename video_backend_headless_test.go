//go:build headless

package main

import (
	"bytes"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestProbeGPU_HeadlessHasNoAdapter(t *testing.T) {
	if _, err := probeGPU(); !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("probeGPU = %v", err)
	}
}

func TestRunWindowSystem_HeadlessSnapshot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Frames = 5
	cfg.Scale = 3
	cfg.Cycle = true
	cfg.Snapshot = filepath.Join(t.TempDir(), "frame.png")

	bitmap, _ := NewIndexedBitmap(4, 2, []byte{0, 1, 2, 3, 4, 5, 6, 7})
	src := &PixelSource{Name: "strip", Bitmap: bitmap}
	if err := runWindowSystem(cfg, src, newConsoleLog(io.Discard, false)); err != nil {
		t.Fatalf("runWindowSystem: %v", err)
	}

	data, err := os.ReadFile(cfg.Snapshot)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 6 {
		t.Fatalf("snapshot is %dx%d, want 12x6", b.Dx(), b.Dy())
	}
}

func TestFeatures_HeadlessRegistered(t *testing.T) {
	var buf bytes.Buffer
	printFeatures(&buf)
	if !bytes.Contains(buf.Bytes(), []byte("video:headless")) {
		t.Fatalf("features = %q", buf.String())
	}
}
