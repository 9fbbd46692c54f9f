//go:build !headless

package main

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestTranslateKey_WatchedKeys(t *testing.T) {
	want := map[ebiten.Key]Key{
		ebiten.KeyEscape: KeyEscape,
		ebiten.KeyF:      KeyF,
		ebiten.KeyN:      KeyN,
		ebiten.KeyC:      KeyC,
		ebiten.KeyG:      KeyG,
		ebiten.KeySpace:  KeySpace,
		ebiten.KeyF12:    KeyF12,
	}
	for _, k := range watchedKeys {
		got, ok := translateKey(k)
		if !ok || got != want[k] {
			t.Fatalf("translateKey(%v) = %v, %v", k, got, ok)
		}
	}
	if len(watchedKeys) != len(want) {
		t.Fatalf("%d watched keys, %d bindings", len(watchedKeys), len(want))
	}
	if _, ok := translateKey(ebiten.KeyA); ok {
		t.Fatal("unbound key translated")
	}
}

func TestEbitenSurface_AcquireOutsideDraw(t *testing.T) {
	s := &ebitenSurface{}
	if _, err := s.GetCurrentImage(); !errors.Is(err, ErrSurfaceOutdated) {
		t.Fatalf("unconfigured acquire = %v", err)
	}
	if err := s.Configure(SurfaceConfig{Width: 0, Height: 10}); err == nil {
		t.Fatal("zero-width configuration accepted")
	}
	if err := s.Configure(SurfaceConfig{Width: 10, Height: 10}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	// Outside Draw there is no screen to render into.
	if _, err := s.GetCurrentImage(); !errors.Is(err, ErrSurfaceTimeout) {
		t.Fatalf("acquire outside Draw = %v", err)
	}
	if classifyFrameError(ErrSurfaceTimeout) != frameErrorSkip {
		t.Fatal("acquire outside Draw would not just skip the frame")
	}
}

func TestEbitenSurface_PresentChecksFrame(t *testing.T) {
	s := &ebitenSurface{frame: 3}
	if err := s.Present(SurfaceImage{ID: 3}); err != nil {
		t.Fatalf("Present current frame: %v", err)
	}
	if err := s.Present(SurfaceImage{ID: 2}); !errors.Is(err, ErrSurfaceOutdated) {
		t.Fatalf("Present stale frame = %v", err)
	}
}

func TestEbitenWindowSystem_Layout(t *testing.T) {
	w := &ebitenWindowSystem{width: 640, height: 480}
	if gw, gh := w.Layout(640, 480); gw != 640 || gh != 480 || w.resized {
		t.Fatalf("unchanged layout = %dx%d resized %v", gw, gh, w.resized)
	}
	if gw, gh := w.Layout(800, 600); gw != 800 || gh != 600 || !w.resized {
		t.Fatalf("new layout = %dx%d resized %v", gw, gh, w.resized)
	}
	w.resized = false
	if gw, gh := w.Layout(0, 0); gw != 800 || gh != 600 || w.resized {
		t.Fatalf("minimised layout = %dx%d resized %v", gw, gh, w.resized)
	}
}

func TestShaderSource_PerKind(t *testing.T) {
	if shaderSource(ShaderPaletteLookup) == shaderSource(ShaderIndexGray) {
		t.Fatal("both pipelines share one program")
	}
}
