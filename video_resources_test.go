package main

import "testing"

func TestBufferArena_StaleHandleRejected(t *testing.T) {
	var a bufferArena
	h := a.insert(7)
	if id, ok := a.get(h); !ok || id != 7 {
		t.Fatalf("get = %d, %v", id, ok)
	}
	if id, ok := a.remove(h); !ok || id != 7 {
		t.Fatalf("remove = %d, %v", id, ok)
	}
	if _, ok := a.get(h); ok {
		t.Fatal("removed handle still resolves")
	}

	h2 := a.insert(9)
	if h2.index != h.index {
		t.Fatalf("slot not reused: %d vs %d", h2.index, h.index)
	}
	if _, ok := a.get(h); ok {
		t.Fatal("stale handle resolves to the new occupant")
	}
	if id, _ := a.get(h2); id != 9 {
		t.Fatalf("new handle resolves to %d", id)
	}
	if a.live() != 1 {
		t.Fatalf("live = %d, want 1", a.live())
	}
}

func TestBufferArena_ZeroHandleInvalid(t *testing.T) {
	var a bufferArena
	if _, ok := a.get(BufferHandle{}); ok {
		t.Fatal("zero handle resolves in an empty arena")
	}
	a.insert(1)
	if _, ok := a.get(BufferHandle{}); ok {
		t.Fatal("zero handle resolves once slot 0 is occupied")
	}
	if _, ok := a.remove(BufferHandle{}); ok {
		t.Fatal("zero handle removed a buffer")
	}
}
