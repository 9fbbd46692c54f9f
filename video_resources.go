package main

// BufferHandle names a slot in a bufferArena. A handle goes stale as soon as
// its slot is released; a later buffer in the same slot gets a new generation.
// The zero handle is never valid.
type BufferHandle struct {
	index      uint32
	generation uint32
}

type arenaSlot struct {
	id         BufferID
	generation uint32
	live       bool
}

type bufferArena struct {
	slots []arenaSlot
	free  []uint32
}

func (a *bufferArena) insert(id BufferID) BufferHandle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		slot := &a.slots[idx]
		slot.id = id
		slot.live = true
		return BufferHandle{index: idx, generation: slot.generation}
	}
	a.slots = append(a.slots, arenaSlot{id: id, generation: 1, live: true})
	return BufferHandle{index: uint32(len(a.slots) - 1), generation: 1}
}

func (a *bufferArena) get(h BufferHandle) (BufferID, bool) {
	if int(h.index) >= len(a.slots) {
		return 0, false
	}
	slot := a.slots[h.index]
	if !slot.live || slot.generation != h.generation {
		return 0, false
	}
	return slot.id, true
}

// remove invalidates h and returns the buffer it referred to.
func (a *bufferArena) remove(h BufferHandle) (BufferID, bool) {
	id, ok := a.get(h)
	if !ok {
		return 0, false
	}
	slot := &a.slots[h.index]
	slot.live = false
	slot.generation++
	a.free = append(a.free, h.index)
	return id, true
}

func (a *bufferArena) live() int {
	n := 0
	for _, s := range a.slots {
		if s.live {
			n++
		}
	}
	return n
}
