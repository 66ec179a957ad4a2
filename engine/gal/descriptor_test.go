package gal

import "testing"

func TestReservedBindlessIDs(t *testing.T) {
	h := NewDescriptorHeap(NumBackbuffers, 16)
	if got := h.ReserveID(); got != firstFreeID {
		t.Fatalf("first reserved ID = %d, want %d (0 and 1 reserved)", got, firstFreeID)
	}
}

func TestBindlessStability(t *testing.T) {
	h := NewDescriptorHeap(NumBackbuffers, 16)
	a := h.ReserveID()
	b := h.ReserveID()
	if a == b {
		t.Fatalf("expected distinct IDs, got %d twice", a)
	}
	h.Release(a)
	c := h.ReserveID()
	// Re-creating with the same logical descriptor yields a new slot, not
	// guaranteed equal (spec.md §8 "Bindless stability"); it's also not
	// guaranteed distinct from a freed slot being recycled, so we only
	// assert the heap keeps allocating without error.
	if c == 0 {
		t.Fatalf("expected nonzero reserved ID")
	}
}

func TestTransientAllocationExceedsCapacityPanics(t *testing.T) {
	h := NewDescriptorHeap(NumBackbuffers, 4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on transient heap exhaustion")
		}
	}()
	h.AllocTransient(5)
}

func TestTransientRotatesPerFrame(t *testing.T) {
	h := NewDescriptorHeap(NumBackbuffers, 4)
	h.AllocTransient(4)
	if h.regions[h.FrameIndex()].cursor != 4 {
		t.Fatalf("expected cursor at capacity after full allocation")
	}
	h.NextFrame()
	if h.regions[h.FrameIndex()].cursor != 0 {
		t.Fatalf("expected cursor reset to 0 after NextFrame, got %d", h.regions[h.FrameIndex()].cursor)
	}
	// Allocating into the new frame's region should succeed even though the
	// previous frame's region was fully allocated.
	h.AllocTransient(4)
}
