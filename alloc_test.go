package ibgc

import "testing"

func TestAllocSingleCell(t *testing.T) {
	h := NewDefault()
	before := h.freeLen(h.FreePtr())

	p := h.Alloc(1, 0)
	if p != h.AllocBase() {
		t.Fatalf("Alloc(1) = %#x, want %#x (first-fit from the only span)", p, h.AllocBase())
	}
	if h.hasCont(p) {
		t.Fatalf("a 1-cell object must not carry the continuation bit")
	}

	wantNext := p + CellSize
	if h.FreePtr() != wantNext {
		t.Fatalf("FreePtr after Alloc(1) = %#x, want %#x", h.FreePtr(), wantNext)
	}
	if got := h.freeLen(h.FreePtr()); got != before-1 {
		t.Fatalf("remaining free span length = %d, want %d", got, before-1)
	}
	if !h.isFree(h.FreePtr()) {
		t.Fatalf("residual free span head must read as free")
	}
}

func TestAllocMultiCellSetsContinuation(t *testing.T) {
	h := NewDefault()
	p := h.Alloc(3, InfoMask)

	if !h.hasCont(p) {
		t.Fatalf("first cell of a 3-cell object must carry the continuation bit")
	}
	if !h.hasCont(p + CellSize) {
		t.Fatalf("middle cell of a 3-cell object must carry the continuation bit")
	}
	if h.hasCont(p + 2*CellSize) {
		t.Fatalf("last cell of a 3-cell object must not carry the continuation bit")
	}
	if h.getTag(p)&InfoMask == 0 {
		t.Fatalf("info bit requested at Alloc time was dropped")
	}
}

func TestAllocExactSpanConsumesFreeListNode(t *testing.T) {
	h := New(DefaultBase + CellSize*8)
	total := h.freeLen(h.FreePtr())

	p := h.Alloc(uint16(total), 0)
	if p != h.AllocBase() {
		t.Fatalf("Alloc of the whole span = %#x, want %#x", p, h.AllocBase())
	}
	if h.FreePtr() != AddrNone {
		t.Fatalf("FreePtr after exhausting the only span = %#x, want AddrNone", h.FreePtr())
	}
}

func TestAllocFailsWhenExhausted(t *testing.T) {
	h := New(DefaultBase + CellSize*4)
	total := h.freeLen(h.FreePtr())

	if p := h.Alloc(uint16(total)+1, 0); p != AddrNone {
		t.Fatalf("Alloc larger than the whole heap should fail, got %#x", p)
	}
	if p := h.Alloc(uint16(total), 0); p == AddrNone {
		t.Fatalf("Alloc of the exact remaining size should succeed")
	}
	if p := h.Alloc(1, 0); p != AddrNone {
		t.Fatalf("Alloc after exhaustion should fail, got %#x", p)
	}
}

func TestAllocSuccessiveAllocsKeepFreeListInvariants(t *testing.T) {
	h := New(DefaultBase + CellSize*20)

	// Carve the single span into: [2 cells][rest], by allocating 2 cells
	// first so the free list head shrinks but stays a single node.
	a := h.Alloc(2, 0)
	if a == AddrNone {
		t.Fatalf("setup alloc failed")
	}

	tests := []struct {
		name   string
		ncells uint16
	}{
		{"small", 1},
		{"medium", 4},
		{"large", 13},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			p := h.Alloc(tc.ncells, 0)
			if p == AddrNone {
				t.Fatalf("Alloc(%d) unexpectedly failed", tc.ncells)
			}
			checkFreeListInvariants(t, h)
		})
	}
}

// checkFreeListInvariants walks the free list and fails the test if it is
// not strictly address-ascending, if any two entries are adjacent (which
// Reclaim's coalescing is supposed to prevent from ever happening, and
// Alloc must not introduce either), or if any entry's head cell doesn't
// read as free.
func checkFreeListInvariants(t *testing.T, h *Heap) {
	t.Helper()
	prev := AddrNone
	for p := h.FreePtr(); p != AddrNone; p = h.nextFree(p) {
		if !h.isFree(p) {
			t.Fatalf("free list entry %#x does not read as free", p)
		}
		if prev != AddrNone {
			if p <= prev {
				t.Fatalf("free list out of address order: %#x then %#x", prev, p)
			}
			if prev+h.freeLen(prev)*CellSize == p {
				t.Fatalf("adjacent free spans %#x and %#x were not coalesced", prev, p)
			}
		}
		prev = p
	}
}
