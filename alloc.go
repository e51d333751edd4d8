package ibgc

// Alloc finds ncells contiguous free cells and returns the address of the
// first one, tagged with the info bit from tag (all other bits in tag are
// ignored: the pointer and continuation bits are set up by Alloc itself,
// and the mark bit is set to the current "free" sense - the allocation
// only survives a Reclaim if it is reached by a Trace first).
//
// On failure (no span of at least ncells free cells exists), Alloc
// returns AddrNone and leaves all heap state unchanged.
func (h *Heap) Alloc(ncells uint16, tag Tag) Addr {
	var prev Addr = AddrNone
	var length Addr

	// First-fit: walk the free list until a large-enough span is found.
	// The loop ends either at the explicit break below, when a span is
	// large enough, or when its predicate (p != AddrNone) sees the end of
	// the list, which the p == AddrNone check after the loop detects.
	p := h.freeptr
	for p != AddrNone {
		length = h.freeLen(p)
		if length >= Addr(ncells) {
			break
		}
		prev = p
		p = h.nextFree(p)
	}
	if p == AddrNone {
		return AddrNone
	}

	// Remove ncells cells from the head of the span, splicing any
	// remainder back in as a new, smaller free span.
	var next Addr
	if length == Addr(ncells) {
		next = h.nextFree(p)
	} else {
		next = p + Addr(ncells)*CellSize
		residual := length - Addr(ncells)
		h.setFreeSpan(next, h.nextFree(p), residual)
		// next is a brand new free-span head carved out of what was
		// previously a tail cell; its mark bit has no prior meaning, so
		// it must be set to the free sense explicitly (invariant: every
		// free span's first cell has mark bit != mark_tag, checked after
		// every public operation, not just after Reclaim).
		h.unmark(next)
	}
	if prev == AddrNone {
		h.freeptr = next
	} else {
		h.setCell(prev, Cell(next))
	}

	// Tag the allocated cells: first cell carries the info bit and the
	// "not yet traced" mark sense; continuation is set on every cell but
	// the last.
	h.setTag(p, (tag&InfoMask)|(h.markTag^MarkMask))
	if ncells > 1 {
		h.setTag(p, h.getTag(p)|ContMask)
	}
	for i := Addr(1); i < Addr(ncells); i++ {
		cont := ContMask
		if i == Addr(ncells)-1 {
			cont = 0
		}
		h.setTag(p+i*CellSize, cont)
	}

	h.mallocs++
	return p
}
