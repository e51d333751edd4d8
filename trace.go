package ibgc

// Trace marks root and everything transitively reachable from it, using
// Deutsch-Schorr-Waite pointer reversal: child pointers are temporarily
// overwritten with a reversed parent-link (threaded through the object
// graph itself) and restored on the way back out, so the whole traversal
// uses only two local variables (p, back) regardless of graph depth or
// cycles in the object graph.
//
// root must already be a valid object address that the host has verified
// reachable; Trace is externally serialized with any mutator writes to
// the cells it visits. Trace writes only mark bits to the tag area and
// restores every cell value it temporarily overwrites, so the heap's
// payload is bit-for-bit unchanged on return except for marks.
func (h *Heap) Trace(root Addr) {
	// Only process root if it isn't already marked this cycle: this is
	// the sole point at which the traversal checks isFree on its own
	// current cell. Once inside the loop, whether to descend into a
	// child is decided purely by the child's mark state (the isFree
	// check on h.Cell(p) below), which already guarantees any p we move
	// to is unmarked at the moment we follow it.
	if !h.isFree(root) {
		return
	}
	p := root
	back := AddrNone
	h.mark(p)

	for {
		if tagIsPointer(h.getTag(p)) && h.isFree(Addr(h.Cell(p))) {
			child := Addr(h.Cell(p))
			if !h.hasCont(p) {
				// Tail case: p is the last cell of its object, so there
				// is no pending cell to return to. Just follow the
				// pointer; no stack growth.
				p = child
				h.mark(p)
				continue
			}

			// Push case: save the child address, overwrite this cell
			// with the reversed link to the current back-chain head, and
			// descend.
			h.setCell(p, Cell(back))
			back = p
			p = child
			h.mark(p)
			continue
		}

		// No pointer to follow from the current cell: move on to the next
		// cell of the same object if there is one; otherwise resume the
		// parent object, or finish if there is none.
		if h.hasCont(p) {
			p += CellSize
			continue
		}
		if back == AddrNone {
			return
		}

		// Pop: restore the cell we reversed, advance to the next cell of
		// the object we're returning to, and restore the saved
		// back-chain head. The resumed object is already marked, so we
		// go straight back to examining its next cell.
		tmp := Addr(h.Cell(back))
		h.setCell(back, Cell(p))
		p = back + CellSize
		back = tmp
	}
}

func tagIsPointer(t Tag) bool {
	return t&PtrMask != 0
}
