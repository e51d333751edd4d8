package ibgc

// Reclaim makes a single linear sweep from AllocBase to AllocTop,
// returning every unmarked (garbage) object to the free list and
// coalescing adjacent free regions in three directions: runs of adjacent
// garbage objects, a garbage run ending exactly at the next pre-existing
// free span, and a new free span starting exactly where the previous one
// (whether already on the free list or rebuilt earlier in this same
// sweep) ends. The result is a free list
// with no two physically-adjacent entries, as required by the heap's
// invariants.
//
// Reclaim does not flip the mark sense: the host does that once, after
// Reclaim returns, so that next cycle's "unmarked" baseline is reached in
// O(1) instead of by clearing every mark bit.
func (h *Heap) Reclaim() {
	p := h.allocBase
	nextFree := h.freeptr
	prevFree := AddrNone

	for p < h.allocTop {
		if p == nextFree {
			// This span is already on the free list; skip over it. Its
			// head may carry the mark sense from before the last flip, so
			// reset it to the current free sense.
			h.unmark(p)
			prevFree = nextFree
			span := h.freeLen(nextFree) * CellSize
			nextFree = h.nextFree(nextFree)
			p += span
			continue
		}

		// Find where the object (or run of unreachable objects) at p
		// ends. Coalesce forward across adjacent unreachable objects so
		// the reclaimed span doesn't need intermediate free-list nodes.
		end := p
		for {
			for h.hasCont(end) {
				end += CellSize
			}
			end += CellSize
			if h.isFree(p) {
				h.frees++
			}
			if end == nextFree || !h.isFree(p) || !h.boundedIsFree(end) {
				break
			}
		}

		if h.isFree(p) {
			if nextFree == h.freeptr {
				h.freeptr = p
			}

			if end == nextFree {
				// p's garbage run ends exactly at an existing free span:
				// fuse the two into one.
				length := (end-p)/CellSize + h.freeLen(nextFree)
				h.setFreeSpan(p, h.nextFree(nextFree), length)
				nextFree = Addr(h.Cell(p))
				end = p + length*CellSize
			} else {
				h.setFreeSpan(p, nextFree, (end-p)/CellSize)
			}

			if prevFree != AddrNone {
				if p == prevFree+h.freeLen(prevFree)*CellSize {
					// p starts exactly where the previous free span on
					// this sweep ends: fuse them too.
					length := h.freeLen(prevFree) + h.freeLen(p)
					h.setFreeSpan(prevFree, h.nextFree(p), length)
					p = prevFree
				} else {
					h.setCell(prevFree, Cell(p))
				}
			}
			prevFree = p
		}
		p = end
	}
}

// boundedIsFree is isFree, bounded at allocTop: the tag area past the end
// of the cell region holds no meaningful mark bit, so the forward
// coalescing scan must stop there explicitly rather than rely on
// whatever happens to be stored past the end of the cell region.
func (h *Heap) boundedIsFree(p Addr) bool {
	if p >= h.allocTop {
		return false
	}
	return h.isFree(p)
}
