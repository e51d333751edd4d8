package ibgc

import (
	"fmt"

	"github.com/inhies/go-bytesize"
)

// MemStats reports the live/free composition of a heap as of the last
// call to Stats. It does not trigger a collection; call Reclaim first if
// you want counts that reflect the most recent sweep.
type MemStats struct {
	Sys       bytesize.ByteSize // total backing region size
	HeapSys   bytesize.ByteSize // bytes usable for objects (cell region)
	GCSys     bytesize.ByteSize // bytes outside the cell region: tag array plus the reserved prefix below AllocBase
	HeapAlloc bytesize.ByteSize // bytes currently held by objects
	HeapIdle  bytesize.ByteSize // bytes currently free
	Mallocs   uint64            // cumulative successful Alloc() calls on this heap
	Frees     uint64            // cumulative objects reclaimed by Reclaim on this heap
}

// String renders stats with human-readable units, for diagnostic
// printing (an external collaborator per the collector's own scope: Stats
// only computes numbers, it never prints them itself).
func (m MemStats) String() string {
	return fmt.Sprintf("sys=%s heap=%s meta=%s alloc=%s idle=%s mallocs=%d frees=%d",
		m.Sys, m.HeapSys, m.GCSys, m.HeapAlloc, m.HeapIdle, m.Mallocs, m.Frees)
}

// Stats walks the cell region once, object by object, to compute current
// heap composition. Mallocs and Frees are running totals maintained by
// Alloc and Reclaim respectively; they are not reset by Stats.
func (h *Heap) Stats() MemStats {
	var liveCells, freeCells uint64

	// Walk the same way Reclaim does: follow the free list (freeptr/
	// nextFree/freeLen) to skip whole free spans in one hop, since only a
	// free span's head cell carries a meaningful continuation bit - its
	// length cell (and any cell beyond it) is not chained by hasCont.
	// Anything between free spans is live objects, walked via hasCont.
	p := h.allocBase
	nextFree := h.freeptr
	for p < h.allocTop {
		if p == nextFree {
			n := uint64(h.freeLen(p))
			nextFree = h.nextFree(p)
			freeCells += n
			p += Addr(n) * CellSize
			continue
		}

		end := p
		for h.hasCont(end) {
			end += CellSize
		}
		end += CellSize
		liveCells += uint64(end-p) / CellSize
		p = end
	}

	total := len(h.mem)
	return MemStats{
		Sys:       bytesize.New(float64(total)),
		HeapSys:   bytesize.New(float64(h.allocTop - h.allocBase)),
		GCSys:     bytesize.New(float64(total) - float64(h.allocTop-h.allocBase)),
		HeapAlloc: bytesize.New(float64(liveCells * CellSize)),
		HeapIdle:  bytesize.New(float64(freeCells * CellSize)),
		Mallocs:   h.mallocs,
		Frees:     h.frees,
	}
}
