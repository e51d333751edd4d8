// Package ibgc implements a tiny tracing garbage collector for
// memory-constrained hosts: a single contiguous byte region, holding
// fixed-size cells plus a reserved tag area, supporting allocation of
// variable-length objects, Deutsch-Schorr-Waite reachability tracing, and
// coalescing reclamation.
//
// The host owns the object graph: it calls Alloc to get cell addresses,
// writes cell values (setting the pointer bit on cells that hold
// intra-heap addresses), calls Trace on every root, then Reclaim, then
// flips the mark sense for the next cycle. See the package-level
// scenarios in the tests for a worked example of a full cycle.
package ibgc

import (
	"github.com/inhies/go-bytesize"
	"github.com/tinygo-org/ibgc/internal/backing"
	"github.com/tinygo-org/ibgc/internal/tagbits"
)

// Addr is an intra-heap cell address. AddrNone is the "no address"
// sentinel: end of the free list, or an Alloc failure.
type Addr uint16

// AddrNone is ADDR_MASK: the all-ones sentinel denoting "no address".
const AddrNone Addr = 0xFFFF

// Cell is the 32-bit signed value stored at a cell address. When its
// pointer bit is set, the collector interprets the low bits as an Addr.
type Cell int32

// Tag is the 4-bit-meaningful per-cell metadata byte (mark, pointer,
// continuation, info).
type Tag = tagbits.Tag

// Tag bit masks, re-exported from internal/tagbits for host convenience.
const (
	InfoMask = tagbits.InfoMask
	ContMask = tagbits.ContMask
	PtrMask  = tagbits.PtrMask
	MarkMask = tagbits.MarkMask
)

// Default heap geometry, matching spec exactly: a 48KiB region with the
// tag array occupying the top quarter (minus a shrink for the 3/4 split).
const (
	CellSize       = 4
	DefaultMemSize = 0xC000
	DefaultBase    = 0x0400

	// minReservedBytes is the reserved prefix used for any region not
	// exactly DefaultMemSize, scaled down from DefaultBase so small test
	// and library-supplied regions still leave room for real cells.
	minReservedBytes = 16
)

// Heap is the collector's owning value. All operations are methods on it;
// tests and hosts construct one with New or NewDefault.
type Heap struct {
	region backing.Region
	mem    []byte

	allocBase Addr // first byte of the cell region
	tagBase   Addr // start of the tag array
	allocTop  Addr // one past the highest usable cell address (== tagBase)

	freeptr Addr // first free span, or AddrNone if exhausted
	markTag Tag  // current mark sense (0 or MarkMask)

	mallocs uint64 // cumulative successful Alloc calls
	frees   uint64 // cumulative objects returned to the free list by Reclaim
}

// New allocates a heap of the given total size (backing region picked by
// platform, see internal/backing). A heap of exactly DefaultMemSize bytes
// starts its cell region at DefaultBase; any other size reserves only
// minReservedBytes below the cell region. The tag array takes the top
// quarter of the region, one byte per cell. New panics if size leaves
// fewer than 8 cells' worth of bytes above the reserved prefix, since this
// is a configuration error, not a runtime condition.
func New(size int) *Heap {
	return NewWithRegion(backing.New(size))
}

// NewDefault reproduces the exact heap geometry of spec.md's literal
// scenarios: MemBytes=0xC000, AllocBase=0x0400, TagBase=0x9000.
func NewDefault() *Heap {
	return New(DefaultMemSize)
}

// NewWithRegion initializes a heap over a caller-supplied backing region,
// for example a pre-mapped arena. The region's byte slice is used
// directly; the heap geometry is derived from its length.
func NewWithRegion(r backing.Region) *Heap {
	h := &Heap{region: r, mem: r.Bytes()}
	h.init()
	return h
}

// init computes the heap geometry and installs the single free span
// covering the whole cell region, per spec.md S1.
func (h *Heap) init() {
	total := len(h.mem)

	// allocBase is a small prefix reserved for host bookkeeping, never
	// addressed as a cell. The canonical size reproduces spec.md's literal
	// ALLOC_BASE exactly; other sizes (custom regions, tests) get a
	// proportionally small prefix so the cell region is never squeezed out
	// by a reserved range sized for a much bigger heap.
	base := Addr(minReservedBytes)
	if total == DefaultMemSize {
		base = DefaultBase
	}
	if total < int(base)+CellSize*8 {
		panic("ibgc: backing region too small for a usable heap")
	}
	h.allocBase = base

	// TagBase = (size/4)*3: the tag array is a flat quarter of the whole
	// region, addressed as (addr/CellSize)+TagBase for any cell address,
	// including the small reserved range below allocBase. This matches
	// spec.md's TAG_BASE = (MEM_BYTES/4)*3 exactly for the default size.
	h.tagBase = Addr((total / 4) * 3)
	h.allocTop = h.tagBase
	numCells := int(h.tagBase-h.allocBase) / CellSize

	h.markTag = 0
	h.freeptr = h.allocBase

	// Zero the tag array. A zero mark bit equals markTag (0), so this
	// alone does not make any cell read as free; the sole free span's
	// head cell is given the free sense below via unmark.
	for i := int(h.tagBase); i < total; i++ {
		h.mem[i] = 0
	}

	span := h.allocBase
	h.unmark(span)
	h.setFreeSpan(span, AddrNone, Addr(numCells))
}

// Close releases the heap's backing region, if it holds any OS resources.
func (h *Heap) Close() error {
	return h.region.Close()
}

// MarkTag returns the current mark sense.
func (h *Heap) MarkTag() Tag { return h.markTag }

// FlipMarkTag inverts the mark sense. The host must call this exactly
// once per collection cycle, after Reclaim: it turns this cycle's
// "marked live" into next cycle's "unmarked" baseline, with no O(n)
// clearing pass.
func (h *Heap) FlipMarkTag() {
	h.markTag ^= MarkMask
}

// AllocBase returns the first usable cell address.
func (h *Heap) AllocBase() Addr { return h.allocBase }

// AllocTop returns one past the highest cell address usable for objects.
func (h *Heap) AllocTop() Addr { return h.allocTop }

// FreePtr returns the address of the first free span, or AddrNone.
func (h *Heap) FreePtr() Addr { return h.freeptr }

// Size reports the total backing region size in bytes, for diagnostics.
func (h *Heap) Size() bytesize.ByteSize {
	return bytesize.New(float64(len(h.mem)))
}
