package ibgc

import "github.com/tinygo-org/ibgc/internal/tagbits"

// tagAddr returns the byte index of p's tag within h.mem.
func (h *Heap) tagAddr(p Addr) int {
	return int(p)/CellSize + int(h.tagBase)
}

// getTag reads the tag byte for cell p.
func (h *Heap) getTag(p Addr) Tag {
	return Tag(h.mem[h.tagAddr(p)])
}

// setTag writes the tag byte for cell p.
func (h *Heap) setTag(p Addr, t Tag) {
	h.mem[h.tagAddr(p)] = byte(t)
}

// mark sets p's mark bit to the current mark sense.
func (h *Heap) mark(p Addr) {
	h.setTag(p, tagbits.WithMark(h.getTag(p), h.markTag))
}

// unmark sets p's mark bit to the complement of the current mark sense,
// i.e. the "free" sense.
func (h *Heap) unmark(p Addr) {
	h.setTag(p, tagbits.WithMark(h.getTag(p), h.markTag^MarkMask))
}

// isFree reports whether p's mark bit differs from the current mark
// sense: true for free cells and for live objects not yet traced this
// cycle.
func (h *Heap) isFree(p Addr) bool {
	return !tagbits.MarkMatches(h.getTag(p), h.markTag)
}

// hasCont reports whether the next cell belongs to the same object (or
// free span) as p.
func (h *Heap) hasCont(p Addr) bool {
	return tagbits.HasContinuation(h.getTag(p))
}

// GetTag returns the tag byte for cell p.
func (h *Heap) GetTag(p Addr) Tag {
	return h.getTag(p)
}

// Cell reads the 4-byte signed value at cell address p.
func (h *Heap) Cell(p Addr) Cell {
	b := h.mem[p : p+CellSize]
	return Cell(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

// setCell writes a 4-byte signed value at cell address p.
func (h *Heap) setCell(p Addr, v Cell) {
	b := h.mem[p : p+CellSize]
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

// SetCell writes a 4-byte signed value at cell address p. The host uses
// this to populate object payloads, including embedded addresses (after
// calling SetPointerBit on the same cell).
func (h *Heap) SetCell(p Addr, v Cell) {
	h.setCell(p, v)
}

// SetPointerBit marks cell p's value as an intra-heap address, to be
// followed during Trace.
func (h *Heap) SetPointerBit(p Addr) {
	h.setTag(p, h.getTag(p)|PtrMask)
}

// ClearPointerBit marks cell p's value as plain data, not an address. The
// host must call this before overwriting a pointer-tagged cell with
// non-address data.
func (h *Heap) ClearPointerBit(p Addr) {
	h.setTag(p, h.getTag(p)&^PtrMask)
}
