// Package tagbits holds the bit layout of a cell's tag byte.
// See package ibgc for how tags are stored and consulted.
package tagbits

// Tag is the 4-bit-meaningful metadata byte stored per cell.
type Tag uint8

// The four tag bits: mark, pointer, continuation, info. Only the low
// nibble is used; the rest of the byte is reserved and always zero.
const (
	InfoMask Tag = 1 << iota
	ContMask
	PtrMask
	MarkMask
)

// IsPointer reports whether the cell's value should be interpreted as an
// intra-heap address.
func IsPointer(t Tag) bool {
	return t&PtrMask != 0
}

// HasContinuation reports whether the next cell belongs to the same
// object (or free span) as the one tagged t.
func HasContinuation(t Tag) bool {
	return t&ContMask != 0
}

// MarkMatches reports whether t's mark bit equals the given mark sense.
func MarkMatches(t, markTag Tag) bool {
	return t&MarkMask == markTag&MarkMask
}

// Info extracts the host-defined info bit, which tagbits and ibgc never
// interpret.
func Info(t Tag) Tag {
	return t & InfoMask
}

// WithMark returns t with its mark bit set to match markTag's.
func WithMark(t, markTag Tag) Tag {
	return (t &^ MarkMask) | (markTag & MarkMask)
}
