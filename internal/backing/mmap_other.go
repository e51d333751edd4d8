//go:build !unix

package backing

// New picks the best Region available on this platform. Off unix, that's
// always a plain slice.
func New(size int) Region {
	return NewSlice(size)
}
