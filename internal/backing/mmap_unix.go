//go:build unix

package backing

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap is a Region backed by an anonymous, private mmap mapping. It gives
// the heap its own OS-managed pages instead of sharing the Go runtime's
// allocator, which is closer to how a hosted collector would own memory
// in a real embedded-or-adjacent deployment.
type Mmap struct {
	buf []byte
}

// NewMmap maps size bytes anonymously and returns a Region over them.
func NewMmap(size int) (*Mmap, error) {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("backing: mmap %d bytes: %w", size, err)
	}
	return &Mmap{buf: buf}, nil
}

func (m *Mmap) Bytes() []byte { return m.buf }

func (m *Mmap) Close() error {
	if m.buf == nil {
		return nil
	}
	err := unix.Munmap(m.buf)
	m.buf = nil
	if err != nil {
		return fmt.Errorf("backing: munmap: %w", err)
	}
	return nil
}

// New picks the best Region available on this platform: an mmap mapping
// on unix, falling back to a plain slice anywhere the mapping fails.
func New(size int) Region {
	if r, err := NewMmap(size); err == nil {
		return r
	}
	return NewSlice(size)
}
