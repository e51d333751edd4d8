// Package snapshot persists a heap's raw byte region to and from Intel HEX
// files, so a heap state can be captured for later inspection (by
// cmd/ibgcdump) without depending on any particular backing.Region
// implementation.
package snapshot

import (
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
	"github.com/marcinbor85/gohex"
)

// rowLength is the number of data bytes per Intel HEX record. 32 keeps
// files readable without producing an unreasonable number of lines for a
// typical heap size.
const rowLength = 32

// Save writes mem as an Intel HEX file at path, guarded by an exclusive
// file lock so a concurrent ibgcdump instance can't read a half-written
// snapshot.
func Save(path string, mem []byte) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("snapshot: lock %s: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", path, err)
	}
	defer f.Close()

	mf := gohex.NewMemory()
	mf.AddBinary(0, mem)
	if err := mf.DumpIntelHex(f, rowLength); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// Load reads an Intel HEX file previously written by Save and returns its
// contents as a flat byte slice of exactly size bytes, suitable for
// wrapping in a backing.Region for re-inspection.
func Load(path string, size int) ([]byte, error) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("snapshot: lock %s: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	mf := gohex.NewMemory()
	if err := mf.ParseIntelHex(f); err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", path, err)
	}
	return mf.ToBinary(0, uint32(size), 0xFF), nil
}

// LoadReader is Load without the file-locking step, for callers that
// already have an open, exclusively-held reader (e.g. one file extracted
// from an archive.Bundle).
func LoadReader(r io.Reader, size int) ([]byte, error) {
	mf := gohex.NewMemory()
	if err := mf.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("snapshot: parse: %w", err)
	}
	return mf.ToBinary(0, uint32(size), 0xFF), nil
}
