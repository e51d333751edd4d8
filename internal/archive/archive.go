// Package archive bundles multiple heap snapshots into a single ar(1)
// archive, the same container format TinyGo uses for its compiled object
// bundles, so a sequence of snapshots (one per collection cycle, say) can
// travel as one file.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/blakesmith/ar"
)

// Entry is one named snapshot to be bundled.
type Entry struct {
	Name string
	Data []byte
}

// Bundle writes entries to w as an ar archive, in the order given.
func Bundle(w io.Writer, entries []Entry) error {
	aw := ar.NewWriter(w)
	if err := aw.WriteGlobalHeader(); err != nil {
		return fmt.Errorf("archive: global header: %w", err)
	}
	for _, e := range entries {
		hdr := &ar.Header{
			Name:    e.Name,
			ModTime: time.Unix(0, 0),
			Uid:     0,
			Gid:     0,
			Mode:    0644,
			Size:    int64(len(e.Data)),
		}
		if err := aw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("archive: header for %s: %w", e.Name, err)
		}
		if _, err := aw.Write(e.Data); err != nil {
			return fmt.Errorf("archive: write %s: %w", e.Name, err)
		}
	}
	return nil
}

// Unbundle reads an ar archive and returns its entries in file order.
func Unbundle(r io.Reader) ([]Entry, error) {
	reader := ar.NewReader(r)
	var entries []Entry
	for {
		hdr, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("archive: read header: %w", err)
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, reader); err != nil {
			return nil, fmt.Errorf("archive: read %s: %w", hdr.Name, err)
		}
		entries = append(entries, Entry{Name: hdr.Name, Data: buf.Bytes()})
	}
	return entries, nil
}
