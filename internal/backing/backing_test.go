package backing

import "testing"

func TestSliceBytesLength(t *testing.T) {
	s := NewSlice(256)
	if len(s.Bytes()) != 256 {
		t.Fatalf("Bytes() length = %d, want 256", len(s.Bytes()))
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSliceBytesIsWritable(t *testing.T) {
	s := NewSlice(16)
	b := s.Bytes()
	b[0] = 0xAB
	if s.Bytes()[0] != 0xAB {
		t.Fatalf("writes through Bytes() did not persist")
	}
}

func TestNewPicksAWorkingRegion(t *testing.T) {
	r := New(4096)
	defer r.Close()
	if len(r.Bytes()) != 4096 {
		t.Fatalf("Bytes() length = %d, want 4096", len(r.Bytes()))
	}
}
