package tagbits

import "testing"

func TestMarkMatches(t *testing.T) {
	tests := []struct {
		name    string
		tag     Tag
		markTag Tag
		want    bool
	}{
		{"both zero", 0, 0, true},
		{"tag marked, sense zero", MarkMask, 0, false},
		{"tag marked, sense marked", MarkMask, MarkMask, true},
		{"unrelated bits set, sense matches", PtrMask | ContMask, 0, true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := MarkMatches(tc.tag, tc.markTag); got != tc.want {
				t.Fatalf("MarkMatches(%#x, %#x) = %v, want %v", tc.tag, tc.markTag, got, tc.want)
			}
		})
	}
}

func TestWithMarkPreservesOtherBits(t *testing.T) {
	tag := PtrMask | ContMask | InfoMask
	got := WithMark(tag, MarkMask)
	if got&MarkMask == 0 {
		t.Fatalf("WithMark did not set the mark bit")
	}
	if got&^MarkMask != tag&^MarkMask {
		t.Fatalf("WithMark changed non-mark bits: got %#x, want others preserved from %#x", got, tag)
	}
}

func TestIsPointerAndHasContinuation(t *testing.T) {
	tag := PtrMask | InfoMask
	if !IsPointer(tag) {
		t.Fatalf("IsPointer should be true when PtrMask is set")
	}
	if HasContinuation(tag) {
		t.Fatalf("HasContinuation should be false when ContMask is clear")
	}
}

func TestInfoMasksOffOtherBits(t *testing.T) {
	tag := InfoMask | PtrMask | ContMask | MarkMask
	if got := Info(tag); got != InfoMask {
		t.Fatalf("Info(%#x) = %#x, want %#x", tag, got, InfoMask)
	}
}
