package iterator

import (
	"testing"

	"github.com/vis-editor/core/history"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/slab"
)

func newTable(t *testing.T, content string) *piece.Table {
	t.Helper()
	tb := piece.New(slab.NewBuffer(), history.New())
	if err := tb.Insert(0, []byte(content)); err != nil {
		t.Fatal(err)
	}
	return tb
}

func TestByteNextPrevPinAtBoundaries(t *testing.T) {
	tb := newTable(t, "abc")
	it := New(tb, 0)
	if it.BytePrev() {
		t.Fatal("BytePrev() at 0 should return false")
	}
	if it.Pos() != 0 {
		t.Fatalf("Pos() = %d, want 0", it.Pos())
	}

	it = New(tb, tb.Size())
	if it.ByteNext() {
		t.Fatal("ByteNext() at size should return false")
	}
	if it.Pos() != tb.Size() {
		t.Fatalf("Pos() = %d, want %d", it.Pos(), tb.Size())
	}
}

func TestByteNextWalksForward(t *testing.T) {
	tb := newTable(t, "abc")
	it := New(tb, 0)
	var got []byte
	for {
		b, ok := it.Byte()
		if !ok {
			break
		}
		got = append(got, b)
		if !it.ByteNext() {
			break
		}
	}
	if string(got) != "abc" {
		t.Fatalf("walk = %q, want abc", got)
	}
}

func TestCodepointNextSkipsContinuationBytes(t *testing.T) {
	// "é" (U+00E9) is 2 bytes in UTF-8; "a" and "b" are ASCII.
	tb := newTable(t, "aéb")
	it := New(tb, 0)
	if !it.CodepointNext() {
		t.Fatal("CodepointNext() from 'a' failed")
	}
	if it.Pos() != 1 {
		t.Fatalf("Pos() after first CodepointNext = %d, want 1", it.Pos())
	}
	if !it.CodepointNext() {
		t.Fatal("CodepointNext() over 'é' failed")
	}
	if it.Pos() != 3 {
		t.Fatalf("Pos() after skipping 'é' = %d, want 3 (2-byte codepoint)", it.Pos())
	}
}

func TestCodepointPrevSymmetric(t *testing.T) {
	tb := newTable(t, "aéb")
	it := New(tb, tb.Size())
	if !it.CodepointPrev() {
		t.Fatal("CodepointPrev() from end failed")
	}
	if it.Pos() != 3 {
		t.Fatalf("Pos() = %d, want 3 ('b' is 1 byte back from end=4)", it.Pos())
	}
	if !it.CodepointPrev() {
		t.Fatal("CodepointPrev() over 'é' failed")
	}
	if it.Pos() != 1 {
		t.Fatalf("Pos() = %d, want 1", it.Pos())
	}
}

func TestCharNextSkipsCombiningMarks(t *testing.T) {
	// "e" + combining acute accent (U+0301, zero-width) + "x".
	tb := newTable(t, "éx")
	it := New(tb, 0)
	if !it.CharNext() {
		t.Fatal("CharNext() failed")
	}
	if got, ok := it.Byte(); !ok || got != 'x' {
		t.Fatalf("after CharNext, byte = %q, %v; want 'x', true", got, ok)
	}
}

func TestByteFindNextAndPrev(t *testing.T) {
	tb := newTable(t, "hello\nworld\n")
	it := New(tb, 0)
	pos, ok := it.ByteFindNext('\n')
	if !ok || pos != 5 {
		t.Fatalf("ByteFindNext('\\n') = %d, %v; want 5, true", pos, ok)
	}

	it = New(tb, tb.Size()-1)
	pos, ok = it.ByteFindPrev('\n')
	if !ok || pos != 11 {
		t.Fatalf("ByteFindPrev('\\n') = %d, %v; want 11, true", pos, ok)
	}

	it = New(tb, 0)
	if _, ok := it.ByteFindNext('Z'); ok {
		t.Fatal("ByteFindNext for absent byte should fail")
	}
}
