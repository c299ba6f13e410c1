package piece

import (
	"testing"

	"github.com/vis-editor/core/history"
	"github.com/vis-editor/core/slab"
)

func newTable() (*Table, *history.History) {
	h := history.New()
	buf := slab.NewBuffer()
	return New(buf, h), h
}

func TestInsertAppendsAndReadsBack(t *testing.T) {
	tb, _ := newTable()
	if err := tb.Insert(0, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := tb.Insert(5, []byte(" world")); err != nil {
		t.Fatal(err)
	}
	if got := string(tb.Bytes()); got != "hello world" {
		t.Fatalf("Bytes() = %q", got)
	}
	if tb.Size() != 11 {
		t.Fatalf("Size() = %d, want 11", tb.Size())
	}
}

func TestInsertMiddleSplitsPiece(t *testing.T) {
	tb, _ := newTable()
	tb.Insert(0, []byte("ac"))
	if err := tb.Insert(1, []byte("b")); err != nil {
		t.Fatal(err)
	}
	if got := string(tb.Bytes()); got != "abc" {
		t.Fatalf("Bytes() = %q, want abc", got)
	}
}

func TestDeleteRange(t *testing.T) {
	tb, _ := newTable()
	tb.Insert(0, []byte("hello world"))
	if err := tb.Delete(5, 6); err != nil {
		t.Fatal(err)
	}
	if got := string(tb.Bytes()); got != "hello" {
		t.Fatalf("Bytes() = %q, want hello", got)
	}
}

func TestDeletePastEndFails(t *testing.T) {
	tb, _ := newTable()
	tb.Insert(0, []byte("abc"))
	if err := tb.Delete(1, 10); err == nil {
		t.Fatal("expected error deleting past end")
	}
	if got := string(tb.Bytes()); got != "abc" {
		t.Fatalf("document mutated on failed delete: %q", got)
	}
}

func TestZeroLengthOpsAreNoops(t *testing.T) {
	tb, _ := newTable()
	tb.Insert(0, []byte("abc"))
	if err := tb.Insert(1, nil); err != nil {
		t.Fatal(err)
	}
	if err := tb.Delete(1, 0); err != nil {
		t.Fatal(err)
	}
	if got := string(tb.Bytes()); got != "abc" {
		t.Fatalf("Bytes() = %q, want abc", got)
	}
}

// TestBasicInsertUndoRedo builds "1234567890" out of seven out-of-order
// inserts, then walks the whole history down and back up.
func TestBasicInsertUndoRedo(t *testing.T) {
	tb, h := newTable()
	step := func(pos int, s string) {
		if err := tb.Insert(pos, []byte(s)); err != nil {
			t.Fatal(err)
		}
		h.Snapshot()
	}
	step(0, "3")
	step(0, "1")
	step(1, "2")
	step(3, "46")
	step(4, "5")
	step(6, "789")
	step(9, "0")

	if got := string(tb.Bytes()); got != "1234567890" {
		t.Fatalf("Bytes() = %q, want 1234567890", got)
	}

	for i := 0; i < 7; i++ {
		if _, ok := h.Undo(); !ok {
			t.Fatalf("Undo() %d should have succeeded", i)
		}
		tb.ClearCacheHint()
	}
	if got := tb.Bytes(); len(got) != 0 {
		t.Fatalf("Bytes() after full undo = %q, want empty", got)
	}

	for i := 0; i < 7; i++ {
		if _, ok := h.Redo(); !ok {
			t.Fatalf("Redo() %d should have succeeded", i)
		}
		tb.ClearCacheHint()
	}
	if got := string(tb.Bytes()); got != "1234567890" {
		t.Fatalf("Bytes() after full redo = %q, want 1234567890", got)
	}
}

func TestInsertAtSizeAppends(t *testing.T) {
	tb, _ := newTable()
	tb.Insert(0, []byte("abc"))
	if err := tb.Insert(tb.Size(), []byte("def")); err != nil {
		t.Fatal(err)
	}
	if got := string(tb.Bytes()); got != "abcdef" {
		t.Fatalf("Bytes() = %q", got)
	}
}

func TestFastPathContiguousInserts(t *testing.T) {
	// Repeated appends at the tail of the same piece should use the
	// CacheHint fast path and not fragment the chain.
	tb, _ := newTable()
	tb.Insert(0, []byte("a"))
	tb.Insert(1, []byte("b"))
	tb.Insert(2, []byte("c"))
	if got := string(tb.Bytes()); got != "abc" {
		t.Fatalf("Bytes() = %q, want abc", got)
	}
	// Exactly one real piece should have been created by the fast path
	// (plus the two sentinels).
	n := 0
	for id := tb.Piece(tb.Begin()).Next(); id != tb.End(); id = tb.Piece(id).Next() {
		n++
	}
	if n != 1 {
		t.Fatalf("chain has %d real pieces, want 1 (fast path should avoid fragmentation)", n)
	}
}

func TestFastPathBackspaceShrinksTail(t *testing.T) {
	tb, _ := newTable()
	tb.Insert(0, []byte("abc"))
	if err := tb.Delete(2, 1); err != nil {
		t.Fatal(err)
	}
	if got := string(tb.Bytes()); got != "ab" {
		t.Fatalf("Bytes() = %q, want ab", got)
	}
}

func TestAddressAndResolveAddressRoundTrip(t *testing.T) {
	tb, _ := newTable()
	tb.Insert(0, []byte("hello world"))
	s, off, err := tb.Address(6)
	if err != nil {
		t.Fatal(err)
	}
	pos, ok := tb.ResolveAddress(s, off)
	if !ok || pos != 6 {
		t.Fatalf("ResolveAddress = %d, %v; want 6, true", pos, ok)
	}
}

func TestUndoRedoByteExact(t *testing.T) {
	tb, h := newTable()
	tb.Insert(0, []byte("hello world"))
	h.Snapshot()
	tb.ClearCacheHint()
	tb.Delete(5, 6)
	h.Snapshot()
	tb.ClearCacheHint()
	before := string(tb.Bytes())
	if before != "hello" {
		t.Fatalf("Bytes() = %q", before)
	}
	h.Undo()
	tb.ClearCacheHint()
	if got := string(tb.Bytes()); got != "hello world" {
		t.Fatalf("Bytes() after undo = %q, want hello world", got)
	}
	h.Redo()
	tb.ClearCacheHint()
	if got := string(tb.Bytes()); got != "hello" {
		t.Fatalf("Bytes() after redo = %q, want hello", got)
	}
}
