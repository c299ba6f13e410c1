package mark

import (
	"testing"

	"github.com/vis-editor/core/history"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/slab"
)

func newTable(t *testing.T) (*piece.Table, *history.History) {
	t.Helper()
	h := history.New()
	buf := slab.NewBuffer()
	return piece.New(buf, h), h
}

// TestMarkSurvivesEditAndUndo walks a mark through an edit, a delete
// that invalidates it, and the undo that revives it.
func TestMarkSurvivesEditAndUndo(t *testing.T) {
	tb, h := newTable(t)
	if err := tb.Insert(0, []byte("hello world")); err != nil {
		t.Fatal(err)
	}
	h.Snapshot()
	tb.ClearCacheHint()

	m, err := Set(tb, 6) // 'w' of "world"
	if err != nil {
		t.Fatal(err)
	}

	if err := tb.Insert(0, []byte("XXX")); err != nil {
		t.Fatal(err)
	}
	h.Snapshot()
	tb.ClearCacheHint()

	pos, ok := Get(tb, m)
	if !ok || pos != 9 {
		t.Fatalf("Get(m) after insert = %d, %v; want 9, true", pos, ok)
	}

	if err := tb.Delete(9, 5); err != nil { // removes "world"
		t.Fatal(err)
	}
	h.Snapshot()
	tb.ClearCacheHint()

	if _, ok := Get(tb, m); ok {
		t.Fatal("Get(m) after deleting the covering piece should be Invalid")
	}

	h.Undo()
	tb.ClearCacheHint()

	pos, ok = Get(tb, m)
	if !ok || pos != 9 {
		t.Fatalf("Get(m) after undo = %d, %v; want 9, true", pos, ok)
	}
}

func TestRegistryNamedMarks(t *testing.T) {
	tb, _ := newTable(t)
	tb.Insert(0, []byte("line one\nline two\n"))

	reg := NewRegistry()
	if err := reg.SetName(tb, 'a', 9); err != nil {
		t.Fatal(err)
	}
	pos, ok := reg.GetName(tb, 'a')
	if !ok || pos != 9 {
		t.Fatalf("GetName('a') = %d, %v; want 9, true", pos, ok)
	}
	if _, ok := reg.GetName(tb, 'b'); ok {
		t.Fatal("unset mark 'b' should not resolve")
	}
}

func TestZeroMarkIsInvalid(t *testing.T) {
	tb, _ := newTable(t)
	tb.Insert(0, []byte("abc"))
	if _, ok := Get(tb, Zero); ok {
		t.Fatal("the zero Mark should never resolve")
	}
}

func TestIsLetter(t *testing.T) {
	cases := map[Name]bool{'a': true, 'z': true, 'A': false, '<': false, '5': false}
	for name, want := range cases {
		if got := IsLetter(name); got != want {
			t.Errorf("IsLetter(%q) = %v, want %v", byte(name), got, want)
		}
	}
}
