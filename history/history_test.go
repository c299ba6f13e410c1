package history

import (
	"testing"
	"time"
)

// counterChange is a minimal Change used to verify History's bookkeeping
// without depending on the piece package.
type counterChange struct {
	target *int
	delta  int
	pos    int
}

func (c *counterChange) Apply() error  { *c.target += c.delta; return nil }
func (c *counterChange) Revert() error { *c.target -= c.delta; return nil }
func (c *counterChange) Position() int { return c.pos }

func TestUndoRedoRoundTrip(t *testing.T) {
	h := New()
	var value int

	apply := func(delta, pos int) {
		c := &counterChange{target: &value, delta: delta, pos: pos}
		c.Apply()
		h.Record(c)
		h.Snapshot()
	}

	apply(1, 0)
	apply(2, 1)
	apply(3, 3)
	if value != 6 {
		t.Fatalf("value = %d, want 6", value)
	}

	if pos, ok := h.Undo(); !ok || pos != 3 {
		t.Fatalf("Undo() = %d, %v; want 3, true", pos, ok)
	}
	if value != 3 {
		t.Fatalf("value after one undo = %d, want 3", value)
	}

	if pos, ok := h.Undo(); !ok || pos != 1 {
		t.Fatalf("Undo() = %d, %v; want 1, true", pos, ok)
	}
	if pos, ok := h.Undo(); !ok || pos != 0 {
		t.Fatalf("Undo() = %d, %v; want 0, true", pos, ok)
	}
	if value != 0 {
		t.Fatalf("value after full undo = %d, want 0", value)
	}
	if _, ok := h.Undo(); ok {
		t.Fatal("Undo() at root should report false")
	}

	for i := 0; i < 3; i++ {
		if _, ok := h.Redo(); !ok {
			t.Fatalf("Redo() %d should succeed", i)
		}
	}
	if value != 6 {
		t.Fatalf("value after full redo = %d, want 6", value)
	}
	if _, ok := h.Redo(); ok {
		t.Fatal("Redo() past the tip should report false")
	}
}

func TestNewEditDiscardsRedoBranch(t *testing.T) {
	// Redo siblings are discarded on a new edit after an undo; the graph
	// never branches.
	h := New()
	var value int
	rec := func(delta, pos int) {
		c := &counterChange{target: &value, delta: delta, pos: pos}
		c.Apply()
		h.Record(c)
		h.Snapshot()
	}
	rec(1, 0)
	rec(2, 1)
	h.Undo()
	rec(5, 2)
	if value != 6 {
		t.Fatalf("value = %d, want 6", value)
	}
	if _, ok := h.Redo(); ok {
		t.Fatal("Redo() should be unavailable after a new edit discarded the branch")
	}
}

func TestEarlierLater(t *testing.T) {
	h := New()
	var value int
	rec := func(delta, pos int) {
		c := &counterChange{target: &value, delta: delta, pos: pos}
		c.Apply()
		h.Record(c)
		h.Snapshot()
	}
	rec(1, 0)
	rec(1, 1)
	rec(1, 2)
	rec(1, 3)

	if _, steps := h.Earlier(2); steps != 2 {
		t.Fatalf("Earlier(2) steps = %d, want 2", steps)
	}
	if value != 2 {
		t.Fatalf("value after Earlier(2) = %d, want 2", value)
	}
	if _, steps := h.Earlier(10); steps != 2 {
		t.Fatalf("Earlier(10) from mid-history steps = %d, want 2", steps)
	}
	if value != 0 {
		t.Fatalf("value after draining Earlier = %d, want 0", value)
	}
	if _, steps := h.Later(3); steps != 3 {
		t.Fatalf("Later(3) steps = %d, want 3", steps)
	}
	if value != 3 {
		t.Fatalf("value after Later(3) = %d, want 3", value)
	}
}

func TestRestore(t *testing.T) {
	h := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ticks int
	h.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Minute)
	}
	var value int
	rec := func(delta, pos int) {
		c := &counterChange{target: &value, delta: delta, pos: pos}
		c.Apply()
		h.Record(c)
		h.Snapshot()
	}
	rec(1, 0) // t = base+1m
	rec(1, 1) // t = base+2m
	rec(1, 2) // t = base+3m

	h.Restore(base.Add(90 * time.Second)) // between action 1 and action 2
	if value != 1 {
		t.Fatalf("value after Restore = %d, want 1", value)
	}
}

func TestModifiedFlag(t *testing.T) {
	h := New()
	var value int
	if h.Modified() {
		t.Fatal("fresh history should not be modified")
	}
	c := &counterChange{target: &value, delta: 1, pos: 0}
	c.Apply()
	h.Record(c)
	h.Snapshot()
	if !h.Modified() {
		t.Fatal("history with an unsaved action should be modified")
	}
	h.MarkSaved()
	if h.Modified() {
		t.Fatal("history should not be modified right after MarkSaved")
	}
	c2 := &counterChange{target: &value, delta: 1, pos: 1}
	c2.Apply()
	h.Record(c2)
	h.Snapshot()
	if !h.Modified() {
		t.Fatal("a further edit should re-mark the document modified")
	}
	h.Undo()
	if h.Modified() {
		t.Fatal("undoing back to the saved action should clear modified")
	}
}

func TestSnapshotWithoutPendingChangesIsNoop(t *testing.T) {
	h := New()
	h.Snapshot()
	if h.current != 0 {
		t.Fatal("Snapshot with no pending changes should not create an Action")
	}
}
