package motion

import (
	"testing"

	"github.com/vis-editor/core/history"
	"github.com/vis-editor/core/mark"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/regex"
	"github.com/vis-editor/core/slab"
)

func newTable(t *testing.T, content string) (*piece.Table, *Context) {
	t.Helper()
	buf := slab.NewBuffer()
	h := history.New()
	tb := piece.New(buf, h)
	if err := tb.Insert(0, []byte(content)); err != nil {
		t.Fatal(err)
	}
	h.Snapshot()
	return tb, &Context{Table: tb, Marks: mark.NewRegistry(), TabWidth: 8}
}

// TestPercentOfFileNLandsOnLineStart exercises the "by % of file":
// four equal-length lines, 50% should land at the start of the third line.
func TestPercentOfFileNLandsOnLineStart(t *testing.T) {
	_, ctx := newTable(t, "aaaa\nbbbb\ncccc\ndddd\n")
	pos, ok := PercentOfFileN(50).Apply(ctx, 0, 1)
	if !ok || pos != 10 {
		t.Fatalf("PercentOfFileN(50) = %d, %v; want 10, true", pos, ok)
	}
}

func TestPercentOfFileNClampsOutOfRange(t *testing.T) {
	_, ctx := newTable(t, "aaaa\nbbbb\ncccc\ndddd\n")
	pos, ok := PercentOfFileN(1000).Apply(ctx, 0, 1)
	if !ok || pos != 20 {
		t.Fatalf("PercentOfFileN(1000) = %d, %v; want 20 (clamped to 100%%), true", pos, ok)
	}
	pos, ok = PercentOfFileN(-5).Apply(ctx, 5, 1)
	if !ok || pos != 0 {
		t.Fatalf("PercentOfFileN(-5) = %d, %v; want 0 (clamped to 0%%), true", pos, ok)
	}
}

// TestPercentOfFileIsAlwaysAPlaceholder documents that the bare PercentOfFile
// Motion (the "%" binding's literal value) never succeeds on its own; the
// dispatcher must substitute PercentOfFileN(count) before applying it.
func TestPercentOfFileIsAlwaysAPlaceholder(t *testing.T) {
	_, ctx := newTable(t, "aaaa\nbbbb\n")
	pos, ok := PercentOfFile.Apply(ctx, 3, 5)
	if ok || pos != 3 {
		t.Fatalf("PercentOfFile.Apply = %d, %v; want 3, false", pos, ok)
	}
}

func TestSearchForwardRecordsLastMatchEnd(t *testing.T) {
	_, ctx := newTable(t, "foo bar foo baz")
	c, err := regex.Compile("bar")
	if err != nil {
		t.Fatal(err)
	}
	ctx.SearchPattern = c
	ctx.SearchForward = true

	pos, ok := SearchForward.Apply(ctx, 0, 1)
	if !ok || pos != 4 {
		t.Fatalf("SearchForward = %d, %v; want 4, true", pos, ok)
	}
	if ctx.LastMatchEnd != 7 {
		t.Fatalf("LastMatchEnd = %d, want 7", ctx.LastMatchEnd)
	}
}

func TestSearchBackwardRecordsLastMatchEnd(t *testing.T) {
	_, ctx := newTable(t, "foo bar foo baz")
	c, err := regex.Compile("foo")
	if err != nil {
		t.Fatal(err)
	}
	ctx.SearchPattern = c
	ctx.SearchForward = false

	pos, ok := SearchBackward.Apply(ctx, 9, 1)
	if !ok || pos != 0 {
		t.Fatalf("SearchBackward = %d, %v; want 0, true", pos, ok)
	}
	if ctx.LastMatchEnd != 3 {
		t.Fatalf("LastMatchEnd = %d, want 3", ctx.LastMatchEnd)
	}
}
