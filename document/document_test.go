package document

import (
	"bytes"
	"testing"
)

func TestInsertDeleteAndLineLookup(t *testing.T) {
	d := New()
	if err := d.Insert(0, []byte("alpha\nbeta\ngamma\n")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Snapshot()

	if got, want := d.LineCount(), 4; got != want {
		t.Fatalf("LineCount: got %d want %d", got, want)
	}
	if got, want := d.ByteToLine(0), 1; got != want {
		t.Fatalf("ByteToLine(0): got %d want %d", got, want)
	}
	if got, want := d.ByteToLine(6), 2; got != want {
		t.Fatalf("ByteToLine(6): got %d want %d", got, want)
	}
	if got, want := d.LineToByte(3), 11; got != want {
		t.Fatalf("LineToByte(3): got %d want %d", got, want)
	}
}

func TestLineCacheSurvivesMutationAndUndo(t *testing.T) {
	d := New()
	if err := d.Insert(0, []byte("one\ntwo\n")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Snapshot()
	if got, want := d.LineCount(), 3; got != want {
		t.Fatalf("LineCount: got %d want %d", got, want)
	}

	if err := d.Insert(8, []byte("three\n")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Snapshot()
	if got, want := d.LineCount(), 4; got != want {
		t.Fatalf("LineCount after insert: got %d want %d", got, want)
	}

	if _, ok := d.Undo(); !ok {
		t.Fatalf("undo should succeed")
	}
	if got, want := d.LineCount(), 3; got != want {
		t.Fatalf("LineCount after undo: got %d want %d", got, want)
	}
	if got, want := string(d.Table.Bytes()), "one\ntwo\n"; got != want {
		t.Fatalf("content after undo: got %q want %q", got, want)
	}
}

func TestModifiedAndMarkSaved(t *testing.T) {
	d := New()
	if d.Modified() {
		t.Fatalf("fresh document should not be modified")
	}
	if err := d.Insert(0, []byte("hi")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Snapshot()
	if !d.Modified() {
		t.Fatalf("document with an edit should be modified")
	}
	d.MarkSaved()
	if d.Modified() {
		t.Fatalf("document should not be modified right after MarkSaved")
	}
	if len(d.DirtyLines()) != 0 {
		t.Fatalf("dirty lines should be cleared after MarkSaved")
	}
}

func TestDirtyLinesTracksTouchedLines(t *testing.T) {
	d := New()
	if err := d.Insert(0, []byte("a\nb\nc\n")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Snapshot()
	d.MarkSaved()

	if err := d.Insert(2, []byte("X")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Snapshot()

	dirty := d.DirtyLines()
	if len(dirty) != 1 || dirty[0] != 2 {
		t.Fatalf("expected line 2 dirty, got %v", dirty)
	}
}

func TestParkAndResumeRoundTrips(t *testing.T) {
	d := New()
	content := "the quick brown fox\njumps over\nthe lazy dog\n"
	if err := d.Insert(0, []byte(content)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Snapshot()
	d.MarkSaved()

	if err := d.Park(); err != nil {
		t.Fatalf("park: %v", err)
	}
	if !d.Parked() {
		t.Fatalf("expected Parked() true")
	}

	if err := d.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if d.Parked() {
		t.Fatalf("expected Parked() false after Resume")
	}
	if got := string(d.Table.Bytes()); got != content {
		t.Fatalf("content after resume: got %q want %q", got, content)
	}

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("writeto: %v", err)
	}
	if buf.String() != content {
		t.Fatalf("writeto content: got %q want %q", buf.String(), content)
	}
}
