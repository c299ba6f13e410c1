// Package document ties together one open file's buffer, piece table,
// revision history, marks and registers into the single type the rest of
// the editor core addresses. It is the
// layer that turns piece/history primitives into the operations a caller
// actually issues: insert/delete at a position, undo/redo, and the
// byte<->line-number lookups views and addresses need.
//
// Document is one top-level struct holding several independently-built
// sub-structures addressed by plain field access, rather than a web of
// back-pointers between them; it alone owns the slab buffer backing an open
// document's buffer/table/history/marks/registers.
package document

import (
	"encoding/binary"
	"io"

	roaring "github.com/RoaringBitmap/roaring/v2"
	farm "github.com/dgryski/go-farm"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/vis-editor/core/history"
	"github.com/vis-editor/core/iterator"
	"github.com/vis-editor/core/mark"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/register"
	"github.com/vis-editor/core/slab"
)

// Document owns one open file's full editing state. Actual
// save-to-disk mechanics out of this module: Document commits byte ranges
// through slab/piece but never calls a filesystem write itself.
type Document struct {
	Name string

	Buf     *slab.Buffer
	Table   *piece.Table
	History *history.History
	Marks   *mark.Registry
	Regs    *register.Store

	// dirtyLines tracks 1-based line numbers touched since the last save.
	// A bitmap of line numbers is a cheap, good-enough approximation of
	// which ranges changed, without tracking exact byte spans through every
	// Insert/Delete.
	dirtyLines *roaring.Bitmap
	gen        uint64 // bumped on every mutation or undo/redo

	cache lineCache

	parked *parkedState
}

// lineCache is the amortized byte<->line-number table, {byte_pos ->
// 1-based line_no}. It is rebuilt lazily on first use after going
// stale, not eagerly on every edit.
type lineCache struct {
	hash    uint64 // 0 is a valid hash, but gen starts at 0 too and cache
	primed  bool   // starts empty, so primed distinguishes "never built"
	offsets []int  // offsets[i] is the byte start of line i+1
}

// New returns an empty, unnamed Document with fresh slab/table/history/mark
// state, ready for Insert/Delete.
func New() *Document {
	buf := slab.NewBuffer()
	h := history.New()
	return &Document{
		Buf:        buf,
		Table:      piece.New(buf, h),
		History:    h,
		Marks:      mark.NewRegistry(),
		Regs:       register.NewStore(nil),
		dirtyLines: roaring.New(),
	}
}

// Open loads path into a fresh Document's initial piece. Loading byte
// ranges is the only file-I/O surface this module implements; saving is a
// caller concern.
func Open(path string, method slab.Method) (*Document, error) {
	buf := slab.NewBuffer()
	id, s, err := buf.Load(path, method)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	h := history.New()
	return &Document{
		Name:       path,
		Buf:        buf,
		Table:      piece.NewFromSlab(buf, h, id, s.Len()),
		History:    h,
		Marks:      mark.NewRegistry(),
		Regs:       register.NewStore(nil),
		dirtyLines: roaring.New(),
	}, nil
}

// Insert inserts data at pos, invalidating the line cache and recording the
// affected line as dirty.
func (d *Document) Insert(pos int, data []byte) error {
	line := d.ByteToLine(pos)
	if err := d.Table.Insert(pos, data); err != nil {
		return err
	}
	d.touch(line)
	return nil
}

// Delete removes length bytes starting at pos, invalidating the line cache
// and recording the affected line as dirty.
func (d *Document) Delete(pos, length int) error {
	line := d.ByteToLine(pos)
	if err := d.Table.Delete(pos, length); err != nil {
		return err
	}
	d.touch(line)
	return nil
}

// Snapshot closes the current History Action, making the edits issued since
// the previous Snapshot a single undo step.
func (d *Document) Snapshot() {
	d.History.Snapshot()
}

// Undo pops one Action and invalidates the line cache.
func (d *Document) Undo() (pos int, ok bool) {
	pos, ok = d.History.Undo()
	if ok {
		d.Table.ClearCacheHint()
		d.touch(d.ByteToLine(pos))
	}
	return pos, ok
}

// Redo re-applies one previously undone Action and invalidates the line
// cache, mirroring Undo.
func (d *Document) Redo() (pos int, ok bool) {
	pos, ok = d.History.Redo()
	if ok {
		d.Table.ClearCacheHint()
		d.touch(d.ByteToLine(pos))
	}
	return pos, ok
}

// MarkSaved records the current revision as saved and clears the dirty set.
func (d *Document) MarkSaved() {
	d.History.MarkSaved()
	d.dirtyLines.Clear()
}

// Modified reports whether the document differs from the last-saved
// revision (the saved marker no longer matches the current Action).
func (d *Document) Modified() bool {
	return d.History.Modified()
}

// DirtyLines returns the 1-based line numbers touched since the last save.
func (d *Document) DirtyLines() []uint32 {
	return d.dirtyLines.ToArray()
}

func (d *Document) touch(line int) {
	d.gen++
	if line < 1 {
		line = 1
	}
	d.dirtyLines.Add(uint32(line))
}

// ensureCache rebuilds the line-offset table if the generation hash
// recorded at the last build no longer matches the current one. The cache
// is keyed through a go-farm hash of (gen, dirty-set cardinality) rather
// than a plain equality check on gen alone, so a caller that somehow
// resets gen without a real edit (there is none today) still can't observe
// a stale cache silently.
func (d *Document) ensureCache() {
	h := d.generationHash()
	if d.cache.primed && d.cache.hash == h {
		return
	}
	offsets := make([]int, 0, 64)
	offsets = append(offsets, 0)
	size := d.Table.Size()
	pos := 0
	for pos < size {
		it := iterator.New(d.Table, pos)
		nl, ok := it.ByteFindNext('\n')
		if !ok {
			break
		}
		pos = nl + 1
		offsets = append(offsets, pos)
	}
	d.cache = lineCache{hash: h, primed: true, offsets: offsets}
}

func (d *Document) generationHash() uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], d.gen)
	binary.LittleEndian.PutUint64(buf[8:16], d.dirtyLines.GetCardinality())
	return farm.Hash64(buf[:])
}

// LineToByte returns the byte offset of the start of the given 1-based
// line number, clamped to the document's size.
func (d *Document) LineToByte(line int) int {
	d.ensureCache()
	if line < 1 {
		line = 1
	}
	if line > len(d.cache.offsets) {
		return d.Table.Size()
	}
	return d.cache.offsets[line-1]
}

// ByteToLine returns the 1-based line number containing pos.
func (d *Document) ByteToLine(pos int) int {
	d.ensureCache()
	offsets := d.cache.offsets
	lo, hi := 0, len(offsets)
	for lo < hi {
		mid := (lo + hi) / 2
		if offsets[mid] > pos {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// LineCount returns the number of lines in the document (always >= 1).
func (d *Document) LineCount() int {
	d.ensureCache()
	return len(d.cache.offsets)
}

// parkedState is what's left of a Document after Park: its full content,
// zstd-compressed, with the live table/buffer released.
type parkedState struct {
	compressed []byte
	size       int
}

// Park compresses the document's full byte content with zstd and frees the
// live slab/piece-table memory backing it, for documents sitting in the
// background (a window manager above this package decides which open
// files are parked). Resume undoes it.
// Parking drops undo history: it is meant for clean, saved documents.
func (d *Document) Park() error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return errors.Wrap(err, "park: new zstd writer")
	}
	defer enc.Close()

	content := d.Table.Bytes()
	compressed := enc.EncodeAll(content, nil)

	if err := d.Buf.Close(); err != nil {
		return errors.Wrap(err, "park: close buffer")
	}

	d.parked = &parkedState{compressed: compressed, size: len(content)}
	d.Buf = nil
	d.Table = nil
	return nil
}

// Parked reports whether the document is currently parked.
func (d *Document) Parked() bool {
	return d.parked != nil
}

// Resume decompresses a parked document back into a live buffer and piece
// table, as a single fresh Action.
func (d *Document) Resume() error {
	if d.parked == nil {
		return errors.New("resume: document is not parked")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return errors.Wrap(err, "resume: new zstd reader")
	}
	defer dec.Close()

	content, err := dec.DecodeAll(d.parked.compressed, make([]byte, 0, d.parked.size))
	if err != nil {
		return errors.Wrap(err, "resume: decompress")
	}

	buf := slab.NewBuffer()
	h := history.New()
	tb := piece.New(buf, h)
	if len(content) > 0 {
		if err := tb.Insert(0, content); err != nil {
			return errors.Wrap(err, "resume: reload content")
		}
	}
	h.Snapshot()

	d.History = h
	d.Buf = buf
	d.Table = tb
	d.parked = nil
	d.cache = lineCache{}
	d.gen++
	return nil
}

// WriteTo writes the document's current content to w, satisfying io.WriterTo
// for a caller-supplied save path; Document itself never opens a file.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d.parked != nil {
		return 0, errors.New("write: document is parked")
	}
	n, err := w.Write(d.Table.Bytes())
	return int64(n), err
}
