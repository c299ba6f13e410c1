package piece

import (
	"github.com/pkg/errors"

	"github.com/vis-editor/core/history"
	"github.com/vis-editor/core/slab"
)

// ErrBadPosition is returned when an offset or range falls outside the
// document.
var ErrBadPosition = errors.New("piece: position out of range")

// Table is the persistent piece table for one document. It owns the
// logical piece chain (bracketed by begin/end sentinels), the allocation
// arena every piece ever created lives in, and the CacheHint used to
// fast-path edits contiguous with the most recent insertion.
type Table struct {
	buf     *slab.Buffer
	history *history.History

	pieces []Piece // allocation arena; index is ID
	begin  ID
	end    ID
	size   int

	hintValid bool
	hintPiece ID
	hintSlab  slab.ID

	curSlab      slab.ID
	curSlabValid bool
}

// New returns an empty Table (a zero-length document) backed by buf, with
// mutations recorded into h.
func New(buf *slab.Buffer, h *history.History) *Table {
	t := &Table{buf: buf, history: h}
	t.begin = t.alloc(Piece{prev: NilID, next: NilID})
	t.end = t.alloc(Piece{prev: NilID, next: NilID})
	t.pieces[t.begin].next = t.end
	t.pieces[t.end].prev = t.begin
	return t
}

// NewFromSlab returns a Table whose initial content is the full length of
// an already-loaded slab (the common case: a freshly opened file).
func NewFromSlab(buf *slab.Buffer, h *history.History, s slab.ID, length int) *Table {
	t := New(buf, h)
	if length == 0 {
		return t
	}
	id := t.alloc(Piece{Slab: s, Offset: 0, Length: length})
	t.link(t.begin, id)
	t.link(id, t.end)
	t.size = length
	return t
}

func (t *Table) alloc(p Piece) ID {
	t.pieces = append(t.pieces, p)
	return ID(len(t.pieces) - 1)
}

func (t *Table) link(a, b ID) {
	t.pieces[a].next = b
	t.pieces[b].prev = a
}

// Size returns the cached total document length.
func (t *Table) Size() int { return t.size }

// Piece returns a copy of the piece at id, for callers (marks, iterators)
// that need to inspect chain structure directly.
func (t *Table) Piece(id ID) Piece { return t.pieces[id] }

// Begin returns the sentinel preceding the first real piece.
func (t *Table) Begin() ID { return t.begin }

// End returns the sentinel following the last real piece.
func (t *Table) End() ID { return t.end }

// locate returns the piece containing byte offset pos, along with that
// piece's starting offset in the document. pos == Size() resolves to the
// last real piece (offset equal to its length), or to the end sentinel
// when the document is empty.
func (t *Table) locate(pos int) (id ID, start int, err error) {
	if pos < 0 || pos > t.size {
		return NilID, 0, ErrBadPosition
	}
	off := 0
	for id := t.pieces[t.begin].next; id != t.end; id = t.pieces[id].next {
		p := t.pieces[id]
		if pos < off+p.Length {
			return id, off, nil
		}
		off += p.Length
	}
	// pos == size: treat the tail of the last real piece (if any) as the
	// target, so that appending at end-of-document can still hit the
	// CacheHint fast path. An empty document resolves to the end sentinel.
	if last := t.pieces[t.end].prev; last != t.begin {
		return last, t.size - t.pieces[last].Length, nil
	}
	return t.end, t.size, nil
}

// Read copies up to len(out) bytes starting at pos into out and returns the
// number of bytes copied.
func (t *Table) Read(pos int, out []byte) (int, error) {
	if pos < 0 || pos > t.size {
		return 0, ErrBadPosition
	}
	n := 0
	off := 0
	for id := t.pieces[t.begin].next; id != t.end && n < len(out); id = t.pieces[id].next {
		p := t.pieces[id]
		pieceEnd := off + p.Length
		if pieceEnd > pos {
			s := t.buf.Slab(p.Slab)
			srcStart := p.Offset
			if pos > off {
				srcStart += pos - off
			}
			avail := p.Length - (srcStart - p.Offset)
			want := len(out) - n
			if want > avail {
				want = avail
			}
			copy(out[n:n+want], s.At(srcStart, want))
			n += want
		}
		off = pieceEnd
	}
	return n, nil
}

// Bytes returns the full document content as a freshly allocated slice. It
// is a convenience wrapper over Read for tests and small documents.
func (t *Table) Bytes() []byte {
	out := make([]byte, t.size)
	t.Read(0, out)
	return out
}

func (t *Table) allocHeap(minBytes int) (slab.ID, *slab.Slab) {
	id, s := t.buf.Alloc(minBytes)
	t.curSlab, t.curSlabValid = id, true
	return id, s
}

func (t *Table) currentHeapSlab(need int) (slab.ID, *slab.Slab) {
	if t.curSlabValid {
		s := t.buf.Slab(t.curSlab)
		if s.Cap()-s.Len() >= need {
			return t.curSlab, s
		}
	}
	return t.allocHeap(need)
}

func (t *Table) growTail(id ID, data []byte) {
	p := &t.pieces[id]
	s := t.buf.Slab(p.Slab)
	t.buf.InsertInto(s, p.Offset+p.Length, data)
	p.Length += len(data)
	t.size += len(data)
}

func (t *Table) shrinkTail(id ID, n int) []byte {
	p := &t.pieces[id]
	s := t.buf.Slab(p.Slab)
	removed := append([]byte(nil), s.At(p.Offset+p.Length-n, n)...)
	t.buf.DeleteFrom(s, p.Offset+p.Length-n, n)
	p.Length -= n
	t.size -= n
	return removed
}

// Insert splices bytes into the document at pos. pos == Size() appends.
// Zero-length inserts are a no-op.
func (t *Table) Insert(pos int, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	id, start, err := t.locate(pos)
	if err != nil {
		return err
	}
	off := pos - start
	p := t.pieces[id]

	// locate resolves an empty document's only insertion point (pos == 0)
	// to the end sentinel itself, since there is no real piece yet to
	// anchor the fast path or a split. Handle that case on its own: there
	// is no old span to preserve, only a new piece to splice between the
	// two sentinels.
	if id == t.end {
		slabID, s := t.currentHeapSlab(len(data))
		cp := append([]byte(nil), data...)
		offsetInSlab, err := t.buf.Append(s, cp)
		if err != nil {
			return err
		}
		n := t.alloc(Piece{Slab: slabID, Offset: offsetInSlab, Length: len(data)})
		c := &spanChange{table: t, prevID: t.begin, nextID: t.end, emptyOld: true, newHead: n, newTail: n, newLen: len(data), pos: pos}
		c.Apply()
		t.history.Record(c)

		t.hintValid = true
		t.hintPiece = n
		t.hintSlab = slabID
		return nil
	}

	// Fast path: extend the CacheHint piece's tail in place.
	if t.hintValid && id == t.hintPiece && off == p.Length {
		if s := t.buf.Slab(p.Slab); p.Slab == t.hintSlab && p.Offset+p.Length == s.Len() && s.Cap()-s.Len() >= len(data) {
			cp := append([]byte(nil), data...)
			t.growTail(id, cp)
			t.history.Record(&lengthChange{table: t, id: id, delta: len(data), data: cp, pos: pos})
			return nil
		}
	}

	// Slow path.
	slabID, s := t.currentHeapSlab(len(data))
	cp := append([]byte(nil), data...)
	offsetInSlab, err := t.buf.Append(s, cp)
	if err != nil {
		return err
	}
	n := t.alloc(Piece{Slab: slabID, Offset: offsetInSlab, Length: len(data)})

	c := &spanChange{table: t, prevID: p.prev, nextID: p.next, oldHead: id, oldTail: id, oldLen: p.Length, pos: pos}
	switch {
	case off == 0:
		// id is shared between the old span (just itself) and the new span
		// (n, id): the n->id link must be re-established on every Apply,
		// since Revert's boundary fixup (link(prevID, oldHead=id)) clobbers
		// id.prev.
		c.newHead, c.newTail = n, id
		c.reattach = []linkPair{{n, id}}
		c.newLen = len(data) + p.Length
	case off == p.Length:
		// Symmetric case: id is shared as the new span's head, so the
		// id->n link must be re-established on every Apply.
		c.newHead, c.newTail = id, n
		c.reattach = []linkPair{{id, n}}
		c.newLen = p.Length + len(data)
	default:
		before := t.alloc(Piece{Slab: p.Slab, Offset: p.Offset, Length: off})
		after := t.alloc(Piece{Slab: p.Slab, Offset: p.Offset + off, Length: p.Length - off})
		c.newHead, c.newTail = before, after
		c.reattach = []linkPair{{before, n}, {n, after}}
		c.newLen = p.Length + len(data)
	}
	c.Apply()
	t.history.Record(c)

	t.hintValid = true
	t.hintPiece = n
	t.hintSlab = slabID
	return nil
}

// Delete removes length bytes starting at pos. It fails without mutating
// the document if the range runs past the end. Zero-length deletes are a
// no-op.
func (t *Table) Delete(pos, length int) error {
	if length == 0 {
		return nil
	}
	if pos < 0 || length < 0 || pos+length > t.size {
		return ErrBadPosition
	}
	startID, startOff, err := t.locate(pos)
	if err != nil {
		return err
	}
	endID, endOff, err := t.locate(pos + length)
	if err != nil {
		return err
	}
	sp := t.pieces[startID]
	oS := pos - startOff

	// Fast path: the whole range is the tail of the CacheHint piece.
	if t.hintValid && startID == endID && startID == t.hintPiece && oS+length == sp.Length {
		removed := t.shrinkTail(startID, length)
		t.history.Record(&lengthChange{table: t, id: startID, delta: -length, data: removed, pos: pos})
		return nil
	}

	ep := t.pieces[endID]
	oE := pos + length - endOff

	c := &spanChange{table: t, prevID: sp.prev, oldHead: startID, oldTail: endID, pos: pos}
	// nextID is the piece after the end piece in the *pre-edit* chain.
	c.nextID = ep.next

	var prefix, suffix ID = NilID, NilID
	if oS > 0 {
		prefix = t.alloc(Piece{Slab: sp.Slab, Offset: sp.Offset, Length: oS})
	}
	if oE < ep.Length {
		suffix = t.alloc(Piece{Slab: ep.Slab, Offset: ep.Offset + oE, Length: ep.Length - oE})
	}

	// oldLen is the combined length of every piece spanned by the delete,
	// which is exactly the byte range removed plus the two boundary
	// fragments we are keeping.
	keptPrefix, keptSuffix := 0, 0
	if prefix != NilID {
		keptPrefix = t.pieces[prefix].Length
	}
	if suffix != NilID {
		keptSuffix = t.pieces[suffix].Length
	}
	c.oldLen = length + keptPrefix + keptSuffix
	c.newLen = keptPrefix + keptSuffix

	switch {
	case prefix != NilID && suffix != NilID:
		t.link(prefix, suffix)
		c.newHead, c.newTail = prefix, suffix
	case prefix != NilID:
		c.newHead, c.newTail = prefix, prefix
	case suffix != NilID:
		c.newHead, c.newTail = suffix, suffix
	default:
		c.emptyNew = true
	}
	c.Apply()
	t.history.Record(c)

	t.hintValid = false
	return nil
}

// Address returns the (slab, byte offset) address of document position pos,
// used by marks to record a position that survives edits.
func (t *Table) Address(pos int) (slab.ID, int, error) {
	id, start, err := t.locate(pos)
	if err != nil {
		return 0, 0, err
	}
	if id == t.end {
		// The end-of-document address has no backing byte; resolved
		// relative to the preceding piece when possible.
		prev := t.pieces[t.end].prev
		if prev != t.begin {
			pp := t.pieces[prev]
			return pp.Slab, pp.Offset + pp.Length, nil
		}
		return 0, 0, nil
	}
	p := t.pieces[id]
	return p.Slab, p.Offset + (pos - start), nil
}

// ResolveAddress scans the live chain for the piece whose published range
// contains the slab address (s, off) and returns the corresponding document
// position. ok is false if no live piece currently references that byte.
func (t *Table) ResolveAddress(s slab.ID, off int) (pos int, ok bool) {
	docPos := 0
	for id := t.pieces[t.begin].next; id != t.end; id = t.pieces[id].next {
		p := t.pieces[id]
		if p.Contains(s, off) {
			return docPos + (off - p.Offset), true
		}
		docPos += p.Length
	}
	return 0, false
}

// ClearCacheHint invalidates the fast-path cache, as required on
// Snapshot, Undo, and Redo: the hint is only valid within the Action it
// was recorded under.
func (t *Table) ClearCacheHint() {
	t.hintValid = false
}
