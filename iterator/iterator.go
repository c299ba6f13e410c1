// Package iterator implements a bidirectional byte/codepoint/grapheme cursor
// over a piece.Table: a thin (position, table) pair, a cursor plus the
// structure it walks, advanced one step at a time rather than materialized
// as a slice.
package iterator

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/vis-editor/core/piece"
)

// Iterator is a cursor over one Table's content. It becomes invalid after
// any edit to the owning document; the core does not track invalidation
// itself; callers must re-fetch via New after a mutation.
type Iterator struct {
	t   *piece.Table
	pos int
}

// New returns an Iterator positioned at pos. pos must be in [0, t.Size()].
func New(t *piece.Table, pos int) *Iterator {
	return &Iterator{t: t, pos: pos}
}

// Pos returns the iterator's current byte offset.
func (it *Iterator) Pos() int { return it.pos }

// Seek repositions the iterator within the same table without reallocating
// it, used by callers that need to rewind to a previously saved position.
func (it *Iterator) Seek(pos int) { it.pos = pos }

func (it *Iterator) byteAt(pos int) (byte, bool) {
	if pos < 0 || pos >= it.t.Size() {
		return 0, false
	}
	var buf [1]byte
	n, err := it.t.Read(pos, buf[:])
	if err != nil || n == 0 {
		return 0, false
	}
	return buf[0], true
}

// ByteNext advances by one byte. It returns false and leaves pos pinned at
// Size() if already at end of document.
func (it *Iterator) ByteNext() bool {
	if it.pos >= it.t.Size() {
		return false
	}
	it.pos++
	return true
}

// BytePrev retreats by one byte. It returns false and leaves pos pinned at 0
// if already at the start of the document.
func (it *Iterator) BytePrev() bool {
	if it.pos <= 0 {
		return false
	}
	it.pos--
	return true
}

func isUTF8Continuation(b byte) bool { return b&0xC0 == 0x80 }

// CodepointNext advances past the current UTF-8 codepoint, stopping at the
// next leading byte (or end of document).
func (it *Iterator) CodepointNext() bool {
	if !it.ByteNext() {
		return false
	}
	for it.pos < it.t.Size() {
		b, ok := it.byteAt(it.pos)
		if !ok || !isUTF8Continuation(b) {
			break
		}
		it.pos++
	}
	return true
}

// CodepointPrev retreats to the start of the preceding UTF-8 codepoint.
func (it *Iterator) CodepointPrev() bool {
	if !it.BytePrev() {
		return false
	}
	for it.pos > 0 {
		b, ok := it.byteAt(it.pos)
		if !ok || !isUTF8Continuation(b) {
			break
		}
		it.pos--
	}
	return true
}

// runeAt decodes the codepoint starting at pos, reading up to utf8.UTFMax
// bytes. It returns utf8.RuneError if pos is out of range or the bytes do
// not form a valid sequence.
func (it *Iterator) runeAt(pos int) (rune, bool) {
	if pos < 0 || pos >= it.t.Size() {
		return utf8.RuneError, false
	}
	var buf [utf8.UTFMax]byte
	n, err := it.t.Read(pos, buf[:])
	if err != nil || n == 0 {
		return utf8.RuneError, false
	}
	r, _ := utf8.DecodeRune(buf[:n])
	return r, true
}

// charWidth classifies r the way the view layer's wcwidth equivalent does:
// zero for combining marks (graphemes extend across zero-width
// codepoints), and otherwise whatever golang.org/x/text/width's East Asian
// classification implies (2 for Wide/Fullwidth, 1 otherwise).
func charWidth(r rune) int {
	if unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) || r == 0x200B /* zero-width space */ {
		return 0
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// CharNext advances across a full grapheme: one base codepoint plus any
// trailing zero-width combining codepoints, landing on the next non-zero-
// width codepoint's start (or end of document).
func (it *Iterator) CharNext() bool {
	if !it.CodepointNext() {
		return false
	}
	for {
		r, ok := it.runeAt(it.pos)
		if !ok || charWidth(r) != 0 {
			break
		}
		if !it.CodepointNext() {
			break
		}
	}
	return true
}

// CharPrev retreats across a full grapheme, symmetric to CharNext.
func (it *Iterator) CharPrev() bool {
	if !it.CodepointPrev() {
		return false
	}
	for {
		r, ok := it.runeAt(it.pos)
		if !ok || charWidth(r) != 0 {
			break
		}
		if !it.CodepointPrev() {
			break
		}
	}
	return true
}

// ByteFindNext scans forward (including the current position) for b,
// memchr-style, and returns its position. ok is false if b does not occur
// before the end of the document; pos is then left unchanged.
func (it *Iterator) ByteFindNext(b byte) (pos int, ok bool) {
	const chunk = 4096
	var buf [chunk]byte
	p := it.pos
	for p < it.t.Size() {
		n, err := it.t.Read(p, buf[:])
		if err != nil || n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			if buf[i] == b {
				return p + i, true
			}
		}
		p += n
	}
	return it.pos, false
}

// ByteFindPrev scans backward (including the current position) for b,
// memrchr-style.
func (it *Iterator) ByteFindPrev(b byte) (pos int, ok bool) {
	const chunk = 4096
	var buf [chunk]byte
	p := it.pos
	for p >= 0 {
		start := p - chunk + 1
		if start < 0 {
			start = 0
		}
		n, err := it.t.Read(start, buf[:p-start+1])
		if err != nil || n == 0 {
			break
		}
		for i := n - 1; i >= 0; i-- {
			if buf[i] == b {
				return start + i, true
			}
		}
		p = start - 1
	}
	return it.pos, false
}

// Byte returns the byte at the current position and whether it was in
// range (false at end of document).
func (it *Iterator) Byte() (byte, bool) { return it.byteAt(it.pos) }

// Rune decodes and returns the codepoint starting at the current position.
func (it *Iterator) Rune() (rune, bool) { return it.runeAt(it.pos) }

// CharWidth exposes charWidth for callers (the view layer) that need the
// same zero-width/Wide classification without constructing an Iterator.
func CharWidth(r rune) int { return charWidth(r) }
