// Package piece implements the persistent piece table: a chain of (slab,
// offset, length) descriptors whose concatenation is the document content.
//
// Pieces live in a flat arena addressed by ID rather than by pointer: an
// arena plus integer indices gives O(1) splice and avoids the
// reference-cycle hazards of a pointer-based doubly-linked list.
package piece

import "github.com/vis-editor/core/slab"

// ID indexes a Piece in a Table's arena. Pieces are never removed from the
// arena once created (the allocation list), only unlinked from
// the logical chain, so that undo can always find them again.
type ID uint32

// NilID marks the absence of a piece reference.
const NilID ID = ^ID(0)

// Piece is an immutable view into exactly one slab. Its prev/next fields are
// the only parts that change after creation, as the chain is spliced.
type Piece struct {
	Slab   slab.ID
	Offset int // byte offset within the slab
	Length int

	prev, next ID
}

// Prev returns the ID of the piece preceding this one in the current chain.
func (p Piece) Prev() ID { return p.prev }

// Next returns the ID of the piece following this one in the current chain.
func (p Piece) Next() ID { return p.next }

// Contains reports whether the slab byte offset off falls within this
// piece's published range, used by Mark resolution.
func (p Piece) Contains(s slab.ID, off int) bool {
	return p.Slab == s && off >= p.Offset && off < p.Offset+p.Length
}
