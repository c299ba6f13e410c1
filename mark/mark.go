// Package mark implements position-stable marks: raw (slab, offset)
// addresses that remain valid across edits so long as some live piece still
// publishes that byte, and resolve to Invalid otherwise (recoverable by a
// later undo).
package mark

import "github.com/vis-editor/core/slab"

// Mark is a stable pointer into slab bytes. It is not a
// document position: positions shift as the document is edited, but the
// underlying byte address does not.
type Mark struct {
	Slab   slab.ID
	Offset int
}

// Zero is the mark value meaning "unset."
var Zero = Mark{}

// Resolver is the subset of piece.Table a Mark needs: the ability to turn a
// document position into a slab address and back. Defined here (rather than
// imported from piece) so this package has no dependency on piece.
type Resolver interface {
	Address(pos int) (slab.ID, int, error)
	ResolveAddress(s slab.ID, off int) (pos int, ok bool)
}

// Set records a Mark at the resolver's current byte address for pos.
func Set(r Resolver, pos int) (Mark, error) {
	s, off, err := r.Address(pos)
	if err != nil {
		return Zero, err
	}
	return Mark{Slab: s, Offset: off}, nil
}

// Get resolves a Mark back to a document position. ok is false (the mark
// is invalid) when the mark's byte is not currently published by any live
// piece.
func Get(r Resolver, m Mark) (pos int, ok bool) {
	if m == Zero {
		return 0, false
	}
	return r.ResolveAddress(m.Slab, m.Offset)
}

// Name identifies one slot in a document's mark register: 'a'..'z' plus a
// handful of well-known marks, an array indexed by mark name.
type Name byte

const (
	// SelectionStart and SelectionEnd bracket the most recent visual
	// selection, mirroring vi's '< and '> marks.
	SelectionStart Name = '<'
	SelectionEnd   Name = '>'
	// LastChangeStart marks where the most recent change began, mirroring
	// vi's '. mark.
	LastChangeStart Name = '.'
	// LastYank marks the position of the most recent yank/put.
	LastYank Name = '"'
)

// IsLetter reports whether name is one of the addressable a..z marks.
func IsLetter(name Name) bool {
	return name >= 'a' && name <= 'z'
}

// Registry is a document's per-mark-name store.
type Registry struct {
	marks map[Name]Mark
}

// NewRegistry returns an empty mark registry.
func NewRegistry() *Registry {
	return &Registry{marks: make(map[Name]Mark)}
}

// SetName records name at the resolver's current address for pos.
func (reg *Registry) SetName(r Resolver, name Name, pos int) error {
	m, err := Set(r, pos)
	if err != nil {
		return err
	}
	reg.marks[name] = m
	return nil
}

// GetName resolves the position currently addressed by name.
func (reg *Registry) GetName(r Resolver, name Name) (pos int, ok bool) {
	m, present := reg.marks[name]
	if !present {
		return 0, false
	}
	return Get(r, m)
}

// Raw returns the raw stored Mark for name without resolving it, and
// whether one has ever been set.
func (reg *Registry) Raw(name Name) (Mark, bool) {
	m, ok := reg.marks[name]
	return m, ok
}

// Clear removes name from the registry.
func (reg *Registry) Clear(name Name) {
	delete(reg.marks, name)
}
