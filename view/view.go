// Package view implements a window's layout onto a document:
// width/height/tabwidth, a scrollable start offset, and the ordered
// multi-cursor Selection set. Selections are stored as a plain slice, not
// a linked structure; they are few and re-sorted wholesale after every
// edit.
package view

import (
	"sort"

	"github.com/vis-editor/core/iterator"
	"github.com/vis-editor/core/mark"
	"github.com/vis-editor/core/piece"
)

// Selection is an anchor/head pair. Ranges are derived, not stored:
// Range() is min/max+1 when Anchored, or a degenerate point otherwise.
type Selection struct {
	Anchor   int
	Head     int
	Anchored bool

	// marks re-resolve Anchor/Head through edits; nil until the owning View
	// binds them (Rebind).
	anchorMark mark.Mark
	headMark   mark.Mark
}

// Range returns the selection's byte range.
func (s Selection) Range() (start, end int) {
	if !s.Anchored {
		return s.Head, s.Head
	}
	if s.Anchor <= s.Head {
		return s.Anchor, s.Head + 1
	}
	return s.Head, s.Anchor + 1
}

// View owns one window's layout and its ordered Selection set.
type View struct {
	Table    *piece.Table
	Marks    *mark.Registry
	Width    int
	Height   int
	TabWidth int

	Start int // byte offset of the first displayed line

	sels    []Selection
	primary int
}

// New returns a View over t with a single selection at position 0.
func New(t *piece.Table, marks *mark.Registry, width, height, tabwidth int) *View {
	return &View{
		Table: t, Marks: marks, Width: width, Height: height, TabWidth: tabwidth,
		sels: []Selection{{Head: 0}},
	}
}

// Selections returns the ordered selection set (ordered by Head).
func (v *View) Selections() []Selection { return v.sels }

// Primary returns the primary selection, which drives viewport scrolling.
func (v *View) Primary() Selection { return v.sels[v.primary] }

// PrimaryIndex returns the index of the primary selection within Selections().
func (v *View) PrimaryIndex() int { return v.primary }

// SetSelections replaces the selection set wholesale, normalizing
// (sort-by-head, merge duplicates) and clamping the primary index.
func (v *View) SetSelections(sels []Selection) {
	v.sels = normalize(sels)
	if v.primary >= len(v.sels) {
		v.primary = len(v.sels) - 1
	}
	if v.primary < 0 {
		v.primary = 0
	}
}

// AddSelection appends a new selection and makes it primary, unless an
// existing selection already has the same head (duplicates at the same
// position are merged).
func (v *View) AddSelection(s Selection) {
	for i, existing := range v.sels {
		if existing.Head == s.Head {
			v.primary = i
			return
		}
	}
	v.sels = append(v.sels, s)
	v.sels = normalize(v.sels)
	for i, existing := range v.sels {
		if existing.Head == s.Head {
			v.primary = i
			break
		}
	}
}

// normalize sorts selections by Head and merges exact duplicates.
func normalize(sels []Selection) []Selection {
	if len(sels) == 0 {
		return []Selection{{Head: 0}}
	}
	out := append([]Selection(nil), sels...)
	sort.Slice(out, func(i, j int) bool { return out[i].Head < out[j].Head })
	dedup := out[:1]
	for _, s := range out[1:] {
		last := dedup[len(dedup)-1]
		if last.Head == s.Head && last.Anchor == s.Anchor && last.Anchored == s.Anchored {
			continue
		}
		dedup = append(dedup, s)
	}
	return dedup
}

// Rebind re-resolves every selection's anchor/head through marks, so
// selections survive an edit that shifted surrounding text.
// Callers must call BindMarks (which binds every selection) before the edit
// and Rebind after.
func (v *View) Rebind() {
	for i := range v.sels {
		if pos, ok := mark.Get(v.Table, v.sels[i].headMark); ok {
			v.sels[i].Head = pos
		}
		if v.sels[i].Anchored {
			if pos, ok := mark.Get(v.Table, v.sels[i].anchorMark); ok {
				v.sels[i].Anchor = pos
			}
		}
	}
	v.sels = normalize(v.sels)
}

// BindMarks snapshots every selection's current Head/Anchor into marks, to
// be re-resolved by a subsequent Rebind after an edit.
func (v *View) BindMarks() {
	for i := range v.sels {
		if m, err := mark.Set(v.Table, v.sels[i].Head); err == nil {
			v.sels[i].headMark = m
		}
		if v.sels[i].Anchored {
			if m, err := mark.Set(v.Table, v.sels[i].Anchor); err == nil {
				v.sels[i].anchorMark = m
			}
		}
	}
}

// lineStart/lineEnd mirror motion's line-boundary helpers; view only needs
// them for scrolling and does not depend on the motion package to avoid a
// cycle (motion depends on nothing view-ish, but keeping view leaf-ward
// matches the component table's dependency order).
func lineStart(t *piece.Table, pos int) int {
	if pos <= 0 {
		return 0
	}
	// Strictly before pos, so a pos sitting on a '\n' stays on its own line.
	it := iterator.New(t, pos-1)
	if s, ok := it.ByteFindPrev('\n'); ok {
		return s + 1
	}
	return 0
}

func lineEnd(t *piece.Table, pos int) int {
	it := iterator.New(t, pos)
	if e, ok := it.ByteFindNext('\n'); ok {
		return e
	}
	return t.Size()
}

// ScrollUp moves Start backward by n lines.
func (v *View) ScrollUp(n int) {
	for i := 0; i < n && v.Start > 0; i++ {
		v.Start = lineStart(v.Table, v.Start-1)
	}
}

// ScrollDown advances Start to the n-th following line break.
func (v *View) ScrollDown(n int) {
	size := v.Table.Size()
	for i := 0; i < n && v.Start < size; i++ {
		end := lineEnd(v.Table, v.Start)
		if end >= size {
			break
		}
		v.Start = end + 1
	}
}

// EnsureVisible re-places Start so the primary selection's head is on
// screen, scrolling by whole lines: the cursor is kept visible by
// re-placing Start on the nearest line when the head would fall off.
func (v *View) EnsureVisible() {
	head := v.Primary().Head
	if head < v.Start {
		v.Start = lineStart(v.Table, head)
		return
	}
	// Walk forward at most Height lines from Start; if head isn't reached,
	// scroll down until it is the last visible line.
	pos := v.Start
	for i := 0; i < v.Height; i++ {
		end := lineEnd(v.Table, pos)
		if head <= end {
			return
		}
		if end >= v.Table.Size() {
			return
		}
		pos = end + 1
	}
	// head is beyond the window: scroll so it lands on the last line.
	lines := make([]int, 0, v.Height)
	p := head
	for i := 0; i < v.Height; i++ {
		lines = append(lines, lineStart(v.Table, p))
		if lines[len(lines)-1] == 0 {
			break
		}
		p = lines[len(lines)-1] - 1
	}
	v.Start = lines[len(lines)-1]
}

// Cell is one screen column's rendered content, after tab expansion and
// non-printable substitution.
type Cell struct {
	Rune  rune
	Width int
	Pos   int // source byte offset this cell renders
}

// ReplacementChar is substituted for invalid UTF-8 sequences.
const ReplacementChar = '�'

// LayoutLine renders one line starting at pos into screen Cells, expanding
// tabs to the next tab-stop and representing non-printable ASCII as "^X".
func (v *View) LayoutLine(pos int) []Cell {
	end := lineEnd(v.Table, pos)
	var cells []Cell
	col := 0
	it := iterator.New(v.Table, pos)
	for it.Pos() < end {
		r, ok := it.Rune()
		if !ok {
			cells = append(cells, Cell{Rune: ReplacementChar, Width: 1, Pos: it.Pos()})
			it.ByteNext()
			col++
			continue
		}
		switch {
		case r == '\t':
			n := v.TabWidth - (col % v.TabWidth)
			for i := 0; i < n; i++ {
				cells = append(cells, Cell{Rune: ' ', Width: 1, Pos: it.Pos()})
			}
			col += n
		case r < 0x20 || r == 0x7f:
			cells = append(cells, Cell{Rune: '^', Width: 1, Pos: it.Pos()}, Cell{Rune: rune(r ^ 0x40), Width: 1, Pos: it.Pos()})
			col += 2
		default:
			w := iterator.CharWidth(r)
			if w == 0 {
				w = 1
			}
			cells = append(cells, Cell{Rune: r, Width: w, Pos: it.Pos()})
			col += w
		}
		if !it.CharNext() {
			break
		}
	}
	return cells
}
