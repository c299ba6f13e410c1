// Package motion implements the pure position -> position motions:
// word/line/sentence/paragraph/search/bracket/mark movement, each carrying
// a behavior descriptor (Linewise, Inclusive, Idempotent, Jump,
// CountExact).
package motion

import (
	"unicode"

	"github.com/vis-editor/core/iterator"
	"github.com/vis-editor/core/mark"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/regex"
)

// Flags is a motion's behavior descriptor bits.
type Flags uint16

const (
	Linewise Flags = 1 << iota
	Charwise
	Inclusive
	Idempotent
	Jump
	CountExact
)

// Context carries everything a motion needs beyond the bare position: the
// table it walks, persisted search state (so a repeated search motion
// replays the last compiled pattern instead of recompiling), the mark
// registry, and layout parameters consulted by line/screen motions.
type Context struct {
	Table    *piece.Table
	Marks    *mark.Registry
	TabWidth int

	SearchPattern *regex.Compiled
	SearchForward bool

	// LastMatchEnd is the end offset of the most recent SearchForward/
	// SearchBackward match, set alongside the position those motions
	// return. Callers that need the match's sub-groups (to populate the
	// '&'/'1'-'9' registers) pair this with the returned start via
	// SearchPattern.Submatches.
	LastMatchEnd int
}

// Func is a single motion step: position -> position. ok is false when the
// motion cannot move (e.g. already at a document boundary); pos is then
// conventionally left unchanged by the caller.
type Func func(ctx *Context, pos int) (int, bool)

// Motion pairs a Func with its behavior descriptor.
type Motion struct {
	Flags Flags
	Fn    Func
}

// Apply runs m count times (count <= 0 behaves as count == 1), honoring
// Idempotent (any count collapses to one application) and CountExact
// (fails as a whole, returning the original pos, if any single step
// cannot move).
func (m Motion) Apply(ctx *Context, pos, count int) (int, bool) {
	if count <= 0 {
		count = 1
	}
	if m.Flags&Idempotent != 0 {
		count = 1
	}
	cur := pos
	moved := false
	for i := 0; i < count; i++ {
		next, ok := m.Fn(ctx, cur)
		if !ok {
			if m.Flags&CountExact != 0 {
				return pos, false
			}
			break
		}
		cur = next
		moved = true
	}
	return cur, moved
}

func isWordByte(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// class is the three-way word-boundary classification: word vs whitespace
// vs "other punctuation".
type class int

const (
	classSpace class = iota
	classWord
	classPunct
)

func classify(r rune) class {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case isWordByte(r):
		return classWord
	default:
		return classPunct
	}
}

// longClassify collapses word and punct into one run for the "longword"
// motion family (WORD in vi terms: any run of non-whitespace).
func longClassify(r rune) class {
	if unicode.IsSpace(r) {
		return classSpace
	}
	return classWord
}

// CharRight moves one grapheme forward.
var CharRight = Motion{Flags: Charwise, Fn: func(ctx *Context, pos int) (int, bool) {
	it := iterator.New(ctx.Table, pos)
	if !it.CharNext() {
		return pos, false
	}
	return it.Pos(), true
}}

// CharLeft moves one grapheme backward.
var CharLeft = Motion{Flags: Charwise, Fn: func(ctx *Context, pos int) (int, bool) {
	it := iterator.New(ctx.Table, pos)
	if !it.CharPrev() {
		return pos, false
	}
	return it.Pos(), true
}}

func wordForward(ctx *Context, pos int, classifier func(rune) class) (int, bool) {
	if pos >= ctx.Table.Size() {
		return pos, false
	}
	it := iterator.New(ctx.Table, pos)
	r, ok := it.Rune()
	if !ok {
		return pos, false
	}
	start := classifier(r)
	// Tie-break: at a boundary, move into the next word, not
	// within it, so always leave the current run first.
	if start != classSpace {
		for {
			if !it.CharNext() {
				return it.Pos(), it.Pos() != pos
			}
			if r, ok = it.Rune(); !ok || classifier(r) != start {
				break
			}
		}
	}
	for {
		if r, ok = it.Rune(); !ok {
			break
		}
		if classifier(r) != classSpace {
			break
		}
		if !it.CharNext() {
			break
		}
	}
	return it.Pos(), it.Pos() != pos
}

func wordBackward(ctx *Context, pos int, classifier func(rune) class) (int, bool) {
	if pos <= 0 {
		return pos, false
	}
	it := iterator.New(ctx.Table, pos)
	if !it.CharPrev() {
		return pos, false
	}
	// Skip whitespace behind us.
	for {
		r, ok := it.Rune()
		if !ok || classifier(r) != classSpace {
			break
		}
		if !it.CharPrev() {
			return it.Pos(), it.Pos() != pos
		}
	}
	r, ok := it.Rune()
	if !ok {
		return it.Pos(), true
	}
	cls := classifier(r)
	for {
		save := it.Pos()
		if !it.CharPrev() {
			break
		}
		r, ok = it.Rune()
		if !ok || classifier(r) != cls {
			it.Seek(save)
			return save, true
		}
	}
	return it.Pos(), true
}

func wordEnd(ctx *Context, pos int, classifier func(rune) class) (int, bool) {
	it := iterator.New(ctx.Table, pos)
	if !it.CharNext() {
		return pos, false
	}
	for {
		r, ok := it.Rune()
		if !ok || classifier(r) != classSpace {
			break
		}
		if !it.CharNext() {
			return it.Pos(), it.Pos() != pos
		}
	}
	r, _ := it.Rune()
	cls := classifier(r)
	for {
		save := it.Pos()
		if !it.CharNext() {
			return save, true
		}
		r, ok := it.Rune()
		if !ok || classifier(r) != cls {
			return save, true
		}
	}
}

// WordForward/WordBackward/WordEnd implement vi's w/b/e over the
// word/punctuation/space three-class scheme.
var WordForward = Motion{Flags: Charwise, Fn: func(ctx *Context, pos int) (int, bool) {
	return wordForward(ctx, pos, classify)
}}
var WordBackward = Motion{Flags: Charwise, Fn: func(ctx *Context, pos int) (int, bool) {
	return wordBackward(ctx, pos, classify)
}}
var WordEnd = Motion{Flags: Charwise | Inclusive, Fn: func(ctx *Context, pos int) (int, bool) {
	return wordEnd(ctx, pos, classify)
}}

// LongWordForward/LongWordBackward/LongWordEnd implement vi's W/B/E over
// the two-class (whitespace vs non-whitespace) scheme.
var LongWordForward = Motion{Flags: Charwise, Fn: func(ctx *Context, pos int) (int, bool) {
	return wordForward(ctx, pos, longClassify)
}}
var LongWordBackward = Motion{Flags: Charwise, Fn: func(ctx *Context, pos int) (int, bool) {
	return wordBackward(ctx, pos, longClassify)
}}
var LongWordEnd = Motion{Flags: Charwise | Inclusive, Fn: func(ctx *Context, pos int) (int, bool) {
	return wordEnd(ctx, pos, longClassify)
}}

func lineStartOf(ctx *Context, pos int) int {
	if pos <= 0 {
		return 0
	}
	// Search strictly before pos: a cursor sitting on a '\n' is at the end
	// of its own line, not the start of the next.
	it := iterator.New(ctx.Table, pos-1)
	if start, ok := it.ByteFindPrev('\n'); ok {
		return start + 1
	}
	return 0
}

func lineEndOf(ctx *Context, pos int) int {
	it := iterator.New(ctx.Table, pos)
	if end, ok := it.ByteFindNext('\n'); ok {
		return end
	}
	return ctx.Table.Size()
}

// LineBegin moves to byte 0 of the current line.
var LineBegin = Motion{Flags: Charwise | Idempotent, Fn: func(ctx *Context, pos int) (int, bool) {
	np := lineStartOf(ctx, pos)
	return np, np != pos || true
}}

// LineStart moves to the first non-blank byte of the current line.
var LineStart = Motion{Flags: Charwise | Idempotent, Fn: func(ctx *Context, pos int) (int, bool) {
	p := lineStartOf(ctx, pos)
	end := lineEndOf(ctx, p)
	it := iterator.New(ctx.Table, p)
	for it.Pos() < end {
		r, ok := it.Rune()
		if !ok || !unicode.IsSpace(r) || r == '\n' {
			break
		}
		if !it.CharNext() {
			break
		}
	}
	return it.Pos(), true
}}

// LineFinish moves to the last non-blank byte of the current line.
var LineFinish = Motion{Flags: Charwise | Idempotent | Inclusive, Fn: func(ctx *Context, pos int) (int, bool) {
	start := lineStartOf(ctx, pos)
	end := lineEndOf(ctx, pos)
	p := end
	for p > start {
		it := iterator.New(ctx.Table, p)
		if !it.CharPrev() {
			break
		}
		r, ok := it.Rune()
		if !ok || !unicode.IsSpace(r) {
			p = it.Pos()
			break
		}
		p = it.Pos()
	}
	return p, true
}}

// LineEnd moves to the newline terminating the current line (or Size() on
// the last, unterminated line).
var LineEnd = Motion{Flags: Charwise | Idempotent, Fn: func(ctx *Context, pos int) (int, bool) {
	return lineEndOf(ctx, pos), true
}}

// LineDown/LineUp move to the equivalent column on the next/previous line,
// clamped to that line's length (a simplified column-preservation: the
// caller is responsible for re-deriving a display column via the view
// layer if true screen-column tracking across tabs/wide runes is needed).
var LineDown = Motion{Flags: Linewise, Fn: func(ctx *Context, pos int) (int, bool) {
	end := lineEndOf(ctx, pos)
	if end >= ctx.Table.Size() {
		return pos, false
	}
	nextStart := end + 1
	col := pos - lineStartOf(ctx, pos)
	nextEnd := lineEndOf(ctx, nextStart)
	target := nextStart + col
	if target > nextEnd {
		target = nextEnd
	}
	return target, true
}}

var LineUp = Motion{Flags: Linewise, Fn: func(ctx *Context, pos int) (int, bool) {
	start := lineStartOf(ctx, pos)
	if start == 0 {
		return pos, false
	}
	col := pos - start
	prevEnd := start - 1
	prevStart := lineStartOf(ctx, prevEnd)
	target := prevStart + col
	if target > prevEnd {
		target = prevEnd
	}
	return target, true
}}

func isSentenceTerm(r rune) bool { return r == '.' || r == '!' || r == '?' }

// SentenceForward finds the next '.'/'!'/'?' followed by whitespace, then
// skips trailing whitespace to land on the next sentence's first byte
//.
var SentenceForward = Motion{Flags: Charwise, Fn: func(ctx *Context, pos int) (int, bool) {
	it := iterator.New(ctx.Table, pos)
	size := ctx.Table.Size()
	for it.Pos() < size {
		r, ok := it.Rune()
		if ok && isSentenceTerm(r) {
			save := it.Pos()
			if it.CodepointNext() {
				if next, ok := it.Rune(); ok && unicode.IsSpace(next) {
					for it.Pos() < size {
						r, ok := it.Rune()
						if !ok || !unicode.IsSpace(r) {
							break
						}
						if !it.CodepointNext() {
							break
						}
					}
					if it.Pos() != pos {
						return it.Pos(), true
					}
					continue
				}
			}
			it.Seek(save)
		}
		if !it.CodepointNext() {
			break
		}
	}
	if size != pos {
		return size, true
	}
	return pos, false
}}

// SentenceBackward mirrors SentenceForward, scanning left for the nearest
// preceding sentence start.
var SentenceBackward = Motion{Flags: Charwise, Fn: func(ctx *Context, pos int) (int, bool) {
	it := iterator.New(ctx.Table, pos)
	for it.Pos() > 0 {
		if !it.CodepointPrev() {
			break
		}
		r, ok := it.Rune()
		if !ok || !unicode.IsSpace(r) {
			continue
		}
		// Walk back over this run of whitespace to find its start, then
		// check whether the byte before it is a sentence terminator.
		for it.Pos() > 0 {
			save := it.Pos()
			if !it.CodepointPrev() {
				break
			}
			r, ok = it.Rune()
			if !ok || !unicode.IsSpace(r) {
				it.Seek(save)
				break
			}
		}
		start := it.Pos()
		if start == 0 {
			continue
		}
		before := iterator.New(ctx.Table, start)
		before.CodepointPrev()
		if r, ok := before.Rune(); ok && isSentenceTerm(r) && start < pos {
			return start, true
		}
	}
	if pos != 0 {
		return 0, true
	}
	return pos, false
}}

func isBlankLine(t *piece.Table, lineStart, lineEnd int) bool {
	return lineStart == lineEnd
}

// ParagraphForward advances to the next blank line (or end of document).
var ParagraphForward = Motion{Flags: Charwise | Jump, Fn: func(ctx *Context, pos int) (int, bool) {
	p := lineEndOf(ctx, pos)
	for p < ctx.Table.Size() {
		nextStart := p + 1
		nextEnd := lineEndOf(ctx, nextStart)
		if isBlankLine(ctx.Table, nextStart, nextEnd) {
			return nextStart, true
		}
		p = nextEnd
	}
	if p != pos {
		return p, true
	}
	return pos, false
}}

// ParagraphBackward retreats to the previous blank line (or start of
// document).
var ParagraphBackward = Motion{Flags: Charwise | Jump, Fn: func(ctx *Context, pos int) (int, bool) {
	p := lineStartOf(ctx, pos)
	for p > 0 {
		prevEnd := p - 1
		prevStart := lineStartOf(ctx, prevEnd)
		if isBlankLine(ctx.Table, prevStart, prevEnd) {
			return prevStart, true
		}
		p = prevStart
	}
	if p != pos {
		return p, true
	}
	return pos, false
}}

// SearchForward/SearchBackward replay ctx.SearchPattern (compiled by the
// caller on first invocation.6), honoring the wrap-once rule
// implemented in the regex package.
var SearchForward = Motion{Flags: Charwise | Jump, Fn: func(ctx *Context, pos int) (int, bool) {
	if ctx.SearchPattern == nil {
		return pos, false
	}
	start, end, ok := ctx.SearchPattern.FindForward(ctx.Table, pos+1)
	if !ok {
		return pos, false
	}
	ctx.LastMatchEnd = end
	return start, true
}}

var SearchBackward = Motion{Flags: Charwise | Jump, Fn: func(ctx *Context, pos int) (int, bool) {
	if ctx.SearchPattern == nil {
		return pos, false
	}
	if pos == 0 {
		start, end, ok := ctx.SearchPattern.FindBackward(ctx.Table, ctx.Table.Size())
		if !ok {
			return pos, false
		}
		ctx.LastMatchEnd = end
		return start, true
	}
	start, end, ok := ctx.SearchPattern.FindBackward(ctx.Table, pos)
	if !ok {
		return pos, false
	}
	ctx.LastMatchEnd = end
	return start, true
}}

var bracketPairs = map[rune]rune{
	'(': ')', '[': ']', '{': '}',
	')': '(', ']': '[', '}': '{',
}

func isOpenBracket(r rune) bool { return r == '(' || r == '[' || r == '{' }

// BracketMatch finds the bracket under pos and returns the position of its
// matching partner, counting nested pairs from pos outward.
var BracketMatch = Motion{Flags: Charwise | Inclusive | Jump, Fn: func(ctx *Context, pos int) (int, bool) {
	it := iterator.New(ctx.Table, pos)
	r, ok := it.Rune()
	if !ok {
		return pos, false
	}
	partner, known := bracketPairs[r]
	if !known {
		return pos, false
	}
	depth := 1
	if isOpenBracket(r) {
		for it.CodepointNext() {
			cur, ok := it.Rune()
			if !ok {
				break
			}
			if cur == r {
				depth++
			} else if cur == partner {
				depth--
				if depth == 0 {
					return it.Pos(), true
				}
			}
		}
		return pos, false
	}
	for it.CodepointPrev() {
		cur, ok := it.Rune()
		if !ok {
			break
		}
		if cur == r {
			depth++
		} else if cur == partner {
			depth--
			if depth == 0 {
				return it.Pos(), true
			}
		}
	}
	return pos, false
}}

// ToMark returns a Motion that jumps to the position currently addressed by
// a named mark, or fails if the mark is unset or Invalid.
func ToMark(name mark.Name) Motion {
	return Motion{Flags: Charwise | Jump, Fn: func(ctx *Context, pos int) (int, bool) {
		if ctx.Marks == nil {
			return pos, false
		}
		target, ok := ctx.Marks.GetName(ctx.Table, name)
		if !ok {
			return pos, false
		}
		return target, true
	}}
}

// PercentOfFile is the "%" binding's sentinel value (vi's `N%`). Its actual
// target depends on the accumulated count, which isn't available inside a
// bare Motion's Fn; the dispatcher recognizes this specific Motion by
// function identity and substitutes PercentOfFileN(count) before applying
// it. Used directly (never substituted), it always fails.
var PercentOfFile = Motion{Flags: Linewise | Jump | CountExact, Fn: func(ctx *Context, pos int) (int, bool) {
	return pos, false
}}

// PercentOfFileN returns a Motion landing at the start of the line holding
// the byte n percent of the way through the document; the percentage is of
// the byte size, not of the line count. Idempotent since
// n is already baked into Fn; repeating the jump under a count multiplier
// would be meaningless.
func PercentOfFileN(n int) Motion {
	return Motion{Flags: Linewise | Jump | Idempotent, Fn: func(ctx *Context, pos int) (int, bool) {
		size := ctx.Table.Size()
		if size == 0 {
			return pos, false
		}
		if n < 0 {
			n = 0
		}
		if n > 100 {
			n = 100
		}
		target := size * n / 100
		return lineStartOf(ctx, target), true
	}}
}
