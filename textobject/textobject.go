// Package textobject implements the position -> range functions: inner/
// outer word/longword/sentence/paragraph, bracket/quote pairs, whole file,
// and a heuristic function body. It shares motion's Context type.
package textobject

import (
	"unicode"

	"github.com/vis-editor/core/iterator"
	"github.com/vis-editor/core/motion"
)

// Range is a half-open byte range [Start, End).
type Range struct {
	Start, End int
}

// Empty reports whether r contains no bytes.
func (r Range) Empty() bool { return r.Start >= r.End }

// Context mirrors motion.Context; text objects only need the table.
type Context = motion.Context

// Func is a single text-object evaluation: position -> range. ok is false
// when no object of this kind exists at pos.
type Func func(ctx *Context, pos int) (Range, bool)

func classOf(r rune) int {
	switch {
	case unicode.IsSpace(r):
		return 0
	case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		return 1
	default:
		return 2
	}
}

func longClassOf(r rune) int {
	if unicode.IsSpace(r) {
		return 0
	}
	return 1
}

func wordRange(ctx *Context, pos int, classifier func(rune) int, outer bool) (Range, bool) {
	size := ctx.Table.Size()
	if size == 0 {
		return Range{}, false
	}
	it := iterator.New(ctx.Table, pos)
	r, ok := it.Rune()
	if !ok {
		// pos == size: treat as belonging to the preceding run.
		if pos == 0 {
			return Range{}, false
		}
		back := iterator.New(ctx.Table, pos)
		back.CharPrev()
		r, ok = back.Rune()
		if !ok {
			return Range{}, false
		}
		pos = back.Pos()
	}
	cls := classifier(r)

	start := pos
	for start > 0 {
		probe := iterator.New(ctx.Table, start)
		if !probe.CharPrev() {
			break
		}
		pr, ok := probe.Rune()
		if !ok || classifier(pr) != cls {
			break
		}
		start = probe.Pos()
	}

	end := pos
	for {
		probe := iterator.New(ctx.Table, end)
		cr, ok := probe.Rune()
		if !ok || classifier(cr) != cls {
			break
		}
		if !probe.CharNext() {
			end = probe.Pos()
			break
		}
		end = probe.Pos()
	}

	if outer {
		// Outer variants include trailing whitespace (or, failing that,
		// leading whitespace) adjacent to the word.
		extended := end
		for extended < size {
			probe := iterator.New(ctx.Table, extended)
			cr, ok := probe.Rune()
			if !ok || classifier(cr) != 0 {
				break
			}
			if !probe.CharNext() {
				extended = probe.Pos()
				break
			}
			extended = probe.Pos()
		}
		if extended != end {
			end = extended
		} else {
			for start > 0 {
				probe := iterator.New(ctx.Table, start)
				if !probe.CharPrev() {
					break
				}
				pr, ok := probe.Rune()
				if !ok || classifier(pr) != 0 {
					break
				}
				start = probe.Pos()
			}
		}
	}
	return Range{Start: start, End: end}, true
}

// InnerWord/OuterWord implement vi's iw/aw over the three-class scheme.
var InnerWord Func = func(ctx *Context, pos int) (Range, bool) { return wordRange(ctx, pos, classOf, false) }
var OuterWord Func = func(ctx *Context, pos int) (Range, bool) { return wordRange(ctx, pos, classOf, true) }

// InnerLongWord/OuterLongWord implement vi's iW/aW.
var InnerLongWord Func = func(ctx *Context, pos int) (Range, bool) { return wordRange(ctx, pos, longClassOf, false) }
var OuterLongWord Func = func(ctx *Context, pos int) (Range, bool) { return wordRange(ctx, pos, longClassOf, true) }

func lineBounds(ctx *Context, pos int) (start, end int) {
	if pos > 0 {
		// Strictly before pos: a '\n' under the cursor terminates this line.
		it := iterator.New(ctx.Table, pos-1)
		if s, ok := it.ByteFindPrev('\n'); ok {
			start = s + 1
		}
	}
	it2 := iterator.New(ctx.Table, pos)
	if e, ok := it2.ByteFindNext('\n'); ok {
		end = e
	} else {
		end = ctx.Table.Size()
	}
	return start, end
}

// InnerLine is the current line's content, excluding its terminating newline.
var InnerLine Func = func(ctx *Context, pos int) (Range, bool) {
	s, e := lineBounds(ctx, pos)
	return Range{Start: s, End: e}, true
}

// OuterLine is the current line including its terminating newline, if any.
var OuterLine Func = func(ctx *Context, pos int) (Range, bool) {
	s, e := lineBounds(ctx, pos)
	if e < ctx.Table.Size() {
		e++ // include '\n'
	}
	return Range{Start: s, End: e}, true
}

// WholeFile spans the entire document.
var WholeFile Func = func(ctx *Context, pos int) (Range, bool) {
	return Range{Start: 0, End: ctx.Table.Size()}, true
}

func isSentenceTerm(r rune) bool { return r == '.' || r == '!' || r == '?' }

func sentenceBounds(ctx *Context, pos int) (start, end int) {
	size := ctx.Table.Size()
	start = 0
	it := iterator.New(ctx.Table, pos)
	for it.Pos() > 0 {
		if !it.CodepointPrev() {
			break
		}
		r, ok := it.Rune()
		if ok && isSentenceTerm(r) {
			start = it.Pos() + 1
			for start < size {
				probe := iterator.New(ctx.Table, start)
				r, ok := probe.Rune()
				if !ok || !unicode.IsSpace(r) {
					break
				}
				start++
			}
			break
		}
	}
	end = size
	fwd := iterator.New(ctx.Table, pos)
	for fwd.Pos() < size {
		r, ok := fwd.Rune()
		if ok && isSentenceTerm(r) {
			end = fwd.Pos() + 1
			break
		}
		if !fwd.CodepointNext() {
			break
		}
	}
	return start, end
}

// InnerSentence/OuterSentence bracket the sentence containing pos (the
// '.'/'!'/'?' + whitespace rule, shared with motion.SentenceForward).
var InnerSentence Func = func(ctx *Context, pos int) (Range, bool) {
	s, e := sentenceBounds(ctx, pos)
	return Range{Start: s, End: e}, true
}
var OuterSentence Func = func(ctx *Context, pos int) (Range, bool) {
	s, e := sentenceBounds(ctx, pos)
	size := ctx.Table.Size()
	for e < size {
		it := iterator.New(ctx.Table, e)
		r, ok := it.Rune()
		if !ok || !unicode.IsSpace(r) {
			break
		}
		e++
	}
	return Range{Start: s, End: e}, true
}

func isBlankLine(ctx *Context, start, end int) bool { return start == end }

func paragraphBounds(ctx *Context, pos int) (start, end int) {
	size := ctx.Table.Size()
	s, e := lineBounds(ctx, pos)
	start, end = s, e
	for start > 0 {
		prevEnd := start - 1
		prevStart, _ := lineBounds(ctx, prevEnd)
		if isBlankLine(ctx, prevStart, prevEnd) {
			break
		}
		start = prevStart
	}
	for end < size {
		nextStart := end + 1
		if nextStart > size {
			break
		}
		_, nextEnd := lineBounds(ctx, nextStart)
		if isBlankLine(ctx, nextStart, nextEnd) {
			break
		}
		end = nextEnd
	}
	return start, end
}

// InnerParagraph/OuterParagraph bracket the run of non-blank lines around
// pos (outer additionally swallows one trailing blank line, if present).
var InnerParagraph Func = func(ctx *Context, pos int) (Range, bool) {
	s, e := paragraphBounds(ctx, pos)
	return Range{Start: s, End: e}, true
}
var OuterParagraph Func = func(ctx *Context, pos int) (Range, bool) {
	s, e := paragraphBounds(ctx, pos)
	size := ctx.Table.Size()
	if e < size {
		e++ // the paragraph's own terminating newline
		if e < size {
			if _, lineEnd := lineBounds(ctx, e); lineEnd == e {
				e++ // one trailing blank line
			}
		}
	}
	return Range{Start: s, End: e}, true
}

var bracketOpen = map[rune]rune{'(': ')', '[': ']', '{': '}', '<': '>'}
var bracketClose = map[rune]rune{')': '(', ']': '[', '}': '{', '>': '<'}

// scanForwardMatch finds the close matching the open at pos.
func scanForwardMatch(ctx *Context, pos int, open, close rune) (int, bool) {
	depth := 0
	it := iterator.New(ctx.Table, pos)
	for it.CodepointNext() {
		r, ok := it.Rune()
		if !ok {
			continue
		}
		if r == open {
			depth++
		} else if r == close {
			if depth == 0 {
				return it.Pos(), true
			}
			depth--
		}
	}
	return 0, false
}

// scanBackwardMatch finds the open matching the close at pos.
func scanBackwardMatch(ctx *Context, pos int, open, close rune) (int, bool) {
	depth := 0
	it := iterator.New(ctx.Table, pos)
	for it.CodepointPrev() {
		r, ok := it.Rune()
		if ok {
			if r == close {
				depth++
			} else if r == open {
				if depth == 0 {
					return it.Pos(), true
				}
				depth--
			}
		}
		if it.Pos() == 0 {
			break
		}
	}
	return 0, false
}

// bracketPairFrom finds the enclosing bracket pair of kind (open,close)
// around pos, counting nesting outward in both directions; the shallowest
// surrounding pair wins. A cursor sitting on a delimiter
// selects that delimiter's own pair.
func bracketPairFrom(ctx *Context, pos int, open, close rune) (openPos, closePos int, ok bool) {
	if r, rok := iterator.New(ctx.Table, pos).Rune(); rok {
		switch r {
		case open:
			c, found := scanForwardMatch(ctx, pos, open, close)
			if !found {
				return 0, 0, false
			}
			return pos, c, true
		case close:
			o, found := scanBackwardMatch(ctx, pos, open, close)
			if !found {
				return 0, 0, false
			}
			return o, pos, true
		}
	}
	size := ctx.Table.Size()
	depth := 0
	it := iterator.New(ctx.Table, pos)
	for {
		r, rok := it.Rune()
		if rok {
			if r == close {
				if depth == 0 {
					closePos = it.Pos()
					goto foundClose
				}
				depth--
			} else if r == open {
				depth++
			}
		}
		if !it.CodepointNext() {
			return 0, 0, false
		}
		if it.Pos() > size {
			return 0, 0, false
		}
	}
foundClose:
	depth = 0
	back := iterator.New(ctx.Table, pos)
	for {
		r, rok := back.Rune()
		if rok {
			if r == open {
				if depth == 0 {
					openPos = back.Pos()
					return openPos, closePos, true
				}
				depth--
			} else if r == close {
				depth++
			}
		}
		if back.Pos() == 0 {
			return 0, 0, false
		}
		if !back.CodepointPrev() {
			return 0, 0, false
		}
	}
}

// BracketPair returns a Func that finds the (open,close) pair surrounding
// pos; inner excludes the delimiters, outer includes them.
func BracketPair(open rune, inner bool) Func {
	close := bracketOpen[open]
	return func(ctx *Context, pos int) (Range, bool) {
		o, c, ok := bracketPairFrom(ctx, pos, open, close)
		if !ok {
			return Range{}, false
		}
		if inner {
			return Range{Start: o + 1, End: c}, true
		}
		return Range{Start: o, End: c + 1}, true
	}
}

func isClosingContext(r rune) bool {
	switch r {
	case ')', ']', '>', '.', ',':
		return true
	}
	return unicode.IsSpace(r)
}

// QuotePair finds the enclosing quote-delimited range. When the cursor
// sits on the delimiter and the following byte is in "closing context,"
// the search direction inverts so the enclosing pair (not the one starting
// here) is chosen.
func QuotePair(q rune, inner bool) Func {
	return func(ctx *Context, pos int) (Range, bool) {
		size := ctx.Table.Size()
		it := iterator.New(ctx.Table, pos)
		r, ok := it.Rune()
		onDelim := ok && r == q
		invert := false
		if onDelim {
			next := iterator.New(ctx.Table, pos)
			if next.CodepointNext() {
				if nr, ok := next.Rune(); ok && isClosingContext(nr) {
					invert = true
				}
			} else {
				invert = true
			}
		}

		// Find the opening quote: scan backward (or, if inverted, the
		// current position is itself the close, so scan back from before it).
		searchFrom := pos
		if onDelim && invert {
			searchFrom = pos - 1
		}
		var openPos = -1
		back := iterator.New(ctx.Table, minInt(searchFrom+1, size))
		for back.Pos() > 0 {
			if !back.CodepointPrev() {
				break
			}
			r, ok := back.Rune()
			if ok && r == q {
				openPos = back.Pos()
				break
			}
		}
		if onDelim && !invert {
			openPos = pos
		}
		if openPos < 0 {
			return Range{}, false
		}
		fwd := iterator.New(ctx.Table, openPos)
		fwd.CodepointNext()
		var closePos = -1
		for fwd.Pos() <= size {
			r, ok := fwd.Rune()
			if ok && r == q {
				closePos = fwd.Pos()
				break
			}
			if !fwd.CodepointNext() {
				break
			}
		}
		if closePos < 0 {
			return Range{}, false
		}
		if inner {
			return Range{Start: openPos + 1, End: closePos}, true
		}
		return Range{Start: openPos, End: closePos + 1}, true
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// FunctionBody is a heuristic text object: from pos, scan
// forward to the first '{' at or after the current line, then match its
// closing '}' via BracketPair. This approximates "function body" well
// enough for C-like and brace languages without a real parser.
var FunctionBody Func = func(ctx *Context, pos int) (Range, bool) {
	it := iterator.New(ctx.Table, pos)
	size := ctx.Table.Size()
	for it.Pos() < size {
		r, ok := it.Rune()
		if ok && r == '{' {
			break
		}
		if !it.CodepointNext() {
			return Range{}, false
		}
	}
	if it.Pos() >= size {
		return Range{}, false
	}
	return BracketPair('{', false)(ctx, it.Pos())
}
