package sam

import (
	"github.com/vis-editor/core/iterator"
	"github.com/vis-editor/core/mark"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/regex"
)

// Range is a half-open byte range, the Span expressed over document
// positions rather than pieces.
type Range struct {
	Start, End int
}

func union(a, b Range) Range {
	start := a.Start
	if b.Start < start {
		start = b.Start
	}
	end := a.End
	if b.End > end {
		end = b.End
	}
	return Range{Start: start, End: end}
}

// Window is the per-file evaluation context an address AST is folded over:
// the table it addresses, the mark registry for 'M addresses, and a
// regex-compile cache so a pattern reused across x/y iterations (or across
// g/v inside a loop's subcmd) is compiled once.
type Window struct {
	Table *piece.Table
	Marks *mark.Registry

	compiled map[string]*regex.Compiled
}

// NewWindow returns a Window ready to evaluate addresses over t.
func NewWindow(t *piece.Table, marks *mark.Registry) *Window {
	return &Window{Table: t, Marks: marks, compiled: make(map[string]*regex.Compiled)}
}

func (w *Window) compile(pattern string) (*regex.Compiled, error) {
	if c, ok := w.compiled[pattern]; ok {
		return c, nil
	}
	c, err := regex.Compile(pattern)
	if err != nil {
		return nil, errSyntax("BadAddress", err.Error())
	}
	w.compiled[pattern] = c
	return c, nil
}

func lineBoundsAt(t *piece.Table, pos int) (start, end int) {
	if pos > 0 {
		// Strictly before pos: a '\n' under the cursor ends this line.
		it := iterator.New(t, pos-1)
		if s, ok := it.ByteFindPrev('\n'); ok {
			start = s + 1
		}
	}
	it2 := iterator.New(t, pos)
	if e, ok := it2.ByteFindNext('\n'); ok {
		end = e
	} else {
		end = t.Size()
	}
	return start, end
}

// lineRange resolves a 1-based line number to [line_start, next_line_start),
// Line 0 is the zero-width position at the very start of
// the document (sam's convention for "insert before the first line").
func lineRange(t *piece.Table, n int) (Range, error) {
	if n <= 0 {
		return Range{0, 0}, nil
	}
	pos := 0
	size := t.Size()
	line := 1
	for line < n {
		it := iterator.New(t, pos)
		end, ok := it.ByteFindNext('\n')
		if !ok {
			return Range{}, errSyntax("BadAddress", "line out of range")
		}
		pos = end + 1
		line++
	}
	start := pos
	it := iterator.New(t, pos)
	if end, ok := it.ByteFindNext('\n'); ok {
		return Range{Start: start, End: end + 1}, nil
	}
	return Range{Start: start, End: size}, nil
}

// Eval folds addr over cur, the "moving current range" the address
// grammar threads through compound addresses, returning the resolved
// range.
func (w *Window) Eval(addr *Addr, cur Range) (Range, error) {
	if addr == nil {
		return cur, nil
	}
	switch addr.Kind {
	case AddrByte:
		return Range{addr.Line, addr.Line}, nil
	case AddrLine:
		return lineRange(w.Table, addr.Line)
	case AddrMark:
		pos, ok := w.Marks.GetName(w.Table, mark.Name(addr.Mark))
		if !ok {
			return Range{}, errSyntax("InvalidMark", "unset or invalid mark")
		}
		return Range{pos, pos}, nil
	case AddrRegexFwd:
		c, err := w.compile(addr.Pattern)
		if err != nil {
			return Range{}, err
		}
		s, e, ok := c.FindForward(w.Table, cur.End)
		if !ok {
			return Range{}, errSyntax("BadAddress", "no match")
		}
		return Range{s, e}, nil
	case AddrRegexBack:
		c, err := w.compile(addr.Pattern)
		if err != nil {
			return Range{}, err
		}
		s, e, ok := c.FindBackward(w.Table, cur.Start)
		if !ok {
			return Range{}, errSyntax("BadAddress", "no match")
		}
		return Range{s, e}, nil
	case AddrDollar:
		size := w.Table.Size()
		return Range{size, size}, nil
	case AddrDot:
		return cur, nil
	case AddrPlus:
		_, end := lineBoundsAt(w.Table, cur.End)
		size := w.Table.Size()
		if end >= size {
			return Range{size, size}, nil
		}
		return lineRange(w.Table, lineNumberAt(w.Table, end+1))
	case AddrMinus:
		if cur.Start == 0 {
			return Range{0, 0}, nil
		}
		return lineRange(w.Table, lineNumberAt(w.Table, cur.Start-1))
	case AddrPercent:
		return Range{0, w.Table.Size()}, nil
	case AddrComma:
		left, err := w.Eval(addr.Left, cur)
		if err != nil {
			return Range{}, err
		}
		right, err := w.Eval(addr.Right, cur)
		if err != nil {
			return Range{}, err
		}
		return union(left, right), nil
	case AddrSemi:
		left, err := w.Eval(addr.Left, cur)
		if err != nil {
			return Range{}, err
		}
		return w.Eval(addr.Right, left)
	default:
		return cur, nil
	}
}

// lineNumberAt returns the 1-based line number containing pos, by counting
// newlines from the start of the document. Used only by the relative +/-
// addresses, which are rare enough that a linear scan is acceptable; an
// order-statistic tree could replace it if they ever get hot.
func lineNumberAt(t *piece.Table, pos int) int {
	line := 1
	off := 0
	for off < pos {
		it := iterator.New(t, off)
		end, ok := it.ByteFindNext('\n')
		if !ok || end >= pos {
			break
		}
		off = end + 1
		line++
	}
	return line
}
