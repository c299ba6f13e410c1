// Package regex wraps the standard library regexp engine behind a narrow,
// swappable compile/exec capability. It exists so motion's search motions
// and the sam executor depend on the same small contract rather than
// importing regexp directly; a different engine can be slotted in behind
// Compile/Find* without touching either consumer.
package regex

import "regexp"

// Reader is the minimal buffer view a Compiled pattern searches over.
// piece.Table satisfies it directly.
type Reader interface {
	Bytes() []byte
	Size() int
}

// Compiled is a compiled pattern, reusable across repeated motion/search
// invocations: the first invocation compiles and stores the pattern,
// subsequent repeats replay it.
type Compiled struct {
	re     *regexp.Regexp
	Source string
}

// Compile parses pattern as a Go-syntax regular expression. The
// RegexError taxonomy maps to a non-nil error here.
func Compile(pattern string) (*Compiled, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Compiled{re: re, Source: pattern}, nil
}

// FindForward returns the first match at or after from. If none is found
// before the end of the document, the search wraps exactly once to the
// beginning and searches [0, from). The wrap happens exactly once.
func (c *Compiled) FindForward(r Reader, from int) (start, end int, ok bool) {
	b := r.Bytes()
	if from < 0 {
		from = 0
	}
	if from <= len(b) {
		if loc := c.re.FindIndex(b[from:]); loc != nil {
			return from + loc[0], from + loc[1], true
		}
	}
	if from > 0 {
		if loc := c.re.FindIndex(b[:from]); loc != nil {
			return loc[0], loc[1], true
		}
	}
	return 0, 0, false
}

// FindBackward returns the last match at or before from, wrapping to the
// end of the document exactly once if [0, from) has no match.
func (c *Compiled) FindBackward(r Reader, from int) (start, end int, ok bool) {
	b := r.Bytes()
	if from > len(b) {
		from = len(b)
	}
	if locs := c.re.FindAllIndex(b[:from], -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		return last[0], last[1], true
	}
	if locs := c.re.FindAllIndex(b, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		return last[0], last[1], true
	}
	return 0, 0, false
}

// FindAll returns every non-overlapping match in the document, in order.
// The sam executor's x/y loops use FindAllInRange instead.
func (c *Compiled) FindAll(r Reader) [][2]int {
	locs := c.re.FindAllIndex(r.Bytes(), -1)
	out := make([][2]int, len(locs))
	for i, l := range locs {
		out[i] = [2]int{l[0], l[1]}
	}
	return out
}

// FindAllInRange returns every non-overlapping match whose full span lies
// within [start, end).
func (c *Compiled) FindAllInRange(r Reader, start, end int) [][2]int {
	b := r.Bytes()
	if start < 0 {
		start = 0
	}
	if end > len(b) {
		end = len(b)
	}
	if start >= end {
		return nil
	}
	locs := c.re.FindAllIndex(b[start:end], -1)
	out := make([][2]int, len(locs))
	for i, l := range locs {
		out[i] = [2]int{start + l[0], start + l[1]}
	}
	return out
}

// MatchesRange reports whether the pattern matches anywhere inside
// [start, end), used by Sam's g/v conditional commands.
func (c *Compiled) MatchesRange(r Reader, start, end int) bool {
	return len(c.FindAllInRange(r, start, end)) > 0
}

// MatchString reports whether the pattern matches s, used by Sam's X/Y
// commands to test an open file's name rather than document content.
func (c *Compiled) MatchString(s string) bool {
	return c.re.MatchString(s)
}

// Expand substitutes $1, $2, ... references in repl using the submatches
// of src (the bytes that matched within [start,end)), mirroring sam's
// c/repl/ and the &/\1 substitution syntax.
func (c *Compiled) Expand(r Reader, start, end int, repl []byte) []byte {
	b := r.Bytes()
	if start < 0 || end > len(b) || start > end {
		return repl
	}
	match := b[start:end]
	submatch := c.re.FindSubmatchIndex(match)
	if submatch == nil {
		return repl
	}
	return c.re.ExpandString(nil, string(repl), string(match), submatch)
}

// Submatches returns the whole match (element 0) followed by each captured
// group's bytes for the match spanning [start,end) in r, mirroring
// regexp.Regexp's own submatch indexing. A group that did not participate
// in the match (an alternation's unused branch) comes back nil. Used to
// populate the '&' and '1'-'9' sub-expression registers from the
// match currently in scope.
func (c *Compiled) Submatches(r Reader, start, end int) [][]byte {
	b := r.Bytes()
	if start < 0 || end > len(b) || start > end {
		return nil
	}
	loc := c.re.FindSubmatchIndex(b[start:end])
	if loc == nil {
		return nil
	}
	out := make([][]byte, len(loc)/2)
	for i := range out {
		lo, hi := loc[2*i], loc[2*i+1]
		if lo < 0 || hi < 0 {
			continue
		}
		out[i] = b[start+lo : start+hi]
	}
	return out
}
