// Package operator implements the editing operators: functions that,
// given a range and context, mutate the document through a piece.Table and
// return a new cursor position (or Dispose, meaning the selection should
// be removed). The mode/action dispatcher selects one of them per
// completed key sequence and runs it against every selection.
package operator

import (
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/register"
)

// Disposition tells the dispatcher what to do with the selection that
// produced this operator call.
type Disposition int

const (
	// Keep leaves the selection in place at NewPos.
	Keep Disposition = iota
	// Dispose removes the selection entirely (e.g. a pure delete in visual
	// mode).
	Dispose
)

// Placement selects where Put inserts relative to the target position.
type Placement int

const (
	Before Placement = iota
	After
)

// Ctx is the per-selection context an Operator consumes. Start/End is a
// half-open byte range already produced by a motion or text object.
type Ctx struct {
	Table    *piece.Table
	Regs     *register.Store
	Start    int
	End      int
	Pos      int // the selection's original reference position
	Count    int
	RegName  register.Name
	Slot     int
	Linewise bool

	// Replacement is Replace's substitute rune; Place is Put's before/after
	// x start/end selector; IndentUnit/ExpandTab feed ShiftLeft/ShiftRight;
	// JoinSep feeds Join.
	Replacement rune
	Place       Placement
	AtEnd       bool
	IndentUnit  string
	ExpandTab   bool
	JoinSep     string
}

func (c Ctx) length() int { return c.End - c.Start }

func (c Ctx) read() []byte {
	buf := make([]byte, c.length())
	c.Table.Read(c.Start, buf)
	return buf
}

// Result is what an Operator call produced: the new cursor position and a
// Disposition (Dispose removes the selection).
type Result struct {
	NewPos int
	Disp   Disposition
}

// Func is the Operator signature: Ctx -> Result, error.
type Func func(c Ctx) (Result, error)

func clamp(pos, size int) int {
	if pos > size {
		return size
	}
	if pos < 0 {
		return 0
	}
	return pos
}

// yank copies the range into the register (shared by Delete/Change/Yank).
func yank(c Ctx) {
	content := c.read()
	c.Regs.Put(c.RegName, c.Slot, content, c.Linewise)
	c.Regs.Put(register.Default, c.Slot, content, c.Linewise)
	if c.Linewise {
		c.Regs.Put(register.LastYank, c.Slot, content, true)
	}
}

// Delete copies range into the register, deletes it, and lands the cursor
// at range.Start (clamped if linewise at EOF).
var Delete Func = func(c Ctx) (Result, error) {
	if c.length() == 0 {
		return Result{NewPos: c.Start}, nil
	}
	yank(c)
	if err := c.Table.Delete(c.Start, c.length()); err != nil {
		return Result{}, err
	}
	pos := c.Start
	if c.Linewise {
		pos = clamp(pos, c.Table.Size())
	}
	return Result{NewPos: pos}, nil
}

// Change deletes the range, then, if linewise, inserts a newline so the
// cursor lands on a fresh empty line. The caller is responsible
// for entering insert mode afterward; Change itself only manipulates the
// buffer.
var Change Func = func(c Ctx) (Result, error) {
	if c.length() > 0 {
		yank(c)
		if err := c.Table.Delete(c.Start, c.length()); err != nil {
			return Result{}, err
		}
	}
	if !c.Linewise {
		return Result{NewPos: c.Start}, nil
	}
	if err := c.Table.Insert(c.Start, []byte("\n")); err != nil {
		return Result{}, err
	}
	return Result{NewPos: c.Start}, nil
}

// Yank copies range into the register without mutating the buffer. The new
// position is range.Start for a linewise yank, or the original pos
// otherwise.
var Yank Func = func(c Ctx) (Result, error) {
	yank(c)
	if c.Linewise {
		return Result{NewPos: c.Start}, nil
	}
	return Result{NewPos: c.Pos}, nil
}

// Put inserts register content before/after the range (deleting it first if
// non-empty), ensuring a newline boundary for linewise registers, repeated
// Count times; final cursor lands at the start or end of the inserted
// region depending on Place.
var Put Func = func(c Ctx) (Result, error) {
	count := c.Count
	if count <= 0 {
		count = 1
	}
	pos := c.Start
	if c.length() > 0 {
		if err := c.Table.Delete(c.Start, c.length()); err != nil {
			return Result{}, err
		}
	}
	content := c.Regs.Get(c.RegName, c.Slot)
	linewise := c.Regs.Linewise(c.RegName)
	insertAt := pos
	if linewise {
		if c.Place == After {
			insertAt = lineEndOrAppend(c.Table, pos)
			if insertAt < c.Table.Size() {
				insertAt++
			} else if insertAt > 0 {
				// No trailing newline to step past: insert our own boundary.
				if err := c.Table.Insert(insertAt, []byte("\n")); err != nil {
					return Result{}, err
				}
				insertAt++
			}
		} else {
			insertAt = lineStartOf(c.Table, pos)
		}
	} else if c.Place == After && c.length() == 0 {
		insertAt = pos + 1
		if insertAt > c.Table.Size() {
			insertAt = c.Table.Size()
		}
	}

	start := insertAt
	for i := 0; i < count; i++ {
		if err := c.Table.Insert(insertAt, content); err != nil {
			return Result{}, err
		}
		insertAt += len(content)
	}
	end := insertAt

	if c.AtEnd {
		if end > start {
			return Result{NewPos: end - 1}, nil
		}
		return Result{NewPos: end}, nil
	}
	return Result{NewPos: start}, nil
}

func lineStartOf(t *piece.Table, pos int) int {
	buf := make([]byte, 1)
	for pos > 0 {
		t.Read(pos-1, buf)
		if buf[0] == '\n' {
			break
		}
		pos--
	}
	return pos
}

func lineEndOrAppend(t *piece.Table, pos int) int {
	size := t.Size()
	buf := make([]byte, 1)
	for pos < size {
		t.Read(pos, buf)
		if buf[0] == '\n' {
			break
		}
		pos++
	}
	return pos
}

func indentUnit(c Ctx) string {
	if c.ExpandTab {
		n := len(c.IndentUnit)
		if n == 0 {
			n = 8
		}
		out := make([]byte, n)
		for i := range out {
			out[i] = ' '
		}
		return string(out)
	}
	return "\t"
}

// lineStartsInRange returns the byte offset of the start of every line that
// intersects [start,end), in pre-edit coordinates. A degenerate (empty)
// range still yields the one line containing start.
func lineStartsInRange(t *piece.Table, start, end int) []int {
	var starts []int
	pos := lineStartOf(t, start)
	for {
		starts = append(starts, pos)
		next := lineEndOrAppend(t, pos)
		if next >= t.Size() || next+1 >= end {
			break
		}
		pos = next + 1
	}
	return starts
}

// ShiftLeft strips one indent unit from each line intersecting the range.
var ShiftLeft Func = func(c Ctx) (Result, error) {
	unit := indentUnit(c)
	starts := lineStartsInRange(c.Table, c.Start, c.End)
	delta := 0
	firstRemoved := 0
	for i, origStart := range starts {
		cur := origStart - delta
		buf := make([]byte, len(unit))
		read, _ := c.Table.Read(cur, buf)
		n := 0
		for n < len(unit) && n < read && buf[n] == unit[n] {
			n++
		}
		if n == 0 && read > 0 && buf[0] == '\t' {
			n = 1
		}
		if n > 0 {
			c.Table.Delete(cur, n)
			delta += n
		}
		if i == 0 {
			firstRemoved = n
		}
	}
	return Result{NewPos: clamp(c.Start-firstRemoved, c.Table.Size())}, nil
}

// ShiftRight prepends one indent unit to each line intersecting the range.
var ShiftRight Func = func(c Ctx) (Result, error) {
	unit := indentUnit(c)
	starts := lineStartsInRange(c.Table, c.Start, c.End)
	delta := 0
	for _, origStart := range starts {
		cur := origStart + delta
		c.Table.Insert(cur, []byte(unit))
		delta += len(unit)
	}
	return Result{NewPos: c.Start + len(unit)}, nil
}

// Join replaces each newline in the range with JoinSep (default a single
// space), unless the previous character is whitespace or the next is a
// newline.
var Join Func = func(c Ctx) (Result, error) {
	sep := c.JoinSep
	if sep == "" {
		sep = " "
	}
	pos := c.Start
	end := c.End
	for pos < end {
		buf := make([]byte, 1)
		n, _ := c.Table.Read(pos, buf)
		if n == 0 || buf[0] != '\n' {
			pos++
			continue
		}
		prevWS := false
		if pos > 0 {
			var pb [1]byte
			c.Table.Read(pos-1, pb[:])
			prevWS = pb[0] == ' ' || pb[0] == '\t'
		}
		nextNL := false
		if pos+1 < c.Table.Size() {
			var nb [1]byte
			c.Table.Read(pos+1, nb[:])
			nextNL = nb[0] == '\n'
		}
		if prevWS || nextNL {
			c.Table.Delete(pos, 1)
			end--
			continue
		}
		c.Table.Delete(pos, 1)
		c.Table.Insert(pos, []byte(sep))
		pos += len(sep)
		end += len(sep) - 1
	}
	return Result{NewPos: c.Start}, nil
}

// CursorPositions implements the Cursor(sol/eol) operator's multi-selection
// spawn: one position per line intersecting the range, at
// line-start (atEnd=false) or line-finish (atEnd=true). It returns plain
// positions rather than a Result since Cursor produces N new selections,
// not a single new cursor; turning them into selections is left to the
// caller.
func CursorPositions(t *piece.Table, start, end int, atEnd bool) []int {
	starts := lineStartsInRange(t, start, end)
	out := make([]int, 0, len(starts))
	for _, s := range starts {
		if !atEnd {
			out = append(out, s)
			continue
		}
		e := lineEndOrAppend(t, s)
		for e > s {
			var b [1]byte
			t.Read(e-1, b[:])
			if b[0] != ' ' && b[0] != '\t' {
				break
			}
			e--
		}
		if e > s {
			out = append(out, e-1)
		} else {
			out = append(out, s)
		}
	}
	return out
}

// ModeSwitch performs no buffer mutation; it exists so the operator table
// is complete for callers that dispatch purely by Operator value. The
// mode/action dispatcher intercepts a ModeSwitch request before ever
// constructing a Ctx, switching modes directly and recording it for
// repeat. This Func is never actually invoked and is kept only so
// ModeSwitch has a named, addressable value alongside the rest of the table.
var ModeSwitch Func = func(c Ctx) (Result, error) {
	return Result{NewPos: c.Pos}, nil
}

// Replace overwrites every codepoint in the range with Replacement,
// preserving the codepoint count.
var Replace Func = func(c Ctx) (Result, error) {
	n := c.length()
	if n == 0 {
		return Result{NewPos: c.Start}, nil
	}
	r := c.Replacement
	if r == 0 {
		r = ' '
	}
	out := make([]byte, 0, n)
	for range string(c.read()) {
		out = append(out, string(r)...)
	}
	c.Table.Delete(c.Start, n)
	c.Table.Insert(c.Start, out)
	return Result{NewPos: c.Start}, nil
}
