package mode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vis-editor/core/history"
	"github.com/vis-editor/core/mark"
	"github.com/vis-editor/core/motion"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/register"
	"github.com/vis-editor/core/slab"
	"github.com/vis-editor/core/view"
)

type fixture struct {
	tb   *piece.Table
	hist *history.History
	ctx  *motion.Context
	v    *view.View
	regs *register.Store
}

func newFixture(t *testing.T, content string) *fixture {
	t.Helper()
	buf := slab.NewBuffer()
	h := history.New()
	tb := piece.New(buf, h)
	require.NoError(t, tb.Insert(0, []byte(content)))
	h.Snapshot()

	marks := mark.NewRegistry()
	return &fixture{
		tb:   tb,
		hist: h,
		ctx:  &motion.Context{Table: tb, Marks: marks, TabWidth: 8},
		v:    view.New(tb, marks, 80, 24, 8),
		regs: register.NewStore(nil),
	}
}

// TestMotionOnlyCompletesInNormal checks the "motion alone in
// normal mode" completion rule: pressing "w" with no pending operator moves
// the cursor and resolves the Action in one keystroke.
func TestMotionOnlyCompletesInNormal(t *testing.T) {
	f := newFixture(t, "hello world")
	d := NewDispatcher()

	complete, err := d.Feed(f.v, f.ctx, f.regs, "w")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, 6, f.v.Primary().Head)
	require.Equal(t, Normal, d.Current)
}

// TestOperatorThenMotionDeletes checks the "operator + motion" completion
// rule and that Delete actually mutates the table through the operator
// package.
func TestOperatorThenMotionDeletes(t *testing.T) {
	f := newFixture(t, "hello world")
	d := NewDispatcher()

	complete, err := d.Feed(f.v, f.ctx, f.regs, "d")
	require.NoError(t, err)
	require.False(t, complete, "operator alone must not complete in normal mode")

	complete, err = d.Feed(f.v, f.ctx, f.regs, "w")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, "world", string(f.tb.Bytes()))
}

// TestCountAccumulates checks digit keys build a multi-digit count before
// the motion fires.
func TestCountAccumulates(t *testing.T) {
	f := newFixture(t, "a b c d e")
	d := NewDispatcher()

	_, err := d.Feed(f.v, f.ctx, f.regs, "2")
	require.NoError(t, err)
	complete, err := d.Feed(f.v, f.ctx, f.regs, "w")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, 4, f.v.Primary().Head)
}

// TestUnboundKeyResetsPendingOperator checks that an unrecognized
// continuation aborts the in-progress Action instead of misfiring later.
func TestUnboundKeyResetsPendingOperator(t *testing.T) {
	f := newFixture(t, "hello world")
	d := NewDispatcher()

	_, err := d.Feed(f.v, f.ctx, f.regs, "d")
	require.NoError(t, err)
	complete, err := d.Feed(f.v, f.ctx, f.regs, "\x00")
	require.NoError(t, err)
	require.False(t, complete)

	complete, err = d.Feed(f.v, f.ctx, f.regs, "w")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, "hello world", string(f.tb.Bytes()), "reset operator must not fire on the next motion")
}

// TestVisualOperatorAloneCompletes checks the "operator alone in
// visual mode" completion rule.
func TestVisualOperatorAloneCompletes(t *testing.T) {
	f := newFixture(t, "hello world")
	d := NewDispatcher()

	_, err := d.Feed(f.v, f.ctx, f.regs, "v")
	require.NoError(t, err)
	require.Equal(t, Visual, d.Current)

	f.v.SetSelections([]view.Selection{{Anchor: 0, Head: 4, Anchored: true}})

	complete, err := d.Feed(f.v, f.ctx, f.regs, "d")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, " world", string(f.tb.Bytes()))
}

// TestMarkSetAndGoto exercises the 'm{a-z}' set / '`{a-z}' goto pair.
func TestMarkSetAndGoto(t *testing.T) {
	f := newFixture(t, "hello world")
	d := NewDispatcher()

	f.v.SetSelections([]view.Selection{{Head: 6}})
	_, err := d.Feed(f.v, f.ctx, f.regs, "m")
	require.NoError(t, err)
	complete, err := d.Feed(f.v, f.ctx, f.regs, "a")
	require.NoError(t, err)
	require.True(t, complete)

	f.v.SetSelections([]view.Selection{{Head: 0}})
	_, err = d.Feed(f.v, f.ctx, f.regs, "`")
	require.NoError(t, err)
	complete, err = d.Feed(f.v, f.ctx, f.regs, "a")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, 6, f.v.Primary().Head)
}

// TestUndoRedo exercises the 'u' / '<C-r>' bindings end to end: an operator
// edit closes over a Snapshot, 'u' must revert it through d.History, and
// '<C-r>' must bring it back.
func TestUndoRedo(t *testing.T) {
	f := newFixture(t, "hello world")
	d := NewDispatcher()
	d.History = f.hist

	complete, err := d.Feed(f.v, f.ctx, f.regs, "d")
	require.NoError(t, err)
	require.False(t, complete)
	complete, err = d.Feed(f.v, f.ctx, f.regs, "w")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, "world", string(f.tb.Bytes()))
	f.hist.Snapshot()

	complete, err = d.Feed(f.v, f.ctx, f.regs, "u")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, "hello world", string(f.tb.Bytes()))

	complete, err = d.Feed(f.v, f.ctx, f.regs, "\x12")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, "world", string(f.tb.Bytes()))
}

func feed(t *testing.T, d *Dispatcher, f *fixture, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, err := d.Feed(f.v, f.ctx, f.regs, k)
		require.NoError(t, err)
	}
}

// TestMultiCursorChangeToLineEnd is the multi-cursor end-to-end scenario:
// three cursors at the start of three lines, c$ then typing X then Escape
// must leave X\nX\nX\n with cursors at 1, 3 and 5.
func TestMultiCursorChangeToLineEnd(t *testing.T) {
	f := newFixture(t, "aa\nbb\ncc\n")
	d := NewDispatcher()
	f.v.SetSelections([]view.Selection{{Head: 0}, {Head: 3}, {Head: 6}})

	feed(t, d, f, "c", "$")
	require.Equal(t, Insert, d.Current)
	require.Equal(t, "\n\n\n", string(f.tb.Bytes()))

	feed(t, d, f, "X", "\x1b")
	require.Equal(t, "X\nX\nX\n", string(f.tb.Bytes()))

	heads := make([]int, 0, 3)
	for _, s := range f.v.Selections() {
		heads = append(heads, s.Head)
	}
	require.Equal(t, []int{1, 3, 5}, heads)
	require.Equal(t, Normal, d.Current)
}

// TestInsertModeTypesAtEverySelection checks plain i-mode entry inserts at
// all cursors with delta tracking, not just the primary.
func TestInsertModeTypesAtEverySelection(t *testing.T) {
	f := newFixture(t, "ab\ncd\n")
	d := NewDispatcher()
	f.v.SetSelections([]view.Selection{{Head: 0}, {Head: 3}})

	feed(t, d, f, "i", "x", "\x1b")
	require.Equal(t, "xab\nxcd\n", string(f.tb.Bytes()))
}

// TestRepeatReplaysChangeWithInsertedText checks the repeat tuple:
// c$ then typed text then Escape, and "." re-runs the whole sequence at the
// new cursor position.
func TestRepeatReplaysChangeWithInsertedText(t *testing.T) {
	f := newFixture(t, "ab\ncd")
	d := NewDispatcher()

	feed(t, d, f, "c", "$", "X", "\x1b")
	require.Equal(t, "X\ncd", string(f.tb.Bytes()))

	f.v.SetSelections([]view.Selection{{Head: 2}})
	feed(t, d, f, ".")
	require.Equal(t, "X\nX", string(f.tb.Bytes()))
}

// TestTextObjectPrefixLookup checks the longest-prefix rule: "d" "i" "w"
// resolves i+w to the inner-word object rather than aborting on the bare i.
func TestTextObjectPrefixLookup(t *testing.T) {
	f := newFixture(t, "hello world")
	d := NewDispatcher()
	f.v.SetSelections([]view.Selection{{Head: 7}})

	feed(t, d, f, "d", "i", "w")
	require.Equal(t, "hello ", string(f.tb.Bytes()))
}

// TestLinewiseMotionExtendsOperatorRange checks "dj" deletes both whole
// lines, newline included, and writes the register linewise.
func TestLinewiseMotionExtendsOperatorRange(t *testing.T) {
	f := newFixture(t, "one\ntwo\nthree\n")
	d := NewDispatcher()
	f.v.SetSelections([]view.Selection{{Head: 1}})

	feed(t, d, f, "d", "j")
	require.Equal(t, "three\n", string(f.tb.Bytes()))
	require.True(t, f.regs.Linewise(register.Default))
	require.Equal(t, "one\ntwo\n", string(f.regs.Get(register.Default, 0)))
}

// TestReplaceModeOverwrites checks R-mode consumes a byte per keystroke
// instead of shifting the tail.
func TestReplaceModeOverwrites(t *testing.T) {
	f := newFixture(t, "abcd")
	d := NewDispatcher()

	feed(t, d, f, "R", "x", "y", "\x1b")
	require.Equal(t, "xycd", string(f.tb.Bytes()))
}

// TestUndoWithoutHistoryIsNoop checks that a Dispatcher built without a
// History wired in (mode_test.go's other fixtures) leaves 'u' harmless
// instead of panicking on a nil dereference.
func TestUndoWithoutHistoryIsNoop(t *testing.T) {
	f := newFixture(t, "hello world")
	d := NewDispatcher()

	complete, err := d.Feed(f.v, f.ctx, f.regs, "u")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, "hello world", string(f.tb.Bytes()))
}
