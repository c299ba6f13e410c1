package operator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vis-editor/core/history"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/register"
	"github.com/vis-editor/core/slab"
)

func newCtx(t *testing.T, content string) (Ctx, *piece.Table, *register.Store) {
	t.Helper()
	buf := slab.NewBuffer()
	h := history.New()
	tb := piece.New(buf, h)
	require.NoError(t, tb.Insert(0, []byte(content)))
	h.Snapshot()
	regs := register.NewStore(nil)
	return Ctx{Table: tb, Regs: regs, RegName: register.Default}, tb, regs
}

func TestDeleteCopiesRangeIntoRegister(t *testing.T) {
	c, tb, regs := newCtx(t, "hello world")
	c.Start, c.End = 0, 6

	res, err := Delete(c)
	require.NoError(t, err)
	require.Equal(t, "world", string(tb.Bytes()))
	require.Equal(t, 0, res.NewPos)
	require.Equal(t, "hello ", string(regs.Get(register.Default, 0)))
}

func TestDeleteEmptyRangeIsNoop(t *testing.T) {
	c, tb, _ := newCtx(t, "abc")
	c.Start, c.End = 1, 1

	res, err := Delete(c)
	require.NoError(t, err)
	require.Equal(t, "abc", string(tb.Bytes()))
	require.Equal(t, 1, res.NewPos)
}

func TestChangeLinewiseLandsOnFreshLine(t *testing.T) {
	c, tb, _ := newCtx(t, "one\ntwo\n")
	c.Start, c.End = 0, 4
	c.Linewise = true

	res, err := Change(c)
	require.NoError(t, err)
	require.Equal(t, "\ntwo\n", string(tb.Bytes()))
	require.Equal(t, 0, res.NewPos)
}

func TestYankLeavesBufferUntouched(t *testing.T) {
	c, tb, regs := newCtx(t, "hello world")
	c.Start, c.End = 6, 11
	c.Pos = 8

	res, err := Yank(c)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(tb.Bytes()))
	require.Equal(t, 8, res.NewPos, "charwise yank keeps the original pos")
	require.Equal(t, "world", string(regs.Get(register.Default, 0)))
}

func TestYankLinewiseLandsAtRangeStart(t *testing.T) {
	c, _, _ := newCtx(t, "one\ntwo\n")
	c.Start, c.End = 4, 8
	c.Pos = 6
	c.Linewise = true

	res, err := Yank(c)
	require.NoError(t, err)
	require.Equal(t, 4, res.NewPos)
}

func TestPutCharwiseAfterAndCount(t *testing.T) {
	c, tb, regs := newCtx(t, "abc")
	regs.Put(register.Default, 0, []byte("X"), false)
	c.Start, c.End = 0, 0
	c.Place = After
	c.Count = 2

	res, err := Put(c)
	require.NoError(t, err)
	require.Equal(t, "aXXbc", string(tb.Bytes()))
	require.Equal(t, 1, res.NewPos)
}

func TestPutLinewiseAfterInsertsBelowLine(t *testing.T) {
	c, tb, regs := newCtx(t, "ab\ncd\n")
	regs.Put(register.Default, 0, []byte("X\n"), true)
	c.Start, c.End = 0, 0
	c.Place = After

	res, err := Put(c)
	require.NoError(t, err)
	require.Equal(t, "ab\nX\ncd\n", string(tb.Bytes()))
	require.Equal(t, 3, res.NewPos)
}

func TestPutLinewiseBeforeInsertsAboveLine(t *testing.T) {
	c, tb, regs := newCtx(t, "ab\ncd\n")
	regs.Put(register.Default, 0, []byte("X\n"), true)
	c.Start, c.End = 4, 4
	c.Place = Before

	res, err := Put(c)
	require.NoError(t, err)
	require.Equal(t, "ab\nX\ncd\n", string(tb.Bytes()))
	require.Equal(t, 3, res.NewPos)
}

func TestPutAtEndLandsOnLastInsertedByte(t *testing.T) {
	c, tb, regs := newCtx(t, "abc")
	regs.Put(register.Default, 0, []byte("XY"), false)
	c.Start, c.End = 1, 1
	c.AtEnd = true

	res, err := Put(c)
	require.NoError(t, err)
	require.Equal(t, "aXYbc", string(tb.Bytes()))
	require.Equal(t, 2, res.NewPos)
}

func TestPutReplacesNonEmptySelection(t *testing.T) {
	c, tb, regs := newCtx(t, "hello world")
	regs.Put(register.Default, 0, []byte("vis"), false)
	c.Start, c.End = 6, 11

	_, err := Put(c)
	require.NoError(t, err)
	require.Equal(t, "hello vis", string(tb.Bytes()))
}

func TestShiftRightIndentsEveryLine(t *testing.T) {
	c, tb, _ := newCtx(t, "a\nb\n")
	c.Start, c.End = 0, 4

	res, err := ShiftRight(c)
	require.NoError(t, err)
	require.Equal(t, "\ta\n\tb\n", string(tb.Bytes()))
	require.Equal(t, 1, res.NewPos)
}

func TestShiftRightExpandTabUsesSpaces(t *testing.T) {
	c, tb, _ := newCtx(t, "a\n")
	c.Start, c.End = 0, 1
	c.ExpandTab = true
	c.IndentUnit = "    "

	_, err := ShiftRight(c)
	require.NoError(t, err)
	require.Equal(t, "    a\n", string(tb.Bytes()))
}

func TestShiftLeftStripsOneIndentUnit(t *testing.T) {
	c, tb, _ := newCtx(t, "\ta\n\tb\n")
	c.Start, c.End = 0, 6

	_, err := ShiftLeft(c)
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", string(tb.Bytes()))
}

func TestShiftLeftOnUnindentedLineIsNoop(t *testing.T) {
	c, tb, _ := newCtx(t, "a\n")
	c.Start, c.End = 0, 1

	_, err := ShiftLeft(c)
	require.NoError(t, err)
	require.Equal(t, "a\n", string(tb.Bytes()))
}

func TestJoinReplacesNewlinesWithSeparator(t *testing.T) {
	c, tb, _ := newCtx(t, "a\nb\nc")
	c.Start, c.End = 0, 5

	res, err := Join(c)
	require.NoError(t, err)
	require.Equal(t, "a b c", string(tb.Bytes()))
	require.Equal(t, 0, res.NewPos)
}

func TestJoinSkipsSeparatorAfterTrailingWhitespace(t *testing.T) {
	c, tb, _ := newCtx(t, "a \nb")
	c.Start, c.End = 0, 4

	_, err := Join(c)
	require.NoError(t, err)
	require.Equal(t, "a b", string(tb.Bytes()))
}

func TestJoinCollapsesBlankLineWithoutSeparator(t *testing.T) {
	c, tb, _ := newCtx(t, "a\n\nb")
	c.Start, c.End = 0, 4

	_, err := Join(c)
	require.NoError(t, err)
	require.Equal(t, "a b", string(tb.Bytes()))
}

func TestReplaceOverwritesEveryByteInRange(t *testing.T) {
	c, tb, _ := newCtx(t, "abcdef")
	c.Start, c.End = 1, 4
	c.Replacement = 'x'

	res, err := Replace(c)
	require.NoError(t, err)
	require.Equal(t, "axxxef", string(tb.Bytes()))
	require.Equal(t, 1, res.NewPos)
}

func TestCursorPositionsStartOfLine(t *testing.T) {
	_, tb, _ := newCtx(t, "foo \nbar\n")
	got := CursorPositions(tb, 0, 9, false)
	require.Equal(t, []int{0, 5}, got)
}

func TestCursorPositionsFinishOfLine(t *testing.T) {
	_, tb, _ := newCtx(t, "foo \nbar\n")
	got := CursorPositions(tb, 0, 9, true)
	require.Equal(t, []int{2, 7}, got, "line finish is the last non-blank byte")
}
