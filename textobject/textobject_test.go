package textobject

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vis-editor/core/history"
	"github.com/vis-editor/core/mark"
	"github.com/vis-editor/core/motion"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/slab"
)

func newCtx(t *testing.T, content string) *Context {
	t.Helper()
	buf := slab.NewBuffer()
	h := history.New()
	tb := piece.New(buf, h)
	require.NoError(t, tb.Insert(0, []byte(content)))
	h.Snapshot()
	return &motion.Context{Table: tb, Marks: mark.NewRegistry(), TabWidth: 8}
}

func text(t *testing.T, ctx *Context, r Range) string {
	t.Helper()
	buf := make([]byte, r.End-r.Start)
	ctx.Table.Read(r.Start, buf)
	return string(buf)
}

func TestInnerWordSelectsWordUnderCursor(t *testing.T) {
	ctx := newCtx(t, "foo bar baz")
	r, ok := InnerWord(ctx, 5)
	require.True(t, ok)
	require.Equal(t, "bar", text(t, ctx, r))
}

func TestOuterWordIncludesTrailingWhitespace(t *testing.T) {
	ctx := newCtx(t, "foo bar baz")
	r, ok := OuterWord(ctx, 5)
	require.True(t, ok)
	require.Equal(t, "bar ", text(t, ctx, r))
}

func TestOuterWordFallsBackToLeadingWhitespace(t *testing.T) {
	ctx := newCtx(t, "foo bar")
	r, ok := OuterWord(ctx, 5)
	require.True(t, ok)
	require.Equal(t, " bar", text(t, ctx, r))
}

func TestInnerWordOnPunctuationSelectsPunctuationRun(t *testing.T) {
	ctx := newCtx(t, "a ++ b")
	r, ok := InnerWord(ctx, 2)
	require.True(t, ok)
	require.Equal(t, "++", text(t, ctx, r))
}

func TestInnerLongWordSpansPunctuation(t *testing.T) {
	ctx := newCtx(t, "see foo.bar() here")
	r, ok := InnerLongWord(ctx, 6)
	require.True(t, ok)
	require.Equal(t, "foo.bar()", text(t, ctx, r))
}

func TestInnerAndOuterLine(t *testing.T) {
	ctx := newCtx(t, "ab\ncd\nef\n")
	r, ok := InnerLine(ctx, 4)
	require.True(t, ok)
	require.Equal(t, "cd", text(t, ctx, r))

	r, ok = OuterLine(ctx, 4)
	require.True(t, ok)
	require.Equal(t, "cd\n", text(t, ctx, r))
}

func TestWholeFileSpansEverything(t *testing.T) {
	ctx := newCtx(t, "abc\ndef")
	r, ok := WholeFile(ctx, 3)
	require.True(t, ok)
	require.Equal(t, Range{Start: 0, End: 7}, r)
}

func TestInnerSentenceStopsAtTerminators(t *testing.T) {
	ctx := newCtx(t, "One. Two. Three.")
	r, ok := InnerSentence(ctx, 6)
	require.True(t, ok)
	require.Equal(t, "Two.", text(t, ctx, r))
}

func TestOuterSentenceSwallowsTrailingWhitespace(t *testing.T) {
	ctx := newCtx(t, "One. Two. Three.")
	r, ok := OuterSentence(ctx, 6)
	require.True(t, ok)
	require.Equal(t, "Two. ", text(t, ctx, r))
}

func TestInnerParagraphStopsAtBlankLine(t *testing.T) {
	ctx := newCtx(t, "a\nb\n\nc\n")
	r, ok := InnerParagraph(ctx, 0)
	require.True(t, ok)
	require.Equal(t, "a\nb", text(t, ctx, r))
}

func TestOuterParagraphIncludesBlankSeparator(t *testing.T) {
	ctx := newCtx(t, "a\nb\n\nc\n")
	r, ok := OuterParagraph(ctx, 0)
	require.True(t, ok)
	require.Equal(t, "a\nb\n\n", text(t, ctx, r))
}

func TestBracketPairShallowestSurroundingWins(t *testing.T) {
	ctx := newCtx(t, "a(b(c)d)e")

	r, ok := BracketPair('(', true)(ctx, 4)
	require.True(t, ok)
	require.Equal(t, "c", text(t, ctx, r), "cursor inside the inner pair picks it")

	r, ok = BracketPair('(', true)(ctx, 6)
	require.True(t, ok)
	require.Equal(t, "b(c)d", text(t, ctx, r), "cursor between pairs picks the enclosing one")

	r, ok = BracketPair('(', false)(ctx, 6)
	require.True(t, ok)
	require.Equal(t, "(b(c)d)", text(t, ctx, r))
}

func TestBracketPairCursorOnDelimiter(t *testing.T) {
	ctx := newCtx(t, "x(abc)y")

	r, ok := BracketPair('(', false)(ctx, 1)
	require.True(t, ok)
	require.Equal(t, "(abc)", text(t, ctx, r), "cursor on the open bracket")

	r, ok = BracketPair('(', false)(ctx, 5)
	require.True(t, ok)
	require.Equal(t, "(abc)", text(t, ctx, r), "cursor on the close bracket")
}

func TestBracketPairNoPairFails(t *testing.T) {
	ctx := newCtx(t, "no brackets here")
	_, ok := BracketPair('(', true)(ctx, 3)
	require.False(t, ok)
}

func TestQuotePairInnerAndOuter(t *testing.T) {
	ctx := newCtx(t, `say "hi" now`)

	r, ok := QuotePair('"', true)(ctx, 6)
	require.True(t, ok)
	require.Equal(t, "hi", text(t, ctx, r))

	r, ok = QuotePair('"', false)(ctx, 6)
	require.True(t, ok)
	require.Equal(t, `"hi"`, text(t, ctx, r))
}

// TestQuotePairClosingContextInversion exercises the special rule:
// on a delimiter whose next byte is whitespace (a closing context), the
// search direction inverts so the enclosing pair is chosen.
func TestQuotePairClosingContextInversion(t *testing.T) {
	ctx := newCtx(t, `a "b" c`)
	r, ok := QuotePair('"', true)(ctx, 4)
	require.True(t, ok)
	require.Equal(t, "b", text(t, ctx, r))
}

func TestFunctionBodyFindsBraceBlock(t *testing.T) {
	ctx := newCtx(t, "int f(void) {\n\treturn 0;\n}\n")
	r, ok := FunctionBody(ctx, 0)
	require.True(t, ok)
	require.Equal(t, "{\n\treturn 0;\n}", text(t, ctx, r))
}

func TestFunctionBodyWithoutBracesFails(t *testing.T) {
	ctx := newCtx(t, "no body here\n")
	_, ok := FunctionBody(ctx, 0)
	require.False(t, ok)
}
