package mode

import (
	"github.com/vis-editor/core/motion"
	"github.com/vis-editor/core/operator"
	"github.com/vis-editor/core/textobject"
)

// init wires the concrete key -> Binding tables for the MOVE, OPERATOR,
// TEXTOBJ and NORMAL/VISUAL nodes of the mode tree: h/j/k/l, w/b/e,
// d/c/y + a motion or text object, v/V. This is not an exhaustive vi
// keymap, just the core set; ":map" extends it at runtime.
func init() {
	bindMotions(Move, map[string]motion.Motion{
		"h":     motion.CharLeft,
		"l":     motion.CharRight,
		"j":     motion.LineDown,
		"k":     motion.LineUp,
		"w":     motion.WordForward,
		"b":     motion.WordBackward,
		"e":     motion.WordEnd,
		"W":     motion.LongWordForward,
		"B":     motion.LongWordBackward,
		"E":     motion.LongWordEnd,
		"0":     motion.LineBegin,
		"^":     motion.LineStart,
		"$":     motion.LineFinish,
		"(":     motion.SentenceBackward,
		")":     motion.SentenceForward,
		"{":     motion.ParagraphBackward,
		"}":     motion.ParagraphForward,
		"%": motion.PercentOfFile,
	})
	Move.Bindings["`"] = Binding{Kind: BindMarkGoto}
	Move.Bindings["'"] = Binding{Kind: BindMarkGoto}

	bindTextObjects(InnerTextobj, map[string]textobject.Func{
		"iw": textobject.InnerWord,
		"iW": textobject.InnerLongWord,
		"il": textobject.InnerLine,
		"is": textobject.InnerSentence,
		"ip": textobject.InnerParagraph,
		"i(": textobject.BracketPair('(', true),
		"i[": textobject.BracketPair('[', true),
		"i{": textobject.BracketPair('{', true),
		`i"`: textobject.QuotePair('"', true),
	})
	bindTextObjects(Textobj, map[string]textobject.Func{
		"aw": textobject.OuterWord,
		"aW": textobject.OuterLongWord,
		"al": textobject.OuterLine,
		"as": textobject.OuterSentence,
		"ap": textobject.OuterParagraph,
		"a(": textobject.BracketPair('(', false),
		"a[": textobject.BracketPair('[', false),
		"a{": textobject.BracketPair('{', false),
		`a"`: textobject.QuotePair('"', false),
	})

	bindOperators(OperatorMode, map[string]operator.Func{
		"d": operator.Delete,
		"c": operator.Change,
		"y": operator.Yank,
		"p": operator.Put,
		"<": operator.ShiftLeft,
		">": operator.ShiftRight,
		"J": operator.Join,
		"r": operator.Replace,
	})

	Normal.Bindings["\""] = Binding{Kind: BindRegister}
	Normal.Bindings["m"] = Binding{Kind: BindMarkSet}
	Normal.Bindings["u"] = Binding{Kind: BindUndo}
	Normal.Bindings["\x12"] = Binding{Kind: BindRedo} // <C-r>
	Normal.Bindings["."] = Binding{Kind: BindRepeat}

	Normal.Bindings["i"] = Binding{Kind: BindModeSwitch, Next: Insert}
	Normal.Bindings["R"] = Binding{Kind: BindModeSwitch, Next: Replace}
	Normal.Bindings["v"] = Binding{Kind: BindModeSwitch, Next: Visual}
	Normal.Bindings["V"] = Binding{Kind: BindModeSwitch, Next: VisualLine}
	Visual.Bindings["v"] = Binding{Kind: BindModeSwitch, Next: Normal}
	VisualLine.Bindings["V"] = Binding{Kind: BindModeSwitch, Next: Normal}
}

func bindMotions(m *Mode, table map[string]motion.Motion) {
	for key, mv := range table {
		m.Bindings[key] = Binding{Kind: BindMotion, Motion: mv}
	}
}

func bindTextObjects(m *Mode, table map[string]textobject.Func) {
	for key, fn := range table {
		m.Bindings[key] = Binding{Kind: BindTextObject, TextObj: fn}
	}
}

func bindOperators(m *Mode, table map[string]operator.Func) {
	for key, fn := range table {
		m.Bindings[key] = Binding{Kind: BindOperator, Operator: fn, Next: RegisterMode}
	}
}
