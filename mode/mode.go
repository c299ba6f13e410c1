// Package mode implements the rooted mode tree with parent fallback for
// key lookup, and the Action dispatcher that accumulates a keystroke
// sequence into count/register/operator/motion/textobject/mark components
// before evaluating it against every selection in the active view.
package mode

import (
	"reflect"
	"strings"

	"github.com/vis-editor/core/mark"
	"github.com/vis-editor/core/motion"
	"github.com/vis-editor/core/operator"
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/register"
	"github.com/vis-editor/core/textobject"
	"github.com/vis-editor/core/view"
)

// Mode is one node in the key-binding tree (the diagram). Key
// lookup walks from the current Mode up through Parent until a Binding is
// found, matching the longest prefix registered anywhere on that path.
type Mode struct {
	Name     string
	Parent   *Mode
	Bindings map[string]Binding
}

// BindingKind classifies what a keystroke does to the in-progress Action.
type BindingKind int

const (
	// BindCount appends a digit to Action.Count.
	BindCount BindingKind = iota
	// BindRegister marks that the next keystroke names a register.
	BindRegister
	// BindMarkSet marks that the next keystroke names a mark to set.
	BindMarkSet
	// BindMarkGoto marks that the next keystroke names a mark to jump to.
	BindMarkGoto
	// BindOperator sets Action.Operator and switches to the Operator mode.
	BindOperator
	// BindMotion sets Action.Motion, completing the Action in Normal mode.
	BindMotion
	// BindTextObject sets Action.TextObject, completing the Action when an
	// operator is already pending.
	BindTextObject
	// BindModeSwitch changes Dispatcher.Current without touching Action.
	BindModeSwitch
	// BindUndo/BindRedo run directly against the document history and
	// complete the Action without a motion/operator pair.
	BindUndo
	BindRedo
	// BindRemap replays Keys through Feed in place of the pressed key, the
	// primitive ":map"/":unmap" edit.
	BindRemap
	// BindRepeat replays ActionPrev, including any captured inserted text
	// (the "." semantics).
	BindRepeat
)

// Binding is what firing one key sequence does.
type Binding struct {
	Kind     BindingKind
	Motion   motion.Motion
	TextObj  textobject.Func
	Operator operator.Func
	Next     *Mode    // mode entered after this binding fires, nil to stay put
	Keys     []string // BindRemap's replacement key sequence
}

// The mode tree: a static parent chain, with Reparent below covering the
// two edges that are only live while an operator is pending.
var (
	Basic          = &Mode{Name: "BASIC", Bindings: map[string]Binding{}}
	Readline       = &Mode{Name: "READLINE", Parent: Basic, Bindings: map[string]Binding{}}
	InsertReg      = &Mode{Name: "INSERT-REG", Parent: Readline, Bindings: map[string]Binding{}}
	Prompt         = &Mode{Name: "PROMPT", Parent: Readline, Bindings: map[string]Binding{}}
	Insert         = &Mode{Name: "INSERT", Parent: InsertReg, Bindings: map[string]Binding{}}
	Replace        = &Mode{Name: "REPLACE", Parent: Insert, Bindings: map[string]Binding{}}
	MarkMode       = &Mode{Name: "MARK", Parent: Basic, Bindings: map[string]Binding{}}
	MarkLine       = &Mode{Name: "MARK-LINE", Parent: MarkMode, Bindings: map[string]Binding{}}
	Move           = &Mode{Name: "MOVE", Parent: MarkLine, Bindings: map[string]Binding{}}
	OperatorMode   = &Mode{Name: "OPERATOR", Parent: Move, Bindings: map[string]Binding{}}
	InnerTextobj   = &Mode{Name: "INNER-TEXTOBJ", Parent: Move, Bindings: map[string]Binding{}}
	RegisterMode   = &Mode{Name: "REGISTER", Parent: OperatorMode, Bindings: map[string]Binding{}}
	Textobj        = &Mode{Name: "TEXTOBJ", Parent: InnerTextobj, Bindings: map[string]Binding{}}
	MarkSet        = &Mode{Name: "MARK-SET", Parent: RegisterMode, Bindings: map[string]Binding{}}
	OperatorOption = &Mode{Name: "OPERATOR-OPTION", Parent: Textobj, Bindings: map[string]Binding{}}
	Normal         = &Mode{Name: "NORMAL", Parent: MarkSet, Bindings: map[string]Binding{}}
	Visual         = &Mode{Name: "VISUAL", Parent: Normal, Bindings: map[string]Binding{}}
	VisualLine     = &Mode{Name: "VISUAL-LINE", Parent: Visual, Bindings: map[string]Binding{}}
)

// operatorHomeParent is OperatorMode's static parent (Move). For the
// diagram's "OPERATOR === INNER-TEXTOBJ" double edge: while an operator is
// pending, text-object keys must resolve through Operator's chain too, so
// Reparent temporarily points OperatorMode at Textobj and puts
// operatorHomeParent back on completion. This mutates shared Mode values, so callers must restore
// before any concurrent dispatch; acceptable since a single editor
// goroutine owns all of this.
var operatorHomeParent = OperatorMode.Parent

// Reparent implements the "runtime reparenting events to keep text objects
// reachable during operator entry" the diagram's double edges describe.
// enterPending is true on entering Operator/OperatorOption (reparent toward
// Move/Textobj's sibling chain so text objects resolve); false restores the
// static tree.
func Reparent(enterPending bool) {
	if enterPending {
		// Textobj chains through InnerTextobj, so both inner and outer
		// objects resolve while an operator is pending.
		OperatorMode.Parent = Textobj
	} else {
		OperatorMode.Parent = operatorHomeParent
	}
}

// Action accumulates one dispatch cycle's state.
type Action struct {
	Count      int
	Register   register.Name
	HasReg     bool
	Operator   operator.Func
	Motion     motion.Motion
	HasMotion  bool
	TextObject textobject.Func
	HasTextObj bool
	Mark       mark.Name
	Arg        string
	ModeName   string

	// InsertedText is the keystroke capture between operator start and
	// mode-return: "5cw...esc" stores the typed text here so "."
	// re-inserts it.
	InsertedText string
}

func (a *Action) effectiveCount() int {
	if a.Count <= 0 {
		return 1
	}
	return a.Count
}

// awaitKind names what the next single keystroke is being captured for.
type awaitKind int

const (
	awaitNone awaitKind = iota
	awaitRegister
	awaitMarkSet
	awaitMarkGoto
)

// Undoer is the document-level undo/redo contract BindUndo/BindRedo drive
//. Both methods report the byte position the cursor should land
// on, matching document.Document.Undo/Redo's signature exactly so a
// *document.Document satisfies this without mode importing document (which
// would invert the package's place below document in the dependency order).
type Undoer interface {
	Undo() (pos int, ok bool)
	Redo() (pos int, ok bool)
}

// Dispatcher walks keystrokes through the Mode tree, assembling an Action
// and, once one completes, evaluating it against a View.
type Dispatcher struct {
	Current *Mode
	pending Action
	await   awaitKind

	// prefix holds a partially matched multi-key sequence ("i" of "iw"),
	//'s longest-prefix lookup rule.
	prefix string

	// capturing/insertBuf record insert-mode keystrokes for the repeat
	// target while an operator-initiated insert is open.
	capturing bool
	insertBuf []byte

	// ActionPrev is the last non-replay Action, the repeat (".") target.
	ActionPrev Action

	Jumplist []int

	// History backs BindUndo/BindRedo. Left nil, "u"/"<C-r>" resolve to a
	// no-op rather than panicking, so a Dispatcher built without a document
	// (e.g. mode_test.go's fixtures that don't exercise undo) stays usable.
	History Undoer
}

// NewDispatcher returns a Dispatcher starting in Normal mode.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{Current: Normal}
}

func (d *Dispatcher) resolve(key string) (Binding, bool) {
	for m := d.Current; m != nil; m = m.Parent {
		if b, ok := m.Bindings[key]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// hasPrefixBinding reports whether some reachable binding's key sequence
// begins with seq but is longer, meaning more keys can still complete it.
func (d *Dispatcher) hasPrefixBinding(seq string) bool {
	for m := d.Current; m != nil; m = m.Parent {
		for k := range m.Bindings {
			if len(k) > len(seq) && strings.HasPrefix(k, seq) {
				return true
			}
		}
	}
	return false
}

// inInsert reports whether the current mode is INSERT or a descendant
// (REPLACE), where unmapped keys are literal text rather than errors.
func (d *Dispatcher) inInsert() bool {
	for m := d.Current; m != nil; m = m.Parent {
		if m == Insert {
			return true
		}
	}
	return false
}

// Feed processes one keystroke (already decoded to a logical key name, e.g.
// "h", "<C-r>", a digit, or a printable rune as its UTF-8 string). It
// returns true once a complete Action has been produced and dispatched.
func (d *Dispatcher) Feed(v *view.View, ctx *motion.Context, regs *register.Store, key string) (bool, error) {
	switch d.await {
	case awaitRegister:
		d.await = awaitNone
		if len(key) == 1 {
			d.pending.Register = register.Name(key[0])
			d.pending.HasReg = true
		}
		return false, nil
	case awaitMarkSet:
		d.await = awaitNone
		if len(key) == 1 && mark.IsLetter(mark.Name(key[0])) {
			ctx.Marks.SetName(ctx.Table, mark.Name(key[0]), v.Primary().Head)
		}
		d.reset()
		return true, nil
	case awaitMarkGoto:
		d.await = awaitNone
		if len(key) != 1 {
			d.reset()
			return false, nil
		}
		d.pending.Mark = mark.Name(key[0])
		d.pending.Motion = motion.ToMark(d.pending.Mark)
		d.pending.HasMotion = true
		if d.actionComplete() {
			d.dispatch(v, ctx, regs)
			d.reset()
			return true, nil
		}
		return false, nil
	}

	if d.inInsert() {
		return d.feedInsert(v, ctx, key)
	}

	if key == "\x1b" {
		// Escape aborts whatever is pending; in a visual mode it also
		// returns to Normal.
		d.reset()
		return false, nil
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' || (len(key) == 1 && key[0] == '0' && d.pending.Count > 0) {
		d.pending.Count = d.pending.Count*10 + int(key[0]-'0')
		return false, nil
	}

	if d.prefix != "" {
		seq := d.prefix + key
		d.prefix = ""
		if b, ok := d.resolve(seq); ok {
			return d.fire(v, ctx, regs, b)
		}
		if d.hasPrefixBinding(seq) {
			d.prefix = seq
			return false, nil
		}
		// The sequence died; fall through and retry key on its own.
	}

	b, ok := d.resolve(key)
	if !ok {
		if d.hasPrefixBinding(key) {
			d.prefix = key
			return false, nil
		}
		// Unbound key: reset any in-progress Action rather than dispatch
		// garbage, matching vi's convention of aborting on an invalid
		// continuation.
		d.reset()
		return false, nil
	}
	return d.fire(v, ctx, regs, b)
}

// feedInsert handles one keystroke while in INSERT/REPLACE mode: Escape
// returns to Normal (closing any repeat capture), anything else becomes
// literal text at every selection.
func (d *Dispatcher) feedInsert(v *view.View, ctx *motion.Context, key string) (bool, error) {
	if key == "\x1b" {
		if d.capturing {
			d.ActionPrev.InsertedText = string(d.insertBuf)
			d.capturing = false
			d.insertBuf = nil
		}
		d.Current = Normal
		return true, nil
	}
	overwrite := d.Current == Replace
	d.insertAtSelections(v, ctx, []byte(key), overwrite)
	if d.capturing {
		d.insertBuf = append(d.insertBuf, key...)
	}
	return false, nil
}

// insertAtSelections types text at every selection head in order, shifting
// later selections by the bytes earlier insertions added (the same delta
// rule dispatch applies to operators). overwrite implements REPLACE mode:
// each insertion first consumes one byte unless at EOL/EOF.
func (d *Dispatcher) insertAtSelections(v *view.View, ctx *motion.Context, text []byte, overwrite bool) {
	sels := append([]view.Selection(nil), v.Selections()...)
	out := make([]view.Selection, 0, len(sels))
	delta := 0
	for _, sel := range sels {
		pos := sel.Head + delta
		sizeBefore := ctx.Table.Size()
		if overwrite && pos < sizeBefore {
			var b [1]byte
			ctx.Table.Read(pos, b[:])
			if b[0] != '\n' {
				ctx.Table.Delete(pos, 1)
			}
		}
		if err := ctx.Table.Insert(pos, text); err != nil {
			out = append(out, view.Selection{Head: pos})
			continue
		}
		delta += ctx.Table.Size() - sizeBefore
		out = append(out, view.Selection{Head: pos + len(text)})
	}
	v.SetSelections(out)
}

// fire applies one resolved Binding to the in-progress Action.
func (d *Dispatcher) fire(v *view.View, ctx *motion.Context, regs *register.Store, b Binding) (bool, error) {
	switch b.Kind {
	case BindRegister:
		d.await = awaitRegister
		return false, nil
	case BindMarkSet:
		d.await = awaitMarkSet
		return false, nil
	case BindMarkGoto:
		d.await = awaitMarkGoto
		return false, nil
	case BindOperator:
		d.pending.Operator = b.Operator
		// An operator alone in visual mode completes immediately,
		// against the existing selection range, rather than waiting for a
		// motion/textobject the way normal mode does.
		if d.Current == Visual || d.Current == VisualLine {
			d.dispatch(v, ctx, regs)
			d.reset()
			return true, nil
		}
		if b.Next != nil {
			d.Current = b.Next
		}
		Reparent(true)
		return false, nil
	case BindModeSwitch:
		if b.Next != nil {
			d.Current = b.Next
		}
		if d.inInsert() {
			// A fresh insert is its own repeat target: "ihello<esc>." types
			// hello again.
			d.ActionPrev = Action{}
			d.capturing = true
			d.insertBuf = nil
		}
		return false, nil
	case BindRepeat:
		d.runRepeat(v, ctx, regs)
		d.reset()
		return true, nil
	case BindRemap:
		// ":map"'s replacement: replay each key of b.Keys through Feed in
		// place of the one that was pressed, as if the user had typed them.
		// The last sub-Feed's return value is what the caller sees.
		var done bool
		var err error
		for _, k := range b.Keys {
			done, err = d.Feed(v, ctx, regs, k)
			if err != nil {
				return done, err
			}
		}
		return done, nil
	case BindUndo, BindRedo:
		d.dispatchHistory(v, b.Kind)
		d.reset()
		return true, nil
	case BindMotion:
		d.pending.Motion = b.Motion
		d.pending.HasMotion = true
	case BindTextObject:
		d.pending.TextObject = b.TextObj
		d.pending.HasTextObj = true
	}

	if d.actionComplete() {
		d.dispatch(v, ctx, regs)
		d.reset()
		return true, nil
	}
	return false, nil
}

// actionComplete mirrors the "operator + motion, or motion alone in
// normal mode" rules. The third rule ("operator alone in visual mode") is
// handled inline in the BindOperator case above, where the mode-at-keypress
// is still known before any Next-mode transition overwrites it.
func (d *Dispatcher) actionComplete() bool {
	if d.pending.Operator != nil && (d.pending.HasMotion || d.pending.HasTextObj) {
		return true
	}
	if d.pending.Operator == nil && d.pending.HasMotion {
		return true
	}
	return false
}

// dispatchHistory runs BindUndo/BindRedo against d.History: undo pops one
// Action and places the cursor at the edit's position; redo re-applies
// one. All selections collapse to a single one at that
// position, matching vi's own u/<C-r> cursor behavior rather than trying to
// carry multiple independent cursors through an undo that may have added or
// removed text under some of them.
func (d *Dispatcher) dispatchHistory(v *view.View, kind BindingKind) {
	if d.History == nil {
		return
	}
	var pos int
	var ok bool
	switch kind {
	case BindUndo:
		pos, ok = d.History.Undo()
	case BindRedo:
		pos, ok = d.History.Redo()
	}
	if !ok {
		return
	}
	v.SetSelections([]view.Selection{{Head: pos}})
}

// isPercentOfFile reports whether m is motion.PercentOfFile, the "%"
// binding's placeholder ("% of file"): PercentOfFile itself
// always fails since its target depends on the count the dispatcher has
// accumulated, which PercentOfFileN(count) supplies. Compared by function
// pointer since Motion values aren't otherwise comparable.
func isPercentOfFile(m motion.Motion) bool {
	return reflect.ValueOf(m.Fn).Pointer() == reflect.ValueOf(motion.PercentOfFile.Fn).Pointer()
}

// dispatch runs the completed Action against every selection in v, per
// the per-selection evaluate-then-normalize pass.
func (d *Dispatcher) dispatch(v *view.View, ctx *motion.Context, regs *register.Store) {
	d.dispatchWith(v, ctx, regs, false)
}

func (d *Dispatcher) dispatchWith(v *view.View, ctx *motion.Context, regs *register.Store, replay bool) {
	if !replay && d.pending.Operator != nil {
		// Record into the repeat ("." / action_prev) slot now, before the
		// pass below mutates nothing of d.pending itself. A replay must
		// not overwrite it, and motion-only actions don't change the
		// buffer so they are not repeat targets either.
		d.ActionPrev = d.pending
	}
	count := d.pending.effectiveCount()
	sels := append([]view.Selection(nil), v.Selections()...)
	out := make([]view.Selection, 0, len(sels))
	jump := false

	// Selections are ordered by head, so each operator's mutation lies at or
	// before every later selection; delta carries the accumulated size shift
	// so later selections still land on the text they covered.
	delta := 0

	for _, sel := range sels {
		start, end := sel.Range()
		start += delta
		end += delta
		pos := sel.Head + delta
		linewise := false

		if d.pending.HasMotion {
			m := d.pending.Motion
			if isPercentOfFile(m) {
				m = motion.PercentOfFileN(count)
			}
			next, ok := m.Apply(ctx, pos, count)
			if !ok {
				out = append(out, view.Selection{Head: pos, Anchor: sel.Anchor + delta, Anchored: sel.Anchored})
				continue
			}
			if m.Flags&motion.Jump != 0 {
				jump = true
			}
			if d.pending.Operator == nil {
				out = append(out, view.Selection{Head: next})
				continue
			}
			start, end = orderRange(pos, next, m.Flags)
			if m.Flags&motion.Linewise != 0 {
				start, end = lineExtend(ctx.Table, start, end)
				linewise = true
			}
		} else if d.pending.HasTextObj {
			r, ok := d.pending.TextObject(ctx, pos)
			if !ok {
				out = append(out, view.Selection{Head: pos, Anchor: sel.Anchor + delta, Anchored: sel.Anchored})
				continue
			}
			start, end = r.Start, r.End
		}

		if d.pending.Operator == nil {
			out = append(out, view.Selection{Head: pos, Anchor: sel.Anchor + delta, Anchored: sel.Anchored})
			continue
		}

		sizeBefore := ctx.Table.Size()
		res, err := d.pending.Operator(operator.Ctx{
			Table:    ctx.Table,
			Regs:     regs,
			Start:    start,
			End:      end,
			Pos:      pos,
			Count:    count,
			RegName:  regName(d.pending),
			Linewise: linewise,
		})
		delta += ctx.Table.Size() - sizeBefore
		if err != nil {
			out = append(out, view.Selection{Head: pos})
			continue
		}
		if res.Disp == operator.Dispose {
			continue
		}
		out = append(out, view.Selection{Head: res.NewPos})
	}

	if len(out) == 0 {
		out = []view.Selection{{Head: 0}}
	}
	v.SetSelections(out)

	if jump {
		d.Jumplist = append(d.Jumplist, v.Primary().Head)
	}
	Reparent(false)

	if !replay && isChange(d.pending.Operator) {
		// Change drops into insert mode with keystroke capture so "." can
		// re-run the whole delete-then-type sequence.
		d.Current = Insert
		d.capturing = true
		d.insertBuf = nil
	}
}

// runRepeat replays ActionPrev ("."): the operator/motion pass first, then
// any captured inserted text, typed again at every selection.
func (d *Dispatcher) runRepeat(v *view.View, ctx *motion.Context, regs *register.Store) {
	prev := d.ActionPrev
	if prev.Operator == nil && !prev.HasMotion && !prev.HasTextObj && prev.InsertedText == "" {
		return
	}
	saved := d.pending
	d.pending = prev
	if prev.Operator != nil || prev.HasMotion || prev.HasTextObj {
		d.dispatchWith(v, ctx, regs, true)
	}
	if prev.InsertedText != "" {
		d.insertAtSelections(v, ctx, []byte(prev.InsertedText), false)
	}
	d.pending = saved
	d.Current = Normal
	d.capturing = false
}

func isChange(op operator.Func) bool {
	if op == nil {
		return false
	}
	return reflect.ValueOf(op).Pointer() == reflect.ValueOf(operator.Change).Pointer()
}

func regName(a Action) register.Name {
	if a.HasReg {
		return a.Register
	}
	return register.Default
}

// lineExtend widens [start,end) to whole lines, including the trailing
// newline of the last line covered (the Linewise bit).
func lineExtend(t *piece.Table, start, end int) (int, int) {
	var b [1]byte
	for start > 0 {
		t.Read(start-1, b[:])
		if b[0] == '\n' {
			break
		}
		start--
	}
	size := t.Size()
	for end < size {
		t.Read(end, b[:])
		end++
		if b[0] == '\n' {
			break
		}
	}
	return start, end
}

// orderRange turns a motion's (pos, next) pair into a [start,end) range,
// honoring Linewise/Inclusive/Charwise
func orderRange(pos, next int, flags motion.Flags) (int, int) {
	start, end := pos, next
	if start > end {
		start, end = end, start
	}
	if flags&motion.Inclusive != 0 {
		end++
	}
	return start, end
}

func (d *Dispatcher) reset() {
	d.pending = Action{}
	d.prefix = ""
	// A Change operator leaves the dispatcher in INSERT mode with capture
	// open; resetting the pending Action must not yank it back out.
	if !d.inInsert() {
		d.Current = Normal
	}
	Reparent(false)
}
