package command

import (
	"github.com/pkg/errors"

	"github.com/vis-editor/core/document"
	"github.com/vis-editor/core/mode"
	"github.com/vis-editor/core/motion"
	"github.com/vis-editor/core/sam"
	"github.com/vis-editor/core/slab"
	"github.com/vis-editor/core/view"
)

// Window pairs one open Document with the View/Dispatcher that drive it,
// the unit the split/vsplit/new/vnew commands create and destroy.
type Window struct {
	Doc        *document.Document
	View       *view.View
	Dispatcher *mode.Dispatcher

	opt *Options
	ctx *motion.Context
}

func newWindow(doc *document.Document, opt *Options) *Window {
	v := view.New(doc.Table, doc.Marks, 80, 24, opt.TabWidth)
	d := mode.NewDispatcher()
	d.History = doc
	return &Window{Doc: doc, View: v, Dispatcher: d, opt: opt}
}

// motionContext builds the per-keystroke motion.Context,
// memoized on the Window so SearchPattern/SearchForward persist across
// keystrokes (search-repeat reuses the same *motion.Context).
func (w *Window) motionContext(opt *Options) *motion.Context {
	if w.ctx == nil {
		w.ctx = &motion.Context{Table: w.Doc.Table, Marks: w.Doc.Marks, TabWidth: opt.TabWidth}
	}
	return w.ctx
}

// Context returns w's motion.Context, built from the Options in effect
// when w was opened. Exported for callers outside the command package
// (cmd/vis's keystroke loop) that need to drive Dispatcher.Feed directly
// without going through Editor.ExecuteLine.
func (w *Window) Context() *motion.Context {
	return w.motionContext(w.opt)
}

// Editor is the top-level aggregate the command surface operates on:
// every open Window plus the shared :set option table.
type Editor struct {
	Windows []*Window
	Current int
	Options *Options

	// Interrupted is checked by sam.Executor at subprocess I/O boundaries;
	// SIGINT sets the flag. Set by the main loop's signal handler.
	Interrupted func() bool

	quit      bool
	quitForce bool
}

// NewEditor returns an Editor with default options and no open windows.
func NewEditor() *Editor {
	return &Editor{Options: DefaultOptions()}
}

// CurrentWindow returns the active window, or nil if none is open.
func (ed *Editor) CurrentWindow() *Window {
	if ed.Current < 0 || ed.Current >= len(ed.Windows) {
		return nil
	}
	return ed.Windows[ed.Current]
}

// OpenEmpty opens a new, unnamed Document in a new window and makes it
// current.
func (ed *Editor) OpenEmpty() *Window {
	w := newWindow(document.New(), ed.Options)
	ed.Windows = append(ed.Windows, w)
	ed.Current = len(ed.Windows) - 1
	return w
}

// OpenFile opens path into a new window, honoring the loadmethod option.
func (ed *Editor) OpenFile(path string) (*Window, error) {
	doc, err := document.Open(path, loadMethodToSlab(ed.Options.LoadMethod))
	if err != nil {
		return nil, err
	}
	w := newWindow(doc, ed.Options)
	ed.Windows = append(ed.Windows, w)
	ed.Current = len(ed.Windows) - 1
	return w, nil
}

func loadMethodToSlab(m LoadMethod) slab.Method {
	switch m {
	case LoadRead:
		return slab.Read
	case LoadMmap:
		return slab.Mmap
	default:
		return slab.Auto
	}
}

// closeCurrent removes the current window from the Windows slice. It does
// not itself check Modified(); callers (ExecuteLine's
// quit handler) apply the force/!-unsaved-changes guard first.
func (ed *Editor) closeCurrent() {
	if len(ed.Windows) == 0 {
		return
	}
	i := ed.Current
	ed.Windows = append(ed.Windows[:i], ed.Windows[i+1:]...)
	if ed.Current >= len(ed.Windows) {
		ed.Current = len(ed.Windows) - 1
	}
}

// Quitting reports whether a :quit/:qall/Sam 'q' has asked the main loop to
// exit. forced distinguishes a forced quit (discard unsaved changes,
// the "!" prefix) from a clean one.
func (ed *Editor) Quitting() (quit, forced bool) { return ed.quit, ed.quitForce }

// newSamExecutor constructs a sam.Executor wired to w's table/marks, with
// FileOps/ShellFilter bound to ed so Sam's w/r/e/q commands
// reach real document and subprocess behavior.
func (ed *Editor) newSamExecutor(w *Window) *sam.Executor {
	win := sam.NewWindow(w.Doc.Table, w.Doc.Marks)
	exec := sam.NewExecutor(win)
	exec.Shell = execShell{shell: ed.Options.Shell}
	exec.Files = &fileOps{ed: ed, w: w}
	exec.Interrupted = ed.Interrupted
	exec.Regs = w.Doc.Regs
	exec.MultiFile = multiFileSet{ed: ed}
	return exec
}

// windowByName returns the open Window whose Document.Name is name, or nil.
func (ed *Editor) windowByName(name string) *Window {
	for _, w := range ed.Windows {
		if w.Doc.Name == name {
			return w
		}
	}
	return nil
}

// multiFileSet implements sam.FileSet against ed's open windows, backing
// X/Y's per-matching-file loop.
type multiFileSet struct{ ed *Editor }

func (m multiFileSet) Names() []string {
	names := make([]string, len(m.ed.Windows))
	for i, w := range m.ed.Windows {
		names[i] = w.Doc.Name
	}
	return names
}

func (m multiFileSet) RunOnFile(name string, fn func(*sam.Executor) error) error {
	w := m.ed.windowByName(name)
	if w == nil {
		return errors.Errorf("sam: no open window named %q", name)
	}
	exec := m.ed.newSamExecutor(w)
	if err := fn(exec); err != nil {
		return err
	}
	w.Doc.Snapshot()
	if err := exec.Transcript.Apply(w.Doc.Insert, w.Doc.Delete); err != nil {
		return err
	}
	w.Doc.Snapshot()
	w.View.Rebind()
	return nil
}

// RunSam parses and executes a Sam command string against the current
// window's whole-file range, applying its Transcript on success. A parse
// or exec error leaves the document untouched.
func (ed *Editor) RunSam(src string) error {
	w := ed.CurrentWindow()
	if w == nil {
		return errors.New("sam: no window open")
	}
	cmd, err := sam.Parse(src)
	if err != nil {
		return err
	}
	exec := ed.newSamExecutor(w)
	whole := sam.Range{Start: 0, End: w.Doc.Table.Size()}
	if err := exec.Execute(cmd, whole); err != nil {
		return err
	}
	w.Doc.Snapshot()
	// Apply through Document.Insert/Delete, not Executor.Apply's raw
	// piece.Table path, so the line cache and dirty-line bitmap stay
	// consistent with Sam-driven edits exactly as they do for
	// motion/operator-driven ones.
	if err := exec.Transcript.Apply(w.Doc.Insert, w.Doc.Delete); err != nil {
		return err
	}
	w.Doc.Snapshot()
	w.View.Rebind()
	return nil
}
