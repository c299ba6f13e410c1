package sam

import (
	"github.com/vis-editor/core/piece"
	"github.com/vis-editor/core/regex"
	"github.com/vis-editor/core/register"
)

// ShellFilter is the out-of-scope subprocess contract:
// the core hands over a byte range and a shell command line and receives
// back replacement bytes and an exit status. No process-spawning mechanics
// live in this package.
type ShellFilter interface {
	Run(command string, input []byte) (output []byte, exitStatus int, err error)
}

// FileOps are the out-of-scope write/read/edit/quit hooks; file open/save
// I/O mechanics live outside this package. Left nil, w/r/e/q
// commands fail with CommandFailed.
type FileOps interface {
	Write(path string, force bool) error
	Read(path string) ([]byte, error)
	Edit(path string, force bool) error
	Quit(force bool) error
}

// Placement records a 'p' command's range, for the caller (mode/view layer)
// to turn into a selection after Execute returns.
type Placement struct {
	Range Range
}

// FileSet is the multi-file collaborator X/Y need: as x/y, but over the
// set of open files matched by regex on filename. Names lists the
// currently open files; RunOnFile hands a fresh Executor scoped to the named
// file to fn, then applies whatever Transcript fn staged against that file
// before returning. Left nil, X/Y fail with CommandFailed.
type FileSet interface {
	Names() []string
	RunOnFile(name string, fn func(*Executor) error) error
}

// Executor walks a parsed Cmd tree against a Window, building a
// Transcript rather than mutating the document directly: inner commands
// never mutate, they append Change records.
type Executor struct {
	Win    *Window
	Shell  ShellFilter
	Files  FileOps
	Interrupted func() bool

	// Regs backs the '&'/'1'-'9' match registers: populated from
	// the pattern currently in scope wherever a command's own regex match
	// becomes "the current match" (g's guard, and each x/s iteration; v
	// and y have no match of their own to record).
	// Left nil, those commands still run; only the register side effect is
	// skipped.
	Regs *register.Store

	// MultiFile backs X/Y. Left nil, X/Y fail with
	// CommandFailed rather than silently falling back to x/y's single-file
	// behavior.
	MultiFile FileSet

	Transcript Transcript
	Placements []Placement
}

// populateMatchRegisters records r's match (evaluated against c) into the
// '&'/'1'-'9' registers.
func (e *Executor) populateMatchRegisters(c *regex.Compiled, r Range) {
	if e.Regs == nil {
		return
	}
	e.Regs.PutMatch(c.Submatches(e.Win.Table, r.Start, r.End))
}

// NewExecutor returns an Executor over win.
func NewExecutor(win *Window) *Executor {
	return &Executor{Win: win}
}

// Execute validates cmd (rejecting destructive commands nested in loops or
// groups) then walks it, staging every mutation into
// e.Transcript. Nothing is applied to the document here; call Apply
// afterward. cur is the starting "current range" (typically the whole
// document or the active selection).
func (e *Executor) Execute(cmd *Cmd, cur Range) error {
	if err := validate(cmd, false); err != nil {
		return err
	}
	_, err := e.run(cmd, cur)
	return err
}

func validate(cmd *Cmd, nested bool) error {
	if cmd == nil {
		return nil
	}
	if nested && (cmd.Name == CmdQuit) {
		return errSyntaxExec("LoopDestructive", "destructive command inside loop/group")
	}
	switch cmd.Name {
	case CmdGuard, CmdVeto, CmdLoopX, CmdLoopY, CmdLoopXFile, CmdLoopYFile:
		return validate(cmd.Sub, true)
	case CmdGroup:
		for _, sub := range cmd.Group {
			if err := validate(sub, true); err != nil {
				return errSyntaxExec("GroupDestructive", "destructive command inside group")
			}
		}
	}
	return nil
}

// run evaluates cmd's address against cur, executes it, and returns the
// range cmd ultimately acted on (used by semicolon-chained sub-evaluation
// and by the caller to place the final dot).
func (e *Executor) run(cmd *Cmd, cur Range) (Range, error) {
	r, err := e.Win.Eval(cmd.Addr, cur)
	if err != nil {
		return Range{}, err
	}

	switch cmd.Name {
	case CmdAppend:
		if err := e.Transcript.Add(Change{Kind: Insert, Range: Range{r.End, r.End}, Data: []byte(cmd.Text)}); err != nil {
			return Range{}, err
		}
	case CmdInsert:
		if err := e.Transcript.Add(Change{Kind: Insert, Range: Range{r.Start, r.Start}, Data: []byte(cmd.Text)}); err != nil {
			return Range{}, err
		}
	case CmdChange:
		if err := e.Transcript.Add(Change{Kind: ChangeReplace, Range: r, Data: []byte(cmd.Text)}); err != nil {
			return Range{}, err
		}
	case CmdDelete:
		if err := e.Transcript.Add(Change{Kind: Delete, Range: r}); err != nil {
			return Range{}, err
		}
	case CmdPlace:
		e.Placements = append(e.Placements, Placement{Range: r})
	case CmdGuard:
		c, err := e.Win.compile(cmd.Regex)
		if err != nil {
			return Range{}, err
		}
		if matches := c.FindAllInRange(e.Win.Table, r.Start, r.End); len(matches) > 0 {
			e.populateMatchRegisters(c, Range{matches[0][0], matches[0][1]})
			return e.run(cmd.Sub, r)
		}
	case CmdVeto:
		c, err := e.Win.compile(cmd.Regex)
		if err != nil {
			return Range{}, err
		}
		if !c.MatchesRange(e.Win.Table, r.Start, r.End) {
			return e.run(cmd.Sub, r)
		}
	case CmdLoopX:
		if err := e.loopX(cmd, r); err != nil {
			return Range{}, err
		}
	case CmdLoopY:
		if err := e.loopY(cmd, r); err != nil {
			return Range{}, err
		}
	case CmdLoopXFile:
		if err := e.loopFile(cmd, false); err != nil {
			return Range{}, err
		}
	case CmdLoopYFile:
		if err := e.loopFile(cmd, true); err != nil {
			return Range{}, err
		}
	case CmdSubst:
		if err := e.loopX(substAsLoop(cmd), r); err != nil {
			return Range{}, err
		}
	case CmdPipeTo, CmdPipeFrom, CmdPipeThru:
		if err := e.runFilter(cmd, r); err != nil {
			return Range{}, err
		}
	case CmdShell:
		if e.Shell == nil {
			return Range{}, errSyntaxExec("CommandFailed", "no shell filter configured")
		}
		_, status, err := e.Shell.Run(cmd.Shell, nil)
		if err != nil || status != 0 {
			return Range{}, errSyntaxExec("CommandFailed", "shell command failed")
		}
	case CmdWrite:
		if e.Files == nil {
			return Range{}, errSyntaxExec("CommandFailed", "no file ops configured")
		}
		if len(e.Transcript.Changes) > 0 {
			// An edit earlier in this same command hasn't landed yet
			// (WriteConflict). Apply must run before Write sees
			// consistent content.
			return Range{}, errSyntaxExec("WriteConflict", "write during unfinished change")
		}
		if err := e.Files.Write(cmd.Shell, cmd.Force); err != nil {
			return Range{}, errSyntaxExec("CommandFailed", err.Error())
		}
	case CmdRead:
		if e.Files == nil {
			return Range{}, errSyntaxExec("CommandFailed", "no file ops configured")
		}
		data, err := e.Files.Read(cmd.Shell)
		if err != nil {
			return Range{}, errSyntaxExec("CommandFailed", err.Error())
		}
		if err := e.Transcript.Add(Change{Kind: Insert, Range: Range{r.End, r.End}, Data: data}); err != nil {
			return Range{}, err
		}
	case CmdEdit:
		if e.Files == nil {
			return Range{}, errSyntaxExec("CommandFailed", "no file ops configured")
		}
		if err := e.Files.Edit(cmd.Shell, cmd.Force); err != nil {
			return Range{}, errSyntaxExec("CommandFailed", err.Error())
		}
	case CmdQuit:
		if e.Files == nil {
			return Range{}, errSyntaxExec("CommandFailed", "no file ops configured")
		}
		if err := e.Files.Quit(cmd.Force); err != nil {
			return Range{}, errSyntaxExec("CommandFailed", err.Error())
		}
	case CmdGroup:
		for _, sub := range cmd.Group {
			if e.Interrupted != nil && e.Interrupted() {
				return Range{}, errSyntaxExec("Interrupted", "user cancelled")
			}
			if _, err := e.run(sub, r); err != nil {
				return Range{}, err
			}
		}
	}
	return r, nil
}

func substAsLoop(cmd *Cmd) *Cmd {
	return &Cmd{
		Name:  CmdLoopX,
		Regex: cmd.Regex,
		Sub:   &Cmd{Name: CmdChange, Text: cmd.Text},
	}
}

func inCountMod(mod CountMod, iter, total int) bool {
	if mod.HasRange {
		lo, hi := mod.Lo, mod.Hi
		if lo < 0 {
			lo = total + lo + 1
		}
		if hi < 0 {
			hi = total + hi + 1
		}
		return iter >= lo && iter <= hi
	}
	if mod.Mod > 0 {
		return iter%mod.Mod == 0
	}
	return true
}

func (e *Executor) loopX(cmd *Cmd, r Range) error {
	c, err := e.Win.compile(cmd.Regex)
	if err != nil {
		return err
	}
	matches := c.FindAllInRange(e.Win.Table, r.Start, r.End)
	size := e.Win.Table.Size()
	// Suppress a trailing zero-width match at EOF: x over an empty match
	// there would loop forever.
	if n := len(matches); n > 0 {
		last := matches[n-1]
		if last[0] == last[1] && last[1] == size {
			matches = matches[:n-1]
		}
	}
	total := len(matches)
	for i, m := range matches {
		if e.Interrupted != nil && e.Interrupted() {
			return errSyntaxExec("Interrupted", "user cancelled")
		}
		if !inCountMod(cmd.Count, i+1, total) {
			continue
		}
		e.populateMatchRegisters(c, Range{m[0], m[1]})
		if _, err := e.run(cmd.Sub, Range{m[0], m[1]}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) loopY(cmd *Cmd, r Range) error {
	c, err := e.Win.compile(cmd.Regex)
	if err != nil {
		return err
	}
	matches := c.FindAllInRange(e.Win.Table, r.Start, r.End)
	// Build the between-matches segments, including the leading segment
	// before the first match and the trailing segment after the last.
	var segs [][2]int
	pos := r.Start
	for _, m := range matches {
		segs = append(segs, [2]int{pos, m[0]})
		pos = m[1]
	}
	segs = append(segs, [2]int{pos, r.End})
	total := len(segs)
	for i, s := range segs {
		if e.Interrupted != nil && e.Interrupted() {
			return errSyntaxExec("Interrupted", "user cancelled")
		}
		if !inCountMod(cmd.Count, i+1, total) {
			continue
		}
		if _, err := e.run(cmd.Sub, Range{s[0], s[1]}); err != nil {
			return err
		}
	}
	return nil
}

// loopFile runs cmd.Sub once per open file whose name matches cmd.Regex
// (X), or once per file whose name does not match (Y), the "as
// x/y but over the set of open files matched by regex on filename". Each
// matching file's Sub runs with dot set to that file's whole content,
// mirroring x/y's own "dot starts as the loop range" convention generalized
// to file granularity.
func (e *Executor) loopFile(cmd *Cmd, invert bool) error {
	if e.MultiFile == nil {
		return errSyntaxExec("CommandFailed", "X/Y: no multi-file context configured")
	}
	c, err := e.Win.compile(cmd.Regex)
	if err != nil {
		return err
	}
	var names []string
	for _, name := range e.MultiFile.Names() {
		if c.MatchString(name) != invert {
			names = append(names, name)
		}
	}
	total := len(names)
	for i, name := range names {
		if e.Interrupted != nil && e.Interrupted() {
			return errSyntaxExec("Interrupted", "user cancelled")
		}
		if !inCountMod(cmd.Count, i+1, total) {
			continue
		}
		err := e.MultiFile.RunOnFile(name, func(sub *Executor) error {
			whole := Range{Start: 0, End: sub.Win.Table.Size()}
			_, err := sub.run(cmd.Sub, whole)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) runFilter(cmd *Cmd, r Range) error {
	if e.Shell == nil {
		return errSyntaxExec("CommandFailed", "no shell filter configured")
	}
	var input []byte
	if cmd.Name != CmdPipeFrom {
		input = make([]byte, r.End-r.Start)
		e.Win.Table.Read(r.Start, input)
	}
	out, status, err := e.Shell.Run(cmd.Shell, input)
	if err != nil || status != 0 {
		return errSyntaxExec("CommandFailed", "filter command failed")
	}
	switch cmd.Name {
	case CmdPipeFrom:
		return e.Transcript.Add(Change{Kind: Insert, Range: Range{r.Start, r.Start}, Data: out})
	case CmdPipeTo:
		// '>' sends the range to the shell and discards output.
		return nil
	case CmdPipeThru:
		return e.Transcript.Add(Change{Kind: ChangeReplace, Range: r, Data: out})
	}
	return nil
}

// Apply applies e.Transcript to t: after the AST has been walked and the
// Transcript assembled, the staged Changes are applied in order. Call
// this only after Execute returns successfully; a failed
// Execute must leave the document untouched, so Apply must not be called in
// that case.
func (e *Executor) Apply(t *piece.Table) error {
	return e.Transcript.Apply(t.Insert, t.Delete)
}
