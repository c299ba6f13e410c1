package command

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"github.com/vis-editor/core/motion"
	"github.com/vis-editor/core/regex"
	"github.com/vis-editor/core/view"
)

// handler runs one named ":"-command's body (the text after the command
// name has been stripped) against ed. force is whether the name was
// suffixed with "!" to force.
type handler func(ed *Editor, args string, force bool) error

type namedCommand struct {
	name    string
	handler handler
}

// commandTable is the named ":"-command set. Order does not matter for
// lookup (resolveName scans all entries) but is kept alphabetical-ish for
// readability.
func commandTable() []namedCommand {
	return []namedCommand{
		{"edit", cmdEdit},
		{"open", cmdOpen},
		{"write", cmdWrite},
		{"wq", cmdWriteQuit},
		{"quit", cmdQuit},
		{"qall", cmdQuitAll},
		{"split", cmdSplit},
		{"vsplit", cmdVSplit},
		{"new", cmdNew},
		{"vnew", cmdVNew},
		{"read", cmdRead},
		{"set", cmdSet},
		{"map", cmdMap},
		{"unmap", cmdUnmap},
		{"earlier", cmdEarlier},
		{"later", cmdLater},
		{"help", cmdHelp},
		{"cd", cmdCd},
	}
}

// resolveName implements the "lookup via unique prefix match among
// command names": name must be a prefix of exactly one table entry (or an
// exact match, which always wins even if other entries also start with
// it, vi's own convention; e.g. "w" is ambiguous between "write" and
// "wq", while "n" resolves to "new", the only entry starting with it).
func resolveName(name string) (namedCommand, error) {
	var matches []namedCommand
	for _, c := range commandTable() {
		if c.name == name {
			return c, nil
		}
		if strings.HasPrefix(c.name, name) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return namedCommand{}, errors.Errorf("unknown command %q", name)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.name
		}
		sort.Strings(names)
		return namedCommand{}, errors.Errorf("ambiguous command %q: matches %s", name, strings.Join(names, ", "))
	}
}

// splitWord consumes a leading run of ASCII letters from s (the
// command-name token), returning it and the remainder unchanged (including
// any leading space or "!").
func splitWord(s string) (word, rest string) {
	i := 0
	for i < len(s) && unicode.IsLetter(rune(s[i])) {
		i++
	}
	return s[:i], s[i:]
}

// ExecuteLine runs one line of input typed after ":" (or, for Sam, with no
// prefix at all; the caller strips any leading ":"). A single Sam
// command letter (a,c,d,g,i,p,s,v,x,y,X,Y,>,<,|,!,w,r,e,q,{,})
// is parsed by the Sam layer; anything whose leading token is a
// multi-letter word is looked up in the named-command table by unique
// prefix. This split is exactly what distinguishes, e.g., Sam's single-
// letter "w" (write) from named ":write"; both reach the same underlying
// Save/FileOps path, just through different grammars.
func (ed *Editor) ExecuteLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if line[0] == '/' || line[0] == '?' {
		return ed.search(line)
	}

	word, rest := splitWord(line)
	if len(word) >= 2 {
		force := false
		if strings.HasPrefix(rest, "!") {
			force = true
			rest = rest[1:]
		}
		cmd, err := resolveName(word)
		if err != nil {
			return err
		}
		return cmd.handler(ed, strings.TrimSpace(rest), force)
	}
	return ed.RunSam(line)
}

// search runs a bare "/pattern" or "?pattern" line against the current
// window, moving the
// primary selection's head to the match.
func (ed *Editor) search(line string) error {
	w := ed.CurrentWindow()
	if w == nil {
		return errors.New("search: no window open")
	}
	forward := line[0] == '/'
	pattern := line[1:]
	ctx := w.motionContext(ed.Options)
	compiled, err := regex.Compile(pattern)
	if err != nil {
		return errors.Wrap(err, "search")
	}
	ctx.SearchPattern = compiled
	ctx.SearchForward = forward
	m := motion.SearchForward
	if !forward {
		m = motion.SearchBackward
	}
	pos := w.View.Primary().Head
	next, ok := m.Apply(ctx, pos, 1)
	if !ok {
		return errors.New("search: pattern not found")
	}
	w.Doc.Regs.PutMatch(compiled.Submatches(w.Doc.Table, next, ctx.LastMatchEnd))
	w.View.SetSelections([]view.Selection{{Head: next}})
	return nil
}

func cmdEdit(ed *Editor, args string, force bool) error {
	w := ed.CurrentWindow()
	if w == nil {
		_, err := ed.OpenFile(args)
		return err
	}
	fo := &fileOps{ed: ed, w: w}
	return fo.Edit(args, force)
}

func cmdOpen(ed *Editor, args string, force bool) error {
	_ = force
	paths := strings.Fields(args)
	if len(paths) == 0 {
		return errors.New("open: no file given")
	}
	for _, p := range paths {
		if _, err := ed.OpenFile(p); err != nil {
			return err
		}
	}
	return nil
}

func cmdWrite(ed *Editor, args string, force bool) error {
	_ = force
	w := ed.CurrentWindow()
	if w == nil {
		return errors.New("write: no window open")
	}
	return ed.Save(w, args)
}

func cmdWriteQuit(ed *Editor, args string, force bool) error {
	if err := cmdWrite(ed, args, force); err != nil {
		return err
	}
	return cmdQuit(ed, "", force)
}

func cmdQuit(ed *Editor, _ string, force bool) error {
	w := ed.CurrentWindow()
	if w == nil {
		return nil
	}
	fo := &fileOps{ed: ed, w: w}
	if err := fo.Quit(force); err != nil {
		return err
	}
	ed.closeCurrent()
	if len(ed.Windows) == 0 {
		ed.quit = true
	} else {
		ed.quit = false // one window closing doesn't end the process
	}
	return nil
}

func cmdQuitAll(ed *Editor, _ string, force bool) error {
	if !force {
		for _, w := range ed.Windows {
			if w.Doc.Modified() {
				return errors.New("qall: unsaved changes (use ! to force)")
			}
		}
	}
	ed.quit = true
	ed.quitForce = force
	return nil
}

func cmdSplit(ed *Editor, args string, _ bool) error {
	ed.Options.Layout = LayoutHorizontal
	return openOrDup(ed, args)
}

func cmdVSplit(ed *Editor, args string, _ bool) error {
	ed.Options.Layout = LayoutVertical
	return openOrDup(ed, args)
}

func cmdNew(ed *Editor, _ string, _ bool) error {
	ed.Options.Layout = LayoutHorizontal
	ed.OpenEmpty()
	return nil
}

func cmdVNew(ed *Editor, _ string, _ bool) error {
	ed.Options.Layout = LayoutVertical
	ed.OpenEmpty()
	return nil
}

func openOrDup(ed *Editor, path string) error {
	if path == "" {
		ed.OpenEmpty()
		return nil
	}
	_, err := ed.OpenFile(path)
	return err
}

func cmdRead(ed *Editor, args string, _ bool) error {
	w := ed.CurrentWindow()
	if w == nil {
		return errors.New("read: no window open")
	}
	data, err := os.ReadFile(args)
	if err != nil {
		return errors.Wrapf(err, "read %s", args)
	}
	pos := w.View.Primary().Head
	if err := w.Doc.Insert(pos, data); err != nil {
		return err
	}
	w.Doc.Snapshot()
	w.View.Rebind()
	return nil
}

func cmdSet(ed *Editor, args string, _ bool) error {
	name, value := args, ""
	if i := strings.IndexAny(args, "= "); i >= 0 {
		name, value = args[:i], strings.TrimSpace(args[i+1:])
		value = strings.TrimPrefix(value, "=")
	}
	if name == "" {
		return errors.New("set: missing option name")
	}
	if value == "" && !strings.Contains(args, "=") {
		// Bare name: Set(name, "") turns a boolean option on (and gives any
		// other option that accepts an empty value that value); for an
		// option that rejects it, the name is only looked up, and its
		// current value is not reported.
		if err := ed.Options.Set(name, ""); err == nil {
			return nil
		}
		cur, err := ed.Options.Get(name)
		if err != nil {
			return err
		}
		_ = cur
		return nil
	}
	return ed.Options.Set(name, value)
}

func cmdMap(ed *Editor, args string, _ bool) error {
	fields := strings.SplitN(args, " ", 3)
	if len(fields) < 3 {
		return errors.New("map: expected 'mode lhs rhs'")
	}
	return mapKey(fields[0], fields[1], fields[2])
}

func cmdUnmap(ed *Editor, args string, _ bool) error {
	fields := strings.SplitN(args, " ", 2)
	if len(fields) < 2 {
		return errors.New("unmap: expected 'mode lhs'")
	}
	return unmapKey(fields[0], fields[1])
}

func cmdEarlier(ed *Editor, args string, _ bool) error { return walkHistory(ed, args, true) }
func cmdLater(ed *Editor, args string, _ bool) error   { return walkHistory(ed, args, false) }

// walkHistory implements the "earlier/later [N[d|h|m|s]]": a bare
// count walks that many Actions (History.Earlier/Later); a duration
// suffix calls History.Restore with now minus the duration for earlier,
// or now plus it for later. Restore only walks back toward the root, so
// later with a duration never redoes anything.
func walkHistory(ed *Editor, args string, earlier bool) error {
	w := ed.CurrentWindow()
	if w == nil {
		return errors.New("no window open")
	}
	args = strings.TrimSpace(args)
	if args == "" {
		args = "1"
	}
	if d, ok := parseHistoryDuration(args); ok {
		target := time.Now().Add(-d)
		if !earlier {
			target = time.Now().Add(d)
		}
		w.Doc.History.Restore(target)
		w.View.Rebind()
		return nil
	}
	n, err := strconv.Atoi(args)
	if err != nil {
		return errors.Wrapf(err, "earlier/later: bad count %q", args)
	}
	if earlier {
		w.Doc.History.Earlier(n)
	} else {
		w.Doc.History.Later(n)
	}
	w.View.Rebind()
	return nil
}

func parseHistoryDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	unit := s[len(s)-1]
	var mul time.Duration
	switch unit {
	case 'd':
		mul = 24 * time.Hour
	case 'h':
		mul = time.Hour
	case 'm':
		mul = time.Minute
	case 's':
		mul = time.Second
	default:
		return 0, false
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, false
	}
	return time.Duration(n) * mul, true
}

func cmdHelp(ed *Editor, _ string, _ bool) error {
	w := ed.OpenEmpty()
	w.Doc.Name = "[help]"
	text := buildHelpText()
	return w.Doc.Insert(0, []byte(text))
}

// buildHelpText renders the named-command table and option table into the
// buffer backing the ":help" command.
func buildHelpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	names := make([]string, 0, len(commandTable()))
	for _, c := range commandTable() {
		names = append(names, c.name)
	}
	sort.Strings(names)
	for _, n := range names {
		b.WriteString("  :" + n + "\n")
	}
	b.WriteString("\nOptions:\n")
	for _, e := range optionTable() {
		b.WriteString("  " + e.name)
		if e.alias != "" {
			b.WriteString(" / " + e.alias)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cmdCd(ed *Editor, args string, _ bool) error {
	if args == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		args = home
	}
	return os.Chdir(args)
}
