// Command vis is the editor binary's entry point: argument
// parsing for `vis [-v] [+cmd] [--] [file ...]`, opening the named files
// (or an empty buffer, or stdin via "-") into the command package's
// Editor, running each `+cmd` once after all files are open, and then driving a headless
// keystroke loop over stdin until every window closes.
//
// Terminal UI drawing, curses/termkey key-decoding and status-bar
// rendering belong to an external front end: this loop
// reads lines of input and either runs them as a ":"-command/Sam command
// (a line starting with ":") or a search (a line starting with "/" or "?"), or feeds
// each rune through the mode.Dispatcher as a keystroke, the same
// distinction a real terminal front-end would make after decoding input
// events, just without the terminal.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/vis-editor/core/command"
	"github.com/vis-editor/core/internal/vlog"
)

const version = "vis-core 0.1.0"

type args struct {
	showVersion bool
	initCmds    []string
	files       []string
}

func parseArgs(argv []string) args {
	var a args
	optionsDone := false
	for _, arg := range argv {
		switch {
		case optionsDone:
			a.files = append(a.files, arg)
		case arg == "--":
			optionsDone = true
		case arg == "-v":
			a.showVersion = true
		case strings.HasPrefix(arg, "+") && len(arg) > 1:
			a.initCmds = append(a.initCmds, arg[1:])
		default:
			a.files = append(a.files, arg)
		}
	}
	return a
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	a := parseArgs(argv)
	if a.showVersion {
		fmt.Println(version)
		return 0
	}

	ed := command.NewEditor()

	var interrupted int32
	ed.Interrupted = func() bool { return atomic.LoadInt32(&interrupted) != 0 }
	installSignals(&interrupted)

	if len(a.files) == 0 {
		ed.OpenEmpty()
	}
	for _, f := range a.files {
		if f == "-" {
			if err := openStdin(ed); err != nil {
				fmt.Fprintln(os.Stderr, "vis:", err)
				return 1
			}
			continue
		}
		if _, err := ed.OpenFile(f); err != nil {
			fmt.Fprintln(os.Stderr, "vis:", err)
			return 1
		}
	}

	for _, c := range a.initCmds {
		if err := ed.ExecuteLine(c); err != nil {
			vlog.Printf("init command %q: %v", c, err)
		}
	}

	return mainLoop(ed)
}

// openStdin implements the "- as a filename means read from standard
// input until EOF, reopen /dev/tty for interaction": the initial content
// comes from os.Stdin, and subsequent interactive input is read from
// /dev/tty rather than the now-exhausted stdin pipe.
func openStdin(ed *command.Editor) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	w := ed.OpenEmpty()
	if err := w.Doc.Insert(0, data); err != nil {
		return err
	}
	w.Doc.Snapshot()
	w.Doc.MarkSaved()

	tty, err := os.Open("/dev/tty")
	if err == nil {
		os.Stdin = tty
	}
	return nil
}

// installSignals captures SIGINT/SIGWINCH and surfaces them to the main
// loop via flags, using golang.org/x/sys/unix's signal numbers rather
// than stdlib syscall's platform-specific constants.
func installSignals(interrupted *int32) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, unix.SIGINT, unix.SIGWINCH)
	go func() {
		for sig := range ch {
			if sig == unix.SIGINT {
				atomic.StoreInt32(interrupted, 1)
			}
			// SIGWINCH: out of scope (terminal layout is external);
			// acknowledging the signal here is enough to keep it from
			// becoming a pending/blocked signal.
		}
	}()
}

// mainLoop reads lines from the current input (stdin, or /dev/tty after a
// "-" file) and either runs them as a command line or feeds each rune as a
// keystroke, until every window has closed or a quit command fires.
func mainLoop(ed *command.Editor) int {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		if quit, _ := ed.Quitting(); quit {
			break
		}
		line := scanner.Text()
		if err := dispatchLine(ed, line); err != nil {
			vlog.Printf("error: %v", err)
		}
		if quit, _ := ed.Quitting(); quit {
			break
		}
	}
	return 0
}

// dispatchLine routes one line of headless input: ":"-prefixed and bare
// search lines go through Editor.ExecuteLine; anything else is fed
// rune-by-rune through the current window's mode.Dispatcher, matching how
// a real front-end would deliver decoded key events one at a time.
func dispatchLine(ed *command.Editor, line string) error {
	if strings.HasPrefix(line, ":") {
		return ed.ExecuteLine(line[1:])
	}
	if strings.HasPrefix(line, "/") || strings.HasPrefix(line, "?") {
		return ed.ExecuteLine(line)
	}
	w := ed.CurrentWindow()
	if w == nil {
		return nil
	}
	ctx := w.Context()
	for _, r := range line {
		if _, err := w.Dispatcher.Feed(w.View, ctx, w.Doc.Regs, string(r)); err != nil {
			return err
		}
	}
	return nil
}
