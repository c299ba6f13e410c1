package command

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/vis-editor/core/document"
	"github.com/vis-editor/core/view"
)

// shellRunner is the subprocess contract this package leaves to an
// external collaborator: given a shell command line and stdin bytes, run it and
// report stdout plus exit status. sam.ShellFilter is satisfied by this
// directly.
type shellRunner interface {
	Run(command string, input []byte) (output []byte, exitStatus int, err error)
}

// execShell is the concrete os/exec-backed shellRunner, spawning $SHELL -c
// (falling back to /bin/sh).
type execShell struct{ shell string }

func (s execShell) Run(command string, input []byte) ([]byte, int, error) {
	shell := s.shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell, "-c", command)
	cmd.Stdin = bytes.NewReader(input)
	var out bytes.Buffer
	cmd.Stdout = &out
	err := cmd.Run()
	status := 0
	if ee, ok := err.(*exec.ExitError); ok {
		status = ee.ExitCode()
		err = nil
	} else if err != nil {
		return nil, -1, errors.Wrap(err, "run shell command")
	}
	return out.Bytes(), status, nil
}

// fileOps implements sam.FileOps (the w/r/e/q command contract)
// against one Editor window.
type fileOps struct {
	ed *Editor
	w  *Window
}

func (f *fileOps) Write(path string, force bool) error {
	_ = force // "!" forces an overwrite past safety checks this
	// package does not itself impose (no ACL/ownership guard).
	return f.ed.Save(f.w, path)
}

// Read loads path's raw bytes for Sam's 'r' command, which inserts them
// into the current document's Transcript rather than opening a new window
// (the core needs only to load a byte range here, not a second Document's
// worth of slab/history bookkeeping).
func (f *fileOps) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}

func (f *fileOps) Edit(path string, force bool) error {
	if !force && f.w.Doc.Modified() {
		return errors.New("edit: unsaved changes (use ! to force)")
	}
	doc, err := document.Open(path, loadMethodToSlab(f.ed.Options.LoadMethod))
	if err != nil {
		return err
	}
	f.w.Doc = doc
	f.w.View = view.New(doc.Table, doc.Marks, f.w.View.Width, f.w.View.Height, f.ed.Options.TabWidth)
	f.w.Dispatcher.History = doc
	f.w.ctx = nil
	return nil
}

func (f *fileOps) Quit(force bool) error {
	if !force && f.w.Doc.Modified() {
		return errors.New("quit: unsaved changes (use ! to force)")
	}
	f.ed.quit = true
	f.ed.quitForce = force
	return nil
}
