package command

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/vis-editor/core/document"
)

// Save commits w's current content to path using the editor's configured
// SaveMethod: "atomic" writes to a temp file, fsyncs, and renames;
// "inplace" truncates and writes in place.
// ACL/SELinux/ownership preservation is out of this module's job; only
// the minimum "commit bytes back" contract is implemented here.
func (ed *Editor) Save(w *Window, path string) error {
	if path == "" {
		path = w.Doc.Name
	}
	if path == "" {
		return errors.New("write: no file name")
	}

	method := ed.Options.SaveMethod
	if method == SaveAuto {
		method = SaveAtomic
	}

	var err error
	switch method {
	case SaveAtomic:
		err = saveAtomic(path, w.Doc)
	case SaveInplace:
		err = saveInplace(path, w.Doc)
	}
	if err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	w.Doc.Name = path
	w.Doc.MarkSaved()
	return nil
}

// saveAtomic writes doc's content to a sibling temp file, fsyncs it, and
// renames it over path, preserving the existing file's mode if any.
func saveAtomic(path string, doc *document.Document) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := doc.WriteTo(tmp); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "fsync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return errors.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "rename into place")
	}
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}

// saveInplace truncates path and writes doc's content directly.
// An mmap-backed slab must be remapped to a private copy before an inplace
// save truncates the underlying file out from under it; Buffer.Load's
// MmapPrivate kind exists for that, but remapping an already-open Document
// is a caller (window-manager) decision this package does not make for
// a document it does not own more of than its Write path.
func saveInplace(path string, doc *document.Document) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "open for inplace write")
	}
	defer f.Close()
	if _, err := doc.WriteTo(f); err != nil {
		return errors.Wrap(err, "write")
	}
	return f.Sync()
}
