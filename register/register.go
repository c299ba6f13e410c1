// Package register implements the named byte-array stores: ordered
// per-slot content (one slot per active selection), a linewise flag, append
// mode, and the special-register table (default, numbered, blackhole,
// clipboard, last-search, last-command, ...).
package register

import (
	"bytes"
	"os/exec"
	"strconv"

	farm "github.com/dgryski/go-farm"
)

// Kind classifies a register's read/write behavior.
type Kind int

const (
	Normal Kind = iota
	Number
	Blackhole
	ClipboardKind
)

// Name identifies one register, mirroring vi's naming: '"' default, '0'
// last-yank, '1'..'9' sub-expression slots, '&' whole last match, '_'
// blackhole, '*'/'+' clipboard, '.' last insert, '/' last search, ':' last
// ex command, '!' last shell command, '#' slot-index register. Uppercase
// letters name the same slot as their lowercase counterpart but select
// append mode on the next Put.
type Name byte

const (
	Default      Name = '"'
	LastYank     Name = '0'
	WholeMatch   Name = '&'
	BlackholeReg Name = '_'
	ClipPrimary  Name = '*'
	ClipSelect   Name = '+'
	LastInsert   Name = '.'
	LastSearch   Name = '/'
	LastExCmd    Name = ':'
	LastShellCmd Name = '!'
	SlotIndex    Name = '#'
)

func canonical(n Name) Name {
	if n >= 'A' && n <= 'Z' {
		return n - 'A' + 'a'
	}
	return n
}

func isAppendName(n Name) bool { return n >= 'A' && n <= 'Z' }

func isDigit(n Name) bool { return n >= '1' && n <= '9' }

func kindOf(n Name) Kind {
	switch {
	case n == BlackholeReg:
		return Blackhole
	case n == ClipPrimary || n == ClipSelect:
		return ClipboardKind
	case isDigit(n) || n == SlotIndex:
		return Number
	default:
		return Normal
	}
}

// Clipboard is the external-program contract behind the '*'/'+'
// registers (vis-clipboard --copy|--paste). Tests substitute a mock.
type Clipboard interface {
	Copy(data []byte) error
	Paste() ([]byte, error)
}

// ShellClipboard shells out to the vis-clipboard helper, matching the
// external-program contract literally.
type ShellClipboard struct{ Program string }

// NewShellClipboard returns a Clipboard backed by the named helper program
// (default "vis-clipboard").
func NewShellClipboard(program string) *ShellClipboard {
	if program == "" {
		program = "vis-clipboard"
	}
	return &ShellClipboard{Program: program}
}

func (c *ShellClipboard) Copy(data []byte) error {
	cmd := exec.Command(c.Program, "--copy")
	cmd.Stdin = bytes.NewReader(data)
	return cmd.Run()
}

func (c *ShellClipboard) Paste() ([]byte, error) {
	cmd := exec.Command(c.Program, "--paste")
	return cmd.Output()
}

// Register holds one or more slots of byte content plus the linewise/append
// attributes.
type Register struct {
	Kind     Kind
	Linewise bool
	append   bool
	slots    [][]byte
}

// Store is a document's (or editor's) complete set of named registers.
type Store struct {
	regs      map[Name]*Register
	clipboard Clipboard
	lastHash  map[Name]uint64 // go-farm hash of the last clipboard read/write, for diff checks
}

// NewStore returns an empty Store; each register is created on first use.
func NewStore(clip Clipboard) *Store {
	s := &Store{regs: make(map[Name]*Register), clipboard: clip, lastHash: make(map[Name]uint64)}
	return s
}

func (s *Store) reg(name Name) *Register {
	c := canonical(name)
	r, ok := s.regs[c]
	if !ok {
		r = &Register{Kind: kindOf(c)}
		s.regs[c] = r
	}
	return r
}

// Resize ensures reg has at least n slots, one slot per selection.
func (s *Store) Resize(name Name, n int) {
	r := s.reg(name)
	for len(r.slots) < n {
		r.slots = append(r.slots, nil)
	}
	if n < len(r.slots) {
		r.slots = r.slots[:n]
	}
}

// Count returns the number of slots currently held by reg.
func (s *Store) Count(name Name) int {
	return len(s.reg(canonical(name)).slots)
}

// Get returns the content of slot in reg. Blackhole always reads empty;
// the SlotIndex register ('#') returns the slot's own index as decimal
// text.
func (s *Store) Get(name Name, slot int) []byte {
	c := canonical(name)
	switch kindOf(c) {
	case Blackhole:
		return nil
	case ClipboardKind:
		if s.clipboard == nil {
			return nil
		}
		data, err := s.clipboard.Paste()
		if err != nil {
			return nil
		}
		return data
	}
	if c == SlotIndex {
		return []byte(strconv.Itoa(slot))
	}
	r := s.regs[c]
	if r == nil || slot < 0 || slot >= len(r.slots) {
		return nil
	}
	return r.slots[slot]
}

// Put writes data into slot of reg, honoring append mode (set by naming the
// register with its uppercase form) and Blackhole's always-succeeds,
// discards-input behavior.
func (s *Store) Put(name Name, slot int, data []byte, linewise bool) {
	c := canonical(name)
	switch kindOf(c) {
	case Blackhole:
		return
	case ClipboardKind:
		if s.clipboard == nil {
			return
		}
		s.clipboard.Copy(data)
		s.lastHash[c] = farm.Hash64(data)
		return
	}
	r := s.reg(c)
	r.Linewise = linewise
	for len(r.slots) <= slot {
		r.slots = append(r.slots, nil)
	}
	if isAppendName(name) || r.append {
		r.slots[slot] = append(append([]byte(nil), r.slots[slot]...), data...)
	} else {
		r.slots[slot] = append([]byte(nil), data...)
	}
	r.append = false
}

// SetAppend arms reg's next Put to concatenate rather than overwrite, used
// when a caller resolves the register name once and wants to reuse it
// across multiple Put calls (e.g. a multi-selection yank written slot by
// slot, all in append mode for an uppercase-named register).
func (s *Store) SetAppend(name Name, on bool) {
	s.reg(canonical(name)).append = on
}

// PutRange is a convenience for operators: it writes content into reg/slot
// with the given linewise flag, exactly as Put does.
func (s *Store) PutRange(name Name, slot int, content []byte, linewise bool) {
	s.Put(name, slot, content, linewise)
}

// PutMatch populates the special match registers:
// '&' gets groups[0] (the whole match), and '1'-'9' get groups[1:], one
// sub-expression slot each (extra groups beyond 9 are dropped, a group that
// did not participate is left untouched). Called wherever a regex match
// becomes "the current match": a search landing, or a Sam g guard or x/s
// iteration matching its pattern (v and y have no match of their own).
func (s *Store) PutMatch(groups [][]byte) {
	if len(groups) == 0 {
		return
	}
	s.Put(WholeMatch, 0, groups[0], false)
	for i := 1; i < len(groups) && i <= 9; i++ {
		if groups[i] == nil {
			continue
		}
		s.Put(Name('0'+byte(i)), 0, groups[i], false)
	}
}

// Linewise reports reg's linewise flag (ignoring slot; the flag is
// register-wide, set by the most recent Put).
func (s *Store) Linewise(name Name) bool {
	c := canonical(name)
	if r := s.regs[c]; r != nil {
		return r.Linewise
	}
	return false
}

// ClipboardDirty reports whether the clipboard's current content differs
// (by go-farm hash) from what this Store last wrote to it. The external
// clipboard is only eventually consistent with our writes; the view layer
// uses this to decide whether to re-poll it.
func (s *Store) ClipboardDirty(name Name) bool {
	if s.clipboard == nil {
		return false
	}
	data, err := s.clipboard.Paste()
	if err != nil {
		return false
	}
	return farm.Hash64(data) != s.lastHash[canonical(name)]
}
