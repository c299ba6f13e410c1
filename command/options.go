// Package command implements the editor's external surface: the
// ":"-command table (edit, open, write, wq, quit/qall, split layouts,
// read, set, map/unmap, earlier/later, help, cd), the `:set` option
// table, and the glue that hands a parsed Sam command off to sam.Executor
// against one open Document. Options is a fixed struct with typed
// accessors; there are few enough of them that a config-file library
// would be overkill at this scale.
package command

import (
	"strconv"

	"github.com/pkg/errors"
)

// SaveMethod selects how Write commits bytes back to disk.
type SaveMethod int

const (
	SaveAuto SaveMethod = iota
	SaveAtomic
	SaveInplace
)

// LoadMethod mirrors slab.Method at the option-table layer so :set
// loadmethod can be expressed without this package importing slab's
// internals beyond what Options.LoadMethod already re-exports.
type LoadMethod int

const (
	LoadAuto LoadMethod = iota
	LoadRead
	LoadMmap
)

// Layout selects split orientation for :split/:vsplit.
type Layout int

const (
	LayoutHorizontal Layout = iota
	LayoutVertical
)

// Options holds every :set-able value, with the defaults
// vi/vis ship. Values are typed fields rather than a generic
// map[string]interface{}: the option table is small, fixed, and known at
// compile time, so a struct plus a name->accessor table (below) gives
// typo-resistant lookups without reflection.
type Options struct {
	Shell      string
	EscDelay   int // milliseconds
	AutoIndent bool
	ExpandTab  bool
	TabWidth   int

	ShowSpaces   bool
	ShowTabs     bool
	ShowNewlines bool
	ShowEOF      bool

	Numbers         bool
	RelativeNumbers bool
	CursorLine      bool
	ColorColumn     int // 0 disables

	SaveMethod SaveMethod
	LoadMethod LoadMethod
	Layout     Layout
	IgnoreCase bool
}

// DefaultOptions returns the option set vi/vis start with.
func DefaultOptions() *Options {
	return &Options{
		Shell:    "/bin/sh",
		EscDelay: 25,
		TabWidth: 8,
		ShowEOF:  true,
	}
}

// optionEntry binds a canonical option name plus its short alias
// ("expandtab"/"et") to typed get/set closures over one Options value.
type optionEntry struct {
	name  string
	alias string
	get   func(*Options) string
	set   func(*Options, string) error
}

func boolEntry(name, alias string, field func(*Options) *bool) optionEntry {
	return optionEntry{
		name: name, alias: alias,
		get: func(o *Options) string {
			if *field(o) {
				return "true"
			}
			return "false"
		},
		set: func(o *Options, v string) error {
			b, err := parseBool(v)
			if err != nil {
				return err
			}
			*field(o) = b
			return nil
		},
	}
}

// parseBool accepts vi's bare-name-means-true convention (":set nu" with no
// "=value" toggles a bool option on) alongside explicit true/false/0/1.
func parseBool(v string) (bool, error) {
	if v == "" {
		return true, nil
	}
	switch v {
	case "true", "1", "on":
		return true, nil
	case "false", "0", "off":
		return false, nil
	}
	return false, errors.Errorf("set: %q is not a boolean value", v)
}

func optionTable() []optionEntry {
	return []optionEntry{
		{name: "shell", get: func(o *Options) string { return o.Shell },
			set: func(o *Options, v string) error { o.Shell = v; return nil }},
		{name: "escdelay", get: func(o *Options) string { return strconv.Itoa(o.EscDelay) },
			set: func(o *Options, v string) error { return setInt(&o.EscDelay, v) }},
		boolEntry("autoindent", "ai", func(o *Options) *bool { return &o.AutoIndent }),
		boolEntry("expandtab", "et", func(o *Options) *bool { return &o.ExpandTab }),
		{name: "tabwidth", alias: "tw", get: func(o *Options) string { return strconv.Itoa(o.TabWidth) },
			set: func(o *Options, v string) error { return setInt(&o.TabWidth, v) }},
		boolEntry("show-spaces", "", func(o *Options) *bool { return &o.ShowSpaces }),
		boolEntry("show-tabs", "", func(o *Options) *bool { return &o.ShowTabs }),
		boolEntry("show-newlines", "", func(o *Options) *bool { return &o.ShowNewlines }),
		boolEntry("show-eof", "", func(o *Options) *bool { return &o.ShowEOF }),
		boolEntry("numbers", "nu", func(o *Options) *bool { return &o.Numbers }),
		boolEntry("relativenumbers", "rnu", func(o *Options) *bool { return &o.RelativeNumbers }),
		boolEntry("cursorline", "cul", func(o *Options) *bool { return &o.CursorLine }),
		{name: "colorcolumn", alias: "cc", get: func(o *Options) string { return strconv.Itoa(o.ColorColumn) },
			set: func(o *Options, v string) error { return setInt(&o.ColorColumn, v) }},
		{name: "savemethod", get: func(o *Options) string { return saveMethodString(o.SaveMethod) },
			set: func(o *Options, v string) error { return setSaveMethod(&o.SaveMethod, v) }},
		{name: "loadmethod", get: func(o *Options) string { return loadMethodString(o.LoadMethod) },
			set: func(o *Options, v string) error { return setLoadMethod(&o.LoadMethod, v) }},
		{name: "layout", get: func(o *Options) string { return layoutString(o.Layout) },
			set: func(o *Options, v string) error { return setLayout(&o.Layout, v) }},
		boolEntry("ignorecase", "ic", func(o *Options) *bool { return &o.IgnoreCase }),
	}
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "set: %q is not an integer", v)
	}
	*dst = n
	return nil
}

func saveMethodString(m SaveMethod) string {
	switch m {
	case SaveAtomic:
		return "atomic"
	case SaveInplace:
		return "inplace"
	default:
		return "auto"
	}
}

func setSaveMethod(dst *SaveMethod, v string) error {
	switch v {
	case "auto":
		*dst = SaveAuto
	case "atomic":
		*dst = SaveAtomic
	case "inplace":
		*dst = SaveInplace
	default:
		return errors.Errorf("set: savemethod must be auto, atomic or inplace, got %q", v)
	}
	return nil
}

func loadMethodString(m LoadMethod) string {
	switch m {
	case LoadRead:
		return "read"
	case LoadMmap:
		return "mmap"
	default:
		return "auto"
	}
}

func setLoadMethod(dst *LoadMethod, v string) error {
	switch v {
	case "auto":
		*dst = LoadAuto
	case "read":
		*dst = LoadRead
	case "mmap":
		*dst = LoadMmap
	default:
		return errors.Errorf("set: loadmethod must be auto, read or mmap, got %q", v)
	}
	return nil
}

func layoutString(l Layout) string {
	if l == LayoutVertical {
		return "v"
	}
	return "h"
}

func setLayout(dst *Layout, v string) error {
	switch v {
	case "h":
		*dst = LayoutHorizontal
	case "v":
		*dst = LayoutVertical
	default:
		return errors.Errorf("set: layout must be h or v, got %q", v)
	}
	return nil
}

func findOption(name string) (optionEntry, bool) {
	for _, e := range optionTable() {
		if e.name == name || (e.alias != "" && e.alias == name) {
			return e, true
		}
	}
	return optionEntry{}, false
}

// Set applies a ":set name[=value]" assignment, or ":set name" as a bare
// boolean toggle.
func (o *Options) Set(name, value string) error {
	e, ok := findOption(name)
	if !ok {
		return errors.Errorf("set: unknown option %q", name)
	}
	return e.set(o, value)
}

// Get returns the current string form of a named option.
func (o *Options) Get(name string) (string, error) {
	e, ok := findOption(name)
	if !ok {
		return "", errors.Errorf("set: unknown option %q", name)
	}
	return e.get(o), nil
}
