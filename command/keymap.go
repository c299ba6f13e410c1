package command

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vis-editor/core/mode"
)

// modeByName resolves the ":map mode lhs rhs" mode argument to one of
// the mode.Mode tree's leaf nodes. Only the modes a user would sensibly
// target from ":map" are exposed; the internal accumulator nodes (MOVE,
// OPERATOR, REGISTER, ...) are reached through Normal/Visual's parent chain
// already and are not separate mapping targets.
func modeByName(name string) (*mode.Mode, error) {
	switch strings.ToLower(name) {
	case "normal", "n":
		return mode.Normal, nil
	case "visual", "v":
		return mode.Visual, nil
	case "visual-line", "vl":
		return mode.VisualLine, nil
	case "insert", "i":
		return mode.Insert, nil
	case "replace", "r":
		return mode.Replace, nil
	case "basic":
		return mode.Basic, nil
	default:
		return nil, errors.Errorf("map: unknown mode %q", name)
	}
}

// tokenizeKeys splits a ":map" rhs/lhs string into the key tokens Feed
// consumes: each bracketed "<...>" run is one token (so "<Esc>"/"<C-r>"
// survive as a single logical key, matching how Feed itself treats e.g.
// the literal control byte for <C-r>), everything else is one token per
// rune.
func tokenizeKeys(s string) []string {
	var toks []string
	runes := []rune(s)
	for i := 0; i < len(runes); {
		if runes[i] == '<' {
			j := i + 1
			for j < len(runes) && runes[j] != '>' {
				j++
			}
			if j < len(runes) {
				toks = append(toks, string(runes[i:j+1]))
				i = j + 1
				continue
			}
		}
		toks = append(toks, string(runes[i]))
		i++
	}
	return toks
}

// mapKey implements ":map mode lhs rhs": pressing lhs in mode
// replays rhs's keys through Dispatcher.Feed as if the user had typed them.
func mapKey(modeName, lhs, rhs string) error {
	m, err := modeByName(modeName)
	if err != nil {
		return err
	}
	if lhs == "" {
		return errors.New("map: empty lhs")
	}
	m.Bindings[lhs] = mode.Binding{Kind: mode.BindRemap, Keys: tokenizeKeys(rhs)}
	return nil
}

// unmapKey implements ":unmap mode lhs", removing a previously mapped
// binding. Unmapping a key that was never mapped (including a built-in
// one bound by mode/bindings.go) is not an error, matching vi's own
// tolerant :unmap.
func unmapKey(modeName, lhs string) error {
	m, err := modeByName(modeName)
	if err != nil {
		return err
	}
	delete(m.Bindings, lhs)
	return nil
}
