// Package history implements the revision graph of swap-span actions that
// backs undo/redo/earlier/later/restore. It is deliberately ignorant of what
// a Change actually swaps: callers (the piece package) supply values
// satisfying the Change interface, and History only orders and replays them.
//
// Actions live in a flat arena addressed by ActionID, never by pointer,
// so that undo/redo/earlier/later are simple index walks instead of graph
// pointer chasing.
package history

import "time"

// Change is one reversible edit. Apply performs it going forward (redo
// direction); Revert undoes it. Both must be idempotent-safe: History never
// calls either out of the paired order, but implementations should not
// assume internal state beyond "the opposite call happened last."
type Change interface {
	Apply() error
	Revert() error
	// Position reports where the edit was anchored, used as the undo/redo
	// cursor-placement hint.
	Position() int
}

// ActionID identifies an Action within a History's arena.
type ActionID uint32

// NilAction is returned where no action applies.
const NilAction ActionID = ^ActionID(0)

// Action groups the Changes made between two snapshots.
type Action struct {
	ID        ActionID
	Parent    ActionID
	Children  []ActionID
	Changes   []Change
	Timestamp time.Time
}

// History is the undo/redo revision graph for one document.
type History struct {
	actions []Action // arena; actions[0] is the root (empty, no changes)
	current ActionID // the action representing the current document state

	open    *Action  // the action currently being built, nil if none
	openID  ActionID // not maintained; Snapshot assigns open's id from len(actions)

	redo []ActionID // actions undone since the last edit, popped by Redo

	saved ActionID // current value at the most recent successful save

	now func() time.Time // overridable for deterministic tests
}

// New returns a History whose current state is an empty root Action.
func New() *History {
	h := &History{now: time.Now}
	h.actions = append(h.actions, Action{ID: 0, Parent: NilAction, Timestamp: h.now()})
	h.current = 0
	h.saved = 0
	return h
}

func (h *History) ensureOpen() *Action {
	if h.open == nil {
		h.open = &Action{Parent: h.current}
	}
	return h.open
}

// Record appends a Change to the currently open Action, opening one lazily
// if none is pending. The Change must already have been applied by the
// caller; Record only files it for later undo/redo.
func (h *History) Record(c Change) {
	open := h.ensureOpen()
	open.Changes = append(open.Changes, c)
	h.redo = nil
}

// Snapshot closes the currently open Action (if any pending changes exist)
// and clears the redo stack, branching the graph away from any
// previously-undone siblings. A Snapshot with no pending changes is a
// no-op.
func (h *History) Snapshot() {
	if h.open == nil || len(h.open.Changes) == 0 {
		h.open = nil
		return
	}
	id := ActionID(len(h.actions))
	h.open.ID = id
	h.open.Timestamp = h.now()
	h.actions = append(h.actions, *h.open)
	h.actions[h.current].Children = append(h.actions[h.current].Children, id)
	h.current = id
	h.open = nil
	h.redo = nil
}

// HasPending reports whether there are changes recorded but not yet
// snapshotted into an Action.
func (h *History) HasPending() bool {
	return h.open != nil && len(h.open.Changes) > 0
}

// Undo closes any pending Action, then reverts the most recent Action's
// Changes in reverse order and returns the position of the last reverted
// Change. It reports false if there is nothing to undo.
func (h *History) Undo() (pos int, ok bool) {
	h.Snapshot()
	if h.current == 0 {
		return 0, false
	}
	action := h.actions[h.current]
	for i := len(action.Changes) - 1; i >= 0; i-- {
		action.Changes[i].Revert()
		pos = action.Changes[i].Position()
	}
	h.redo = append(h.redo, h.current)
	h.current = action.Parent
	return pos, true
}

// Redo re-applies the most recently undone Action's Changes in forward
// order and returns the position of the last applied Change. It reports
// false if there is nothing to redo.
func (h *History) Redo() (pos int, ok bool) {
	if len(h.redo) == 0 {
		return 0, false
	}
	id := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	action := h.actions[id]
	for _, c := range action.Changes {
		c.Apply()
		pos = c.Position()
	}
	h.current = id
	return pos, true
}

// Earlier walks n Actions toward the root in chronological order, returning
// the position reported by the last step taken and how many steps actually
// happened (fewer than n at the root).
func (h *History) Earlier(n int) (pos int, steps int) {
	for i := 0; i < n; i++ {
		p, ok := h.Undo()
		if !ok {
			break
		}
		pos = p
		steps++
	}
	return pos, steps
}

// Later walks n Actions away from the root along the currently threaded
// redo branch.
func (h *History) Later(n int) (pos int, steps int) {
	for i := 0; i < n; i++ {
		p, ok := h.Redo()
		if !ok {
			break
		}
		pos = p
		steps++
	}
	return pos, steps
}

// Restore walks to the Action whose timestamp is closest to and not
// exceeding t, following Undo from the current position.
func (h *History) Restore(t time.Time) {
	h.Snapshot()
	for h.current != 0 && h.actions[h.current].Timestamp.After(t) {
		if _, ok := h.Undo(); !ok {
			break
		}
	}
}

// State returns the timestamp of the currently effective Action.
func (h *History) State() time.Time {
	return h.actions[h.current].Timestamp
}

// Current returns the ActionID of the currently effective Action.
func (h *History) Current() ActionID {
	return h.current
}

// MarkSaved records the current Action as the last-saved state.
func (h *History) MarkSaved() {
	h.Snapshot()
	h.saved = h.current
}

// Modified reports whether the document differs from the last-saved state.
func (h *History) Modified() bool {
	return h.saved != h.current
}
