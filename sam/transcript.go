package sam

import "sort"

// ChangeKind classifies one Transcript entry.
type ChangeKind int

const (
	Insert ChangeKind = iota
	Delete
	ChangeReplace // delete Range then insert Data, as one unit (Sam's 'c')
)

// Change is one staged mutation, not yet applied. Range is the
// pre-edit span it affects; for Insert, Range is zero-width at the
// insertion point.
type Change struct {
	Kind  ChangeKind
	Range Range
	Data  []byte
}

// ErrConflict is returned by Transcript.Add when a new Change's range
// overlaps one already staged.
var ErrConflict = errSyntaxExec("Conflict", "overlapping transcript changes")

type execError struct {
	Kind string
	Msg  string
}

func (e *execError) Error() string { return "sam: " + e.Kind + ": " + e.Msg }

func errSyntaxExec(kind, msg string) error { return &execError{Kind: kind, Msg: msg} }

// Transcript is the sorted, non-overlapping set of Changes a Sam command
// stages before applying any of them.
type Transcript struct {
	Changes []Change
}

// Add inserts c into the Transcript in range.Start order, rejecting it
// with ErrConflict if its range overlaps any already-staged Change. The
// transcript stays sorted by range start with pairwise non-overlapping
// ranges.
func (t *Transcript) Add(c Change) error {
	i := sort.Search(len(t.Changes), func(i int) bool { return t.Changes[i].Range.Start >= c.Range.Start })
	if i > 0 && overlaps(t.Changes[i-1].Range, c.Range) {
		return ErrConflict
	}
	if i < len(t.Changes) && overlaps(c.Range, t.Changes[i].Range) {
		return ErrConflict
	}
	t.Changes = append(t.Changes, Change{})
	copy(t.Changes[i+1:], t.Changes[i:])
	t.Changes[i] = c
	return nil
}

func overlaps(a, b Range) bool {
	if a.Start == a.End || b.Start == b.End {
		// A zero-width insertion never conflicts with a span it merely
		// touches; it conflicts with a span it falls strictly inside, or
		// with another insertion at the exact same point.
		if a.Start == a.End && b.Start == b.End {
			return a.Start == b.Start
		}
		return a.Start > b.Start && a.Start < b.End || b.Start > a.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// Apply performs every staged Change against t in range order, tracking a
// running delta so later ranges (given in original document coordinates)
// land correctly despite earlier inserts/deletes shifting the document.
func (tr *Transcript) Apply(applyInsert func(pos int, data []byte) error, applyDelete func(pos, length int) error) error {
	delta := 0
	for _, c := range tr.Changes {
		start := c.Range.Start + delta
		switch c.Kind {
		case Insert:
			if err := applyInsert(start, c.Data); err != nil {
				return err
			}
			delta += len(c.Data)
		case Delete:
			length := c.Range.End - c.Range.Start
			if err := applyDelete(start, length); err != nil {
				return err
			}
			delta -= length
		case ChangeReplace:
			length := c.Range.End - c.Range.Start
			if length > 0 {
				if err := applyDelete(start, length); err != nil {
					return err
				}
			}
			if len(c.Data) > 0 {
				if err := applyInsert(start, c.Data); err != nil {
					return err
				}
			}
			delta += len(c.Data) - length
		}
	}
	return nil
}
