package regex

import "testing"

type bufReader []byte

func (b bufReader) Bytes() []byte { return b }
func (b bufReader) Size() int     { return len(b) }

func TestFindForwardWrapsOnce(t *testing.T) {
	c, err := Compile("foo")
	if err != nil {
		t.Fatal(err)
	}
	r := bufReader("foo bar foo baz")
	start, end, ok := c.FindForward(r, 4)
	if !ok || start != 8 || end != 11 {
		t.Fatalf("FindForward(4) = %d,%d,%v; want 8,11,true", start, end, ok)
	}
	// Searching past the last match should wrap to the first.
	start, end, ok = c.FindForward(r, 9)
	if !ok || start != 0 || end != 3 {
		t.Fatalf("FindForward(9) wrap = %d,%d,%v; want 0,3,true", start, end, ok)
	}
}

func TestFindBackwardWrapsOnce(t *testing.T) {
	c, _ := Compile("foo")
	r := bufReader("foo bar foo baz")
	start, end, ok := c.FindBackward(r, 9)
	if !ok || start != 0 || end != 3 {
		t.Fatalf("FindBackward(9) = %d,%d,%v; want 0,3,true", start, end, ok)
	}
	start, end, ok = c.FindBackward(r, 2)
	if !ok || start != 8 || end != 11 {
		t.Fatalf("FindBackward(2) wrap = %d,%d,%v; want 8,11,true", start, end, ok)
	}
}

func TestFindAllInRange(t *testing.T) {
	c, _ := Compile("foo")
	r := bufReader("foo bar foo baz")
	matches := c.FindAllInRange(r, 0, len(r))
	if len(matches) != 2 {
		t.Fatalf("FindAllInRange = %v, want 2 matches", matches)
	}
	if matches[0] != [2]int{0, 3} || matches[1] != [2]int{8, 11} {
		t.Fatalf("matches = %v", matches)
	}
}

func TestExpandSelfIsNoop(t *testing.T) {
	c, _ := Compile(".*")
	r := bufReader("hello")
	got := c.Expand(r, 0, 5, []byte("$0"))
	if string(got) != "hello" {
		t.Fatalf("Expand = %q, want hello", got)
	}
}
