package sam

// AddrKind identifies one node of the address grammar (the `simple`
// production plus the `,`/`;` compounds).
type AddrKind int

const (
	AddrNone AddrKind = iota
	AddrByte          // '#' N: byte offset N
	AddrLine          // N: line number N
	AddrMark          // 'M: named mark
	AddrRegexFwd      // /RE/: forward search
	AddrRegexBack     // ?RE?: backward search
	AddrDollar        // $: end of file
	AddrDot           // .: current dot (identity)
	AddrPlus          // +: next line
	AddrMinus         // -: previous line
	AddrPercent       // %: whole file
	AddrComma         // a,b: union
	AddrSemi          // a;b: b relative to a
)

// Addr is one node of an address expression.
type Addr struct {
	Kind    AddrKind
	Line    int
	Mark    byte
	Pattern string
	Left    *Addr
	Right   *Addr
}

// CmdName identifies a Sam command letter (the command table).
type CmdName byte

const (
	CmdAppend    CmdName = 'a'
	CmdInsert    CmdName = 'i'
	CmdChange    CmdName = 'c'
	CmdDelete    CmdName = 'd'
	CmdPlace     CmdName = 'p'
	CmdGuard     CmdName = 'g'
	CmdVeto      CmdName = 'v'
	CmdLoopX     CmdName = 'x'
	CmdLoopY     CmdName = 'y'
	CmdLoopXFile CmdName = 'X'
	CmdLoopYFile CmdName = 'Y'
	CmdSubst     CmdName = 's'
	CmdPipeTo    CmdName = '>'
	CmdPipeFrom  CmdName = '<'
	CmdPipeThru  CmdName = '|'
	CmdShell     CmdName = '!'
	CmdWrite     CmdName = 'w'
	CmdRead      CmdName = 'r'
	CmdEdit      CmdName = 'e'
	CmdQuit      CmdName = 'q'
	CmdGroup     CmdName = '{'
)

// CountMod is the x/y loop iteration filter: "%N" applies the body only
// when iter mod N == 0, "[lo,hi]" only when lo <= iter <= hi.
type CountMod struct {
	Mod      int // 0 means unused
	Lo, Hi   int
	HasRange bool
}

// Cmd is one parsed command node.
type Cmd struct {
	Addr   *Addr
	Name   CmdName
	Force  bool
	Count  CountMod
	Regex  string // for g/v/x/y/s's /pat/
	Text   string // for a/i/c, and s's replacement
	Shell  string // for !/>/</|, and w/r/e's path argument
	Sub    *Cmd   // for g/v/x/y/X/Y: the command to run per match
	Group  []*Cmd // for '{': sequence sharing Addr
}
