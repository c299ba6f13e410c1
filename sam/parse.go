package sam

import (
	"fmt"
)

// ParseError is returned for any malformed command; the SamSyntaxError
// taxonomy is carried as the Kind field so callers can discriminate.
type ParseError struct {
	Kind string
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("sam: %s: %s", e.Kind, e.Msg) }

func errSyntax(kind, msg string) error { return &ParseError{Kind: kind, Msg: msg} }

// Parse parses a single Sam command (possibly a '{' group) from s.
func Parse(s string) (*Cmd, error) {
	p := &parser{lex: newLexer(s)}
	p.lex.skipSpace()
	cmd, err := p.parseCmd()
	if err != nil {
		return nil, err
	}
	p.lex.skipSpace()
	if !p.lex.eof() {
		return nil, errSyntax("NewlineExpected", "trailing input after command")
	}
	return cmd, nil
}

type parser struct {
	lex *lexer
}

func (p *parser) parseAddr() (*Addr, error) {
	left, err := p.parseSimpleAddr()
	if err != nil {
		return nil, err
	}
	if left == nil {
		return nil, nil
	}
	p.lex.skipSpace()
	if p.lex.peek() == ',' || p.lex.peek() == ';' {
		op := p.lex.next()
		p.lex.skipSpace()
		right, err := p.parseAddr()
		if err != nil {
			return nil, err
		}
		kind := AddrComma
		if op == ';' {
			kind = AddrSemi
		}
		return &Addr{Kind: kind, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseSimpleAddr() (*Addr, error) {
	l := p.lex
	switch {
	case l.eof():
		return nil, nil
	case isDigit(l.peek()):
		n := l.scanNumber()
		return &Addr{Kind: AddrLine, Line: n}, nil
	case l.peek() == '#':
		l.next()
		if !isDigit(l.peek()) {
			return nil, errSyntax("BadAddress", "'#' requires a byte offset")
		}
		n := l.scanNumber()
		return &Addr{Kind: AddrByte, Line: n}, nil
	case l.peek() == '\'':
		l.next()
		if l.eof() {
			return nil, errSyntax("InvalidMark", "dangling '\\''")
		}
		m := l.next()
		return &Addr{Kind: AddrMark, Mark: byte(m)}, nil
	case l.peek() == '/':
		l.next()
		pat := l.scanDelimited('/')
		return &Addr{Kind: AddrRegexFwd, Pattern: pat}, nil
	case l.peek() == '?':
		l.next()
		pat := l.scanDelimited('?')
		return &Addr{Kind: AddrRegexBack, Pattern: pat}, nil
	case l.peek() == '$':
		l.next()
		return &Addr{Kind: AddrDollar}, nil
	case l.peek() == '.':
		l.next()
		return &Addr{Kind: AddrDot}, nil
	case l.peek() == '+':
		l.next()
		return &Addr{Kind: AddrPlus}, nil
	case l.peek() == '-':
		l.next()
		return &Addr{Kind: AddrMinus}, nil
	case l.peek() == '%':
		l.next()
		return &Addr{Kind: AddrPercent}, nil
	default:
		return nil, nil
	}
}

// isCmdLetter reports whether r can start a command (used to decide whether
// the parser has finished consuming an address).
func isCmdLetter(r rune) bool {
	switch r {
	case 'a', 'i', 'c', 'd', 'p', 'g', 'v', 'x', 'y', 'X', 'Y', 's',
		'>', '<', '|', '!', 'w', 'r', 'e', 'q', '{', '}':
		return true
	}
	return false
}

func (p *parser) parseCmd() (*Cmd, error) {
	l := p.lex
	l.skipSpace()
	if l.eof() {
		return nil, errSyntax("UnknownCommand", "empty command")
	}
	var addr *Addr
	if !isCmdLetter(l.peek()) {
		a, err := p.parseAddr()
		if err != nil {
			return nil, err
		}
		addr = a
		l.skipSpace()
	}
	if l.eof() {
		return nil, errSyntax("UnknownCommand", "missing command letter")
	}
	if l.peek() == '}' {
		return nil, errSyntax("UnmatchedBrace", "unexpected '}'")
	}
	name := CmdName(l.next())
	if !isCmdLetter(rune(name)) {
		return nil, errSyntax("UnknownCommand", fmt.Sprintf("unknown command %q", string(name)))
	}
	cmd := &Cmd{Addr: addr, Name: name}

	force := false
	if l.peek() == '!' && name != CmdShell {
		l.next()
		force = true
	}
	cmd.Force = force

	switch name {
	case CmdAppend, CmdInsert, CmdChange:
		cmd.Text = p.parseText()
	case CmdDelete, CmdPlace:
		// no arguments
	case CmdGuard, CmdVeto:
		pat, err := p.parseRequiredRegex()
		if err != nil {
			return nil, err
		}
		cmd.Regex = pat
		l.skipSpace()
		sub, err := p.parseCmd()
		if err != nil {
			return nil, err
		}
		cmd.Sub = sub
	case CmdLoopX, CmdLoopY, CmdLoopXFile, CmdLoopYFile:
		pat, err := p.parseRequiredRegex()
		if err != nil {
			return nil, err
		}
		cmd.Regex = pat
		l.skipSpace()
		if l.peek() == '#' {
			l.next()
			mod, err := p.parseCountMod()
			if err != nil {
				return nil, err
			}
			cmd.Count = mod
			l.skipSpace()
		}
		sub, err := p.parseCmd()
		if err != nil {
			return nil, err
		}
		cmd.Sub = sub
	case CmdSubst:
		if l.eof() {
			return nil, errSyntax("BadAddress", "s requires /pattern/replacement/")
		}
		delim := l.next()
		pat := l.scanDelimited(delim)
		repl := l.scanDelimited(delim)
		cmd.Regex = pat
		cmd.Text = repl
	case CmdPipeTo, CmdPipeFrom, CmdPipeThru, CmdShell:
		cmd.Shell = l.scanShellArg()
	case CmdWrite, CmdRead, CmdEdit:
		l.skipSpace()
		cmd.Shell = l.scanShellArg()
	case CmdQuit:
		// no arguments
	case CmdGroup:
		for {
			l.skipSpace()
			if l.eof() {
				return nil, errSyntax("UnmatchedBrace", "missing '}'")
			}
			if l.peek() == '}' {
				l.next()
				break
			}
			sub, err := p.parseCmd()
			if err != nil {
				return nil, err
			}
			cmd.Group = append(cmd.Group, sub)
		}
	default:
		return nil, errSyntax("UnknownCommand", fmt.Sprintf("unsupported command %q", string(name)))
	}
	return cmd, nil
}

func (p *parser) parseRequiredRegex() (string, error) {
	l := p.lex
	l.skipSpace()
	if l.eof() || l.peek() != '/' {
		return "", errSyntax("BadAddress", "expected /regex/")
	}
	l.next()
	return l.scanDelimited('/'), nil
}

func (p *parser) parseCountMod() (CountMod, error) {
	l := p.lex
	if isDigit(l.peek()) {
		lo := l.scanNumber()
		if l.peek() == ',' {
			l.next()
			hi := l.scanNumber()
			return CountMod{Lo: lo, Hi: hi, HasRange: true}, nil
		}
		return CountMod{Lo: lo, Hi: lo, HasRange: true}, nil
	}
	if l.peek() == '%' {
		l.next()
		n := l.scanNumber()
		return CountMod{Mod: n}, nil
	}
	return CountMod{}, errSyntax("InvalidCount", "expected count or %mod after '#'")
}

// parseText reads the a/i/c text argument: either a delimited string
// (the first non-space, non-newline rune after the command letter is the
// delimiter) or, if the next rune is a newline, a dot-terminated block
// (the text production).
func (p *parser) parseText() string {
	l := p.lex
	l.skipSpace()
	if l.eof() {
		return ""
	}
	if l.peek() == '\n' {
		l.next()
		return l.scanDotText()
	}
	delim := l.next()
	return l.scanDelimited(delim)
}
