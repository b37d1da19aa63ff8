package imap

import (
	"fmt"
	"strconv"
	"strings"
)

// Structs

// ParseError reports where in a command line
// tokenizing failed.
type ParseError struct {
	Offset int
	Msg    string
}

// parser holds the state of tokenizing one line.
// Each frame collects the raw children of a list
// that has been opened but not yet closed; frame 0
// is the top level of the line.
type parser struct {
	line   string
	pos    int
	frames [][]Arg
}

// Functions

func (e *ParseError) Error() string {
	return fmt.Sprintf("imap: parse error at offset %d: %s", e.Offset, e.Msg)
}

// ParseLine tokenizes one complete command line, with
// CRLF already removed, into a sequence of arguments.
// If the whole line was consumed, the sequence ends with
// EOL. If the line ends with a literal size, tokenizing
// stops there: the size is the last argument, there is no
// EOL, and every list not yet closed is left open.
func ParseLine(line string) ([]Arg, error) {

	if strings.TrimSpace(line) == "" {
		return nil, &ParseError{Offset: 0, Msg: "empty command line"}
	}

	p := &parser{
		line:   line,
		frames: [][]Arg{nil},
	}

	return p.parse()
}

// Complete reports whether args were tokenized from
// a whole line, i.e. whether they end with EOL.
func Complete(args []Arg) bool {

	if len(args) == 0 {
		return false
	}

	_, ok := args[len(args)-1].(EOL)

	return ok
}

func (p *parser) errorf(format string, a ...interface{}) error {
	return &ParseError{Offset: p.pos, Msg: fmt.Sprintf(format, a...)}
}

// push appends a finished argument to the innermost frame.
func (p *parser) push(a Arg) {
	top := len(p.frames) - 1
	p.frames[top] = append(p.frames[top], a)
}

func (p *parser) parse() ([]Arg, error) {

	for {

		// Skip separating spaces.
		for p.pos < len(p.line) && p.line[p.pos] == ' ' {
			p.pos++
		}

		if p.pos >= len(p.line) {
			break
		}

		switch c := p.line[p.pos]; c {

		case '(':
			p.pos++
			p.frames = append(p.frames, nil)

		case ')':
			if len(p.frames) == 1 {
				return nil, p.errorf("unexpected ')'")
			}

			// The parser terminates each closed list with the
			// sentinel, NewList strips it and marks it closed.
			top := len(p.frames) - 1
			raw := append(p.frames[top], EOL{})
			p.frames = p.frames[:top]
			p.push(NewList(raw...))
			p.pos++

		case '"':
			s, err := p.quoted()
			if err != nil {
				return nil, err
			}
			p.push(Quoted(s))

		case '{':
			size, err := p.literalSize()
			if err != nil {
				return nil, err
			}
			p.push(size)

			return p.stopEarly(), nil

		default:
			a, err := p.atom()
			if err != nil {
				return nil, err
			}
			p.push(a)
		}
	}

	if len(p.frames) > 1 {
		return nil, p.errorf("%d unclosed list(s) at end of line", len(p.frames)-1)
	}

	return append(p.frames[0], EOL{}), nil
}

// stopEarly folds all frames that are still open into
// open lists and returns the top level without EOL.
func (p *parser) stopEarly() []Arg {

	for len(p.frames) > 1 {
		top := len(p.frames) - 1
		l := OpenList(p.frames[top]...)
		p.frames = p.frames[:top]
		p.push(l)
	}

	return p.frames[0]
}

func (p *parser) quoted() (string, error) {

	var b strings.Builder

	// Skip opening quote.
	p.pos++

	for p.pos < len(p.line) {

		c := p.line[p.pos]

		switch c {

		case '"':
			p.pos++
			return b.String(), nil

		case '\\':
			p.pos++
			if p.pos >= len(p.line) {
				return "", p.errorf("unterminated escape in quoted string")
			}

			// Only quoted-specials may be escaped.
			if p.line[p.pos] != '\\' && p.line[p.pos] != '"' {
				return "", p.errorf("invalid escape '\\%c' in quoted string", p.line[p.pos])
			}
			b.WriteByte(p.line[p.pos])

		case '\r', '\n':
			return "", p.errorf("line break in quoted string")

		default:
			b.WriteByte(c)
		}

		p.pos++
	}

	return "", p.errorf("unterminated quoted string")
}

func (p *parser) literalSize() (Arg, error) {

	end := strings.IndexByte(p.line[p.pos:], '}')
	if end < 0 {
		return nil, p.errorf("unterminated literal size")
	}
	end += p.pos

	if strings.TrimRight(p.line[end+1:], " ") != "" {
		return nil, p.errorf("literal size not at end of line")
	}

	digits := p.line[p.pos+1 : end]
	nonSync := strings.HasSuffix(digits, "+")
	digits = strings.TrimSuffix(digits, "+")

	size, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return nil, p.errorf("invalid literal size '%s'", p.line[p.pos:end+1])
	}

	p.pos = len(p.line)

	if nonSync {
		return LiteralSizeNonSync(size), nil
	}

	return LiteralSize(size), nil
}

func (p *parser) atom() (Arg, error) {

	start := p.pos

	for p.pos < len(p.line) {

		c := p.line[p.pos]

		if c == ' ' || c == '(' || c == ')' || c == '"' {
			break
		}

		if c < 0x20 || c == 0x7f {
			return nil, p.errorf("control character 0x%02x in atom", c)
		}

		p.pos++
	}

	text := p.line[start:p.pos]

	if equalFoldASCII(text, "NIL") {
		return Nil{}, nil
	}

	return Atom(text), nil
}
