package imap

import (
	"fmt"
	"strconv"
	"strings"
)

// Constants

// Integer counter for the tags an argument can carry.
const (
	ArgAtom ArgType = iota
	ArgNil
	ArgQuoted
	ArgLiteral
	ArgLiteralSize
	ArgLiteralSizeNonSync
	ArgList
	ArgEOL
)

// Integer counter for the state of a parsed list.
const (
	ListClosed ListState = iota
	ListOpen
)

// Structs

// ArgType identifies which variant an Arg is.
type ArgType int

// ListState tells whether the closing parenthesis of
// a list was seen (ListClosed) or whether the parser
// stopped early inside of it (ListOpen).
type ListState int

// Arg is one token of a parsed IMAP command line.
// The set of implementations is closed: Atom, Nil,
// Quoted, Literal, LiteralSize, LiteralSizeNonSync,
// *List and EOL. Command handlers should read args
// through the Get* and Must* functions instead of
// switching on the concrete type themselves.
type Arg interface {
	Type() ArgType
	String() string
	arg()
}

// Atom is an unquoted token, e.g. a command
// verb, a flag name or a bare mailbox name.
type Atom string

// Nil is the protocol's explicit NIL marker.
type Nil struct{}

// Quoted is a double-quoted string, unescaped.
type Quoted string

// Literal is a length-prefixed string whose
// bytes have already been read completely.
type Literal string

// LiteralSize announces a synchronizing literal
// of the given size whose bytes are still pending.
type LiteralSize uint64

// LiteralSizeNonSync announces a non-synchronizing
// literal (LITERAL+) whose bytes are still pending.
type LiteralSizeNonSync uint64

// EOL terminates a sequence of arguments. It is
// never a value by itself.
type EOL struct{}

// List is a parenthesized sequence of arguments.
type List struct {
	items []Arg
	state ListState
}

// Functions

func (t ArgType) String() string {

	switch t {
	case ArgAtom:
		return "atom"
	case ArgNil:
		return "NIL"
	case ArgQuoted:
		return "quoted string"
	case ArgLiteral:
		return "literal"
	case ArgLiteralSize:
		return "literal size"
	case ArgLiteralSizeNonSync:
		return "non-sync literal size"
	case ArgList:
		return "list"
	case ArgEOL:
		return "end of arguments"
	default:
		return fmt.Sprintf("ArgType(%d)", int(t))
	}
}

func (Atom) Type() ArgType               { return ArgAtom }
func (Nil) Type() ArgType                { return ArgNil }
func (Quoted) Type() ArgType             { return ArgQuoted }
func (Literal) Type() ArgType            { return ArgLiteral }
func (LiteralSize) Type() ArgType        { return ArgLiteralSize }
func (LiteralSizeNonSync) Type() ArgType { return ArgLiteralSizeNonSync }
func (*List) Type() ArgType              { return ArgList }
func (EOL) Type() ArgType                { return ArgEOL }

func (Atom) arg()               {}
func (Nil) arg()                {}
func (Quoted) arg()             {}
func (Literal) arg()            {}
func (LiteralSize) arg()        {}
func (LiteralSizeNonSync) arg() {}
func (*List) arg()              {}
func (EOL) arg()                {}

// String returns the atom verbatim.
func (a Atom) String() string { return string(a) }

// String returns the NIL keyword.
func (Nil) String() string { return "NIL" }

// String returns the quoted string in its wire form
// with backslashes and double quotes escaped.
func (q Quoted) String() string {

	var b strings.Builder

	b.Grow(len(q) + 2)
	b.WriteByte('"')

	for i := 0; i < len(q); i++ {

		if q[i] == '\\' || q[i] == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(q[i])
	}

	b.WriteByte('"')

	return b.String()
}

// String returns the synchronizing literal form
// including the size prefix and the data.
func (l Literal) String() string {
	return "{" + strconv.Itoa(len(l)) + "}\r\n" + string(l)
}

func (s LiteralSize) String() string {
	return "{" + strconv.FormatUint(uint64(s), 10) + "}"
}

func (s LiteralSizeNonSync) String() string {
	return "{" + strconv.FormatUint(uint64(s), 10) + "+}"
}

// String of the sentinel is empty, it never
// appears on the wire.
func (EOL) String() string { return "" }

// NewList builds a list from the raw child sequence
// a parser collected. If the last child is the EOL
// sentinel, the parser saw the closing parenthesis:
// the sentinel is dropped and the list is closed.
// Otherwise the parser stopped early and the list
// stays open with all children kept.
func NewList(raw ...Arg) *List {

	if len(raw) > 0 {

		if _, ok := raw[len(raw)-1].(EOL); ok {
			return newList(raw[:len(raw)-1], ListClosed)
		}
	}

	return newList(raw, ListOpen)
}

// OpenList builds a list the parser is still
// inside of, e.g. because a literal size ended
// the line before the closing parenthesis.
func OpenList(items ...Arg) *List {
	return newList(items, ListOpen)
}

// newList copies items into a new list. A sentinel
// among the children is a parser defect and panics.
func newList(items []Arg, state ListState) *List {

	assertNoSentinel(items)

	l := &List{
		items: make([]Arg, len(items)),
		state: state,
	}
	copy(l.items, items)

	return l
}

// assertNoSentinel panics if the end of arguments
// sentinel is part of the supplied list children.
func assertNoSentinel(items []Arg) {

	for i, item := range items {

		if _, ok := item.(EOL); ok {
			panic(fmt.Sprintf("imap: end of arguments sentinel at position %d of %d list children", i, len(items)))
		}
	}
}

// State reports whether the list was closed.
func (l *List) State() ListState {
	return l.state
}

// Len returns the number of children, never
// counting the end of arguments sentinel.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns the children of the list. The
// returned slice must not be modified.
func (l *List) Items() []Arg {
	return l.items[:len(l.items):len(l.items)]
}

// String returns the parenthesized wire form. An open
// list is printed without its closing parenthesis.
func (l *List) String() string {

	parts := make([]string, len(l.items))
	for i, item := range l.items {
		parts[i] = item.String()
	}

	if l.state == ListOpen {
		return "(" + strings.Join(parts, " ")
	}

	return "(" + strings.Join(parts, " ") + ")"
}
