package imap

import (
	"fmt"

	"github.com/pkg/errors"
)

// Variables

// ErrUnreachable is the cause of every panic raised by
// the Must* functions. Such a panic means that a command
// handler consumed an argument it did not validate first.
var ErrUnreachable = errors.New("imap: argument of unexpected type")

// Structs

// NString is the value of an IMAP nstring. Valid is
// false if the argument was NIL, which is an absent
// value and not the text "NIL".
type NString struct {
	String string
	Valid  bool
}

// UnreachableError describes which category a Must*
// function wanted and what it was handed instead.
type UnreachableError struct {
	Want string
	Got  string
}

// Functions

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%v: wanted %s, got %s", ErrUnreachable, e.Want, e.Got)
}

// Unwrap allows errors.Is(err, ErrUnreachable).
func (e *UnreachableError) Unwrap() error {
	return ErrUnreachable
}

// unreachable panics with the stack attached, as
// reaching it is a defect in the calling handler.
func unreachable(want string, a Arg) {

	got := "nil"
	if a != nil {
		got = a.Type().String()
	}

	panic(errors.WithStack(&UnreachableError{
		Want: want,
		Got:  got,
	}))
}

// GetAtom returns the text of an atom. NIL is
// atom-shaped and yields "NIL".
func GetAtom(a Arg) (string, bool) {

	switch v := a.(type) {
	case Atom:
		return string(v), true
	case Nil:
		return v.String(), true
	}

	return "", false
}

// GetQuoted only accepts quoted strings.
func GetQuoted(a Arg) (string, bool) {

	if v, ok := a.(Quoted); ok {
		return string(v), true
	}

	return "", false
}

// GetString returns the text of an IMAP string,
// which is a quoted string or a literal. Atoms
// are not strings.
func GetString(a Arg) (string, bool) {

	switch v := a.(type) {
	case Quoted:
		return string(v), true
	case Literal:
		return string(v), true
	}

	return "", false
}

// GetAstring returns the text of an atom or string.
// RFC 3501 section 4.5 reads NIL as "NIL" here.
func GetAstring(a Arg) (string, bool) {

	switch v := a.(type) {
	case Atom:
		return string(v), true
	case Quoted:
		return string(v), true
	case Literal:
		return string(v), true
	case Nil:
		return v.String(), true
	}

	return "", false
}

// GetNstring maps NIL to an absent value and
// everything else the way GetAstring does.
func GetNstring(a Arg) (NString, bool) {

	if _, ok := a.(Nil); ok {
		return NString{}, true
	}

	s, ok := GetAstring(a)
	if !ok {
		return NString{}, false
	}

	return NString{String: s, Valid: true}, true
}

// GetLiteralSize returns the announced size of a
// literal whose data has not been read yet.
func GetLiteralSize(a Arg) (uint64, bool) {

	switch v := a.(type) {
	case LiteralSize:
		return uint64(v), true
	case LiteralSizeNonSync:
		return uint64(v), true
	}

	return 0, false
}

// GetList returns the children of a list argument.
func GetList(a Arg) ([]Arg, bool) {

	items, _, ok := GetListFull(a)

	return items, ok
}

// GetListFull returns the children of a list argument
// together with their count. Neither includes the end
// of arguments sentinel. A list the parser left open
// must not hold the sentinel either, it only exists one
// position past the children seen so far.
func GetListFull(a Arg) ([]Arg, int, bool) {

	l, ok := a.(*List)
	if !ok || l == nil {
		return nil, 0, false
	}

	if l.state == ListOpen {
		assertNoSentinel(l.items)
	}

	return l.Items(), len(l.items), true
}

// AtomEquals reports whether a is an atom matching
// s case-insensitively. Protocol keywords are ASCII,
// so only ASCII letters are folded.
func AtomEquals(a Arg, s string) bool {

	v, ok := GetAtom(a)
	if !ok {
		return false
	}

	return equalFoldASCII(v, s)
}

func equalFoldASCII(a string, b string) bool {

	if len(a) != len(b) {
		return false
	}

	for i := 0; i < len(a); i++ {

		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}

	return true
}

func lowerASCII(c byte) byte {

	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}

	return c
}

// MustAtom is GetAtom for arguments already
// validated to be atoms. It panics otherwise.
func MustAtom(a Arg) string {

	s, ok := GetAtom(a)
	if !ok {
		unreachable("atom", a)
	}

	return s
}

// MustQuoted panics unless a is a quoted string.
func MustQuoted(a Arg) string {

	s, ok := GetQuoted(a)
	if !ok {
		unreachable("quoted string", a)
	}

	return s
}

// MustString panics unless a is a quoted string or a literal.
func MustString(a Arg) string {

	s, ok := GetString(a)
	if !ok {
		unreachable("string", a)
	}

	return s
}

// MustAstring panics unless a is an astring.
func MustAstring(a Arg) string {

	s, ok := GetAstring(a)
	if !ok {
		unreachable("astring", a)
	}

	return s
}

// MustNstring panics unless a is an nstring.
func MustNstring(a Arg) NString {

	s, ok := GetNstring(a)
	if !ok {
		unreachable("nstring", a)
	}

	return s
}

// MustLiteralSize panics unless a announces a literal.
func MustLiteralSize(a Arg) uint64 {

	size, ok := GetLiteralSize(a)
	if !ok {
		unreachable("literal size", a)
	}

	return size
}

// MustList panics unless a is a list.
func MustList(a Arg) []Arg {

	items, ok := GetList(a)
	if !ok {
		unreachable("list", a)
	}

	return items
}
