package crdt

import (
	"strings"
	"testing"
)

// Variables

var v1 string
var v2 string
var v3 string

// Functions

func init() {

	// Values to use in tests below.
	v1 = "INBOX"
	v2 = "Sending ✉ around the 🌍: ✔"
	v3 = "a|b\\c"
}

// TestLookup executes a white-box unit test
// on implemented Lookup() function.
func TestLookup(t *testing.T) {

	// Create new ORSet.
	s := InitORSet()

	// Make sure, set is initially empty.
	if len(s.elements) != 0 {
		t.Fatalf("[crdt.TestLookup] Expected set list to be empty initially, but len(s.elements) returned %d\n", len(s.elements))
	}

	for i, v := range []string{v1, v2, v3} {

		if s.Lookup(v) {
			t.Fatalf("[crdt.TestLookup] Expected '%s' not to be in set but Lookup() returns true.\n", v)
		}

		s.elements[string(rune('1'+i))+"0000000-a071-4227-9e63-a4b0ee84688f"] = v

		if !s.Lookup(v) {
			t.Fatalf("[crdt.TestLookup] Expected '%s' to be in set but Lookup() returns false.\n", v)
		}
	}
}

// TestAddEffect executes a white-box unit test
// on implemented AddEffect() function.
func TestAddEffect(t *testing.T) {

	s := InitORSet()

	s.AddEffect(v1, "10000000-a071-4227-9e63-a4b0ee84688f")
	s.AddEffect(v1, "20000000-a071-4227-9e63-a4b0ee84688f")

	if len(s.elements) != 2 {
		t.Fatalf("[crdt.TestAddEffect] Expected two tags in set but found %d.\n", len(s.elements))
	}

	if s.elements["20000000-a071-4227-9e63-a4b0ee84688f"] != v1 {
		t.Fatalf("[crdt.TestAddEffect] Expected '%s' at second tag but found '%s'.\n", v1, s.elements["20000000-a071-4227-9e63-a4b0ee84688f"])
	}
}

// TestAdd executes a white-box unit test
// on implemented Add() function.
func TestAdd(t *testing.T) {

	s := InitORSet()

	op1 := s.Add(v1)
	op2 := s.Add(v2)
	op3 := s.Add(v3)

	if !s.Lookup(v1) || !s.Lookup(v2) || !s.Lookup(v3) {
		t.Fatalf("[crdt.TestAdd] Expected all added values to be in set.\n")
	}

	for _, op := range []*ORSetOp{op1, op2, op3} {

		if op.Operation != OpAdd {
			t.Fatalf("[crdt.TestAdd] Expected operation '%s' but got '%s'.\n", OpAdd, op.Operation)
		}

		if len(op.Arguments) != 1 {
			t.Fatalf("[crdt.TestAdd] Expected exactly one tag in op but found %d.\n", len(op.Arguments))
		}

		// Minimal length = 'add' + '|' + '|' + 36 UUID chars = 41 chars.
		if len(op.String()) < 41 {
			t.Fatalf("[crdt.TestAdd] Expected '%s' to be at least 41 characters long.\n", op.String())
		}
	}

	// Delimiters in values are escaped.
	if !strings.HasPrefix(op3.String(), "add|a\\|b\\\\c|") {
		t.Fatalf("[crdt.TestAdd] Expected escaped value in '%s'.\n", op3.String())
	}
}

// TestRemove executes a white-box unit test
// on implemented Remove() function.
func TestRemove(t *testing.T) {

	s := InitORSet()

	if op := s.Remove(v1); op != nil {
		t.Fatalf("[crdt.TestRemove] Expected nil op for missing element but got '%s'.\n", op)
	}

	s.Add(v1)
	s.Add(v1)
	s.Add(v2)

	op := s.Remove(v1)
	if op == nil || op.Operation != OpRemove || len(op.Arguments) != 2 {
		t.Fatalf("[crdt.TestRemove] Expected rmv op carrying both tags of '%s'.\n", v1)
	}

	if s.Lookup(v1) {
		t.Fatalf("[crdt.TestRemove] Expected '%s' to be removed.\n", v1)
	}

	if !s.Lookup(v2) {
		t.Fatalf("[crdt.TestRemove] Expected '%s' to survive removal of '%s'.\n", v2, v1)
	}

	// A tag added concurrently to a remove is not
	// part of the removed ones and survives it.
	s.AddEffect(v1, "30000000-a071-4227-9e63-a4b0ee84688f")
	s.RemoveEffect(op.Arguments)

	if !s.Lookup(v1) {
		t.Fatalf("[crdt.TestRemove] Expected concurrent add of '%s' to win.\n", v1)
	}
}

// TestGetAllValues executes a white-box unit test
// on implemented GetAllValues() function.
func TestGetAllValues(t *testing.T) {

	s := InitORSet()

	s.Add("b")
	s.Add("a")
	s.Add("b")

	values := s.GetAllValues()
	if len(values) != 2 || values[0] != "a" || values[1] != "b" {
		t.Fatalf("[crdt.TestGetAllValues] Expected [a b] but got %v.\n", values)
	}
}
