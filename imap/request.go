package imap

import (
	"fmt"
	"strings"
)

// Variables

// SupportedCommands is a quick access map
// for checking if a supplied IMAP command
// is supported by pluto.
var SupportedCommands map[string]bool

// Structs

// Request represents the parsed content of a client
// command line sent to pluto. Args will be examined
// further in command specific functions.
type Request struct {
	Tag     string
	Command string
	Args    []Arg

	// Complete is false if the line ended with a
	// literal size and the literal data is pending.
	Complete bool
}

// RequestError is returned for lines that do not form
// an IMAP request. Its text is the response to send,
// the cause is kept for logging.
type RequestError struct {
	Cause error
}

// Functions

func init() {

	// Set supported IMAP commands to true in
	// a map to have quick access.
	SupportedCommands = make(map[string]bool)

	for command := range manifests {
		SupportedCommands[command] = true
	}
}

func (e *RequestError) Error() string {
	return "* BAD Received invalid IMAP command"
}

// Unwrap returns the reason the line was rejected.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// ParseRequest takes in a raw string representing
// a received IMAP request and tokenizes it into the
// defined request structure above. Any error encountered
// is handled useful to the IMAP protocol.
func ParseRequest(req string) (*Request, error) {

	args, err := ParseLine(req)
	if err != nil {
		return nil, &RequestError{Cause: err}
	}

	complete := Complete(args)
	if complete {
		args = args[:len(args)-1]
	}

	// There exists no first class IMAP command with less
	// than two tokens, the tag and the command itself.
	if len(args) < 2 {
		return nil, &RequestError{Cause: fmt.Errorf("expected tag and command, got %d token(s)", len(args))}
	}

	// A tag spelled NIL was tokenized as Nil and would
	// be echoed back as "NIL", so it is rejected.
	tag, ok := GetAtom(args[0])
	if !ok || args[0].Type() != ArgAtom {
		return nil, &RequestError{Cause: fmt.Errorf("tag is a %s, not an atom", args[0].Type())}
	}

	// Check that the tag was not left out.
	if SupportedCommands[strings.ToUpper(tag)] {
		return nil, &RequestError{Cause: fmt.Errorf("tag '%s' is a command name", tag)}
	}

	command, ok := GetAtom(args[1])
	if !ok {
		return nil, &RequestError{Cause: fmt.Errorf("command is a %s, not an atom", args[1].Type())}
	}

	return &Request{
		Tag:      tag,
		Command:  strings.ToUpper(command),
		Args:     args[2:],
		Complete: complete,
	}, nil
}

// Payload returns the arguments of the request in
// their wire form, mainly for logging.
func (req *Request) Payload() string {

	parts := make([]string, len(req.Args))
	for i, a := range req.Args {
		parts[i] = a.String()
	}

	return strings.Join(parts, " ")
}
