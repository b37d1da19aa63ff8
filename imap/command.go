package imap

import (
	"fmt"
)

// Constants

// Integer counter for the grammar categories
// a command argument can be declared as.
const (
	KindAtom Kind = iota
	KindQuoted
	KindString
	KindAstring
	KindNstring
	KindList
	KindLiteralSize
)

// Structs

// Kind is a grammar category of an argument.
type Kind int

// Param declares one expected argument of a command.
type Param struct {
	Kind     Kind
	Optional bool
}

// Manifest lists the arguments a command takes,
// in order.
type Manifest []Param

// Variables

var (
	none    = Manifest{}
	astring = Manifest{{Kind: KindAstring}}
	twoAstr = Manifest{{Kind: KindAstring}, {Kind: KindAstring}}

	manifests = map[string]Manifest{
		"CAPABILITY":  none,
		"NOOP":        none,
		"LOGOUT":      none,
		"STARTTLS":    none,
		"LOGIN":       twoAstr,
		"SELECT":      astring,
		"EXAMINE":     astring,
		"CREATE":      astring,
		"DELETE":      astring,
		"SUBSCRIBE":   astring,
		"UNSUBSCRIBE": astring,
		"RENAME":      twoAstr,
		"LIST":        twoAstr,
		"LSUB":        twoAstr,
		"STATUS":      {{Kind: KindAstring}, {Kind: KindList}},
		"APPEND": {
			{Kind: KindAstring},
			{Kind: KindList, Optional: true},
			{Kind: KindQuoted, Optional: true},
			{Kind: KindLiteralSize},
		},
	}
)

// Functions

func (k Kind) String() string {

	switch k {
	case KindAtom:
		return "atom"
	case KindQuoted:
		return "quoted string"
	case KindString:
		return "string"
	case KindAstring:
		return "astring"
	case KindNstring:
		return "nstring"
	case KindList:
		return "list"
	case KindLiteralSize:
		return "literal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Matches reports whether a can be read as kind k.
// It only uses the non-panicking accessors.
func (k Kind) Matches(a Arg) bool {

	var ok bool

	switch k {
	case KindAtom:
		_, ok = GetAtom(a)
	case KindQuoted:
		_, ok = GetQuoted(a)
	case KindString:
		_, ok = GetString(a)
	case KindAstring:
		_, ok = GetAstring(a)
	case KindNstring:
		_, ok = GetNstring(a)
	case KindList:
		_, ok = GetList(a)
	case KindLiteralSize:
		_, ok = GetLiteralSize(a)
	}

	return ok
}

// ManifestFor returns the manifest of a supported
// command. The command has to be upper case.
func ManifestFor(command string) (Manifest, bool) {

	m, ok := manifests[command]

	return m, ok
}

// Validate checks args against the manifest. Optional
// params are skipped when the next argument does not
// match them. After a nil error, every argument matched
// a param, so handlers may read them with Must*.
func (m Manifest) Validate(args []Arg) error {

	i := 0

	for n, param := range m {

		if i < len(args) && param.Kind.Matches(args[i]) {
			i++
			continue
		}

		if param.Optional {
			continue
		}

		if i >= len(args) {
			return fmt.Errorf("missing %s as argument %d", param.Kind, n+1)
		}

		return fmt.Errorf("expected %s as argument %d, got %s", param.Kind, n+1, args[i].Type())
	}

	if i < len(args) {
		return fmt.Errorf("%d unexpected extra argument(s)", len(args)-i)
	}

	return nil
}

// ValidateArgs checks the arguments of a request
// against the manifest of its command.
func ValidateArgs(req *Request) error {

	m, ok := ManifestFor(req.Command)
	if !ok {
		return fmt.Errorf("command %s is not supported", req.Command)
	}

	if err := m.Validate(req.Args); err != nil {
		return fmt.Errorf("command %s: %v", req.Command, err)
	}

	return nil
}
