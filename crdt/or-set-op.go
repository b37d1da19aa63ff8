package crdt

import (
	"fmt"
	"sort"
	"strings"
)

// Constants

// Operations an ORSetOp can carry.
const (
	OpAdd    = "add"
	OpRemove = "rmv"
)

// Structs

// ORSetOp represents the op-based update message of
// a change to an ORSet. It contains the update operation
// (add or rmv) and a set of tag-value-pairs.
type ORSetOp struct {
	Operation string
	Arguments map[string]string
}

// Functions

// InitORSetOp returns a fresh ORSetOp variable.
func InitORSetOp(operation string) *ORSetOp {

	return &ORSetOp{
		Operation: operation,
		Arguments: make(map[string]string),
	}
}

// escape protects the delimiter and the escape
// character itself inside of values.
func escape(value string) string {
	return strings.NewReplacer(`\`, `\\`, "|", `\|`).Replace(value)
}

// String takes in a struct of type ORSetOp and turns it into
// its marshalled version: op|value1|tag1|value2|tag2...
// Pairs are ordered by tag to make the output stable.
func (msg *ORSetOp) String() string {

	tags := make([]string, 0, len(msg.Arguments))
	for tag := range msg.Arguments {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var b strings.Builder

	// Each update message starts with
	// the operation at the beginning.
	b.WriteString(msg.Operation)

	// Range over involved arguments and append each.
	for _, tag := range tags {
		fmt.Fprintf(&b, "|%s|%s", escape(msg.Arguments[tag]), tag)
	}

	return b.String()
}
